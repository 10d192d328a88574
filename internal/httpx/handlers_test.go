package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localharvest/market/internal/market"
)

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) result {
	t.Helper()
	var res result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func TestWriteErrValidationListsEveryField(t *testing.T) {
	rec := httptest.NewRecorder()
	writeErr(rec, &market.ValidationError{Fields: map[string]string{
		"price": "price must be greater than zero",
		"name":  "name must not be empty",
	}}, "/listings/new")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	res := decodeResult(t, rec)
	assert.False(t, res.OK)
	assert.Contains(t, res.Message, "price must be greater than zero")
	assert.Contains(t, res.Message, "name must not be empty")
	assert.Equal(t, "/listings/new", res.Redirect)
}

func TestWriteErrInsufficientStockNamesEveryItem(t *testing.T) {
	rec := httptest.NewRecorder()
	writeErr(rec, &market.InsufficientStockError{Items: []market.Shortfall{
		{ListingID: "l1", Requested: 5, Available: 2},
		{ListingID: "l2", Requested: 1, Inactive: true},
	}}, "/cart")

	assert.Equal(t, http.StatusConflict, rec.Code)
	res := decodeResult(t, rec)
	assert.Contains(t, res.Message, "l1")
	assert.Contains(t, res.Message, "only 2 left")
	assert.Contains(t, res.Message, "l2 is no longer available")
}

func TestWriteErrGenericNeverLeaksInternals(t *testing.T) {
	rec := httptest.NewRecorder()
	writeErr(rec, assert.AnError, "/cart")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	res := decodeResult(t, rec)
	assert.Equal(t, "something went wrong, please try again", res.Message)
	assert.NotContains(t, res.Message, assert.AnError.Error())
}

func TestWriteErrTaxonomy(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{market.ErrNotFound, http.StatusNotFound},
		{market.ErrForbidden, http.StatusForbidden},
		{market.ErrEmptyCart, http.StatusBadRequest},
		{market.ErrInvalidQuantity, http.StatusBadRequest},
		{market.ErrConcurrencyConflict, http.StatusConflict},
		{market.ErrEmailTaken, http.StatusConflict},
		{market.ErrInvalidCredentials, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeErr(rec, tc.err, "/")
		assert.Equal(t, tc.code, rec.Code, "error %v", tc.err)
	}
}

func TestOutcomeLabel(t *testing.T) {
	assert.Equal(t, "insufficient_stock", outcomeLabel(&market.InsufficientStockError{}))
	assert.Equal(t, "empty_cart", outcomeLabel(market.ErrEmptyCart))
	assert.Equal(t, "conflict", outcomeLabel(market.ErrConcurrencyConflict))
	assert.Equal(t, "error", outcomeLabel(assert.AnError))
}
