package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/localharvest/market/internal/market"
)

func outcomeLabel(err error) string {
	var serr *market.InsufficientStockError
	switch {
	case errors.As(err, &serr):
		return "insufficient_stock"
	case errors.Is(err, market.ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, market.ErrConcurrencyConflict):
		return "conflict"
	default:
		return "error"
	}
}

type addToCartReq struct {
	ListingID string `json:"listing_id"`
	Qty       int    `json:"qty"`
}

func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	var req addToCartReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ListingID == "" {
		writeResult(w, http.StatusBadRequest, result{Message: "invalid json"})
		return
	}
	// no stock check here; stock is validated at checkout
	if err := h.Cart.Add(r.Context(), sessionID(r), req.ListingID, req.Qty); err != nil {
		writeErr(w, err, "/cart")
		return
	}
	writeResult(w, http.StatusOK, result{Message: "added to cart", Redirect: "/cart"})
}

type updateCartReq struct {
	Quantities map[string]int `json:"quantities"`
}

func (h *Handler) updateCart(w http.ResponseWriter, r *http.Request) {
	var req updateCartReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeResult(w, http.StatusBadRequest, result{Message: "invalid json"})
		return
	}
	if err := h.Cart.Update(r.Context(), sessionID(r), req.Quantities); err != nil {
		writeErr(w, err, "/cart")
		return
	}
	writeResult(w, http.StatusOK, result{Message: "cart updated", Redirect: "/cart"})
}

func (h *Handler) removeFromCart(w http.ResponseWriter, r *http.Request) {
	if err := h.Cart.Remove(r.Context(), sessionID(r), chi.URLParam(r, "id")); err != nil {
		writeErr(w, err, "/cart")
		return
	}
	writeResult(w, http.StatusOK, result{Message: "removed from cart", Redirect: "/cart"})
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	lines, err := h.Cart.Snapshot(r.Context(), sessionID(r))
	if err != nil {
		writeErr(w, err, "/cart")
		return
	}
	writeJSON(w, http.StatusOK, lines)
}

type checkoutResp struct {
	result
	OrderID string          `json:"order_id,omitempty"`
	Total   decimal.Decimal `json:"total,omitempty"`
}

func (h *Handler) doCheckout(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.Checkout.Checkout(r.Context(), sessionID(r), userID(r))
	if err != nil {
		checkoutOutcomes.WithLabelValues(outcomeLabel(err)).Inc()
		writeErr(w, err, "/cart")
		return
	}
	checkoutOutcomes.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusCreated, checkoutResp{
		result:  result{OK: true, Message: "order placed", Redirect: "/orders/" + receipt.OrderID},
		OrderID: receipt.OrderID,
		Total:   receipt.Total,
	})
}

func (h *Handler) myOrders(w http.ResponseWriter, r *http.Request) {
	os, err := h.Orders.ByBuyer(r.Context(), userID(r))
	if err != nil {
		writeErr(w, err, "/")
		return
	}
	writeJSON(w, http.StatusOK, os)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.Orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err, "/orders")
		return
	}
	if o.BuyerID != userID(r) {
		writeResult(w, http.StatusNotFound, result{Message: "order not found", Redirect: "/orders"})
		return
	}
	writeJSON(w, http.StatusOK, o)
}
