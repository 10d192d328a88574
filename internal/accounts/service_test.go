package accounts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/localharvest/market/internal/market"
)

func TestRegisterValidation(t *testing.T) {
	svc := &Service{Users: NewMemStore()}
	_, err := svc.Register(context.Background(), "not-an-email", " ", "short")
	var verr *market.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "password")
}

func TestRegisterHashesPassword(t *testing.T) {
	svc := &Service{Users: NewMemStore()}
	u, err := svc.Register(context.Background(), "Anna@Farm.example", "Anna", "longenough")
	require.NoError(t, err)
	assert.Equal(t, "anna@farm.example", u.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword(u.PasswordHash, []byte("longenough")))
	assert.Error(t, bcrypt.CompareHashAndPassword(u.PasswordHash, []byte("wrong")))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := &Service{Users: NewMemStore()}
	_, err := svc.Register(context.Background(), "anna@farm.example", "Anna", "longenough")
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), "anna@farm.example", "Other", "longenough")
	assert.ErrorIs(t, err, market.ErrEmailTaken)
}
