package accounts

import (
	"context"

	"github.com/localharvest/market/internal/market"
)

type UserStore interface {
	// Create fails with market.ErrEmailTaken when the email is registered.
	Create(ctx context.Context, u *market.User) error
	ByEmail(ctx context.Context, email string) (*market.User, error)
	Get(ctx context.Context, id string) (*market.User, error)
}
