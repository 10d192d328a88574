package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/localharvest/market/internal/listings"
	"github.com/localharvest/market/internal/market"
	"github.com/localharvest/market/internal/postgres"
)

type PGStore struct{ DB *pgxpool.Pool }

func (s *PGStore) CreateFromCart(ctx context.Context, buyerID string, lines []market.CartLine) (market.Receipt, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return market.Receipt{}, fmt.Errorf("begin checkout: %w", err)
	}
	defer tx.Rollback(ctx)

	reserved, err := listings.ReserveTx(ctx, tx, lines)
	if err != nil {
		return market.Receipt{}, err
	}

	total := decimal.Zero
	for _, ln := range reserved {
		total = total.Add(ln.UnitPrice.Mul(decimal.NewFromInt(int64(ln.Qty))))
	}

	orderID := uuid.NewString()
	now := time.Now().UTC()
	if _, err := tx.Exec(ctx, `
		INSERT INTO orders(id, buyer_id, total_price, status, created_at)
		VALUES ($1,$2,$3::numeric,$4,$5)`,
		orderID, buyerID, total.String(), market.OrderPending, now); err != nil {
		return market.Receipt{}, fmt.Errorf("insert order: %w", err)
	}
	for _, ln := range reserved {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(order_id, listing_id, qty, unit_price)
			VALUES ($1,$2,$3,$4::numeric)`,
			orderID, ln.ListingID, ln.Qty, ln.UnitPrice.String()); err != nil {
			return market.Receipt{}, fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		if postgres.IsLockConflict(err) {
			return market.Receipt{}, fmt.Errorf("commit checkout: %w", market.ErrConcurrencyConflict)
		}
		return market.Receipt{}, fmt.Errorf("commit checkout: %w", err)
	}
	return market.Receipt{OrderID: orderID, Total: total}, nil
}

func (s *PGStore) Get(ctx context.Context, orderID string) (*market.Order, error) {
	var o market.Order
	var total string
	err := s.DB.QueryRow(ctx,
		`SELECT id, buyer_id, total_price::text, status, created_at FROM orders WHERE id=$1`,
		orderID).Scan(&o.ID, &o.BuyerID, &total, &o.Status, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, market.ErrNotFound
		}
		return nil, err
	}
	if o.Total, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}

	rows, err := s.DB.Query(ctx,
		`SELECT order_id, listing_id, qty, unit_price::text FROM order_items WHERE order_id=$1 ORDER BY listing_id`,
		orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it market.OrderItem
		var price string
		if err := rows.Scan(&it.OrderID, &it.ListingID, &it.Qty, &price); err != nil {
			return nil, err
		}
		if it.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parse unit price: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	return &o, rows.Err()
}

func (s *PGStore) ByBuyer(ctx context.Context, buyerID string) ([]market.Order, error) {
	rows, err := s.DB.Query(ctx,
		`SELECT id, buyer_id, total_price::text, status, created_at
		 FROM orders WHERE buyer_id=$1 ORDER BY created_at DESC`, buyerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []market.Order
	for rows.Next() {
		var o market.Order
		var total string
		if err := rows.Scan(&o.ID, &o.BuyerID, &total, &o.Status, &o.CreatedAt); err != nil {
			return nil, err
		}
		if o.Total, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("parse total: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
