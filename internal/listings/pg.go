package listings

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/localharvest/market/internal/market"
	"github.com/localharvest/market/internal/postgres"
)

type PGStore struct{ DB *pgxpool.Pool }

const listingCols = `id, seller_id, name, category, price::text, unit, quantity, active,
	description, image_path, thumbnail_path, created_at, updated_at`

func scanListing(row pgx.Row) (*market.Listing, error) {
	var l market.Listing
	var price string
	err := row.Scan(&l.ID, &l.SellerID, &l.Name, &l.Category, &price, &l.Unit,
		&l.Quantity, &l.Active, &l.Description, &l.ImagePath, &l.ThumbnailPath,
		&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, market.ErrNotFound
		}
		return nil, err
	}
	if l.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("parse price: %w", err)
	}
	return &l, nil
}

func (s *PGStore) Create(ctx context.Context, l *market.Listing) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO listings(id, seller_id, name, category, price, unit, quantity,
			active, description, image_path, thumbnail_path, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5::numeric,$6,$7,$8,$9,$10,$11,$12,$13)`,
		l.ID, l.SellerID, l.Name, l.Category, l.Price.String(), l.Unit, l.Quantity,
		l.Active, l.Description, l.ImagePath, l.ThumbnailPath, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert listing: %w", err)
	}
	return nil
}

func (s *PGStore) Get(ctx context.Context, id string) (*market.Listing, error) {
	return scanListing(s.DB.QueryRow(ctx, `SELECT `+listingCols+` FROM listings WHERE id=$1`, id))
}

func (s *PGStore) BySeller(ctx context.Context, sellerID string) ([]market.Listing, error) {
	return s.queryMany(ctx, `SELECT `+listingCols+` FROM listings WHERE seller_id=$1 ORDER BY created_at DESC`, sellerID)
}

func (s *PGStore) Browse(ctx context.Context) ([]market.Listing, error) {
	return s.queryMany(ctx, `SELECT `+listingCols+` FROM listings WHERE active AND quantity > 0 ORDER BY created_at DESC`)
}

func (s *PGStore) queryMany(ctx context.Context, q string, args ...any) ([]market.Listing, error) {
	rows, err := s.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []market.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

func (s *PGStore) Update(ctx context.Context, l *market.Listing) error {
	ct, err := s.DB.Exec(ctx, `
		UPDATE listings SET name=$2, category=$3, price=$4::numeric, unit=$5,
			quantity=$6, active=$7, description=$8, image_path=$9,
			thumbnail_path=$10, updated_at=now()
		WHERE id=$1`,
		l.ID, l.Name, l.Category, l.Price.String(), l.Unit, l.Quantity, l.Active,
		l.Description, l.ImagePath, l.ThumbnailPath)
	if err != nil {
		return conflictOr(err, "update listing")
	}
	if ct.RowsAffected() == 0 {
		return market.ErrNotFound
	}
	return nil
}

func (s *PGStore) Delete(ctx context.Context, id string) error {
	ct, err := s.DB.Exec(ctx, `DELETE FROM listings WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return market.ErrNotFound
	}
	return nil
}

func (s *PGStore) Available(ctx context.Context, id string) (market.Availability, error) {
	var a market.Availability
	var price string
	err := s.DB.QueryRow(ctx, `SELECT quantity, active, price::text FROM listings WHERE id=$1`, id).
		Scan(&a.Quantity, &a.Active, &price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return a, market.ErrNotFound
		}
		return a, err
	}
	if a.UnitPrice, err = decimal.NewFromString(price); err != nil {
		return a, fmt.Errorf("parse price: %w", err)
	}
	return a, nil
}

func (s *PGStore) ReserveAndDecrementMany(ctx context.Context, lines []market.CartLine) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := ReserveTx(ctx, tx, lines); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ReserveTx locks every listing in ascending-id order, validates stock and
// active state, and decrements. All lines succeed or the caller's tx must
// roll back. Returns the lines priced from the locked rows.
func ReserveTx(ctx context.Context, tx pgx.Tx, lines []market.CartLine) ([]ReservedLine, error) {
	if _, err := tx.Exec(ctx, `SET LOCAL lock_timeout = '2s'`); err != nil {
		return nil, err
	}

	// Fixed global lock order across all callers prevents deadlock between
	// two checkouts sharing listings.
	sorted := make([]market.CartLine, len(lines))
	copy(sorted, lines)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ListingID < sorted[j].ListingID })

	var shortfalls []market.Shortfall
	reserved := make([]ReservedLine, 0, len(sorted))
	for _, ln := range sorted {
		var qty int
		var active bool
		var price string
		err := tx.QueryRow(ctx,
			`SELECT quantity, active, price::text FROM listings WHERE id=$1 FOR UPDATE`,
			ln.ListingID).Scan(&qty, &active, &price)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("listing %s: %w", ln.ListingID, market.ErrNotFound)
			}
			return nil, conflictOr(err, "lock listing")
		}
		if !active || qty < ln.Qty {
			shortfalls = append(shortfalls, market.Shortfall{
				ListingID: ln.ListingID,
				Requested: ln.Qty,
				Available: qty,
				Inactive:  !active,
			})
			continue
		}
		unitPrice, err := decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("parse price: %w", err)
		}
		reserved = append(reserved, ReservedLine{ListingID: ln.ListingID, Qty: ln.Qty, UnitPrice: unitPrice})
	}
	if len(shortfalls) > 0 {
		return nil, &market.InsufficientStockError{Items: shortfalls}
	}

	for _, ln := range reserved {
		// quantity hitting zero clears active; rows stay >= 0 because the
		// locked read above already proved coverage.
		ct, err := tx.Exec(ctx, `
			UPDATE listings
			SET quantity = quantity - $2,
			    active = (quantity - $2 > 0) AND active,
			    updated_at = now()
			WHERE id=$1 AND quantity >= $2`, ln.ListingID, ln.Qty)
		if err != nil {
			return nil, conflictOr(err, "decrement stock")
		}
		if ct.RowsAffected() != 1 {
			return nil, market.ErrConcurrencyConflict
		}
	}
	return reserved, nil
}

func (s *PGStore) Restock(ctx context.Context, id string, addQty int) error {
	ct, err := s.DB.Exec(ctx, `
		UPDATE listings SET quantity = quantity + $2, active = true, updated_at = now()
		WHERE id=$1`, id, addQty)
	if err != nil {
		return conflictOr(err, "restock")
	}
	if ct.RowsAffected() == 0 {
		return market.ErrNotFound
	}
	return nil
}

func (s *PGStore) SetActive(ctx context.Context, id string, active bool) error {
	ct, err := s.DB.Exec(ctx, `UPDATE listings SET active=$2, updated_at=now() WHERE id=$1`, id, active)
	if err != nil {
		return conflictOr(err, "set active")
	}
	if ct.RowsAffected() == 0 {
		return market.ErrNotFound
	}
	return nil
}

// conflictOr maps lock-wait and serialization failures to the retryable
// conflict error; anything else is wrapped as-is.
func conflictOr(err error, op string) error {
	if postgres.IsLockConflict(err) {
		return fmt.Errorf("%s: %w", op, market.ErrConcurrencyConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}
