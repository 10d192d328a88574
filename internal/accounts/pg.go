package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/localharvest/market/internal/market"
)

type PGStore struct{ DB *pgxpool.Pool }

func (s *PGStore) Create(ctx context.Context, u *market.User) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO users(id, email, name, password_hash, created_at)
		VALUES ($1,$2,$3,$4,$5)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return market.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PGStore) ByEmail(ctx context.Context, email string) (*market.User, error) {
	return s.scan(s.DB.QueryRow(ctx,
		`SELECT id, email, name, password_hash, created_at FROM users WHERE email=$1`, email))
}

func (s *PGStore) Get(ctx context.Context, id string) (*market.User, error) {
	return s.scan(s.DB.QueryRow(ctx,
		`SELECT id, email, name, password_hash, created_at FROM users WHERE id=$1`, id))
}

func (s *PGStore) scan(row pgx.Row) (*market.User, error) {
	var u market.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, market.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
