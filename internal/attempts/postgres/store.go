package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dejobratic/pendingpay/internal/orders/domain"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Get(ctx context.Context, id string) (*domain.PaymentAttempt, error) {
	query := `
		SELECT id, kind, buyer_cpf, order_ids, outcome, detail, created_at, updated_at
		FROM payment_attempts
		WHERE id = $1
	`

	var attempt domain.PaymentAttempt
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&attempt.ID,
		&attempt.Kind,
		&attempt.BuyerCPF,
		&attempt.OrderIDs,
		&attempt.Outcome,
		&attempt.Detail,
		&attempt.CreatedAt,
		&attempt.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select payment attempt: %w", err)
	}

	return &attempt, nil
}

// Save inserts the attempt or updates a pending one. Terminal outcomes are left untouched.
func (s *Store) Save(ctx context.Context, attempt domain.PaymentAttempt) error {
	query := `
		INSERT INTO payment_attempts (id, kind, buyer_cpf, order_ids, outcome, detail, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE
		SET outcome = EXCLUDED.outcome,
			detail = EXCLUDED.detail,
			updated_at = EXCLUDED.updated_at
		WHERE payment_attempts.outcome = 'pending'
	`

	_, err := s.pool.Exec(ctx, query,
		attempt.ID,
		string(attempt.Kind),
		attempt.BuyerCPF,
		attempt.OrderIDs,
		string(attempt.Outcome),
		attempt.Detail,
		attempt.CreatedAt,
		attempt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert payment attempt: %w", err)
	}

	return nil
}
