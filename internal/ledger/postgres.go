package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AzrielTheHellrazor/Flicks/internal/domain"
)

// Schema expected by the Postgres ledger:
//
//	CREATE TABLE payments (
//	    tx_hash      TEXT PRIMARY KEY,
//	    request_id   TEXT NOT NULL UNIQUE,
//	    status       TEXT NOT NULL DEFAULT 'paid',
//	    created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
//	    fulfilled_at TIMESTAMPTZ
//	);

// Postgres persists payment records in a payments table via pgx.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Record(ctx context.Context, txHash, requestID string) error {
	_, err := p.pool.Exec(ctx,
		"INSERT INTO payments (tx_hash, request_id, status) VALUES ($1, $2, 'paid')",
		txHash, requestID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrPaymentConsumed
		}
		return fmt.Errorf("record payment: %w", err)
	}
	return nil
}

func (p *Postgres) Redeem(ctx context.Context, requestID string) error {
	tag, err := p.pool.Exec(ctx,
		"UPDATE payments SET status = 'fulfilled', fulfilled_at = now() WHERE request_id = $1 AND status = 'paid'",
		requestID)
	if err != nil {
		return fmt.Errorf("redeem payment: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	// Distinguish "never paid" from "already redeemed".
	var status string
	err = p.pool.QueryRow(ctx, "SELECT status FROM payments WHERE request_id = $1", requestID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrPaymentRequired
	}
	if err != nil {
		return fmt.Errorf("redeem payment: %w", err)
	}
	return domain.ErrPaymentConsumed
}

func (p *Postgres) FindByRequest(ctx context.Context, requestID string) (*Entry, error) {
	var entry Entry
	err := p.pool.QueryRow(ctx,
		"SELECT tx_hash, request_id, status, created_at, fulfilled_at FROM payments WHERE request_id = $1",
		requestID).Scan(&entry.TxHash, &entry.RequestID, &entry.Status, &entry.CreatedAt, &entry.FulfilledAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPaymentRequired
	}
	if err != nil {
		return nil, fmt.Errorf("find payment: %w", err)
	}
	return &entry, nil
}

var _ Ledger = (*Postgres)(nil)
