// Package postgres is the relational persistence gateway. Users and bills
// live in two tables; tier charges and payment history are stored as JSONB
// on the bill row so a bill is always read and replaced as one snapshot.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/ebms/billing-system/internal/core/domain"
)

const (
	connectTimeout = 10 * time.Second
	opTimeout      = 5 * time.Second

	uniqueViolation = "23505"
	meterConstraint = "users_customer_meter_key"
	driverName      = "postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	address       TEXT NOT NULL DEFAULT '',
	email         TEXT NOT NULL UNIQUE,
	meter_number  TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS users_customer_meter_key
	ON users (meter_number) WHERE role = 'CUSTOMER';

CREATE TABLE IF NOT EXISTS bills (
	id             TEXT PRIMARY KEY,
	customer_id    TEXT NOT NULL,
	customer_name  TEXT NOT NULL,
	meter_number   TEXT NOT NULL,
	period         TEXT NOT NULL,
	units_consumed BIGINT NOT NULL,
	amount         NUMERIC(14,2) NOT NULL,
	charges        JSONB NOT NULL DEFAULT '[]',
	status         TEXT NOT NULL,
	generated_at   TIMESTAMPTZ NOT NULL,
	payments       JSONB NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS bills_customer_generated_idx
	ON bills (customer_id, generated_at DESC);
`

// Connect opens a pool against dsn and verifies it with a ping.
func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the tables and indexes when they are missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("postgres schema: %w", err)
	}
	return nil
}

// Pinger adapts *sql.DB to the readiness probe.
type Pinger struct {
	DB *sql.DB
}

func (p Pinger) Name() string { return "postgres" }

func (p Pinger) Ping(ctx context.Context) error { return p.DB.PingContext(ctx) }

func userConflictOr(err error, op string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		if pqErr.Constraint == meterConstraint {
			return domain.ErrMeterExists
		}
		return domain.ErrUserExists
	}
	return domain.StorageError(op, err)
}
