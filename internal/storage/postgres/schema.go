package postgres

import (
	"context"
	"fmt"
)

// schema is the idempotent bootstrap DDL for the service's two tables.
// Rows are never dropped: deletion is a soft flag checked by every query.
const schema = `
CREATE TABLE IF NOT EXISTS meals (
	id         BIGSERIAL        PRIMARY KEY,
	name       TEXT             NOT NULL UNIQUE,
	cuisine    TEXT             NOT NULL,
	price      DOUBLE PRECISION NOT NULL,
	difficulty TEXT             NOT NULL,
	battles    INTEGER          NOT NULL DEFAULT 0,
	wins       INTEGER          NOT NULL DEFAULT 0,
	deleted    BOOLEAN          NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ      NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_meals_name ON meals (name);

CREATE TABLE IF NOT EXISTS ingredients (
	id         BIGSERIAL   PRIMARY KEY,
	type       TEXT        NOT NULL,
	name       TEXT        NOT NULL UNIQUE,
	expires    DATE,
	quantity   INTEGER     NOT NULL,
	unit       TEXT        NOT NULL,
	deleted    BOOLEAN     NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_ingredients_name ON ingredients (name);
`

// EnsureSchema creates the meals and ingredients tables if they do not
// already exist.
//
// Precondition: The pool must be connected.
// Postcondition: Both tables exist; safe to call repeatedly.
func (p *Pool) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
