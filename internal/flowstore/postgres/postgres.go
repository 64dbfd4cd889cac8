// Package postgres implements flowstore.Store on PostgreSQL via pgx.
package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists flows in PostgreSQL through a pgx connection pool.
type Store struct {
	db *pgxpool.Pool
}

// New returns a store backed by the given pool.
func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
