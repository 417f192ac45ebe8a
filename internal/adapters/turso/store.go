// Package turso implements the aggregate store on a libsql database.
package turso

import (
	"database/sql"
)

// Store implements ports.IngestStore and ports.ReadStore with raw SQL.
// Aggregate counters are always moved with col = col + ? increments so
// concurrent writers to the same session or daily row cannot clobber each
// other.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying connection.
func (s *Store) DB() *sql.DB {
	return s.db
}
