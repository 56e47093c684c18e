package conversation

import (
	"database/sql"
	"time"
)

// SetNow injects a deterministic clock for boundary-detection tests.
// This file only compiles during `go test`.
func (s *Store) SetNow(f func() time.Time) {
	s.now = f
}

// DB exposes the internal *sql.DB for test helpers in conversation_test.
func (s *Store) DB() *sql.DB {
	return s.db
}
