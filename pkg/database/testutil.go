package database

import (
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

// NewMockPool creates a pgxmock pool for repository tests. The returned pool
// satisfies the repositories' DBTX interface and can be passed to any
// repository constructor. Call ExpectationsWereMet() at the end of each test
// to verify all expectations were fulfilled.
func NewMockPool() (pgxmock.PgxPoolIface, error) {
	return pgxmock.NewPool()
}
