// Package testdb provides in-memory database helpers for tests.
package testdb

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/arkadyev/zametki/internal/db"
)

// counter gives each test database a unique name so parallel tests never
// share state through SQLite's shared cache.
var counter atomic.Int64

// Fataler is the subset of testing.TB that Open needs. rapid.T satisfies
// it too, so property tests can open isolated databases per run.
type Fataler interface {
	Fatalf(format string, args ...interface{})
}

// New opens a fresh in-memory database with the application schema applied
// and closes it when the test finishes.
func New(t testing.TB) *db.DB {
	t.Helper()
	d, cleanup := Open(t)
	t.Cleanup(cleanup)
	return d
}

// Open opens a fresh in-memory database and returns it with a cleanup
// function the caller must invoke.
func Open(t Fataler) (*db.DB, func()) {
	dsn := fmt.Sprintf(
		"file:testdb-%d?mode=memory&cache=shared&_busy_timeout=5000&_foreign_keys=on",
		counter.Add(1),
	)
	d, err := db.OpenDSN(context.Background(), dsn)
	if err != nil {
		t.Fatalf("open in-memory database: %v", err)
	}
	return d, func() { d.Close() }
}
