// Package testutil provides test helpers for setting up in-memory stores,
// creating fixtures, and making assertions.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"loanrisk/internal/store"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// SetupTestStore opens a fresh in-memory key-value store.
func SetupTestStore(t *testing.T) *store.KV {
	t.Helper()

	// Each store gets its own named in-memory database so tests stay
	// isolated while GORM's connection pool still sees the same data.
	dsn := fmt.Sprintf("file:testkv%d?mode=memory&cache=shared", nextID())
	kv, err := store.Open(dsn)
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	return kv
}

// TeardownTestStore closes the underlying store connection.
func TeardownTestStore(t *testing.T, kv *store.KV) {
	t.Helper()

	if err := kv.Close(); err != nil {
		t.Errorf("failed to close test store: %v", err)
	}
}
