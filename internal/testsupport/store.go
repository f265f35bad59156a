package testsupport

import (
	"context"
	"testing"

	"soundconverter/internal/config"
	"soundconverter/internal/history"
)

// MustOpenHistory opens the ledger at cfg.HistoryPath and registers cleanup.
func MustOpenHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(context.Background(), cfg.HistoryPath())
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
