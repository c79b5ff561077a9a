package testsupport

import (
	"context"
	"testing"

	"quietcut/internal/config"
	"quietcut/internal/ledger"
)

// MustOpenLedger opens the ledger configured for cfg and closes it when the
// test ends.
func MustOpenLedger(t testing.TB, cfg *config.Config) *ledger.Store {
	t.Helper()
	store, err := ledger.Open(context.Background(), cfg.Paths.LedgerPath)
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}
