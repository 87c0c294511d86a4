package testsupport

import (
	"testing"

	"keepsake/internal/catalog"
)

// MustOpenStore opens a catalog.Store at the given path and registers cleanup.
func MustOpenStore(t testing.TB, path string) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(path)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
