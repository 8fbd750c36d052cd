package testsupport

import (
	"context"
	"testing"

	"musicus/internal/config"
	"musicus/internal/library"
)

// MustOpenStore opens a library.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config, opts ...library.Option) *library.Store {
	t.Helper()

	store, err := library.Open(cfg, opts...)
	if err != nil {
		t.Fatalf("library.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustUpdateMedium stores m and fails the test on error.
func MustUpdateMedium(t testing.TB, store *library.Store, m library.Medium) {
	t.Helper()

	if err := store.UpdateMedium(context.Background(), m); err != nil {
		t.Fatalf("UpdateMedium: %v", err)
	}
}
