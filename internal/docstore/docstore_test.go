package docstore

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:", zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return store
}

func TestGetMissingDocument(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Get(t.Context(), "users", "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing = %v, want ErrNotFound", err)
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	store := openTestStore(t)

	doc := map[string]any{"role": "admin", "name": "Eve", "visits": float64(3)}
	if err := store.Put(t.Context(), "users", "u1", doc); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := store.Get(t.Context(), "users", "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got["role"] != "admin" || got["name"] != "Eve" || got["visits"] != float64(3) {
		t.Fatalf("Get = %+v", got)
	}
}

func TestPutReplacesExistingDocument(t *testing.T) {
	store := openTestStore(t)

	if err := store.Put(t.Context(), "users", "u1", map[string]any{"role": "user"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Put(t.Context(), "users", "u1", map[string]any{"role": "admin"}); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}

	got, err := store.Get(t.Context(), "users", "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got["role"] != "admin" {
		t.Fatalf("role = %v, want admin", got["role"])
	}
}

func TestCollectionsAreIsolated(t *testing.T) {
	store := openTestStore(t)

	if err := store.Put(t.Context(), "users", "x", map[string]any{"role": "admin"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := store.Get(t.Context(), "recipes", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get from other collection = %v, want ErrNotFound", err)
	}
}

func TestAccountGetsULID(t *testing.T) {
	store := openTestStore(t)

	account := &Account{Email: "eve@example.com", PasswordHash: "hash", Name: "Eve"}
	if err := store.DB().Create(account).Error; err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(account.ID) != 26 {
		t.Fatalf("ID = %q, want 26-char ULID", account.ID)
	}
}
