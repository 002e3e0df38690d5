package orchestrator

import (
	"testing"
)

func TestInMemoryStore_GetSetSession(t *testing.T) {
	store := NewInMemoryStore()

	_, ok := store.GetSession(SessionID("s1"))
	if ok {
		t.Error("expected not found for empty store")
	}

	s := newBareSession("s1")
	store.SetSession(s)

	got, ok := store.GetSession(SessionID("s1"))
	if !ok || got != s {
		t.Errorf("GetSession: ok=%v, got %p want %p", ok, got, s)
	}
}

func TestInMemoryStore_SetSession_replaces(t *testing.T) {
	store := NewInMemoryStore()
	s1 := newBareSession("s1")
	s2 := newBareSession("s1")
	store.SetSession(s1)
	store.SetSession(s2)

	got, ok := store.GetSession(SessionID("s1"))
	if !ok || got != s2 {
		t.Errorf("SetSession should replace: got %p want %p", got, s2)
	}
	if ids := store.ListSessionIDs(); len(ids) != 1 {
		t.Errorf("ListSessionIDs: got %v", ids)
	}
}

func TestInMemoryStore_DeleteSession(t *testing.T) {
	store := NewInMemoryStore()
	store.SetSession(newBareSession("s1"))
	store.DeleteSession("s1")
	store.DeleteSession("never-stored")

	if _, ok := store.GetSession("s1"); ok {
		t.Error("session should be deleted")
	}
	if ids := store.ListSessionIDs(); len(ids) != 0 {
		t.Errorf("ListSessionIDs: got %v", ids)
	}
}

func TestNewInMemoryRepositoryWithStore(t *testing.T) {
	// Verify repository works with an explicitly injected store (persistence abstraction).
	store := NewInMemoryStore()
	repo := NewInMemoryRepositoryWithStore(store)

	if err := repo.AddSession(newBareSession("s1")); err != nil {
		t.Fatalf("AddSession: %v", err)
	}

	// State should be in the store we injected
	s, ok := store.GetSession(SessionID("s1"))
	if !ok || s == nil {
		t.Error("injected store should contain session after AddSession")
	}
}
