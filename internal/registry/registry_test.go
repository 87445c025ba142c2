package registry

import (
	"errors"
	"sync"
	"testing"

	"github.com/coregx/chatbroker/internal/outbox"
)

func TestRegistry_InsertLookupRemove(t *testing.T) {
	r := New()

	if _, ok := r.Lookup("alice"); ok {
		t.Fatal("Lookup() found alice before Insert")
	}

	ob := outbox.New()
	p, err := r.Insert("alice", ob)
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if p.Name != "alice" {
		t.Errorf("Insert() Name = %q, want alice", p.Name)
	}

	got, ok := r.Lookup("alice")
	if !ok || got != p {
		t.Errorf("Lookup() = (%v, %v), want (%v, true)", got, ok, p)
	}

	r.Remove("alice")
	if _, ok := r.Lookup("alice"); ok {
		t.Error("Lookup() found alice after Remove")
	}

	// Idempotent.
	r.Remove("alice")
}

func TestRegistry_InsertDuplicateNameFails(t *testing.T) {
	r := New()

	if _, err := r.Insert("bob", outbox.New()); err != nil {
		t.Fatalf("first Insert() error = %v", err)
	}

	_, err := r.Insert("bob", outbox.New())
	if !errors.Is(err, ErrNameTaken) {
		t.Errorf("second Insert() error = %v, want ErrNameTaken", err)
	}
}

func TestRegistry_InsertConcurrentSameName_OnlyOneWins(t *testing.T) {
	r := New()

	const attempts = 50
	var wg sync.WaitGroup
	successes := make(chan struct{}, attempts)

	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			defer wg.Done()
			if _, err := r.Insert("contested", outbox.New()); err == nil {
				successes <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(successes)

	count := 0
	for range successes {
		count++
	}
	if count != 1 {
		t.Errorf("successful Insert() count = %d, want 1", count)
	}
}

func TestRegistry_Snapshot(t *testing.T) {
	r := New()
	names := []string{"alice", "bob", "carol"}
	for _, n := range names {
		if _, err := r.Insert(n, outbox.New()); err != nil {
			t.Fatalf("Insert(%q) error = %v", n, err)
		}
	}

	snap := r.Snapshot()
	if len(snap) != len(names) {
		t.Fatalf("Snapshot() len = %d, want %d", len(snap), len(names))
	}

	seen := make(map[string]bool)
	for _, p := range snap {
		seen[p.Name] = true
	}
	for _, n := range names {
		if !seen[n] {
			t.Errorf("Snapshot() missing %q", n)
		}
	}
}

func TestRegistry_BroadcastToOthers_ExcludesSender(t *testing.T) {
	r := New()
	obAlice, obBob, obCarol := outbox.New(), outbox.New(), outbox.New()
	r.Insert("alice", obAlice)
	r.Insert("bob", obBob)
	r.Insert("carol", obCarol)

	r.BroadcastToOthers("alice", []byte("hi"))

	if obAlice.Len() != 0 {
		t.Errorf("sender Outbox.Len() = %d, want 0", obAlice.Len())
	}
	if obBob.Len() != 1 {
		t.Errorf("bob Outbox.Len() = %d, want 1", obBob.Len())
	}
	if obCarol.Len() != 1 {
		t.Errorf("carol Outbox.Len() = %d, want 1", obCarol.Len())
	}
}

func TestRegistry_BroadcastToAll(t *testing.T) {
	r := New()
	obAlice, obBob := outbox.New(), outbox.New()
	r.Insert("alice", obAlice)
	r.Insert("bob", obBob)

	r.BroadcastToAll([]byte("shutting down"))

	if obAlice.Len() != 1 || obBob.Len() != 1 {
		t.Errorf("Len() = (%d, %d), want (1, 1)", obAlice.Len(), obBob.Len())
	}
}

func TestRegistry_Count(t *testing.T) {
	r := New()
	if r.Count() != 0 {
		t.Errorf("Count() = %d, want 0", r.Count())
	}
	r.Insert("alice", outbox.New())
	r.Insert("bob", outbox.New())
	if r.Count() != 2 {
		t.Errorf("Count() = %d, want 2", r.Count())
	}
	r.Remove("alice")
	if r.Count() != 1 {
		t.Errorf("Count() = %d, want 1", r.Count())
	}
}
