// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedup

import (
	"sync"
	"testing"
)

func TestAdmitLifecycle(t *testing.T) {
	r := NewRegistry(0)

	if got := r.Admit(42); got != Proceed {
		t.Fatalf("first Admit = %v, want Proceed", got)
	}
	if got := r.Admit(42); got != AlreadyProcessing {
		t.Fatalf("second Admit = %v, want AlreadyProcessing", got)
	}

	r.Release(42)

	if got := r.Admit(42); got != AlreadyProcessed {
		t.Fatalf("Admit after Release = %v, want AlreadyProcessed", got)
	}
}

func TestAdmitDistinctIDs(t *testing.T) {
	r := NewRegistry(0)

	if got := r.Admit(1); got != Proceed {
		t.Errorf("Admit(1) = %v, want Proceed", got)
	}
	if got := r.Admit(2); got != Proceed {
		t.Errorf("Admit(2) = %v, want Proceed", got)
	}
}

func TestEvictionKeepsRecentHalf(t *testing.T) {
	capacity := 10
	r := NewRegistry(capacity)

	for id := int64(1); id <= int64(capacity)+1; id++ {
		r.Admit(id)
		r.Release(id)
	}

	if got := r.CompletedLen(); got > capacity {
		t.Fatalf("completed set size = %d, want <= %d", got, capacity)
	}

	// Exactly capacity/2 of the lowest ids must be gone.
	for id := int64(1); id <= int64(capacity/2); id++ {
		if got := r.Admit(id); got != Proceed {
			t.Errorf("Admit(%d) after eviction = %v, want Proceed", id, got)
		}
	}
	// The most recent id must still be remembered.
	if got := r.Admit(int64(capacity) + 1); got != AlreadyProcessed {
		t.Errorf("Admit(newest) = %v, want AlreadyProcessed", got)
	}
}

func TestConcurrentAdmitSingleWinner(t *testing.T) {
	r := NewRegistry(0)

	const workers = 32
	var wg sync.WaitGroup
	decisions := make([]Decision, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			decisions[i] = r.Admit(7)
		}(i)
	}
	wg.Wait()

	proceeds := 0
	for _, d := range decisions {
		if d == Proceed {
			proceeds++
		}
	}
	if proceeds != 1 {
		t.Fatalf("Proceed granted %d times, want exactly 1", proceeds)
	}
}
