// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedup tracks in-flight and completed work-item identifiers so that
// at-least-once delivery at the transport boundary becomes at-most-once
// processing inside the pipeline. The guarantee is process-lifetime only:
// nothing is persisted across restarts.
package dedup

import (
	"sort"
	"sync"
)

// Decision is the outcome of an admission check.
type Decision int

const (
	// Proceed means the identifier is new and has been claimed.
	Proceed Decision = iota

	// AlreadyProcessing means another run holds the identifier right now.
	AlreadyProcessing

	// AlreadyProcessed means the identifier completed earlier.
	AlreadyProcessed
)

func (d Decision) String() string {
	switch d {
	case Proceed:
		return "proceed"
	case AlreadyProcessing:
		return "already_processing"
	case AlreadyProcessed:
		return "already_processed"
	default:
		return "unknown"
	}
}

const defaultCapacity = 1000

// Registry is the admission gate for work items. It is constructed
// explicitly and injected into the pipeline; all mutation happens under an
// internal mutex so concurrent admissions for the same identifier can never
// both receive Proceed.
type Registry struct {
	mu        sync.Mutex
	capacity  int
	inflight  map[int64]struct{}
	completed map[int64]struct{}
}

// NewRegistry creates a registry whose completed set is bounded by capacity.
// A non-positive capacity selects the default (1000).
func NewRegistry(capacity int) *Registry {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Registry{
		capacity:  capacity,
		inflight:  make(map[int64]struct{}),
		completed: make(map[int64]struct{}),
	}
}

// Admit claims the identifier for processing. It records the id in both the
// in-flight and completed sets on Proceed, so a crash between Admit and
// Release still leaves the id marked as seen. Admit cannot fail.
func (r *Registry) Admit(id int64) Decision {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.inflight[id]; ok {
		return AlreadyProcessing
	}
	if _, ok := r.completed[id]; ok {
		return AlreadyProcessed
	}

	r.inflight[id] = struct{}{}
	r.completed[id] = struct{}{}
	r.evictLocked()
	return Proceed
}

// Release removes the identifier from the in-flight set while keeping it in
// the completed set. Call it on every terminal outcome, success or failure.
func (r *Registry) Release(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inflight, id)
}

// CompletedLen reports the size of the completed set.
func (r *Registry) CompletedLen() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.completed)
}

// evictLocked drops the numerically lowest half of the completed set once it
// grows past capacity. Message identifiers are monotonic, so the lowest ids
// are the oldest ones.
func (r *Registry) evictLocked() {
	if len(r.completed) <= r.capacity {
		return
	}

	ids := make([]int64, 0, len(r.completed))
	for id := range r.completed {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids[:r.capacity/2] {
		delete(r.completed, id)
	}
}
