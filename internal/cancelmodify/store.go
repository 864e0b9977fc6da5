// Package cancelmodify implements the Cancel/Modify Service: the
// two-step-commit mirror of internal/approval for mutating an already-
// live broker order, reusing the same proposal-store lock discipline and
// eviction policy against a second map keyed by mutation_id.
package cancelmodify

import (
	"container/list"
	"context"
	"sync"

	"tradegate/internal/contracts"
	"tradegate/internal/coreerr"
)

// ErrNotFound is returned when a mutation id is unknown.
var ErrNotFound = coreerr.New(coreerr.Resource, "cancelmodify: not found")

// DefaultCapacity mirrors internal/approval.DefaultCapacity.
const DefaultCapacity = 1000

// Store holds CancelIntents and ModifyIntents in memory, each in its own
// capacity-bounded, insertion-ordered map; a single mutex guards both
// maps.
type Store struct {
	mu sync.Mutex

	capacity int
	cancelOrder *list.List
	cancelElem  map[string]*list.Element
	cancels     map[string]contracts.CancelIntent

	modifyOrder *list.List
	modifyElem  map[string]*list.Element
	modifies    map[string]contracts.ModifyIntent
}

// NewStore builds a Store capped at capacity (DefaultCapacity if <= 0).
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		capacity:    capacity,
		cancelOrder: list.New(),
		cancelElem:  make(map[string]*list.Element),
		cancels:     make(map[string]contracts.CancelIntent),
		modifyOrder: list.New(),
		modifyElem:  make(map[string]*list.Element),
		modifies:    make(map[string]contracts.ModifyIntent),
	}
}

// InsertCancel stores a new CancelIntent, evicting the oldest terminal one
// if at capacity.
func (s *Store) InsertCancel(_ context.Context, ci contracts.CancelIntent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.cancels) >= s.capacity {
		if !evictOldestTerminal(s.cancelOrder, s.cancelElem, s.cancels) {
			return coreerr.Newf(coreerr.Resource, "cancelmodify: cancel store at capacity (%d) with no evictable entries", s.capacity)
		}
	}
	s.cancels[ci.MutationID] = ci
	s.cancelElem[ci.MutationID] = s.cancelOrder.PushBack(ci.MutationID)
	return nil
}

// GetCancel returns the CancelIntent with id.
func (s *Store) GetCancel(_ context.Context, mutationID string) (contracts.CancelIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ci, ok := s.cancels[mutationID]
	if !ok {
		return contracts.CancelIntent{}, ErrNotFound
	}
	return ci, nil
}

// ReplaceCancel overwrites a stored CancelIntent with its successor.
func (s *Store) ReplaceCancel(_ context.Context, next contracts.CancelIntent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cancels[next.MutationID]; !ok {
		return ErrNotFound
	}
	s.cancels[next.MutationID] = next
	return nil
}

// InsertModify stores a new ModifyIntent, evicting the oldest terminal one
// if at capacity.
func (s *Store) InsertModify(_ context.Context, mi contracts.ModifyIntent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.modifies) >= s.capacity {
		if !evictOldestTerminalModify(s.modifyOrder, s.modifyElem, s.modifies) {
			return coreerr.Newf(coreerr.Resource, "cancelmodify: modify store at capacity (%d) with no evictable entries", s.capacity)
		}
	}
	s.modifies[mi.MutationID] = mi
	s.modifyElem[mi.MutationID] = s.modifyOrder.PushBack(mi.MutationID)
	return nil
}

// GetModify returns the ModifyIntent with id.
func (s *Store) GetModify(_ context.Context, mutationID string) (contracts.ModifyIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mi, ok := s.modifies[mutationID]
	if !ok {
		return contracts.ModifyIntent{}, ErrNotFound
	}
	return mi, nil
}

// ReplaceModify overwrites a stored ModifyIntent with its successor.
func (s *Store) ReplaceModify(_ context.Context, next contracts.ModifyIntent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.modifies[next.MutationID]; !ok {
		return ErrNotFound
	}
	s.modifies[next.MutationID] = next
	return nil
}

func evictOldestTerminal(order *list.List, elem map[string]*list.Element, cancels map[string]contracts.CancelIntent) bool {
	for el := order.Front(); el != nil; el = el.Next() {
		id := el.Value.(string)
		if ci, ok := cancels[id]; ok && ci.State.IsTerminal() {
			delete(cancels, id)
			delete(elem, id)
			order.Remove(el)
			return true
		}
	}
	return false
}

func evictOldestTerminalModify(order *list.List, elem map[string]*list.Element, modifies map[string]contracts.ModifyIntent) bool {
	for el := order.Front(); el != nil; el = el.Next() {
		id := el.Value.(string)
		if mi, ok := modifies[id]; ok && mi.State.IsTerminal() {
			delete(modifies, id)
			delete(elem, id)
			order.Remove(el)
			return true
		}
	}
	return false
}
