// Package approval implements the Approval Service: a capacity-bounded
// proposal store, the OrderProposal state machine, and single-use
// approval-token issuance/validation, with one store mutex serializing
// readers and writers alike.
package approval

import (
	"container/list"
	"context"
	"sync"
	"time"

	"tradegate/internal/contracts"
	"tradegate/internal/coreerr"
)

// ErrNotFound is returned when a proposal or token id is unknown.
var ErrNotFound = coreerr.New(coreerr.Resource, "approval: not found")

// DefaultCapacity is the proposal store's default eviction threshold.
const DefaultCapacity = 1000

// Store holds OrderProposals and ApprovalTokens in memory, capped at
// capacity: when full, the oldest terminal proposal is evicted; a
// non-terminal proposal is never evicted; if none is evictable, new
// insertions are rejected.
type Store struct {
	mu sync.Mutex

	capacity int
	order    *list.List // of proposal ids, oldest first
	elem     map[string]*list.Element
	proposals map[string]contracts.OrderProposal
	tokens    map[string]contracts.ApprovalToken
}

// NewStore builds a Store capped at capacity (DefaultCapacity if <= 0).
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		capacity:  capacity,
		order:     list.New(),
		elem:      make(map[string]*list.Element),
		proposals: make(map[string]contracts.OrderProposal),
		tokens:    make(map[string]contracts.ApprovalToken),
	}
}

// Insert stores a new proposal, evicting the oldest terminal proposal if
// the store is at capacity. Returns a Resource-kind error if the store is
// full and nothing is evictable.
func (s *Store) Insert(_ context.Context, proposal contracts.OrderProposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.proposals) >= s.capacity {
		if !s.evictOldestTerminalLocked() {
			return coreerr.Newf(coreerr.Resource, "approval: proposal store at capacity (%d) with no evictable entries", s.capacity)
		}
	}

	s.proposals[proposal.ProposalID] = proposal
	el := s.order.PushBack(proposal.ProposalID)
	s.elem[proposal.ProposalID] = el
	return nil
}

func (s *Store) evictOldestTerminalLocked() bool {
	for el := s.order.Front(); el != nil; el = el.Next() {
		id := el.Value.(string)
		if p, ok := s.proposals[id]; ok && p.State.IsTerminal() {
			delete(s.proposals, id)
			delete(s.elem, id)
			s.order.Remove(el)
			return true
		}
	}
	return false
}

// Get returns the proposal with id.
func (s *Store) Get(_ context.Context, proposalID string) (contracts.OrderProposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.proposals[proposalID]
	if !ok {
		return contracts.OrderProposal{}, ErrNotFound
	}
	return p, nil
}

// Replace overwrites the stored proposal with next after a validated
// transition. Callers must have already checked contracts.CanTransition.
func (s *Store) Replace(_ context.Context, next contracts.OrderProposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.proposals[next.ProposalID]; !ok {
		return ErrNotFound
	}
	s.proposals[next.ProposalID] = next
	return nil
}

// Pending returns RISK_APPROVED and APPROVAL_REQUESTED proposals, newest
// first, capped at limit (0 means unlimited).
func (s *Store) Pending(_ context.Context, limit int) []contracts.OrderProposal {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []contracts.OrderProposal
	for el := s.order.Back(); el != nil; el = el.Prev() {
		id := el.Value.(string)
		p := s.proposals[id]
		if p.State == contracts.StateRiskApproved || p.State == contracts.StateApprovalRequested {
			out = append(out, p)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out
}

// PutToken stores a newly issued token.
func (s *Store) PutToken(_ context.Context, token contracts.ApprovalToken) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token.TokenID] = token
}

// GetToken returns the token with id.
func (s *Store) GetToken(_ context.Context, tokenID string) (contracts.ApprovalToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[tokenID]
	if !ok {
		return contracts.ApprovalToken{}, ErrNotFound
	}
	return t, nil
}

// ConsumeToken atomically sets UsedAt on the token if it is still valid
// at now, failing if it is already used or expired.
func (s *Store) ConsumeToken(_ context.Context, tokenID string, now time.Time) (contracts.ApprovalToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[tokenID]
	if !ok {
		return contracts.ApprovalToken{}, ErrNotFound
	}
	if !t.IsValid(now) {
		return contracts.ApprovalToken{}, coreerr.New(coreerr.State, "approval: token already used or expired")
	}
	usedAt := now
	t.UsedAt = &usedAt
	s.tokens[tokenID] = t
	return t, nil
}
