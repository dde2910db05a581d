// Package session tracks transient per-user conversation state.
// State lives in process memory only; a restart drops in-flight flows and
// referral anti-replay tracking.
package session

import "sync"

// Action identifies the multi-step input flow a user is in the middle of.
type Action string

// Known flow actions.
const (
	ActionAddFund  Action = "addfund"
	ActionWithdraw Action = "withdraw"
	ActionData     Action = "data"
	ActionAirtime  Action = "airtime"
	ActionAI       Action = "ai"
)

// Store holds at most one active flow per user.
type Store interface {
	Get(userID int64) (Action, bool)
	Set(userID int64, action Action)
	Clear(userID int64)
}

// ClaimStore remembers which users already redeemed a referral bonus.
type ClaimStore interface {
	Claimed(userID int64) bool
	MarkClaimed(userID int64)
}

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]Action
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[int64]Action)}
}

// Get returns the user's active flow, if any.
func (s *MemoryStore) Get(userID int64) (Action, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	action, ok := s.sessions[userID]
	return action, ok
}

// Set starts a flow for the user, replacing any previous one.
func (s *MemoryStore) Set(userID int64, action Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = action
}

// Clear removes the user's active flow. Safe to call when none is active.
func (s *MemoryStore) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// MemoryClaims is an in-memory ClaimStore implementation.
type MemoryClaims struct {
	mu      sync.RWMutex
	claimed map[int64]bool
}

// NewMemoryClaims creates an empty MemoryClaims.
func NewMemoryClaims() *MemoryClaims {
	return &MemoryClaims{claimed: make(map[int64]bool)}
}

// Claimed reports whether the user already redeemed a referral bonus.
func (c *MemoryClaims) Claimed(userID int64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.claimed[userID]
}

// MarkClaimed records the user's redemption. Never cleared.
func (c *MemoryClaims) MarkClaimed(userID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.claimed[userID] = true
}
