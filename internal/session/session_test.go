package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()

	// No flow active initially
	_, ok := store.Get(1)
	assert.False(t, ok)

	// Set and read back
	store.Set(1, ActionAddFund)
	action, ok := store.Get(1)
	assert.True(t, ok)
	assert.Equal(t, ActionAddFund, action)

	// Other users unaffected
	_, ok = store.Get(2)
	assert.False(t, ok)

	// Starting a new flow replaces the old one
	store.Set(1, ActionWithdraw)
	action, _ = store.Get(1)
	assert.Equal(t, ActionWithdraw, action)

	// Clear removes the entry; clearing again is a no-op
	store.Clear(1)
	_, ok = store.Get(1)
	assert.False(t, ok)
	store.Clear(1)
}

func TestMemoryClaims(t *testing.T) {
	claims := NewMemoryClaims()

	assert.False(t, claims.Claimed(1))

	claims.MarkClaimed(1)
	assert.True(t, claims.Claimed(1))
	assert.False(t, claims.Claimed(2))

	// Marking twice stays claimed
	claims.MarkClaimed(1)
	assert.True(t, claims.Claimed(1))
}

// TestSingleActiveFlowProperty checks that for any sequence of Set/Clear
// operations, a user has at most one active flow: the last Set since the
// last Clear.
func TestSingleActiveFlowProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		store := NewMemoryStore()
		userID := rapid.Int64Range(1, 1000).Draw(t, "userID")

		actions := []Action{ActionAddFund, ActionWithdraw, ActionData, ActionAirtime, ActionAI}
		var want Action
		var active bool

		numOps := rapid.IntRange(1, 30).Draw(t, "numOps")
		for i := 0; i < numOps; i++ {
			if rapid.Bool().Draw(t, "isSet") {
				action := actions[rapid.IntRange(0, len(actions)-1).Draw(t, "action")]
				store.Set(userID, action)
				want, active = action, true
			} else {
				store.Clear(userID)
				active = false
			}
		}

		got, ok := store.Get(userID)
		if ok != active {
			t.Fatalf("active mismatch: expected %v, got %v", active, ok)
		}
		if active && got != want {
			t.Fatalf("action mismatch: expected %q, got %q", want, got)
		}
	})
}
