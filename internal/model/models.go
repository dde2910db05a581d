// Package model defines the data models for the utility bot.
package model

import "time"

// User represents a bot user and their wallet balance.
// Users are created implicitly on the first balance mutation and never deleted.
type User struct {
	ID        int64     `db:"id"`
	Balance   int64     `db:"balance"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Request represents a user-submitted request awaiting an admin decision.
type Request struct {
	ReqID     int64     `db:"req_id"`
	UserID    int64     `db:"user_id"`
	Type      string    `db:"type"`
	Amount    int64     `db:"amount"`
	Details   string    `db:"details"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created"`
}

// Request types. Closed enumeration.
const (
	TypeAddFund  = "addfund"  // Balance top-up
	TypeWithdraw = "withdraw" // Balance withdrawal
	TypeData     = "data"     // Mobile data purchase
	TypeAirtime  = "airtime"  // Airtime purchase
)

// Request statuses. A request moves pending -> approved or pending -> rejected,
// exactly once, and is never reopened.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// ValidType reports whether t is one of the known request types.
func ValidType(t string) bool {
	switch t {
	case TypeAddFund, TypeWithdraw, TypeData, TypeAirtime:
		return true
	}
	return false
}

// BalanceDelta returns the signed balance change an approval of this request
// applies to the owning user: withdrawals debit, everything else credits.
func (r *Request) BalanceDelta() int64 {
	if r.Type == TypeWithdraw {
		return -r.Amount
	}
	return r.Amount
}
