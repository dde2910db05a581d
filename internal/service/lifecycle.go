package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"naija-utility-bot/internal/model"
	"naija-utility-bot/internal/pkg/lock"
)

// Common errors for request lifecycle operations.
var (
	ErrInvalidAmount       = errors.New("invalid amount: must be positive")
	ErrInvalidType         = errors.New("invalid request type")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidDecision     = errors.New("invalid decision")
	ErrAlreadyDecided      = errors.New("request already decided")
)

// RequestStore is the request log persistence the lifecycle needs.
type RequestStore interface {
	Create(ctx context.Context, userID int64, reqType string, amount int64, details string) (*model.Request, error)
	GetByID(ctx context.Context, reqID int64) (*model.Request, error)
	SetStatusIfPending(ctx context.Context, reqID int64, status string) (bool, error)
	ListPending(ctx context.Context) ([]*model.Request, error)
}

// Notifier delivers lifecycle notifications over the messaging platform.
// Implemented by the bot package.
type Notifier interface {
	// NotifyAdmin forwards a freshly created pending request to the
	// administrator chat with approve/reject actions.
	NotifyAdmin(req *model.Request) error
	// NotifyUser sends a plain text message to a user.
	NotifyUser(userID int64, text string) error
}

// Lifecycle drives requests through pending -> approved/rejected.
// A request's status moves forward exactly once; the balance side effect is
// applied at decision time, never at submission time.
type Lifecycle struct {
	ledger   *Ledger
	requests RequestStore
	notifier Notifier
	locks    *lock.UserLock
}

// NewLifecycle creates a new Lifecycle instance. The notifier is attached
// later via SetNotifier, after the bot transport exists.
func NewLifecycle(ledger *Ledger, requests RequestStore, locks *lock.UserLock) *Lifecycle {
	return &Lifecycle{
		ledger:   ledger,
		requests: requests,
		locks:    locks,
	}
}

// SetNotifier attaches the messaging transport used for admin and user
// notifications.
func (s *Lifecycle) SetNotifier(n Notifier) {
	s.notifier = n
}

// Submit validates and logs a new pending request, then forwards it to the
// administrator. Withdrawals are checked against the current balance here;
// the check is not repeated at approval time. Positivity is enforced for the
// balance flows only; purchase amounts pass through as typed and the admin
// screens them.
func (s *Lifecycle) Submit(ctx context.Context, userID int64, reqType string, amount int64, details string) (*model.Request, error) {
	if !model.ValidType(reqType) {
		return nil, ErrInvalidType
	}
	if amount <= 0 && (reqType == model.TypeAddFund || reqType == model.TypeWithdraw) {
		return nil, ErrInvalidAmount
	}

	var req *model.Request
	err := s.locks.WithLock(userID, func() error {
		if reqType == model.TypeWithdraw {
			if balance := s.ledger.Balance(ctx, userID); amount > balance {
				return ErrInsufficientBalance
			}
		}

		created, err := s.requests.Create(ctx, userID, reqType, amount, details)
		if err != nil {
			return fmt.Errorf("failed to log request: %w", err)
		}
		req = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("req_id", req.ReqID).
		Int64("user_id", userID).
		Str("type", reqType).
		Int64("amount", amount).
		Msg("Request submitted")

	if s.notifier != nil {
		if err := s.notifier.NotifyAdmin(req); err != nil {
			log.Warn().Err(err).Int64("req_id", req.ReqID).Msg("Failed to notify admin")
		}
	}

	return req, nil
}

// Decide applies an administrator decision to a pending request.
// The status flip is guarded: a request that is missing or already decided
// is never overwritten, so a duplicate decision cannot double-apply the
// balance delta. On approval the balance mutation commits before the user
// is notified.
func (s *Lifecycle) Decide(ctx context.Context, reqID int64, decision string) (*model.Request, error) {
	if decision != model.StatusApproved && decision != model.StatusRejected {
		return nil, ErrInvalidDecision
	}

	flipped, err := s.requests.SetStatusIfPending(ctx, reqID, decision)
	if err != nil {
		return nil, fmt.Errorf("failed to set request status: %w", err)
	}
	if !flipped {
		// Either the request never existed or an earlier decision won.
		if _, err := s.requests.GetByID(ctx, reqID); err != nil {
			return nil, err
		}
		return nil, ErrAlreadyDecided
	}

	req, err := s.requests.GetByID(ctx, reqID)
	if err != nil {
		return nil, err
	}

	if decision == model.StatusApproved {
		err := s.locks.WithLock(req.UserID, func() error {
			return s.ledger.UpdateBalance(ctx, req.UserID, req.BalanceDelta())
		})
		if err != nil {
			return nil, err
		}
	}

	log.Info().
		Int64("req_id", reqID).
		Int64("user_id", req.UserID).
		Str("type", req.Type).
		Int64("amount", req.Amount).
		Str("decision", decision).
		Msg("Request decided")

	if s.notifier != nil {
		text := fmt.Sprintf("🔔 Your request #%d (%s) ₦%d has been %s.", req.ReqID, req.Type, req.Amount, decision)
		if err := s.notifier.NotifyUser(req.UserID, text); err != nil {
			log.Warn().Err(err).Int64("req_id", reqID).Msg("Failed to notify user")
		}
	}

	return req, nil
}

// PendingRequests returns all requests still awaiting a decision,
// newest first.
func (s *Lifecycle) PendingRequests(ctx context.Context) ([]*model.Request, error) {
	return s.requests.ListPending(ctx)
}
