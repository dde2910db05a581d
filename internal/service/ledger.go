// Package service provides business logic implementations.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"naija-utility-bot/internal/model"
	"naija-utility-bot/internal/repository"
)

// UserStore is the ledger persistence the services need.
type UserStore interface {
	GetBalance(ctx context.Context, userID int64) (int64, error)
	AddBalance(ctx context.Context, userID int64, delta int64) (int64, error)
	ListAll(ctx context.Context) ([]*model.User, error)
}

// Ledger handles user balance operations.
type Ledger struct {
	users UserStore
}

// NewLedger creates a new Ledger instance.
func NewLedger(users UserStore) *Ledger {
	return &Ledger{users: users}
}

// Balance returns a user's current balance. Users without a row and read
// failures both yield 0: the bot stays responsive at the cost of masking
// store errors, which are logged here and nowhere else.
func (l *Ledger) Balance(ctx context.Context, userID int64) int64 {
	balance, err := l.users.GetBalance(ctx, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			log.Warn().Err(err).Int64("user_id", userID).Msg("Balance read failed, defaulting to 0")
		}
		return 0
	}
	return balance
}

// UpdateBalance applies a signed delta to a user's balance, creating the
// user row if absent.
func (l *Ledger) UpdateBalance(ctx context.Context, userID int64, delta int64) error {
	if _, err := l.users.AddBalance(ctx, userID, delta); err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	return nil
}

// ListUsers returns every user with their balance, ordered by id.
func (l *Ledger) ListUsers(ctx context.Context) ([]*model.User, error) {
	return l.users.ListAll(ctx)
}
