// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"naija-utility-bot/internal/model"
)

// Common errors for repository operations.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrRequestNotFound = errors.New("request not found")
)

// UserRepository handles user balance persistence.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository instance.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetBalance retrieves a user's current balance.
// Returns ErrUserNotFound if the user has no row yet.
func (r *UserRepository) GetBalance(ctx context.Context, userID int64) (int64, error) {
	const query = `SELECT balance FROM users WHERE id = $1`

	var balance int64
	err := r.pool.QueryRow(ctx, query, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}

	return balance, nil
}

// AddBalance applies a signed delta to a user's balance, creating the row if
// it does not exist. The insert-or-update runs as a single statement, so the
// upsert is atomic even under concurrent writers.
func (r *UserRepository) AddBalance(ctx context.Context, userID int64, delta int64) (int64, error) {
	const query = `
		INSERT INTO users (id, balance, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE
		SET balance = users.balance + EXCLUDED.balance, updated_at = NOW()
		RETURNING balance
	`

	var balance int64
	err := r.pool.QueryRow(ctx, query, userID, delta).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("failed to update balance: %w", err)
	}

	return balance, nil
}

// ListAll retrieves every user ordered by id. Administrative listing,
// not in the hot path.
func (r *UserRepository) ListAll(ctx context.Context) ([]*model.User, error) {
	const query = `
		SELECT id, balance, created_at, updated_at
		FROM users
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		var user model.User
		err := rows.Scan(
			&user.ID,
			&user.Balance,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}
