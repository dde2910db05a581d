package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"naija-utility-bot/internal/model"
)

// RequestRepository handles request log persistence.
type RequestRepository struct {
	pool *pgxpool.Pool
}

// NewRequestRepository creates a new RequestRepository instance.
func NewRequestRepository(pool *pgxpool.Pool) *RequestRepository {
	return &RequestRepository{pool: pool}
}

// Create logs a new request in pending state and returns the created row,
// including its assigned req_id. The caller passes the row on to the admin
// notification path directly, so there is no fetch-most-recent race.
func (r *RequestRepository) Create(ctx context.Context, userID int64, reqType string, amount int64, details string) (*model.Request, error) {
	const query = `
		INSERT INTO requests (user_id, type, amount, details, status, created)
		VALUES ($1, $2, $3, $4, 'pending', NOW())
		RETURNING req_id, user_id, type, amount, details, status, created
	`

	var req model.Request
	err := r.pool.QueryRow(ctx, query, userID, reqType, amount, details).Scan(
		&req.ReqID,
		&req.UserID,
		&req.Type,
		&req.Amount,
		&req.Details,
		&req.Status,
		&req.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	return &req, nil
}

// GetByID retrieves a single request.
// Returns ErrRequestNotFound if no such request exists.
func (r *RequestRepository) GetByID(ctx context.Context, reqID int64) (*model.Request, error) {
	const query = `
		SELECT req_id, user_id, type, amount, details, status, created
		FROM requests
		WHERE req_id = $1
	`

	var req model.Request
	err := r.pool.QueryRow(ctx, query, reqID).Scan(
		&req.ReqID,
		&req.UserID,
		&req.Type,
		&req.Amount,
		&req.Details,
		&req.Status,
		&req.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	return &req, nil
}

// SetStatusIfPending flips a request's status, but only out of pending.
// Returns false when the request is missing or already decided, which makes
// a duplicate admin decision a no-op at the store level.
func (r *RequestRepository) SetStatusIfPending(ctx context.Context, reqID int64, status string) (bool, error) {
	const query = `
		UPDATE requests
		SET status = $2
		WHERE req_id = $1 AND status = 'pending'
	`

	tag, err := r.pool.Exec(ctx, query, reqID, status)
	if err != nil {
		return false, fmt.Errorf("failed to set request status: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// ListPending retrieves all pending requests, newest first.
func (r *RequestRepository) ListPending(ctx context.Context) ([]*model.Request, error) {
	const query = `
		SELECT req_id, user_id, type, amount, details, status, created
		FROM requests
		WHERE status = 'pending'
		ORDER BY created DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}
	defer rows.Close()

	var requests []*model.Request
	for rows.Next() {
		var req model.Request
		err := rows.Scan(
			&req.ReqID,
			&req.UserID,
			&req.Type,
			&req.Amount,
			&req.Details,
			&req.Status,
			&req.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, &req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating requests: %w", err)
	}

	return requests, nil
}
