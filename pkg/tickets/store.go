package tickets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a ticket or warning does not exist
var ErrNotFound = errors.New("tickets: not found")

// Storage is the data-access surface consumed by the HTTP handlers. Store and
// CachedStore both implement it.
type Storage interface {
	CreateTicket(ctx context.Context, ticket *Ticket) error
	GetTicket(ctx context.Context, id int64) (*Ticket, error)
	ListTickets(ctx context.Context, status Status, limit, offset int) ([]*Ticket, error)
	CloseTicket(ctx context.Context, id int64, closedBy string) (*Ticket, error)
	CountOpenTickets(ctx context.Context) (int64, error)
	CreateWarning(ctx context.Context, warning *Warning) error
	ListWarnings(ctx context.Context, subjectID string) ([]*Warning, error)
}

// Store handles ticket persistence in PostgreSQL
type Store struct {
	db *sql.DB
}

// NewStore creates a new ticket store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// CreateTicket inserts a new open ticket, filling in ID, Reference, and timestamps
func (s *Store) CreateTicket(ctx context.Context, ticket *Ticket) error {
	query := `
		INSERT INTO tickets (reference, subject_id, topic, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	now := time.Now()
	reference := uuid.NewString()
	err := s.db.QueryRowContext(ctx, query,
		reference,
		ticket.SubjectID,
		ticket.Topic,
		StatusOpen,
		now,
		now,
	).Scan(&ticket.ID)
	if err != nil {
		return fmt.Errorf("failed to create ticket: %w", err)
	}

	ticket.Reference = reference
	ticket.Status = StatusOpen
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	return nil
}

// GetTicket retrieves a ticket by ID
func (s *Store) GetTicket(ctx context.Context, id int64) (*Ticket, error) {
	query := `
		SELECT id, reference, subject_id, topic, status, closed_by, created_at, updated_at
		FROM tickets
		WHERE id = $1
	`

	var ticket Ticket
	var closedBy sql.NullString
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.Reference,
		&ticket.SubjectID,
		&ticket.Topic,
		&ticket.Status,
		&closedBy,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}

	ticket.ClosedBy = closedBy.String
	return &ticket, nil
}

// ListTickets returns tickets filtered by status, newest first. An empty
// status returns all tickets.
func (s *Store) ListTickets(ctx context.Context, status Status, limit, offset int) ([]*Ticket, error) {
	query := `
		SELECT id, reference, subject_id, topic, status, closed_by, created_at, updated_at
		FROM tickets
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.db.QueryContext(ctx, query, string(status), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer rows.Close()

	var result []*Ticket
	for rows.Next() {
		var ticket Ticket
		var closedBy sql.NullString
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Reference,
			&ticket.SubjectID,
			&ticket.Topic,
			&ticket.Status,
			&closedBy,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		ticket.ClosedBy = closedBy.String
		result = append(result, &ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tickets: %w", err)
	}

	return result, nil
}

// CloseTicket marks an open ticket closed and returns the updated row
func (s *Store) CloseTicket(ctx context.Context, id int64, closedBy string) (*Ticket, error) {
	query := `
		UPDATE tickets
		SET status = $2, closed_by = $3, updated_at = $4
		WHERE id = $1 AND status = $5
		RETURNING id, reference, subject_id, topic, status, closed_by, created_at, updated_at
	`

	var ticket Ticket
	var closedByCol sql.NullString
	err := s.db.QueryRowContext(ctx, query, id, StatusClosed, closedBy, time.Now(), StatusOpen).Scan(
		&ticket.ID,
		&ticket.Reference,
		&ticket.SubjectID,
		&ticket.Topic,
		&ticket.Status,
		&closedByCol,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to close ticket: %w", err)
	}

	ticket.ClosedBy = closedByCol.String
	return &ticket, nil
}

// CountOpenTickets returns the number of open tickets
func (s *Store) CountOpenTickets(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tickets WHERE status = $1`, StatusOpen,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count open tickets: %w", err)
	}
	return count, nil
}

// CreateWarning inserts a moderation warning, filling in ID and CreatedAt
func (s *Store) CreateWarning(ctx context.Context, warning *Warning) error {
	query := `
		INSERT INTO warnings (subject_id, moderator_id, reason, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	now := time.Now()
	err := s.db.QueryRowContext(ctx, query,
		warning.SubjectID,
		warning.ModeratorID,
		warning.Reason,
		now,
	).Scan(&warning.ID)
	if err != nil {
		return fmt.Errorf("failed to create warning: %w", err)
	}

	warning.CreatedAt = now
	return nil
}

// ListWarnings returns all warnings for a subject, newest first
func (s *Store) ListWarnings(ctx context.Context, subjectID string) ([]*Warning, error) {
	query := `
		SELECT id, subject_id, moderator_id, reason, created_at
		FROM warnings
		WHERE subject_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list warnings: %w", err)
	}
	defer rows.Close()

	var result []*Warning
	for rows.Next() {
		var warning Warning
		if err := rows.Scan(
			&warning.ID,
			&warning.SubjectID,
			&warning.ModeratorID,
			&warning.Reason,
			&warning.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan warning: %w", err)
		}
		result = append(result, &warning)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate warnings: %w", err)
	}

	return result, nil
}
