package tickets

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func ticketColumns() []string {
	return []string{"id", "reference", "subject_id", "topic", "status", "closed_by", "created_at", "updated_at"}
}

func TestCreateTicket(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}
	defer db.Close()

	store := NewStore(db)

	mock.ExpectQuery(`INSERT INTO tickets`).
		WithArgs(sqlmock.AnyArg(), "734595073920204940", "cannot access dashboard", StatusOpen, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	ticket := &Ticket{
		SubjectID: "734595073920204940",
		Topic:     "cannot access dashboard",
	}
	if err := store.CreateTicket(context.Background(), ticket); err != nil {
		t.Fatalf("CreateTicket failed: %v", err)
	}

	if ticket.ID != 42 {
		t.Errorf("Expected ticket ID 42, got %d", ticket.ID)
	}
	if ticket.Reference == "" {
		t.Error("Expected reference to be set after creation")
	}
	if ticket.Status != StatusOpen {
		t.Errorf("Expected status open, got %s", ticket.Status)
	}
	if ticket.CreatedAt.IsZero() || ticket.UpdatedAt.IsZero() {
		t.Error("Expected timestamps to be set after creation")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestGetTicket(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}
	defer db.Close()

	store := NewStore(db)
	now := time.Now()

	mock.ExpectQuery(`SELECT id, reference, subject_id, topic, status, closed_by, created_at, updated_at`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(ticketColumns()).
			AddRow(42, "ref-1", "user-1", "help", "open", nil, now, now))

	ticket, err := store.GetTicket(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetTicket failed: %v", err)
	}

	if ticket.ID != 42 {
		t.Errorf("Expected ID 42, got %d", ticket.ID)
	}
	if ticket.Status != StatusOpen {
		t.Errorf("Expected status open, got %s", ticket.Status)
	}
	if ticket.ClosedBy != "" {
		t.Errorf("Expected empty closed_by, got %q", ticket.ClosedBy)
	}
}

func TestGetTicketNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}
	defer db.Close()

	store := NewStore(db)

	mock.ExpectQuery(`SELECT id, reference, subject_id`).
		WithArgs(int64(999)).
		WillReturnError(sql.ErrNoRows)

	_, err = store.GetTicket(context.Background(), 999)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestListTickets(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}
	defer db.Close()

	store := NewStore(db)
	now := time.Now()

	mock.ExpectQuery(`SELECT id, reference, subject_id, topic, status, closed_by, created_at, updated_at`).
		WithArgs("open", 50, 0).
		WillReturnRows(sqlmock.NewRows(ticketColumns()).
			AddRow(2, "ref-2", "user-2", "newer", "open", nil, now, now).
			AddRow(1, "ref-1", "user-1", "older", "open", nil, now.Add(-time.Hour), now.Add(-time.Hour)))

	tickets, err := store.ListTickets(context.Background(), StatusOpen, 50, 0)
	if err != nil {
		t.Fatalf("ListTickets failed: %v", err)
	}

	if len(tickets) != 2 {
		t.Fatalf("Expected 2 tickets, got %d", len(tickets))
	}
	if tickets[0].ID != 2 {
		t.Errorf("Expected newest ticket first, got ID %d", tickets[0].ID)
	}
}

func TestCloseTicket(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}
	defer db.Close()

	store := NewStore(db)
	now := time.Now()

	mock.ExpectQuery(`UPDATE tickets`).
		WithArgs(int64(42), StatusClosed, "mod-1", sqlmock.AnyArg(), StatusOpen).
		WillReturnRows(sqlmock.NewRows(ticketColumns()).
			AddRow(42, "ref-1", "user-1", "help", "closed", "mod-1", now.Add(-time.Hour), now))

	ticket, err := store.CloseTicket(context.Background(), 42, "mod-1")
	if err != nil {
		t.Fatalf("CloseTicket failed: %v", err)
	}

	if ticket.Status != StatusClosed {
		t.Errorf("Expected status closed, got %s", ticket.Status)
	}
	if ticket.ClosedBy != "mod-1" {
		t.Errorf("Expected closed_by mod-1, got %q", ticket.ClosedBy)
	}
}

func TestCloseTicketAlreadyClosed(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}
	defer db.Close()

	store := NewStore(db)

	mock.ExpectQuery(`UPDATE tickets`).
		WithArgs(int64(42), StatusClosed, "mod-1", sqlmock.AnyArg(), StatusOpen).
		WillReturnError(sql.ErrNoRows)

	_, err = store.CloseTicket(context.Background(), 42, "mod-1")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for already-closed ticket, got %v", err)
	}
}

func TestCountOpenTickets(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}
	defer db.Close()

	store := NewStore(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM tickets`).
		WithArgs(StatusOpen).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := store.CountOpenTickets(context.Background())
	if err != nil {
		t.Fatalf("CountOpenTickets failed: %v", err)
	}
	if count != 7 {
		t.Errorf("Expected 7 open tickets, got %d", count)
	}
}

func TestCreateWarning(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}
	defer db.Close()

	store := NewStore(db)

	mock.ExpectQuery(`INSERT INTO warnings`).
		WithArgs("user-1", "mod-1", "spamming", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))

	warning := &Warning{
		SubjectID:   "user-1",
		ModeratorID: "mod-1",
		Reason:      "spamming",
	}
	if err := store.CreateWarning(context.Background(), warning); err != nil {
		t.Fatalf("CreateWarning failed: %v", err)
	}

	if warning.ID != 5 {
		t.Errorf("Expected warning ID 5, got %d", warning.ID)
	}
	if warning.CreatedAt.IsZero() {
		t.Error("Expected CreatedAt to be set after creation")
	}
}

func TestListWarnings(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}
	defer db.Close()

	store := NewStore(db)
	now := time.Now()

	mock.ExpectQuery(`SELECT id, subject_id, moderator_id, reason, created_at`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "subject_id", "moderator_id", "reason", "created_at"}).
			AddRow(2, "user-1", "mod-2", "second offense", now).
			AddRow(1, "user-1", "mod-1", "first offense", now.Add(-time.Hour)))

	warnings, err := store.ListWarnings(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListWarnings failed: %v", err)
	}

	if len(warnings) != 2 {
		t.Fatalf("Expected 2 warnings, got %d", len(warnings))
	}
	if warnings[0].Reason != "second offense" {
		t.Errorf("Expected newest warning first, got %q", warnings[0].Reason)
	}
}
