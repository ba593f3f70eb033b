package tickets

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestCachedStoreReadThrough(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}
	defer db.Close()

	cached := NewCachedStore(NewStore(db), 16, time.Minute, nil)
	now := time.Now()

	// Only one database hit expected for two reads
	mock.ExpectQuery(`SELECT id, reference, subject_id`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(ticketColumns()).
			AddRow(1, "ref-1", "user-1", "help", "open", nil, now, now))

	for i := 0; i < 2; i++ {
		ticket, err := cached.GetTicket(context.Background(), 1)
		if err != nil {
			t.Fatalf("GetTicket %d failed: %v", i, err)
		}
		if ticket.ID != 1 {
			t.Errorf("Expected ID 1, got %d", ticket.ID)
		}
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Expected second read to be served from cache: %v", err)
	}
}

func TestCachedStoreCloseUpdatesCache(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}
	defer db.Close()

	cached := NewCachedStore(NewStore(db), 16, time.Minute, nil)
	now := time.Now()

	mock.ExpectQuery(`SELECT id, reference, subject_id`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(ticketColumns()).
			AddRow(1, "ref-1", "user-1", "help", "open", nil, now, now))
	mock.ExpectQuery(`UPDATE tickets`).
		WithArgs(int64(1), StatusClosed, "mod-1", sqlmock.AnyArg(), StatusOpen).
		WillReturnRows(sqlmock.NewRows(ticketColumns()).
			AddRow(1, "ref-1", "user-1", "help", "closed", "mod-1", now, now))

	if _, err := cached.GetTicket(context.Background(), 1); err != nil {
		t.Fatalf("GetTicket failed: %v", err)
	}
	if _, err := cached.CloseTicket(context.Background(), 1, "mod-1"); err != nil {
		t.Fatalf("CloseTicket failed: %v", err)
	}

	// Cached entry must reflect the closed status without another query
	ticket, err := cached.GetTicket(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetTicket after close failed: %v", err)
	}
	if ticket.Status != StatusClosed {
		t.Errorf("Expected cached ticket to be closed, got %s", ticket.Status)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestCachedStoreNotFoundNotCached(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}
	defer db.Close()

	cached := NewCachedStore(NewStore(db), 16, time.Minute, nil)

	// Both lookups must hit the database since misses are never cached
	for i := 0; i < 2; i++ {
		mock.ExpectQuery(`SELECT id, reference, subject_id`).
			WithArgs(int64(9)).
			WillReturnRows(sqlmock.NewRows(ticketColumns()))
	}

	for i := 0; i < 2; i++ {
		if _, err := cached.GetTicket(context.Background(), 9); err != ErrNotFound {
			t.Errorf("Expected ErrNotFound on lookup %d, got %v", i, err)
		}
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}
