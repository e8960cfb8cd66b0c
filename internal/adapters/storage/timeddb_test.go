package storage

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"gymroster/internal/adapters/http/perf"
)

func openTimedTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db := openTestDB(t)
	if err := InitDB(db); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	return db
}

const insertMember = "INSERT INTO member (id, name, phone, join_date, plan_months, amount, expiry_date, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)"

// TestTimedDB_RecordsEveryStatement verifies exec, query and query-row all reach the collector.
func TestTimedDB_RecordsEveryStatement(t *testing.T) {
	collector := perf.NewCollector(100)
	tdb := NewTimedDB(openTimedTestDB(t), collector, 0)
	ctx := context.Background()

	if _, err := tdb.ExecContext(ctx, insertMember, "m1", "Amy", "021", "2024-01-01", 1, 1000, "2024-01-31", "2024-01-01T00:00:00Z"); err != nil {
		t.Fatalf("ExecContext: %v", err)
	}
	rows, err := tdb.QueryContext(ctx, "SELECT id FROM member")
	if err != nil {
		t.Fatalf("QueryContext: %v", err)
	}
	rows.Close()
	var name string
	if err := tdb.QueryRowContext(ctx, "SELECT name FROM member WHERE id = ?", "m1").Scan(&name); err != nil {
		t.Fatalf("QueryRowContext: %v", err)
	}
	if name != "Amy" {
		t.Errorf("name = %q, want Amy", name)
	}
	if collector.TotalRecorded() != 3 {
		t.Errorf("TotalRecorded = %d, want 3", collector.TotalRecorded())
	}

	snap := collector.Snapshot(time.Time{}, 10)
	found := false
	for _, q := range snap.SlowestQueries {
		if q.Path == "SELECT member" {
			found = true
			if q.Count != 2 {
				t.Errorf("SELECT member count = %d, want 2", q.Count)
			}
		}
	}
	if !found {
		t.Errorf("SELECT member missing from %+v", snap.SlowestQueries)
	}
}

// TestTimedDB_ErrorPassthrough verifies SQL errors are returned unchanged and still timed.
func TestTimedDB_ErrorPassthrough(t *testing.T) {
	collector := perf.NewCollector(100)
	tdb := NewTimedDB(openTimedTestDB(t), collector, time.Second)

	if _, err := tdb.ExecContext(context.Background(), "INSERT INTO nonexistent_table VALUES (?)", 1); err == nil {
		t.Fatal("expected error from invalid SQL, got nil")
	}
	var id string
	err := tdb.QueryRowContext(context.Background(), "SELECT id FROM member WHERE id = ?", "missing").Scan(&id)
	if err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
	if collector.TotalRecorded() != 2 {
		t.Errorf("TotalRecorded = %d, want 2 (must record even on error)", collector.TotalRecorded())
	}
}

// TestTimedDB_CancelledContext verifies a cancelled context is honoured.
func TestTimedDB_CancelledContext(t *testing.T) {
	tdb := NewTimedDB(openTimedTestDB(t), nil, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := tdb.ExecContext(ctx, "DELETE FROM member"); err == nil {
		t.Fatal("expected error from cancelled context, got nil")
	}
}

// TestTimedDB_BeginTx verifies transactions pass through the wrapper.
func TestTimedDB_BeginTx(t *testing.T) {
	db := openTimedTestDB(t)
	tdb := NewTimedDB(db, nil, 0)
	tx, err := tdb.BeginTx(context.Background(), nil)
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	if _, err := tx.Exec(insertMember, "m1", "Amy", "021", "2024-01-01", 1, 1000, "2024-01-31", "2024-01-01T00:00:00Z"); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if tdb.RawDB() != db {
		t.Error("RawDB() should return the original *sql.DB")
	}
}

// TestLabel verifies statements collapse to verb and table.
func TestLabel(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"SELECT COUNT(*) FROM member WHERE 1=1", "SELECT member"},
		{"select id from Member", "SELECT member"},
		{"INSERT INTO member (id) VALUES (?)", "INSERT member"},
		{"UPDATE member SET name = ?", "UPDATE member"},
		{"DELETE FROM member WHERE id = ?", "DELETE member"},
		{"PRAGMA journal_mode=WAL", "PRAGMA"},
		{"   ", "EMPTY"},
	}
	for _, tt := range tests {
		if got := Label(tt.query); got != tt.want {
			t.Errorf("Label(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
}

// BenchmarkTimedDB_Overhead measures the instrumentation overhead against the raw handle.
func BenchmarkTimedDB_Overhead(b *testing.B) {
	db, _ := sql.Open("sqlite", ":memory:")
	defer db.Close()
	db.SetMaxOpenConns(1)
	InitDB(db)
	tdb := NewTimedDB(db, perf.NewCollector(perf.DefaultRingSize), 0)
	ctx := context.Background()

	b.Run("RawDB", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			db.QueryRowContext(ctx, "SELECT COUNT(*) FROM member").Scan(new(int))
		}
	})
	b.Run("TimedDB", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			tdb.QueryRowContext(ctx, "SELECT COUNT(*) FROM member").Scan(new(int))
		}
	})
}
