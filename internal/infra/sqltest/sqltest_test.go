package sqltest

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestRowAssignsPointersAndConversions(t *testing.T) {
	var (
		name   string
		userID *string
		count  int64
		raw    []byte
	)
	row := NewRow("amara", "u-1", 7, []byte(`{}`))
	if err := row.Scan(&name, &userID, &count, &raw); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if name != "amara" || userID == nil || *userID != "u-1" || count != 7 || string(raw) != "{}" {
		t.Fatalf("unexpected scan result %q %v %d %q", name, userID, count, raw)
	}

	userID = new(string)
	if err := NewRow(nil).Scan(&userID); err != nil {
		t.Fatalf("Scan nil: %v", err)
	}
	if userID != nil {
		t.Fatalf("expected nil pointer after scanning NULL")
	}
}

func TestRowArityMismatch(t *testing.T) {
	var a, b string
	if err := NewRow("x").Scan(&a, &b); err == nil {
		t.Fatalf("expected arity error")
	}
}

func TestExecutorScriptsByKey(t *testing.T) {
	exec := NewExecutor().
		OnQueryRow("marker-a", NewRow("first")).
		OnExec("marker-b", ExecResult{RowsAffected: 0}).
		OnQuery("marker-c", NewRows([]any{"x"}, []any{"y"}))

	var got string
	if err := exec.QueryRow(context.Background(), "--sql marker-a\nselect").Scan(&got); err != nil || got != "first" {
		t.Fatalf("QueryRow = %q, %v", got, err)
	}
	if err := exec.QueryRow(context.Background(), "--sql marker-a\nselect").Scan(&got); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected ErrNoRows once the queue is drained, got %v", err)
	}

	tag, err := exec.Exec(context.Background(), "--sql marker-b\nupdate")
	if err != nil || tag.RowsAffected() != 0 {
		t.Fatalf("Exec = %d, %v", tag.RowsAffected(), err)
	}

	rows, err := exec.Query(context.Background(), "--sql marker-c\nselect")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	var seen []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			t.Fatalf("Scan: %v", err)
		}
		seen = append(seen, v)
	}
	if len(seen) != 2 || seen[0] != "x" || seen[1] != "y" {
		t.Fatalf("unexpected rows %v", seen)
	}
	if len(exec.CallsTo("marker-b")) != 1 {
		t.Fatalf("expected one recorded exec call")
	}
}
