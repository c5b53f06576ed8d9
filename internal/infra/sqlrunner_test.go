package infra

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestExtractMarker(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		marker    string
		body      string
		wantError error
	}{
		{
			name:   "valid marker",
			query:  "--sql 9b79c57c-3615-48a2-9d85-3426d5b3f7eb\nselect 1;",
			marker: "9b79c57c-3615-48a2-9d85-3426d5b3f7eb",
			body:   "select 1;",
		},
		{
			name:   "leading whitespace",
			query:  "\n   --sql 9b79c57c-3615-48a2-9d85-3426d5b3f7eb\nselect 1;\n",
			marker: "9b79c57c-3615-48a2-9d85-3426d5b3f7eb",
			body:   "select 1;",
		},
		{
			name:      "missing marker",
			query:     "select 1;",
			wantError: errMarkerMissing,
		},
		{
			name:      "uppercase uuid rejected",
			query:     "--sql 9B79C57C-3615-48A2-9D85-3426D5B3F7EB\nselect 1;",
			wantError: errMarkerMissing,
		},
		{
			name:      "empty",
			query:     "  ",
			wantError: errEmptyQuery,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			marker, body, err := extractMarker(tc.query)
			if tc.wantError != nil {
				if !errors.Is(err, tc.wantError) {
					t.Fatalf("extractMarker() error = %v, want %v", err, tc.wantError)
				}
				return
			}
			if err != nil {
				t.Fatalf("extractMarker() unexpected error: %v", err)
			}
			if marker != tc.marker {
				t.Fatalf("marker = %q, want %q", marker, tc.marker)
			}
			if body != tc.body {
				t.Fatalf("body = %q, want %q", body, tc.body)
			}
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	wrapped := fmt.Errorf("insert user: %w", &pgconn.PgError{Code: "23505"})
	if !IsUniqueViolation(wrapped) {
		t.Fatalf("expected wrapped 23505 to be a unique violation")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatalf("foreign key violation must not be reported as unique violation")
	}
	if IsUniqueViolation(errors.New("duplicate")) {
		t.Fatalf("plain errors are not unique violations")
	}
}

func TestIsNoRows(t *testing.T) {
	if !IsNoRows(fmt.Errorf("load: %w", pgx.ErrNoRows)) {
		t.Fatalf("expected wrapped ErrNoRows to match")
	}
	if IsNoRows(errors.New("other")) {
		t.Fatalf("unexpected match")
	}
}
