package infra

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestSplitAudit(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantMarker string
		wantErr    bool
	}{
		{
			name:       "valid audit line",
			query:      "--sql 4f6cbe2a-91d8-47c3-b014-7aa52e0cf3d9\nselect 1;",
			wantMarker: "4f6cbe2a-91d8-47c3-b014-7aa52e0cf3d9",
		},
		{
			name:       "leading whitespace tolerated",
			query:      "\n  --sql 4f6cbe2a-91d8-47c3-b014-7aa52e0cf3d9\nselect 1;",
			wantMarker: "4f6cbe2a-91d8-47c3-b014-7aa52e0cf3d9",
		},
		{
			name:    "missing audit line",
			query:   "select 1;",
			wantErr: true,
		},
		{
			name:    "uppercase uuid rejected",
			query:   "--sql 4F6CBE2A-91D8-47C3-B014-7AA52E0CF3D9\nselect 1;",
			wantErr: true,
		},
		{
			name:    "audit line without body",
			query:   "--sql 4f6cbe2a-91d8-47c3-b014-7aa52e0cf3d9\n   ",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			marker, body, err := splitAudit(tc.query)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("splitAudit(%q) expected error", tc.query)
				}
				return
			}
			if err != nil {
				t.Fatalf("splitAudit error: %v", err)
			}
			if marker != tc.wantMarker {
				t.Fatalf("marker = %q, want %q", marker, tc.wantMarker)
			}
			if body == "" {
				t.Fatal("statement body is empty")
			}
		})
	}
}

func TestErrorRowCarriesAuditFailure(t *testing.T) {
	row := errorRow{err: errors.New("sql statement is missing its --sql audit line")}
	var dest int
	if err := row.Scan(&dest); err == nil {
		t.Fatal("expected audit failure from Scan")
	}
}

func TestIsNoRows(t *testing.T) {
	if !IsNoRows(pgx.ErrNoRows) {
		t.Fatal("IsNoRows(pgx.ErrNoRows) = false")
	}
	if !IsNoRows(fmt.Errorf("scan: %w", pgx.ErrNoRows)) {
		t.Fatal("IsNoRows should unwrap")
	}
	if IsNoRows(errors.New("boom")) {
		t.Fatal("IsNoRows(arbitrary) = true")
	}
}
