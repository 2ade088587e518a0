package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildFindQuery(t *testing.T) {
	tests := []struct {
		name      string
		plan      Plan
		wantQuery string
		wantArgs  []any
	}{
		{
			name:      "scan",
			plan:      Plan{Path: PathScan},
			wantQuery: "SELECT " + ticketColumns + " FROM tickets ORDER BY submitted_at",
			wantArgs:  []any{},
		},
		{
			name:      "by submitter",
			plan:      Plan{Path: PathBySubmitter, Key: "alice"},
			wantQuery: "SELECT " + ticketColumns + " FROM tickets WHERE submitter=$1 ORDER BY submitted_at",
			wantArgs:  []any{"alice"},
		},
		{
			name:      "by status",
			plan:      Plan{Path: PathByStatus, Key: "pending"},
			wantQuery: "SELECT " + ticketColumns + " FROM tickets WHERE status=$1 ORDER BY submitted_at",
			wantArgs:  []any{"pending"},
		},
		{
			name:      "by type",
			plan:      Plan{Path: PathByType, Key: "travel"},
			wantQuery: "SELECT " + ticketColumns + " FROM tickets WHERE expense_type=$1 ORDER BY submitted_at",
			wantArgs:  []any{"travel"},
		},
		{
			name:      "status path with type residual",
			plan:      Plan{Path: PathByStatus, Key: "pending", Residual: Filters{Type: "travel"}},
			wantQuery: "SELECT " + ticketColumns + " FROM tickets WHERE status=$1 AND expense_type=$2 ORDER BY submitted_at",
			wantArgs:  []any{"pending", "travel"},
		},
		{
			name:      "submitter path with both residuals",
			plan:      Plan{Path: PathBySubmitter, Key: "alice", Residual: Filters{Status: "denied", Type: "travel"}},
			wantQuery: "SELECT " + ticketColumns + " FROM tickets WHERE submitter=$1 AND status=$2 AND expense_type=$3 ORDER BY submitted_at",
			wantArgs:  []any{"alice", "denied", "travel"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := buildFindQuery(tt.plan)
			assert.Equal(t, tt.wantQuery, query)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}
