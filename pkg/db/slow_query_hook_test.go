package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		sql       string
		operation string
		table     string
	}{
		{"SELECT id FROM tasks WHERE id = $1", "select", "tasks"},
		{"\n  INSERT INTO risk_register (project_id) VALUES ($1)", "insert", "risk_register"},
		{"UPDATE project_change_requests SET status = $2", "update", "project_change_requests"},
		{"DELETE FROM tasks WHERE id = $1", "delete", "tasks"},
		{"SELECT 1", "select", "unknown"},
		{"", "unknown", "unknown"},
	}

	for _, tt := range tests {
		op, table := classify(tt.sql)
		assert.Equal(t, tt.operation, op, tt.sql)
		assert.Equal(t, tt.table, table, tt.sql)
	}
}
