package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dbsmedya/gofactory/internal/inspect"
)

func TestTablesCommandStructure(t *testing.T) {
	assert.NotNil(t, tablesCmd)
	assert.Equal(t, "tables", tablesCmd.Use)
	assert.NotEmpty(t, tablesCmd.Short)
	assert.NotNil(t, tablesCmd.RunE)
}

func TestTablesIsAddedToRoot(t *testing.T) {
	found := false
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == "tables" {
			found = true
			break
		}
	}
	assert.True(t, found, "tables command should be added to root command")
}

func TestPrintTables(t *testing.T) {
	var buf bytes.Buffer
	setOutputWriter(&buf)
	defer resetOutputWriter()

	plan := &inspect.Plan{
		Order: []string{"countries", "cities"},
		Dependencies: map[string][]string{
			"cities": {"countries"},
		},
	}

	printTables(planConfig(), plan, nil)
	out := buf.String()

	assert.Contains(t, out, "Tables in appdb:")
	assert.Contains(t, out, "1. countries")
	assert.Contains(t, out, "(no dependencies)")
	assert.Contains(t, out, "2. cities")
	assert.Contains(t, out, "└─ needs countries")
	assert.Contains(t, out, "Total: 2 table(s)")
	assert.NotContains(t, out, "Rows:")
}

func TestPrintTablesWithCounts(t *testing.T) {
	var buf bytes.Buffer
	setOutputWriter(&buf)
	defer resetOutputWriter()

	plan := &inspect.Plan{Order: []string{"users"}}
	counts := map[string]int64{"users": 7}

	printTables(planConfig(), plan, counts)

	assert.Contains(t, buf.String(), "Rows: 7")
}
