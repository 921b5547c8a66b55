package enrich

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"jobsight/internal/config"
	"jobsight/internal/dataset"
)

// newTable builds a test table from a header and rows
func newTable(t *testing.T, columns []string, rows [][]string) *dataset.Table {
	t.Helper()
	table, err := dataset.New(columns)
	require.NoError(t, err)
	for _, row := range rows {
		require.NoError(t, table.AppendRow(row))
	}
	return table
}

// testConfig returns the default enrichment config for tests
func testConfig() config.EnrichmentConfig {
	return config.Default().Enrichment
}

// mustEnrich runs an enricher and fails the test on error
func mustEnrich(t *testing.T, e Enricher, table *dataset.Table) (*dataset.Table, *Result) {
	t.Helper()
	out, res, err := e.Enrich(context.Background(), table)
	require.NoError(t, err)
	return out, res
}
