package exporter

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobsight/internal/config"
	"jobsight/internal/dataset"
	"jobsight/internal/enrich"
	"jobsight/internal/pipeline"
)

func testExporter(t *testing.T) (*Exporter, *config.Config) {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.BaseDir = t.TempDir()
	cfg.Paths.OutputDir = filepath.Join(cfg.Paths.BaseDir, "output")
	cfg.Paths.DictionariesDir = filepath.Join(cfg.Paths.BaseDir, "dictionaries")
	return New(cfg, nil), cfg
}

func smallTable(t *testing.T, columns []string, rows [][]string) *dataset.Table {
	t.Helper()
	table, err := dataset.New(columns)
	require.NoError(t, err)
	for _, row := range rows {
		require.NoError(t, table.AppendRow(row))
	}
	return table
}

func TestExportAll(t *testing.T) {
	exp, cfg := testExporter(t)

	enriched := smallTable(t, []string{"job_id", "skills_count"}, [][]string{{"J1", "2"}})
	views := map[string]*dataset.Table{
		"skills": smallTable(t, []string{"job_id", "skills_count"}, [][]string{{"J1", "2"}}),
		"salary": smallTable(t, []string{"job_id"}, [][]string{{"J1"}}),
	}
	freqs := map[string][]enrich.TokenCount{
		"skills": {{Token: "Python", Count: 4}, {Token: "SQL", Count: 2}},
		"tools":  {{Token: "Tableau", Count: 1}},
	}
	manifest := pipeline.NewRunManifest("run-1", 1)
	manifest.Finish(pipeline.RunCompleted, 1)

	err := exp.ExportAll(context.Background(), Artifacts{
		Enriched:    enriched,
		Views:       views,
		Frequencies: freqs,
		Manifest:    manifest,
	})
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(cfg.Paths.OutputDir, EnrichedFile))
	assert.FileExists(t, filepath.Join(cfg.Paths.OutputDir, "views", "skills_view.csv"))
	assert.FileExists(t, filepath.Join(cfg.Paths.OutputDir, "views", "salary_view.csv"))
	assert.FileExists(t, filepath.Join(cfg.Paths.OutputDir, RunManifestFile))
	assert.FileExists(t, filepath.Join(cfg.Paths.DictionariesDir, "skill_frequency.csv"))
	assert.FileExists(t, filepath.Join(cfg.Paths.DictionariesDir, "tool_frequency.csv"))
}

func TestExportAll_FrequencyRanks(t *testing.T) {
	exp, cfg := testExporter(t)

	err := exp.ExportAll(context.Background(), Artifacts{
		Enriched: smallTable(t, []string{"job_id"}, [][]string{{"J1"}}),
		Frequencies: map[string][]enrich.TokenCount{
			"skills": {{Token: "Python", Count: 4}, {Token: "SQL", Count: 2}, {Token: "AWS", Count: 2}},
		},
	})
	require.NoError(t, err)

	file, err := os.Open(filepath.Join(cfg.Paths.DictionariesDir, "skill_frequency.csv"))
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"token", "count", "rank"}, records[0])
	assert.Equal(t, []string{"Python", "4", "1"}, records[1])
	assert.Equal(t, []string{"SQL", "2", "2"}, records[2])
	assert.Equal(t, []string{"AWS", "2", "3"}, records[3])
}

func TestExportAll_ColumnMapping(t *testing.T) {
	exp, cfg := testExporter(t)

	views := map[string]*dataset.Table{
		"skills": smallTable(t, []string{"job_id", "skills_required", "skills_count"}, nil),
	}
	err := exp.ExportAll(context.Background(), Artifacts{
		Enriched: smallTable(t, []string{"job_id"}, nil),
		Views:    views,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(cfg.Paths.OutputDir, ColumnMappingFile))
	require.NoError(t, err)

	var mapping ColumnMapping
	require.NoError(t, json.Unmarshal(data, &mapping))
	assert.Equal(t, cfg.Enrichment.IdentityColumns, mapping.IdentityColumns)
	assert.Equal(t, []string{"job_id", "skills_required", "skills_count"}, mapping.Categories["skills"])
	assert.Equal(t, cfg.Enrichment.OrdinalSentinel(), mapping.ExperienceSentinel)
	assert.Equal(t, cfg.Enrichment.SalaryBinLabels, mapping.SalaryClusterLabels)
	assert.Contains(t, mapping.Regions, "USA")
}

func TestCSVWriter_BOM(t *testing.T) {
	dir := t.TempDir()
	writer := NewCSVWriter(dir)

	require.NoError(t, writer.WriteCSV("out.csv", WriteOptions{
		Headers:   []string{"a", "b"},
		Records:   [][]string{{"1", "2"}},
		BOMPrefix: true,
	}))

	data, err := os.ReadFile(filepath.Join(dir, "out.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "\xef\xbb\xbfa,b"))
}

func TestExportWorkbook(t *testing.T) {
	exp, cfg := testExporter(t)

	enriched := smallTable(t, []string{"job_id", "skills_count"}, [][]string{{"J1", "2"}})
	views := map[string]*dataset.Table{
		"skills": smallTable(t, []string{"job_id", "skills_count"}, [][]string{{"J1", "2"}}),
	}
	require.NoError(t, exp.ExportWorkbook(context.Background(), Artifacts{Enriched: enriched, Views: views}))

	path := filepath.Join(cfg.Paths.OutputDir, WorkbookFile)
	require.FileExists(t, path)

	restored, err := dataset.ReadXLSX(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"job_id", "skills_count"}, restored.Columns())
	assert.Equal(t, 1, restored.NumRows())
}
