package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"jobsight/internal/checkpoint"
	"jobsight/internal/config"
	"jobsight/internal/dataset"
	"jobsight/internal/enrich"
	"jobsight/internal/infrastructure"
)

// cleanedColumns is a full post-cleaning header in contract order
var cleanedColumns = []string{
	"job_id", "company_name", "industry", "job_title",
	"skills_required", "tools_preferred", "experience_level", "employment_type",
	"location", "salary_range", "company_size", "posted_date",
}

func cleanedTable(t *testing.T) *dataset.Table {
	t.Helper()
	table, err := dataset.New(cleanedColumns)
	require.NoError(t, err)
	rows := [][]string{
		{"J1", "Acme", "Tech", "Data Engineer", "Python, SQL, AWS", "Tableau", "Senior", "Remote", "Austin, TX", "120000-160000", "Large", "2026-08-01"},
		{"J2", "Globex", "Finance", "Analyst", "SQL, Excel", "Power BI", "Entry", "Full-time", "New York, NY", "60000-80000", "Enterprise", "2026-07-15"},
		{"J3", "Initech", "Tech", "ML Engineer", "Python, TensorFlow", "Jira", "Lead", "Remote", "Remote", "150000-210000", "Startup", "2026-08-10"},
		{"J4", "Umbrella", "Healthcare", "Data Scientist", "R, SQL", "Tableau", "Mid", "Contract", "Boston, MA", "not disclosed", "Medium", "2026-06-30"},
	}
	for _, row := range rows {
		require.NoError(t, table.AppendRow(row))
	}
	return table
}

func newRunner(t *testing.T, dir string, resume bool) *Runner {
	t.Helper()
	manager, err := checkpoint.NewManager(dir)
	require.NoError(t, err)
	cfg := config.Default()
	runner, err := NewRunner(cfg, manager, Options{Resume: resume})
	require.NoError(t, err)
	return runner
}

func TestRunner_Run(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "checkpoints")
	runner := newRunner(t, dir, false)

	cleaned := cleanedTable(t)
	enriched, err := runner.Run(context.Background(), cleaned)
	require.NoError(t, err)

	// every row survives every step
	assert.Equal(t, cleaned.NumRows(), enriched.NumRows())

	// spot-check one derived column per category
	for _, col := range []string{
		"skills_count", "salary_cluster", "tools_count",
		"experience_level_ordinal", "location_region", "posting_age_category",
		"is_remote", "is_startup", "is_senior_tech",
	} {
		assert.True(t, enriched.HasColumn(col), col)
	}

	// high-paying remote senior tech role
	assert.Equal(t, "1", enriched.Value(0, "is_high_paying_remote"))
	assert.Equal(t, "1", enriched.Value(0, "is_senior_tech"))
	// malformed salary range recovered as nulls, row retained
	assert.Equal(t, "", enriched.Value(3, "salary_avg"))

	assert.Equal(t, RunCompleted, runner.State().Status())

	manifest := runner.Manifest()
	require.NotNil(t, manifest)
	assert.Equal(t, RunCompleted, manifest.Status)
	assert.Len(t, manifest.Steps, 9)
	assert.Equal(t, 4, manifest.RowsOut)
	assert.Positive(t, manifest.TotalAnomalies())

	// cleaning plus one checkpoint per step
	manager, err := checkpoint.NewManager(dir)
	require.NoError(t, err)
	infos, err := manager.List()
	require.NoError(t, err)
	require.Len(t, infos, 10)
	assert.Equal(t, "01_after_cleaning", infos[0].Name)
	assert.Equal(t, "02_after_skills", infos[1].Name)
	assert.Equal(t, "10_after_additional", infos[9].Name)

	// frequency artifacts collected for the vocabulary categories
	freqs := runner.Frequencies()
	assert.Contains(t, freqs, enrich.CategorySkills)
	assert.Contains(t, freqs, enrich.CategoryTools)
	assert.Contains(t, freqs, enrich.CategoryLocation)
}

func TestRunner_ResumeProducesIdenticalOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "checkpoints")
	cleaned := cleanedTable(t)

	first := newRunner(t, dir, false)
	enriched, err := first.Run(context.Background(), cleaned)
	require.NoError(t, err)

	resumed := newRunner(t, dir, true)
	again, err := resumed.Run(context.Background(), cleaned)
	require.NoError(t, err)

	require.Equal(t, enriched.Columns(), again.Columns())
	for row := 0; row < enriched.NumRows(); row++ {
		assert.Equal(t, enriched.Row(row), again.Row(row))
	}

	// every step restored from its checkpoint
	for _, exec := range resumed.Manifest().Steps {
		assert.Equal(t, StepSkipped, exec.Status, exec.Category)
	}
	assert.Equal(t, RunCompleted, resumed.State().Status())

	// frequency dictionaries come back from the checkpoint metadata, so a
	// resumed run exports the same artifacts as an uninterrupted one
	require.NotEmpty(t, resumed.Frequencies())
	assert.Equal(t, first.Frequencies(), resumed.Frequencies())
}

func TestRunner_RecordsCheckpointBytes(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	providers := &infrastructure.OTelProviders{
		MeterProvider: provider,
		Meter:         provider.Meter("jobsight-test"),
		Tracer:        tracenoop.NewTracerProvider().Tracer("jobsight-test"),
	}

	manager, err := checkpoint.NewManager(filepath.Join(t.TempDir(), "checkpoints"))
	require.NoError(t, err)
	runner, err := NewRunner(config.Default(), manager, Options{Providers: providers})
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), cleanedTable(t))
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != "pipeline_checkpoint_bytes_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, point := range sum.DataPoints {
				total += point.Value
			}
		}
	}
	// cleaning plus nine step checkpoints, every payload counted
	assert.Positive(t, total)
}

func TestRunner_RunCategoryExecutesClosure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "checkpoints")
	runner := newRunner(t, dir, false)

	view, err := runner.RunCategory(context.Background(), cleanedTable(t), enrich.CategorySalary)
	require.NoError(t, err)

	// skills ran first so the per-skill ratio exists
	assert.True(t, view.HasColumn("salary_per_skill"))
	assert.Equal(t, "46666.666666666664", view.Value(0, "salary_per_skill"))

	// the additional step did not run; its salary feature is intersected away
	assert.False(t, view.HasColumn("salary_per_skill_per_experience"))
	// view carries identity and source columns, not other categories' output
	assert.True(t, view.HasColumn("job_id"))
	assert.True(t, view.HasColumn("salary_range"))
	assert.False(t, view.HasColumn("skills_count"))

	manifest := runner.Manifest()
	require.Len(t, manifest.Steps, 2)
	assert.Equal(t, enrich.CategorySkills, manifest.Steps[0].Category)
	assert.Equal(t, enrich.CategorySalary, manifest.Steps[1].Category)
}

func TestRunner_RunCategoryUnknown(t *testing.T) {
	runner := newRunner(t, filepath.Join(t.TempDir(), "checkpoints"), false)
	_, err := runner.RunCategory(context.Background(), cleanedTable(t), "astrology")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown enrichment category")
}

func TestRunner_FailedStepPreservesCheckpoints(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "checkpoints")
	runner := newRunner(t, dir, false)

	// drop the date source column so the date step hits a contract violation
	broken := cleanedTable(t).SelectExisting(cleanedColumns[:len(cleanedColumns)-1])
	_, err := runner.Run(context.Background(), broken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enrichment step date failed")

	assert.Equal(t, RunFailed, runner.State().Status())
	assert.Equal(t, StepFailed, runner.State().Step(enrich.CategoryDate).Status())

	manifest := runner.Manifest()
	assert.Equal(t, RunFailed, manifest.Status)
	last := manifest.Steps[len(manifest.Steps)-1]
	assert.Equal(t, StepFailed, last.Status)
	assert.NotEmpty(t, last.Error)

	// checkpoints up to the last good step survive
	manager, err := checkpoint.NewManager(dir)
	require.NoError(t, err)
	assert.True(t, manager.Exists("01_after_cleaning"))
	assert.True(t, manager.Exists("06_after_location"))
	assert.False(t, manager.Exists("07_after_date"))
}

func TestRunManifest_SaveToFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "checkpoints")
	runner := newRunner(t, dir, false)
	_, err := runner.Run(context.Background(), cleanedTable(t))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "output", "run_manifest.json")
	require.NoError(t, runner.Manifest().SaveToFile(path))
	assert.FileExists(t, path)
}
