package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDateEnricher_DefaultReferenceIsDatasetMax(t *testing.T) {
	table := newTable(t, []string{"job_id", "posted_date"}, [][]string{
		{"J1", "2026-08-10"},
		{"J2", "2026-08-20"}, // dataset max becomes the reference
		{"J3", "2026-02-14"},
	})

	out, res := mustEnrich(t, NewDateEnricher(testConfig(), nil), table)

	assert.Equal(t, "10", out.Value(0, "days_since_posted"))
	assert.Equal(t, "0", out.Value(1, "days_since_posted"))
	assert.Equal(t, "187", out.Value(2, "days_since_posted"))

	assert.Equal(t, "Recent (<30 days)", out.Value(0, "posting_age_category"))
	assert.Equal(t, "Recent (<30 days)", out.Value(1, "posting_age_category"))
	assert.Equal(t, "Aging (180-365 days)", out.Value(2, "posting_age_category"))

	assert.Equal(t, "2026", out.Value(2, "posted_year"))
	assert.Equal(t, "2", out.Value(2, "posted_month"))
	assert.Equal(t, "1", out.Value(2, "posted_quarter"))
	assert.Equal(t, "2026-02", out.Value(2, "posted_month_period"))
	// 2026-02-14 is a Saturday
	assert.Equal(t, "5", out.Value(2, "posted_day_of_week"))
	assert.Equal(t, "1", out.Value(2, "is_weekend"))

	assert.Zero(t, res.TotalAnomalies())
}

func TestDateEnricher_AsOfOverride(t *testing.T) {
	table := newTable(t, []string{"job_id", "posted_date"}, [][]string{
		{"J1", "2026-01-01"},
	})

	cfg := testConfig()
	cfg.AsOfDate = "2026-01-31"
	out, _ := mustEnrich(t, NewDateEnricher(cfg, nil), table)
	assert.Equal(t, "30", out.Value(0, "days_since_posted"))
	assert.Equal(t, "Fresh (30-90 days)", out.Value(0, "posting_age_category"))
}

func TestDateEnricher_UnparseableDate(t *testing.T) {
	table := newTable(t, []string{"job_id", "posted_date"}, [][]string{
		{"J1", "2026-08-10"},
		{"J2", "next Tuesday"},
		{"J3", ""},
	})

	out, res := mustEnrich(t, NewDateEnricher(testConfig(), nil), table)

	// unparseable date propagates as an all-null decomposition, row retained
	assert.Equal(t, 3, out.NumRows())
	for _, col := range []string{"posted_year", "posted_month", "days_since_posted", "posting_age_category", "posted_month_period"} {
		assert.Equal(t, "", out.Value(1, col), col)
		assert.Equal(t, "", out.Value(2, col), col)
	}
	// only the non-empty malformed value counts
	assert.Equal(t, 1, res.Anomalies[AnomalyUnparseableDate])
}

func TestDateEnricher_FutureDateAgainstAsOf(t *testing.T) {
	table := newTable(t, []string{"job_id", "posted_date"}, [][]string{
		{"J1", "2026-03-01"},
	})

	cfg := testConfig()
	cfg.AsOfDate = "2026-02-01"
	out, res := mustEnrich(t, NewDateEnricher(cfg, nil), table)

	// decomposition stays, aging is undefined for a future posting
	assert.Equal(t, "-28", out.Value(0, "days_since_posted"))
	assert.Equal(t, "", out.Value(0, "posting_age_category"))
	assert.Equal(t, 1, res.Anomalies[AnomalyNegativeDaysSincePosted])
}

func TestDateEnricher_AlternateFormats(t *testing.T) {
	table := newTable(t, []string{"job_id", "posted_date"}, [][]string{
		{"J1", "2026/08/10"},
		{"J2", "08/10/2026"},
	})

	out, res := mustEnrich(t, NewDateEnricher(testConfig(), nil), table)
	assert.Equal(t, "8", out.Value(0, "posted_month"))
	assert.Equal(t, "8", out.Value(1, "posted_month"))
	assert.Zero(t, res.TotalAnomalies())
}
