package enrich

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"jobsight/internal/config"
	"jobsight/internal/dataset"
)

// DateEnricher decomposes the posting date into calendar parts and derives
// the aging features relative to a reference date: the configured as-of date
// when set, else the maximum parsed date in the dataset.
type DateEnricher struct {
	cfg    config.EnrichmentConfig
	logger *slog.Logger
	warner *rowWarner
}

// NewDateEnricher creates a date enricher
func NewDateEnricher(cfg config.EnrichmentConfig, logger *slog.Logger) *DateEnricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &DateEnricher{cfg: cfg, logger: logger, warner: newRowWarner(logger)}
}

func (e *DateEnricher) Category() string { return CategoryDate }

func (e *DateEnricher) Sources() []string { return []string{"posted_date"} }

func (e *DateEnricher) Requires() []string { return nil }

// Enrich adds posted_year, posted_month, posted_quarter, posted_day_of_week,
// posted_week_of_year, is_weekend, days_since_posted, posting_age_category
// and posted_month_period. An unparseable date propagates as an all-null
// decomposition, never a lost row.
func (e *DateEnricher) Enrich(ctx context.Context, t *dataset.Table) (*dataset.Table, *Result, error) {
	if err := t.RequireColumns("posted_date"); err != nil {
		return nil, nil, err
	}

	out := t.Clone()
	res := newResult(CategoryDate)
	rows := out.NumRows()

	parsed := make([]time.Time, rows)
	valid := make([]bool, rows)
	var maxDate time.Time
	for row := 0; row < rows; row++ {
		raw := out.Value(row, "posted_date")
		d, ok := e.parseDate(raw)
		if !ok {
			if strings.TrimSpace(raw) != "" {
				res.anomaly(AnomalyUnparseableDate)
				e.warner.warn(ctx, "unparseable posted date",
					slog.String("job_id", out.Value(row, "job_id")),
					slog.String("posted_date", raw))
			}
			continue
		}
		parsed[row] = d
		valid[row] = true
		if d.After(maxDate) {
			maxDate = d
		}
	}

	reference, overridden := e.cfg.AsOf()
	if !overridden {
		reference = maxDate
	}

	years := make([]string, rows)
	months := make([]string, rows)
	quarters := make([]string, rows)
	daysOfWeek := make([]string, rows)
	weeks := make([]string, rows)
	weekends := make([]string, rows)
	daysSince := make([]string, rows)
	ages := make([]string, rows)
	periods := make([]string, rows)

	for row := 0; row < rows; row++ {
		if !valid[row] {
			continue
		}
		parts := DecomposeDate(parsed[row])
		years[row] = dataset.FormatInt(parts.Year)
		months[row] = dataset.FormatInt(parts.Month)
		quarters[row] = dataset.FormatInt(parts.Quarter)
		daysOfWeek[row] = dataset.FormatInt(parts.DayOfWeek)
		weeks[row] = dataset.FormatInt(parts.WeekOfYear)
		if parts.IsWeekend {
			weekends[row] = "1"
		} else {
			weekends[row] = "0"
		}
		periods[row] = parsed[row].Format("2006-01")

		days := int(reference.Sub(parsed[row]).Hours() / 24)
		daysSince[row] = dataset.FormatInt(days)
		if days < 0 {
			res.anomaly(AnomalyNegativeDaysSincePosted)
			continue
		}
		if label, ok := assignBin(float64(days), e.cfg.AgeBinEdges, e.cfg.AgeBinLabels); ok {
			ages[row] = label
		}
	}

	for _, col := range []struct {
		name  string
		cells []string
	}{
		{"posted_year", years},
		{"posted_month", months},
		{"posted_quarter", quarters},
		{"posted_day_of_week", daysOfWeek},
		{"posted_week_of_year", weeks},
		{"is_weekend", weekends},
		{"days_since_posted", daysSince},
		{"posting_age_category", ages},
		{"posted_month_period", periods},
	} {
		if err := out.SetColumn(col.name, col.cells); err != nil {
			return nil, nil, err
		}
		res.addColumn(col.name)
	}

	e.logger.InfoContext(ctx, "date enrichment completed",
		slog.Int("rows", rows),
		slog.String("reference_date", reference.Format("2006-01-02")),
		slog.Int("unparseable", res.Anomalies[AnomalyUnparseableDate]))

	return out, res, nil
}

// parseDate tries the configured formats in order; first match wins
func (e *DateEnricher) parseDate(raw string) (time.Time, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, false
	}
	for _, format := range e.cfg.DateFormats {
		if d, err := time.Parse(format, trimmed); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}
