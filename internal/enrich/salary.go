package enrich

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"jobsight/internal/config"
	"jobsight/internal/dataset"
	"jobsight/internal/errors"
)

// SalaryEnricher parses the "min-max" salary range into numeric columns,
// assigns the salary cluster, and derives salary_per_skill. It depends on the
// skills enricher having produced skills_count.
type SalaryEnricher struct {
	cfg    config.EnrichmentConfig
	logger *slog.Logger
	warner *rowWarner
}

// NewSalaryEnricher creates a salary enricher
func NewSalaryEnricher(cfg config.EnrichmentConfig, logger *slog.Logger) *SalaryEnricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &SalaryEnricher{cfg: cfg, logger: logger, warner: newRowWarner(logger)}
}

func (e *SalaryEnricher) Category() string { return CategorySalary }

func (e *SalaryEnricher) Sources() []string { return []string{"salary_range"} }

func (e *SalaryEnricher) Requires() []string { return []string{CategorySkills} }

// Enrich adds salary_min, salary_max, salary_avg, salary_cluster and
// salary_per_skill. A malformed range string nulls every salary field for
// that row; the row is retained and the anomaly counted.
func (e *SalaryEnricher) Enrich(ctx context.Context, t *dataset.Table) (*dataset.Table, *Result, error) {
	if err := t.RequireColumns("salary_range"); err != nil {
		return nil, nil, err
	}
	if !t.HasColumn("skills_count") {
		return nil, nil, errors.NewContractError(
			"salary_per_skill requires the skills enrichment to have run (column skills_count is missing)", nil).
			WithContext("column", "skills_count")
	}

	out := t.Clone()
	res := newResult(CategorySalary)
	rows := out.NumRows()

	mins := make([]string, rows)
	maxs := make([]string, rows)
	avgs := make([]string, rows)
	clusters := make([]string, rows)
	perSkill := make([]string, rows)

	for row := 0; row < rows; row++ {
		raw := out.Value(row, "salary_range")
		min, max, ok := parseSalaryRange(raw)
		if !ok {
			// a null field is absence, not an anomaly
			if strings.TrimSpace(raw) != "" {
				res.anomaly(AnomalyMalformedSalaryRange)
				e.warner.warn(ctx, "malformed salary range",
					slog.String("job_id", out.Value(row, "job_id")),
					slog.String("salary_range", raw))
			}
			continue
		}

		// salary_avg keeps full float precision, no rounding
		avg := (min + max) / 2
		mins[row] = dataset.FormatFloat(min)
		maxs[row] = dataset.FormatFloat(max)
		avgs[row] = dataset.FormatFloat(avg)

		if label, binned := assignBin(avg, e.cfg.SalaryBinEdges, e.cfg.SalaryBinLabels); binned {
			clusters[row] = label
		} else {
			res.anomaly(AnomalyUnclusteredSalary)
		}

		skillsCount, _ := strconv.Atoi(out.Value(row, "skills_count"))
		perSkill[row] = dataset.FormatFloat(SafeDivide(avg, float64(skillsCount), avg))
	}

	for _, col := range []struct {
		name  string
		cells []string
	}{
		{"salary_min", mins},
		{"salary_max", maxs},
		{"salary_avg", avgs},
		{"salary_cluster", clusters},
		{"salary_per_skill", perSkill},
	} {
		if err := out.SetColumn(col.name, col.cells); err != nil {
			return nil, nil, err
		}
		res.addColumn(col.name)
	}

	e.logger.InfoContext(ctx, "salary enrichment completed",
		slog.Int("rows", rows),
		slog.Int("malformed_ranges", res.Anomalies[AnomalyMalformedSalaryRange]))

	return out, res, nil
}

// parseSalaryRange parses a "min-max" range string. Missing delimiter,
// non-numeric bounds and a reversed range (min > max) are all malformed.
func parseSalaryRange(raw string) (min, max float64, ok bool) {
	parts := strings.Split(strings.TrimSpace(raw), "-")
	if len(parts) != 2 {
		return 0, 0, false
	}
	min, errMin := parseSalaryNumber(parts[0])
	max, errMax := parseSalaryNumber(parts[1])
	if errMin != nil || errMax != nil || min > max {
		return 0, 0, false
	}
	return min, max, true
}

func parseSalaryNumber(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	return strconv.ParseFloat(s, 64)
}
