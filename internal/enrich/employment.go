package enrich

import (
	"context"
	"log/slog"
	"strings"

	"jobsight/internal/config"
	"jobsight/internal/dataset"
)

// EmploymentEnricher derives boolean flags from the employment type label.
// An unrecognized label leaves all flags 0 and keeps the label for audit.
type EmploymentEnricher struct {
	cfg    config.EnrichmentConfig
	logger *slog.Logger
	warner *rowWarner
}

// NewEmploymentEnricher creates an employment enricher
func NewEmploymentEnricher(cfg config.EnrichmentConfig, logger *slog.Logger) *EmploymentEnricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmploymentEnricher{cfg: cfg, logger: logger, warner: newRowWarner(logger)}
}

func (e *EmploymentEnricher) Category() string { return CategoryEmployment }

func (e *EmploymentEnricher) Sources() []string { return []string{"employment_type"} }

func (e *EmploymentEnricher) Requires() []string { return nil }

// Enrich adds is_remote, is_full_time, is_contract and is_internship via
// fold-exact matches against the configured label sets
func (e *EmploymentEnricher) Enrich(ctx context.Context, t *dataset.Table) (*dataset.Table, *Result, error) {
	if err := t.RequireColumns("employment_type"); err != nil {
		return nil, nil, err
	}

	out := t.Clone()
	res := newResult(CategoryEmployment)
	rows := out.NumRows()

	remoteSet := foldSet(e.cfg.RemoteTypes)
	fullTimeSet := foldSet(e.cfg.FullTimeTypes)
	contractSet := foldSet(e.cfg.ContractTypes)
	internshipSet := foldSet(e.cfg.InternshipTypes)

	flags := map[string][]string{
		"is_remote":     make([]string, rows),
		"is_full_time":  make([]string, rows),
		"is_contract":   make([]string, rows),
		"is_internship": make([]string, rows),
	}

	for row := 0; row < rows; row++ {
		label := out.Value(row, "employment_type")
		matched := false
		for name, set := range map[string]map[string]struct{}{
			"is_remote":     remoteSet,
			"is_full_time":  fullTimeSet,
			"is_contract":   contractSet,
			"is_internship": internshipSet,
		} {
			if inFoldSet(set, label) {
				flags[name][row] = "1"
				matched = true
			} else {
				flags[name][row] = "0"
			}
		}
		if !matched && strings.TrimSpace(label) != "" {
			res.anomaly(AnomalyUnrecognizedEmployment)
			e.warner.warn(ctx, "unrecognized employment type",
				slog.String("job_id", out.Value(row, "job_id")),
				slog.String("employment_type", label))
		}
	}

	for _, name := range []string{"is_remote", "is_full_time", "is_contract", "is_internship"} {
		if err := out.SetColumn(name, flags[name]); err != nil {
			return nil, nil, err
		}
		res.addColumn(name)
	}

	e.logger.InfoContext(ctx, "employment enrichment completed",
		slog.Int("rows", rows),
		slog.Int("unrecognized", res.Anomalies[AnomalyUnrecognizedEmployment]))

	return out, res, nil
}
