package enrich

import (
	"context"
	"log/slog"
	"strings"

	"jobsight/internal/config"
	"jobsight/internal/dataset"
)

// CompanyEnricher derives company size flags from company_size and industry
// flags from industry, via the configured lookup tables. Unmatched values
// leave every flag 0.
type CompanyEnricher struct {
	cfg    config.EnrichmentConfig
	logger *slog.Logger
	warner *rowWarner
}

// NewCompanyEnricher creates a company enricher
func NewCompanyEnricher(cfg config.EnrichmentConfig, logger *slog.Logger) *CompanyEnricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &CompanyEnricher{cfg: cfg, logger: logger, warner: newRowWarner(logger)}
}

func (e *CompanyEnricher) Category() string { return CategoryCompany }

func (e *CompanyEnricher) Sources() []string { return []string{"company_size", "industry"} }

func (e *CompanyEnricher) Requires() []string { return nil }

// Enrich adds is_startup, is_large_company and the industry flags
func (e *CompanyEnricher) Enrich(ctx context.Context, t *dataset.Table) (*dataset.Table, *Result, error) {
	if err := t.RequireColumns("company_size", "industry"); err != nil {
		return nil, nil, err
	}

	out := t.Clone()
	res := newResult(CategoryCompany)
	rows := out.NumRows()

	startupSet := foldSet(e.cfg.StartupSizes)
	largeSet := foldSet(e.cfg.LargeCompanySizes)
	techSet := foldSet(e.cfg.TechIndustries)
	financeSet := foldSet(e.cfg.FinanceIndustries)
	healthcareSet := foldSet(e.cfg.HealthcareIndustries)

	startups := make([]string, rows)
	larges := make([]string, rows)
	techs := make([]string, rows)
	finances := make([]string, rows)
	healthcares := make([]string, rows)

	flag := func(set map[string]struct{}, value string) string {
		if inFoldSet(set, value) {
			return "1"
		}
		return "0"
	}

	for row := 0; row < rows; row++ {
		size := out.Value(row, "company_size")
		startups[row] = flag(startupSet, size)
		larges[row] = flag(largeSet, size)
		if startups[row] == "0" && larges[row] == "0" && strings.TrimSpace(size) != "" {
			res.anomaly(AnomalyUnrecognizedCompanySize)
			e.warner.warn(ctx, "unrecognized company size",
				slog.String("job_id", out.Value(row, "job_id")),
				slog.String("company_size", size))
		}

		industry := out.Value(row, "industry")
		techs[row] = flag(techSet, industry)
		finances[row] = flag(financeSet, industry)
		healthcares[row] = flag(healthcareSet, industry)
	}

	for _, col := range []struct {
		name  string
		cells []string
	}{
		{"is_startup", startups},
		{"is_large_company", larges},
		{"is_tech_industry", techs},
		{"is_finance_industry", finances},
		{"is_healthcare_industry", healthcares},
	} {
		if err := out.SetColumn(col.name, col.cells); err != nil {
			return nil, nil, err
		}
		res.addColumn(col.name)
	}

	e.logger.InfoContext(ctx, "company enrichment completed",
		slog.Int("rows", rows),
		slog.Int("unrecognized_sizes", res.Anomalies[AnomalyUnrecognizedCompanySize]))

	return out, res, nil
}
