package enrich

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"jobsight/internal/config"
	"jobsight/internal/dataset"
)

// Category names, in canonical execution order
const (
	CategorySkills     = "skills"
	CategorySalary     = "salary"
	CategoryTools      = "tools"
	CategoryExperience = "experience"
	CategoryLocation   = "location"
	CategoryDate       = "date"
	CategoryEmployment = "employment"
	CategoryCompany    = "company"
	CategoryAdditional = "additional"
)

// Enricher is one category transformer. Enrich never mutates its input: it
// clones the table, appends new columns and returns the clone together with
// a Result. Derived columns are always recomputed from the source columns
// and replace any existing column of the same name, so re-applying an
// enricher to its own output reproduces it.
type Enricher interface {
	// Category returns the category name
	Category() string

	// Sources returns the raw columns this enricher reads
	Sources() []string

	// Requires returns the categories that must have run before this one
	Requires() []string

	// Enrich returns the input plus this category's derived columns
	Enrich(ctx context.Context, t *dataset.Table) (*dataset.Table, *Result, error)
}

// Order builds all enrichers in canonical execution order: skills feeds
// salary's per-skill ratio, everything feeds additional.
func Order(cfg config.EnrichmentConfig, logger *slog.Logger) []Enricher {
	return []Enricher{
		NewSkillsEnricher(cfg, logger),
		NewSalaryEnricher(cfg, logger),
		NewToolsEnricher(cfg, logger),
		NewExperienceEnricher(cfg, logger),
		NewLocationEnricher(cfg, logger),
		NewDateEnricher(cfg, logger),
		NewEmploymentEnricher(cfg, logger),
		NewCompanyEnricher(cfg, logger),
		NewAdditionalEnricher(cfg, logger),
	}
}

// rowWarner rate-limits per-row anomaly warnings so a dataset where every row
// is malformed cannot flood the log: the first few rows log, then one per
// second.
type rowWarner struct {
	logger  *slog.Logger
	limiter rate.Sometimes
}

func newRowWarner(logger *slog.Logger) *rowWarner {
	if logger == nil {
		logger = slog.Default()
	}
	return &rowWarner{
		logger:  logger,
		limiter: rate.Sometimes{First: 5, Interval: time.Second},
	}
}

func (w *rowWarner) warn(ctx context.Context, msg string, args ...any) {
	w.limiter.Do(func() {
		w.logger.WarnContext(ctx, msg, args...)
	})
}
