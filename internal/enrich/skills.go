package enrich

import (
	"context"
	"log/slog"

	"jobsight/internal/config"
	"jobsight/internal/dataset"
)

// SkillsEnricher tokenizes the skills field and derives the skill indicator
// columns, the per-row skill count, and the category flags. It also produces
// the skill frequency dictionary consumed by demand analysis.
type SkillsEnricher struct {
	cfg    config.EnrichmentConfig
	logger *slog.Logger
}

// NewSkillsEnricher creates a skills enricher
func NewSkillsEnricher(cfg config.EnrichmentConfig, logger *slog.Logger) *SkillsEnricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &SkillsEnricher{cfg: cfg, logger: logger}
}

func (e *SkillsEnricher) Category() string { return CategorySkills }

func (e *SkillsEnricher) Sources() []string { return []string{"skills_required"} }

func (e *SkillsEnricher) Requires() []string { return nil }

// Enrich adds skill_* indicators for the dataset-wide top-N skills,
// skills_count over all tokens (vocabulary membership does not matter), and
// the has_programming_language / has_cloud_platform / has_ml_framework flags.
func (e *SkillsEnricher) Enrich(ctx context.Context, t *dataset.Table) (*dataset.Table, *Result, error) {
	if err := t.RequireColumns("skills_required"); err != nil {
		return nil, nil, err
	}

	out := t.Clone()
	res := newResult(CategorySkills)
	rowsTokens := tokenizeColumn(out, "skills_required", e.cfg.ListDelimiter)

	// the frequency table is computed once over the full dataset; the
	// vocabulary is its top-N slice
	res.Frequency = TopKTokens(rowsTokens, 0)

	vocabulary, err := addIndicatorColumns(out, res, rowsTokens, res.Frequency, e.cfg.SkillsTopN, "skill_")
	if err != nil {
		return nil, nil, err
	}
	if err := addCountColumn(out, res, rowsTokens, "skills_count"); err != nil {
		return nil, nil, err
	}
	if err := addFlagColumn(out, res, rowsTokens, "has_programming_language", e.cfg.ProgrammingLanguages); err != nil {
		return nil, nil, err
	}
	if err := addFlagColumn(out, res, rowsTokens, "has_cloud_platform", e.cfg.CloudPlatforms); err != nil {
		return nil, nil, err
	}
	if err := addFlagColumn(out, res, rowsTokens, "has_ml_framework", e.cfg.MLFrameworks); err != nil {
		return nil, nil, err
	}

	e.logger.InfoContext(ctx, "skills enrichment completed",
		slog.Int("rows", out.NumRows()),
		slog.Int("vocabulary_size", len(vocabulary)),
		slog.Int("distinct_skills", len(res.Frequency)))

	return out, res, nil
}
