package enrich

import (
	"context"
	"log/slog"
	"strings"

	"jobsight/internal/config"
	"jobsight/internal/dataset"
)

// ExperienceEnricher normalizes the experience label and encodes it as an
// ordinal rank. The encoding is total: an unmapped label takes the sentinel
// rank one past the highest configured rank.
type ExperienceEnricher struct {
	cfg    config.EnrichmentConfig
	logger *slog.Logger
	warner *rowWarner
}

// NewExperienceEnricher creates an experience enricher
func NewExperienceEnricher(cfg config.EnrichmentConfig, logger *slog.Logger) *ExperienceEnricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExperienceEnricher{cfg: cfg, logger: logger, warner: newRowWarner(logger)}
}

func (e *ExperienceEnricher) Category() string { return CategoryExperience }

func (e *ExperienceEnricher) Sources() []string { return []string{"experience_level"} }

func (e *ExperienceEnricher) Requires() []string { return nil }

// Enrich adds experience_level_normalized and experience_level_ordinal
func (e *ExperienceEnricher) Enrich(ctx context.Context, t *dataset.Table) (*dataset.Table, *Result, error) {
	if err := t.RequireColumns("experience_level"); err != nil {
		return nil, nil, err
	}

	out := t.Clone()
	res := newResult(CategoryExperience)
	rows := out.NumRows()
	sentinel := e.cfg.OrdinalSentinel()

	normalized := make([]string, rows)
	ordinals := make([]string, rows)

	for row := 0; row < rows; row++ {
		label := out.Value(row, "experience_level")
		normalized[row] = titleCase(label)

		rank, known := ExperienceToOrdinal(label, e.cfg.ExperienceOrdinals)
		if !known {
			rank = sentinel
			if strings.TrimSpace(label) != "" {
				res.anomaly(AnomalyUnknownExperienceLevel)
				e.warner.warn(ctx, "unknown experience level",
					slog.String("job_id", out.Value(row, "job_id")),
					slog.String("experience_level", label))
			}
		}
		ordinals[row] = dataset.FormatInt(rank)
	}

	if err := out.SetColumn("experience_level_normalized", normalized); err != nil {
		return nil, nil, err
	}
	res.addColumn("experience_level_normalized")
	if err := out.SetColumn("experience_level_ordinal", ordinals); err != nil {
		return nil, nil, err
	}
	res.addColumn("experience_level_ordinal")

	e.logger.InfoContext(ctx, "experience enrichment completed",
		slog.Int("rows", rows),
		slog.Int("unknown_labels", res.Anomalies[AnomalyUnknownExperienceLevel]))

	return out, res, nil
}
