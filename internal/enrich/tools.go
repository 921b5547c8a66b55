package enrich

import (
	"context"
	"log/slog"

	"jobsight/internal/config"
	"jobsight/internal/dataset"
)

// ToolsEnricher mirrors the skills enricher over the tools field, with its
// own top-N and a vocabulary independent of the skills vocabulary.
type ToolsEnricher struct {
	cfg    config.EnrichmentConfig
	logger *slog.Logger
}

// NewToolsEnricher creates a tools enricher
func NewToolsEnricher(cfg config.EnrichmentConfig, logger *slog.Logger) *ToolsEnricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &ToolsEnricher{cfg: cfg, logger: logger}
}

func (e *ToolsEnricher) Category() string { return CategoryTools }

func (e *ToolsEnricher) Sources() []string { return []string{"tools_preferred"} }

func (e *ToolsEnricher) Requires() []string { return nil }

// Enrich adds tool_* indicators for the top-N tools, tools_count, and the
// has_data_tool flag. The tool frequency dictionary is the artifact.
func (e *ToolsEnricher) Enrich(ctx context.Context, t *dataset.Table) (*dataset.Table, *Result, error) {
	if err := t.RequireColumns("tools_preferred"); err != nil {
		return nil, nil, err
	}

	out := t.Clone()
	res := newResult(CategoryTools)
	rowsTokens := tokenizeColumn(out, "tools_preferred", e.cfg.ListDelimiter)

	res.Frequency = TopKTokens(rowsTokens, 0)

	if _, err := addIndicatorColumns(out, res, rowsTokens, res.Frequency, e.cfg.ToolsTopN, "tool_"); err != nil {
		return nil, nil, err
	}
	if err := addCountColumn(out, res, rowsTokens, "tools_count"); err != nil {
		return nil, nil, err
	}
	if err := addFlagColumn(out, res, rowsTokens, "has_data_tool", e.cfg.DataTools); err != nil {
		return nil, nil, err
	}

	e.logger.InfoContext(ctx, "tools enrichment completed",
		slog.Int("rows", out.NumRows()),
		slog.Int("distinct_tools", len(res.Frequency)))

	return out, res, nil
}
