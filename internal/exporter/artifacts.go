package exporter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"jobsight/internal/cleaning"
	"jobsight/internal/config"
	"jobsight/internal/dataset"
	"jobsight/internal/enrich"
	"jobsight/internal/errors"
	"jobsight/internal/infrastructure"
	"jobsight/internal/pipeline"
)

// Artifact file names under the output directory
const (
	EnrichedFile         = "enriched_jobs.csv"
	ColumnMappingFile    = "column_mapping.json"
	ValidationReportFile = "validation_report.json"
	RunManifestFile      = "run_manifest.json"
	WorkbookFile         = "enriched_jobs.xlsx"
)

// frequencyFiles maps a vocabulary category to its dictionary file name
var frequencyFiles = map[string]string{
	enrich.CategorySkills:   "skill_frequency.csv",
	enrich.CategoryTools:    "tool_frequency.csv",
	enrich.CategoryLocation: "location_frequency.csv",
}

// Artifacts bundles everything one run produces for export
type Artifacts struct {
	Enriched    *dataset.Table
	Views       map[string]*dataset.Table
	Frequencies map[string][]enrich.TokenCount
	Validation  *cleaning.ValidationReport
	Manifest    *pipeline.RunManifest
}

// Exporter writes run artifacts to the configured output directories
type Exporter struct {
	paths  config.PathsConfig
	cfg    config.EnrichmentConfig
	writer *CSVWriter
	logger *slog.Logger
}

// New creates an exporter for the configured paths
func New(cfg *config.Config, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		paths:  cfg.Paths,
		cfg:    cfg.Enrichment,
		writer: NewCSVWriter(cfg.Paths.OutputDir),
		logger: infrastructure.WithComponent(logger, "exporter"),
	}
}

// ExportAll writes every artifact of a run. Independent files are written
// concurrently, one goroutine per file; the first error cancels the rest.
func (e *Exporter) ExportAll(ctx context.Context, artifacts Artifacts) error {
	if artifacts.Enriched == nil {
		return errors.NewValidationError("export requires an enriched table")
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return e.writer.WriteTable(EnrichedFile, artifacts.Enriched, true)
	})

	for category, view := range artifacts.Views {
		group.Go(func() error {
			return e.writer.WriteTable(viewFile(category), view, true)
		})
	}

	for category, tokens := range artifacts.Frequencies {
		file, ok := frequencyFiles[category]
		if !ok {
			continue
		}
		group.Go(func() error {
			return e.writeFrequency(filepath.Join(e.paths.DictionariesDir, file), tokens)
		})
	}

	group.Go(func() error {
		return e.writeColumnMapping(artifacts)
	})

	if artifacts.Validation != nil {
		group.Go(func() error {
			return artifacts.Validation.WriteJSON(filepath.Join(e.paths.OutputDir, ValidationReportFile))
		})
	}

	if artifacts.Manifest != nil {
		group.Go(func() error {
			return artifacts.Manifest.SaveToFile(filepath.Join(e.paths.OutputDir, RunManifestFile))
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}

	e.logger.InfoContext(ctx, "artifacts exported",
		slog.String("output_dir", e.paths.OutputDir),
		slog.Int("views", len(artifacts.Views)),
		slog.Int("dictionaries", len(artifacts.Frequencies)))
	return nil
}

// viewFile returns the artifact path of one category view
func viewFile(category string) string {
	return filepath.Join("views", category+"_view.csv")
}

// writeFrequency writes one token dictionary with header token,count,rank;
// rank is the 1-based position in vocabulary order
func (e *Exporter) writeFrequency(path string, tokens []enrich.TokenCount) error {
	records := make([][]string, 0, len(tokens))
	for i, tc := range tokens {
		records = append(records, []string{tc.Token, dataset.FormatInt(tc.Count), dataset.FormatInt(i + 1)})
	}
	return e.writer.WriteCSV(path, WriteOptions{
		Headers: []string{"token", "count", "rank"},
		Records: records,
	})
}

// ColumnMapping documents how the enriched table splits into views and which
// label sets a run used, so downstream consumers never hard-code them
type ColumnMapping struct {
	IdentityColumns     []string            `json:"identity_columns"`
	Categories          map[string][]string `json:"categories"`
	ExperienceOrdinals  map[string]int      `json:"experience_ordinals"`
	ExperienceSentinel  int                 `json:"experience_sentinel"`
	SalaryClusterLabels []string            `json:"salary_cluster_labels"`
	PostingAgeLabels    []string            `json:"posting_age_labels"`
	Regions             []string            `json:"regions"`
}

// writeColumnMapping saves the column mapping JSON artifact
func (e *Exporter) writeColumnMapping(artifacts Artifacts) error {
	mapping := ColumnMapping{
		IdentityColumns:     e.cfg.IdentityColumns,
		Categories:          make(map[string][]string, len(artifacts.Views)),
		ExperienceOrdinals:  e.cfg.ExperienceOrdinals,
		ExperienceSentinel:  e.cfg.OrdinalSentinel(),
		SalaryClusterLabels: e.cfg.SalaryBinLabels,
		PostingAgeLabels:    e.cfg.AgeBinLabels,
		Regions:             []string{"USA", "International"},
	}
	categories := make([]string, 0, len(artifacts.Views))
	for category := range artifacts.Views {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	for _, category := range categories {
		mapping.Categories[category] = artifacts.Views[category].Columns()
	}

	data, err := json.MarshalIndent(mapping, "", "  ")
	if err != nil {
		return errors.NewStorageError("failed to encode column mapping", err)
	}
	path := filepath.Join(e.paths.OutputDir, ColumnMappingFile)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.NewStorageError(fmt.Sprintf("failed to create directory for %s", path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.NewStorageError(fmt.Sprintf("failed to write column mapping to %s", path), err)
	}
	return nil
}
