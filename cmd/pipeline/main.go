package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"jobsight/internal/checkpoint"
	"jobsight/internal/cleaning"
	"jobsight/internal/config"
	"jobsight/internal/dataset"
	"jobsight/internal/exporter"
	"jobsight/internal/infrastructure"
	"jobsight/internal/pipeline"
)

func main() {
	input := flag.String("input", "", "path to the raw dataset (.csv or .xlsx)")
	configFile := flag.String("config", "", "path to a YAML config file (optional)")
	baseDir := flag.String("dir", "", "base directory for data, checkpoints and output")
	category := flag.String("category", "", "run only one enrichment category and its dependencies")
	resume := flag.Bool("resume", false, "resume from existing checkpoints")
	asOf := flag.String("as-of", "", "reference date for posting age (YYYY-MM-DD, defaults to the dataset maximum)")
	noExport := flag.Bool("no-export", false, "skip artifact export, only write checkpoints")
	workbook := flag.Bool("workbook", false, "also export an Excel workbook")
	metricsOut := flag.String("metrics-out", "", "write prometheus metrics to this file on exit")
	logLevel := flag.String("log-level", "", "override the configured log level")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "usage: pipeline -input <dataset.csv|dataset.xlsx> [flags]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if *baseDir != "" {
		cfg.Paths.Rebase(*baseDir)
	}
	if *asOf != "" {
		cfg.Enrichment.AsOfDate = *asOf
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := cfg.Paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	if err := run(cfg, logger, *input, *category, *resume, *noExport, *workbook, *metricsOut); err != nil {
		infrastructure.WithError(logger, err).Error("Pipeline run failed")
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, input, category string, resume, noExport, workbook bool, metricsOut string) error {
	ctx := infrastructure.EnsureTraceID(context.Background())

	providers, err := infrastructure.InitializeOTel(cfg.Observability, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		if metricsOut != "" {
			if err := providers.DumpMetrics(metricsOut); err != nil {
				infrastructure.WithError(logger, err).Warn("Failed to dump metrics")
			}
		}
		if err := providers.Shutdown(context.Background()); err != nil {
			infrastructure.WithError(logger, err).Warn("Failed to shut down observability")
		}
	}()

	logger.InfoContext(ctx, "Starting enrichment pipeline",
		slog.String("input", input),
		slog.String("base_dir", cfg.Paths.BaseDir),
		slog.Bool("resume", resume),
		slog.String("category", category))

	raw, err := dataset.Load(input, logger)
	if err != nil {
		return err
	}

	cleaned, cleaningReport, err := cleaning.Apply(ctx, raw, cleaning.Steps(cfg.Cleaning), logger)
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "Cleaning completed",
		slog.Int("rows_in", cleaningReport.RowsIn),
		slog.Int("rows_out", cleaningReport.RowsOut))

	validation, err := cleaning.Validate(cleaned, dataset.RequiredColumns, "job_id")
	if err != nil {
		return err
	}

	checkpoints, err := checkpoint.NewManager(cfg.Paths.CheckpointsDir)
	if err != nil {
		return err
	}

	runner, err := pipeline.NewRunner(cfg, checkpoints, pipeline.Options{
		Resume:    resume,
		Logger:    logger,
		Providers: providers,
	})
	if err != nil {
		return err
	}

	if category != "" {
		view, err := runner.RunCategory(ctx, cleaned, category)
		if err != nil {
			return err
		}
		path := filepath.Join(cfg.Paths.OutputDir, category+"_view.csv")
		if err := view.WriteCSV(path, true); err != nil {
			return err
		}
		logger.InfoContext(ctx, "Category view exported",
			slog.String("category", category),
			slog.String("path", path),
			slog.Int("rows", view.NumRows()))
		return runner.Manifest().SaveToFile(filepath.Join(cfg.Paths.OutputDir, exporter.RunManifestFile))
	}

	enriched, err := runner.Run(ctx, cleaned)
	if err != nil {
		// persist the failed manifest so the outcome survives the process
		if runner.Manifest() != nil {
			if saveErr := runner.Manifest().SaveToFile(filepath.Join(cfg.Paths.OutputDir, exporter.RunManifestFile)); saveErr != nil {
				infrastructure.WithError(logger, saveErr).Warn("Failed to save run manifest")
			}
		}
		return err
	}

	if noExport {
		logger.InfoContext(ctx, "Export skipped",
			slog.Int("rows", enriched.NumRows()),
			slog.Int("columns", len(enriched.Columns())))
		return runner.Manifest().SaveToFile(filepath.Join(cfg.Paths.OutputDir, exporter.RunManifestFile))
	}

	views, err := pipeline.SplitByCategory(cfg.Enrichment, enriched)
	if err != nil {
		return err
	}

	artifacts := exporter.Artifacts{
		Enriched:    enriched,
		Views:       views,
		Frequencies: runner.Frequencies(),
		Validation:  validation,
		Manifest:    runner.Manifest(),
	}
	exp := exporter.New(cfg, logger)
	if err := exp.ExportAll(ctx, artifacts); err != nil {
		return err
	}
	if workbook {
		if err := exp.ExportWorkbook(ctx, artifacts); err != nil {
			return err
		}
	}

	logger.InfoContext(ctx, "Pipeline finished",
		slog.String("run_id", runner.RunID()),
		slog.Int("rows", enriched.NumRows()),
		slog.Int("columns", len(enriched.Columns())),
		slog.Int("anomalies", runner.Manifest().TotalAnomalies()))
	return nil
}
