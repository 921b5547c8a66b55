package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"jobsight/internal/checkpoint"
	"jobsight/internal/config"
	"jobsight/internal/dataset"
	"jobsight/internal/enrich"
	"jobsight/internal/errors"
	"jobsight/internal/infrastructure"
)

// CheckpointCleaning is the checkpoint written before any enrichment step
const CheckpointCleaning = "01_after_cleaning"

// extraFrequency keys a step's frequency table in the checkpoint metadata
// sidecar, so a resumed run restores the dictionary artifacts along with
// the rows
const extraFrequency = "frequency"

// Options configures a Runner beyond its required collaborators
type Options struct {
	// Resume loads existing checkpoints instead of recomputing their steps
	Resume bool
	Logger *slog.Logger
	// Providers supplies tracing and metrics; nil runs with no-op telemetry
	Providers *infrastructure.OTelProviders
}

// Runner executes the enrichment pipeline over a cleaned table. A Runner is
// single-use: it accumulates the manifest and frequency artifacts of one run.
type Runner struct {
	cfg         *config.Config
	checkpoints *checkpoint.Manager
	enrichers   []enrich.Enricher
	logger      *slog.Logger
	tracer      trace.Tracer
	metrics     *infrastructure.PipelineMetrics
	resume      bool

	runID       string
	state       *RunState
	manifest    *RunManifest
	frequencies map[string][]enrich.TokenCount
}

// NewRunner creates a pipeline runner
func NewRunner(cfg *config.Config, checkpoints *checkpoint.Manager, opts Options) (*Runner, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = infrastructure.WithComponent(logger, "pipeline")

	var tracer trace.Tracer = tracenoop.NewTracerProvider().Tracer("jobsight")
	var meter metric.Meter = metricnoop.NewMeterProvider().Meter("jobsight")
	if opts.Providers != nil {
		tracer = opts.Providers.Tracer
		meter = opts.Providers.Meter
	}
	metrics, err := infrastructure.CreatePipelineMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}

	enrichers := enrich.Order(cfg.Enrichment, logger)
	categories := make([]string, 0, len(enrichers))
	for _, e := range enrichers {
		categories = append(categories, e.Category())
	}

	return &Runner{
		cfg:         cfg,
		checkpoints: checkpoints,
		enrichers:   enrichers,
		logger:      logger,
		tracer:      tracer,
		metrics:     metrics,
		resume:      opts.Resume,
		runID:       infrastructure.GenerateRunID(),
		state:       NewRunState(categories),
		frequencies: make(map[string][]enrich.TokenCount),
	}, nil
}

// RunID returns the unique id of this run
func (r *Runner) RunID() string {
	return r.runID
}

// State returns the run's state machine
func (r *Runner) State() *RunState {
	return r.state
}

// Manifest returns the run manifest; nil before Run or RunCategory
func (r *Runner) Manifest() *RunManifest {
	return r.manifest
}

// Frequencies returns the token frequency artifacts collected during the
// run, keyed by category
func (r *Runner) Frequencies() map[string][]enrich.TokenCount {
	return r.frequencies
}

// checkpointName returns the checkpoint written after step index i of the
// canonical order; the cleaning checkpoint is 01.
func (r *Runner) checkpointName(i int) string {
	return fmt.Sprintf("%02d_after_%s", i+2, r.enrichers[i].Category())
}

// Run executes every enrichment step in canonical order over the cleaned
// table. The cleaned input is checkpointed first, then each step's output.
// With resume enabled, a step whose checkpoint already exists is restored
// and skipped; its frequency table comes back from the metadata sidecar so
// a resumed run exports the same dictionary artifacts as an uninterrupted
// one. On failure the last good checkpoint stays on disk and the returned
// error names the failing step.
func (r *Runner) Run(ctx context.Context, cleaned *dataset.Table) (*dataset.Table, error) {
	return r.run(ctx, cleaned, nil)
}

// RunCategory executes the dependency closure of one category (for salary
// that means skills first) and returns that category's view restricted to
// the columns the partial run produced.
func (r *Runner) RunCategory(ctx context.Context, cleaned *dataset.Table, category string) (*dataset.Table, error) {
	closure, err := r.closure(category)
	if err != nil {
		return nil, err
	}
	enriched, err := r.run(ctx, cleaned, closure)
	if err != nil {
		return nil, err
	}
	return splitPartial(r.cfg.Enrichment, enriched, category), nil
}

// closure returns the set of categories to execute for one target category,
// following Requires transitively
func (r *Runner) closure(category string) (map[string]bool, error) {
	byCategory := make(map[string]enrich.Enricher, len(r.enrichers))
	for _, e := range r.enrichers {
		byCategory[e.Category()] = e
	}
	if _, ok := byCategory[category]; !ok {
		return nil, errors.NewValidationError(fmt.Sprintf("unknown enrichment category: %s", category))
	}

	closure := make(map[string]bool)
	queue := []string{category}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if closure[next] {
			continue
		}
		closure[next] = true
		queue = append(queue, byCategory[next].Requires()...)
	}
	return closure, nil
}

// run drives the step loop; a nil selection means every step
func (r *Runner) run(ctx context.Context, cleaned *dataset.Table, selection map[string]bool) (*dataset.Table, error) {
	ctx = infrastructure.WithTraceID(ctx, r.runID)
	logger := r.logger.With(slog.String("run_id", r.runID))

	ctx, span := r.tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(
			attribute.String("run.id", r.runID),
			attribute.Int("run.rows", cleaned.NumRows()),
			attribute.Bool("run.resume", r.resume),
		))
	defer span.End()

	r.manifest = NewRunManifest(r.runID, cleaned.NumRows())
	r.metrics.ActiveRuns.Add(ctx, 1)
	defer r.metrics.ActiveRuns.Add(ctx, -1)

	logger.InfoContext(ctx, "pipeline run started",
		slog.Int("rows", cleaned.NumRows()),
		slog.Bool("resume", r.resume))

	written, err := r.checkpoints.Save(cleaned, CheckpointCleaning, map[string]string{"run_id": r.runID})
	if err != nil {
		return r.fail(ctx, span, logger, "", err)
	}
	r.metrics.CheckpointBytes.Add(ctx, written, metric.WithAttributes(attribute.String("checkpoint", CheckpointCleaning)))

	current := cleaned
	for i, enricher := range r.enrichers {
		category := enricher.Category()
		if selection != nil && !selection[category] {
			continue
		}

		name := r.checkpointName(i)
		step := r.state.Step(category)
		r.state.Enriching(category)

		if r.resume && r.checkpoints.Exists(name) {
			restored, meta, err := r.checkpoints.LoadWithMetadata(name)
			if err != nil {
				return r.fail(ctx, span, logger, category, err)
			}
			if encoded, ok := meta.Extra[extraFrequency]; ok {
				var freq []enrich.TokenCount
				if err := json.Unmarshal([]byte(encoded), &freq); err != nil {
					return r.fail(ctx, span, logger, category,
						errors.NewStorageError(fmt.Sprintf("checkpoint %s has a malformed frequency table", name), err))
				}
				r.frequencies[category] = freq
			}
			step.Skip()
			r.manifest.RecordStep(StepExecution{
				Category:    category,
				Status:      StepSkipped,
				StartedAt:   meta.CreatedAt,
				CompletedAt: meta.CreatedAt,
				Rows:        restored.NumRows(),
				Checkpoint:  name,
			})
			logger.InfoContext(ctx, "step restored from checkpoint",
				slog.String("category", category),
				slog.String("checkpoint", name),
				slog.Int("rows", restored.NumRows()))
			current = restored
			continue
		}

		out, err := r.runStep(ctx, logger, enricher, step, current, name)
		if err != nil {
			return r.fail(ctx, span, logger, category, err)
		}
		current = out
	}

	r.state.Complete()
	r.manifest.Finish(RunCompleted, current.NumRows())
	r.metrics.RunsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", RunCompleted)))
	span.SetStatus(codes.Ok, "")

	logger.InfoContext(ctx, "pipeline run completed",
		slog.Int("rows", current.NumRows()),
		slog.Int("columns", len(current.Columns())),
		slog.Int("anomalies", r.manifest.TotalAnomalies()))

	return current, nil
}

// runStep executes one enrichment step and checkpoints its output
func (r *Runner) runStep(ctx context.Context, logger *slog.Logger, enricher enrich.Enricher, step *StepState, in *dataset.Table, name string) (*dataset.Table, error) {
	category := enricher.Category()
	ctx, span := r.tracer.Start(ctx, "pipeline.step",
		trace.WithAttributes(attribute.String("step.category", category)))
	defer span.End()

	step.Start()
	started := time.Now()

	out, result, err := enricher.Enrich(ctx, in)
	if err == nil && out.NumRows() != in.NumRows() {
		err = errors.NewContractError(
			fmt.Sprintf("%s enrichment changed the row count from %d to %d", category, in.NumRows(), out.NumRows()), nil).
			WithContext("category", category)
	}
	duration := time.Since(started)

	if err != nil {
		step.Fail(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.metrics.StepsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("category", category),
			attribute.String("status", string(StepFailed))))
		r.manifest.RecordStep(StepExecution{
			Category:    category,
			Status:      StepFailed,
			StartedAt:   started.UTC(),
			CompletedAt: time.Now().UTC(),
			DurationMS:  duration.Milliseconds(),
			Rows:        in.NumRows(),
			Checkpoint:  name,
			Error:       err.Error(),
		})
		return nil, err
	}

	extra := map[string]string{"run_id": r.runID, "category": category}
	if len(result.Frequency) > 0 {
		encoded, err := json.Marshal(result.Frequency)
		if err != nil {
			return nil, errors.NewStorageError(fmt.Sprintf("failed to encode %s frequency table", category), err)
		}
		extra[extraFrequency] = string(encoded)
	}
	written, err := r.checkpoints.Save(out, name, extra)
	if err != nil {
		step.Fail(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	r.metrics.CheckpointBytes.Add(ctx, written, metric.WithAttributes(attribute.String("checkpoint", name)))

	step.Complete()
	if len(result.Frequency) > 0 {
		r.frequencies[category] = result.Frequency
	}

	r.metrics.StepsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("category", category),
		attribute.String("status", string(StepCompleted))))
	r.metrics.StepDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("category", category)))
	r.metrics.RowsProcessed.Add(ctx, int64(out.NumRows()), metric.WithAttributes(attribute.String("category", category)))
	for reason, count := range result.Anomalies {
		r.metrics.RowAnomalies.Add(ctx, int64(count), metric.WithAttributes(
			attribute.String("category", category),
			attribute.String("reason", reason)))
	}

	r.manifest.RecordStep(StepExecution{
		Category:    category,
		Status:      StepCompleted,
		StartedAt:   started.UTC(),
		CompletedAt: time.Now().UTC(),
		DurationMS:  duration.Milliseconds(),
		Rows:        out.NumRows(),
		Anomalies:   result.Anomalies,
		Checkpoint:  name,
	})

	logger.InfoContext(ctx, "step completed",
		slog.String("category", category),
		slog.String("checkpoint", name),
		slog.Duration("duration", duration),
		slog.Int("columns_added", len(result.Columns)),
		slog.Int("anomalies", result.TotalAnomalies()))
	for reason, count := range result.Anomalies {
		if count == 0 {
			continue
		}
		logger.WarnContext(ctx, fmt.Sprintf("%d rows had %s", count, strings.ReplaceAll(reason, "_", " ")),
			slog.String("category", category),
			slog.String("reason", reason),
			slog.Int("count", count))
	}

	return out, nil
}

// fail finalizes the run after a step error
func (r *Runner) fail(ctx context.Context, span trace.Span, logger *slog.Logger, category string, err error) (*dataset.Table, error) {
	r.state.Fail()
	r.manifest.Finish(RunFailed, 0)
	r.metrics.RunsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", RunFailed)))
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	infrastructure.WithError(logger, err).ErrorContext(ctx, "pipeline run failed",
		slog.String("category", category))

	if category == "" {
		return nil, err
	}
	return nil, fmt.Errorf("enrichment step %s failed: %w", category, err)
}
