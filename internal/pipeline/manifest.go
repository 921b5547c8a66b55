package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"jobsight/internal/errors"
)

// StepExecution records one step of a run for the manifest
type StepExecution struct {
	Category    string         `json:"category"`
	Status      StepStatus     `json:"status"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt time.Time      `json:"completed_at"`
	DurationMS  int64          `json:"duration_ms"`
	Rows        int            `json:"rows"`
	Anomalies   map[string]int `json:"anomalies,omitempty"`
	Checkpoint  string         `json:"checkpoint"`
	Error       string         `json:"error,omitempty"`
}

// RunManifest is the persisted record of one pipeline run. It is written to
// the output directory at the end of every run, including failed ones, so a
// run's outcome survives the process.
type RunManifest struct {
	RunID       string          `json:"run_id"`
	Status      string          `json:"status"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt time.Time       `json:"completed_at"`
	RowsIn      int             `json:"rows_in"`
	RowsOut     int             `json:"rows_out"`
	Steps       []StepExecution `json:"steps"`
}

// NewRunManifest starts a manifest for a run
func NewRunManifest(runID string, rowsIn int) *RunManifest {
	return &RunManifest{
		RunID:     runID,
		Status:    RunNotStarted,
		StartedAt: time.Now().UTC(),
		RowsIn:    rowsIn,
	}
}

// RecordStep appends one step execution
func (m *RunManifest) RecordStep(exec StepExecution) {
	m.Steps = append(m.Steps, exec)
}

// Finish stamps the final status and completion time
func (m *RunManifest) Finish(status string, rowsOut int) {
	m.Status = status
	m.RowsOut = rowsOut
	m.CompletedAt = time.Now().UTC()
}

// TotalAnomalies sums the anomaly counts across all steps
func (m *RunManifest) TotalAnomalies() int {
	total := 0
	for _, step := range m.Steps {
		for _, count := range step.Anomalies {
			total += count
		}
	}
	return total
}

// SaveToFile writes the manifest as indented JSON, creating the parent
// directory if needed
func (m *RunManifest) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.NewStorageError(fmt.Sprintf("failed to create directory for %s", path), err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.NewStorageError("failed to encode run manifest", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.NewStorageError(fmt.Sprintf("failed to write run manifest to %s", path), err)
	}
	return nil
}
