// Package pipeline orchestrates the enrichment run: it executes the
// category enrichers in canonical order, checkpoints after every step,
// resumes from the last completed checkpoint, and records a run manifest.
package pipeline
