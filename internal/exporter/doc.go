// Package exporter writes the run's artifacts: the enriched table, the
// per-category views, the frequency dictionaries, the column mapping, the
// validation report and the run manifest, plus an optional Excel workbook.
// Independent files are written concurrently.
package exporter
