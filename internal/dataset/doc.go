// Package dataset provides the in-memory table the pipeline transforms:
// an ordered set of named string columns with CSV and XLSX I/O. Tables are
// copied, never shared: every transformation clones its input and returns a
// new table, so row count and raw columns survive enrichment unchanged.
package dataset
