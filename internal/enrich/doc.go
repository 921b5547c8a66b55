// Package enrich implements the per-category feature transformers for the
// job-postings dataset. Every enricher follows one contract: it clones its
// input table, appends that category's derived columns, and reports row-level
// anomalies in a Result instead of failing the run. Only a violated data
// contract (a missing source column, an unbuilt dependency) aborts.
package enrich
