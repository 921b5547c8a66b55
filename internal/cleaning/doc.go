// Package cleaning prepares the raw dataset for enrichment. Steps are pure
// table-to-table transforms composed from a declarative list, each reporting
// what it changed; the validator checks the cleaned table against the input
// contract before the pipeline runs.
package cleaning
