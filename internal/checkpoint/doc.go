// Package checkpoint persists intermediate pipeline tables so an
// interrupted run resumes after the last completed step instead of
// recomputing everything. Each checkpoint is a CSV file with a JSON
// metadata sidecar carrying a blake2b digest of the payload.
package checkpoint
