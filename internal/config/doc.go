// Package config builds the explicit configuration struct the pipeline runs
// from. Configuration merges three layers: compiled defaults, an optional
// YAML file, and JOBSIGHT-prefixed environment variables, with later layers
// winning. The resulting struct is validated once and then passed by
// parameter; no package holds global configuration state.
package config
