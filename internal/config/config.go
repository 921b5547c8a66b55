package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete pipeline configuration. It is built once by
// the process entry point and passed by parameter into the orchestrator and
// every enricher; there is no global configuration state.
type Config struct {
	Logging       LoggingConfig       `yaml:"logging" envconfig:"LOGGING"`
	Paths         PathsConfig         `yaml:"paths" envconfig:"PATHS"`
	Observability ObservabilityConfig `yaml:"observability" envconfig:"OBSERVABILITY"`
	Cleaning      CleaningConfig      `yaml:"cleaning" envconfig:"CLEANING"`
	Enrichment    EnrichmentConfig    `yaml:"enrichment" envconfig:"ENRICHMENT"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=stdout file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// ObservabilityConfig selects the trace and metric exporters for a run
type ObservabilityConfig struct {
	ServiceName    string `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	TraceExporter  string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	MetricExporter string `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" validate:"oneof=prometheus none"`
}

// CleaningConfig controls the upstream cleaning steps applied before enrichment
type CleaningConfig struct {
	// Columns whose text is trimmed and whitespace-collapsed
	StandardizeColumns []string `yaml:"standardize_columns" envconfig:"STANDARDIZE_COLUMNS"`
	// Columns that cause a row to be dropped when empty
	RequiredCellColumns []string `yaml:"required_cell_columns" envconfig:"REQUIRED_CELL_COLUMNS"`
}

// EnrichmentConfig carries every lookup table, vocabulary size and bin
// definition the enrichers consume. Enrichers never hard-code these values,
// so a run is reproducible from the config alone.
type EnrichmentConfig struct {
	ListDelimiter string `yaml:"list_delimiter" envconfig:"LIST_DELIMITER" validate:"required"`

	SkillsTopN   int `yaml:"skills_top_n" envconfig:"SKILLS_TOP_N" validate:"min=1"`
	ToolsTopN    int `yaml:"tools_top_n" envconfig:"TOOLS_TOP_N" validate:"min=1"`
	LocationTopN int `yaml:"location_top_n" envconfig:"LOCATION_TOP_N" validate:"min=1"`

	// SalaryBinEdges are the finite lower edges of the salary clusters; bin i
	// covers [edge[i], edge[i+1]) and the last bin extends to +Inf. Labels
	// must match the edge count.
	SalaryBinEdges  []float64 `yaml:"salary_bin_edges" envconfig:"SALARY_BIN_EDGES" validate:"min=2"`
	SalaryBinLabels []string  `yaml:"salary_bin_labels" envconfig:"SALARY_BIN_LABELS" validate:"min=2"`

	// AgeBinEdges follow the same closed-open convention over days-since-posted
	AgeBinEdges  []float64 `yaml:"age_bin_edges" envconfig:"AGE_BIN_EDGES" validate:"min=2"`
	AgeBinLabels []string  `yaml:"age_bin_labels" envconfig:"AGE_BIN_LABELS" validate:"min=2"`

	// ExperienceOrdinals maps experience labels to ranks; an unmapped label
	// resolves to max(rank)+1, the documented unknown sentinel
	ExperienceOrdinals map[string]int `yaml:"experience_ordinals" envconfig:"EXPERIENCE_ORDINALS" validate:"required,min=1"`

	ProgrammingLanguages []string `yaml:"programming_languages" envconfig:"PROGRAMMING_LANGUAGES" validate:"min=1"`
	CloudPlatforms       []string `yaml:"cloud_platforms" envconfig:"CLOUD_PLATFORMS" validate:"min=1"`
	MLFrameworks         []string `yaml:"ml_frameworks" envconfig:"ML_FRAMEWORKS" validate:"min=1"`
	DataTools            []string `yaml:"data_tools" envconfig:"DATA_TOOLS" validate:"min=1"`

	USStates []string `yaml:"us_states" envconfig:"US_STATES" validate:"min=1"`

	// DateFormats are tried in order when parsing posted_date; first match wins
	DateFormats []string `yaml:"date_formats" envconfig:"DATE_FORMATS" validate:"min=1"`
	// AsOfDate overrides the reference date for aging features ("2006-01-02");
	// empty means the maximum parsed date in the dataset
	AsOfDate string `yaml:"as_of_date" envconfig:"AS_OF_DATE"`

	RemoteTypes     []string `yaml:"remote_types" envconfig:"REMOTE_TYPES" validate:"min=1"`
	FullTimeTypes   []string `yaml:"full_time_types" envconfig:"FULL_TIME_TYPES" validate:"min=1"`
	ContractTypes   []string `yaml:"contract_types" envconfig:"CONTRACT_TYPES" validate:"min=1"`
	InternshipTypes []string `yaml:"internship_types" envconfig:"INTERNSHIP_TYPES" validate:"min=1"`

	StartupSizes      []string `yaml:"startup_sizes" envconfig:"STARTUP_SIZES" validate:"min=1"`
	LargeCompanySizes []string `yaml:"large_company_sizes" envconfig:"LARGE_COMPANY_SIZES" validate:"min=1"`

	TechIndustries       []string `yaml:"tech_industries" envconfig:"TECH_INDUSTRIES" validate:"min=1"`
	FinanceIndustries    []string `yaml:"finance_industries" envconfig:"FINANCE_INDUSTRIES" validate:"min=1"`
	HealthcareIndustries []string `yaml:"healthcare_industries" envconfig:"HEALTHCARE_INDUSTRIES" validate:"min=1"`

	HighPayThreshold   float64 `yaml:"high_pay_threshold" envconfig:"HIGH_PAY_THRESHOLD" validate:"gt=0"`
	SeniorOrdinalFloor int     `yaml:"senior_ordinal_floor" envconfig:"SENIOR_ORDINAL_FLOOR" validate:"min=1"`

	// IdentityColumns are carried into every category sub-table so views can
	// be joined losslessly on job_id
	IdentityColumns []string `yaml:"identity_columns" envconfig:"IDENTITY_COLUMNS" validate:"min=1"`
}

// Load builds the configuration from defaults, an optional YAML file, and
// environment variables with the JOBSIGHT prefix. Environment values win over
// the file; the file wins over defaults.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile == "" {
		configFile = findConfigFile()
	}
	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process("JOBSIGHT", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	cfg.Paths.resolve()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays configuration from a YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// findConfigFile returns the first config file found in common locations
func findConfigFile() string {
	locations := []string{
		"jobsight.yaml",
		"configs/jobsight.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Validate checks struct tags and the cross-field constraints the tags cannot
// express (matching label counts, strictly increasing bin edges).
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if len(c.Enrichment.SalaryBinLabels) != len(c.Enrichment.SalaryBinEdges) {
		return fmt.Errorf("enrichment.salary_bin_labels: expected %d labels for %d edges, got %d",
			len(c.Enrichment.SalaryBinEdges), len(c.Enrichment.SalaryBinEdges), len(c.Enrichment.SalaryBinLabels))
	}
	if len(c.Enrichment.AgeBinLabels) != len(c.Enrichment.AgeBinEdges) {
		return fmt.Errorf("enrichment.age_bin_labels: expected %d labels for %d edges, got %d",
			len(c.Enrichment.AgeBinEdges), len(c.Enrichment.AgeBinEdges), len(c.Enrichment.AgeBinLabels))
	}
	if !sort.Float64sAreSorted(c.Enrichment.SalaryBinEdges) || hasDuplicateEdges(c.Enrichment.SalaryBinEdges) {
		return fmt.Errorf("enrichment.salary_bin_edges must be strictly increasing")
	}
	if !sort.Float64sAreSorted(c.Enrichment.AgeBinEdges) || hasDuplicateEdges(c.Enrichment.AgeBinEdges) {
		return fmt.Errorf("enrichment.age_bin_edges must be strictly increasing")
	}
	if c.Enrichment.AsOfDate != "" {
		if _, err := time.Parse("2006-01-02", c.Enrichment.AsOfDate); err != nil {
			return fmt.Errorf("enrichment.as_of_date must be YYYY-MM-DD: %w", err)
		}
	}
	for label, rank := range c.Enrichment.ExperienceOrdinals {
		if rank < 1 {
			return fmt.Errorf("enrichment.experience_ordinals[%s]: rank must be >= 1, got %d", label, rank)
		}
	}
	return nil
}

func hasDuplicateEdges(edges []float64) bool {
	for i := 1; i < len(edges); i++ {
		if edges[i] == edges[i-1] {
			return true
		}
	}
	return false
}

// AsOf returns the configured reference date, or false when the dataset
// maximum should be used instead.
func (c *EnrichmentConfig) AsOf() (time.Time, bool) {
	if c.AsOfDate == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", c.AsOfDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// OrdinalSentinel returns the rank assigned to unmapped experience labels:
// one past the highest configured rank.
func (c *EnrichmentConfig) OrdinalSentinel() int {
	max := 0
	for _, rank := range c.ExperienceOrdinals {
		if rank > max {
			max = rank
		}
	}
	return max + 1
}

// PathsConfig contains the directory layout for a run
type PathsConfig struct {
	BaseDir         string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataDir         string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	CheckpointsDir  string `yaml:"checkpoints_dir" envconfig:"CHECKPOINTS_DIR" validate:"required"`
	OutputDir       string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	DictionariesDir string `yaml:"dictionaries_dir" envconfig:"DICTIONARIES_DIR" validate:"required"`
	LogsDir         string `yaml:"logs_dir" envconfig:"LOGS_DIR" validate:"required"`
}

// resolve joins relative directories onto the base directory
func (p *PathsConfig) resolve() {
	if p.BaseDir == "" {
		p.BaseDir = "."
	}
	join := func(dir string) string {
		if dir == "" || filepath.IsAbs(dir) {
			return dir
		}
		return filepath.Join(p.BaseDir, dir)
	}
	p.DataDir = join(p.DataDir)
	p.CheckpointsDir = join(p.CheckpointsDir)
	p.OutputDir = join(p.OutputDir)
	p.DictionariesDir = join(p.DictionariesDir)
	p.LogsDir = join(p.LogsDir)
}

// Rebase moves every directory that resolved under the previous base onto a
// new base directory. Command-line -dir overrides the base after the config
// file and environment are loaded; directories configured outside the base
// stay where they are.
func (p *PathsConfig) Rebase(base string) {
	old := p.BaseDir
	p.BaseDir = base
	rejoin := func(dir string) string {
		if dir == "" || old == "" {
			return dir
		}
		rel, err := filepath.Rel(old, dir)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return dir
		}
		return filepath.Join(base, rel)
	}
	p.DataDir = rejoin(p.DataDir)
	p.CheckpointsDir = rejoin(p.CheckpointsDir)
	p.OutputDir = rejoin(p.OutputDir)
	p.DictionariesDir = rejoin(p.DictionariesDir)
	p.LogsDir = rejoin(p.LogsDir)
}

// EnsureDirectories creates every configured directory that does not exist yet
func (p *PathsConfig) EnsureDirectories() error {
	for _, dir := range []string{p.DataDir, p.CheckpointsDir, p.OutputDir, p.DictionariesDir, p.LogsDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// LogPath returns the path for a log file inside the logs directory
func (p *PathsConfig) LogPath(name string) string {
	return filepath.Join(p.LogsDir, name)
}
