package config

// Default returns the full default configuration. The lookup tables mirror
// the published vocabulary of the job-postings dataset; any of them can be
// overridden from the YAML file or environment.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "both",
			FilePath: "logs/pipeline.log",
		},
		Paths: PathsConfig{
			BaseDir:         ".",
			DataDir:         "data",
			CheckpointsDir:  "data/checkpoints",
			OutputDir:       "data/output",
			DictionariesDir: "data/output/dictionaries",
			LogsDir:         "logs",
		},
		Observability: ObservabilityConfig{
			ServiceName:    "jobsight",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
		},
		Cleaning: CleaningConfig{
			StandardizeColumns: []string{
				"company_name", "industry", "job_title", "skills_required",
				"tools_preferred", "experience_level", "employment_type",
				"location", "salary_range", "company_size",
			},
			RequiredCellColumns: []string{"job_id"},
		},
		Enrichment: EnrichmentConfig{
			ListDelimiter: ",",

			SkillsTopN:   20,
			ToolsTopN:    15,
			LocationTopN: 10,

			SalaryBinEdges: []float64{0, 60000, 80000, 100000, 120000, 150000, 200000},
			SalaryBinLabels: []string{
				"<60K", "60-80K", "80-100K", "100-120K",
				"120-150K", "150-200K", "200K+",
			},

			AgeBinEdges: []float64{0, 30, 90, 180, 365},
			AgeBinLabels: []string{
				"Recent (<30 days)",
				"Fresh (30-90 days)",
				"Active (90-180 days)",
				"Aging (180-365 days)",
				"Old (>365 days)",
			},

			ExperienceOrdinals: map[string]int{
				"Entry":     1,
				"Junior":    1,
				"Mid":       2,
				"Senior":    3,
				"Lead":      4,
				"Principal": 5,
			},

			ProgrammingLanguages: []string{
				"Python", "R", "Java", "C++", "JavaScript", "Julia",
				"Scala", "Go", "C#", "Ruby", "PHP", "Swift", "Kotlin",
			},
			CloudPlatforms: []string{
				"AWS", "Azure", "GCP", "Google Cloud", "Amazon Web Services",
				"Microsoft Azure", "IBM Cloud", "Oracle Cloud",
			},
			MLFrameworks: []string{
				"TensorFlow", "PyTorch", "Keras", "Scikit-learn", "XGBoost",
				"LightGBM", "CatBoost", "FastAI", "JAX", "MXNet",
			},
			DataTools: []string{
				"Pandas", "NumPy", "SQL", "Spark", "Hadoop", "Tableau",
				"Power BI", "Excel", "Jupyter", "Apache Airflow",
			},

			USStates: []string{
				"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "FL", "GA",
				"HI", "ID", "IL", "IN", "IA", "KS", "KY", "LA", "ME", "MD",
				"MA", "MI", "MN", "MS", "MO", "MT", "NE", "NV", "NH", "NJ",
				"NM", "NY", "NC", "ND", "OH", "OK", "OR", "PA", "RI", "SC",
				"SD", "TN", "TX", "UT", "VT", "VA", "WA", "WV", "WI", "WY",
			},

			DateFormats: []string{"2006-01-02", "2006/01/02", "01/02/2006"},

			RemoteTypes:     []string{"Remote"},
			FullTimeTypes:   []string{"Full-time", "Full time", "Fulltime"},
			ContractTypes:   []string{"Contract", "Contractor", "Freelance"},
			InternshipTypes: []string{"Internship", "Intern"},

			StartupSizes:      []string{"Startup"},
			LargeCompanySizes: []string{"Large", "Enterprise"},

			TechIndustries:       []string{"Tech", "Technology", "Software"},
			FinanceIndustries:    []string{"Finance", "Financial Services", "Banking"},
			HealthcareIndustries: []string{"Healthcare", "Health Care", "Medical"},

			HighPayThreshold:   120000,
			SeniorOrdinalFloor: 3,

			IdentityColumns: []string{"job_id", "company_name", "industry", "job_title"},
		},
	}
}
