package enrich

// Row-level anomaly reasons. Anomalies are recovered locally (the row keeps
// a null or sentinel value) and only counted here; they never abort a run.
const (
	AnomalyMalformedSalaryRange      = "malformed_salary_range"
	AnomalyUnclusteredSalary         = "unclustered_salary"
	AnomalyUnknownExperienceLevel    = "unknown_experience_level"
	AnomalyUnparseableLocation       = "unparseable_location"
	AnomalyUnparseableDate           = "unparseable_date"
	AnomalyNegativeDaysSincePosted   = "negative_days_since_posted"
	AnomalyUnrecognizedEmployment    = "unrecognized_employment_type"
	AnomalyUnrecognizedCompanySize   = "unrecognized_company_size"
)

// TokenCount is one entry of a frequency dictionary
type TokenCount struct {
	Token string `json:"token"`
	Count int    `json:"count"`
}

// Result reports what one enrichment step did: the columns it added, the
// anomalies it recovered, and an optional frequency artifact for downstream
// demand analysis.
type Result struct {
	Category  string
	Columns   []string
	Anomalies map[string]int
	Frequency []TokenCount
}

func newResult(category string) *Result {
	return &Result{
		Category:  category,
		Anomalies: make(map[string]int),
	}
}

// addColumn records a column this step produced
func (r *Result) addColumn(name string) {
	r.Columns = append(r.Columns, name)
}

// anomaly counts one recovered row-level anomaly
func (r *Result) anomaly(reason string) {
	r.Anomalies[reason]++
}

// TotalAnomalies returns the number of anomalies across all reasons
func (r *Result) TotalAnomalies() int {
	total := 0
	for _, count := range r.Anomalies {
		total += count
	}
	return total
}
