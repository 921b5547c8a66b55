package pipeline

import (
	"strings"

	"jobsight/internal/config"
	"jobsight/internal/dataset"
	"jobsight/internal/enrich"
)

// categorySpec describes which columns belong to one category view: the raw
// source columns, the fixed derived columns, and dynamic column prefixes for
// vocabulary-driven indicators.
type categorySpec struct {
	sources  []string
	derived  []string
	prefixes []string
}

// The cross-category features from the additional step live in their home
// views (ratio with salary, remote flag with employment, seniority flag with
// company), so the eight views partition the enriched table completely.
var categorySpecs = map[string]categorySpec{
	enrich.CategorySkills: {
		sources:  []string{"skills_required"},
		derived:  []string{"skills_count", "has_programming_language", "has_cloud_platform", "has_ml_framework"},
		prefixes: []string{"skill_"},
	},
	enrich.CategorySalary: {
		sources: []string{"salary_range"},
		derived: []string{
			"salary_min", "salary_max", "salary_avg", "salary_cluster",
			"salary_per_skill", "salary_per_skill_per_experience",
		},
	},
	enrich.CategoryTools: {
		sources:  []string{"tools_preferred"},
		derived:  []string{"tools_count", "has_data_tool"},
		prefixes: []string{"tool_"},
	},
	enrich.CategoryExperience: {
		sources: []string{"experience_level"},
		derived: []string{"experience_level_normalized", "experience_level_ordinal"},
	},
	enrich.CategoryLocation: {
		sources: []string{"location"},
		derived: []string{"location_city", "location_state", "location_region", "location_cluster"},
	},
	enrich.CategoryDate: {
		sources: []string{"posted_date"},
		derived: []string{
			"posted_year", "posted_month", "posted_quarter", "posted_day_of_week",
			"posted_week_of_year", "is_weekend", "days_since_posted",
			"posting_age_category", "posted_month_period",
		},
	},
	enrich.CategoryEmployment: {
		sources: []string{"employment_type"},
		derived: []string{"is_remote", "is_full_time", "is_contract", "is_internship", "is_high_paying_remote"},
	},
	enrich.CategoryCompany: {
		sources: []string{"company_size"},
		derived: []string{
			"is_startup", "is_large_company", "is_tech_industry",
			"is_finance_industry", "is_healthcare_industry", "is_senior_tech",
		},
	},
}

// ViewCategories returns the category view names in canonical order
func ViewCategories() []string {
	return []string{
		enrich.CategorySkills, enrich.CategorySalary, enrich.CategoryTools,
		enrich.CategoryExperience, enrich.CategoryLocation, enrich.CategoryDate,
		enrich.CategoryEmployment, enrich.CategoryCompany,
	}
}

// CategoryColumns returns the columns of one category's view in view order:
// identity columns first, then raw sources, then derived columns including
// prefix-matched vocabulary indicators present in the table.
func CategoryColumns(cfg config.EnrichmentConfig, t *dataset.Table, category string) []string {
	spec, ok := categorySpecs[category]
	if !ok {
		return nil
	}

	columns := make([]string, 0, len(cfg.IdentityColumns)+len(spec.sources)+len(spec.derived))
	columns = append(columns, cfg.IdentityColumns...)
	columns = append(columns, spec.sources...)
	for _, col := range t.Columns() {
		for _, prefix := range spec.prefixes {
			if strings.HasPrefix(col, prefix) {
				columns = append(columns, col)
				break
			}
		}
	}
	columns = append(columns, spec.derived...)
	return columns
}

// SplitByCategory builds the eight category views of a fully enriched
// table. Every view carries the identity columns, so any view joins back to
// any other on job_id and the inner join of all views reconstructs the full
// table.
func SplitByCategory(cfg config.EnrichmentConfig, enriched *dataset.Table) (map[string]*dataset.Table, error) {
	views := make(map[string]*dataset.Table, len(categorySpecs))
	for _, category := range ViewCategories() {
		view, err := enriched.Select(CategoryColumns(cfg, enriched, category))
		if err != nil {
			return nil, err
		}
		views[category] = view
	}
	return views, nil
}

// splitPartial is SplitByCategory's intersection rule for partial runs:
// the view keeps only the columns the executed steps actually produced.
func splitPartial(cfg config.EnrichmentConfig, t *dataset.Table, category string) *dataset.Table {
	return t.SelectExisting(CategoryColumns(cfg, t, category))
}
