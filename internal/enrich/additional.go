package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"jobsight/internal/config"
	"jobsight/internal/dataset"
	"jobsight/internal/errors"
)

// AdditionalEnricher derives the cross-category features that need the
// outputs of several earlier enrichers. It always runs last.
type AdditionalEnricher struct {
	cfg    config.EnrichmentConfig
	logger *slog.Logger
}

// NewAdditionalEnricher creates the cross-feature enricher
func NewAdditionalEnricher(cfg config.EnrichmentConfig, logger *slog.Logger) *AdditionalEnricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdditionalEnricher{cfg: cfg, logger: logger}
}

func (e *AdditionalEnricher) Category() string { return CategoryAdditional }

func (e *AdditionalEnricher) Sources() []string { return nil }

func (e *AdditionalEnricher) Requires() []string {
	return []string{CategorySkills, CategorySalary, CategoryExperience, CategoryEmployment, CategoryCompany}
}

// upstream columns this enricher consumes, and the category that produces each
var additionalInputs = []struct {
	column   string
	category string
}{
	{"salary_avg", CategorySalary},
	{"salary_per_skill", CategorySalary},
	{"experience_level_ordinal", CategoryExperience},
	{"is_remote", CategoryEmployment},
	{"is_tech_industry", CategoryCompany},
}

// Enrich adds salary_per_skill_per_experience, is_high_paying_remote and
// is_senior_tech
func (e *AdditionalEnricher) Enrich(ctx context.Context, t *dataset.Table) (*dataset.Table, *Result, error) {
	for _, input := range additionalInputs {
		if !t.HasColumn(input.column) {
			return nil, nil, errors.NewContractError(
				fmt.Sprintf("additional features require column %q produced by the %s enrichment", input.column, input.category), nil).
				WithContext("column", input.column)
		}
	}

	out := t.Clone()
	res := newResult(CategoryAdditional)
	rows := out.NumRows()

	maxRank := 0
	for _, rank := range e.cfg.ExperienceOrdinals {
		if rank > maxRank {
			maxRank = rank
		}
	}

	perSkillPerExp := make([]string, rows)
	highPayingRemote := make([]string, rows)
	seniorTech := make([]string, rows)

	for row := 0; row < rows; row++ {
		ordinal, _ := strconv.Atoi(out.Value(row, "experience_level_ordinal"))
		// the sentinel rank (> maxRank) is unknown, not senior
		isSenior := ordinal >= e.cfg.SeniorOrdinalFloor && ordinal <= maxRank
		if isSenior && out.Value(row, "is_tech_industry") == "1" {
			seniorTech[row] = "1"
		} else {
			seniorTech[row] = "0"
		}

		avgCell := out.Value(row, "salary_avg")
		if out.Value(row, "is_remote") == "1" && avgCell != "" {
			if avg, err := strconv.ParseFloat(avgCell, 64); err == nil && avg >= e.cfg.HighPayThreshold {
				highPayingRemote[row] = "1"
			} else {
				highPayingRemote[row] = "0"
			}
		} else {
			highPayingRemote[row] = "0"
		}

		// null salary propagates: no ratio without a parsed salary
		perSkillCell := out.Value(row, "salary_per_skill")
		if perSkillCell == "" {
			continue
		}
		perSkill, err := strconv.ParseFloat(perSkillCell, 64)
		if err != nil {
			continue
		}
		perSkillPerExp[row] = dataset.FormatFloat(SafeDivide(perSkill, float64(ordinal), 0))
	}

	for _, col := range []struct {
		name  string
		cells []string
	}{
		{"salary_per_skill_per_experience", perSkillPerExp},
		{"is_high_paying_remote", highPayingRemote},
		{"is_senior_tech", seniorTech},
	} {
		if err := out.SetColumn(col.name, col.cells); err != nil {
			return nil, nil, err
		}
		res.addColumn(col.name)
	}

	e.logger.InfoContext(ctx, "additional enrichment completed", slog.Int("rows", rows))

	return out, res, nil
}
