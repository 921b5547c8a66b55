package enrich

import (
	"context"
	"log/slog"
	"strings"

	"jobsight/internal/config"
	"jobsight/internal/dataset"
)

// LocationEnricher splits "City, State" locations, classifies the region and
// clusters rows by state frequency. The state frequency dictionary is the
// artifact.
type LocationEnricher struct {
	cfg    config.EnrichmentConfig
	logger *slog.Logger
	warner *rowWarner
}

// NewLocationEnricher creates a location enricher
func NewLocationEnricher(cfg config.EnrichmentConfig, logger *slog.Logger) *LocationEnricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocationEnricher{cfg: cfg, logger: logger, warner: newRowWarner(logger)}
}

func (e *LocationEnricher) Category() string { return CategoryLocation }

func (e *LocationEnricher) Sources() []string { return []string{"location"} }

func (e *LocationEnricher) Requires() []string { return nil }

// Enrich adds location_city, location_state, location_region and
// location_cluster. A location without a comma keeps city and state null,
// classifies as International and clusters as Other; the row is retained.
func (e *LocationEnricher) Enrich(ctx context.Context, t *dataset.Table) (*dataset.Table, *Result, error) {
	if err := t.RequireColumns("location"); err != nil {
		return nil, nil, err
	}

	out := t.Clone()
	res := newResult(CategoryLocation)
	rows := out.NumRows()

	cities := make([]string, rows)
	states := make([]string, rows)
	regions := make([]string, rows)
	clusters := make([]string, rows)

	for row := 0; row < rows; row++ {
		raw := out.Value(row, "location")
		city, state, ok := parseLocation(raw)
		if !ok {
			if strings.TrimSpace(raw) != "" {
				res.anomaly(AnomalyUnparseableLocation)
				e.warner.warn(ctx, "unparseable location",
					slog.String("job_id", out.Value(row, "job_id")),
					slog.String("location", raw))
			}
			regions[row] = "International"
			continue
		}
		cities[row] = city
		states[row] = state
		regions[row] = ClassifyRegion(state, e.cfg.USStates)
	}

	// state frequency over parsed rows fixes the cluster set for the run
	stateTokens := make([][]string, 0, rows)
	for _, state := range states {
		if state != "" {
			stateTokens = append(stateTokens, []string{state})
		}
	}
	res.Frequency = TopKTokens(stateTokens, 0)

	topStates := make(map[string]struct{}, e.cfg.LocationTopN)
	for i, entry := range res.Frequency {
		if i == e.cfg.LocationTopN {
			break
		}
		topStates[strings.ToLower(entry.Token)] = struct{}{}
	}
	for row := 0; row < rows; row++ {
		if states[row] == "" {
			clusters[row] = "Other"
			continue
		}
		if _, top := topStates[strings.ToLower(states[row])]; top {
			clusters[row] = states[row]
		} else {
			clusters[row] = "Other"
		}
	}

	for _, col := range []struct {
		name  string
		cells []string
	}{
		{"location_city", cities},
		{"location_state", states},
		{"location_region", regions},
		{"location_cluster", clusters},
	} {
		if err := out.SetColumn(col.name, col.cells); err != nil {
			return nil, nil, err
		}
		res.addColumn(col.name)
	}

	e.logger.InfoContext(ctx, "location enrichment completed",
		slog.Int("rows", rows),
		slog.Int("distinct_states", len(res.Frequency)),
		slog.Int("unparseable", res.Anomalies[AnomalyUnparseableLocation]))

	return out, res, nil
}

// parseLocation splits "City, State" on the first comma
func parseLocation(raw string) (city, state string, ok bool) {
	trimmed := strings.TrimSpace(raw)
	idx := strings.Index(trimmed, ",")
	if idx < 0 {
		return "", "", false
	}
	city = strings.TrimSpace(trimmed[:idx])
	state = strings.TrimSpace(trimmed[idx+1:])
	if city == "" || state == "" {
		return "", "", false
	}
	return city, state, true
}
