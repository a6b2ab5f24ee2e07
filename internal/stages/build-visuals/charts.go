// internal/stages/build-visuals/charts.go
package buildvisuals

import (
	"sort"

	"citypulse/internal/models"
)

// BuildCharts emits category-specific chart descriptors. Every descriptor
// is length-checked before emission; a violating one is dropped rather than
// sent to the client.
func (h *Handler) BuildCharts(ranked models.RankedResult, rows []models.Row, category models.AnalysisCategory) []models.ChartDescriptor {
	var charts []models.ChartDescriptor

	switch category {
	case models.CategoryEmergencyStress:
		charts = append(charts, h.scoreBar(ranked, "Emergency Stress by Neighborhood", "Weighted police and fire/EMS call volume"))
		if pie, ok := h.categoricalPie(rows, "call_type", "Call Type Distribution", "Share of calls by type"); ok {
			charts = append(charts, pie)
		}

	case models.CategoryHomelessnessPressure:
		charts = append(charts, h.scoreBar(ranked, "Shelter Pressure by Neighborhood", "Waitlist size relative to shelter capacity"))

	case models.CategoryDisasterImpact:
		charts = append(charts, h.scoreBar(ranked, "Disaster Impact by Neighborhood", "Severity-weighted event totals"))
		if pie, ok := h.categoricalPie(rows, "event_type", "Events by Type", "Distribution of disaster event types"); ok {
			charts = append(charts, pie)
		}

	case models.CategoryInsuranceReport:
		if grouped, ok := h.riskComponentsChart(ranked); ok {
			charts = append(charts, grouped)
		}
		charts = append(charts, h.scoreBar(ranked, "Citywide Risk Score", "Composite insurance risk score (0-100)"))

	case models.CategoryInfrastructure:
		charts = append(charts, h.scoreBar(ranked, "Open Cases by Neighborhood", "311 case volume per neighborhood"))
		if pie, ok := h.categoricalPie(rows, "category", "Cases by Category", "Distribution of complaint categories"); ok {
			charts = append(charts, pie)
		}

	default:
		if bar, ok := h.firstMetricBar(ranked); ok {
			charts = append(charts, bar)
		}
	}

	valid := charts[:0]
	for _, chart := range charts {
		if chartIsConsistent(chart) {
			valid = append(valid, chart)
		} else {
			h.logger.Warn("dropping inconsistent chart", map[string]interface{}{
				"title": chart.Title,
			})
		}
	}
	return valid
}

// scoreBar charts the top-N ranked scores.
func (h *Handler) scoreBar(ranked models.RankedResult, title, description string) models.ChartDescriptor {
	n := h.config.TopN
	if n > len(ranked) {
		n = len(ranked)
	}

	labels := make([]string, 0, n)
	values := make([]float64, 0, n)
	for _, entry := range ranked[:n] {
		labels = append(labels, entry.Name)
		values = append(values, entry.Score)
	}

	return models.ChartDescriptor{
		Type:        models.ChartBar,
		Title:       title,
		Description: description,
		Labels:      labels,
		Series:      []models.ChartSeries{{Name: "score", Values: values}},
	}
}

// categoricalPie counts rows per distinct value of a column.
func (h *Handler) categoricalPie(rows []models.Row, column, title, description string) (models.ChartDescriptor, bool) {
	counts := make(map[string]float64)
	var order []string
	for _, row := range rows {
		value, ok := row[column].(string)
		if !ok || value == "" {
			continue
		}
		if _, seen := counts[value]; !seen {
			order = append(order, value)
		}
		if weight, ok := numericValue(row["event_count"]); ok {
			counts[value] += weight
		} else {
			counts[value]++
		}
	}
	if len(counts) == 0 {
		return models.ChartDescriptor{}, false
	}

	sort.Strings(order)
	values := make([]float64, len(order))
	for i, label := range order {
		values[i] = counts[label]
	}

	return models.ChartDescriptor{
		Type:        models.ChartPie,
		Title:       title,
		Description: description,
		Labels:      order,
		Series:      []models.ChartSeries{{Name: column, Values: values}},
	}, true
}

// riskComponentsChart shows the weighted inputs behind the citywide score.
func (h *Handler) riskComponentsChart(ranked models.RankedResult) (models.ChartDescriptor, bool) {
	if len(ranked) == 0 {
		return models.ChartDescriptor{}, false
	}
	counts := ranked[0].RawCounts

	components := []string{"avg_quake_severity", "fire_events", "hazmat_events", "infra_311_cases", "ems_calls", "police_calls"}
	labels := make([]string, 0, len(components))
	values := make([]float64, 0, len(components))
	for _, component := range components {
		if v, ok := counts[component]; ok {
			labels = append(labels, component)
			values = append(values, v)
		}
	}
	if len(labels) == 0 {
		return models.ChartDescriptor{}, false
	}

	return models.ChartDescriptor{
		Type:        models.ChartGroupedBar,
		Title:       "Risk Score Components",
		Description: "Raw inputs to the composite insurance risk score",
		Labels:      labels,
		Series:      []models.ChartSeries{{Name: "value", Values: values}},
	}, true
}

// firstMetricBar charts scores when present, otherwise the alphabetically
// first raw metric shared by the entries.
func (h *Handler) firstMetricBar(ranked models.RankedResult) (models.ChartDescriptor, bool) {
	if len(ranked) == 0 {
		return models.ChartDescriptor{}, false
	}

	hasScores := false
	for _, entry := range ranked {
		if entry.Score != 0 {
			hasScores = true
			break
		}
	}
	if hasScores {
		return h.scoreBar(ranked, "Results Overview", "Ranked values for the question"), true
	}

	var metric string
	{
		keys := make([]string, 0, len(ranked[0].RawCounts))
		for k := range ranked[0].RawCounts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		if len(keys) == 0 {
			return models.ChartDescriptor{}, false
		}
		metric = keys[0]
	}

	n := h.config.TopN
	if n > len(ranked) {
		n = len(ranked)
	}
	labels := make([]string, 0, n)
	values := make([]float64, 0, n)
	for _, entry := range ranked[:n] {
		labels = append(labels, entry.Name)
		values = append(values, entry.RawCounts[metric])
	}

	return models.ChartDescriptor{
		Type:        models.ChartBar,
		Title:       "Results Overview",
		Description: "Values of " + metric + " per result",
		Labels:      labels,
		Series:      []models.ChartSeries{{Name: metric, Values: values}},
	}, true
}

func chartIsConsistent(chart models.ChartDescriptor) bool {
	for _, series := range chart.Series {
		if len(series.Values) != len(chart.Labels) {
			return false
		}
	}
	return len(chart.Series) > 0
}
