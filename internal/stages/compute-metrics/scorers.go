// internal/stages/compute-metrics/scorers.go
package computemetrics

import (
	"fmt"
	"strconv"
	"strings"

	"citypulse/internal/models"
)

// unknownBucket collects rows whose neighborhood value is NULL or empty.
const unknownBucket = "Unknown"

// numericValue coerces executor scan values (int64/float64) and provider
// JSON values (float64, numeric strings) to float64.
func numericValue(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// firstNumeric returns the first alias present in the row with a numeric
// value.
func firstNumeric(row models.Row, aliases ...string) (float64, bool) {
	for _, alias := range aliases {
		if v, ok := row[alias]; ok {
			if f, numOK := numericValue(v); numOK {
				return f, true
			}
		}
	}
	return 0, false
}

func hasAnyColumn(rows []models.Row, aliases ...string) bool {
	for _, row := range rows {
		for _, alias := range aliases {
			if _, ok := row[alias]; ok {
				return true
			}
		}
	}
	return false
}

func neighborhoodOf(row models.Row) (string, bool) {
	v, ok := row["neighborhood"]
	if !ok {
		return "", false
	}
	s, isStr := v.(string)
	if !isStr || s == "" {
		return unknownBucket, true
	}
	return s, true
}

// grouped accumulates per-neighborhood raw counts and scores.
type grouped struct {
	order  []string
	counts map[string]map[string]float64
	scores map[string]float64
}

func newGrouped() *grouped {
	return &grouped{
		counts: make(map[string]map[string]float64),
		scores: make(map[string]float64),
	}
}

func (g *grouped) add(name, metric string, value float64) {
	if _, ok := g.counts[name]; !ok {
		g.counts[name] = make(map[string]float64)
		g.order = append(g.order, name)
	}
	g.counts[name][metric] += value
}

func (g *grouped) addScore(name string, score float64) {
	if _, ok := g.counts[name]; !ok {
		g.counts[name] = make(map[string]float64)
		g.order = append(g.order, name)
	}
	g.scores[name] += score
}

func (g *grouped) result() models.RankedResult {
	ranked := make(models.RankedResult, 0, len(g.order))
	for _, name := range g.order {
		ranked = append(ranked, models.LocationMetric{
			Name:      name,
			RawCounts: g.counts[name],
			Score:     g.scores[name],
		})
	}
	return ranked
}

func scoreEmergencyStress(rows []models.Row) (models.RankedResult, error) {
	hasCounts := hasAnyColumn(rows, "police_call_count", "police_calls", "fire_ems_call_count", "fire_ems_calls")
	hasPrecomputed := hasAnyColumn(rows, "stress_score")
	if !hasCounts && !hasPrecomputed {
		return nil, fmt.Errorf("no police/fire count columns or stress_score present")
	}

	g := newGrouped()
	for _, row := range rows {
		name, ok := neighborhoodOf(row)
		if !ok {
			continue
		}

		police, _ := firstNumeric(row, "police_call_count", "police_calls")
		fire, _ := firstNumeric(row, "fire_ems_call_count", "fire_ems_calls")

		var score float64
		if hasCounts {
			score = police*1.0 + fire*1.2
		} else if precomputed, pOK := firstNumeric(row, "stress_score"); pOK {
			score = precomputed
		}

		g.add(name, "police_calls", police)
		g.add(name, "fire_ems_calls", fire)
		g.addScore(name, score)
	}
	return g.result(), nil
}

func scoreHomelessnessPressure(rows []models.Row) (models.RankedResult, error) {
	if !hasAnyColumn(rows, "people_waiting", "total_waiting") {
		return nil, fmt.Errorf("no people_waiting column present")
	}

	g := newGrouped()
	for _, row := range rows {
		name, ok := neighborhoodOf(row)
		if !ok {
			continue
		}

		waiting, _ := firstNumeric(row, "people_waiting", "total_waiting")
		capacity, _ := firstNumeric(row, "capacity_baseline", "shelter_capacity", "sheltered_count")
		if capacity < 1 {
			capacity = 1
		}

		g.add(name, "people_waiting", waiting)
		g.add(name, "capacity", capacity)
		g.addScore(name, waiting/capacity)
	}
	return g.result(), nil
}

var severityWeights = map[string]float64{
	"low":      1,
	"medium":   2,
	"high":     3,
	"critical": 4,
}

func severityWeight(v interface{}) float64 {
	if s, ok := v.(string); ok {
		if w, found := severityWeights[strings.ToLower(s)]; found {
			return w
		}
		return 0
	}
	if f, ok := numericValue(v); ok {
		return f
	}
	return 0
}

func scoreDisasterImpact(rows []models.Row) (models.RankedResult, error) {
	if !hasAnyColumn(rows, "severity", "avg_severity") {
		return nil, fmt.Errorf("no severity column present")
	}

	g := newGrouped()
	for _, row := range rows {
		name, ok := neighborhoodOf(row)
		if !ok {
			continue
		}

		var weight float64
		if v, present := row["severity"]; present {
			weight = severityWeight(v)
		} else if avg, avgOK := firstNumeric(row, "avg_severity"); avgOK {
			weight = avg
		}

		count, _ := firstNumeric(row, "event_count")
		g.add(name, "event_count", count)
		g.addScore(name, weight)
	}
	return g.result(), nil
}

func scoreInsuranceReport(rows []models.Row) (models.RankedResult, error) {
	required := []string{"police_calls", "ems_calls", "fire_events", "hazmat_events"}
	if !hasAnyColumn(rows, required...) {
		return nil, fmt.Errorf("no insurance component columns present")
	}

	var police, ems, fire, hazmat, infra float64
	var quakeSum float64
	var quakeN int
	for _, row := range rows {
		p, _ := firstNumeric(row, "police_calls", "police_call_count")
		e, _ := firstNumeric(row, "ems_calls", "fire_ems_calls", "fire_ems_call_count")
		f, _ := firstNumeric(row, "fire_events")
		hz, _ := firstNumeric(row, "hazmat_events")
		in, _ := firstNumeric(row, "infra_311_cases", "infra_cases")
		police += p
		ems += e
		fire += f
		hazmat += hz
		infra += in

		if q, ok := firstNumeric(row, "avg_quake_severity", "quake_severity"); ok {
			quakeSum += q
			quakeN++
		}
	}

	avgQuake := 0.0
	if quakeN > 0 {
		avgQuake = quakeSum / float64(quakeN)
	}

	raw := 12*avgQuake + 10*fire + 12*hazmat + 2*infra + 0.4*(ems+police)
	score := models.ClampScore(raw)

	return models.RankedResult{
		{
			Name: "Citywide",
			RawCounts: map[string]float64{
				"police_calls":       police,
				"ems_calls":          ems,
				"fire_events":        fire,
				"hazmat_events":      hazmat,
				"infra_311_cases":    infra,
				"avg_quake_severity": avgQuake,
				"risk_score":         score,
			},
			Score: score,
		},
	}, nil
}

func scoreInfrastructure(rows []models.Row) (models.RankedResult, error) {
	if !hasAnyColumn(rows, "case_count", "incidents", "count") {
		return nil, fmt.Errorf("no case count column present")
	}

	g := newGrouped()
	for _, row := range rows {
		name, ok := neighborhoodOf(row)
		if !ok {
			continue
		}

		count, _ := firstNumeric(row, "case_count", "incidents", "count")
		g.add(name, "case_count", count)
		g.addScore(name, count)
	}
	return g.result(), nil
}

// scorePassthrough handles mixed and unknown questions: group per
// neighborhood when the column exists, otherwise one unranked entry per row.
func scorePassthrough(rows []models.Row) (models.RankedResult, error) {
	if hasAnyColumn(rows, "neighborhood") {
		g := newGrouped()
		for _, row := range rows {
			name, ok := neighborhoodOf(row)
			if !ok {
				name = unknownBucket
			}
			g.addScore(name, 1)
			for col, v := range row {
				if col == "neighborhood" {
					continue
				}
				if f, numOK := numericValue(v); numOK {
					g.add(name, col, f)
				}
			}
		}
		return g.result(), nil
	}

	ranked := make(models.RankedResult, 0, len(rows))
	for i, row := range rows {
		name := entryName(row, i, len(rows))
		counts := make(map[string]float64)
		for col, v := range row {
			if f, ok := numericValue(v); ok {
				counts[col] = f
			}
		}
		ranked = append(ranked, models.LocationMetric{
			Name:      name,
			RawCounts: counts,
			Score:     0,
		})
	}
	return ranked, nil
}

// entryName labels a row lacking a neighborhood. A categorical column wins
// when present (count queries emit one), otherwise a stable ordinal.
func entryName(row models.Row, idx, total int) string {
	for _, col := range []string{"category", "event_type", "call_type"} {
		if s, ok := row[col].(string); ok && s != "" {
			return s
		}
	}
	if total == 1 {
		return "result"
	}
	return fmt.Sprintf("result_%d", idx+1)
}
