// internal/stages/build-visuals/map.go
package buildvisuals

import (
	"fmt"
	"sort"
	"strings"

	"citypulse/internal/models"
)

// San Francisco centroid, used when rows carry no coordinates.
var sfCenter = models.LatLng{Lat: 37.7749, Lng: -122.4194}

const defaultZoom = 12

// BuildMap turns query rows into heatmap points and capped markers. Rows
// without latitude/longitude contribute nothing; with no geo data at all
// the layer still carries the city center so clients can render.
func (h *Handler) BuildMap(rows []models.Row, ranked models.RankedResult, category models.AnalysisCategory) models.MapLayer {
	layer := models.MapLayer{
		HeatmapPoints: []models.HeatPoint{},
		Markers:       []models.Marker{},
		Center:        sfCenter,
		Zoom:          defaultZoom,
	}

	scoreByName := make(map[string]float64, len(ranked))
	for _, entry := range ranked {
		scoreByName[entry.Name] = entry.Score
	}

	type candidate struct {
		lat, lng float64
		row      models.Row
		basis    float64
	}
	var candidates []candidate

	for _, row := range rows {
		lat, latOK := numericValue(row["latitude"])
		lng, lngOK := numericValue(row["longitude"])
		if !latOK || !lngOK || (lat == 0 && lng == 0) {
			continue
		}
		candidates = append(candidates, candidate{
			lat:   lat,
			lng:   lng,
			row:   row,
			basis: markerBasis(row, scoreByName),
		})
	}

	if len(candidates) == 0 {
		return layer
	}

	bases := make([]float64, len(candidates))
	for i, c := range candidates {
		bases[i] = c.basis
	}
	thresholds := quartileThresholds(bases)

	var sumLat, sumLng float64
	for i, c := range candidates {
		sumLat += c.lat
		sumLng += c.lng

		layer.HeatmapPoints = append(layer.HeatmapPoints, models.HeatPoint{
			Lat:    c.lat,
			Lng:    c.lng,
			Weight: heatWeight(c.row),
		})

		if i < h.config.MaxMarkers {
			layer.Markers = append(layer.Markers, models.Marker{
				Lat:         c.lat,
				Lng:         c.lng,
				Title:       markerTitle(c.row),
				Description: markerDescription(c.row),
				Severity:    markerSeverity(c.row, c.basis, thresholds),
			})
		}
	}

	layer.Center = models.LatLng{
		Lat: sumLat / float64(len(candidates)),
		Lng: sumLng / float64(len(candidates)),
	}
	return layer
}

func heatWeight(row models.Row) float64 {
	weight := 1.0
	if score, ok := numericValue(row["stress_score"]); ok {
		weight = score / 10.0
	} else if count, ok := numericValue(row["event_count"]); ok {
		weight = count / 5.0
	}
	if weight < 1 {
		weight = 1
	}
	return weight
}

// markerBasis picks the numeric magnitude that severity buckets derive
// from: a row score if present, else the ranked score for its neighborhood.
func markerBasis(row models.Row, scoreByName map[string]float64) float64 {
	if score, ok := numericValue(row["stress_score"]); ok {
		return score
	}
	if count, ok := numericValue(row["event_count"]); ok {
		return count
	}
	if name, ok := row["neighborhood"].(string); ok {
		return scoreByName[name]
	}
	return 0
}

type quartiles struct {
	q1, q2, q3 float64
}

func quartileThresholds(bases []float64) quartiles {
	values := make([]float64, len(bases))
	copy(values, bases)
	sort.Float64s(values)

	at := func(f float64) float64 {
		idx := int(f * float64(len(values)-1))
		return values[idx]
	}
	return quartiles{q1: at(0.25), q2: at(0.5), q3: at(0.75)}
}

// markerSeverity honors an explicit severity column, otherwise buckets the
// basis value by the quartiles of the whole result set.
func markerSeverity(row models.Row, basis float64, q quartiles) string {
	if s, ok := row["severity"].(string); ok && s != "" {
		return strings.ToLower(s)
	}

	switch {
	case basis > q.q3:
		return "critical"
	case basis > q.q2:
		return "high"
	case basis > q.q1:
		return "medium"
	default:
		return "low"
	}
}

func markerTitle(row models.Row) string {
	if name, ok := row["neighborhood"].(string); ok && name != "" {
		return name
	}
	return "Unknown"
}

// markerDescription joins up to three non-geographic columns, in stable
// column order so identical rows render identically.
func markerDescription(row models.Row) string {
	keys := make([]string, 0, len(row))
	for k := range row {
		if k == "latitude" || k == "longitude" || k == "neighborhood" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		if len(parts) == 3 {
			break
		}
		parts = append(parts, fmt.Sprintf("%s: %v", k, row[k]))
	}
	return strings.Join(parts, " | ")
}
