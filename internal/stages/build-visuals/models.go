// internal/stages/build-visuals/models.go
package buildvisuals

import "citypulse/internal/models"

type Input struct {
	Category models.AnalysisCategory `json:"category"`
	Rows     []models.Row            `json:"rows"`
	Ranked   models.RankedResult     `json:"ranked"`
}

type Output struct {
	MapLayer models.MapLayer  `json:"mapLayer"`
	Charts   models.ChartData `json:"charts"`
}
