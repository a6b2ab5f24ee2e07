// internal/stages/compute-metrics/models.go
package computemetrics

import "citypulse/internal/models"

type Input struct {
	Category models.AnalysisCategory `json:"category"`
	Rows     []models.Row            `json:"rows"`
}

type Output struct {
	Ranked models.RankedResult `json:"ranked"`
}
