// internal/stages/synthesize-insight/models.go
package synthesizeinsight

import "citypulse/internal/models"

type Input struct {
	Category models.AnalysisCategory `json:"category"`
	Ranked   models.RankedResult     `json:"ranked"`
}

type Output struct {
	Insight models.Insight `json:"insight"`
}
