// internal/stages/classify-intent/models.go
package classifyintent

import "citypulse/internal/models"

type Input struct {
	Question string `json:"question"`
}

type Output struct {
	Category models.AnalysisCategory `json:"category"`
}
