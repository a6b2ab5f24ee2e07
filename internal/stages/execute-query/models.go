// internal/stages/execute-query/models.go
package executequery

import "citypulse/internal/models"

type Input struct {
	SQL      string                  `json:"sql"`
	Category models.AnalysisCategory `json:"category"`
}

type Output struct {
	Rows    []models.Row `json:"rows"`
	Columns []string     `json:"columns"`
}
