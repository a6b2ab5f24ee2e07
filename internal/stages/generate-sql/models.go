// internal/stages/generate-sql/models.go
package generatesql

import "citypulse/internal/models"

type Input struct {
	Question string                  `json:"question"`
	Category models.AnalysisCategory `json:"category"`
}

type Output struct {
	Result models.SQLResult `json:"result"`
}

// playgroundRequest is the payload for the hosted playground endpoint. The
// provider resolves the schema from the datafile, so none is sent.
type playgroundRequest struct {
	DatafileID string `json:"datafile_id"`
	UserQuery  string `json:"user_query"`
}

type playgroundResponse struct {
	Data []playgroundItem `json:"data"`
}

type playgroundItem struct {
	Query        string       `json:"query"`
	Rows         []models.Row `json:"rows"`
	QuerySummary querySummary `json:"querySummary"`
	Error        string       `json:"error,omitempty"`
}

type querySummary struct {
	NonTechnicalExplanation string `json:"non_technical_explanation"`
	TechnicalDetails        string `json:"technical_details"`
}

// directRequest is the payload for the direct generate-sql endpoint, which
// needs the schema text because it has no datafile to consult.
type directRequest struct {
	Question string `json:"question"`
	Schema   string `json:"schema"`
	Dialect  string `json:"dialect"`
	Context  string `json:"context,omitempty"`
}

type directResponse struct {
	SQL         string  `json:"sql"`
	Explanation string  `json:"explanation"`
	Confidence  float64 `json:"confidence"`
}
