// internal/models/analysis.go
package models

import "time"

// AnalysisCategory is the closed set of analysis types the pipeline
// understands. It is assigned once per request by the intent classifier and
// never changes afterwards.
type AnalysisCategory string

const (
	CategoryEmergencyStress      AnalysisCategory = "emergency_stress"
	CategoryHomelessnessPressure AnalysisCategory = "homelessness_pressure"
	CategoryDisasterImpact       AnalysisCategory = "disaster_impact"
	CategoryInfrastructure       AnalysisCategory = "infrastructure_complaints"
	CategoryInsuranceReport      AnalysisCategory = "insurance_report"
	CategoryMixedQuery           AnalysisCategory = "mixed_query"
	CategoryUnknown              AnalysisCategory = "unknown"
)

// SQLSource identifies which tier of the provider chain produced a SQLResult.
type SQLSource string

const (
	SourceProvider         SQLSource = "provider"
	SourceProviderWithData SQLSource = "provider_with_data"
	SourceFallback         SQLSource = "fallback"
)

// Row is a single result row keyed by column name. Column order is carried
// separately because map iteration order is not stable.
type Row map[string]interface{}

// SQLResult is the outcome of SQL generation. When Rows is non-nil the
// provider returned a complete solution and the executor is bypassed.
type SQLResult struct {
	SQL         string    `json:"sql"`
	Source      SQLSource `json:"source"`
	Explanation string    `json:"explanation,omitempty"`
	Rows        []Row     `json:"rows,omitempty"`
	Confidence  float64   `json:"confidence,omitempty"`
}

// LocationMetric holds the raw counts and derived score for one location
// (neighborhood) extracted from a result set.
type LocationMetric struct {
	Name      string             `json:"name"`
	RawCounts map[string]float64 `json:"metrics"`
	Score     float64            `json:"score"`
}

// RankedResult is a sequence of LocationMetric sorted descending by Score,
// ties broken alphabetically by Name.
type RankedResult []LocationMetric

// Insight is the narrative output of the synthesizer.
type Insight struct {
	Summary string   `json:"summary"`
	Details []string `json:"details,omitempty"`
}

// LatLng is a geographic coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// HeatPoint is one weighted heatmap sample.
type HeatPoint struct {
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Weight float64 `json:"weight"`
}

// Marker is a map pin with a severity bucket for coloring.
type Marker struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Severity    string  `json:"severity"`
}

// MapLayer is the map-ready payload for the dashboard.
type MapLayer struct {
	HeatmapPoints []HeatPoint `json:"heatmap"`
	Markers       []Marker    `json:"markers"`
	Center        LatLng      `json:"center"`
	Zoom          int         `json:"zoom"`
}

// ChartType enumerates supported chart renderings.
type ChartType string

const (
	ChartBar        ChartType = "bar"
	ChartPie        ChartType = "pie"
	ChartLine       ChartType = "line"
	ChartGroupedBar ChartType = "grouped_bar"
)

// ChartSeries is a named value array aligned with the descriptor labels.
type ChartSeries struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// ChartDescriptor describes one chart. Every series must have exactly
// len(Labels) values; the visualization builder enforces this before
// emission.
type ChartDescriptor struct {
	Type        ChartType     `json:"type"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Labels      []string      `json:"labels"`
	Series      []ChartSeries `json:"series"`
}

// ChartData wraps the chart list for the response payload.
type ChartData struct {
	Charts []ChartDescriptor `json:"charts"`
}

// NeighborhoodSummary is one ranked entry in the response payload.
type NeighborhoodSummary struct {
	Name    string             `json:"name"`
	Metrics map[string]float64 `json:"metrics"`
}

// AnalyzeResult is the fully assembled response for one question.
type AnalyzeResult struct {
	AnalysisType     AnalysisCategory      `json:"analysis_type"`
	Timestamp        time.Time             `json:"timestamp"`
	TopNeighborhoods []NeighborhoodSummary `json:"top_neighborhoods"`
	InsightSummary   string                `json:"insight_summary"`
	InsightDetails   []string              `json:"insight_details,omitempty"`
	MapLayers        MapLayer              `json:"map_layers"`
	ChartData        ChartData             `json:"chart_data"`
	SQLUsed          string                `json:"sql_used"`
	SQLSource        SQLSource             `json:"sql_source"`
	SQLExplanation   string                `json:"sql_explanation"`
	RawRows          []Row                 `json:"raw_rows"`
}
