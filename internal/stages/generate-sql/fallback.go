// internal/stages/generate-sql/fallback.go
package generatesql

import (
	"strings"

	"citypulse/internal/models"
)

// fallbackRule pairs a question matcher with a canned SQL template. Rules are
// evaluated in order; the first match wins, so identical questions always
// produce byte-identical SQL.
type fallbackRule struct {
	match       func(q string) bool
	sql         string
	explanation string
	confidence  float64
}

const emergencyStressSQL = `SELECT
    COALESCE(p.neighborhood, f.neighborhood) as neighborhood,
    COUNT(DISTINCT p.cad_id) as police_calls,
    COUNT(DISTINCT f.call_number) as fire_ems_calls,
    (COUNT(DISTINCT p.cad_id) * 1.0 + COUNT(DISTINCT f.call_number) * 1.2) as stress_score,
    AVG(p.latitude) as latitude,
    AVG(p.longitude) as longitude
FROM sf_police_calls_rt p
LEFT JOIN sf_fire_ems_calls f
    ON p.neighborhood = f.neighborhood
WHERE datetime(p.received_datetime) >= datetime('now', '-24 hours')
    OR datetime(f.received_datetime) >= datetime('now', '-24 hours')
GROUP BY COALESCE(p.neighborhood, f.neighborhood)
HAVING COALESCE(p.neighborhood, f.neighborhood) IS NOT NULL
ORDER BY stress_score DESC
LIMIT 20`

const insuranceSQL = `SELECT
    p.neighborhood,
    COUNT(DISTINCT p.cad_id) as police_calls,
    COUNT(DISTINCT f.call_number) as ems_calls,
    0 as earthquake_events,
    0 as avg_quake_severity,
    0 as fire_events,
    0 as hazmat_events,
    0 as infra_311_cases,
    AVG(p.latitude) as latitude,
    AVG(p.longitude) as longitude
FROM sf_police_calls_rt p
LEFT JOIN sf_fire_ems_calls f ON p.neighborhood = f.neighborhood
WHERE p.neighborhood IS NOT NULL
    AND datetime(p.received_datetime) >= datetime('now', '-7 days')
GROUP BY p.neighborhood
ORDER BY police_calls DESC
LIMIT 20`

const policeByNeighborhoodSQL = `SELECT
    neighborhood,
    COUNT(*) as call_count,
    AVG(latitude) as latitude,
    AVG(longitude) as longitude
FROM sf_police_calls_rt
WHERE neighborhood IS NOT NULL
    AND datetime(received_datetime) >= datetime('now', '-24 hours')
GROUP BY neighborhood
ORDER BY call_count DESC
LIMIT 20`

const homelessSQL = `SELECT
    s.neighborhood,
    SUM(s.people_waiting) as people_waiting,
    h.capacity_baseline,
    h.unsheltered_count,
    (SUM(s.people_waiting) * 1.0 / MAX(h.capacity_baseline, 1)) as pressure_ratio
FROM sf_shelter_waitlist s
LEFT JOIN sf_homeless_baseline h ON s.neighborhood = h.neighborhood
WHERE date(s.snapshot_date) >= date('now', '-7 days')
GROUP BY s.neighborhood
ORDER BY pressure_ratio DESC
LIMIT 20`

const disasterSQL = `SELECT
    neighborhood,
    event_type,
    COUNT(*) as event_count,
    severity,
    MAX(timestamp) as latest_event,
    AVG(latitude) as latitude,
    AVG(longitude) as longitude
FROM sf_disaster_events
WHERE neighborhood IS NOT NULL
    AND datetime(timestamp) >= datetime('now', '-7 days')
GROUP BY neighborhood, event_type
ORDER BY event_count DESC
LIMIT 20`

const neighborhoodOverviewSQL = `SELECT
    p.neighborhood,
    COUNT(DISTINCT p.cad_id) as police_calls,
    COUNT(DISTINCT f.call_number) as fire_ems_calls,
    AVG(p.latitude) as latitude,
    AVG(p.longitude) as longitude
FROM sf_police_calls_rt p
LEFT JOIN sf_fire_ems_calls f ON p.neighborhood = f.neighborhood
WHERE p.neighborhood IS NOT NULL
    AND datetime(p.received_datetime) >= datetime('now', '-24 hours')
GROUP BY p.neighborhood
ORDER BY police_calls DESC
LIMIT 20`

const defaultFallbackSQL = `SELECT * FROM sf_police_calls_rt LIMIT 50`

var fallbackRules = []fallbackRule{
	{
		match: func(q string) bool {
			return strings.Contains(q, "emergency") && strings.Contains(q, "stress")
		},
		sql:         emergencyStressSQL,
		explanation: "Emergency stress analysis for past 24 hours combining police and fire/EMS calls",
		confidence:  0.85,
	},
	{
		match: func(q string) bool {
			return containsAny(q, "insurance", "underwriting", "risk", "exposure")
		},
		sql:         insuranceSQL,
		explanation: "Insurance risk assessment query over recent incident counts",
		confidence:  0.75,
	},
	{
		match: func(q string) bool {
			return strings.Contains(q, "police") && strings.Contains(q, "neighborhood")
		},
		sql:         policeByNeighborhoodSQL,
		explanation: "Police calls by neighborhood for past 24 hours",
		confidence:  0.85,
	},
	{
		match: func(q string) bool {
			return containsAny(q, "homeless", "shelter")
		},
		sql:         homelessSQL,
		explanation: "Shelter waitlist pressure against baseline capacity for past 7 days",
		confidence:  0.80,
	},
	{
		match: func(q string) bool {
			return containsAny(q, "disaster", "earthquake", "fire", "hazmat")
		},
		sql:         disasterSQL,
		explanation: "Disaster events analysis for past 7 days",
		confidence:  0.85,
	},
	{
		match: func(q string) bool {
			return strings.Contains(q, "how many")
		},
		// sql chosen per sub-keyword in countSQL
		sql:         "",
		explanation: "Count query for recent incident data",
		confidence:  0.80,
	},
	{
		match: func(q string) bool {
			return strings.Contains(q, "neighborhood")
		},
		sql:         neighborhoodOverviewSQL,
		explanation: "Incident calls by neighborhood for past 24 hours",
		confidence:  0.80,
	},
}

func containsAny(q string, terms ...string) bool {
	for _, term := range terms {
		if strings.Contains(q, term) {
			return true
		}
	}
	return false
}

func countSQL(q string) string {
	switch {
	case strings.Contains(q, "police"):
		return `SELECT COUNT(*) as police_calls FROM sf_police_calls_rt WHERE datetime(received_datetime) >= datetime('now', '-24 hours')`
	case strings.Contains(q, "fire"), strings.Contains(q, "ems"):
		return `SELECT COUNT(*) as fire_ems_calls FROM sf_fire_ems_calls WHERE datetime(received_datetime) >= datetime('now', '-24 hours')`
	case strings.Contains(q, "311"):
		return `SELECT COUNT(*) as cases_311 FROM sf_311_cases WHERE datetime(opened_datetime) >= datetime('now', '-7 days')`
	case strings.Contains(q, "disaster"):
		return `SELECT COUNT(*) as disaster_events FROM sf_disaster_events WHERE datetime(timestamp) >= datetime('now', '-7 days')`
	default:
		return `SELECT
    'police' as category, COUNT(*) as count FROM sf_police_calls_rt WHERE datetime(received_datetime) >= datetime('now', '-24 hours')
UNION ALL
SELECT
    'fire_ems' as category, COUNT(*) as count FROM sf_fire_ems_calls WHERE datetime(received_datetime) >= datetime('now', '-24 hours')`
	}
}

// generateFallback produces SQL from the local rule table. It is total and
// deterministic, so the generation chain always terminates with usable SQL.
func generateFallback(question string) models.SQLResult {
	questionLower := strings.ToLower(question)

	for _, rule := range fallbackRules {
		if !rule.match(questionLower) {
			continue
		}
		sql := rule.sql
		if sql == "" {
			sql = countSQL(questionLower)
		}
		return models.SQLResult{
			SQL:         sql,
			Source:      models.SourceFallback,
			Explanation: rule.explanation,
			Confidence:  rule.confidence,
		}
	}

	return models.SQLResult{
		SQL:         defaultFallbackSQL,
		Source:      models.SourceFallback,
		Explanation: "Recent police calls sample (no specific pattern matched)",
		Confidence:  0.70,
	}
}
