// internal/models/schema.go
package models

import (
	"fmt"
	"strings"
)

// TableSchema describes one table exposed to the NL-to-SQL provider.
type TableSchema struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

// SchemaDescription is the database schema handed to the provider in direct
// mode and served by GET /api/schema.
type SchemaDescription struct {
	Tables []TableSchema `json:"tables"`
}

// CitySchema returns the incident database schema. The table and column
// names mirror the SQLite database the service queries.
func CitySchema() SchemaDescription {
	return SchemaDescription{
		Tables: []TableSchema{
			{
				Name: "sf_police_calls_rt",
				Columns: []string{"cad_id", "received_datetime", "dispatch_datetime",
					"closed_datetime", "call_type", "priority", "disposition",
					"neighborhood", "latitude", "longitude"},
			},
			{
				Name: "sf_fire_ems_calls",
				Columns: []string{"call_number", "incident_number", "received_datetime",
					"dispatch_datetime", "unit_id", "call_type", "disposition",
					"neighborhood", "latitude", "longitude"},
			},
			{
				Name: "sf_311_cases",
				Columns: []string{"case_id", "opened_datetime", "closed_datetime", "status",
					"category", "subcategory", "neighborhood", "latitude", "longitude"},
			},
			{
				Name: "sf_shelter_waitlist",
				Columns: []string{"record_id", "snapshot_date", "neighborhood",
					"people_waiting", "shelter_type"},
			},
			{
				Name:    "sf_homeless_baseline",
				Columns: []string{"neighborhood", "unsheltered_count", "sheltered_count",
					"capacity_baseline", "snapshot_year"},
			},
			{
				Name: "sf_disaster_events",
				Columns: []string{"event_id", "event_type", "description", "timestamp",
					"latitude", "longitude", "neighborhood", "severity", "source"},
			},
			{
				Name:    "neighborhoods",
				Columns: []string{"name", "population", "seniors_65_plus"},
			},
		},
	}
}

// Text renders the schema as a compact textual description suitable for a
// provider prompt.
func (s SchemaDescription) Text() string {
	var b strings.Builder
	for _, t := range s.Tables {
		fmt.Fprintf(&b, "TABLE %s (%s)\n", t.Name, strings.Join(t.Columns, ", "))
	}
	return b.String()
}
