// cmd/tools/seed-db/main.go
//
// Creates and populates the incident SQLite database with synthetic but
// realistic San Francisco data. Safe to re-run: existing rows are cleared
// before new ones are inserted.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"citypulse/internal/common/database"
)

var neighborhoods = []string{
	"Tenderloin", "SoMa", "Mission", "Bayview", "Chinatown",
	"Financial District", "Nob Hill", "Russian Hill", "Marina",
	"Haight-Ashbury", "Castro", "Potrero Hill", "Dogpatch",
	"Outer Richmond", "Outer Sunset", "Excelsior", "Visitacion Valley",
}

var neighborhoodCoords = map[string][2]float64{
	"Tenderloin":         {37.7849, -122.4194},
	"SoMa":               {37.7749, -122.4094},
	"Mission":            {37.7599, -122.4148},
	"Bayview":            {37.7299, -122.3899},
	"Chinatown":          {37.7941, -122.4078},
	"Financial District": {37.7946, -122.3999},
	"Nob Hill":           {37.7919, -122.4155},
	"Russian Hill":       {37.8011, -122.4189},
	"Marina":             {37.8021, -122.4378},
	"Haight-Ashbury":     {37.7699, -122.4469},
	"Castro":             {37.7609, -122.4350},
	"Potrero Hill":       {37.7580, -122.3988},
	"Dogpatch":           {37.7599, -122.3888},
	"Outer Richmond":     {37.7799, -122.4899},
	"Outer Sunset":       {37.7499, -122.4899},
	"Excelsior":          {37.7249, -122.4249},
	"Visitacion Valley":  {37.7149, -122.4049},
}

var policeCallTypes = []string{
	"Assault", "Burglary", "Robbery", "Theft", "Vandalism",
	"Domestic Violence", "Suspicious Activity", "Traffic Collision",
	"Welfare Check", "Noise Complaint",
}

var fireCallTypes = []string{
	"Medical Emergency", "Structure Fire", "Vehicle Fire", "Alarm",
	"Hazmat", "Gas Leak", "Elevator Rescue", "Water Rescue",
}

var case311Categories = []string{
	"Street Cleaning", "Graffiti", "Homeless Encampment", "Abandoned Vehicle",
	"Pothole", "Streetlight Out", "Tree Maintenance", "Illegal Dumping",
}

var disasterTypes = []string{"Fire", "Hazmat", "Earthquake", "Flood", "Power Outage"}

var severities = []string{"Low", "Medium", "High", "Critical"}

var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS sf_police_calls_rt (
		cad_id TEXT PRIMARY KEY,
		received_datetime TEXT,
		dispatch_datetime TEXT,
		closed_datetime TEXT,
		call_type TEXT,
		priority INTEGER,
		disposition TEXT,
		neighborhood TEXT,
		latitude REAL,
		longitude REAL
	)`,
	`CREATE TABLE IF NOT EXISTS sf_fire_ems_calls (
		call_number TEXT PRIMARY KEY,
		incident_number TEXT,
		received_datetime TEXT,
		dispatch_datetime TEXT,
		unit_id TEXT,
		call_type TEXT,
		disposition TEXT,
		neighborhood TEXT,
		latitude REAL,
		longitude REAL
	)`,
	`CREATE TABLE IF NOT EXISTS sf_311_cases (
		case_id TEXT PRIMARY KEY,
		opened_datetime TEXT,
		closed_datetime TEXT,
		status TEXT,
		category TEXT,
		subcategory TEXT,
		neighborhood TEXT,
		latitude REAL,
		longitude REAL
	)`,
	`CREATE TABLE IF NOT EXISTS sf_shelter_waitlist (
		record_id TEXT PRIMARY KEY,
		snapshot_date TEXT,
		neighborhood TEXT,
		people_waiting INTEGER,
		shelter_type TEXT,
		latitude REAL,
		longitude REAL
	)`,
	`CREATE TABLE IF NOT EXISTS sf_homeless_baseline (
		neighborhood TEXT PRIMARY KEY,
		unsheltered_count INTEGER,
		sheltered_count INTEGER,
		capacity_baseline INTEGER,
		snapshot_year INTEGER,
		latitude REAL,
		longitude REAL
	)`,
	`CREATE TABLE IF NOT EXISTS sf_disaster_events (
		event_id TEXT PRIMARY KEY,
		event_type TEXT,
		description TEXT,
		timestamp TEXT,
		latitude REAL,
		longitude REAL,
		neighborhood TEXT,
		severity TEXT,
		source TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS neighborhoods (
		name TEXT PRIMARY KEY,
		population INTEGER,
		seniors_65_plus INTEGER
	)`,
}

var tableNames = []string{
	"sf_police_calls_rt", "sf_fire_ems_calls", "sf_311_cases",
	"sf_shelter_waitlist", "sf_homeless_baseline", "sf_disaster_events",
	"neighborhoods",
}

func main() {
	dbPath := flag.String("db", "database/citypulse.db", "Path to the SQLite database file")
	policeCount := flag.Int("police", 500, "Number of police calls to generate")
	fireCount := flag.Int("fire", 300, "Number of fire/EMS calls to generate")
	casesCount := flag.Int("cases", 400, "Number of 311 cases to generate")
	disasterCount := flag.Int("disasters", 50, "Number of disaster events to generate")
	seed := flag.Int64("seed", 0, "Random seed (0 uses current time)")
	flag.Parse()

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))

	db, err := database.NewSQLiteWritable(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()

	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ctx, ddl); err != nil {
			fmt.Fprintf(os.Stderr, "Error: schema creation failed: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("Schema ready (%d tables)\n", len(schemaDDL))

	for _, table := range tableNames {
		if _, err := db.Exec(ctx, "DELETE FROM "+table); err != nil {
			fmt.Fprintf(os.Stderr, "Error: clearing %s failed: %v\n", table, err)
			os.Exit(1)
		}
	}
	fmt.Println("Cleared existing data")

	steps := []struct {
		name string
		fn   func(context.Context, *database.SQLiteClient, *rand.Rand) error
	}{
		{"police calls", func(ctx context.Context, db *database.SQLiteClient, rng *rand.Rand) error {
			return seedPoliceCalls(ctx, db, rng, *policeCount)
		}},
		{"fire/EMS calls", func(ctx context.Context, db *database.SQLiteClient, rng *rand.Rand) error {
			return seedFireCalls(ctx, db, rng, *fireCount)
		}},
		{"311 cases", func(ctx context.Context, db *database.SQLiteClient, rng *rand.Rand) error {
			return seed311Cases(ctx, db, rng, *casesCount)
		}},
		{"shelter waitlist", seedShelterWaitlist},
		{"homeless baseline", seedHomelessBaseline},
		{"disaster events", func(ctx context.Context, db *database.SQLiteClient, rng *rand.Rand) error {
			return seedDisasterEvents(ctx, db, rng, *disasterCount)
		}},
		{"neighborhood metadata", seedNeighborhoods},
	}

	for _, step := range steps {
		if err := step.fn(ctx, db, rng); err != nil {
			fmt.Fprintf(os.Stderr, "Error: seeding %s failed: %v\n", step.name, err)
			os.Exit(1)
		}
		fmt.Printf("Seeded %s\n", step.name)
	}

	fmt.Printf("Done. Database at %s (seed %d)\n", *dbPath, *seed)
}

func jitter(rng *rand.Rand, base, spread float64) float64 {
	return base + (rng.Float64()*2-1)*spread
}

func pick(rng *rand.Rand, options []string) string {
	return options[rng.Intn(len(options))]
}

func seedPoliceCalls(ctx context.Context, db *database.SQLiteClient, rng *rand.Rand, count int) error {
	now := time.Now()
	for i := 0; i < count; i++ {
		n := pick(rng, neighborhoods)
		coords := neighborhoodCoords[n]
		received := now.Add(-time.Duration(rng.Intn(48)) * time.Hour)
		dispatch := received.Add(time.Duration(2+rng.Intn(13)) * time.Minute)
		closed := dispatch.Add(time.Duration(10+rng.Intn(110)) * time.Minute)

		_, err := db.Exec(ctx, `INSERT INTO sf_police_calls_rt
			(cad_id, received_datetime, dispatch_datetime, closed_datetime,
			 call_type, priority, disposition, neighborhood, latitude, longitude)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			fmt.Sprintf("CAD%06d", i),
			received.Format(time.RFC3339),
			dispatch.Format(time.RFC3339),
			closed.Format(time.RFC3339),
			pick(rng, policeCallTypes),
			1+rng.Intn(3),
			pick(rng, []string{"Handled", "Report Filed", "Arrest Made", "Unfounded"}),
			n,
			jitter(rng, coords[0], 0.01),
			jitter(rng, coords[1], 0.01),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func seedFireCalls(ctx context.Context, db *database.SQLiteClient, rng *rand.Rand, count int) error {
	now := time.Now()
	for i := 0; i < count; i++ {
		n := pick(rng, neighborhoods)
		coords := neighborhoodCoords[n]
		received := now.Add(-time.Duration(rng.Intn(48)) * time.Hour)
		dispatch := received.Add(time.Duration(1+rng.Intn(7)) * time.Minute)

		_, err := db.Exec(ctx, `INSERT INTO sf_fire_ems_calls
			(call_number, incident_number, received_datetime, dispatch_datetime,
			 unit_id, call_type, disposition, neighborhood, latitude, longitude)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			fmt.Sprintf("FIRE%06d", i),
			fmt.Sprintf("INC%06d", i),
			received.Format(time.RFC3339),
			dispatch.Format(time.RFC3339),
			fmt.Sprintf("E%d", 1+rng.Intn(50)),
			pick(rng, fireCallTypes),
			pick(rng, []string{"Transported", "Treated on Scene", "False Alarm", "Cancelled"}),
			n,
			jitter(rng, coords[0], 0.01),
			jitter(rng, coords[1], 0.01),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func seed311Cases(ctx context.Context, db *database.SQLiteClient, rng *rand.Rand, count int) error {
	now := time.Now()
	for i := 0; i < count; i++ {
		n := pick(rng, neighborhoods)
		coords := neighborhoodCoords[n]
		opened := now.Add(-time.Duration(rng.Intn(30*24)) * time.Hour)

		var closed interface{}
		status := "Open"
		if rng.Float64() > 0.3 {
			closed = opened.Add(time.Duration(1+rng.Intn(13)) * 24 * time.Hour).Format(time.RFC3339)
			status = "Closed"
		}

		_, err := db.Exec(ctx, `INSERT INTO sf_311_cases
			(case_id, opened_datetime, closed_datetime, status,
			 category, subcategory, neighborhood, latitude, longitude)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			fmt.Sprintf("311-%06d", i),
			opened.Format(time.RFC3339),
			closed,
			status,
			pick(rng, case311Categories),
			"General",
			n,
			jitter(rng, coords[0], 0.01),
			jitter(rng, coords[1], 0.01),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func seedShelterWaitlist(ctx context.Context, db *database.SQLiteClient, rng *rand.Rand) error {
	now := time.Now()
	recordID := 0
	for daysAgo := 0; daysAgo < 7; daysAgo++ {
		date := now.AddDate(0, 0, -daysAgo)
		for _, n := range neighborhoods {
			// Tenderloin and SoMa carry the heaviest waitlists
			base := 10
			if n == "Tenderloin" || n == "SoMa" {
				base = 50
			}
			coords := neighborhoodCoords[n]

			_, err := db.Exec(ctx, `INSERT INTO sf_shelter_waitlist
				(record_id, snapshot_date, neighborhood, people_waiting, shelter_type, latitude, longitude)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				fmt.Sprintf("SW%06d", recordID),
				date.Format("2006-01-02"),
				n,
				base-5+rng.Intn(21),
				pick(rng, []string{"Emergency", "Transitional", "Navigation Center"}),
				jitter(rng, coords[0], 0.005),
				jitter(rng, coords[1], 0.005),
			)
			if err != nil {
				return err
			}
			recordID++
		}
	}
	return nil
}

func seedHomelessBaseline(ctx context.Context, db *database.SQLiteClient, rng *rand.Rand) error {
	for _, n := range neighborhoods {
		unsheltered := 20 + rng.Intn(81)
		sheltered := 10 + rng.Intn(41)
		if n == "Tenderloin" || n == "SoMa" {
			unsheltered = 200 + rng.Intn(301)
			sheltered = 150 + rng.Intn(151)
		}
		coords := neighborhoodCoords[n]

		_, err := db.Exec(ctx, `INSERT INTO sf_homeless_baseline
			(neighborhood, unsheltered_count, sheltered_count, capacity_baseline, snapshot_year, latitude, longitude)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			n, unsheltered, sheltered, sheltered+rng.Intn(50), 2024, coords[0], coords[1],
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func seedDisasterEvents(ctx context.Context, db *database.SQLiteClient, rng *rand.Rand, count int) error {
	now := time.Now()
	for i := 0; i < count; i++ {
		n := pick(rng, neighborhoods)
		coords := neighborhoodCoords[n]
		eventType := pick(rng, disasterTypes)

		_, err := db.Exec(ctx, `INSERT INTO sf_disaster_events
			(event_id, event_type, description, timestamp,
			 latitude, longitude, neighborhood, severity, source)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			fmt.Sprintf("DIS%06d", i),
			eventType,
			fmt.Sprintf("%s event in %s", eventType, n),
			now.Add(-time.Duration(rng.Intn(12))*time.Hour).Format(time.RFC3339),
			jitter(rng, coords[0], 0.01),
			jitter(rng, coords[1], 0.01),
			n,
			pick(rng, severities),
			pick(rng, []string{"SFFD", "USGS", "CalOES", "SF311"}),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func seedNeighborhoods(ctx context.Context, db *database.SQLiteClient, rng *rand.Rand) error {
	for _, n := range neighborhoods {
		population := 10000 + rng.Intn(40001)
		seniors := int(float64(population) * (0.10 + rng.Float64()*0.10))

		_, err := db.Exec(ctx, `INSERT INTO neighborhoods
			(name, population, seniors_65_plus)
			VALUES (?, ?, ?)`,
			n, population, seniors,
		)
		if err != nil {
			return err
		}
	}
	return nil
}
