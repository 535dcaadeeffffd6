package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/bmacd/skyscore/internal/aircraft"
	"github.com/bmacd/skyscore/internal/runway"
	"github.com/bmacd/skyscore/internal/weather"
	"github.com/bmacd/skyscore/pkg/logger"
)

// ReferenceStorage serves the static lookup data the engine consumes as
// value objects: runway geometry, aircraft speeds, METAR observations.
type ReferenceStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewReferenceStorage creates a new SQLite reference storage
func NewReferenceStorage(db *sql.DB, logger *logger.Logger) *ReferenceStorage {
	storage := &ReferenceStorage{
		db:     db,
		logger: logger.Named("sqlite-reference"),
	}

	if err := storage.initDB(); err != nil {
		storage.logger.Error("Failed to initialize reference storage", Error(err))
	}

	return storage
}

// initDB initializes the database tables
func (s *ReferenceStorage) initDB() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runways (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			airport TEXT NOT NULL,
			designator TEXT NOT NULL,
			threshold_lat REAL NOT NULL,
			threshold_lon REAL NOT NULL,
			heading_deg REAL NOT NULL,
			elevation_ft REAL NOT NULL,
			glideslope_deg REAL NOT NULL DEFAULT 3.0,
			tch_ft REAL NOT NULL DEFAULT 50,
			UNIQUE(airport, designator)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runways_airport ON runways(airport)`,
		`CREATE TABLE IF NOT EXISTS aircraft_speeds (
			ac_type TEXT PRIMARY KEY,
			appr_speed REAL NOT NULL,
			dirty_stall REAL NOT NULL,
			clean_stall REAL
		)`,
		`CREATE TABLE IF NOT EXISTS metar_observations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			airport TEXT NOT NULL,
			observation_time TIMESTAMP NOT NULL,
			wind_dir_degrees REAL,
			wind_speed_kt REAL NOT NULL DEFAULT 0,
			wind_gust_kt REAL,
			altimeter_inhg REAL,
			temp_c REAL,
			visibility_miles REAL,
			raw_text TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_metar_airport_time ON metar_observations(airport, observation_time)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize reference tables: %w", err)
		}
	}
	return nil
}

// GetRunways returns all runway ends for an airport
func (s *ReferenceStorage) GetRunways(airport string) ([]runway.Runway, error) {
	rows, err := s.db.Query(
		`SELECT airport, designator, threshold_lat, threshold_lon,
			heading_deg, elevation_ft, glideslope_deg, tch_ft
		FROM runways
		WHERE airport = ?
		ORDER BY designator`,
		airport,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query runways for %s: %w", airport, err)
	}
	defer rows.Close()

	var runways []runway.Runway
	for rows.Next() {
		var r runway.Runway
		if err := rows.Scan(&r.Airport, &r.Designator, &r.ThresholdLat, &r.ThresholdLon,
			&r.HeadingDeg, &r.ElevationFt, &r.GlideslopeDeg, &r.TCHFt); err != nil {
			return nil, fmt.Errorf("failed to scan runway: %w", err)
		}
		runways = append(runways, r)
	}
	return runways, rows.Err()
}

// StoreRunway upserts one runway end
func (s *ReferenceStorage) StoreRunway(r *runway.Runway) error {
	_, err := s.db.Exec(
		`INSERT INTO runways
		(airport, designator, threshold_lat, threshold_lon, heading_deg, elevation_ft, glideslope_deg, tch_ft)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(airport, designator) DO UPDATE SET
			threshold_lat = excluded.threshold_lat,
			threshold_lon = excluded.threshold_lon,
			heading_deg = excluded.heading_deg,
			elevation_ft = excluded.elevation_ft,
			glideslope_deg = excluded.glideslope_deg,
			tch_ft = excluded.tch_ft`,
		r.Airport, r.Designator, r.ThresholdLat, r.ThresholdLon,
		r.HeadingDeg, r.ElevationFt, r.GlideslopeDeg, r.TCHFt,
	)
	if err != nil {
		return fmt.Errorf("failed to store runway %s/%s: %w", r.Airport, r.Designator, err)
	}
	return nil
}

// GetPerformance returns reference speeds for an aircraft type, or nil
// when the type is unknown (scoring falls back to configured defaults).
func (s *ReferenceStorage) GetPerformance(acType string) (*aircraft.Performance, error) {
	var p aircraft.Performance
	var cleanStall sql.NullFloat64
	err := s.db.QueryRow(
		`SELECT ac_type, appr_speed, dirty_stall, clean_stall
		FROM aircraft_speeds
		WHERE ac_type = ?`,
		acType,
	).Scan(&p.Type, &p.ApproachSpeedKt, &p.DirtyStallKt, &cleanStall)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query aircraft speeds for %s: %w", acType, err)
	}
	p.CleanStallKt = cleanStall.Float64
	return &p, nil
}

// StorePerformance upserts reference speeds for an aircraft type
func (s *ReferenceStorage) StorePerformance(p *aircraft.Performance) error {
	_, err := s.db.Exec(
		`INSERT INTO aircraft_speeds (ac_type, appr_speed, dirty_stall, clean_stall)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(ac_type) DO UPDATE SET
			appr_speed = excluded.appr_speed,
			dirty_stall = excluded.dirty_stall,
			clean_stall = excluded.clean_stall`,
		p.Type, p.ApproachSpeedKt, p.DirtyStallKt, p.CleanStallKt,
	)
	if err != nil {
		return fmt.Errorf("failed to store aircraft speeds for %s: %w", p.Type, err)
	}
	return nil
}

// GetLatestObservation returns the most recent METAR for an airport at or
// before the given time, or nil when none is on file.
func (s *ReferenceStorage) GetLatestObservation(airport string, before time.Time) (*weather.Observation, error) {
	var (
		o                              weather.Observation
		obsTime                        string
		windDir, gust, altim, temp, vis sql.NullFloat64
		raw                            sql.NullString
	)
	err := s.db.QueryRow(
		`SELECT airport, observation_time, wind_dir_degrees, wind_speed_kt,
			wind_gust_kt, altimeter_inhg, temp_c, visibility_miles, raw_text
		FROM metar_observations
		WHERE airport = ? AND observation_time <= ?
		ORDER BY observation_time DESC
		LIMIT 1`,
		airport, before.UTC().Format(time.RFC3339),
	).Scan(&o.Airport, &obsTime, &windDir, &o.WindSpeedKt, &gust, &altim, &temp, &vis, &raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query METAR for %s: %w", airport, err)
	}

	if o.Time, err = time.Parse(time.RFC3339, obsTime); err != nil {
		return nil, fmt.Errorf("failed to parse observation_time: %w", err)
	}
	if windDir.Valid {
		v := windDir.Float64
		o.WindDirDeg = &v
	}
	o.WindGustKt = gust.Float64
	if altim.Valid {
		v := altim.Float64
		o.AltimeterInHg = &v
	}
	if temp.Valid {
		v := temp.Float64
		o.TempC = &v
	}
	if vis.Valid {
		v := vis.Float64
		o.VisibilityMi = &v
	}
	o.RawText = raw.String
	return &o, nil
}

// StoreObservation inserts one METAR observation
func (s *ReferenceStorage) StoreObservation(o *weather.Observation) error {
	_, err := s.db.Exec(
		`INSERT INTO metar_observations
		(airport, observation_time, wind_dir_degrees, wind_speed_kt, wind_gust_kt,
		 altimeter_inhg, temp_c, visibility_miles, raw_text)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.Airport, o.Time.UTC().Format(time.RFC3339),
		nullable(o.WindDirDeg), o.WindSpeedKt, o.WindGustKt,
		nullable(o.AltimeterInHg), nullable(o.TempC), nullable(o.VisibilityMi), o.RawText,
	)
	if err != nil {
		return fmt.Errorf("failed to store METAR for %s: %w", o.Airport, err)
	}
	return nil
}
