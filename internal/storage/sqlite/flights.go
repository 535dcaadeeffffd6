package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bmacd/skyscore/internal/track"
	"github.com/bmacd/skyscore/pkg/logger"
)

// ErrNotFound indicates the requested record does not exist
var ErrNotFound = errors.New("not found")

// FlightStorage reads raw trajectories written by the feed collectors,
// one row per position report.
type FlightStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewFlightStorage creates a new SQLite flight storage
func NewFlightStorage(db *sql.DB, logger *logger.Logger) *FlightStorage {
	storage := &FlightStorage{
		db:     db,
		logger: logger.Named("sqlite-flights"),
	}

	if err := storage.initDB(); err != nil {
		storage.logger.Error("Failed to initialize flight storage", Error(err))
	}

	return storage
}

// initDB initializes the database tables
func (s *FlightStorage) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS flights (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			gufi TEXT NOT NULL,
			callsign TEXT,
			departure TEXT,
			arrival TEXT,
			position_time TIMESTAMP NOT NULL,
			latitude REAL,
			longitude REAL,
			altitude REAL,
			speed REAL,
			track REAL,
			vertical_speed REAL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create flights table: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_flights_gufi ON flights(gufi)`,
		`CREATE INDEX IF NOT EXISTS idx_flights_time ON flights(position_time)`,
		`CREATE INDEX IF NOT EXISTS idx_flights_callsign ON flights(callsign)`,
	}
	for _, indexSQL := range indexes {
		if _, err := s.db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create flight index: %w", err)
		}
	}

	return nil
}

// GetFlight loads one full trajectory, points ordered by time
func (s *FlightStorage) GetFlight(gufi string) (*track.Flight, error) {
	rows, err := s.db.Query(
		`SELECT callsign, departure, arrival, position_time,
			latitude, longitude, altitude, speed, track, vertical_speed
		FROM flights
		WHERE gufi = ?
		ORDER BY position_time`,
		gufi,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query flight %s: %w", gufi, err)
	}
	defer rows.Close()

	flight := &track.Flight{GUFI: gufi}
	for rows.Next() {
		var (
			callsign, departure, arrival sql.NullString
			positionTime                 string
			lat, lon, alt                sql.NullFloat64
			speed, course, vs            sql.NullFloat64
		)
		if err := rows.Scan(&callsign, &departure, &arrival, &positionTime,
			&lat, &lon, &alt, &speed, &course, &vs); err != nil {
			return nil, fmt.Errorf("failed to scan track point: %w", err)
		}

		ts, err := time.Parse(time.RFC3339, positionTime)
		if err != nil {
			return nil, fmt.Errorf("failed to parse position_time: %w", err)
		}

		flight.Callsign = callsign.String
		flight.Departure = departure.String
		flight.Arrival = arrival.String

		p := track.Point{
			Time:     ts,
			Lat:      lat.Float64,
			Lon:      lon.Float64,
			Altitude: alt.Float64,
		}
		if speed.Valid {
			v := speed.Float64
			p.Speed = &v
		}
		if course.Valid {
			v := course.Float64
			p.Course = &v
		}
		if vs.Valid {
			v := vs.Float64
			p.VerticalSpeed = &v
		}
		flight.Points = append(flight.Points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate track points: %w", err)
	}

	if len(flight.Points) == 0 {
		return nil, fmt.Errorf("flight %s: %w", gufi, ErrNotFound)
	}
	return flight, nil
}

// StorePoints appends position reports for a flight. Used by the feed
// side and by test fixtures; the engine never writes trajectories.
func (s *FlightStorage) StorePoints(gufi, callsign, departure, arrival string, points []track.Point) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO flights
		(gufi, callsign, departure, arrival, position_time, latitude, longitude, altitude, speed, track, vertical_speed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		_, err := stmt.Exec(
			gufi, callsign, departure, arrival,
			p.Time.UTC().Format(time.RFC3339),
			p.Lat, p.Lon, p.Altitude,
			nullable(p.Speed), nullable(p.Course), nullable(p.VerticalSpeed),
		)
		if err != nil {
			return fmt.Errorf("failed to insert track point: %w", err)
		}
	}

	return tx.Commit()
}

// Candidate is one flight eligible for batch scoring
type Candidate struct {
	GUFI       string
	Callsign   string
	Arrival    string
	FirstSeen  time.Time
	MinAlt     float64
	MaxAlt     float64
	PointCount int
}

// CandidateFilter narrows the batch candidate query
type CandidateFilter struct {
	Since        time.Time
	CallsignLike string
	Callsign     string
	MinPoints    int
	MaxMinAlt    float64
	Limit        int
	Rescore      bool
}

// ListCandidates returns flights worth attempting to score: recent
// arrivals with enough points and a descent to pattern altitude. Unless
// Rescore is set, flights with an existing attempt are skipped.
func (s *FlightStorage) ListCandidates(f CandidateFilter) ([]Candidate, error) {
	query := `
		SELECT f.gufi, f.callsign, f.arrival,
			MIN(f.position_time) AS first_seen,
			MIN(f.altitude) AS min_alt,
			MAX(f.altitude) AS max_alt,
			COUNT(*) AS point_count
		FROM flights f
		WHERE f.arrival IS NOT NULL AND f.arrival != ''
			AND f.position_time >= ?`
	args := []interface{}{f.Since.UTC().Format(time.RFC3339)}

	if f.CallsignLike != "" {
		query += ` AND f.callsign LIKE ?`
		args = append(args, f.CallsignLike)
	}
	if f.Callsign != "" {
		query += ` AND f.callsign = ?`
		args = append(args, f.Callsign)
	}
	if !f.Rescore {
		query += ` AND NOT EXISTS (SELECT 1 FROM scoring_attempts s WHERE s.gufi = f.gufi)`
	}

	query += `
		GROUP BY f.gufi, f.callsign, f.arrival
		HAVING COUNT(*) >= ? AND MIN(f.altitude) < ?
		ORDER BY MIN(f.position_time) DESC
		LIMIT ?`
	args = append(args, f.MinPoints, f.MaxMinAlt, f.Limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scoring candidates: %w", err)
	}
	defer rows.Close()

	var candidates []Candidate
	for rows.Next() {
		var c Candidate
		var firstSeen string
		if err := rows.Scan(&c.GUFI, &c.Callsign, &c.Arrival, &firstSeen,
			&c.MinAlt, &c.MaxAlt, &c.PointCount); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		c.FirstSeen, err = time.Parse(time.RFC3339, firstSeen)
		if err != nil {
			return nil, fmt.Errorf("failed to parse first_seen: %w", err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// FlightSummary is the list view served by the facade
type FlightSummary struct {
	GUFI       string    `json:"gufi"`
	Callsign   string    `json:"callsign"`
	Departure  string    `json:"departure,omitempty"`
	Arrival    string    `json:"arrival,omitempty"`
	FirstSeen  time.Time `json:"first_seen"`
	LastSeen   time.Time `json:"last_seen"`
	PointCount int       `json:"point_count"`
}

// ListFlights returns flight summaries, optionally restricted to one
// UTC calendar date (YYYY-MM-DD).
func (s *FlightStorage) ListFlights(date string, limit int) ([]FlightSummary, error) {
	query := `
		SELECT gufi, callsign, departure, arrival,
			MIN(position_time), MAX(position_time), COUNT(*)
		FROM flights
		WHERE gufi IS NOT NULL`
	args := []interface{}{}
	if date != "" {
		query += ` AND substr(position_time, 1, 10) = ?`
		args = append(args, date)
	}
	query += `
		GROUP BY gufi, callsign, departure, arrival
		ORDER BY MIN(position_time) DESC
		LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query flights: %w", err)
	}
	defer rows.Close()

	var summaries []FlightSummary
	for rows.Next() {
		var fs FlightSummary
		var departure, arrival sql.NullString
		var first, last string
		if err := rows.Scan(&fs.GUFI, &fs.Callsign, &departure, &arrival,
			&first, &last, &fs.PointCount); err != nil {
			return nil, fmt.Errorf("failed to scan flight summary: %w", err)
		}
		fs.Departure = departure.String
		fs.Arrival = arrival.String
		if fs.FirstSeen, err = time.Parse(time.RFC3339, first); err != nil {
			return nil, fmt.Errorf("failed to parse first_seen: %w", err)
		}
		if fs.LastSeen, err = time.Parse(time.RFC3339, last); err != nil {
			return nil, fmt.Errorf("failed to parse last_seen: %w", err)
		}
		summaries = append(summaries, fs)
	}
	return summaries, rows.Err()
}

// nullable converts an optional float into a driver-friendly value
func nullable(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
