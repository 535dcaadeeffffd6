package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bmacd/skyscore/internal/scoring"
	"github.com/bmacd/skyscore/pkg/logger"
)

// ScoreStorage persists scoring attempts, per-approach results and the
// rolling fleet benchmarks derived from them.
type ScoreStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewScoreStorage creates a new SQLite score storage
func NewScoreStorage(db *sql.DB, logger *logger.Logger) *ScoreStorage {
	storage := &ScoreStorage{
		db:     db,
		logger: logger.Named("sqlite-scores"),
	}

	if err := storage.initDB(); err != nil {
		storage.logger.Error("Failed to initialize score storage", Error(err))
	}

	return storage
}

// initDB initializes the database tables
func (s *ScoreStorage) initDB() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS scoring_attempts (
			gufi TEXT PRIMARY KEY,
			callsign TEXT,
			attempt_time TIMESTAMP NOT NULL,
			success INTEGER NOT NULL DEFAULT 0,
			failure_reason TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS approach_scores (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			gufi TEXT NOT NULL UNIQUE,
			callsign TEXT,
			ac_type TEXT,
			airport TEXT,
			runway TEXT,
			approach_time TIMESTAMP,
			scored_at TIMESTAMP NOT NULL,
			scoring_version TEXT NOT NULL,
			descent_score INTEGER NOT NULL,
			stabilized_score INTEGER NOT NULL,
			centerline_score INTEGER NOT NULL,
			turn_to_final_score INTEGER NOT NULL,
			speed_control_score INTEGER NOT NULL,
			threshold_score INTEGER NOT NULL,
			penalty_points INTEGER NOT NULL DEFAULT 0,
			total_score INTEGER NOT NULL,
			max_score INTEGER NOT NULL,
			percentage INTEGER NOT NULL,
			grade TEXT NOT NULL,
			stabilized_dist_nm REAL,
			max_bank_deg REAL,
			max_crosstrack_ft REAL,
			avg_crosstrack_ft REAL,
			avg_speed_kt REAL,
			max_speed_dev_kt REAL,
			centerline_xings INTEGER,
			threshold_agl_ft REAL,
			wind_dir_degrees REAL,
			wind_speed_kt REAL,
			wind_gust_kt REAL,
			crosswind_kt REAL,
			severe_penalties_json TEXT,
			score_details_json TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scores_callsign ON approach_scores(callsign)`,
		`CREATE INDEX IF NOT EXISTS idx_scores_airport ON approach_scores(airport)`,
		`CREATE INDEX IF NOT EXISTS idx_scores_time ON approach_scores(approach_time)`,
		`CREATE TABLE IF NOT EXISTS approach_benchmarks (
			dimension TEXT NOT NULL,
			key TEXT NOT NULL,
			sample_count INTEGER NOT NULL,
			avg_percentage REAL NOT NULL,
			avg_total REAL NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			PRIMARY KEY (dimension, key)
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize score tables: %w", err)
		}
	}
	return nil
}

// Attempt records one scoring pass over a flight, successful or not. The
// failure reason keeps the audit trail for discarded and unscoreable
// tracks so a batch rerun can explain every skipped flight.
type Attempt struct {
	GUFI          string    `json:"gufi"`
	Callsign      string    `json:"callsign"`
	AttemptTime   time.Time `json:"attempt_time"`
	Success       bool      `json:"success"`
	FailureReason string    `json:"failure_reason,omitempty"`
}

// RecordAttempt upserts the attempt row for a flight. Flags from
// preprocessing are folded into the failure reason so the full story of
// a track lives in one column.
func (s *ScoreStorage) RecordAttempt(a *Attempt, flags []string) error {
	reason := a.FailureReason
	if len(flags) > 0 {
		if reason != "" {
			reason += "; "
		}
		reason += strings.Join(flags, "; ")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM scoring_attempts WHERE gufi = ?`, a.GUFI); err != nil {
		return fmt.Errorf("failed to clear previous attempt: %w", err)
	}
	_, err = tx.Exec(
		`INSERT INTO scoring_attempts (gufi, callsign, attempt_time, success, failure_reason)
		VALUES (?, ?, ?, ?, ?)`,
		a.GUFI, a.Callsign, a.AttemptTime.UTC().Format(time.RFC3339), a.Success, reason,
	)
	if err != nil {
		return fmt.Errorf("failed to record attempt for %s: %w", a.GUFI, err)
	}
	return tx.Commit()
}

// GetAttempt returns the attempt row for a flight, or ErrNotFound
func (s *ScoreStorage) GetAttempt(gufi string) (*Attempt, error) {
	var (
		a       Attempt
		ts      string
		reason  sql.NullString
		success int
	)
	err := s.db.QueryRow(
		`SELECT gufi, callsign, attempt_time, success, failure_reason
		FROM scoring_attempts WHERE gufi = ?`,
		gufi,
	).Scan(&a.GUFI, &a.Callsign, &ts, &success, &reason)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("attempt %s: %w", gufi, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query attempt %s: %w", gufi, err)
	}
	if a.AttemptTime, err = time.Parse(time.RFC3339, ts); err != nil {
		return nil, fmt.Errorf("failed to parse attempt_time: %w", err)
	}
	a.Success = success != 0
	a.FailureReason = reason.String
	return &a, nil
}

// ScoreRecord is one persisted approach score, flat for list views with
// the full category breakdown carried as JSON.
type ScoreRecord struct {
	GUFI            string                  `json:"gufi"`
	Callsign        string                  `json:"callsign"`
	AircraftType    string                  `json:"ac_type,omitempty"`
	Airport         string                  `json:"airport,omitempty"`
	Runway          string                  `json:"runway,omitempty"`
	ApproachTime    time.Time               `json:"approach_time"`
	ScoredAt        time.Time               `json:"scored_at"`
	ScoringVersion  string                  `json:"scoring_version"`
	Descent         int                     `json:"descent_score"`
	Stabilized      int                     `json:"stabilized_score"`
	Centerline      int                     `json:"centerline_score"`
	TurnToFinal     int                     `json:"turn_to_final_score"`
	SpeedControl    int                     `json:"speed_control_score"`
	Threshold       int                     `json:"threshold_score"`
	PenaltyPoints   int                     `json:"penalty_points"`
	Total           int                     `json:"total_score"`
	MaxTotal        int                     `json:"max_score"`
	Percentage      int                     `json:"percentage"`
	Grade           string                  `json:"grade"`
	Metrics         scoring.Metrics         `json:"metrics"`
	Wind            scoring.WindContext     `json:"wind"`
	SeverePenalties []scoring.SeverePenalty `json:"severe_penalties,omitempty"`
	Details         json.RawMessage         `json:"details,omitempty"`
}

// StoreScore persists one approach result, replacing any earlier score
// for the same flight.
func (s *ScoreStorage) StoreScore(gufi, callsign, acType, airport, runwayDesignator string, approachTime time.Time, res *scoring.Result) error {
	penaltyPoints := 0
	for _, p := range res.SeverePenalties {
		penaltyPoints += p.Points
	}

	details, err := json.Marshal(res.Categories)
	if err != nil {
		return fmt.Errorf("failed to marshal score details: %w", err)
	}
	penaltiesJSON, err := json.Marshal(res.SeverePenalties)
	if err != nil {
		return fmt.Errorf("failed to marshal severe penalties: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO approach_scores
		(gufi, callsign, ac_type, airport, runway, approach_time, scored_at, scoring_version,
		 descent_score, stabilized_score, centerline_score, turn_to_final_score,
		 speed_control_score, threshold_score, penalty_points,
		 total_score, max_score, percentage, grade,
		 stabilized_dist_nm, max_bank_deg, max_crosstrack_ft, avg_crosstrack_ft,
		 avg_speed_kt, max_speed_dev_kt, centerline_xings, threshold_agl_ft,
		 wind_dir_degrees, wind_speed_kt, wind_gust_kt, crosswind_kt,
		 severe_penalties_json, score_details_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(gufi) DO UPDATE SET
			callsign = excluded.callsign,
			ac_type = excluded.ac_type,
			airport = excluded.airport,
			runway = excluded.runway,
			approach_time = excluded.approach_time,
			scored_at = excluded.scored_at,
			scoring_version = excluded.scoring_version,
			descent_score = excluded.descent_score,
			stabilized_score = excluded.stabilized_score,
			centerline_score = excluded.centerline_score,
			turn_to_final_score = excluded.turn_to_final_score,
			speed_control_score = excluded.speed_control_score,
			threshold_score = excluded.threshold_score,
			penalty_points = excluded.penalty_points,
			total_score = excluded.total_score,
			max_score = excluded.max_score,
			percentage = excluded.percentage,
			grade = excluded.grade,
			stabilized_dist_nm = excluded.stabilized_dist_nm,
			max_bank_deg = excluded.max_bank_deg,
			max_crosstrack_ft = excluded.max_crosstrack_ft,
			avg_crosstrack_ft = excluded.avg_crosstrack_ft,
			avg_speed_kt = excluded.avg_speed_kt,
			max_speed_dev_kt = excluded.max_speed_dev_kt,
			centerline_xings = excluded.centerline_xings,
			threshold_agl_ft = excluded.threshold_agl_ft,
			wind_dir_degrees = excluded.wind_dir_degrees,
			wind_speed_kt = excluded.wind_speed_kt,
			wind_gust_kt = excluded.wind_gust_kt,
			crosswind_kt = excluded.crosswind_kt,
			severe_penalties_json = excluded.severe_penalties_json,
			score_details_json = excluded.score_details_json`,
		gufi, callsign, acType, airport, runwayDesignator,
		approachTime.UTC().Format(time.RFC3339), res.ScoredAt.UTC().Format(time.RFC3339), res.Version,
		res.Categories.Descent.Score, res.Categories.Stabilized.Score,
		res.Categories.Centerline.Score, res.Categories.TurnToFinal.Score,
		res.Categories.SpeedControl.Score, res.Categories.ThresholdCrossing.Score, penaltyPoints,
		res.Total, res.MaxTotal, res.Percentage, res.Grade,
		res.Metrics.StabilizedDistNM, res.Metrics.MaxBankDeg,
		res.Metrics.MaxCrosstrackFt, res.Metrics.AvgCrosstrackFt,
		res.Metrics.AvgSpeedKt, res.Metrics.MaxSpeedDevKt,
		res.Metrics.CenterlineXings, nullable(res.Metrics.ThresholdAGLFt),
		nullable(res.Wind.DirDeg), res.Wind.SpeedKt, res.Wind.GustKt, res.Wind.CrosswindKt,
		string(penaltiesJSON), string(details),
	)
	if err != nil {
		return fmt.Errorf("failed to store score for %s: %w", gufi, err)
	}
	return nil
}

// GetScore returns the stored score for a flight, or ErrNotFound
func (s *ScoreStorage) GetScore(gufi string) (*ScoreRecord, error) {
	row := s.db.QueryRow(scoreSelect+` WHERE gufi = ?`, gufi)
	rec, err := scanScore(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("score %s: %w", gufi, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query score %s: %w", gufi, err)
	}
	return rec, nil
}

// ScoreFilter narrows list queries over stored scores
type ScoreFilter struct {
	Callsign string
	Airport  string
	Grade    string
	Limit    int
}

// ListScores returns stored scores, newest approach first
func (s *ScoreStorage) ListScores(f ScoreFilter) ([]*ScoreRecord, error) {
	query := scoreSelect + ` WHERE 1=1`
	args := []interface{}{}
	if f.Callsign != "" {
		query += ` AND callsign = ?`
		args = append(args, f.Callsign)
	}
	if f.Airport != "" {
		query += ` AND airport = ?`
		args = append(args, f.Airport)
	}
	if f.Grade != "" {
		query += ` AND grade = ?`
		args = append(args, f.Grade)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` ORDER BY approach_time DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scores: %w", err)
	}
	defer rows.Close()

	var records []*ScoreRecord
	for rows.Next() {
		rec, err := scanScore(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

const scoreSelect = `
	SELECT gufi, callsign, ac_type, airport, runway, approach_time, scored_at, scoring_version,
		descent_score, stabilized_score, centerline_score, turn_to_final_score,
		speed_control_score, threshold_score, penalty_points,
		total_score, max_score, percentage, grade,
		stabilized_dist_nm, max_bank_deg, max_crosstrack_ft, avg_crosstrack_ft,
		avg_speed_kt, max_speed_dev_kt, centerline_xings, threshold_agl_ft,
		wind_dir_degrees, wind_speed_kt, wind_gust_kt, crosswind_kt,
		severe_penalties_json, score_details_json
	FROM approach_scores`

// scanner is satisfied by both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanScore(row scanner) (*ScoreRecord, error) {
	var (
		rec                        ScoreRecord
		acType, airport, rwy       sql.NullString
		approachTime, scoredAt     string
		stabDist, maxBank          sql.NullFloat64
		maxXtrack, avgXtrack       sql.NullFloat64
		avgSpeed, maxSpeedDev      sql.NullFloat64
		xings                      sql.NullInt64
		thresholdAGL, windDir      sql.NullFloat64
		windSpeed, windGust, xwind sql.NullFloat64
		penaltiesJSON, detailsJSON sql.NullString
	)
	err := row.Scan(&rec.GUFI, &rec.Callsign, &acType, &airport, &rwy, &approachTime, &scoredAt, &rec.ScoringVersion,
		&rec.Descent, &rec.Stabilized, &rec.Centerline, &rec.TurnToFinal,
		&rec.SpeedControl, &rec.Threshold, &rec.PenaltyPoints,
		&rec.Total, &rec.MaxTotal, &rec.Percentage, &rec.Grade,
		&stabDist, &maxBank, &maxXtrack, &avgXtrack,
		&avgSpeed, &maxSpeedDev, &xings, &thresholdAGL,
		&windDir, &windSpeed, &windGust, &xwind,
		&penaltiesJSON, &detailsJSON)
	if err != nil {
		return nil, err
	}

	rec.AircraftType = acType.String
	rec.Airport = airport.String
	rec.Runway = rwy.String
	if rec.ApproachTime, err = time.Parse(time.RFC3339, approachTime); err != nil {
		return nil, fmt.Errorf("failed to parse approach_time: %w", err)
	}
	if rec.ScoredAt, err = time.Parse(time.RFC3339, scoredAt); err != nil {
		return nil, fmt.Errorf("failed to parse scored_at: %w", err)
	}

	rec.Metrics.StabilizedDistNM = stabDist.Float64
	rec.Metrics.MaxBankDeg = maxBank.Float64
	rec.Metrics.MaxCrosstrackFt = maxXtrack.Float64
	rec.Metrics.AvgCrosstrackFt = avgXtrack.Float64
	rec.Metrics.AvgSpeedKt = avgSpeed.Float64
	rec.Metrics.MaxSpeedDevKt = maxSpeedDev.Float64
	rec.Metrics.CenterlineXings = int(xings.Int64)
	if thresholdAGL.Valid {
		v := thresholdAGL.Float64
		rec.Metrics.ThresholdAGLFt = &v
	}

	if windDir.Valid {
		v := windDir.Float64
		rec.Wind.DirDeg = &v
	}
	rec.Wind.SpeedKt = windSpeed.Float64
	rec.Wind.GustKt = windGust.Float64
	rec.Wind.CrosswindKt = xwind.Float64

	if penaltiesJSON.Valid && penaltiesJSON.String != "" && penaltiesJSON.String != "null" {
		if err := json.Unmarshal([]byte(penaltiesJSON.String), &rec.SeverePenalties); err != nil {
			return nil, fmt.Errorf("failed to unmarshal severe penalties: %w", err)
		}
	}
	if detailsJSON.Valid {
		rec.Details = json.RawMessage(detailsJSON.String)
	}
	return &rec, nil
}

// GradeCount is one bucket of the grade histogram
type GradeCount struct {
	Grade string `json:"grade"`
	Count int    `json:"count"`
}

// Summary returns the grade distribution over all stored scores
func (s *ScoreStorage) Summary() ([]GradeCount, error) {
	rows, err := s.db.Query(
		`SELECT grade, COUNT(*) FROM approach_scores GROUP BY grade ORDER BY grade`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query grade summary: %w", err)
	}
	defer rows.Close()

	var summary []GradeCount
	for rows.Next() {
		var gc GradeCount
		if err := rows.Scan(&gc.Grade, &gc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan grade count: %w", err)
		}
		summary = append(summary, gc)
	}
	return summary, rows.Err()
}

// Benchmark is one fleet average along a dimension (ac_type or airport)
type Benchmark struct {
	Dimension     string    `json:"dimension"`
	Key           string    `json:"key"`
	SampleCount   int       `json:"sample_count"`
	AvgPercentage float64   `json:"avg_percentage"`
	AvgTotal      float64   `json:"avg_total"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// UpdateBenchmarks recomputes the per-type and per-airport averages from
// all stored scores. Cheap enough to rerun after every batch.
func (s *ScoreStorage) UpdateBenchmarks() error {
	now := time.Now().UTC().Format(time.RFC3339)
	dims := []struct{ dimension, column string }{
		{"ac_type", "ac_type"},
		{"airport", "airport"},
	}
	for _, d := range dims {
		_, err := s.db.Exec(fmt.Sprintf(
			`INSERT INTO approach_benchmarks (dimension, key, sample_count, avg_percentage, avg_total, updated_at)
			SELECT ?, %s, COUNT(*), AVG(percentage), AVG(total_score), ?
			FROM approach_scores
			WHERE %s IS NOT NULL AND %s != ''
			GROUP BY %s
			ON CONFLICT(dimension, key) DO UPDATE SET
				sample_count = excluded.sample_count,
				avg_percentage = excluded.avg_percentage,
				avg_total = excluded.avg_total,
				updated_at = excluded.updated_at`,
			d.column, d.column, d.column, d.column),
			d.dimension, now,
		)
		if err != nil {
			return fmt.Errorf("failed to update %s benchmarks: %w", d.dimension, err)
		}
	}
	return nil
}

// GetBenchmarks returns all benchmarks along one dimension
func (s *ScoreStorage) GetBenchmarks(dimension string) ([]Benchmark, error) {
	rows, err := s.db.Query(
		`SELECT dimension, key, sample_count, avg_percentage, avg_total, updated_at
		FROM approach_benchmarks
		WHERE dimension = ?
		ORDER BY key`,
		dimension,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query benchmarks: %w", err)
	}
	defer rows.Close()

	var benchmarks []Benchmark
	for rows.Next() {
		var b Benchmark
		var updated string
		if err := rows.Scan(&b.Dimension, &b.Key, &b.SampleCount, &b.AvgPercentage, &b.AvgTotal, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan benchmark: %w", err)
		}
		if b.UpdatedAt, err = time.Parse(time.RFC3339, updated); err != nil {
			return nil, fmt.Errorf("failed to parse updated_at: %w", err)
		}
		benchmarks = append(benchmarks, b)
	}
	return benchmarks, rows.Err()
}
