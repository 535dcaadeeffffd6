package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config is the top-level application configuration, loaded from TOML.
// All scoring and preprocessing thresholds live here so a score is
// reproducible from (trajectory, config snapshot) alone.
type Config struct {
	Station       StationConfig       `toml:"station"`
	Server        ServerConfig        `toml:"server"`
	Logging       LoggingConfig       `toml:"logging"`
	Storage       StorageConfig       `toml:"storage"`
	Preprocessing PreprocessingConfig `toml:"preprocessing"`
	Projection    ProjectionConfig    `toml:"projection"`
	Scoring       ScoringConfig       `toml:"scoring"`
	Batch         BatchConfig         `toml:"batch"`
}

// StationConfig identifies the airport the system watches
type StationConfig struct {
	AirportICAO string  `toml:"airport_icao"`
	Latitude    float64 `toml:"latitude"`
	Longitude   float64 `toml:"longitude"`
	ElevationFt float64 `toml:"elevation_ft"`
}

// ServerConfig configures the HTTP facade
type ServerConfig struct {
	Host               string   `toml:"host"`
	Port               int      `toml:"port"`
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`
	ReadTimeoutSecs    int      `toml:"read_timeout_secs"`
	WriteTimeoutSecs   int      `toml:"write_timeout_secs"`
}

// LoggingConfig configures the zap logger
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// StorageConfig configures the SQLite store
type StorageConfig struct {
	DatabasePath string `toml:"database_path"`
}

// PreprocessingConfig holds the ghost-flight, touch-and-go and truncation
// thresholds.
type PreprocessingConfig struct {
	MinTrackPoints     int     `toml:"min_track_points"`
	GhostMinAGLFt      float64 `toml:"ghost_min_agl_ft"`
	GhostAltRangeFt    float64 `toml:"ghost_alt_range_ft"`
	GhostLastAGLFt     float64 `toml:"ghost_last_agl_ft"`
	GhostFinalSpeedKt  float64 `toml:"ghost_final_speed_kt"`
	ValleyAGLFt        float64 `toml:"valley_agl_ft"`
	ValleyMergeSecs    float64 `toml:"valley_merge_secs"`
	LegClimbFt         float64 `toml:"leg_climb_ft"`
	TruncateRadiusNM   float64 `toml:"truncate_radius_nm"`
	TruncateEntryAGLFt float64 `toml:"truncate_entry_agl_ft"`
}

// ProjectionConfig holds the approach-window geometry
type ProjectionConfig struct {
	GlideslopeDeg       float64 `toml:"glideslope_deg"`
	TCHFt               float64 `toml:"tch_ft"`
	HeadingToleranceDeg float64 `toml:"heading_tolerance_deg"`
	MaxRangeNM          float64 `toml:"max_range_nm"`
}

// ScoringConfig holds category maxima, severe penalties and fallback
// aircraft reference speeds. Category maxima must sum to 100.
type ScoringConfig struct {
	DescentMax           int     `toml:"descent_max"`
	StabilizedMax        int     `toml:"stabilized_max"`
	CenterlineMax        int     `toml:"centerline_max"`
	TurnToFinalMax       int     `toml:"turn_to_final_max"`
	SpeedControlMax      int     `toml:"speed_control_max"`
	ThresholdMax         int     `toml:"threshold_max"`
	CFITPenalty          int     `toml:"cfit_penalty"`
	StallPenalty         int     `toml:"stall_penalty"`
	DefaultTargetSpeedKt float64 `toml:"default_target_speed_kt"`
	DefaultDirtyStallKt  float64 `toml:"default_dirty_stall_kt"`
	CrosswindFtPerKt     float64 `toml:"crosswind_ft_per_kt"`
}

// BatchConfig holds batch driver defaults; flags may override per run
type BatchConfig struct {
	Days         int     `toml:"days"`
	Limit        int     `toml:"limit"`
	MinAltFt     float64 `toml:"min_alt_ft"`
	Workers      int     `toml:"workers"`
	MinPoints    int     `toml:"min_points"`
	CallsignLike string  `toml:"callsign_like"`
}

// ValidationError indicates the configuration is unusable. It is fatal:
// a corrupted weight table invalidates every score produced under it.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Reason)
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Station: StationConfig{
			AirportICAO: "KHPN",
			Latitude:    41.0670,
			Longitude:   -73.7076,
			ElevationFt: 439,
		},
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               5002,
			CORSAllowedOrigins: []string{"*"},
			ReadTimeoutSecs:    30,
			WriteTimeoutSecs:   60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Storage: StorageConfig{
			DatabasePath: "skyscore.db",
		},
		Preprocessing: PreprocessingConfig{
			MinTrackPoints:     5,
			GhostMinAGLFt:      3000,
			GhostAltRangeFt:    500,
			GhostLastAGLFt:     2000,
			GhostFinalSpeedKt:  200,
			ValleyAGLFt:        500,
			ValleyMergeSecs:    60,
			LegClimbFt:         300,
			TruncateRadiusNM:   15,
			TruncateEntryAGLFt: 5000,
		},
		Projection: ProjectionConfig{
			GlideslopeDeg:       3.0,
			TCHFt:               50,
			HeadingToleranceDeg: 30,
			MaxRangeNM:          10,
		},
		Scoring: ScoringConfig{
			DescentMax:           20,
			StabilizedMax:        20,
			CenterlineMax:        20,
			TurnToFinalMax:       15,
			SpeedControlMax:      15,
			ThresholdMax:         10,
			CFITPenalty:          20,
			StallPenalty:         20,
			DefaultTargetSpeedKt: 70,
			DefaultDirtyStallKt:  45,
			CrosswindFtPerKt:     20,
		},
		Batch: BatchConfig{
			Days:         30,
			Limit:        1000,
			MinAltFt:     2000,
			Workers:      4,
			MinPoints:    10,
			CallsignLike: "N%",
		},
	}
}

// Load reads a TOML config file over the defaults and validates the result
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MaxTotal returns the maximum attainable category total
func (s *ScoringConfig) MaxTotal() int {
	return s.DescentMax + s.StabilizedMax + s.CenterlineMax +
		s.TurnToFinalMax + s.SpeedControlMax + s.ThresholdMax
}

// Validate checks invariants at load time, before anything is scored
func (c *Config) Validate() error {
	if total := c.Scoring.MaxTotal(); total != 100 {
		return &ValidationError{
			Field:  "scoring",
			Reason: fmt.Sprintf("category maxima must sum to 100, got %d", total),
		}
	}
	for _, check := range []struct {
		name string
		val  int
	}{
		{"scoring.descent_max", c.Scoring.DescentMax},
		{"scoring.stabilized_max", c.Scoring.StabilizedMax},
		{"scoring.centerline_max", c.Scoring.CenterlineMax},
		{"scoring.turn_to_final_max", c.Scoring.TurnToFinalMax},
		{"scoring.speed_control_max", c.Scoring.SpeedControlMax},
		{"scoring.threshold_max", c.Scoring.ThresholdMax},
		{"scoring.cfit_penalty", c.Scoring.CFITPenalty},
		{"scoring.stall_penalty", c.Scoring.StallPenalty},
	} {
		if check.val < 0 {
			return &ValidationError{Field: check.name, Reason: "must not be negative"}
		}
	}
	if c.Projection.GlideslopeDeg <= 0 || c.Projection.GlideslopeDeg >= 10 {
		return &ValidationError{
			Field:  "projection.glideslope_deg",
			Reason: fmt.Sprintf("must be in (0, 10), got %g", c.Projection.GlideslopeDeg),
		}
	}
	if c.Projection.HeadingToleranceDeg <= 0 || c.Projection.HeadingToleranceDeg > 180 {
		return &ValidationError{
			Field:  "projection.heading_tolerance_deg",
			Reason: fmt.Sprintf("must be in (0, 180], got %g", c.Projection.HeadingToleranceDeg),
		}
	}
	if c.Projection.MaxRangeNM <= 0 {
		return &ValidationError{Field: "projection.max_range_nm", Reason: "must be positive"}
	}
	if c.Projection.TCHFt < 0 {
		return &ValidationError{Field: "projection.tch_ft", Reason: "must not be negative"}
	}
	for _, check := range []struct {
		name string
		val  float64
	}{
		{"preprocessing.ghost_min_agl_ft", c.Preprocessing.GhostMinAGLFt},
		{"preprocessing.ghost_alt_range_ft", c.Preprocessing.GhostAltRangeFt},
		{"preprocessing.ghost_last_agl_ft", c.Preprocessing.GhostLastAGLFt},
		{"preprocessing.ghost_final_speed_kt", c.Preprocessing.GhostFinalSpeedKt},
		{"preprocessing.valley_agl_ft", c.Preprocessing.ValleyAGLFt},
		{"preprocessing.valley_merge_secs", c.Preprocessing.ValleyMergeSecs},
		{"preprocessing.leg_climb_ft", c.Preprocessing.LegClimbFt},
		{"preprocessing.truncate_radius_nm", c.Preprocessing.TruncateRadiusNM},
		{"preprocessing.truncate_entry_agl_ft", c.Preprocessing.TruncateEntryAGLFt},
	} {
		if check.val <= 0 {
			return &ValidationError{Field: check.name, Reason: "must be positive"}
		}
	}
	if c.Preprocessing.MinTrackPoints < 2 {
		return &ValidationError{Field: "preprocessing.min_track_points", Reason: "must be at least 2"}
	}
	return nil
}
