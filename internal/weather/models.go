// Package weather holds METAR observation data used as scoring context.
package weather

import "time"

// Observation is one METAR surface observation, resolved from the store
// by airport and time window. The engine consumes it as a value object
// and never queries anything itself.
type Observation struct {
	Airport       string    `json:"airport" toml:"airport"`
	Time          time.Time `json:"observation_time" toml:"observation_time"`
	WindDirDeg    *float64  `json:"wind_dir_degrees,omitempty" toml:"wind_dir_degrees"` // nil when variable/missing
	WindSpeedKt   float64   `json:"wind_speed_kt" toml:"wind_speed_kt"`
	WindGustKt    float64   `json:"wind_gust_kt,omitempty" toml:"wind_gust_kt"`
	AltimeterInHg *float64  `json:"altimeter_inhg,omitempty" toml:"altimeter_inhg"`
	TempC         *float64  `json:"temp_c,omitempty" toml:"temp_c"`
	VisibilityMi  *float64  `json:"visibility_miles,omitempty" toml:"visibility_miles"`
	RawText       string    `json:"raw_text,omitempty" toml:"raw_text"`
}
