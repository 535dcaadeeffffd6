// Package aircraft holds per-type performance reference data.
package aircraft

// Performance carries the reference speeds scoring targets are built
// from. Static lookup data, keyed by type designator.
type Performance struct {
	Type            string  `json:"ac_type" toml:"ac_type"`
	ApproachSpeedKt float64 `json:"appr_speed" toml:"appr_speed"`
	DirtyStallKt    float64 `json:"dirty_stall" toml:"dirty_stall"`
	CleanStallKt    float64 `json:"clean_stall" toml:"clean_stall"`
}
