package scoring

import "time"

// Version identifies the scoring algorithm revision stored with results
const Version = "1.0"

// Severe penalty kinds
const (
	PenaltyCFITRisk  = "CFIT_RISK"
	PenaltyStallRisk = "STALL_RISK"
)

// CategoryScore is one graded category: points remaining out of max plus
// the human-readable audit trail of how it got there.
type CategoryScore struct {
	Score      int      `json:"score"`
	Max        int      `json:"max"`
	Details    []string `json:"details,omitempty"`
	Deductions []string `json:"deductions,omitempty"`
}

// Categories holds all six category scores with explicit fields; the
// grading scheme is fixed, not a loose key/value table.
type Categories struct {
	Descent           CategoryScore `json:"descent"`
	Stabilized        CategoryScore `json:"stabilized"`
	Centerline        CategoryScore `json:"centerline"`
	TurnToFinal       CategoryScore `json:"turn_to_final"`
	SpeedControl      CategoryScore `json:"speed_control"`
	ThresholdCrossing CategoryScore `json:"threshold_crossing"`
}

// SeverePenalty is a flat safety deduction applied after category scoring
type SeverePenalty struct {
	Kind        string `json:"kind"`
	Description string `json:"description"`
	Detail      string `json:"detail"`
	Points      int    `json:"points"`
}

// WindContext records the wind used for crosswind and gust allowances
type WindContext struct {
	DirDeg      *float64 `json:"dir,omitempty"`
	SpeedKt     float64  `json:"speed"`
	GustKt      float64  `json:"gust"`
	CrosswindKt float64  `json:"crosswind"`
}

// AircraftContext records the reference speeds the score was graded against
type AircraftContext struct {
	TargetSpeedKt float64 `json:"target_speed"`
	DirtyStallKt  float64 `json:"dirty_stall"`
}

// Metrics are headline figures extracted during scoring, persisted as
// dedicated columns for benchmarking queries.
type Metrics struct {
	StabilizedDistNM float64  `json:"stabilized_dist_nm"`
	MaxBankDeg       float64  `json:"max_bank_deg"`
	MaxCrosstrackFt  float64  `json:"max_crosstrack_ft"`
	AvgCrosstrackFt  float64  `json:"avg_crosstrack_ft"`
	AvgSpeedKt       float64  `json:"avg_speed_kt"`
	MaxSpeedDevKt    float64  `json:"max_speed_dev_kt"`
	CenterlineXings  int      `json:"centerline_crossings"`
	ThresholdAGLFt   *float64 `json:"threshold_agl_ft,omitempty"`
}

// Result is the complete graded outcome for one approach leg. Immutable:
// re-scoring produces a new Result.
type Result struct {
	Version         string          `json:"version"`
	Categories      Categories      `json:"categories"`
	SeverePenalties []SeverePenalty `json:"severe_penalties,omitempty"`
	Total           int             `json:"total"`
	MaxTotal        int             `json:"max_total"`
	Percentage      int             `json:"percentage"`
	Grade           string          `json:"grade"`
	Metrics         Metrics         `json:"metrics"`
	Wind            WindContext     `json:"wind"`
	Aircraft        AircraftContext `json:"aircraft"`
	ScoredAt        time.Time       `json:"scored_at"`
}

// UnscoreableError means preprocessing succeeded but nothing could be
// graded: no runway match or no in-window approach points. It carries a
// specific reason for the attempt log.
type UnscoreableError struct {
	Reason string
}

func (e *UnscoreableError) Error() string {
	return "unscoreable: " + e.Reason
}
