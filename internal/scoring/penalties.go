package scoring

import (
	"fmt"

	"github.com/bmacd/skyscore/internal/approach"
	"github.com/bmacd/skyscore/internal/config"
)

// Severe-penalty boundaries. Flat deductions, independent of point count.
const (
	cfitAGLCeilingFt = 500.0
	cfitGSDevFt      = -50.0
	stallAGLFloorFt  = 50.0
	stallMarginKt    = 10.0
)

// checkSeverePenalties looks for safety-critical conditions: descending
// below the glideslope while already low (CFIT risk), and flying near
// stall speed with height left to fall (stall risk). Both can fire on the
// same approach.
func checkSeverePenalties(pts []approach.Point, dirtyStallKt float64, cfg config.ScoringConfig) []SeverePenalty {
	var penalties []SeverePenalty

	cfitCount, worstDev := 0, 0.0
	for _, p := range pts {
		if p.AGLFt < cfitAGLCeilingFt && p.GSDevFt < cfitGSDevFt {
			cfitCount++
			if p.GSDevFt < worstDev {
				worstDev = p.GSDevFt
			}
		}
	}
	if cfitCount > 0 {
		penalties = append(penalties, SeverePenalty{
			Kind:        PenaltyCFITRisk,
			Description: "below glideslope when low",
			Detail:      fmt.Sprintf("%d pts below GS when <%.0fft AGL (worst: %.0fft)", cfitCount, cfitAGLCeilingFt, worstDev),
			Points:      cfg.CFITPenalty,
		})
	}

	stallCount, lowest := 0, 0.0
	for _, p := range pts {
		if p.AGLFt > stallAGLFloorFt && p.Speed != nil && *p.Speed < dirtyStallKt+stallMarginKt {
			if stallCount == 0 || *p.Speed < lowest {
				lowest = *p.Speed
			}
			stallCount++
		}
	}
	if stallCount > 0 {
		penalties = append(penalties, SeverePenalty{
			Kind:        PenaltyStallRisk,
			Description: "near stall speed when high",
			Detail: fmt.Sprintf("%d pts within %.0fkt of stall (%.0fkt, Vs %.0fkt, margin %.0fkt)",
				stallCount, stallMarginKt, lowest, dirtyStallKt, lowest-dirtyStallKt),
			Points: cfg.StallPenalty,
		})
	}

	return penalties
}
