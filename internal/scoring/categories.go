package scoring

import (
	"fmt"
	"math"

	"github.com/bmacd/skyscore/internal/approach"
)

// Category thresholds. These numeric boundaries are the grading scheme's
// source of truth; they are not derived from localizer dot geometry.
const (
	gsDangerousBelowFt  = -200.0
	gsBelowFt           = -100.0
	gsAboveFt           = 150.0
	climbVSFpm          = 200.0
	stabSpeedTolKt      = 10.0
	stabGSTolFt         = 150.0
	stabCrossTolFt      = 300.0
	clMaxOuterFt        = 500.0
	clMaxInnerFt        = 300.0
	clAvgOuterFt        = 200.0
	clAvgInnerFt        = 100.0
	steepBankDeg        = 30.0
	xingHysteresisFt    = 50.0
	speedDevMajorKt     = 15.0
	speedDevMinorKt     = 10.0
	speedOutOfTolShare  = 0.3
	thresholdWindowNM   = 0.15
	thresholdVeryLowFt  = 20.0
	thresholdLowFt      = 35.0
	thresholdHighFt     = 100.0
	thresholdSlightFt   = 75.0
)

func (c *CategoryScore) deduct(points int, format string, args ...interface{}) {
	if points <= 0 {
		return
	}
	c.Score -= points
	c.Deductions = append(c.Deductions, fmt.Sprintf("-%d: ", points)+fmt.Sprintf(format, args...))
}

func (c *CategoryScore) detail(format string, args ...interface{}) {
	c.Details = append(c.Details, fmt.Sprintf(format, args...))
}

func (c *CategoryScore) clamp() {
	if c.Score < 0 {
		c.Score = 0
	}
}

// scoreDescent grades glideslope tracking. Being below the glideslope is
// graded harder than being above it.
func scoreDescent(pts []approach.Point, max int) CategoryScore {
	c := CategoryScore{Score: max, Max: max}

	sum := 0.0
	wayBelow, below, above := 0, 0, 0
	for _, p := range pts {
		sum += p.GSDevFt
		switch {
		case p.GSDevFt < gsDangerousBelowFt:
			wayBelow++
		case p.GSDevFt < gsBelowFt:
			below++
		case p.GSDevFt > gsAboveFt:
			above++
		}
	}
	avg := sum / float64(len(pts))

	if wayBelow > 0 {
		c.deduct(min(10, wayBelow*2), "%d pts >200ft below glideslope (dangerous)", wayBelow)
	}
	if below > 0 {
		c.deduct(min(5, below), "%d pts 100-200ft below glideslope", below)
	}
	if above > 3 {
		c.deduct(min(3, (above-3)/2), "%d pts >150ft above glideslope", above)
	}

	climbing := 0
	for _, p := range pts {
		if p.VerticalSpeed != nil && *p.VerticalSpeed > climbVSFpm {
			climbing++
		}
	}
	if climbing > 0 {
		c.deduct(min(5, climbing), "%d pts climbing on approach", climbing)
	}

	c.clamp()
	c.detail("avg GS dev: %.0fft, below: %d, above: %d", avg, wayBelow+below, above)
	return c
}

// scoreStabilized grades how far out the approach first held speed,
// glideslope and centerline simultaneously, scanning far to near.
func scoreStabilized(pts []approach.Point, targetSpeedKt float64, max int, m *Metrics) CategoryScore {
	c := CategoryScore{Score: max, Max: max}

	stabilizedDist := 0.0
	for _, p := range pts {
		onSpeed := p.Speed != nil && math.Abs(*p.Speed-targetSpeedKt) <= stabSpeedTolKt
		onGS := math.Abs(p.GSDevFt) < stabGSTolFt
		onCL := math.Abs(p.CrossTrackFt) < stabCrossTolFt
		if onSpeed && onGS && onCL {
			stabilizedDist = p.DistNM
			break
		}
	}
	m.StabilizedDistNM = stabilizedDist
	c.detail("stabilized at %.2fnm", stabilizedDist)

	switch {
	case stabilizedDist < 1:
		c.deduct(15, "not stabilized until <1nm (go-around criteria)")
	case stabilizedDist < 2:
		c.deduct(10, "stabilized late (%.1fnm)", stabilizedDist)
	case stabilizedDist < 3:
		c.deduct(5, "stabilized at %.1fnm (ideal >3nm)", stabilizedDist)
	}

	c.clamp()
	return c
}

// scoreCenterline grades lateral tracking, allowing for the crosswind
// the pilot had to crab against.
func scoreCenterline(pts []approach.Point, crosswindKt, allowanceFtPerKt float64, max int, m *Metrics) CategoryScore {
	c := CategoryScore{Score: max, Max: max}

	xwMargin := crosswindKt * allowanceFtPerKt
	sum, maxCross := 0.0, 0.0
	for _, p := range pts {
		abs := math.Abs(p.CrossTrackFt)
		sum += abs
		if abs > maxCross {
			maxCross = abs
		}
	}
	avgCross := sum / float64(len(pts))

	adjMax := maxCross - xwMargin
	if adjMax < 0 {
		adjMax = 0
	}
	if adjMax > clMaxOuterFt {
		c.deduct(10, "max deviation %.0fft", maxCross)
	} else if adjMax > clMaxInnerFt {
		c.deduct(5, "max deviation %.0fft", maxCross)
	}

	if avgCross > clAvgOuterFt {
		c.deduct(5, "avg deviation %.0fft", avgCross)
	} else if avgCross > clAvgInnerFt {
		c.deduct(2, "avg deviation %.0fft", avgCross)
	}

	c.clamp()
	c.detail("avg: %.0fft, max: %.0fft, crosswind allowance: %.0fft", avgCross, maxCross, xwMargin)
	m.MaxCrosstrackFt = maxCross
	m.AvgCrosstrackFt = avgCross
	return c
}

// scoreTurnToFinal grades the turn onto the approach course: excessive
// bank and centerline overshoots (S-turns).
func scoreTurnToFinal(pts []approach.Point, max int, m *Metrics) CategoryScore {
	c := CategoryScore{Score: max, Max: max}

	maxBank, steep := 0.0, 0
	for _, p := range pts {
		if p.BankDeg > maxBank {
			maxBank = p.BankDeg
		}
		if p.BankDeg > steepBankDeg {
			steep++
		}
	}
	if steep > 0 {
		c.deduct(min(10, steep*2), "%d pts with bank >30° (max %.1f°)", steep, maxBank)
	}

	// Count side-to-side crossings with hysteresis so centerline jitter
	// doesn't register as S-turns
	crossings := 0
	prevSide := 0
	for _, p := range pts {
		side := 0
		if p.CrossTrackFt > xingHysteresisFt {
			side = 1
		} else if p.CrossTrackFt < -xingHysteresisFt {
			side = -1
		}
		if side != 0 {
			if prevSide != 0 && side != prevSide {
				crossings++
			}
			prevSide = side
		}
	}
	if crossings > 1 {
		c.deduct(min(5, (crossings-1)*2), "%d centerline crossings (S-turns)", crossings)
	}

	c.clamp()
	c.detail("max bank: %.1f°, centerline crossings: %d", maxBank, crossings)
	m.MaxBankDeg = maxBank
	m.CenterlineXings = crossings
	return c
}

// scoreSpeedControl grades speed discipline against the target approach
// speed, widening the tolerance when the wind is gusting.
func scoreSpeedControl(pts []approach.Point, targetSpeedKt, gustKt float64, max int, m *Metrics) CategoryScore {
	c := CategoryScore{Score: max, Max: max}

	tolerance := 5.0
	if gustKt > 0 {
		tolerance += gustKt / 2
	}

	sum, maxDev := 0.0, 0.0
	count, outOfTol := 0, 0
	for _, p := range pts {
		if p.Speed == nil {
			continue
		}
		count++
		sum += *p.Speed
		dev := math.Abs(*p.Speed - targetSpeedKt)
		if dev > maxDev {
			maxDev = dev
		}
		if dev > tolerance {
			outOfTol++
		}
	}
	if count == 0 {
		c.detail("no speed data")
		return c
	}
	avg := sum / float64(count)

	if maxDev > speedDevMajorKt {
		c.deduct(8, "speed varied %.0fkt from target", maxDev)
	} else if maxDev > speedDevMinorKt {
		c.deduct(4, "speed varied %.0fkt from target", maxDev)
	}

	if float64(outOfTol) > float64(count)*speedOutOfTolShare {
		c.deduct(4, "%d/%d pts outside ±%.0fkt", outOfTol, count, tolerance)
	}

	c.clamp()
	c.detail("target: %.0fkt ±%.1fkt, avg: %.0fkt", targetSpeedKt, tolerance, avg)
	m.AvgSpeedKt = avg
	m.MaxSpeedDevKt = maxDev
	return c
}

// scoreThresholdCrossing grades height over the threshold (target 50ft),
// using the nearest point inside the threshold window. No data inside the
// window zeroes the category with an explicit reason.
func scoreThresholdCrossing(pts []approach.Point, max int, m *Metrics) CategoryScore {
	c := CategoryScore{Score: max, Max: max}

	var thresholdAGL *float64
	for _, p := range pts { // far-to-near: the last match is the closest
		if p.DistNM < thresholdWindowNM {
			agl := p.AGLFt
			thresholdAGL = &agl
		}
	}

	if thresholdAGL == nil {
		c.Score = 0
		c.detail("no data near threshold")
		c.Deductions = append(c.Deductions, fmt.Sprintf("-%d: no threshold crossing data", max))
		return c
	}

	agl := *thresholdAGL
	m.ThresholdAGLFt = thresholdAGL
	c.detail("crossed at %.0fft AGL (target 50ft)", agl)

	switch {
	case agl < thresholdVeryLowFt:
		c.deduct(8, "too low! %.0fft AGL (dangerous)", agl)
	case agl < thresholdLowFt:
		c.deduct(4, "low crossing %.0fft AGL", agl)
	case agl > thresholdHighFt:
		c.deduct(5, "high crossing %.0fft (long landing)", agl)
	case agl > thresholdSlightFt:
		c.deduct(2, "slightly high %.0fft", agl)
	}

	c.clamp()
	return c
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
