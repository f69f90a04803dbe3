package spine2d

// curve.go implements the three keyframe interpolation kinds (spec §4.6).

// CurveType selects how a scalar channel interpolates from one keyframe to
// the next.
type CurveType uint8

const (
	CurveLinear CurveType = iota
	CurveStepped
	CurveBezier
)

// bezierSteps is the subdivision resolution used to invert the bezier
// time curve; spec §4.6 says a ten-step table is sufficient.
const bezierSteps = 10

// Curve is the outgoing interpolation from one keyframe to the next.
// For CurveBezier, P holds (cx1, cy1, cx2, cy2) in normalized time x value
// units between the two keyframes.
type Curve struct {
	Type CurveType
	P    [4]float32
}

// evaluate returns the interpolated value at time t, where t0/t1 are the
// bounding keyframe times and v0/v1 their values. Callers are expected to
// have already established t0 <= t <= t1.
func (c Curve) evaluate(t0, t1, v0, v1, t float32) float32 {
	switch c.Type {
	case CurveStepped:
		return v0
	case CurveBezier:
		if t1 <= t0 {
			return v0
		}
		p := bezierSolveForX((t - t0) / (t1 - t0), c.P)
		return v0 + p*(v1-v0)
	default: // CurveLinear
		if t1 <= t0 {
			return v0
		}
		frac := (t - t0) / (t1 - t0)
		return v0 + frac*(v1-v0)
	}
}

// bezierSolveForX finds the bezier curve parameter p such that
// bezierX(p) ≈ normalizedT, then returns bezierY(p). Both axes are
// normalized to [0,1] between consecutive keyframes, matching the Spine
// runtime's inline curve representation.
func bezierSolveForX(normalizedT float32, ctrl [4]float32) float32 {
	if normalizedT <= 0 {
		return 0
	}
	if normalizedT >= 1 {
		return 1
	}
	cx1, cy1, cx2, cy2 := ctrl[0], ctrl[1], ctrl[2], ctrl[3]

	// Precompute a fixed-resolution table of (x, y) points along the
	// curve and locate the segment containing normalizedT, then do one
	// linear interpolation within that segment.
	var prevX, prevY float32
	for i := 1; i <= bezierSteps; i++ {
		u := float32(i) / float32(bezierSteps)
		x := bezierComponent(u, cx1, cx2)
		y := bezierComponent(u, cy1, cy2)
		if normalizedT <= x {
			if x == prevX {
				return prevY
			}
			frac := (normalizedT - prevX) / (x - prevX)
			return prevY + frac*(y-prevY)
		}
		prevX, prevY = x, y
	}
	return prevY
}

// bezierComponent evaluates one axis of a cubic bezier whose start point is
// (0,0) and end point is (1,1), with control points at (c1, c2).
func bezierComponent(u, c1, c2 float32) float32 {
	v := 1 - u
	return 3*v*v*u*c1 + 3*v*u*u*c2 + u*u*u
}
