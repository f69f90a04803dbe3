package spine2d

import "testing"

func TestCurveLinearInterpolatesHalfway(t *testing.T) {
	c := Curve{Type: CurveLinear}
	if v := c.evaluate(0, 1, 0, 10, 0.5); !near(v, 5) {
		t.Fatalf("evaluate = %v, want 5", v)
	}
}

func TestCurveSteppedHoldsStartValue(t *testing.T) {
	c := Curve{Type: CurveStepped}
	if v := c.evaluate(0, 1, 0, 10, 0.9); v != 0 {
		t.Fatalf("evaluate = %v, want 0 (stepped holds until next keyframe)", v)
	}
}

func TestCurveDegenerateSpanReturnsStartValue(t *testing.T) {
	c := Curve{Type: CurveLinear}
	if v := c.evaluate(1, 1, 3, 9, 1); v != 3 {
		t.Fatalf("evaluate over a zero-length span = %v, want 3", v)
	}
}

func TestCurveBezierEndpointsMatchKeyframeValues(t *testing.T) {
	c := Curve{Type: CurveBezier, P: [4]float32{0.25, 0.1, 0.75, 0.9}}
	if v := c.evaluate(0, 1, 0, 10, 0); !near(v, 0) {
		t.Fatalf("evaluate at t0 = %v, want 0", v)
	}
	if v := c.evaluate(0, 1, 0, 10, 1); !near(v, 10) {
		t.Fatalf("evaluate at t1 = %v, want 10", v)
	}
}

func TestCurveBezierLinearControlPointsApproximateLinear(t *testing.T) {
	// Control points on the identity diagonal reduce the bezier to a
	// linear ramp.
	c := Curve{Type: CurveBezier, P: [4]float32{1.0 / 3, 1.0 / 3, 2.0 / 3, 2.0 / 3}}
	v := c.evaluate(0, 1, 0, 100, 0.5)
	if v < 45 || v > 55 {
		t.Fatalf("evaluate at midpoint = %v, want close to 50", v)
	}
}

func TestBezierComponentEndpoints(t *testing.T) {
	if v := bezierComponent(0, 0.25, 0.75); v != 0 {
		t.Fatalf("bezierComponent(0) = %v, want 0", v)
	}
	if v := bezierComponent(1, 0.25, 0.75); v != 1 {
		t.Fatalf("bezierComponent(1) = %v, want 1", v)
	}
}
