// Copyright 2026 The spine2d Authors.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package affine provides the scalar 2D affine math used by the bone
// transform kernel and the applied-transform inverse.
//
// Unlike a general purpose matrix package, the functions here work directly
// on the four scalar components of a 2x2 matrix (A, B, C, D) plus a
// translation, because the five bone inheritance modes each need to inspect
// or rewrite individual columns rather than treat the matrix as an opaque
// value. See SPEC_FULL.md for why this stays on explicit fields instead of
// github.com/go-gl/mathgl/mgl32.Mat2.
//
// Conventions: a 2x2 matrix is laid out
//
//	[A C]
//	[B D]
//
// i.e. (A, B) is the local x-axis column and (C, D) is the local y-axis
// column, matching the Spine runtime convention. Rotation is in radians
// unless a function name says degrees.
package affine

import "math"

const epsilon = 1e-12

// Mat2 is an explicitly addressable 2x2 matrix.
type Mat2 struct {
	A, B, C, D float32
}

// Identity returns the 2x2 identity matrix.
func Identity() Mat2 { return Mat2{A: 1, D: 1} }

// Mul composes m = lhs * rhs (apply rhs first, then lhs), matching the
// parent-then-child composition order used throughout the kernel.
func Mul(lhs, rhs Mat2) Mat2 {
	return Mat2{
		A: lhs.A*rhs.A + lhs.C*rhs.B,
		B: lhs.B*rhs.A + lhs.D*rhs.B,
		C: lhs.A*rhs.C + lhs.C*rhs.D,
		D: lhs.B*rhs.C + lhs.D*rhs.D,
	}
}

// MulVec applies m to the column vector (x, y).
func MulVec(m Mat2, x, y float32) (float32, float32) {
	return m.A*x + m.C*y, m.B*x + m.D*y
}

// Det returns the determinant of m.
func Det(m Mat2) float32 { return m.A*m.D - m.C*m.B }

// Invert returns the inverse of m. If m is singular (|det| < epsilon) the
// identity is returned, matching the reference runtime's silent no-op on
// degenerate geometry (spec §7).
func Invert(m Mat2) Mat2 {
	det := Det(m)
	if float32(math.Abs(float64(det))) < epsilon {
		return Identity()
	}
	inv := 1 / det
	return Mat2{
		A: m.D * inv,
		B: -m.B * inv,
		C: -m.C * inv,
		D: m.A * inv,
	}
}

// FromRotationDegrees builds a pure rotation matrix from a degree angle.
func FromRotationDegrees(degrees float32) Mat2 {
	r := float64(degrees) * math.Pi / 180
	s, c := float32(math.Sin(r)), float32(math.Cos(r))
	return Mat2{A: c, B: s, C: -s, D: c}
}

// FromComponents builds the local 2x2 matrix for a bone's applied rotation,
// scale and shear, in the order the Spine runtime composes them: rotation
// then shear then scale, per axis.
func FromComponents(rotation, scaleX, scaleY, shearX, shearY float32) Mat2 {
	rad := float64(rotation) * math.Pi / 180
	sx, cx := float32(math.Sin(rad+degToRad(shearX))), float32(math.Cos(rad+degToRad(shearX)))
	sy, cy := float32(math.Sin(rad+math.Pi/2+degToRad(shearY))), float32(math.Cos(rad+math.Pi/2+degToRad(shearY)))
	return Mat2{
		A: cx * scaleX,
		B: sx * scaleX,
		C: cy * scaleY,
		D: sy * scaleY,
	}
}

func degToRad(d float32) float64 { return float64(d) * math.Pi / 180 }

// NormalizeColumn1 returns a matrix with the same second column as m but
// the first column rescaled to unit length, preserving handedness. A first
// column shorter than epsilon yields the identity.
func NormalizeColumn1(m Mat2) Mat2 {
	length := float32(math.Hypot(float64(m.A), float64(m.B)))
	if length < epsilon {
		return Identity()
	}
	inv := 1 / length
	return Mat2{A: m.A * inv, B: m.B * inv, C: m.C, D: m.D}
}

// ColumnLength returns the Euclidean length of column (x, y).
func ColumnLength(x, y float32) float32 {
	return float32(math.Hypot(float64(x), float64(y)))
}

// RotationDegrees returns the angle, in [0,360), of the first column of m.
func RotationDegrees(m Mat2) float32 {
	deg := float32(math.Atan2(float64(m.B), float64(m.A))) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return deg
}

// WrapDegrees wraps an angle delta into (-180, 180].
func WrapDegrees(d float32) float32 {
	for d <= -180 {
		d += 360
	}
	for d > 180 {
		d -= 360
	}
	return d
}

// WrapRadians wraps an angle delta into (-pi, pi].
func WrapRadians(r float32) float32 {
	pi := float32(math.Pi)
	for r <= -pi {
		r += 2 * pi
	}
	for r > pi {
		r -= 2 * pi
	}
	return r
}

// Decompose recovers (rotation degrees, scaleX, scaleY, shearX, shearY)
// from a 2x2 matrix, used by the applied-transform inverse (spec §4.5.6).
// Degenerate (near-zero) columns fall back to the second-column-based
// formula, matching the reference runtime.
func Decompose(m Mat2) (rotation, scaleX, scaleY, shearX, shearY float32) {
	col1Len := ColumnLength(m.A, m.B)
	col2Len := ColumnLength(m.C, m.D)

	if col1Len > epsilon {
		rotation = float32(math.Atan2(float64(m.B), float64(m.A))) * 180 / math.Pi
		scaleX = col1Len
		// Shear is the angle between the two columns, minus 90 degrees.
		colAngle := float32(math.Atan2(float64(m.D), float64(m.C))) * 180 / math.Pi
		shearY = WrapDegrees(colAngle - rotation - 90)
		scaleY = col2Len
		if sign(m.A*m.D-m.B*m.C) < 0 {
			scaleY = -scaleY
		}
		return
	}

	// Degenerate first column: recover from the second column instead.
	rotation = 90 - (float32(math.Atan2(float64(m.D), float64(m.C))) * 180 / math.Pi)
	scaleX = 0
	scaleY = col2Len
	shearX = 0
	shearY = 0
	return
}

func sign(v float32) float32 {
	if v < 0 {
		return -1
	}
	return 1
}
