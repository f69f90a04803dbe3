package spine2d

import (
	"math"

	"github.com/nilrig/spine2d/affine"
)

// constraint_ik.go implements one- and two-bone inverse kinematics (spec
// §4.5.1).

// effectiveParentFrame returns the 2x2 frame a bone of the given
// inheritance mode actually composed against, matching the branches in
// UpdateBoneWorld except that the NoScale case here does not apply the
// kernel's second-column sign flip for a parent whose determinant sign
// differs from the skeleton's. IK needs this so it can express the target in the same
// space the bone's own world transform was built in.
func effectiveParentFrame(inherit InheritMode, parent affine.Mat2) affine.Mat2 {
	switch inherit {
	case InheritOnlyTranslation:
		return affine.Identity()
	case InheritNoRotationOrReflection:
		return affine.Mat2{A: affine.ColumnLength(parent.A, parent.B), D: affine.ColumnLength(parent.C, parent.D)}
	case InheritNoScale, InheritNoScaleOrReflection:
		return normalizeRotation(parent)
	default:
		return parent
	}
}

func (p *Pose) parentFrame(boneIdx int) (frame affine.Mat2, wx, wy float32) {
	b := &p.Bones[boneIdx]
	if b.Parent < 0 {
		return affine.Mat2{A: p.ScaleX, D: p.ScaleY}, p.X, p.Y
	}
	parent := &p.Bones[b.Parent]
	return effectiveParentFrame(b.Inherit, affine.Mat2{A: parent.A, B: parent.B, C: parent.C, D: parent.D}), parent.WorldX, parent.WorldY
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ApplyIK evaluates IK constraint i (spec §4.5.1). Mix is never clamped
// (spec §9(a)): additive blending can intentionally push it beyond 1.
func (p *Pose) ApplyIK(i int) {
	d := &p.Rig.IK[i]
	state := &p.IK[i]
	if len(d.Bones) == 1 {
		p.applyOneBoneIK(d, state)
	} else if len(d.Bones) >= 2 {
		p.applyTwoBoneIK(d, state)
	}
}

func (p *Pose) applyOneBoneIK(d *IKConstraintData, state *IKState) {
	boneIdx := d.Bones[0]
	b := &p.Bones[boneIdx]

	pm, pwx, pwy := p.parentFrame(boneIdx)
	target := &p.Bones[d.Target]
	tx, ty := affine.MulVec(affine.Invert(pm), target.WorldX-pwx, target.WorldY-pwy)

	dx, dy := tx-b.AX, ty-b.AY
	targetAngle := float32(math.Atan2(float64(dy), float64(dx))) * 180 / math.Pi
	delta := affine.WrapDegrees(targetAngle - b.ARotation)

	length := b.Length * b.AScaleX
	if length != 0 && (d.Compress || d.Stretch) {
		dist := affine.ColumnLength(dx, dy)
		ratio := dist / length
		if (d.Stretch && ratio > 1) || (d.Compress && ratio < 1) {
			scale := 1 + (ratio-1)*state.Mix
			b.AScaleX *= scale
			if d.UniformScale {
				b.AScaleY *= scale
			}
		}
	}

	b.ARotation += delta * state.Mix
	p.MarkAppliedDirty(boneIdx)
}

func (p *Pose) applyTwoBoneIK(d *IKConstraintData, state *IKState) {
	parentIdx, childIdx := d.Bones[0], d.Bones[1]
	parentBone, childBone := &p.Bones[parentIdx], &p.Bones[childIdx]

	// Both bones must have Normal inheritance for the analytic solution to
	// apply; otherwise the constraint is a documented no-op (spec §4.5.1).
	if parentBone.Inherit != InheritNormal || childBone.Inherit != InheritNormal {
		return
	}

	gpm, gpx, gpy := p.parentFrame(parentIdx)
	target := &p.Bones[d.Target]
	tx, ty := affine.MulVec(affine.Invert(gpm), target.WorldX-gpx, target.WorldY-gpy)

	l1 := parentBone.Length * parentBone.AScaleX
	l2 := childBone.Length * childBone.AScaleX

	dx, dy := tx-parentBone.AX, ty-parentBone.AY
	dist := affine.ColumnLength(dx, dy)

	if state.Softness > 0 {
		maxReach := l1 + l2
		if dist > maxReach-state.Softness {
			t := clampf((dist-(maxReach-state.Softness))/state.Softness, 0, 1)
			dist = (maxReach - state.Softness) + state.Softness*t
		}
	}

	if d.Stretch && dist > l1+l2 && l1+l2 > 0 {
		scale := dist / (l1 + l2)
		l1 *= scale
		l2 *= scale
		stretchDelta := scale - 1
		parentBone.AScaleX *= 1 + stretchDelta*state.Mix
		childBone.AScaleX *= 1 + stretchDelta*state.Mix
	}
	if dist < 1e-6 {
		dist = 1e-6
	}

	bend := float32(1)
	if !d.BendPositive {
		bend = -1
	}

	baseAngle := safeAcos((l1*l1 + dist*dist - l2*l2) / (2 * l1 * dist))
	jointAngle := safeAcos((l1*l1 + l2*l2 - dist*dist) / (2 * l1 * l2))

	targetAngle := float32(math.Atan2(float64(dy), float64(dx)))
	newParentRad := targetAngle - bend*baseAngle
	newChildRad := bend * (math.Pi - float64(jointAngle))

	newParentDeg := float32(newParentRad) * 180 / math.Pi
	newChildDeg := float32(newChildRad) * 180 / math.Pi

	parentDelta := affine.WrapDegrees(newParentDeg - parentBone.ARotation)
	childDelta := affine.WrapDegrees(newChildDeg - childBone.ARotation)

	parentBone.ARotation += parentDelta * state.Mix
	childBone.ARotation += childDelta * state.Mix

	p.MarkAppliedDirty(parentIdx)
	p.MarkAppliedDirty(childIdx)
}

func safeAcos(v float64) float32 {
	if v < -1 {
		v = -1
	}
	if v > 1 {
		v = 1
	}
	return float32(math.Acos(v))
}
