package spine2d

import "github.com/nilrig/spine2d/affine"

// kernel.go implements the bone transform kernel (spec §4.1): the five
// inheritance-mode forward compositions, the applied-transform inverse
// (spec §4.5.6), and the epoch-based invalidation that keeps applied and
// world fields consistent without rebuilding a dependency graph (spec §9).

// MarkAppliedDirty records that bone i's applied-local fields changed this
// tick: it stamps local_epoch and invalidates i's own world and every
// descendant's world (spec §4.1).
func (p *Pose) MarkAppliedDirty(i int) {
	b := &p.Bones[i]
	b.LocalEpoch = p.UpdateEpoch
	b.WorldEpoch = 0
	p.resetDescendantWorldEpochs(i)
}

// MarkWorldDirty records that bone i's world fields were mutated directly
// (e.g. by a constraint): it stamps world_epoch, invalidates applied, and
// invalidates every descendant's world (spec §4.1).
func (p *Pose) MarkWorldDirty(i int) {
	b := &p.Bones[i]
	b.WorldEpoch = p.UpdateEpoch
	b.AppliedValid = false
	p.resetDescendantWorldEpochs(i)
}

func (p *Pose) resetDescendantWorldEpochs(i int) {
	for _, c := range p.children[i] {
		p.Bones[c].WorldEpoch = 0
		p.resetDescendantWorldEpochs(c)
	}
}

// UpdateBoneWorld composes bone i's world transform from its parent's
// world (or the skeleton root transform), honoring its inheritance mode
// (spec §4.1). It is a no-op if i's world is already current for this
// update epoch. If i's applied-local is newer than its world, i's own
// applied fields are used as-is (they are already current); descendants
// needing reconstruction happen lazily via ReconstructApplied.
func (p *Pose) UpdateBoneWorld(i int) {
	b := &p.Bones[i]
	if b.WorldEpoch == p.UpdateEpoch {
		return
	}

	localM := affine.FromComponents(b.ARotation, b.AScaleX, b.AScaleY, b.AShearX, b.AShearY)

	if b.Parent < 0 {
		b.A = localM.A * p.ScaleX
		b.B = localM.B * p.ScaleY
		b.C = localM.C * p.ScaleX
		b.D = localM.D * p.ScaleY
		b.WorldX = p.X + p.ScaleX*b.AX
		b.WorldY = p.Y + p.ScaleY*b.AY
		b.WorldEpoch = p.UpdateEpoch
		return
	}

	parent := &p.Bones[b.Parent]
	if parent.WorldEpoch != p.UpdateEpoch {
		p.UpdateBoneWorld(b.Parent)
	}
	pm := affine.Mat2{A: parent.A, B: parent.B, C: parent.C, D: parent.D}

	switch b.Inherit {
	case InheritOnlyTranslation:
		b.A, b.B, b.C, b.D = localM.A, localM.B, localM.C, localM.D
		b.WorldX = parent.WorldX + b.AX
		b.WorldY = parent.WorldY + b.AY

	case InheritNoRotationOrReflection:
		len1 := affine.ColumnLength(pm.A, pm.B)
		len2 := affine.ColumnLength(pm.C, pm.D)
		effective := affine.Mat2{A: len1, B: 0, C: 0, D: len2}
		world := affine.Mul(effective, localM)
		b.A, b.B, b.C, b.D = world.A, world.B, world.C, world.D
		x, y := affine.MulVec(pm, b.AX, b.AY)
		b.WorldX, b.WorldY = parent.WorldX+x, parent.WorldY+y

	case InheritNoScale, InheritNoScaleOrReflection:
		norm := normalizeRotation(pm)
		if b.Inherit == InheritNoScale {
			parentDet := affine.Det(pm)
			skeletonSign := float32(1)
			if p.ScaleX*p.ScaleY < 0 {
				skeletonSign = -1
			}
			if sign32(parentDet) != skeletonSign {
				norm.C, norm.D = -norm.C, -norm.D
			}
		}
		world := affine.Mul(norm, localM)
		b.A, b.B, b.C, b.D = world.A, world.B, world.C, world.D
		x, y := affine.MulVec(pm, b.AX, b.AY)
		b.WorldX, b.WorldY = parent.WorldX+x, parent.WorldY+y

	default: // InheritNormal
		world := affine.Mul(pm, localM)
		b.A, b.B, b.C, b.D = world.A, world.B, world.C, world.D
		x, y := affine.MulVec(pm, b.AX, b.AY)
		b.WorldX, b.WorldY = parent.WorldX+x, parent.WorldY+y
	}

	b.WorldEpoch = p.UpdateEpoch
}

// normalizeRotation returns m with both columns rescaled to unit length,
// preserving rotation/reflection but discarding scale magnitude.
func normalizeRotation(m affine.Mat2) affine.Mat2 {
	l1 := affine.ColumnLength(m.A, m.B)
	l2 := affine.ColumnLength(m.C, m.D)
	out := affine.Identity()
	if l1 > 1e-9 {
		out.A, out.B = m.A/l1, m.B/l1
	}
	if l2 > 1e-9 {
		out.C, out.D = m.C/l2, m.D/l2
	}
	return out
}

func sign32(v float32) float32 {
	if v < 0 {
		return -1
	}
	return 1
}

// ReconstructApplied recovers bone i's applied-local fields from its
// current world fields (spec §4.5.6), used whenever a downstream consumer
// needs applied values after a world-space mutation. No-op if already
// valid.
func (p *Pose) ReconstructApplied(i int) {
	b := &p.Bones[i]
	if b.AppliedValid {
		return
	}

	world := affine.Mat2{A: b.A, B: b.B, C: b.C, D: b.D}
	var local affine.Mat2
	var localX, localY float32

	if b.Parent < 0 {
		sx, sy := p.ScaleX, p.ScaleY
		if sx == 0 {
			sx = 1
		}
		if sy == 0 {
			sy = 1
		}
		local = affine.Mat2{A: world.A / sx, B: world.B / sy, C: world.C / sx, D: world.D / sy}
		localX = (b.WorldX - p.X) / sx
		localY = (b.WorldY - p.Y) / sy
	} else {
		parent := &p.Bones[b.Parent]
		if !parent.AppliedValid && parent.WorldEpoch == p.UpdateEpoch {
			p.ReconstructApplied(b.Parent)
		}
		pm := affine.Mat2{A: parent.A, B: parent.B, C: parent.C, D: parent.D}

		var effective affine.Mat2
		switch b.Inherit {
		case InheritOnlyTranslation:
			effective = affine.Identity()
		case InheritNoRotationOrReflection:
			effective = affine.Mat2{A: affine.ColumnLength(pm.A, pm.B), D: affine.ColumnLength(pm.C, pm.D)}
		case InheritNoScale, InheritNoScaleOrReflection:
			effective = normalizeRotation(pm)
		default:
			effective = pm
		}
		local = affine.Mul(affine.Invert(effective), world)

		if b.Inherit == InheritOnlyTranslation {
			localX, localY = b.WorldX-parent.WorldX, b.WorldY-parent.WorldY
		} else {
			dx, dy := b.WorldX-parent.WorldX, b.WorldY-parent.WorldY
			localX, localY = affine.MulVec(affine.Invert(pm), dx, dy)
		}
	}

	rot, sx, sy, shx, shy := affine.Decompose(local)
	b.AX, b.AY = localX, localY
	b.ARotation = rot
	b.AScaleX, b.AScaleY = sx, sy
	b.AShearX, b.AShearY = shx, shy
	b.AppliedValid = true
}
