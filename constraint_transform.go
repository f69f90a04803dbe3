package spine2d

import "github.com/nilrig/spine2d/affine"

// constraint_transform.go implements the generalized transform constraint
// (spec §4.5.2): copy a property from a source bone, remap it, and apply
// it (additively or by replacement) to one or more target bones, in
// either's local or world space.

func (p *Pose) readProperty(boneIdx int, prop Property, space Space) float32 {
	b := &p.Bones[boneIdx]
	if space == SpaceLocal {
		switch prop {
		case PropRotate:
			return b.ARotation
		case PropX:
			return b.AX
		case PropY:
			return b.AY
		case PropScaleX:
			return b.AScaleX
		case PropScaleY:
			return b.AScaleY
		case PropShearX:
			return b.AShearX
		case PropShearY:
			return b.AShearY
		}
		return 0
	}

	mat := affine.Mat2{A: b.A, B: b.B, C: b.C, D: b.D}
	switch prop {
	case PropRotate:
		return affine.RotationDegrees(mat)
	case PropX:
		return b.WorldX
	case PropY:
		return b.WorldY
	default:
		_, sx, sy, shx, shy := affine.Decompose(mat)
		switch prop {
		case PropScaleX:
			return sx
		case PropScaleY:
			return sy
		case PropShearX:
			return shx
		case PropShearY:
			return shy
		}
	}
	return 0
}

// writeProperty blends target into bone's current value of prop (additive
// or replace) and writes it back in the given space.
func (p *Pose) writeProperty(boneIdx int, prop Property, space Space, target, mix float32, additive bool) {
	b := &p.Bones[boneIdx]
	cur := p.readProperty(boneIdx, prop, space)
	var newVal float32
	if additive {
		newVal = cur + target*mix
	} else {
		newVal = cur + (target-cur)*mix
	}

	if space == SpaceLocal {
		switch prop {
		case PropRotate:
			b.ARotation = newVal
		case PropX:
			b.AX = newVal
		case PropY:
			b.AY = newVal
		case PropScaleX:
			b.AScaleX = newVal
		case PropScaleY:
			b.AScaleY = newVal
		case PropShearX:
			b.AShearX = newVal
		case PropShearY:
			b.AShearY = newVal
		}
		p.MarkAppliedDirty(boneIdx)
		return
	}

	mat := affine.Mat2{A: b.A, B: b.B, C: b.C, D: b.D}
	rot, sx, sy, shx, shy := affine.Decompose(mat)
	wx, wy := b.WorldX, b.WorldY
	switch prop {
	case PropRotate:
		rot = newVal
	case PropX:
		wx = newVal
	case PropY:
		wy = newVal
	case PropScaleX:
		sx = newVal
	case PropScaleY:
		sy = newVal
	case PropShearX:
		shx = newVal
	case PropShearY:
		shy = newVal
	}
	out := affine.FromComponents(rot, sx, sy, shx, shy)
	b.A, b.B, b.C, b.D = out.A, out.B, out.C, out.D
	b.WorldX, b.WorldY = wx, wy
	p.MarkWorldDirty(boneIdx)
}

// ApplyTransform evaluates transform constraint i.
func (p *Pose) ApplyTransform(i int) {
	d := &p.Rig.Transform[i]
	state := &p.Transform[i]

	for _, prop := range state.Properties {
		srcVal := p.readProperty(d.Source, prop.From, d.SourceSpace)
		val := (srcVal+prop.FromOffset)*prop.ToScale + prop.ToOffset
		if prop.Clamp {
			lo, hi := prop.ToMax, float32(0)
			if lo > hi {
				lo, hi = hi, lo
			}
			val = clampf(val, lo, hi)
		}
		for _, bone := range d.Bones {
			p.writeProperty(bone, prop.To, d.TargetSpace, val, prop.Mix, prop.Additive)
		}
	}
}
