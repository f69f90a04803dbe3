package spine2d

import "math"

// constraint_slider.go implements the slider constraint (spec §4.5.5): a
// scalar drives a fixed-duration animation's time parameter, the way a
// blend-tree "1D blend" node drives a clip from a control value instead of
// wall-clock time.

func (p *Pose) sliderInput(d *SliderConstraintData) float32 {
	if d.Bone < 0 {
		return p.Clock
	}
	space := SpaceWorld
	if d.Local {
		space = SpaceLocal
	}
	return p.readProperty(d.Bone, d.Property, space)
}

// ApplySlider evaluates slider constraint i.
func (p *Pose) ApplySlider(i int) {
	d := &p.Rig.Slider[i]
	state := &p.Slider[i]

	if d.AnimationIndex < 0 || d.AnimationIndex >= len(p.Rig.Animations) {
		return
	}
	anim := p.Rig.Animations[d.AnimationIndex]

	raw := p.sliderInput(d)
	t := d.To + (raw-d.From)*d.Scale
	if d.Looped && anim.Duration > 0 {
		t = float32(math.Mod(float64(t), float64(anim.Duration)))
		if t < 0 {
			t += anim.Duration
		}
	} else if t < 0 {
		t = 0
	}
	state.Time = t

	for _, bone := range anim.affectedBones() {
		p.MarkAppliedDirty(bone)
	}

	for _, tl := range anim.Timelines {
		if tl.Scalar == nil {
			continue
		}
		s := tl.Scalar
		value := s.valueAt(t)
		applySliderChannel(p, s.Channel, s.Target, value, state.Mix, d.Additive)
	}
}

// applySliderChannel writes value into the pose, blended by alpha, for the
// bone-property channels a slider's driven animation can realistically
// carry. Non-bone channels (slot color, constraint mixes) are outside the
// set this evaluator drives; spec §4.5.5 only requires bone-affecting
// animations to invalidate and redrive applied-local state.
func applySliderChannel(p *Pose, ch Channel, target int, value, alpha float32, additive bool) {
	prop, ok := boneChannelProperty(ch)
	if !ok {
		return
	}
	p.writeProperty(target, prop, SpaceLocal, value, alpha, additive)
}

func boneChannelProperty(ch Channel) (Property, bool) {
	switch ch {
	case ChBoneRotate:
		return PropRotate, true
	case ChBoneX:
		return PropX, true
	case ChBoneY:
		return PropY, true
	case ChBoneScaleX:
		return PropScaleX, true
	case ChBoneScaleY:
		return PropScaleY, true
	case ChBoneShearX:
		return PropShearX, true
	case ChBoneShearY:
		return PropShearY, true
	}
	return 0, false
}
