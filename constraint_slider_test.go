package spine2d

import "testing"

func sliderRig() *RigDescription {
	return &RigDescription{
		Bones: []BoneData{
			{Name: "root", Parent: -1, ScaleX: 1, ScaleY: 1},
			{Name: "driven", Parent: -1, ScaleX: 1, ScaleY: 1},
		},
		Skins: map[string]*SkinData{},
		Animations: []*Animation{
			{
				Name:     "blend",
				Duration: 1,
				Timelines: []Timeline{
					{Scalar: &ScalarTimeline{
						Channel: ChBoneRotate, Target: 1,
						Frames: []Keyframe{{Time: 0, Value: 0}, {Time: 1, Value: 100}},
					}},
				},
			},
		},
	}
}

func TestApplySliderLinearMapping(t *testing.T) {
	rig := sliderRig()
	rig.Slider = []SliderConstraintData{
		{Bone: -1, From: 0, To: 0, Scale: 1, AnimationIndex: 0},
	}
	p := MakeInstance(rig)
	p.Clock = 0.5
	p.Slider[0].Mix = 1

	p.ApplySlider(0)

	if !near(p.Slider[0].Time, 0.5) {
		t.Fatalf("slider time = %v, want 0.5", p.Slider[0].Time)
	}
	if !near(p.Bones[1].ARotation, 50) {
		t.Fatalf("driven rotation = %v, want 50", p.Bones[1].ARotation)
	}
}

func TestApplySliderOffsetAndScale(t *testing.T) {
	rig := sliderRig()
	rig.Slider = []SliderConstraintData{
		{Bone: -1, From: 10, To: 0.2, Scale: 0.1, AnimationIndex: 0},
	}
	p := MakeInstance(rig)
	p.Clock = 15 // raw value; t = 0.2 + (15-10)*0.1 = 0.7
	p.Slider[0].Mix = 1

	p.ApplySlider(0)

	if !near(p.Slider[0].Time, 0.7) {
		t.Fatalf("slider time = %v, want 0.7", p.Slider[0].Time)
	}
}

func TestApplySliderLoopedWrapsIntoDuration(t *testing.T) {
	rig := sliderRig()
	rig.Slider = []SliderConstraintData{
		{Bone: -1, From: 0, To: 0, Scale: 1, Looped: true, AnimationIndex: 0},
	}
	p := MakeInstance(rig)
	p.Clock = 1.3 // wraps to 0.3 within a 1-second animation
	p.Slider[0].Mix = 1

	p.ApplySlider(0)

	if !near(p.Slider[0].Time, 0.3) {
		t.Fatalf("looped slider time = %v, want 0.3", p.Slider[0].Time)
	}
}

func TestApplySliderUnloopedNegativeClampsToZero(t *testing.T) {
	rig := sliderRig()
	rig.Slider = []SliderConstraintData{
		{Bone: -1, From: 5, To: 0, Scale: 1, AnimationIndex: 0},
	}
	p := MakeInstance(rig)
	p.Clock = 0 // t = 0 + (0-5)*1 = -5, unlooped clamps to 0
	p.Slider[0].Mix = 1

	p.ApplySlider(0)

	if p.Slider[0].Time != 0 {
		t.Fatalf("slider time = %v, want clamped to 0", p.Slider[0].Time)
	}
}

func TestApplySliderReadsBoundBoneProperty(t *testing.T) {
	rig := sliderRig()
	rig.Slider = []SliderConstraintData{
		{Bone: 0, Property: PropX, Local: true, From: 0, To: 0, Scale: 1, AnimationIndex: 0},
	}
	p := MakeInstance(rig)
	p.Bones[0].AX = 0.6
	p.Slider[0].Mix = 1

	p.ApplySlider(0)

	if !near(p.Slider[0].Time, 0.6) {
		t.Fatalf("slider time = %v, want 0.6 from bound bone AX", p.Slider[0].Time)
	}
}
