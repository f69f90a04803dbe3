package spine2d

import "testing"

func oneBoneRig() *RigDescription {
	return &RigDescription{
		Bones: []BoneData{{Name: "root", Parent: -1, ScaleX: 1, ScaleY: 1}},
		Skins: map[string]*SkinData{},
	}
}

// rotateTo30Animation drives the single bone's rotation to a constant 30
// degrees via one keyframe held from t=0.
func rotateTo30Animation() *Animation {
	return &Animation{
		Name:     "rotate30",
		Duration: 1,
		Timelines: []Timeline{
			{Scalar: &ScalarTimeline{
				Channel: ChBoneRotate, Target: 0,
				Frames: []Keyframe{{Time: 0, Value: 30}},
			}},
		},
	}
}

func TestMixerSingleTrackAlphaOneReproducesAnimation(t *testing.T) {
	rig := oneBoneRig()
	p := MakeInstance(rig)
	m := NewMixer()
	m.SetAnimation(0, rotateTo30Animation(), false)

	m.Update(0.5)
	m.Apply(p)

	if !near(p.Bones[0].ARotation, 30) {
		t.Fatalf("ARotation = %v, want 30", p.Bones[0].ARotation)
	}
}

func TestMixerCrossFadeInterpolates(t *testing.T) {
	rig := oneBoneRig()
	p := MakeInstance(rig)
	m := NewMixer()

	zero := &Animation{Name: "zero", Duration: 1, Timelines: []Timeline{
		{Scalar: &ScalarTimeline{Channel: ChBoneRotate, Target: 0, Frames: []Keyframe{{Time: 0, Value: 0}}}},
	}}
	thirty := rotateTo30Animation()

	m.SetAnimation(0, zero, false)
	m.Update(0.1)
	m.Apply(p)

	entry := m.SetAnimation(0, thirty, false)
	entry.MixDuration = 1.0
	m.Update(0.5) // halfway through the cross-fade
	m.Apply(p)

	if p.Bones[0].ARotation <= 0 || p.Bones[0].ARotation >= 30 {
		t.Fatalf("ARotation mid cross-fade = %v, want strictly between 0 and 30", p.Bones[0].ARotation)
	}
}

func TestMixerHoldPreviousKeepsPredecessorAtFullStrength(t *testing.T) {
	rig := oneBoneRig()
	p := MakeInstance(rig)
	m := NewMixer()

	base := rotateTo30Animation()
	m.SetAnimation(0, base, false)
	m.Update(0.1)
	m.Apply(p)

	additive := &Animation{Name: "add", Duration: 1, Timelines: []Timeline{
		{Scalar: &ScalarTimeline{Channel: ChBoneRotate, Target: 0, Frames: []Keyframe{{Time: 0, Value: 0}}}},
	}}
	entry := m.SetAnimation(0, additive, false)
	entry.MixDuration = 1.0
	entry.HoldPrevious = true

	m.Update(0.5)
	m.Apply(p)

	// The predecessor keeps writing its full value every apply (it never
	// fades under HoldPrevious), so the result stays a blend strictly
	// inside [0, 30] rather than collapsing to the new entry's value.
	if p.Bones[0].ARotation <= 0 || p.Bones[0].ARotation >= 30 {
		t.Fatalf("ARotation with hold-previous = %v, want strictly between 0 and 30", p.Bones[0].ARotation)
	}
}

// TestMixerAddTrackLayersOverReplaceTrack exercises the multi-track side of
// the timeline-mode table (spec §4.6): track 0 plays Replace and claims the
// rotation property first, so track 1's Add entry on the same property
// classifies as Subsequent and layers its delta on top instead of competing
// for the tmFirst slot.
func TestMixerAddTrackLayersOverReplaceTrack(t *testing.T) {
	rig := oneBoneRig()
	p := MakeInstance(rig)
	m := NewMixer()

	m.SetAnimation(0, rotateTo30Animation(), false)

	wobble := &Animation{Name: "wobble", Duration: 1, Timelines: []Timeline{
		{Scalar: &ScalarTimeline{Channel: ChBoneRotate, Target: 0, Frames: []Keyframe{{Time: 0, Value: 10}}}},
	}}
	addEntry := m.SetAnimation(1, wobble, false)
	addEntry.MixBlend = MixAdd
	addEntry.Alpha = 1

	m.Update(0.1)
	m.Apply(p)

	// Track 0 alone would leave ARotation at 30; the additive track 1 entry
	// should add its 10 degrees on top rather than replacing or being
	// dropped, since it's classified tmSubsequent, not tmFirst.
	if !near(p.Bones[0].ARotation, 40) {
		t.Fatalf("ARotation with add track layered over replace track = %v, want 40", p.Bones[0].ARotation)
	}
}

// TestResetAppliedToSnapshotRevertsUnwrittenBone guards spec §4.7 step 2: a
// bone no longer touched by any active track (its animation finished or was
// cleared) must revert to its setup pose each pass rather than keep
// whatever applied-local value an earlier tick left behind.
func TestResetAppliedToSnapshotRevertsUnwrittenBone(t *testing.T) {
	rig := &RigDescription{
		Bones: []BoneData{
			{Name: "root", Parent: -1, ScaleX: 1, ScaleY: 1},
			{Name: "child", Parent: 0, ScaleX: 1, ScaleY: 1, Rotation: 0},
		},
		Skins: map[string]*SkinData{},
	}
	p := MakeInstance(rig)

	// Simulate a leftover value from a track that played last tick and has
	// since been removed: nothing in this tick's mixer pass writes bone 1.
	p.Bones[1].ARotation = 45
	p.MarkAppliedDirty(1)

	UpdateWorldTransform(p, PhysicsUpdate)

	if !near(p.Bones[1].ARotation, 0) {
		t.Fatalf("ARotation after an untouched pass = %v, want reverted to setup value 0", p.Bones[1].ARotation)
	}
}

func TestMixerLoopWrapsTrackTime(t *testing.T) {
	rig := oneBoneRig()
	p := MakeInstance(rig)
	m := NewMixer()
	anim := &Animation{Name: "loop", Duration: 1, Timelines: []Timeline{
		{Scalar: &ScalarTimeline{Channel: ChBoneRotate, Target: 0, Frames: []Keyframe{
			{Time: 0, Value: 0}, {Time: 1, Value: 90},
		}}},
	}}
	m.SetAnimation(0, anim, true)
	m.Update(1.25) // wraps to t=0.25 within the loop
	m.Apply(p)

	if !near(p.Bones[0].ARotation, 22.5) {
		t.Fatalf("looped ARotation = %v, want 22.5", p.Bones[0].ARotation)
	}
}
