package spine2d

import (
	"math"

	"github.com/nilrig/spine2d/affine"
)

// mixer.go implements the cross-fade timeline mixer (spec §4.6): a sparse
// array of tracks, each a queue of entries that may mix from a fading
// predecessor, applied to the pose in track order every tick. Each entry's
// timelines are classified into a "timeline mode" (timelinemode.go) before
// application, grounded on the original's `crate::MixBlend` handling in
// skeleton.rs and on the real Spine-runtime `AnimationState` algorithm this
// spec's §4.6 distills (see DESIGN.md): whether a timeline is the first
// writer of its property on this track (claims it from "Setup"), a later
// writer layering onto an earlier one ("Subsequent"), or a predecessor being
// held because nothing above it shares that property ("Hold*"). This is
// what lets a held, additive predecessor keep writing at full strength
// while a later Replace entry still claims the same property outright.
type Mixer struct {
	tracks []*Track
	// defaultMix[from][to] = seconds, registered by SetMix.
	defaultMix map[[2]*Animation]float32
	events     []Event

	// claimed is reused across Apply calls (cleared with clear(), never
	// reallocated) so classification never allocates mid-apply (spec §5).
	claimed map[propKey]bool
}

// NewMixer constructs an empty mixer.
func NewMixer() *Mixer {
	return &Mixer{defaultMix: map[[2]*Animation]float32{}, claimed: map[propKey]bool{}}
}

func (m *Mixer) track(i int) *Track {
	for len(m.tracks) <= i {
		m.tracks = append(m.tracks, &Track{})
	}
	return m.tracks[i]
}

// SetMix registers the default cross-fade duration used when transitioning
// directly between from and to without an explicit mix duration.
func (m *Mixer) SetMix(from, to *Animation, seconds float32) {
	m.defaultMix[[2]*Animation{from, to}] = seconds
}

func (m *Mixer) lookupDefaultMix(from, to *Animation) float32 {
	if from == nil || to == nil {
		return 0
	}
	return m.defaultMix[[2]*Animation{from, to}]
}

// SetAnimation replaces track i's current entry immediately, cross-fading
// from whatever was playing using the registered default mix.
func (m *Mixer) SetAnimation(track int, anim *Animation, loop bool) *TrackEntry {
	t := m.track(track)
	entry := newTrackEntry(anim, loop)
	if t.Current != nil {
		entry.MixDuration = m.lookupDefaultMix(t.Current.Animation, anim)
		linkMixingFrom(entry, t.Current)
	}
	t.Current = entry
	return entry
}

// AddAnimation queues anim to play after track i's current entry (and
// whatever is already queued behind it) finishes, after delay seconds.
func (m *Mixer) AddAnimation(track int, anim *Animation, loop bool, delay float32) *TrackEntry {
	t := m.track(track)
	entry := newTrackEntry(anim, loop)
	entry.Delay = delay
	if t.Current == nil {
		t.Current = entry
		return entry
	}
	last := t.Current
	for last.Next != nil {
		last = last.Next
	}
	entry.MixDuration = m.lookupDefaultMix(last.Animation, anim)
	last.Next = entry
	return entry
}

// emptyAnimation is a shared zero-timeline animation used by
// SetEmptyAnimation to cross-fade the pose back to setup (spec §4.6
// "Empty animation").
var emptyAnimation = &Animation{Name: "<empty>", Duration: 0}

// SetEmptyAnimation cross-fades track i back toward the setup pose over
// mixDuration seconds.
func (m *Mixer) SetEmptyAnimation(track int, mixDuration float32) *TrackEntry {
	t := m.track(track)
	entry := newTrackEntry(emptyAnimation, false)
	entry.MixDuration = mixDuration
	if t.Current != nil {
		linkMixingFrom(entry, t.Current)
	}
	t.Current = entry
	return entry
}

// Update advances every track's time by delta (scaled by each entry's
// speed), propagating through mixing-from chains, and promotes queued
// entries whose predecessor has finished (spec §4.6 step 1-2).
func (m *Mixer) Update(delta float32) {
	for _, t := range m.tracks {
		if t.Current == nil {
			continue
		}
		advanceEntry(t.Current, delta)
		promoteQueue(t)
	}
}

func advanceEntry(e *TrackEntry, delta float32) {
	if e == nil {
		return
	}
	if e.MixingFrom != nil {
		advanceEntry(e.MixingFrom, delta)
		e.MixTime += delta
		if e.MixDuration <= 0 || e.MixTime >= e.MixDuration {
			e.MixingFrom = nil
		}
	}
	if !e.started {
		if e.Delay > 0 {
			e.Delay -= delta
			return
		}
		e.started = true
	}
	e.TrackTime += delta * e.Speed
}

func promoteQueue(t *Track) {
	e := t.Current
	if e == nil || e.Next == nil || e.Loop {
		return
	}
	if e.Animation.Duration > 0 && e.TrackTime < e.Animation.Duration {
		return
	}
	next := e.Next
	linkMixingFrom(next, e)
	next.MixTime = 0
	if next.MixDuration <= 0 {
		next.MixDuration = 0
	}
	t.Current = next
}

// Apply writes every track's current entry into pose (spec §4.6 step 3),
// in ascending track order, and returns the events fired this call in the
// order they were collected: track by track, a fading predecessor's events
// before its successor's, and within one entry in keyframe order (the end
// of a wrapped loop cycle before its start). Events of different tracks
// are not sorted by time.
//
// Before applying, every track's chain is classified into timeline modes
// (timelinemode.go) against a claimed-property set shared across tracks in
// ascending order, matching the reference runtime's cross-track scan (spec
// §4.6 "Timeline mode table"): a property claimed by track 0 is already
// claimed when track 1's chain is classified.
func (m *Mixer) Apply(pose *Pose) []Event {
	m.events = m.events[:0]
	clear(m.claimed)
	for i, t := range m.tracks {
		if t.Current == nil {
			continue
		}
		m.classifyChain(t.Current)
		blend := t.Current.MixBlend
		if i == 0 {
			// Track 0 has nothing beneath it to layer onto; its Subsequent
			// timelines always replace rather than add.
			blend = MixReplace
		}
		m.applyEntry(pose, t.Current, blend)
	}
	return m.events
}

// applyEntry applies track entry e, the current (topmost) entry of its
// track. Its own timelines are classified relative to nothing above it
// (mostly First/HoldSubsequent), and its alpha is scaled by however much of
// its predecessor chain's cross-fade remains, per the reference runtime's
// AnimationState.apply: the predecessor applies first at its own strength,
// then e's own timelines replace on top at the resulting mix fraction,
// producing a linear cross-fade rather than a flat two-entry blend.
func (m *Mixer) applyEntry(pose *Pose, e *TrackEntry, blend MixBlend) {
	mix := e.Alpha
	if e.MixingFrom != nil {
		mix *= m.applyMixingFrom(pose, e, blend)
	}
	m.applyCurrentTimelines(pose, e, mix, blend)
}

// applyMixingFrom applies to's predecessor chain and returns to's own mix
// fraction (0 at the start of the cross-fade, 1 once it completes), which
// the caller folds into its own alpha.
func (m *Mixer) applyMixingFrom(pose *Pose, to *TrackEntry, blend MixBlend) float32 {
	from := to.MixingFrom
	if from.MixingFrom != nil {
		m.applyMixingFrom(pose, from, blend)
	}

	mix := float32(1)
	if to.MixDuration > 0 {
		mix = clampf(to.MixTime/to.MixDuration, 0, 1)
		blend = from.MixBlend
	}

	alphaHold := from.Alpha
	alphaMix := alphaHold * (1 - mix)
	t := sampleTime(from)

	for i := range from.Animation.Timelines {
		tl := &from.Animation.Timelines[i]
		var timelineBlend MixBlend
		var alpha float32
		attachOK, drawOrderOK := true, true

		switch from.timelineMode[i] {
		case tmSubsequent:
			timelineBlend, alpha = blend, alphaMix
		case tmFirst:
			timelineBlend, alpha = MixReplace, alphaMix
		case tmHoldSubsequent:
			timelineBlend, alpha = blend, alphaHold
		case tmHoldFirst:
			timelineBlend, alpha = MixReplace, alphaHold
		case tmHoldMix:
			frac := float32(1)
			if hold := from.timelineHoldMix[i]; hold != nil && hold.MixDuration > 0 {
				frac = clampf(hold.MixTime/hold.MixDuration, 0, 1)
			}
			timelineBlend, alpha = MixReplace, alphaHold*frac
		}

		// A faded predecessor's attachment/draw-order switches are held
		// past the point a scalar blend would consider them gone, so the
		// outgoing pose doesn't pop to a new look before it's faded out
		// (spec §4.6 "attachment threshold" / "draw order threshold").
		if tl.Attachment != nil {
			attachOK = mix < from.MixAttachmentThreshold || alphaHold < from.AlphaAttachmentThreshold
		}
		if tl.DrawOrder != nil {
			drawOrderOK = mix < from.MixDrawOrderThreshold
		}

		m.applyOneTimeline(pose, from, tl, t, alpha, timelineBlend, attachOK, drawOrderOK)
	}
	from.priorEventTime = t
	return mix
}

// applyCurrentTimelines applies e's own timelines (e is always the topmost,
// non-fading-out entry of its track at this point) at the given overall
// alpha, using each timeline's classified mode the same way applyMixingFrom
// does, and with attachment/draw-order switches always allowed through:
// the active entry's own look is never held back by a threshold.
func (m *Mixer) applyCurrentTimelines(pose *Pose, e *TrackEntry, alpha float32, blend MixBlend) {
	if alpha <= 0 || e.Animation == nil {
		return
	}
	t := sampleTime(e)

	for i := range e.Animation.Timelines {
		tl := &e.Animation.Timelines[i]
		timelineBlend, a := blend, alpha
		switch e.timelineMode[i] {
		case tmFirst, tmHoldFirst:
			timelineBlend = MixReplace
		}
		m.applyOneTimeline(pose, e, tl, t, a, timelineBlend, true, true)
	}
	e.priorEventTime = t
}

// applyOneTimeline samples tl at time t and dispatches the result into
// pose, gated by attachOK/drawOrderOK for attachment and draw-order
// timelines respectively. Event timelines ignore alpha and blend entirely:
// they always fire.
func (m *Mixer) applyOneTimeline(pose *Pose, e *TrackEntry, tl *Timeline, t, alpha float32, blend MixBlend, attachOK, drawOrderOK bool) {
	switch {
	case tl.Scalar != nil:
		if alpha <= 0 {
			return
		}
		val := tl.Scalar.valueAt(t)
		pose.applyScalarChannel(tl.Scalar.Channel, tl.Scalar.Target, val, alpha, blend, e.ShortestRotation)

	case tl.Attachment != nil:
		if !attachOK {
			return
		}
		if key, ok := tl.Attachment.keyAt(t); ok {
			s := &pose.Slots[tl.Attachment.Slot]
			s.HasAttachment = key != ""
			s.Attachment = key
			s.SequenceIndex = -1
		}

	case tl.Deform != nil:
		s := &pose.Slots[tl.Deform.Slot]
		if cap(s.Deform) < len(tl.Deform.Deforms[0]) {
			s.Deform = make([]float32, len(tl.Deform.Deforms[0]))
		} else {
			s.Deform = s.Deform[:len(tl.Deform.Deforms[0])]
		}
		tl.Deform.valueAt(t, s.Deform)

	case tl.DrawOrder != nil:
		if !drawOrderOK {
			return
		}
		if order := tl.DrawOrder.orderAt(t); order != nil {
			copy(pose.DrawOrder, order)
		}

	case tl.EventTl != nil:
		last := e.lastEventTime()
		if e.Loop && !e.Reverse && t < last {
			// The loop wrapped since the last apply: collect the rest of the
			// previous cycle, then the start of this one.
			m.events = tl.EventTl.eventsInRange(m.events, last, e.Animation.Duration)
			last = float32(math.Inf(-1))
		}
		m.events = tl.EventTl.eventsInRange(m.events, last, t)
	}
}

// sampleTime converts e's track time into an animation-local sample time,
// honoring Reverse and looping/clamping against the animation's duration.
func sampleTime(e *TrackEntry) float32 {
	animTime := e.TrackTime
	if e.Reverse {
		animTime = e.Animation.Duration - animTime
	}
	if e.Animation.Duration <= 0 {
		return 0
	}
	if e.Loop {
		t := float32(math.Mod(float64(animTime), float64(e.Animation.Duration)))
		if t < 0 {
			t += e.Animation.Duration
		}
		return t
	}
	return clampf(animTime, 0, e.Animation.Duration)
}

// lastEventTime returns the animation time events were last collected up
// to, so repeated Apply calls within one advancing tick don't re-fire.
func (e *TrackEntry) lastEventTime() float32 { return e.priorEventTime }

// blendScalar combines cur and val per blend's semantics (spec §4.5.2
// additive/replace convention, reused by the mixer): Add contributes
// alpha*val on top of whatever is already there; Replace interpolates
// toward val. Rotation-like channels interpolate along the shorter
// angular path.
func blendScalar(cur, val, alpha float32, blend MixBlend, rotation, shortest bool) float32 {
	if blend == MixAdd {
		return cur + val*alpha
	}
	if rotation && shortest {
		return cur + affine.WrapDegrees(val-cur)*alpha
	}
	return cur + (val-cur)*alpha
}

// applyScalarChannel dispatches one sampled timeline value to the pose
// field Channel addresses (spec §4.6, Channel doc comment in timeline.go).
func (p *Pose) applyScalarChannel(ch Channel, target int, value, alpha float32, blend MixBlend, shortest bool) {
	switch ch {
	case ChBoneRotate:
		b := &p.Bones[target]
		b.ARotation = blendScalar(b.ARotation, value, alpha, blend, true, shortest)
		p.MarkAppliedDirty(target)
	case ChBoneX:
		b := &p.Bones[target]
		b.AX = blendScalar(b.AX, value, alpha, blend, false, false)
		p.MarkAppliedDirty(target)
	case ChBoneY:
		b := &p.Bones[target]
		b.AY = blendScalar(b.AY, value, alpha, blend, false, false)
		p.MarkAppliedDirty(target)
	case ChBoneScaleX:
		b := &p.Bones[target]
		b.AScaleX = blendScalar(b.AScaleX, value, alpha, blend, false, false)
		p.MarkAppliedDirty(target)
	case ChBoneScaleY:
		b := &p.Bones[target]
		b.AScaleY = blendScalar(b.AScaleY, value, alpha, blend, false, false)
		p.MarkAppliedDirty(target)
	case ChBoneShearX:
		b := &p.Bones[target]
		b.AShearX = blendScalar(b.AShearX, value, alpha, blend, false, false)
		p.MarkAppliedDirty(target)
	case ChBoneShearY:
		b := &p.Bones[target]
		b.AShearY = blendScalar(b.AShearY, value, alpha, blend, false, false)
		p.MarkAppliedDirty(target)
	case ChBoneInherit:
		p.Bones[target].Inherit = InheritMode(value)
		p.MarkAppliedDirty(target)

	case ChSlotR:
		s := &p.Slots[target]
		s.Color[0] = blendScalar(s.Color[0], value, alpha, blend, false, false)
	case ChSlotG:
		s := &p.Slots[target]
		s.Color[1] = blendScalar(s.Color[1], value, alpha, blend, false, false)
	case ChSlotB:
		s := &p.Slots[target]
		s.Color[2] = blendScalar(s.Color[2], value, alpha, blend, false, false)
	case ChSlotA:
		s := &p.Slots[target]
		s.Color[3] = blendScalar(s.Color[3], value, alpha, blend, false, false)
	case ChSlotR2:
		s := &p.Slots[target]
		s.DarkColor[0] = blendScalar(s.DarkColor[0], value, alpha, blend, false, false)
	case ChSlotG2:
		s := &p.Slots[target]
		s.DarkColor[1] = blendScalar(s.DarkColor[1], value, alpha, blend, false, false)
	case ChSlotB2:
		s := &p.Slots[target]
		s.DarkColor[2] = blendScalar(s.DarkColor[2], value, alpha, blend, false, false)
	case ChSlotSequenceIndex:
		p.Slots[target].SequenceIndex = int(value)

	case ChIKMix:
		st := &p.IK[target]
		st.Mix = blendScalar(st.Mix, value, alpha, blend, false, false)
	case ChIKSoftness:
		st := &p.IK[target]
		st.Softness = blendScalar(st.Softness, value, alpha, blend, false, false)

	case ChTransformMixRotate, ChTransformMixX, ChTransformMixY, ChTransformMixScaleX, ChTransformMixScaleY, ChTransformMixShearY:
		applyTransformMixChannel(&p.Transform[target], ch, value, alpha, blend)

	case ChPathPosition:
		st := &p.Path[target]
		st.Position = blendScalar(st.Position, value, alpha, blend, false, false)
	case ChPathSpacing:
		st := &p.Path[target]
		st.Spacing = blendScalar(st.Spacing, value, alpha, blend, false, false)
	case ChPathMixRotate:
		st := &p.Path[target]
		st.MixRotate = blendScalar(st.MixRotate, value, alpha, blend, false, false)
	case ChPathMixX:
		st := &p.Path[target]
		st.MixX = blendScalar(st.MixX, value, alpha, blend, false, false)
	case ChPathMixY:
		st := &p.Path[target]
		st.MixY = blendScalar(st.MixY, value, alpha, blend, false, false)

	case ChPhysicsInertia, ChPhysicsStrength, ChPhysicsDamping, ChPhysicsMassInverse,
		ChPhysicsWind, ChPhysicsGravity, ChPhysicsMix:
		if target < 0 {
			for i := range p.Physics {
				applyPhysicsMixChannel(&p.Physics[i], ch, value, alpha, blend)
			}
		} else {
			applyPhysicsMixChannel(&p.Physics[target], ch, value, alpha, blend)
		}
	case ChPhysicsReset:
		// Instantaneous reset triggers are delivered via the public
		// ResetPhysics API rather than through timeline sampling; this
		// channel writes nothing.

	case ChSliderTime:
		st := &p.Slider[target]
		st.Time = blendScalar(st.Time, value, alpha, blend, false, false)
	case ChSliderMix:
		st := &p.Slider[target]
		st.Mix = blendScalar(st.Mix, value, alpha, blend, false, false)
	}
}

func applyTransformMixChannel(state *TransformState, ch Channel, value, alpha float32, blend MixBlend) {
	var want Property
	switch ch {
	case ChTransformMixRotate:
		want = PropRotate
	case ChTransformMixX:
		want = PropX
	case ChTransformMixY:
		want = PropY
	case ChTransformMixScaleX:
		want = PropScaleX
	case ChTransformMixScaleY:
		want = PropScaleY
	case ChTransformMixShearY:
		want = PropShearY
	}
	for i := range state.Properties {
		if state.Properties[i].To == want {
			state.Properties[i].Mix = blendScalar(state.Properties[i].Mix, value, alpha, blend, false, false)
			return
		}
	}
}

func applyPhysicsMixChannel(state *PhysicsState, ch Channel, value, alpha float32, blend MixBlend) {
	switch ch {
	case ChPhysicsInertia:
		state.Inertia = blendScalar(state.Inertia, value, alpha, blend, false, false)
	case ChPhysicsStrength:
		state.Strength = blendScalar(state.Strength, value, alpha, blend, false, false)
	case ChPhysicsDamping:
		state.Damping = blendScalar(state.Damping, value, alpha, blend, false, false)
	case ChPhysicsMassInverse:
		state.MassInverse = blendScalar(state.MassInverse, value, alpha, blend, false, false)
	case ChPhysicsWind:
		state.Wind = blendScalar(state.Wind, value, alpha, blend, false, false)
	case ChPhysicsGravity:
		state.Gravity = blendScalar(state.Gravity, value, alpha, blend, false, false)
	case ChPhysicsMix:
		state.Mix = blendScalar(state.Mix, value, alpha, blend, false, false)
	}
}
