package spine2d

// timeline.go defines the timeline kinds an Animation is built from (spec
// §4.6). Every timeline writes one property to the pose; most are scalar
// curves (bone/constraint fields) addressed generically by Channel, the
// same way a generic property-path animation system (rather than one Go
// type per Spine timeline class) would — see SPEC_FULL.md §4 for why this keeps
// the same semantics with far less repetition. The remaining timeline
// kinds (attachment, deform, draw order, event) are not single scalars and
// get their own types.

// Channel addresses exactly one scalar property a ScalarTimeline can
// drive, spanning bones, slot colors, and every constraint kind's mix
// parameters.
type Channel uint8

const (
	ChBoneRotate Channel = iota
	ChBoneX
	ChBoneY
	ChBoneScaleX
	ChBoneScaleY
	ChBoneShearX
	ChBoneShearY
	ChBoneInherit // stepped-only: Value is an InheritMode cast to float32

	ChSlotR
	ChSlotG
	ChSlotB
	ChSlotA
	ChSlotR2
	ChSlotG2
	ChSlotB2
	ChSlotSequenceIndex // stepped-only

	ChIKMix
	ChIKSoftness

	ChTransformMixRotate
	ChTransformMixX
	ChTransformMixY
	ChTransformMixScaleX
	ChTransformMixScaleY
	ChTransformMixShearY

	ChPathPosition
	ChPathSpacing
	ChPathMixRotate
	ChPathMixX
	ChPathMixY

	ChPhysicsInertia
	ChPhysicsStrength
	ChPhysicsDamping
	ChPhysicsMassInverse
	ChPhysicsWind
	ChPhysicsGravity
	ChPhysicsMix
	ChPhysicsReset // stepped-only, fired at keyframe times; Value unused

	ChSliderTime
	ChSliderMix
)

// isRotationChannel reports whether ch writes a rotation-like property
// (spec §4.6).
func (ch Channel) isRotationChannel() bool {
	switch ch {
	case ChBoneRotate, ChTransformMixRotate, ChPathMixRotate:
		return true
	}
	return false
}

// Keyframe is one scalar sample with its outgoing curve.
type Keyframe struct {
	Time  float32
	Value float32
	Curve Curve
}

// ScalarTimeline drives one Channel on one target (a bone, slot or
// constraint index) from a sorted list of keyframes.
type ScalarTimeline struct {
	Channel Channel
	Target  int // bone/slot/constraint index; -1 for physics means "every physics constraint" (spec §9(e))
	Frames  []Keyframe
}

// valueAt samples the timeline at time t, handling "before the first
// frame" (hold the first value) per spec §4.6.
func (tl *ScalarTimeline) valueAt(t float32) float32 {
	frames := tl.Frames
	if len(frames) == 0 {
		return 0
	}
	if t <= frames[0].Time || len(frames) == 1 {
		return frames[0].Value
	}
	last := frames[len(frames)-1]
	if t >= last.Time {
		return last.Value
	}
	for i := 0; i < len(frames)-1; i++ {
		if t < frames[i+1].Time {
			return frames[i].Curve.evaluate(frames[i].Time, frames[i+1].Time, frames[i].Value, frames[i+1].Value, t)
		}
	}
	return last.Value
}

func (tl *ScalarTimeline) affectedBones(dst []int) []int {
	switch tl.Channel {
	case ChBoneRotate, ChBoneX, ChBoneY, ChBoneScaleX, ChBoneScaleY, ChBoneShearX, ChBoneShearY, ChBoneInherit:
		return append(dst, tl.Target)
	}
	return dst
}

// AttachmentTimeline steps a slot's current attachment key (spec §4.6).
// An empty Key means "none".
type AttachmentTimeline struct {
	Slot   int
	Times  []float32
	Keys   []string
}

func (tl *AttachmentTimeline) keyAt(t float32) (string, bool) {
	if len(tl.Times) == 0 {
		return "", false
	}
	idx := 0
	for i, tt := range tl.Times {
		if tt <= t {
			idx = i
		} else {
			break
		}
	}
	return tl.Keys[idx], true
}

// DeformTimeline animates a mesh's per-vertex deform offsets (spec §4.6).
// Frames store the full flattened deform buffer per keyframe (vs. the
// setup pose); a keyframe without deform data holds an all-zero buffer.
type DeformTimeline struct {
	Slot               int
	TimelineAttachment string // the (linked-mesh resolved) mesh this drives
	Times              []float32
	Deforms            [][]float32
	Curves             []Curve // len = len(Times)-1, outgoing curve per segment
}

func (tl *DeformTimeline) valueAt(t float32, out []float32) {
	n := len(tl.Times)
	if n == 0 {
		return
	}
	if t <= tl.Times[0] || n == 1 {
		copy(out, tl.Deforms[0])
		return
	}
	if t >= tl.Times[n-1] {
		copy(out, tl.Deforms[n-1])
		return
	}
	for i := 0; i < n-1; i++ {
		if t < tl.Times[i+1] {
			c := tl.Curves[i]
			frac := float32(0)
			if tl.Times[i+1] > tl.Times[i] {
				frac = (t - tl.Times[i]) / (tl.Times[i+1] - tl.Times[i])
			}
			if c.Type == CurveBezier {
				frac = bezierSolveForX(frac, c.P)
			} else if c.Type == CurveStepped {
				frac = 0
			}
			a, b := tl.Deforms[i], tl.Deforms[i+1]
			for v := range out {
				out[v] = a[v] + frac*(b[v]-a[v])
			}
			return
		}
	}
}

// DrawOrderTimeline steps the slot draw-order permutation (spec §4.6).
// A nil entry means "setup order".
type DrawOrderTimeline struct {
	Times  []float32
	Orders [][]int
}

func (tl *DrawOrderTimeline) orderAt(t float32) []int {
	if len(tl.Times) == 0 {
		return nil
	}
	idx := 0
	for i, tt := range tl.Times {
		if tt <= t {
			idx = i
		} else {
			break
		}
	}
	return tl.Orders[idx]
}

// Event is one fired instance of a named event (spec §3, §4.6).
type Event struct {
	Time    float32
	Name    string
	Int     int32
	Float   float32
	String  string
	Volume  float32
	Balance float32
}

// EventTimeline emits an ordered stream of events when crossed.
type EventTimeline struct {
	Events []Event // sorted by Time
}

// eventsInRange appends every event with Time in (from, to] (or, for a
// looping wraparound, the caller invokes this twice) to dst.
func (tl *EventTimeline) eventsInRange(dst []Event, from, to float32) []Event {
	for _, e := range tl.Events {
		if e.Time > from && e.Time <= to {
			dst = append(dst, e)
		}
	}
	return dst
}

// Timeline is the sum type of every timeline kind an Animation contains.
// Exactly one of the pointer fields is non-nil.
type Timeline struct {
	Scalar     *ScalarTimeline
	Attachment *AttachmentTimeline
	Deform     *DeformTimeline
	DrawOrder  *DrawOrderTimeline
	EventTl    *EventTimeline
}

// Animation is an immutable, shareable sequence of timelines (spec §3).
type Animation struct {
	Name      string
	Duration  float32
	Timelines []Timeline
}

// affectedBones returns every bone index this animation's bone timelines
// write to, used by the slider constraint's applied-local invalidation
// step (spec §4.5.5) and the update-cache's slider pre-work (spec §4.4).
func (a *Animation) affectedBones() []int {
	var bones []int
	for _, tl := range a.Timelines {
		if tl.Scalar != nil {
			bones = tl.Scalar.affectedBones(bones)
		}
	}
	return bones
}
