package spine2d

// track.go defines the mixer's per-track entry queue (spec §4.6 "Track
// state"): each track holds a currently-playing entry, which may itself be
// cross-fading from a predecessor, with further entries queued behind it.

// MixBlend selects how a track entry's timelines compose with the pose
// they're applied over.
type MixBlend uint8

const (
	MixReplace MixBlend = iota
	MixAdd
)

// TrackEntry is one scheduled playback of an animation on a track (spec
// §4.6).
type TrackEntry struct {
	Animation *Animation
	Loop      bool
	Delay     float32

	TrackTime float32
	Speed     float32
	Alpha     float32

	MixBlend MixBlend

	MixAttachmentThreshold  float32
	AlphaAttachmentThreshold float32
	MixDrawOrderThreshold   float32

	HoldPrevious      bool
	Reverse           bool
	ShortestRotation  bool

	MixingFrom *TrackEntry
	Next       *TrackEntry

	MixTime     float32
	MixDuration float32

	started        bool
	priorEventTime float32

	// mixingTo is the inverse of MixingFrom, kept in sync by linkMixingFrom:
	// it lets classifyEntry walk a chain from its oldest entry back up to
	// the track's current one (spec §4.6 "Timeline mode table").
	mixingTo *TrackEntry

	// timelineMode/timelineHoldMix classify this entry's own timelines
	// (parallel to Animation.Timelines) the last time the mixer's Apply
	// scanned this entry's chain. Reused across ticks, grown never shrunk,
	// so classification never allocates mid-apply (spec §5).
	timelineMode    []timelineMode
	timelineHoldMix []*TrackEntry
}

func newTrackEntry(anim *Animation, loop bool) *TrackEntry {
	return &TrackEntry{Animation: anim, Loop: loop, Speed: 1, Alpha: 1}
}

// linkMixingFrom sets to's predecessor, keeping the mixingTo back-pointer in
// sync so classification can walk the chain in either direction.
func linkMixingFrom(to, from *TrackEntry) {
	to.MixingFrom = from
	if from != nil {
		from.mixingTo = to
	}
}

func (e *TrackEntry) SetMixBlend(b MixBlend)                { e.MixBlend = b }
func (e *TrackEntry) SetAlpha(a float32)                    { e.Alpha = a }
func (e *TrackEntry) SetHoldPrevious(v bool)                { e.HoldPrevious = v }
func (e *TrackEntry) SetReverse(v bool)                     { e.Reverse = v }
func (e *TrackEntry) SetShortestRotation(v bool)             { e.ShortestRotation = v }
func (e *TrackEntry) SetMixAttachmentThreshold(v float32)    { e.MixAttachmentThreshold = v }
func (e *TrackEntry) SetAlphaAttachmentThreshold(v float32)  { e.AlphaAttachmentThreshold = v }
func (e *TrackEntry) SetMixDrawOrderThreshold(v float32)     { e.MixDrawOrderThreshold = v }

// ResetRotationDirections clears nothing today: rotation direction state is
// derived fresh from the current pose each apply rather than cached, so
// this is a documented no-op kept for API parity with spec §4.6's operation
// table.
func (e *TrackEntry) ResetRotationDirections() {}

// Track is one mixer lane: a currently-active entry (possibly mixing from
// a predecessor, possibly with further entries queued behind it).
type Track struct {
	Current *TrackEntry
}
