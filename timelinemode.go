package spine2d

// timelinemode.go classifies each track entry's timelines before the mixer
// applies them (spec §4.6 "Timeline mode table"). A timeline's mode depends
// on whether anything else in its track's chain already writes the same
// pose property: the first entry to touch a property blends from the clean
// pose baseline ("First"), a later entry layering onto that same property
// blends from whatever is already there ("Subsequent"), and a predecessor
// entry being faded out is either dropped once a descendant covers its
// property outright or "held" at (partial or full) strength when nothing
// above it does. This is the mechanism that lets a held, additive
// predecessor keep contributing while a later Replace entry still owns the
// same property.

// propKey identifies the pose property a timeline writes, so two timelines
// can be compared for "same property" without comparing Timeline pointers.
// A plain struct (not a string) avoids allocating during classification.
type propKey struct {
	kind    uint8
	channel Channel
	target  int
}

const (
	propKindScalar     uint8 = 0
	propKindAttachment uint8 = 1
	propKindDeform     uint8 = 2
	propKindDrawOrder  uint8 = 3
)

// timelinePropertyKey reports the property tl writes, or false for event
// timelines, which carry no property-ownership semantics and are always
// delivered regardless of classification.
func timelinePropertyKey(tl *Timeline) (propKey, bool) {
	switch {
	case tl.Scalar != nil:
		return propKey{kind: propKindScalar, channel: tl.Scalar.Channel, target: tl.Scalar.Target}, true
	case tl.Attachment != nil:
		return propKey{kind: propKindAttachment, target: tl.Attachment.Slot}, true
	case tl.Deform != nil:
		return propKey{kind: propKindDeform, target: tl.Deform.Slot}, true
	case tl.DrawOrder != nil:
		return propKey{kind: propKindDrawOrder}, true
	default:
		return propKey{}, false
	}
}

// animHasProperty reports whether anim carries a timeline writing key.
func animHasProperty(anim *Animation, key propKey) bool {
	if anim == nil {
		return false
	}
	for i := range anim.Timelines {
		if k, ok := timelinePropertyKey(&anim.Timelines[i]); ok && k == key {
			return true
		}
	}
	return false
}

type timelineMode uint8

const (
	tmSubsequent timelineMode = iota
	tmFirst
	tmHoldSubsequent
	tmHoldFirst
	tmHoldMix
)

// steppedKind reports whether a timeline kind applies all-or-nothing rather
// than blending continuously (attachment and draw-order swap wholesale at a
// keyframe instead of interpolating; deform timelines interpolate and are
// not stepped).
func steppedKind(kind uint8) bool {
	return kind == propKindAttachment || kind == propKindDrawOrder
}

// classifyEntry assigns a timelineMode to every timeline of e, given e's
// claimed set of properties already spoken for by entries above it in the
// track's chain (m.claimed, shared across the whole chain and cleared once
// per Mixer.Apply call).
func (m *Mixer) classifyEntry(e *TrackEntry) {
	n := len(e.Animation.Timelines)
	if cap(e.timelineMode) < n {
		e.timelineMode = make([]timelineMode, n)
		e.timelineHoldMix = make([]*TrackEntry, n)
	} else {
		e.timelineMode = e.timelineMode[:n]
		e.timelineHoldMix = e.timelineHoldMix[:n]
	}

	to := e.mixingTo

	for i := range e.Animation.Timelines {
		key, hasKey := timelinePropertyKey(&e.Animation.Timelines[i])
		e.timelineHoldMix[i] = nil

		if !hasKey {
			// Event timelines always fire; mode is unused for them.
			e.timelineMode[i] = tmFirst
			continue
		}

		if to != nil && to.HoldPrevious {
			// to declared it wants its predecessor (e) held rather than
			// faded: e's timelines claim their properties unconditionally
			// and keep writing at full strength for the whole cross-fade
			// (spec §4.6 "Hold previous").
			m.claimed[key] = true
			e.timelineMode[i] = tmHoldSubsequent
			continue
		}

		if m.claimed[key] {
			e.timelineMode[i] = tmSubsequent
			continue
		}
		m.claimed[key] = true

		if to == nil || steppedKind(key.kind) || !animHasProperty(to.Animation, key) {
			e.timelineMode[i] = tmFirst
			continue
		}

		// Scan the chain of entries stacked above e (e's own mixingTo, then
		// that entry's mixingTo, ...) for the first one that does NOT carry
		// this property: if it exists and still has mix duration left, this
		// timeline holds at a fraction of that entry's own fade; otherwise
		// it holds at full strength.
		holdEntry := to
		for holdEntry != nil && animHasProperty(holdEntry.Animation, key) {
			holdEntry = holdEntry.mixingTo
		}
		if holdEntry != nil && holdEntry.MixDuration > 0 {
			e.timelineMode[i] = tmHoldMix
			e.timelineHoldMix[i] = holdEntry
		} else {
			e.timelineMode[i] = tmHoldFirst
		}
	}
}

// classifyChain classifies every entry in e's predecessor chain, newest
// first: the topmost entry claims its own properties outright (nothing
// mixes from it, so it is always First/HoldSubsequent), then each older
// predecessor checks the claimed set its descendants just populated to
// decide whether it's still the sole writer of a property or layering
// under one.
func (m *Mixer) classifyChain(e *TrackEntry) {
	if e == nil {
		return
	}
	m.classifyEntry(e)
	m.classifyChain(e.MixingFrom)
}
