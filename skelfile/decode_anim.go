package skelfile

import (
	"fmt"

	"github.com/nilrig/spine2d"
)

// decode_anim.go decodes the animation list (spec §4.6): one mixed list of
// timelines per animation, each timeline self-describing its kind with a
// leading tag byte. Bone/slot/constraint-mix timelines share one generic
// scalar decode keyed by Channel; attachment, deform, draw-order and event
// timelines have bespoke layouts because they aren't single scalars.

type timelineTag byte

const (
	tlScalar timelineTag = iota
	tlAttachment
	tlDeform
	tlDrawOrder
	tlEvent
)

func decodeCurve(c *cursor) (spine2d.Curve, error) {
	tag, err := c.u8()
	if err != nil {
		return spine2d.Curve{}, err
	}
	curve := spine2d.Curve{Type: spine2d.CurveType(tag)}
	if curve.Type == spine2d.CurveBezier {
		for i := range curve.P {
			if curve.P[i], err = c.f32(); err != nil {
				return curve, err
			}
		}
	}
	return curve, nil
}

// remapConstraintTarget translates a combined-order constraint index read
// from the file into the per-kind index RigDescription slices use. The
// physics timeline sentinel -1 ("apply to every physics constraint", spec
// §9(e)) passes through unchanged.
func remapConstraintTarget(combined int, combinedToKind map[int]spine2d.ConstraintRef) (int, error) {
	if combined < 0 {
		return combined, nil
	}
	ref, ok := combinedToKind[combined]
	if !ok {
		return 0, fmt.Errorf("timeline references unknown constraint order %d", combined)
	}
	return ref.Index, nil
}

func decodeScalarTimeline(c *cursor, combinedToKind map[int]spine2d.ConstraintRef) (*spine2d.ScalarTimeline, error) {
	chByte, err := c.u8()
	if err != nil {
		return nil, err
	}
	ch := spine2d.Channel(chByte)

	rawTarget, err := c.zigzag()
	if err != nil {
		return nil, err
	}
	target := int(rawTarget)
	if isConstraintChannel(ch) {
		target, err = remapConstraintTarget(target, combinedToKind)
		if err != nil {
			return nil, err
		}
	}

	n, err := c.varint()
	if err != nil {
		return nil, err
	}
	frames := make([]spine2d.Keyframe, n)
	for i := range frames {
		t, err := c.f32()
		if err != nil {
			return nil, err
		}
		v, err := c.f32()
		if err != nil {
			return nil, err
		}
		curve, err := decodeCurve(c)
		if err != nil {
			return nil, err
		}
		frames[i] = spine2d.Keyframe{Time: t, Value: v, Curve: curve}
	}
	return &spine2d.ScalarTimeline{Channel: ch, Target: target, Frames: frames}, nil
}

func isConstraintChannel(ch spine2d.Channel) bool {
	switch ch {
	case spine2d.ChIKMix, spine2d.ChIKSoftness,
		spine2d.ChTransformMixRotate, spine2d.ChTransformMixX, spine2d.ChTransformMixY,
		spine2d.ChTransformMixScaleX, spine2d.ChTransformMixScaleY, spine2d.ChTransformMixShearY,
		spine2d.ChPathPosition, spine2d.ChPathSpacing, spine2d.ChPathMixRotate, spine2d.ChPathMixX, spine2d.ChPathMixY,
		spine2d.ChPhysicsInertia, spine2d.ChPhysicsStrength, spine2d.ChPhysicsDamping, spine2d.ChPhysicsMassInverse,
		spine2d.ChPhysicsWind, spine2d.ChPhysicsGravity, spine2d.ChPhysicsMix, spine2d.ChPhysicsReset,
		spine2d.ChSliderTime, spine2d.ChSliderMix:
		return true
	}
	return false
}

func decodeAttachmentTimeline(c *cursor, strtab []string) (*spine2d.AttachmentTimeline, error) {
	slot, err := c.varint()
	if err != nil {
		return nil, err
	}
	n, err := c.varint()
	if err != nil {
		return nil, err
	}
	times := make([]float32, n)
	keys := make([]string, n)
	for i := range times {
		if times[i], err = c.f32(); err != nil {
			return nil, err
		}
		key, has, err := c.stringRef(strtab)
		if err != nil {
			return nil, err
		}
		if has {
			keys[i] = key
		}
	}
	return &spine2d.AttachmentTimeline{Slot: int(slot), Times: times, Keys: keys}, nil
}

func decodeDeformTimeline(c *cursor, strtab []string, scale float32) (*spine2d.DeformTimeline, error) {
	slot, err := c.varint()
	if err != nil {
		return nil, err
	}
	attachName, _, err := c.stringRef(strtab)
	if err != nil {
		return nil, err
	}
	deformLen, err := c.varint()
	if err != nil {
		return nil, err
	}
	n, err := c.varint()
	if err != nil {
		return nil, err
	}
	times := make([]float32, n)
	deforms := make([][]float32, n)
	curves := make([]spine2d.Curve, 0, n)
	for i := range times {
		if times[i], err = c.f32(); err != nil {
			return nil, err
		}
		hasDeform, err := c.boolean()
		if err != nil {
			return nil, err
		}
		if hasDeform {
			d := make([]float32, deformLen)
			for v := range d {
				if d[v], err = c.f32(); err != nil {
					return nil, err
				}
			}
			scaleFloats(d, scale)
			deforms[i] = d
		} else {
			deforms[i] = make([]float32, deformLen)
		}
		if i < int(n)-1 {
			curve, err := decodeCurve(c)
			if err != nil {
				return nil, err
			}
			curves = append(curves, curve)
		}
	}
	return &spine2d.DeformTimeline{
		Slot: int(slot), TimelineAttachment: attachName,
		Times: times, Deforms: deforms, Curves: curves,
	}, nil
}

func decodeDrawOrderTimeline(c *cursor, slotCount int) (*spine2d.DrawOrderTimeline, error) {
	n, err := c.varint()
	if err != nil {
		return nil, err
	}
	times := make([]float32, n)
	orders := make([][]int, n)
	for i := range times {
		if times[i], err = c.f32(); err != nil {
			return nil, err
		}
		custom, err := c.boolean()
		if err != nil {
			return nil, err
		}
		if !custom {
			orders[i] = nil
			continue
		}
		order := make([]int, slotCount)
		for s := range order {
			v, err := c.varint()
			if err != nil {
				return nil, err
			}
			order[s] = int(v)
		}
		orders[i] = order
	}
	return &spine2d.DrawOrderTimeline{Times: times, Orders: orders}, nil
}

func decodeEventTimeline(c *cursor, strtab []string, events map[string]*spine2d.EventData) (*spine2d.EventTimeline, error) {
	n, err := c.varint()
	if err != nil {
		return nil, err
	}
	out := make([]spine2d.Event, n)
	for i := range out {
		t, err := c.f32()
		if err != nil {
			return nil, err
		}
		name, hasName, err := c.stringRef(strtab)
		if err != nil {
			return nil, err
		}
		if !hasName {
			return nil, fmt.Errorf("event timeline frame missing event name at offset %d", c.offset())
		}
		def := events[name]

		hasInt, err := c.boolean()
		if err != nil {
			return nil, err
		}
		intVal := int32(0)
		if def != nil {
			intVal = def.Int
		}
		if hasInt {
			v, err := c.zigzag()
			if err != nil {
				return nil, err
			}
			intVal = v
		}

		hasFloat, err := c.boolean()
		if err != nil {
			return nil, err
		}
		floatVal := float32(0)
		if def != nil {
			floatVal = def.Float
		}
		if hasFloat {
			if floatVal, err = c.f32(); err != nil {
				return nil, err
			}
		}

		// The string-ref sentinel 0 ("absent") falls back to the event's
		// default string; an explicit empty-string ref does not (spec
		// §9(d)).
		strVal, hasStr, err := c.stringRef(strtab)
		if err != nil {
			return nil, err
		}
		if !hasStr {
			if def != nil {
				strVal = def.String
			} else {
				strVal = ""
			}
		}

		volume, balance := float32(1), float32(0)
		if def != nil {
			volume, balance = def.Volume, def.Balance
		}

		out[i] = spine2d.Event{
			Time: t, Name: name, Int: intVal, Float: floatVal, String: strVal,
			Volume: volume, Balance: balance,
		}
	}
	return &spine2d.EventTimeline{Events: out}, nil
}

func decodeAnimations(
	c *cursor, strtab []string,
	bones []spine2d.BoneData, slots []spine2d.SlotData, skins map[string]*spine2d.SkinData,
	ik []spine2d.IKConstraintData, transform []spine2d.TransformConstraintData,
	path []spine2d.PathConstraintData, physics []spine2d.PhysicsConstraintData, slider []spine2d.SliderConstraintData,
	combinedToKind map[int]spine2d.ConstraintRef, scale float32, events map[string]*spine2d.EventData,
) ([]*spine2d.Animation, map[string]int, error) {
	n, err := c.varint()
	if err != nil {
		return nil, nil, wrapErr(c, "animation count", err)
	}
	anims := make([]*spine2d.Animation, n)
	byName := make(map[string]int, n)

	for i := 0; i < int(n); i++ {
		name, _, err := c.str()
		if err != nil {
			return nil, nil, wrapErr(c, "animation name", err)
		}
		duration, err := c.f32()
		if err != nil {
			return nil, nil, wrapErr(c, "animation duration", err)
		}
		tlCount, err := c.varint()
		if err != nil {
			return nil, nil, wrapErr(c, "timeline count", err)
		}
		timelines := make([]spine2d.Timeline, tlCount)
		for t := 0; t < int(tlCount); t++ {
			tag, err := c.u8()
			if err != nil {
				return nil, nil, wrapErr(c, "timeline tag", err)
			}
			switch timelineTag(tag) {
			case tlScalar:
				s, err := decodeScalarTimeline(c, combinedToKind)
				if err != nil {
					return nil, nil, wrapErr(c, fmt.Sprintf("animation %q scalar timeline", name), err)
				}
				timelines[t] = spine2d.Timeline{Scalar: s}
			case tlAttachment:
				a, err := decodeAttachmentTimeline(c, strtab)
				if err != nil {
					return nil, nil, wrapErr(c, fmt.Sprintf("animation %q attachment timeline", name), err)
				}
				timelines[t] = spine2d.Timeline{Attachment: a}
			case tlDeform:
				d, err := decodeDeformTimeline(c, strtab, scale)
				if err != nil {
					return nil, nil, wrapErr(c, fmt.Sprintf("animation %q deform timeline", name), err)
				}
				timelines[t] = spine2d.Timeline{Deform: d}
			case tlDrawOrder:
				d, err := decodeDrawOrderTimeline(c, len(slots))
				if err != nil {
					return nil, nil, wrapErr(c, fmt.Sprintf("animation %q draw order timeline", name), err)
				}
				timelines[t] = spine2d.Timeline{DrawOrder: d}
			case tlEvent:
				e, err := decodeEventTimeline(c, strtab, events)
				if err != nil {
					return nil, nil, wrapErr(c, fmt.Sprintf("animation %q event timeline", name), err)
				}
				timelines[t] = spine2d.Timeline{EventTl: e}
			default:
				return nil, nil, fmt.Errorf("unknown timeline tag %d at offset %d", tag, c.offset())
			}
		}
		anims[i] = &spine2d.Animation{Name: name, Duration: duration, Timelines: timelines}
		byName[name] = i
	}
	return anims, byName, nil
}
