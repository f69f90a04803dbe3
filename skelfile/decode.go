package skelfile

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nilrig/spine2d"
)

// decode.go implements the top-level .skel layout (spec §4.2): header,
// string table, bones, slots, the mixed constraint list, skins, events,
// animations, and the slider trailer.

type attachmentKindTag byte

const (
	tagRegion attachmentKindTag = iota
	tagBoundingBox
	tagMesh
	tagLinkedMesh
	tagPath
	tagPoint
	tagClipping
)

type constraintTag byte

const (
	tagIK constraintTag = iota
	tagTransform
	tagPath2
	tagPhysics
	tagSlider
)

// pendingLinkedMesh is a linked mesh attachment not yet resolved against
// its parent (spec §4.2 "Linked meshes").
type pendingLinkedMesh struct {
	skinIndex  int
	slot       int
	key        string
	mesh       *spine2d.MeshAttachment
	parentSkin int
	parentKey  string
}

// Decode parses a .skel byte stream into an immutable RigDescription.
// scale multiplies every vertex/length/bounding-rect coordinate in the
// file (spec §4.2); pass 1 for no rescaling.
func Decode(data []byte, scale float32) (rig *spine2d.RigDescription, err error) {
	c := newCursor(data)
	// Every failure leaves as a *spine2d.SkelError: an untagged error from a
	// helper is reported as BinaryParse at the current offset.
	defer func() {
		var se *spine2d.SkelError
		if err != nil && !errors.As(err, &se) {
			rig, err = nil, spine2d.NewParseError(c.offset(), "%v", err)
		}
	}()

	hash, _, err := c.str()
	if err != nil {
		return nil, wrapErr(c, "hash", err)
	}
	version, ok, err := c.str()
	if err != nil {
		return nil, wrapErr(c, "version", err)
	}
	if !ok {
		return nil, fmt.Errorf("missing Spine version string")
	}
	if err := checkMajorVersion(version); err != nil {
		return nil, err
	}

	// bounds rectangle (x, y, width, height), scaled, retained only for
	// parity with the file layout — not part of RigDescription.
	for i := 0; i < 4; i++ {
		if _, err := c.scaledF32(scale); err != nil {
			return nil, wrapErr(c, "bounds", err)
		}
	}

	referenceScale, err := c.f32()
	if err != nil {
		return nil, wrapErr(c, "reference scale", err)
	}

	nonessential, err := c.boolean()
	if err != nil {
		return nil, wrapErr(c, "nonessential flag", err)
	}

	strings_, err := decodeStringTable(c)
	if err != nil {
		return nil, err
	}

	bones, err := decodeBones(c, scale)
	if err != nil {
		return nil, err
	}
	slots, err := decodeSlots(c, strings_)
	if err != nil {
		return nil, err
	}

	ik, transform, path, physics, slider, order, combined, err := decodeConstraints(c, strings_)
	if err != nil {
		return nil, err
	}
	for i := range path {
		if path[i].PositionMode == spine2d.PositionFixed {
			path[i].Position *= scale
		}
		if path[i].SpacingMode == spine2d.SpacingLength || path[i].SpacingMode == spine2d.SpacingFixed {
			path[i].Spacing *= scale
		}
	}

	skinOrder, skins, linked, err := decodeSkins(c, strings_, bones, slots, scale, nonessential)
	if err != nil {
		return nil, err
	}
	if err := resolveLinkedMeshes(skins, skinOrder, linked); err != nil {
		return nil, err
	}

	events, err := decodeEvents(c, strings_)
	if err != nil {
		return nil, err
	}

	animations, animByName, err := decodeAnimations(c, strings_, bones, slots, skins, ik, transform, path, physics, slider, combined, scale, events)
	if err != nil {
		return nil, err
	}

	for i := range slider {
		idx, err := c.zigzag()
		if err != nil {
			return nil, wrapErr(c, fmt.Sprintf("slider trailer %d", i), err)
		}
		slider[i].AnimationIndex = int(idx)
	}

	return &spine2d.RigDescription{
		Hash: hash, Version: version, ReferenceScale: referenceScale,
		Bones: bones, Slots: slots,
		Skins: skins, SkinOrder: skinOrder,
		IK: ik, Transform: transform, Path: path, Physics: physics, Slider: slider,
		ConstraintOrder: order,
		Events:          events,
		Animations:      animations, AnimByName: animByName,
	}, nil
}

func wrapErr(c *cursor, what string, err error) error {
	return spine2d.NewParseError(c.offset(), "%s: %v", what, err)
}

func checkMajorVersion(version string) error {
	major := version
	if i := strings.IndexByte(version, '.'); i >= 0 {
		major = version[:i]
	}
	n, err := strconv.Atoi(major)
	if err != nil || n != 4 {
		return spine2d.NewVersionError(version)
	}
	return nil
}

func decodeStringTable(c *cursor) ([]string, error) {
	n, err := c.varint()
	if err != nil {
		return nil, wrapErr(c, "string table count", err)
	}
	out := make([]string, n)
	for i := range out {
		s, _, err := c.str()
		if err != nil {
			return nil, wrapErr(c, "string table entry", err)
		}
		out[i] = s
	}
	return out, nil
}

func decodeBones(c *cursor, scale float32) ([]spine2d.BoneData, error) {
	n, err := c.varint()
	if err != nil {
		return nil, wrapErr(c, "bone count", err)
	}
	out := make([]spine2d.BoneData, n)
	for i := range out {
		name, _, err := c.str()
		if err != nil {
			return nil, wrapErr(c, "bone name", err)
		}
		parent := -1
		if i > 0 {
			p, err := c.varint()
			if err != nil {
				return nil, wrapErr(c, "bone parent", err)
			}
			parent = int(p)
		}
		rotation, err := c.f32()
		if err != nil {
			return nil, wrapErr(c, "bone rotation", err)
		}
		x, err := c.scaledF32(scale)
		if err != nil {
			return nil, err
		}
		y, err := c.scaledF32(scale)
		if err != nil {
			return nil, err
		}
		scaleX, err := c.f32()
		if err != nil {
			return nil, err
		}
		scaleY, err := c.f32()
		if err != nil {
			return nil, err
		}
		shearX, err := c.f32()
		if err != nil {
			return nil, err
		}
		shearY, err := c.f32()
		if err != nil {
			return nil, err
		}
		// Inherit mode is read as a raw u8 before length, not a varint
		// (spec §9(c)) -- deliberate asymmetry with most other enum-like
		// tags in this format, preserved exactly.
		inheritByte, err := c.u8()
		if err != nil {
			return nil, wrapErr(c, "bone inherit", err)
		}
		length, err := c.scaledF32(scale)
		if err != nil {
			return nil, wrapErr(c, "bone length", err)
		}
		skinRequired, err := c.boolean()
		if err != nil {
			return nil, err
		}

		out[i] = spine2d.BoneData{
			Name: name, Parent: parent, Length: length,
			X: x, Y: y, Rotation: rotation,
			ScaleX: scaleX, ScaleY: scaleY, ShearX: shearX, ShearY: shearY,
			Inherit:      spine2d.InheritMode(inheritByte),
			SkinRequired: skinRequired,
		}
	}
	return out, nil
}

func decodeSlots(c *cursor, strtab []string) ([]spine2d.SlotData, error) {
	n, err := c.varint()
	if err != nil {
		return nil, wrapErr(c, "slot count", err)
	}
	out := make([]spine2d.SlotData, n)
	for i := range out {
		name, _, err := c.str()
		if err != nil {
			return nil, err
		}
		boneIdx, err := c.varint()
		if err != nil {
			return nil, err
		}
		col, err := c.color()
		if err != nil {
			return nil, err
		}
		hasDark, err := c.boolean()
		if err != nil {
			return nil, err
		}
		var dark [3]float32
		if hasDark {
			full, err := c.color()
			if err != nil {
				return nil, err
			}
			dark = [3]float32{full[0], full[1], full[2]}
		}
		attachName, hasAttach, err := c.stringRef(strtab)
		if err != nil {
			return nil, err
		}
		blend, err := c.varint()
		if err != nil {
			return nil, err
		}
		out[i] = spine2d.SlotData{
			Name: name, BoneIndex: int(boneIdx),
			Color: col, HasDark: hasDark, DarkColor: dark,
			HasSetupAttachment: hasAttach, SetupAttachment: attachName,
			Blend: spine2d.BlendMode(blend),
		}
	}
	return out, nil
}

func decodeConstraints(c *cursor, strtab []string) (
	ik []spine2d.IKConstraintData, transform []spine2d.TransformConstraintData,
	path []spine2d.PathConstraintData, physics []spine2d.PhysicsConstraintData,
	slider []spine2d.SliderConstraintData,
	order []spine2d.ConstraintRef, combinedToKind map[int]spine2d.ConstraintRef, err error,
) {
	n, err := c.varint()
	if err != nil {
		return nil, nil, nil, nil, nil, nil, nil, wrapErr(c, "constraint count", err)
	}
	combinedToKind = make(map[int]spine2d.ConstraintRef, n)
	for i := 0; i < int(n); i++ {
		tagByte, err := c.u8()
		if err != nil {
			return nil, nil, nil, nil, nil, nil, nil, wrapErr(c, "constraint tag", err)
		}
		switch constraintTag(tagByte) {
		case tagIK:
			d, derr := decodeIK(c, strtab)
			if derr != nil {
				return nil, nil, nil, nil, nil, nil, nil, derr
			}
			d.Order = i
			idx := len(ik)
			ik = append(ik, d)
			ref := spine2d.ConstraintRef{Kind: spine2d.ConstraintIK, Index: idx, Order: i}
			order = append(order, ref)
			combinedToKind[i] = ref
		case tagTransform:
			d, derr := decodeTransform(c, strtab)
			if derr != nil {
				return nil, nil, nil, nil, nil, nil, nil, derr
			}
			d.Order = i
			idx := len(transform)
			transform = append(transform, d)
			ref := spine2d.ConstraintRef{Kind: spine2d.ConstraintTransform, Index: idx, Order: i}
			order = append(order, ref)
			combinedToKind[i] = ref
		case tagPath2:
			d, derr := decodePath(c, strtab)
			if derr != nil {
				return nil, nil, nil, nil, nil, nil, nil, derr
			}
			d.Order = i
			idx := len(path)
			path = append(path, d)
			ref := spine2d.ConstraintRef{Kind: spine2d.ConstraintPath, Index: idx, Order: i}
			order = append(order, ref)
			combinedToKind[i] = ref
		case tagPhysics:
			d, derr := decodePhysics(c, strtab)
			if derr != nil {
				return nil, nil, nil, nil, nil, nil, nil, derr
			}
			d.Order = i
			idx := len(physics)
			physics = append(physics, d)
			ref := spine2d.ConstraintRef{Kind: spine2d.ConstraintPhysics, Index: idx, Order: i}
			order = append(order, ref)
			combinedToKind[i] = ref
		case tagSlider:
			d, derr := decodeSlider(c, strtab)
			if derr != nil {
				return nil, nil, nil, nil, nil, nil, nil, derr
			}
			d.Order = i
			idx := len(slider)
			slider = append(slider, d)
			ref := spine2d.ConstraintRef{Kind: spine2d.ConstraintSlider, Index: idx, Order: i}
			order = append(order, ref)
			combinedToKind[i] = ref
		default:
			return nil, nil, nil, nil, nil, nil, nil, fmt.Errorf("unknown constraint tag %d at offset %d", tagByte, c.offset())
		}
	}
	return ik, transform, path, physics, slider, order, combinedToKind, nil
}

func decodeIK(c *cursor, strtab []string) (spine2d.IKConstraintData, error) {
	var d spine2d.IKConstraintData
	var err error
	if d.Name, _, err = c.str(); err != nil {
		return d, err
	}
	n, err := c.varint()
	if err != nil {
		return d, err
	}
	d.Bones = make([]int, n)
	for i := range d.Bones {
		v, err := c.varint()
		if err != nil {
			return d, err
		}
		d.Bones[i] = int(v)
	}
	target, err := c.varint()
	if err != nil {
		return d, err
	}
	d.Target = int(target)
	if d.Mix, err = c.f32(); err != nil {
		return d, err
	}
	if d.Softness, err = c.f32(); err != nil {
		return d, err
	}
	bendPositive, err := c.u8()
	if err != nil {
		return d, err
	}
	d.BendPositive = bendPositive != 0
	flags, err := c.u8()
	if err != nil {
		return d, err
	}
	d.Compress = flags&1 != 0
	d.Stretch = flags&2 != 0
	d.UniformScale = flags&4 != 0
	d.SkinRequired = flags&8 != 0
	return d, nil
}

func decodeTransform(c *cursor, strtab []string) (spine2d.TransformConstraintData, error) {
	var d spine2d.TransformConstraintData
	var err error
	if d.Name, _, err = c.str(); err != nil {
		return d, err
	}
	n, err := c.varint()
	if err != nil {
		return d, err
	}
	d.Bones = make([]int, n)
	for i := range d.Bones {
		v, err := c.varint()
		if err != nil {
			return d, err
		}
		d.Bones[i] = int(v)
	}
	source, err := c.varint()
	if err != nil {
		return d, err
	}
	d.Source = int(source)
	spaceFlags, err := c.u8()
	if err != nil {
		return d, err
	}
	d.SourceSpace = spine2d.Space(spaceFlags & 1)
	d.TargetSpace = spine2d.Space((spaceFlags >> 1) & 1)
	skinRequired, err := c.boolean()
	if err != nil {
		return d, err
	}
	d.SkinRequired = skinRequired

	propCount, err := c.varint()
	if err != nil {
		return d, err
	}
	d.Properties = make([]spine2d.TransformProperty, propCount)
	for i := range d.Properties {
		p := &d.Properties[i]
		fromTo, err := c.u8()
		if err != nil {
			return d, err
		}
		p.From = spine2d.Property(fromTo & 0xf)
		p.To = spine2d.Property(fromTo >> 4)
		if p.Mix, err = c.f32(); err != nil {
			return d, err
		}
		if p.FromOffset, err = c.f32(); err != nil {
			return d, err
		}
		if p.ToOffset, err = c.f32(); err != nil {
			return d, err
		}
		if p.ToScale, err = c.f32(); err != nil {
			return d, err
		}
		clampFlag, err := c.boolean()
		if err != nil {
			return d, err
		}
		p.Clamp = clampFlag
		if p.ToMax, err = c.f32(); err != nil {
			return d, err
		}
		additive, err := c.boolean()
		if err != nil {
			return d, err
		}
		p.Additive = additive
	}
	return d, nil
}

func decodePath(c *cursor, strtab []string) (spine2d.PathConstraintData, error) {
	var d spine2d.PathConstraintData
	var err error
	if d.Name, _, err = c.str(); err != nil {
		return d, err
	}
	n, err := c.varint()
	if err != nil {
		return d, err
	}
	d.Bones = make([]int, n)
	for i := range d.Bones {
		v, err := c.varint()
		if err != nil {
			return d, err
		}
		d.Bones[i] = int(v)
	}
	target, err := c.varint()
	if err != nil {
		return d, err
	}
	d.Target = int(target)

	// PositionMode is read with `((flags >> 1) & 2) != 0`, which tests bit
	// 2, not the symmetrical `(flags>>1)&1` (bit 1) one might expect --
	// preserved exactly per spec §9(b) rather than "fixed" into the obvious
	// form. SpacingMode is bits 2-3 and RotateMode bits 4-5 of the same
	// flags byte.
	flags, err := c.u8()
	if err != nil {
		return d, err
	}
	if (flags>>1)&2 != 0 {
		d.PositionMode = spine2d.PositionPercent
	} else {
		d.PositionMode = spine2d.PositionFixed
	}
	d.SpacingMode = spine2d.SpacingMode((flags >> 2) & 0x3)
	d.RotateMode = spine2d.RotateMode((flags >> 4) & 0x3)

	if d.Position, err = c.f32(); err != nil {
		return d, err
	}
	if d.Spacing, err = c.f32(); err != nil {
		return d, err
	}
	if d.MixRotate, err = c.f32(); err != nil {
		return d, err
	}
	if d.MixX, err = c.f32(); err != nil {
		return d, err
	}
	if d.MixY, err = c.f32(); err != nil {
		return d, err
	}
	if d.OffsetRotation, err = c.f32(); err != nil {
		return d, err
	}
	skinRequired, err := c.boolean()
	if err != nil {
		return d, err
	}
	d.SkinRequired = skinRequired
	return d, nil
}

func decodePhysics(c *cursor, strtab []string) (spine2d.PhysicsConstraintData, error) {
	var d spine2d.PhysicsConstraintData
	var err error
	if d.Name, _, err = c.str(); err != nil {
		return d, err
	}
	bone, err := c.varint()
	if err != nil {
		return d, err
	}
	d.Bone = int(bone)
	fields := []*float32{&d.X, &d.Y, &d.Rotate, &d.ScaleX, &d.Shear,
		&d.Inertia, &d.Strength, &d.Damping, &d.MassInverse,
		&d.Wind, &d.Gravity, &d.Mix, &d.Limit}
	for _, f := range fields {
		if *f, err = c.f32(); err != nil {
			return d, err
		}
	}
	skinRequired, err := c.boolean()
	if err != nil {
		return d, err
	}
	d.SkinRequired = skinRequired
	return d, nil
}

func decodeSlider(c *cursor, strtab []string) (spine2d.SliderConstraintData, error) {
	var d spine2d.SliderConstraintData
	var err error
	if d.Name, _, err = c.str(); err != nil {
		return d, err
	}
	bone, err := c.zigzag()
	if err != nil {
		return d, err
	}
	d.Bone = int(bone)
	propByte, err := c.u8()
	if err != nil {
		return d, err
	}
	d.Property = spine2d.Property(propByte & 0xf)
	d.Local = propByte&0x10 != 0
	if d.From, err = c.f32(); err != nil {
		return d, err
	}
	if d.To, err = c.f32(); err != nil {
		return d, err
	}
	if d.Scale, err = c.f32(); err != nil {
		return d, err
	}
	flags, err := c.u8()
	if err != nil {
		return d, err
	}
	d.Looped = flags&1 != 0
	d.Additive = flags&2 != 0
	d.SkinRequired = flags&4 != 0
	return d, nil
}

func decodeEvents(c *cursor, strtab []string) (map[string]*spine2d.EventData, error) {
	n, err := c.varint()
	if err != nil {
		return nil, wrapErr(c, "event count", err)
	}
	out := make(map[string]*spine2d.EventData, n)
	for i := 0; i < int(n); i++ {
		name, _, err := c.str()
		if err != nil {
			return nil, err
		}
		intVal, err := c.zigzag()
		if err != nil {
			return nil, err
		}
		floatVal, err := c.f32()
		if err != nil {
			return nil, err
		}
		strVal, _, err := c.str()
		if err != nil {
			return nil, err
		}
		audioPath, _, err := c.str()
		if err != nil {
			return nil, err
		}
		var volume, balance float32 = 1, 0
		if audioPath != "" {
			if volume, err = c.f32(); err != nil {
				return nil, err
			}
			if balance, err = c.f32(); err != nil {
				return nil, err
			}
		}
		out[name] = &spine2d.EventData{
			Name: name, Int: intVal, Float: floatVal, String: strVal,
			AudioPath: audioPath, Volume: volume, Balance: balance,
		}
	}
	return out, nil
}
