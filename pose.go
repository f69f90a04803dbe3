package spine2d

import "github.com/go-gl/mathgl/mgl32"

// pose.go holds the mutable per-instance pose state (spec §3 "Pose state").
// A Pose is constructed from a RigDescription, initialized to the setup
// pose, and thereafter mutated only by a Mixer and by UpdateWorldTransform.

// Bone is the mutable per-instance mirror of one BoneData.
type Bone struct {
	Parent int
	Length float32
	Inherit InheritMode
	Active  bool

	// Applied-local fields: what animations/constraints write to (spec §4.1).
	AX, AY                   float32
	ARotation                float32
	AScaleX, AScaleY         float32
	AShearX, AShearY         float32

	// World fields: a 2x2 matrix (A,B,C,D) plus translation, consumed by
	// downstream renderers (spec §3, glossary "World transform").
	A, B, C, D     float32
	WorldX, WorldY float32

	LocalEpoch   uint64
	WorldEpoch   uint64
	AppliedValid bool

	setup BoneData // setup-pose snapshot; applied-local fields are reset to this at the end of every UpdateWorldTransform pass (spec §4.7 step 2), so the next tick's mixer apply blends MixAdd channels against a clean baseline instead of the previous tick's already-blended values
}

// SlotState is the mutable per-instance mirror of one SlotData.
type SlotState struct {
	HasAttachment   bool
	Attachment      string
	AttachmentSkin  string // which skin the current attachment was sourced from; "" = setup/none

	Deform []float32 // empty = no deform this frame

	Color     [4]float32
	HasDark   bool
	DarkColor [3]float32
	Blend     BlendMode

	SequenceIndex int
}

// IKState is the mutable mix/strength state of one IK constraint.
type IKState struct {
	Mix      float32
	Softness float32
}

// TransformState is the mutable mix state of one transform constraint; a
// copy of the descriptor's property list so per-property mixes can be
// animated independently (spec §4.5.2).
type TransformState struct {
	Properties []TransformProperty
}

// PathState is the mutable mix state of one path constraint.
type PathState struct {
	Position  float32
	Spacing   float32
	MixRotate float32
	MixX      float32
	MixY      float32
}

// PhysicsState is the mutable mix/strength plus integrator state of one
// physics constraint (spec §4.5.4).
type PhysicsState struct {
	Inertia, Strength, Damping, MassInverse, Wind, Gravity, Mix float32

	activated bool // whether UX/UY has been snapshotted yet
	UX, UY    float32

	OffsetX, OffsetY   float32
	VelX, VelY         float32
	RotateOffset       float32 // radians
	RotateVel          float32
	ScaleOffset        float32
	ScaleVel           float32

	LagX, LagY, LagRotate, LagScale float32

	Remaining float32
	LastTime  float32

	lastBoneX, lastBoneY float32 // for inertia displacement tracking
}

// SliderState is the mutable mix/time state of one slider constraint.
type SliderState struct {
	Mix  float32
	Time float32
}

// Pose is a mutable per-instance pose over a shared RigDescription (spec
// §3 "Pose state", §5 concurrency model: confined to one goroutine per
// method call, never blocks).
type Pose struct {
	Rig *RigDescription

	Bones []Bone
	Slots []SlotState
	IK    []IKState
	Transform []TransformState
	Path  []PathState
	Physics []PhysicsState
	Slider []SliderState

	Skin     string // "" means "unset" (spec §4.3)
	HasSkin  bool

	DrawOrder []int

	ScaleX, ScaleY float32
	X, Y           float32
	Wind, Gravity  mgl32.Vec2
	Clock          float32
	lastDelta      float32

	UpdateEpoch uint64

	children        [][]int // bone -> direct children, from static rig topology
	activeBones     []bool
	activeIK        []bool
	activeTransform []bool
	activePath      []bool
	activePhysics   []bool
	activeSlider    []bool

	cache       []updateDirective
	cacheValid  bool

	// Reusable scratch buffers sized at construction from rig topology
	// (spec §5). The path evaluator reuses pathWorldScratch for world
	// vertices, but pathNodes still allocates its node and arc-length
	// slices on every call; pathCurveScratch, pathPosScratch and
	// resetScratch are allocated and not read.
	pathWorldScratch  []float32
	pathCurveScratch  []float32
	pathPosScratch    []float32
	sortedScratch     []bool
	resetScratch      []bool
}

// MakeInstance constructs a fresh Pose in the setup pose (spec §6
// make_instance). The rig is referenced, never copied or mutated.
func MakeInstance(rig *RigDescription) *Pose {
	p := &Pose{
		Rig:     rig,
		ScaleX:  1, ScaleY: 1,
		DrawOrder: make([]int, len(rig.Slots)),
	}
	p.Bones = make([]Bone, len(rig.Bones))
	for i, bd := range rig.Bones {
		p.Bones[i] = Bone{Parent: bd.Parent, Length: bd.Length, Inherit: bd.Inherit, setup: bd, A: 1, D: 1}
	}
	p.children = make([][]int, len(rig.Bones))
	for i, b := range p.Bones {
		if b.Parent >= 0 {
			p.children[b.Parent] = append(p.children[b.Parent], i)
		}
	}

	p.Slots = make([]SlotState, len(rig.Slots))
	p.IK = make([]IKState, len(rig.IK))
	p.Transform = make([]TransformState, len(rig.Transform))
	p.Path = make([]PathState, len(rig.Path))
	p.Physics = make([]PhysicsState, len(rig.Physics))
	p.Slider = make([]SliderState, len(rig.Slider))

	maxVerts, maxCurves := pathScratchBounds(rig)
	p.pathWorldScratch = make([]float32, maxVerts)
	p.pathCurveScratch = make([]float32, maxCurves)
	p.pathPosScratch = make([]float32, maxVerts+2)
	p.sortedScratch = make([]bool, len(rig.Bones))
	p.resetScratch = make([]bool, len(rig.Bones))

	p.activeBones = make([]bool, len(rig.Bones))
	p.activeIK = make([]bool, len(rig.IK))
	p.activeTransform = make([]bool, len(rig.Transform))
	p.activePath = make([]bool, len(rig.Path))
	p.activePhysics = make([]bool, len(rig.Physics))
	p.activeSlider = make([]bool, len(rig.Slider))

	p.SetToSetupPose()
	return p
}

// pathScratchBounds returns the maximum world-vertex count and curve-
// segment count across every Path/Mesh attachment in the rig, used to
// pre-size path-constraint scratch buffers (spec §5).
func pathScratchBounds(rig *RigDescription) (maxVerts, maxCurves int) {
	consider := func(n int) {
		if n > maxVerts {
			maxVerts = n
		}
	}
	for _, skin := range rig.Skins {
		for _, byKey := range skin.Attachments {
			for _, a := range byKey {
				switch at := a.(type) {
				case *PathAttachment:
					consider(len(at.Vertices) / 2)
					if len(at.Lengths) > maxCurves {
						maxCurves = len(at.Lengths)
					}
				case *MeshAttachment:
					consider(at.WorldVertexCount())
				}
			}
		}
	}
	if maxVerts == 0 {
		maxVerts = 8
	}
	if maxCurves == 0 {
		maxCurves = 8
	}
	return maxVerts, maxCurves
}

// SetToSetupPose resets applied-local bone fields, slot attachments,
// colors, blend modes, and constraint mix/parameter fields from the
// descriptors (spec §4.3).
func (p *Pose) SetToSetupPose() {
	for i := range p.Bones {
		b := &p.Bones[i]
		b.AX, b.AY = b.setup.X, b.setup.Y
		b.ARotation = b.setup.Rotation
		b.AScaleX, b.AScaleY = b.setup.ScaleX, b.setup.ScaleY
		b.AShearX, b.AShearY = b.setup.ShearX, b.setup.ShearY
		b.AppliedValid = true
	}

	for i, sd := range p.Rig.Slots {
		s := &p.Slots[i]
		s.Color = sd.Color
		s.HasDark = sd.HasDark
		s.DarkColor = sd.DarkColor
		s.Blend = sd.Blend
		s.Deform = s.Deform[:0]
		s.SequenceIndex = -1

		key, skin, has := p.resolveSetupAttachment(i)
		s.HasAttachment = has
		s.Attachment = key
		s.AttachmentSkin = skin
	}

	for i, d := range p.Rig.IK {
		p.IK[i] = IKState{Mix: d.Mix, Softness: d.Softness}
	}
	for i, d := range p.Rig.Transform {
		props := make([]TransformProperty, len(d.Properties))
		copy(props, d.Properties)
		p.Transform[i] = TransformState{Properties: props}
	}
	for i, d := range p.Rig.Path {
		p.Path[i] = PathState{Position: d.Position, Spacing: d.Spacing, MixRotate: d.MixRotate, MixX: d.MixX, MixY: d.MixY}
	}
	for i, d := range p.Rig.Physics {
		p.Physics[i] = PhysicsState{Inertia: d.Inertia, Strength: d.Strength, Damping: d.Damping,
			MassInverse: d.MassInverse, Wind: d.Wind, Gravity: d.Gravity, Mix: d.Mix}
	}
	for i := range p.Rig.Slider {
		p.Slider[i] = SliderState{}
	}

	for i := range p.DrawOrder {
		p.DrawOrder[i] = i
	}

	p.recomputeActivity()
	p.cacheValid = false
}

// resetAppliedToSnapshot restores every bone's applied-local fields to its
// setup snapshot and marks them valid at epoch zero (spec §4.7 step 2).
// Called at the end of UpdateWorldTransform, after world composition has
// already consumed this tick's mixed values, so the next tick's mixer
// apply starts MixAdd channels from the setup baseline rather than
// compounding onto whatever this tick happened to leave behind. It leaves
// slot attachments, colors and constraint states untouched: those are
// owned by the mixer's own claimed/unclaimed timeline classification, not
// by this per-tick bone reset.
func (p *Pose) resetAppliedToSnapshot() {
	for i := range p.Bones {
		b := &p.Bones[i]
		b.AX, b.AY = b.setup.X, b.setup.Y
		b.ARotation = b.setup.Rotation
		b.AScaleX, b.AScaleY = b.setup.ScaleX, b.setup.ScaleY
		b.AShearX, b.AShearY = b.setup.ShearX, b.setup.ShearY
		b.AppliedValid = true
		b.LocalEpoch = 0
	}
}

// resolveSetupAttachment looks up slot i's setup attachment, consulting
// the current skin then "default" (spec §4.3).
func (p *Pose) resolveSetupAttachment(slot int) (key string, skin string, has bool) {
	sd := p.Rig.Slots[slot]
	if !sd.HasSetupAttachment {
		return "", "", false
	}
	if p.HasSkin {
		if sk := p.Rig.Skins[p.Skin]; sk != nil {
			if byKey, ok := sk.Attachments[slot]; ok {
				if _, ok := byKey[sd.SetupAttachment]; ok {
					return sd.SetupAttachment, p.Skin, true
				}
			}
		}
	}
	if def := p.Rig.DefaultSkin(); def != nil {
		if byKey, ok := def.Attachments[slot]; ok {
			if _, ok := byKey[sd.SetupAttachment]; ok {
				return sd.SetupAttachment, "default", true
			}
		}
	}
	return "", "", false
}

// ResolveAttachment returns the Attachment object current for slot i, or
// nil if its attachment is "none" or unresolved (spec §8 property 3).
func (p *Pose) ResolveAttachment(slot int) Attachment {
	s := &p.Slots[slot]
	if !s.HasAttachment {
		return nil
	}
	skinName := s.AttachmentSkin
	if skinName == "" {
		skinName = "default"
	}
	sk := p.Rig.Skins[skinName]
	if sk == nil {
		return nil
	}
	byKey, ok := sk.Attachments[slot]
	if !ok {
		return nil
	}
	return byKey[s.Attachment]
}

// SetSkin changes the active skin using the semantics of spec §4.3. name
// == "" resets to "unset".
func (p *Pose) SetSkin(name string) error {
	if name == "" {
		p.Skin, p.HasSkin = "", false
		p.rebuildAfterSkinChange()
		return nil
	}
	if _, ok := p.Rig.Skins[name]; !ok {
		return NewUnknownSkin(name)
	}

	prevSkin, prevHad := p.Skin, p.HasSkin
	p.Skin, p.HasSkin = name, true

	if !prevHad {
		// unset -> X: setup attachments resolvable in the new skin become current.
		for i := range p.Slots {
			key, skin, has := p.resolveSetupAttachment(i)
			p.Slots[i].HasAttachment = has
			p.Slots[i].Attachment = key
			p.Slots[i].AttachmentSkin = skin
		}
	} else {
		// A -> B: re-source slots whose current attachment came from A and
		// whose key also exists in B; geometry identity preserved, deform cleared.
		newSkin := p.Rig.Skins[name]
		for i := range p.Slots {
			s := &p.Slots[i]
			if !s.HasAttachment || s.AttachmentSkin != prevSkin {
				continue
			}
			if byKey, ok := newSkin.Attachments[i]; ok {
				if _, ok := byKey[s.Attachment]; ok {
					s.AttachmentSkin = name
					s.Deform = s.Deform[:0]
					continue
				}
			}
			s.HasAttachment = false
			s.Attachment = ""
			s.AttachmentSkin = ""
			s.Deform = s.Deform[:0]
		}
	}
	p.rebuildAfterSkinChange()
	return nil
}

func (p *Pose) rebuildAfterSkinChange() {
	p.recomputeActivity()
	p.cacheValid = false
}

// recomputeActivity recomputes bone/constraint activity flags (spec §4.4
// "Activity").
func (p *Pose) recomputeActivity() {
	skin := p.currentSkinIncludingDefault()

	for i, bd := range p.Rig.Bones {
		if !bd.SkinRequired {
			p.activeBones[i] = true
			continue
		}
		p.activeBones[i] = skin != nil && p.boneInClosure(skin, i)
	}

	for i, d := range p.Rig.IK {
		target := d.Target
		active := p.activeBones[target]
		if active && d.SkinRequired {
			active = p.constraintInClosure(skin, constraintCombinedIndex(p.Rig, ConstraintIK, i))
		}
		p.activeIK[i] = active
	}
	for i, d := range p.Rig.Transform {
		active := p.activeBones[d.Source]
		if active && d.SkinRequired {
			active = p.constraintInClosure(skin, constraintCombinedIndex(p.Rig, ConstraintTransform, i))
		}
		p.activeTransform[i] = active
	}
	for i, d := range p.Rig.Path {
		active := p.activeBones[boneOfSlot(p.Rig, d.Target)]
		if active && d.SkinRequired {
			active = p.constraintInClosure(skin, constraintCombinedIndex(p.Rig, ConstraintPath, i))
		}
		p.activePath[i] = active
	}
	for i, d := range p.Rig.Physics {
		active := p.activeBones[d.Bone]
		if active && d.SkinRequired {
			active = p.constraintInClosure(skin, constraintCombinedIndex(p.Rig, ConstraintPhysics, i))
		}
		p.activePhysics[i] = active
	}
	for i, d := range p.Rig.Slider {
		active := true
		if d.Bone >= 0 {
			active = p.activeBones[d.Bone]
		}
		if active && d.SkinRequired {
			active = p.constraintInClosure(skin, constraintCombinedIndex(p.Rig, ConstraintSlider, i))
		}
		p.activeSlider[i] = active
	}
}

func boneOfSlot(rig *RigDescription, slot int) int {
	if slot < 0 || slot >= len(rig.Slots) {
		return -1
	}
	return rig.Slots[slot].BoneIndex
}

func constraintCombinedIndex(rig *RigDescription, kind ConstraintKind, index int) int {
	for _, ref := range rig.ConstraintOrder {
		if ref.Kind == kind && ref.Index == index {
			return ref.Order
		}
	}
	return -1
}

func (p *Pose) currentSkinIncludingDefault() *SkinData {
	if p.HasSkin {
		return p.Rig.Skins[p.Skin]
	}
	return nil
}

// boneInClosure reports whether bone i is transitively included by skin,
// chasing parents upward (spec §4.4 "Activity").
func (p *Pose) boneInClosure(skin *SkinData, i int) bool {
	for cur := i; cur >= 0; cur = p.Bones[cur].Parent {
		if skin.BoneIndices[cur] {
			return true
		}
	}
	return false
}

func (p *Pose) constraintInClosure(skin *SkinData, combinedIndex int) bool {
	if skin == nil || combinedIndex < 0 {
		return false
	}
	return skin.ConstraintIndices[combinedIndex]
}
