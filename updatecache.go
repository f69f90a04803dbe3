package spine2d

// updatecache.go builds the linear update-cache sequence spec §4.4
// describes: a list of UpdateBone/UpdateConstraint directives such that
// executing them in order reproduces the reference runtime's pose
// regardless of constraint interleaving. It is rebuilt on skin change or
// activity change (spec §4.4, last paragraph) and otherwise reused as-is.

type directiveKind uint8

const (
	directiveBone directiveKind = iota
	directiveConstraint
)

type updateDirective struct {
	kind       directiveKind
	ckind      ConstraintKind
	index      int
}

// EnsureCache rebuilds the update cache if it is stale.
func (p *Pose) EnsureCache() {
	if p.cacheValid {
		return
	}
	p.rebuildCache()
}

func (p *Pose) rebuildCache() {
	p.cache = p.cache[:0]
	sorted := p.sortedScratch
	for i := range sorted {
		sorted[i] = !p.activeBones[i]
	}

	for _, ref := range p.Rig.ConstraintOrder {
		if !p.constraintActive(ref) {
			continue
		}
		switch ref.Kind {
		case ConstraintIK:
			p.prepIK(ref.Index, sorted)
		case ConstraintTransform:
			p.prepTransform(ref.Index, sorted)
		case ConstraintPath:
			p.prepPath(ref.Index, sorted)
		case ConstraintPhysics:
			p.prepPhysics(ref.Index, sorted)
		case ConstraintSlider:
			p.prepSlider(ref.Index, sorted)
		}
	}

	for i := range p.Bones {
		if p.activeBones[i] && !sorted[i] {
			p.sortBone(i, sorted)
		}
	}
	p.cacheValid = true
}

func (p *Pose) constraintActive(ref ConstraintRef) bool {
	switch ref.Kind {
	case ConstraintIK:
		return p.activeIK[ref.Index]
	case ConstraintTransform:
		return p.activeTransform[ref.Index]
	case ConstraintPath:
		return p.activePath[ref.Index]
	case ConstraintPhysics:
		return p.activePhysics[ref.Index]
	case ConstraintSlider:
		return p.activeSlider[ref.Index]
	}
	return false
}

// sortBone recursively sorts bone i's parent first, then appends
// UpdateBone(i), matching the "Sort-bone" primitive of spec §4.4.
func (p *Pose) sortBone(i int, sorted []bool) {
	if i < 0 || sorted[i] {
		return
	}
	parent := p.Bones[i].Parent
	if parent >= 0 {
		p.sortBone(parent, sorted)
	}
	p.cache = append(p.cache, updateDirective{kind: directiveBone, index: i})
	sorted[i] = true
}

func (p *Pose) resetDescendantsSorted(i int, sorted []bool) {
	for _, c := range p.children[i] {
		sorted[c] = false
		p.resetDescendantsSorted(c, sorted)
	}
}

func (p *Pose) appendConstraint(kind ConstraintKind, index int) {
	p.cache = append(p.cache, updateDirective{kind: directiveConstraint, ckind: kind, index: index})
}

func (p *Pose) prepIK(i int, sorted []bool) {
	d := &p.Rig.IK[i]
	p.sortBone(d.Target, sorted)
	parentMost := d.Bones[0]
	p.sortBone(parentMost, sorted)
	p.appendConstraint(ConstraintIK, i)
	sorted[parentMost] = false
	p.resetDescendantsSorted(parentMost, sorted)
}

func (p *Pose) prepTransform(i int, sorted []bool) {
	d := &p.Rig.Transform[i]
	if d.SourceSpace != SpaceLocal {
		p.sortBone(d.Source, sorted)
	}
	if d.TargetSpace == SpaceWorld {
		for _, b := range d.Bones {
			p.sortBone(b, sorted)
		}
	}
	p.appendConstraint(ConstraintTransform, i)
	for _, b := range d.Bones {
		p.resetDescendantsSorted(b, sorted)
	}
	worldTarget := d.TargetSpace == SpaceWorld
	for _, b := range d.Bones {
		sorted[b] = worldTarget
	}
}

func (p *Pose) prepPath(i int, sorted []bool) {
	d := &p.Rig.Path[i]
	for _, b := range p.pathInfluencingBones(d.Target) {
		p.sortBone(b, sorted)
	}
	for _, b := range d.Bones {
		p.sortBone(b, sorted)
	}
	p.appendConstraint(ConstraintPath, i)
	for _, b := range d.Bones {
		p.resetDescendantsSorted(b, sorted)
	}
	for _, b := range d.Bones {
		sorted[b] = true
	}
}

func (p *Pose) prepPhysics(i int, sorted []bool) {
	d := &p.Rig.Physics[i]
	p.sortBone(d.Bone, sorted)
	p.appendConstraint(ConstraintPhysics, i)
	p.resetDescendantsSorted(d.Bone, sorted)
}

func (p *Pose) prepSlider(i int, sorted []bool) {
	d := &p.Rig.Slider[i]
	if d.Bone >= 0 && !d.Local {
		p.sortBone(d.Bone, sorted)
	}
	p.appendConstraint(ConstraintSlider, i)
	if d.AnimationIndex >= 0 && d.AnimationIndex < len(p.Rig.Animations) {
		anim := p.Rig.Animations[d.AnimationIndex]
		for _, b := range anim.affectedBones() {
			sorted[b] = false
			p.resetDescendantsSorted(b, sorted)
		}
	}
}

// pathInfluencingBones scans the current skin, the default skin, and the
// slot's current attachment for any Path or Mesh attachment at slot that
// could be the path constraint's source, and returns every bone that
// contributes to its vertices: every influencing bone for a weighted
// attachment, or the slot's own bone for an unweighted one (spec §4.4).
func (p *Pose) pathInfluencingBones(slot int) []int {
	var bones []int
	add := func(a Attachment) {
		switch at := a.(type) {
		case *PathAttachment:
			if at.Weighted {
				bones = influencingBones(bones, true, at.BoneIndices)
			} else {
				bones = append(bones, p.Rig.Slots[slot].BoneIndex)
			}
		case *MeshAttachment:
			if at.Weighted {
				bones = influencingBones(bones, true, at.BoneIndices)
			} else {
				bones = append(bones, p.Rig.Slots[slot].BoneIndex)
			}
		}
	}

	seenSkins := map[string]bool{}
	considerSkin := func(skin *SkinData) {
		if skin == nil || seenSkins[skin.Name] {
			return
		}
		seenSkins[skin.Name] = true
		if byKey, ok := skin.Attachments[slot]; ok {
			for _, a := range byKey {
				add(a)
			}
		}
	}
	considerSkin(p.currentSkinIncludingDefault())
	considerSkin(p.Rig.DefaultSkin())
	if a := p.ResolveAttachment(slot); a != nil {
		add(a)
	}
	return bones
}
