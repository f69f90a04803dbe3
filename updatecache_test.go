package spine2d

import "testing"

func boneDirectiveOrder(p *Pose) map[int]int {
	order := map[int]int{}
	for pos, d := range p.cache {
		if d.kind == directiveBone {
			order[d.index] = pos
		}
	}
	return order
}

func TestRebuildCacheOrdersParentBoneBeforeChild(t *testing.T) {
	rig := twoBoneRig()
	p := MakeInstance(rig)
	p.rebuildCache()

	order := boneDirectiveOrder(p)
	if order[0] >= order[1] {
		t.Fatalf("parent bone (pos %v) should precede child bone (pos %v)", order[0], order[1])
	}
}

func twoBoneIKRig() *RigDescription {
	return &RigDescription{
		Bones: []BoneData{
			{Name: "root", Parent: -1, ScaleX: 1, ScaleY: 1},
			{Name: "upper", Parent: 0, Length: 5, ScaleX: 1, ScaleY: 1},
			{Name: "lower", Parent: 1, X: 5, Length: 5, ScaleX: 1, ScaleY: 1},
			{Name: "target", Parent: -1, ScaleX: 1, ScaleY: 1, X: 7, Y: 0},
		},
		IK: []IKConstraintData{
			{Bones: []int{1, 2}, Target: 3, Mix: 1, BendPositive: true},
		},
		ConstraintOrder: []ConstraintRef{{Kind: ConstraintIK, Index: 0, Order: 0}},
		Skins:           map[string]*SkinData{},
	}
}

func TestRebuildCachePlacesIKPrerequisitesFirst(t *testing.T) {
	rig := twoBoneIKRig()
	p := MakeInstance(rig)
	p.rebuildCache()

	constraintPos := -1
	for pos, d := range p.cache {
		if d.kind == directiveConstraint && d.ckind == ConstraintIK {
			constraintPos = pos
		}
	}
	if constraintPos < 0 {
		t.Fatal("expected an IK directive in the cache")
	}

	// The target bone and the chain's parent-most bone must be sorted
	// (computed) before the constraint runs.
	sawTarget, sawParentMost := false, false
	for pos, d := range p.cache[:constraintPos] {
		_ = pos
		if d.kind != directiveBone {
			continue
		}
		if d.index == 3 {
			sawTarget = true
		}
		if d.index == 1 {
			sawParentMost = true
		}
	}
	if !sawTarget {
		t.Fatal("target bone should be sorted before the IK constraint runs")
	}
	if !sawParentMost {
		t.Fatal("parent-most chain bone should be sorted before the IK constraint runs")
	}

	// The child bone (its world transform depends on the solved rotation)
	// must be recomputed after the constraint.
	sawChildAfter := false
	for _, d := range p.cache[constraintPos+1:] {
		if d.kind == directiveBone && d.index == 2 {
			sawChildAfter = true
		}
	}
	if !sawChildAfter {
		t.Fatal("child bone should be recomputed after the IK constraint runs")
	}
}

func TestConstraintActiveGatesCacheInclusion(t *testing.T) {
	rig := twoBoneIKRig()
	p := MakeInstance(rig)
	p.activeIK[0] = false
	p.rebuildCache()

	for _, d := range p.cache {
		if d.kind == directiveConstraint && d.ckind == ConstraintIK {
			t.Fatal("inactive IK constraint should be excluded from the cache")
		}
	}
}

func TestEnsureCacheReusesValidCache(t *testing.T) {
	rig := twoBoneRig()
	p := MakeInstance(rig)
	p.EnsureCache()
	p.cache = append(p.cache, updateDirective{kind: directiveBone, index: 999})
	p.EnsureCache() // cacheValid is still true; should not rebuild

	found := false
	for _, d := range p.cache {
		if d.index == 999 {
			found = true
		}
	}
	if !found {
		t.Fatal("EnsureCache should not rebuild an already-valid cache")
	}
}
