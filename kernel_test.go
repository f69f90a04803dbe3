package spine2d

import "testing"

const tol = 1e-3

func near(a, b float32) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < tol
}

// twoBoneRig builds a root bone at the origin with a 10-unit-long child
// offset along local X, both InheritNormal.
func twoBoneRig() *RigDescription {
	return &RigDescription{
		Bones: []BoneData{
			{Name: "root", Parent: -1, ScaleX: 1, ScaleY: 1},
			{Name: "child", Parent: 0, X: 10, ScaleX: 1, ScaleY: 1},
		},
		Skins:     map[string]*SkinData{},
		SkinOrder: nil,
	}
}

func TestUpdateBoneWorldChainTranslation(t *testing.T) {
	rig := twoBoneRig()
	p := MakeInstance(rig)
	UpdateWorldTransform(p, PhysicsUpdate)

	if !near(p.Bones[0].WorldX, 0) || !near(p.Bones[0].WorldY, 0) {
		t.Fatalf("root world = (%v,%v), want (0,0)", p.Bones[0].WorldX, p.Bones[0].WorldY)
	}
	if !near(p.Bones[1].WorldX, 10) || !near(p.Bones[1].WorldY, 0) {
		t.Fatalf("child world = (%v,%v), want (10,0)", p.Bones[1].WorldX, p.Bones[1].WorldY)
	}
}

func TestUpdateBoneWorldRootRotationPropagates(t *testing.T) {
	rig := twoBoneRig()
	p := MakeInstance(rig)
	p.Bones[0].ARotation = 90
	p.MarkAppliedDirty(0)
	UpdateWorldTransform(p, PhysicsUpdate)

	if !near(p.Bones[1].WorldX, 0) || !near(p.Bones[1].WorldY, 10) {
		t.Fatalf("child world after 90deg root rotation = (%v,%v), want (0,10)", p.Bones[1].WorldX, p.Bones[1].WorldY)
	}
}

func TestInheritOnlyTranslationIgnoresParentRotation(t *testing.T) {
	rig := twoBoneRig()
	rig.Bones[1].Inherit = InheritOnlyTranslation
	p := MakeInstance(rig)
	p.Bones[0].ARotation = 90
	p.MarkAppliedDirty(0)
	UpdateWorldTransform(p, PhysicsUpdate)

	// The child's translation is the parent's world position plus its
	// unrotated local offset, and its own world matrix keeps its unrotated
	// local axes.
	if !near(p.Bones[1].A, 1) || !near(p.Bones[1].B, 0) {
		t.Fatalf("child world matrix = (%v,%v,...), want unrotated (1,0,...)", p.Bones[1].A, p.Bones[1].B)
	}
}

func TestMarkAppliedDirtyInvalidatesDescendantWorld(t *testing.T) {
	rig := twoBoneRig()
	p := MakeInstance(rig)
	UpdateWorldTransform(p, PhysicsUpdate)
	firstEpoch := p.Bones[1].WorldEpoch

	p.Bones[0].AX = 5
	p.MarkAppliedDirty(0)
	if p.Bones[1].WorldEpoch == firstEpoch {
		t.Fatal("child world epoch should be invalidated by parent applied-dirty")
	}
	UpdateWorldTransform(p, PhysicsUpdate)
	if !near(p.Bones[1].WorldX, 15) {
		t.Fatalf("child world x after parent shift = %v, want 15", p.Bones[1].WorldX)
	}
}

func TestReconstructAppliedRoundTrips(t *testing.T) {
	rig := twoBoneRig()
	p := MakeInstance(rig)
	p.Bones[1].ARotation = 30
	p.Bones[1].AScaleX = 2
	p.MarkAppliedDirty(1)
	UpdateWorldTransform(p, PhysicsUpdate)

	p.Bones[1].AppliedValid = false
	p.ReconstructApplied(1)
	if !near(p.Bones[1].ARotation, 30) {
		t.Fatalf("reconstructed rotation = %v, want 30", p.Bones[1].ARotation)
	}
	if !near(p.Bones[1].AScaleX, 2) {
		t.Fatalf("reconstructed scaleX = %v, want 2", p.Bones[1].AScaleX)
	}
}
