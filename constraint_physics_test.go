package spine2d

import "testing"

func TestDampingFactorBoundaries(t *testing.T) {
	if got := dampingFactor(0, physicsStep); got != 0 {
		t.Fatalf("dampingFactor(0, step) = %v, want 0", got)
	}
	if !near(dampingFactor(1, physicsStep), 1) {
		t.Fatalf("dampingFactor(1, step) = %v, want 1", dampingFactor(1, physicsStep))
	}
}

func physicsRig() *RigDescription {
	return &RigDescription{
		Bones: []BoneData{
			{Name: "root", Parent: -1, ScaleX: 1, ScaleY: 1},
			{Name: "bob", Parent: 0, Y: -20, ScaleX: 1, ScaleY: 1},
		},
		Physics: []PhysicsConstraintData{
			{Bone: 1, X: 1, Y: 1, Strength: 100, Damping: 1, MassInverse: 1, Gravity: 1, Mix: 1},
		},
		Skins: map[string]*SkinData{},
	}
}

func TestPhysicsZeroDampingDoesNotAccumulateVelocity(t *testing.T) {
	rig := physicsRig()
	rig.Physics[0].Damping = 0
	p := MakeInstance(rig)
	p.Gravity[1] = -1
	UpdateWorldTransform(p, PhysicsUpdate)

	p.ApplyPhysics(0, physicsStep, PhysicsUpdate)
	firstVelY := p.Physics[0].VelY

	p.ApplyPhysics(0, physicsStep, PhysicsUpdate)
	secondVelY := p.Physics[0].VelY

	// With zero damping, velocity is fully replaced by this step's
	// acceleration term each substep rather than accumulating.
	if !near(firstVelY, secondVelY) {
		t.Fatalf("zero-damping velocity should stabilize at the per-step acceleration value, got %v then %v", firstVelY, secondVelY)
	}
}

func TestPhysicsFullDampingAccumulatesVelocity(t *testing.T) {
	rig := physicsRig()
	rig.Physics[0].Damping = 1
	p := MakeInstance(rig)
	p.Gravity[1] = -1
	UpdateWorldTransform(p, PhysicsUpdate)

	p.ApplyPhysics(0, physicsStep, PhysicsUpdate)
	firstVelY := p.Physics[0].VelY

	p.ApplyPhysics(0, physicsStep, PhysicsUpdate)
	secondVelY := p.Physics[0].VelY

	if secondVelY >= firstVelY {
		t.Fatalf("full-damping velocity should keep accumulating under constant gravity, got %v then %v", firstVelY, secondVelY)
	}
}

func TestApplyPhysicsResetZeroesState(t *testing.T) {
	rig := physicsRig()
	p := MakeInstance(rig)
	p.Gravity[1] = -1
	UpdateWorldTransform(p, PhysicsUpdate)
	p.ApplyPhysics(0, 0.5, PhysicsUpdate)
	if p.Physics[0].VelX == 0 && p.Physics[0].VelY == 0 && p.Physics[0].OffsetY == 0 {
		t.Fatal("expected nonzero physics state after advancing under gravity")
	}

	p.ApplyPhysics(0, 0, PhysicsReset)
	st := p.Physics[0]
	if st.VelX != 0 || st.VelY != 0 || st.OffsetX != 0 || st.OffsetY != 0 {
		t.Fatalf("PhysicsReset should zero velocity and offsets, got %+v", st)
	}
}
