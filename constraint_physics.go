package spine2d

import (
	"math"

	"github.com/nilrig/spine2d/affine"
)

// constraint_physics.go implements the damped-spring physics constraint
// (spec §4.5.4): a bone's translation, rotation and scale lag behind its
// driven pose with semi-implicit Euler integration, fixed-size substeps,
// wind and gravity, and an inertia term fed by the driven bone's own
// displacement between ticks.

const physicsStep = 1.0 / 60.0

// PhysicsMode selects how Update's physics pass treats physics constraints
// this tick (spec §4.7).
type PhysicsMode uint8

const (
	PhysicsUpdate PhysicsMode = iota // advance the simulation normally
	PhysicsReset                     // snap to the driven pose, zero velocity
	PhysicsPose                      // apply last tick's result without advancing
	PhysicsNone                      // skip entirely, leave bone at its driven pose
)

func dampingFactor(damping float32, dt float32) float32 {
	return float32(math.Pow(float64(damping), float64(60*dt)))
}

// ApplyPhysics evaluates physics constraint i for elapsed time delta under
// mode.
func (p *Pose) ApplyPhysics(i int, delta float32, mode PhysicsMode) {
	d := &p.Rig.Physics[i]
	state := &p.Physics[i]
	b := &p.Bones[d.Bone]

	if mode == PhysicsNone {
		return
	}

	if mode == PhysicsReset || !state.activated {
		state.activated = true
		state.UX, state.UY = b.WorldX, b.WorldY
		state.OffsetX, state.OffsetY = 0, 0
		state.VelX, state.VelY = 0, 0
		state.RotateOffset, state.RotateVel = 0, 0
		state.ScaleOffset, state.ScaleVel = 0, 0
		state.lastBoneX, state.lastBoneY = b.WorldX, b.WorldY
		state.Remaining = 0
		if mode == PhysicsReset {
			return
		}
	}

	if mode == PhysicsPose {
		p.applyPhysicsOffsets(d, state, b)
		p.MarkWorldDirty(d.Bone)
		return
	}

	state.Remaining += delta
	inertiaDX := b.WorldX - state.lastBoneX
	inertiaDY := b.WorldY - state.lastBoneY
	state.lastBoneX, state.lastBoneY = b.WorldX, b.WorldY

	for state.Remaining >= physicsStep {
		state.Remaining -= physicsStep
		p.stepPhysics(d, state, physicsStep, inertiaDX, inertiaDY)
		inertiaDX, inertiaDY = 0, 0
	}

	p.applyPhysicsOffsets(d, state, b)
	p.MarkWorldDirty(d.Bone)
}

func (p *Pose) stepPhysics(d *PhysicsConstraintData, state *PhysicsState, dt float32, inertiaDX, inertiaDY float32) {
	if d.X > 0 || d.Y > 0 {
		damp := dampingFactor(state.Damping, dt)
		accelX := (state.Wind*p.Wind.X() + state.Gravity*p.Gravity.X()) * state.MassInverse
		accelY := (state.Wind*p.Wind.Y() + state.Gravity*p.Gravity.Y()) * state.MassInverse
		accelX -= inertiaDX * state.Inertia / dt
		accelY -= inertiaDY * state.Inertia / dt

		state.VelX = state.VelX*damp + accelX*dt
		state.VelY = state.VelY*damp + accelY*dt
		state.OffsetX += state.VelX * dt * d.X
		state.OffsetY += state.VelY * dt * d.Y

		limit := d.Limit
		if limit > 0 {
			dist := affine.ColumnLength(state.OffsetX, state.OffsetY)
			if dist > limit {
				scale := limit / dist
				state.OffsetX *= scale
				state.OffsetY *= scale
			}
		}
		strengthPull := state.Strength * dt
		state.OffsetX -= state.OffsetX * strengthPull
		state.OffsetY -= state.OffsetY * strengthPull
	}

	if d.Rotate > 0 || d.Shear > 0 {
		damp := dampingFactor(state.Damping, dt)
		state.RotateVel = state.RotateVel*damp - state.RotateOffset*state.Strength*dt
		state.RotateOffset += state.RotateVel * dt
	}

	if d.ScaleX > 0 {
		damp := dampingFactor(state.Damping, dt)
		state.ScaleVel = state.ScaleVel*damp - state.ScaleOffset*state.Strength*dt
		state.ScaleOffset += state.ScaleVel * dt
	}
}

// applyPhysicsOffsets blends the integrator's accumulated offsets onto the
// bone's world transform, interpolating the fractional leftover time
// (spec §4.5.4 "lag interpolation") so the result is time-continuous even
// though the simulation itself only advances in fixed substeps.
func (p *Pose) applyPhysicsOffsets(d *PhysicsConstraintData, state *PhysicsState, b *Bone) {
	frac := float32(0)
	if physicsStep > 0 {
		frac = state.Remaining / physicsStep
	}
	lagX := state.LagX + (state.OffsetX-state.LagX)*frac
	lagY := state.LagY + (state.OffsetY-state.LagY)*frac
	lagRotate := state.LagRotate + (state.RotateOffset-state.LagRotate)*frac
	lagScale := state.LagScale + (state.ScaleOffset-state.LagScale)*frac
	state.LagX, state.LagY, state.LagRotate, state.LagScale = lagX, lagY, lagRotate, lagScale

	if d.X > 0 || d.Y > 0 {
		b.WorldX += lagX * state.Mix
		b.WorldY += lagY * state.Mix
	}

	if (d.Rotate > 0 || d.Shear > 0 || d.ScaleX > 0) && state.Mix != 0 {
		mat := affine.Mat2{A: b.A, B: b.B, C: b.C, D: b.D}
		rot, sx, sy, shx, shy := affine.Decompose(mat)
		if d.Rotate > 0 {
			rot += lagRotate * 180 / math.Pi * state.Mix
		}
		if d.Shear > 0 {
			shx += lagRotate * 180 / math.Pi * state.Mix
		}
		if d.ScaleX > 0 {
			sx += lagScale * state.Mix
		}
		out := affine.FromComponents(rot, sx, sy, shx, shy)
		b.A, b.B, b.C, b.D = out.A, out.B, out.C, out.D
	}
}
