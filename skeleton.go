package spine2d

// skeleton.go is the package's tick entry points and top-level public API
// (spec §6): advancing an instance's clock and walking the update cache to
// produce this frame's world transforms. Decoding a .skel export into a
// RigDescription lives in spine2d/skelfile, which imports this package
// rather than the reverse — callers needing a loader call
// skelfile.Decode(data, scale) directly.

// Update advances instance's clock by delta seconds (spec §4.7: "the clock
// advance happens between mix-apply and world-transform"). Callers
// sequence Mixer.Apply, then Update, then UpdateWorldTransform each tick.
func Update(instance *Pose, delta float32) {
	instance.Clock += delta
	instance.lastDelta = delta
}

// Time returns instance's current clock value.
func Time(instance *Pose) float32 {
	return instance.Clock
}

// UpdateWorldTransform walks the update cache (spec §4.4), composing bone
// world transforms and invoking constraint evaluators in dependency order,
// under the given physics mode (spec §4.5.4, §4.7).
//
// Once every directive has been dispatched, every bone's applied-local
// fields are reset to its setup snapshot (spec §4.7 step 2). Placed at the
// end rather than literally before dispatch: the per-tick sequence is
// mixer_apply, then update, then this call (spec §5), so a reset before
// dispatch would discard the mix engine's output for this tick before it
// ever reached a world transform. Resetting after dispatch instead gives
// the next tick's Mixer.Apply a clean setup baseline to blend MixAdd
// channels against, which is what the reset exists to guarantee, without
// disturbing the world transforms this call just composed (see DESIGN.md).
func UpdateWorldTransform(instance *Pose, mode PhysicsMode) {
	instance.UpdateEpoch++
	instance.EnsureCache()
	for _, dir := range instance.cache {
		switch dir.kind {
		case directiveBone:
			instance.UpdateBoneWorld(dir.index)
		case directiveConstraint:
			switch dir.ckind {
			case ConstraintIK:
				instance.ApplyIK(dir.index)
			case ConstraintTransform:
				instance.ApplyTransform(dir.index)
			case ConstraintPath:
				instance.ApplyPath(dir.index)
			case ConstraintPhysics:
				instance.ApplyPhysics(dir.index, instance.lastDelta, mode)
			case ConstraintSlider:
				instance.ApplySlider(dir.index)
			}
		}
	}
	instance.resetAppliedToSnapshot()
}

// ResetPhysics snaps every physics constraint's simulation state to the
// driven pose with zero velocity, the explicit counterpart to passing
// PhysicsReset to UpdateWorldTransform for every constraint at once
// (spec §4.5.4).
func ResetPhysics(instance *Pose) {
	for i := range instance.Rig.Physics {
		instance.Physics[i].activated = false
	}
}
