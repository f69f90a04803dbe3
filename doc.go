// Copyright 2026 The spine2d Authors.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package spine2d is the core pose pipeline of a 2D skeletal-animation
// runtime compatible with Spine 4.3 exports. Given an immutable rig
// description (bones, slots, constraints, skins, attachments, animations)
// plus a per-instance pose, it produces, each tick, the world-space
// transforms of every bone, the current attachment/color/draw-order of
// every slot, and the vertex positions of deformable attachments.
//
// Rendering, texture atlases, the JSON loader, file I/O and CLI tooling are
// external collaborators and are not part of this package; see
// SPEC_FULL.md for the full boundary.
//
// A RigDescription is created once (see skelfile.Decode) and is immutable
// and safely shared across any number of Pose instances. A Pose is
// constructed from a RigDescription, mutated by a Mixer and by
// UpdateWorldTransform each tick, and discarded independently; nothing in
// this package synchronizes across instances because nothing needs to.
package spine2d
