package spine2d

import "testing"

func TestPathNodesReducesToEveryThirdPoint(t *testing.T) {
	// One straight bezier segment: two anchors with two control points in
	// between; the polyline-approximation keeps only the anchor points
	// (every third).
	verts := []float32{0, 0, 3, 0, 6, 0, 10, 0}
	nodes, cum, total := pathNodes(verts, false)

	if len(nodes) != 4 {
		t.Fatalf("len(nodes) = %v, want 4 (two anchor points)", len(nodes))
	}
	if nodes[0] != 0 || nodes[1] != 0 || nodes[2] != 10 || nodes[3] != 0 {
		t.Fatalf("nodes = %v, want [0 0 10 0]", nodes)
	}
	if !near(total, 10) {
		t.Fatalf("total = %v, want 10", total)
	}
	if len(cum) != 2 || cum[0] != 0 || !near(cum[1], 10) {
		t.Fatalf("cum = %v, want [0 10]", cum)
	}
}

func TestSamplePathInterpolatesAlongSegment(t *testing.T) {
	nodes := []float32{0, 0, 10, 0}
	cum := []float32{0, 10}
	x, y, tangent := samplePath(nodes, cum, 10, false, 5)

	if !near(x, 5) || !near(y, 0) {
		t.Fatalf("sample at midpoint = (%v,%v), want (5,0)", x, y)
	}
	if !near(tangent, 0) {
		t.Fatalf("tangent = %v, want 0 (pointing along +X)", tangent)
	}
}

func TestSamplePathClampsOpenPath(t *testing.T) {
	nodes := []float32{0, 0, 10, 0}
	cum := []float32{0, 10}
	x, _, _ := samplePath(nodes, cum, 10, false, 50)
	if !near(x, 10) {
		t.Fatalf("sample past the end of an open path = %v, want clamped to 10", x)
	}
}

func TestSamplePathWrapsClosedPath(t *testing.T) {
	nodes := []float32{0, 0, 10, 0, 10, 10, 0, 0}
	cum := []float32{0, 10, 20, 30}
	x, y, _ := samplePath(nodes, cum, 30, true, 35)
	if !near(x, 5) || !near(y, 0) {
		t.Fatalf("wrapped sample = (%v,%v), want (5,0)", x, y)
	}
}

func TestApplyPathMovesBoneAlongStraightPath(t *testing.T) {
	rig := &RigDescription{
		Bones: []BoneData{
			{Name: "root", Parent: -1, ScaleX: 1, ScaleY: 1},
			{Name: "follower", Parent: -1, ScaleX: 1, ScaleY: 1},
		},
		Slots: []SlotData{
			{Name: "pathslot", BoneIndex: 0, HasSetupAttachment: true, SetupAttachment: "straight", Color: [4]float32{1, 1, 1, 1}},
		},
		Path: []PathConstraintData{
			{
				Target:       0,
				Bones:        []int{1},
				PositionMode: PositionFixed,
				SpacingMode:  SpacingLength,
				Position:     5,
				MixX:         1,
				MixY:         1,
				MixRotate:    1,
			},
		},
		Skins: map[string]*SkinData{
			"default": {
				Attachments: map[int]map[string]Attachment{
					0: {
						"straight": &PathAttachment{
							Name:     "straight",
							Vertices: []float32{0, 0, 3, 0, 6, 0, 10, 0},
						},
					},
				},
			},
		},
	}
	p := MakeInstance(rig)
	UpdateWorldTransform(p, PhysicsUpdate)

	p.ApplyPath(0)

	follower := &p.Bones[1]
	if !near(follower.WorldX, 5) || !near(follower.WorldY, 0) {
		t.Fatalf("follower world = (%v,%v), want (5,0)", follower.WorldX, follower.WorldY)
	}
}
