package skelfile

import (
	"testing"

	"github.com/nilrig/spine2d"
)

func TestResolveLinkedMeshesCopiesParentGeometry(t *testing.T) {
	parent := &spine2d.MeshAttachment{
		Name:      "parent",
		Vertices:  []float32{0, 0, 1, 0, 1, 1},
		UV:        []float32{0, 0, 1, 0, 1, 1},
		Triangles: []int32{0, 1, 2},
	}
	child := &spine2d.MeshAttachment{Name: "child", IsLinked: true}

	order := []string{"default"}
	skins := map[string]*spine2d.SkinData{
		"default": {Attachments: map[int]map[string]spine2d.Attachment{
			0: {"parent": parent},
		}},
	}
	pending := []pendingLinkedMesh{
		{skinIndex: 0, slot: 0, key: "child", mesh: child, parentSkin: 0, parentKey: "parent"},
	}

	if err := resolveLinkedMeshes(skins, order, pending); err != nil {
		t.Fatalf("resolveLinkedMeshes: %v", err)
	}
	if len(child.Vertices) != len(parent.Vertices) {
		t.Fatalf("child vertices = %v, want copy of parent's %v", child.Vertices, parent.Vertices)
	}
	if len(child.Triangles) != 3 {
		t.Fatalf("child triangles not copied: %v", child.Triangles)
	}
}

func TestResolveLinkedMeshesMultiLevelChain(t *testing.T) {
	grandparent := &spine2d.MeshAttachment{
		Name:     "gp",
		Vertices: []float32{0, 0, 2, 0, 2, 2},
	}
	parent := &spine2d.MeshAttachment{Name: "parent", IsLinked: true}
	child := &spine2d.MeshAttachment{Name: "child", IsLinked: true}

	order := []string{"default"}
	skins := map[string]*spine2d.SkinData{
		"default": {Attachments: map[int]map[string]spine2d.Attachment{
			0: {"gp": grandparent, "parent": parent},
		}},
	}
	// Child resolves against parent before parent resolves against
	// grandparent; the fixpoint loop should still converge regardless of
	// this ordering.
	pending := []pendingLinkedMesh{
		{skinIndex: 0, slot: 0, key: "child", mesh: child, parentSkin: 0, parentKey: "parent"},
		{skinIndex: 0, slot: 0, key: "parent", mesh: parent, parentSkin: 0, parentKey: "gp"},
	}

	if err := resolveLinkedMeshes(skins, order, pending); err != nil {
		t.Fatalf("resolveLinkedMeshes: %v", err)
	}
	if len(child.Vertices) != len(grandparent.Vertices) {
		t.Fatalf("child should inherit grandparent's geometry transitively, got %v", child.Vertices)
	}
}

func TestResolveLinkedMeshesStallsOnMissingParent(t *testing.T) {
	child := &spine2d.MeshAttachment{Name: "child", IsLinked: true}
	order := []string{"default"}
	skins := map[string]*spine2d.SkinData{
		"default": {Attachments: map[int]map[string]spine2d.Attachment{}},
	}
	pending := []pendingLinkedMesh{
		{skinIndex: 0, slot: 0, key: "child", mesh: child, parentSkin: 0, parentKey: "nonexistent"},
	}

	if err := resolveLinkedMeshes(skins, order, pending); err == nil {
		t.Fatal("expected an error when a linked mesh's parent never resolves")
	}
}

func TestFindMeshSearchesAllSlots(t *testing.T) {
	target := &spine2d.MeshAttachment{Name: "target"}
	skin := &spine2d.SkinData{Attachments: map[int]map[string]spine2d.Attachment{
		3: {"target": target},
	}}
	mesh, ok := findMesh(skin, "target")
	if !ok || mesh != target {
		t.Fatal("findMesh should locate a mesh regardless of which slot holds it")
	}
	if _, ok := findMesh(skin, "missing"); ok {
		t.Fatal("findMesh should report false for an unknown key")
	}
}
