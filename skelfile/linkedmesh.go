package skelfile

import (
	"fmt"

	"github.com/nilrig/spine2d"
)

// linkedmesh.go resolves linked-mesh attachments (spec §4.2 "Linked
// meshes"): a mesh that shares another mesh's geometry but keeps its own
// slot binding and timeline identity. Parent meshes may themselves be
// linked, so resolution runs as a fixpoint: repeatedly copy geometry from
// any pending mesh whose parent is already resolved, until no progress is
// made.
func resolveLinkedMeshes(skins map[string]*spine2d.SkinData, order []string, pending []pendingLinkedMesh) error {
	remaining := pending
	for len(remaining) > 0 {
		var next []pendingLinkedMesh
		progressed := false

		for _, lm := range remaining {
			if len(order) <= lm.parentSkin || lm.parentSkin < 0 {
				return fmt.Errorf("linked mesh %q references out-of-range parent skin %d", lm.mesh.Name, lm.parentSkin)
			}
			parentSkin := skins[order[lm.parentSkin]]
			if parentSkin == nil {
				return fmt.Errorf("linked mesh %q references unknown parent skin index %d", lm.mesh.Name, lm.parentSkin)
			}

			parent, resolved := findMesh(parentSkin, lm.parentKey)
			if !resolved {
				next = append(next, lm)
				continue
			}
			if parent.IsLinked && parent.TimelineSkin == "" && parent.Vertices == nil && !parent.Weighted {
				// Parent itself is still unresolved even though it was found.
				next = append(next, lm)
				continue
			}

			lm.mesh.Vertices = parent.Vertices
			lm.mesh.Weighted = parent.Weighted
			lm.mesh.BoneCounts = parent.BoneCounts
			lm.mesh.BoneIndices = parent.BoneIndices
			lm.mesh.BoneWeights = parent.BoneWeights
			lm.mesh.UV = parent.UV
			lm.mesh.Triangles = parent.Triangles
			lm.mesh.HullLength = parent.HullLength
			if lm.mesh.InheritDeform {
				lm.mesh.TimelineSkin = order[lm.parentSkin]
				lm.mesh.TimelineAttachment = parent.TimelineAttachment
			}
			progressed = true
		}

		if !progressed && len(next) > 0 {
			names := make([]string, len(next))
			for i, lm := range next {
				names[i] = lm.mesh.Name
			}
			return fmt.Errorf("linked mesh resolution stalled, unresolved: %v", names)
		}
		remaining = next
	}
	return nil
}

func findMesh(skin *spine2d.SkinData, key string) (*spine2d.MeshAttachment, bool) {
	for _, attachments := range skin.Attachments {
		if a, ok := attachments[key]; ok {
			if mesh, ok := a.(*spine2d.MeshAttachment); ok {
				return mesh, true
			}
		}
	}
	return nil, false
}
