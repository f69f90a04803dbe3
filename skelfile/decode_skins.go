package skelfile

import (
	"fmt"

	"github.com/nilrig/spine2d"
)

// decode_skins.go decodes skins and their attachments (spec §4.2, §3
// "Attachment variants"). Linked meshes are recorded but not resolved here;
// resolveLinkedMeshes in linkedmesh.go runs after every skin is decoded so
// a mesh may link to a skin decoded after it.

// vertexBlock holds a decoded weighted-or-unweighted vertex buffer, shared
// by mesh, path, bounding-box and clipping attachments (spec §3).
type vertexBlock struct {
	weighted    bool
	vertices    []float32
	boneCounts  []int
	boneIndices []int
	boneWeights []float32
}

func decodeVertexBlock(c *cursor, vertexCount int) (vertexBlock, error) {
	weighted, err := c.boolean()
	if err != nil {
		return vertexBlock{}, err
	}
	if !weighted {
		n := vertexCount * 2
		verts := make([]float32, n)
		for i := range verts {
			if verts[i], err = c.f32(); err != nil {
				return vertexBlock{}, err
			}
		}
		return vertexBlock{vertices: verts}, nil
	}

	counts := make([]int, vertexCount)
	var indices []int
	var weights []float32
	for v := 0; v < vertexCount; v++ {
		n, err := c.varint()
		if err != nil {
			return vertexBlock{}, err
		}
		counts[v] = int(n)
		for b := 0; b < int(n); b++ {
			bone, err := c.varint()
			if err != nil {
				return vertexBlock{}, err
			}
			x, err := c.f32()
			if err != nil {
				return vertexBlock{}, err
			}
			y, err := c.f32()
			if err != nil {
				return vertexBlock{}, err
			}
			w, err := c.f32()
			if err != nil {
				return vertexBlock{}, err
			}
			indices = append(indices, int(bone))
			weights = append(weights, x, y, w)
		}
	}
	return vertexBlock{weighted: true, boneCounts: counts, boneIndices: indices, boneWeights: weights}, nil
}

func decodeSequence(c *cursor) (spine2d.Sequence, bool, error) {
	has, err := c.boolean()
	if err != nil || !has {
		return spine2d.Sequence{}, false, err
	}
	regions, err := c.varint()
	if err != nil {
		return spine2d.Sequence{}, false, err
	}
	start, err := c.varint()
	if err != nil {
		return spine2d.Sequence{}, false, err
	}
	digits, err := c.varint()
	if err != nil {
		return spine2d.Sequence{}, false, err
	}
	setupIndex, err := c.varint()
	if err != nil {
		return spine2d.Sequence{}, false, err
	}
	return spine2d.Sequence{
		Regions: int(regions), Start: int(start), Digits: int(digits), SetupIndex: int(setupIndex),
	}, true, nil
}

func decodeAttachment(c *cursor, strtab []string, slot int, skinIndex int, key string, linked *[]pendingLinkedMesh) (spine2d.Attachment, error) {
	name, hasName, err := c.stringRef(strtab)
	if err != nil {
		return nil, err
	}
	if !hasName {
		name = key
	}
	tag, err := c.u8()
	if err != nil {
		return nil, err
	}

	switch attachmentKindTag(tag) {
	case tagRegion:
		var a spine2d.RegionAttachment
		a.Name = name
		path, hasPath, err := c.stringRef(strtab)
		if err != nil {
			return nil, err
		}
		if hasPath {
			a.Path = path
		} else {
			a.Path = name
		}
		if a.X, err = c.f32(); err != nil {
			return nil, err
		}
		if a.Y, err = c.f32(); err != nil {
			return nil, err
		}
		if a.ScaleX, err = c.f32(); err != nil {
			return nil, err
		}
		if a.ScaleY, err = c.f32(); err != nil {
			return nil, err
		}
		if a.Rotation, err = c.f32(); err != nil {
			return nil, err
		}
		if a.Width, err = c.f32(); err != nil {
			return nil, err
		}
		if a.Height, err = c.f32(); err != nil {
			return nil, err
		}
		if a.Color, err = c.color(); err != nil {
			return nil, err
		}
		seq, hasSeq, err := decodeSequence(c)
		if err != nil {
			return nil, err
		}
		a.HasSequence, a.Sequence = hasSeq, seq
		return &a, nil

	case tagBoundingBox:
		var a spine2d.BoundingBoxAttachment
		a.Name = name
		n, err := c.varint()
		if err != nil {
			return nil, err
		}
		vb, err := decodeVertexBlock(c, int(n))
		if err != nil {
			return nil, err
		}
		a.Vertices, a.Weighted, a.BoneCounts, a.BoneIndices, a.BoneWeights =
			vb.vertices, vb.weighted, vb.boneCounts, vb.boneIndices, vb.boneWeights
		if hc, ok, err := decodeOptionalColor(c); err != nil {
			return nil, err
		} else if ok {
			a.Color = hc
		}
		return &a, nil

	case tagMesh:
		var a spine2d.MeshAttachment
		a.Name = name
		path, hasPath, err := c.stringRef(strtab)
		if err != nil {
			return nil, err
		}
		if hasPath {
			a.Path = path
		} else {
			a.Path = name
		}
		if a.Color, err = c.color(); err != nil {
			return nil, err
		}
		vertexCount, err := c.varint()
		if err != nil {
			return nil, err
		}
		uv := make([]float32, int(vertexCount)*2)
		for i := range uv {
			if uv[i], err = c.f32(); err != nil {
				return nil, err
			}
		}
		a.UV = uv
		triCount, err := c.varint()
		if err != nil {
			return nil, err
		}
		tris := make([]int32, triCount)
		for i := range tris {
			v, err := c.varint()
			if err != nil {
				return nil, err
			}
			tris[i] = int32(v)
		}
		a.Triangles = tris
		vb, err := decodeVertexBlock(c, int(vertexCount))
		if err != nil {
			return nil, err
		}
		a.Vertices, a.Weighted, a.BoneCounts, a.BoneIndices, a.BoneWeights =
			vb.vertices, vb.weighted, vb.boneCounts, vb.boneIndices, vb.boneWeights
		hull, err := c.varint()
		if err != nil {
			return nil, err
		}
		a.HullLength = int(hull)
		seq, hasSeq, err := decodeSequence(c)
		if err != nil {
			return nil, err
		}
		a.HasSequence, a.Sequence = hasSeq, seq
		a.TimelineSkin, a.TimelineAttachment = "", name
		return &a, nil

	case tagLinkedMesh:
		var a spine2d.MeshAttachment
		a.Name = name
		path, hasPath, err := c.stringRef(strtab)
		if err != nil {
			return nil, err
		}
		if hasPath {
			a.Path = path
		} else {
			a.Path = name
		}
		if a.Color, err = c.color(); err != nil {
			return nil, err
		}
		parentSkin, err := c.zigzag()
		if err != nil {
			return nil, err
		}
		parentKey, _, err := c.stringRef(strtab)
		if err != nil {
			return nil, err
		}
		inheritDeform, err := c.boolean()
		if err != nil {
			return nil, err
		}
		seq, hasSeq, err := decodeSequence(c)
		if err != nil {
			return nil, err
		}
		a.HasSequence, a.Sequence = hasSeq, seq
		a.IsLinked = true
		a.ParentSkin = int(parentSkin)
		a.ParentKey = parentKey
		a.InheritDeform = inheritDeform
		a.TimelineSkin, a.TimelineAttachment = "", name
		*linked = append(*linked, pendingLinkedMesh{
			skinIndex: skinIndex, slot: slot, key: key, mesh: &a,
			parentSkin: int(parentSkin), parentKey: parentKey,
		})
		return &a, nil

	case tagPath:
		var a spine2d.PathAttachment
		a.Name = name
		closed, err := c.boolean()
		if err != nil {
			return nil, err
		}
		constantSpeed, err := c.boolean()
		if err != nil {
			return nil, err
		}
		a.Closed, a.ConstantSpeed = closed, constantSpeed
		n, err := c.varint()
		if err != nil {
			return nil, err
		}
		vb, err := decodeVertexBlock(c, int(n))
		if err != nil {
			return nil, err
		}
		a.Vertices, a.Weighted, a.BoneCounts, a.BoneIndices, a.BoneWeights =
			vb.vertices, vb.weighted, vb.boneCounts, vb.boneIndices, vb.boneWeights
		curveCount := n
		if closed {
			curveCount = n
		} else {
			curveCount = n - 1
		}
		lengths := make([]float32, curveCount)
		for i := range lengths {
			if lengths[i], err = c.f32(); err != nil {
				return nil, err
			}
		}
		a.Lengths = lengths
		if hc, ok, err := decodeOptionalColor(c); err != nil {
			return nil, err
		} else if ok {
			a.Color = hc
		}
		return &a, nil

	case tagPoint:
		var a spine2d.PointAttachment
		a.Name = name
		var err error
		if a.X, err = c.f32(); err != nil {
			return nil, err
		}
		if a.Y, err = c.f32(); err != nil {
			return nil, err
		}
		if a.Rotation, err = c.f32(); err != nil {
			return nil, err
		}
		return &a, nil

	case tagClipping:
		var a spine2d.ClippingAttachment
		a.Name = name
		endSlot, err := c.varint()
		if err != nil {
			return nil, err
		}
		a.EndSlot = int(endSlot)
		n, err := c.varint()
		if err != nil {
			return nil, err
		}
		vb, err := decodeVertexBlock(c, int(n))
		if err != nil {
			return nil, err
		}
		a.Vertices, a.Weighted, a.BoneCounts, a.BoneIndices, a.BoneWeights =
			vb.vertices, vb.weighted, vb.boneCounts, vb.boneIndices, vb.boneWeights
		if hc, ok, err := decodeOptionalColor(c); err != nil {
			return nil, err
		} else if ok {
			a.Color = hc
		}
		return &a, nil
	}
	return nil, fmt.Errorf("unknown attachment tag %d at offset %d", tag, c.offset())
}

func decodeOptionalColor(c *cursor) ([4]float32, bool, error) {
	has, err := c.boolean()
	if err != nil || !has {
		return [4]float32{}, false, err
	}
	col, err := c.color()
	return col, true, err
}

func decodeSkins(c *cursor, strtab []string, bones []spine2d.BoneData, slots []spine2d.SlotData, scale float32, nonessential bool) ([]string, map[string]*spine2d.SkinData, []pendingLinkedMesh, error) {
	skinCount, err := c.varint()
	if err != nil {
		return nil, nil, nil, wrapErr(c, "skin count", err)
	}

	var order []string
	skins := make(map[string]*spine2d.SkinData, skinCount)
	var linked []pendingLinkedMesh

	decodeOne := func(skinIndex int, name string, slotScope []int) (*spine2d.SkinData, error) {
		skin := &spine2d.SkinData{
			Name:              name,
			Attachments:       map[int]map[string]spine2d.Attachment{},
			BoneIndices:       map[int]bool{},
			ConstraintIndices: map[int]bool{},
		}
		slotCount, err := c.varint()
		if err != nil {
			return nil, err
		}
		for s := 0; s < int(slotCount); s++ {
			slot := slotScope[s]
			attachCount, err := c.varint()
			if err != nil {
				return nil, err
			}
			m := make(map[string]spine2d.Attachment, attachCount)
			for a := 0; a < int(attachCount); a++ {
				key, _, err := c.stringRef(strtab)
				if err != nil {
					return nil, err
				}
				att, err := decodeAttachment(c, strtab, slot, skinIndex, key, &linked)
				if err != nil {
					return nil, err
				}
				scaleAttachmentVertices(att, scale)
				m[key] = att
			}
			skin.Attachments[slot] = m
		}
		return skin, nil
	}

	allSlots := make([]int, len(slots))
	for i := range allSlots {
		allSlots[i] = i
	}

	if skinCount > 0 {
		name, _, err := c.str()
		if err != nil {
			return nil, nil, nil, err
		}
		skin, err := decodeOne(0, name, allSlots)
		if err != nil {
			return nil, nil, nil, err
		}
		skins[name] = skin
		order = append(order, name)
	}

	for i := 1; i < int(skinCount); i++ {
		name, _, err := c.str()
		if err != nil {
			return nil, nil, nil, err
		}
		boneRefCount, err := c.varint()
		if err != nil {
			return nil, nil, nil, err
		}
		boneIdx := make(map[int]bool, boneRefCount)
		for b := 0; b < int(boneRefCount); b++ {
			v, err := c.varint()
			if err != nil {
				return nil, nil, nil, err
			}
			boneIdx[int(v)] = true
		}
		constraintRefCount, err := c.varint()
		if err != nil {
			return nil, nil, nil, err
		}
		constraintIdx := make(map[int]bool, constraintRefCount)
		for k := 0; k < int(constraintRefCount); k++ {
			v, err := c.varint()
			if err != nil {
				return nil, nil, nil, err
			}
			constraintIdx[int(v)] = true
		}
		slotRefCount, err := c.varint()
		if err != nil {
			return nil, nil, nil, err
		}
		scope := make([]int, slotRefCount)
		for s := range scope {
			v, err := c.varint()
			if err != nil {
				return nil, nil, nil, err
			}
			scope[s] = int(v)
		}
		skin, err := decodeOne(i, name, scope)
		if err != nil {
			return nil, nil, nil, err
		}
		skin.BoneIndices = boneIdx
		skin.ConstraintIndices = constraintIdx
		skins[name] = skin
		order = append(order, name)
	}

	return order, skins, linked, nil
}

func scaleAttachmentVertices(a spine2d.Attachment, scale float32) {
	if scale == 1 {
		return
	}
	switch v := a.(type) {
	case *spine2d.RegionAttachment:
		v.X *= scale
		v.Y *= scale
		v.Width *= scale
		v.Height *= scale
	case *spine2d.MeshAttachment:
		scaleFloats(v.Vertices, scale)
		scaleWeightedXY(v.BoneWeights, scale)
	case *spine2d.PathAttachment:
		scaleFloats(v.Vertices, scale)
		scaleWeightedXY(v.BoneWeights, scale)
		scaleFloats(v.Lengths, scale)
	case *spine2d.BoundingBoxAttachment:
		scaleFloats(v.Vertices, scale)
		scaleWeightedXY(v.BoneWeights, scale)
	case *spine2d.ClippingAttachment:
		scaleFloats(v.Vertices, scale)
		scaleWeightedXY(v.BoneWeights, scale)
	case *spine2d.PointAttachment:
		v.X *= scale
		v.Y *= scale
	}
}

func scaleFloats(s []float32, scale float32) {
	for i := range s {
		s[i] *= scale
	}
}

// scaleWeightedXY scales the x,y components of a flattened (x,y,weight)
// triple buffer, leaving the weight component untouched.
func scaleWeightedXY(s []float32, scale float32) {
	for i := 0; i+2 < len(s); i += 3 {
		s[i] *= scale
		s[i+1] *= scale
	}
}
