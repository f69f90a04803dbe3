package spine2d

import (
	"math"

	"github.com/nilrig/spine2d/affine"
)

// constraint_path.go implements the path constraint (spec §4.5.3): one or
// more bones are walked along a path attachment's world-space curve.
//
// The path is not sampled on its cubic Bezier segments: this evaluator
// treats the path's node points (every third control point) as a polyline
// and walks it by Euclidean arc length. Bone i is placed at position +
// i*spacing along that polyline. Percent position multiplies the position
// by the polyline's total length, Percent spacing multiplies the spacing by
// it, and Proportional spacing uses spacing*total/len(bones); Length and
// Fixed spacing both use the spacing value as is, without adding bone
// lengths. OffsetRotation is added to the target angle unchanged, and
// ChainScale moves each bone's scaleX toward distance-to-next/length.

func pathWorldNodes(p *Pose, slot int, path *PathAttachment, scratch []float32) []float32 {
	boneIdx := p.Rig.Slots[slot].BoneIndex
	n := len(path.Vertices) / 2
	if path.Weighted {
		n = len(path.BoneCounts)
	}
	if cap(scratch) < n*2 {
		scratch = make([]float32, n*2)
	}
	out := scratch[:n*2]

	if !path.Weighted {
		b := &p.Bones[boneIdx]
		m := affine.Mat2{A: b.A, B: b.B, C: b.C, D: b.D}
		for i := 0; i < n; i++ {
			lx, ly := path.Vertices[i*2], path.Vertices[i*2+1]
			wx, wy := affine.MulVec(m, lx, ly)
			out[i*2], out[i*2+1] = b.WorldX+wx, b.WorldY+wy
		}
		return out
	}

	wi := 0
	influence := 0
	for v := 0; v < n; v++ {
		count := path.BoneCounts[v]
		var x, y float32
		for k := 0; k < count; k++ {
			bi := path.BoneIndices[influence]
			lx, ly, weight := path.BoneWeights[wi], path.BoneWeights[wi+1], path.BoneWeights[wi+2]
			b := &p.Bones[bi]
			m := affine.Mat2{A: b.A, B: b.B, C: b.C, D: b.D}
			wx, wy := affine.MulVec(m, lx, ly)
			x += (b.WorldX + wx) * weight
			y += (b.WorldY + wy) * weight
			wi += 3
			influence++
		}
		out[v*2], out[v*2+1] = x, y
	}
	return out
}

// pathNodes reduces verts (all bezier control points) to the path's node
// points (every third point) and the cumulative Euclidean arc length to
// each node.
func pathNodes(verts []float32, closed bool) (nodes []float32, cum []float32, total float32) {
	numPoints := len(verts) / 2
	if numPoints == 0 {
		return nil, nil, 0
	}
	for i := 0; i+1 < numPoints+1; i += 3 {
		if i*2 >= len(verts) {
			break
		}
		nodes = append(nodes, verts[i*2], verts[i*2+1])
	}
	if closed && len(nodes) >= 2 {
		nodes = append(nodes, nodes[0], nodes[1])
	}
	cum = make([]float32, len(nodes)/2)
	for i := 1; i < len(nodes)/2; i++ {
		dx := nodes[i*2] - nodes[(i-1)*2]
		dy := nodes[i*2+1] - nodes[(i-1)*2+1]
		total += affine.ColumnLength(dx, dy)
		cum[i] = total
	}
	return nodes, cum, total
}

func samplePath(nodes, cum []float32, total float32, closed bool, pos float32) (x, y, tangentDeg float32) {
	n := len(nodes) / 2
	if n == 0 {
		return 0, 0, 0
	}
	if n == 1 {
		return nodes[0], nodes[1], 0
	}
	if closed && total > 0 {
		pos = float32(math.Mod(float64(pos), float64(total)))
		if pos < 0 {
			pos += total
		}
	} else {
		pos = clampf(pos, 0, total)
	}
	idx := 0
	for i := 1; i < len(cum); i++ {
		if cum[i] >= pos {
			idx = i
			break
		}
		idx = i
	}
	if idx == 0 {
		idx = 1
	}
	segLen := cum[idx] - cum[idx-1]
	frac := float32(0)
	if segLen > 1e-9 {
		frac = (pos - cum[idx-1]) / segLen
	}
	x0, y0 := nodes[(idx-1)*2], nodes[(idx-1)*2+1]
	x1, y1 := nodes[idx*2], nodes[idx*2+1]
	x = x0 + (x1-x0)*frac
	y = y0 + (y1-y0)*frac
	tangentDeg = float32(math.Atan2(float64(y1-y0), float64(x1-x0))) * 180 / math.Pi
	return x, y, tangentDeg
}

// ApplyPath evaluates path constraint i.
func (p *Pose) ApplyPath(i int) {
	d := &p.Rig.Path[i]
	state := &p.Path[i]

	path, ok := p.resolvePathAttachment(d.Target)
	if !ok {
		return
	}

	verts := pathWorldNodes(p, d.Target, path, p.pathWorldScratch)
	p.pathWorldScratch = verts
	nodes, cum, total := pathNodes(verts, path.Closed)
	if len(nodes) == 0 {
		return
	}

	pos0 := state.Position
	if d.PositionMode == PositionPercent {
		pos0 *= total
	}

	spacing := state.Spacing
	switch d.SpacingMode {
	case SpacingPercent:
		spacing *= total
	case SpacingProportional:
		if len(d.Bones) > 0 {
			spacing = spacing * total / float32(len(d.Bones))
		}
	}

	for bi, boneIdx := range d.Bones {
		pos := pos0 + spacing*float32(bi)
		x, y, tangent := samplePath(nodes, cum, total, path.Closed, pos)

		b := &p.Bones[boneIdx]
		newWX := b.WorldX + (x-b.WorldX)*state.MixX
		newWY := b.WorldY + (y-b.WorldY)*state.MixY

		rotationTarget := tangent
		var nextX, nextY float32
		hasNext := d.RotateMode != RotateTangent && bi < len(d.Bones)-1
		if hasNext {
			nextX, nextY, _ = samplePath(nodes, cum, total, path.Closed, pos+spacing)
			rotationTarget = float32(math.Atan2(float64(nextY-newWY), float64(nextX-newWX))) * 180 / math.Pi
		}
		rotationTarget += d.OffsetRotation

		mat := affine.Mat2{A: b.A, B: b.B, C: b.C, D: b.D}
		curRot, sx, sy, shx, shy := affine.Decompose(mat)
		delta := affine.WrapDegrees(rotationTarget - curRot)
		newRot := curRot + delta*state.MixRotate

		if d.RotateMode == RotateChainScale && hasNext && b.Length > 0 {
			dist := affine.ColumnLength(nextX-newWX, nextY-newWY)
			scale := dist / b.Length
			sx += (scale - sx) * state.MixRotate
		}

		out := affine.FromComponents(newRot, sx, sy, shx, shy)
		b.A, b.B, b.C, b.D = out.A, out.B, out.C, out.D
		b.WorldX, b.WorldY = newWX, newWY
		p.MarkWorldDirty(boneIdx)
	}
}

func (p *Pose) resolvePathAttachment(slot int) (*PathAttachment, bool) {
	if a := p.ResolveAttachment(slot); a != nil {
		if pa, ok := a.(*PathAttachment); ok {
			return pa, true
		}
	}
	for _, skin := range []*SkinData{p.currentSkinIncludingDefault(), p.Rig.DefaultSkin()} {
		if skin == nil {
			continue
		}
		for _, a := range skin.Attachments[slot] {
			if pa, ok := a.(*PathAttachment); ok {
				return pa, true
			}
		}
	}
	return nil, false
}
