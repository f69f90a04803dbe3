package spine2d

// attachment.go defines the finite set of attachment variants a skin can
// bind a slot to (spec §3 "Attachment variants"). Implementations are
// plain tagged structs, not a class hierarchy (spec §9 "Variants over
// hierarchies").

// AttachmentKind discriminates the Attachment sum type.
type AttachmentKind uint8

const (
	AttachmentRegion AttachmentKind = iota
	AttachmentMesh
	AttachmentPoint
	AttachmentPath
	AttachmentBoundingBox
	AttachmentClipping
)

// Attachment is implemented by every attachment variant.
type Attachment interface {
	Kind() AttachmentKind
	AttachmentName() string
}

// Sequence describes an attachment's optional region-swap animation.
type Sequence struct {
	Regions   int
	Start     int
	Digits    int
	SetupIndex int
}

// RegionAttachment is a textured quad with its own local transform.
type RegionAttachment struct {
	Name                    string
	X, Y, Rotation          float32
	ScaleX, ScaleY          float32
	Width, Height           float32
	Color                   [4]float32
	Path                    string
	HasSequence             bool
	Sequence                Sequence
}

func (a *RegionAttachment) Kind() AttachmentKind { return AttachmentRegion }
func (a *RegionAttachment) AttachmentName() string { return a.Name }

// MeshAttachment is a weighted or unweighted deformable mesh.
type MeshAttachment struct {
	Name string
	Path string

	// Weighted selects which vertex form below is filled: unweighted
	// meshes keep flattened (x,y) pairs in Vertices; weighted meshes leave
	// Vertices nil and keep each vertex's bone influences in
	// BoneCounts/BoneIndices/BoneWeights.
	Weighted bool

	// Unweighted form.
	Vertices []float32 // flattened x,y setup-pose vertex positions

	// Weighted form.
	BoneCounts  []int     // per output vertex, how many bones influence it
	BoneIndices []int     // flattened, len = sum(BoneCounts)
	BoneWeights []float32 // flattened (x,y,weight) per influence, len = 3*sum(BoneCounts)

	UV       []float32 // flattened u,v per vertex
	Triangles []int32
	Color     [4]float32
	HullLength int

	HasSequence bool
	Sequence    Sequence

	// TimelineSkin/TimelineAttachment identify the mesh whose deform
	// timelines drive this mesh, distinct from its own (skin, key) when
	// this mesh is a linked mesh (spec §3, §4.2 "Linked meshes").
	TimelineSkin       string
	TimelineAttachment string

	// Linked-mesh bookkeeping, resolved away by skelfile before publish.
	IsLinked       bool
	ParentSkin     int
	ParentKey      string
	InheritDeform  bool
}

func (a *MeshAttachment) Kind() AttachmentKind { return AttachmentMesh }
func (a *MeshAttachment) AttachmentName() string { return a.Name }

// WorldVertexCount returns the number of (x,y) vertex pairs this mesh
// contributes, used to size the path scratch buffers (spec §5).
func (a *MeshAttachment) WorldVertexCount() int {
	if a.Weighted {
		return len(a.BoneCounts)
	}
	return len(a.Vertices) / 2
}

// DeformLength returns the expected length of a flattened deform buffer
// for this mesh (spec §3 invariants).
func (a *MeshAttachment) DeformLength() int {
	if a.Weighted {
		sum := 0
		for _, c := range a.BoneCounts {
			sum += c
		}
		return sum * 2
	}
	return len(a.Vertices)
}

// PointAttachment marks a single oriented point, e.g. for attaching props.
type PointAttachment struct {
	Name              string
	X, Y, Rotation     float32
}

func (a *PointAttachment) Kind() AttachmentKind { return AttachmentPoint }
func (a *PointAttachment) AttachmentName() string { return a.Name }

// PathAttachment describes a poly-bezier path a PathConstraint can follow.
type PathAttachment struct {
	Name          string
	Closed        bool
	ConstantSpeed bool
	Vertices      []float32 // same weighted/unweighted packing as MeshAttachment
	Weighted      bool
	BoneCounts    []int
	BoneIndices   []int
	BoneWeights   []float32
	Lengths       []float32 // cumulative length of each curve segment
	Color         [4]float32
}

func (a *PathAttachment) Kind() AttachmentKind { return AttachmentPath }
func (a *PathAttachment) AttachmentName() string { return a.Name }

// BoundingBoxAttachment describes a polygon used for hit testing by an
// external collaborator; the core only stores and exposes its vertices.
type BoundingBoxAttachment struct {
	Name     string
	Vertices []float32
	Weighted bool
	BoneCounts  []int
	BoneIndices []int
	BoneWeights []float32
	Color    [4]float32
}

func (a *BoundingBoxAttachment) Kind() AttachmentKind { return AttachmentBoundingBox }
func (a *BoundingBoxAttachment) AttachmentName() string { return a.Name }

// ClippingAttachment describes a polygon mask terminated at EndSlot.
type ClippingAttachment struct {
	Name     string
	EndSlot  int
	Vertices []float32
	Weighted bool
	BoneCounts  []int
	BoneIndices []int
	BoneWeights []float32
	Color    [4]float32
}

func (a *ClippingAttachment) Kind() AttachmentKind { return AttachmentClipping }
func (a *ClippingAttachment) AttachmentName() string { return a.Name }

// influencingBones appends every bone index that contributes to a's
// vertices to dst, used by the update-cache builder's path-constraint
// pre-work (spec §4.4). Unweighted attachments contribute no bones of
// their own (the caller falls back to the owning slot's bone).
func influencingBones(dst []int, weighted bool, boneIndices []int) []int {
	if !weighted {
		return dst
	}
	seen := map[int]bool{}
	for _, b := range boneIndices {
		if !seen[b] {
			seen[b] = true
			dst = append(dst, b)
		}
	}
	return dst
}
