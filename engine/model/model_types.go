package model

import (
	"github.com/Carmen-Shannon/oxy-asset/common"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// --- Skeleton Types ---

// Bone represents a single bone in a skeleton hierarchy.
// Bones live in an arena (Skeleton.Bones) and refer to each other by index.
type Bone struct {
	// Index is the bone's position in Skeleton.Bones (depth-first declaration order).
	Index int32

	// Name is the joint name that targets this bone in skin and animation data.
	Name string

	// Parent is the index of the parent bone, or -1 for the root.
	Parent int32

	// Children are the indices of the bone's direct children, in ascending order.
	Children []int32

	// InverseBindMatrix transforms from model space to bone space at bind pose (column-major).
	InverseBindMatrix mgl32.Mat4

	// LocalTransform is the bone's rest transform relative to its parent (column-major).
	LocalTransform mgl32.Mat4
}

// Skeleton represents a bone hierarchy for skeletal animation.
type Skeleton struct {
	// Bones is the bone arena.
	Bones []Bone

	// RootBoneIndex is the index of the single root bone.
	RootBoneIndex int32

	// BoneNameToIndex maps joint names to their indices for quick lookup.
	BoneNameToIndex map[string]int32

	// BindShapeMatrix is applied to the mesh before skin deformation.
	BindShapeMatrix mgl32.Mat4

	// ArmatureMatrix is the transform of the armature scene node.
	ArmatureMatrix mgl32.Mat4
}

// SkinWeights is a dense per-vertex bone weight table.
// Weights[v*NumBones+b] is the influence of bone b on assembled vertex v.
type SkinWeights struct {
	// NumVertices is the number of assembled vertices (rows).
	NumVertices int

	// NumBones is the number of bones (columns).
	NumBones int

	// Weights holds NumVertices*NumBones floats, row-major by vertex.
	Weights []float32
}

// Row returns the weights of one vertex.
func (w *SkinWeights) Row(vertex int) []float32 {
	return w.Weights[vertex*w.NumBones : (vertex+1)*w.NumBones]
}

// --- Animation Types ---

// AnimationClip is a sampled skeletal animation: one matrix per bone per keyframe.
type AnimationClip struct {
	// Name is the animation identifier.
	Name string

	// FrameTimes are the integer keyframe indices at the authoring frame rate.
	FrameTimes []int32

	// BoneTransforms holds, per bone, one column-major transform per keyframe.
	BoneTransforms [][]mgl32.Mat4
}

// FrameCount returns the number of keyframes in the clip.
func (c *AnimationClip) FrameCount() int {
	return len(c.FrameTimes)
}

// --- Import Types ---

// VertexFormat describes which attributes are interleaved into a vertex.
type VertexFormat struct {
	// TexCoords adds a 2-float texture coordinate after the normal.
	TexCoords bool

	// Colors adds a 3-float material diffuse color at the end of the vertex.
	Colors bool
}

// FloatsPerVertex returns the interleaved vertex stride in floats (6, 8, 9 or 11).
func (f VertexFormat) FloatsPerVertex() int {
	n := 6
	if f.TexCoords {
		n += 2
	}
	if f.Colors {
		n += 3
	}
	return n
}

// MaterialRange is a contiguous run of indices drawn with one material.
type MaterialRange struct {
	// MaterialIndex references ImportedModel.Materials (-1 when unresolved).
	MaterialIndex int

	// BaseIndex is the first index of the range.
	BaseIndex int

	// IndexCount is the number of indices in the range.
	IndexCount int
}

// ImportedModel represents a 3D model loaded from an external format.
// This is the universal format that importers (text scene, binary) produce.
type ImportedModel struct {
	// ID uniquely identifies this load.
	ID uuid.UUID

	// Name is the model identifier.
	Name string

	// SourcePath is the file the model was read from (empty for readers).
	SourcePath string

	// Meshes contains all mesh data.
	Meshes []ImportedMesh

	// Skeleton is the bone hierarchy (nil for static models).
	Skeleton *Skeleton

	// Weights is the per-vertex bone weight table of the skinned mesh (nil for static models).
	Weights *SkinWeights

	// SkinnedMeshIndex is the index in Meshes that Weights applies to (-1 for none).
	SkinnedMeshIndex int

	// Animations are all animation clips bundled with the model.
	Animations []*AnimationClip

	// Materials are the materials referenced by MaterialRange.MaterialIndex.
	Materials []common.ImportedMaterial
}

// ImportedMesh is one interleaved vertex buffer with its index buffer.
type ImportedMesh struct {
	// Name is the mesh identifier.
	Name string

	// Format describes the vertex layout.
	Format VertexFormat

	// FloatsPerVertex is the vertex stride in floats.
	FloatsPerVertex int

	// Vertices is the interleaved vertex data.
	Vertices []float32

	// Indices are the triangle indices.
	Indices []uint32

	// Ranges split Indices by material.
	Ranges []MaterialRange

	// PositionIndices maps each assembled vertex to its source position index.
	// Present for text scene meshes only.
	PositionIndices []int32
}

// VertexCount returns the number of assembled vertices.
func (m *ImportedMesh) VertexCount() int {
	if m.FloatsPerVertex == 0 {
		return 0
	}
	return len(m.Vertices) / m.FloatsPerVertex
}
