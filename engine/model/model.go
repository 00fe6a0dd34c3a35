package model

import (
	"github.com/Carmen-Shannon/oxy-asset/common"

	"github.com/chewxy/math32"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"
)

// model is the implementation of the Model interface.
type model struct {
	id                    uuid.UUID
	name                  string
	sourcePath            string
	skinned               bool
	skeleton              *Skeleton
	weights               *SkinWeights
	animations            []*AnimationClip
	importedMaterials     []common.ImportedMaterial
	meshes                []ImportedMesh
	format                VertexFormat
	boundingRadius        float32
	vertexData, indexData []byte
	indexCount            int
}

// Model defines the interface for a loaded 3D model.
// A Model is an engine-ready container holding combined vertex and index buffers,
// the skeleton hierarchy, per-vertex skin weights, animation clips and material properties.
// It is produced by the Loader after importing a model file.
type Model interface {
	// ID retrieves the unique identifier of the load that produced this model.
	//
	// Returns:
	//   - uuid.UUID: the load id
	ID() uuid.UUID

	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// SourcePath retrieves the file the model was loaded from.
	//
	// Returns:
	//   - string: the source path, empty for stream loads
	SourcePath() string

	// Skinned reports whether this model uses skeletal animation.
	//
	// Returns:
	//   - bool: true if the model has bone data
	Skinned() bool

	// Skeleton retrieves the bone hierarchy for this model.
	// Returns nil for static (non-skinned) models.
	//
	// Returns:
	//   - *Skeleton: the skeleton or nil
	Skeleton() *Skeleton

	// Weights retrieves the per-vertex bone weight table.
	// Returns nil for static (non-skinned) models.
	//
	// Returns:
	//   - *SkinWeights: the weight table or nil
	Weights() *SkinWeights

	// Animations retrieves all animation clips bundled with this model.
	//
	// Returns:
	//   - []*AnimationClip: the animation clips
	Animations() []*AnimationClip

	// ImportedMaterials retrieves the raw material properties imported from the model file.
	//
	// Returns:
	//   - []common.ImportedMaterial: the imported materials
	ImportedMaterials() []common.ImportedMaterial

	// Meshes retrieves the CPU-side meshes the combined buffers were built from.
	//
	// Returns:
	//   - []ImportedMesh: the meshes
	Meshes() []ImportedMesh

	// VertexFormat retrieves the interleaved vertex layout of VertexData.
	//
	// Returns:
	//   - VertexFormat: the vertex format
	VertexFormat() VertexFormat

	// VertexLayout builds the wgpu vertex buffer layout matching VertexData.
	//
	// Returns:
	//   - wgpu.VertexBufferLayout: the vertex buffer layout
	VertexLayout() wgpu.VertexBufferLayout

	// AnimationCount returns the number of available animation clips.
	//
	// Returns:
	//   - int: the animation count
	AnimationCount() int

	// AnimationNames returns the names of all animation clips.
	//
	// Returns:
	//   - []string: the animation clip names
	AnimationNames() []string

	// GetAnimationIndex returns the index of an animation by name, or -1 if not found.
	//
	// Parameters:
	//   - name: the animation clip name to search for
	//
	// Returns:
	//   - int: the animation index, or -1 if not found
	GetAnimationIndex(name string) int

	// VertexData returns the raw vertex data for this model's combined mesh.
	//
	// Returns:
	//   - []byte: the vertex data
	VertexData() []byte

	// IndexData returns the raw index data for this model's combined mesh.
	//
	// Returns:
	//   - []byte: the index data
	IndexData() []byte

	// IndexCount returns the number of indices in the model's combined mesh.
	//
	// Returns:
	//   - int: the index count
	IndexCount() int

	// BoundingRadius returns the bounding sphere radius for this model, measured as
	// the maximum vertex distance from the origin.
	//
	// Returns:
	//   - float32: the bounding radius
	BoundingRadius() float32

	// SetVertexData sets the raw vertex data for this model's mesh.
	//
	// Parameters:
	//   - data: the vertex data to set
	SetVertexData(data []byte)

	// SetIndexData sets the raw index data for this model's mesh.
	//
	// Parameters:
	//   - data: the index data to set
	SetIndexData(data []byte)

	// SetIndexCount sets the number of indices in the model's mesh.
	//
	// Parameters:
	//   - count: the index count to set
	SetIndexCount(count int)
}

var _ Model = &model{}

// NewModel creates a new Model instance with the specified options applied.
//
// Parameters:
//   - options: a variadic list of ModelBuilderOption functions to configure the Model
//
// Returns:
//   - Model: a new instance of Model configured with the provided options
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{}
	for _, opt := range options {
		opt(m)
	}
	if m.boundingRadius == 0 {
		m.boundingRadius = computeBoundingRadius(m.meshes)
	}
	return m
}

func (m *model) ID() uuid.UUID {
	return m.id
}

func (m *model) Name() string {
	return m.name
}

func (m *model) SourcePath() string {
	return m.sourcePath
}

func (m *model) Skinned() bool {
	return m.skinned
}

func (m *model) Skeleton() *Skeleton {
	return m.skeleton
}

func (m *model) Weights() *SkinWeights {
	return m.weights
}

func (m *model) Animations() []*AnimationClip {
	return m.animations
}

func (m *model) ImportedMaterials() []common.ImportedMaterial {
	return m.importedMaterials
}

func (m *model) Meshes() []ImportedMesh {
	return m.meshes
}

func (m *model) VertexFormat() VertexFormat {
	return m.format
}

func (m *model) VertexLayout() wgpu.VertexBufferLayout {
	return m.format.VertexBufferLayout()
}

func (m *model) AnimationCount() int {
	return len(m.animations)
}

func (m *model) AnimationNames() []string {
	names := make([]string, len(m.animations))
	for i, anim := range m.animations {
		names[i] = anim.Name
	}
	return names
}

func (m *model) GetAnimationIndex(name string) int {
	for i, anim := range m.animations {
		if anim.Name == name {
			return i
		}
	}
	return -1
}

func (m *model) VertexData() []byte {
	return m.vertexData
}

func (m *model) SetVertexData(data []byte) {
	m.vertexData = data
}

func (m *model) IndexData() []byte {
	return m.indexData
}

func (m *model) SetIndexData(data []byte) {
	m.indexData = data
}

func (m *model) IndexCount() int {
	return m.indexCount
}

func (m *model) SetIndexCount(count int) {
	m.indexCount = count
}

func (m *model) BoundingRadius() float32 {
	return m.boundingRadius
}

// computeBoundingRadius returns the largest distance of any vertex position from the origin.
func computeBoundingRadius(meshes []ImportedMesh) float32 {
	var maxSq float32
	for _, mesh := range meshes {
		stride := mesh.FloatsPerVertex
		if stride < 3 {
			continue
		}
		for i := 0; i+2 < len(mesh.Vertices); i += stride {
			x, y, z := mesh.Vertices[i], mesh.Vertices[i+1], mesh.Vertices[i+2]
			if d := x*x + y*y + z*z; d > maxSq {
				maxSq = d
			}
		}
	}
	return math32.Sqrt(maxSq)
}
