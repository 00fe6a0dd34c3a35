package model

import (
	"github.com/Carmen-Shannon/oxy-asset/common"

	"github.com/google/uuid"
)

// ModelBuilderOption is a functional option for configuring a Model via NewModel.
type ModelBuilderOption func(*model)

// WithID is an option builder that sets the load id of the Model.
//
// Parameters:
//   - id: the load id
//
// Returns:
//   - ModelBuilderOption: a function that applies the id option to a model
func WithID(id uuid.UUID) ModelBuilderOption {
	return func(m *model) {
		m.id = id
	}
}

// WithName is an option builder that sets the name of the Model.
//
// Parameters:
//   - name: the model identifier
//
// Returns:
//   - ModelBuilderOption: a function that applies the name option to a model
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithSourcePath is an option builder that records the file the Model was loaded from.
//
// Parameters:
//   - path: the source file path
//
// Returns:
//   - ModelBuilderOption: a function that applies the source path option to a model
func WithSourcePath(path string) ModelBuilderOption {
	return func(m *model) {
		m.sourcePath = path
	}
}

// WithSkinned is an option builder that sets whether the Model uses skeletal animation.
//
// Parameters:
//   - skinned: true if the model has bone data
//
// Returns:
//   - ModelBuilderOption: a function that applies the skinned option to a model
func WithSkinned(skinned bool) ModelBuilderOption {
	return func(m *model) {
		m.skinned = skinned
	}
}

// WithSkeleton is an option builder that sets the bone hierarchy of the Model.
//
// Parameters:
//   - skeleton: the skeleton to set
//
// Returns:
//   - ModelBuilderOption: a function that applies the skeleton option to a model
func WithSkeleton(skeleton *Skeleton) ModelBuilderOption {
	return func(m *model) {
		m.skeleton = skeleton
	}
}

// WithWeights is an option builder that sets the per-vertex bone weight table of the Model.
//
// Parameters:
//   - weights: the weight table to set
//
// Returns:
//   - ModelBuilderOption: a function that applies the weights option to a model
func WithWeights(weights *SkinWeights) ModelBuilderOption {
	return func(m *model) {
		m.weights = weights
	}
}

// WithAnimations is an option builder that sets the animation clips of the Model.
//
// Parameters:
//   - animations: the animation clips to set
//
// Returns:
//   - ModelBuilderOption: a function that applies the animations option to a model
func WithAnimations(animations []*AnimationClip) ModelBuilderOption {
	return func(m *model) {
		m.animations = animations
	}
}

// WithImportedMaterials is an option builder that sets the imported material data of the Model.
//
// Parameters:
//   - materials: the imported materials to set
//
// Returns:
//   - ModelBuilderOption: a function that applies the materials option to a model
func WithImportedMaterials(materials []common.ImportedMaterial) ModelBuilderOption {
	return func(m *model) {
		m.importedMaterials = materials
	}
}

// WithMeshes is an option builder that sets the CPU-side meshes of the Model.
//
// Parameters:
//   - meshes: the meshes to set
//
// Returns:
//   - ModelBuilderOption: a function that applies the meshes option to a model
func WithMeshes(meshes []ImportedMesh) ModelBuilderOption {
	return func(m *model) {
		m.meshes = meshes
	}
}

// WithVertexFormat is an option builder that sets the interleaved vertex layout of the Model.
//
// Parameters:
//   - format: the vertex format
//
// Returns:
//   - ModelBuilderOption: a function that applies the vertex format option to a model
func WithVertexFormat(format VertexFormat) ModelBuilderOption {
	return func(m *model) {
		m.format = format
	}
}

// WithBoundingRadius is an option builder that overrides the computed bounding radius.
//
// Parameters:
//   - radius: the bounding sphere radius
//
// Returns:
//   - ModelBuilderOption: a function that applies the bounding radius option to a model
func WithBoundingRadius(radius float32) ModelBuilderOption {
	return func(m *model) {
		m.boundingRadius = radius
	}
}

// WithMeshData is an option builder that sets the combined vertex and index buffers.
//
// Parameters:
//   - vertexData: the raw vertex bytes
//   - indexData: the raw index bytes
//   - indexCount: the number of indices
//
// Returns:
//   - ModelBuilderOption: a function that applies the mesh data option to a model
func WithMeshData(vertexData, indexData []byte, indexCount int) ModelBuilderOption {
	return func(m *model) {
		m.vertexData = vertexData
		m.indexData = indexData
		m.indexCount = indexCount
	}
}
