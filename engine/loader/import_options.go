package loader

import (
	"github.com/Carmen-Shannon/oxy-asset/engine/model"
)

// ImportOptions control how text scenes are reconstructed.
type ImportOptions struct {
	// Format selects the interleaved vertex layout emitted for text scenes.
	Format model.VertexFormat

	// FrameRate converts keyframe seconds to integer frame indices.
	FrameRate float32

	// ArmatureNode is the name or id of the scene node that holds the bone nodes.
	ArmatureNode string

	// WeightFloor is the minimum sum of a vertex's bone weights.
	WeightFloor float32

	// ConvertUpAxis re-expresses every skeleton and animation matrix in the Y-up frame.
	ConvertUpAxis bool

	// CompanionRigExt is the extension of the rig file loaded next to a binary mesh.
	CompanionRigExt string
}

// DefaultImportOptions returns the stock import settings: colored
// vertices without texture coordinates, 60 frames per second, an "Armature" root node,
// a 0.9 weight floor and Z-up to Y-up conversion.
//
// Returns:
//   - ImportOptions: the default options
func DefaultImportOptions() ImportOptions {
	return ImportOptions{
		Format:          model.VertexFormat{Colors: true},
		FrameRate:       60,
		ArmatureNode:    "Armature",
		WeightFloor:     0.9,
		ConvertUpAxis:   true,
		CompanionRigExt: ".anim",
	}
}
