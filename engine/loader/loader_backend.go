package loader

import (
	"io"

	"github.com/Carmen-Shannon/oxy-asset/engine/model"
)

// loaderBackend defines the generic interface for loading models from files or streams.
// Concrete implementations (daeLoaderBackend, solLoaderBackend) handle format-specific details.
type loaderBackend interface {
	// Load performs a full model import from the given file path.
	// This extracts meshes, materials, skeleton, skin weights and animations.
	//
	// Parameters:
	//   - path: the file path to load
	//
	// Returns:
	//   - *model.ImportedModel: the imported model data
	//   - error: error if loading fails
	Load(path string) (*model.ImportedModel, error)

	// LoadMeshOnly imports only mesh and material data from the given file path.
	// Skeleton, weight and animation extraction is skipped for faster loading of static models.
	//
	// Parameters:
	//   - path: the file path to load
	//
	// Returns:
	//   - *model.ImportedModel: the imported model with meshes and materials only
	//   - error: error if loading fails
	LoadMeshOnly(path string) (*model.ImportedModel, error)

	// LoadReader imports a model from a seekable stream.
	//
	// Parameters:
	//   - r: the stream providing model data
	//
	// Returns:
	//   - *model.ImportedModel: the imported model data
	//   - error: error if loading fails
	LoadReader(r io.ReadSeeker) (*model.ImportedModel, error)
}
