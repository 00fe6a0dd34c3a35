package loader

import (
	"io"

	"github.com/Carmen-Shannon/oxy-asset/engine/model"
)

// daeLoaderBackendImpl is the implementation of daeLoaderBackend.
type daeLoaderBackendImpl struct {
	importer daeImporter
}

// daeLoaderBackend is a loaderBackend implementation for text scene (.dae) files.
// It delegates to the daeImporter for scanning and extraction.
type daeLoaderBackend interface {
	loaderBackend
}

var _ daeLoaderBackend = &daeLoaderBackendImpl{}

// newDAELoaderBackend creates a new text scene loader backend.
//
// Parameters:
//   - options: the import options
//
// Returns:
//   - daeLoaderBackend: the loader backend for text scene files
func newDAELoaderBackend(options ImportOptions) daeLoaderBackend {
	return &daeLoaderBackendImpl{
		importer: newDAEImporter(options),
	}
}

func (b *daeLoaderBackendImpl) Load(path string) (*model.ImportedModel, error) {
	return b.importer.Import(path)
}

func (b *daeLoaderBackendImpl) LoadMeshOnly(path string) (*model.ImportedModel, error) {
	return b.importer.ImportMeshOnly(path)
}

func (b *daeLoaderBackendImpl) LoadReader(r io.ReadSeeker) (*model.ImportedModel, error) {
	return b.importer.ImportReader(r)
}
