package loader

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-asset/common"
	"github.com/Carmen-Shannon/oxy-asset/engine/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// solLoaderBackendImpl is the implementation of solLoaderBackend.
type solLoaderBackendImpl struct {
	companionRigExt string
}

// solLoaderBackend is a loaderBackend implementation for the binary layouts.
// A mesh file picks up the rig file stored next to it under the companion extension.
type solLoaderBackend interface {
	loaderBackend
}

var _ solLoaderBackend = &solLoaderBackendImpl{}

// newSOLLoaderBackend creates a new binary loader backend.
//
// Parameters:
//   - options: the import options, supplying the companion rig extension
//
// Returns:
//   - solLoaderBackend: the loader backend for binary files
func newSOLLoaderBackend(options ImportOptions) solLoaderBackend {
	return &solLoaderBackendImpl{companionRigExt: options.CompanionRigExt}
}

func (b *solLoaderBackendImpl) Load(path string) (*model.ImportedModel, error) {
	imported, err := b.loadFile(path)
	if err != nil {
		return nil, err
	}
	if len(imported.Meshes) == 0 || b.companionRigExt == "" {
		return imported, nil
	}

	rigPath := strings.TrimSuffix(path, filepath.Ext(path)) + b.companionRigExt
	if rigPath == path {
		return imported, nil
	}
	if _, err := os.Stat(rigPath); err != nil {
		return imported, nil
	}
	rigModel, err := b.loadFile(rigPath)
	if err != nil {
		return nil, errors.Wrapf(err, "companion rig %s", rigPath)
	}
	if err := solAttachRig(imported, rigModel); err != nil {
		return nil, err
	}
	return imported, nil
}

func (b *solLoaderBackendImpl) LoadMeshOnly(path string) (*model.ImportedModel, error) {
	imported, err := b.loadFile(path)
	if err != nil {
		return nil, err
	}
	imported.Skeleton = nil
	imported.Weights = nil
	imported.Animations = nil
	imported.SkinnedMeshIndex = -1
	return imported, nil
}

func (b *solLoaderBackendImpl) LoadReader(r io.ReadSeeker) (*model.ImportedModel, error) {
	return solImport(r, "")
}

// loadFile opens a binary file and imports it according to its magic.
func (b *solLoaderBackendImpl) loadFile(path string) (*model.ImportedModel, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(ErrIOFailure, "%v", err)
	}
	defer file.Close()

	return solImport(file, path)
}

// --- Helper Functions ---

// solImport reads a mesh or rig file, chosen by its magic, into an ImportedModel.
func solImport(r io.ReadSeeker, path string) (*model.ImportedModel, error) {
	reader, err := newSOLReader(r)
	if err != nil {
		return nil, err
	}
	magic, err := reader.Magic()
	if err != nil {
		return nil, err
	}

	imported := &model.ImportedModel{
		ID:               uuid.New(),
		Name:             daeModelName(path),
		SourcePath:       path,
		SkinnedMeshIndex: -1,
	}

	switch magic {
	case solMeshMagic:
		mesh, err := reader.ReadMesh()
		if err != nil {
			return nil, err
		}
		mesh.Name = imported.Name
		imported.Meshes = []model.ImportedMesh{*mesh}
		imported.Materials = make([]common.ImportedMaterial, len(mesh.Ranges))
		for i := range imported.Materials {
			imported.Materials[i] = common.ImportedMaterial{
				Name:      fmt.Sprintf("material_%d", i),
				BaseColor: [4]float32{1, 1, 1, 1},
			}
		}
	case solRigMagic:
		rig, err := reader.ReadRig()
		if err != nil {
			return nil, err
		}
		imported.Skeleton = rig.Skeleton
		imported.Weights = rig.Weights
		imported.Animations = rig.Animations
	default:
		return nil, errors.Wrapf(ErrFormatMismatch, "magic %q", magic)
	}
	return imported, nil
}

// solAttachRig moves the skeleton, weights and animations of a rig model onto a mesh model.
// The rig must hold a skeleton and its weight table must have one row per mesh vertex.
func solAttachRig(mesh, rig *model.ImportedModel) error {
	if rig.Skeleton == nil {
		return errors.Wrap(ErrFormatMismatch, "companion rig holds no skeleton")
	}
	if rig.Weights != nil && rig.Weights.NumVertices != mesh.Meshes[0].VertexCount() {
		return errors.Wrapf(ErrCountMismatch, "rig weights cover %d vertices, mesh has %d", rig.Weights.NumVertices, mesh.Meshes[0].VertexCount())
	}
	mesh.Skeleton = rig.Skeleton
	mesh.Weights = rig.Weights
	mesh.Animations = rig.Animations
	mesh.SkinnedMeshIndex = 0
	return nil
}
