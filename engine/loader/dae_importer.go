package loader

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-asset/common"
	"github.com/Carmen-Shannon/oxy-asset/engine/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// daeImporterImpl is the implementation of the daeImporter interface.
type daeImporterImpl struct {
	options ImportOptions
}

// daeImporter defines the interface for orchestrating a full text scene import.
// It runs the extractors over one scanner in a fixed order: materials, meshes, skin,
// skeleton, weights, animation. Weights come after meshes because they are remapped
// through the assembled vertices' position indices.
type daeImporter interface {
	// Import loads a text scene file and extracts all data into an ImportedModel.
	//
	// Parameters:
	//   - path: the file path to the scene
	//
	// Returns:
	//   - *model.ImportedModel: the fully populated imported model
	//   - error: error if import fails
	Import(path string) (*model.ImportedModel, error)

	// ImportMeshOnly loads a text scene file and extracts only mesh and material data.
	//
	// Parameters:
	//   - path: the file path to the scene
	//
	// Returns:
	//   - *model.ImportedModel: the imported model with meshes and materials only
	//   - error: error if import fails
	ImportMeshOnly(path string) (*model.ImportedModel, error)

	// ImportReader reads a complete text scene from a reader and extracts all data.
	//
	// Parameters:
	//   - r: the reader providing the scene
	//
	// Returns:
	//   - *model.ImportedModel: the fully populated imported model
	//   - error: error if import fails
	ImportReader(r io.Reader) (*model.ImportedModel, error)
}

var _ daeImporter = &daeImporterImpl{}

// newDAEImporter creates a new text scene importer.
//
// Parameters:
//   - options: the import options
//
// Returns:
//   - daeImporter: the importer
func newDAEImporter(options ImportOptions) daeImporter {
	return &daeImporterImpl{options: options}
}

func (imp *daeImporterImpl) Import(path string) (*model.ImportedModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(ErrIOFailure, "%v", err)
	}
	return imp.importData(data, path, false)
}

func (imp *daeImporterImpl) ImportMeshOnly(path string) (*model.ImportedModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(ErrIOFailure, "%v", err)
	}
	return imp.importData(data, path, true)
}

func (imp *daeImporterImpl) ImportReader(r io.Reader) (*model.ImportedModel, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(ErrIOFailure, "%v", err)
	}
	return imp.importData(data, "", false)
}

// importData performs the import over one in-memory document.
//
// Parameters:
//   - data: the document bytes
//   - path: the source path, used for naming (may be empty)
//   - meshOnly: skip skin, skeleton and animation extraction
func (imp *daeImporterImpl) importData(data []byte, path string, meshOnly bool) (*model.ImportedModel, error) {
	scanner := newDAEScanner(data)
	resolver := newDAEResolver(scanner)

	materials, err := newDAEMaterialExtractor(scanner).ExtractAllMaterials()
	if err != nil {
		return nil, errors.Wrap(err, "material extraction failed")
	}

	meshes, err := newDAEMeshExtractor(scanner, resolver, imp.options.Format).ExtractAllMeshes(materials)
	if err != nil {
		return nil, errors.Wrap(err, "mesh extraction failed")
	}

	imported := &model.ImportedModel{
		ID:               uuid.New(),
		Name:             daeModelName(path),
		SourcePath:       path,
		Meshes:           meshes,
		Materials:        materials,
		SkinnedMeshIndex: -1,
	}
	if meshOnly {
		return imported, nil
	}

	skeletonExtractor := newDAESkeletonExtractor(scanner, resolver, imp.options.ArmatureNode)
	skin, err := skeletonExtractor.ExtractSkin()
	if err != nil {
		return nil, errors.Wrap(err, "skin extraction failed")
	}
	if skin == nil {
		return imported, nil
	}

	skeleton, err := skeletonExtractor.ExtractSkeleton(skin)
	if err != nil {
		return nil, errors.Wrap(err, "skeleton extraction failed")
	}

	meshIndex := -1
	for i := range meshes {
		if meshes[i].Name == skin.Source {
			meshIndex = i
			break
		}
	}
	if meshIndex < 0 {
		return nil, errors.Wrapf(ErrSourceNotFound, "skinned geometry %q", skin.Source)
	}
	weights, err := daeRemapWeights(skin, meshes[meshIndex].PositionIndices, imp.options.WeightFloor)
	if err != nil {
		return nil, errors.Wrap(err, "weight remap failed")
	}

	clip, err := newDAEAnimationExtractor(scanner, imp.options.FrameRate).ExtractAnimation(skin.Joints)
	if err != nil {
		return nil, errors.Wrap(err, "animation extraction failed")
	}

	if imp.options.ConvertUpAxis {
		daeConvertSkeletonUpAxis(skeleton)
		if clip != nil {
			for _, transforms := range clip.BoneTransforms {
				common.ConvertUpAxisAll(transforms)
			}
		}
	}

	imported.Skeleton = skeleton
	imported.Weights = weights
	imported.SkinnedMeshIndex = meshIndex
	if clip != nil {
		imported.Animations = []*model.AnimationClip{clip}
	}
	return imported, nil
}

// --- Helper Functions ---

// daeConvertSkeletonUpAxis converts every matrix held by the skeleton to the Y-up frame.
func daeConvertSkeletonUpAxis(skeleton *model.Skeleton) {
	skeleton.BindShapeMatrix = common.ConvertUpAxis(skeleton.BindShapeMatrix)
	skeleton.ArmatureMatrix = common.ConvertUpAxis(skeleton.ArmatureMatrix)
	for i := range skeleton.Bones {
		b := &skeleton.Bones[i]
		b.InverseBindMatrix = common.ConvertUpAxis(b.InverseBindMatrix)
		b.LocalTransform = common.ConvertUpAxis(b.LocalTransform)
	}
}

// daeModelName derives a model name from a file path.
func daeModelName(path string) string {
	if path == "" {
		return "unnamed_model"
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
