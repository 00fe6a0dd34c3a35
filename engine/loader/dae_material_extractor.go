package loader

import (
	"github.com/Carmen-Shannon/oxy-asset/common"

	"github.com/pkg/errors"
)

// daeMaterialExtractorImpl is the implementation of the daeMaterialExtractor interface.
type daeMaterialExtractorImpl struct {
	scanner daeScanner
}

// daeMaterialExtractor defines the interface for extracting materials from a text scene.
// A material's color is found through the chain material -> instance_effect -> effect -> diffuse.
type daeMaterialExtractor interface {
	// ExtractAllMaterials extracts every material in library_materials, in declaration order.
	// A document without library_materials yields no materials.
	//
	// Returns:
	//   - []common.ImportedMaterial: the materials
	//   - error: error if a referenced effect cannot be resolved
	ExtractAllMaterials() ([]common.ImportedMaterial, error)
}

var _ daeMaterialExtractor = &daeMaterialExtractorImpl{}

// newDAEMaterialExtractor creates a material extractor for the current load.
//
// Parameters:
//   - scanner: the scanner of the current load
//
// Returns:
//   - daeMaterialExtractor: the material extractor
func newDAEMaterialExtractor(scanner daeScanner) daeMaterialExtractor {
	return &daeMaterialExtractorImpl{scanner: scanner}
}

func (e *daeMaterialExtractorImpl) ExtractAllMaterials() ([]common.ImportedMaterial, error) {
	e.scanner.Seek(0)
	if _, err := e.scanner.FindTag("library_materials", daeMatchName); err != nil {
		return nil, nil
	}

	var materials []common.ImportedMaterial
	for {
		tag, err := e.scanner.FindChild("material", "library_materials", daeMatchName)
		if err != nil {
			break
		}
		id, err := daeRequireAttribute(tag, "id")
		if err != nil {
			return nil, err
		}
		mat := common.ImportedMaterial{
			Name:      id,
			BaseColor: [4]float32{1, 1, 1, 1},
		}

		if daeIsSelfClosingTag(tag) {
			materials = append(materials, mat)
			continue
		}
		effectTag, err := e.scanner.FindChild("instance_effect", "material", daeMatchName)
		if err == nil {
			url, err := daeRequireAttribute(effectTag, "url")
			if err != nil {
				return nil, err
			}
			mat.EffectID = daeStripRef(url)
		}
		materials = append(materials, mat)
	}

	e.scanner.Seek(0)
	if _, err := e.scanner.FindTag("library_effects", daeMatchName); err != nil {
		return materials, nil
	}
	effectsAnchor := e.scanner.Position()

	for i := range materials {
		if materials[i].EffectID == "" {
			continue
		}
		if err := e.readEffect(effectsAnchor, &materials[i]); err != nil {
			return nil, errors.Wrapf(err, "material %q", materials[i].Name)
		}
	}
	return materials, nil
}

// readEffect fills the diffuse color or texture reference of a material from its effect.
// An effect without a diffuse slot leaves the material white.
func (e *daeMaterialExtractorImpl) readEffect(anchor int, mat *common.ImportedMaterial) error {
	e.scanner.Seek(anchor)
	if err := daeSeekID(e.scanner, "effect", mat.EffectID); err != nil {
		return errors.Wrapf(ErrSourceNotFound, "effect %q", mat.EffectID)
	}

	if _, err := e.scanner.FindChild("diffuse", "effect", daeMatchName); err != nil {
		return nil
	}

	for {
		tag, err := e.scanner.NextTag()
		if err != nil {
			return errors.Wrapf(err, "diffuse of effect %q", mat.EffectID)
		}
		switch {
		case daeIsClosingTag(tag) && daeTagName(tag) == "diffuse":
			return nil
		case daeTagMatches(tag, "color", daeMatchName):
			rgb, err := e.scanner.ReadFloats(3)
			if err != nil {
				return errors.Wrapf(err, "diffuse color of effect %q", mat.EffectID)
			}
			mat.BaseColor = [4]float32{rgb[0], rgb[1], rgb[2], 1}
			if alpha, err := e.scanner.ReadFloats(1); err == nil {
				mat.BaseColor[3] = alpha[0]
			}
			return nil
		case daeTagMatches(tag, "texture", daeMatchName):
			mat.TextureRef, _ = daeAttribute(tag, "texture")
			mat.BaseColor = [4]float32{1, 1, 1, 1}
			return nil
		}
	}
}

// --- Helper Functions ---

// daeMaterialIndex returns the index of the material with the given id, or -1.
func daeMaterialIndex(materials []common.ImportedMaterial, id string) int {
	for i := range materials {
		if materials[i].Name == id {
			return i
		}
	}
	return -1
}
