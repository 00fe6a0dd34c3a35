package loader

import (
	"github.com/Carmen-Shannon/oxy-asset/common"
	"github.com/Carmen-Shannon/oxy-asset/engine/model"

	"github.com/pkg/errors"
)

// daeInput is one <input> binding of a polylist or skin element.
type daeInput struct {
	Semantic string
	Source   string
	Offset   int
}

// daePolylist is a parsed <polylist> with its raw index stream.
type daePolylist struct {
	Material      string
	TriangleCount int
	Inputs        []daeInput
	Stride        int
	Indices       []int
}

// input returns the first input with the given semantic.
func (p *daePolylist) input(semantic string) (daeInput, bool) {
	for _, in := range p.Inputs {
		if in.Semantic == semantic {
			return in, true
		}
	}
	return daeInput{}, false
}

// daeAssemblySources holds the resolved attribute arrays feeding one polylist.
type daeAssemblySources struct {
	Positions []float32
	Normals   []float32
	TexCoords []float32

	// NormalOffset and TexCoordOffset are the index slots of the normal and texcoord
	// inputs. The normal slot equals the VERTEX slot when normals are bound through <vertices>.
	PositionOffset int
	NormalOffset   int
	TexCoordOffset int

	// Color is the diffuse color of the polylist's material.
	Color [3]float32
}

// daeMeshExtractorImpl is the implementation of the daeMeshExtractor interface.
type daeMeshExtractorImpl struct {
	scanner  daeScanner
	resolver daeResolver
	format   model.VertexFormat
}

// daeMeshExtractor defines the interface for assembling meshes from the polylists of a text scene.
type daeMeshExtractor interface {
	// ExtractAllMeshes assembles one interleaved mesh per <geometry> in library_geometries.
	// Each polylist becomes one material range. Vertices are emitted once per index tuple
	// and never shared, so each mesh's index buffer is the identity sequence.
	//
	// Parameters:
	//   - materials: the extracted materials, used for range indices and vertex colors
	//
	// Returns:
	//   - []model.ImportedMesh: the meshes, named by geometry id
	//   - error: error if a polylist is malformed or a source cannot be resolved
	ExtractAllMeshes(materials []common.ImportedMaterial) ([]model.ImportedMesh, error)
}

var _ daeMeshExtractor = &daeMeshExtractorImpl{}

// newDAEMeshExtractor creates a mesh extractor emitting vertices in the given format.
//
// Parameters:
//   - scanner: the scanner of the current load
//   - resolver: the resolver sharing that scanner
//   - format: the vertex layout to emit
//
// Returns:
//   - daeMeshExtractor: the mesh extractor
func newDAEMeshExtractor(scanner daeScanner, resolver daeResolver, format model.VertexFormat) daeMeshExtractor {
	return &daeMeshExtractorImpl{scanner: scanner, resolver: resolver, format: format}
}

func (e *daeMeshExtractorImpl) ExtractAllMeshes(materials []common.ImportedMaterial) ([]model.ImportedMesh, error) {
	e.scanner.Seek(0)
	if _, err := e.scanner.FindTag("library_geometries", daeMatchName); err != nil {
		return nil, nil
	}
	anchor := e.scanner.Position()

	var meshes []model.ImportedMesh
	for {
		tag, err := e.scanner.FindChild("geometry", "library_geometries", daeMatchName)
		if err != nil {
			break
		}
		id, err := daeRequireAttribute(tag, "id")
		if err != nil {
			return nil, err
		}

		mesh, err := e.extractGeometry(anchor, id, materials)
		if err != nil {
			return nil, errors.Wrapf(err, "geometry %q", id)
		}
		meshes = append(meshes, *mesh)
	}
	return meshes, nil
}

// extractGeometry assembles every polylist of the geometry the scanner has just entered.
func (e *daeMeshExtractorImpl) extractGeometry(anchor int, id string, materials []common.ImportedMaterial) (*model.ImportedMesh, error) {
	mesh := &model.ImportedMesh{
		Name:            id,
		Format:          e.format,
		FloatsPerVertex: e.format.FloatsPerVertex(),
	}

	for {
		tag, err := e.scanner.FindChild("polylist", "geometry", daeMatchName)
		if err != nil {
			break
		}
		pl, err := e.readPolylist(tag)
		if err != nil {
			return nil, err
		}
		resume := e.scanner.Position()

		src, err := e.resolveSources(anchor, pl)
		if err != nil {
			return nil, err
		}

		matIndex := daeMaterialIndex(materials, pl.Material)
		if matIndex >= 0 {
			c := materials[matIndex].BaseColor
			src.Color = [3]float32{c[0], c[1], c[2]}
		} else {
			src.Color = [3]float32{1, 1, 1}
		}

		base := len(mesh.Indices)
		if err := daeAssemblePolylist(pl, src, mesh); err != nil {
			return nil, errors.Wrapf(err, "polylist %q", pl.Material)
		}
		mesh.Ranges = append(mesh.Ranges, model.MaterialRange{
			MaterialIndex: matIndex,
			BaseIndex:     base,
			IndexCount:    len(mesh.Indices) - base,
		})

		e.scanner.Seek(resume)
	}
	return mesh, nil
}

// readPolylist parses the inputs, vcount and p children of the polylist whose tag was just read.
func (e *daeMeshExtractorImpl) readPolylist(tag string) (*daePolylist, error) {
	count, err := daeCountAttribute(tag)
	if err != nil {
		return nil, err
	}
	pl := &daePolylist{TriangleCount: count}
	pl.Material, _ = daeAttribute(tag, "material")

	sawVCount := false
	for {
		child, err := e.scanner.NextTag()
		if err != nil {
			return nil, errors.Wrap(err, "polylist")
		}
		if daeIsClosingTag(child) {
			if daeTagName(child) == "polylist" {
				return nil, errors.Wrap(ErrElementNotFound, "<p> in <polylist>")
			}
			continue
		}

		switch daeTagName(child) {
		case "input":
			in, err := daeReadInput(child)
			if err != nil {
				return nil, err
			}
			pl.Inputs = append(pl.Inputs, in)
			pl.Stride = max(pl.Stride, in.Offset+1)
		case "vcount":
			counts, err := e.scanner.ReadInts(count)
			if err != nil {
				return nil, errors.Wrap(err, "vcount")
			}
			for i, c := range counts {
				if c != 3 {
					return nil, errors.Wrapf(ErrNonTriangularFace, "face %d has %d vertices", i, c)
				}
			}
			sawVCount = true
		case "p":
			if !sawVCount {
				return nil, errors.Wrap(ErrSchemaMismatch, "<p> before <vcount>")
			}
			if pl.Stride == 0 {
				return nil, errors.Wrap(ErrSchemaMismatch, "polylist without inputs")
			}
			n, err := daeTokenCount(3, count, pl.Stride)
			if err != nil {
				return nil, errors.Wrap(err, "p")
			}
			pl.Indices, err = e.scanner.ReadInts(n)
			if err != nil {
				return nil, errors.Wrap(err, "p")
			}
			return pl, nil
		}
	}
}

// resolveSources follows the polylist's input references to their float arrays.
func (e *daeMeshExtractorImpl) resolveSources(anchor int, pl *daePolylist) (daeAssemblySources, error) {
	var src daeAssemblySources

	vertex, ok := pl.input("VERTEX")
	if !ok {
		return src, errors.Wrap(ErrSourceNotFound, "VERTEX input")
	}
	src.PositionOffset = vertex.Offset

	var err error
	if src.Positions, err = e.resolver.ResolvePositions(anchor, vertex.Source); err != nil {
		return src, err
	}

	if normal, ok := pl.input("NORMAL"); ok {
		src.NormalOffset = normal.Offset
		if src.Normals, err = e.resolver.ResolveFloatSource(anchor, normal.Source); err != nil {
			return src, err
		}
	} else {
		// Normals bound inside <vertices> share the VERTEX slot.
		vertexInputs, err := e.resolver.ResolveVertexInputs(anchor, vertex.Source)
		if err != nil {
			return src, err
		}
		normalRef, ok := vertexInputs["NORMAL"]
		if !ok {
			return src, errors.Wrap(ErrSourceNotFound, "NORMAL input")
		}
		src.NormalOffset = vertex.Offset
		if src.Normals, err = e.resolver.ResolveFloatSource(anchor, normalRef); err != nil {
			return src, err
		}
	}

	if e.format.TexCoords {
		src.TexCoordOffset = -1
		if texcoord, ok := pl.input("TEXCOORD"); ok {
			src.TexCoordOffset = texcoord.Offset
			if src.TexCoords, err = e.resolver.ResolveFloatSource(anchor, texcoord.Source); err != nil {
				return src, err
			}
		}
	}
	return src, nil
}

// --- Helper Functions ---

// daeReadInput parses an <input semantic source offset> tag.
func daeReadInput(tag string) (daeInput, error) {
	semantic, err := daeRequireAttribute(tag, "semantic")
	if err != nil {
		return daeInput{}, err
	}
	source, err := daeRequireAttribute(tag, "source")
	if err != nil {
		return daeInput{}, err
	}
	offset, err := daeIntAttribute(tag, "offset", 0)
	if err != nil {
		return daeInput{}, err
	}
	if offset < 0 {
		return daeInput{}, errors.Wrapf(ErrMalformedElement, "negative offset %d on %s input", offset, semantic)
	}
	return daeInput{Semantic: semantic, Source: source, Offset: offset}, nil
}

// daeExtractPositionIndices returns, for every index tuple of the polylist, the index
// in its position slot. The Nth entry is the position index of the Nth assembled vertex.
func daeExtractPositionIndices(pl *daePolylist, positionOffset int) []int32 {
	out := make([]int32, 0, len(pl.Indices)/pl.Stride)
	for i, idx := range pl.Indices {
		if i%pl.Stride == positionOffset {
			out = append(out, int32(idx))
		}
	}
	return out
}

// daeAssemblePolylist walks the polylist's index stream and appends one interleaved
// vertex and one identity index per tuple to mesh. The slot of an index within its
// tuple is i mod stride.
func daeAssemblePolylist(pl *daePolylist, src daeAssemblySources, mesh *model.ImportedMesh) error {
	format := mesh.Format
	fpv := format.FloatsPerVertex()
	scratch := make([]float32, fpv)
	colorAt := 6
	if format.TexCoords {
		colorAt = 8
	}

	fetch := func(dst []float32, values []float32, idx, width int, semantic string) error {
		if idx < 0 || (idx+1)*width > len(values) {
			return errors.Wrapf(ErrIndexOutOfRange, "%s index %d of %d", semantic, idx, len(values)/width)
		}
		copy(dst, values[idx*width:(idx+1)*width])
		return nil
	}

	for i, idx := range pl.Indices {
		slot := i % pl.Stride

		if slot == src.PositionOffset {
			if err := fetch(scratch[0:3], src.Positions, idx, 3, "POSITION"); err != nil {
				return err
			}
		}
		if slot == src.NormalOffset {
			if err := fetch(scratch[3:6], src.Normals, idx, 3, "NORMAL"); err != nil {
				return err
			}
		}
		if format.TexCoords && slot == src.TexCoordOffset {
			if err := fetch(scratch[6:8], src.TexCoords, idx, 2, "TEXCOORD"); err != nil {
				return err
			}
		}

		if slot == pl.Stride-1 {
			if format.Colors {
				copy(scratch[colorAt:colorAt+3], src.Color[:])
			}
			mesh.Indices = append(mesh.Indices, uint32(mesh.VertexCount()))
			mesh.Vertices = append(mesh.Vertices, scratch...)
			if format.TexCoords {
				scratch[6], scratch[7] = 0, 0
			}
		}
	}

	mesh.PositionIndices = append(mesh.PositionIndices, daeExtractPositionIndices(pl, src.PositionOffset)...)
	return nil
}
