package loader

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/Carmen-Shannon/oxy-asset/common"
	"github.com/Carmen-Shannon/oxy-asset/engine/model"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// Magic strings of the binary layouts. Neither carries a version or a terminator.
const (
	solMeshMagic = "SOLDIER"
	solRigMagic  = "SOLANIM"
	solMagicLen  = 7
)

// solNoParent is the parent byte of the root bone.
const solNoParent = -1

// solMeshHeader follows the magic of a mesh file. Offsets are absolute.
type solMeshHeader struct {
	NumMaterials   int32
	NumVerts       int32
	NumIndices     int32
	FloatsPerVert  int32
	VertexOffset   int32
	IndexOffset    int32
	MaterialOffset int32
}

// solRigHeader follows the magic of a rig file.
type solRigHeader struct {
	NumBones         int32
	NumVerts         int32
	NumAnimSequences int32
}

// solRig is the content of a rig file.
type solRig struct {
	Skeleton   *model.Skeleton
	Weights    *model.SkinWeights
	Animations []*model.AnimationClip
}

// solReaderImpl is the implementation of the solReader interface.
type solReaderImpl struct {
	r    io.ReadSeeker
	size int64
}

// solReader reads the fixed little-endian binary layouts: mesh files (SOLDIER) holding
// an interleaved vertex buffer, indices and a material table, and rig files (SOLANIM)
// holding bones, skin weights and animation sequences. Matrices are stored column-major.
type solReader interface {
	// Magic reads the magic string at the start of the stream.
	//
	// Returns:
	//   - string: the 7-byte magic
	//   - error: ErrIOFailure on a short read
	Magic() (string, error)

	// ReadMesh reads a mesh file from the start of the stream.
	//
	// Returns:
	//   - *model.ImportedMesh: the mesh with one material range per table entry
	//   - error: ErrFormatMismatch, ErrIOFailure or ErrConstraintViolation
	ReadMesh() (*model.ImportedMesh, error)

	// ReadRig reads a rig file from the start of the stream.
	//
	// Returns:
	//   - *solRig: the skeleton, weights and animations
	//   - error: ErrFormatMismatch, ErrIOFailure or ErrConstraintViolation
	ReadRig() (*solRig, error)
}

var _ solReader = &solReaderImpl{}

// newSOLReader creates a reader over a seekable stream.
//
// Parameters:
//   - r: the stream
//
// Returns:
//   - solReader: the reader
//   - error: ErrIOFailure if the stream size cannot be determined
func newSOLReader(r io.ReadSeeker) (solReader, error) {
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, errors.Wrapf(ErrIOFailure, "seek end: %v", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrapf(ErrIOFailure, "seek start: %v", err)
	}
	return &solReaderImpl{r: r, size: size}, nil
}

func (s *solReaderImpl) Magic() (string, error) {
	if err := s.seek(0); err != nil {
		return "", err
	}
	magic := make([]byte, solMagicLen)
	if err := s.read(magic, "magic"); err != nil {
		return "", err
	}
	return string(magic), nil
}

func (s *solReaderImpl) ReadMesh() (*model.ImportedMesh, error) {
	if err := s.expectMagic(solMeshMagic); err != nil {
		return nil, err
	}

	var h solMeshHeader
	if err := s.read(&h, "mesh header"); err != nil {
		return nil, err
	}
	if h.NumMaterials < 0 || h.NumVerts < 0 || h.NumIndices < 0 || h.FloatsPerVert <= 0 {
		return nil, errors.Wrapf(ErrConstraintViolation, "mesh header %+v", h)
	}
	if err := s.checkSection(h.VertexOffset, int64(h.NumVerts)*int64(h.FloatsPerVert)*4, "vertex data"); err != nil {
		return nil, err
	}
	if err := s.checkSection(h.IndexOffset, int64(h.NumIndices)*4, "indices"); err != nil {
		return nil, err
	}
	if err := s.checkSection(h.MaterialOffset, int64(h.NumMaterials)*8, "material table"); err != nil {
		return nil, err
	}

	format, _ := model.VertexFormatForStride(int(h.FloatsPerVert))
	mesh := &model.ImportedMesh{
		Format:          format,
		FloatsPerVertex: int(h.FloatsPerVert),
		Vertices:        make([]float32, int(h.NumVerts)*int(h.FloatsPerVert)),
	}

	if err := s.seek(h.VertexOffset); err != nil {
		return nil, err
	}
	if err := s.read(mesh.Vertices, "vertex data"); err != nil {
		return nil, err
	}

	indices := make([]int32, h.NumIndices)
	if err := s.seek(h.IndexOffset); err != nil {
		return nil, err
	}
	if err := s.read(indices, "indices"); err != nil {
		return nil, err
	}
	mesh.Indices = make([]uint32, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= h.NumVerts {
			return nil, errors.Wrapf(ErrIndexOutOfRange, "index %d is %d of %d vertices", i, idx, h.NumVerts)
		}
		mesh.Indices[i] = uint32(idx)
	}

	bases := make([]int32, h.NumMaterials)
	counts := make([]int32, h.NumMaterials)
	if err := s.seek(h.MaterialOffset); err != nil {
		return nil, err
	}
	if err := s.read(bases, "material base offsets"); err != nil {
		return nil, err
	}
	if err := s.read(counts, "material vertex counts"); err != nil {
		return nil, err
	}
	mesh.Ranges = make([]model.MaterialRange, h.NumMaterials)
	for i := range mesh.Ranges {
		if bases[i] < 0 || counts[i] < 0 || bases[i]+counts[i] > h.NumIndices {
			return nil, errors.Wrapf(ErrIndexOutOfRange, "material %d range %d+%d of %d indices", i, bases[i], counts[i], h.NumIndices)
		}
		mesh.Ranges[i] = model.MaterialRange{
			MaterialIndex: i,
			BaseIndex:     int(bases[i]),
			IndexCount:    int(counts[i]),
		}
	}
	return mesh, nil
}

func (s *solReaderImpl) ReadRig() (*solRig, error) {
	if err := s.expectMagic(solRigMagic); err != nil {
		return nil, err
	}

	var h solRigHeader
	if err := s.read(&h, "rig header"); err != nil {
		return nil, err
	}
	if h.NumBones <= 0 || h.NumVerts < 0 || h.NumAnimSequences < 0 {
		return nil, errors.Wrapf(ErrConstraintViolation, "rig header %+v", h)
	}
	numBones := int(h.NumBones)
	if err := s.checkSection(solMagicLen+12, int64(numBones+2)*64, "bind matrices"); err != nil {
		return nil, err
	}

	invBinds := make([]float32, numBones*16)
	if err := s.read(invBinds, "inverse bind matrices"); err != nil {
		return nil, err
	}
	var bindShape, armature [16]float32
	if err := s.read(&bindShape, "bind shape matrix"); err != nil {
		return nil, err
	}
	if err := s.read(&armature, "armature matrix"); err != nil {
		return nil, err
	}

	bones, err := s.readBoneTree(numBones)
	if err != nil {
		return nil, err
	}
	nameToIndex := make(map[string]int32, numBones)
	root := int32(0)
	for i := range bones {
		bones[i].Name = fmt.Sprintf("bone_%d", i)
		bones[i].InverseBindMatrix = common.ColumnMajorToMat4(invBinds[i*16 : (i+1)*16])
		bones[i].LocalTransform = mgl32.Ident4()
		nameToIndex[bones[i].Name] = int32(i)
		if bones[i].Parent == solNoParent {
			root = int32(i)
		}
	}

	var offsets struct {
		Weights    int32
		AnimStruct int32
	}
	if err := s.read(&offsets, "section offsets"); err != nil {
		return nil, err
	}

	weights := &model.SkinWeights{
		NumVertices: int(h.NumVerts),
		NumBones:    numBones,
		Weights:     make([]float32, int(h.NumVerts)*numBones),
	}
	if err := s.checkSection(offsets.Weights, int64(len(weights.Weights))*4, "weights"); err != nil {
		return nil, err
	}
	if err := s.seek(offsets.Weights); err != nil {
		return nil, err
	}
	if err := s.read(weights.Weights, "weights"); err != nil {
		return nil, err
	}

	rig := &solRig{
		Skeleton: &model.Skeleton{
			Bones:           bones,
			RootBoneIndex:   root,
			BoneNameToIndex: nameToIndex,
			BindShapeMatrix: mgl32.Mat4(bindShape),
			ArmatureMatrix:  mgl32.Mat4(armature),
		},
		Weights: weights,
	}

	if h.NumAnimSequences > 0 {
		if err := s.seek(offsets.AnimStruct); err != nil {
			return nil, err
		}
	}
	for a := 0; a < int(h.NumAnimSequences); a++ {
		clip, err := s.readAnimation(numBones)
		if err != nil {
			return nil, errors.Wrapf(err, "animation %d", a)
		}
		clip.Name = fmt.Sprintf("anim_%d", a)
		rig.Animations = append(rig.Animations, clip)
	}
	return rig, nil
}

// readBoneTree reads the per-bone parent byte, child count and child index bytes.
func (s *solReaderImpl) readBoneTree(numBones int) ([]model.Bone, error) {
	bones := make([]model.Bone, numBones)
	roots := 0
	for i := range bones {
		var entry struct {
			Parent     int8
			ChildCount uint8
		}
		if err := s.read(&entry, "bone tree"); err != nil {
			return nil, err
		}
		children := make([]uint8, entry.ChildCount)
		if err := s.read(children, "bone children"); err != nil {
			return nil, err
		}

		bones[i].Index = int32(i)
		bones[i].Parent = int32(entry.Parent)
		if entry.Parent == solNoParent {
			roots++
		} else if int(entry.Parent) < 0 || int(entry.Parent) >= numBones {
			return nil, errors.Wrapf(ErrIndexOutOfRange, "bone %d parent %d", i, entry.Parent)
		}

		for _, c := range children {
			if c == 0 {
				return nil, errors.Wrapf(ErrInvalidHierarchy, "bone %d lists reserved child index 0", i)
			}
			if int(c) >= numBones {
				return nil, errors.Wrapf(ErrIndexOutOfRange, "bone %d child %d", i, c)
			}
			bones[i].Children = append(bones[i].Children, int32(c))
		}
	}
	if roots != 1 {
		return nil, errors.Wrapf(ErrInvalidHierarchy, "%d root bones", roots)
	}
	for i := range bones {
		for _, c := range bones[i].Children {
			if bones[c].Parent != int32(i) {
				return nil, errors.Wrapf(ErrInvalidHierarchy, "bone %d lists child %d whose parent is %d", i, c, bones[c].Parent)
			}
		}
	}
	return bones, nil
}

// readAnimation reads one animation struct at the cursor. Transform data is stored
// bone-major: all frames of bone 0, then all frames of bone 1, and so on.
func (s *solReaderImpl) readAnimation(numBones int) (*model.AnimationClip, error) {
	var h struct {
		NumFrames int32
		NumFloats int32
	}
	if err := s.read(&h, "animation header"); err != nil {
		return nil, err
	}
	if h.NumFrames < 0 || int64(h.NumFloats) != int64(numBones)*int64(h.NumFrames)*16 {
		return nil, errors.Wrapf(ErrCountMismatch, "%d floats for %d bones and %d frames", h.NumFloats, numBones, h.NumFrames)
	}
	pos, err := s.r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, errors.Wrapf(ErrIOFailure, "%v", err)
	}
	if pos+int64(h.NumFrames)*4+int64(h.NumFloats)*4 > s.size {
		return nil, errors.Wrapf(ErrIOFailure, "animation data past end of file")
	}

	clip := &model.AnimationClip{
		FrameTimes:     make([]int32, h.NumFrames),
		BoneTransforms: make([][]mgl32.Mat4, numBones),
	}
	if err := s.read(clip.FrameTimes, "keyframe times"); err != nil {
		return nil, err
	}
	data := make([]float32, h.NumFloats)
	if err := s.read(data, "transforms"); err != nil {
		return nil, err
	}

	frames := int(h.NumFrames)
	for b := range clip.BoneTransforms {
		transforms := make([]mgl32.Mat4, frames)
		for f := range transforms {
			at := (b*frames + f) * 16
			transforms[f] = common.ColumnMajorToMat4(data[at : at+16])
		}
		clip.BoneTransforms[b] = transforms
	}
	return clip, nil
}

// --- Helper Functions ---

func (s *solReaderImpl) expectMagic(want string) error {
	got, err := s.Magic()
	if err != nil {
		return err
	}
	if got != want {
		return errors.Wrapf(ErrFormatMismatch, "magic %q, expected %q", got, want)
	}
	return nil
}

func (s *solReaderImpl) read(data any, what string) error {
	if err := binary.Read(s.r, binary.LittleEndian, data); err != nil {
		return errors.Wrapf(ErrIOFailure, "read %s: %v", what, err)
	}
	return nil
}

func (s *solReaderImpl) seek(offset int32) error {
	if _, err := s.r.Seek(int64(offset), io.SeekStart); err != nil {
		return errors.Wrapf(ErrIOFailure, "seek %d: %v", offset, err)
	}
	return nil
}

// checkSection fails with ErrIOFailure when a section would extend past the end of the
// stream, before anything is allocated for it.
func (s *solReaderImpl) checkSection(offset int32, length int64, what string) error {
	if offset < 0 || int64(offset)+length > s.size {
		return errors.Wrapf(ErrIOFailure, "%s at %d (+%d bytes) past end of %d-byte file", what, offset, length, s.size)
	}
	return nil
}
