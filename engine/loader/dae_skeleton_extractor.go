package loader

import (
	"math"

	"github.com/Carmen-Shannon/oxy-asset/common"
	"github.com/Carmen-Shannon/oxy-asset/engine/model"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// daeSkin is the parsed <skin> controller: joint names, bind matrices and the
// weight table indexed by raw position id.
type daeSkin struct {
	// Source is the id of the geometry the skin deforms.
	Source string

	// Joints are the joint names; a joint's position is its bone index.
	Joints []string

	// BindShape is the column-major bind-shape matrix.
	BindShape mgl32.Mat4

	// InverseBinds are the column-major inverse-bind matrices, one per joint.
	InverseBinds []mgl32.Mat4

	// NumPositions is the number of position rows in WeightsByPosition.
	NumPositions int

	// WeightsByPosition holds NumPositions*len(Joints) weights, row-major by position.
	WeightsByPosition []float32
}

// daeSkeletonExtractorImpl is the implementation of the daeSkeletonExtractor interface.
type daeSkeletonExtractorImpl struct {
	scanner      daeScanner
	resolver     daeResolver
	armatureNode string
}

// daeSkeletonExtractor defines the interface for reconstructing skins and bone hierarchies
// from a text scene.
type daeSkeletonExtractor interface {
	// ExtractSkin reads the first <skin> of library_controllers.
	// A document without a skin yields nil.
	//
	// Returns:
	//   - *daeSkin: the skin or nil
	//   - error: error if the skin is malformed
	ExtractSkin() (*daeSkin, error)

	// ExtractSkeleton rebuilds the bone tree from the node nesting under the armature
	// scene node. Bones are numbered in depth-first declaration order and named by the
	// skin's joints. The armature node's own transform becomes the armature matrix.
	//
	// Parameters:
	//   - skin: the skin whose joint count bounds the walk
	//
	// Returns:
	//   - *model.Skeleton: the skeleton, matrices column-major
	//   - error: ErrInvalidHierarchy if the armature closes early or the tree has more than one root
	ExtractSkeleton(skin *daeSkin) (*model.Skeleton, error)
}

var _ daeSkeletonExtractor = &daeSkeletonExtractorImpl{}

// newDAESkeletonExtractor creates a skeleton extractor for the current load.
//
// Parameters:
//   - scanner: the scanner of the current load
//   - resolver: the resolver sharing that scanner
//   - armatureNode: the name or id of the scene node holding the skeleton
//
// Returns:
//   - daeSkeletonExtractor: the skeleton extractor
func newDAESkeletonExtractor(scanner daeScanner, resolver daeResolver, armatureNode string) daeSkeletonExtractor {
	return &daeSkeletonExtractorImpl{scanner: scanner, resolver: resolver, armatureNode: armatureNode}
}

func (e *daeSkeletonExtractorImpl) ExtractSkin() (*daeSkin, error) {
	e.scanner.Seek(0)
	if _, err := e.scanner.FindTag("library_controllers", daeMatchName); err != nil {
		return nil, nil
	}
	skinTag, err := e.scanner.FindChild("skin", "library_controllers", daeMatchName)
	if err != nil {
		return nil, nil
	}
	anchor := e.scanner.Position()

	skin := &daeSkin{BindShape: mgl32.Ident4()}
	source, err := daeRequireAttribute(skinTag, "source")
	if err != nil {
		return nil, err
	}
	skin.Source = daeStripRef(source)

	if _, err := e.scanner.FindChild("bind_shape_matrix", "skin", daeMatchName); err == nil {
		values, err := e.scanner.ReadFloats(16)
		if err != nil {
			return nil, errors.Wrap(err, "bind_shape_matrix")
		}
		skin.BindShape = common.RowMajorToMat4(values)
	}

	e.scanner.Seek(anchor)
	if _, err := e.scanner.FindChild("joints", "skin", daeMatchName); err != nil {
		return nil, errors.Wrap(err, "skin")
	}
	jointInputs := make(map[string]string)
	for {
		tag, err := e.scanner.FindChild("input", "joints", daeMatchName)
		if err != nil {
			break
		}
		in, err := daeReadInput(tag)
		if err != nil {
			return nil, err
		}
		jointInputs[in.Semantic] = in.Source
	}

	jointRef, ok := jointInputs["JOINT"]
	if !ok {
		return nil, errors.Wrap(ErrSourceNotFound, "JOINT input in <joints>")
	}
	if skin.Joints, err = e.resolver.ResolveNameSource(anchor, jointRef); err != nil {
		return nil, err
	}
	numBones := len(skin.Joints)

	invBindRef, ok := jointInputs["INV_BIND_MATRIX"]
	if !ok {
		return nil, errors.Wrap(ErrSourceNotFound, "INV_BIND_MATRIX input in <joints>")
	}
	invBinds, err := e.resolver.ResolveFloatSource(anchor, invBindRef)
	if err != nil {
		return nil, err
	}
	if len(invBinds) != numBones*16 {
		return nil, errors.Wrapf(ErrCountMismatch, "%d inverse bind floats for %d joints", len(invBinds), numBones)
	}
	skin.InverseBinds = make([]mgl32.Mat4, numBones)
	for i := range skin.InverseBinds {
		skin.InverseBinds[i] = common.RowMajorToMat4(invBinds[i*16 : (i+1)*16])
	}

	if err := e.readVertexWeights(anchor, skin); err != nil {
		return nil, err
	}
	return skin, nil
}

// readVertexWeights builds the weight table by raw position from <vertex_weights>.
// Each position lists a variable number of (joint, weight) pairs; a joint of -1
// refers to the bind shape and is skipped.
func (e *daeSkeletonExtractorImpl) readVertexWeights(anchor int, skin *daeSkin) error {
	e.scanner.Seek(anchor)
	tag, err := e.scanner.FindChild("vertex_weights", "skin", daeMatchName)
	if err != nil {
		return errors.Wrap(err, "skin")
	}
	numPositions, err := daeCountAttribute(tag)
	if err != nil {
		return err
	}

	jointOffset, weightOffset, stride := -1, -1, 0
	var weightRef string
	var vcount []int
	for {
		child, err := e.scanner.NextTag()
		if err != nil {
			return errors.Wrap(err, "vertex_weights")
		}
		if daeIsClosingTag(child) {
			if daeTagName(child) == "vertex_weights" {
				return errors.Wrap(ErrElementNotFound, "<v> in <vertex_weights>")
			}
			continue
		}

		switch daeTagName(child) {
		case "input":
			in, err := daeReadInput(child)
			if err != nil {
				return err
			}
			switch in.Semantic {
			case "JOINT":
				jointOffset = in.Offset
			case "WEIGHT":
				weightOffset = in.Offset
				weightRef = in.Source
			}
			stride = max(stride, in.Offset+1)
		case "vcount":
			if vcount, err = e.scanner.ReadInts(numPositions); err != nil {
				return errors.Wrap(err, "vertex_weights vcount")
			}
		case "v":
			if vcount == nil {
				return errors.Wrap(ErrSchemaMismatch, "<v> before <vcount>")
			}
			if jointOffset < 0 || weightOffset < 0 {
				return errors.Wrap(ErrSourceNotFound, "JOINT and WEIGHT inputs in <vertex_weights>")
			}
			total := 0
			for i, c := range vcount {
				if c < 0 {
					return errors.Wrapf(ErrMalformedElement, "vertex_weights vcount %d of position %d", c, i)
				}
				if total > math.MaxInt-c {
					return errors.Wrap(ErrStreamEnded, "vertex_weights vcount total overflows")
				}
				total += c
			}
			n, err := daeTokenCount(total, stride)
			if err != nil {
				return errors.Wrap(err, "vertex_weights v")
			}
			v, err := e.scanner.ReadInts(n)
			if err != nil {
				return errors.Wrap(err, "vertex_weights v")
			}
			weights, err := e.resolver.ResolveFloatSource(anchor, weightRef)
			if err != nil {
				return err
			}
			return daeFillWeightsByPosition(skin, vcount, v, stride, jointOffset, weightOffset, weights)
		}
	}
}

func (e *daeSkeletonExtractorImpl) ExtractSkeleton(skin *daeSkin) (*model.Skeleton, error) {
	numBones := len(skin.Joints)

	e.scanner.Seek(0)
	if _, err := e.scanner.FindTag("visual_scene", daeMatchName); err != nil {
		return nil, errors.Wrap(err, "skeleton")
	}
	for {
		tag, err := e.scanner.FindChild("node", "visual_scene", daeMatchName)
		if err != nil {
			return nil, errors.Wrapf(ErrElementNotFound, "armature node %q", e.armatureNode)
		}
		name, _ := daeAttribute(tag, "name")
		id, _ := daeAttribute(tag, "id")
		if name == e.armatureNode || id == e.armatureNode {
			break
		}
	}

	armature, err := daeReadNodeTransform(e.scanner)
	if err != nil {
		return nil, errors.Wrapf(err, "armature node %q", e.armatureNode)
	}

	parents := make([]int32, numBones)
	locals := make([]mgl32.Mat4, numBones)
	stack := make([]int32, 0, numBones)

	for i := 0; i < numBones; {
		tag, err := e.scanner.NextTag()
		if err != nil {
			return nil, errors.Wrapf(err, "armature ended after %d of %d bones", i, numBones)
		}
		if daeTagName(tag) != "node" {
			continue
		}

		if daeIsClosingTag(tag) {
			if len(stack) == 0 {
				return nil, errors.Wrapf(ErrInvalidHierarchy, "armature closed after %d of %d bones", i, numBones)
			}
			stack = stack[:len(stack)-1]
			continue
		}

		parents[i] = -1
		if len(stack) > 0 {
			parents[i] = stack[len(stack)-1]
		}
		if daeIsSelfClosingTag(tag) {
			locals[i] = mgl32.Ident4()
			i++
			continue
		}
		if locals[i], err = daeReadNodeTransform(e.scanner); err != nil {
			return nil, errors.Wrapf(err, "bone %d", i)
		}
		stack = append(stack, int32(i))
		i++
	}

	bones, err := daeBuildBoneTree(parents)
	if err != nil {
		return nil, err
	}

	nameToIndex := make(map[string]int32, numBones)
	for i := range bones {
		bones[i].Name = skin.Joints[i]
		bones[i].InverseBindMatrix = skin.InverseBinds[i]
		bones[i].LocalTransform = locals[i]
		nameToIndex[skin.Joints[i]] = int32(i)
	}

	return &model.Skeleton{
		Bones:           bones,
		RootBoneIndex:   0,
		BoneNameToIndex: nameToIndex,
		BindShapeMatrix: skin.BindShape,
		ArmatureMatrix:  armature,
	}, nil
}

// --- Helper Functions ---

// daeFillWeightsByPosition accumulates the (joint, weight) pair stream into the skin's
// dense per-position weight table.
func daeFillWeightsByPosition(skin *daeSkin, vcount, v []int, stride, jointOffset, weightOffset int, weights []float32) error {
	numBones := len(skin.Joints)
	skin.NumPositions = len(vcount)
	skin.WeightsByPosition = make([]float32, skin.NumPositions*numBones)

	pair := 0
	for pos, c := range vcount {
		for k := 0; k < c; k++ {
			joint := v[pair*stride+jointOffset]
			weightIdx := v[pair*stride+weightOffset]
			pair++

			if joint == -1 {
				continue
			}
			if joint < 0 || joint >= numBones {
				return errors.Wrapf(ErrIndexOutOfRange, "joint %d of %d at position %d", joint, numBones, pos)
			}
			if weightIdx < 0 || weightIdx >= len(weights) {
				return errors.Wrapf(ErrIndexOutOfRange, "weight %d of %d at position %d", weightIdx, len(weights), pos)
			}
			skin.WeightsByPosition[pos*numBones+joint] += weights[weightIdx]
		}
	}
	return nil
}

// daeRemapWeights converts the weight table indexed by raw position into one indexed
// by assembled vertex, using the position index each vertex was assembled from.
// Every resulting row must sum to at least floor.
func daeRemapWeights(skin *daeSkin, positionIndices []int32, floor float32) (*model.SkinWeights, error) {
	numBones := len(skin.Joints)
	out := &model.SkinWeights{
		NumVertices: len(positionIndices),
		NumBones:    numBones,
		Weights:     make([]float32, len(positionIndices)*numBones),
	}

	for v, pos := range positionIndices {
		if pos < 0 || int(pos) >= skin.NumPositions {
			return nil, errors.Wrapf(ErrIndexOutOfRange, "vertex %d position %d of %d", v, pos, skin.NumPositions)
		}
		row := out.Weights[v*numBones : (v+1)*numBones]
		copy(row, skin.WeightsByPosition[int(pos)*numBones:(int(pos)+1)*numBones])

		var sum float32
		for _, w := range row {
			sum += w
		}
		if sum < floor {
			return nil, errors.Wrapf(ErrWeightUnderflow, "vertex %d (position %d) sums to %.3f", v, pos, sum)
		}
	}
	return out, nil
}

// daeBuildBoneTree creates the bone arena from a parent array, deriving each bone's
// children by scanning the whole array. Exactly one bone may lack a parent.
func daeBuildBoneTree(parents []int32) ([]model.Bone, error) {
	bones := make([]model.Bone, len(parents))
	roots := 0
	for i, p := range parents {
		if p < 0 {
			roots++
		} else if int(p) >= len(parents) {
			return nil, errors.Wrapf(ErrIndexOutOfRange, "bone %d parent %d", i, p)
		}
		bones[i].Index = int32(i)
		bones[i].Parent = p
	}
	if roots != 1 {
		return nil, errors.Wrapf(ErrInvalidHierarchy, "%d root bones", roots)
	}

	for j := range bones {
		for i, p := range parents {
			if p == int32(j) {
				bones[j].Children = append(bones[j].Children, int32(i))
			}
		}
	}
	return bones, nil
}

// daeReadNodeTransform composes the transform elements that directly follow a <node> tag,
// in document order. The scanner is left at the first tag that is not a transform.
func daeReadNodeTransform(s daeScanner) (mgl32.Mat4, error) {
	m := mgl32.Ident4()
	for {
		pos := s.Position()
		tag, err := s.NextTag()
		if err != nil {
			s.Seek(pos)
			return m, nil
		}

		name := daeTagName(tag)
		if daeIsClosingTag(tag) {
			switch name {
			case "matrix", "translate", "rotate", "scale":
				continue
			}
			s.Seek(pos)
			return m, nil
		}

		switch name {
		case "matrix":
			v, err := s.ReadFloats(16)
			if err != nil {
				return m, errors.Wrap(err, "matrix")
			}
			m = m.Mul4(common.RowMajorToMat4(v))
		case "translate":
			v, err := s.ReadFloats(3)
			if err != nil {
				return m, errors.Wrap(err, "translate")
			}
			m = m.Mul4(mgl32.Translate3D(v[0], v[1], v[2]))
		case "rotate":
			v, err := s.ReadFloats(4)
			if err != nil {
				return m, errors.Wrap(err, "rotate")
			}
			m = m.Mul4(common.AxisAngleDegrees(v[0], v[1], v[2], v[3]))
		case "scale":
			v, err := s.ReadFloats(3)
			if err != nil {
				return m, errors.Wrap(err, "scale")
			}
			m = m.Mul4(mgl32.Scale3D(v[0], v[1], v[2]))
		default:
			s.Seek(pos)
			return m, nil
		}
	}
}
