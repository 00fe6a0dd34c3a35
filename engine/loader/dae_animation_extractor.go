package loader

import (
	"strings"

	"github.com/Carmen-Shannon/oxy-asset/common"
	"github.com/Carmen-Shannon/oxy-asset/engine/model"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// daeDefaultClipName names the single timeline read from a text scene.
const daeDefaultClipName = "default"

// daeAnimationHeader is an <animation> element found in library_animations.
type daeAnimationHeader struct {
	ID  string
	Pos int
}

// daeBoneChannel locates the keyframe data of one bone's animation.
type daeBoneChannel struct {
	TimesPos      int
	TransformsPos int
	FrameCount    int
}

// daeAnimationExtractorImpl is the implementation of the daeAnimationExtractor interface.
type daeAnimationExtractorImpl struct {
	scanner   daeScanner
	frameRate float32
}

// daeAnimationExtractor defines the interface for extracting the keyframed bone
// transforms of a text scene.
type daeAnimationExtractor interface {
	// ExtractAnimation reads one transform per keyframe for every joint, in joint order.
	// The keyframe count of the first animation is authoritative; every joint's
	// animation must match it. All joints are validated before any matrix is read.
	// A document without library_animations yields nil.
	//
	// Parameters:
	//   - joints: the joint names in bone index order
	//
	// Returns:
	//   - *model.AnimationClip: the clip, matrices column-major
	//   - error: ErrFrameCountMismatch, ErrSchemaMismatch or ErrSourceNotFound
	ExtractAnimation(joints []string) (*model.AnimationClip, error)
}

var _ daeAnimationExtractor = &daeAnimationExtractorImpl{}

// newDAEAnimationExtractor creates an animation extractor for the current load.
//
// Parameters:
//   - scanner: the scanner of the current load
//   - frameRate: the authoring frame rate used to convert seconds to frame indices
//
// Returns:
//   - daeAnimationExtractor: the animation extractor
func newDAEAnimationExtractor(scanner daeScanner, frameRate float32) daeAnimationExtractor {
	return &daeAnimationExtractorImpl{scanner: scanner, frameRate: frameRate}
}

func (e *daeAnimationExtractorImpl) ExtractAnimation(joints []string) (*model.AnimationClip, error) {
	e.scanner.Seek(0)
	if _, err := e.scanner.FindTag("library_animations", daeMatchName); err != nil {
		return nil, nil
	}

	var headers []daeAnimationHeader
	for {
		tag, err := e.scanner.FindChild("animation", "library_animations", daeMatchName)
		if err != nil {
			break
		}
		id, _ := daeAttribute(tag, "id")
		headers = append(headers, daeAnimationHeader{ID: id, Pos: e.scanner.Position()})
	}
	if len(headers) == 0 || len(joints) == 0 {
		return nil, nil
	}

	e.scanner.Seek(headers[0].Pos)
	if _, err := e.scanner.FindTag("source", daeMatchName); err != nil {
		return nil, errors.Wrapf(err, "animation %q", headers[0].ID)
	}
	timeArray, err := e.scanner.FindChild("float_array", "source", daeMatchName)
	if err != nil {
		return nil, errors.Wrapf(err, "animation %q", headers[0].ID)
	}
	frameCount, err := daeCountAttribute(timeArray)
	if err != nil {
		return nil, err
	}

	channels := make([]daeBoneChannel, len(joints))
	for i, joint := range joints {
		header, err := daeFindBoneAnimation(headers, joints, joint)
		if err != nil {
			return nil, err
		}
		if channels[i], err = e.locateChannel(header); err != nil {
			return nil, errors.Wrapf(err, "animation %q", header.ID)
		}
		if channels[i].FrameCount != frameCount {
			return nil, errors.Wrapf(ErrFrameCountMismatch, "bone %q has %d keyframes, expected %d", joint, channels[i].FrameCount, frameCount)
		}
	}

	e.scanner.Seek(channels[0].TimesPos)
	seconds, err := e.scanner.ReadFloats(frameCount)
	if err != nil {
		return nil, errors.Wrap(err, "keyframe times")
	}
	clip := &model.AnimationClip{
		Name:           daeDefaultClipName,
		FrameTimes:     make([]int32, frameCount),
		BoneTransforms: make([][]mgl32.Mat4, len(joints)),
	}
	for f, sec := range seconds {
		clip.FrameTimes[f] = common.SecondsToFrame(sec, e.frameRate)
	}

	for i, ch := range channels {
		e.scanner.Seek(ch.TransformsPos)
		n, err := daeTokenCount(16, frameCount)
		if err != nil {
			return nil, errors.Wrapf(err, "transforms of bone %q", joints[i])
		}
		values, err := e.scanner.ReadFloats(n)
		if err != nil {
			return nil, errors.Wrapf(err, "transforms of bone %q", joints[i])
		}
		transforms := make([]mgl32.Mat4, frameCount)
		for f := range transforms {
			transforms[f] = common.RowMajorToMat4(values[f*16 : (f+1)*16])
		}
		clip.BoneTransforms[i] = transforms
	}
	return clip, nil
}

// locateChannel checks that the animation's first source is TIME and its second is
// TRANSFORM and records where their arrays start.
func (e *daeAnimationExtractorImpl) locateChannel(header daeAnimationHeader) (daeBoneChannel, error) {
	var ch daeBoneChannel
	e.scanner.Seek(header.Pos)

	timesCount, timesPos, err := e.readSourceHeader("TIME")
	if err != nil {
		return ch, err
	}
	transformsCount, transformsPos, err := e.readSourceHeader("TRANSFORM")
	if err != nil {
		return ch, err
	}
	want, err := daeTokenCount(16, timesCount)
	if err != nil {
		return ch, err
	}
	if transformsCount != want {
		return ch, errors.Wrapf(ErrCountMismatch, "%d transform floats for %d keyframes", transformsCount, timesCount)
	}

	ch.FrameCount = timesCount
	ch.TimesPos = timesPos
	ch.TransformsPos = transformsPos
	return ch, nil
}

// readSourceHeader reads the next <source> of the current animation and requires its
// accessor param to carry the given name. It returns the float_array count and the
// bookmark of its data.
func (e *daeAnimationExtractorImpl) readSourceHeader(param string) (int, int, error) {
	if _, err := e.scanner.FindChild("source", "animation", daeMatchName); err != nil {
		return 0, 0, errors.Wrapf(ErrSchemaMismatch, "missing %s source", param)
	}
	arrayTag, err := e.scanner.FindChild("float_array", "source", daeMatchName)
	if err != nil {
		return 0, 0, errors.Wrapf(ErrSchemaMismatch, "%s source without float_array", param)
	}
	count, err := daeCountAttribute(arrayTag)
	if err != nil {
		return 0, 0, err
	}
	dataPos := e.scanner.Position()

	paramTag, err := e.scanner.FindChild("param", "source", daeMatchName)
	if err != nil {
		return 0, 0, errors.Wrapf(ErrSchemaMismatch, "%s source without param", param)
	}
	if name, _ := daeAttribute(paramTag, "name"); name != param {
		return 0, 0, errors.Wrapf(ErrSchemaMismatch, "expected %s source, found %q", param, name)
	}
	return count, dataPos, nil
}

// --- Helper Functions ---

// daeFindBoneAnimation returns the animation whose id contains the joint name. When several
// ids contain it, ids that also contain a longer joint name embedding this one are
// discarded, so "Bone" does not resolve to the animation of "Bone_001".
func daeFindBoneAnimation(headers []daeAnimationHeader, joints []string, joint string) (daeAnimationHeader, error) {
	var longer []string
	for _, other := range joints {
		if len(other) > len(joint) && strings.Contains(other, joint) {
			longer = append(longer, other)
		}
	}

	for _, h := range headers {
		if !strings.Contains(h.ID, joint) {
			continue
		}
		shadowed := false
		for _, other := range longer {
			if strings.Contains(h.ID, other) {
				shadowed = true
				break
			}
		}
		if !shadowed {
			return h, nil
		}
	}
	return daeAnimationHeader{}, errors.Wrapf(ErrSourceNotFound, "animation for bone %q", joint)
}
