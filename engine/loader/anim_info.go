package loader

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-asset/engine/model"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// AnimationInfo names a frame range of an animation timeline.
type AnimationInfo struct {
	Name       string
	FirstFrame int32
	LastFrame  int32
}

// ParseAnimationInfo parses animation info lines of the form "name first-frame last-frame".
// Blank lines and lines starting with '#' are skipped.
//
// Parameters:
//   - r: the info source
//
// Returns:
//   - []AnimationInfo: the entries in file order
//   - error: ErrMalformedElement on a bad line
func ParseAnimationInfo(r io.Reader) ([]AnimationInfo, error) {
	scanner := bufio.NewScanner(r)
	var infos []AnimationInfo

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, errors.Wrapf(ErrMalformedElement, "animation info line %d: %q", lineNo, line)
		}
		first, err1 := strconv.ParseInt(fields[1], 10, 32)
		last, err2 := strconv.ParseInt(fields[2], 10, 32)
		if err1 != nil || err2 != nil || last < first {
			return nil, errors.Wrapf(ErrMalformedElement, "animation info line %d: %q", lineNo, line)
		}
		infos = append(infos, AnimationInfo{Name: fields[0], FirstFrame: int32(first), LastFrame: int32(last)})
	}

	return infos, scanner.Err()
}

// LoadAnimationInfo reads and parses an animation info file.
//
// Parameters:
//   - path: the info file
//
// Returns:
//   - []AnimationInfo: the entries
//   - error: ErrIOFailure if the file cannot be read
func LoadAnimationInfo(path string) ([]AnimationInfo, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(ErrIOFailure, "%v", err)
	}
	defer file.Close()

	return ParseAnimationInfo(file)
}

// ApplyAnimationInfo names the model's clips. A model with a single timeline is split
// into one clip per entry, each holding the keyframes inside the entry's frame range
// with times rebased to start at zero. A model with several clips has them renamed
// in order.
//
// Parameters:
//   - imported: the model whose clips are replaced
//   - infos: the animation info entries
//
// Returns:
//   - error: ErrConstraintViolation if an entry selects no keyframes
func ApplyAnimationInfo(imported *model.ImportedModel, infos []AnimationInfo) error {
	if len(infos) == 0 || len(imported.Animations) == 0 {
		return nil
	}

	if len(imported.Animations) > 1 {
		for i := 0; i < len(infos) && i < len(imported.Animations); i++ {
			imported.Animations[i].Name = infos[i].Name
		}
		return nil
	}

	timeline := imported.Animations[0]
	clips := make([]*model.AnimationClip, 0, len(infos))
	for _, info := range infos {
		clip, err := splitClip(timeline, info)
		if err != nil {
			return err
		}
		clips = append(clips, clip)
	}
	imported.Animations = clips
	return nil
}

// splitClip copies the keyframes of timeline that fall inside the info's frame range.
func splitClip(timeline *model.AnimationClip, info AnimationInfo) (*model.AnimationClip, error) {
	first, last := -1, -1
	for f, t := range timeline.FrameTimes {
		if t < info.FirstFrame || t > info.LastFrame {
			continue
		}
		if first < 0 {
			first = f
		}
		last = f
	}
	if first < 0 {
		return nil, errors.Wrapf(ErrConstraintViolation, "animation %q selects no keyframes in %d..%d", info.Name, info.FirstFrame, info.LastFrame)
	}

	clip := &model.AnimationClip{
		Name:           info.Name,
		FrameTimes:     make([]int32, 0, last-first+1),
		BoneTransforms: make([][]mgl32.Mat4, len(timeline.BoneTransforms)),
	}
	for f := first; f <= last; f++ {
		clip.FrameTimes = append(clip.FrameTimes, timeline.FrameTimes[f]-timeline.FrameTimes[first])
	}
	for b, transforms := range timeline.BoneTransforms {
		clip.BoneTransforms[b] = append([]mgl32.Mat4(nil), transforms[first:last+1]...)
	}
	return clip, nil
}
