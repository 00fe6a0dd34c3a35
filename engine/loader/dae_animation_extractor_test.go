package loader

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestDAEExtractAnimation(t *testing.T) {
	scanner := newDAEScanner([]byte(testDAEDocument([]int{3, 3, 3, 3})))
	clip, err := newDAEAnimationExtractor(scanner, 60).ExtractAnimation(testJoints)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if clip.Name != daeDefaultClipName {
		t.Fatalf("expected clip %q, got %q", daeDefaultClipName, clip.Name)
	}
	if !slices.Equal(clip.FrameTimes, []int32{0, 30, 60}) {
		t.Fatalf("expected frame times [0 30 60], got %v", clip.FrameTimes)
	}
	if clip.FrameCount() != 3 || len(clip.BoneTransforms) != len(testJoints) {
		t.Fatalf("expected 3 frames for %d bones, got %d for %d", len(testJoints), clip.FrameCount(), len(clip.BoneTransforms))
	}

	// Keyframe f of bone b translates by (f, b, 0); Bone must not pick up Bone_001's channel.
	for b := range testJoints {
		for f := 0; f < 3; f++ {
			want := mgl32.Vec4{float32(f), float32(b), 0, 1}
			if got := clip.BoneTransforms[b][f].Col(3); got != want {
				t.Fatalf("expected bone %d frame %d translation %v, got %v", b, f, want, got)
			}
		}
	}
}

func TestDAEExtractAnimationFrameCountMismatch(t *testing.T) {
	scanner := newDAEScanner([]byte(testDAEDocument([]int{5, 5, 6, 5})))
	_, err := newDAEAnimationExtractor(scanner, 60).ExtractAnimation(testJoints)
	if !errors.Is(err, ErrFrameCountMismatch) {
		t.Fatalf("expected ErrFrameCountMismatch, got %v", err)
	}
	if !errors.Is(err, ErrConstraintViolation) {
		t.Fatalf("expected the mismatch to be a constraint violation, got %v", err)
	}
}

func TestDAEExtractAnimationSourceOrder(t *testing.T) {
	doc := testDAEDocument([]int{2, 2, 2, 2})
	doc = strings.Replace(doc, `<param name="TIME" type="float"/>`, `<param name="TRANSFORM" type="float"/>`, 1)

	scanner := newDAEScanner([]byte(doc))
	_, err := newDAEAnimationExtractor(scanner, 60).ExtractAnimation(testJoints)
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestDAEExtractAnimationMissingBone(t *testing.T) {
	scanner := newDAEScanner([]byte(testDAEDocument([]int{2, 2, 2, 2})))
	_, err := newDAEAnimationExtractor(scanner, 60).ExtractAnimation(append(slices.Clone(testJoints), "Tail"))
	if !errors.Is(err, ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got %v", err)
	}
}

func TestDAEExtractAnimationAbsent(t *testing.T) {
	scanner := newDAEScanner([]byte(testDAEHead + testDAETail))
	clip, err := newDAEAnimationExtractor(scanner, 60).ExtractAnimation(testJoints)
	if err != nil || clip != nil {
		t.Fatalf("expected no clip and no error, got %v, %v", clip, err)
	}
}

func TestDAEFindBoneAnimation(t *testing.T) {
	headers := []daeAnimationHeader{
		{ID: "Armature_Bone_001_pose_matrix"},
		{ID: "Armature_Bone_pose_matrix"},
	}
	joints := []string{"Bone", "Bone_001"}

	got, err := daeFindBoneAnimation(headers, joints, "Bone")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.ID != "Armature_Bone_pose_matrix" {
		t.Fatalf("expected Bone's own animation, got %q", got.ID)
	}

	got, err = daeFindBoneAnimation(headers, joints, "Bone_001")
	if err != nil || got.ID != "Armature_Bone_001_pose_matrix" {
		t.Fatalf("expected Bone_001's animation, got %q, %v", got.ID, err)
	}
}
