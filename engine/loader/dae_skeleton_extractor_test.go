package loader

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

func extractTestSkin(t *testing.T, doc string) (daeSkeletonExtractor, *daeSkin) {
	t.Helper()
	scanner := newDAEScanner([]byte(doc))
	extractor := newDAESkeletonExtractor(scanner, newDAEResolver(scanner), "Armature")
	skin, err := extractor.ExtractSkin()
	if err != nil {
		t.Fatalf("expected skin, got %v", err)
	}
	if skin == nil {
		t.Fatalf("expected skin, got nil")
	}
	return extractor, skin
}

func TestDAEExtractSkin(t *testing.T) {
	_, skin := extractTestSkin(t, testDAEDocument([]int{2, 2, 2, 2}))

	if skin.Source != "Body-mesh" {
		t.Fatalf("expected skin source Body-mesh, got %q", skin.Source)
	}
	if !slices.Equal(skin.Joints, testJoints) {
		t.Fatalf("expected joints %v, got %v", testJoints, skin.Joints)
	}
	if skin.BindShape != mgl32.Ident4() {
		t.Fatalf("expected identity bind shape, got %v", skin.BindShape)
	}
	// Row-major "... 1 -1 ..." is a translation by z = -1.
	if got := skin.InverseBinds[1].Col(3); got != (mgl32.Vec4{0, 0, -1, 1}) {
		t.Fatalf("expected Bone inverse bind translation (0 0 -1), got %v", got)
	}

	if skin.NumPositions != 4 {
		t.Fatalf("expected 4 weighted positions, got %d", skin.NumPositions)
	}
	want := []float32{
		1, 0, 0, 0,
		0, 0.5, 0.5, 0,
		0, 0, 0, 1,
		1, 0, 0, 0,
	}
	if !slices.Equal(skin.WeightsByPosition, want) {
		t.Fatalf("expected weights %v, got %v", want, skin.WeightsByPosition)
	}
}

func TestDAEExtractSkinAbsent(t *testing.T) {
	scanner := newDAEScanner([]byte(`<COLLADA><library_geometries/></COLLADA>`))
	skin, err := newDAESkeletonExtractor(scanner, newDAEResolver(scanner), "Armature").ExtractSkin()
	if err != nil || skin != nil {
		t.Fatalf("expected no skin and no error, got %v, %v", skin, err)
	}
}

func TestDAEExtractSkeletonHierarchy(t *testing.T) {
	extractor, skin := extractTestSkin(t, testDAEDocument([]int{2, 2, 2, 2}))
	skeleton, err := extractor.ExtractSkeleton(skin)
	if err != nil {
		t.Fatalf("expected skeleton, got %v", err)
	}

	if len(skeleton.Bones) != 4 {
		t.Fatalf("expected 4 bones, got %d", len(skeleton.Bones))
	}
	wantParents := []int32{-1, 0, 1, 0}
	for i, b := range skeleton.Bones {
		if b.Parent != wantParents[i] {
			t.Fatalf("expected bone %d parent %d, got %d", i, wantParents[i], b.Parent)
		}
		if b.Name != testJoints[i] {
			t.Fatalf("expected bone %d named %q, got %q", i, testJoints[i], b.Name)
		}
	}
	if !slices.Equal(skeleton.Bones[0].Children, []int32{1, 3}) {
		t.Fatalf("expected root children [1 3], got %v", skeleton.Bones[0].Children)
	}
	if !slices.Equal(skeleton.Bones[1].Children, []int32{2}) {
		t.Fatalf("expected Bone children [2], got %v", skeleton.Bones[1].Children)
	}
	if len(skeleton.Bones[2].Children) != 0 || len(skeleton.Bones[3].Children) != 0 {
		t.Fatalf("expected leaf bones 2 and 3")
	}
	if skeleton.BoneNameToIndex["Hand"] != 3 {
		t.Fatalf("expected Hand at index 3, got %d", skeleton.BoneNameToIndex["Hand"])
	}

	// Bone 1 sits one unit up z in its parent.
	if got := skeleton.Bones[1].LocalTransform.Col(3); got != (mgl32.Vec4{0, 0, 1, 1}) {
		t.Fatalf("expected Bone local translation (0 0 1), got %v", got)
	}

	// Hand composes translate(1 0 0) with a 90 degree turn about z.
	hand := skeleton.Bones[3].LocalTransform
	if got := hand.Col(3); got != (mgl32.Vec4{1, 0, 0, 1}) {
		t.Fatalf("expected Hand translation (1 0 0), got %v", got)
	}
	x := hand.Mul4x1(mgl32.Vec4{1, 0, 0, 0})
	if !x.ApproxEqualThreshold(mgl32.Vec4{0, 1, 0, 0}, 1e-6) {
		t.Fatalf("expected Hand to map x onto y, got %v", x)
	}
}

func TestDAEExtractSkeletonSelfClosingNode(t *testing.T) {
	doc := strings.Replace(testDAEDocument([]int{2, 2, 2, 2}),
		`<translate sid="location">1 0 0</translate>
            <rotate sid="rotationZ">0 0 1 90</rotate>
          </node>`, ``, 1)
	doc = strings.Replace(doc, `<node id="Armature_Hand" name="Hand" sid="Hand" type="JOINT">`, `<node id="Armature_Hand" name="Hand" sid="Hand" type="JOINT"/>`, 1)

	extractor, skin := extractTestSkin(t, doc)
	skeleton, err := extractor.ExtractSkeleton(skin)
	if err != nil {
		t.Fatalf("expected skeleton, got %v", err)
	}
	if skeleton.Bones[3].Parent != 0 {
		t.Fatalf("expected self-closing Hand under root, got parent %d", skeleton.Bones[3].Parent)
	}
	if skeleton.Bones[3].LocalTransform != mgl32.Ident4() {
		t.Fatalf("expected identity transform for a self-closing node")
	}
}

func TestDAEExtractSkeletonArmatureClosesEarly(t *testing.T) {
	doc := strings.Replace(testDAEDocument([]int{2, 2, 2, 2}),
		`Root Bone Bone_001 Hand<`, `Root Bone Bone_001 Hand Extra<`, 1)
	doc = strings.Replace(doc, `count="4">Root`, `count="5">Root`, 1)
	doc = strings.Replace(doc, `count="64">`, `count="80">1 0 0 0 0 1 0 0 0 0 1 0 0 0 0 1 `, 1)

	extractor, skin := extractTestSkin(t, doc)
	if _, err := extractor.ExtractSkeleton(skin); !errors.Is(err, ErrInvalidHierarchy) {
		t.Fatalf("expected ErrInvalidHierarchy, got %v", err)
	}
}

func TestDAEExtractSkeletonMissingArmature(t *testing.T) {
	scanner := newDAEScanner([]byte(testDAEDocument([]int{2, 2, 2, 2})))
	extractor := newDAESkeletonExtractor(scanner, newDAEResolver(scanner), "Rig")
	skin, err := extractor.ExtractSkin()
	if err != nil {
		t.Fatalf("expected skin, got %v", err)
	}
	if _, err := extractor.ExtractSkeleton(skin); !errors.Is(err, ErrElementNotFound) {
		t.Fatalf("expected ErrElementNotFound, got %v", err)
	}
}

func TestDAEBuildBoneTree(t *testing.T) {
	// root -> A -> B, root -> C
	bones, err := daeBuildBoneTree([]int32{-1, 0, 1, 0})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	wantChildren := [][]int32{{1, 3}, {2}, nil, nil}
	for i, b := range bones {
		if b.Index != int32(i) {
			t.Fatalf("expected bone %d to carry its index, got %d", i, b.Index)
		}
		if !slices.Equal(b.Children, wantChildren[i]) {
			t.Fatalf("expected bone %d children %v, got %v", i, wantChildren[i], b.Children)
		}
	}

	if _, err := daeBuildBoneTree([]int32{-1, 0, -1}); !errors.Is(err, ErrInvalidHierarchy) {
		t.Fatalf("expected ErrInvalidHierarchy for two roots, got %v", err)
	}
	if _, err := daeBuildBoneTree([]int32{-1, 5}); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange for a dangling parent, got %v", err)
	}
}

func TestDAERemapWeights(t *testing.T) {
	skin := &daeSkin{
		Joints:       []string{"a", "b"},
		NumPositions: 3,
		WeightsByPosition: []float32{
			1, 0,
			0.25, 0.75,
			0.5, 0,
		},
	}

	weights, err := daeRemapWeights(skin, []int32{1, 0, 1}, 0.9)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if weights.NumVertices != 3 || weights.NumBones != 2 {
		t.Fatalf("expected 3x2 weights, got %dx%d", weights.NumVertices, weights.NumBones)
	}
	for v := 0; v < weights.NumVertices; v++ {
		var sum float32
		for _, w := range weights.Row(v) {
			sum += w
		}
		if math32.Abs(sum-1) > 1e-6 {
			t.Fatalf("expected vertex %d weights to sum to 1, got %v", v, sum)
		}
	}
	if weights.Row(0)[1] != 0.75 {
		t.Fatalf("expected vertex 0 to take position 1's row, got %v", weights.Row(0))
	}

	_, err = daeRemapWeights(skin, []int32{0, 2}, 0.9)
	if !errors.Is(err, ErrWeightUnderflow) || !errors.Is(err, ErrConstraintViolation) {
		t.Fatalf("expected ErrWeightUnderflow for a 0.5 row, got %v", err)
	}

	if _, err := daeRemapWeights(skin, []int32{3}, 0.9); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestDAEFillWeightsSkipsBindShapeJoint(t *testing.T) {
	skin := &daeSkin{Joints: []string{"a", "b"}}
	err := daeFillWeightsByPosition(skin, []int{2}, []int{-1, 0, 1, 1}, 2, 0, 1, []float32{0.3, 1})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !slices.Equal(skin.WeightsByPosition, []float32{0, 1}) {
		t.Fatalf("expected joint -1 to be skipped, got %v", skin.WeightsByPosition)
	}

	err = daeFillWeightsByPosition(skin, []int{1}, []int{7, 0}, 2, 0, 1, []float32{1})
	if !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange for an unknown joint, got %v", err)
	}
}

func TestDAEExtractSkinMalformedWeightCounts(t *testing.T) {
	tests := []struct {
		name    string
		old     string
		new     string
		wantErr error
	}{
		{"negative vcount", `<vcount>1 2 1 1 </vcount>`, `<vcount>1 -3 1 1 </vcount>`, ErrMalformedElement},
		{"vcount beyond the stream", `<vcount>1 2 1 1 </vcount>`, `<vcount>1 2 1 4398046511104 </vcount>`, ErrStreamEnded},
		{"overflowing vcount", `<vcount>1 2 1 1 </vcount>`, `<vcount>1 9223372036854775807 1 1 </vcount>`, ErrStreamEnded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := strings.Replace(testDAEDocument([]int{2, 2, 2, 2}), tt.old, tt.new, 1)
			scanner := newDAEScanner([]byte(doc))
			_, err := newDAESkeletonExtractor(scanner, newDAEResolver(scanner), "Armature").ExtractSkin()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
