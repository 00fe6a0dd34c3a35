package common

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestRowMajorToMat4(t *testing.T) {
	values := []float32{
		1, 0, 0, 5,
		0, 1, 0, 6,
		0, 0, 1, 7,
		0, 0, 0, 1,
	}
	m := RowMajorToMat4(values)
	if got := m.Col(3); got != (mgl32.Vec4{5, 6, 7, 1}) {
		t.Fatalf("expected translation column (5, 6, 7, 1), got %v", got)
	}
	if ColumnMajorToMat4(m[:]) != m {
		t.Fatalf("expected column-major copy to round-trip")
	}
}

func TestConvertUpAxis(t *testing.T) {
	// Z-up translation along +Z becomes Y-up translation along +Y.
	m := ConvertUpAxis(mgl32.Translate3D(0, 0, 1))
	if got := m.Col(3); !got.ApproxEqualThreshold(mgl32.Vec4{0, 1, 0, 1}, 1e-5) {
		t.Fatalf("expected (0, 1, 0, 1), got %v", got)
	}
	if !ConvertUpAxis(mgl32.Ident4()).ApproxEqualThreshold(mgl32.Ident4(), 1e-6) {
		t.Fatalf("expected identity to stay identity")
	}

	ms := []mgl32.Mat4{mgl32.Translate3D(0, 1, 0)}
	ConvertUpAxisAll(ms)
	if got := ms[0].Col(3); !got.ApproxEqualThreshold(mgl32.Vec4{0, 0, -1, 1}, 1e-5) {
		t.Fatalf("expected (0, 0, -1, 1), got %v", got)
	}
}

func TestAxisAngleDegrees(t *testing.T) {
	if AxisAngleDegrees(0, 0, 0, 45) != mgl32.Ident4() {
		t.Fatalf("expected identity for a zero axis")
	}
	m := AxisAngleDegrees(0, 0, 2, 90)
	got := m.Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	if !got.ApproxEqualThreshold(mgl32.Vec4{0, 1, 0, 1}, 1e-5) {
		t.Fatalf("expected X rotated onto Y, got %v", got)
	}
}

func TestSecondsToFrame(t *testing.T) {
	tests := []struct {
		seconds float32
		rate    float32
		want    int32
	}{
		{0, 60, 0},
		{0.5, 60, 30},
		{0.0166, 60, 1},
		{1.0 / 3.0, 30, 10},
		{0.49, 1, 0},
	}
	for _, tt := range tests {
		if got := SecondsToFrame(tt.seconds, tt.rate); got != tt.want {
			t.Errorf("SecondsToFrame(%v, %v): expected %d, got %d", tt.seconds, tt.rate, tt.want, got)
		}
	}
}

func TestSliceToBytesAndFlatten(t *testing.T) {
	if SliceToBytes([]float32{}) != nil {
		t.Fatalf("expected nil for an empty slice")
	}
	if got := len(SliceToBytes([]uint32{1, 2, 3})); got != 12 {
		t.Fatalf("expected 12 bytes, got %d", got)
	}

	flat := FlattenMat4s([]mgl32.Mat4{mgl32.Ident4(), mgl32.Translate3D(1, 2, 3)})
	if len(flat) != 32 || flat[28] != 1 || flat[29] != 2 || flat[30] != 3 {
		t.Fatalf("expected two column-major matrices, got %v", flat)
	}
}

func TestCoalesce(t *testing.T) {
	if got := Coalesce("", "b", "c"); got != "b" {
		t.Fatalf("expected b, got %q", got)
	}
	if got := Coalesce[int](); got != 0 {
		t.Fatalf("expected zero value, got %d", got)
	}
}
