package common

import (
	"unsafe"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// upAxisRotation converts the authoring tool's Z-up frame into the engine's Y-up frame.
var upAxisRotation = mgl32.HomogRotate3DX(-math32.Pi / 2)

// upAxisRotationInv is the inverse of upAxisRotation.
var upAxisRotationInv = mgl32.HomogRotate3DX(math32.Pi / 2)

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// RowMajorToMat4 builds a column-major matrix from 16 row-major values as they
// are written in a text scene file.
//
// Parameters:
//   - values: 16 floats in row-major order
//
// Returns:
//   - mgl32.Mat4: the column-major matrix
func RowMajorToMat4(values []float32) mgl32.Mat4 {
	var m mgl32.Mat4
	copy(m[:], values)
	return m.Transpose()
}

// ColumnMajorToMat4 copies 16 column-major values into a matrix without reordering.
//
// Parameters:
//   - values: 16 floats in column-major order
//
// Returns:
//   - mgl32.Mat4: the matrix
func ColumnMajorToMat4(values []float32) mgl32.Mat4 {
	var m mgl32.Mat4
	copy(m[:], values)
	return m
}

// ConvertUpAxis re-expresses a transform in the engine's Y-up frame by applying
// the sandwich C * m * C^-1, where C is a -90 degree rotation about X.
//
// Parameters:
//   - m: the Z-up transform
//
// Returns:
//   - mgl32.Mat4: the Y-up transform
func ConvertUpAxis(m mgl32.Mat4) mgl32.Mat4 {
	return upAxisRotation.Mul4(m).Mul4(upAxisRotationInv)
}

// ConvertUpAxisAll applies ConvertUpAxis to every matrix in place.
//
// Parameters:
//   - ms: the matrices to convert
func ConvertUpAxisAll(ms []mgl32.Mat4) {
	for i := range ms {
		ms[i] = ConvertUpAxis(ms[i])
	}
}

// AxisAngleDegrees builds a rotation matrix about an arbitrary axis.
// A zero-length axis yields the identity.
//
// Parameters:
//   - x, y, z: the rotation axis (need not be normalized)
//   - degrees: the rotation angle in degrees
//
// Returns:
//   - mgl32.Mat4: the rotation matrix
func AxisAngleDegrees(x, y, z, degrees float32) mgl32.Mat4 {
	axis := mgl32.Vec3{x, y, z}
	if axis.Len() == 0 {
		return mgl32.Ident4()
	}
	return mgl32.HomogRotate3D(degrees*math32.Pi/180, axis.Normalize())
}

// SecondsToFrame converts a keyframe time in seconds to an integer frame index
// at the given authoring frame rate, rounding to the nearest frame.
//
// Parameters:
//   - seconds: the keyframe time
//   - frameRate: frames per second
//
// Returns:
//   - int32: the frame index
func SecondsToFrame(seconds, frameRate float32) int32 {
	return int32(math32.Round(seconds * frameRate))
}

// FlattenMat4s concatenates matrices into one flat column-major float slice.
//
// Parameters:
//   - ms: the matrices to flatten
//
// Returns:
//   - []float32: 16 floats per matrix
func FlattenMat4s(ms []mgl32.Mat4) []float32 {
	out := make([]float32, 0, len(ms)*16)
	for _, m := range ms {
		out = append(out, m[:]...)
	}
	return out
}
