package model

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// Shader locations of the interleaved vertex attributes. Locations are fixed per
// attribute so one shader interface serves every VertexFormat.
const (
	LocationPosition uint32 = 0
	LocationNormal   uint32 = 1
	LocationTexCoord uint32 = 2
	LocationColor    uint32 = 3
)

// vertexAttributeInfo pairs a wgpu vertex format with its size in bytes.
type vertexAttributeInfo struct {
	format   wgpu.VertexFormat
	size     uint64
	location uint32
}

// attributes returns the interleaved attributes of the format in buffer order.
func (f VertexFormat) attributes() []vertexAttributeInfo {
	attrs := []vertexAttributeInfo{
		{format: wgpu.VertexFormatFloat32x3, size: 12, location: LocationPosition},
		{format: wgpu.VertexFormatFloat32x3, size: 12, location: LocationNormal},
	}
	if f.TexCoords {
		attrs = append(attrs, vertexAttributeInfo{format: wgpu.VertexFormatFloat32x2, size: 8, location: LocationTexCoord})
	}
	if f.Colors {
		attrs = append(attrs, vertexAttributeInfo{format: wgpu.VertexFormatFloat32x3, size: 12, location: LocationColor})
	}
	return attrs
}

// VertexBufferLayout builds the wgpu vertex buffer layout describing the interleaved
// vertex data produced for this format. Offsets are sequential and the array stride
// equals FloatsPerVertex * 4 bytes.
//
// Returns:
//   - wgpu.VertexBufferLayout: the vertex buffer layout
func (f VertexFormat) VertexBufferLayout() wgpu.VertexBufferLayout {
	infos := f.attributes()
	attrs := make([]wgpu.VertexAttribute, 0, len(infos))
	var offset uint64

	for _, info := range infos {
		attrs = append(attrs, wgpu.VertexAttribute{
			Format:         info.format,
			Offset:         offset,
			ShaderLocation: info.location,
		})
		offset += info.size
	}

	return wgpu.VertexBufferLayout{
		ArrayStride: offset,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attrs,
	}
}

// VertexFormatForStride maps a stride in floats back to the vertex format that produces it.
//
// Parameters:
//   - floatsPerVertex: the stride in floats
//
// Returns:
//   - VertexFormat: the matching format
//   - bool: false if no format has this stride
func VertexFormatForStride(floatsPerVertex int) (VertexFormat, bool) {
	switch floatsPerVertex {
	case 6:
		return VertexFormat{}, true
	case 8:
		return VertexFormat{TexCoords: true}, true
	case 9:
		return VertexFormat{Colors: true}, true
	case 11:
		return VertexFormat{TexCoords: true, Colors: true}, true
	default:
		return VertexFormat{}, false
	}
}
