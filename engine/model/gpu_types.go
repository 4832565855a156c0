package model

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUSkinnedVertex is the GPU-aligned representation of a single vertex of a primitive.
// Static primitives leave Joints and Weights zeroed; the vertex shader skips skinning for them.
// Size: 64 bytes (std430 aligned, no padding required).
type GPUSkinnedVertex struct {
	Position [3]float32 // offset  0: vertex position in model space (12 bytes)
	Normal   [3]float32 // offset 12: vertex normal (12 bytes)
	TexCoord [2]float32 // offset 24: UV texture coordinate (8 bytes)
	Joints   [4]uint32  // offset 32: indices of up to 4 influencing joints (16 bytes)
	Weights  [4]float32 // offset 48: blend weights for each joint (16 bytes)
}

// Size returns the size of the GPUSkinnedVertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUSkinnedVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUSkinnedVertex struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload.
func (g *GPUSkinnedVertex) Marshal() []byte {
	buf := make([]byte, 64)
	putFloats(buf[0:12], g.Position[:])
	putFloats(buf[12:24], g.Normal[:])
	putFloats(buf[24:32], g.TexCoord[:])
	for i, j := range g.Joints {
		binary.LittleEndian.PutUint32(buf[32+i*4:], j)
	}
	putFloats(buf[48:64], g.Weights[:])
	return buf
}

func putFloats(dst []byte, values []float32) {
	for i, v := range values {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
}

// Vertices interleaves the primitive's attributes into GPU vertices.
// Missing texture coordinates are zero.
//
// Returns:
//   - []GPUSkinnedVertex: one vertex per position
func (p *Primitive) Vertices() []GPUSkinnedVertex {
	out := make([]GPUSkinnedVertex, len(p.Positions))
	skinned := p.Skinned()
	for i := range out {
		v := &out[i]
		v.Position = p.Positions[i]
		if i < len(p.Normals) {
			v.Normal = p.Normals[i]
		}
		if i < len(p.TexCoords) {
			v.TexCoord = p.TexCoords[i]
		}
		if skinned && i < len(p.Joints) && i < len(p.Weights) {
			for k := 0; k < 4; k++ {
				v.Joints[k] = uint32(p.Joints[i][k])
			}
			v.Weights = p.Weights[i]
		}
	}
	return out
}

// ComputeBoundingRadius calculates the bounding sphere radius of a primitive's positions,
// measured as the maximum distance from the origin.
//
// Returns:
//   - float32: the maximum distance from the origin
func (p *Primitive) ComputeBoundingRadius() float32 {
	var maxDistSq float32
	for _, pos := range p.Positions {
		distSq := pos[0]*pos[0] + pos[1]*pos[1] + pos[2]*pos[2]
		if distSq > maxDistSq {
			maxDistSq = distSq
		}
	}
	return float32(math.Sqrt(float64(maxDistSq)))
}
