package loader

import (
	"math"

	"github.com/qmuntal/gltf"
)

// Vertex attribute semantics read by the mesh extractor.
const (
	gltfAttrPosition  = "POSITION"
	gltfAttrNormal    = "NORMAL"
	gltfAttrTexCoord0 = "TEXCOORD_0"
	gltfAttrJoints0   = "JOINTS_0"
	gltfAttrWeights0  = "WEIGHTS_0"
)

// gltfComponentTypeSize returns the byte size of a single component of the given type.
func gltfComponentTypeSize(componentType gltf.ComponentType) int {
	switch componentType {
	case gltf.ComponentByte, gltf.ComponentUbyte:
		return 1
	case gltf.ComponentShort, gltf.ComponentUshort:
		return 2
	case gltf.ComponentUint, gltf.ComponentFloat:
		return 4
	default:
		return 0
	}
}

// gltfAccessorTypeComponentCount returns the number of components for an accessor type.
func gltfAccessorTypeComponentCount(accessorType gltf.AccessorType) int {
	switch accessorType {
	case gltf.AccessorScalar:
		return 1
	case gltf.AccessorVec2:
		return 2
	case gltf.AccessorVec3:
		return 3
	case gltf.AccessorVec4, gltf.AccessorMat2:
		return 4
	case gltf.AccessorMat3:
		return 9
	case gltf.AccessorMat4:
		return 16
	default:
		return 0
	}
}

// gltfComponentTypeName returns the glTF spelling of a component type for error messages.
func gltfComponentTypeName(componentType gltf.ComponentType) string {
	switch componentType {
	case gltf.ComponentByte:
		return "BYTE"
	case gltf.ComponentUbyte:
		return "UNSIGNED_BYTE"
	case gltf.ComponentShort:
		return "SHORT"
	case gltf.ComponentUshort:
		return "UNSIGNED_SHORT"
	case gltf.ComponentUint:
		return "UNSIGNED_INT"
	case gltf.ComponentFloat:
		return "FLOAT"
	default:
		return "UNKNOWN"
	}
}

// --- Normalized integer decoding (glTF 2.0 §3.11) ---

// gltfDecodeNormalizedByte decodes a normalized signed 8-bit component: max(c / 127, -1).
func gltfDecodeNormalizedByte(c int8) float32 {
	return float32(math.Max(float64(c)/127.0, -1.0))
}

// gltfDecodeNormalizedUbyte decodes a normalized unsigned 8-bit component: c / 255.
func gltfDecodeNormalizedUbyte(c uint8) float32 {
	return float32(float64(c) / 255.0)
}

// gltfDecodeNormalizedShort decodes a normalized signed 16-bit component: max(c / 32767, -1).
func gltfDecodeNormalizedShort(c int16) float32 {
	return float32(math.Max(float64(c)/32767.0, -1.0))
}

// gltfDecodeNormalizedUshort decodes a normalized unsigned 16-bit component: c / 65535.
func gltfDecodeNormalizedUshort(c uint16) float32 {
	return float32(float64(c) / 65535.0)
}
