package renderer

import "github.com/cogentcore/webgpu/wgpu"

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based upload backend.
	BackendTypeWGPU RendererBackendType = iota

	// BackendTypeRecording selects the in-memory backend, for headless runs and tests.
	BackendTypeRecording
)

// BufferKind identifies what a GPU buffer is bound as.
type BufferKind int

const (
	// BufferKindJoints is the storage buffer holding a skinned node's joint matrices.
	BufferKindJoints BufferKind = iota

	// BufferKindDebugLines is the vertex buffer of a debug skeleton line list.
	BufferKindDebugLines

	// BufferKindVertex is the vertex buffer of a primitive.
	BufferKindVertex

	// BufferKindIndex is the index buffer of a primitive.
	BufferKindIndex
)

// String returns the buffer kind name.
func (k BufferKind) String() string {
	switch k {
	case BufferKindJoints:
		return "joints"
	case BufferKindDebugLines:
		return "debug lines"
	case BufferKindVertex:
		return "vertex"
	case BufferKindIndex:
		return "index"
	default:
		return "unknown"
	}
}

// usage maps the kind to its wgpu buffer usage flags.
func (k BufferKind) usage() wgpu.BufferUsage {
	switch k {
	case BufferKindJoints:
		return wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst
	case BufferKindIndex:
		return wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst
	default:
		return wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst
	}
}

// RendererBackend is the interface every upload backend implements.
// Buffers and textures are addressed by key; writing an existing key replaces its contents and
// grows the underlying resource when needed.
type RendererBackend interface {
	// WriteBuffer uploads data to the buffer named key, creating it on first use.
	//
	// Parameters:
	//   - key: the buffer name
	//   - kind: what the buffer is bound as
	//   - data: the bytes to upload
	//
	// Returns:
	//   - error: an error if the buffer could not be created
	WriteBuffer(key string, kind BufferKind, data []byte) error

	// WriteTexture uploads RGBA8 pixels to the texture named key, creating it on first use.
	//
	// Parameters:
	//   - key: the texture name
	//   - pixels: tightly packed RGBA8 rows
	//   - width: the texture width in pixels
	//   - height: the texture height in pixels
	//
	// Returns:
	//   - error: an error if the texture could not be created
	WriteTexture(key string, pixels []byte, width, height uint32) error

	// Release frees every resource held by the backend.
	Release()
}
