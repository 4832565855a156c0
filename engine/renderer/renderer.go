package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/animator"
	"github.com/pkg/errors"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backendType RendererBackendType
	backend     RendererBackend

	// uploadedTextures tracks texture keys already on the GPU; textures are immutable once loaded.
	uploadedTextures map[string]struct{}

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
}

// Renderer is the GPU upload sink of the viewer.
//
// It turns the animation core's outputs and a model's static geometry into named GPU resources.
// Drawing, surfaces and shaders belong to the window layer, which binds the resources by key.
type Renderer interface {
	// BackendType returns the type of backend this renderer uses.
	//
	// Returns:
	//   - RendererBackendType: the backend type
	BackendType() RendererBackendType

	// Backend returns the underlying backend.
	//
	// Returns:
	//   - RendererBackend: the backend
	Backend() RendererBackend

	// UploadJointTransforms writes a skinned node's packed joint matrices to the storage buffer named key.
	//
	// Parameters:
	//   - key: the joint buffer name, usually animator.JointBufferKey
	//   - jt: the packed matrices
	//
	// Returns:
	//   - error: an error if the upload fails
	UploadJointTransforms(key string, jt *animator.JointTransforms) error

	// UploadDebugSkeleton writes a skeleton's line list to the vertex buffer DebugSkeletonKey(key).
	//
	// Parameters:
	//   - key: the joint buffer name the skeleton belongs to
	//   - s: the skeleton geometry
	//
	// Returns:
	//   - error: an error if the upload fails
	UploadDebugSkeleton(key string, s *animator.DebugSkeleton) error

	// UploadFrame uploads every joint buffer of an animation frame, plus its debug skeletons when present.
	//
	// Parameters:
	//   - frame: the frame produced by animator.Animator.Step
	//
	// Returns:
	//   - error: the first upload error
	UploadFrame(frame animator.Frame) error

	// UploadModel uploads the vertex and index buffers of every primitive drawn at a node, and every
	// base color texture.
	// Textures shared by several primitives are decoded and uploaded once.
	//
	// Parameters:
	//   - m: the model
	//
	// Returns:
	//   - error: the first upload or decode error
	UploadModel(m model.Model) error

	// Release frees every GPU resource.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer with the specified backend.
//
// Parameters:
//   - backendType: the backend to create (BackendTypeWGPU or BackendTypeRecording)
//   - options: a variadic list of RendererBuilderOption functions
//
// Returns:
//   - Renderer: the renderer
//   - error: an error if the GPU backend could not be initialized
func NewRenderer(backendType RendererBackendType, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:               &sync.Mutex{},
		backendType:      backendType,
		uploadedTextures: make(map[string]struct{}),
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}
	if r.backend != nil {
		return r, nil
	}

	switch backendType {
	case BackendTypeRecording:
		r.backend = NewRecordingBackend()
	case BackendTypeWGPU:
		fallthrough
	default:
		b, err := newWGPURendererBackend(r.forceFallbackAdapter)
		if err != nil {
			return nil, err
		}
		r.backend = b
	}
	return r, nil
}

// DebugSkeletonKey names the debug line buffer of a joint buffer.
func DebugSkeletonKey(key string) string {
	return key + "/skeleton"
}

// PrimitiveKey names the vertex and index buffers of a primitive drawn at a node.
func PrimitiveKey(modelName string, nodeID uint32, primitive int) string {
	return fmt.Sprintf("%s/node-%d/%d", modelName, nodeID, primitive)
}

// TextureKey names a model's texture.
func TextureKey(modelName string, texture int) string {
	return fmt.Sprintf("%s/texture-%d", modelName, texture)
}

func (r *renderer) BackendType() RendererBackendType {
	return r.backendType
}

func (r *renderer) Backend() RendererBackend {
	return r.backend
}

func (r *renderer) UploadJointTransforms(key string, jt *animator.JointTransforms) error {
	if jt == nil {
		return errors.Errorf("joint buffer %q: no joint transforms", key)
	}
	return r.backend.WriteBuffer(key, BufferKindJoints, jt.Marshal())
}

func (r *renderer) UploadDebugSkeleton(key string, s *animator.DebugSkeleton) error {
	if s == nil || len(s.Lines) == 0 {
		return nil
	}
	return r.backend.WriteBuffer(DebugSkeletonKey(key), BufferKindDebugLines, s.Marshal())
}

func (r *renderer) UploadFrame(frame animator.Frame) error {
	for _, pose := range frame.Skins {
		if err := r.UploadJointTransforms(pose.Key, pose.Joints); err != nil {
			return err
		}
		if err := r.UploadDebugSkeleton(pose.Key, pose.Skeleton); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) UploadModel(m model.Model) error {
	// Geometry is uploaded per node: a skinned node carries its own copy of the mesh with joint
	// indices in hierarchy order.
	for _, n := range m.Nodes() {
		mesh := n.Mesh
		if mesh == nil {
			continue
		}
		for i := range mesh.Primitives {
			p := &mesh.Primitives[i]
			key := PrimitiveKey(m.Name(), n.ID, i)
			if err := r.uploadPrimitive(key, p); err != nil {
				return errors.Wrapf(err, "mesh %q primitive %d", mesh.Name, i)
			}
			if tex, ok := p.Texture.(model.Textured); ok {
				if err := r.uploadTexture(TextureKey(m.Name(), tex.Texture), tex.Image); err != nil {
					return errors.Wrapf(err, "mesh %q primitive %d", mesh.Name, i)
				}
			}
		}
	}
	return nil
}

func (r *renderer) Release() {
	r.mu.Lock()
	clear(r.uploadedTextures)
	r.mu.Unlock()
	r.backend.Release()
}

// --- Helper Functions ---

// uploadPrimitive writes the interleaved skinned vertex stream and the index list of a primitive.
func (r *renderer) uploadPrimitive(key string, p *model.Primitive) error {
	verts := p.Vertices()
	var vertexData []byte
	if len(verts) > 0 {
		vertexData = make([]byte, 0, len(verts)*verts[0].Size())
	}
	for i := range verts {
		vertexData = append(vertexData, verts[i].Marshal()...)
	}

	if err := r.backend.WriteBuffer(key+"/vertices", BufferKindVertex, vertexData); err != nil {
		return err
	}
	return r.backend.WriteBuffer(key+"/indices", BufferKindIndex, common.SliceToBytes(p.Indices))
}

// uploadTexture decodes and uploads an image once per key.
func (r *renderer) uploadTexture(key string, img *common.ImportedTexture) error {
	r.mu.Lock()
	_, done := r.uploadedTextures[key]
	r.mu.Unlock()
	if done || img == nil {
		return nil
	}

	pixels, width, height, err := img.Decode()
	if err != nil {
		return errors.Wrapf(err, "texture %q", key)
	}
	if err := r.backend.WriteTexture(key, pixels, width, height); err != nil {
		return err
	}

	r.mu.Lock()
	r.uploadedTextures[key] = struct{}{}
	r.mu.Unlock()
	return nil
}
