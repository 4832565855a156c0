package animator

import (
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/go-gl/mathgl/mgl32"
)

// AnimatorBackendType identifies the type of animation backend used by an Animator.
type AnimatorBackendType int

const (
	// BackendTypeSimple is the rigid animation backend: channels move scene nodes directly.
	BackendTypeSimple AnimatorBackendType = iota

	// BackendTypeSkeletal is the skinned animation backend: channels pose joint hierarchies and
	// every skinned node produces a joint matrix buffer.
	BackendTypeSkeletal
)

// String returns the backend name.
func (t AnimatorBackendType) String() string {
	switch t {
	case BackendTypeSimple:
		return "simple"
	case BackendTypeSkeletal:
		return "skeletal"
	default:
		return "unknown"
	}
}

// StepContext carries the per-frame switches owned by the caller's selection state.
type StepContext struct {
	// Skinning enables deformation. When false every joint matrix is identity and skinned meshes
	// render in their bind pose.
	Skinning bool

	// DebugJoints requests a DebugSkeleton for every skinned node.
	DebugJoints bool
}

// SkinPose is the per-frame output for one skinned node.
type SkinPose struct {
	// Key identifies the node's joint buffer as "<model>/<node id>".
	Key string

	// Node is the skinned node.
	Node *model.Node

	// Joints are the packed skin matrices, owned by the backend and rewritten each frame.
	Joints *JointTransforms

	// Skeleton is the debug geometry, nil unless StepContext.DebugJoints is set.
	Skeleton *DebugSkeleton
}

// MeshPose is the world transform of an unskinned mesh node.
type MeshPose struct {
	Node  *model.Node
	World mgl32.Mat4
}

// AnimatorBackend is the union interface that all animation backends must implement.
// It embeds both simpleAnimatorBackend and skeletalAnimatorBackend, requiring concrete
// implementations to provide the full method set. Methods that do not apply to a given
// backend type are implemented as no-ops.
type AnimatorBackend interface {
	simpleAnimatorBackend
	skeletalAnimatorBackend
}
