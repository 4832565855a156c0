package animator

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/pkg/errors"
)

// skeletalAnimatorBackendImpl is the concrete implementation of the skeletal animator backend.
// One SkinningEngine is shared by every skinned node of the model; its output is copied into the
// node's JointTransforms before the next node is processed.
type skeletalAnimatorBackendImpl struct {
	engine SkinningEngine

	// joints holds one reusable joint buffer per skinned node ID.
	joints map[uint32]*JointTransforms
}

// skeletalAnimatorBackend defines the interface for the skinned animation backend.
type skeletalAnimatorBackend interface {
	// PoseSkins poses every skinned node's joint hierarchy with the clip, then computes and packs
	// its skin matrices. No-op on simple backends.
	//
	// Parameters:
	//   - m: the model owning the skinned nodes
	//   - clip: the clip to sample, or nil to keep the joints' authored transforms
	//   - ctx: the per-frame switches
	//
	// Returns:
	//   - []SkinPose: one entry per skinned node in scene pre-order
	//   - error: the first resolve or skinning error
	PoseSkins(m model.Model, clip *model.AnimationClip, ctx StepContext) ([]SkinPose, error)
}

var _ AnimatorBackend = &skeletalAnimatorBackendImpl{}

// newSkeletalAnimatorBackend creates a new skeletal animator backend.
//
// Parameters:
//   - engine: the skinning engine, or nil for a default one
//
// Returns:
//   - *skeletalAnimatorBackendImpl: the backend
func newSkeletalAnimatorBackend(engine SkinningEngine) *skeletalAnimatorBackendImpl {
	if engine == nil {
		engine = NewSkinningEngine()
	}
	return &skeletalAnimatorBackendImpl{
		engine: engine,
		joints: make(map[uint32]*JointTransforms),
	}
}

func (b *skeletalAnimatorBackendImpl) PoseNodes(m model.Model, clip *model.AnimationClip) error {
	return nil
}

func (b *skeletalAnimatorBackendImpl) PoseSkins(m model.Model, clip *model.AnimationClip, ctx StepContext) ([]SkinPose, error) {
	skinned := m.SkinnedNodes()
	poses := make([]SkinPose, 0, len(skinned))

	for _, sn := range skinned {
		h := sn.Node.Skin
		if err := b.engine.ApplyPose(h, clip); err != nil {
			return nil, errors.Wrapf(err, "node %q", sn.Node.Name)
		}

		skin, err := b.engine.ComputeSkinMatrices(h, sn.Outer)
		if err != nil {
			return nil, errors.Wrapf(err, "node %q", sn.Node.Name)
		}

		jt := b.jointBuffer(sn.Node.ID)
		if ctx.Skinning {
			err = jt.Set(skin)
		} else {
			err = jt.SetIdentity(len(skin))
		}
		if err != nil {
			return nil, errors.Wrapf(err, "node %q", sn.Node.Name)
		}

		pose := SkinPose{
			Key:    JointBufferKey(m.Name(), sn.Node.ID),
			Node:   sn.Node,
			Joints: jt,
		}
		if ctx.DebugJoints {
			skeleton, err := BuildDebugSkeleton(h, b.engine.WorldTransforms())
			if err != nil {
				return nil, errors.Wrapf(err, "node %q", sn.Node.Name)
			}
			pose.Skeleton = &skeleton
		}
		poses = append(poses, pose)
	}
	return poses, nil
}

// JointBufferKey names the joint matrix buffer of a skinned node.
func JointBufferKey(modelName string, nodeID uint32) string {
	return fmt.Sprintf("%s/%d", modelName, nodeID)
}

// --- Helper Functions ---

func (b *skeletalAnimatorBackendImpl) jointBuffer(nodeID uint32) *JointTransforms {
	jt, ok := b.joints[nodeID]
	if !ok {
		jt = &JointTransforms{}
		b.joints[nodeID] = jt
	}
	return jt
}
