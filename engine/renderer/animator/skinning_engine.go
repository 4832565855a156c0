package animator

import (
	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// skinningEngine is the implementation of the SkinningEngine interface.
type skinningEngine struct {
	maxJoints int

	// world and skin are reused across calls.
	world []mgl32.Mat4
	skin  []mgl32.Mat4
}

// SkinningEngine turns a posed joint hierarchy into per-joint skinning matrices.
//
// The returned slices are owned by the engine and overwritten by the next call. A caller that keeps
// results across calls, or animates several models, clones them or uses one engine per model.
type SkinningEngine interface {
	// ApplyPose overwrites the local transform of every joint targeted by one of the clip's channels
	// with the channel's value at clip.CurrentTime. Joints without a channel keep their transform,
	// and channels targeting non-joint nodes are ignored.
	//
	// Parameters:
	//   - h: the joint hierarchy to pose
	//   - clip: the clip to sample
	//
	// Returns:
	//   - error: the first channel resolve error, e.g. ErrUnsupportedFeature for step interpolation
	ApplyPose(h *model.JointHierarchy, clip *model.AnimationClip) error

	// ComputeSkinMatrices cascades joint world transforms in array order and returns
	// skin[i] = world[i] × inverseBind[i].
	//
	// A root joint's world transform is outer × local. The skinned node's own transform takes no part.
	//
	// Parameters:
	//   - h: the joint hierarchy
	//   - outer: the accumulated transform of the skinned node's ancestors
	//
	// Returns:
	//   - []mgl32.Mat4: one skin matrix per joint, in joint order
	//   - error: ErrUnsupportedFeature when the joint count exceeds the maximum,
	//     ErrInvariantViolation when a parent index does not refer to an earlier joint
	ComputeSkinMatrices(h *model.JointHierarchy, outer mgl32.Mat4) ([]mgl32.Mat4, error)

	// WorldTransforms returns the world matrices from the last ComputeSkinMatrices call.
	WorldTransforms() []mgl32.Mat4

	// MaxJoints returns the largest joint count ComputeSkinMatrices accepts.
	MaxJoints() int
}

var _ SkinningEngine = &skinningEngine{}

// NewSkinningEngine creates a SkinningEngine accepting up to MaxJointTransforms joints unless
// configured otherwise.
//
// Parameters:
//   - options: a variadic list of SkinningEngineBuilderOption functions
//
// Returns:
//   - SkinningEngine: the configured engine
func NewSkinningEngine(options ...SkinningEngineBuilderOption) SkinningEngine {
	e := &skinningEngine{
		maxJoints: MaxJointTransforms,
	}

	for _, option := range options {
		option(e)
	}
	return e
}

func (e *skinningEngine) ApplyPose(h *model.JointHierarchy, clip *model.AnimationClip) error {
	if h == nil || clip == nil {
		return nil
	}

	for i := range clip.Channels {
		ch := &clip.Channels[i]
		joint := h.IndexOfNode(ch.Node)
		if joint < 0 {
			continue
		}

		value, err := Resolve(ch, clip.CurrentTime)
		if err != nil {
			return errors.Wrapf(err, "clip %q, joint %s", clip.Name, h.Joints[joint].Name)
		}
		value.Apply(&h.Joints[joint].Local)
	}
	return nil
}

func (e *skinningEngine) ComputeSkinMatrices(h *model.JointHierarchy, outer mgl32.Mat4) ([]mgl32.Mat4, error) {
	n := h.Len()
	if n > e.maxJoints {
		return nil, common.Unsupportedf("skin has %d joints, the maximum is %d", n, e.maxJoints)
	}

	e.world = grow(e.world, n)
	e.skin = grow(e.skin, n)

	for i := range h.Joints {
		j := &h.Joints[i]
		local := j.Local.Matrix()

		switch {
		case j.Parent < 0:
			e.world[i] = outer.Mul4(local)
		case j.Parent < i:
			e.world[i] = e.world[j.Parent].Mul4(local)
		default:
			e.world = e.world[:0]
			e.skin = e.skin[:0]
			return nil, common.Invariantf("joint %d (%s): parent index %d is not an earlier joint", i, j.Name, j.Parent)
		}

		e.skin[i] = e.world[i].Mul4(j.InverseBind)
	}
	return e.skin, nil
}

func (e *skinningEngine) WorldTransforms() []mgl32.Mat4 {
	return e.world
}

func (e *skinningEngine) MaxJoints() int {
	return e.maxJoints
}

// --- Helper Functions ---

// grow resizes buf to n entries, reallocating only when its capacity is too small.
func grow(buf []mgl32.Mat4, n int) []mgl32.Mat4 {
	if cap(buf) < n {
		return make([]mgl32.Mat4, n)
	}
	return buf[:n]
}
