package animator

import (
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/pkg/errors"
)

// simpleAnimatorBackendImpl is a concrete implementation of the simple animator backend.
type simpleAnimatorBackendImpl struct{}

// simpleAnimatorBackend defines the interface for rigid node animation.
type simpleAnimatorBackend interface {
	// PoseNodes overwrites the local transform of every scene node targeted by one of the clip's
	// channels with the channel's value at clip.CurrentTime. No-op on skeletal backends.
	//
	// Parameters:
	//   - m: the model owning the scene graph
	//   - clip: the clip to sample, or nil to leave the nodes untouched
	//
	// Returns:
	//   - error: the first channel resolve error
	PoseNodes(m model.Model, clip *model.AnimationClip) error
}

var _ AnimatorBackend = &simpleAnimatorBackendImpl{}

// newSimpleAnimatorBackend creates a new simple animator backend.
//
// Returns:
//   - *simpleAnimatorBackendImpl: the backend
func newSimpleAnimatorBackend() *simpleAnimatorBackendImpl {
	return &simpleAnimatorBackendImpl{}
}

func (b *simpleAnimatorBackendImpl) PoseNodes(m model.Model, clip *model.AnimationClip) error {
	if clip == nil {
		return nil
	}

	for i := range clip.Channels {
		ch := &clip.Channels[i]
		n := m.NodeBySourceIndex(ch.Node)
		if n == nil {
			continue
		}

		value, err := Resolve(ch, clip.CurrentTime)
		if err != nil {
			return errors.Wrapf(err, "clip %q, node %s", clip.Name, n.Name)
		}
		value.Apply(&n.Transform)
	}
	return nil
}

func (b *simpleAnimatorBackendImpl) PoseSkins(m model.Model, clip *model.AnimationClip, ctx StepContext) ([]SkinPose, error) {
	return nil, nil
}
