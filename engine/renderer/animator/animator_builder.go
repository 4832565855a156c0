package animator

import (
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
)

// AnimatorBuilderOption is a functional option for configuring an Animator during construction.
type AnimatorBuilderOption func(*animator)

// WithModel is an option builder that assigns the Model to animate.
//
// Parameters:
//   - m: the Model to associate with this animator
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the model option to an animator
func WithModel(m model.Model) AnimatorBuilderOption {
	return func(a *animator) {
		a.model = m
	}
}

// WithPlayer is an option builder that assigns the Player driving playback.
// The player should be built over the same model's clips.
//
// Parameters:
//   - p: the player
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the player option to an animator
func WithPlayer(p Player) AnimatorBuilderOption {
	return func(a *animator) {
		a.player = p
	}
}

// WithSkinningEngine is an option builder that replaces the skinning engine of a skeletal animator.
// No-op on simple animators.
//
// Parameters:
//   - e: the skinning engine
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the engine option to an animator
func WithSkinningEngine(e SkinningEngine) AnimatorBuilderOption {
	return func(a *animator) {
		if a.backendType == BackendTypeSkeletal && e != nil {
			a.backend = newSkeletalAnimatorBackend(e)
		}
	}
}
