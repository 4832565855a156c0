package animator

import "github.com/Carmen-Shannon/oxy-viewer/common"

// SkinningEngineBuilderOption is a functional option for configuring a SkinningEngine during construction.
type SkinningEngineBuilderOption func(*skinningEngine)

// WithMaxJoints is an option builder that lowers the joint limit of a SkinningEngine.
// Values outside [1, MaxJointTransforms] are clamped, since the GPU buffer cannot hold more.
//
// Parameters:
//   - n: the maximum joint count
//
// Returns:
//   - SkinningEngineBuilderOption: a function that applies the limit to a skinning engine
func WithMaxJoints(n int) SkinningEngineBuilderOption {
	return func(e *skinningEngine) {
		e.maxJoints = common.Clamp(n, 1, MaxJointTransforms)
	}
}
