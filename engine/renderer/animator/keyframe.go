package animator

import (
	"math"
	"sort"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/go-gl/mathgl/mgl32"
)

// Resolve samples a channel at time t.
//
// Outside the keyframe range the nearest end keyframe is returned as-is: the first value before
// the first keyframe, the last value at or after the last keyframe. Inside the range the value is
// blended between the two surrounding keyframes. Translations and scales are lerped; rotations
// are normalized, flipped onto the shortest arc, slerped and renormalized.
//
// Parameters:
//   - ch: the channel to sample
//   - t: the playback time in seconds
//
// Returns:
//   - model.TransformComponent: the resolved Translation, Rotation or Scale
//   - error: ErrUnsupportedFeature for step or cubic-spline channels, ErrMalformedAsset for an
//     empty or inconsistent channel, ErrInvariantViolation for a NaN time
func Resolve(ch *model.Channel, t float32) (model.TransformComponent, error) {
	if ch.Interpolation != model.InterpolationLinear {
		return nil, common.Unsupportedf("%s interpolation (channel for node %d)", ch.Interpolation, ch.Node)
	}
	if len(ch.Times) == 0 || ch.Values == nil || ch.Values.Len() != len(ch.Times) {
		return nil, common.Malformedf("channel for node %d has no usable keyframes", ch.Node)
	}
	if math.IsNaN(float64(t)) {
		return nil, common.Invariantf("channel for node %d sampled at NaN", ch.Node)
	}

	i, coeff, fixed := locateKeyframe(ch.Times, t)

	switch v := ch.Values.(type) {
	case model.TranslationKeyframes:
		if fixed {
			return model.Translation(v[i]), nil
		}
		return model.Translation(common.Lerp3(v[i], v[i+1], coeff)), nil

	case model.ScaleKeyframes:
		if fixed {
			return model.Scale(v[i]), nil
		}
		return model.Scale(common.Lerp3(v[i], v[i+1], coeff)), nil

	case model.RotationKeyframes:
		if fixed {
			return model.Rotation(v[i]), nil
		}
		return model.Rotation(slerpShortest(v[i], v[i+1], coeff)), nil

	default:
		return nil, common.Malformedf("channel for node %d: unknown keyframe kind %T", ch.Node, ch.Values)
	}
}

// locateKeyframe finds the keyframe segment containing t.
//
// Parameters:
//   - times: strictly ascending keyframe times, at least one
//   - t: the sample time
//
// Returns:
//   - int: i such that times[i] <= t < times[i+1], or the index of the fixed keyframe
//   - float32: the blend coefficient within the segment
//   - bool: true when t lies outside the range and times[i] should be used unblended
func locateKeyframe(times []float32, t float32) (int, float32, bool) {
	last := len(times) - 1
	if t < times[0] {
		return 0, 0, true
	}
	if t >= times[last] {
		return last, 0, true
	}

	// First index whose time is past t; the segment starts one before it.
	next := sort.Search(len(times), func(k int) bool { return times[k] > t })
	i := next - 1
	coeff := (t - times[i]) / (times[i+1] - times[i])
	return i, coeff, false
}

// slerpShortest interpolates between two rotations along the shorter arc.
// mgl32.QuatSlerp does not correct for the double cover, so start is negated when the two
// quaternions lie in opposite hemispheres.
func slerpShortest(start, end mgl32.Quat, coeff float32) mgl32.Quat {
	start = start.Normalize()
	end = end.Normalize()
	if start.Dot(end) < 0 {
		start = start.Scale(-1)
	}
	return mgl32.QuatSlerp(start, end, coeff).Normalize()
}
