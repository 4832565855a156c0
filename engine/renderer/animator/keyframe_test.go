package animator

import (
	"errors"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func translationChannel() *model.Channel {
	return &model.Channel{
		Node:   3,
		Times:  []float32{0, 1, 2},
		Values: model.TranslationKeyframes{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}},
	}
}

func TestResolve_TranslationBoundaries(t *testing.T) {
	ch := translationChannel()

	tests := []struct {
		name string
		t    float32
		want mgl32.Vec3
	}{
		{name: "first segment", t: 0.5, want: mgl32.Vec3{0.5, 0, 0}},
		{name: "second segment", t: 1.5, want: mgl32.Vec3{1, 0.5, 0}},
		{name: "on a keyframe", t: 1, want: mgl32.Vec3{1, 0, 0}},
		{name: "before first", t: -1, want: mgl32.Vec3{0, 0, 0}},
		{name: "at last", t: 2, want: mgl32.Vec3{1, 1, 0}},
		{name: "after last", t: 5, want: mgl32.Vec3{1, 1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(ch, tt.t)
			require.NoError(t, err)
			tr, ok := got.(model.Translation)
			require.True(t, ok)
			assert.True(t, mgl32.Vec3(tr).ApproxEqualThreshold(tt.want, 1e-6), "got %v", tr)
		})
	}
}

func TestResolve_Scale(t *testing.T) {
	ch := &model.Channel{
		Times:  []float32{1, 3},
		Values: model.ScaleKeyframes{{1, 1, 1}, {3, 1, 1}},
	}

	got, err := Resolve(ch, 2)
	require.NoError(t, err)
	assert.Equal(t, model.Scale{2, 1, 1}, got)
}

func TestResolve_SingleKeyframe(t *testing.T) {
	ch := &model.Channel{
		Times:  []float32{0.5},
		Values: model.ScaleKeyframes{{2, 2, 2}},
	}

	for _, at := range []float32{0, 0.5, 9} {
		got, err := Resolve(ch, at)
		require.NoError(t, err)
		assert.Equal(t, model.Scale{2, 2, 2}, got)
	}
}

func TestResolve_SlerpTakesShortestPath(t *testing.T) {
	q0 := mgl32.QuatRotate(0.2, mgl32.Vec3{0, 0, 1}).Scale(-1)
	q1 := mgl32.QuatRotate(1.0, mgl32.Vec3{0, 0, 1})
	require.Less(t, q0.Dot(q1), float32(0))

	ch := &model.Channel{
		Times:  []float32{0, 1},
		Values: model.RotationKeyframes{q0, q1},
	}

	got, err := Resolve(ch, 0.5)
	require.NoError(t, err)
	q := mgl32.Quat(got.(model.Rotation))

	want := mgl32.QuatSlerp(q0.Scale(-1), q1, 0.5).Normalize()
	assert.True(t, q.ApproxEqualThreshold(want, 1e-5), "got %v want %v", q, want)
	assert.InDelta(t, 1, float64(q.Len()), 1e-5)

	// Halfway between 0.2 and 1.0 radians about Z.
	x := q.Rotate(mgl32.Vec3{1, 0, 0})
	assert.InDelta(t, math.Cos(0.6), float64(x[0]), 1e-4)
	assert.InDelta(t, math.Sin(0.6), float64(x[1]), 1e-4)
}

func TestResolve_RotationNormalizesKeyframes(t *testing.T) {
	// Keyframes decoded from normalized integers are close to, but not exactly, unit length.
	ch := &model.Channel{
		Times: []float32{0, 1},
		Values: model.RotationKeyframes{
			mgl32.QuatIdent().Scale(2),
			mgl32.QuatRotate(math.Pi/2, mgl32.Vec3{0, 1, 0}).Scale(0.5),
		},
	}

	got, err := Resolve(ch, 0.5)
	require.NoError(t, err)
	q := mgl32.Quat(got.(model.Rotation))
	assert.InDelta(t, 1, float64(q.Len()), 1e-5)
	assert.True(t, q.ApproxEqualThreshold(mgl32.QuatRotate(math.Pi/4, mgl32.Vec3{0, 1, 0}), 1e-4))

	// Fixed keyframes are returned exactly as stored.
	got, err = Resolve(ch, -1)
	require.NoError(t, err)
	assert.Equal(t, model.Rotation(mgl32.QuatIdent().Scale(2)), got)
}

func TestResolve_Errors(t *testing.T) {
	step := translationChannel()
	step.Interpolation = model.InterpolationStep
	_, err := Resolve(step, 0.5)
	assert.True(t, errors.Is(err, common.ErrUnsupportedFeature), "step: %v", err)

	cubic := translationChannel()
	cubic.Interpolation = model.InterpolationCubicSpline
	_, err = Resolve(cubic, 0.5)
	assert.True(t, errors.Is(err, common.ErrUnsupportedFeature), "cubic: %v", err)

	empty := &model.Channel{Values: model.TranslationKeyframes{}}
	_, err = Resolve(empty, 0)
	assert.True(t, errors.Is(err, common.ErrMalformedAsset), "empty: %v", err)
}

func TestResolve_NaNTime(t *testing.T) {
	_, err := Resolve(translationChannel(), float32(math.NaN()))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInvariantViolation))
}

func TestSkinningEngine_ApplyPoseNaNTime(t *testing.T) {
	h := &model.JointHierarchy{Joints: []model.Joint{{NodeIndex: 3, Parent: -1, Local: model.IdentityTransform()}}}
	clip := model.NewAnimationClip("Drift", []model.Channel{*translationChannel()})
	clip.CurrentTime = float32(math.NaN())

	err := NewSkinningEngine().ApplyPose(h, clip)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInvariantViolation))
	assert.Equal(t, mgl32.Vec3{}, h.Joints[0].Local.Translation)
}

func TestLocateKeyframe(t *testing.T) {
	times := []float32{0, 1, 3}

	i, coeff, fixed := locateKeyframe(times, 2)
	assert.Equal(t, 1, i)
	assert.Equal(t, float32(0.5), coeff)
	assert.False(t, fixed)

	i, _, fixed = locateKeyframe(times, 3)
	assert.Equal(t, 2, i)
	assert.True(t, fixed)

	i, _, fixed = locateKeyframe(times, -0.1)
	assert.Equal(t, 0, i)
	assert.True(t, fixed)
}
