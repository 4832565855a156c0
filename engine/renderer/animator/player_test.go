package animator

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/clock"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoClips() []*model.AnimationClip {
	walk := model.NewAnimationClip("Walk", []model.Channel{{
		Node:   1,
		Times:  []float32{0, 2},
		Values: model.TranslationKeyframes{{0, 0, 0}, {2, 0, 0}},
	}})
	run := model.NewAnimationClip("Run", []model.Channel{{
		Node:   1,
		Times:  []float32{0, 4},
		Values: model.TranslationKeyframes{{0, 0, 0}, {4, 0, 0}},
	}})
	return []*model.AnimationClip{walk, run}
}

func TestPlayer_Defaults(t *testing.T) {
	p := NewPlayer(WithClips(twoClips()))
	assert.Equal(t, Static{}, p.State())
	assert.Equal(t, 0, p.ActiveClip())
	assert.Equal(t, model.DefaultCurrentTime, p.CurrentTime())

	_, ok := p.PoseClip()
	assert.False(t, ok, "static applies no clip")

	empty := NewPlayer()
	assert.Equal(t, -1, empty.ActiveClip())
	assert.Nil(t, empty.Clip())
	assert.Equal(t, Static{}, empty.TogglePlay(), "nothing to play")
}

func TestPlayer_LoopingWraparound(t *testing.T) {
	c := clock.NewManual(10 * time.Second)
	p := NewPlayer(
		WithClock(c),
		WithClips(twoClips()),
		WithState(Looping{Clip: 0, Start: c.Now() - 5*time.Second}),
	)

	assert.InDelta(t, 1.0, float64(p.Advance()), 1e-5)

	c.Advance(500 * time.Millisecond)
	assert.InDelta(t, 1.5, float64(p.Advance()), 1e-5)

	// Exactly at the end the clip shows its last frame rather than wrapping to 0.
	c.Set(7 * time.Second)
	assert.InDelta(t, 2.0, float64(p.Advance()), 1e-5)
}

func TestPlayer_TogglePlay(t *testing.T) {
	c := clock.NewManual(3 * time.Second)
	p := NewPlayer(WithClock(c), WithClips(twoClips()))

	state := p.TogglePlay()
	assert.Equal(t, Looping{Clip: 0, Start: 3 * time.Second}, state)

	c.Advance(1500 * time.Millisecond)
	assert.InDelta(t, 1.5, float64(p.Advance()), 1e-5)

	state = p.TogglePlay()
	assert.Equal(t, Scrubbable{Clip: 0}, state)

	// Scrubbable does not follow the clock.
	c.Advance(time.Second)
	assert.InDelta(t, 1.5, float64(p.Advance()), 1e-5)

	clip, ok := p.PoseClip()
	require.True(t, ok)
	assert.Equal(t, "Walk", clip.Name)

	state = p.TogglePlay()
	assert.Equal(t, Looping{Clip: 0, Start: c.Now()}, state)
}

func TestPlayer_SetCurrentTime(t *testing.T) {
	c := clock.NewManual(0)
	clips := twoClips()
	p := NewPlayer(WithClock(c), WithClips(clips))

	p.SetCurrentTime(1.25)
	assert.Equal(t, Static{}, p.State(), "scrubbing in Static keeps Static")
	assert.Equal(t, float32(1.25), clips[0].CurrentTime)

	p.TogglePlay()
	p.SetCurrentTime(0.5)
	assert.Equal(t, Scrubbable{Clip: 0}, p.State())
	assert.Equal(t, float32(0.5), p.CurrentTime())

	p.SetCurrentTime(99)
	assert.Equal(t, float32(2), p.CurrentTime(), "clamped to the clip end")
	p.SetCurrentTime(-1)
	assert.Equal(t, float32(0), p.CurrentTime())
}

func TestPlayer_SetCurrentTimeIgnoresNaN(t *testing.T) {
	clips := twoClips()
	p := NewPlayer(WithClock(clock.NewManual(0)), WithClips(clips), WithState(Scrubbable{Clip: 0}))
	p.SetCurrentTime(0.75)

	p.SetCurrentTime(float32(math.NaN()))
	assert.Equal(t, float32(0.75), p.CurrentTime())
	assert.Equal(t, Scrubbable{Clip: 0}, p.State())

	h := &model.JointHierarchy{Joints: []model.Joint{{NodeIndex: 1, Parent: -1, Local: model.IdentityTransform()}}}
	assert.NotPanics(t, func() {
		assert.NoError(t, NewSkinningEngine().ApplyPose(h, p.Clip()))
	})
	assert.InDelta(t, 0.75, float64(h.Joints[0].Local.Translation.X()), 1e-6)
}

func TestPlayer_SetActiveClip(t *testing.T) {
	c := clock.NewManual(time.Second)
	clips := twoClips()
	p := NewPlayer(WithClock(c), WithClips(clips), WithState(Looping{Clip: 0, Start: 0}))

	require.NoError(t, p.SetActiveClip(1))
	assert.Equal(t, Looping{Clip: 1, Start: 0}, p.State())
	assert.Same(t, clips[1], p.Clip())

	p.TogglePlay()
	require.NoError(t, p.SetActiveClip(0))
	assert.Equal(t, Scrubbable{Clip: 0}, p.State())

	err := p.SetActiveClip(5)
	assert.True(t, errors.Is(err, common.ErrInvariantViolation))
	assert.Equal(t, 0, p.ActiveClip())

	p.Stop()
	require.NoError(t, p.SetActiveClip(1))
	assert.Equal(t, Static{}, p.State(), "selecting a clip does not start playback")
	assert.Equal(t, 1, p.ActiveClip())
}

func TestPlayer_ForceStatic(t *testing.T) {
	p := NewPlayer(WithClock(clock.NewManual(0)), WithClips(twoClips()), WithState(Scrubbable{Clip: 1}))
	assert.Equal(t, 1, p.ActiveClip())

	p.ForceStatic()
	assert.Equal(t, Static{}, p.State())
	p.ForceStatic()
	assert.Equal(t, Static{}, p.State())
}

func TestPlayer_InvalidInitialState(t *testing.T) {
	p := NewPlayer(WithClips(twoClips()), WithState(Looping{Clip: 7}))
	assert.Equal(t, Static{}, p.State())
	assert.Equal(t, 0, p.ActiveClip())
}

func TestLoopTime(t *testing.T) {
	assert.Equal(t, float32(0), loopTime(3*time.Second, 0))
	assert.InDelta(t, 0.5, float64(loopTime(2500*time.Millisecond, 2)), 1e-6)
	assert.Equal(t, float32(0), loopTime(-time.Second, 2))
}
