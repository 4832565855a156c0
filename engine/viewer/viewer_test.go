package viewer

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/clock"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/animator"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rig builds a model with one skinned node (ID 3) bound to a single joint "Bone" (node ID 2,
// glTF index 1), animated by a two second translation clip along X.
func rig(name string, interp model.Interpolation) model.Model {
	bone := &model.Node{ID: 2, SourceIndex: 1, Name: "Bone", Transform: model.IdentityTransform()}
	armature := &model.Node{ID: 1, SourceIndex: 0, Name: "Armature", Transform: model.IdentityTransform(), Children: []*model.Node{bone}}
	body := &model.Node{ID: 3, SourceIndex: 2, Name: "Body", Transform: model.IdentityTransform(), Mesh: &model.Mesh{Name: "Body"}}
	root := &model.Node{ID: 0, SourceIndex: -1, Name: "Root", Transform: model.IdentityTransform(), Children: []*model.Node{armature, body}}

	h, err := model.NewJointHierarchy(root.Children, model.SkinDefinition{Joints: []int{1}})
	if err != nil {
		panic(err)
	}
	body.Skin = h

	clip := model.NewAnimationClip("Slide", []model.Channel{{
		Node:          1,
		Interpolation: interp,
		Times:         []float32{0, 2},
		Values:        model.TranslationKeyframes{{0, 0, 0}, {2, 0, 0}},
	}})
	return model.NewModel(model.WithName(name), model.WithRoot(root), model.WithAnimations([]*model.AnimationClip{clip}))
}

// jointTranslation reads the translation column of joint 0 from an uploaded joint buffer.
func jointTranslation(t *testing.T, rec *renderer.RecordingBackend, key string) mgl32.Vec3 {
	t.Helper()
	buf := rec.Buffer(key)
	require.Len(t, buf, animator.MaxJointTransforms*64)
	var out mgl32.Vec3
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[(12+i)*4:]))
	}
	return out
}

func newTestViewer(t *testing.T, options ...ViewerBuilderOption) (Viewer, *clock.Manual, *renderer.RecordingBackend) {
	t.Helper()
	c := clock.NewManual(0)
	rec := renderer.NewRecordingBackend()
	r, err := renderer.NewRenderer(renderer.BackendTypeRecording, renderer.WithBackend(rec))
	require.NoError(t, err)

	base := []ViewerBuilderOption{WithClock(c), WithRenderer(r)}
	return NewViewer(append(base, options...)...), c, rec
}

func TestViewer_TickAnimatesSelectedModel(t *testing.T) {
	v, c, rec := newTestViewer(t, WithAutoplay(true))
	assert.Equal(t, -1, v.Selection().Model)

	idx := v.AddModel(rig("rig", model.InterpolationLinear))
	assert.Equal(t, 0, idx)
	assert.Equal(t, 0, v.Selection().Model)
	assert.Equal(t, animator.BackendTypeSkeletal, v.Animator(0).BackendType())

	var seen []float32
	v.SetFrameCallback(func(m model.Model, frame animator.Frame) {
		assert.Equal(t, "rig", m.Name())
		seen = append(seen, frame.Time)
	})

	c.Set(time.Second)
	frame, err := v.Tick()
	require.NoError(t, err)
	assert.Equal(t, animator.Looping{Clip: 0}, frame.State)
	assert.InDelta(t, 1, float64(frame.Time), 1e-6)

	key := animator.JointBufferKey("rig", 3)
	assert.True(t, jointTranslation(t, rec, key).ApproxEqual(mgl32.Vec3{1, 0, 0}))

	c.Set(5 * time.Second)
	_, err = v.Tick()
	require.NoError(t, err)
	assert.True(t, jointTranslation(t, rec, key).ApproxEqual(mgl32.Vec3{1, 0, 0}), "5s wraps to 1s")
	assert.Len(t, seen, 2)
}

func TestViewer_TickWithoutModels(t *testing.T) {
	v, _, rec := newTestViewer(t)
	frame, err := v.Tick()
	require.NoError(t, err)
	assert.Nil(t, frame.State)
	assert.Nil(t, v.Player())
	assert.Equal(t, animator.Static{}, v.TogglePlay())
	assert.Equal(t, 0, rec.Keys())
}

func TestViewer_JointEditForcesStatic(t *testing.T) {
	v, c, rec := newTestViewer(t, WithAutoplay(true))
	v.AddModel(rig("rig", model.InterpolationLinear))
	ref := JointRef{Node: 3, Joint: 0}

	c.Set(time.Second)
	_, err := v.Tick()
	require.NoError(t, err)

	require.NoError(t, v.SetJointTranslation(ref, mgl32.Vec3{0, 3, 0}))
	assert.Equal(t, animator.Static{}, v.Player().State())

	_, err = v.Tick()
	require.NoError(t, err)
	key := animator.JointBufferKey("rig", 3)
	assert.True(t, jointTranslation(t, rec, key).ApproxEqual(mgl32.Vec3{0, 3, 0}), "the edit survives the next frame")

	require.NoError(t, v.SetJointScale(ref, mgl32.Vec3{2, 2, 2}))
	require.NoError(t, v.SetJointAxisAngle(ref, mgl32.Vec3{0, 0, 1}, 90))
	j, err := v.Joint(ref)
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec3{2, 2, 2}, j.Local.Scale)
	axis, deg := j.Local.AxisAngleDegrees()
	assert.InDelta(t, 90, float64(deg), 1e-3)
	assert.True(t, axis.ApproxEqualThreshold(mgl32.Vec3{0, 0, 1}, 1e-5))

	require.NoError(t, v.SetJointRotation(ref, mgl32.Quat{W: 2}))
	j, err = v.Joint(ref)
	require.NoError(t, err)
	assert.Equal(t, mgl32.QuatIdent(), j.Local.Rotation)
	assert.Error(t, v.SetJointRotation(ref, mgl32.Quat{}))

	assert.Error(t, v.SetJointTranslation(JointRef{Node: 3, Joint: 4}, mgl32.Vec3{}))
	assert.Error(t, v.SetJointTranslation(JointRef{Node: 1, Joint: 0}, mgl32.Vec3{}), "node 1 is not skinned")
}

func TestViewer_InspectJointForcesStatic(t *testing.T) {
	v, _, _ := newTestViewer(t)
	v.AddModel(rig("rig", model.InterpolationLinear))

	v.Scrub(0.5)
	assert.Equal(t, animator.Static{}, v.Player().State(), "scrubbing from Static keeps Static")
	v.TogglePlay()
	v.Scrub(0.5)
	assert.Equal(t, animator.Scrubbable{Clip: 0}, v.Player().State())

	tr, err := v.InspectJoint(JointRef{Node: 3, Joint: 0})
	require.NoError(t, err)
	assert.Equal(t, model.IdentityTransform(), tr)
	assert.Equal(t, animator.Static{}, v.Player().State())
}

func TestViewer_Selection(t *testing.T) {
	v, _, _ := newTestViewer(t)
	assert.Error(t, v.SelectNode(2))
	v.AddModel(rig("a", model.InterpolationLinear))
	v.AddModel(rig("b", model.InterpolationLinear))

	_, ok := v.SelectedJoint()
	assert.False(t, ok)

	require.NoError(t, v.SelectNode(2))
	ref, ok := v.SelectedJoint()
	require.True(t, ok)
	assert.Equal(t, JointRef{Node: 3, Joint: 0}, ref)

	require.NoError(t, v.SelectNode(1))
	_, ok = v.SelectedJoint()
	assert.False(t, ok, "the armature is not a joint of the skin")
	assert.Error(t, v.SelectNode(99))

	require.NoError(t, v.SelectModel(1))
	assert.Equal(t, Selection{Model: 1, Skinning: true}, v.Selection())
	assert.Error(t, v.SelectModel(2))
	assert.True(t, errors.Is(v.SetActiveClip(3), common.ErrInvariantViolation))
	require.NoError(t, v.SetActiveClip(0))

	var names []string
	require.NoError(t, v.WalkJoints(3, func(_ int, j model.Joint, depth int) {
		assert.Equal(t, 0, depth)
		names = append(names, j.Name)
	}))
	assert.Equal(t, []string{"Bone"}, names)
	assert.Error(t, v.WalkJoints(2, func(int, model.Joint, int) {}))
}

func TestViewer_SkinningDisabledUploadsIdentity(t *testing.T) {
	v, c, rec := newTestViewer(t, WithAutoplay(true), WithSkinning(false))
	v.AddModel(rig("rig", model.InterpolationLinear))

	c.Set(time.Second)
	_, err := v.Tick()
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec3{}, jointTranslation(t, rec, animator.JointBufferKey("rig", 3)))

	v.SetSkinning(true)
	v.SetDebugJoints(true)
	frame, err := v.Tick()
	require.NoError(t, err)
	require.Len(t, frame.Skins, 1)
	assert.NotNil(t, frame.Skins[0].Skeleton)
	assert.True(t, jointTranslation(t, rec, animator.JointBufferKey("rig", 3)).ApproxEqual(mgl32.Vec3{1, 0, 0}))
}

func TestViewer_DropsFailingModel(t *testing.T) {
	v, c, _ := newTestViewer(t, WithAutoplay(true))
	v.AddModel(rig("good", model.InterpolationLinear))
	v.AddModel(rig("stepped", model.InterpolationStep))
	require.NoError(t, v.SelectModel(1))

	c.Set(time.Second)
	_, err := v.Tick()
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrUnsupportedFeature))

	models := v.Models()
	require.Len(t, models, 1)
	assert.Equal(t, "good", models[0].Name())
	assert.Equal(t, 0, v.Selection().Model)

	_, err = v.Tick()
	assert.NoError(t, err)
}

func TestViewer_RunAndQuit(t *testing.T) {
	v, _, _ := newTestViewer(t, WithTickRate(1000))
	v.AddModel(rig("rig", model.InterpolationLinear))

	ticks := make(chan struct{}, 16)
	v.SetFrameCallback(func(model.Model, animator.Frame) {
		select {
		case ticks <- struct{}{}:
		default:
		}
	})

	done := make(chan struct{})
	go func() {
		v.Run()
		close(done)
	}()

	select {
	case <-ticks:
	case <-time.After(5 * time.Second):
		t.Fatal("no tick within 5s")
	}
	v.SetTickRate(500)
	v.Quit()
	v.Quit()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Quit")
	}
}

func TestViewer_Profiler(t *testing.T) {
	v, c, _ := newTestViewer(t, WithProfiling(true))
	v.AddModel(rig("rig", model.InterpolationLinear))

	for i := 0; i < 3; i++ {
		_, err := v.Tick()
		require.NoError(t, err)
	}
	c.Advance(time.Second)
	_, err := v.Tick()
	require.NoError(t, err)
	assert.Equal(t, 4, v.Profiler().Last().Frames)

	v.DisableProfiler()
	v.EnableProfiler()
}

func TestViewer_SetTickRateOutOfRange(t *testing.T) {
	v, _, _ := newTestViewer(t, WithTickRate(0.5))
	impl := v.(*viewer)
	assert.Equal(t, 2*time.Second, impl.tickRate)

	assert.NotPanics(t, func() { v.SetTickRate(1e12) })
	assert.Equal(t, time.Second/60, impl.tickRate, "a rate with no positive period falls back to 60Hz")

	v.SetTickRate(0.25)
	assert.Equal(t, 4*time.Second, impl.tickRate)
}
