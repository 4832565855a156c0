package animator

import (
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// animator is the implementation of the Animator interface.
type animator struct {
	backendType AnimatorBackendType
	backend     AnimatorBackend
	model       model.Model
	player      Player

	last Frame
}

// Frame is the result of one animation step.
type Frame struct {
	// State is the playback state after the step.
	State PlaybackState

	// Clip is the selected clip index, or -1 when the model has no clips.
	Clip int

	// Time is the selected clip's playback position.
	Time float32

	// Skins holds one entry per skinned node.
	Skins []SkinPose

	// Meshes holds the world transform of every unskinned mesh node.
	Meshes []MeshPose
}

// Animator defines the public interface for animating one model.
//
// Every Step reads the clock once through the Player, resolves the selected clip's channels,
// rewrites the affected local transforms and produces the frame's GPU-ready outputs. It delegates to
// an AnimatorBackend which provides the actual implementation for either rigid node animation or
// skeletal animation. An Animator is confined to one goroutine, like the Player it owns.
type Animator interface {
	// Model returns the animated model.
	//
	// Returns:
	//   - model.Model: the model
	Model() model.Model

	// Player returns the playback controls.
	//
	// Returns:
	//   - Player: the player driving this animator
	Player() Player

	// BackendType returns the type of backend this animator is using.
	//
	// Returns:
	//   - AnimatorBackendType: the backend type (BackendTypeSimple or BackendTypeSkeletal)
	BackendType() AnimatorBackendType

	// Step advances playback and poses the model for one frame.
	// In the Static state no clip is applied and joints keep their authored transforms.
	//
	// Parameters:
	//   - ctx: the per-frame switches
	//
	// Returns:
	//   - Frame: the frame outputs
	//   - error: a resolve or skinning error; the model should not be drawn this frame
	Step(ctx StepContext) (Frame, error)

	// LastFrame returns the result of the last successful Step.
	//
	// Returns:
	//   - Frame: the last frame, zero before the first Step
	LastFrame() Frame
}

var _ Animator = &animator{}

// NewAnimator creates a new Animator with the specified backend type and options.
// Without WithPlayer, a Player over the model's clips on the system clock is created.
//
// Parameters:
//   - backendType: the type of animation backend to use (BackendTypeSimple or BackendTypeSkeletal)
//   - options: variadic list of AnimatorBuilderOption functions to configure the Animator
//
// Returns:
//   - Animator: a new instance of Animator configured with the specified backend and options
func NewAnimator(backendType AnimatorBackendType, options ...AnimatorBuilderOption) Animator {
	a := &animator{
		backendType: backendType,
	}
	switch backendType {
	case BackendTypeSkeletal:
		a.backend = newSkeletalAnimatorBackend(nil)
	case BackendTypeSimple:
		fallthrough
	default:
		a.backend = newSimpleAnimatorBackend()
	}
	for _, opt := range options {
		opt(a)
	}

	if a.player == nil {
		var clips []*model.AnimationClip
		if a.model != nil {
			clips = a.model.Animations()
		}
		a.player = NewPlayer(WithClips(clips))
	}
	return a
}

// BackendTypeFor picks the backend suited to a model: skeletal when it has skinned nodes.
func BackendTypeFor(m model.Model) AnimatorBackendType {
	if m != nil && m.Skinned() {
		return BackendTypeSkeletal
	}
	return BackendTypeSimple
}

func (a *animator) Model() model.Model {
	return a.model
}

func (a *animator) Player() Player {
	return a.player
}

func (a *animator) BackendType() AnimatorBackendType {
	return a.backendType
}

func (a *animator) Step(ctx StepContext) (Frame, error) {
	if a.model == nil {
		return Frame{}, errors.New("animator has no model")
	}

	a.player.Advance()
	clip, _ := a.player.PoseClip()

	if err := a.backend.PoseNodes(a.model, clip); err != nil {
		return Frame{}, errors.Wrapf(err, "model %q", a.model.Name())
	}
	skins, err := a.backend.PoseSkins(a.model, clip, ctx)
	if err != nil {
		return Frame{}, errors.Wrapf(err, "model %q", a.model.Name())
	}

	a.last = Frame{
		State:  a.player.State(),
		Clip:   a.player.ActiveClip(),
		Time:   a.player.CurrentTime(),
		Skins:  skins,
		Meshes: meshPoses(a.model.Root()),
	}
	return a.last, nil
}

func (a *animator) LastFrame() Frame {
	return a.last
}

// --- Helper Functions ---

// meshPoses accumulates world transforms down the scene graph and reports every unskinned mesh node.
// Skinned nodes are skipped: their placement is carried by their joint matrices.
func meshPoses(root *model.Node) []MeshPose {
	if root == nil {
		return nil
	}

	var out []MeshPose
	var walk func(n *model.Node, parent mgl32.Mat4)
	walk = func(n *model.Node, parent mgl32.Mat4) {
		world := parent.Mul4(n.Transform.Matrix())
		if n.Mesh != nil && n.Skin == nil {
			out = append(out, MeshPose{Node: n, World: world})
		}
		for _, c := range n.Children {
			walk(c, world)
		}
	}
	walk(root, mgl32.Ident4())
	return out
}
