package viewer

import (
	"log"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/clock"
	"github.com/Carmen-Shannon/oxy-viewer/engine/loader"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/Carmen-Shannon/oxy-viewer/engine/profiler"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/animator"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// viewerModel is one loaded model and the animator that owns its playback.
type viewerModel struct {
	model    model.Model
	animator animator.Animator
	uploaded bool
}

// viewer is the implementation of the Viewer interface.
type viewer struct {
	mu sync.Mutex

	running         bool
	tickRate        time.Duration
	tickRateChannel chan time.Duration
	quitChannel     chan struct{}
	quitOnce        sync.Once // Ensures quitChannel is only closed once
	wg              sync.WaitGroup

	clock    clock.Clock
	loader   loader.Loader
	renderer renderer.Renderer

	profiler         *profiler.Profiler
	profilingEnabled bool

	autoplay  bool
	models    []*viewerModel
	selection Selection

	frameCallback func(m model.Model, frame animator.Frame)
}

// Viewer defines the public interface of the model viewer.
//
// The viewer owns the loaded models, one Animator per model, the UI selection and an optional
// Renderer. Only the selected model is animated and uploaded each tick. All methods are safe for
// concurrent use; the run loop and UI callbacks may call them from different goroutines.
type Viewer interface {
	// Load loads model files on the loader's worker pool and adds every model that loaded.
	// The first model added to an empty viewer becomes the selection.
	//
	// Parameters:
	//   - paths: the model files to load
	//
	// Returns:
	//   - error: the loader's aggregated error when any file was rejected
	Load(paths ...string) error

	// AddModel adds an already loaded model and creates its animator.
	//
	// Parameters:
	//   - m: the model
	//
	// Returns:
	//   - int: the model's index
	AddModel(m model.Model) int

	// Models returns the loaded models in selection order.
	Models() []model.Model

	// Animator returns the animator of model i, or nil when i is out of range.
	Animator(i int) animator.Animator

	// Player returns the selected model's player, or nil when no model is loaded.
	Player() animator.Player

	// Selection returns a copy of the current selection context.
	Selection() Selection

	// SelectModel changes the selected model and clears the node selection.
	//
	// Parameters:
	//   - i: the model index
	//
	// Returns:
	//   - error: error if i is out of range
	SelectModel(i int) error

	// SelectNode selects a scene node of the selected model. 0 clears the selection.
	//
	// Parameters:
	//   - id: the node ID
	//
	// Returns:
	//   - error: error if no model is selected or the node does not exist
	SelectNode(id uint32) error

	// SelectedJoint resolves the selected node to a joint of one of the model's skins.
	//
	// Returns:
	//   - JointRef: the joint the selected node drives
	//   - bool: false when the selected node is not a joint
	SelectedJoint() (JointRef, bool)

	// SetDebugJoints toggles debug skeleton output.
	SetDebugJoints(enabled bool)

	// SetSkinning toggles mesh deformation.
	SetSkinning(enabled bool)

	// WalkJoints visits the joints of a skinned node in hierarchy order with copies of each joint.
	//
	// Parameters:
	//   - node: the skinned node ID in the selected model
	//   - fn: called with the joint index, a copy of the joint and its depth
	//
	// Returns:
	//   - error: error if the node has no skin
	WalkJoints(node uint32, fn func(index int, joint model.Joint, depth int)) error

	// Joint returns a copy of one joint of the selected model without changing playback.
	Joint(ref JointRef) (model.Joint, error)

	// InspectJoint returns a joint's authored local transform for a debug view. Inspecting a joint
	// forces the player back to Static so the shown values are the ones that will be edited.
	InspectJoint(ref JointRef) (model.Transform, error)

	// SetJointTranslation overwrites a joint's local translation. Forces Static.
	SetJointTranslation(ref JointRef, v mgl32.Vec3) error

	// SetJointRotation overwrites a joint's local rotation with a normalized copy of q. Forces Static.
	SetJointRotation(ref JointRef, q mgl32.Quat) error

	// SetJointAxisAngle overwrites a joint's local rotation with degrees around axis. Forces Static.
	SetJointAxisAngle(ref JointRef, axis mgl32.Vec3, degrees float32) error

	// SetJointScale overwrites a joint's local scale. Forces Static.
	SetJointScale(ref JointRef, v mgl32.Vec3) error

	// TogglePlay toggles the selected model between Looping and Scrubbable.
	//
	// Returns:
	//   - animator.PlaybackState: the new state, or Static when no model is loaded
	TogglePlay() animator.PlaybackState

	// Scrub moves the selected clip to t seconds.
	Scrub(t float32)

	// SetActiveClip selects a clip of the selected model.
	SetActiveClip(i int) error

	// Tick animates the selected model for one frame and uploads the result to the renderer.
	// A model whose step or upload fails is logged and dropped; the others keep running.
	//
	// Returns:
	//   - animator.Frame: the frame produced, zero when nothing was animated
	//   - error: the failure that dropped the selected model, or nil
	Tick() (animator.Frame, error)

	// SetFrameCallback registers a function called after every successful Tick.
	SetFrameCallback(callback func(m model.Model, frame animator.Frame))

	// Run blocks ticking at the configured rate until Quit is called.
	Run()

	// Quit stops Run. Safe to call multiple times.
	Quit()

	// SetTickRate changes the tick rate in ticks per second. Takes effect immediately while running.
	SetTickRate(fps float64)

	// EnableProfiler enables frame statistics in the log.
	EnableProfiler()

	// DisableProfiler disables frame statistics.
	DisableProfiler()

	// Profiler returns the viewer's profiler.
	Profiler() *profiler.Profiler
}

var _ Viewer = &viewer{}

// NewViewer creates a Viewer with the system clock, a glTF loader, skinning enabled and no renderer
// unless configured otherwise.
//
// Parameters:
//   - options: a variadic list of ViewerBuilderOption functions
//
// Returns:
//   - Viewer: the configured viewer
func NewViewer(options ...ViewerBuilderOption) Viewer {
	v := &viewer{
		tickRate:        tickPeriodOrDefault(defaultTickRate),
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		selection:       Selection{Model: -1, Skinning: true},
	}

	for _, option := range options {
		option(v)
	}

	if v.clock == nil {
		v.clock = clock.NewSystemClock()
	}
	if v.loader == nil {
		v.loader = loader.NewLoader(loader.BackendTypeGLTF)
	}
	v.profiler = profiler.NewProfiler(v.clock, 0)
	return v
}

// NewViewerFromConfig builds a Viewer from a Config and loads its models.
// Options are applied after the configuration and override it.
//
// Parameters:
//   - cfg: the configuration, with defaults applied
//   - options: additional ViewerBuilderOption functions
//
// Returns:
//   - Viewer: the configured viewer, usable even when some models failed to load
//   - error: the load error, if any
func NewViewerFromConfig(cfg Config, options ...ViewerBuilderOption) (Viewer, error) {
	var c clock.Clock
	switch cfg.Clock {
	case ClockGLFW:
		c = clock.NewGLFWClock()
	default:
		c = clock.NewSystemClock()
	}

	base := []ViewerBuilderOption{
		WithClock(c),
		WithLoader(loader.NewLoader(loader.BackendTypeGLTF, loader.WithWorkers(cfg.LoadWorkers))),
		WithProfiling(cfg.Profiling),
		WithTickRate(cfg.TickRate),
		WithSkinning(cfg.SkinningEnabled()),
		WithDebugJoints(cfg.DebugJoints),
		WithAutoplay(cfg.Autoplay),
	}
	v := NewViewer(append(base, options...)...)

	if len(cfg.Models) == 0 {
		return v, nil
	}
	loadErr := v.Load(cfg.Models...)
	if n := len(v.Models()); n > 0 {
		if err := v.SelectModel(common.Clamp(cfg.SelectedModel, 0, n-1)); err != nil {
			return v, err
		}
	}
	return v, loadErr
}

func (v *viewer) Load(paths ...string) error {
	models, err := v.loader.LoadAll(paths)
	for _, m := range models {
		if m != nil {
			v.AddModel(m)
		}
	}
	if err != nil {
		log.Printf("[Viewer] %v", err)
	}
	return err
}

func (v *viewer) AddModel(m model.Model) int {
	player := animator.NewPlayer(
		animator.WithClock(v.clock),
		animator.WithClips(m.Animations()),
	)
	if v.autoplay {
		player.TogglePlay()
	}
	a := animator.NewAnimator(animator.BackendTypeFor(m),
		animator.WithModel(m),
		animator.WithPlayer(player),
	)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.models = append(v.models, &viewerModel{model: m, animator: a})
	if v.selection.Model < 0 {
		v.selection.Model = 0
		v.selection.Node = 0
	}
	log.Printf("[Viewer] added model %q (%s, %d clips)", m.Name(), a.BackendType(), m.AnimationCount())
	return len(v.models) - 1
}

func (v *viewer) Models() []model.Model {
	v.mu.Lock()
	defer v.mu.Unlock()

	out := make([]model.Model, len(v.models))
	for i, vm := range v.models {
		out[i] = vm.model
	}
	return out
}

func (v *viewer) Animator(i int) animator.Animator {
	v.mu.Lock()
	defer v.mu.Unlock()

	if i < 0 || i >= len(v.models) {
		return nil
	}
	return v.models[i].animator
}

func (v *viewer) Player() animator.Player {
	v.mu.Lock()
	defer v.mu.Unlock()

	if vm := v.selected(); vm != nil {
		return vm.animator.Player()
	}
	return nil
}

func (v *viewer) Selection() Selection {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selection
}

func (v *viewer) SelectModel(i int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if i < 0 || i >= len(v.models) {
		return common.Invariantf("model index %d out of range (have %d)", i, len(v.models))
	}
	v.selection.Model = i
	v.selection.Node = 0
	return nil
}

func (v *viewer) SelectNode(id uint32) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	vm := v.selected()
	if vm == nil {
		return errors.New("no model selected")
	}
	if vm.model.Node(id) == nil {
		return common.Invariantf("model %q has no node %d", vm.model.Name(), id)
	}
	v.selection.Node = id
	return nil
}

func (v *viewer) SelectedJoint() (JointRef, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	vm := v.selected()
	if vm == nil || v.selection.Node == 0 {
		return JointRef{}, false
	}
	n := vm.model.Node(v.selection.Node)
	if n == nil {
		return JointRef{}, false
	}
	for _, sn := range vm.model.SkinnedNodes() {
		if j := sn.Node.Skin.IndexOfNode(n.SourceIndex); j >= 0 {
			return JointRef{Node: sn.Node.ID, Joint: j}, true
		}
	}
	return JointRef{}, false
}

func (v *viewer) SetDebugJoints(enabled bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selection.DebugJoints = enabled
}

func (v *viewer) SetSkinning(enabled bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selection.Skinning = enabled
}

func (v *viewer) WalkJoints(node uint32, fn func(index int, joint model.Joint, depth int)) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	h, err := v.hierarchy(node)
	if err != nil {
		return err
	}
	h.Walk(func(index int, joint *model.Joint, depth int) {
		fn(index, *joint, depth)
	})
	return nil
}

func (v *viewer) Joint(ref JointRef) (model.Joint, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	j, err := v.joint(ref)
	if err != nil {
		return model.Joint{}, err
	}
	return *j, nil
}

func (v *viewer) InspectJoint(ref JointRef) (model.Transform, error) {
	var out model.Transform
	err := v.editJoint(ref, func(j *model.Joint) {
		out = j.Local
	})
	return out, err
}

func (v *viewer) SetJointTranslation(ref JointRef, t mgl32.Vec3) error {
	return v.editJoint(ref, func(j *model.Joint) {
		j.Local.Translation = t
	})
}

func (v *viewer) SetJointRotation(ref JointRef, q mgl32.Quat) error {
	if q.Len() == 0 {
		return common.Invariantf("zero-length rotation for joint %d", ref.Joint)
	}
	return v.editJoint(ref, func(j *model.Joint) {
		j.Local.Rotation = q.Normalize()
	})
}

func (v *viewer) SetJointAxisAngle(ref JointRef, axis mgl32.Vec3, degrees float32) error {
	return v.editJoint(ref, func(j *model.Joint) {
		j.Local.SetAxisAngleDegrees(axis, degrees)
	})
}

func (v *viewer) SetJointScale(ref JointRef, s mgl32.Vec3) error {
	return v.editJoint(ref, func(j *model.Joint) {
		j.Local.Scale = s
	})
}

func (v *viewer) TogglePlay() animator.PlaybackState {
	v.mu.Lock()
	defer v.mu.Unlock()

	vm := v.selected()
	if vm == nil {
		return animator.Static{}
	}
	return vm.animator.Player().TogglePlay()
}

func (v *viewer) Scrub(t float32) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if vm := v.selected(); vm != nil {
		vm.animator.Player().SetCurrentTime(t)
	}
}

func (v *viewer) SetActiveClip(i int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	vm := v.selected()
	if vm == nil {
		return errors.New("no model selected")
	}
	return vm.animator.Player().SetActiveClip(i)
}

func (v *viewer) Tick() (animator.Frame, error) {
	v.mu.Lock()
	frame, m, err := v.tick()
	callback := v.frameCallback
	v.mu.Unlock()

	if err == nil && m != nil && callback != nil {
		callback(m, frame)
	}
	return frame, err
}

func (v *viewer) SetFrameCallback(callback func(m model.Model, frame animator.Frame)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.frameCallback = callback
}

func (v *viewer) Run() {
	v.mu.Lock()
	v.running = true
	v.mu.Unlock()

	v.wg.Add(1)
	go v.handleTicks()
	v.wg.Wait()
}

// Quit signals the run loop to stop.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (v *viewer) Quit() {
	v.quitOnce.Do(func() {
		v.mu.Lock()
		v.running = false
		v.mu.Unlock()
		close(v.quitChannel)
	})
}

// SetTickRate sets the tick rate in ticks per second.
// If the viewer is running, the change takes effect immediately.
func (v *viewer) SetTickRate(fps float64) {
	newRate := tickPeriodOrDefault(fps)

	v.mu.Lock()
	running := v.running
	if !running {
		v.tickRate = newRate
	}
	v.mu.Unlock()
	if !running {
		return
	}

	// Non-blocking send - if channel is full, replace the pending value
	select {
	case v.tickRateChannel <- newRate:
	default:
		select {
		case <-v.tickRateChannel:
		default:
		}
		v.tickRateChannel <- newRate
	}
}

// EnableProfiler enables performance profiling output to the log.
func (v *viewer) EnableProfiler() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (v *viewer) DisableProfiler() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.profilingEnabled = false
}

func (v *viewer) Profiler() *profiler.Profiler {
	return v.profiler
}

// --- Helper Functions ---

// tickPeriodOrDefault converts fps into a ticker period, falling back to the default rate.
func tickPeriodOrDefault(fps float64) time.Duration {
	if period, ok := tickPeriod(fps); ok {
		return period
	}
	period, _ := tickPeriod(defaultTickRate)
	return period
}

// handleTicks runs the fixed-rate tick loop until the quit channel is closed.
// Tick errors are already logged by the drop path, so the loop keeps going.
func (v *viewer) handleTicks() {
	defer v.wg.Done()

	v.mu.Lock()
	rate := v.tickRate
	v.mu.Unlock()

	ticker := time.NewTicker(rate)
	defer ticker.Stop()

	for {
		select {
		case <-v.quitChannel:
			return
		case <-ticker.C:
			_, _ = v.Tick()
		case newRate := <-v.tickRateChannel:
			ticker.Reset(newRate)
			v.mu.Lock()
			v.tickRate = newRate
			v.mu.Unlock()
		}
	}
}

// tick steps the selected model. Must be called with mu held.
func (v *viewer) tick() (animator.Frame, model.Model, error) {
	vm := v.selected()
	if vm == nil {
		v.profile()
		return animator.Frame{}, nil, nil
	}

	start := v.clock.Now()
	frame, err := vm.animator.Step(animator.StepContext{
		Skinning:    v.selection.Skinning,
		DebugJoints: v.selection.DebugJoints,
	})
	if err == nil {
		err = v.upload(vm, frame)
	}
	v.profiler.RecordStep(v.clock.Now() - start)
	v.profile()

	if err != nil {
		v.drop(v.selection.Model, err)
		return animator.Frame{}, nil, err
	}
	return frame, vm.model, nil
}

// upload sends the model's static geometry once and the frame's dynamic buffers every tick.
func (v *viewer) upload(vm *viewerModel, frame animator.Frame) error {
	if v.renderer == nil {
		return nil
	}
	if !vm.uploaded {
		if err := v.renderer.UploadModel(vm.model); err != nil {
			return err
		}
		vm.uploaded = true
	}
	return v.renderer.UploadFrame(frame)
}

func (v *viewer) profile() {
	if v.profilingEnabled {
		v.profiler.Tick()
	}
}

// drop removes model i after a failure and keeps the selection on a valid model.
func (v *viewer) drop(i int, cause error) {
	name := v.models[i].model.Name()
	log.Printf("[Viewer] dropping model %q: %v", name, cause)

	v.models = append(v.models[:i], v.models[i+1:]...)
	switch {
	case len(v.models) == 0:
		v.selection.Model = -1
	case v.selection.Model >= len(v.models):
		v.selection.Model = len(v.models) - 1
	}
	v.selection.Node = 0
}

// selected returns the selected model entry. Must be called with mu held.
func (v *viewer) selected() *viewerModel {
	if v.selection.Model < 0 || v.selection.Model >= len(v.models) {
		return nil
	}
	return v.models[v.selection.Model]
}

// hierarchy returns the joint hierarchy of a skinned node of the selected model.
func (v *viewer) hierarchy(node uint32) (*model.JointHierarchy, error) {
	vm := v.selected()
	if vm == nil {
		return nil, errors.New("no model selected")
	}
	n := vm.model.Node(node)
	if n == nil || n.Skin == nil {
		return nil, common.Invariantf("model %q: node %d is not skinned", vm.model.Name(), node)
	}
	return n.Skin, nil
}

func (v *viewer) joint(ref JointRef) (*model.Joint, error) {
	h, err := v.hierarchy(ref.Node)
	if err != nil {
		return nil, err
	}
	if ref.Joint < 0 || ref.Joint >= h.Len() {
		return nil, common.Invariantf("joint %d out of range (have %d)", ref.Joint, h.Len())
	}
	return &h.Joints[ref.Joint], nil
}

// editJoint forces the selected model's player to Static and then runs edit on the joint, so the
// next frame shows the authored transform instead of overwriting it with the clip.
func (v *viewer) editJoint(ref JointRef, edit func(j *model.Joint)) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	j, err := v.joint(ref)
	if err != nil {
		return err
	}
	v.selected().animator.Player().ForceStatic()
	edit(j)
	return nil
}
