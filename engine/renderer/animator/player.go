package animator

import (
	"fmt"
	"log"
	"math"
	"time"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/clock"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
)

// --- Playback States ---

// PlaybackState is the playback mode of a Player. Exactly one of Static, Scrubbable or Looping.
type PlaybackState interface {
	fmt.Stringer
	isPlaybackState()
}

// Static leaves every joint at its authored transform. No clip is applied.
type Static struct{}

// Scrubbable shows Clip at its current time; the time only moves through SetCurrentTime.
type Scrubbable struct {
	Clip int
}

// Looping plays Clip continuously. Start is the clock reading that maps to clip time 0.
type Looping struct {
	Clip  int
	Start time.Duration
}

func (Static) String() string       { return "Static" }
func (s Scrubbable) String() string { return fmt.Sprintf("Scrubbable(clip %d)", s.Clip) }
func (l Looping) String() string    { return fmt.Sprintf("Looping(clip %d, start %v)", l.Clip, l.Start) }

func (Static) isPlaybackState()     {}
func (Scrubbable) isPlaybackState() {}
func (Looping) isPlaybackState()    {}

// --- Player ---

// player is the implementation of the Player interface.
type player struct {
	clock clock.Clock
	clips []*model.AnimationClip

	state PlaybackState

	// selected is the clip shown once playback leaves Static.
	selected int
}

// Player drives the playback time of a model's animation clips.
//
// The time of a clip lives on the clip itself (AnimationClip.CurrentTime), so switching clips keeps
// each clip's position. A Player is not safe for concurrent use.
type Player interface {
	// State returns the current playback state.
	State() PlaybackState

	// ActiveClip returns the selected clip index, or -1 when the model has no clips.
	ActiveClip() int

	// SetActiveClip selects a clip. Scrubbable and Looping states switch to it immediately.
	//
	// Parameters:
	//   - index: the clip index
	//
	// Returns:
	//   - error: error if index is out of range
	SetActiveClip(index int) error

	// Clip returns the selected clip, or nil when the model has no clips.
	Clip() *model.AnimationClip

	// PoseClip returns the clip whose pose should be applied this frame.
	//
	// Returns:
	//   - *model.AnimationClip: the active clip
	//   - bool: false in Static or when there is no clip
	PoseClip() (*model.AnimationClip, bool)

	// CurrentTime returns the selected clip's playback position in seconds.
	CurrentTime() float32

	// SetCurrentTime scrubs the selected clip to t, clamped to [0, EndTime].
	// Any state other than Static moves to Scrubbable; Static only records the time. NaN is ignored.
	//
	// Parameters:
	//   - t: the new playback position in seconds
	SetCurrentTime(t float32)

	// TogglePlay starts looping from Static or Scrubbable with the clock's current reading as start,
	// and drops from Looping back to Scrubbable on the same clip.
	//
	// Returns:
	//   - PlaybackState: the new state
	TogglePlay() PlaybackState

	// Stop returns to Static.
	Stop()

	// ForceStatic returns to Static. Every path that writes a joint's authored transform calls it
	// first so the next frame's pose does not overwrite the edit.
	ForceStatic()

	// Advance updates the current time from the clock while Looping. Other states are unchanged.
	//
	// Returns:
	//   - float32: the selected clip's current time after the update
	Advance() float32
}

var _ Player = &player{}

// NewPlayer creates a Player in the Static state with the system clock and no clips unless
// configured otherwise.
//
// Parameters:
//   - options: a variadic list of PlayerBuilderOption functions
//
// Returns:
//   - Player: the configured player
func NewPlayer(options ...PlayerBuilderOption) Player {
	p := &player{
		state: Static{},
	}

	for _, option := range options {
		option(p)
	}

	if p.clock == nil {
		p.clock = clock.NewSystemClock()
	}
	switch s := p.state.(type) {
	case Scrubbable:
		p.selected = s.Clip
	case Looping:
		p.selected = s.Clip
	}
	if p.selected < 0 || p.selected >= len(p.clips) {
		p.state = Static{}
		p.selected = min(0, len(p.clips)-1)
	}
	return p
}

func (p *player) State() PlaybackState {
	return p.state
}

func (p *player) ActiveClip() int {
	return p.selected
}

func (p *player) SetActiveClip(index int) error {
	if index < 0 || index >= len(p.clips) {
		return common.Invariantf("clip index %d out of range (have %d)", index, len(p.clips))
	}
	p.selected = index

	switch s := p.state.(type) {
	case Scrubbable:
		p.setState(Scrubbable{Clip: index})
	case Looping:
		p.setState(Looping{Clip: index, Start: s.Start})
	}
	return nil
}

func (p *player) Clip() *model.AnimationClip {
	if p.selected < 0 || p.selected >= len(p.clips) {
		return nil
	}
	return p.clips[p.selected]
}

func (p *player) PoseClip() (*model.AnimationClip, bool) {
	if _, static := p.state.(Static); static {
		return nil, false
	}
	clip := p.Clip()
	return clip, clip != nil
}

func (p *player) CurrentTime() float32 {
	if clip := p.Clip(); clip != nil {
		return clip.CurrentTime
	}
	return 0
}

func (p *player) SetCurrentTime(t float32) {
	clip := p.Clip()
	if clip == nil || math.IsNaN(float64(t)) {
		return
	}
	clip.CurrentTime = common.Clamp(t, 0, clip.EndTime)

	if _, static := p.state.(Static); !static {
		p.setState(Scrubbable{Clip: p.selected})
	}
}

func (p *player) TogglePlay() PlaybackState {
	if p.Clip() == nil {
		return p.state
	}

	switch s := p.state.(type) {
	case Looping:
		p.setState(Scrubbable{Clip: s.Clip})
	default:
		p.setState(Looping{Clip: p.selected, Start: p.clock.Now()})
	}
	return p.state
}

func (p *player) Stop() {
	p.setState(Static{})
}

func (p *player) ForceStatic() {
	if _, static := p.state.(Static); static {
		return
	}
	p.setState(Static{})
}

func (p *player) Advance() float32 {
	s, ok := p.state.(Looping)
	if !ok {
		return p.CurrentTime()
	}
	clip := p.clips[s.Clip]
	clip.CurrentTime = loopTime(p.clock.Now()-s.Start, clip.EndTime)
	return clip.CurrentTime
}

// --- Helper Functions ---

// setState records a transition and logs it.
func (p *player) setState(next PlaybackState) {
	if p.state == next {
		return
	}
	log.Printf("[Player] %v -> %v", p.state, next)
	p.state = next
}

// loopTime converts an elapsed duration into a clip time, wrapping past endTime.
// A clip with no duration always reads 0.
func loopTime(elapsed time.Duration, endTime float32) float32 {
	t := clock.Seconds(elapsed)
	if endTime <= 0 {
		return 0
	}
	if t > endTime {
		t = float32(math.Mod(float64(t), float64(endTime)))
	}
	return max(t, 0)
}
