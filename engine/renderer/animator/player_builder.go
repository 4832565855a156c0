package animator

import (
	"github.com/Carmen-Shannon/oxy-viewer/engine/clock"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
)

// PlayerBuilderOption is a functional option for configuring a Player during construction.
type PlayerBuilderOption func(*player)

// WithClock is an option builder that sets the clock driving Looping playback.
//
// Parameters:
//   - c: the clock to read "now" from
//
// Returns:
//   - PlayerBuilderOption: a function that applies the clock option to a player
func WithClock(c clock.Clock) PlayerBuilderOption {
	return func(p *player) {
		p.clock = c
	}
}

// WithClips is an option builder that sets the clips the player can select from.
// The first clip is selected.
//
// Parameters:
//   - clips: the model's animation clips
//
// Returns:
//   - PlayerBuilderOption: a function that applies the clips option to a player
func WithClips(clips []*model.AnimationClip) PlayerBuilderOption {
	return func(p *player) {
		p.clips = clips
	}
}

// WithState is an option builder that sets the initial playback state.
// A Scrubbable or Looping state also selects its clip; an out of range clip falls back to Static.
//
// Parameters:
//   - state: the initial state
//
// Returns:
//   - PlayerBuilderOption: a function that applies the state option to a player
func WithState(state PlaybackState) PlayerBuilderOption {
	return func(p *player) {
		if state != nil {
			p.state = state
		}
	}
}
