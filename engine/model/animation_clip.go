package model

import "github.com/Carmen-Shannon/oxy-viewer/common"

// DefaultCurrentTime is the playback position of a freshly loaded clip. It sits just past the
// start so a paused clip shows a pose instead of a possibly degenerate t=0 frame.
const DefaultCurrentTime float32 = 0.1

// NewAnimationClip creates a clip and derives its end time from the channels.
//
// Parameters:
//   - name: the clip name
//   - channels: the clip's channels
//
// Returns:
//   - *AnimationClip: the clip, with CurrentTime set to DefaultCurrentTime
func NewAnimationClip(name string, channels []Channel) *AnimationClip {
	return &AnimationClip{
		Name:        name,
		Channels:    channels,
		EndTime:     EndTime(channels),
		CurrentTime: DefaultCurrentTime,
	}
}

// EndTime returns the maximum last-keyframe time across channels, or 0 when there are none.
func EndTime(channels []Channel) float32 {
	var end float32
	for i := range channels {
		if n := len(channels[i].Times); n > 0 && channels[i].Times[n-1] > end {
			end = channels[i].Times[n-1]
		}
	}
	return end
}

// Validate checks the structural invariants of a channel.
//
// Returns:
//   - error: ErrMalformedAsset when times are not strictly ascending or the value count
//     does not match the time count
func (c *Channel) Validate() error {
	if c.Values == nil {
		return common.Malformedf("channel for node %d has no values", c.Node)
	}
	if c.Values.Len() != len(c.Times) {
		return common.Malformedf("channel for node %d: %d %s values for %d keyframe times",
			c.Node, c.Values.Len(), c.Values.Kind(), len(c.Times))
	}
	for i := 1; i < len(c.Times); i++ {
		if !(c.Times[i] > c.Times[i-1]) {
			return common.Malformedf("channel for node %d: keyframe time %d (%g) does not follow %g",
				c.Node, i, c.Times[i], c.Times[i-1])
		}
	}
	return nil
}

// TargetsNode reports whether any channel of the clip animates the given glTF node.
func (a *AnimationClip) TargetsNode(nodeIndex int) bool {
	for i := range a.Channels {
		if a.Channels[i].Node == nodeIndex {
			return true
		}
	}
	return false
}
