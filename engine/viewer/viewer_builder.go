package viewer

import (
	"github.com/Carmen-Shannon/oxy-viewer/engine/clock"
	"github.com/Carmen-Shannon/oxy-viewer/engine/loader"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
)

// ViewerBuilderOption is a functional option for configuring a Viewer.
// Use the With* functions to create options that are applied directly to the viewer instance.
type ViewerBuilderOption func(*viewer)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - ViewerBuilderOption: option function to apply
func WithProfiling(enabled bool) ViewerBuilderOption {
	return func(v *viewer) {
		v.profilingEnabled = enabled
	}
}

// WithTickRate sets the rate Run ticks at in ticks per second.
// Values that do not yield a positive ticker period are treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - ViewerBuilderOption: option function to apply
func WithTickRate(fps float64) ViewerBuilderOption {
	return func(v *viewer) {
		v.tickRate = tickPeriodOrDefault(fps)
	}
}

// WithClock sets the clock every player and the profiler read.
//
// Parameters:
//   - c: the clock
//
// Returns:
//   - ViewerBuilderOption: option function to apply
func WithClock(c clock.Clock) ViewerBuilderOption {
	return func(v *viewer) {
		v.clock = c
	}
}

// WithLoader sets the loader used by Load.
//
// Parameters:
//   - l: the loader
//
// Returns:
//   - ViewerBuilderOption: option function to apply
func WithLoader(l loader.Loader) ViewerBuilderOption {
	return func(v *viewer) {
		v.loader = l
	}
}

// WithRenderer sets the renderer that receives each tick's buffers. Without one, Tick only animates.
//
// Parameters:
//   - r: the renderer
//
// Returns:
//   - ViewerBuilderOption: option function to apply
func WithRenderer(r renderer.Renderer) ViewerBuilderOption {
	return func(v *viewer) {
		v.renderer = r
	}
}

// WithSkinning sets the initial skinning toggle.
func WithSkinning(enabled bool) ViewerBuilderOption {
	return func(v *viewer) {
		v.selection.Skinning = enabled
	}
}

// WithDebugJoints sets the initial debug skeleton toggle.
func WithDebugJoints(enabled bool) ViewerBuilderOption {
	return func(v *viewer) {
		v.selection.DebugJoints = enabled
	}
}

// WithAutoplay starts every model added afterwards in the Looping state.
func WithAutoplay(enabled bool) ViewerBuilderOption {
	return func(v *viewer) {
		v.autoplay = enabled
	}
}
