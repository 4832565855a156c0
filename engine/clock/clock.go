package clock

import (
	"runtime"
	"sync"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"
)

// Clock is a monotonic time source. Now is measured from an arbitrary, fixed origin, so only
// differences between two readings are meaningful.
type Clock interface {
	// Now returns the elapsed time since the clock's origin.
	//
	// Returns:
	//   - time.Duration: the current reading
	Now() time.Duration
}

// --- System Clock ---

type systemClock struct {
	origin time.Time
}

var _ Clock = &systemClock{}

// NewSystemClock creates a Clock backed by the runtime's monotonic clock, with its origin at creation.
//
// Returns:
//   - Clock: the system clock
func NewSystemClock() Clock {
	return &systemClock{origin: time.Now()}
}

func (c *systemClock) Now() time.Duration {
	return time.Since(c.origin)
}

// --- GLFW Clock ---

type glfwClock struct{}

var _ Clock = &glfwClock{}

// NewGLFWClock creates a Clock reading glfw.GetTime. GLFW must be initialized before Now is called;
// its origin is glfw.Init.
//
// Returns:
//   - Clock: the GLFW clock
func NewGLFWClock() Clock {
	return &glfwClock{}
}

func (c *glfwClock) Now() time.Duration {
	return time.Duration(glfw.GetTime() * float64(time.Second))
}

// InitGLFW initializes GLFW on the calling goroutine's OS thread for hosts that have no window layer
// of their own. GLFW requires every later call to come from the same thread.
//
// Returns:
//   - func(): terminates GLFW
//   - error: error if GLFW cannot be initialized
func InitGLFW() (func(), error) {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		runtime.UnlockOSThread()
		return nil, errors.Wrap(err, "failed to initialize GLFW")
	}
	return func() {
		glfw.Terminate()
		runtime.UnlockOSThread()
	}, nil
}

// --- Manual Clock ---

// Manual is a Clock whose reading only changes when told to. Safe for concurrent use.
type Manual struct {
	mu  sync.Mutex
	now time.Duration
}

var _ Clock = &Manual{}

// NewManual creates a manual clock reading start.
//
// Parameters:
//   - start: the initial reading
//
// Returns:
//   - *Manual: the manual clock
func NewManual(start time.Duration) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set moves the clock to an absolute reading.
func (m *Manual) Set(now time.Duration) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

// Advance moves the clock forward by d and returns the new reading.
func (m *Manual) Advance(d time.Duration) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now += d
	return m.now
}

// Seconds converts a clock reading to float seconds, the unit keyframe times use.
func Seconds(d time.Duration) float32 {
	return float32(d.Seconds())
}
