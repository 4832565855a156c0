package profiler

import (
	"log"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-viewer/engine/clock"
)

// Stats is the summary of one profiling interval.
type Stats struct {
	FPS float64

	// Frames is the number of ticks in the interval.
	Frames int

	// AnimationAvg and AnimationMax summarize the recorded animation step durations.
	AnimationAvg time.Duration
	AnimationMax time.Duration

	HeapMB float64
	GCs    uint32
}

// Profiler tracks frame rate, animation step cost and memory statistics.
// Outputs stats to the log at a configurable interval.
type Profiler struct {
	clock          clock.Clock
	frameCount     int
	lastTime       time.Duration
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	stepTotal time.Duration
	stepMax   time.Duration
	steps     int

	last Stats
}

// NewProfiler creates a new Profiler reading c.
// Update interval defaults to 1 second.
//
// Parameters:
//   - c: the clock frames are timed with, or nil for the system clock
//   - interval: the logging interval, or 0 for the default
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(c clock.Clock, interval time.Duration) *Profiler {
	if c == nil {
		c = clock.NewSystemClock()
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Profiler{
		clock:          c,
		lastTime:       c.Now(),
		updateInterval: interval,
		memStats:       runtime.MemStats{},
	}
}

// RecordStep adds the duration of one animation step to the current interval.
//
// Parameters:
//   - d: the time the step took
func (p *Profiler) RecordStep(d time.Duration) {
	p.stepTotal += d
	p.steps++
	if d > p.stepMax {
		p.stepMax = d
	}
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, animation step cost, heap usage, allocation rate, GC count/pause times.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.frameCount++
	currentTime := p.clock.Now()
	elapsed := currentTime - p.lastTime

	if elapsed < p.updateInterval {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	gcCount := p.memStats.NumGC
	var maxPauseUs uint64
	if gcCount > 0 {
		// PauseNs is a circular buffer of last 256 GC pauses
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	var avg time.Duration
	if p.steps > 0 {
		avg = p.stepTotal / time.Duration(p.steps)
	}

	p.last = Stats{
		FPS:          fps,
		Frames:       p.frameCount,
		AnimationAvg: avg,
		AnimationMax: p.stepMax,
		HeapMB:       allocMB,
		GCs:          gcCount,
	}
	log.Printf("[Profiler] FPS: %.2f | Anim: avg %v, max %v | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (max pause: %d µs)",
		fps, avg, p.stepMax, allocMB, allocRateMB, gcCount, maxPauseUs)

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	p.stepTotal, p.stepMax, p.steps = 0, 0, 0
	return true
}

// Last returns the stats of the most recently logged interval.
func (p *Profiler) Last() Stats {
	return p.last
}
