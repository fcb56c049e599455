package profiler

import (
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-cluster/common"
)

// StageStats aggregates the timings recorded for one named stage since the last report.
type StageStats struct {
	Calls int
	Total time.Duration
	Max   time.Duration
}

// Average returns the mean duration per recorded call.
//
// Returns:
//   - time.Duration: Total / Calls, or 0 when nothing was recorded
func (s StageStats) Average() time.Duration {
	if s.Calls == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Calls)
}

// Profiler tracks frame rate, memory statistics and per-stage timings for performance
// monitoring. Stage timings may be recorded from any goroutine. Stats are logged through the
// module logger at a configurable interval.
type Profiler struct {
	mu             sync.Mutex
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	stages         map[string]StageStats
	last           map[string]StageStats
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second.
//
// Parameters:
//   - options: functional options to configure the profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		lastTime:       time.Now(),
		updateInterval: time.Second,
		stages:         make(map[string]StageStats),
		last:           make(map[string]StageStats),
	}
	for _, option := range options {
		option(p)
	}
	return p
}

// Record adds one timing sample for a stage. Safe for concurrent use.
//
// Parameters:
//   - stage: the stage name
//   - d: the measured duration
func (p *Profiler) Record(stage string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.stages[stage]
	s.Calls++
	s.Total += d
	s.Max = max(s.Max, d)
	p.stages[stage] = s
}

// Stage returns the stats of the most recent completed reporting interval for a stage, or the
// running stats if no interval has completed yet.
//
// Parameters:
//   - stage: the stage name
//
// Returns:
//   - StageStats: the stage stats
//   - bool: false if nothing was recorded for the stage
func (p *Profiler) Stage(stage string) (StageStats, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.last[stage]; ok {
		return s, true
	}
	s, ok := p.stages[stage]
	return s, ok
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, heap usage, allocation rate, GC count/pause times, total memory
// and the average and maximum time of every recorded stage.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frameCount++
	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)

	if elapsed < p.updateInterval {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	// Alloc: Bytes of allocated heap objects (live memory)
	// TotalAlloc: Cumulative bytes allocated for heap objects (increases forever, tracks churn)
	// Sys: Total bytes of memory obtained from the OS (actual process footprint)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024

	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a circular buffer of the last 256 GC pauses
	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	log := common.Logger()
	log.Info("profiler",
		"fps", fps,
		"heap_mb", allocMB,
		"alloc_rate_mb_s", allocRateMB,
		"gc", gcCount,
		"gc_last_us", lastPauseUs,
		"gc_max_us", maxPauseUs,
		"sys_mb", sysMB,
	)

	names := make([]string, 0, len(p.stages))
	for name := range p.stages {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		s := p.stages[name]
		log.Info("profiler stage", "stage", name, "calls", s.Calls, "avg", s.Average(), "max", s.Max)
	}

	p.last = p.stages
	p.stages = make(map[string]StageStats, len(p.last))
	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
