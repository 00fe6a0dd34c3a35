package profiler

import (
	"log"
	"runtime"
	"sync"
	"time"
)

// Sample is one measured load.
type Sample struct {
	Label    string
	Duration time.Duration

	// AllocBytes is the number of heap bytes allocated while the load ran.
	AllocBytes uint64

	// GCs is the number of garbage collections that completed while the load ran.
	GCs uint32
}

// Profiler tracks load duration and memory statistics for performance monitoring.
// Outputs one stats line to the log per measured load when logging is enabled.
type Profiler struct {
	mu       sync.Mutex
	logging  bool
	memStats runtime.MemStats
	samples  []Sample
}

// NewProfiler creates a new Profiler.
//
// Parameters:
//   - logging: whether each measurement is written to the log
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(logging bool) *Profiler {
	return &Profiler{
		logging:  logging,
		memStats: runtime.MemStats{},
	}
}

// Measure runs fn and records how long it took and how much it allocated.
// Statistics include: duration, heap usage, allocated bytes, GC count/last pause time, total memory.
// Concurrent measurements are allowed; their allocation counts overlap.
//
// Parameters:
//   - label: the name the sample is recorded under
//   - fn: the work to measure
//
// Returns:
//   - error: the error returned by fn
func (p *Profiler) Measure(label string, fn func() error) error {
	if p == nil {
		return fn()
	}

	p.mu.Lock()
	runtime.ReadMemStats(&p.memStats)
	startAlloc := p.memStats.TotalAlloc
	startGC := p.memStats.NumGC
	p.mu.Unlock()

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	p.mu.Lock()
	defer p.mu.Unlock()

	runtime.ReadMemStats(&p.memStats)
	sample := Sample{
		Label:      label,
		Duration:   elapsed,
		AllocBytes: p.memStats.TotalAlloc - startAlloc,
		GCs:        p.memStats.NumGC - startGC,
	}
	p.samples = append(p.samples, sample)

	if p.logging {
		// Alloc: Bytes of allocated heap objects (live memory)
		// Sys: Total bytes of memory obtained from the OS (actual process footprint)
		allocMB := float64(p.memStats.Alloc) / 1024 / 1024
		sysMB := float64(p.memStats.Sys) / 1024 / 1024
		loadMB := float64(sample.AllocBytes) / 1024 / 1024

		var lastPauseUs uint64
		if p.memStats.NumGC > 0 {
			// PauseNs is a circular buffer of last 256 GC pauses
			lastPauseUs = p.memStats.PauseNs[(p.memStats.NumGC-1)%256] / 1000
		}

		log.Printf("[Profiler] %s: %v | Heap: %.2f MB | Allocated: %.2f MB | GC: %d (last: %d µs) | Sys: %.2f MB",
			label, elapsed, allocMB, loadMB, sample.GCs, lastPauseUs, sysMB)
	}

	return err
}

// Samples returns a copy of every recorded sample in completion order.
//
// Returns:
//   - []Sample: the recorded samples
func (p *Profiler) Samples() []Sample {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Sample(nil), p.samples...)
}
