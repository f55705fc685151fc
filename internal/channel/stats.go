package channel

import (
	"math"
	"sync"
	"time"
)

// delayStats is Welford's online algorithm over per-packet inter-arrival
// intervals, in seconds.
type delayStats struct {
	mu    sync.Mutex
	count uint64
	mean  float64
	m2    float64
	min   float64
	max   float64
}

// update folds one new interval into the running statistics.
func (d *delayStats) update(interval time.Duration) {
	x := interval.Seconds()
	d.mu.Lock()
	defer d.mu.Unlock()
	d.count++
	delta := x - d.mean
	d.mean += delta / float64(d.count)
	d.m2 += delta * (x - d.mean)
	if d.count == 1 || x < d.min {
		d.min = x
	}
	if d.count == 1 || x > d.max {
		d.max = x
	}
}

// DelayStats is a point-in-time snapshot of delayStats, in seconds.
type DelayStats struct {
	Count  uint64
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

func (d *delayStats) snapshot() DelayStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	var variance float64
	if d.count > 1 {
		variance = d.m2 / float64(d.count-1)
	}
	return DelayStats{
		Count:  d.count,
		Mean:   d.mean,
		StdDev: math.Sqrt(variance),
		Min:    d.min,
		Max:    d.max,
	}
}
