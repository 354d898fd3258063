package control

import (
	"sort"
	"time"
)

// FanCount is the number of physical condenser fans under rotation.
const FanCount = 6

// FanUnit is the wear bookkeeping for one physical fan.
// RunTime and OffTime only ever grow; Streak is the length of the current
// on or off period and restarts whenever Active flips.
type FanUnit struct {
	RunTime time.Duration `json:"run_time"`
	OffTime time.Duration `json:"off_time"`
	Active  bool          `json:"active"`
	Streak  time.Duration `json:"streak"`
	Started bool          `json:"started"`
}

// WearPolicy limits how fans are picked from the rotation queue.
// A zero field disables that limit.
type WearPolicy struct {
	// MaxRuntime is the longest continuous run before a fan is swapped for a rested one.
	MaxRuntime time.Duration
	// MinOffTime is the shortest rest before a fan that has run may start again.
	MinOffTime time.Duration
}

// Rotation is the fan arena plus the order in which fans are offered for duty.
type Rotation struct {
	Units [FanCount]FanUnit `json:"units"`
	// Queue holds fan indexes; it is a permutation of 0..FanCount-1 once initialised.
	Queue       [FanCount]int `json:"queue"`
	Initialized bool          `json:"initialized"`
}

// NewRotation returns a rotation with the queue in ascending fan order.
func NewRotation() Rotation {
	var r Rotation
	r.init()
	return r
}

func (r *Rotation) init() {
	for i := range r.Queue {
		r.Queue[i] = i
	}
	r.Initialized = true
}

// Advance re-sorts the queue by accumulated runtime, runs the first
// activeFans fans it selects for one tick and rests the rest.
// It returns which fans are on after the tick.
func (r Rotation) Advance(activeFans int, policy WearPolicy, tick time.Duration) (Rotation, [FanCount]bool) {
	if !r.Initialized {
		r.init()
	}
	if activeFans < 0 {
		activeFans = 0
	}
	if activeFans > FanCount {
		activeFans = FanCount
	}

	queue := r.Queue[:]
	sort.SliceStable(queue, func(i, j int) bool {
		return r.Units[queue[i]].RunTime < r.Units[queue[j]].RunTime
	})

	var on [FanCount]bool
	picked := 0
	// Rested fans first in queue order, then anyone left if demand still needs them.
	for pass := 0; pass < 2 && picked < activeFans; pass++ {
		for _, id := range r.Queue {
			if picked == activeFans {
				break
			}
			if on[id] {
				continue
			}
			if pass == 0 && !policy.eligible(r.Units[id]) {
				continue
			}
			on[id] = true
			picked++
		}
	}

	for id := range r.Units {
		r.Units[id] = r.Units[id].advance(on[id], tick)
	}
	return r, on
}

func (p WearPolicy) eligible(u FanUnit) bool {
	if u.Active {
		return p.MaxRuntime <= 0 || u.Streak < p.MaxRuntime
	}
	return !u.Started || p.MinOffTime <= 0 || u.Streak >= p.MinOffTime
}

func (u FanUnit) advance(on bool, tick time.Duration) FanUnit {
	if on != u.Active {
		u.Streak = 0
	}
	u.Active = on
	u.Streak += tick
	if on {
		u.RunTime += tick
		u.Started = true
	} else {
		u.OffTime += tick
	}
	return u
}

// Spread is the difference between the most and least used fan.
func (r Rotation) Spread() time.Duration {
	lo, hi := r.Units[0].RunTime, r.Units[0].RunTime
	for _, u := range r.Units[1:] {
		if u.RunTime < lo {
			lo = u.RunTime
		}
		if u.RunTime > hi {
			hi = u.RunTime
		}
	}
	return hi - lo
}
