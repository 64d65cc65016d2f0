package core

import "time"

type Clock struct {
	startTime float64
	elapsed   float64
}

func NewClock() *Clock {
	return &Clock{}
}

// Updates the provided clock. Should be called just before checking elapsed time.
// Has no effect on non-started clocks.
func (c *Clock) Update() {
	if c.startTime != 0 {
		c.elapsed = float64(time.Now().UnixNano()) - c.startTime
	}
}

// Starts the provided clock. Resets elapsed time.
func (c *Clock) Start() {
	c.startTime = float64(time.Now().UnixNano())
	c.elapsed = 0
}

// Stops the provided clock. Does not reset elapsed time.
func (c *Clock) Stop() {
	c.startTime = 0
}

// Elapsed returns the elapsed time in seconds.
func (c *Clock) Elapsed() float64 {
	return c.elapsed / float64(time.Second)
}

// FrameClock tracks per-frame delta and total time. The first Tick only
// records the reference point, so both values stay zero until the second.
type FrameClock struct {
	now     func() time.Time
	last    time.Time
	started bool
	delta   float64
	total   float64
}

func NewFrameClock() *FrameClock {
	return &FrameClock{now: time.Now}
}

// NewFrameClockWithSource builds a clock that reads time from now.
func NewFrameClockWithSource(now func() time.Time) *FrameClock {
	return &FrameClock{now: now}
}

func (fc *FrameClock) Tick() {
	t := fc.now()
	if !fc.started {
		fc.last = t
		fc.started = true
		return
	}
	fc.delta = t.Sub(fc.last).Seconds()
	fc.total += fc.delta
	fc.last = t
}

// DeltaTime is the time between the last two ticks, in seconds.
func (fc *FrameClock) DeltaTime() float64 {
	return fc.delta
}

// TotalTime is the sum of all deltas, in seconds.
func (fc *FrameClock) TotalTime() float64 {
	return fc.total
}
