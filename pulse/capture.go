package pulse

import (
	"sync"

	"github.com/gr-butler/windsensor/buffer"
	"github.com/gr-butler/windsensor/env"
)

/*
Pulse capture

The rotation sensor gives an edge once per rotation, the direction sensor an
edge when the vane passes its reference. Both times are counted on the 100us
tick:

	time1 = rotation edge -> next rotation edge   (one full rotation)
	time2 = rotation edge -> direction edge       (angular offset)

The capture alternates on rotation edges. An edge with no count running
stores the sample and starts counting, the following edge stops it. A
direction edge in the first half of the rotation is stored as is (0..180
deg), later ones as time2 - time1 so the average can be folded back across
the 0/360 seam.

The handlers stand in for interrupt routines: they never block and share one
lock, which plays the part of disabling interrupts. Task side readers only
copy under that lock.
*/

type Capture struct {
	lock sync.Mutex

	ticksSinceRotation  uint64
	ticksSinceDirection uint64
	counting            bool // rotation count in progress
	awaitDirection      bool // direction count in progress

	rawDirPulses   int
	dirPulses      int
	rotations      uint64
	lastRotationMs float64

	ring  *buffer.SampleRing
	ready chan struct{}
}

func NewCapture(window int) *Capture {
	return &Capture{
		ring:  buffer.NewSampleRing(window),
		ready: make(chan struct{}, 1),
	}
}

// Tick credits n timer ticks to whichever counts are running.
func (c *Capture) Tick(n uint64) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.counting {
		c.ticksSinceRotation += n
	}
	if c.awaitDirection {
		c.ticksSinceDirection += n
	}
}

func (c *Capture) RotationEdge() {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.counting {
		c.counting = false
		c.dirPulses = c.rawDirPulses
		c.rawDirPulses = 0
		return
	}
	time1 := float64(c.ticksSinceRotation) / env.TicksPerMs
	time2 := float64(c.ticksSinceDirection) / env.TicksPerMs
	c.record(time1, time2)
	c.ticksSinceRotation = 0
	c.ticksSinceDirection = 0
	c.counting = true
	c.awaitDirection = true
}

func (c *Capture) DirectionEdge() {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.awaitDirection = false
	if c.counting {
		c.rawDirPulses++
	}
}

// Record stores a rotation/direction time pair (ms) as if it had been
// measured by the edge handlers.
func (c *Capture) Record(time1, time2 float64) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.record(time1, time2)
}

func (c *Capture) record(time1, time2 float64) {
	time1 = clampMs(time1)
	time2 = clampMs(time2)
	c.lastRotationMs = time1
	c.ring.Write(c.rotations, WrapSample(time1, time2))
	c.rotations++
	select {
	case c.ready <- struct{}{}:
	default:
	}
}

// WrapSample applies the 0/360 rule: a direction time past half a rotation
// is stored as a negative offset from the next rotation pulse.
func WrapSample(time1, time2 float64) buffer.RawSample {
	if time2 <= time1/2 {
		return buffer.RawSample{RotationMs: time1, DirectionMs: time2}
	}
	return buffer.RawSample{RotationMs: time1, DirectionMs: time2 - time1}
}

func clampMs(ms float64) float64 {
	if ms > env.MaxSampleMs {
		return env.MaxSampleMs
	}
	return ms
}

// Ready signals (coalesced) that at least one new sample was stored.
func (c *Capture) Ready() <-chan struct{} {
	return c.ready
}

// SetWindow changes the ring window; see buffer.SampleRing.Resize.
func (c *Capture) SetWindow(window int) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.ring.Resize(window)
}

// Snapshot copies the active window out of the ring. filled is false while
// the window is still warming up.
func (c *Capture) Snapshot(dst []buffer.RawSample) (n int, filled bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.ring.Copy(dst), c.ring.Filled()
}

func (c *Capture) RotationCount() uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.rotations
}

// LastRotationMs is the most recent unaveraged rotation time.
func (c *Capture) LastRotationMs() float64 {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.lastRotationMs
}

// DirectionPulses is the number of direction pulses seen during the last
// complete rotation count.
func (c *Capture) DirectionPulses() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.dirPulses
}
