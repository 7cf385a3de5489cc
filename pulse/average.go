package pulse

import (
	"sync"

	"github.com/gr-butler/windsensor/buffer"
	"github.com/gr-butler/windsensor/env"
	logger "github.com/sirupsen/logrus"
)

// MinRotationMs replaces a zero rotation average before anything divides by it.
const MinRotationMs = 0.1

type AveragedSample struct {
	RotationMs  float64
	DirectionMs float64
}

// Averager reduces the capture ring to one averaged sample per period.
type Averager struct {
	capture *Capture
	lock    sync.Mutex
	latest  AveragedSample
	window  int
}

func NewAverager(c *Capture) *Averager {
	return &Averager{capture: c}
}

// Run performs one averaging cycle with the configured window size. During
// warm-up the previous average is kept. It reports whether a new average was
// published.
func (a *Averager) Run(window int) bool {
	size, clamped := buffer.ClampWindow(window)
	if clamped {
		logger.Warnf("Average window [%v] out of range [%v..%v], using [%v]", window, env.MinWindow, env.MaxWindow, size)
	}
	a.lock.Lock()
	if size != a.window {
		a.capture.SetWindow(size)
		a.window = size
	}
	a.lock.Unlock()

	var samples [env.MaxWindow]buffer.RawSample
	n, filled := a.capture.Snapshot(samples[:])
	if !filled || n == 0 {
		return false
	}

	avg := Mean(samples[:n])

	a.lock.Lock()
	a.latest = avg
	a.lock.Unlock()
	return true
}

// Mean averages both columns and folds a negative direction average back
// into the rotation.
func Mean(samples []buffer.RawSample) AveragedSample {
	if len(samples) == 0 {
		return AveragedSample{RotationMs: MinRotationMs}
	}
	var sumRot, sumDir float64
	for _, s := range samples {
		sumRot += s.RotationMs
		sumDir += s.DirectionMs
	}
	avg := AveragedSample{
		RotationMs:  sumRot / float64(len(samples)),
		DirectionMs: sumDir / float64(len(samples)),
	}
	if avg.DirectionMs < 0 {
		avg.DirectionMs += avg.RotationMs
	}
	if avg.RotationMs == 0 {
		avg.RotationMs = MinRotationMs
	}
	return avg
}

func (a *Averager) Latest() AveragedSample {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.latest
}
