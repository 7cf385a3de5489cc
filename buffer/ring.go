package buffer

import "github.com/gr-butler/windsensor/env"

// RawSample is one measurement per rotation. DirectionMs is negative when
// the direction pulse arrived in the second half of the rotation.
type RawSample struct {
	RotationMs  float64
	DirectionMs float64
}

// SampleRing holds the last Window() raw samples, indexed by rotation count
// modulo the window. It has no lock of its own: the pulse capture lock
// guards every access.
type SampleRing struct {
	data   [env.MaxWindow]RawSample
	window int
	filled int
}

func NewSampleRing(window int) *SampleRing {
	r := &SampleRing{}
	r.Resize(window)
	return r
}

// ClampWindow limits a configured window size to [MinWindow, MaxWindow] and
// reports whether it had to be changed.
func ClampWindow(window int) (int, bool) {
	switch {
	case window < env.MinWindow:
		return env.MinWindow, true
	case window > env.MaxWindow:
		return env.MaxWindow, true
	}
	return window, false
}

// Resize changes the active window. The ring counts as empty again until a
// full window has been written with the new size.
func (r *SampleRing) Resize(window int) {
	window, _ = ClampWindow(window)
	if window == r.window {
		return
	}
	r.window = window
	r.filled = 0
}

func (r *SampleRing) Window() int {
	return r.window
}

func (r *SampleRing) Write(count uint64, s RawSample) {
	r.data[count%uint64(r.window)] = s
	if r.filled < r.window {
		r.filled++
	}
}

// Filled is false while slots of the current window are still unwritten.
func (r *SampleRing) Filled() bool {
	return r.filled >= r.window
}

// Copy copies the active window into dst and returns the number of samples.
func (r *SampleRing) Copy(dst []RawSample) int {
	return copy(dst, r.data[:r.window])
}
