package wind

import (
	"math"
	"time"

	"github.com/gr-butler/windsensor/env"
	"github.com/gr-butler/windsensor/pulse"
)

const (
	maxSpeedHz       = 100.0 // start up spike
	maxResolutionDeg = 20.0
)

// Calibration is read once per cycle from the configuration.
type Calibration struct {
	OffsetDeg       float64
	Slope           float64
	Offset          float64 // m/s
	MaxDeviationDeg float64 // <= 0 disables rate limiting
}

// AngleReading is one poll of a magnetic angle sensor.
type AngleReading struct {
	Ready      bool
	DegreesRaw float64
	Magnitude  float64
}

type Input struct {
	Averaged       pulse.AveragedSample
	LastRotationMs float64 // latest unaveraged rotation time
	Angle          AngleReading
	Stationary     bool
	Calibration    Calibration
	Environment    *Environment
	Time           time.Time
}

// Engine converts averaged timings into wind data. It keeps the state that
// carries from one cycle to the next, so one Engine serves one sensor and is
// not safe for concurrent use.
type Engine struct {
	profile       Profile
	rawDirection  float64
	lastDirection float64
}

func NewEngine(p Profile) *Engine {
	return &Engine{profile: p}
}

func (e *Engine) Profile() Profile {
	return e.profile
}

// SetProfile switches sensor family; the held direction state is kept.
func (e *Engine) SetProfile(p Profile) {
	e.profile = p
}

// LastDirection is the corrected direction of the previous cycle.
func (e *Engine) LastDirection() float64 {
	return e.lastDirection
}

func (e *Engine) Convert(in Input) Snapshot {
	p := e.profile
	rot := in.Averaged.RotationMs
	dir := in.Averaged.DirectionMs
	if rot == 0 {
		rot = pulse.MinRotationMs
	}
	timesValid := rot < env.MaxSampleMs && dir < env.MaxSampleMs

	s := Snapshot{
		Time:        in.Time,
		Sensor:      p.Variant.String(),
		Environment: in.Environment,
	}

	// raw direction
	if p.Source == PulseTiming {
		if timesValid {
			// a missed direction pulse can leave dir longer than rot
			e.rawDirection = clamp(dir/rot*360, 0, 360)
		}
	} else {
		angle, magnitude := 0.0, 0.0
		if in.Angle.Ready {
			angle = in.Angle.DegreesRaw
			if p.Inverted {
				angle = 360 - angle
			}
			angle = clamp(angle, 0, 360)
			magnitude = in.Angle.Magnitude
		}
		s.AngleDeg = angle
		s.Magnitude = magnitude
		e.rawDirection = angle
	}
	s.RawDirection = e.rawDirection

	corrected := ApplyOffset(e.rawDirection, NormalizeOffset(in.Calibration.OffsetDeg))
	corrected = LimitDeviation(corrected, e.lastDirection, in.Calibration.MaxDeviationDeg)
	e.lastDirection = corrected
	s.Direction = corrected
	s.Direction180 = Symmetric(corrected)

	if p.Source == PulseTiming {
		s.Resolution = PulseResolution(in.LastRotationMs)
	} else {
		s.Resolution = p.Resolution
	}

	hz := 0.0
	if timesValid {
		hz = 1000 / rot / float64(p.PulsesPerRotation)
	}
	if hz > maxSpeedHz || in.Stationary {
		hz = 0
	}
	s.SpeedHz = hz

	mps := 2 * math.Pi * hz * p.Radius / Lambda
	mps = mps*in.Calibration.Slope + in.Calibration.Offset
	if mps < 0 {
		mps = 0
	}
	s.SpeedMps = mps
	s.SpeedKph = mps * env.MpsToKph
	s.SpeedKn = mps * env.MpsToKn
	s.SpeedBft = BeaufortForce(s.SpeedKn)
	return s
}

// ApplyOffset adds the mounting offset and wraps the result into 0..360.
func ApplyOffset(raw, offset float64) float64 {
	corrected := raw + offset
	switch {
	case corrected > 360:
		return corrected - 360
	case corrected < 0:
		return 360 - (math.Abs(offset) - raw)
	}
	return corrected
}

// NormalizeOffset brings an offset into -360..360 so a single wrap in
// ApplyOffset is enough.
func NormalizeOffset(offset float64) float64 {
	return math.Mod(offset, 360)
}

// LimitDeviation clamps the step from last to at most maxDev degrees. Values
// within maxDev of the 0/360 seam are passed through so a wrap is not
// mistaken for a jump.
func LimitDeviation(corrected, last, maxDev float64) float64 {
	if maxDev <= 0 {
		return corrected
	}
	if math.Abs(corrected-last) <= maxDev || corrected <= maxDev || corrected >= 360-maxDev {
		return corrected
	}
	if corrected > last {
		return last + maxDev
	}
	return last - maxDev
}

// Symmetric folds a direction onto 0..180 for either side of the boat.
func Symmetric(dir float64) float64 {
	if dir >= 0 && dir <= 180 {
		return dir
	}
	return 360 - dir
}

// PulseResolution is the angle covered by one tick at the last rotation
// time, 0 once it gets too coarse to mean anything.
func PulseResolution(rotationMs float64) float64 {
	if rotationMs <= 0 {
		return 0
	}
	res := 360 / (rotationMs * env.TicksPerMs)
	if res > maxResolutionDeg {
		return 0
	}
	return res
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
