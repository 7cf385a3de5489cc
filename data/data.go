package data

import (
	"math"

	"github.com/gr-butler/windsensor/buffer"
	"github.com/gr-butler/windsensor/wind"
)

// holder for the report history of the published wind data. Nothing here is
// fed back into the measurement.

const (
	Speed  = "speed"   // m/s
	DirSin = "dir_sin" // direction as a unit vector so the mean survives 0/360
	DirCos = "dir_cos"
)

type WindHistory struct {
	buffers map[string]*buffer.SampleBuffer
}

// Summary is the report view of the history.
type Summary struct {
	MeanMps   float64
	GustMps   float64
	MaxMps    float64
	Direction float64
}

func NewWindHistory(length int) *WindHistory {
	wh := &WindHistory{buffers: make(map[string]*buffer.SampleBuffer)}
	wh.AddBuffer(Speed, buffer.NewBuffer(length))
	wh.AddBuffer(DirSin, buffer.NewBuffer(length))
	wh.AddBuffer(DirCos, buffer.NewBuffer(length))
	return wh
}

func (wh *WindHistory) AddBuffer(name string, b *buffer.SampleBuffer) {
	wh.buffers[name] = b
}

func (wh *WindHistory) GetBuffer(name string) *buffer.SampleBuffer {
	return wh.buffers[name]
}

func (wh *WindHistory) Add(s wind.Snapshot) {
	rad := s.Direction * math.Pi / 180
	wh.buffers[Speed].AddItem(s.SpeedMps)
	wh.buffers[DirSin].AddItem(math.Sin(rad))
	wh.buffers[DirCos].AddItem(math.Cos(rad))
}

// Summarise returns the mean over the whole history and the gust as the
// highest mean of gustSamples consecutive readings.
func (wh *WindHistory) Summarise(gustSamples int) Summary {
	mean, _, max, _ := wh.buffers[Speed].GetAverageMinMaxSum()
	gust := wh.buffers[Speed].MaxRollingAverage(gustSamples)
	s, _, _, _ := wh.buffers[DirSin].GetAverageMinMaxSum()
	c, _, _, _ := wh.buffers[DirCos].GetAverageMinMaxSum()
	return Summary{
		MeanMps:   float64(mean),
		GustMps:   float64(gust),
		MaxMps:    float64(max),
		Direction: meanDirection(float64(s), float64(c)),
	}
}

func meanDirection(s, c float64) float64 {
	if math.Abs(s) < 1e-9 && math.Abs(c) < 1e-9 {
		return 0
	}
	deg := math.Atan2(s, c) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return deg
}
