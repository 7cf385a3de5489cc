package data

import (
	"testing"

	"github.com/gr-butler/windsensor/wind"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummariseMeanAndGust(t *testing.T) {
	wh := NewWindHistory(10)
	for _, v := range []float64{2, 2, 2, 8, 9, 10, 2, 2, 2, 2} {
		wh.Add(wind.Snapshot{SpeedMps: v, Direction: 90})
	}
	s := wh.Summarise(3)
	assert.InDelta(t, 4.1, s.MeanMps, 1e-9)
	assert.InDelta(t, 9.0, s.GustMps, 1e-9)
	assert.Equal(t, 10.0, s.MaxMps)
	assert.InDelta(t, 90.0, s.Direction, 1e-9)
}

func TestSummariseDirectionAcrossNorth(t *testing.T) {
	wh := NewWindHistory(4)
	for _, d := range []float64{350, 10, 350, 10} {
		wh.Add(wind.Snapshot{SpeedMps: 5, Direction: d})
	}
	s := wh.Summarise(2)
	// 0 or 360 are both north
	dir := s.Direction
	if dir > 180 {
		dir -= 360
	}
	assert.InDelta(t, 0, dir, 1e-6)

	wh = NewWindHistory(2)
	wh.Add(wind.Snapshot{Direction: 200})
	wh.Add(wind.Snapshot{Direction: 280})
	assert.InDelta(t, 240, wh.Summarise(1).Direction, 1e-6)
}

func TestFirstSampleFillsHistory(t *testing.T) {
	wh := NewWindHistory(5)
	wh.Add(wind.Snapshot{SpeedMps: 3, Direction: 45})
	s := wh.Summarise(2)
	assert.InDelta(t, 3.0, s.MeanMps, 1e-9)
	assert.InDelta(t, 3.0, s.GustMps, 1e-9)
	assert.InDelta(t, 45.0, s.Direction, 1e-6)
	require.NotNil(t, wh.GetBuffer(Speed))
	assert.Equal(t, 5, wh.GetBuffer(Speed).GetSize())
}

func TestMeanDirectionCalm(t *testing.T) {
	assert.Equal(t, 0.0, meanDirection(0, 0))
}
