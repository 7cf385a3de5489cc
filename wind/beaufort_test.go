package wind

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBeaufortForce(t *testing.T) {
	assert.Equal(t, 0, BeaufortForce(0))
	assert.Equal(t, 1, BeaufortForce(2))
	assert.Equal(t, 2, BeaufortForce(8))
	assert.Equal(t, 4, BeaufortForce(15))
	assert.Equal(t, 10, BeaufortForce(55.9))
	for _, kn := range []float64{56, 60, 80, 100, 150, 400} {
		assert.Equal(t, 12, BeaufortForce(kn), "kn %v", kn)
	}
	for kn := 0.0; kn < 300; kn += 0.25 {
		b := BeaufortForce(kn)
		assert.True(t, b >= 0 && b <= 12, "kn %v -> %v", kn, b)
	}
}

func TestBeaufortMonotonic(t *testing.T) {
	last := 0
	for kn := 0.0; kn < 200; kn += 0.1 {
		b := BeaufortForce(kn)
		assert.GreaterOrEqual(t, b, last, "kn %v", kn)
		last = b
	}
}

func TestDewPoint(t *testing.T) {
	assert.InDelta(t, 20.0, DewPoint(20, 100), 1e-9)
	assert.InDelta(t, 9.26, DewPoint(20, 50), 0.01)
	assert.Equal(t, 0.0, DewPoint(20, 0))
}

func TestCardinalPoint(t *testing.T) {
	assert.Equal(t, "N", CardinalPoint(0))
	assert.Equal(t, "N", CardinalPoint(359))
	assert.Equal(t, "N", CardinalPoint(360))
	assert.Equal(t, "NE", CardinalPoint(45))
	assert.Equal(t, "S", CardinalPoint(180))
	assert.Equal(t, "WSW", CardinalPoint(247.5))
	assert.Equal(t, "NW", CardinalPoint(-45))
}
