package wind

import "math"

const (
	maxBeaufort = 12
	hurricaneKn = 56.0 // from here on the force is always 12
)

// BeaufortForce uses the cubic fit
//
//	bft = 0.0000222*kn^3 - 0.0034132*kn^2 + 0.2981666*kn + 0.1467082
//
// rounded half away from zero and capped at 12.
func BeaufortForce(kn float64) int {
	if kn >= hurricaneKn {
		return maxBeaufort
	}
	v2 := kn * kn
	raw := 0.0000222*v2*kn - 0.0034132*v2 + 0.2981666*kn + 0.1467082
	bft := int(math.Round(raw))
	if bft > maxBeaufort {
		return maxBeaufort
	}
	if bft < 0 {
		return 0
	}
	return bft
}

// DewPoint uses the Magnus formula, temp in C and humidity in %RH. A sensor
// reporting no humidity gives 0.
func DewPoint(tempC, humidity float64) float64 {
	const (
		k2 = 17.62
		k3 = 243.12
	)
	if humidity <= 0 {
		return 0
	}
	term1 := (k2 * tempC) / (k3 + tempC)
	term2 := (k2 * k3) / (k3 + tempC)
	term3 := math.Log(humidity / 100)
	return k3 * ((term1 + term3) / (term2 - term3))
}

var compass = [...]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// CardinalPoint names the 16 point compass sector of a direction.
func CardinalPoint(deg float64) string {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return compass[int(math.Floor(deg/22.5+0.5))%len(compass)]
}
