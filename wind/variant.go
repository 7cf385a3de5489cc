package wind

import "strings"

type Variant int

const (
	WiFi1000 Variant = iota
	Yachta
	Yachta20
	Jukolein
	Ventus
	SednavC6
)

var variantNames = map[Variant]string{
	WiFi1000: "WiFi 1000",
	Yachta:   "Yachta",
	Yachta20: "Yachta 2.0",
	Jukolein: "Jukolein",
	Ventus:   "Ventus",
	SednavC6: "Sednav c6",
}

func (v Variant) String() string {
	if name, ok := variantNames[v]; ok {
		return name
	}
	return variantNames[WiFi1000]
}

// ParseVariant maps a sensor name to its variant. Unknown names fall back to
// WiFi 1000 and ok is false.
func ParseVariant(name string) (Variant, bool) {
	for v, n := range variantNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return v, true
		}
	}
	return WiFi1000, false
}

type DirectionSource int

const (
	PulseTiming DirectionSource = iota
	MagneticAngle
)

type AngleChip int

const (
	NoChip AngleChip = iota
	AS5600
	MT6701
)

// Cup wheel radii in m, one per device family, and the shared speed factor.
const (
	RadiusWiFi   = 0.055
	RadiusYachta = 0.070
	RadiusVentus = 0.050
	Lambda       = 2.5
)

// Profile describes everything about a sensor family the conversion needs.
type Profile struct {
	Variant           Variant
	PulsesPerRotation int
	Radius            float64
	Source            DirectionSource
	Chip              AngleChip
	Resolution        float64 // degrees, 0 when computed from timing
	Inverted          bool    // angle reported as 360 - angle
	Environment       bool    // carries a BME280
}

var profiles = map[Variant]Profile{
	WiFi1000: {Variant: WiFi1000, PulsesPerRotation: 1, Radius: RadiusWiFi, Source: PulseTiming},
	Yachta:   {Variant: Yachta, PulsesPerRotation: 2, Radius: RadiusYachta, Source: MagneticAngle, Chip: AS5600, Resolution: 0.087},
	Yachta20: {Variant: Yachta20, PulsesPerRotation: 2, Radius: RadiusYachta, Source: MagneticAngle, Chip: MT6701, Resolution: 0.0219, Inverted: true},
	Jukolein: {Variant: Jukolein, PulsesPerRotation: 2, Radius: RadiusYachta, Source: MagneticAngle, Chip: AS5600, Resolution: 0.087},
	Ventus:   {Variant: Ventus, PulsesPerRotation: 1, Radius: RadiusVentus, Source: MagneticAngle, Chip: AS5600, Resolution: 0.087, Inverted: true, Environment: true},
	SednavC6: {Variant: SednavC6, PulsesPerRotation: 2, Radius: RadiusYachta, Source: MagneticAngle, Chip: AS5600, Resolution: 0.087},
}

func ProfileFor(v Variant) Profile {
	if p, ok := profiles[v]; ok {
		return p
	}
	return profiles[WiFi1000]
}
