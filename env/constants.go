package env

import "time"

const (
	GPIO04 = "GPIO04"
	GPIO05 = "GPIO05"
	GPIO06 = "GPIO06"
	GPIO12 = "GPIO12"
	GPIO13 = "GPIO13"
	GPIO17 = "GPIO17"
	GPIO19 = "GPIO19" // activity LED
	GPIO20 = "GPIO20" // heartbeat LED
	GPIO22 = "GPIO22" // direction pin
	GPIO27 = "GPIO27" // rotation pin

	RotationSensorIn  = GPIO27
	DirectionSensorIn = GPIO22

	ActivityLed  = GPIO19
	HeartbeatLed = GPIO20

	// The pulse counters run on a 100us tick, times are stored in ms.
	TickResolution = time.Microsecond * 100
	TicksPerMs     = 10

	// Timing samples above this are clamped so the average stays usable.
	MaxSampleMs = 1000.0

	MinWindow = 1
	MaxWindow = 10

	AveragePeriod = time.Millisecond * 50
	WindPeriod    = time.Millisecond * 500
	SendPeriod    = time.Second
	SlowPeriod    = time.Second * 3
	ReportFreqMin = 15

	// 10 minutes of history at the conversion cadence.
	HistoryLength    = int(time.Minute * 10 / WindPeriod)
	GustSamples      = int(time.Second * 3 / WindPeriod)
	LEDFlashDuration = time.Millisecond * 50

	// I2C addresses
	AS5600Addr  uint16 = 0x36
	MT6701Addr  uint16 = 0x06
	BME280Addr  uint16 = 0x76
	MCP9808Addr uint16 = 0x18

	MpsToKph  = 3.6
	MpsToKn   = 1.94384
	MpsToMph  = 2.23694
	HPaToInHg = 0.02953
)
