package sensors

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gr-butler/windsensor/env"
	"github.com/gr-butler/windsensor/pulse"
	"github.com/jonboulle/clockwork"
	logger "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
)

// how long an edge wait may block before the context is checked again
const edgeTimeout = time.Millisecond * 500

// TickSource turns clock time into pulse counter ticks. The remainder below
// one tick is carried over so no time is lost between edges.
type TickSource struct {
	clock clockwork.Clock
	last  time.Time
	rem   time.Duration
}

func NewTickSource(clock clockwork.Clock) *TickSource {
	return &TickSource{clock: clock, last: clock.Now()}
}

// Elapsed returns the whole ticks since the previous call.
func (t *TickSource) Elapsed() uint64 {
	now := t.clock.Now()
	d := now.Sub(t.last) + t.rem
	t.last = now
	if d < 0 {
		t.rem = 0
		return 0
	}
	t.rem = d % env.TickResolution
	return uint64(d / env.TickResolution)
}

// Anemometer feeds the edges of the rotation and direction lines into the
// pulse capture.
type Anemometer struct {
	capture   *pulse.Capture
	rotation  gpio.PinIn
	direction gpio.PinIn // nil when the direction comes from an angle sensor
	lock      sync.Mutex
	ticks     *TickSource
	args      env.Args
}

func NewAnemometer(c *pulse.Capture, rotation, direction gpio.PinIn, clock clockwork.Clock, args env.Args) (*Anemometer, error) {
	if rotation == nil {
		return nil, fmt.Errorf("anemometer: no rotation pin")
	}
	for _, p := range []gpio.PinIn{rotation, direction} {
		if p == nil {
			continue
		}
		if err := p.In(gpio.PullUp, gpio.FallingEdge); err != nil {
			return nil, fmt.Errorf("anemometer pin %v: %w", p, err)
		}
		logger.Infof("%s: %s", p, p.Function())
	}
	return &Anemometer{
		capture:   c,
		rotation:  rotation,
		direction: direction,
		ticks:     NewTickSource(clock),
		args:      args,
	}, nil
}

// Run starts one watcher per line. They stop when ctx is done.
func (a *Anemometer) Run(ctx context.Context) {
	go a.watch(ctx, "rotation", a.rotation, a.capture.RotationEdge)
	if a.direction != nil {
		go a.watch(ctx, "direction", a.direction, a.capture.DirectionEdge)
	}
}

func (a *Anemometer) watch(ctx context.Context, name string, pin gpio.PinIn, handler func()) {
	logger.Infof("Starting %v sensor on [%v]", name, pin)
	defer func() { _ = pin.Halt() }()
	for ctx.Err() == nil {
		if !pin.WaitForEdge(edgeTimeout) {
			continue
		}
		a.edge(handler)
		if env.Bool(a.args.Speedon) && name == "rotation" {
			logger.Infof("Rotation edge, count [%v] last [%v]ms", a.capture.RotationCount(), a.capture.LastRotationMs())
		}
	}
	logger.Infof("Stopped %v sensor", name)
}

// edge credits the time since the previous edge and then runs the handler,
// so both lines see one consistent tick count.
func (a *Anemometer) edge(handler func()) {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.capture.Tick(a.ticks.Elapsed())
	handler()
}
