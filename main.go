package main

import (
	"context"
	"flag"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gr-butler/windsensor/config"
	"github.com/gr-butler/windsensor/env"
	"github.com/gr-butler/windsensor/led"
	"github.com/gr-butler/windsensor/nmea"
	"github.com/gr-butler/windsensor/sensors"
	"github.com/gr-butler/windsensor/simulation"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	logger "github.com/sirupsen/logrus"
)

const version = "GRB-Windsensor-1.0.0"

var Prom_windDirection = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "winddirection",
		Help: "Wind Direction Deg",
	},
)

var Prom_windDirection180 = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "winddirection_180",
		Help: "Wind Direction Deg, folded to 0..180",
	},
)

var Prom_windspeed = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "windspeed",
		Help: "Wind Speed m/s",
	},
)

var Prom_windspeedKn = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "windspeed_kn",
		Help: "Wind Speed knots",
	},
)

var Prom_beaufort = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "windspeed_bft",
		Help: "Wind force Beaufort",
	},
)

var Prom_windHz = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "wind_hz",
		Help: "Cup wheel pulse frequency",
	},
)

var Prom_windgust = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "windgust",
		Help: "Max 3 second wind speed m/s over 10 minutes",
	},
)

var Prom_rotations = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "rotations",
		Help: "Rotation samples recorded since start",
	},
)

var Prom_dirResolution = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "direction_resolution",
		Help: "Direction resolution Deg",
	},
)

var Prom_temperature = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "temperature",
		Help: "Air Temperature C",
	},
)

var Prom_humidity = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "relative_humidity",
		Help: "Relative Humidity",
	},
)

var Prom_atmPresure = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "atmospheric_pressure",
		Help: "Atmospheric pressure hPa",
	},
)

// called by prometheus
func init() {
	logger.Infof("%v: Initialize prometheus...", time.Now().Format(time.RFC822))
	prometheus.MustRegister(
		Prom_windDirection,
		Prom_windDirection180,
		Prom_windspeed,
		Prom_windspeedKn,
		Prom_beaufort,
		Prom_windHz,
		Prom_windgust,
		Prom_rotations,
		Prom_dirResolution,
		Prom_temperature,
		Prom_humidity,
		Prom_atmPresure)
}

func main() {
	logger.Infof("Starting wind sensor [%v]", version)

	args := env.Args{
		Test:    flag.Bool("test", false, "test mode, does not send met office data, NMEA to stdout"),
		Demo:    flag.Bool("demo", false, "simulated wind, no sensor hardware needed"),
		Verbose: flag.Bool("verbose", false, "debug logging"),
		Speedon: flag.Bool("speedon", false, "log every speed calculation"),
		Diron:   flag.Bool("diron", false, "log every direction reading"),
		Config:  flag.String("config", "", "YAML configuration file"),
		Bus:     flag.String("bus", "", "I²C bus (/dev/i2c-1)"),
	}
	flag.Parse()

	if *args.Verbose {
		logger.SetLevel(logger.DebugLevel)
	}
	if *args.Test {
		logger.Info("TEST MODE")
	}

	cfg, err := config.Load(*args.Config)
	if err != nil {
		logger.Fatalf("Failed to load configuration [%v]", err)
	}
	if *args.Demo {
		cfg.Demo = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store *config.Store
	if cfg.Database.DSN != "" {
		store, err = config.OpenStore(ctx, cfg.Database.DSN, cfg.Database.Station)
		if err != nil {
			logger.Fatalf("Failed to open settings store [%v]", err)
		}
		defer store.Close()
		stored, err := store.Load(ctx, cfg.Settings)
		if err != nil {
			logger.Errorf("Failed to load stored settings, using file settings [%v]", err)
		} else {
			cfg.Settings = stored
		}
	}

	clock := clockwork.NewRealClock()
	w := newWindStation(cfg, args, clock)
	w.store = store

	if cfg.Demo {
		logger.Info("DEMO MODE - simulated wind")
		w.sim = simulation.NewGenerator(rand.New(rand.NewSource(time.Now().UnixNano())), simulation.DefaultNoise)
		w.engine.SetProfile(w.sim.Profile())
	} else {
		logger.Infof("%v: Initialize sensors...", time.Now().Format(time.RFC822))
		w.sensors, err = sensors.Open(w.engine.Profile(), w.capture, clock, args)
		if err != nil {
			logger.Errorf("Failed to initialise sensors!! [%v]", err)
			logger.Exit(1)
		}
		defer w.sensors.Close()
		w.sensors.Start(ctx)
	}

	w.activity = led.ByName("activity", env.ActivityLed, clock)
	w.activity.Flicker(3)
	go w.activity.Run(ctx)

	if cfg.NMEA.SerialPort != "" && !*args.Test {
		port, err := nmea.OpenSerial(cfg.NMEA.SerialPort, cfg.NMEA.BaudRate)
		if err != nil {
			logger.Errorf("NMEA output disabled [%v]", err)
		} else {
			defer port.Close()
			w.nmea = nmea.NewWriter(port, cfg.NMEA.Talker)
		}
	} else if *args.Test {
		w.nmea = nmea.NewWriter(os.Stdout, cfg.NMEA.Talker)
	}

	if cfg.MQTT.Broker != "" {
		client, err := newMQTTClient(cfg.MQTT)
		if err != nil {
			logger.Errorf("MQTT disabled [%v]", err)
		} else {
			defer client.Disconnect(250)
			w.mqtt = client
		}
	}

	// start go routines
	w.Start(ctx)
	if !*args.Test && cfg.WOW.Enabled {
		go w.MetofficeProcessor(ctx)
	}

	// start web service
	mux := w.routes()
	sendData, ok := os.LookupEnv("SENDPROMDATA")
	if ok && sendData == "true" && !*args.Test {
		logger.Info("Serving prometheus metrics")
		mux.Handle("/metrics", promhttp.Handler())
	}
	server := &http.Server{Addr: cfg.HTTP.Listen, Handler: mux, ReadHeaderTimeout: time.Second * 10}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		_ = server.Shutdown(shutdown)
	}()

	logger.Infof("Starting webservice on [%v]", cfg.HTTP.Listen)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Errorf("Web service failed [%v]", err)
	}
	logger.Info("Exiting...")
}
