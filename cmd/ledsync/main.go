package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/coreman2200/ledsync/config"
	"github.com/coreman2200/ledsync/model"
	"github.com/coreman2200/ledsync/monitor"
	"github.com/coreman2200/ledsync/pattern"
	"github.com/coreman2200/ledsync/periphhal"
	"github.com/coreman2200/ledsync/runner"
	"github.com/coreman2200/ledsync/strip"
	"github.com/coreman2200/ledsync/ws2812"
)

// options are the command-line settings that can override the config file.
type options struct {
	configPath string
	backend    string
	leds       int
	pattern    string
	addr       string
	console    bool
	verbose    bool
}

func (o *options) register(fs *flag.FlagSet) {
	fs.StringVar(&o.configPath, "config", "ledsync.yaml", "path to config yaml")
	fs.StringVar(&o.backend, "backend", "", "backend: symbol | nrz | console")
	fs.IntVar(&o.leds, "leds", 0, "number of LEDs on the strip")
	fs.StringVar(&o.pattern, "pattern", "", "pattern: solid | index_sweep | rgb_channels | rainbow")
	fs.StringVar(&o.addr, "addr", "", "monitor listen address")
	fs.BoolVar(&o.console, "console", false, "force the console backend (no hardware output)")
	fs.BoolVar(&o.verbose, "v", false, "debug logging")
}

// apply copies every flag set on the command line over cfg. Flags left at
// their defaults never override the file.
func (o *options) apply(fs *flag.FlagSet, cfg *config.Config) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			cfg.Backend = o.backend
		case "leds":
			cfg.LEDs = o.leds
		case "pattern":
			cfg.Pattern = o.pattern
		case "addr":
			cfg.Monitor.Addr = o.addr
		}
	})
	if o.console {
		cfg.Backend = "console"
	}
}

func main() {
	// ---- Flags ----
	var opts options
	opts.register(flag.CommandLine)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if opts.verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	// ---- Config (explicit flags override the file) ----
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		log.Warn().Err(err).Str("path", opts.configPath).Msg("config load failed; proceeding with flags")
		cfg = config.Default()
	}
	opts.apply(flag.CommandLine, cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid settings")
	}
	model.MaxBrightness = cfg.MaxBrightness

	plan, err := cfg.Plan()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid pattern")
	}

	// ---- Strip ----
	s, closer := openStrip(cfg)
	if closer != nil {
		defer closer()
	}

	// ---- Loop & monitor ----
	loop := runner.NewLooper(s, pattern.NewRunner(plan), cfg.LEDs)
	loop.FPS = cfg.FPS
	loop.Brightness = cfg.Brightness
	loop.WhiteCap = cfg.WhiteCap
	loop.BudgetMA = cfg.BudgetMA

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	if cfg.Monitor.Addr != "" {
		mon := monitor.New(s.String(), cfg.LEDs)
		loop.Publisher = mon

		srv := &http.Server{
			Addr:         cfg.Monitor.Addr,
			Handler:      mon.Handler(),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		g.Go(func() error {
			log.Info().Str("addr", srv.Addr).Stringer("strip", s).Msg("monitor starting")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			return srv.Close()
		})
	}

	g.Go(func() error {
		defer stop()
		return loop.Run(ctx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Uint64("frames", loop.Frames()).Msg("stopped")
	} else {
		log.Info().Uint64("frames", loop.Frames()).Msg("shutting down")
	}

	if err := s.Halt(); err != nil {
		log.Warn().Err(err).Msg("halt failed")
	}
}

// openStrip picks the backend; any hardware failure falls back to the
// console so the pattern can still be watched.
func openStrip(cfg *config.Config) (strip.Strip, func()) {
	if cfg.Backend == "console" {
		return strip.NewConsole(cfg.LEDs), nil
	}

	if _, err := host.Init(); err != nil {
		log.Warn().Err(err).Msg("periph host init failed; falling back to console")
		return strip.NewConsole(cfg.LEDs), nil
	}
	port, err := spireg.Open(cfg.SPI.Port)
	if err != nil {
		log.Warn().Err(err).Str("port", cfg.SPI.Port).Msg("SPI open failed; falling back to console")
		return strip.NewConsole(cfg.LEDs), nil
	}
	closer := func() { _ = port.Close() }

	s, err := hardwareStrip(cfg, port)
	if err != nil {
		log.Warn().Err(err).
			Str("backend", cfg.Backend).
			Str("port", port.String()).
			Msg("strip init failed; falling back to console")
		closer()
		return strip.NewConsole(cfg.LEDs), nil
	}
	log.Info().Stringer("strip", s).Int("leds", cfg.LEDs).Msg("strip ready")
	return s, closer
}

func hardwareStrip(cfg *config.Config, port spi.Port) (strip.Strip, error) {
	if cfg.Backend == "nrz" {
		return strip.NewNRZ(port, cfg.LEDs, cfg.NRZFreq())
	}

	var pin gpio.PinOut
	if cfg.SPI.LatchPin != "" {
		if p := gpioreg.ByName(cfg.SPI.LatchPin); p != nil {
			pin = p
		} else {
			log.Warn().Str("pin", cfg.SPI.LatchPin).Msg("latch pin not found; MOSI idles low on its own")
		}
	}
	hw := periphhal.New(port, pin)

	dc := cfg.Driver()
	dc.Logger = log.Logger.With().Str("component", "ws2812").Logger()
	drv, err := ws2812.Init(hw, dc)
	if err != nil {
		return nil, err
	}
	if err := hw.CheckFrame(cfg.LEDs); err != nil {
		return nil, err
	}
	return strip.NewSymbol(drv, hw, cfg.LEDs), nil
}
