package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/funtimes-stoneboard/internal/app"
	"github.com/coreman2200/funtimes-stoneboard/internal/board"
	"github.com/coreman2200/funtimes-stoneboard/internal/classify"
	"github.com/coreman2200/funtimes-stoneboard/internal/config"
	diag "github.com/coreman2200/funtimes-stoneboard/internal/diagnostics"
	"github.com/coreman2200/funtimes-stoneboard/internal/led"
	"github.com/coreman2200/funtimes-stoneboard/internal/mqtt"
	"github.com/coreman2200/funtimes-stoneboard/internal/mux"
	"github.com/coreman2200/funtimes-stoneboard/internal/record"
	"github.com/coreman2200/funtimes-stoneboard/internal/report"
	"github.com/coreman2200/funtimes-stoneboard/internal/scan"
	"github.com/coreman2200/funtimes-stoneboard/internal/ws"
	"github.com/coreman2200/funtimes-stoneboard/model"
)

func main() {
	// ---- Flags (remain usable; config.yaml can override most) ----
	var (
		driver      = flag.String("driver", "hw", "board: hw | sim")
		addr        = flag.String("addr", ":8080", "HTTP listen address")
		configPath  = flag.String("config", "config.yaml", "path to config.yaml")
		writeConfig = flag.Bool("write-config", false, "write the effective config to -config and exit")
		settleUs    = flag.Int("settle-us", 10, "mux settle delay (µs)")
		cycleMs     = flag.Int("cycle-ms", 100, "pause between scans (ms)")
		black       = flag.Int("black", 10, "black threshold (counts above baseline)")
		white       = flag.Int("white", 10, "white threshold (counts below baseline)")
		text        = flag.Bool("text", false, "print the board to stdout every cycle")
		serialDev   = flag.String("serial", "", "serial device for the text board, e.g. /dev/ttyUSB0")
		debug       = flag.Bool("debug", false, "debug logging")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// ---- Effective config: flags first, config.yaml overrides every key it sets ----
	cfg := config.Default()
	cfg.Driver = *driver
	cfg.Addr = *addr
	cfg.Scan = config.Scan{SettleUs: *settleUs, CycleMs: *cycleMs}
	cfg.Thresholds = classify.Thresholds{Black: int32(*black), White: int32(*white)}
	cfg.Serial.Dev = *serialDev

	if err := config.Merge(cfg, *configPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with flags")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid settings")
	}

	if *writeConfig {
		if err := config.Save(*configPath, cfg); err != nil {
			log.Fatal().Err(err).Str("path", *configPath).Msg("write config")
		}
		log.Info().Str("path", *configPath).Msg("config written")
		return
	}

	// ---- Board: hw falls back to the simulator ----
	httpMux := http.NewServeMux()
	b, sim := openBoard(cfg)
	if sim != nil {
		httpMux.HandleFunc("/sim/place", sim.HandlePlace)
	}
	defer b.Close()

	// ---- Sinks ----
	hub := ws.NewHub()
	hub.Routes(httpMux)

	var (
		sinks   report.Fanout
		closers []io.Closer
	)
	sinks = append(sinks, hub)
	closers = append(closers, hub)

	if *text {
		sinks = append(sinks, report.NewTextWriter(os.Stdout))
	} else {
		sinks = append(sinks, &report.LogSink{Log: log.Logger, OnlyChanges: true})
	}

	if cfg.Serial.Dev != "" {
		tw, err := report.OpenSerial(cfg.Serial.Dev, cfg.Serial.PortOptions)
		if err != nil {
			log.Warn().Err(err).Str("dev", cfg.Serial.Dev).Msg("serial open failed; continuing without it")
			hub.Push(sinkDown("serial", cfg.Serial.Dev, err))
		} else {
			sinks = append(sinks, tw)
			closers = append(closers, tw)
		}
	}

	if cfg.LED.Enabled {
		m, err := led.Open(led.Options{
			Port:         cfg.LED.Port,
			Freq:         physic.Frequency(cfg.LED.FreqKHz) * physic.KiloHertz,
			FlipEveryRow: cfg.LED.FlipEveryRow,
			Palette:      model.DefaultPalette.WithBrightness(cfg.LED.Brightness),
		})
		if err != nil {
			log.Warn().Err(err).Str("port", cfg.LED.Port).Msg("LED mirror failed; continuing without it")
			hub.Push(sinkDown("led", cfg.LED.Port, err))
		} else {
			sinks = append(sinks, m)
			closers = append(closers, m)
		}
	}

	if cfg.MQTT.Broker != "" {
		p, err := mqtt.Connect(cfg.MQTT)
		if err != nil {
			log.Warn().Err(err).Str("broker", cfg.MQTT.Broker).Msg("mqtt connect failed; continuing without it")
			hub.Push(sinkDown("mqtt", cfg.MQTT.Broker, err))
		} else {
			sinks = append(sinks, p)
			closers = append(closers, p)
		}
	}

	if cfg.Record.Path != "" {
		st, err := record.Open(cfg.Record.Path)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.Record.Path).Msg("move recorder failed; continuing without it")
			hub.Push(sinkDown("record", cfg.Record.Path, err))
		} else {
			log.Info().Str("session", st.Session()).Str("path", cfg.Record.Path).Msg("recording moves")
			sinks = append(sinks, st)
			closers = append(closers, st)
		}
	}

	// ---- Calibrate (board must be empty) ----
	sc := scan.New(b.Rows, b.Cols, b.ADC, cfg.Settle())
	core, err := app.InitCore(sc, sinks, app.Settings{
		Thresholds:  cfg.Thresholds,
		Orientation: cfg.Orientation,
		Pause:       cfg.Cycle(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("calibration failed")
	}
	hub.Push(diag.Diagnostic{
		Severity: diag.Info,
		Code:     "CALIB.DONE",
		Summary:  "Baseline captured; stones may be placed",
		Evidence: map[string]any{"settle_us": cfg.Scan.SettleUs, "driver": cfg.Driver},
	})

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      withCORS(httpMux),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ---- Run scan loop & server ----
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", cfg.Addr).Str("driver", cfg.Driver).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server crashed")
		}
	}()

	_ = core.Run(ctx)
	log.Info().Msg("shutting down")

	_ = srv.Close()
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			log.Warn().Err(err).Msg("close sink")
		}
	}
}

func openBoard(cfg *config.Config) (*board.Board, *board.Sim) {
	if cfg.Driver == "hw" {
		b, err := board.Open(board.Options{
			RowPins:    pins4(cfg.Pins.Rows),
			ColPins:    pins4(cfg.Pins.Cols),
			I2CBus:     cfg.ADC.I2CBus,
			ADCAddr:    cfg.ADC.Address,
			Channel:    cfg.ADC.Channel,
			MaxVoltage: physic.ElectricPotential(cfg.ADC.MaxMilliV) * physic.MilliVolt,
			SampleRate: physic.Frequency(cfg.ADC.RateHz) * physic.Hertz,
		})
		if err == nil {
			return b, nil
		}
		log.Warn().Err(err).Str("driver", "hw").Msg("board init failed; falling back to SIM")
		cfg.Driver = "sim"
	}
	sim := board.NewSim()
	b, err := sim.Board()
	if err != nil {
		log.Fatal().Err(err).Msg("sim board")
	}
	return b, sim
}

func pins4(names []string) [mux.Lines]string {
	var out [mux.Lines]string
	copy(out[:], names)
	return out
}

func sinkDown(sink, target string, err error) diag.Diagnostic {
	return diag.Diagnostic{
		Severity:       diag.Warn,
		Code:           "SINK.UNAVAILABLE",
		Summary:        sink + " output is not running",
		Detail:         err.Error(),
		LikelyCauses:   []string{"device missing or busy", "wrong path or address in config"},
		SuggestedFixes: []string{"check " + target, "fix config.yaml and restart"},
		Evidence:       map[string]any{"sink": sink, "target": target},
	}
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(200)
			return
		}
		h.ServeHTTP(w, r)
	})
}
