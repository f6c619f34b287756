package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/l1jgo/poitrack/internal/config"
	"github.com/l1jgo/poitrack/internal/core/clock"
	"github.com/l1jgo/poitrack/internal/core/event"
	coresys "github.com/l1jgo/poitrack/internal/core/system"
	"github.com/l1jgo/poitrack/internal/data"
	"github.com/l1jgo/poitrack/internal/poi"
	"github.com/l1jgo/poitrack/internal/scripting"
	"github.com/l1jgo/poitrack/internal/sim"
	"github.com/l1jgo/poitrack/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner() {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m             poitrack  v0.1.0              \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m     proximity-scheduled map markers       \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main loop ─────────────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/poitrack.toml"
	if p := os.Getenv("POITRACK_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner()

	// 3. Load data and scripts
	printSection("Data")
	styles, err := data.LoadStyleTable(cfg.Data.Styles)
	if err != nil {
		return fmt.Errorf("load class styles: %w", err)
	}
	printStat("Class styles", styles.Count())

	var policy poi.IconPolicy = poi.DefaultIconPolicy{}
	if cfg.Data.ScriptsDir != "" {
		engine, err := scripting.NewEngine(cfg.Data.ScriptsDir, log)
		if err != nil {
			return fmt.Errorf("init lua engine: %w", err)
		}
		defer engine.Close()
		policy = engine
		printOK("Lua icon policy loaded")
	}

	// 4. Metrics
	var metrics *telemetry.Metrics
	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics = telemetry.New(reg)
		metricsSrv = newMetricsServer(cfg.Metrics.BindAddress, reg)
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	// 5. Tracker and host simulation
	printSection("Tracker")
	clk := clock.Real{}
	bus := event.NewBus()
	world := sim.NewWorld(cfg.Sim, clk, bus, log)

	tracker, err := poi.NewTracker(poi.Options{
		Clock:     clk,
		Logger:    log,
		Transform: world.Transform(),
		Styles:    styles,
		Policy:    policy,
		Metrics:   metrics,
	}.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("init tracker: %w", err)
	}
	tracker.Subscribe(bus)
	b := tracker.Classifier().Bands()
	printOK(fmt.Sprintf("bands %g/%g/%gm, intervals %s/%s/%s",
		b.Near, b.OptimalFar, b.MaxTracked, b.NearInterval, b.OptimalInterval, b.FarInterval))

	runner := coresys.NewRunner()
	runner.Register(tracker.Systems(bus)...)
	runner.Register(world.Systems()...)
	world.Start()
	printStat("Simulated entities", cfg.Sim.Entities)

	// 6. Start loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Tracker.TickRate)
	defer ticker.Stop()

	var statsC <-chan time.Time
	if cfg.Tracker.StatsEvery > 0 {
		statsTicker := time.NewTicker(cfg.Tracker.StatsEvery)
		defer statsTicker.Stop()
		statsC = statsTicker.C
	}
	var deadline <-chan time.Time
	if cfg.Sim.Duration > 0 {
		deadline = time.After(cfg.Sim.Duration)
	}

	printSection("Ready")
	if metricsSrv != nil {
		printReady(fmt.Sprintf("metrics on http://%s/metrics", cfg.Metrics.BindAddress))
	}
	printReady(fmt.Sprintf("loop started (tick: %s)", cfg.Tracker.TickRate))
	fmt.Println()

	stop := func(reason string) error {
		log.Info("shutting down", zap.String("reason", reason))
		tracker.Teardown("shutdown")
		if metricsSrv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsSrv.Shutdown(ctx)
		}
		log.Info("stopped",
			zap.Int("spawned", world.Spawned()),
			zap.Int("despawned", world.Despawned()))
		return nil
	}

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Tracker.TickRate)
		case <-statsC:
			logStats(log, tracker)
		case <-deadline:
			return stop("duration elapsed")
		case sig := <-shutdownCh:
			return stop(sig.String())
		}
	}
}

func logStats(log *zap.Logger, tracker *poi.Tracker) {
	s := tracker.Stats()
	log.Info("tracker stats",
		zap.Int("tracked", s.Tracked),
		zap.Int("pending", s.Pending),
		zap.Int("active", s.Active),
		zap.Int("updating", s.Updating),
		zap.Int("tasks", s.Tasks),
		zap.Int("near", s.PerTier[poi.TierNear]),
		zap.Int("optimal", s.PerTier[poi.TierOptimal]),
		zap.Int("far", s.PerTier[poi.TierFar]),
		zap.Int("untracked", s.PerTier[poi.TierNone]),
		zap.Uint64("sweeps", tracker.Sweep().Runs()))
}

func newMetricsServer(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	log, err := zapCfg.Build()
	if err != nil || cfg.File == "" {
		return log, err
	}

	// Rotating JSON file alongside the console output.
	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}),
		level,
	)
	return log.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, fileCore)
	})), nil
}
