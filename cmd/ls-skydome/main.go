// Command ls-skydome is a terminal planetarium: the sky dome seen from an
// observer's location, with star, Sun and Moon positions and time-lapse
// trajectory arcs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/litescript/ls-skydome/internal/astro"
	"github.com/litescript/ls-skydome/internal/catalog"
	"github.com/litescript/ls-skydome/internal/config"
	"github.com/litescript/ls-skydome/internal/export"
	"github.com/litescript/ls-skydome/internal/logging"
	"github.com/litescript/ls-skydome/internal/scene"
	"github.com/litescript/ls-skydome/internal/simclock"
	"github.com/litescript/ls-skydome/internal/state"
	"github.com/litescript/ls-skydome/internal/trajectory"
	"github.com/litescript/ls-skydome/internal/ui"
	"github.com/litescript/ls-skydome/internal/version"
)

// CLI flags for headless mode
var (
	positionsMode  bool
	jsonPath       string
	trajectoryName string
	eventsMode     bool
	watchInterval  time.Duration
)

func main() {
	configPath := flag.String("config", "", "Path to a JSON config file")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	logFile := flag.String("log-file", "", "Write logs to this file")
	lat := flag.Float64("lat", 0, "Observer latitude in degrees")
	lon := flag.Float64("lon", 0, "Observer longitude in degrees, positive east")
	utcOffset := flag.Float64("utc-offset", 0, "Observer UTC offset in hours")
	at := flag.String("at", "", "Start time (RFC3339 or \"now\")")
	scale := flag.Float64("scale", 0, "Simulated seconds per real second")
	stars := flag.String("catalog", "", "JSONL star catalog (default: built-in)")
	lines := flag.String("lines", "", "Constellation lines JSON (default: built-in)")
	strategy := flag.String("strategy", "", "Trajectory strategy (direct, rigid)")
	segments := flag.Int("segments", 0, "Trajectory segments")
	duration := flag.Float64("duration", 0, "Trajectory duration in hours")
	startOffset := flag.Float64("start-offset", 0, "Trajectory start offset in hours")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.BoolVar(&positionsMode, "positions", false, "Print a positions table instead of the TUI")
	flag.StringVar(&jsonPath, "json", "", "Export the frame, or the -trajectory, as JSON (use - for stdout)")
	flag.StringVar(&trajectoryName, "trajectory", "", "Print the trajectory of a body (name or \"HIP n\")")
	flag.BoolVar(&eventsMode, "events", false, "Show the event log")
	flag.DurationVar(&watchInterval, "watch", 0, "Repeat headless output at interval (e.g., 5s)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("ls-skydome v%s\n", version.Version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}
	if err := cfg.ApplyEnvironmentOverrides(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	// Flags given on the command line win over the file and environment
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "log-level":
			cfg.Logging.Level = *logLevel
		case "log-file":
			cfg.Logging.File = *logFile
		case "lat":
			cfg.Observer.Latitude = *lat
		case "lon":
			cfg.Observer.Longitude = *lon
		case "utc-offset":
			cfg.Observer.UTCOffset = *utcOffset
		case "at":
			cfg.Clock.Start = *at
		case "scale":
			cfg.Clock.TimeScale = *scale
		case "catalog":
			cfg.Catalog.StarsPath = *stars
		case "lines":
			cfg.Catalog.LinesPath = *lines
		case "strategy":
			cfg.Trajectory.Strategy = *strategy
		case "segments":
			cfg.Trajectory.Segments = *segments
		case "duration":
			cfg.Trajectory.DurationHours = *duration
		case "start-offset":
			cfg.Trajectory.StartOffsetHours = *startOffset
		}
	})
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}

	headless := positionsMode || jsonPath != "" || trajectoryName != "" || eventsMode ||
		!term.IsTerminal(int(os.Stdout.Fd()))

	// Set up logging
	logger := logging.New(cfg.LogLevel())
	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fatal(fmt.Errorf("open log file: %w", err))
		}
		defer f.Close()
		logger.SetOutput(f)
	} else if !headless {
		// Log lines would tear the alt screen
		logger.SetOutput(io.Discard)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	stateMgr, computer, err := build(cfg, logger)
	if err != nil {
		fatal(err)
	}

	if headless {
		if err := runHeadless(ctx, stateMgr, computer, logger); err != nil {
			fatal(err)
		}
		return
	}

	model := ui.New(stateMgr, computer, cfg.TickInterval(), logger)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

// build wires the catalog, scene engine, clock and state manager.
func build(cfg *config.Config, logger *logging.Logger) (*state.Manager, *trajectory.Computer, error) {
	cat, lineGroups, err := loadCatalog(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	opts, err := cfg.SceneOptions()
	if err != nil {
		return nil, nil, err
	}
	engine := scene.New(cat, lineGroups.Resolve(cat, logger), opts, logger)

	start, err := cfg.StartTime(time.Now())
	if err != nil {
		return nil, nil, err
	}
	clk := simclock.FromTime(start, cfg.Clock.TimeScale)

	window, err := cfg.Window()
	if err != nil {
		return nil, nil, err
	}
	stateCfg := state.DefaultConfig()
	stateCfg.Window = window
	stateMgr := state.NewManager(stateCfg, engine, clk, cfg.ObserverValue())

	computer, err := trajectory.NewComputer(cfg.Trajectory.CacheSize, logger)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Trajectory.Workers > 0 {
		computer.SetWorkers(cfg.Trajectory.Workers)
	}

	logger.Debug("observer %+v, start %s, %d stars", cfg.ObserverValue(), start.Format(time.RFC3339), cat.Len())
	return stateMgr, computer, nil
}

func loadCatalog(cfg *config.Config, logger *logging.Logger) (*catalog.Catalog, *catalog.Constellations, error) {
	builtinStars, builtinLines, err := catalog.Default(logger)
	if err != nil {
		return nil, nil, err
	}

	cat := builtinStars
	if cfg.Catalog.StarsPath != "" {
		unit, err := catalog.ParseRAUnit(cfg.Catalog.RAUnit)
		if err != nil {
			return nil, nil, err
		}
		c, rep, err := catalog.LoadFile(cfg.Catalog.StarsPath, catalog.Options{RAUnit: unit, Logger: logger})
		if err != nil {
			return nil, nil, err
		}
		if rep.Skipped > 0 || rep.Duplicates > 0 {
			logger.Warn("catalog: skipped %d lines, %d duplicates", rep.Skipped, rep.Duplicates)
		}
		cat = c
	}

	lineGroups := builtinLines
	if cfg.Catalog.LinesPath != "" {
		cs, err := catalog.LoadConstellationsFile(cfg.Catalog.LinesPath)
		if err != nil {
			return nil, nil, err
		}
		lineGroups = cs
	}
	return cat, lineGroups, nil
}

// runHeadless handles all headless modes without starting the TUI.
func runHeadless(ctx context.Context, stateMgr *state.Manager, computer *trajectory.Computer, logger *logging.Logger) error {
	// Plain stdout with no mode selected falls back to the table
	if !positionsMode && jsonPath == "" && trajectoryName == "" && !eventsMode {
		positionsMode = true
	}

	outputOnce := func() error {
		snap := stateMgr.Snapshot()
		simTime := snap.Clock.Time()

		// With -trajectory the JSON document is the trajectory instead
		if jsonPath != "" && trajectoryName == "" {
			if err := writeJSON(export.ExportFrame(snap.Frame, simTime)); err != nil {
				return err
			}
		}

		if positionsMode {
			export.WritePositionsTable(os.Stdout, snap.Frame, simTime)
		}

		if trajectoryName != "" {
			if err := writeTrajectory(ctx, stateMgr, computer, snap.Clock.UTCOffset); err != nil {
				return err
			}
		}

		if eventsMode {
			writeEvents(os.Stdout, stateMgr.RecentEvents(10))
		}
		return nil
	}

	if watchInterval == 0 {
		return outputOnce()
	}

	// Watch mode: advance the clock and repeat at interval
	if err := outputOnce(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}

	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			logger.Debug("watch loop shutting down")
			return nil
		case now := <-ticker.C:
			stateMgr.Tick(now.Sub(last))
			last = now
			fmt.Println()
			if err := outputOnce(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
		}
	}
}

// jsonWriter is any export document.
type jsonWriter interface {
	WriteJSON(w io.Writer) error
}

func writeJSON(e jsonWriter) error {
	if jsonPath == "-" {
		if err := e.WriteJSON(os.Stdout); err != nil {
			return fmt.Errorf("write JSON to stdout: %w", err)
		}
		return nil
	}
	f, err := os.Create(jsonPath)
	if err != nil {
		return fmt.Errorf("create JSON file: %w", err)
	}
	defer f.Close()
	if err := e.WriteJSON(f); err != nil {
		return fmt.Errorf("write JSON to file: %w", err)
	}
	return nil
}

func writeTrajectory(ctx context.Context, stateMgr *state.Manager, computer *trajectory.Computer, utcOffset float64) error {
	reqs, err := stateMgr.TrajectoryRequests(trajectoryName)
	if err != nil {
		return err
	}
	results, err := computer.ComputeAll(ctx, reqs)
	if err != nil {
		return err
	}
	stateMgr.ApplyTrajectories(results)
	for _, r := range results {
		if r.Err != nil {
			return fmt.Errorf("trajectory %s: %w", trajectoryName, r.Err)
		}
		if jsonPath != "" {
			if err := writeJSON(export.ExportTrajectory(r.Sample, utcOffset)); err != nil {
				return err
			}
			continue
		}
		export.WriteTrajectory(os.Stdout, r.Sample, utcOffset)
	}
	return nil
}

func writeEvents(w io.Writer, events []state.Event) {
	fmt.Fprintln(w, "Events:")
	if len(events) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for _, e := range events {
		what := e.Body
		if e.Detail != "" {
			what += " " + e.Detail
		}
		line := fmt.Sprintf("  %s  %-18s %s", e.SimTime.Format("2006-01-02 15:04"), e.Type, what)
		if e.Type == state.EventRise || e.Type == state.EventSet {
			line += fmt.Sprintf(" (az %.0f°)", astro.NormalizeDegrees(e.Azimuth))
		}
		fmt.Fprintln(w, line)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
