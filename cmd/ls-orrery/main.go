// Command ls-orrery is an interactive solar system orrery for the terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/litescript/ls-orrery/internal/bodies"
	"github.com/litescript/ls-orrery/internal/camera"
	"github.com/litescript/ls-orrery/internal/config"
	"github.com/litescript/ls-orrery/internal/engine"
	"github.com/litescript/ls-orrery/internal/events"
	"github.com/litescript/ls-orrery/internal/logging"
	"github.com/litescript/ls-orrery/internal/metrics"
	"github.com/litescript/ls-orrery/internal/render"
	"github.com/litescript/ls-orrery/internal/ui"
	"github.com/litescript/ls-orrery/internal/version"
)

const (
	defaultFrames   = 300
	shutdownTimeout = 3 * time.Second

	asciiWidth  = 80
	asciiHeight = 24
)

// flags holds the command line. Zero values leave the config untouched.
type flags struct {
	configPath   string
	logLevel     string
	logFile      string
	metricsAddr  string
	fps          int
	noColor      bool
	showVersion  bool
	summary      bool
	ascii        bool
	snapshotPath string
	frames       int
}

func parseFlags(args []string) (flags, error) {
	var f flags
	fs := flag.NewFlagSet("ls-orrery", flag.ContinueOnError)
	fs.StringVar(&f.configPath, "config", "", "Config file (yaml, toml or json)")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.logFile, "log-file", "", "Append logs to this file while the TUI runs")
	fs.StringVar(&f.metricsAddr, "metrics-addr", "", "Serve /metrics, /events and /snapshot on this address")
	fs.IntVar(&f.fps, "fps", 0, "Frame rate (1-120)")
	fs.BoolVar(&f.noColor, "no-color", false, "Disable colors")
	fs.BoolVar(&f.showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&f.summary, "summary", false, "Print a text summary instead of the TUI")
	fs.BoolVar(&f.ascii, "ascii", false, "Print one rendered frame instead of the TUI")
	fs.StringVar(&f.snapshotPath, "snapshot-path", "", "Export JSON snapshot to file (use - for stdout)")
	fs.IntVar(&f.frames, "frames", defaultFrames, "Frames to simulate before headless output")
	if err := fs.Parse(args); err != nil {
		return f, err
	}
	if f.frames < 1 {
		f.frames = 1
	}
	return f, nil
}

func (f flags) headless() bool {
	return f.summary || f.ascii || f.snapshotPath != ""
}

// apply lays explicit flags over the loaded config.
func (f flags) apply(cfg *config.Config) {
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if f.logFile != "" {
		cfg.Log.File = f.logFile
	}
	if f.metricsAddr != "" {
		cfg.Metrics.Addr = f.metricsAddr
	}
	if f.fps != 0 {
		cfg.Render.FPS = min(max(f.fps, config.MinFPS), config.MaxFPS)
	}
	if f.noColor {
		cfg.Render.Color = false
	}
}

func main() {
	f, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}
	if f.showVersion {
		fmt.Printf("ls-orrery %s\n", version.Version)
		return
	}

	cfg, err := config.Load(f.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	f.apply(cfg)

	reg, err := cfg.Registry()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Without a terminal there is nothing to draw the TUI on.
	headless := f.headless() || !term.IsTerminal(int(os.Stdout.Fd()))
	if headless && !f.summary && !f.ascii && f.snapshotPath == "" {
		f.summary = true
	}

	logger, err := openLogger(cfg, headless)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()
	if cfg.File != "" {
		logger.Info("loaded config from %s", cfg.File)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	collector := metrics.NewCollector()
	hub := events.NewHub(events.Options{
		OnClients: collector.SetEventClients,
		Logger:    logger,
	})
	defer hub.Close()
	store := &snapshotStore{}

	opts := cfg.EngineOptions()
	opts.Metrics = collector
	opts.Logger = logger

	// served is closed once the side channel has shut down.
	var served chan struct{}
	if cfg.Metrics.Addr != "" {
		ln, err := net.Listen("tcp", cfg.Metrics.Addr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: listen on %s: %v\n", cfg.Metrics.Addr, err)
			os.Exit(1)
		}
		srv := newServer(cfg.Metrics.Addr, collector, hub, store)
		served = make(chan struct{})
		go func() {
			defer close(served)
			serve(ctx, srv, ln, logger)
		}()
	}

	if headless {
		out := headlessOutput{
			summary:      f.summary,
			ascii:        f.ascii,
			color:        cfg.Render.Color && term.IsTerminal(int(os.Stdout.Fd())),
			snapshotPath: f.snapshotPath,
		}
		run := headlessRun{frames: f.frames, fps: cfg.Render.FPS, mode: cfg.InitialMode()}
		snap, err := runHeadless(os.Stdout, reg, opts, run, out, collector, hub)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		store.Set(snap)
		if served != nil {
			logger.Info("serving the final snapshot on %s until interrupted", cfg.Metrics.Addr)
			<-served
		}
		return
	}

	model, err := ui.New(ui.Options{
		Registry:   reg,
		Engine:     opts,
		FPS:        cfg.Render.FPS,
		Color:      cfg.Render.Color,
		Mode:       cfg.InitialMode(),
		Sinks:      []engine.SelectionSink{collector, hub},
		OnSnapshot: store.Set,
		Logger:     logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
	if served != nil {
		cancel()
		<-served
	}
}

// openLogger logs to stderr in headless runs. The TUI owns the terminal, so
// interactive runs log to the configured file or nowhere.
func openLogger(cfg *config.Config, headless bool) (*logging.Logger, error) {
	if cfg.Log.File != "" {
		return logging.Open(cfg.Log.File, cfg.LogLevel())
	}
	if headless {
		return logging.New(cfg.LogLevel()), nil
	}
	return logging.Discard(), nil
}

// snapshotStore holds the most recent snapshot for the HTTP side channel.
// The engine is single threaded, so handlers read published copies.
type snapshotStore struct {
	mu     sync.RWMutex
	latest *engine.SnapshotExport
}

func (s *snapshotStore) Set(snap *engine.SnapshotExport) {
	s.mu.Lock()
	s.latest = snap
	s.mu.Unlock()
}

func (s *snapshotStore) Get() *engine.SnapshotExport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

func (s *snapshotStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	snap := s.Get()
	if snap == nil {
		http.Error(w, "no snapshot yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := snap.WriteJSON(w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func newServer(addr string, collector *metrics.Collector, hub *events.Hub, store *snapshotStore) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	mux.Handle("/events", hub)
	mux.Handle("/snapshot", store)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return &http.Server{
		Addr:              addr,
		Handler:           collector.Middleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// serve runs srv on ln until ctx is cancelled or the server fails.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, logger *logging.Logger) {
	log := logger.With("http")
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening on %s", ln.Addr())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed: %v", err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("shutdown: %v", err)
		}
	}
}

type headlessRun struct {
	frames int
	fps    int
	mode   camera.Mode
}

type headlessOutput struct {
	summary      bool
	ascii        bool
	color        bool
	snapshotPath string
}

// runHeadless steps the engine with a fixed frame delta and writes the
// requested outputs to w.
func runHeadless(w io.Writer, reg *bodies.Registry, opts engine.Options, run headlessRun, out headlessOutput, sinks ...engine.SelectionSink) (*engine.SnapshotExport, error) {
	var surface *render.Surface
	if out.ascii {
		surface = render.New(out.color)
		opts.Renderer = surface
	}
	e, err := engine.New(reg, opts)
	if err != nil {
		return nil, err
	}
	defer e.Dispose()
	for _, s := range sinks {
		e.Subscribe(s)
	}

	if run.mode != camera.ModeOrbit {
		e.Push(engine.ModeEvent{Mode: run.mode})
	}
	e.Push(engine.ResizeEvent{Width: asciiWidth, Height: asciiHeight})

	fps := run.fps
	if fps <= 0 {
		fps = config.DefaultFPS
	}
	dt := 1 / float64(fps)
	for i := 0; i < run.frames; i++ {
		e.Frame(dt)
	}
	snap := e.Snapshot(time.Now())

	if out.snapshotPath != "" {
		if err := writeSnapshot(w, snap, out.snapshotPath); err != nil {
			return nil, err
		}
	}
	if out.summary {
		snap.WriteSummaryTable(w)
	}
	if out.ascii {
		if out.summary {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, surface.String())
	}
	return snap, nil
}

func writeSnapshot(stdout io.Writer, snap *engine.SnapshotExport, path string) error {
	if path == "-" {
		if err := snap.WriteJSON(stdout); err != nil {
			return fmt.Errorf("write JSON to stdout: %w", err)
		}
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	defer f.Close()
	if err := snap.WriteJSON(f); err != nil {
		return fmt.Errorf("write JSON to file: %w", err)
	}
	return nil
}
