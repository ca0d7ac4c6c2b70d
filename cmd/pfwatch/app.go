package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/tinytelemetry/pfwatch/internal/duckdb"
	"github.com/tinytelemetry/pfwatch/internal/filter"
	"github.com/tinytelemetry/pfwatch/internal/httpserver"
	"github.com/tinytelemetry/pfwatch/internal/ingest"
	"github.com/tinytelemetry/pfwatch/internal/logsource"
	"github.com/tinytelemetry/pfwatch/internal/metrics"
	"github.com/tinytelemetry/pfwatch/internal/pipeline"
	"github.com/tinytelemetry/pfwatch/internal/tui"
)

// run wires ingestion, the filter pipeline and the read surfaces, and
// blocks until the UI quits or a termination signal arrives.
func run(parent context.Context, cfg appConfig, f *filter.Filter) error {
	if parent == nil {
		parent = context.Background()
	}
	sigCtx, stopSignals := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	cleanupLogger := configureRuntimeLogger(cfg)
	defer cleanupLogger()

	sources, err := buildSources(ctx, buildInputPlugins(InputPluginConfig{
		FilePath:   cfg.LogFile,
		Follow:     cfg.Follow,
		TCPEnabled: cfg.TCPEnabled,
		TCPAddr:    cfg.TCPAddr,
	}))
	if err != nil {
		return &exitError{code: exitIngest, err: err}
	}
	if len(sources) == 0 {
		return &exitError{code: exitIngest, err: errors.New("no input: give a log file, pipe lines to stdin or set --tcp-enabled")}
	}

	collector := metrics.NewCollector()
	records := pipeline.NewStore()
	matches := pipeline.NewMatchIndex()
	notifier := pipeline.NewNotifier()
	pipe := pipeline.New(records, matches, notifier, f, pipeline.WithMetrics(collector))

	mux := NewSourceMultiplexer(ctx, sources, cfg.MuxBufferSize)
	mux.Start()
	defer mux.Stop()

	processor := ingest.NewProcessor(nil, ingest.NewStoreSink(records, notifier, collector), "", collector)
	ingester := ingest.NewIngester(processor)

	var mirror *duckdb.Mirror
	var sqlStore *duckdb.Store
	if cfg.MirrorEnabled {
		sqlStore, err = duckdb.NewStore(cfg.QueryTimeout)
		if err != nil {
			return fmt.Errorf("failed to initialize SQL mirror: %w", err)
		}
		defer sqlStore.Close()
		mirror = duckdb.NewMirror(sqlStore, records, matches, duckdb.MirrorConfig{
			BatchSize: cfg.MirrorBatch,
			Interval:  cfg.MirrorInterval,
			Metrics:   collector,
		})
	}

	if cfg.APIEnabled {
		deps := httpserver.Deps{
			Records:  records,
			Matches:  matches,
			Filter:   f,
			Metrics:  collector,
			Exporter: newExporter(collector, records, matches, sources),
		}
		if sqlStore != nil {
			deps.Mirror = sqlStore
		}
		apiServer := httpserver.NewServer(cfg.APIAddr, deps)
		if err := apiServer.Start(); err != nil {
			return fmt.Errorf("failed to start API server: %w", err)
		}
		defer apiServer.Stop()
	}

	log.Printf("pfwatch: started: inputs=%s filter=%q", strings.Join(mux.Names(), ","), f.String())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ingester.Run(gctx, mux.Lines()) })
	g.Go(func() error { return pipe.Run(gctx) })
	if mirror != nil {
		g.Go(func() error { return mirror.Run(gctx) })
	}

	if cfg.Headless {
		printStartupBanner(os.Stderr, cfg, mux.Names(), f)
		g.Go(func() error {
			<-gctx.Done()
			return nil
		})
	} else {
		g.Go(func() error {
			defer cancel()
			program := tea.NewProgram(tui.New(tui.Config{
				Records:        records,
				Matches:        matches,
				Filter:         f,
				Metrics:        collector,
				UpdateInterval: cfg.UpdateInterval,
			}), tea.WithAltScreen(), tea.WithContext(gctx))
			if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return fmt.Errorf("terminal UI: %w", err)
			}
			return nil
		})
	}

	err = g.Wait()

	stats := collector.Stats()
	log.Printf("pfwatch: stopped: lines=%d records=%d parse_errors=%d matches=%d",
		stats.LinesReceived, stats.RecordsStored, stats.ParseErrors, stats.Matched())
	if cfg.Headless {
		fmt.Fprintf(os.Stderr, "Final stats: lines=%d records=%d parse_errors=%d matched=%d (pass=%d block=%d reject=%d)\n",
			stats.LinesReceived, stats.RecordsStored, stats.ParseErrors, stats.Matched(),
			stats.MatchedPass, stats.MatchedBlock, stats.MatchedReject)
	}
	return err
}

// configureRuntimeLogger sends the standard logger to the state directory
// while the terminal UI owns the screen; headless runs log to stderr.
func configureRuntimeLogger(cfg appConfig) func() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if cfg.Headless || cfg.StateDir == "" {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
		log.SetOutput(io.Discard)
		return func() {}
	}
	f, err := os.OpenFile(filepath.Join(cfg.StateDir, "pfwatch.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		log.SetOutput(io.Discard)
		return func() {}
	}
	log.SetOutput(f)
	return func() {
		log.SetOutput(os.Stderr)
		_ = f.Close()
	}
}

func printStartupBanner(w io.Writer, cfg appConfig, inputs []string, f *filter.Filter) {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cyan := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	bold := lipgloss.NewStyle().Bold(true)

	on := green.Render("●")
	off := dim.Render("●")
	row := func(enabled bool, name, value string) string {
		mark, v := off, dim.Render("disabled")
		if enabled {
			mark, v = on, cyan.Render(value)
		}
		return fmt.Sprintf("    %s  %-13s %s", mark, name, v)
	}

	lines := []string{
		"",
		"    " + cyan.Bold(true).Render("pfwatch") + " " + dim.Render("v"+version),
		"",
		bold.Render("    Inputs"),
		row(cfg.LogFile != "", "Log file", shortenPath(cfg.LogFile)),
		row(cfg.TCPEnabled, "Syslog TCP", cfg.TCPAddr),
		row(slices.Contains(inputs, "stdin"), "Stdin", "piped"),
		"",
		bold.Render("    Outputs"),
		row(cfg.APIEnabled, "HTTP API", cfg.APIAddr),
		row(cfg.MirrorEnabled, "SQL mirror", "in-memory"),
		"",
		bold.Render("    Filter"),
		"    " + dim.Render(f.String()),
		"",
		"    " + dim.Render("Press ") + yellow.Render("Ctrl+C") + dim.Render(" to stop"),
		"",
	}
	fmt.Fprintln(w, strings.Join(lines, "\n"))
}

func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}

// newExporter adds the live gauges that only the running process knows
// about to the collector's counters.
func newExporter(c *metrics.Collector, records *pipeline.Store, matches *pipeline.MatchIndex, sources []NamedLogSource) *metrics.Exporter {
	exp := metrics.NewExporter(c)
	exp.AddGauge("record_store_size", "Records currently held in memory.", func() float64 {
		return float64(records.Len())
	})
	exp.AddGauge("match_index_size", "Records currently in the match index.", func() float64 {
		return float64(matches.Len())
	})
	for _, src := range sources {
		if tcp, ok := src.(*logsource.TCPSource); ok {
			exp.AddGauge("tcp_connections", "Connected syslog senders.", func() float64 {
				return float64(tcp.Connections())
			})
		}
	}
	return exp
}
