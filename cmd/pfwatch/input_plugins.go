package main

import (
	"context"
	"fmt"
	"os"

	"github.com/tinytelemetry/pfwatch/internal/logsource"
	"github.com/tinytelemetry/pfwatch/internal/tcpserver"
)

// NamedLogSource aliases the shared source abstraction to keep app-layer APIs explicit.
type NamedLogSource = logsource.LogSource

// InputSourcePlugin is a small plugin primitive for wiring log inputs.
type InputSourcePlugin interface {
	Name() string
	Enabled() bool
	Build(ctx context.Context) (NamedLogSource, error)
}

// InputPluginConfig defines runtime input selection.
type InputPluginConfig struct {
	FilePath   string
	Follow     bool
	TCPEnabled bool
	TCPAddr    string
}

// buildInputPlugins lists the inputs in priority order. Stdin is only
// read when no file is given.
func buildInputPlugins(cfg InputPluginConfig) []InputSourcePlugin {
	plugins := make([]InputSourcePlugin, 0, 3)
	plugins = append(plugins, fileInputPlugin{path: cfg.FilePath, follow: cfg.Follow})
	plugins = append(plugins, tcpInputPlugin{
		addr:    cfg.TCPAddr,
		enabled: cfg.TCPEnabled,
	})
	if cfg.FilePath == "" {
		plugins = append(plugins, stdinInputPlugin{})
	}
	return plugins
}

// buildSources starts every enabled plugin. Any failure stops the ones
// already started.
func buildSources(ctx context.Context, plugins []InputSourcePlugin) ([]NamedLogSource, error) {
	sources := make([]NamedLogSource, 0, len(plugins))
	for _, plugin := range plugins {
		if !plugin.Enabled() {
			continue
		}
		src, err := plugin.Build(ctx)
		if err != nil {
			for _, s := range sources {
				s.Stop()
			}
			return nil, fmt.Errorf("input %s: %w", plugin.Name(), err)
		}
		sources = append(sources, src)
	}
	return sources, nil
}

type fileInputPlugin struct {
	path   string
	follow bool
}

func (p fileInputPlugin) Name() string { return "file" }

func (p fileInputPlugin) Enabled() bool { return p.path != "" }

func (p fileInputPlugin) Build(ctx context.Context) (NamedLogSource, error) {
	return logsource.NewFileSource(ctx, p.path, logsource.FileConfig{Follow: p.follow})
}

type tcpInputPlugin struct {
	addr    string
	enabled bool
}

func (p tcpInputPlugin) Name() string { return "tcp" }

func (p tcpInputPlugin) Enabled() bool { return p.enabled }

func (p tcpInputPlugin) Build(_ context.Context) (NamedLogSource, error) {
	server := tcpserver.NewServer(p.addr)
	if err := server.Start(); err != nil {
		return nil, fmt.Errorf("start tcp server: %w", err)
	}
	return logsource.NewTCPSource(server), nil
}

type stdinInputPlugin struct{}

func (p stdinInputPlugin) Name() string { return "stdin" }

func (p stdinInputPlugin) Enabled() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

func (p stdinInputPlugin) Build(ctx context.Context) (NamedLogSource, error) {
	return logsource.NewStdinSource(ctx), nil
}
