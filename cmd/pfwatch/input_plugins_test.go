package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestBuildInputPlugins_FileReplacesStdin(t *testing.T) {
	t.Parallel()

	plugins := buildInputPlugins(InputPluginConfig{FilePath: "/var/log/filter.log", TCPEnabled: true})
	names := make([]string, len(plugins))
	for i, p := range plugins {
		names[i] = p.Name()
	}
	if len(names) != 2 || names[0] != "file" || names[1] != "tcp" {
		t.Fatalf("plugins = %v, want [file tcp]", names)
	}
	if !plugins[0].Enabled() || !plugins[1].Enabled() {
		t.Fatal("expected file and tcp plugins to be enabled")
	}
}

func TestBuildInputPlugins_NoFile(t *testing.T) {
	t.Parallel()

	plugins := buildInputPlugins(InputPluginConfig{TCPEnabled: false})
	if len(plugins) != 3 {
		t.Fatalf("expected 3 plugins, got %d", len(plugins))
	}
	if plugins[0].Enabled() {
		t.Fatal("file plugin enabled without a path")
	}
	if plugins[1].Enabled() {
		t.Fatal("tcp plugin enabled when TCPEnabled=false")
	}
	if plugins[2].Name() != "stdin" {
		t.Fatalf("plugins[2] = %q, want stdin", plugins[2].Name())
	}
}

func TestBuildSources_FileAndTCP(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "filter.log")
	if err := os.WriteFile(path, []byte("line one\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sources, err := buildSources(ctx, buildInputPlugins(InputPluginConfig{
		FilePath:   path,
		TCPEnabled: true,
		TCPAddr:    "127.0.0.1:0",
	}))
	if err != nil {
		t.Fatalf("buildSources: %v", err)
	}
	defer func() {
		for _, s := range sources {
			s.Stop()
		}
	}()
	if len(sources) != 2 {
		t.Fatalf("len(sources) = %d, want 2", len(sources))
	}

	select {
	case env := <-sources[0].Lines():
		if env.Line != "line one" {
			t.Fatalf("line = %q, want %q", env.Line, "line one")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out reading file source")
	}
}

func TestBuildSources_TCPFailureStopsOthers(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "filter.log")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := buildSources(context.Background(), buildInputPlugins(InputPluginConfig{
		FilePath:   path,
		TCPEnabled: true,
		TCPAddr:    "not-an-address",
	}))
	if err == nil {
		t.Fatal("buildSources succeeded with an invalid tcp address")
	}
}
