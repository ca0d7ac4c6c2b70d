package main

import (
	"bytes"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tinytelemetry/pfwatch/internal/filter"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	isolateConfig(t)

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return -1
}

func TestNewRootCmd(t *testing.T) {
	cmd := newRootCmd()
	if cmd.Use != "pfwatch [log-file]" {
		t.Errorf("Use = %q", cmd.Use)
	}
	for _, name := range []string{"interfaces", "protocols", "actions", "src-ip", "dst-ip", "src-port", "dst-port", "headless", "follow", "dump-filter"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("missing flag --%s", name)
		}
	}
	if f := cmd.Flags().ShorthandLookup("i"); f == nil || f.Name != "interfaces" {
		t.Errorf("-i does not map to --interfaces")
	}
}

func TestDumpFilter(t *testing.T) {
	out, err := execute(t, "--dump-filter", "-a", "Block", "-p", "tcp,udp", "--dst-port", "22,8000-8080", "--src-ip", "10.0.0.0/8")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	f, err := filter.Build(filter.Criteria{
		Actions:   []string{"block"},
		Protocols: []string{"tcp", "udp"},
		DstPorts:  []string{"22", "8000-8080"},
		SrcIPs:    []string{"10.0.0.0/8"},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want, _ := f.YAML()
	if out != string(want) {
		t.Fatalf("dump-filter output:\n%s\nwant:\n%s", out, want)
	}
}

func TestDumpFilterEmpty(t *testing.T) {
	out, err := execute(t, "--dump-filter")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.HasPrefix(out, "#") {
		t.Fatalf("output = %q, want a comment for the empty filter", out)
	}
}

func TestInvalidCriteriaExitCode(t *testing.T) {
	_, err := execute(t, "--dump-filter", "--src-ip", "10.0.0.0/33", "--dst-port", "9-x")
	if err == nil {
		t.Fatal("Execute succeeded with malformed criteria")
	}
	if got := exitCode(err); got != exitConfig {
		t.Fatalf("exit code = %d, want %d", got, exitConfig)
	}
	for _, want := range []string{"10.0.0.0/33", "9-x"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestMissingLogFileExitCode(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.log")
	_, err := execute(t, "--headless", missing)
	if err == nil {
		t.Fatal("Execute succeeded with a missing log file")
	}
	if got := exitCode(err); got != exitIngest {
		t.Fatalf("exit code = %d, want %d", got, exitIngest)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("error = %v, want fs.ErrNotExist", err)
	}
}

func TestTooManyArgs(t *testing.T) {
	if _, err := execute(t, "a.log", "b.log"); err == nil {
		t.Fatal("Execute accepted two positional arguments")
	}
}
