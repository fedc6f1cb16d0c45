package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KevoDB/sai/pkg/common/log"
	"github.com/KevoDB/sai/pkg/primarykey"
	"github.com/KevoDB/sai/pkg/telemetry"
)

func newTestShell(tel telemetry.Telemetry) (*Shell, *bytes.Buffer) {
	var out bytes.Buffer
	factory := primarykey.NewFactory(primarykey.WithPartitioner(primarykey.ByteOrderedPartitioner))
	return NewShell(factory, 2, tel, log.Discard(), &out), &out
}

func run(t *testing.T, shell *Shell, lines ...string) {
	t.Helper()
	for _, line := range lines {
		if err := shell.Execute(context.Background(), line); err != nil {
			t.Fatalf("%q failed: %v", line, err)
		}
	}
}

// unionKeys returns the keys printed by the last UNION in out.
func unionKeys(out string) []string {
	var keys []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if strings.HasPrefix(line, "(") {
			break
		}
		if strings.Contains(line, ": ") {
			continue
		}
		keys = append(keys, displayKey(line))
	}
	return keys
}

func TestShellUnion(t *testing.T) {
	shell, out := newTestShell(telemetry.NewForTesting())
	run(t, shell,
		"RANGE a 1 3 5",
		"RANGE b 2 3 6",
		"RANGE c 3 4",
	)

	out.Reset()
	run(t, shell, "UNION")
	if got := strings.Join(unionKeys(out.String()), " "); got != "1 2 3 4 5 6" {
		t.Errorf("expected 1 2 3 4 5 6, got %q", got)
	}
	if !strings.Contains(out.String(), "(6 keys from 3 ranges)") {
		t.Errorf("missing summary line: %s", out.String())
	}

	out.Reset()
	run(t, shell, "union a c SKIP 4")
	if got := strings.Join(unionKeys(out.String()), " "); got != "4 5" {
		t.Errorf("expected 4 5, got %q", got)
	}
}

func TestShellStaticTieBreak(t *testing.T) {
	shell, out := newTestShell(nil)
	run(t, shell, "RANGE a p", "RANGE b p/*")

	out.Reset()
	run(t, shell, "UNION a b")
	if got := unionKeys(out.String()); len(got) != 1 || got[0] != "p/*" {
		t.Errorf("expected only the static key, got %v", got)
	}
}

func TestShellRangesAndDrop(t *testing.T) {
	shell, out := newTestShell(nil)
	run(t, shell, "RANGE b 2", "RANGE a 1 1 0", "RANGE empty")

	out.Reset()
	run(t, shell, "RANGES")
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[0], "a: 2 keys [") || lines[2] != "empty: 0 keys" {
		t.Errorf("unexpected listing:\n%s", out.String())
	}

	run(t, shell, "DROP a", "DROP b")
	if err := shell.Execute(context.Background(), "DROP a"); err == nil {
		t.Error("expected an error dropping a missing range")
	}

	out.Reset()
	run(t, shell, "UNION")
	if !strings.Contains(out.String(), "(0 keys from 1 ranges)") {
		t.Errorf("expected an empty union, got: %s", out.String())
	}
}

func TestShellLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.txt")
	if err := os.WriteFile(path, []byte("9\n7\n8\n"), 0644); err != nil {
		t.Fatalf("failed to write key file: %v", err)
	}

	shell, out := newTestShell(nil)
	run(t, shell, "LOAD big "+path, "RANGE small 7 10")

	out.Reset()
	run(t, shell, "UNION big small")
	// Byte-ordered keys compare as strings.
	if got := strings.Join(unionKeys(out.String()), " "); got != "10 7 8 9" {
		t.Errorf("expected 10 7 8 9, got %q", got)
	}
}

func TestShellErrors(t *testing.T) {
	shell, _ := newTestShell(nil)

	for _, line := range []string{
		"FROB",
		".frob",
		"RANGE",
		"RANGE a #x",
		"LOAD a",
		"DROP",
		"UNION missing",
		"UNION SKIP",
		"UNION SKIP 1 2",
	} {
		if err := shell.Execute(context.Background(), line); err == nil {
			t.Errorf("expected %q to fail", line)
		}
	}

	if err := shell.Execute(context.Background(), ".exit"); !errors.Is(err, errExit) {
		t.Errorf("expected errExit, got %v", err)
	}
	if err := shell.Execute(context.Background(), "   "); err != nil {
		t.Errorf("blank line should be ignored, got %v", err)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	cfg := telemetry.DefaultConfig()
	cfg.Enabled = true
	cfg.Exporters = []string{telemetry.ExporterPrometheus}

	tel, err := telemetry.New(cfg)
	if err != nil {
		t.Fatalf("failed to create telemetry: %v", err)
	}
	defer tel.Shutdown(context.Background())

	handler := telemetry.MetricsHandler(tel)
	if handler == nil {
		t.Fatal("expected a prometheus handler")
	}

	server := NewMetricsServer("127.0.0.1:0", handler, log.Discard())
	if err := server.Start(); err != nil {
		t.Fatalf("failed to start metrics server: %v", err)
	}
	defer server.Stop(context.Background())

	shell, _ := newTestShell(tel)
	run(t, shell, "RANGE a 1 2", "RANGE b 2 3", "UNION")

	resp, err := http.Get("http://" + server.Addr() + "/metrics")
	if err != nil {
		t.Fatalf("scrape failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read scrape: %v", err)
	}
	for _, name := range []string{"sai_keyrange_build", "sai_keyrange_merge", "sai_shell_query_duration"} {
		if !strings.Contains(string(body), name) {
			t.Errorf("expected %s in scrape output", name)
		}
	}
}
