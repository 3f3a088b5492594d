package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/momentics/hioload-relay/internal/config"
)

func TestDefaultMatchesServerDefaults(t *testing.T) {
	f := config.Default()
	sc, err := f.ServerConfig()
	if err != nil {
		t.Fatal(err)
	}
	if sc.Host != "192.168.1.13" || sc.Port != 8080 || sc.ReceiveBufferSize != 4096 || sc.Backlog != 5 {
		t.Fatalf("unexpected defaults: %+v", sc)
	}
	if sc.PollTimeout != 100*time.Millisecond {
		t.Fatalf("poll timeout %v", sc.PollTimeout)
	}
	if err := f.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestParseYAMLOverlaysDefaults(t *testing.T) {
	data := []byte(`
server:
  host: 127.0.0.1
  port: 9001
  poll_timeout: 250ms
  multiplexer: poll
log:
  level: debug
stats_interval: 30s
`)
	f, err := config.Parse("relay.yaml", data)
	if err != nil {
		t.Fatal(err)
	}
	sc, err := f.ServerConfig()
	if err != nil {
		t.Fatal(err)
	}
	if sc.Host != "127.0.0.1" || sc.Port != 9001 || sc.Multiplexer != "poll" {
		t.Fatalf("overrides lost: %+v", sc)
	}
	if sc.ReceiveBufferSize != 4096 {
		t.Fatalf("default buffer size lost: %d", sc.ReceiveBufferSize)
	}
	if sc.PollTimeout != 250*time.Millisecond {
		t.Fatalf("poll timeout %v", sc.PollTimeout)
	}
	lc, err := f.LogConfig()
	if err != nil || lc.Level != "debug" || lc.Format != "console" {
		t.Fatalf("log config %+v, %v", lc, err)
	}
	if d, _ := f.Stats(); d != 30*time.Second {
		t.Fatalf("stats interval %v", d)
	}
}

func TestParseJSON(t *testing.T) {
	f, err := config.Parse("relay.json", []byte(`{"server":{"receive_buffer_size":1024}}`))
	if err != nil {
		t.Fatal(err)
	}
	if f.Server.ReceiveBufferSize != 1024 || f.Server.Port != 8080 {
		t.Fatalf("got %+v", f.Server)
	}
}

func TestParseRejects(t *testing.T) {
	cases := []struct {
		name, path, data, wantErr string
	}{
		{"unknown field", "c.yaml", "server:\n  hostname: x\n", "unknown field"},
		{"trailing json", "c.json", `{"log":{}}{"log":{}}`, "trailing"},
		{"trailing empty object", "c.json", `{"log":{}}{}`, "trailing"},
		{"bad yaml", "c.yaml", "server: [\n", "yaml"},
	}
	for _, tc := range cases {
		_, err := config.Parse(tc.path, []byte(tc.data))
		if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
			t.Errorf("%s: expected error containing %q, got %v", tc.name, tc.wantErr, err)
		}
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.File)
	}{
		{"port", func(f *config.File) { f.Server.Port = 65536 }},
		{"buffer", func(f *config.File) { f.Server.ReceiveBufferSize = -1 }},
		{"poll timeout", func(f *config.File) { f.Server.PollTimeout = "soon" }},
		{"negative poll timeout", func(f *config.File) { f.Server.PollTimeout = "-1s" }},
		{"zero poll timeout", func(f *config.File) { f.Server.PollTimeout = "0s" }},
		{"empty poll timeout", func(f *config.File) { f.Server.PollTimeout = "" }},
		{"mux", func(f *config.File) { f.Server.Multiplexer = "select" }},
		{"level", func(f *config.File) { f.Log.Level = "chatty" }},
		{"format", func(f *config.File) { f.Log.Format = "xml" }},
		{"rate", func(f *config.File) { f.Log.RatePerSec = -3 }},
		{"stats", func(f *config.File) { f.StatsInterval = "often" }},
	}
	for _, tc := range cases {
		f := config.Default()
		tc.mutate(f)
		if err := f.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestLoad(t *testing.T) {
	f, err := config.Load("")
	if err != nil || f.Server.Port != 8080 {
		t.Fatalf("empty path: %+v, %v", f, err)
	}

	path := filepath.Join(t.TempDir(), "relay.yml")
	if err := os.WriteFile(path, []byte("server:\n  port: 7000\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	f, err = config.Load(path)
	if err != nil || f.Server.Port != 7000 {
		t.Fatalf("file: %+v, %v", f, err)
	}

	if _, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml")); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist, got %v", err)
	}
}
