package main

import (
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestRunExitsOneOnStartupFailure(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer busy.Close()
	port := strconv.Itoa(busy.Addr().(*net.TCPAddr).Port)

	badCfg := filepath.Join(t.TempDir(), "relay.yaml")
	if err := os.WriteFile(badCfg, []byte("server:\n  prot: 1\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"-nope"}},
		{"missing config", []string{"-config", filepath.Join(t.TempDir(), "absent.yaml")}},
		{"unknown config field", []string{"-config", badCfg}},
		{"port out of range", []string{"-port", "70000"}},
		{"unknown multiplexer", []string{"-multiplexer", "select"}},
		{"bad log level", []string{"-log-level", "loud"}},
		{"bad stats interval", []string{"-stats-interval", "hourly"}},
		{"port in use", []string{"-host", "127.0.0.1", "-port", port, "-log-format", "json"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if code := run(tc.args); code != 1 {
				t.Fatalf("expected exit 1, got %d", code)
			}
		})
	}
}
