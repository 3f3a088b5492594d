// File: internal/config/config.go
// Author: momentics <momentics@gmail.com>

// Package config loads the relay configuration: defaults, then a YAML or
// JSON file, then command-line overrides applied by the caller.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/momentics/hioload-relay/internal/logx"
	"github.com/momentics/hioload-relay/server"
)

// File mirrors the on-disk layout.
//
// All durations are Go duration strings (e.g. "100ms", "30s").
type File struct {
	Server ServerSection `json:"server"`
	Log    LogSection    `json:"log"`

	// StatsInterval logs a metrics snapshot this often. "0s" disables it.
	StatsInterval string `json:"stats_interval"`

	// SystemdNotify sends READY/STOPPING over $NOTIFY_SOCKET when present.
	SystemdNotify bool `json:"systemd_notify"`
}

type ServerSection struct {
	Host              string `json:"host"`
	Port              int    `json:"port"`
	ReceiveBufferSize int    `json:"receive_buffer_size"`
	Backlog           int    `json:"backlog"`
	PollTimeout       string `json:"poll_timeout"`
	Multiplexer       string `json:"multiplexer"`
	CPU               int    `json:"cpu"`
}

type LogSection struct {
	Level      string `json:"level"`
	Format     string `json:"format"`
	RatePerSec int    `json:"rate_per_sec"`
}

// Default returns the built-in configuration.
func Default() *File {
	sc := server.DefaultConfig()
	lc := logx.DefaultConfig()
	return &File{
		Server: ServerSection{
			Host:              sc.Host,
			Port:              sc.Port,
			ReceiveBufferSize: sc.ReceiveBufferSize,
			Backlog:           sc.Backlog,
			PollTimeout:       sc.PollTimeout.String(),
			Multiplexer:       sc.Multiplexer,
			CPU:               sc.CPU,
		},
		Log: LogSection{
			Level:      lc.Level,
			Format:     lc.Format,
			RatePerSec: lc.RatePerSec,
		},
		StatsInterval: "0s",
		SystemdNotify: true,
	}
}

// Load reads path over the defaults. An empty path yields the defaults.
func Load(path string) (*File, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, b)
}

// Parse decodes data (format picked from the path extension) over the defaults.
// Unknown fields are rejected.
func Parse(path string, data []byte) (*File, error) {
	jb, format, err := coerceToJSONBytes(path, data)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("%s config %s: %w", format, path, err)
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("invalid config: trailing data")
		}
		return nil, fmt.Errorf("invalid config: trailing data: %w", err)
	}
	return cfg, nil
}

// ServerConfig converts the server section.
func (f *File) ServerConfig() (*server.Config, error) {
	pt, err := ParseDurationField("server.poll_timeout", f.Server.PollTimeout)
	if err != nil {
		return nil, err
	}
	cfg := &server.Config{
		Host:              f.Server.Host,
		Port:              f.Server.Port,
		ReceiveBufferSize: f.Server.ReceiveBufferSize,
		Backlog:           f.Server.Backlog,
		PollTimeout:       pt,
		Multiplexer:       f.Server.Multiplexer,
		CPU:               f.Server.CPU,
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	return cfg, nil
}

// LogConfig converts the log section.
func (f *File) LogConfig() (logx.Config, error) {
	if !logx.ValidLevel(f.Log.Level) {
		return logx.Config{}, fmt.Errorf("log.level: unknown level %q", f.Log.Level)
	}
	switch strings.ToLower(strings.TrimSpace(f.Log.Format)) {
	case "console", "json":
	default:
		return logx.Config{}, fmt.Errorf("log.format: must be console or json, got %q", f.Log.Format)
	}
	if f.Log.RatePerSec < 0 {
		return logx.Config{}, fmt.Errorf("log.rate_per_sec: must be >= 0")
	}
	return logx.Config{Level: f.Log.Level, Format: f.Log.Format, RatePerSec: f.Log.RatePerSec}, nil
}

// Stats returns the stats reporting interval, 0 when disabled.
func (f *File) Stats() (time.Duration, error) {
	return ParseDurationField("stats_interval", f.StatsInterval)
}

// Validate checks every section.
func (f *File) Validate() error {
	if _, err := f.ServerConfig(); err != nil {
		return err
	}
	if _, err := f.LogConfig(); err != nil {
		return err
	}
	_, err := f.Stats()
	return err
}
