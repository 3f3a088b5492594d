// File: cmd/hioload-relay/main.go
// Author: momentics <momentics@gmail.com>

// Command hioload-relay runs the TCP broadcast relay: bytes read from one
// client are queued to every other connected client.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/rs/zerolog"

	"github.com/momentics/hioload-relay/api"
	"github.com/momentics/hioload-relay/control"
	"github.com/momentics/hioload-relay/internal/config"
	"github.com/momentics/hioload-relay/internal/logx"
	"github.com/momentics/hioload-relay/server"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("hioload-relay", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "path to YAML or JSON config")
	host := fs.String("host", "", "bind address")
	port := fs.Int("port", 0, "TCP port")
	bufSize := fs.Int("buffer", 0, "receive buffer size in bytes")
	backlog := fs.Int("backlog", 0, "listen backlog")
	mux := fs.String("multiplexer", "", "epoll or poll")
	cpu := fs.Int("cpu", -1, "pin the loop thread to this CPU")
	level := fs.String("log-level", "", "trace|debug|info|warn|error")
	format := fs.String("log-format", "", "console|json")
	stats := fs.String("stats-interval", "", "metrics snapshot interval, 0s disables")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	f, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		return 1
	}
	// flags win over the file, but only when given
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "host":
			f.Server.Host = *host
		case "port":
			f.Server.Port = *port
		case "buffer":
			f.Server.ReceiveBufferSize = *bufSize
		case "backlog":
			f.Server.Backlog = *backlog
		case "multiplexer":
			f.Server.Multiplexer = *mux
		case "cpu":
			f.Server.CPU = *cpu
		case "log-level":
			f.Log.Level = *level
		case "log-format":
			f.Log.Format = *format
		case "stats-interval":
			f.StatsInterval = *stats
		}
	})

	scfg, err := f.ServerConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal config:", err)
		return 1
	}
	lcfg, err := f.LogConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal config:", err)
		return 1
	}
	interval, err := f.Stats()
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal config:", err)
		return 1
	}

	log := logx.New(lcfg, logx.Stdout())
	metrics := control.NewMetricsRegistry()
	probes := control.NewDebugProbes()
	control.RegisterPlatformProbes(probes)
	log.Debug().Strs("probes", probes.Names()).Msg("debug probes registered")

	srv, err := server.NewServer(scfg,
		server.WithObserver(api.Observers(logx.NewObserver(log, lcfg.RatePerSec), metrics)),
		server.WithMetrics(metrics),
	)
	if err != nil {
		log.Error().Err(err).Msg("relay setup failed")
		return 1
	}
	defer srv.Close()

	if err := srv.Bind(); err != nil {
		log.Error().Err(err).Int("code", int(api.CodeOf(err))).Msg("bind failed")
		return 1
	}
	notify(f.SystemdNotify, daemon.SdNotifyReady, log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	done := make(chan struct{})
	if interval > 0 {
		go reportStats(ctx, done, interval, metrics, probes, log)
	}

	err = srv.Run(ctx)
	close(done)
	notify(f.SystemdNotify, daemon.SdNotifyStopping, log)
	if err != nil {
		log.Error().Err(err).Msg("relay stopped")
		return 1
	}
	log.Info().Msg("relay stopped")
	return 0
}

func notify(enabled bool, state string, log zerolog.Logger) {
	if !enabled {
		return
	}
	if _, err := daemon.SdNotify(false, state); err != nil {
		log.Warn().Err(err).Str("state", state).Msg("sd_notify failed")
	}
}

func reportStats(ctx context.Context, done <-chan struct{}, every time.Duration,
	metrics *control.MetricsRegistry, probes *control.DebugProbes, log zerolog.Logger) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-t.C:
			log.Info().
				Fields(metrics.GetSnapshot()).
				Fields(probes.DumpState()).
				Msg("stats")
		}
	}
}
