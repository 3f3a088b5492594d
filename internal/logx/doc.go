// Package logx configures the relay's structured logging.
//
// It builds a zerolog logger from config and adapts it to api.Observer:
//   - Console output readable (short timestamp), or JSON lines
//   - Per-message events at debug level, rate limited
//   - Connection lifecycle at info, per-connection failures at warn
package logx
