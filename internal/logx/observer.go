// File: internal/logx/observer.go
// Author: momentics <momentics@gmail.com>

package logx

import (
	"strconv"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/momentics/hioload-relay/api"
)

// maxPayloadLog bounds how much of a received payload is echoed into a log line.
const maxPayloadLog = 64

// Observer logs relay observations. It runs on the loop goroutine and never
// blocks: per-message events beyond the rate limit are counted and dropped.
type Observer struct {
	log        zerolog.Logger
	limiter    *rate.Limiter
	suppressed int
}

// NewObserver wraps l. ratePerSec <= 0 disables throttling.
func NewObserver(l zerolog.Logger, ratePerSec int) *Observer {
	o := &Observer{log: l}
	if ratePerSec > 0 {
		o.limiter = rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec)
	}
	return o
}

// Observe implements api.Observer.
func (o *Observer) Observe(ev api.Event) {
	var e *zerolog.Event
	switch ev.Kind {
	case api.EventServerStarted:
		e = o.log.Info().Str("addr", ev.Addr)
		e.Msg("relay listening")
		return
	case api.EventClientConnected:
		e = o.log.Info()
	case api.EventClientClosing:
		e = o.log.Info()
	case api.EventDataReceived, api.EventSendSucceeded, api.EventQueueIdle:
		if !o.allow() {
			return
		}
		e = o.log.Debug()
		if o.suppressed > 0 && e != nil {
			e.Int("suppressed", o.suppressed)
			o.suppressed = 0
		}
	case api.EventSendFailed, api.EventReadFailed, api.EventExceptional, api.EventAcceptFailed:
		e = o.log.Warn()
	default:
		e = o.log.Debug()
	}
	if e == nil {
		return
	}

	e.Str("event", ev.Kind.String()).Str("peer", ev.Addr).Uint64("fd", uint64(ev.FD))
	if ev.Size > 0 {
		e.Int("bytes", ev.Size)
	}
	if ev.Pending > 0 {
		e.Int("pending", ev.Pending)
	}
	if ev.Kind == api.EventDataReceived && len(ev.Payload) > 0 {
		p := ev.Payload
		if len(p) > maxPayloadLog {
			p = p[:maxPayloadLog]
		}
		e.Str("data", strconv.Quote(string(p)))
	}
	if ev.Err != nil {
		e.Err(ev.Err)
	}
	e.Msg(message(ev.Kind))
}

// allow applies the rate limit to per-message events that would be logged.
func (o *Observer) allow() bool {
	if o.log.GetLevel() > zerolog.DebugLevel {
		return false
	}
	if o.limiter == nil || o.limiter.Allow() {
		return true
	}
	o.suppressed++
	return false
}

// Suppressed returns how many per-message lines are waiting to be reported
// as dropped.
func (o *Observer) Suppressed() int { return o.suppressed }

func message(k api.EventKind) string {
	switch k {
	case api.EventClientConnected:
		return "client connected"
	case api.EventClientClosing:
		return "closing client"
	case api.EventDataReceived:
		return "received"
	case api.EventSendSucceeded:
		return "sent"
	case api.EventQueueIdle:
		return "output queue empty"
	case api.EventSendFailed:
		return "send failed, dropping client"
	case api.EventReadFailed:
		return "read failed, dropping client"
	case api.EventExceptional:
		return "exceptional condition"
	case api.EventAcceptFailed:
		return "accept failed"
	}
	return k.String()
}
