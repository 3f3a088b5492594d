package server

import (
	"errors"
	"strconv"

	"github.com/momentics/hioload-relay/api"
	"github.com/momentics/hioload-relay/control"
	"github.com/momentics/hioload-relay/reactor"
	"github.com/momentics/hioload-relay/transport/tcp"
)

var (
	ErrAlreadyBound = errors.New("server already bound")
	ErrNotBound     = errors.New("server not bound")
)

// Server is the relay loop. It owns the listener, the peer set and every
// outbound queue; all of it is touched only from the goroutine running Run.
type Server struct {
	cfg     Config
	network api.Network
	mux     api.Multiplexer
	obs     api.Observer
	metrics *control.MetricsRegistry

	listener api.Listener
	peers    map[uintptr]*peer
	order    []*peer           // accept order, drives broadcast fan-out
	writers  map[uintptr]*peer // write-interest set

	readBuf  []byte
	interest api.Interest
	ready    api.Readiness

	readable, writable, exceptional []endpoint
}

// NewServer builds a Server. The multiplexer named in cfg is created unless
// WithMultiplexer supplies one.
func NewServer(cfg *Config, opts ...ServerOption) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "invalid server config").WithCause(err)
	}
	s := &Server{
		cfg:     *cfg,
		network: tcp.Network{NoDelay: true},
		obs:     api.NopObserver,
		peers:   make(map[uintptr]*peer),
		writers: make(map[uintptr]*peer),
		readBuf: make([]byte, cfg.ReceiveBufferSize),
	}
	for _, o := range opts {
		o(s)
	}
	if s.mux == nil {
		kind, _ := reactor.ParseKind(cfg.Multiplexer)
		m, err := reactor.New(kind)
		if err != nil {
			return nil, api.NewError(api.ErrCodeMultiplexer, "multiplexer init").
				WithContext("kind", string(kind)).
				WithCause(err)
		}
		s.mux = m
	}
	return s, nil
}

// Bind acquires the listening endpoint. A failure here is fatal for the
// process; it is never retried.
func (s *Server) Bind() error {
	if s.listener != nil {
		return ErrAlreadyBound
	}
	ln, err := s.network.Listen(s.cfg.Host, s.cfg.Port, s.cfg.Backlog)
	if err != nil {
		return api.NewError(api.ErrCodeBind, "bind failed").
			WithContext("host", s.cfg.Host).
			WithContext("port", strconv.Itoa(s.cfg.Port)).
			WithCause(err)
	}
	s.listener = ln
	s.obs.Observe(api.Event{Kind: api.EventServerStarted, FD: ln.RawFD(), Addr: ln.Addr()})
	return nil
}

// Addr returns the bound address, or "" before Bind.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr()
}

// Close releases the multiplexer. Run must have returned.
func (s *Server) Close() error {
	return s.mux.Close()
}

// active counts tracked connections, listener included.
func (s *Server) active() int {
	n := len(s.peers)
	if s.listener != nil {
		n++
	}
	return n
}
