// File: api/transport.go
// Author: momentics <momentics@gmail.com>
//
// Socket capability consumed by the relay loop: bind/listen, accept,
// non-blocking read/write and close over raw descriptors.

package api

// Conn is a non-blocking, full-duplex stream connection.
type Conn interface {
	// Read fills p. It returns io.EOF when the peer closed the stream and
	// ErrWouldBlock when no data is available yet.
	Read(p []byte) (n int, err error)

	// Write writes as much of p as the socket accepts right now.
	// A short count with a nil error is a partial write.
	// ErrWouldBlock means nothing could be written.
	Write(p []byte) (n int, err error)

	// Close releases the descriptor.
	Close() error

	// RawFD returns the underlying OS-level file descriptor.
	RawFD() uintptr

	// RemoteAddr returns the peer address in host:port form.
	RemoteAddr() string
}

// Listener is a bound, listening, non-blocking endpoint.
type Listener interface {
	// Accept returns one pending connection, already non-blocking.
	// ErrWouldBlock means no connection is pending.
	Accept() (Conn, error)

	Close() error
	RawFD() uintptr

	// Addr returns the bound local address in host:port form.
	Addr() string
}

// Network creates listeners.
type Network interface {
	Listen(host string, port, backlog int) (Listener, error)
}
