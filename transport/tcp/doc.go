// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package tcp implements api.Network over raw non-blocking IPv4/IPv6 TCP
// sockets. Descriptors are owned directly (no net.Conn, no runtime poller) so
// they can be handed to the relay's readiness multiplexer.
package tcp
