// File: server/broadcast.go
// Author: momentics <momentics@gmail.com>

package server

// broadcast queues payload for every peer except the sender. Nothing is sent
// here; transmission happens when a receiver is reported writable, so a slow
// receiver never stalls reads from anyone else.
func (s *Server) broadcast(sender *peer, payload []byte) {
	for _, p := range s.order {
		if p == sender || p.closed {
			continue
		}
		s.writers[p.fd] = p
		p.enqueue(payload)
	}
}
