// Package transport defines the one interface both of the stack's link layers —
// HDLC (pkg/hdlc) and the IEC 62056-47 TCP/IP WRAPPER (pkg/wrapper) — implement,
// so that everything above (pkg/association, pkg/acse, pkg/apdu) can open,
// exchange PDUs over, and close an association without caring which framing is
// underneath.
package transport

import "net"

// Transport is a PDU-oriented link layer: it accepts whole PDUs from the layer
// above and hands back whole, reassembled PDUs, hiding whatever fragmentation
// or segmentation its own framing requires.
type Transport interface {
	// Connect performs whatever handshake the framing needs (HDLC's SNRM/UA;
	// none, for WRAPPER) and returns the bytes to send to start it, if any.
	Connect() ([]byte, error)

	// Disconnect performs an orderly teardown (HDLC's DISC/UA) and returns the
	// bytes to send, if any.
	Disconnect() ([]byte, error)

	// IsConnected reports whether Connect has completed without a matching
	// Disconnect or connection loss.
	IsConnected() bool

	// Send frames pdu for transmission, returning one or more wire-ready frames
	// (HDLC segments a PDU too large for one I-frame; WRAPPER never does).
	Send(pdu []byte) ([][]byte, error)

	// Receive feeds newly arrived bytes into the framing's reassembly state.
	// src may hold a partial frame, one frame, or several. Any frames the
	// framing itself must emit in response (HDLC's RR, REJ or UA) are returned for
	// the caller to write back to the wire.
	Receive(src []byte) ([][]byte, error)

	// Read blocks until Receive has reassembled one complete PDU, or the
	// implementation's read timeout elapses.
	Read() ([]byte, net.Addr, error)
}
