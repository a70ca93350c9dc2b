package hdlc

import (
	"net"
	"time"

	"github.com/tarm/serial"

	"github.com/ViewWay/dlms-go/pkg/common"
)

// PhysicalLayer is the byte-stream HDLCConnection frames on top of: TCP, UDP,
// or a serial port, each with its own notion of Close and read deadline.
type PhysicalLayer interface {
	Read(b []byte) (int, error)
	Write(b []byte) (int, error)
	Close() error
	SetReadDeadline(t time.Time) error
}

// TCPPhysicalLayer carries HDLC frames over an established TCP connection.
type TCPPhysicalLayer struct {
	conn net.Conn
}

// NewTCPTransport wraps an established net.Conn as a PhysicalLayer.
func NewTCPTransport(conn net.Conn) *TCPPhysicalLayer {
	return &TCPPhysicalLayer{conn: conn}
}

func (t *TCPPhysicalLayer) Read(b []byte) (int, error)  { return t.conn.Read(b) }
func (t *TCPPhysicalLayer) Write(b []byte) (int, error) { return t.conn.Write(b) }
func (t *TCPPhysicalLayer) Close() error                { return t.conn.Close() }

func (t *TCPPhysicalLayer) SetReadDeadline(tm time.Time) error {
	return t.conn.SetReadDeadline(tm)
}

// UDPPhysicalLayer carries HDLC frames over a connectionless UDP socket bound
// to a single peer address.
type UDPPhysicalLayer struct {
	conn *net.UDPConn
	addr *net.UDPAddr
}

// NewUDPTransport wraps a UDP socket and its peer address as a PhysicalLayer.
func NewUDPTransport(conn *net.UDPConn, addr *net.UDPAddr) *UDPPhysicalLayer {
	return &UDPPhysicalLayer{conn: conn, addr: addr}
}

func (t *UDPPhysicalLayer) Read(b []byte) (int, error) { return t.conn.Read(b) }

func (t *UDPPhysicalLayer) Write(b []byte) (int, error) {
	return t.conn.WriteToUDP(b, t.addr)
}

func (t *UDPPhysicalLayer) Close() error { return t.conn.Close() }

func (t *UDPPhysicalLayer) SetReadDeadline(tm time.Time) error {
	return t.conn.SetReadDeadline(tm)
}

// SerialPhysicalLayer carries HDLC frames over an RS-485/RS-232 serial port, the
// meter-facing optical-port transport СТО 34.01-5.1-006-2023 assumes by default.
type SerialPhysicalLayer struct {
	port *serial.Port
}

// NewSerialTransport opens portName at 9600 baud, 8N1 — the default optical-port
// rate per СТО 34.01-5.1-006-2023 — as a PhysicalLayer.
func NewSerialTransport(portName string) (*SerialPhysicalLayer, error) {
	config := &serial.Config{
		Name:   portName,
		Baud:   9600,
		Parity: serial.ParityNone,
	}
	port, err := serial.OpenPort(config)
	if err != nil {
		return nil, common.Wrap(common.KindTransport, "hdlc: open serial port", err)
	}
	return &SerialPhysicalLayer{port: port}, nil
}

func (t *SerialPhysicalLayer) Read(b []byte) (int, error)  { return t.port.Read(b) }
func (t *SerialPhysicalLayer) Write(b []byte) (int, error) { return t.port.Write(b) }
func (t *SerialPhysicalLayer) Close() error                { return t.port.Close() }

// SetReadDeadline is a no-op: serial ports expose no per-read deadline, so
// callers relying on one must arrange a timeout in their own read loop.
func (t *SerialPhysicalLayer) SetReadDeadline(tm time.Time) error {
	return nil
}
