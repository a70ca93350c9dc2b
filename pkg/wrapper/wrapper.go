// Package wrapper implements the IEC 62056-47 TCP/IP WRAPPER framing: an 8-octet
// header (version, source/destination wPort, payload length) prepended to each
// APDU, with no handshake or acknowledgement of its own — the reliability HDLC's
// I-frame windowing provides is assumed to already come from TCP.
package wrapper

import (
	"bytes"
	"encoding/binary"
	"io"
	"net"
	"sync"
	"time"

	"github.com/ViewWay/dlms-go/pkg/common"
	"github.com/ViewWay/dlms-go/pkg/transport"
)

var _ transport.Transport = (*Connection)(nil)

// Version is the WRAPPER protocol version this package produces and accepts.
const Version uint16 = 1

// headerSize is the fixed 8-octet WRAPPER header: version, src wPort, dst wPort, length.
const headerSize = 8

// Frame is one WRAPPER frame: an 8-octet header followed by Length octets of payload.
type Frame struct {
	Version uint16
	SrcAddr uint16
	DstAddr uint16
	Length  uint16
	Payload []byte
}

// Encode serializes the frame into a byte slice.
func (f *Frame) Encode() ([]byte, error) {
	if len(f.Payload) != int(f.Length) {
		return nil, common.New(common.KindCodec, "wrapper: payload length does not match length field")
	}
	buf := make([]byte, headerSize+int(f.Length))
	binary.BigEndian.PutUint16(buf[0:2], f.Version)
	binary.BigEndian.PutUint16(buf[2:4], f.SrcAddr)
	binary.BigEndian.PutUint16(buf[4:6], f.DstAddr)
	binary.BigEndian.PutUint16(buf[6:8], f.Length)
	copy(buf[headerSize:], f.Payload)
	return buf, nil
}

// Decode deserializes a byte slice into a frame.
func (f *Frame) Decode(src []byte) error {
	if len(src) < headerSize {
		return common.New(common.KindFrameInvalid, "wrapper: insufficient data for frame header")
	}
	f.Version = binary.BigEndian.Uint16(src[0:2])
	f.SrcAddr = binary.BigEndian.Uint16(src[2:4])
	f.DstAddr = binary.BigEndian.Uint16(src[4:6])
	f.Length = binary.BigEndian.Uint16(src[6:8])
	if len(src) < headerSize+int(f.Length) {
		return common.New(common.KindFrameInvalid, "wrapper: insufficient data for frame payload")
	}
	f.Payload = src[headerSize : headerSize+int(f.Length)]
	return nil
}

// Config holds the addressing and read-timeout parameters for a Connection.
type Config struct {
	SrcAddr     uint16
	DstAddr     uint16
	ReadTimeout time.Duration
}

// DefaultConfig returns a Config with the logical client wPort (1) addressing the
// logical management-LN server wPort (1), and a 10s read timeout.
func DefaultConfig() *Config {
	return &Config{SrcAddr: 1, DstAddr: 1, ReadTimeout: 10 * time.Second}
}

// pduWithAddr pairs a reassembled PDU with the peer address it arrived from.
type pduWithAddr struct {
	pdu  []byte
	addr net.Addr
}

// Connection implements transport.Transport over WRAPPER framing on top of an
// already-connected net.Conn (TCP, or anything else reliable and connection-oriented).
type Connection struct {
	conn        net.Conn
	cfg         *Config
	mu          sync.Mutex
	connected   bool
	readBuffer  bytes.Buffer
	reassembled chan pduWithAddr
}

// NewConnection wraps conn in WRAPPER framing. If cfg is nil, DefaultConfig is used.
func NewConnection(conn net.Conn, cfg *Config) *Connection {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Connection{conn: conn, cfg: cfg, reassembled: make(chan pduWithAddr, 10)}
}

// Connect marks the connection active. WRAPPER has no handshake of its own — the
// underlying net.Conn is assumed already established — so nothing is sent.
func (c *Connection) Connect() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = true
	return nil, nil
}

// Disconnect marks the connection inactive. WRAPPER has no teardown frame of its own;
// closing the underlying net.Conn is the caller's responsibility.
func (c *Connection) Disconnect() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	return nil, nil
}

// IsConnected reports whether Connect has been called without a matching Disconnect.
func (c *Connection) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Send wraps pdu in a single WRAPPER frame. Unlike HDLC, WRAPPER never segments: the
// length field is 16 bits, so a PDU must already fit under that ceiling (the caller's
// negotiated max-PDU-size keeps it there).
func (c *Connection) Send(pdu []byte) ([][]byte, error) {
	if len(pdu) > 0xFFFF {
		return nil, common.New(common.KindCodec, "wrapper: PDU exceeds 65535 octets")
	}
	frame := &Frame{Version: Version, SrcAddr: c.cfg.SrcAddr, DstAddr: c.cfg.DstAddr, Length: uint16(len(pdu)), Payload: pdu}
	encoded, err := frame.Encode()
	if err != nil {
		return nil, err
	}
	return [][]byte{encoded}, nil
}

// Receive parses as many complete WRAPPER frames as src's buffered bytes contain,
// queuing each frame's payload for Read. It never itself produces a response frame —
// WRAPPER carries no acknowledgement layer.
func (c *Connection) Receive(src []byte) ([][]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.readBuffer.Write(src)
	for {
		buf := c.readBuffer.Bytes()
		if len(buf) < headerSize {
			break
		}
		length := binary.BigEndian.Uint16(buf[6:8])
		total := headerSize + int(length)
		if len(buf) < total {
			break
		}
		frame := &Frame{}
		if err := frame.Decode(buf[:total]); err != nil {
			c.readBuffer.Next(total)
			continue
		}
		c.readBuffer.Next(total)
		if frame.Version != Version {
			continue
		}
		addr := c.conn.RemoteAddr()
		c.reassembled <- pduWithAddr{pdu: frame.Payload, addr: addr}
	}
	return nil, nil
}

// Read blocks until a complete PDU has been reassembled from the byte stream fed
// through Receive, or the configured ReadTimeout elapses.
func (c *Connection) Read() ([]byte, net.Addr, error) {
	select {
	case item := <-c.reassembled:
		return item.pdu, item.addr, nil
	case <-time.After(c.cfg.ReadTimeout):
		return nil, nil, common.New(common.KindTimeout, "read timeout")
	}
}

// ReadLoop reads raw bytes off conn and feeds them through Receive until conn returns
// an error (typically io.EOF on close), forwarding any response frames back to conn.
func (c *Connection) ReadLoop() error {
	buf := make([]byte, 4096)
	for {
		n, err := c.conn.Read(buf)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return common.Wrap(common.KindTransport, "wrapper: read loop", err)
		}
		responses, err := c.Receive(buf[:n])
		if err != nil {
			return err
		}
		for _, resp := range responses {
			if _, err := c.conn.Write(resp); err != nil {
				return common.Wrap(common.KindTransport, "wrapper: write response", err)
			}
		}
	}
}
