package hdlc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/ViewWay/dlms-go/pkg/common"
	"github.com/ViewWay/dlms-go/pkg/transport"
)

var _ transport.Transport = (*HDLCConnection)(nil)

// llcPrefixCommand and llcPrefixResponse are prepended to every I/UI-frame information field
// carrying an xDLMS APDU, per IEC 8802-2 LLC addressing (destination/source/control octets).
var (
	llcPrefixCommand  = []byte{0xE6, 0xE6, 0x00}
	llcPrefixResponse = []byte{0xE6, 0xE7, 0x00}
)

// maxRetransmits bounds how many times an unacknowledged I-frame is retransmitted before the
// connection gives up and reports a protocol error; go-back-N never retries forever.
const maxRetransmits = 3

// HDLCAddress represents an HDLC address.
type HDLCAddress struct {
	Address []byte
}

// Network returns the network type, "hdlc".
func (a *HDLCAddress) Network() string {
	return "hdlc"
}

// String returns the string representation of the HDLC address.
func (a *HDLCAddress) String() string {
	return fmt.Sprintf("%X", a.Address)
}

// pduWithAddress is used to pass a reassembled PDU and its source address together.
type pduWithAddress struct {
	PDU  []byte
	Addr net.Addr
}

// Config holds the configuration parameters for an HDLC connection.
type Config struct {
	WindowSize            int
	MaxFrameSize          int
	InactivityTimeout     time.Duration
	FrameAssemblyTimeout  time.Duration
	RetransmissionTimeout time.Duration
	DestAddr              []byte
	SrcAddr               []byte
}

// DefaultConfig returns a new Config object with default values.
func DefaultConfig() *Config {
	return &Config{
		WindowSize:            MaxWindowSize,
		MaxFrameSize:          128,
		InactivityTimeout:     time.Duration(InactivityTimeout) * time.Millisecond,
		FrameAssemblyTimeout:  2 * time.Second,
		RetransmissionTimeout: 5 * time.Second,
	}
}

// Predefined HDLC errors
var (
	ErrNotConnected              = common.New(common.KindProtocol, "not connected")
	ErrAlreadyConnected          = common.New(common.KindProtocol, "already connected or connecting")
	ErrInvalidUA                 = common.New(common.KindFrameInvalid, "did not receive UA in response to SNRM")
	ErrAckTimeout                = common.New(common.KindTimeout, "ack timeout")
	ErrInactivityTimeout         = common.New(common.KindTimeout, "inactivity timeout")
	ErrUnexpectedFrame           = common.New(common.KindFrameInvalid, "unexpected frame")
	ErrInvalidFrame              = common.New(common.KindFrameInvalid, "invalid frame")
	ErrConnectionTerminated      = common.New(common.KindProtocol, "connection terminated")
	ErrUnexpectedDisconnect      = common.New(common.KindProtocol, "unexpected disconnect")
	ErrFrameRejected             = common.New(common.KindFrameInvalid, "frame rejected")
	ErrDestinationAddressMissing = common.New(common.KindProtocol, "destination address is missing")
	ErrSourceAddressMissing      = common.New(common.KindProtocol, "source address is missing")
	ErrRetransmitExhausted       = common.New(common.KindProtocol, "retransmission limit exhausted")
	ErrOutOfOrderSegment         = common.New(common.KindFrameInvalid, "segment received out of order")
)

// Define connection states
const (
	StateDisconnected = "disconnected"
	StateConnecting   = "connecting"
	StateConnected    = "connected"
)

// windowParams carries the negotiable HDLC parameters exchanged in the SNRM/UA information
// field (receive window, transmit window, max information field size, in each direction).
type windowParams struct {
	WindowRX  int
	WindowTX  int
	MaxInfoRX int
	MaxInfoTX int
}

// HDLCConnection manages the HDLC connection
type HDLCConnection struct {
	state                 string
	destAddr               []byte
	srcAddr               []byte
	sendSeq               uint8
	recvSeq               uint8
	lastAckedSeq          uint8
	windowSize            int
	maxFrameSize          int
	sentFrames            map[uint8]*HDLCFrame
	sentTimes             map[uint8]time.Time
	retryCounts           map[uint8]int
	segmentBuffer         []byte
	ReassembledData       chan pduWithAddress
	RetransmitFrames      chan []byte
	mutex                 sync.Mutex
	ackChannel            chan uint8
	isPeerReceiverReady   bool
	inactivityTimeout     time.Duration
	frameAssemblyTimeout  time.Duration
	retransmissionTimeout time.Duration
	lastActivity          time.Time
	readBuffer            bytes.Buffer
	negotiated            windowParams
	fatalErr              error
}

// NewHDLCConnection creates a new HDLC connection with the given configuration.
// If config is nil, default configuration is used.
func NewHDLCConnection(config *Config) *HDLCConnection {
	if config == nil {
		config = DefaultConfig()
	}
	conn := &HDLCConnection{
		state:                 StateDisconnected,
		windowSize:            config.WindowSize,
		maxFrameSize:          config.MaxFrameSize,
		inactivityTimeout:     config.InactivityTimeout,
		frameAssemblyTimeout:  config.FrameAssemblyTimeout,
		retransmissionTimeout: config.RetransmissionTimeout,
		destAddr:              config.DestAddr,
		srcAddr:               config.SrcAddr,
		sentFrames:            make(map[uint8]*HDLCFrame),
		sentTimes:             make(map[uint8]time.Time),
		retryCounts:           make(map[uint8]int),
		segmentBuffer:         make([]byte, 0),
		ReassembledData:       make(chan pduWithAddress, 10),
		RetransmitFrames:      make(chan []byte, 10),
		ackChannel:            make(chan uint8, 1),
		isPeerReceiverReady:   true,
		readBuffer:            bytes.Buffer{},
		negotiated:            windowParams{WindowRX: config.WindowSize, WindowTX: config.WindowSize, MaxInfoRX: config.MaxFrameSize, MaxInfoTX: config.MaxFrameSize},
	}
	go conn.retransmissionDaemon()
	return conn
}

func (c *HDLCConnection) retransmissionDaemon() {
	ticker := time.NewTicker(c.retransmissionTimeout / 2)
	defer ticker.Stop()

	for range ticker.C {
		c.mutex.Lock()
		for ns, t := range c.sentTimes {
			if time.Since(t) <= c.retransmissionTimeout {
				continue
			}
			frameToResend, ok := c.sentFrames[ns]
			if !ok {
				continue
			}
			c.retryCounts[ns]++
			if c.retryCounts[ns] > maxRetransmits {
				c.fatalErr = ErrRetransmitExhausted
				c.mutex.Unlock()
				return
			}
			encodedFrame, err := EncodeFrame(frameToResend.DA, frameToResend.SA, frameToResend.Control, frameToResend.Information, frameToResend.Segmented)
			if err == nil {
				select {
				case c.RetransmitFrames <- encodedFrame:
				default:
				}
			}
			c.sentTimes[ns] = time.Now()
		}
		c.mutex.Unlock()
	}
}

// encodeUAParams packs the negotiated window/max-info parameters into the UA information
// field. Each parameter is a one-byte tag followed by its value, mirroring the COSEM HDLC
// parameter negotiation block without carrying its full BER encoding.
func encodeUAParams(p windowParams) []byte {
	var buf bytes.Buffer
	buf.WriteByte(0x01) // window RX
	buf.WriteByte(byte(p.WindowRX))
	buf.WriteByte(0x02) // window TX
	buf.WriteByte(byte(p.WindowTX))
	buf.WriteByte(0x03) // max info RX
	binary.Write(&buf, binary.BigEndian, uint16(p.MaxInfoRX))
	buf.WriteByte(0x04) // max info TX
	binary.Write(&buf, binary.BigEndian, uint16(p.MaxInfoTX))
	return buf.Bytes()
}

// decodeUAParams parses a UA information field produced by encodeUAParams, falling back to
// the caller's defaults for any tag that is absent or truncated.
func decodeUAParams(data []byte, fallback windowParams) windowParams {
	p := fallback
	r := bytes.NewReader(data)
	for r.Len() > 0 {
		tag, err := r.ReadByte()
		if err != nil {
			break
		}
		switch tag {
		case 0x01, 0x02:
			v, err := r.ReadByte()
			if err != nil {
				return p
			}
			if tag == 0x01 {
				p.WindowRX = int(v)
			} else {
				p.WindowTX = int(v)
			}
		case 0x03, 0x04:
			var v uint16
			if err := binary.Read(r, binary.BigEndian, &v); err != nil {
				return p
			}
			if tag == 0x03 {
				p.MaxInfoRX = int(v)
			} else {
				p.MaxInfoTX = int(v)
			}
		default:
			return p
		}
	}
	return p
}

// Connect generates an SNRM frame to initiate a connection, offering this side's window and
// max-info-field parameters for negotiation.
func (c *HDLCConnection) Connect() ([]byte, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.state != StateDisconnected {
		return nil, ErrAlreadyConnected
	}
	if len(c.destAddr) == 0 {
		return nil, ErrDestinationAddressMissing
	}
	if len(c.srcAddr) == 0 {
		return nil, ErrSourceAddressMissing
	}

	c.state = StateConnecting
	offer := windowParams{WindowRX: c.windowSize, WindowTX: c.windowSize, MaxInfoRX: c.maxFrameSize, MaxInfoTX: c.maxFrameSize}
	info := encodeUAParams(offer)
	snrmFrame := &HDLCFrame{DA: c.destAddr, SA: c.srcAddr, Control: UFrameSNRM, PF: true, Information: info}
	return EncodeFrame(snrmFrame.DA, snrmFrame.SA, snrmFrame.Control, snrmFrame.Information, snrmFrame.Segmented)
}

// HandleFrame processes a decoded HDLC frame and returns the response frame
func (c *HDLCConnection) HandleFrame(frame *HDLCFrame) ([]byte, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.lastActivity = time.Now()

	switch c.state {
	case StateDisconnected:
		if frame.Control == UFrameSNRM {
			c.state = StateConnected
			offer := decodeUAParams(frame.Information, windowParams{WindowRX: c.windowSize, WindowTX: c.windowSize, MaxInfoRX: c.maxFrameSize, MaxInfoTX: c.maxFrameSize})
			// Server echoes back the smaller of its own limits and the client's offer.
			accepted := windowParams{
				WindowRX:  minInt(offer.WindowTX, c.windowSize),
				WindowTX:  minInt(offer.WindowRX, c.windowSize),
				MaxInfoRX: minInt(offer.MaxInfoTX, c.maxFrameSize),
				MaxInfoTX: minInt(offer.MaxInfoRX, c.maxFrameSize),
			}
			c.negotiated = accepted
			uaFrame := &HDLCFrame{DA: frame.SA, SA: frame.DA, Type: FrameTypeU, Control: UFrameUA, PF: true, Information: encodeUAParams(accepted)}
			return EncodeFrame(uaFrame.DA, uaFrame.SA, uaFrame.Control, uaFrame.Information, uaFrame.Segmented)
		}
	case StateConnecting:
		if frame.Control == UFrameUA {
			c.state = StateConnected
			c.negotiated = decodeUAParams(frame.Information, c.negotiated)
			return nil, nil
		}
		return nil, ErrInvalidUA
	case StateConnected:
		if frame.Control == UFrameUA {
			c.state = StateDisconnected
			return nil, nil
		}
		return c.handleConnectedState(frame)
	}

	return nil, ErrNotConnected
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// handleConnectedState processes frames when in a connected state. Out-of-order I-frames are
// never buffered: true go-back-N discards them and asks the peer to resend starting from the
// next expected sequence number.
func (c *HDLCConnection) handleConnectedState(frame *HDLCFrame) ([]byte, error) {
	switch frame.Type {
	case FrameTypeI:
		if frame.NS != c.recvSeq {
			rejFrame := &HDLCFrame{DA: frame.SA, SA: frame.DA, Type: FrameTypeS, Control: SFrameREJ | (c.recvSeq << 5)}
			return EncodeFrame(rejFrame.DA, rejFrame.SA, rejFrame.Control, rejFrame.Information, rejFrame.Segmented)
		}

		c.segmentBuffer = append(c.segmentBuffer, frame.Information...)
		if !frame.Segmented {
			if c.ReassembledData != nil {
				pdu := pduWithAddress{
					PDU:  c.segmentBuffer,
					Addr: &HDLCAddress{Address: frame.SA},
				}
				c.ReassembledData <- pdu
			}
			c.segmentBuffer = make([]byte, 0)
		}
		c.recvSeq = (c.recvSeq + 1) % 8

		rrFrame := &HDLCFrame{DA: frame.SA, SA: frame.DA, Type: FrameTypeS, Control: SFrameRR | (c.recvSeq << 5)}
		return EncodeFrame(rrFrame.DA, rrFrame.SA, rrFrame.Control, rrFrame.Information, rrFrame.Segmented)

	case FrameTypeU:
		if frame.Control == UFrameDISC {
			c.state = StateDisconnected
			uaFrame := &HDLCFrame{DA: frame.SA, SA: frame.DA, Type: FrameTypeU, Control: UFrameUA, PF: true}
			return EncodeFrame(uaFrame.DA, uaFrame.SA, uaFrame.Control, uaFrame.Information, uaFrame.Segmented)
		}
		if frame.Control == UFrameFRMR {
			c.state = StateDisconnected
			return nil, ErrFrameRejected
		}
	case FrameTypeS:
		nr := (frame.Control >> 5) & 0x07

		switch frame.Control & 0x0F {
		case SFrameRR, SFrameREJ:
			// N(R)=nr acknowledges every frame in the arc [lastAckedSeq, nr).
			for i := c.lastAckedSeq; i != nr; i = (i + 1) % 8 {
				delete(c.sentFrames, i)
				delete(c.sentTimes, i)
				delete(c.retryCounts, i)
			}
			c.lastAckedSeq = nr
		}

		switch frame.Control & 0x0F {
		case SFrameRR:
			c.isPeerReceiverReady = true
		case SFrameRNR:
			c.isPeerReceiverReady = false
		case SFrameREJ:
			// Peer is asking for go-back-N retransmission starting at nr; the
			// retransmission daemon's next tick (or an explicit resend) covers it.
		}
	default:
		frmrInfo := []byte{frame.Control}
		frmrFrame := &HDLCFrame{DA: frame.SA, SA: frame.DA, Type: FrameTypeU, Control: UFrameFRMR, Information: frmrInfo}
		return EncodeFrame(frmrFrame.DA, frmrFrame.SA, frmrFrame.Control, frmrFrame.Information, frmrFrame.Segmented)
	}
	return nil, nil
}

// Send generates one or more I-frames for the given data payload (an LLC-prefixed APDU),
// handling segmentation against the negotiated max information field size.
func (c *HDLCConnection) Send(data []byte) ([][]byte, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.state != StateConnected {
		return nil, ErrNotConnected
	}
	if c.fatalErr != nil {
		return nil, c.fatalErr
	}

	if (c.sendSeq-c.lastAckedSeq)%8 >= uint8(c.windowSize) {
		return nil, common.New(common.KindProtocol, "sending window is full")
	}

	if !c.isPeerReceiverReady {
		return nil, common.New(common.KindProtocol, "peer receiver is not ready (RNR)")
	}

	maxInfo := c.negotiated.MaxInfoTX
	if maxInfo <= 0 {
		maxInfo = c.maxFrameSize
	}

	var frames [][]byte
	remainingData := data
	isSegmented := len(data) > maxInfo

	for len(remainingData) > 0 {
		chunkSize := len(remainingData)
		if chunkSize > maxInfo {
			chunkSize = maxInfo
		}
		chunk := remainingData[:chunkSize]
		remainingData = remainingData[chunkSize:]

		isLastSegment := len(remainingData) == 0

		frame := &HDLCFrame{
			DA:          c.destAddr,
			SA:          c.srcAddr,
			Type:        FrameTypeI,
			NS:          c.sendSeq,
			NR:          c.recvSeq,
			Information: chunk,
			Segmented:   isSegmented && !isLastSegment,
		}
		frame.Control = (frame.NS << 1) | (frame.NR << 5)

		if isLastSegment {
			frame.PF = true
		}

		encodedFrame, err := EncodeFrame(frame.DA, frame.SA, frame.Control, frame.Information, frame.Segmented)
		if err != nil {
			return nil, err
		}
		frames = append(frames, encodedFrame)

		c.sentFrames[frame.NS] = frame
		c.sentTimes[frame.NS] = time.Now()
		c.retryCounts[frame.NS] = 0
		c.sendSeq = (c.sendSeq + 1) % 8
	}

	return frames, nil
}

// SendAPDU wraps data with the LLC prefix appropriate for the given direction before handing
// it to Send.
func (c *HDLCConnection) SendAPDU(data []byte, isResponse bool) ([][]byte, error) {
	prefix := llcPrefixCommand
	if isResponse {
		prefix = llcPrefixResponse
	}
	framed := make([]byte, 0, len(prefix)+len(data))
	framed = append(framed, prefix...)
	framed = append(framed, data...)
	return c.Send(framed)
}

// Disconnect generates a DISC frame to terminate the connection
func (c *HDLCConnection) Disconnect() ([]byte, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.state != StateConnected {
		return nil, ErrNotConnected
	}
	if len(c.destAddr) == 0 {
		return nil, ErrDestinationAddressMissing
	}
	if len(c.srcAddr) == 0 {
		return nil, ErrSourceAddressMissing
	}

	discFrame := &HDLCFrame{DA: c.destAddr, SA: c.srcAddr, Control: UFrameDISC, PF: true}
	return EncodeFrame(discFrame.DA, discFrame.SA, discFrame.Control, discFrame.Information, discFrame.Segmented)
}

// Receive processes an incoming byte stream, finds complete frames, and returns any response frames
func (c *HDLCConnection) Receive(data []byte) ([][]byte, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if time.Since(c.lastActivity) > c.inactivityTimeout && c.state == StateConnected {
		c.state = StateDisconnected
		return nil, ErrInactivityTimeout
	}

	c.readBuffer.Write(data)
	var responses [][]byte

	for {
		startFlagIndex := bytes.IndexByte(c.readBuffer.Bytes(), FlagByte)
		if startFlagIndex == -1 {
			if c.readBuffer.Len() > MaxFrameSize*2 {
				c.readBuffer.Reset()
			}
			break
		}

		if startFlagIndex > 0 {
			c.readBuffer.Next(startFlagIndex)
		}

		buf := c.readBuffer.Bytes()
		if len(buf) < 3 {
			break
		}

		format := binary.BigEndian.Uint16(buf[1:3])
		if (format>>12)&0xF != 0xA {
			c.readBuffer.Next(1)
			continue
		}
		// length covers the entire frame body (format field through FCS inclusive).
		length := int(format & 0x07FF)

		totalFrameSize := 1 + length + 1 // opening flag + body + closing flag
		if len(buf) < totalFrameSize {
			break
		}

		frameData := buf[:totalFrameSize]
		if frameData[len(frameData)-1] != FlagByte {
			c.readBuffer.Next(1)
			continue
		}

		frameBody := frameData[1 : len(frameData)-1]
		decodedFrame, err := DecodeFrame(frameBody)
		if err == nil {
			// HandleFrame takes c.mutex itself.
			c.mutex.Unlock()
			response, err := c.HandleFrame(decodedFrame)
			c.mutex.Lock()
			if err == nil && response != nil {
				responses = append(responses, response)
			}
		}

		c.readBuffer.Next(totalFrameSize)
	}

	return responses, nil
}

// Read blocks until a complete PDU has been reassembled or a timeout occurs.
func (c *HDLCConnection) Read() ([]byte, net.Addr, error) {
	select {
	case pduInfo := <-c.ReassembledData:
		return pduInfo.PDU, pduInfo.Addr, nil
	case <-time.After(c.inactivityTimeout):
		return nil, nil, common.New(common.KindTimeout, "read timeout")
	}
}

// IsConnected returns true if the connection is in the Connected state
func (c *HDLCConnection) IsConnected() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.state == StateConnected
}

// SetState sets the connection state
func (c *HDLCConnection) SetState(state string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.state = state
}
