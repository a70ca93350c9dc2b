package common

import "fmt"

// Kind classifies the error taxonomy surfaced by the protocol stack core.
type Kind int

const (
	// KindUnknown covers conditions not otherwise classified.
	KindUnknown Kind = iota
	// KindTransport — byte-stream failures.
	KindTransport
	// KindFrameInvalid — FCS/HCS mismatch, malformed header, bad LLC, segmentation out of order.
	KindFrameInvalid
	// KindProtocol — unexpected PDU, state-machine violation.
	KindProtocol
	// KindCodec — A-XDR/BER decode errors (truncation, tag, length).
	KindCodec
	// KindTimeout — any concurrency-model timer expiring.
	KindTimeout
	// KindAuthFailed — LLS mismatch, HLS mismatch, GMAC/CMAC tag failure.
	KindAuthFailed
	// KindReplayDetected — non-increasing frame counter.
	KindReplayDetected
	// KindOpenRejected — AARE with non-accepted result.
	KindOpenRejected
	// KindServiceError — ConfirmedServiceError surfaced from peer.
	KindServiceError
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "Transport"
	case KindFrameInvalid:
		return "FrameInvalid"
	case KindProtocol:
		return "Protocol"
	case KindCodec:
		return "Codec"
	case KindTimeout:
		return "Timeout"
	case KindAuthFailed:
		return "AuthFailed"
	case KindReplayDetected:
		return "ReplayDetected"
	case KindOpenRejected:
		return "OpenRejected"
	case KindServiceError:
		return "ServiceError"
	default:
		return "Unknown"
	}
}

// Error is the single wrapped-error type used throughout the stack. It carries a Kind so
// callers can dispatch with errors.Is/errors.As against Kind sentinels, a human message, and
// an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

// New creates an Error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an Error wrapping an existing error as its cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap supports errors.Is/errors.As against the wrapped cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches another *Error by Kind, supporting errors.Is(err, common.New(common.KindAuthFailed, "")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// OpenRejected carries the AARE diagnostic that caused an open() to be rejected.
type OpenRejected struct {
	Diagnostic string
}

func (r *OpenRejected) Error() string {
	return fmt.Sprintf("association open rejected: %s", r.Diagnostic)
}

// NewOpenRejected wraps an OpenRejected diagnostic as a KindOpenRejected Error.
func NewOpenRejected(diagnostic string) *Error {
	return Wrap(KindOpenRejected, "association not accepted", &OpenRejected{Diagnostic: diagnostic})
}
