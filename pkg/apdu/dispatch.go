package apdu

import "fmt"

// DecodeAny inspects the first octet of a plaintext APDU and dispatches to the matching
// Decode* function, returning the decoded value as its concrete type. Used after a secured
// envelope's Unprotect call recovers an inner plaintext APDU whose variant isn't known ahead
// of time, and by transport-layer code demultiplexing an incoming frame. Every Decode*
// function below takes the full APDU including its leading tag octet.
func DecodeAny(src []byte) (interface{}, error) {
	if len(src) == 0 {
		return nil, fmt.Errorf("apdu: empty APDU")
	}
	switch Tag(src[0]) {
	case TagInitiateRequest:
		return DecodeInitiateRequest(src)
	case TagInitiateResponse:
		return DecodeInitiateResponse(src)
	case TagGetRequest:
		return DecodeGetRequestNormal(src)
	case TagSetRequest:
		return DecodeSetRequestNormal(src)
	case TagActionRequest:
		return DecodeActionRequestNormal(src)
	case TagGetResponse:
		return DecodeGetResponseNormal(src)
	case TagSetResponse:
		return DecodeSetResponseNormal(src)
	case TagActionResponse:
		return DecodeActionResponseNormal(src)
	case TagDataNotification:
		return DecodeDataNotification(src)
	case TagEventNotification:
		return DecodeEventNotification(src)
	case TagConfirmedServiceError:
		return DecodeConfirmedServiceError(src)
	case TagReadRequest:
		return DecodeReadRequest(src)
	default:
		return nil, fmt.Errorf("apdu: unrecognized APDU tag 0x%02x", src[0])
	}
}
