// Package apdu implements the xDLMS Application Protocol Data Unit tagged union: the
// Initiate*, Get/Set/Action request and response variants, event and data notifications,
// confirmed service errors, and their glo-*/ded-* secured counterparts. Every variant is
// encoded through axdr.EncodeReversedSequence, the single choke point for the A-XDR
// reversed-field-order rule xDLMS CHOICE types require.
package apdu

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ViewWay/dlms-go/pkg/axdr"
	"github.com/ViewWay/dlms-go/pkg/ber"
)

// decodeConformanceField decodes the [APPLICATION 31] conformance TLV from the front of a
// shared reader, rewinding the reader past only the bytes the TLV actually consumed so the
// fields that follow it in the same reversed-sequence (e.g. client-max-receive-PDU-size) are
// left untouched.
func decodeConformanceField(r *bytes.Reader) ([]byte, error) {
	remaining := make([]byte, r.Len())
	if _, err := r.Read(remaining); err != nil {
		return nil, err
	}
	bits, _, n, err := ber.DecodeConformanceBitString(remaining)
	if err != nil {
		return nil, err
	}
	if _, err := r.Seek(int64(n-len(remaining)), io.SeekCurrent); err != nil {
		return nil, err
	}
	return bits, nil
}

// Tag identifies an xDLMS APDU's CHOICE variant — the first octet of its wire encoding.
type Tag byte

const (
	TagInitiateRequest        Tag = 0x01
	TagInitiateResponse       Tag = 0x08
	TagGetRequest              Tag = 0xC0
	TagSetRequest              Tag = 0xC1
	TagEventNotification       Tag = 0xC2
	TagActionRequest           Tag = 0xC3
	TagGetResponse             Tag = 0xC4
	TagSetResponse             Tag = 0xC5
	TagDataNotification        Tag = 0x0F
	TagActionResponse          Tag = 0xC7
	TagConfirmedServiceError   Tag = 0x0E
	TagExceptionResponse       Tag = 0xD8

	// SN service tags.
	TagReadRequest           Tag = 0x05
	TagWriteRequest          Tag = 0x06
	TagReadResponse          Tag = 0x0C
	TagWriteResponse         Tag = 0x0D
	TagInformationReport     Tag = 0x18 // SN InformationReportRequest
)

// Request/response sub-type discriminants, matching the "Normal"/"WithList" etc. variants.
type ServiceType byte

const (
	TypeNormal         ServiceType = 0x01
	TypeNext           ServiceType = 0x02
	TypeWithList       ServiceType = 0x03
	TypeWithDataBlock  ServiceType = 0x04
)

// AttributeDescriptor identifies a COSEM attribute: class, logical name, attribute index.
type AttributeDescriptor struct {
	ClassID     uint16
	Instance    Obis
	AttributeID int8
}

// MethodDescriptor identifies a COSEM method: class, logical name, method index.
type MethodDescriptor struct {
	ClassID    uint16
	Instance   Obis
	MethodID   int8
}

// SelectiveAccessDescriptor restricts a Get to a sub-range or sub-list of the attribute.
type SelectiveAccessDescriptor struct {
	AccessSelector byte
	AccessParameters []byte // already A-XDR encoded
}

func fU8(v *uint8) axdr.FieldCodec {
	return axdr.FieldCodec{
		Encode: func(buf *bytes.Buffer) error { buf.WriteByte(*v); return nil },
		Decode: func(r *bytes.Reader) error {
			b, err := r.ReadByte()
			if err != nil {
				return err
			}
			*v = b
			return nil
		},
	}
}

func fI8(v *int8) axdr.FieldCodec {
	return axdr.FieldCodec{
		Encode: func(buf *bytes.Buffer) error { buf.WriteByte(byte(*v)); return nil },
		Decode: func(r *bytes.Reader) error {
			b, err := r.ReadByte()
			if err != nil {
				return err
			}
			*v = int8(b)
			return nil
		},
	}
}

func fU16(v *uint16) axdr.FieldCodec {
	return axdr.FieldCodec{
		Encode: func(buf *bytes.Buffer) error {
			buf.WriteByte(byte(*v >> 8))
			buf.WriteByte(byte(*v))
			return nil
		},
		Decode: func(r *bytes.Reader) error {
			hi, err := r.ReadByte()
			if err != nil {
				return err
			}
			lo, err := r.ReadByte()
			if err != nil {
				return err
			}
			*v = uint16(hi)<<8 | uint16(lo)
			return nil
		},
	}
}

func fObis(v *Obis) axdr.FieldCodec {
	return axdr.FieldCodec{
		Encode: func(buf *bytes.Buffer) error { buf.Write(v[:]); return nil },
		Decode: func(r *bytes.Reader) error {
			raw := make([]byte, 6)
			if _, err := r.Read(raw); err != nil {
				return err
			}
			copy(v[:], raw)
			return nil
		},
	}
}

// fAttrDescriptor and fMethodDescriptor encode the three component fields in the natural
// (non-reversed) order a COSEM descriptor is always read in, regardless of the enclosing
// APDU's own reversed-field rule — the descriptor is itself a plain SEQUENCE, not a CHOICE.
func fAttrDescriptor(v *AttributeDescriptor) axdr.FieldCodec {
	return axdr.FieldCodec{
		Encode: func(buf *bytes.Buffer) error {
			buf.WriteByte(byte(v.ClassID >> 8))
			buf.WriteByte(byte(v.ClassID))
			buf.Write(v.Instance[:])
			buf.WriteByte(byte(v.AttributeID))
			return nil
		},
		Decode: func(r *bytes.Reader) error {
			raw := make([]byte, 9)
			if _, err := r.Read(raw); err != nil {
				return err
			}
			v.ClassID = uint16(raw[0])<<8 | uint16(raw[1])
			copy(v.Instance[:], raw[2:8])
			v.AttributeID = int8(raw[8])
			return nil
		},
	}
}

func fU32(v *uint32) axdr.FieldCodec {
	return axdr.FieldCodec{
		Encode: func(buf *bytes.Buffer) error {
			buf.WriteByte(byte(*v >> 24))
			buf.WriteByte(byte(*v >> 16))
			buf.WriteByte(byte(*v >> 8))
			buf.WriteByte(byte(*v))
			return nil
		},
		Decode: func(r *bytes.Reader) error {
			raw := make([]byte, 4)
			if _, err := r.Read(raw); err != nil {
				return err
			}
			*v = uint32(raw[0])<<24 | uint32(raw[1])<<16 | uint32(raw[2])<<8 | uint32(raw[3])
			return nil
		},
	}
}

// fAccess encodes the presence octet plus selector/parameters of a SelectiveAccessDescriptor,
// the shape Get/SetRequestNormal both share.
func fAccess(has *bool, access *SelectiveAccessDescriptor) axdr.FieldCodec {
	return axdr.FieldCodec{
		Encode: func(buf *bytes.Buffer) error {
			if !*has {
				buf.WriteByte(0)
				return nil
			}
			buf.WriteByte(1)
			buf.WriteByte(access.AccessSelector)
			buf.Write(access.AccessParameters)
			return nil
		},
		Decode: func(r *bytes.Reader) error {
			b, err := r.ReadByte()
			if err != nil {
				return err
			}
			*has = b != 0
			if !*has {
				return nil
			}
			sel, err := r.ReadByte()
			if err != nil {
				return err
			}
			access.AccessSelector = sel
			remaining := make([]byte, r.Len())
			_, _ = r.Read(remaining)
			access.AccessParameters = remaining
			return nil
		},
	}
}

func fMethodDescriptor(v *MethodDescriptor) axdr.FieldCodec {
	return axdr.FieldCodec{
		Encode: func(buf *bytes.Buffer) error {
			buf.WriteByte(byte(v.ClassID >> 8))
			buf.WriteByte(byte(v.ClassID))
			buf.Write(v.Instance[:])
			buf.WriteByte(byte(v.MethodID))
			return nil
		},
		Decode: func(r *bytes.Reader) error {
			raw := make([]byte, 9)
			if _, err := r.Read(raw); err != nil {
				return err
			}
			v.ClassID = uint16(raw[0])<<8 | uint16(raw[1])
			copy(v.Instance[:], raw[2:8])
			v.MethodID = int8(raw[8])
			return nil
		},
	}
}

// fAXDRValue encodes/decodes an arbitrary A-XDR value (attribute data, method parameters),
// routed through the pkg/axdr codec so every data value in the stack shares one encoder.
func fAXDRValue(v *interface{}) axdr.FieldCodec {
	return axdr.FieldCodec{
		Encode: func(buf *bytes.Buffer) error {
			encoded, err := axdr.Encode(*v)
			if err != nil {
				return err
			}
			buf.Write(encoded)
			return nil
		},
		Decode: func(r *bytes.Reader) error {
			decoded, err := axdr.DecodeFromReader(r)
			if err != nil {
				return err
			}
			*v = decoded
			return nil
		},
	}
}

// fOptional wraps a field with a leading presence octet (0/1), the A-XDR convention for
// OPTIONAL elements.
func fOptional(present *bool, inner axdr.FieldCodec) axdr.FieldCodec {
	return axdr.FieldCodec{
		Encode: func(buf *bytes.Buffer) error {
			if *present {
				buf.WriteByte(1)
				return inner.Encode(buf)
			}
			buf.WriteByte(0)
			return nil
		},
		Decode: func(r *bytes.Reader) error {
			b, err := r.ReadByte()
			if err != nil {
				return err
			}
			*present = b != 0
			if *present {
				return inner.Decode(r)
			}
			return nil
		},
	}
}

// InitiateRequest is the xDLMS negotiation PDU carried in an AARQ's user-information field.
type InitiateRequest struct {
	DedicatedKey        []byte // optional
	HasDedicatedKey     bool
	ResponseAllowed     bool
	QualityOfService    int8
	HasQualityOfService bool
	DlmsVersionNumber   uint8
	ProposedConformance []byte // 3-octet conformance block, BER [APPLICATION 31] encoded
	ClientMaxReceivePDU uint16
}

func fOctetString(v *[]byte) axdr.FieldCodec {
	return axdr.FieldCodec{
		Encode: func(buf *bytes.Buffer) error {
			encoded, err := axdr.Encode(axdr.OctetString(*v))
			if err != nil {
				return err
			}
			buf.Write(encoded)
			return nil
		},
		Decode: func(r *bytes.Reader) error {
			decoded, err := axdr.DecodeFromReader(r)
			if err != nil {
				return err
			}
			b, ok := decoded.([]byte)
			if !ok {
				return fmt.Errorf("apdu: expected octet string")
			}
			*v = b
			return nil
		},
	}
}

func (ir *InitiateRequest) fields() ([]axdr.FieldCodec, error) {
	conformance, err := ber.EncodeConformanceBitString(ir.ProposedConformance, 5)
	if err != nil {
		return nil, fmt.Errorf("apdu: conformance block: %w", err)
	}
	return []axdr.FieldCodec{
		fOptional(&ir.HasDedicatedKey, fOctetString(&ir.DedicatedKey)),
		{
			Encode: func(buf *bytes.Buffer) error {
				b := byte(0)
				if ir.ResponseAllowed {
					b = 1
				}
				buf.WriteByte(b)
				return nil
			},
			Decode: func(r *bytes.Reader) error {
				b, err := r.ReadByte()
				if err != nil {
					return err
				}
				ir.ResponseAllowed = b != 0
				return nil
			},
		},
		fOptional(&ir.HasQualityOfService, fI8(&ir.QualityOfService)),
		fU8(&ir.DlmsVersionNumber),
		{
			Encode: func(buf *bytes.Buffer) error { buf.Write(conformance); return nil },
			Decode: func(r *bytes.Reader) error {
				bits, err := decodeConformanceField(r)
				if err != nil {
					return err
				}
				ir.ProposedConformance = bits
				return nil
			},
		},
		fU16(&ir.ClientMaxReceivePDU),
	}, nil
}

func (ir *InitiateRequest) Encode() ([]byte, error) {
	fields, err := ir.fields()
	if err != nil {
		return nil, err
	}
	return axdr.EncodeReversedSequence(byte(TagInitiateRequest), fields)
}

// DecodeInitiateRequest decodes an InitiateRequest PDU from an AARQ's user-information field.
func DecodeInitiateRequest(src []byte) (*InitiateRequest, error) {
	ir := &InitiateRequest{}
	fields, err := ir.fields()
	if err != nil {
		return nil, err
	}
	if err := axdr.DecodeReversedSequence(bytes.NewReader(src), byte(TagInitiateRequest), fields); err != nil {
		return nil, err
	}
	return ir, nil
}

// InitiateResponse is the negotiated counterpart carried in an AARE's user-information field.
type InitiateResponse struct {
	NegotiatedQualityOfService    int8
	HasNegotiatedQualityOfService bool
	DlmsVersionNumber             uint8
	NegotiatedConformance         []byte
	ServerMaxReceivePDU           uint16
	VAAName                      uint16
}

func (ir *InitiateResponse) fields() ([]axdr.FieldCodec, error) {
	conformance, err := ber.EncodeConformanceBitString(ir.NegotiatedConformance, 5)
	if err != nil {
		return nil, fmt.Errorf("apdu: conformance block: %w", err)
	}
	return []axdr.FieldCodec{
		fOptional(&ir.HasNegotiatedQualityOfService, fI8(&ir.NegotiatedQualityOfService)),
		fU8(&ir.DlmsVersionNumber),
		{
			Encode: func(buf *bytes.Buffer) error { buf.Write(conformance); return nil },
			Decode: func(r *bytes.Reader) error {
				bits, err := decodeConformanceField(r)
				if err != nil {
					return err
				}
				ir.NegotiatedConformance = bits
				return nil
			},
		},
		fU16(&ir.ServerMaxReceivePDU),
		fU16(&ir.VAAName),
	}, nil
}

func (ir *InitiateResponse) Encode() ([]byte, error) {
	fields, err := ir.fields()
	if err != nil {
		return nil, err
	}
	return axdr.EncodeReversedSequence(byte(TagInitiateResponse), fields)
}

// DecodeInitiateResponse decodes an InitiateResponse PDU from an AARE's user-information field.
func DecodeInitiateResponse(src []byte) (*InitiateResponse, error) {
	ir := &InitiateResponse{}
	fields, err := ir.fields()
	if err != nil {
		return nil, err
	}
	if err := axdr.DecodeReversedSequence(bytes.NewReader(src), byte(TagInitiateResponse), fields); err != nil {
		return nil, err
	}
	return ir, nil
}

// GetRequestNormal reads a single attribute, with an optional selective-access descriptor.
type GetRequestNormal struct {
	InvokeIDAndPriority uint8
	Descriptor          AttributeDescriptor
	HasAccess           bool
	Access              SelectiveAccessDescriptor
}

func (g *GetRequestNormal) fields() []axdr.FieldCodec {
	return []axdr.FieldCodec{
		fU8(&g.InvokeIDAndPriority),
		fAttrDescriptor(&g.Descriptor),
		fAccess(&g.HasAccess, &g.Access),
	}
}

func (g *GetRequestNormal) Encode() ([]byte, error) {
	body, err := axdr.EncodeReversedSequence(byte(TypeNormal), g.fields())
	if err != nil {
		return nil, err
	}
	return append([]byte{byte(TagGetRequest)}, body...), nil
}

func DecodeGetRequestNormal(src []byte) (*GetRequestNormal, error) {
	if len(src) < 2 || Tag(src[0]) != TagGetRequest {
		return nil, fmt.Errorf("apdu: not a GetRequest-Normal")
	}
	g := &GetRequestNormal{}
	if err := axdr.DecodeReversedSequence(bytes.NewReader(src[1:]), byte(TypeNormal), g.fields()); err != nil {
		return nil, err
	}
	return g, nil
}

// GetResponseNormal carries either the requested data or a DataAccessResult failure code.
type GetResponseNormal struct {
	InvokeIDAndPriority uint8
	IsFailure           bool
	Result              DataAccessResult
	Value               interface{}
}

func (g *GetResponseNormal) fields() []axdr.FieldCodec {
	return []axdr.FieldCodec{
		fU8(&g.InvokeIDAndPriority),
		{
			Encode: func(buf *bytes.Buffer) error {
				if g.IsFailure {
					buf.WriteByte(1)
					buf.WriteByte(byte(g.Result))
					return nil
				}
				buf.WriteByte(0)
				return fAXDRValue(&g.Value).Encode(buf)
			},
			Decode: func(r *bytes.Reader) error {
				b, err := r.ReadByte()
				if err != nil {
					return err
				}
				g.IsFailure = b != 0
				if g.IsFailure {
					res, err := r.ReadByte()
					if err != nil {
						return err
					}
					g.Result = DataAccessResult(res)
					return nil
				}
				return fAXDRValue(&g.Value).Decode(r)
			},
		},
	}
}

func (g *GetResponseNormal) Encode() ([]byte, error) {
	body, err := axdr.EncodeReversedSequence(byte(TypeNormal), g.fields())
	if err != nil {
		return nil, err
	}
	return append([]byte{byte(TagGetResponse)}, body...), nil
}

// DecodeGetResponseNormal decodes a GetResponse-Normal APDU (the service-type byte included).
func DecodeGetResponseNormal(src []byte) (*GetResponseNormal, error) {
	if len(src) < 2 || Tag(src[0]) != TagGetResponse {
		return nil, fmt.Errorf("apdu: not a GetResponse-Normal")
	}
	g := &GetResponseNormal{}
	if err := axdr.DecodeReversedSequence(bytes.NewReader(src[1:]), byte(TypeNormal), g.fields()); err != nil {
		return nil, err
	}
	return g, nil
}

// SetRequestNormal writes a single attribute.
type SetRequestNormal struct {
	InvokeIDAndPriority uint8
	Descriptor          AttributeDescriptor
	HasAccess           bool
	Access              SelectiveAccessDescriptor
	Value               interface{}
}

func (s *SetRequestNormal) fields() []axdr.FieldCodec {
	return []axdr.FieldCodec{
		fU8(&s.InvokeIDAndPriority),
		fAttrDescriptor(&s.Descriptor),
		fAccess(&s.HasAccess, &s.Access),
		fAXDRValue(&s.Value),
	}
}

func (s *SetRequestNormal) Encode() ([]byte, error) {
	body, err := axdr.EncodeReversedSequence(byte(TypeNormal), s.fields())
	if err != nil {
		return nil, err
	}
	return append([]byte{byte(TagSetRequest)}, body...), nil
}

// DecodeSetRequestNormal decodes a SetRequest-Normal APDU (the service-type byte included).
func DecodeSetRequestNormal(src []byte) (*SetRequestNormal, error) {
	if len(src) < 2 || Tag(src[0]) != TagSetRequest {
		return nil, fmt.Errorf("apdu: not a SetRequest-Normal")
	}
	s := &SetRequestNormal{}
	if err := axdr.DecodeReversedSequence(bytes.NewReader(src[1:]), byte(TypeNormal), s.fields()); err != nil {
		return nil, err
	}
	return s, nil
}

// SetResponseNormal is the server's DataAccessResult for a SetRequestNormal.
type SetResponseNormal struct {
	InvokeIDAndPriority uint8
	Result              DataAccessResult
}

func (s *SetResponseNormal) fields() []axdr.FieldCodec {
	return []axdr.FieldCodec{
		fU8(&s.InvokeIDAndPriority),
		{
			Encode: func(buf *bytes.Buffer) error { buf.WriteByte(byte(s.Result)); return nil },
			Decode: func(r *bytes.Reader) error {
				b, err := r.ReadByte()
				if err != nil {
					return err
				}
				s.Result = DataAccessResult(b)
				return nil
			},
		},
	}
}

func (s *SetResponseNormal) Encode() ([]byte, error) {
	body, err := axdr.EncodeReversedSequence(byte(TypeNormal), s.fields())
	if err != nil {
		return nil, err
	}
	return append([]byte{byte(TagSetResponse)}, body...), nil
}

// DecodeSetResponseNormal decodes a SetResponse-Normal APDU (the service-type byte included).
func DecodeSetResponseNormal(src []byte) (*SetResponseNormal, error) {
	if len(src) < 2 || Tag(src[0]) != TagSetResponse {
		return nil, fmt.Errorf("apdu: not a SetResponse-Normal")
	}
	s := &SetResponseNormal{}
	if err := axdr.DecodeReversedSequence(bytes.NewReader(src[1:]), byte(TypeNormal), s.fields()); err != nil {
		return nil, err
	}
	return s, nil
}

// ActionRequestNormal invokes a single COSEM method.
type ActionRequestNormal struct {
	InvokeIDAndPriority uint8
	Descriptor          MethodDescriptor
	HasParameters       bool
	Parameters          interface{}
}

func (a *ActionRequestNormal) fields() []axdr.FieldCodec {
	return []axdr.FieldCodec{
		fU8(&a.InvokeIDAndPriority),
		fMethodDescriptor(&a.Descriptor),
		fOptional(&a.HasParameters, fAXDRValue(&a.Parameters)),
	}
}

func (a *ActionRequestNormal) Encode() ([]byte, error) {
	body, err := axdr.EncodeReversedSequence(byte(TypeNormal), a.fields())
	if err != nil {
		return nil, err
	}
	return append([]byte{byte(TagActionRequest)}, body...), nil
}

// DecodeActionRequestNormal decodes an ActionRequest-Normal APDU (the service-type byte included).
func DecodeActionRequestNormal(src []byte) (*ActionRequestNormal, error) {
	if len(src) < 2 || Tag(src[0]) != TagActionRequest {
		return nil, fmt.Errorf("apdu: not an ActionRequest-Normal")
	}
	a := &ActionRequestNormal{}
	if err := axdr.DecodeReversedSequence(bytes.NewReader(src[1:]), byte(TypeNormal), a.fields()); err != nil {
		return nil, err
	}
	return a, nil
}

// ActionResponseNormal carries either a DataAccessResult or the method's return data.
type ActionResponseNormal struct {
	InvokeIDAndPriority uint8
	Result              DataAccessResult
	HasReturnValue      bool
	ReturnValue         interface{}
}

func (a *ActionResponseNormal) fields() []axdr.FieldCodec {
	return []axdr.FieldCodec{
		fU8(&a.InvokeIDAndPriority),
		{
			Encode: func(buf *bytes.Buffer) error { buf.WriteByte(byte(a.Result)); return nil },
			Decode: func(r *bytes.Reader) error {
				b, err := r.ReadByte()
				if err != nil {
					return err
				}
				a.Result = DataAccessResult(b)
				return nil
			},
		},
		fOptional(&a.HasReturnValue, fAXDRValue(&a.ReturnValue)),
	}
}

func (a *ActionResponseNormal) Encode() ([]byte, error) {
	body, err := axdr.EncodeReversedSequence(byte(TypeNormal), a.fields())
	if err != nil {
		return nil, err
	}
	return append([]byte{byte(TagActionResponse)}, body...), nil
}

// DecodeActionResponseNormal decodes an ActionResponse-Normal APDU (the service-type byte included).
func DecodeActionResponseNormal(src []byte) (*ActionResponseNormal, error) {
	if len(src) < 2 || Tag(src[0]) != TagActionResponse {
		return nil, fmt.Errorf("apdu: not an ActionResponse-Normal")
	}
	a := &ActionResponseNormal{}
	if err := axdr.DecodeReversedSequence(bytes.NewReader(src[1:]), byte(TypeNormal), a.fields()); err != nil {
		return nil, err
	}
	return a, nil
}

// DataNotification is an unconfirmed push of an attribute's value, identified by a 4-octet
// long-invoke-id-and-priority rather than the one-octet invoke-id of confirmed services.
type DataNotification struct {
	LongInvokeIDAndPriority uint32
	Value                   interface{}
}

func (d *DataNotification) fields() []axdr.FieldCodec {
	return []axdr.FieldCodec{
		fU32(&d.LongInvokeIDAndPriority),
		fAXDRValue(&d.Value),
	}
}

func (d *DataNotification) Encode() ([]byte, error) {
	return axdr.EncodeReversedSequence(byte(TagDataNotification), d.fields())
}

// DecodeDataNotification decodes a DataNotification APDU.
func DecodeDataNotification(src []byte) (*DataNotification, error) {
	d := &DataNotification{}
	if err := axdr.DecodeReversedSequence(bytes.NewReader(src), byte(TagDataNotification), d.fields()); err != nil {
		return nil, err
	}
	return d, nil
}

// EventNotification is an unconfirmed push tied to a specific attribute descriptor (e.g. a
// clock's time-change event).
type EventNotification struct {
	Descriptor AttributeDescriptor
	Value      interface{}
}

func (e *EventNotification) fields() []axdr.FieldCodec {
	return []axdr.FieldCodec{
		fAttrDescriptor(&e.Descriptor),
		fAXDRValue(&e.Value),
	}
}

func (e *EventNotification) Encode() ([]byte, error) {
	return axdr.EncodeReversedSequence(byte(TagEventNotification), e.fields())
}

// DecodeEventNotification decodes an EventNotification APDU.
func DecodeEventNotification(src []byte) (*EventNotification, error) {
	e := &EventNotification{}
	if err := axdr.DecodeReversedSequence(bytes.NewReader(src), byte(TagEventNotification), e.fields()); err != nil {
		return nil, err
	}
	return e, nil
}

// ConfirmedServiceError reports that a confirmed request could not be served at the xDLMS
// layer (as distinct from a DataAccessResult failure for a specific attribute).
type ConfirmedServiceError struct {
	ServiceError byte
}

func (c *ConfirmedServiceError) fields() []axdr.FieldCodec {
	return []axdr.FieldCodec{fU8((*uint8)(&c.ServiceError))}
}

func (c *ConfirmedServiceError) Encode() ([]byte, error) {
	return axdr.EncodeReversedSequence(byte(TagConfirmedServiceError), c.fields())
}

// DecodeConfirmedServiceError decodes a ConfirmedServiceError APDU.
func DecodeConfirmedServiceError(src []byte) (*ConfirmedServiceError, error) {
	c := &ConfirmedServiceError{}
	if err := axdr.DecodeReversedSequence(bytes.NewReader(src), byte(TagConfirmedServiceError), c.fields()); err != nil {
		return nil, err
	}
	return c, nil
}

// DataAccessResult enumerates the 15 well-known reasons a Get/Set/Action attribute access
// can fail, per the xDLMS ASN.1 module.
type DataAccessResult byte

const (
	ResultSuccess                 DataAccessResult = 0
	ResultHardwareFault           DataAccessResult = 1
	ResultTemporaryFailure        DataAccessResult = 2
	ResultReadWriteDenied         DataAccessResult = 3
	ResultObjectUndefined         DataAccessResult = 4
	ResultObjectClassInconsistent DataAccessResult = 9
	ResultObjectUnavailable       DataAccessResult = 11
	ResultTypeUnmatched           DataAccessResult = 12
	ResultScopeOfAccessViolated   DataAccessResult = 13
	ResultDataBlockUnavailable    DataAccessResult = 14
	ResultLongGetAborted          DataAccessResult = 15
	ResultNoLongGetInProgress     DataAccessResult = 16
	ResultLongSetAborted          DataAccessResult = 17
	ResultNoLongSetInProgress     DataAccessResult = 18
	ResultDataBlockNumberInvalid  DataAccessResult = 19
	ResultOtherReason             DataAccessResult = 250
)
