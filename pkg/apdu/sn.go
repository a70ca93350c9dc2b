package apdu

import (
	"bytes"
	"fmt"

	"github.com/ViewWay/dlms-go/pkg/axdr"
)

// VariableName is a short-name (SN) addressing reference: a single 16-bit base address rather
// than the class/OBIS/index triple LN addressing uses.
type VariableName uint16

// ReadRequest is the SN-referencing counterpart of GetRequestNormal: one or more variable-name
// reads, each with an optional selective-access descriptor.
type ReadRequest struct {
	Items []ReadRequestItem
}

// ReadRequestItem is one entry of a ReadRequest: the variable name, and an optional selector.
type ReadRequestItem struct {
	Name      VariableName
	HasAccess bool
	Access    SelectiveAccessDescriptor
}

func (rq *ReadRequest) Encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(byte(TagReadRequest))
	buf.WriteByte(byte(len(rq.Items)))
	for _, item := range rq.Items {
		buf.WriteByte(byte(item.Name >> 8))
		buf.WriteByte(byte(item.Name))
		if item.HasAccess {
			buf.WriteByte(1)
			buf.WriteByte(item.Access.AccessSelector)
			buf.Write(item.Access.AccessParameters)
		} else {
			buf.WriteByte(0)
		}
	}
	return buf.Bytes(), nil
}

// DecodeReadRequest decodes a ReadRequest APDU. Because selective-access parameters are
// self-delimiting A-XDR only by convention of the object requested, a multi-item request with
// access parameters on anything but the last item cannot be split unambiguously here; callers
// that need that case should address items individually.
func DecodeReadRequest(src []byte) (*ReadRequest, error) {
	if len(src) < 2 || Tag(src[0]) != TagReadRequest {
		return nil, fmt.Errorf("apdu: not a ReadRequest")
	}
	count := int(src[1])
	r := bytes.NewReader(src[2:])
	rq := &ReadRequest{}
	for i := 0; i < count; i++ {
		var item ReadRequestItem
		raw := make([]byte, 2)
		if _, err := r.Read(raw); err != nil {
			return nil, err
		}
		item.Name = VariableName(raw[0])<<8 | VariableName(raw[1])
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		item.HasAccess = b != 0
		if item.HasAccess {
			sel, err := r.ReadByte()
			if err != nil {
				return nil, err
			}
			item.Access.AccessSelector = sel
			remaining := make([]byte, r.Len())
			_, _ = r.Read(remaining)
			item.Access.AccessParameters = remaining
		}
		rq.Items = append(rq.Items, item)
	}
	return rq, nil
}

// WriteRequest is the SN counterpart of SetRequestNormal: variable names paired with their new
// values, both lists ordered and counted identically per the SN WriteRequest ASN.1 shape.
type WriteRequest struct {
	Names  []VariableName
	Values []interface{}
}

func (wq *WriteRequest) Encode() ([]byte, error) {
	if len(wq.Names) != len(wq.Values) {
		return nil, fmt.Errorf("apdu: WriteRequest names/values length mismatch: %d/%d", len(wq.Names), len(wq.Values))
	}
	var buf bytes.Buffer
	buf.WriteByte(byte(TagWriteRequest))
	buf.WriteByte(byte(len(wq.Names)))
	for _, name := range wq.Names {
		buf.WriteByte(byte(name >> 8))
		buf.WriteByte(byte(name))
	}
	buf.WriteByte(byte(len(wq.Values)))
	for _, value := range wq.Values {
		encoded, err := axdr.Encode(value)
		if err != nil {
			return nil, err
		}
		buf.Write(encoded)
	}
	return buf.Bytes(), nil
}

// ReadResponse carries one GetDataResult-equivalent per requested variable name, in request
// order: either the value or a DataAccessResult failure code.
type ReadResponse struct {
	Results []ReadResult
}

// ReadResult is one ReadResponse entry.
type ReadResult struct {
	IsFailure bool
	Result    DataAccessResult
	Value     interface{}
}

func (rr *ReadResponse) Encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(byte(TagReadResponse))
	buf.WriteByte(byte(len(rr.Results)))
	for _, result := range rr.Results {
		if result.IsFailure {
			buf.WriteByte(1)
			buf.WriteByte(byte(result.Result))
			continue
		}
		buf.WriteByte(0)
		value := result.Value
		encoded, err := axdr.Encode(value)
		if err != nil {
			return nil, err
		}
		buf.Write(encoded)
	}
	return buf.Bytes(), nil
}

// WriteResponse carries one DataAccessResult per written variable name, in request order.
type WriteResponse struct {
	Results []DataAccessResult
}

func (wr *WriteResponse) Encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(byte(TagWriteResponse))
	buf.WriteByte(byte(len(wr.Results)))
	for _, result := range wr.Results {
		buf.WriteByte(byte(result))
	}
	return buf.Bytes(), nil
}

// InformationReport is the SN association's unconfirmed push notification, the short-name
// counterpart of DataNotification/EventNotification: a timestamp-free list of variable names
// and their current values.
type InformationReport struct {
	Names  []VariableName
	Values []interface{}
}

func (ir *InformationReport) Encode() ([]byte, error) {
	if len(ir.Names) != len(ir.Values) {
		return nil, fmt.Errorf("apdu: InformationReport names/values length mismatch: %d/%d", len(ir.Names), len(ir.Values))
	}
	var buf bytes.Buffer
	buf.WriteByte(byte(TagInformationReport))
	buf.WriteByte(byte(len(ir.Names)))
	for _, name := range ir.Names {
		buf.WriteByte(byte(name >> 8))
		buf.WriteByte(byte(name))
	}
	for _, value := range ir.Values {
		encoded, err := axdr.Encode(value)
		if err != nil {
			return nil, err
		}
		buf.Write(encoded)
	}
	return buf.Bytes(), nil
}
