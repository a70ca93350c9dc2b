package axdr

import (
	"bytes"
	"fmt"
)

// FieldCodec pairs a field encoder with its decoder for one position in a CHOICE variant's
// SEQUENCE. Decode is invoked with the remaining reader and must consume exactly one field.
type FieldCodec struct {
	Encode func(buf *bytes.Buffer) error
	Decode func(reader *bytes.Reader) error
}

// EncodeReversedSequence implements the A-XDR reversed-SEQUENCE rule: the fields of a chosen
// CHOICE variant are written in reverse declaration order, and the one-octet choice tag is
// placed in front of them as the first byte of the output. This is the single choke point
// every xDLMS APDU variant must go through; no APDU type may hand-roll its own field ordering.
//
// Decoders read the tag first and then consume fields in the mirrored reverse order: the
// fields are encoded in reverse order into a scratch buffer, and the tag is prepended to it.
func EncodeReversedSequence(tag byte, fields []FieldCodec) ([]byte, error) {
	var body bytes.Buffer
	for i := len(fields) - 1; i >= 0; i-- {
		if err := fields[i].Encode(&body); err != nil {
			return nil, fmt.Errorf("reversed-sequence field %d: %w", i, err)
		}
	}
	out := make([]byte, 0, body.Len()+1)
	out = append(out, tag)
	out = append(out, body.Bytes()...)
	return out, nil
}

// DecodeReversedSequence reads the one-octet choice tag, checks it against expectTag, then
// decodes fields in reverse declared order — mirroring EncodeReversedSequence.
func DecodeReversedSequence(reader *bytes.Reader, expectTag byte, fields []FieldCodec) error {
	got, err := reader.ReadByte()
	if err != nil {
		return fmt.Errorf("reversed-sequence tag: %w", err)
	}
	if got != expectTag {
		return fmt.Errorf("reversed-sequence: expected tag 0x%02x, got 0x%02x", expectTag, got)
	}
	for i := len(fields) - 1; i >= 0; i-- {
		if err := fields[i].Decode(reader); err != nil {
			return fmt.Errorf("reversed-sequence field %d: %w", i, err)
		}
	}
	return nil
}
