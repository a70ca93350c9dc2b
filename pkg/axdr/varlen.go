package axdr

import (
	"bytes"
	"fmt"

	"github.com/ViewWay/dlms-go/pkg/common"
)

// writeAXDRLength encodes a non-negative length using A-XDR's variable-length
// convention: lengths up to 127 fit in a single byte; longer lengths set the
// high bit as an extension flag and store the big-endian value across the
// following bytes.
func writeAXDRLength(buf *bytes.Buffer, length int) error {
	if length < 0 {
		return common.New(common.KindCodec, "axdr: negative length")
	}
	if length <= 0x7F {
		buf.WriteByte(byte(length))
		return nil
	}

	value := uint64(length)
	var tmp [8]byte
	i := len(tmp)
	for value > 0 {
		i--
		tmp[i] = byte(value & 0xFF)
		value >>= 8
	}
	lengthBytes := tmp[i:]
	if len(lengthBytes) == 0 {
		lengthBytes = []byte{0}
	}
	if len(lengthBytes) > 0x7F {
		return common.New(common.KindCodec, "axdr: length exceeds encoding limits")
	}

	buf.WriteByte(0x80 | byte(len(lengthBytes)))
	buf.Write(lengthBytes)
	return nil
}

// readAXDRLength decodes a variable-length length field, the inverse of
// writeAXDRLength.
func readAXDRLength(reader *bytes.Reader) (int, error) {
	first, err := reader.ReadByte()
	if err != nil {
		return 0, common.Wrap(common.KindCodec, "axdr: read length", err)
	}
	if first&0x80 == 0 {
		return int(first), nil
	}

	numBytes := int(first & 0x7F)
	if numBytes == 0 {
		return 0, common.New(common.KindCodec, "axdr: indefinite lengths are not supported")
	}
	if numBytes > 8 {
		return 0, common.New(common.KindCodec, "axdr: length field exceeds 8 bytes")
	}

	var length uint64
	for i := 0; i < numBytes; i++ {
		b, err := reader.ReadByte()
		if err != nil {
			return 0, common.Wrap(common.KindCodec, "axdr: read length byte", err)
		}
		length = (length << 8) | uint64(b)
	}

	maxInt := uint64(int(^uint(0) >> 1))
	if length > maxInt {
		return 0, common.New(common.KindCodec, "axdr: length exceeds platform int range")
	}

	return int(length), nil
}

// encodeCompactArray writes TagCompactArray, the element count, the shared
// type tag, and each element's value with its own per-element tag stripped.
func encodeCompactArray(buf *bytes.Buffer, ca CompactArray) error {
	buf.WriteByte(byte(TagCompactArray))
	length := len(ca.Values)
	if length > 255 {
		return common.New(common.KindCodec, "axdr: compact array length exceeds 255")
	}
	buf.WriteByte(byte(length))
	buf.WriteByte(byte(ca.TypeTag))
	for i, v := range ca.Values {
		data, err := Encode(v)
		if err != nil {
			return common.Wrap(common.KindCodec, fmt.Sprintf("axdr: encode compact array element %d", i), err)
		}
		if len(data) > 0 {
			buf.Write(data[1:]) // per-element tag already fixed by TypeTag
		}
	}
	return nil
}

// decodeCompactArray reads a count byte, a shared type tag, and that many
// untagged elements of that type.
func decodeCompactArray(reader *bytes.Reader) (interface{}, error) {
	length, err := reader.ReadByte()
	if err != nil {
		return nil, common.Wrap(common.KindCodec, "axdr: read compact array length", err)
	}
	typeTag, err := reader.ReadByte()
	if err != nil {
		return nil, common.Wrap(common.KindCodec, "axdr: read compact array type tag", err)
	}

	values := make([]interface{}, length)
	for i := 0; i < int(length); i++ {
		var val interface{}
		switch Tag(typeTag) {
		case TagBoolean:
			val, err = decodeBoolean(reader)
		case TagInteger, TagDeltaInteger:
			val, err = decodeInt8(reader)
		case TagLong, TagDeltaLong:
			val, err = decodeInt16(reader)
		case TagUnsigned, TagDeltaUnsigned:
			val, err = decodeUint8(reader)
		case TagLongUnsigned, TagDeltaLongUnsigned:
			val, err = decodeUint16(reader)
		case TagDoubleLong, TagDeltaDoubleLong:
			val, err = decodeInt32(reader)
		case TagDoubleLongU, TagDeltaDoubleLongUnsigned:
			val, err = decodeUint32(reader)
		case TagLong64:
			val, err = decodeInt64(reader)
		case TagLong64U:
			val, err = decodeUint64(reader)
		case TagFloat32:
			val, err = decodeFloat32(reader)
		case TagFloat64:
			val, err = decodeFloat64(reader)
		case TagOctetString:
			val, err = decodeOctetString(reader)
		case TagVisibleString:
			val, err = decodeVisibleString(reader)
		case TagBitString:
			val, err = decodeBitString(reader)
		case TagBCD:
			val, err = decodeBCD(reader)
		case TagDate:
			val, err = decodeDate(reader)
		case TagTime:
			val, err = decodeTime(reader)
		case TagDateTime:
			val, err = decodeDateTime(reader)
		default:
			return nil, common.New(common.KindCodec, "axdr: unsupported compact array type tag")
		}
		if err != nil {
			return nil, common.Wrap(common.KindCodec, fmt.Sprintf("axdr: decode compact array element %d", i), err)
		}
		values[i] = val
	}
	return CompactArray{TypeTag: Tag(typeTag), Values: values}, nil
}
