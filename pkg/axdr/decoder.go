package axdr

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/ViewWay/dlms-go/pkg/common"
)

// Decode decodes a complete A-XDR value per IEC 62056-6-2 and СТО 34.01-5.1-006-2023,
// supporting primitives, the custom date/time types, bit strings, BCD, arrays,
// structures, and compact arrays.
func Decode(data []byte) (interface{}, error) {
	reader := bytes.NewReader(data)
	return decodeValue(reader)
}

// DecodeFromReader decodes a single A-XDR value directly from an existing reader,
// consuming only the bytes that value needs and leaving the rest for the caller.
// Composite decoders that interleave A-XDR values with other framing (the APDU
// reversed-sequence fields) use this instead of Decode.
func DecodeFromReader(reader *bytes.Reader) (interface{}, error) {
	return decodeValue(reader)
}

type decodeFunc func(reader *bytes.Reader) (interface{}, error)

var decodeDispatch map[Tag]decodeFunc

func init() {
	decodeDispatch = map[Tag]decodeFunc{
		TagNull: func(reader *bytes.Reader) (interface{}, error) {
			return nil, nil
		},
		TagBoolean:                 decodeBoolean,
		TagInteger:                 decodeInt8,
		TagDeltaInteger:            decodeInt8,
		TagLong:                    decodeInt16,
		TagDeltaLong:               decodeInt16,
		TagUnsigned:                decodeUint8,
		TagDeltaUnsigned:           decodeUint8,
		TagLongUnsigned:            decodeUint16,
		TagDeltaLongUnsigned:       decodeUint16,
		TagDoubleLong:              decodeInt32,
		TagDeltaDoubleLong:         decodeInt32,
		TagDoubleLongU:             decodeUint32,
		TagDeltaDoubleLongUnsigned: decodeUint32,
		TagLong64:                  decodeInt64,
		TagLong64U:                 decodeUint64,
		TagFloat32:                 decodeFloat32,
		TagFloat64:                 decodeFloat64,
		TagOctetString:             decodeOctetString,
		TagVisibleString:           decodeVisibleString,
		TagBitString:               decodeBitString,
		TagBCD:                     decodeBCD,
		TagDate:                    decodeDate,
		TagTime:                    decodeTime,
		TagDateTime:                decodeDateTime,
		TagArray: func(reader *bytes.Reader) (interface{}, error) {
			elems, err := decodeElements(reader)
			if err != nil {
				return nil, err
			}
			return Array(elems), nil
		},
		TagStructure: func(reader *bytes.Reader) (interface{}, error) {
			elems, err := decodeElements(reader)
			if err != nil {
				return nil, err
			}
			return Structure(elems), nil
		},
		TagCompactArray: decodeCompactArray,
	}
}

// decodeValue decodes a single tagged A-XDR value.
func decodeValue(reader *bytes.Reader) (interface{}, error) {
	if reader.Len() == 0 {
		return nil, common.New(common.KindCodec, "axdr: empty data")
	}
	tagByte, err := reader.ReadByte()
	if err != nil {
		return nil, common.Wrap(common.KindCodec, "axdr: read tag", err)
	}
	tag := Tag(tagByte)

	if decodeFn, ok := decodeDispatch[tag]; ok {
		return decodeFn(reader)
	}
	return nil, common.New(common.KindCodec, fmt.Sprintf("axdr: unsupported tag 0x%02x", tag))
}

func decodeBoolean(reader *bytes.Reader) (interface{}, error) {
	b, err := reader.ReadByte()
	if err != nil {
		return nil, common.Wrap(common.KindCodec, "axdr: decode boolean", err)
	}
	return b != 0, nil
}

func decodeInt8(reader *bytes.Reader) (interface{}, error) {
	b, err := reader.ReadByte()
	if err != nil {
		return nil, common.Wrap(common.KindCodec, "axdr: decode int8", err)
	}
	return int8(b), nil
}

func decodeInt16(reader *bytes.Reader) (interface{}, error) {
	var val int16
	if err := binary.Read(reader, binary.BigEndian, &val); err != nil {
		return nil, common.Wrap(common.KindCodec, "axdr: decode int16", err)
	}
	return val, nil
}

func decodeUint8(reader *bytes.Reader) (interface{}, error) {
	b, err := reader.ReadByte()
	if err != nil {
		return nil, common.Wrap(common.KindCodec, "axdr: decode uint8", err)
	}
	return uint8(b), nil
}

func decodeUint16(reader *bytes.Reader) (interface{}, error) {
	var val uint16
	if err := binary.Read(reader, binary.BigEndian, &val); err != nil {
		return nil, common.Wrap(common.KindCodec, "axdr: decode uint16", err)
	}
	return val, nil
}

func decodeInt32(reader *bytes.Reader) (interface{}, error) {
	var val int32
	if err := binary.Read(reader, binary.BigEndian, &val); err != nil {
		return nil, common.Wrap(common.KindCodec, "axdr: decode int32", err)
	}
	return val, nil
}

func decodeUint32(reader *bytes.Reader) (interface{}, error) {
	var val uint32
	if err := binary.Read(reader, binary.BigEndian, &val); err != nil {
		return nil, common.Wrap(common.KindCodec, "axdr: decode uint32", err)
	}
	return val, nil
}

func decodeInt64(reader *bytes.Reader) (interface{}, error) {
	var val int64
	if err := binary.Read(reader, binary.BigEndian, &val); err != nil {
		return nil, common.Wrap(common.KindCodec, "axdr: decode int64", err)
	}
	return val, nil
}

func decodeUint64(reader *bytes.Reader) (interface{}, error) {
	var val uint64
	if err := binary.Read(reader, binary.BigEndian, &val); err != nil {
		return nil, common.Wrap(common.KindCodec, "axdr: decode uint64", err)
	}
	return val, nil
}

func decodeFloat32(reader *bytes.Reader) (interface{}, error) {
	var val float32
	if err := binary.Read(reader, binary.BigEndian, &val); err != nil {
		return nil, common.Wrap(common.KindCodec, "axdr: decode float32", err)
	}
	return val, nil
}

func decodeFloat64(reader *bytes.Reader) (interface{}, error) {
	var val float64
	if err := binary.Read(reader, binary.BigEndian, &val); err != nil {
		return nil, common.Wrap(common.KindCodec, "axdr: decode float64", err)
	}
	return val, nil
}

// decodeOctetString decodes TagOctetString: an A-XDR length then raw bytes.
func decodeOctetString(reader *bytes.Reader) (interface{}, error) {
	length, err := readAXDRLength(reader)
	if err != nil {
		return nil, common.Wrap(common.KindCodec, "axdr: read octet-string length", err)
	}
	if length == 0 {
		return []byte{}, nil
	}
	data := make([]byte, length)
	if _, err := readFull(reader, data); err != nil {
		return nil, common.Wrap(common.KindCodec, "axdr: decode octet-string", err)
	}
	return data, nil
}

// decodeVisibleString decodes TagVisibleString: an A-XDR length then ASCII bytes.
func decodeVisibleString(reader *bytes.Reader) (interface{}, error) {
	length, err := readAXDRLength(reader)
	if err != nil {
		return nil, common.Wrap(common.KindCodec, "axdr: read visible-string length", err)
	}
	if length == 0 {
		return "", nil
	}
	data := make([]byte, length)
	if _, err := readFull(reader, data); err != nil {
		return nil, common.Wrap(common.KindCodec, "axdr: decode visible-string", err)
	}
	return string(data), nil
}

func decodeBitString(reader *bytes.Reader) (interface{}, error) {
	length, err := readAXDRLength(reader)
	if err != nil {
		return nil, common.Wrap(common.KindCodec, "axdr: read bitstring length", err)
	}
	expectedBytes := (length + 7) / 8
	data := make([]byte, expectedBytes)
	if _, err := readFull(reader, data); err != nil {
		return nil, common.Wrap(common.KindCodec, "axdr: decode bitstring", err)
	}
	bs := BitString{Bits: data, Length: uint8(length)}
	if err := bs.Validate(); err != nil {
		return nil, common.Wrap(common.KindCodec, "axdr: invalid bitstring", err)
	}
	return bs, nil
}

func decodeBCD(reader *bytes.Reader) (interface{}, error) {
	length, err := readAXDRLength(reader)
	if err != nil {
		return nil, common.Wrap(common.KindCodec, "axdr: read BCD length", err)
	}
	expectedBytes := (length + 1) / 2
	data := make([]byte, expectedBytes)
	if _, err := readFull(reader, data); err != nil {
		return nil, common.Wrap(common.KindCodec, "axdr: decode BCD", err)
	}
	digits := make([]byte, length)
	for i := 0; i < length; i++ {
		byteIdx := i / 2
		if i%2 == 0 {
			digits[i] = (data[byteIdx] >> 4) & 0x0F
		} else {
			digits[i] = data[byteIdx] & 0x0F
		}
	}
	bcd := BCD{Digits: digits}
	if err := bcd.Validate(); err != nil {
		return nil, common.Wrap(common.KindCodec, "axdr: invalid BCD", err)
	}
	return bcd, nil
}

func decodeDate(reader *bytes.Reader) (interface{}, error) {
	data := make([]byte, 5)
	if _, err := readFull(reader, data); err != nil {
		return nil, common.Wrap(common.KindCodec, "axdr: decode date", err)
	}
	d := Date{
		Year:      binary.BigEndian.Uint16(data[0:2]),
		Month:     data[2],
		Day:       data[3],
		DayOfWeek: data[4],
	}
	if err := d.Validate(); err != nil {
		return nil, common.Wrap(common.KindCodec, "axdr: invalid date", err)
	}
	return d, nil
}

func decodeTime(reader *bytes.Reader) (interface{}, error) {
	data := make([]byte, 4)
	if _, err := readFull(reader, data); err != nil {
		return nil, common.Wrap(common.KindCodec, "axdr: decode time", err)
	}
	t := Time{Hour: data[0], Minute: data[1], Second: data[2], Hundredths: data[3]}
	if err := t.Validate(); err != nil {
		return nil, common.Wrap(common.KindCodec, "axdr: invalid time", err)
	}
	return t, nil
}

func decodeDateTime(reader *bytes.Reader) (interface{}, error) {
	data := make([]byte, 12)
	if _, err := readFull(reader, data); err != nil {
		return nil, common.Wrap(common.KindCodec, "axdr: decode datetime", err)
	}
	dt := DateTime{
		Date: Date{
			Year:      binary.BigEndian.Uint16(data[0:2]),
			Month:     data[2],
			Day:       data[3],
			DayOfWeek: data[4],
		},
		Time: Time{
			Hour:       data[5],
			Minute:     data[6],
			Second:     data[7],
			Hundredths: data[8],
		},
		Deviation:   int16(binary.BigEndian.Uint16(data[9:11])),
		ClockStatus: data[11],
	}
	if err := dt.Validate(); err != nil {
		return nil, common.Wrap(common.KindCodec, "axdr: invalid datetime", err)
	}
	return dt, nil
}

// decodeElements decodes the shared Array/Structure body: an A-XDR length (the
// element count) followed by that many tagged values in order.
func decodeElements(reader *bytes.Reader) ([]interface{}, error) {
	length, err := readAXDRLength(reader)
	if err != nil {
		return nil, common.Wrap(common.KindCodec, "axdr: read element count", err)
	}
	result := make([]interface{}, length)
	for i := range result {
		val, err := decodeValue(reader)
		if err != nil {
			return nil, common.Wrap(common.KindCodec, fmt.Sprintf("axdr: decode element %d", i), err)
		}
		result[i] = val
	}
	return result, nil
}

// readFull reads exactly len(buf) bytes, unlike bytes.Reader.Read which may
// short-read at EOF boundaries.
func readFull(reader *bytes.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := reader.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
		if m == 0 {
			return n, common.New(common.KindCodec, "axdr: unexpected EOF")
		}
	}
	return n, nil
}
