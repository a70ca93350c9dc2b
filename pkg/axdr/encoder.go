package axdr

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"reflect"

	"github.com/ViewWay/dlms-go/pkg/common"
)

// Encode encodes a value into A-XDR format per IEC 62056-6-2 and
// СТО 34.01-5.1-006-2023, supporting primitives, the custom date/time types,
// bit strings, BCD, arrays, structures, and compact arrays.
func Encode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type encodeFunc func(buf *bytes.Buffer, v interface{}) error

// encodeDispatch maps concrete Go types straight to their encoder, avoiding
// reflection on the common path.
var encodeDispatch map[reflect.Type]encodeFunc

func init() {
	encodeDispatch = map[reflect.Type]encodeFunc{
		reflect.TypeOf(false): func(buf *bytes.Buffer, v interface{}) error {
			return encodePrimitive(buf, TagBoolean, func() { buf.WriteByte(boolToByte(v.(bool))) })
		},
		reflect.TypeOf(int8(0)): func(buf *bytes.Buffer, v interface{}) error {
			return encodePrimitive(buf, TagDeltaInteger, func() { buf.WriteByte(byte(v.(int8))) })
		},
		reflect.TypeOf(int16(0)): func(buf *bytes.Buffer, v interface{}) error {
			return encodePrimitive(buf, TagDeltaLong, func() { binary.Write(buf, binary.BigEndian, v.(int16)) })
		},
		reflect.TypeOf(uint8(0)): func(buf *bytes.Buffer, v interface{}) error {
			return encodePrimitive(buf, TagDeltaUnsigned, func() { buf.WriteByte(v.(uint8)) })
		},
		reflect.TypeOf(uint16(0)): func(buf *bytes.Buffer, v interface{}) error {
			return encodePrimitive(buf, TagDeltaLongUnsigned, func() { binary.Write(buf, binary.BigEndian, v.(uint16)) })
		},
		reflect.TypeOf(int32(0)): func(buf *bytes.Buffer, v interface{}) error {
			return encodePrimitive(buf, TagDeltaDoubleLong, func() { binary.Write(buf, binary.BigEndian, v.(int32)) })
		},
		reflect.TypeOf(uint32(0)): func(buf *bytes.Buffer, v interface{}) error {
			return encodePrimitive(buf, TagDeltaDoubleLongUnsigned, func() { binary.Write(buf, binary.BigEndian, v.(uint32)) })
		},
		reflect.TypeOf(int64(0)): func(buf *bytes.Buffer, v interface{}) error {
			return encodePrimitive(buf, TagLong64, func() { binary.Write(buf, binary.BigEndian, v.(int64)) })
		},
		reflect.TypeOf(uint64(0)): func(buf *bytes.Buffer, v interface{}) error {
			return encodePrimitive(buf, TagLong64U, func() { binary.Write(buf, binary.BigEndian, v.(uint64)) })
		},
		reflect.TypeOf(float32(0)): func(buf *bytes.Buffer, v interface{}) error {
			return encodePrimitive(buf, TagFloat32, func() { binary.Write(buf, binary.BigEndian, v.(float32)) })
		},
		reflect.TypeOf(float64(0)): func(buf *bytes.Buffer, v interface{}) error {
			return encodePrimitive(buf, TagFloat64, func() { binary.Write(buf, binary.BigEndian, v.(float64)) })
		},
		reflect.TypeOf(""): func(buf *bytes.Buffer, v interface{}) error {
			return encodeString(buf, v.(string), TagVisibleString)
		},
		reflect.TypeOf([]byte{}): func(buf *bytes.Buffer, v interface{}) error {
			return encodeOctetString(buf, v.([]byte))
		},
		reflect.TypeOf(Date{}): func(buf *bytes.Buffer, v interface{}) error {
			return encodeDate(buf, v.(Date))
		},
		reflect.TypeOf(Time{}): func(buf *bytes.Buffer, v interface{}) error {
			return encodeTime(buf, v.(Time))
		},
		reflect.TypeOf(DateTime{}): func(buf *bytes.Buffer, v interface{}) error {
			return encodeDateTime(buf, v.(DateTime))
		},
		reflect.TypeOf(BitString{}): func(buf *bytes.Buffer, v interface{}) error {
			return encodeBitString(buf, v.(BitString))
		},
		reflect.TypeOf(BCD{}): func(buf *bytes.Buffer, v interface{}) error {
			return encodeBCD(buf, v.(BCD))
		},
		reflect.TypeOf(CompactArray{}): func(buf *bytes.Buffer, v interface{}) error {
			return encodeCompactArray(buf, v.(CompactArray))
		},
		reflect.TypeOf(Array{}): func(buf *bytes.Buffer, v interface{}) error {
			return encodeElements(buf, TagArray, []interface{}(v.(Array)))
		},
		reflect.TypeOf(Structure{}): func(buf *bytes.Buffer, v interface{}) error {
			return encodeElements(buf, TagStructure, []interface{}(v.(Structure)))
		},
	}
}

// encodeValue dispatches on v's concrete type, falling back to reflection for
// plain slices and structs the dispatch table doesn't name directly.
func encodeValue(buf *bytes.Buffer, v interface{}) error {
	if v == nil {
		buf.WriteByte(byte(TagNull))
		return nil
	}

	if encodeFn, ok := encodeDispatch[reflect.TypeOf(v)]; ok {
		return encodeFn(buf, v)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return encodeOctetString(buf, rv.Bytes())
		}
		elems := make([]interface{}, rv.Len())
		for i := range elems {
			elems[i] = rv.Index(i).Interface()
		}
		return encodeElements(buf, TagArray, elems)
	case reflect.Array:
		elems := make([]interface{}, rv.Len())
		for i := range elems {
			elems[i] = rv.Index(i).Interface()
		}
		return encodeElements(buf, TagArray, elems)
	case reflect.Struct:
		elems := make([]interface{}, rv.NumField())
		for i := range elems {
			elems[i] = rv.Field(i).Interface()
		}
		return encodeElements(buf, TagStructure, elems)
	default:
		return common.New(common.KindCodec, fmt.Sprintf("axdr: unsupported type %v", reflect.TypeOf(v)))
	}
}

func encodePrimitive(buf *bytes.Buffer, tag Tag, writeFunc func()) error {
	buf.WriteByte(byte(tag))
	writeFunc()
	return nil
}

func boolToByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// encodeString encodes a VisibleString: tag, A-XDR length, ASCII bytes.
func encodeString(buf *bytes.Buffer, s string, tag Tag) error {
	data := []byte(s)
	buf.WriteByte(byte(tag))
	if err := writeAXDRLength(buf, len(data)); err != nil {
		return common.Wrap(common.KindCodec, "axdr: string length", err)
	}
	buf.Write(data)
	return nil
}

// encodeOctetString encodes an octet-string: tag, A-XDR length, raw bytes.
func encodeOctetString(buf *bytes.Buffer, data []byte) error {
	buf.WriteByte(byte(TagOctetString))
	if err := writeAXDRLength(buf, len(data)); err != nil {
		return common.Wrap(common.KindCodec, "axdr: octet-string length", err)
	}
	buf.Write(data)
	return nil
}

// encodeBitString writes TagBitString, the A-XDR bit length, then
// ceil(length/8) bytes with unused trailing bits zero-padded.
func encodeBitString(buf *bytes.Buffer, bs BitString) error {
	if err := bs.Validate(); err != nil {
		return common.Wrap(common.KindCodec, "axdr: invalid bitstring", err)
	}
	buf.WriteByte(byte(TagBitString))
	if err := writeAXDRLength(buf, int(bs.Length)); err != nil {
		return common.Wrap(common.KindCodec, "axdr: bitstring length", err)
	}
	buf.Write(bs.Bits)
	return nil
}

// encodeBCD writes TagBCD, the A-XDR digit count, then ceil(length/2) bytes,
// two decimal digits per byte, high nibble first.
func encodeBCD(buf *bytes.Buffer, bcd BCD) error {
	if err := bcd.Validate(); err != nil {
		return common.Wrap(common.KindCodec, "axdr: invalid BCD", err)
	}
	length := len(bcd.Digits)
	buf.WriteByte(byte(TagBCD))
	if err := writeAXDRLength(buf, length); err != nil {
		return common.Wrap(common.KindCodec, "axdr: BCD length", err)
	}
	for i := 0; i < length; i += 2 {
		b := bcd.Digits[i] << 4
		if i+1 < length {
			b |= bcd.Digits[i+1]
		}
		buf.WriteByte(b)
	}
	return nil
}

// encodeDate writes a Date as a 5-byte sequence.
func encodeDate(buf *bytes.Buffer, d Date) error {
	if err := d.Validate(); err != nil {
		return common.Wrap(common.KindCodec, "axdr: invalid date", err)
	}
	buf.WriteByte(byte(TagDate))
	buf.Write([]byte{
		byte(d.Year >> 8), byte(d.Year & 0xFF),
		d.Month, d.Day, d.DayOfWeek,
	})
	return nil
}

// encodeTime writes a Time as a 4-byte sequence.
func encodeTime(buf *bytes.Buffer, t Time) error {
	if err := t.Validate(); err != nil {
		return common.Wrap(common.KindCodec, "axdr: invalid time", err)
	}
	buf.WriteByte(byte(TagTime))
	buf.Write([]byte{t.Hour, t.Minute, t.Second, t.Hundredths})
	return nil
}

// encodeDateTime writes a DateTime as a 12-byte sequence.
func encodeDateTime(buf *bytes.Buffer, dt DateTime) error {
	if err := dt.Validate(); err != nil {
		return common.Wrap(common.KindCodec, "axdr: invalid datetime", err)
	}
	buf.WriteByte(byte(TagDateTime))
	buf.Write([]byte{
		byte(dt.Date.Year >> 8), byte(dt.Date.Year & 0xFF),
		dt.Date.Month, dt.Date.Day, dt.Date.DayOfWeek,
		dt.Time.Hour, dt.Time.Minute, dt.Time.Second, dt.Time.Hundredths,
		byte(dt.Deviation >> 8), byte(dt.Deviation),
		dt.ClockStatus,
	})
	return nil
}

// encodeElements writes a homogeneous Array or heterogeneous Structure: tag,
// A-XDR length (element count), then each element with its own tag in order.
func encodeElements(buf *bytes.Buffer, tag Tag, elems []interface{}) error {
	buf.WriteByte(byte(tag))
	if err := writeAXDRLength(buf, len(elems)); err != nil {
		return common.Wrap(common.KindCodec, "axdr: element count", err)
	}
	for i, el := range elems {
		data, err := Encode(el)
		if err != nil {
			return common.Wrap(common.KindCodec, fmt.Sprintf("axdr: encode element %d", i), err)
		}
		buf.Write(data)
	}
	return nil
}
