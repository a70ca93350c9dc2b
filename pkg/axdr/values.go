package axdr

import (
	"errors"
	"fmt"
	"time"
)

// Tag is an A-XDR type tag as defined in IEC 62056-6-2 (Table 3) and
// СТО 34.01-5.1-006-2023 (Table 7.2): it identifies both the data type and its
// encoding format in the wire representation.
type Tag byte

// Tag values and the wire layout of each. Delta-encoded tags (TagDelta*) share a
// decoder with their absolute counterpart. TagUTF8String, TagEnum and TagDontCare
// have no encoder or decoder; Decode reports them as unsupported tags.
const (
	TagNull      Tag = 0 // no data
	TagArray     Tag = 1 // length, then that many tagged elements of one type
	TagStructure Tag = 2 // length, then that many tagged elements of mixed types
	TagBoolean   Tag = 3 // 1 byte: 0 or 1
	TagBitString Tag = 4 // length in bits, then ceil(length/8) bytes

	TagDoubleLong  Tag = 5 // int32, big-endian
	TagDoubleLongU Tag = 6 // uint32, big-endian

	TagOctetString   Tag = 9  // length, then raw bytes
	TagVisibleString Tag = 10 // length, then ASCII bytes
	TagUTF8String    Tag = 12 // length, then UTF-8 bytes
	TagBCD           Tag = 13 // length in digits, 2 digits per byte, high nibble first

	TagInteger Tag = 15 // int8
	TagLong    Tag = 16 // int16, big-endian
	TagUnsigned Tag = 17 // uint8
	TagLongUnsigned Tag = 18 // uint16, big-endian

	// TagCompactArray: length, a single element type tag, then that many untagged
	// elements of that type.
	TagCompactArray Tag = 19

	TagLong64  Tag = 20 // int64, big-endian
	TagLong64U Tag = 21 // uint64, big-endian
	TagEnum    Tag = 22 // uint8, treated as an enumeration rather than a count

	TagFloat32 Tag = 23 // IEEE 754 single precision, big-endian
	TagFloat64 Tag = 24 // IEEE 754 double precision, big-endian

	// TagDateTime, TagDate, TagTime: fixed-width fields per IEC 62056-6-2 clause
	// 4.1.6.1 (year/month/day/day-of-week/hour/minute/second/hundredths/deviation/
	// clock-status), with per-field sentinel values standing in for "undefined".
	TagDateTime Tag = 25 // 12 bytes
	TagDate     Tag = 26 // 5 bytes
	TagTime     Tag = 27 // 4 bytes

	TagDeltaInteger            Tag = 28
	TagDeltaLong               Tag = 29
	TagDeltaDoubleLong         Tag = 30
	TagDeltaUnsigned           Tag = 31
	TagDeltaLongUnsigned       Tag = 32
	TagDeltaDoubleLongUnsigned Tag = 33

	TagDontCare Tag = 255 // placeholder, never produced by Encode
)

// Boolean is Tag[3].
type Boolean bool

// DoubleLong is Tag[5].
type DoubleLong int32

// DoubleLongUnsigned is Tag[6].
type DoubleLongUnsigned uint32

// OctetString is Tag[9].
type OctetString []byte

// VisibleString is Tag[10].
type VisibleString []byte

// Utf8String is Tag[12].
type Utf8String []byte

// Integer is Tag[15].
type Integer int8

// Long is Tag[16].
type Long int16

// Unsigned is Tag[17].
type Unsigned uint8

// LongUnsigned is Tag[18].
type LongUnsigned uint16

// Long64 is Tag[20].
type Long64 int64

// Long64Unsigned is Tag[21].
type Long64Unsigned uint64

// Enum is Tag[22].
type Enum byte

// Float32 is Tag[23].
type Float32 float32

// Float64 is Tag[24].
type Float64 float64

// Array is an A-XDR Array: homogeneous elements, each carrying its own tag.
type Array []interface{}

// Structure is an A-XDR Structure: heterogeneous fields, each carrying its own tag.
type Structure []interface{}

// Date is an A-XDR Date (5 bytes, IEC 62056-6-2 clause 4.1.6.1).
type Date struct {
	Year      uint16 // 0x0000-0xFFFE, or 0xFFFF for undefined
	Month     byte   // 1-12, 0xFD (end of DST), 0xFE (start of DST), or 0xFF undefined
	Day       byte   // 1-31, 0xFD (second-to-last), 0xFE (last), or 0xFF undefined
	DayOfWeek byte   // 1-7 (Monday=1), or 0xFF undefined
}

// Validate reports whether every Date field is within its valid range.
func (d Date) Validate() error {
	if d.Year > 0xFFFE && d.Year != 0xFFFF {
		return fmt.Errorf("invalid year: %d, must be 0x0000-0xFFFE or 0xFFFF", d.Year)
	}
	if d.Month > 12 && d.Month != 0xFD && d.Month != 0xFE && d.Month != 0xFF {
		return fmt.Errorf("invalid month: %d, must be 1-12, 0xFD, 0xFE, or 0xFF", d.Month)
	}
	if d.Day > 31 && d.Day != 0xFD && d.Day != 0xFE && d.Day != 0xFF {
		return fmt.Errorf("invalid day: %d, must be 1-31, 0xFD, 0xFE, or 0xFF", d.Day)
	}
	if d.DayOfWeek > 7 && d.DayOfWeek != 0xFF {
		return fmt.Errorf("invalid day of week: %d, must be 1-7 or 0xFF", d.DayOfWeek)
	}
	return nil
}

// Time is an A-XDR Time (4 bytes, IEC 62056-6-2 clause 4.1.6.1).
type Time struct {
	Hour       byte // 0-23, or 0xFF undefined
	Minute     byte // 0-59, or 0xFF undefined
	Second     byte // 0-59, or 0xFF undefined
	Hundredths byte // 0-99, or 0xFF undefined
}

// Validate reports whether every Time field is within its valid range.
func (t Time) Validate() error {
	if t.Hour > 23 && t.Hour != 0xFF {
		return fmt.Errorf("invalid hour: %d, must be 0-23 or 0xFF", t.Hour)
	}
	if t.Minute > 59 && t.Minute != 0xFF {
		return fmt.Errorf("invalid minute: %d, must be 0-59 or 0xFF", t.Minute)
	}
	if t.Second > 59 && t.Second != 0xFF {
		return fmt.Errorf("invalid second: %d, must be 0-59 or 0xFF", t.Second)
	}
	if t.Hundredths > 99 && t.Hundredths != 0xFF {
		return fmt.Errorf("invalid hundredths: %d, must be 0-99 or 0xFF", t.Hundredths)
	}
	return nil
}

// DateTime combines Date and Time with a UTC deviation and clock-status byte
// (12 bytes, IEC 62056-6-2 clause 4.1.6.1).
type DateTime struct {
	Date        Date
	Time        Time
	Deviation   int16 // minutes from UTC, -720..+840, or -32768 (0x8000) not specified
	ClockStatus byte  // bit 0 invalid, bit 1 doubtful, bit 2 different base, bit 7 DST, 0xFF not specified
}

// Validate reports whether every DateTime field, including its nested Date and
// Time, is within its valid range.
func (dt DateTime) Validate() error {
	if err := dt.Date.Validate(); err != nil {
		return err
	}
	if err := dt.Time.Validate(); err != nil {
		return err
	}
	if dt.Deviation != -32768 && (dt.Deviation < -720 || dt.Deviation > 840) {
		return fmt.Errorf("invalid deviation: %d, must be -720 to +840 or -32768 (0x8000)", dt.Deviation)
	}
	return nil
}

// FromTime converts t into a DateTime, substituting the IEC sentinel values for
// any field t cannot represent exactly.
func FromTime(t time.Time, isDST bool) DateTime {
	year := uint16(t.Year())
	if year > 0xFFFE {
		year = 0xFFFF
	}
	month := byte(t.Month())
	if month < 1 || month > 12 {
		month = 0xFF
	}
	day := byte(t.Day())
	if day < 1 || day > 31 {
		day = 0xFF
	}
	dayOfWeek := byte(t.Weekday())
	if dayOfWeek == 0 {
		dayOfWeek = 7
	}
	hour := byte(t.Hour())
	if hour > 23 {
		hour = 0xFF
	}
	minute := byte(t.Minute())
	if minute > 59 {
		minute = 0xFF
	}
	second := byte(t.Second())
	if second > 59 {
		second = 0xFF
	}
	hundredths := byte(t.Nanosecond() / 1e7)
	if hundredths > 99 {
		hundredths = 0xFF
	}
	_, offset := t.Zone()
	deviation := int16(offset / 60)
	if isDST {
		deviation -= 60
	}
	if deviation < -720 || deviation > 840 {
		deviation = -32768
	}
	clockStatus := byte(0)
	if isDST {
		clockStatus |= 0x80
	}
	return DateTime{
		Date:        Date{Year: year, Month: month, Day: day, DayOfWeek: dayOfWeek},
		Time:        Time{Hour: hour, Minute: minute, Second: second, Hundredths: hundredths},
		Deviation:   deviation,
		ClockStatus: clockStatus,
	}
}

// ToTime converts dt into a Go time.Time, substituting defaults for undefined
// fields. It fails if the encoded day of week contradicts the encoded date.
func (dt DateTime) ToTime() (time.Time, error) {
	year := int(dt.Date.Year)
	if year == 0xFFFF {
		year = 0
	}
	month := int(dt.Date.Month)
	if month == 0xFF || month == 0xFD || month == 0xFE {
		month = 1
	}
	day := int(dt.Date.Day)
	if day == 0xFF || day == 0xFD || day == 0xFE {
		day = 1
	}
	hour := int(dt.Time.Hour)
	if hour == 0xFF {
		hour = 0
	}
	minute := int(dt.Time.Minute)
	if minute == 0xFF {
		minute = 0
	}
	second := int(dt.Time.Second)
	if second == 0xFF {
		second = 0
	}
	hundredths := int(dt.Time.Hundredths)
	if hundredths == 0xFF {
		hundredths = 0
	}
	totalOffset := 0
	if dt.Deviation != -32768 {
		totalOffset = int(dt.Deviation) * 60
		if dt.ClockStatus&0x80 != 0 {
			totalOffset += 3600
		}
	}

	loc := time.FixedZone("", totalOffset)
	t := time.Date(year, time.Month(month), day, hour, minute, second, hundredths*1e7, loc)

	if dt.Date.DayOfWeek != 0xFF && dt.Date.DayOfWeek != byte(t.Weekday()) && t.Weekday() != 0 {
		return time.Time{}, errors.New("invalid day of week")
	}
	return t, nil
}

// String formats dt as "YYYY-MM-DD HH:MM:SS (offset=O, DST=D)".
func (dt DateTime) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d (offset=%d, DST=%v)",
		dt.Date.Year, dt.Date.Month, dt.Date.Day,
		dt.Time.Hour, dt.Time.Minute, dt.Time.Second,
		dt.Deviation*60, dt.ClockStatus&0x80 != 0)
}

// BitString is an A-XDR BitString (TagBitString): a sequence of bits, least
// significant first, with unused trailing bits in the last byte zero-padded.
type BitString struct {
	Bits   []byte
	Length uint8 // number of valid bits
}

// Validate reports whether len(Bits) matches ceil(Length/8).
func (bs BitString) Validate() error {
	expectedBytes := (bs.Length + 7) / 8
	if len(bs.Bits) != int(expectedBytes) {
		return fmt.Errorf("invalid bitstring data: %d bytes, expected %d for %d bits", len(bs.Bits), expectedBytes, bs.Length)
	}
	return nil
}

// BCD is an A-XDR binary-coded decimal (TagBCD): decimal digits packed two per
// byte, high nibble first.
type BCD struct {
	Digits []byte // each 0-9
}

// Validate reports whether Digits is within length and range.
func (bcd BCD) Validate() error {
	if len(bcd.Digits) > 255 {
		return fmt.Errorf("invalid BCD length: %d, must be 0-255 digits", len(bcd.Digits))
	}
	for i, digit := range bcd.Digits {
		if digit > 9 {
			return fmt.Errorf("invalid BCD digit at index %d: %d, must be 0-9", i, digit)
		}
	}
	return nil
}

// CompactArray is an A-XDR CompactArray (TagCompactArray): one type tag shared
// by every element, so the elements themselves carry no tag of their own.
type CompactArray struct {
	TypeTag Tag
	Values  []interface{}
}
