package ber

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tag := Tag{Class: ClassContextSpecific, Constructed: true, Number: 1}
	content := []byte{0x06, 0x05, 0x28, 0xca, 0x22, 0x02, 0x03}

	encoded, err := Encode(tag, content)
	assert.NoError(t, err)

	decoded, n, err := Decode(encoded)
	assert.NoError(t, err)
	assert.Equal(t, len(encoded), n)
	assert.Equal(t, tag, decoded.Tag)
	assert.Equal(t, content, decoded.Content)
}

func TestEncodeLongLength(t *testing.T) {
	tag := Tag{Class: ClassUniversal, Constructed: false, Number: 4}
	content := make([]byte, 200)
	for i := range content {
		content[i] = byte(i)
	}

	encoded, err := Encode(tag, content)
	assert.NoError(t, err)
	assert.Equal(t, byte(0x81), encoded[1])
	assert.Equal(t, byte(200), encoded[2])

	decoded, n, err := Decode(encoded)
	assert.NoError(t, err)
	assert.Equal(t, len(encoded), n)
	assert.Equal(t, content, decoded.Content)
}

func TestDecodeAll(t *testing.T) {
	a, _ := Encode(Tag{Class: ClassContextSpecific, Number: 1}, []byte{0x01})
	b, _ := Encode(Tag{Class: ClassContextSpecific, Number: 2}, []byte{0x02, 0x03})
	data := append(append([]byte{}, a...), b...)

	tlvs, err := DecodeAll(data)
	assert.NoError(t, err)
	assert.Len(t, tlvs, 2)
	assert.Equal(t, 1, tlvs[0].Tag.Number)
	assert.Equal(t, 2, tlvs[1].Tag.Number)
}

func TestOIDRoundTrip(t *testing.T) {
	arcs := []int{2, 16, 756, 5, 8, 1, 1}
	encoded, err := EncodeOID(arcs)
	assert.NoError(t, err)

	decoded, err := DecodeOID(encoded)
	assert.NoError(t, err)
	assert.Equal(t, arcs, decoded)
}

func TestConformanceBitStringRoundTrip(t *testing.T) {
	bits := []byte{0x1F, 0x58, 0x00}
	encoded, err := EncodeConformanceBitString(bits, 3)
	assert.NoError(t, err)
	assert.Equal(t, byte(ClassApplication)|31, encoded[0])

	gotBits, unused, n, err := DecodeConformanceBitString(encoded)
	assert.NoError(t, err)
	assert.Equal(t, len(encoded), n)
	assert.Equal(t, bits, gotBits)
	assert.Equal(t, byte(3), unused)
}

func TestDecodeConformanceBitStringWrongTag(t *testing.T) {
	encoded, _ := Encode(Tag{Class: ClassUniversal, Number: 3}, []byte{0x00, 0x01})
	_, _, _, err := DecodeConformanceBitString(encoded)
	assert.Error(t, err)
}

func TestDecodeTruncated(t *testing.T) {
	_, _, err := Decode([]byte{0xA1, 0x05, 0x01, 0x02})
	assert.Error(t, err)
}
