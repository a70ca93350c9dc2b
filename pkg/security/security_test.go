package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGCMSuiteRoundTrip(t *testing.T) {
	key := []byte("0123456789ABCDEF")
	plaintext := []byte("Hello, COSEM!")
	header := &Header{
		Control:      ControlAuthenticatedAndEncrypted,
		SystemTitle:  []byte("SERVER01"),
		FrameCounter: 1,
	}

	ciphertext, err := GCMSuite{}.Protect(key, header, plaintext)
	assert.NoError(t, err)

	decrypted, err := GCMSuite{}.Unprotect(key, header, ciphertext, 0)
	assert.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestGCMSuiteReplayDetected(t *testing.T) {
	key := []byte("0123456789ABCDEF")
	plaintext := []byte("Hello, COSEM!")
	header := &Header{
		Control:      ControlAuthenticatedAndEncrypted,
		SystemTitle:  []byte("SERVER01"),
		FrameCounter: 1,
	}

	ciphertext, err := GCMSuite{}.Protect(key, header, plaintext)
	require.NoError(t, err)

	_, err = GCMSuite{}.Unprotect(key, header, ciphertext, 1)
	assert.Error(t, err)
}

func TestGCMSuiteTamperDetected(t *testing.T) {
	key := []byte("0123456789ABCDEF")
	plaintext := []byte("Hello, COSEM!")
	header := &Header{
		Control:      ControlAuthenticatedAndEncrypted,
		SystemTitle:  []byte("SERVER01"),
		FrameCounter: 1,
	}

	ciphertext, err := GCMSuite{}.Protect(key, header, plaintext)
	require.NoError(t, err)
	ciphertext[0] ^= 0xFF

	_, err = GCMSuite{}.Unprotect(key, header, ciphertext, 0)
	assert.Error(t, err)
}

func TestHeaderEncodeDecodeRoundTrip(t *testing.T) {
	header := &Header{
		Control:      ControlEncryptionOnly,
		SystemTitle:  []byte("SERVER01"),
		FrameCounter: 42,
	}
	encoded, err := header.Encode()
	require.NoError(t, err)
	assert.Len(t, encoded, 13)

	decoded := &Header{}
	require.NoError(t, decoded.Decode(encoded))
	assert.Equal(t, header.Control, decoded.Control)
	assert.Equal(t, header.SystemTitle, decoded.SystemTitle)
	assert.Equal(t, header.FrameCounter, decoded.FrameCounter)
}

func TestHeaderEncodeRejectsWrongSystemTitleLength(t *testing.T) {
	header := &Header{Control: ControlEncryptionOnly, SystemTitle: []byte("short"), FrameCounter: 1}
	_, err := header.Encode()
	assert.Error(t, err)
}

func TestGOSTSuiteRoundTrip(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	plaintext := []byte("Hello, COSEM!")
	header := &Header{
		Control:      ControlAuthenticatedAndEncrypted,
		SystemTitle:  []byte("SERVER01"),
		FrameCounter: 1,
	}

	ciphertext, err := GOSTSuite{}.Protect(key, header, plaintext)
	assert.NoError(t, err)

	decrypted, err := GOSTSuite{}.Unprotect(key, header, ciphertext, 0)
	assert.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestGOSTSuiteReplayDetected(t *testing.T) {
	key := make([]byte, 32)
	header := &Header{
		Control:      ControlAuthenticatedAndEncrypted,
		SystemTitle:  []byte("SERVER01"),
		FrameCounter: 1,
	}

	ciphertext, err := GOSTSuite{}.Protect(key, header, []byte("payload"))
	require.NoError(t, err)

	_, err = GOSTSuite{}.Unprotect(key, header, ciphertext, 5)
	assert.Error(t, err)
}

func TestGOSTSuiteDetectsTampering(t *testing.T) {
	key := make([]byte, 32)
	header := &Header{
		Control:      ControlAuthenticatedAndEncrypted,
		SystemTitle:  []byte("SERVER01"),
		FrameCounter: 1,
	}

	ciphertext, err := GOSTSuite{}.Protect(key, header, []byte("payload"))
	require.NoError(t, err)
	ciphertext[0] ^= 0xFF

	_, err = GOSTSuite{}.Unprotect(key, header, ciphertext, 0)
	assert.Error(t, err)
}

func TestGMACDeterministic(t *testing.T) {
	key := []byte("0123456789ABCDEF")
	nonce := GCMNonce([]byte("SERVER01"), 7)
	aad := []byte("associated data")

	tag1, err := GMAC(key, nonce, aad)
	require.NoError(t, err)
	tag2, err := GMAC(key, nonce, aad)
	require.NoError(t, err)
	assert.Equal(t, tag1, tag2)
	assert.Len(t, tag1, 12)

	otherNonce := GCMNonce([]byte("SERVER01"), 8)
	tag3, err := GMAC(key, otherNonce, aad)
	require.NoError(t, err)
	assert.NotEqual(t, tag1, tag3)
}

func TestWrapUnwrapKeyRoundTrip(t *testing.T) {
	kek := []byte("0123456789ABCDEF")
	key := []byte("0123456789ABCDEF0123456789ABCDEF")

	wrapped, err := WrapKey(kek, key)
	require.NoError(t, err)
	assert.Len(t, wrapped, len(key)+8)

	unwrapped, err := UnwrapKey(kek, wrapped)
	require.NoError(t, err)
	assert.Equal(t, key, unwrapped)
}

func TestUnwrapKeyRejectsWrongKEK(t *testing.T) {
	kek := []byte("0123456789ABCDEF")
	otherKEK := []byte("FEDCBA9876543210")
	key := []byte("0123456789ABCDEF0123456789ABCDEF")

	wrapped, err := WrapKey(kek, key)
	require.NoError(t, err)

	_, err = UnwrapKey(otherKEK, wrapped)
	assert.Error(t, err)
}

func TestDeriveAESKeyDeterministic(t *testing.T) {
	masterKey := []byte("0123456789ABCDEF")
	title := []byte("SERVER01SERVER01")

	k1, err := DeriveAESKey(masterKey, title)
	require.NoError(t, err)
	k2, err := DeriveAESKey(masterKey, title)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
	assert.Len(t, k1, 16)
}
