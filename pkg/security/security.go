// Package security implements the xDLMS security layer: AES-GCM authenticated encryption of
// APDUs, strict-monotonic frame-counter replay protection, the DLMS key-derivation function,
// and RFC 3394 key wrap for distributing cipher keys under a key-encryption key.
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/ViewWay/dlms-go/pkg/common"
)

// SecurityControl is the one-octet security-control field carried at the front of every
// secured APDU, selecting which protections are applied.
type SecurityControl byte

const (
	ControlAuthenticationOnly        SecurityControl = 0x10
	ControlEncryptionOnly            SecurityControl = 0x20
	ControlAuthenticatedAndEncrypted SecurityControl = 0x30
)

// Header is the security header of a secured (glo-*/ded-*) APDU: security-control, the
// 8-octet system title identifying the sending entity, and the 4-octet frame counter. The
// teacher's header omitted the system title and carried it only as a side parameter; the
// spec requires it on the wire, so it is encoded here.
type Header struct {
	Control      SecurityControl
	SystemTitle  []byte // always 8 octets
	FrameCounter uint32
}

// Encode serializes the header as control || system-title || frame-counter, matching the
// wire layout every xDLMS secured APDU carries before its ciphertext.
func (h *Header) Encode() ([]byte, error) {
	if len(h.SystemTitle) != 8 {
		return nil, fmt.Errorf("security: system title must be 8 octets, got %d", len(h.SystemTitle))
	}
	buf := make([]byte, 1+8+4)
	buf[0] = byte(h.Control)
	copy(buf[1:9], h.SystemTitle)
	buf[9] = byte(h.FrameCounter >> 24)
	buf[10] = byte(h.FrameCounter >> 16)
	buf[11] = byte(h.FrameCounter >> 8)
	buf[12] = byte(h.FrameCounter)
	return buf, nil
}

// Decode is the inverse of Encode.
func (h *Header) Decode(src []byte) error {
	if len(src) < 13 {
		return fmt.Errorf("security: header too short: got %d, want at least 13", len(src))
	}
	h.Control = SecurityControl(src[0])
	h.SystemTitle = append([]byte{}, src[1:9]...)
	h.FrameCounter = uint32(src[9])<<24 | uint32(src[10])<<16 | uint32(src[11])<<8 | uint32(src[12])
	return nil
}

// Suite abstracts the cipher/MAC construction used to protect an APDU. GCMSuite (AES-GCM)
// and GOSTSuite (GOST/Kuznyechik) implement it; pkg/association always uses GCMSuite.
type Suite interface {
	// Protect encrypts and authenticates plaintext, returning the wire payload that follows
	// the header. Neither suite in this package varies this by header.Control.
	Protect(key []byte, header *Header, plaintext []byte) ([]byte, error)
	// Unprotect is the inverse of Protect. lastFrameCounter is the highest frame counter
	// previously accepted from this peer; a non-increasing counter is a replay.
	Unprotect(key []byte, header *Header, payload []byte, lastFrameCounter uint32) ([]byte, error)
}

// GCMSuite implements Suite with AES-GCM, the default xDLMS security suite. Protect always
// encrypts and authenticates, whatever header.Control says, with the encoded header as the
// additional authenticated data; there is no authentication-only mode, and the authentication
// key is not part of the additional data.
type GCMSuite struct{}

var _ Suite = GCMSuite{}

func gcmNonce(systemTitle []byte, frameCounter uint32) []byte {
	nonce := make([]byte, 12)
	copy(nonce, systemTitle)
	nonce[8] = byte(frameCounter >> 24)
	nonce[9] = byte(frameCounter >> 16)
	nonce[10] = byte(frameCounter >> 8)
	nonce[11] = byte(frameCounter)
	return nonce
}

func (GCMSuite) Protect(key []byte, header *Header, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, common.Wrap(common.KindCodec, "aes key", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, common.Wrap(common.KindCodec, "gcm init", err)
	}
	nonce := gcmNonce(header.SystemTitle, header.FrameCounter)
	aad, err := header.Encode()
	if err != nil {
		return nil, err
	}
	return aesgcm.Seal(nil, nonce, plaintext, aad), nil
}

func (GCMSuite) Unprotect(key []byte, header *Header, payload []byte, lastFrameCounter uint32) ([]byte, error) {
	if header.FrameCounter <= lastFrameCounter {
		return nil, common.New(common.KindReplayDetected, fmt.Sprintf("frame counter %d not greater than last accepted %d", header.FrameCounter, lastFrameCounter))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, common.Wrap(common.KindCodec, "aes key", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, common.Wrap(common.KindCodec, "gcm init", err)
	}
	nonce := gcmNonce(header.SystemTitle, header.FrameCounter)
	aad, err := header.Encode()
	if err != nil {
		return nil, err
	}
	plaintext, err := aesgcm.Open(nil, nonce, payload, aad)
	if err != nil {
		return nil, common.Wrap(common.KindAuthFailed, "GCM tag verification failed", err)
	}
	return plaintext, nil
}

// GMAC computes a detached 12-octet GMAC tag over authenticatedData using AES-GCM with no
// plaintext — the primitive HLS-GMAC authentication and authentication-only APDU protection
// both reduce to.
func GMAC(key, nonce, authenticatedData []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, common.Wrap(common.KindCodec, "aes key", err)
	}
	gcm, err := cipher.NewGCMWithTagSize(block, 12)
	if err != nil {
		return nil, common.Wrap(common.KindCodec, "gcm init", err)
	}
	if len(nonce) != gcm.NonceSize() {
		return nil, fmt.Errorf("security: nonce size %d, want %d", len(nonce), gcm.NonceSize())
	}
	return gcm.Seal(nil, nonce, nil, authenticatedData), nil
}

// GCMNonce exposes the system-title/frame-counter nonce construction for callers (HLS-GMAC)
// that need the same IV rule outside of a full Protect/Unprotect call.
func GCMNonce(systemTitle []byte, frameCounter uint32) []byte {
	return gcmNonce(systemTitle, frameCounter)
}
