package security

import (
	"crypto/cipher"
	"crypto/subtle"
	"fmt"

	"github.com/aead/cmac"
	"github.com/ddulesov/gogost/gost34112012256"
	"github.com/ddulesov/gogost/gost3412128"

	"github.com/ViewWay/dlms-go/pkg/common"
)

const gostBlockSize = 16

// DeriveGOSTKeys derives per-association encryption and authentication keys from the
// GOST/Kuznyechik master key via Streebog-256, domain-separated by purpose and by the
// association context (here, the peer system title and suite identifier) so that two
// associations sharing a master key never reuse the same derived keys.
func DeriveGOSTKeys(masterKey, context []byte) (encKey, authKey []byte) {
	h := gost34112012256.New()
	h.Write(append(append([]byte("DLMS-KUZ-ENC"), masterKey...), context...))
	encKey = h.Sum(nil)
	h.Reset()
	h.Write(append(append([]byte("DLMS-KUZ-AUTH"), masterKey...), context...))
	authKey = h.Sum(nil)
	return encKey, authKey
}

func gostCTR(key, iv, src []byte) ([]byte, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("security: invalid key size for Kuznyechik: %d", len(key))
	}
	if len(iv) != gostBlockSize {
		return nil, fmt.Errorf("security: invalid IV size for Kuznyechik CTR: %d", len(iv))
	}
	block := gost3412128.NewCipher(key)
	stream := cipher.NewCTR(block, iv)
	dst := make([]byte, len(src))
	stream.XORKeyStream(dst, src)
	return dst, nil
}

func gostIV(systemTitle []byte, frameCounter uint32) []byte {
	iv := make([]byte, gostBlockSize)
	copy(iv, systemTitle)
	iv[8] = byte(frameCounter >> 24)
	iv[9] = byte(frameCounter >> 16)
	iv[10] = byte(frameCounter >> 8)
	iv[11] = byte(frameCounter)
	return iv
}

// GOSTSuite is the enrichment Suite for GOST R 34.12-2015 (Kuznyechik) in CTR mode with a
// detached CMAC tag, the suite national profiles require in place of AES-GCM.
const gostSuiteID = 3

type GOSTSuite struct{}

var _ Suite = GOSTSuite{}

func (GOSTSuite) Protect(key []byte, header *Header, plaintext []byte) ([]byte, error) {
	aad, err := header.Encode()
	if err != nil {
		return nil, err
	}
	context := append(append([]byte{}, header.SystemTitle...), byte(gostSuiteID))
	encKey, authKey := DeriveGOSTKeys(key, context)

	ciphertext, err := gostCTR(encKey, gostIV(header.SystemTitle, header.FrameCounter), plaintext)
	if err != nil {
		return nil, common.Wrap(common.KindCodec, "kuznyechik ctr", err)
	}

	block := gost3412128.NewCipher(authKey)
	tag, err := cmac.Sum(append(aad, ciphertext...), block, gostBlockSize)
	if err != nil {
		return nil, common.Wrap(common.KindCodec, "kuznyechik cmac", err)
	}
	return append(ciphertext, tag...), nil
}

func (GOSTSuite) Unprotect(key []byte, header *Header, payload []byte, lastFrameCounter uint32) ([]byte, error) {
	if header.FrameCounter <= lastFrameCounter {
		return nil, common.New(common.KindReplayDetected, fmt.Sprintf("frame counter %d not greater than last accepted %d", header.FrameCounter, lastFrameCounter))
	}
	if len(payload) < gostBlockSize {
		return nil, fmt.Errorf("security: kuznyechik payload shorter than tag: %d bytes", len(payload))
	}
	tag := payload[len(payload)-gostBlockSize:]
	ciphertext := payload[:len(payload)-gostBlockSize]

	aad, err := header.Encode()
	if err != nil {
		return nil, err
	}
	context := append(append([]byte{}, header.SystemTitle...), byte(gostSuiteID))
	encKey, authKey := DeriveGOSTKeys(key, context)

	block := gost3412128.NewCipher(authKey)
	expectedTag, err := cmac.Sum(append(aad, ciphertext...), block, gostBlockSize)
	if err != nil {
		return nil, common.Wrap(common.KindCodec, "kuznyechik cmac", err)
	}
	if subtle.ConstantTimeCompare(tag, expectedTag) != 1 {
		return nil, common.New(common.KindAuthFailed, "kuznyechik CMAC tag verification failed")
	}

	plaintext, err := gostCTR(encKey, gostIV(header.SystemTitle, header.FrameCounter), ciphertext)
	if err != nil {
		return nil, common.Wrap(common.KindCodec, "kuznyechik ctr", err)
	}
	return plaintext, nil
}
