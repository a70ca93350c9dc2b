package apdu

import (
	"bytes"
	"fmt"

	"github.com/ViewWay/dlms-go/pkg/security"
)

// CipherTag identifies which of the glo-*/ded-*/general-*-ciphering envelope variants a
// secured APDU uses. The per-inner-type tags (glo-get-request, ded-set-response, ...) let a
// receiver recognize a secured PDU's shape before decrypting it; this package decrypts all of
// them through the single SecuredAPDU envelope below rather than duplicating the Protect/
// Unprotect call per inner type, since the plaintext they wrap is always a complete, ordinary
// APDU (tag included) that DecodeAny can already dispatch once recovered.
type CipherTag byte

const (
	TagGloInitiateRequest       CipherTag = 0x21
	TagGloInitiateResponse      CipherTag = 0x28
	TagGloGetRequest            CipherTag = 0xC8
	TagGloSetRequest            CipherTag = 0xC9
	TagGloEventNotification     CipherTag = 0xCA
	TagGloActionRequest         CipherTag = 0xCB
	TagGloGetResponse           CipherTag = 0xCC
	TagGloSetResponse           CipherTag = 0xCD
	TagGloActionResponse        CipherTag = 0xCF

	TagDedInitiateRequest       CipherTag = 0x65
	TagDedInitiateResponse      CipherTag = 0x6C
	TagDedGetRequest            CipherTag = 0xD0
	TagDedSetRequest            CipherTag = 0xD1
	TagDedEventNotification     CipherTag = 0xD2
	TagDedActionRequest         CipherTag = 0xD3
	TagDedGetResponse           CipherTag = 0xD4
	TagDedSetResponse           CipherTag = 0xD5
	TagDedActionResponse        CipherTag = 0xD7

	TagGeneralGloCiphering CipherTag = 0xDB
	TagGeneralDedCiphering CipherTag = 0xDC
	TagGeneralCiphering    CipherTag = 0xDD
)

// gloForPlain and dedForPlain map a plain APDU Tag to its glo-*/ded-* ciphered counterpart, so
// a caller securing an outgoing APDU doesn't need to know the ciphered tag table itself.
var gloForPlain = map[Tag]CipherTag{
	TagInitiateRequest:   TagGloInitiateRequest,
	TagInitiateResponse:  TagGloInitiateResponse,
	TagGetRequest:        TagGloGetRequest,
	TagSetRequest:        TagGloSetRequest,
	TagEventNotification: TagGloEventNotification,
	TagActionRequest:     TagGloActionRequest,
	TagGetResponse:       TagGloGetResponse,
	TagSetResponse:       TagGloSetResponse,
	TagActionResponse:    TagGloActionResponse,
}

var dedForPlain = map[Tag]CipherTag{
	TagInitiateRequest:   TagDedInitiateRequest,
	TagInitiateResponse:  TagDedInitiateResponse,
	TagGetRequest:        TagDedGetRequest,
	TagSetRequest:        TagDedSetRequest,
	TagEventNotification: TagDedEventNotification,
	TagActionRequest:     TagDedActionRequest,
	TagGetResponse:       TagDedGetResponse,
	TagSetResponse:       TagDedSetResponse,
	TagActionResponse:    TagDedActionResponse,
}

// SecuredAPDU is a decoded glo-*/ded-* envelope: the ciphering tag that named which inner PDU
// type it carries, the security header that preceded the ciphertext, and the still-encrypted
// payload (ciphertext plus trailing GMAC tag, as Suite.Protect produced it).
type SecuredAPDU struct {
	CipherTag CipherTag
	Header    security.Header
	Payload   []byte
}

// EncodeSecured wraps a plain APDU's encoded bytes (tag included) in a glo-* or ded-* envelope:
// it encrypts/authenticates the whole thing under suite and prefixes the result with the
// ciphering tag and security header.
func EncodeSecured(suite security.Suite, key []byte, header *security.Header, dedicated bool, plainTag Tag, plaintext []byte) ([]byte, error) {
	table := gloForPlain
	if dedicated {
		table = dedForPlain
	}
	cipherTag, ok := table[plainTag]
	if !ok {
		return nil, fmt.Errorf("apdu: tag 0x%02x has no secured counterpart", byte(plainTag))
	}
	headerBytes, err := header.Encode()
	if err != nil {
		return nil, err
	}
	payload, err := suite.Protect(key, header, plaintext)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteByte(byte(cipherTag))
	buf.Write(headerBytes)
	buf.Write(payload)
	return buf.Bytes(), nil
}

// DecodeSecured parses a glo-*/ded-* envelope's framing (ciphering tag, security header,
// ciphertext) without decrypting it; call Unprotect with the association's suite and key to
// recover the inner plaintext APDU.
func DecodeSecured(src []byte) (*SecuredAPDU, error) {
	if len(src) < 1+13 {
		return nil, fmt.Errorf("apdu: secured APDU too short: %d bytes", len(src))
	}
	s := &SecuredAPDU{CipherTag: CipherTag(src[0])}
	if err := s.Header.Decode(src[1:]); err != nil {
		return nil, err
	}
	s.Payload = append([]byte{}, src[1+13:]...)
	return s, nil
}

// Unprotect decrypts and authenticates a decoded SecuredAPDU, returning the inner plaintext
// APDU (tag included, ready for DecodeAny) and updating lastFrameCounter tracking is the
// caller's responsibility — this call only validates against it.
func (s *SecuredAPDU) Unprotect(suite security.Suite, key []byte, lastFrameCounter uint32) ([]byte, error) {
	return suite.Unprotect(key, &s.Header, s.Payload, lastFrameCounter)
}
