package acse

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/ViewWay/dlms-go/pkg/common"
	"github.com/ViewWay/dlms-go/pkg/security"
)

// ChallengeLifetime is the default validity window for a generated HLS-GMAC challenge: the
// paired response must arrive before this elapses or the association fails authentication.
const ChallengeLifetime = 30 * time.Second

// minChallengeLen and maxChallengeLen bound the random challenge length the spec allows.
const (
	minChallengeLen = 8
	maxChallengeLen = 64
)

// GenerateChallenge returns a random challenge of the given length (clamped to the
// [8,64]-octet range the mechanism allows), used as either CC (client) or SC (server).
func GenerateChallenge(length int) ([]byte, error) {
	if length < minChallengeLen {
		length = minChallengeLen
	}
	if length > maxChallengeLen {
		length = maxChallengeLen
	}
	challenge := make([]byte, length)
	if _, err := rand.Read(challenge); err != nil {
		return nil, common.Wrap(common.KindAuthFailed, "challenge generation", err)
	}
	return challenge, nil
}

// HLSChallenge tracks one side of the four-pass exchange: the challenge this side issued to
// the peer, and the deadline by which the paired response must arrive.
type HLSChallenge struct {
	Value     []byte
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// NewHLSChallenge wraps a generated challenge value with its expiry, starting the clock now.
func NewHLSChallenge(value []byte) *HLSChallenge {
	now := hlsNow()
	return &HLSChallenge{Value: value, IssuedAt: now, ExpiresAt: now.Add(ChallengeLifetime)}
}

// Expired reports whether the paired response has not arrived within the challenge lifetime.
func (c *HLSChallenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// hlsNow is the clock NewHLSChallenge reads; a package variable so it can be replaced.
var hlsNow = time.Now

// ComputeHLSTag computes f(challenge) = GMAC(auth-key, nonce=system-title‖frame-counter,
// aad=cipher-key‖challenge), the proof-of-possession value each side of a HLS-GMAC exchange
// sends in reply_to_HLS_authentication.
func ComputeHLSTag(authKey, cipherKey, systemTitle []byte, frameCounter uint32, challenge []byte) ([]byte, error) {
	nonce := security.GCMNonce(systemTitle, frameCounter)
	aad := append(append([]byte{}, cipherKey...), challenge...)
	return security.GMAC(authKey, nonce, aad)
}

// VerifyHLSTag recomputes f(challenge) and compares it to the supplied tag in constant time,
// returning AuthFailed on any mismatch (wrong keys, wrong challenge, or a tampered tag).
func VerifyHLSTag(authKey, cipherKey, systemTitle []byte, frameCounter uint32, challenge, tag []byte) error {
	expected, err := ComputeHLSTag(authKey, cipherKey, systemTitle, frameCounter, challenge)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare(expected, tag) != 1 {
		return common.New(common.KindAuthFailed, "HLS-GMAC tag verification failed")
	}
	return nil
}

// HLSExchangeState is the four-pass HLS-GMAC handshake state held by an association: the
// challenge each side issued to the other, and whether each side's proof has been verified.
type HLSExchangeState struct {
	ClientChallenge *HLSChallenge // CC this side received from (or, as client, sent to) the peer
	ServerChallenge *HLSChallenge // SC this side received from (or, as server, sent to) the peer
	ClientVerified  bool
	ServerVerified  bool
}

// Authenticated reports whether both proof-of-possession exchanges (step 2 and step 3 of the
// four-pass flow) have completed successfully. The association may move to Authenticated only
// once this is true.
func (s *HLSExchangeState) Authenticated() bool {
	return s.ClientVerified && s.ServerVerified
}

// VerifyServerResponse is step 2's server-side check: the client computed f(SC) over the
// server's challenge and sent it back as reply_to_HLS_authentication. now is checked against
// the server challenge's expiry before the tag itself is verified.
func (s *HLSExchangeState) VerifyServerResponse(authKey, cipherKey, systemTitle []byte, frameCounter uint32, now time.Time, fSC []byte) error {
	if s.ServerChallenge == nil {
		return fmt.Errorf("acse: no server challenge outstanding")
	}
	if s.ServerChallenge.Expired(now) {
		return common.New(common.KindAuthFailed, "HLS-GMAC challenge expired before response arrived")
	}
	if err := VerifyHLSTag(authKey, cipherKey, systemTitle, frameCounter, s.ServerChallenge.Value, fSC); err != nil {
		return err
	}
	s.ClientVerified = true
	return nil
}

// VerifyClientResponse is step 3's client-side check: the server computed f(CC) over the
// client's challenge and sent it back as the analogous reply_to_HLS_authentication.
func (s *HLSExchangeState) VerifyClientResponse(authKey, cipherKey, systemTitle []byte, frameCounter uint32, now time.Time, fCC []byte) error {
	if s.ClientChallenge == nil {
		return fmt.Errorf("acse: no client challenge outstanding")
	}
	if s.ClientChallenge.Expired(now) {
		return common.New(common.KindAuthFailed, "HLS-GMAC challenge expired before response arrived")
	}
	if err := VerifyHLSTag(authKey, cipherKey, systemTitle, frameCounter, s.ClientChallenge.Value, fCC); err != nil {
		return err
	}
	s.ServerVerified = true
	return nil
}
