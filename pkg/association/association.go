// Package association implements the COSEM Application Association state machine: open/
// release/abort over ACSE, the HLS-GMAC handshake, and the duplicate-open and
// outside-Associated rejection rules that gate every data PDU.
package association

import (
	"encoding/asn1"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ViewWay/dlms-go/pkg/acse"
	"github.com/ViewWay/dlms-go/pkg/apdu"
	"github.com/ViewWay/dlms-go/pkg/common"
	"github.com/ViewWay/dlms-go/pkg/security"
	"github.com/ViewWay/dlms-go/pkg/transport"
)

// State is one node of the association lifecycle.
type State int

const (
	StateInactive State = iota
	StateIdle
	StateAssociationPending
	StateAssociated
	StateReleasePending
)

func (s State) String() string {
	switch s {
	case StateInactive:
		return "Inactive"
	case StateIdle:
		return "Idle"
	case StateAssociationPending:
		return "AssociationPending"
	case StateAssociated:
		return "Associated"
	case StateReleasePending:
		return "ReleasePending"
	default:
		return "Unknown"
	}
}

// ReleaseTimeout is how long a client waits for an RLRE after sending RLRQ before the
// association is forced back to Idle.
const ReleaseTimeout = 5 * time.Second

// Config carries the parameters an open() negotiates from.
type Config struct {
	ApplicationContext  asn1.ObjectIdentifier
	MechanismName       asn1.ObjectIdentifier
	DlmsVersionNumber   uint8
	ProposedConformance []byte
	ClientMaxReceivePDU uint16
	CallingAPTitle      []byte // 8-octet system title, required for ciphering/HLS-GMAC contexts
	LLSSecret           string
}

// Association is one client-side COSEM application association over a Transport.
type Association struct {
	mu       sync.Mutex
	state    State
	cfg      Config
	tp       transport.Transport
	lg       *logrus.Logger
	negotiated *apdu.InitiateResponse
	hls        acse.HLSExchangeState
	authKey    []byte
	cipherKey  []byte
	suite      security.Suite
	frameCounter uint32
	peerFrameCounter uint32
	releaseDeadline time.Time
}

// New creates an Association in the Idle state, ready for Open.
func New(tp transport.Transport, cfg Config, lg *logrus.Logger) *Association {
	if lg == nil {
		lg = logrus.New()
	}
	return &Association{state: StateIdle, cfg: cfg, tp: tp, lg: lg, suite: security.GCMSuite{}}
}

// State returns the association's current lifecycle state.
func (a *Association) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// SetKeys installs the authentication and cipher keys negotiated out of band (via key wrap or
// manufacturer provisioning) that HLS-GMAC and APDU ciphering use.
func (a *Association) SetKeys(authKey, cipherKey []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.authKey = authKey
	a.cipherKey = cipherKey
}

// ErrAlreadyAssociated is returned by Open when the association is already Associated.
var ErrAlreadyAssociated = common.New(common.KindProtocol, "AlreadyAssociated")

// Open builds an AARQ from the configured conformance/PDU-size, optionally carrying a client
// HLS-GMAC challenge, and returns the bytes to send. A second Open against an already-
// Associated context is locally denied without emitting anything.
func (a *Association) Open() ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == StateAssociated {
		return nil, ErrAlreadyAssociated
	}

	initiate := &apdu.InitiateRequest{
		ResponseAllowed:     true,
		DlmsVersionNumber:   a.cfg.DlmsVersionNumber,
		ProposedConformance: a.cfg.ProposedConformance,
		ClientMaxReceivePDU: a.cfg.ClientMaxReceivePDU,
	}
	userInfo, err := initiate.Encode()
	if err != nil {
		return nil, common.Wrap(common.KindCodec, "encode InitiateRequest", err)
	}

	if a.isCipheringContext() {
		a.frameCounter++
		header := &security.Header{
			Control:      security.ControlAuthenticatedAndEncrypted,
			SystemTitle:  a.cfg.CallingAPTitle,
			FrameCounter: a.frameCounter,
		}
		userInfo, err = apdu.EncodeSecured(a.suite, a.cipherKey, header, false, apdu.TagInitiateRequest, userInfo)
		if err != nil {
			return nil, common.Wrap(common.KindCodec, "encode glo-initiate-request", err)
		}
	}

	aarq := &acse.AARQ{ApplicationContextName: a.cfg.ApplicationContext}
	if a.cfg.MechanismName != nil {
		aarq.MechanismName = a.cfg.MechanismName
	}
	if len(a.cfg.CallingAPTitle) > 0 {
		aarq.CallingAPtitle = asn1.RawValue{FullBytes: a.cfg.CallingAPTitle}
	}
	if a.cfg.MechanismName.Equal(acse.OidMechanismHLSGMAC) {
		challenge, err := acse.GenerateChallenge(16)
		if err != nil {
			return nil, err
		}
		a.hls.ClientChallenge = acse.NewHLSChallenge(challenge)
		aarq.CallingAuthenticationValue = asn1.RawValue{FullBytes: challenge}
	}
	aarq.UserInformation = asn1.RawValue{FullBytes: userInfo}

	encoded, err := aarq.Encode()
	if err != nil {
		return nil, common.Wrap(common.KindCodec, "encode AARQ", err)
	}

	a.state = StateAssociationPending
	a.lg.WithFields(logrus.Fields{"from": StateIdle, "to": a.state}).Debug("association: open() sent AARQ")
	return encoded, nil
}

// HandleAARE processes the server's AARE, transitioning to Associated on acceptance or back to
// Idle with an OpenRejected error otherwise. The negotiated InitiateResponse is decoded and
// stored but not compared against the proposed parameters; any accepted AARE whose
// user-information is absent or decodes leads to Associated.
func (a *Association) HandleAARE(encoded []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != StateAssociationPending {
		return common.New(common.KindProtocol, "AARE received outside AssociationPending")
	}

	aare := &acse.AARE{}
	if err := aare.Decode(encoded); err != nil {
		return common.Wrap(common.KindCodec, "decode AARE", err)
	}

	if aare.Result != acse.ResultAccepted {
		a.state = StateIdle
		return common.NewOpenRejected(aare.ResultSourceDiagnostic.String())
	}

	if len(aare.UserInformation.FullBytes) > 0 {
		plain := aare.UserInformation.FullBytes
		if a.isCipheringContext() {
			secured, err := apdu.DecodeSecured(plain)
			if err != nil {
				a.state = StateIdle
				return common.Wrap(common.KindCodec, "decode glo-initiate-response", err)
			}
			plain, err = secured.Unprotect(a.suite, a.cipherKey, a.peerFrameCounter)
			if err != nil {
				a.state = StateIdle
				return common.Wrap(common.KindAuthFailed, "unprotect glo-initiate-response", err)
			}
			a.peerFrameCounter = secured.Header.FrameCounter
		}
		negotiated, err := apdu.DecodeInitiateResponse(plain)
		if err != nil {
			a.state = StateIdle
			return common.Wrap(common.KindCodec, "decode InitiateResponse", err)
		}
		a.negotiated = negotiated
	}

	if len(aare.RespondingAuthenticationValue.FullBytes) > 0 {
		a.hls.ServerChallenge = acse.NewHLSChallenge(aare.RespondingAuthenticationValue.FullBytes)
	}

	a.state = StateAssociated
	a.lg.WithField("state", a.state).Info("association: AARE accepted")
	return nil
}

// HandleAARQ processes an incoming AARQ at the server side: Idle -> AssociationPending,
// decoding and validating the request, negotiating an InitiateResponse, and optionally
// issuing this side's own HLS-GMAC challenge. It returns an error and no AARE when called
// outside Idle, when the AARQ itself cannot be decoded, or on a local encoding or challenge-
// generation failure; otherwise it returns the AARE to send back, accepted or rejected. On
// acceptance the association moves to Associated; on any rejection or error it returns to
// Idle (or, outside Idle, stays where it was), mirroring the client-side Open/HandleAARE pair.
func (a *Association) HandleAARQ(encoded []byte) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != StateIdle {
		return nil, common.New(common.KindProtocol, "AARQ received outside Idle")
	}
	a.state = StateAssociationPending

	aarq := &acse.AARQ{}
	if err := aarq.Decode(encoded); err != nil {
		a.state = StateIdle
		return nil, common.Wrap(common.KindCodec, "decode AARQ", err)
	}

	if !aarq.ApplicationContextName.Equal(a.cfg.ApplicationContext) {
		a.state = StateIdle
		a.lg.Warn("association: AARQ rejected, application context not supported")
		return a.rejectedAARE(aarq.ApplicationContextName, acse.ACSEUserAppContextNotSupported)
	}

	plain := aarq.UserInformation.FullBytes
	if a.isCipheringContext() {
		secured, err := apdu.DecodeSecured(plain)
		if err != nil {
			a.state = StateIdle
			return a.rejectedAARE(aarq.ApplicationContextName, acse.ACSEUserNoReasonGiven)
		}
		plain, err = secured.Unprotect(a.suite, a.cipherKey, a.peerFrameCounter)
		if err != nil {
			a.state = StateIdle
			return a.rejectedAARE(aarq.ApplicationContextName, acse.ACSEUserAuthenticationFailed)
		}
		a.peerFrameCounter = secured.Header.FrameCounter
	}

	initiate, err := apdu.DecodeInitiateRequest(plain)
	if err != nil {
		a.state = StateIdle
		return a.rejectedAARE(aarq.ApplicationContextName, acse.ACSEUserNoReasonGiven)
	}

	response := &apdu.InitiateResponse{
		DlmsVersionNumber:     initiate.DlmsVersionNumber,
		NegotiatedConformance: initiate.ProposedConformance,
		ServerMaxReceivePDU:   a.cfg.ClientMaxReceivePDU,
	}
	userInfo, err := response.Encode()
	if err != nil {
		a.state = StateIdle
		return nil, common.Wrap(common.KindCodec, "encode InitiateResponse", err)
	}

	if a.isCipheringContext() {
		a.frameCounter++
		header := &security.Header{
			Control:      security.ControlAuthenticatedAndEncrypted,
			SystemTitle:  a.cfg.CallingAPTitle,
			FrameCounter: a.frameCounter,
		}
		userInfo, err = apdu.EncodeSecured(a.suite, a.cipherKey, header, false, apdu.TagInitiateResponse, userInfo)
		if err != nil {
			a.state = StateIdle
			return nil, common.Wrap(common.KindCodec, "encode glo-initiate-response", err)
		}
	}

	aare := &acse.AARE{
		ApplicationContextName: a.cfg.ApplicationContext,
		Result:                 acse.ResultAccepted,
		UserInformation:        asn1.RawValue{FullBytes: userInfo},
	}

	if len(aarq.CallingAuthenticationValue.FullBytes) > 0 && a.cfg.MechanismName.Equal(acse.OidMechanismHLSGMAC) {
		a.hls.ClientChallenge = acse.NewHLSChallenge(aarq.CallingAuthenticationValue.FullBytes)
		challenge, err := acse.GenerateChallenge(16)
		if err != nil {
			a.state = StateIdle
			return nil, err
		}
		a.hls.ServerChallenge = acse.NewHLSChallenge(challenge)
		aare.RespondingAuthenticationValue = asn1.RawValue{FullBytes: challenge}
	}

	encodedAARE, err := aare.Encode()
	if err != nil {
		a.state = StateIdle
		return nil, common.Wrap(common.KindCodec, "encode AARE", err)
	}

	a.state = StateAssociated
	a.lg.WithField("state", a.state).Info("association: AARQ accepted")
	return encodedAARE, nil
}

// rejectedAARE builds and encodes a rejection AARE, leaving the association in the Idle
// state the caller already set it to.
func (a *Association) rejectedAARE(contextName asn1.ObjectIdentifier, diagnostic asn1.Enumerated) ([]byte, error) {
	encoded, err := acse.RejectedAARE(contextName, diagnostic).Encode()
	if err != nil {
		return nil, common.Wrap(common.KindCodec, "encode rejected AARE", err)
	}
	return encoded, nil
}

// isCipheringContext reports whether the configured application context requires the
// Initiate PDU to travel wrapped in a glo-initiate-request/response envelope.
func (a *Association) isCipheringContext() bool {
	return a.cfg.ApplicationContext.Equal(acse.OidApplicationContextLNCiphering) ||
		a.cfg.ApplicationContext.Equal(acse.OidApplicationContextSNCiphering)
}

// AuthenticationProof computes this client's reply_to_HLS_authentication value, f(SC), proving
// possession of the authentication key over the server's challenge — step 3 of the four-pass
// HLS-GMAC exchange. Open/HandleAARE must have completed and negotiated a server challenge.
func (a *Association) AuthenticationProof() ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.hls.ServerChallenge == nil {
		return nil, common.New(common.KindAuthFailed, "no server challenge to answer")
	}
	a.frameCounter++
	return acse.ComputeHLSTag(a.authKey, a.cipherKey, a.cfg.CallingAPTitle, a.frameCounter, a.hls.ServerChallenge.Value)
}

// VerifyAuthenticationResponse checks the server's reply_to_HLS_authentication value, f(CC),
// completing step 4 of the four-pass exchange. On success the association is mutually
// authenticated; on failure the caller should Abort.
func (a *Association) VerifyAuthenticationResponse(peerSystemTitle []byte, frameCounter uint32, fCC []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hls.VerifyClientResponse(a.authKey, a.cipherKey, peerSystemTitle, frameCounter, time.Now(), fCC)
}

// ReleaseTimeoutExceeded reports whether a pending release has exceeded ReleaseTimeout and
// should be forced back to Idle by the caller's timer.
func (a *Association) ReleaseTimeoutExceeded(now time.Time) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state == StateReleasePending && now.After(a.releaseDeadline)
}

// Release moves Associated -> ReleasePending and returns the RLRQ to send.
func (a *Association) Release() ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != StateAssociated {
		return nil, common.New(common.KindProtocol, "release() outside Associated")
	}
	rlrq := &acse.RLRQ{Reason: acse.ReasonNormal}
	encoded, err := rlrq.Encode()
	if err != nil {
		return nil, common.Wrap(common.KindCodec, "encode RLRQ", err)
	}
	a.state = StateReleasePending
	a.releaseDeadline = time.Now().Add(ReleaseTimeout)
	return encoded, nil
}

// HandleRLRE processes the peer's RLRE, completing a pending release.
func (a *Association) HandleRLRE(encoded []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != StateReleasePending {
		return common.New(common.KindProtocol, "RLRE received outside ReleasePending")
	}
	rlre := &acse.RLRE{}
	if err := rlre.Decode(encoded); err != nil {
		return common.Wrap(common.KindCodec, "decode RLRE", err)
	}
	a.state = StateIdle
	return nil
}

// Abort forces the association back to Idle from any state, per the spec's "either side, any
// state" rule: authentication failure, replay detection, transport loss, ACSE protocol error,
// or an explicit application request all funnel through here.
func (a *Association) Abort(reason error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lg.WithError(reason).WithField("from", a.state).Warn("association: aborted")
	a.state = StateIdle
	a.hls = acse.HLSExchangeState{}
}

// RequireAssociated returns a KindProtocol error unless the association is Associated — the
// gate every Get/Set/Action/Notification APDU must pass before it is encoded or accepted.
func (a *Association) RequireAssociated() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StateAssociated {
		return common.New(common.KindProtocol, "not-associated")
	}
	return nil
}

// NextFrameCounter returns the next frame counter this side should use for an outgoing secured
// APDU, incrementing the local counter.
func (a *Association) NextFrameCounter() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.frameCounter++
	return a.frameCounter
}
