// Package acse implements the COSEM Association Control Service Element: AARQ/AARE/RLRQ/RLRE
// BER encoding, application-context and mechanism-name OIDs, and the LLS/HLS-GMAC
// authentication flows that gate an association.
package acse

import (
	"crypto/subtle"
	"encoding/asn1"
	"fmt"

	"github.com/ViewWay/dlms-go/pkg/common"
)

// Application-context OIDs, arc 2.16.756.5.8.1.N. The scenario-level wire test in this
// stack's conformance suite fixes N=1 for LN-no-ciphering under this arc; the remaining
// values follow the same numbering (2=SN, 3=LN-ciphering, 4=SN-ciphering). The same N values
// also appear under the ANSI arc 2.16.840.1.118.1.N; only the 2.16.756.5.8 arc is defined here.
var (
	OidApplicationContextLN           = asn1.ObjectIdentifier{2, 16, 756, 5, 8, 1, 1}
	OidApplicationContextSN           = asn1.ObjectIdentifier{2, 16, 756, 5, 8, 1, 2}
	OidApplicationContextLNCiphering  = asn1.ObjectIdentifier{2, 16, 756, 5, 8, 1, 3}
	OidApplicationContextSNCiphering  = asn1.ObjectIdentifier{2, 16, 756, 5, 8, 1, 4}
)

// Mechanism-name OIDs, arc 2.16.756.5.8.2.N for the eight standard authentication mechanisms.
var (
	OidMechanismNone           = asn1.ObjectIdentifier{2, 16, 756, 5, 8, 2, 0}
	OidMechanismLLS            = asn1.ObjectIdentifier{2, 16, 756, 5, 8, 2, 1}
	OidMechanismHLSManufacturer = asn1.ObjectIdentifier{2, 16, 756, 5, 8, 2, 2}
	OidMechanismHLSMD5         = asn1.ObjectIdentifier{2, 16, 756, 5, 8, 2, 3}
	OidMechanismHLSSHA1        = asn1.ObjectIdentifier{2, 16, 756, 5, 8, 2, 4}
	OidMechanismHLSGMAC        = asn1.ObjectIdentifier{2, 16, 756, 5, 8, 2, 5}
	OidMechanismHLSSHA256      = asn1.ObjectIdentifier{2, 16, 756, 5, 8, 2, 6}
	OidMechanismHLSECDSA       = asn1.ObjectIdentifier{2, 16, 756, 5, 8, 2, 7}
)

// AARQ (Association Request) APDU, encoded with ASN.1 BER via struct tags.
type AARQ struct {
	ProtocolVersion            asn1.BitString        `asn1:"tag:0,optional,default:0"`
	ApplicationContextName     asn1.ObjectIdentifier `asn1:"tag:1"`
	CallingAPtitle             asn1.RawValue         `asn1:"tag:2,optional"`
	RespondingAPtitle          asn1.RawValue         `asn1:"tag:3,optional"`
	SenderACSERequirements     asn1.BitString        `asn1:"tag:10,optional"`
	MechanismName              asn1.ObjectIdentifier `asn1:"tag:11,optional"`
	CallingAuthenticationValue asn1.RawValue         `asn1:"tag:12,explicit,optional"`
	UserInformation            asn1.RawValue         `asn1:"tag:30,optional"`
}

// AARE (Association Response) APDU.
type AARE struct {
	ProtocolVersion               asn1.BitString         `asn1:"tag:0,optional,default:0"`
	ApplicationContextName        asn1.ObjectIdentifier  `asn1:"tag:1"`
	Result                        asn1.Enumerated        `asn1:"tag:2"`
	ResultSourceDiagnostic        ResultSourceDiagnostic `asn1:"tag:3,explicit"`
	RespondingAPtitle             asn1.RawValue          `asn1:"tag:5,optional"`
	ResponderACSERequirements     asn1.BitString         `asn1:"tag:8,optional"`
	MechanismName                 asn1.ObjectIdentifier  `asn1:"tag:9,optional"`
	RespondingAuthenticationValue asn1.RawValue          `asn1:"tag:10,explicit,optional"`
	UserInformation               asn1.RawValue          `asn1:"tag:30,optional"`
}

// RLRQ (Release Request) APDU.
type RLRQ struct {
	Reason          asn1.Enumerated `asn1:"tag:0,optional"`
	UserInformation asn1.RawValue   `asn1:"tag:30,optional"`
}

// RLRE (Release Response) APDU.
type RLRE struct {
	Reason          asn1.Enumerated `asn1:"tag:0,optional"`
	UserInformation asn1.RawValue   `asn1:"tag:30,optional"`
}

// LLSAuthenticationValue is the Authentication-value CHOICE variant carrying a shared secret
// as a GraphicString, used for the LLS mechanism.
type LLSAuthenticationValue struct {
	GraphicString string `asn1:"tag:0"`
}

// ChallengeAuthenticationValue is the Authentication-value CHOICE variant carrying a random
// challenge as an OCTET STRING, used for HLS mechanisms including HLS-GMAC.
type ChallengeAuthenticationValue struct {
	Challenge []byte `asn1:"tag:0"`
}

// ResultSourceDiagnostic is the CHOICE carrying the reason for an AARE rejection.
type ResultSourceDiagnostic struct {
	ACSEServiceUser     asn1.Enumerated `asn1:"tag:1,optional"`
	ACSEServiceProvider asn1.Enumerated `asn1:"tag:2,optional"`
}

// AARQ/AARE's UserInformation field carries an xDLMS InitiateRequest/InitiateResponse PDU
// A-XDR-encoded as an opaque octet string — see pkg/apdu.InitiateRequest/InitiateResponse,
// which decode it. It is not itself ASN.1 and has no BER struct-tag shape of its own.

// String renders whichever diagnostic branch of the CHOICE is populated, for use in
// OpenRejected error messages.
func (r ResultSourceDiagnostic) String() string {
	if r.ACSEServiceUser != 0 {
		return fmt.Sprintf("acse-service-user(%d)", r.ACSEServiceUser)
	}
	if r.ACSEServiceProvider != 0 {
		return fmt.Sprintf("acse-service-provider(%d)", r.ACSEServiceProvider)
	}
	return "none"
}

// AARE.Result values.
const (
	ResultAccepted          asn1.Enumerated = 0
	ResultRejectedPermanent asn1.Enumerated = 1
	ResultRejectedTransient asn1.Enumerated = 2
)

// ResultSourceDiagnostic.ACSEServiceUser values (the subset the stack actually raises).
const (
	ACSEUserNull                                asn1.Enumerated = 0
	ACSEUserNoReasonGiven                       asn1.Enumerated = 1
	ACSEUserAppContextNotSupported              asn1.Enumerated = 2
	ACSEUserAuthenticationFailed                asn1.Enumerated = 14
	ACSEUserAuthenticationMechanismNotSupported asn1.Enumerated = 15
)

// RLRQ/RLRE.Reason values.
const (
	ReasonNormal      asn1.Enumerated = 0
	ReasonUrgent      asn1.Enumerated = 1
	ReasonUserDefined asn1.Enumerated = 30
)

func (a *AARQ) Encode() ([]byte, error) { return asn1.Marshal(*a) }
func (a *AARQ) Decode(src []byte) error { _, err := asn1.Unmarshal(src, a); return err }

func (a *AARE) Encode() ([]byte, error) { return asn1.Marshal(*a) }
func (a *AARE) Decode(src []byte) error { _, err := asn1.Unmarshal(src, a); return err }

func (r *RLRQ) Encode() ([]byte, error) { return asn1.Marshal(*r) }
func (r *RLRQ) Decode(src []byte) error { _, err := asn1.Unmarshal(src, r); return err }

func (r *RLRE) Encode() ([]byte, error) { return asn1.Marshal(*r) }
func (r *RLRE) Decode(src []byte) error { _, err := asn1.Unmarshal(src, r); return err }

// CheckLLS compares a supplied secret against the expected one byte-wise in constant time,
// per the spec's requirement that an LLS mismatch yields an authentication-failure diagnostic
// rather than a timing oracle.
func CheckLLS(supplied, expected string) error {
	if subtle.ConstantTimeCompare([]byte(supplied), []byte(expected)) != 1 {
		return common.Wrap(common.KindAuthFailed, "LLS secret mismatch", nil)
	}
	return nil
}

// RejectedAARE builds an AARE with the given diagnostic, mirroring the request's
// application-context so the peer can tell which context was rejected.
func RejectedAARE(contextName asn1.ObjectIdentifier, diagnostic asn1.Enumerated) *AARE {
	return &AARE{
		ApplicationContextName: contextName,
		Result:                 ResultRejectedPermanent,
		ResultSourceDiagnostic: ResultSourceDiagnostic{ACSEServiceUser: diagnostic},
	}
}
