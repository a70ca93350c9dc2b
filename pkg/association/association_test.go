package association

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ViewWay/dlms-go/pkg/acse"
	"github.com/ViewWay/dlms-go/pkg/apdu"
)

func testConfig() Config {
	return Config{
		ApplicationContext:  acse.OidApplicationContextLN,
		DlmsVersionNumber:   6,
		ProposedConformance: []byte{0x00, 0x10, 0x00},
		ClientMaxReceivePDU: 1024,
	}
}

func TestOpenBuildsAARQAndTransitionsToPending(t *testing.T) {
	a := New(nil, testConfig(), nil)
	assert.Equal(t, StateIdle, a.State())

	encoded, err := a.Open()
	require.NoError(t, err)
	assert.NotEmpty(t, encoded)
	assert.Equal(t, StateAssociationPending, a.State())

	aarq := &acse.AARQ{}
	require.NoError(t, aarq.Decode(encoded))
	assert.True(t, aarq.ApplicationContextName.Equal(acse.OidApplicationContextLN))
}

func TestOpenRejectsWhenAlreadyAssociated(t *testing.T) {
	a := New(nil, testConfig(), nil)
	_, err := a.Open()
	require.NoError(t, err)
	require.NoError(t, a.HandleAARE(acceptedAARE(t)))
	require.Equal(t, StateAssociated, a.State())

	_, err = a.Open()
	assert.ErrorIs(t, err, ErrAlreadyAssociated)
}

func acceptedAARE(t *testing.T) []byte {
	t.Helper()
	resp := &apdu.InitiateResponse{
		DlmsVersionNumber:     6,
		NegotiatedConformance: []byte{0x00, 0x10, 0x00},
		ServerMaxReceivePDU:   1024,
		VAAName:               0x0007,
	}
	userInfo, err := resp.Encode()
	require.NoError(t, err)
	aare := &acse.AARE{
		ApplicationContextName: acse.OidApplicationContextLN,
		Result:                 acse.ResultAccepted,
	}
	aare.UserInformation.FullBytes = userInfo
	encoded, err := aare.Encode()
	require.NoError(t, err)
	return encoded
}

func TestHandleAAREAcceptedTransitionsToAssociated(t *testing.T) {
	a := New(nil, testConfig(), nil)
	_, err := a.Open()
	require.NoError(t, err)

	require.NoError(t, a.HandleAARE(acceptedAARE(t)))
	assert.Equal(t, StateAssociated, a.State())
	require.NoError(t, a.RequireAssociated())
}

func TestHandleAARERejectedReturnsToIdle(t *testing.T) {
	a := New(nil, testConfig(), nil)
	_, err := a.Open()
	require.NoError(t, err)

	aare := &acse.AARE{
		ApplicationContextName: acse.OidApplicationContextLN,
		Result:                 acse.ResultRejectedPermanent,
		ResultSourceDiagnostic: acse.ResultSourceDiagnostic{ACSEServiceUser: acse.ACSEUserAuthenticationFailed},
	}
	encoded, err := aare.Encode()
	require.NoError(t, err)

	err = a.HandleAARE(encoded)
	assert.Error(t, err)
	assert.Equal(t, StateIdle, a.State())
}

func TestRequireAssociatedFailsOutsideAssociated(t *testing.T) {
	a := New(nil, testConfig(), nil)
	err := a.RequireAssociated()
	assert.Error(t, err)
}

func TestReleaseRoundTrip(t *testing.T) {
	a := New(nil, testConfig(), nil)
	_, err := a.Open()
	require.NoError(t, err)
	require.NoError(t, a.HandleAARE(acceptedAARE(t)))

	rlrq, err := a.Release()
	require.NoError(t, err)
	assert.Equal(t, StateReleasePending, a.State())

	rlre := &acse.RLRE{Reason: acse.ReasonNormal}
	encoded, err := rlre.Encode()
	require.NoError(t, err)
	_ = rlrq

	require.NoError(t, a.HandleRLRE(encoded))
	assert.Equal(t, StateIdle, a.State())
}

func TestAbortReturnsToIdleFromAnyState(t *testing.T) {
	a := New(nil, testConfig(), nil)
	_, err := a.Open()
	require.NoError(t, err)
	require.NoError(t, a.HandleAARE(acceptedAARE(t)))

	a.Abort(assert.AnError)
	assert.Equal(t, StateIdle, a.State())
}

func TestHandleAARQAcceptsAndTransitionsToAssociated(t *testing.T) {
	client := New(nil, testConfig(), nil)
	aarq, err := client.Open()
	require.NoError(t, err)

	server := New(nil, testConfig(), nil)
	assert.Equal(t, StateIdle, server.State())

	aareBytes, err := server.HandleAARQ(aarq)
	require.NoError(t, err)
	assert.Equal(t, StateAssociated, server.State())

	aare := &acse.AARE{}
	require.NoError(t, aare.Decode(aareBytes))
	assert.Equal(t, acse.ResultAccepted, aare.Result)
	assert.True(t, aare.ApplicationContextName.Equal(acse.OidApplicationContextLN))

	require.NoError(t, client.HandleAARE(aareBytes))
	assert.Equal(t, StateAssociated, client.State())
}

func TestHandleAARQRejectsUnsupportedApplicationContext(t *testing.T) {
	client := New(nil, testConfig(), nil)
	aarq, err := client.Open()
	require.NoError(t, err)

	serverCfg := testConfig()
	serverCfg.ApplicationContext = acse.OidApplicationContextSN
	server := New(nil, serverCfg, nil)

	aareBytes, err := server.HandleAARQ(aarq)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, server.State())

	aare := &acse.AARE{}
	require.NoError(t, aare.Decode(aareBytes))
	assert.NotEqual(t, acse.ResultAccepted, aare.Result)
}

func TestHandleAARQRejectsOutsideIdle(t *testing.T) {
	client := New(nil, testConfig(), nil)
	aarq, err := client.Open()
	require.NoError(t, err)

	server := New(nil, testConfig(), nil)
	_, err = server.HandleAARQ(aarq)
	require.NoError(t, err)
	require.Equal(t, StateAssociated, server.State())

	_, err = server.HandleAARQ(aarq)
	assert.Error(t, err)
}

func TestHandleAARQRejectsMalformedAARQ(t *testing.T) {
	server := New(nil, testConfig(), nil)
	_, err := server.HandleAARQ([]byte{0xFF, 0xFF, 0xFF})
	assert.Error(t, err)
	assert.Equal(t, StateIdle, server.State())
}
