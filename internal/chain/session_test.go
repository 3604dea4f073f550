package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bansal-ishaan/TickkItOnn/internal/domain"
)

func TestNewSession_ReadOnly(t *testing.T) {
	session, err := NewSession("", 11155111)
	require.NoError(t, err)

	assert.False(t, session.Connected())
	assert.Equal(t, domain.NetworkID(11155111), session.NetworkID())

	_, err = session.Account()
	assert.ErrorIs(t, err, domain.ErrNoWallet)
	_, err = session.Key()
	assert.ErrorIs(t, err, domain.ErrNoWallet)
}

func TestNewSession_WithKey(t *testing.T) {
	session, err := NewSession(testKeyHex, 11155111)
	require.NoError(t, err)

	assert.True(t, session.Connected())

	account, err := session.Account()
	require.NoError(t, err)
	assert.NotEqual(t, "0x0000000000000000000000000000000000000000", account.Hex())
}

func TestNewSession_AcceptsHexPrefix(t *testing.T) {
	withPrefix, err := NewSession("0x"+testKeyHex, 1)
	require.NoError(t, err)
	withoutPrefix, err := NewSession(testKeyHex, 1)
	require.NoError(t, err)

	a1, _ := withPrefix.Account()
	a2, _ := withoutPrefix.Account()
	assert.Equal(t, a2, a1)
}

func TestNewSession_InvalidKey(t *testing.T) {
	_, err := NewSession("not-a-key", 1)

	assert.Error(t, err)
}

func TestSession_SetNetworkNotifiesSubscribers(t *testing.T) {
	session, err := NewSession(testKeyHex, 11155111)
	require.NoError(t, err)
	events := session.Subscribe()

	session.SetNetwork(80002)

	ev := <-events
	assert.Equal(t, SessionEventNetworkChanged, ev.Kind)
	assert.Equal(t, domain.NetworkID(80002), ev.NetworkID)
	assert.Equal(t, domain.NetworkID(80002), session.NetworkID())
}

func TestSession_DisconnectDropsIdentity(t *testing.T) {
	session, err := NewSession(testKeyHex, 11155111)
	require.NoError(t, err)
	events := session.Subscribe()

	session.Disconnect()

	ev := <-events
	assert.Equal(t, SessionEventDisconnected, ev.Kind)
	assert.False(t, session.Connected())
	_, err = session.Account()
	assert.ErrorIs(t, err, domain.ErrNoWallet)
}

func TestSession_SetAccountSwitchesIdentity(t *testing.T) {
	session, err := NewSession(testKeyHex, 11155111)
	require.NoError(t, err)
	before, err := session.Account()
	require.NoError(t, err)
	events := session.Subscribe()

	// Another deterministic throwaway key
	require.NoError(t, session.SetAccount("8b3a350cf5c34c9194ca85829a2df0ec3153be0318b5e2d3348e872092edffba"))

	ev := <-events
	assert.Equal(t, SessionEventAccountChanged, ev.Kind)
	after, err := session.Account()
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
}

func TestSession_SlowSubscriberDoesNotBlock(t *testing.T) {
	session, err := NewSession(testKeyHex, 11155111)
	require.NoError(t, err)
	_ = session.Subscribe() // never drained

	// Overflow the subscriber buffer; delivery must never block
	for i := 0; i < 20; i++ {
		session.SetNetwork(domain.NetworkID(i + 1))
	}

	assert.Equal(t, domain.NetworkID(20), session.NetworkID())
}
