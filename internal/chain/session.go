package chain

import (
	"crypto/ecdsa"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/bansal-ishaan/TickkItOnn/internal/domain"
)

// SessionEventKind identifies a session change notification
type SessionEventKind string

const (
	SessionEventAccountChanged SessionEventKind = "account_changed"
	SessionEventNetworkChanged SessionEventKind = "network_changed"
	SessionEventDisconnected   SessionEventKind = "disconnected"
)

// SessionEvent is delivered to subscribers when the connected account or
// network changes.
type SessionEvent struct {
	Kind      SessionEventKind
	Account   common.Address
	NetworkID domain.NetworkID
}

// Session holds the process-wide signing identity: the connected account, its
// key, and the network the wallet is currently on. Changes are delivered to
// subscribers as discrete events instead of being read ambiently.
type Session struct {
	mu        sync.RWMutex
	key       *ecdsa.PrivateKey
	account   common.Address
	networkID domain.NetworkID
	subs      []chan SessionEvent
}

// NewSession creates a session. An empty privateKeyHex yields a read-only
// session: reads work, every signing operation fails with ErrNoWallet.
func NewSession(privateKeyHex string, networkID domain.NetworkID) (*Session, error) {
	s := &Session{networkID: networkID}
	if privateKeyHex == "" {
		return s, nil
	}

	key, err := parseKey(privateKeyHex)
	if err != nil {
		return nil, err
	}
	s.key = key
	s.account = crypto.PubkeyToAddress(key.PublicKey)
	return s, nil
}

func parseKey(privateKeyHex string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid wallet private key: %w", err)
	}
	return key, nil
}

// Connected reports whether a signing identity is available
func (s *Session) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key != nil
}

// Account returns the connected account address
func (s *Session) Account() (common.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.key == nil {
		return common.Address{}, domain.ErrNoWallet
	}
	return s.account, nil
}

// Key returns the connected account's signing key
func (s *Session) Key() (*ecdsa.PrivateKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.key == nil {
		return nil, domain.ErrNoWallet
	}
	return s.key, nil
}

// NetworkID returns the network the wallet is connected to
func (s *Session) NetworkID() domain.NetworkID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.networkID
}

// SetAccount switches the signing identity and notifies subscribers
func (s *Session) SetAccount(privateKeyHex string) error {
	key, err := parseKey(privateKeyHex)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.key = key
	s.account = crypto.PubkeyToAddress(key.PublicKey)
	ev := SessionEvent{Kind: SessionEventAccountChanged, Account: s.account, NetworkID: s.networkID}
	s.mu.Unlock()

	s.notify(ev)
	return nil
}

// SetNetwork switches the connected network and notifies subscribers
func (s *Session) SetNetwork(id domain.NetworkID) {
	s.mu.Lock()
	s.networkID = id
	ev := SessionEvent{Kind: SessionEventNetworkChanged, Account: s.account, NetworkID: id}
	s.mu.Unlock()

	s.notify(ev)
}

// Disconnect drops the signing identity and notifies subscribers
func (s *Session) Disconnect() {
	s.mu.Lock()
	s.key = nil
	s.account = common.Address{}
	ev := SessionEvent{Kind: SessionEventDisconnected, NetworkID: s.networkID}
	s.mu.Unlock()

	s.notify(ev)
}

// Subscribe returns a channel receiving session change events. The channel is
// buffered; a slow subscriber drops events rather than blocking the session.
func (s *Session) Subscribe() <-chan SessionEvent {
	ch := make(chan SessionEvent, 8)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()
	return ch
}

func (s *Session) notify(ev SessionEvent) {
	s.mu.RLock()
	subs := s.subs
	s.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
