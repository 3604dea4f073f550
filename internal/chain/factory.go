package chain

import (
	"context"
	"fmt"
	"sync"

	"github.com/bansal-ishaan/TickkItOnn/internal/adapter"
	"github.com/bansal-ishaan/TickkItOnn/internal/domain"
	"github.com/bansal-ishaan/TickkItOnn/internal/registry"
)

// AdapterFactory hands out per-network readers and session-bound writers.
// Connections are dialed lazily and cached per network.
type AdapterFactory interface {
	// ReaderFor returns a read-only adapter for a network. It fails with
	// ErrUnknownNetwork, ErrUnconfiguredNetwork, or ErrNetworkUnreachable.
	ReaderFor(ctx context.Context, id domain.NetworkID) (Reader, error)

	// WriterFor returns a write adapter bound to the session's signing identity
	// on the network the session is connected to.
	WriterFor(ctx context.Context, session *Session) (Writer, error)

	// Close closes all cached connections
	Close()
}

type adapterFactory struct {
	registry registry.NetworkRegistry
	dialer   adapter.EthClientDialer

	mu      sync.Mutex
	clients map[domain.NetworkID]adapter.EthClient
}

// NewAdapterFactory creates a factory over the network catalog
func NewAdapterFactory(reg registry.NetworkRegistry, dialer adapter.EthClientDialer) AdapterFactory {
	return &adapterFactory{
		registry: reg,
		dialer:   dialer,
		clients:  make(map[domain.NetworkID]adapter.EthClient),
	}
}

func (f *adapterFactory) clientFor(ctx context.Context, network domain.NetworkDescriptor) (adapter.EthClient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if client, ok := f.clients[network.ID]; ok {
		return client, nil
	}

	client, err := f.dialer.Dial(ctx, network.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrNetworkUnreachable, network.Name, err)
	}
	f.clients[network.ID] = client
	return client, nil
}

func (f *adapterFactory) ReaderFor(ctx context.Context, id domain.NetworkID) (Reader, error) {
	network, err := f.registry.Resolve(id)
	if err != nil {
		return nil, err
	}
	if !network.Configured() {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnconfiguredNetwork, network.Name)
	}

	client, err := f.clientFor(ctx, network)
	if err != nil {
		return nil, err
	}
	return NewReader(network, client), nil
}

func (f *adapterFactory) WriterFor(ctx context.Context, session *Session) (Writer, error) {
	if !session.Connected() {
		return nil, domain.ErrNoWallet
	}

	network, err := f.registry.Resolve(session.NetworkID())
	if err != nil {
		return nil, err
	}
	if !network.Configured() {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnconfiguredNetwork, network.Name)
	}

	client, err := f.clientFor(ctx, network)
	if err != nil {
		return nil, err
	}
	return NewWriter(network, client, session)
}

func (f *adapterFactory) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for id, client := range f.clients {
		client.Close()
		delete(f.clients, id)
	}
}
