package registry

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bansal-ishaan/TickkItOnn/internal/domain"
)

// NetworkRegistry is the static catalog of supported networks. It is built once
// at startup and never mutated, so it is safe for concurrent use without locking.
type NetworkRegistry interface {
	// ListNetworks returns the catalog in stable order. This order is the
	// aggregation fan-out order.
	ListNetworks() []domain.NetworkDescriptor

	// Resolve returns the descriptor for a network id
	Resolve(id domain.NetworkID) (domain.NetworkDescriptor, error)

	// ContractAddressFor returns the marketplace contract address deployed on a
	// network. It fails when the network is unknown or has no configured contract;
	// callers must check this before any write or estimate operation.
	ContractAddressFor(id domain.NetworkID) (common.Address, error)
}

type networkRegistry struct {
	ordered []domain.NetworkDescriptor
	byID    map[domain.NetworkID]domain.NetworkDescriptor
}

// NewNetworkRegistry creates a registry from the configured descriptors
func NewNetworkRegistry(descriptors []domain.NetworkDescriptor) NetworkRegistry {
	byID := make(map[domain.NetworkID]domain.NetworkDescriptor, len(descriptors))
	for _, d := range descriptors {
		byID[d.ID] = d
	}
	return &networkRegistry{
		ordered: descriptors,
		byID:    byID,
	}
}

func (r *networkRegistry) ListNetworks() []domain.NetworkDescriptor {
	out := make([]domain.NetworkDescriptor, len(r.ordered))
	copy(out, r.ordered)
	return out
}

func (r *networkRegistry) Resolve(id domain.NetworkID) (domain.NetworkDescriptor, error) {
	d, ok := r.byID[id]
	if !ok {
		return domain.NetworkDescriptor{}, fmt.Errorf("%w: %d", domain.ErrUnknownNetwork, id)
	}
	return d, nil
}

func (r *networkRegistry) ContractAddressFor(id domain.NetworkID) (common.Address, error) {
	d, err := r.Resolve(id)
	if err != nil {
		return common.Address{}, err
	}
	if !d.Configured() {
		return common.Address{}, fmt.Errorf("%w: %s", domain.ErrUnconfiguredNetwork, d.Name)
	}
	return d.Contract(), nil
}
