package pricing

import (
	"context"
	"fmt"
	"math/big"

	"github.com/bansal-ishaan/TickkItOnn/internal/chain"
	"github.com/bansal-ishaan/TickkItOnn/internal/domain"
	"github.com/bansal-ishaan/TickkItOnn/internal/registry"
)

// The contract raises the unit price by 0.1% of the base price for every ticket
// already sold: price = base + base*sold/1000. All arithmetic stays in wei
// integers so the client-side figure never drifts from the on-chain one.
const incrementDivisor = 1000

// CurrentPrice returns the marginal price of the next ticket given how many
// have already been sold. At ticketsSold = 0 it equals the base price exactly.
func CurrentPrice(basePriceWei *big.Int, ticketsSold uint64) *big.Int {
	increment := new(big.Int).Mul(basePriceWei, new(big.Int).SetUint64(ticketsSold))
	increment.Quo(increment, big.NewInt(incrementDivisor))
	return increment.Add(increment, basePriceWei)
}

// BatchCost prices quantity tickets sequentially, each unit at its own marginal
// ticketsSold position, matching the contract's batch pricing.
func BatchCost(basePriceWei *big.Int, ticketsSold, quantity uint64) *big.Int {
	total := new(big.Int)
	for i := uint64(0); i < quantity; i++ {
		total.Add(total, CurrentPrice(basePriceWei, ticketsSold+i))
	}
	return total
}

// Engine produces cost estimates for both purchase routes. The local curve
// above is for display only; the value actually submitted with a transaction
// always comes from a contract read call, so it exactly matches what the
// contract will charge.
type Engine interface {
	// EstimateSameNetworkCost quotes a purchase settled on the event's host network
	EstimateSameNetworkCost(ctx context.Context, event domain.EventRecord, quantity uint64) (domain.CostEstimate, error)

	// EstimateCrossNetworkCost quotes a purchase paid on sourceNetworkID and
	// relayed to the event's host network. It fails with ErrQuoteUnavailable
	// when the source network has no contract or the quote call errors; the
	// cost never defaults to zero.
	EstimateCrossNetworkCost(ctx context.Context, sourceNetworkID domain.NetworkID, event domain.EventRecord, quantity uint64) (domain.CostEstimate, error)
}

type engine struct {
	registry registry.NetworkRegistry
	adapters chain.AdapterFactory
}

// NewEngine creates a pricing engine over the network catalog
func NewEngine(reg registry.NetworkRegistry, adapters chain.AdapterFactory) Engine {
	return &engine{registry: reg, adapters: adapters}
}

func (e *engine) EstimateSameNetworkCost(ctx context.Context, event domain.EventRecord, quantity uint64) (domain.CostEstimate, error) {
	reader, err := e.adapters.ReaderFor(ctx, event.HostNetworkID)
	if err != nil {
		return domain.CostEstimate{}, err
	}

	total, err := reader.CalculateTicketCost(ctx, event.EventID, quantity)
	if err != nil {
		return domain.CostEstimate{}, err
	}

	return domain.CostEstimate{
		TicketCostWei: total,
		BridgeFeeWei:  new(big.Int),
		TotalWei:      total,
	}, nil
}

func (e *engine) EstimateCrossNetworkCost(ctx context.Context, sourceNetworkID domain.NetworkID, event domain.EventRecord, quantity uint64) (domain.CostEstimate, error) {
	host, err := e.registry.Resolve(event.HostNetworkID)
	if err != nil {
		return domain.CostEstimate{}, err
	}

	source, err := e.adapters.ReaderFor(ctx, sourceNetworkID)
	if err != nil {
		return domain.CostEstimate{}, fmt.Errorf("%w: %v", domain.ErrQuoteUnavailable, err)
	}

	quote, err := source.EstimateCrossChainFee(ctx, host.ChainSelector, event.HostContract, event.EventID, quantity)
	if err != nil {
		return domain.CostEstimate{}, fmt.Errorf("%w: %v", domain.ErrQuoteUnavailable, err)
	}

	return quote, nil
}
