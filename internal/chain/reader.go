package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/bansal-ishaan/TickkItOnn/internal/adapter"
	"github.com/bansal-ishaan/TickkItOnn/internal/domain"
)

// Reader exposes the read-only marketplace operations of one network. A Reader
// is bound to a single network's endpoint and contract at construction and is
// never mutated afterwards, so it is safe for concurrent use.
type Reader interface {
	// Network returns the descriptor this reader is bound to
	Network() domain.NetworkDescriptor

	// GetActiveEvents fetches up to limit active events starting at offset,
	// tagged with this reader's host network.
	GetActiveEvents(ctx context.Context, offset, limit uint64) ([]domain.EventRecord, error)

	// BalanceOf returns the caller's ticket count on this network
	BalanceOf(ctx context.Context, account common.Address) (uint64, error)

	// PendingRefunds returns the caller's withdrawable refund balance in wei
	PendingRefunds(ctx context.Context, account common.Address) (*big.Int, error)

	// CalculateTicketCost asks the contract for the exact total cost of buying
	// quantity tickets. The contract is the source of truth for the figure that
	// will be charged on submission.
	CalculateTicketCost(ctx context.Context, eventID, quantity uint64) (*big.Int, error)

	// EstimateCrossChainFee quotes a purchase relayed from this network to a
	// destination network's contract.
	EstimateCrossChainFee(ctx context.Context, destSelector uint64, destContract common.Address, eventID, quantity uint64) (domain.CostEstimate, error)
}

type reader struct {
	network  domain.NetworkDescriptor
	client   adapter.EthClient
	contract common.Address
}

// NewReader creates a reader bound to one network's endpoint and contract
func NewReader(network domain.NetworkDescriptor, client adapter.EthClient) Reader {
	return &reader{
		network:  network,
		client:   client,
		contract: network.Contract(),
	}
}

func (r *reader) Network() domain.NetworkDescriptor {
	return r.network
}

// call packs a view method, executes it, and returns the raw return data
func (r *reader) call(ctx context.Context, method string, args ...interface{}) ([]byte, error) {
	data, err := marketplaceABI().Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}

	result, err := r.client.CallContract(ctx, ethereum.CallMsg{
		To:   &r.contract,
		Data: data,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrNetworkUnreachable, r.network.Name, err)
	}

	return result, nil
}

// rawEvent mirrors the contract's event tuple layout
type rawEvent struct {
	EventId      *big.Int
	Organizer    common.Address
	Name         string
	Description  string
	Venue        string
	EventDate    *big.Int
	TotalTickets *big.Int
	BasePrice    *big.Int
	TicketsSold  *big.Int
}

func (r *reader) GetActiveEvents(ctx context.Context, offset, limit uint64) ([]domain.EventRecord, error) {
	result, err := r.call(ctx, "getActiveEvents",
		new(big.Int).SetUint64(offset), new(big.Int).SetUint64(limit))
	if err != nil {
		return nil, err
	}

	var raw []rawEvent
	if err := marketplaceABI().UnpackIntoInterface(&raw, "getActiveEvents", result); err != nil {
		return nil, fmt.Errorf("failed to unpack getActiveEvents: %w", err)
	}

	events := make([]domain.EventRecord, 0, len(raw))
	for _, e := range raw {
		events = append(events, domain.EventRecord{
			EventID:       e.EventId.Uint64(),
			Organizer:     e.Organizer,
			Name:          e.Name,
			Description:   e.Description,
			Venue:         e.Venue,
			EventDateUnix: e.EventDate.Int64(),
			TotalTickets:  e.TotalTickets.Uint64(),
			BasePriceWei:  e.BasePrice,
			TicketsSold:   e.TicketsSold.Uint64(),
			HostNetworkID: r.network.ID,
			HostContract:  r.contract,
		})
	}

	return events, nil
}

func (r *reader) BalanceOf(ctx context.Context, account common.Address) (uint64, error) {
	result, err := r.call(ctx, "balanceOf", account)
	if err != nil {
		return 0, err
	}

	var balance *big.Int
	if err := marketplaceABI().UnpackIntoInterface(&balance, "balanceOf", result); err != nil {
		return 0, fmt.Errorf("failed to unpack balanceOf: %w", err)
	}

	return balance.Uint64(), nil
}

func (r *reader) PendingRefunds(ctx context.Context, account common.Address) (*big.Int, error) {
	result, err := r.call(ctx, "pendingRefunds", account)
	if err != nil {
		return nil, err
	}

	var amount *big.Int
	if err := marketplaceABI().UnpackIntoInterface(&amount, "pendingRefunds", result); err != nil {
		return nil, fmt.Errorf("failed to unpack pendingRefunds: %w", err)
	}

	return amount, nil
}

func (r *reader) CalculateTicketCost(ctx context.Context, eventID, quantity uint64) (*big.Int, error) {
	result, err := r.call(ctx, "calculateCrossChainTicketCost",
		new(big.Int).SetUint64(eventID), new(big.Int).SetUint64(quantity))
	if err != nil {
		return nil, err
	}

	var cost *big.Int
	if err := marketplaceABI().UnpackIntoInterface(&cost, "calculateCrossChainTicketCost", result); err != nil {
		return nil, fmt.Errorf("failed to unpack ticket cost: %w", err)
	}

	return cost, nil
}

// rawFeeEstimate mirrors the estimateCrossChainFee return tuple
type rawFeeEstimate struct {
	BridgeFee  *big.Int
	TicketCost *big.Int
	TotalCost  *big.Int
}

func (r *reader) EstimateCrossChainFee(ctx context.Context, destSelector uint64, destContract common.Address, eventID, quantity uint64) (domain.CostEstimate, error) {
	result, err := r.call(ctx, "estimateCrossChainFee",
		destSelector, destContract,
		new(big.Int).SetUint64(eventID), new(big.Int).SetUint64(quantity))
	if err != nil {
		return domain.CostEstimate{}, err
	}

	var raw rawFeeEstimate
	if err := marketplaceABI().UnpackIntoInterface(&raw, "estimateCrossChainFee", result); err != nil {
		return domain.CostEstimate{}, fmt.Errorf("failed to unpack estimateCrossChainFee: %w", err)
	}

	return domain.CostEstimate{
		TicketCostWei: raw.TicketCost,
		BridgeFeeWei:  raw.BridgeFee,
		TotalWei:      raw.TotalCost,
	}, nil
}
