package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// NetworkID is the EVM chain identifier of a supported network (e.g. 11155111 for Sepolia).
type NetworkID uint64

// NetworkDescriptor describes one supported network. Descriptors are loaded once at
// startup from configuration and are immutable for the process lifetime.
type NetworkDescriptor struct {
	ID NetworkID `json:"id"`
	// Name is the human-readable network name (e.g. "Ethereum Sepolia").
	Name string `json:"name"`
	// ChainSelector is the opaque CCIP selector used to address this network
	// from another network.
	ChainSelector uint64 `json:"chain_selector"`
	// RPCURL is the read endpoint for this network.
	RPCURL string `json:"rpc_url"`
	// NativeSymbol is the gas token symbol (ETH, MATIC, AVAX).
	NativeSymbol string `json:"native_symbol"`
	// ContractAddress is the marketplace contract deployed on this network.
	// Empty when no contract is configured; write and estimate operations must
	// check this before touching the network.
	ContractAddress string `json:"contract_address"`
	// MinStakeWei is the minimum organizer stake required to create an event
	// on this network.
	MinStakeWei *big.Int `json:"min_stake_wei"`
}

// Configured reports whether a marketplace contract is deployed on the network.
func (n NetworkDescriptor) Configured() bool {
	return n.ContractAddress != ""
}

// Contract returns the marketplace contract address.
func (n NetworkDescriptor) Contract() common.Address {
	return common.HexToAddress(n.ContractAddress)
}

// EventRecord is one event as read from a single network's marketplace contract.
// Records are never merged across networks; (HostNetworkID, EventID) is globally unique.
type EventRecord struct {
	EventID       uint64         `json:"event_id"`
	Organizer     common.Address `json:"organizer"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Venue         string         `json:"venue"`
	EventDateUnix int64          `json:"event_date"`
	TotalTickets  uint64         `json:"total_tickets"`
	BasePriceWei  *big.Int       `json:"base_price_wei"`
	TicketsSold   uint64         `json:"tickets_sold"`
	HostNetworkID NetworkID      `json:"host_network_id"`
	HostContract  common.Address `json:"host_contract"`
}

// Available returns the number of unsold tickets.
func (e EventRecord) Available() uint64 {
	if e.TicketsSold > e.TotalTickets {
		return 0
	}
	return e.TotalTickets - e.TicketsSold
}

// EventDate returns the event date as a time.Time.
func (e EventRecord) EventDate() time.Time {
	return time.Unix(e.EventDateUnix, 0)
}

// CostEstimate is the quoted cost of a purchase. It is derived state: it must be
// recomputed whenever quantity or route changes and treated as stale after any
// on-chain state change.
type CostEstimate struct {
	TicketCostWei *big.Int `json:"ticket_cost_wei"`
	// BridgeFeeWei is zero for a same-network purchase.
	BridgeFeeWei *big.Int `json:"bridge_fee_wei"`
	TotalWei     *big.Int `json:"total_wei"`
}

// AggregatedBalance is a user's holdings summed across every registered network.
// An unreachable network contributes exactly zero rather than failing the aggregate.
type AggregatedBalance struct {
	TicketCount      uint64   `json:"ticket_count"`
	PendingRefundWei *big.Int `json:"pending_refund_wei"`
}
