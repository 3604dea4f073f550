package chain

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Marketplace contract surface. Method names follow the deployed contract; the
// CCIP chain selector is a uint64 per the router interface.
const marketplaceABIJSON = `[
	{"type":"function","stateMutability":"view","name":"getActiveEvents","inputs":[{"name":"offset","type":"uint256"},{"name":"limit","type":"uint256"}],"outputs":[{"name":"","type":"tuple[]","components":[{"name":"eventId","type":"uint256"},{"name":"organizer","type":"address"},{"name":"name","type":"string"},{"name":"description","type":"string"},{"name":"venue","type":"string"},{"name":"eventDate","type":"uint256"},{"name":"totalTickets","type":"uint256"},{"name":"basePrice","type":"uint256"},{"name":"ticketsSold","type":"uint256"}]}]},
	{"type":"function","stateMutability":"view","name":"balanceOf","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","stateMutability":"view","name":"pendingRefunds","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","stateMutability":"view","name":"calculateCrossChainTicketCost","inputs":[{"name":"eventId","type":"uint256"},{"name":"quantity","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","stateMutability":"view","name":"estimateCrossChainFee","inputs":[{"name":"destinationChainSelector","type":"uint64"},{"name":"destinationContract","type":"address"},{"name":"eventId","type":"uint256"},{"name":"quantity","type":"uint256"}],"outputs":[{"name":"bridgeFee","type":"uint256"},{"name":"ticketCost","type":"uint256"},{"name":"totalCost","type":"uint256"}]},
	{"type":"function","stateMutability":"payable","name":"createEvent","inputs":[{"name":"name","type":"string"},{"name":"description","type":"string"},{"name":"venue","type":"string"},{"name":"eventDate","type":"uint256"},{"name":"totalTickets","type":"uint256"},{"name":"basePrice","type":"uint256"},{"name":"metadataURI","type":"string"}],"outputs":[]},
	{"type":"function","stateMutability":"payable","name":"buyTickets","inputs":[{"name":"eventId","type":"uint256"},{"name":"quantity","type":"uint256"}],"outputs":[]},
	{"type":"function","stateMutability":"payable","name":"buyTicketsCrossChain","inputs":[{"name":"destinationChainSelector","type":"uint64"},{"name":"destinationContract","type":"address"},{"name":"eventId","type":"uint256"},{"name":"quantity","type":"uint256"}],"outputs":[]},
	{"type":"function","stateMutability":"nonpayable","name":"withdrawRefund","inputs":[],"outputs":[]}
]`

var (
	marketplaceABIOnce sync.Once
	marketplaceABIVal  abi.ABI
	marketplaceABIErr  error
)

// marketplaceABI returns the parsed marketplace ABI. The JSON is a compile-time
// constant, so a parse failure is a programming error.
func marketplaceABI() abi.ABI {
	marketplaceABIOnce.Do(func() {
		marketplaceABIVal, marketplaceABIErr = abi.JSON(strings.NewReader(marketplaceABIJSON))
	})
	if marketplaceABIErr != nil {
		panic(marketplaceABIErr)
	}
	return marketplaceABIVal
}
