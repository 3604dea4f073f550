package domain

import "errors"

var (
	// ErrUnknownNetwork is returned when a network id is not in the registry
	ErrUnknownNetwork = errors.New("unknown network")

	// ErrUnconfiguredNetwork is returned when no marketplace contract is deployed
	// on a network for a write or estimate operation
	ErrUnconfiguredNetwork = errors.New("no marketplace contract configured on network")

	// ErrNetworkUnreachable is returned when a network endpoint cannot be reached.
	// During aggregation it is recovered per network and never surfaces to the caller.
	ErrNetworkUnreachable = errors.New("network unreachable")

	// ErrQuoteUnavailable is returned when a cross-network fee quote fails.
	// It is fatal to the purchase attempt; the cost never defaults to zero.
	ErrQuoteUnavailable = errors.New("cross-network fee quote unavailable")

	// ErrNoWallet is returned when no signing identity is available
	ErrNoWallet = errors.New("no wallet connected")

	// ErrTransactionRejected is returned when submission fails or is rejected by the signer
	ErrTransactionRejected = errors.New("transaction rejected")

	// ErrTransactionReverted is returned when a transaction is included but fails on-chain
	ErrTransactionReverted = errors.New("transaction reverted")

	// ErrSelfPurchase is returned when a buyer attempts to settle their own resale listing
	ErrSelfPurchase = errors.New("cannot purchase own listing")

	// ErrListingUnavailable is returned when a resale listing is not active
	ErrListingUnavailable = errors.New("listing unavailable")

	// ErrInsufficientInventory is returned when the requested quantity exceeds
	// the tickets available at submission time
	ErrInsufficientInventory = errors.New("insufficient tickets available")
)
