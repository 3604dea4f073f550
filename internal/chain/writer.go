package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/bansal-ishaan/TickkItOnn/internal/adapter"
	"github.com/bansal-ishaan/TickkItOnn/internal/domain"
	"github.com/bansal-ishaan/TickkItOnn/internal/logger"
)

// CreateEventParams are the organizer-supplied fields for a new event
type CreateEventParams struct {
	Name          string
	Description   string
	Venue         string
	EventDateUnix int64
	TotalTickets  uint64
	BasePriceWei  *big.Int
	MetadataURI   string
	StakeWei      *big.Int
}

// Writer exposes the signed marketplace operations of the network the wallet is
// connected to. A Writer is bound to one session and one network at construction.
type Writer interface {
	// Network returns the descriptor this writer is bound to
	Network() domain.NetworkDescriptor

	// CreateEvent registers a new event, attaching the organizer stake as value
	CreateEvent(ctx context.Context, params CreateEventParams) (common.Hash, error)

	// BuyTickets purchases tickets for an event hosted on this network.
	// valueWei must exactly equal the contract's quoted total.
	BuyTickets(ctx context.Context, eventID, quantity uint64, valueWei *big.Int) (common.Hash, error)

	// BuyTicketsCrossChain purchases tickets for an event hosted on another
	// network, relaying payment through the cross-chain router. valueWei covers
	// ticket cost plus bridge fee, exactly as quoted.
	BuyTicketsCrossChain(ctx context.Context, destSelector uint64, destContract common.Address, eventID, quantity uint64, valueWei *big.Int) (common.Hash, error)

	// WithdrawRefund withdraws the caller's pending refund balance on this network
	WithdrawRefund(ctx context.Context) (common.Hash, error)

	// WaitMined blocks until the transaction is included, returning
	// ErrTransactionReverted when it is included but failed on-chain.
	WaitMined(ctx context.Context, txHash common.Hash) error
}

type writer struct {
	network  domain.NetworkDescriptor
	client   adapter.EthClient
	session  *Session
	contract common.Address
	chainID  *big.Int
}

// NewWriter creates a writer bound to the session's signing identity and one
// network's contract. The session must be connected.
func NewWriter(network domain.NetworkDescriptor, client adapter.EthClient, session *Session) (Writer, error) {
	if !session.Connected() {
		return nil, domain.ErrNoWallet
	}
	return &writer{
		network:  network,
		client:   client,
		session:  session,
		contract: network.Contract(),
		chainID:  new(big.Int).SetUint64(uint64(network.ID)),
	}, nil
}

func (w *writer) Network() domain.NetworkDescriptor {
	return w.network
}

// submit packs, signs and sends one contract call with the given attached value
func (w *writer) submit(ctx context.Context, valueWei *big.Int, method string, args ...interface{}) (common.Hash, error) {
	from, err := w.session.Account()
	if err != nil {
		return common.Hash{}, err
	}
	key, err := w.session.Key()
	if err != nil {
		return common.Hash{}, err
	}

	data, err := marketplaceABI().Pack(method, args...)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack %s: %w", method, err)
	}
	if valueWei == nil {
		valueWei = new(big.Int)
	}

	nonce, err := w.client.PendingNonceAt(ctx, from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: failed to fetch nonce: %v", domain.ErrTransactionRejected, err)
	}
	gasPrice, err := w.client.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: failed to fetch gas price: %v", domain.ErrTransactionRejected, err)
	}
	gasLimit, err := w.client.EstimateGas(ctx, ethereum.CallMsg{
		From:  from,
		To:    &w.contract,
		Value: valueWei,
		Data:  data,
	})
	if err != nil {
		// Estimation failure means the call would revert with the current
		// arguments and value; surface it before anything is signed.
		return common.Hash{}, fmt.Errorf("%w: %s would revert: %v", domain.ErrTransactionRejected, method, err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &w.contract,
		Value:    valueWei,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(w.chainID), key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: signing failed: %v", domain.ErrTransactionRejected, err)
	}

	if err := w.client.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("%w: %v", domain.ErrTransactionRejected, err)
	}

	logger.InfoCtx(ctx, "Transaction submitted",
		zap.String("method", method),
		zap.String("network", w.network.Name),
		zap.String("tx_hash", signed.Hash().Hex()),
		zap.String("value_wei", valueWei.String()),
	)

	return signed.Hash(), nil
}

func (w *writer) CreateEvent(ctx context.Context, params CreateEventParams) (common.Hash, error) {
	return w.submit(ctx, params.StakeWei, "createEvent",
		params.Name,
		params.Description,
		params.Venue,
		new(big.Int).SetInt64(params.EventDateUnix),
		new(big.Int).SetUint64(params.TotalTickets),
		params.BasePriceWei,
		params.MetadataURI,
	)
}

func (w *writer) BuyTickets(ctx context.Context, eventID, quantity uint64, valueWei *big.Int) (common.Hash, error) {
	return w.submit(ctx, valueWei, "buyTickets",
		new(big.Int).SetUint64(eventID), new(big.Int).SetUint64(quantity))
}

func (w *writer) BuyTicketsCrossChain(ctx context.Context, destSelector uint64, destContract common.Address, eventID, quantity uint64, valueWei *big.Int) (common.Hash, error) {
	return w.submit(ctx, valueWei, "buyTicketsCrossChain",
		destSelector, destContract,
		new(big.Int).SetUint64(eventID), new(big.Int).SetUint64(quantity))
}

func (w *writer) WithdrawRefund(ctx context.Context) (common.Hash, error) {
	return w.submit(ctx, nil, "withdrawRefund")
}

// WaitMined polls for the transaction receipt with exponential backoff until
// the context is cancelled. Once submitted a transaction cannot be cancelled;
// giving up here only stops the wait, the transaction may still settle later.
func (w *writer) WaitMined(ctx context.Context, txHash common.Hash) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 2 * time.Second
	b.MaxInterval = 15 * time.Second
	b.MaxElapsedTime = 0 // bounded by ctx

	var receipt *types.Receipt
	operation := func() error {
		var err error
		receipt, err = w.client.TransactionReceipt(ctx, txHash)
		if err != nil {
			if errors.Is(err, ethereum.NotFound) {
				return fmt.Errorf("transaction %s not yet mined", txHash.Hex())
			}
			return err
		}
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return fmt.Errorf("confirmation wait aborted for %s: %w", txHash.Hex(), err)
	}

	if receipt.Status == types.ReceiptStatusFailed {
		return fmt.Errorf("%w: tx %s", domain.ErrTransactionReverted, txHash.Hex())
	}

	logger.InfoCtx(ctx, "Transaction confirmed",
		zap.String("tx_hash", txHash.Hex()),
		zap.Uint64("block", receipt.BlockNumber.Uint64()),
	)
	return nil
}
