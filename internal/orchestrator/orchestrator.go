package orchestrator

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/bansal-ishaan/TickkItOnn/internal/adapter"
	"github.com/bansal-ishaan/TickkItOnn/internal/chain"
	"github.com/bansal-ishaan/TickkItOnn/internal/domain"
	"github.com/bansal-ishaan/TickkItOnn/internal/ledger"
	"github.com/bansal-ishaan/TickkItOnn/internal/ledger/schema"
	"github.com/bansal-ishaan/TickkItOnn/internal/logger"
	"github.com/bansal-ishaan/TickkItOnn/internal/pricing"
	"github.com/bansal-ishaan/TickkItOnn/internal/registry"
)

// State is the lifecycle stage of one purchase attempt
type State string

const (
	StateIdle       State = "idle"
	StateQuoting    State = "quoting"
	StateQuoted     State = "quoted"
	StateSubmitting State = "submitting"
	StateConfirming State = "confirming"
	StateRecorded   State = "recorded"
	StateFailed     State = "failed"
)

// Stage names used in failure messages so the caller knows whether funds moved
const (
	stageQuoting    = "quoting"
	stageSubmission = "submission"
	stageConfirm    = "confirmation"
	stageRecording  = "recording"
)

// Orchestrator drives purchase attempts end to end: routing, quoting, signed
// submission, confirmation, and ledger recording.
type Orchestrator struct {
	registry registry.NetworkRegistry
	pricing  pricing.Engine
	adapters chain.AdapterFactory
	session  *chain.Session
	ledger   ledger.Store
	clock    adapter.Clock
}

// New creates a purchase orchestrator
func New(
	reg registry.NetworkRegistry,
	pricingEngine pricing.Engine,
	adapters chain.AdapterFactory,
	session *chain.Session,
	ledgerStore ledger.Store,
	clock adapter.Clock,
) *Orchestrator {
	return &Orchestrator{
		registry: reg,
		pricing:  pricingEngine,
		adapters: adapters,
		session:  session,
		ledger:   ledgerStore,
		clock:    clock,
	}
}

// Attempt is one purchase attempt. Attempts are not retried: after a failure
// the attempt is discarded and a fresh one must re-quote, since chain state may
// have moved. An Attempt is driven by a single caller and is not safe for
// concurrent use.
type Attempt struct {
	o *Orchestrator

	event           domain.EventRecord
	quantity        uint64
	sourceNetworkID domain.NetworkID

	state   State
	quote   domain.CostEstimate
	txHash  common.Hash
	failure error
}

// Begin starts a purchase attempt for quantity tickets of event, paid from
// sourceNetworkID. The route is cross-network iff the source differs from the
// event's host network.
func (o *Orchestrator) Begin(event domain.EventRecord, quantity uint64, sourceNetworkID domain.NetworkID) (*Attempt, error) {
	if quantity == 0 {
		return nil, fmt.Errorf("quantity must be at least 1")
	}
	if _, err := o.registry.Resolve(sourceNetworkID); err != nil {
		return nil, err
	}
	return &Attempt{
		o:               o,
		event:           event,
		quantity:        quantity,
		sourceNetworkID: sourceNetworkID,
		state:           StateIdle,
	}, nil
}

// State returns the attempt's current lifecycle stage
func (a *Attempt) State() State { return a.state }

// Err returns the failure that moved the attempt to StateFailed
func (a *Attempt) Err() error { return a.failure }

// TxHash returns the submitted transaction hash, if any
func (a *Attempt) TxHash() common.Hash { return a.txHash }

// CrossNetwork reports whether the purchase settles on a remote network
func (a *Attempt) CrossNetwork() bool {
	return a.sourceNetworkID != a.event.HostNetworkID
}

func (a *Attempt) fail(stage string, err error) error {
	a.state = StateFailed
	a.failure = fmt.Errorf("%s failed: %w", stage, err)
	logger.Warn("Purchase attempt failed",
		zap.String("stage", stage),
		zap.Uint64("event_id", a.event.EventID),
		zap.Error(err),
	)
	return a.failure
}

// Quote obtains a cost estimate for the attempt's route. On success the
// attempt is Quoted and the estimate is held for submission; any failure is
// terminal for the attempt.
func (a *Attempt) Quote(ctx context.Context) (domain.CostEstimate, error) {
	if a.state != StateIdle {
		return domain.CostEstimate{}, fmt.Errorf("cannot quote from state %s", a.state)
	}
	a.state = StateQuoting

	if a.quantity > a.event.Available() {
		return domain.CostEstimate{}, a.fail(stageQuoting,
			fmt.Errorf("%w: %d requested, %d available", domain.ErrInsufficientInventory, a.quantity, a.event.Available()))
	}

	var (
		quote domain.CostEstimate
		err   error
	)
	if a.CrossNetwork() {
		quote, err = a.o.pricing.EstimateCrossNetworkCost(ctx, a.sourceNetworkID, a.event, a.quantity)
	} else {
		quote, err = a.o.pricing.EstimateSameNetworkCost(ctx, a.event, a.quantity)
	}
	if err != nil {
		return domain.CostEstimate{}, a.fail(stageQuoting, err)
	}

	a.quote = quote
	a.state = StateQuoted
	return quote, nil
}

// Confirm is the explicit user confirmation that submits the purchase. It is
// never triggered automatically. The attached value is exactly the quoted
// total; on inclusion the purchase is recorded through the local ledger.
func (a *Attempt) Confirm(ctx context.Context) error {
	if a.state != StateQuoted {
		return fmt.Errorf("cannot submit from state %s", a.state)
	}

	writer, err := a.o.adapters.WriterFor(ctx, a.o.session)
	if err != nil {
		return a.fail(stageSubmission, err)
	}
	if writer.Network().ID != a.sourceNetworkID {
		return a.fail(stageSubmission,
			fmt.Errorf("%w: wallet is on network %d, attempt pays from %d",
				domain.ErrTransactionRejected, writer.Network().ID, a.sourceNetworkID))
	}
	buyer, err := a.o.session.Account()
	if err != nil {
		return a.fail(stageSubmission, err)
	}

	a.state = StateSubmitting
	var txHash common.Hash
	if a.CrossNetwork() {
		host, err := a.o.registry.Resolve(a.event.HostNetworkID)
		if err != nil {
			return a.fail(stageSubmission, err)
		}
		txHash, err = writer.BuyTicketsCrossChain(ctx, host.ChainSelector, a.event.HostContract,
			a.event.EventID, a.quantity, a.quote.TotalWei)
		if err != nil {
			return a.fail(stageSubmission, err)
		}
	} else {
		txHash, err = writer.BuyTickets(ctx, a.event.EventID, a.quantity, a.quote.TotalWei)
		if err != nil {
			return a.fail(stageSubmission, err)
		}
	}
	a.txHash = txHash

	// The transaction is now outstanding; it cannot be cancelled, only
	// abandoned while it settles on its own.
	a.state = StateConfirming
	if err := writer.WaitMined(ctx, txHash); err != nil {
		return a.fail(stageConfirm, err)
	}

	purchase := schema.Purchase{
		EventID:           a.event.EventID,
		EventName:         a.event.Name,
		HostNetworkID:     uint64(a.event.HostNetworkID),
		Quantity:          a.quantity,
		TotalCostWei:      a.quote.TotalWei.String(),
		PurchaseTimestamp: a.o.clock.Now(),
		BuyerAddress:      buyer.Hex(),
		IsResalePurchase:  false,
	}
	if err := a.o.ledger.RecordPurchase(ctx, purchase); err != nil {
		// The purchase settled on-chain; only the descriptive record is missing
		return a.fail(stageRecording,
			fmt.Errorf("purchase confirmed in tx %s but recording failed: %w", txHash.Hex(), err))
	}

	a.state = StateRecorded
	logger.InfoCtx(ctx, "Purchase recorded",
		zap.Uint64("event_id", a.event.EventID),
		zap.Uint64("quantity", a.quantity),
		zap.String("tx_hash", txHash.Hex()),
		zap.Bool("cross_network", a.CrossNetwork()),
	)
	return nil
}

// Abandon discards the attempt. It is only possible before submission; once a
// transaction is out it may still settle and the attempt must run to a
// terminal state instead.
func (a *Attempt) Abandon() error {
	switch a.state {
	case StateSubmitting, StateConfirming:
		return fmt.Errorf("cannot abandon: transaction already submitted")
	case StateRecorded, StateFailed:
		return fmt.Errorf("attempt already finished in state %s", a.state)
	}
	a.state = StateFailed
	a.failure = fmt.Errorf("abandoned by user")
	return nil
}

// CreateEvent registers a new event on the wallet's network, staking at least
// the network's configured minimum.
func (o *Orchestrator) CreateEvent(ctx context.Context, params chain.CreateEventParams) (common.Hash, error) {
	// Event creation is only valid on networks with a deployed contract
	if _, err := o.registry.ContractAddressFor(o.session.NetworkID()); err != nil {
		return common.Hash{}, err
	}

	network, err := o.registry.Resolve(o.session.NetworkID())
	if err != nil {
		return common.Hash{}, err
	}
	if network.MinStakeWei != nil && (params.StakeWei == nil || params.StakeWei.Cmp(network.MinStakeWei) < 0) {
		return common.Hash{}, fmt.Errorf("stake below network minimum of %s %s",
			domain.FormatEther(network.MinStakeWei), network.NativeSymbol)
	}

	writer, err := o.adapters.WriterFor(ctx, o.session)
	if err != nil {
		return common.Hash{}, err
	}

	txHash, err := writer.CreateEvent(ctx, params)
	if err != nil {
		return common.Hash{}, err
	}
	if err := writer.WaitMined(ctx, txHash); err != nil {
		return txHash, err
	}
	return txHash, nil
}

// WithdrawRefund withdraws the wallet's pending refund balance on its network
func (o *Orchestrator) WithdrawRefund(ctx context.Context) (common.Hash, error) {
	writer, err := o.adapters.WriterFor(ctx, o.session)
	if err != nil {
		return common.Hash{}, err
	}

	txHash, err := writer.WithdrawRefund(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	if err := writer.WaitMined(ctx, txHash); err != nil {
		return txHash, err
	}
	return txHash, nil
}
