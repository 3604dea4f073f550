package aggregator

import (
	"context"
	"math/big"
	"sort"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/bansal-ishaan/TickkItOnn/internal/chain"
	"github.com/bansal-ishaan/TickkItOnn/internal/domain"
	"github.com/bansal-ishaan/TickkItOnn/internal/logger"
	"github.com/bansal-ishaan/TickkItOnn/internal/registry"
)

// Engine fans read queries out to every registered network and merges the
// successful results. A single network's failure is logged and contributes an
// empty result; it never aborts the overall call.
type Engine interface {
	// FetchEvents returns up to maxPerNetwork active events from each network,
	// tagged with their host network and sorted by event date descending.
	FetchEvents(ctx context.Context, maxPerNetwork uint64) []domain.EventRecord

	// FetchBalances sums the account's ticket count and pending refunds across
	// every network, substituting zero for any failing network.
	FetchBalances(ctx context.Context, account common.Address) domain.AggregatedBalance
}

// Config holds aggregation fan-out configuration
type Config struct {
	// NetworkTimeout bounds each per-network read so one unresponsive endpoint
	// cannot stall the aggregate beyond a bounded window.
	NetworkTimeout time.Duration
}

type engine struct {
	registry registry.NetworkRegistry
	adapters chain.AdapterFactory
	config   Config
}

// NewEngine creates an aggregation engine over the network catalog
func NewEngine(reg registry.NetworkRegistry, adapters chain.AdapterFactory, config Config) Engine {
	if config.NetworkTimeout <= 0 {
		config.NetworkTimeout = 10 * time.Second
	}
	return &engine{registry: reg, adapters: adapters, config: config}
}

func (e *engine) FetchEvents(ctx context.Context, maxPerNetwork uint64) []domain.EventRecord {
	networks := e.registry.ListNetworks()

	// One slot per network; tasks never share slots, so no locking is needed.
	// Merging happens only after every task has completed or failed.
	results := make([][]domain.EventRecord, len(networks))

	pool := pond.NewPool(len(networks), pond.WithContext(ctx))
	group := pool.NewGroup()
	for i, network := range networks {
		group.Submit(func() {
			results[i] = e.fetchNetworkEvents(ctx, network, maxPerNetwork)
		})
	}
	_ = group.Wait()
	pool.StopAndWait()

	var merged []domain.EventRecord
	for _, events := range results {
		merged = append(merged, events...)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].EventDateUnix > merged[j].EventDateUnix
	})

	return merged
}

func (e *engine) fetchNetworkEvents(ctx context.Context, network domain.NetworkDescriptor, maxPerNetwork uint64) []domain.EventRecord {
	if !network.Configured() {
		logger.Debug("Skipping network without marketplace contract",
			zap.String("network", network.Name))
		return nil
	}

	tctx, cancel := context.WithTimeout(ctx, e.config.NetworkTimeout)
	defer cancel()

	reader, err := e.adapters.ReaderFor(tctx, network.ID)
	if err != nil {
		logger.WarnCtx(ctx, "Network unavailable during event fetch",
			zap.String("network", network.Name), zap.Error(err))
		return nil
	}

	events, err := reader.GetActiveEvents(tctx, 0, maxPerNetwork)
	if err != nil {
		logger.WarnCtx(ctx, "Failed to fetch events from network",
			zap.String("network", network.Name), zap.Error(err))
		return nil
	}

	// Drop malformed records rather than merging them
	kept := events[:0]
	for _, ev := range events {
		if ev.Name == "" || ev.BasePriceWei == nil || ev.BasePriceWei.Sign() <= 0 {
			logger.Debug("Dropping malformed event record",
				zap.String("network", network.Name), zap.Uint64("event_id", ev.EventID))
			continue
		}
		kept = append(kept, ev)
	}

	return kept
}

func (e *engine) FetchBalances(ctx context.Context, account common.Address) domain.AggregatedBalance {
	networks := e.registry.ListNetworks()
	results := make([]domain.AggregatedBalance, len(networks))

	pool := pond.NewPool(len(networks), pond.WithContext(ctx))
	group := pool.NewGroup()
	for i, network := range networks {
		group.Submit(func() {
			results[i] = e.fetchNetworkBalance(ctx, network, account)
		})
	}
	_ = group.Wait()
	pool.StopAndWait()

	total := domain.AggregatedBalance{PendingRefundWei: new(big.Int)}
	for _, b := range results {
		total.TicketCount += b.TicketCount
		if b.PendingRefundWei != nil {
			total.PendingRefundWei.Add(total.PendingRefundWei, b.PendingRefundWei)
		}
	}

	return total
}

func (e *engine) fetchNetworkBalance(ctx context.Context, network domain.NetworkDescriptor, account common.Address) domain.AggregatedBalance {
	zero := domain.AggregatedBalance{PendingRefundWei: new(big.Int)}
	if !network.Configured() {
		return zero
	}

	tctx, cancel := context.WithTimeout(ctx, e.config.NetworkTimeout)
	defer cancel()

	reader, err := e.adapters.ReaderFor(tctx, network.ID)
	if err != nil {
		logger.WarnCtx(ctx, "Network unavailable during balance fetch",
			zap.String("network", network.Name), zap.Error(err))
		return zero
	}

	tickets, err := reader.BalanceOf(tctx, account)
	if err != nil {
		logger.WarnCtx(ctx, "Failed to fetch ticket balance",
			zap.String("network", network.Name), zap.Error(err))
		return zero
	}

	refunds, err := reader.PendingRefunds(tctx, account)
	if err != nil {
		logger.WarnCtx(ctx, "Failed to fetch pending refunds",
			zap.String("network", network.Name), zap.Error(err))
		// Keep the ticket count; only the refund contribution falls back to zero
		refunds = new(big.Int)
	}

	return domain.AggregatedBalance{TicketCount: tickets, PendingRefundWei: refunds}
}
