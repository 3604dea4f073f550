package aggregator_test

import (
	"context"
	"math/big"
	"os"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"

	"github.com/bansal-ishaan/TickkItOnn/internal/aggregator"
	"github.com/bansal-ishaan/TickkItOnn/internal/chain"
	"github.com/bansal-ishaan/TickkItOnn/internal/domain"
	"github.com/bansal-ishaan/TickkItOnn/internal/logger"
	"github.com/bansal-ishaan/TickkItOnn/internal/registry"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

type fakeReader struct {
	network domain.NetworkDescriptor

	events    []domain.EventRecord
	eventsErr error
	// hang blocks every read until the per-network context expires
	hang bool

	tickets    uint64
	ticketsErr error

	refunds    *big.Int
	refundsErr error
}

func (f *fakeReader) Network() domain.NetworkDescriptor { return f.network }

func (f *fakeReader) GetActiveEvents(ctx context.Context, offset, limit uint64) ([]domain.EventRecord, error) {
	if f.hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.events, f.eventsErr
}

func (f *fakeReader) BalanceOf(ctx context.Context, account common.Address) (uint64, error) {
	return f.tickets, f.ticketsErr
}

func (f *fakeReader) PendingRefunds(ctx context.Context, account common.Address) (*big.Int, error) {
	return f.refunds, f.refundsErr
}

func (f *fakeReader) CalculateTicketCost(ctx context.Context, eventID, quantity uint64) (*big.Int, error) {
	return new(big.Int), nil
}

func (f *fakeReader) EstimateCrossChainFee(ctx context.Context, destSelector uint64, destContract common.Address, eventID, quantity uint64) (domain.CostEstimate, error) {
	return domain.CostEstimate{}, nil
}

type fakeFactory struct {
	readers map[domain.NetworkID]*fakeReader
	errs    map[domain.NetworkID]error
}

func (f *fakeFactory) ReaderFor(ctx context.Context, id domain.NetworkID) (chain.Reader, error) {
	if err, ok := f.errs[id]; ok {
		return nil, err
	}
	return f.readers[id], nil
}

func (f *fakeFactory) WriterFor(ctx context.Context, session *chain.Session) (chain.Writer, error) {
	return nil, domain.ErrNoWallet
}

func (f *fakeFactory) Close() {}

var testAccount = common.HexToAddress("0xAAAAaaaaAAAAaaaaAAAAaaaaAAAAaaaaAAAAaaaa")

func testNetworks() []domain.NetworkDescriptor {
	return []domain.NetworkDescriptor{
		{ID: 1, Name: "Net A", RPCURL: "https://a.example", ContractAddress: "0x0000000000000000000000000000000000000001"},
		{ID: 2, Name: "Net B", RPCURL: "https://b.example", ContractAddress: "0x0000000000000000000000000000000000000002"},
		{ID: 3, Name: "Net C", RPCURL: "https://c.example", ContractAddress: "0x0000000000000000000000000000000000000003"},
	}
}

func event(id uint64, name string, date int64, host domain.NetworkID) domain.EventRecord {
	return domain.EventRecord{
		EventID:       id,
		Name:          name,
		EventDateUnix: date,
		TotalTickets:  10,
		BasePriceWei:  big.NewInt(1_000_000),
		HostNetworkID: host,
	}
}

func newEngine(networks []domain.NetworkDescriptor, factory *fakeFactory) aggregator.Engine {
	return aggregator.NewEngine(registry.NewNetworkRegistry(networks), factory, aggregator.Config{})
}

func TestFetchEvents_MergesAcrossNetworks(t *testing.T) {
	networks := testNetworks()
	factory := &fakeFactory{
		readers: map[domain.NetworkID]*fakeReader{
			1: {network: networks[0], events: []domain.EventRecord{event(1, "First", 100, 1), event(2, "Second", 300, 1)}},
			2: {network: networks[1], events: []domain.EventRecord{event(1, "Third", 200, 2)}},
			3: {network: networks[2], events: nil},
		},
	}

	events := newEngine(networks, factory).FetchEvents(context.Background(), 20)

	assert.Len(t, events, 3)
	// Sorted by event date, newest first
	assert.Equal(t, "Second", events[0].Name)
	assert.Equal(t, "Third", events[1].Name)
	assert.Equal(t, "First", events[2].Name)
}

func TestFetchEvents_FailingNetworkContributesNothing(t *testing.T) {
	networks := testNetworks()
	factory := &fakeFactory{
		readers: map[domain.NetworkID]*fakeReader{
			1: {network: networks[0], events: []domain.EventRecord{event(1, "Kept A", 400, 1), event(2, "Kept B", 100, 1)}},
			2: {network: networks[1], eventsErr: domain.ErrNetworkUnreachable},
			3: {network: networks[2], events: []domain.EventRecord{event(1, "Kept C", 300, 3), event(2, "Kept D", 200, 3)}},
		},
	}

	events := newEngine(networks, factory).FetchEvents(context.Background(), 20)

	assert.Len(t, events, 4)
	for _, ev := range events {
		assert.NotEqual(t, domain.NetworkID(2), ev.HostNetworkID)
	}
}

func TestFetchEvents_HungNetworkTimesOut(t *testing.T) {
	networks := testNetworks()
	factory := &fakeFactory{
		readers: map[domain.NetworkID]*fakeReader{
			1: {network: networks[0], events: []domain.EventRecord{event(1, "Kept A", 400, 1), event(2, "Kept B", 100, 1)}},
			2: {network: networks[1], hang: true},
			3: {network: networks[2], events: []domain.EventRecord{event(1, "Kept C", 300, 3), event(2, "Kept D", 200, 3)}},
		},
	}
	engine := aggregator.NewEngine(registry.NewNetworkRegistry(networks), factory, aggregator.Config{
		NetworkTimeout: 200 * time.Millisecond,
	})

	start := time.Now()
	events := engine.FetchEvents(context.Background(), 20)

	// The hung endpoint is cut off at the per-network timeout instead of
	// stalling the whole aggregation
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Len(t, events, 4)
	assert.Equal(t, "Kept A", events[0].Name)
	assert.Equal(t, "Kept C", events[1].Name)
	assert.Equal(t, "Kept D", events[2].Name)
	assert.Equal(t, "Kept B", events[3].Name)
	for _, ev := range events {
		assert.NotEqual(t, domain.NetworkID(2), ev.HostNetworkID)
	}
}

func TestFetchEvents_DialFailureContributesNothing(t *testing.T) {
	networks := testNetworks()
	factory := &fakeFactory{
		readers: map[domain.NetworkID]*fakeReader{
			1: {network: networks[0], events: []domain.EventRecord{event(1, "Kept", 100, 1)}},
			3: {network: networks[2]},
		},
		errs: map[domain.NetworkID]error{2: domain.ErrNetworkUnreachable},
	}

	events := newEngine(networks, factory).FetchEvents(context.Background(), 20)

	assert.Len(t, events, 1)
	assert.Equal(t, "Kept", events[0].Name)
}

func TestFetchEvents_SkipsUnconfiguredNetwork(t *testing.T) {
	networks := testNetworks()
	networks[1].ContractAddress = ""
	factory := &fakeFactory{
		readers: map[domain.NetworkID]*fakeReader{
			1: {network: networks[0], events: []domain.EventRecord{event(1, "Kept", 100, 1)}},
			3: {network: networks[2]},
		},
	}

	events := newEngine(networks, factory).FetchEvents(context.Background(), 20)

	assert.Len(t, events, 1)
}

func TestFetchEvents_DropsMalformedRecords(t *testing.T) {
	networks := testNetworks()
	nameless := event(2, "", 200, 1)
	priceless := event(3, "No Price", 300, 1)
	priceless.BasePriceWei = nil
	factory := &fakeFactory{
		readers: map[domain.NetworkID]*fakeReader{
			1: {network: networks[0], events: []domain.EventRecord{event(1, "Valid", 100, 1), nameless, priceless}},
			2: {network: networks[1]},
			3: {network: networks[2]},
		},
	}

	events := newEngine(networks, factory).FetchEvents(context.Background(), 20)

	assert.Len(t, events, 1)
	assert.Equal(t, "Valid", events[0].Name)
}

func TestFetchBalances_SumsAcrossNetworks(t *testing.T) {
	networks := testNetworks()
	factory := &fakeFactory{
		readers: map[domain.NetworkID]*fakeReader{
			1: {network: networks[0], tickets: 2, refunds: big.NewInt(100)},
			2: {network: networks[1], tickets: 3, refunds: big.NewInt(250)},
			3: {network: networks[2], tickets: 0, refunds: new(big.Int)},
		},
	}

	balance := newEngine(networks, factory).FetchBalances(context.Background(), testAccount)

	assert.Equal(t, uint64(5), balance.TicketCount)
	assert.Equal(t, int64(350), balance.PendingRefundWei.Int64())
}

func TestFetchBalances_FailingNetworkContributesZero(t *testing.T) {
	networks := testNetworks()
	factory := &fakeFactory{
		readers: map[domain.NetworkID]*fakeReader{
			1: {network: networks[0], tickets: 2, refunds: big.NewInt(100)},
			2: {network: networks[1], ticketsErr: domain.ErrNetworkUnreachable},
			3: {network: networks[2], tickets: 1, refunds: big.NewInt(50)},
		},
	}

	balance := newEngine(networks, factory).FetchBalances(context.Background(), testAccount)

	assert.Equal(t, uint64(3), balance.TicketCount)
	assert.Equal(t, int64(150), balance.PendingRefundWei.Int64())
}

func TestFetchBalances_RefundFailureKeepsTicketCount(t *testing.T) {
	networks := testNetworks()
	factory := &fakeFactory{
		readers: map[domain.NetworkID]*fakeReader{
			1: {network: networks[0], tickets: 4, refundsErr: domain.ErrNetworkUnreachable},
			2: {network: networks[1], tickets: 1, refunds: big.NewInt(75)},
			3: {network: networks[2], tickets: 0, refunds: new(big.Int)},
		},
	}

	balance := newEngine(networks, factory).FetchBalances(context.Background(), testAccount)

	assert.Equal(t, uint64(5), balance.TicketCount)
	assert.Equal(t, int64(75), balance.PendingRefundWei.Int64())
}
