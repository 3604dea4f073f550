package chain

import (
	"context"
	"errors"
	"math/big"
	"os"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bansal-ishaan/TickkItOnn/internal/domain"
	"github.com/bansal-ishaan/TickkItOnn/internal/logger"
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

// fakeEthClient serves canned responses and records the calls it saw
type fakeEthClient struct {
	callResult []byte
	callErr    error
	lastCall   ethereum.CallMsg

	nonce       uint64
	gasPrice    *big.Int
	gasLimit    uint64
	estimateErr error
	sendErr     error
	sentTx      *types.Transaction

	receipt    *types.Receipt
	receiptErr error
}

func (f *fakeEthClient) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	f.lastCall = msg
	return f.callResult, f.callErr
}

func (f *fakeEthClient) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return f.nonce, nil
}

func (f *fakeEthClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	if f.gasPrice == nil {
		return big.NewInt(1_000_000_000), nil
	}
	return f.gasPrice, nil
}

func (f *fakeEthClient) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	if f.estimateErr != nil {
		return 0, f.estimateErr
	}
	if f.gasLimit == 0 {
		return 100_000, nil
	}
	return f.gasLimit, nil
}

func (f *fakeEthClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	f.sentTx = tx
	return f.sendErr
}

func (f *fakeEthClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return f.receipt, f.receiptErr
}

func (f *fakeEthClient) Close() {}

func testNetwork() domain.NetworkDescriptor {
	return domain.NetworkDescriptor{
		ID:              11155111,
		Name:            "Ethereum Sepolia",
		ChainSelector:   16015286601757825753,
		RPCURL:          "https://rpc.sepolia.example",
		NativeSymbol:    "ETH",
		ContractAddress: "0x1111111111111111111111111111111111111111",
	}
}

func packOutputs(t *testing.T, method string, values ...interface{}) []byte {
	out, err := marketplaceABI().Methods[method].Outputs.Pack(values...)
	require.NoError(t, err)
	return out
}

func TestReader_GetActiveEvents(t *testing.T) {
	organizer := common.HexToAddress("0xAAAAaaaaAAAAaaaaAAAAaaaaAAAAaaaaAAAAaaaa")
	raw := []rawEvent{
		{
			EventId:      big.NewInt(1),
			Organizer:    organizer,
			Name:         "Test Concert",
			Description:  "A show",
			Venue:        "Test Hall",
			EventDate:    big.NewInt(1790000000),
			TotalTickets: big.NewInt(100),
			BasePrice:    big.NewInt(10_000_000_000_000_000),
			TicketsSold:  big.NewInt(10),
		},
		{
			EventId:      big.NewInt(2),
			Organizer:    organizer,
			Name:         "Second Show",
			Description:  "",
			Venue:        "",
			EventDate:    big.NewInt(1791000000),
			TotalTickets: big.NewInt(50),
			BasePrice:    big.NewInt(20_000_000_000_000_000),
			TicketsSold:  big.NewInt(0),
		},
	}
	client := &fakeEthClient{callResult: packOutputs(t, "getActiveEvents", raw)}
	reader := NewReader(testNetwork(), client)

	events, err := reader.GetActiveEvents(context.Background(), 0, 20)

	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, uint64(1), events[0].EventID)
	assert.Equal(t, "Test Concert", events[0].Name)
	assert.Equal(t, organizer, events[0].Organizer)
	assert.Equal(t, int64(1790000000), events[0].EventDateUnix)
	assert.Equal(t, uint64(100), events[0].TotalTickets)
	assert.Equal(t, big.NewInt(10_000_000_000_000_000), events[0].BasePriceWei)
	assert.Equal(t, uint64(10), events[0].TicketsSold)
	// Every record is tagged with the reader's host network
	assert.Equal(t, domain.NetworkID(11155111), events[0].HostNetworkID)
	assert.Equal(t, testNetwork().Contract(), events[0].HostContract)
	assert.Equal(t, domain.NetworkID(11155111), events[1].HostNetworkID)

	// The call targets the configured contract
	require.NotNil(t, client.lastCall.To)
	assert.Equal(t, testNetwork().Contract(), *client.lastCall.To)
}

func TestReader_GetActiveEvents_Unreachable(t *testing.T) {
	client := &fakeEthClient{callErr: errors.New("connection refused")}
	reader := NewReader(testNetwork(), client)

	_, err := reader.GetActiveEvents(context.Background(), 0, 20)

	assert.ErrorIs(t, err, domain.ErrNetworkUnreachable)
}

func TestReader_BalanceOf(t *testing.T) {
	client := &fakeEthClient{callResult: packOutputs(t, "balanceOf", big.NewInt(5))}
	reader := NewReader(testNetwork(), client)

	balance, err := reader.BalanceOf(context.Background(), common.HexToAddress("0x01"))

	require.NoError(t, err)
	assert.Equal(t, uint64(5), balance)
}

func TestReader_PendingRefunds(t *testing.T) {
	client := &fakeEthClient{callResult: packOutputs(t, "pendingRefunds", big.NewInt(123_456))}
	reader := NewReader(testNetwork(), client)

	refunds, err := reader.PendingRefunds(context.Background(), common.HexToAddress("0x01"))

	require.NoError(t, err)
	assert.Equal(t, big.NewInt(123_456), refunds)
}

func TestReader_CalculateTicketCost(t *testing.T) {
	cost := big.NewInt(30_030_000_000_000_000)
	client := &fakeEthClient{callResult: packOutputs(t, "calculateCrossChainTicketCost", cost)}
	reader := NewReader(testNetwork(), client)

	got, err := reader.CalculateTicketCost(context.Background(), 7, 3)

	require.NoError(t, err)
	assert.Equal(t, cost, got)
}

func TestReader_EstimateCrossChainFee(t *testing.T) {
	client := &fakeEthClient{callResult: packOutputs(t, "estimateCrossChainFee",
		big.NewInt(1_000_000_000_000_000),  // bridge fee
		big.NewInt(30_030_000_000_000_000), // ticket cost
		big.NewInt(31_030_000_000_000_000), // total
	)}
	reader := NewReader(testNetwork(), client)

	quote, err := reader.EstimateCrossChainFee(context.Background(),
		16281711391670634445, common.HexToAddress("0x02"), 7, 3)

	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1_000_000_000_000_000), quote.BridgeFeeWei)
	assert.Equal(t, big.NewInt(30_030_000_000_000_000), quote.TicketCostWei)
	assert.Equal(t, big.NewInt(31_030_000_000_000_000), quote.TotalWei)
}
