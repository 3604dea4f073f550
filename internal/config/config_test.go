package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bansal-ishaan/TickkItOnn/internal/config"
	"github.com/bansal-ishaan/TickkItOnn/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const validYAML = `
debug: true
networks:
  - id: 11155111
    name: Ethereum Sepolia
    chain_selector: 16015286601757825753
    rpc_url: https://rpc.sepolia.example
    native_symbol: ETH
    contract_address: "0x1111111111111111111111111111111111111111"
    min_stake_ether: "0.1"
  - id: 80002
    name: Polygon Amoy
    chain_selector: 16281711391670634445
    rpc_url: https://rpc.amoy.example
    native_symbol: MATIC
    min_stake_ether: "0.063"
ledger:
  path: /tmp/test-ledger.db
aggregation:
  network_timeout: 5s
  max_events_per_network: 15
wallet:
  network_id: 11155111
`

func TestLoad(t *testing.T) {
	path := writeConfig(t, validYAML)

	cfg, err := config.Load(path, t.TempDir())

	require.NoError(t, err)
	assert.True(t, cfg.Debug)
	require.Len(t, cfg.Networks, 2)
	assert.Equal(t, uint64(11155111), cfg.Networks[0].ID)
	assert.Equal(t, uint64(16015286601757825753), cfg.Networks[0].ChainSelector)
	assert.Equal(t, "/tmp/test-ledger.db", cfg.Ledger.Path)
	assert.Equal(t, 5*time.Second, cfg.Aggregation.NetworkTimeout)
	assert.Equal(t, uint64(15), cfg.Aggregation.MaxEventsPerNetwork)
	assert.Equal(t, uint64(11155111), cfg.Wallet.NetworkID)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
networks:
  - id: 1
    name: Mainnet
    rpc_url: https://rpc.example
`)

	cfg, err := config.Load(path, t.TempDir())

	require.NoError(t, err)
	assert.False(t, cfg.Debug)
	assert.Equal(t, "tickkitonn.db", cfg.Ledger.Path)
	assert.Equal(t, 10*time.Second, cfg.Aggregation.NetworkTimeout)
	assert.Equal(t, uint64(20), cfg.Aggregation.MaxEventsPerNetwork)
}

func TestLoad_RequiresNetworks(t *testing.T) {
	path := writeConfig(t, `debug: false`)

	_, err := config.Load(path, t.TempDir())

	assert.Error(t, err)
}

func TestLoad_RejectsNetworkWithoutRPC(t *testing.T) {
	path := writeConfig(t, `
networks:
  - id: 1
    name: Broken
`)

	_, err := config.Load(path, t.TempDir())

	assert.Error(t, err)
}

func TestLoad_RejectsDuplicateNetworkIDs(t *testing.T) {
	path := writeConfig(t, `
networks:
  - id: 1
    name: First
    rpc_url: https://a.example
  - id: 1
    name: Second
    rpc_url: https://b.example
`)

	_, err := config.Load(path, t.TempDir())

	assert.Error(t, err)
}

func TestDescriptors(t *testing.T) {
	path := writeConfig(t, validYAML)
	cfg, err := config.Load(path, t.TempDir())
	require.NoError(t, err)

	descriptors, err := cfg.Descriptors()

	require.NoError(t, err)
	require.Len(t, descriptors, 2)

	sepolia := descriptors[0]
	assert.Equal(t, domain.NetworkID(11155111), sepolia.ID)
	assert.True(t, sepolia.Configured())
	require.NotNil(t, sepolia.MinStakeWei)
	assert.Equal(t, "0.1", domain.FormatEther(sepolia.MinStakeWei))

	amoy := descriptors[1]
	assert.False(t, amoy.Configured())
	assert.Equal(t, "0.063", domain.FormatEther(amoy.MinStakeWei))
}

func TestDescriptors_RejectsBadStake(t *testing.T) {
	path := writeConfig(t, `
networks:
  - id: 1
    name: Broken
    rpc_url: https://rpc.example
    min_stake_ether: "lots"
`)
	cfg, err := config.Load(path, t.TempDir())
	require.NoError(t, err)

	_, err = cfg.Descriptors()

	assert.Error(t, err)
}
