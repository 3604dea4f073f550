package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/bansal-ishaan/TickkItOnn/internal/domain"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// NetworkConfig describes one supported network in the catalog. The catalog is
// read once at startup; its order is the fan-out order for aggregation.
type NetworkConfig struct {
	ID              uint64 `mapstructure:"id"`
	Name            string `mapstructure:"name"`
	ChainSelector   uint64 `mapstructure:"chain_selector"`
	RPCURL          string `mapstructure:"rpc_url"`
	NativeSymbol    string `mapstructure:"native_symbol"`
	ContractAddress string `mapstructure:"contract_address"`
	MinStakeEther   string `mapstructure:"min_stake_ether"`
}

// LedgerConfig holds local ledger configuration
type LedgerConfig struct {
	Path string `mapstructure:"path"`
}

// AggregationConfig holds aggregation fan-out configuration
type AggregationConfig struct {
	// NetworkTimeout bounds each per-network read so one unresponsive endpoint
	// cannot stall the whole aggregation.
	NetworkTimeout      time.Duration `mapstructure:"network_timeout"`
	MaxEventsPerNetwork uint64        `mapstructure:"max_events_per_network"`
}

// WalletConfig holds the signing identity configuration
type WalletConfig struct {
	// PrivateKey is the hex-encoded ECDSA key of the connected account.
	// Empty means no signing identity: read operations still work, writes fail.
	PrivateKey string `mapstructure:"private_key"`
	// NetworkID is the network the wallet is connected to.
	NetworkID uint64 `mapstructure:"network_id"`
}

// Config holds the whole application configuration
type Config struct {
	BaseConfig  `mapstructure:",squash"`
	Networks    []NetworkConfig   `mapstructure:"networks"`
	Ledger      LedgerConfig      `mapstructure:"ledger"`
	Aggregation AggregationConfig `mapstructure:"aggregation"`
	Wallet      WalletConfig      `mapstructure:"wallet"`
}

// Load loads configuration from the given file (or config/config.yaml) plus
// environment variables prefixed with TICKKITONN.
func Load(configFile string, envPath string) (*Config, error) {
	v := configureViper(configFile, envPath)

	// Set defaults
	v.SetDefault("debug", false)
	v.SetDefault("ledger.path", "tickkitonn.db")
	v.SetDefault("aggregation.network_timeout", "10s")
	v.SetDefault("aggregation.max_events_per_network", 20)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Config file not found, use environment variables
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if len(cfg.Networks) == 0 {
		return nil, errors.New("at least one network must be configured")
	}
	seen := make(map[uint64]bool, len(cfg.Networks))
	for _, n := range cfg.Networks {
		if n.ID == 0 || n.RPCURL == "" {
			return nil, fmt.Errorf("network %q needs an id and an rpc_url", n.Name)
		}
		if seen[n.ID] {
			return nil, fmt.Errorf("duplicate network id %d", n.ID)
		}
		seen[n.ID] = true
	}

	return &cfg, nil
}

// Descriptors converts the configured catalog into immutable network descriptors,
// preserving catalog order.
func (c *Config) Descriptors() ([]domain.NetworkDescriptor, error) {
	descriptors := make([]domain.NetworkDescriptor, 0, len(c.Networks))
	for _, n := range c.Networks {
		d := domain.NetworkDescriptor{
			ID:              domain.NetworkID(n.ID),
			Name:            n.Name,
			ChainSelector:   n.ChainSelector,
			RPCURL:          n.RPCURL,
			NativeSymbol:    n.NativeSymbol,
			ContractAddress: n.ContractAddress,
		}
		if n.MinStakeEther != "" {
			stake, err := domain.ParseEther(n.MinStakeEther)
			if err != nil {
				return nil, fmt.Errorf("network %d: invalid min_stake_ether: %w", n.ID, err)
			}
			d.MinStakeWei = stake
		}
		descriptors = append(descriptors, d)
	}
	return descriptors, nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(configFile string, envPath string) *viper.Viper {
	v := viper.New()

	loadEnv(envPath)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("config/")
	}

	v.SetEnvPrefix("TICKKITONN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables.
// This is required for viper to map env vars to config struct fields when no config file exists.
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		"ledger.path",
		"aggregation.network_timeout",
		"aggregation.max_events_per_network",
		"wallet.private_key",
		"wallet.network_id",
	}
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string) {
	if envPath == "" {
		envPath = "config/"
	}
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Overload(filepath.Join(envPath, envFile))
	}
}
