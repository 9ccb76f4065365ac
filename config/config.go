package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the daemon configuration.
type Config struct {
	Chain     Chain     `toml:"Chain"`
	Protocol  Protocol  `toml:"Protocol"`
	Pauses    Pauses    `toml:"Pauses"`
	Storage   Storage   `toml:"Storage"`
	RPC       RPC       `toml:"RPC"`
	Logging   Logging   `toml:"Logging"`
	Telemetry Telemetry `toml:"Telemetry"`
	Genesis   Genesis   `toml:"Genesis"`
}

const (
	DefaultChainID             = 1
	DefaultRewardRateBps       = 100
	DefaultMinStake            = "1"
	DefaultStakeScope          = "global"
	DefaultFinalizationTimeout = 97200
	DefaultPaymentIDScheme     = "offer"
	DefaultListenAddress       = ":8545"
	DefaultStorageBackend      = "leveldb"
	DefaultRateLimitPerSec     = 20
	DefaultRateLimitBurst      = 40
	DefaultReadHeaderTimeout   = 5
)

// DefaultClaimAcceptedAnswer encodes boolean false: the challenge was
// unfounded, so the offerer's claim stands.
const DefaultClaimAcceptedAnswer = "0x0000000000000000000000000000000000000000000000000000000000000000"

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg, "")
	return cfg
}

// Load loads the configuration from the given path. A missing file is created
// with defaults.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	cfg := &Config{}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return nil, fmt.Errorf("config file %s has unknown keys: %s", path, strings.Join(keys, ", "))
	}
	applyDefaults(cfg, path)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config, path string) {
	if cfg.Chain.ChainID == 0 {
		cfg.Chain.ChainID = DefaultChainID
	}
	if cfg.Protocol.RewardRateBps == 0 {
		cfg.Protocol.RewardRateBps = DefaultRewardRateBps
	}
	if strings.TrimSpace(cfg.Protocol.MinStake) == "" {
		cfg.Protocol.MinStake = DefaultMinStake
	}
	if strings.TrimSpace(cfg.Protocol.StakeScope) == "" {
		cfg.Protocol.StakeScope = DefaultStakeScope
	}
	if cfg.Protocol.FinalizationTimeout == 0 {
		cfg.Protocol.FinalizationTimeout = DefaultFinalizationTimeout
	}
	if strings.TrimSpace(cfg.Protocol.MinQuestionFunding) == "" {
		cfg.Protocol.MinQuestionFunding = "0"
	}
	if strings.TrimSpace(cfg.Protocol.ClaimAcceptedAnswer) == "" {
		cfg.Protocol.ClaimAcceptedAnswer = DefaultClaimAcceptedAnswer
	}
	if strings.TrimSpace(cfg.Protocol.PaymentIDScheme) == "" {
		cfg.Protocol.PaymentIDScheme = DefaultPaymentIDScheme
	}
	if strings.TrimSpace(cfg.Storage.Backend) == "" {
		cfg.Storage.Backend = DefaultStorageBackend
	}
	if strings.TrimSpace(cfg.Storage.Path) == "" && cfg.Storage.Backend != "memory" {
		dir := "."
		if path != "" {
			dir = filepath.Dir(path)
		}
		cfg.Storage.Path = filepath.Join(dir, "crosstrade-data")
	}
	if strings.TrimSpace(cfg.RPC.ListenAddress) == "" {
		cfg.RPC.ListenAddress = DefaultListenAddress
	}
	if cfg.RPC.RateLimitPerSec == 0 {
		cfg.RPC.RateLimitPerSec = DefaultRateLimitPerSec
	}
	if cfg.RPC.RateLimitBurst == 0 {
		cfg.RPC.RateLimitBurst = DefaultRateLimitBurst
	}
	if cfg.RPC.ReadHeaderTimeout == 0 {
		cfg.RPC.ReadHeaderTimeout = DefaultReadHeaderTimeout
	}
	if strings.TrimSpace(cfg.Logging.Environment) == "" {
		cfg.Logging.Environment = "dev"
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	applyDefaults(cfg, path)
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// JWTSecretValue resolves the RPC signing secret, preferring the environment
// variable when one is configured.
func (r RPC) JWTSecretValue() string {
	if env := strings.TrimSpace(r.JWTSecretEnv); env != "" {
		if value := strings.TrimSpace(os.Getenv(env)); value != "" {
			return value
		}
	}
	return strings.TrimSpace(r.JWTSecret)
}
