package config

// Chain identifies the local chain and its reserve asset.
type Chain struct {
	ChainID uint64
	// ReserveToken is the asset staked as collateral. Empty or the zero
	// address selects the native asset.
	ReserveToken string
}

// Protocol carries the tunable protocol parameters. They are persisted in the
// parameter store on first boot; later boots keep the persisted values.
type Protocol struct {
	RewardRateBps uint32
	// MinStake is a base-10 amount of the reserve asset.
	MinStake string
	// StakeScope is "global" or "per-chain".
	StakeScope string
	// FinalizationTimeout is the oracle timeout in seconds.
	FinalizationTimeout uint32
	// MinQuestionFunding is the minimum question bounty, base 10.
	MinQuestionFunding string
	// ClaimAcceptedAnswer is the 32-byte hex answer that authorises a
	// disputed claim.
	ClaimAcceptedAnswer string
	// PaymentIDScheme is "offer" or "sender-nonce".
	PaymentIDScheme string
}

// Pauses toggles module mutations off.
type Pauses struct {
	Collateral  bool
	Escrow      bool
	Relay       bool
	Arbitration bool
}

// Storage selects the state backend.
type Storage struct {
	Backend string
	Path    string
}

// RPC configures the HTTP service.
type RPC struct {
	ListenAddress     string
	JWTSecret         string
	JWTSecretEnv      string
	JWTIssuer         string
	RateLimitPerSec   float64
	RateLimitBurst    int
	ReadHeaderTimeout int
	AllowInsecureDev  bool
}

// Logging configures structured log output.
type Logging struct {
	Environment string
	// File, when set, receives logs rotated by size.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Telemetry configures OpenTelemetry exporters.
type Telemetry struct {
	Enabled  bool
	Endpoint string
	Insecure bool
	Headers  map[string]string
	Metrics  bool
	Traces   bool
}

// Allocation credits an address at genesis.
type Allocation struct {
	Address string
	// Token is empty for the native asset.
	Token  string
	Amount string
}

// Genesis lists balances written when the state is first created.
type Genesis struct {
	Allocations []Allocation
}

// IsPaused reports whether the named module is paused.
func (p Pauses) IsPaused(module string) bool {
	switch module {
	case "collateral":
		return p.Collateral
	case "escrow":
		return p.Escrow
	case "relay":
		return p.Relay
	case "arbitration":
		return p.Arbitration
	default:
		return false
	}
}
