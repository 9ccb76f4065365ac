package collateral

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	protoerrors "crosstrade/core/errors"
	"crosstrade/core/events"
	"crosstrade/core/types"
	"crosstrade/crypto"
	"crosstrade/native/bank"
	"crosstrade/native/common"
	"crosstrade/observability/metrics"
)

const moduleName = "collateral"

// Scope selects whether stakes are tracked once per address or per
// destination chain.
type Scope uint8

const (
	ScopeGlobal Scope = iota
	ScopePerChain
)

// ParseScope maps a configuration string onto a scope. Empty selects the
// global scope.
func ParseScope(raw string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "global":
		return ScopeGlobal, nil
	case "per-chain", "per_chain", "chain":
		return ScopePerChain, nil
	default:
		return 0, fmt.Errorf("collateral: unknown stake scope %q", raw)
	}
}

func (s Scope) String() string {
	if s == ScopePerChain {
		return "per-chain"
	}
	return "global"
}

type engineState interface {
	StakeGet(addr [20]byte, scope uint64) (*big.Int, error)
	StakePut(addr [20]byte, scope uint64, amount *big.Int) error
	StakeTotal(scope uint64) (*big.Int, error)
}

var errNilState = errors.New("collateral: state not configured")

// Ledger tracks stakes of the reserve token. Staked tokens are held by the
// ledger vault.
type Ledger struct {
	state   engineState
	tokens  bank.Token
	reserve [20]byte
	scope   Scope
	vault   [20]byte
	emitter events.Emitter
	pauses  common.PauseView
}

// NewLedger constructs a ledger staking the supplied reserve token.
func NewLedger(state engineState, tokens bank.Token, reserve [20]byte, scope Scope) *Ledger {
	return &Ledger{
		state:   state,
		tokens:  tokens,
		reserve: reserve,
		scope:   scope,
		vault:   crypto.ModuleAddress(moduleName),
		emitter: events.NoopEmitter{},
	}
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		l.emitter = events.NoopEmitter{}
		return
	}
	l.emitter = emitter
}

// SetPauses wires the pause view consulted before mutations.
func (l *Ledger) SetPauses(p common.PauseView) { l.pauses = p }

// Vault returns the address holding staked tokens.
func (l *Ledger) Vault() [20]byte { return l.vault }

// ReserveToken returns the staked token.
func (l *Ledger) ReserveToken() [20]byte { return l.reserve }

// Scope returns the configured stake scope.
func (l *Ledger) Scope() Scope { return l.scope }

// ScopeOf maps a chain id onto the stored scope key.
func (l *Ledger) ScopeOf(chainID uint64) uint64 {
	if l.scope == ScopeGlobal {
		return 0
	}
	return chainID
}

func (l *Ledger) ready() error {
	if l == nil || l.state == nil || l.tokens == nil {
		return errNilState
	}
	return nil
}

// Stake pulls amount of the reserve token from the caller and adds it to the
// caller's stake.
func (l *Ledger) Stake(call common.Call, chainID uint64, amount *big.Int) error {
	if err := l.ready(); err != nil {
		return err
	}
	if err := common.Guard(l.pauses, moduleName); err != nil {
		return err
	}
	if err := common.RequireNoValue(call); err != nil {
		return err
	}
	if err := common.RequirePositive(amount); err != nil {
		return err
	}
	scope := l.ScopeOf(chainID)
	current, err := l.state.StakeGet(call.Caller, scope)
	if err != nil {
		return err
	}
	if err := bank.Pull(l.tokens, l.reserve, call.Caller, l.vault, amount); err != nil {
		return fmt.Errorf("collateral: stake: %w", err)
	}
	updated := new(big.Int).Add(current, amount)
	if err := l.state.StakePut(call.Caller, scope, updated); err != nil {
		return err
	}
	l.emit(NewStakedEvent(call.Caller, scope, amount, updated))
	metrics.Escrow().RecordStakeChange("stake")
	return nil
}

// Unstake returns amount of the reserve token to the caller.
func (l *Ledger) Unstake(call common.Call, chainID uint64, amount *big.Int) error {
	if err := l.ready(); err != nil {
		return err
	}
	if err := common.Guard(l.pauses, moduleName); err != nil {
		return err
	}
	if err := common.RequireNoValue(call); err != nil {
		return err
	}
	if err := common.RequirePositive(amount); err != nil {
		return err
	}
	scope := l.ScopeOf(chainID)
	current, err := l.state.StakeGet(call.Caller, scope)
	if err != nil {
		return err
	}
	if current.Cmp(amount) < 0 {
		return fmt.Errorf("%w: have %s, need %s", protoerrors.ErrInsufficientStake, current, amount)
	}
	updated := new(big.Int).Sub(current, amount)
	if err := l.state.StakePut(call.Caller, scope, updated); err != nil {
		return err
	}
	if err := l.tokens.Transfer(l.reserve, l.vault, call.Caller, amount); err != nil {
		return fmt.Errorf("collateral: unstake: %w", err)
	}
	l.emit(NewUnstakedEvent(call.Caller, scope, amount, updated))
	metrics.Escrow().RecordStakeChange("unstake")
	return nil
}

// StakeOf returns the stake of addr for chainID. In global scope chainID is
// ignored.
func (l *Ledger) StakeOf(addr [20]byte, chainID uint64) (*big.Int, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}
	return l.state.StakeGet(addr, l.ScopeOf(chainID))
}

// TotalStaked returns the sum of stakes in the scope of chainID.
func (l *Ledger) TotalStaked(chainID uint64) (*big.Int, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}
	return l.state.StakeTotal(l.ScopeOf(chainID))
}

// Credit moves amount of the reserve token from the source vault into the
// ledger vault and adds it to the beneficiary's stake. Settlement uses it to
// pay rewards out of an escrowed deposit.
func (l *Ledger) Credit(from, beneficiary [20]byte, chainID uint64, amount *big.Int) error {
	if err := l.ready(); err != nil {
		return err
	}
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if amount.Sign() < 0 {
		return protoerrors.ErrInvalidAmount
	}
	scope := l.ScopeOf(chainID)
	current, err := l.state.StakeGet(beneficiary, scope)
	if err != nil {
		return err
	}
	if err := l.tokens.Transfer(l.reserve, from, l.vault, amount); err != nil {
		return fmt.Errorf("collateral: credit: %w", err)
	}
	updated := new(big.Int).Add(current, amount)
	if err := l.state.StakePut(beneficiary, scope, updated); err != nil {
		return err
	}
	l.emit(NewRewardedEvent(beneficiary, scope, amount, updated))
	metrics.Escrow().RecordStakeChange("reward")
	return nil
}

func (l *Ledger) emit(evt *types.Event) {
	if l == nil || l.emitter == nil || evt == nil {
		return
	}
	l.emitter.Emit(events.Wrap(evt))
}
