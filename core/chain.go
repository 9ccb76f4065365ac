package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"crosstrade/config"
	"crosstrade/core/events"
	"crosstrade/core/state"
	"crosstrade/native/arbitration"
	"crosstrade/native/bank"
	"crosstrade/native/collateral"
	"crosstrade/native/escrow"
	"crosstrade/native/params"
	"crosstrade/native/relay"
	"crosstrade/observability"
	"crosstrade/storage"
)

// Options tune how a Chain is assembled.
type Options struct {
	Logger *slog.Logger
	// Emitter receives events of committed operations.
	Emitter events.Emitter
	// Now overrides the clock shared by every module.
	Now func() int64
	// AllowMigrate lets the chain upgrade an older state schema in place.
	AllowMigrate bool
}

// Chain owns the protocol state of the local chain and the modules operating
// on it. Every mutation runs inside its own journal under a single-writer
// lock: it either commits with its events or leaves no trace.
type Chain struct {
	mu sync.RWMutex

	state    *state.Manager
	params   *params.Store
	protocol config.Protocol
	chainID  uint64

	tokens *bank.Ledger
	stakes *collateral.Ledger
	oracle *arbitration.Oracle
	relay  *relay.Relay
	escrow *escrow.Engine

	buffer *events.Buffer
	sink   events.Emitter
	stream *eventStream
	logger *slog.Logger
	nowFn  func() int64
}

// NewChain opens the chain over db. On first boot the protocol parameters and
// genesis allocations from cfg are written to state; later boots keep the
// persisted protocol parameters.
func NewChain(db storage.Database, cfg *config.Config, opts Options) (*Chain, error) {
	if db == nil {
		return nil, fmt.Errorf("core: database required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("core: config required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sink := opts.Emitter
	if sink == nil {
		sink = events.NoopEmitter{}
	}
	c := &Chain{
		state:   state.NewManager(db),
		chainID: cfg.Chain.ChainID,
		buffer:  &events.Buffer{},
		sink:    sink,
		stream:  newEventStream(),
		logger:  logger.With("component", "chain"),
		nowFn:   opts.Now,
	}
	if c.nowFn == nil {
		c.nowFn = func() int64 { return time.Now().Unix() }
	}
	if err := state.EnsureStateVersion(c.state, opts.AllowMigrate); err != nil {
		return nil, err
	}
	c.params = params.NewStore(c.state)
	if err := c.bootstrap(cfg); err != nil {
		return nil, err
	}
	if err := c.assemble(cfg); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Chain) bootstrap(cfg *config.Config) error {
	c.state.Begin()
	if err := c.applyBoot(cfg); err != nil {
		_ = c.state.Rollback()
		return err
	}
	return c.state.Commit()
}

func (c *Chain) applyBoot(cfg *config.Config) error {
	stored, ok, err := c.params.Protocol()
	if err != nil {
		return err
	}
	if ok {
		if stored != cfg.Protocol {
			c.logger.Warn("protocol parameters in config differ from persisted values; keeping persisted")
		}
		c.protocol = stored
	} else {
		if err := c.params.SetProtocol(cfg.Protocol); err != nil {
			return err
		}
		c.protocol = cfg.Protocol
	}
	if err := c.params.SetPauses(cfg.Pauses); err != nil {
		return err
	}
	applied, err := c.state.GenesisApplied()
	if err != nil {
		return err
	}
	if applied {
		return nil
	}
	allocations, err := cfg.Genesis.Parse()
	if err != nil {
		return err
	}
	ledger := bank.NewLedger(c.state)
	for _, alloc := range allocations {
		if err := ledger.Mint(alloc.Token, alloc.Address, alloc.Amount); err != nil {
			return fmt.Errorf("core: genesis allocation: %w", err)
		}
	}
	c.logger.Info("genesis applied", "allocations", len(allocations))
	return c.state.MarkGenesisApplied()
}

func (c *Chain) assemble(cfg *config.Config) error {
	reserve, err := cfg.Chain.ReserveTokenAddress()
	if err != nil {
		return err
	}
	scope, err := collateral.ParseScope(c.protocol.StakeScope)
	if err != nil {
		return err
	}
	scheme, err := relay.ParseIDScheme(c.protocol.PaymentIDScheme)
	if err != nil {
		return err
	}
	minStake, err := c.protocol.MinStakeAmount()
	if err != nil {
		return err
	}
	minFunding, err := c.protocol.MinQuestionFundingAmount()
	if err != nil {
		return err
	}
	accepted, err := c.protocol.ClaimAcceptedAnswerWord()
	if err != nil {
		return err
	}

	c.tokens = bank.NewLedger(c.state)

	c.stakes = collateral.NewLedger(c.state, c.tokens, reserve, scope)
	c.stakes.SetEmitter(c.buffer)
	c.stakes.SetPauses(c.params)

	c.oracle = arbitration.NewOracle(c.state, c.tokens, arbitration.Config{
		DefaultTimeout: c.protocol.FinalizationTimeout,
		MinFunding:     minFunding,
	})
	c.oracle.SetEmitter(c.buffer)
	c.oracle.SetPauses(c.params)
	c.oracle.SetNowFunc(c.nowFn)

	c.relay = relay.NewRelay(c.state, c.tokens, c.chainID, scheme)
	c.relay.SetEmitter(c.buffer)
	c.relay.SetPauses(c.params)
	c.relay.SetNowFunc(c.nowFn)

	c.escrow = escrow.NewEngine(c.state, c.tokens, c.stakes, c.oracle, escrow.Params{
		ChainID:             c.chainID,
		RewardRateBps:       c.protocol.RewardRateBps,
		MinStake:            minStake,
		ClaimAcceptedAnswer: accepted,
	})
	c.escrow.SetEmitter(c.buffer)
	c.escrow.SetPauses(c.params)
	c.escrow.SetNowFunc(c.nowFn)
	c.escrow.SetLogger(c.logger)
	return nil
}

// Exec runs fn as one atomic operation. State written by fn and the events it
// raised are committed together when fn succeeds and discarded otherwise.
func (c *Chain) Exec(ctx context.Context, op string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Begin()
	if err := fn(); err != nil {
		if rbErr := c.state.Rollback(); rbErr != nil {
			c.logger.Error("rollback failed", "op", op, "error", rbErr)
		}
		observability.Events().RecordDiscarded(c.buffer.Discard())
		c.logger.Debug("operation rejected", "op", op, "error", err)
		return err
	}
	if err := c.state.Commit(); err != nil {
		observability.Events().RecordDiscarded(c.buffer.Discard())
		c.logger.Error("commit failed", "op", op, "error", err)
		return fmt.Errorf("core: commit %s: %w", op, err)
	}
	for _, evt := range c.buffer.Flush(c.sink) {
		c.stream.publish(evt)
		observability.Events().RecordEmitted(evt.EventType())
	}
	return nil
}

// View runs a read-only fn against committed state.
func (c *Chain) View(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return fn()
}

// ChainID returns the local chain id.
func (c *Chain) ChainID() uint64 { return c.chainID }

// Protocol returns the protocol parameters in effect.
func (c *Chain) Protocol() config.Protocol { return c.protocol }

// Now returns the chain clock.
func (c *Chain) Now() int64 { return c.nowFn() }

// Tokens exposes the token ledger.
func (c *Chain) Tokens() *bank.Ledger { return c.tokens }

// Collateral exposes the stake ledger.
func (c *Chain) Collateral() *collateral.Ledger { return c.stakes }

// Oracle exposes the arbitration oracle.
func (c *Chain) Oracle() *arbitration.Oracle { return c.oracle }

// Relay exposes the satellite relay.
func (c *Chain) Relay() *relay.Relay { return c.relay }

// Escrow exposes the escrow engine.
func (c *Chain) Escrow() *escrow.Engine { return c.escrow }

// Params exposes the persisted parameter store.
func (c *Chain) Params() *params.Store { return c.params }
