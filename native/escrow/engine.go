package escrow

import (
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	protoerrors "crosstrade/core/errors"
	"crosstrade/core/events"
	"crosstrade/core/types"
	"crosstrade/crypto"
	"crosstrade/native/arbitration"
	"crosstrade/native/bank"
	"crosstrade/native/common"
)

const moduleName = "escrow"

var errNilState = errors.New("escrow engine: state not configured")

type engineState interface {
	EscrowRequestPut(*Request) error
	EscrowRequestGet(id [32]byte) (*Request, bool, error)
	EscrowNonceUsed(requester [20]byte, nonce *big.Int) (bool, error)
	EscrowMarkNonce(requester [20]byte, nonce *big.Int, requestID [32]byte) error
	EscrowRequestsOf(requester [20]byte) ([][32]byte, error)
	EscrowOfferPut(*Offer) error
	EscrowOfferGet(requestID [32]byte, index uint64) (*Offer, bool, error)
}

// stakeLedger is the slice of the collateral ledger the engine consults for
// offer gating and reward crediting.
type stakeLedger interface {
	StakeOf(addr [20]byte, chainID uint64) (*big.Int, error)
	Credit(from, beneficiary [20]byte, chainID uint64, amount *big.Int) error
	ReserveToken() [20]byte
}

// disputeOracle is the question lifecycle the dispute path depends on.
type disputeOracle interface {
	AskQuestion(call common.Call, p arbitration.QuestionParams) ([32]byte, error)
	IsFinalized(id [32]byte) (bool, error)
	FinalAnswer(id [32]byte) ([32]byte, error)
	HistoryHash(id [32]byte) ([32]byte, error)
}

// Params are the protocol parameters applied by the engine.
type Params struct {
	// ChainID identifies the local chain.
	ChainID uint64
	// RewardRateBps is the settlement reward as basis points of the offer
	// amount.
	RewardRateBps uint32
	// MinStake gates offer creation.
	MinStake *big.Int
	// ClaimAcceptedAnswer is the final answer that authorises a disputed
	// claim.
	ClaimAcceptedAnswer [32]byte
}

// Engine runs the request, offer, settlement and dispute state machines.
// Deposits are held by the escrow vault until they are paid out as rewards or
// withdrawn after settlement.
type Engine struct {
	state   engineState
	tokens  bank.Token
	stakes  stakeLedger
	oracle  disputeOracle
	params  Params
	vault   [20]byte
	emitter events.Emitter
	pauses  common.PauseView
	logger  *slog.Logger
	nowFn   func() int64
}

// NewEngine creates an escrow engine with a no-op emitter. Callers can override
// the emitter via SetEmitter.
func NewEngine(state engineState, tokens bank.Token, stakes stakeLedger, oracle disputeOracle, params Params) *Engine {
	if params.MinStake == nil {
		params.MinStake = big.NewInt(0)
	}
	return &Engine{
		state:   state,
		tokens:  tokens,
		stakes:  stakes,
		oracle:  oracle,
		params:  params,
		vault:   crypto.ModuleAddress(moduleName),
		emitter: events.NoopEmitter{},
		logger:  slog.Default(),
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetNowFunc overrides the time source used by the engine. Primarily intended
// for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetEmitter configures the event emitter used by the engine. Passing nil resets
// the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetPauses wires the pause view consulted before mutations.
func (e *Engine) SetPauses(p common.PauseView) { e.pauses = p }

// SetLogger overrides the logger. Passing nil restores slog.Default.
func (e *Engine) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	e.logger = logger
}

// Vault returns the address holding escrowed deposits. Token depositors and
// on-chain payers approve it as spender.
func (e *Engine) Vault() [20]byte { return e.vault }

// Params returns the engine's protocol parameters.
func (e *Engine) Params() Params {
	p := e.params
	p.MinStake = cloneBigInt(e.params.MinStake)
	return p
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(events.Wrap(event))
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil || e.tokens == nil {
		return errNilState
	}
	return nil
}

func (e *Engine) begin(call common.Call, payable bool) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if !payable {
		return common.RequireNoValue(call)
	}
	return nil
}

func (e *Engine) loadRequest(id [32]byte) (*Request, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	req, ok, err := e.state.EscrowRequestGet(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, protoerrors.ErrRequestNotFound
	}
	return req, nil
}

func (e *Engine) loadOffer(requestID [32]byte, index uint64) (*Request, *Offer, error) {
	req, err := e.loadRequest(requestID)
	if err != nil {
		return nil, nil, err
	}
	if index >= req.OfferCount {
		return nil, nil, protoerrors.ErrOfferNotFound
	}
	offer, ok, err := e.state.EscrowOfferGet(requestID, index)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, fmt.Errorf("escrow engine: offer %d of %x missing from state", index, requestID)
	}
	return req, offer, nil
}

func matchValue(call common.Call, amount *big.Int) error {
	value := call.AttachedValue()
	switch value.Cmp(amount) {
	case -1:
		return fmt.Errorf("%w: attached %s, need %s", protoerrors.ErrInsufficientValue, value, amount)
	case 1:
		return fmt.Errorf("%w: attached %s, need %s", protoerrors.ErrAmountMismatch, value, amount)
	default:
		return nil
	}
}
