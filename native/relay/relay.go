package relay

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	protoerrors "crosstrade/core/errors"
	"crosstrade/core/events"
	"crosstrade/core/types"
	"crosstrade/crypto"
	"crosstrade/native/bank"
	"crosstrade/native/common"
	"crosstrade/observability/metrics"
)

const moduleName = "relay"

type engineState interface {
	RelayPaymentPut(*Payment) error
	RelayPaymentGet(id [32]byte) (*Payment, bool, error)
	RelayNonce(sender [20]byte) (uint64, error)
	SetRelayNonce(sender [20]byte, nonce uint64) error
}

var errNilState = errors.New("relay: state not configured")

// Relay moves the requested asset to the recipient on the destination chain
// and keeps an auditable record of the payment. It knows nothing about the
// originating request.
type Relay struct {
	state   engineState
	tokens  bank.Token
	address [20]byte
	chainID uint64
	scheme  IDScheme
	emitter events.Emitter
	pauses  common.PauseView
	nowFn   func() int64
}

// NewRelay constructs a relay for the local chain.
func NewRelay(state engineState, tokens bank.Token, chainID uint64, scheme IDScheme) *Relay {
	return &Relay{
		state:   state,
		tokens:  tokens,
		address: crypto.ModuleAddress(moduleName),
		chainID: chainID,
		scheme:  scheme,
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (r *Relay) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		r.emitter = events.NoopEmitter{}
		return
	}
	r.emitter = emitter
}

// SetPauses wires the pause view consulted before mutations.
func (r *Relay) SetPauses(p common.PauseView) { r.pauses = p }

// SetNowFunc overrides the time source used by the relay.
func (r *Relay) SetNowFunc(now func() int64) {
	if now == nil {
		r.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	r.nowFn = now
}

// Address returns the spender address token payers approve.
func (r *Relay) Address() [20]byte { return r.address }

// Scheme returns the configured payment id scheme.
func (r *Relay) Scheme() IDScheme { return r.scheme }

func (r *Relay) ready() error {
	if r == nil || r.state == nil || r.tokens == nil {
		return errNilState
	}
	return nil
}

// Pay transfers the asset from the caller to the recipient and records the
// payment. Native payments carry the amount as attached value; token payments
// are pulled with transferFrom against the allowance granted to Address and
// must not carry value.
func (r *Relay) Pay(call common.Call, p PaymentParams) ([32]byte, error) {
	var id [32]byte
	if err := r.ready(); err != nil {
		return id, err
	}
	if err := common.Guard(r.pauses, moduleName); err != nil {
		return id, err
	}
	if err := common.RequirePositive(p.Amount); err != nil {
		return id, err
	}
	if p.Recipient == ([20]byte{}) {
		return id, protoerrors.ErrZeroAddress
	}
	nonce, err := r.state.RelayNonce(call.Caller)
	if err != nil {
		return id, err
	}
	switch r.scheme {
	case IDSchemeSenderNonce:
		id = SenderPaymentID(call.Caller, nonce, r.chainID)
	default:
		id = OfferPaymentID(p.RequestID, p.OfferIndex, p.DepositChainID)
	}
	if _, exists, err := r.state.RelayPaymentGet(id); err != nil {
		return [32]byte{}, err
	} else if exists {
		return [32]byte{}, protoerrors.ErrPaymentExists
	}
	asset := bank.AssetOf(p.Token)
	switch asset.Kind {
	case bank.AssetNative:
		if err := matchValue(call, p.Amount); err != nil {
			return [32]byte{}, err
		}
		if err := r.tokens.Transfer(bank.NativeToken, call.Caller, p.Recipient, p.Amount); err != nil {
			return [32]byte{}, fmt.Errorf("relay: pay: %w", err)
		}
	default:
		if err := common.RequireNoValue(call); err != nil {
			return [32]byte{}, err
		}
		if err := r.tokens.TransferFrom(asset.Token, r.address, call.Caller, p.Recipient, p.Amount); err != nil {
			return [32]byte{}, fmt.Errorf("relay: pay: %w", err)
		}
	}
	payment := &Payment{
		ID:             id,
		Token:          p.Token,
		Sender:         call.Caller,
		Receiver:       p.Recipient,
		Amount:         new(big.Int).Set(p.Amount),
		RequestID:      p.RequestID,
		OfferIndex:     p.OfferIndex,
		DepositChainID: p.DepositChainID,
		ChainID:        r.chainID,
		Nonce:          nonce,
		CreatedAt:      r.nowFn(),
	}
	if err := r.state.RelayPaymentPut(payment); err != nil {
		return [32]byte{}, err
	}
	if err := r.state.SetRelayNonce(call.Caller, nonce+1); err != nil {
		return [32]byte{}, err
	}
	r.emit(NewPaymentRecordedEvent(payment))
	metrics.Escrow().RecordRelayPayment(r.scheme.String())
	return id, nil
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

// Payment returns a copy of the stored payment record.
func (r *Relay) Payment(id [32]byte) (*Payment, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	p, ok, err := r.state.RelayPaymentGet(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, protoerrors.ErrPaymentNotFound
	}
	return p.Clone(), nil
}

// Token returns the token of a payment; zero means native.
func (r *Relay) Token(id [32]byte) ([20]byte, error) {
	p, err := r.Payment(id)
	if err != nil {
		return [20]byte{}, err
	}
	return p.Token, nil
}

// Sender returns the payer of a payment.
func (r *Relay) Sender(id [32]byte) ([20]byte, error) {
	p, err := r.Payment(id)
	if err != nil {
		return [20]byte{}, err
	}
	return p.Sender, nil
}

// Receiver returns the recipient of a payment.
func (r *Relay) Receiver(id [32]byte) ([20]byte, error) {
	p, err := r.Payment(id)
	if err != nil {
		return [20]byte{}, err
	}
	return p.Receiver, nil
}

// Amount returns the paid amount.
func (r *Relay) Amount(id [32]byte) (*big.Int, error) {
	p, err := r.Payment(id)
	if err != nil {
		return nil, err
	}
	return p.Amount, nil
}

// RequestID returns the originating request of a payment.
func (r *Relay) RequestID(id [32]byte) ([32]byte, error) {
	p, err := r.Payment(id)
	if err != nil {
		return [32]byte{}, err
	}
	return p.RequestID, nil
}

// OfferID returns the originating offer index of a payment.
func (r *Relay) OfferID(id [32]byte) (uint64, error) {
	p, err := r.Payment(id)
	if err != nil {
		return 0, err
	}
	return p.OfferIndex, nil
}

func (r *Relay) emit(evt *types.Event) {
	if r == nil || r.emitter == nil || evt == nil {
		return
	}
	r.emitter.Emit(events.Wrap(evt))
}
