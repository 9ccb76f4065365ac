package arbitration

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

const moduleName = "arbitration"

type engineState interface {
	QuestionPut(*Question) error
	QuestionGet(id [32]byte) (*Question, bool, error)
	QuestionNextNonce() (uint64, error)
}

// Config holds the oracle's deployment parameters.
type Config struct {
	// DefaultTimeout applies to questions asked without an explicit timeout.
	DefaultTimeout uint32
	// MinFunding is the minimum bounty attached to a question.
	MinFunding *big.Int
}

var errNilState = errors.New("arbitration: state not configured")

// Oracle is a reference implementation of the bonded question/answer oracle.
// Bounties and bonds are paid in the native asset and held by the oracle
// vault until winnings are claimed.
type Oracle struct {
	state   engineState
	tokens  bank.Token
	vault   [20]byte
	cfg     Config
	emitter events.Emitter
	pauses  common.PauseView
	nowFn   func() int64
}

// NewOracle constructs an oracle over the supplied state and token ledger.
func NewOracle(state engineState, tokens bank.Token, cfg Config) *Oracle {
	if cfg.DefaultTimeout == 0 {
		cfg.DefaultTimeout = DefaultTimeout
	}
	if cfg.MinFunding == nil {
		cfg.MinFunding = big.NewInt(0)
	}
	return &Oracle{
		state:   state,
		tokens:  tokens,
		vault:   crypto.ModuleAddress(moduleName),
		cfg:     cfg,
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (o *Oracle) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		o.emitter = events.NoopEmitter{}
		return
	}
	o.emitter = emitter
}

// SetPauses wires the pause view consulted before mutations.
func (o *Oracle) SetPauses(p common.PauseView) { o.pauses = p }

// SetNowFunc overrides the time source used by the oracle.
func (o *Oracle) SetNowFunc(now func() int64) {
	if now == nil {
		o.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	o.nowFn = now
}

// Vault returns the address holding bounties and bonds.
func (o *Oracle) Vault() [20]byte { return o.vault }

func (o *Oracle) now() int64 {
	if o == nil || o.nowFn == nil {
		return time.Now().Unix()
	}
	return o.nowFn()
}

func (o *Oracle) ready() error {
	if o == nil || o.state == nil || o.tokens == nil {
		return errNilState
	}
	return nil
}

func (o *Oracle) load(id [32]byte) (*Question, error) {
	if err := o.ready(); err != nil {
		return nil, err
	}
	q, ok, err := o.state.QuestionGet(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, protoerrors.ErrQuestionNotFound
	}
	return q, nil
}

// AskQuestion registers a question funded by the value attached to call.
func (o *Oracle) AskQuestion(call common.Call, p QuestionParams) ([32]byte, error) {
	var id [32]byte
	if err := o.ready(); err != nil {
		return id, err
	}
	if err := common.Guard(o.pauses, moduleName); err != nil {
		return id, err
	}
	bounty := call.AttachedValue()
	if bounty.Cmp(o.cfg.MinFunding) < 0 {
		return id, fmt.Errorf("%w: have %s, need %s", protoerrors.ErrFundingTooLow, bounty, o.cfg.MinFunding)
	}
	timeout := p.Timeout
	if timeout == 0 {
		timeout = o.cfg.DefaultTimeout
	}
	opening := o.now()
	nonce, err := o.state.QuestionNextNonce()
	if err != nil {
		return id, err
	}
	contentHash := ContentHash(p.TemplateID, opening, p.Content)
	id = QuestionID(p.TemplateID, contentHash, o.vault, timeout, opening, call.Caller, nonce)
	if _, exists, err := o.state.QuestionGet(id); err != nil {
		return [32]byte{}, err
	} else if exists {
		return [32]byte{}, fmt.Errorf("arbitration: question %x already exists", id)
	}
	if err := bank.CollectValue(o.tokens, call, o.vault); err != nil {
		return [32]byte{}, fmt.Errorf("arbitration: fund question: %w", err)
	}
	q := &Question{
		ID:          id,
		TemplateID:  p.TemplateID,
		Content:     p.Content,
		ContentHash: contentHash,
		Asker:       call.Caller,
		Timeout:     timeout,
		OpeningTS:   opening,
		Nonce:       nonce,
		Bounty:      bounty,
		MinBond:     cloneBigInt(p.MinBond),
		LastBond:    big.NewInt(0),
		Context:     p.Context,
	}
	q.Context.Amount = cloneBigInt(p.Context.Amount)
	if err := o.state.QuestionPut(q); err != nil {
		return [32]byte{}, err
	}
	o.emit(NewQuestionAskedEvent(q))
	metrics.Escrow().RecordQuestion()
	return id, nil
}

// RequiredBond returns the minimum bond the next answer must carry.
func RequiredBond(q *Question) *big.Int {
	if q == nil {
		return big.NewInt(1)
	}
	if !q.Answered() {
		required := big.NewInt(1)
		if q.MinBond != nil && q.MinBond.Cmp(required) > 0 {
			required.Set(q.MinBond)
		}
		return required
	}
	return new(big.Int).Lsh(cloneBigInt(q.LastBond), 1)
}

// SubmitAnswer records a bonded answer. The bond is the value attached to
// call. When maxPrevious is non-nil the answer is rejected if the current bond
// already exceeds it, protecting the caller against being front-run.
func (o *Oracle) SubmitAnswer(call common.Call, id [32]byte, answer [32]byte, maxPrevious *big.Int) error {
	if err := common.Guard(o.pauses, moduleName); err != nil {
		return err
	}
	q, err := o.load(id)
	if err != nil {
		return err
	}
	if o.finalized(q) {
		return protoerrors.ErrQuestionAlreadyFinalized
	}
	if maxPrevious != nil && q.LastBond.Cmp(maxPrevious) > 0 {
		return fmt.Errorf("%w: current %s, max %s", protoerrors.ErrBondChanged, q.LastBond, maxPrevious)
	}
	bond := call.AttachedValue()
	required := RequiredBond(q)
	if bond.Cmp(required) < 0 {
		return fmt.Errorf("%w: have %s, need %s", protoerrors.ErrBondTooLow, bond, required)
	}
	if err := bank.CollectValue(o.tokens, call, o.vault); err != nil {
		return fmt.Errorf("arbitration: post bond: %w", err)
	}
	prev := q.HistoryHash
	q.HistoryHash = HistoryHash(prev, answer, bond, call.Caller)
	q.BestAnswer = answer
	q.LastBond = bond
	q.LastAnswerTS = o.now()
	q.AnswerCount++
	if err := o.state.QuestionPut(q); err != nil {
		return err
	}
	o.emit(NewAnswerSubmittedEvent(q, prev, answer, bond, call.Caller))
	metrics.Escrow().RecordAnswer()
	return nil
}

func (o *Oracle) finalized(q *Question) bool {
	start := q.OpeningTS
	if q.Answered() {
		start = q.LastAnswerTS
	}
	return o.now() >= start+int64(q.Timeout)
}

// IsFinalized reports whether the question's timeout elapsed since the last
// answer, or since opening when it was never answered.
func (o *Oracle) IsFinalized(id [32]byte) (bool, error) {
	q, err := o.load(id)
	if err != nil {
		return false, err
	}
	return o.finalized(q), nil
}

// FinalAnswer returns the best answer of a finalized question, or
// AnswerUnanswered when it finalized without answers.
func (o *Oracle) FinalAnswer(id [32]byte) ([32]byte, error) {
	q, err := o.load(id)
	if err != nil {
		return [32]byte{}, err
	}
	if !o.finalized(q) {
		return [32]byte{}, protoerrors.ErrNotFinalized
	}
	if !q.Answered() {
		return AnswerUnanswered, nil
	}
	return q.BestAnswer, nil
}

// HistoryHash returns the current head of the question's answer chain.
func (o *Oracle) HistoryHash(id [32]byte) ([32]byte, error) {
	q, err := o.load(id)
	if err != nil {
		return [32]byte{}, err
	}
	return q.HistoryHash, nil
}

// Question returns a copy of the stored question.
func (o *Oracle) Question(id [32]byte) (*Question, error) {
	q, err := o.load(id)
	if err != nil {
		return nil, err
	}
	return q.Clone(), nil
}

// ClaimWinnings pays out a finalized question. Answerers who gave the final
// answer get their bonds back; the bounty and every other bond go to the last
// answerer. A question that was never answered refunds its bounty to the
// asker. entries must replay the full history, newest first.
func (o *Oracle) ClaimWinnings(call common.Call, id [32]byte, entries []HistoryEntry) error {
	if err := common.Guard(o.pauses, moduleName); err != nil {
		return err
	}
	if err := common.RequireNoValue(call); err != nil {
		return err
	}
	q, err := o.load(id)
	if err != nil {
		return err
	}
	if !o.finalized(q) {
		return protoerrors.ErrNotFinalized
	}
	if q.Claimed {
		return protoerrors.ErrAlreadyClaimed
	}
	final, err := VerifyHistory(q.HistoryHash, entries)
	if err != nil {
		return err
	}
	payouts := make(map[[20]byte]*big.Int)
	order := make([][20]byte, 0, len(entries)+1)
	credit := func(to [20]byte, amount *big.Int) {
		if amount.Sign() == 0 {
			return
		}
		if payouts[to] == nil {
			payouts[to] = big.NewInt(0)
			order = append(order, to)
		}
		payouts[to].Add(payouts[to], amount)
	}
	if len(entries) == 0 {
		credit(q.Asker, q.Bounty)
	} else {
		pot := cloneBigInt(q.Bounty)
		for _, entry := range entries {
			bond := cloneBigInt(entry.Bond)
			if entry.Answer == final {
				credit(entry.Answerer, bond)
				continue
			}
			pot.Add(pot, bond)
		}
		credit(entries[0].Answerer, pot)
	}
	total := big.NewInt(0)
	for _, addr := range order {
		amount := payouts[addr]
		if err := bank.Pay(o.tokens, bank.AssetOf(bank.NativeToken), o.vault, addr, amount); err != nil {
			return fmt.Errorf("arbitration: pay winnings: %w", err)
		}
		total.Add(total, amount)
	}
	q.Claimed = true
	if err := o.state.QuestionPut(q); err != nil {
		return err
	}
	o.emit(NewWinningsClaimedEvent(q, final, total))
	return nil
}

func (o *Oracle) emit(evt *types.Event) {
	if o == nil || o.emitter == nil || evt == nil {
		return
	}
	o.emitter.Emit(events.Wrap(evt))
}
