package arbitration_test

import (
	"errors"
	"math/big"
	"testing"

	protoerrors "crosstrade/core/errors"
	"crosstrade/core/events"
	"crosstrade/core/state"
	"crosstrade/native/arbitration"
	"crosstrade/native/bank"
	"crosstrade/native/common"
	"crosstrade/storage"
)

var (
	oneEther   = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	tenthEther = new(big.Int).Div(oneEther, big.NewInt(10))
)

func ether(n int64) *big.Int { return new(big.Int).Mul(big.NewInt(n), oneEther) }

func addr(b byte) [20]byte {
	var a [20]byte
	a[0] = b
	return a
}

type oracleFixture struct {
	oracle *arbitration.Oracle
	tokens *bank.Ledger
	rec    *events.Recorder
	now    int64
}

func newOracleFixture(t *testing.T) *oracleFixture {
	t.Helper()
	mgr := state.NewManager(storage.NewMemDB())
	tokens := bank.NewLedger(mgr)
	f := &oracleFixture{tokens: tokens, rec: &events.Recorder{}, now: 1_700_000_000}
	f.oracle = arbitration.NewOracle(mgr, tokens, arbitration.Config{MinFunding: tenthEther})
	f.oracle.SetNowFunc(func() int64 { return f.now })
	f.oracle.SetEmitter(f.rec)
	for _, who := range []byte{0xa, 0xc, 0xd} {
		if err := tokens.Mint(bank.NativeToken, addr(who), ether(10)); err != nil {
			t.Fatalf("mint: %v", err)
		}
	}
	return f
}

func (f *oracleFixture) balance(t *testing.T, who [20]byte) *big.Int {
	t.Helper()
	bal, err := f.tokens.BalanceOf(bank.NativeToken, who)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	return bal
}

func (f *oracleFixture) ask(t *testing.T) [32]byte {
	t.Helper()
	id, err := f.oracle.AskQuestion(common.NewCall(addr(0xa)).WithValue(tenthEther), arbitration.QuestionParams{
		TemplateID: 0,
		Content:    "Did the offerer pay the recipient?",
	})
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	return id
}

func TestAskQuestionRequiresFunding(t *testing.T) {
	f := newOracleFixture(t)
	_, err := f.oracle.AskQuestion(common.NewCall(addr(0xa)).WithValue(big.NewInt(1)), arbitration.QuestionParams{Content: "q"})
	if !errors.Is(err, protoerrors.ErrFundingTooLow) {
		t.Fatalf("expected funding too low, got %v", err)
	}
}

func TestBondLadderAndHistoryReplay(t *testing.T) {
	f := newOracleFixture(t)
	id := f.ask(t)
	c, d := addr(0xc), addr(0xd)

	if err := f.oracle.SubmitAnswer(common.NewCall(c).WithValue(ether(1)), id, arbitration.AnswerTrue, nil); err != nil {
		t.Fatalf("answer C: %v", err)
	}
	lowBond := new(big.Int).Add(ether(1), new(big.Int).Div(oneEther, big.NewInt(2)))
	err := f.oracle.SubmitAnswer(common.NewCall(d).WithValue(lowBond), id, arbitration.AnswerFalse, nil)
	if !errors.Is(err, protoerrors.ErrBondTooLow) {
		t.Fatalf("expected bond too low, got %v", err)
	}
	err = f.oracle.SubmitAnswer(common.NewCall(d).WithValue(ether(2)), id, arbitration.AnswerFalse, big.NewInt(1))
	if !errors.Is(err, protoerrors.ErrBondChanged) {
		t.Fatalf("expected bond changed, got %v", err)
	}
	f.now += 10
	if err := f.oracle.SubmitAnswer(common.NewCall(d).WithValue(ether(2)), id, arbitration.AnswerFalse, ether(1)); err != nil {
		t.Fatalf("answer D: %v", err)
	}

	if _, err := f.oracle.FinalAnswer(id); !errors.Is(err, protoerrors.ErrNotFinalized) {
		t.Fatalf("expected not finalized, got %v", err)
	}
	f.now += int64(arbitration.DefaultTimeout) - 1
	if ok, _ := f.oracle.IsFinalized(id); ok {
		t.Fatalf("finalized one second early")
	}
	f.now++
	if ok, _ := f.oracle.IsFinalized(id); !ok {
		t.Fatalf("expected finalized after timeout")
	}
	final, err := f.oracle.FinalAnswer(id)
	if err != nil {
		t.Fatalf("final answer: %v", err)
	}
	if final != arbitration.AnswerFalse {
		t.Fatalf("unexpected final answer %x", final)
	}
	err = f.oracle.SubmitAnswer(common.NewCall(c).WithValue(ether(4)), id, arbitration.AnswerTrue, nil)
	if !errors.Is(err, protoerrors.ErrQuestionAlreadyFinalized) {
		t.Fatalf("expected already finalized, got %v", err)
	}

	head, err := f.oracle.HistoryHash(id)
	if err != nil {
		t.Fatalf("history hash: %v", err)
	}
	afterC := arbitration.HistoryHash([32]byte{}, arbitration.AnswerTrue, ether(1), c)
	entryD := arbitration.HistoryEntry{Prev: afterC, Answerer: d, Bond: ether(2), Answer: arbitration.AnswerFalse}
	entryC := arbitration.HistoryEntry{Prev: [32]byte{}, Answerer: c, Bond: ether(1), Answer: arbitration.AnswerTrue}

	replayed, err := arbitration.VerifyHistory(head, []arbitration.HistoryEntry{entryD, entryC})
	if err != nil {
		t.Fatalf("verify history: %v", err)
	}
	if replayed != arbitration.AnswerFalse {
		t.Fatalf("unexpected replayed answer %x", replayed)
	}
	if _, err := arbitration.VerifyHistory(head, []arbitration.HistoryEntry{entryC, entryD}); !errors.Is(err, protoerrors.ErrHistoryMismatch) {
		t.Fatalf("expected mismatch for reversed history, got %v", err)
	}
	if _, err := arbitration.VerifyHistory(head, []arbitration.HistoryEntry{entryD}); !errors.Is(err, protoerrors.ErrHistoryMismatch) {
		t.Fatalf("expected mismatch for truncated history, got %v", err)
	}

	before := f.balance(t, d)
	if err := f.oracle.ClaimWinnings(common.NewCall(d), id, []arbitration.HistoryEntry{entryD, entryC}); err != nil {
		t.Fatalf("claim winnings: %v", err)
	}
	gained := new(big.Int).Sub(f.balance(t, d), before)
	want := new(big.Int).Add(ether(3), tenthEther)
	if gained.Cmp(want) != 0 {
		t.Fatalf("expected D to gain %s, got %s", want, gained)
	}
	if f.balance(t, f.oracle.Vault()).Sign() != 0 {
		t.Fatalf("vault should be empty after payout")
	}
	if err := f.oracle.ClaimWinnings(common.NewCall(d), id, []arbitration.HistoryEntry{entryD, entryC}); !errors.Is(err, protoerrors.ErrAlreadyClaimed) {
		t.Fatalf("expected already claimed, got %v", err)
	}
	if got := len(f.rec.OfType(arbitration.EventTypeAnswerSubmitted)); got != 2 {
		t.Fatalf("expected 2 answer events, got %d", got)
	}
}

func TestUnansweredQuestionRefundsAsker(t *testing.T) {
	f := newOracleFixture(t)
	id := f.ask(t)
	f.now += int64(arbitration.DefaultTimeout)
	final, err := f.oracle.FinalAnswer(id)
	if err != nil {
		t.Fatalf("final answer: %v", err)
	}
	if final != arbitration.AnswerUnanswered {
		t.Fatalf("expected unanswered sentinel, got %x", final)
	}
	if err := f.oracle.ClaimWinnings(common.NewCall(addr(0xa)), id, nil); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if f.balance(t, addr(0xa)).Cmp(ether(10)) != 0 {
		t.Fatalf("asker not refunded: %s", f.balance(t, addr(0xa)))
	}
}

func TestEntriesFromArraysRejectsLengthMismatch(t *testing.T) {
	_, err := arbitration.EntriesFromArrays(make([][32]byte, 2), make([][20]byte, 1), []*big.Int{big.NewInt(1), big.NewInt(2)}, make([][32]byte, 2))
	if !errors.Is(err, protoerrors.ErrInvalidHistory) {
		t.Fatalf("expected invalid history, got %v", err)
	}
}

func TestUnknownQuestion(t *testing.T) {
	f := newOracleFixture(t)
	if _, err := f.oracle.IsFinalized([32]byte{1}); !errors.Is(err, protoerrors.ErrQuestionNotFound) {
		t.Fatalf("expected question not found, got %v", err)
	}
}

func TestReplayRejectsBondsBeyondUint256(t *testing.T) {
	f := newOracleFixture(t)
	id := f.ask(t)
	c := addr(0xc)
	if err := f.oracle.SubmitAnswer(common.NewCall(c).WithValue(ether(1)), id, arbitration.AnswerTrue, nil); err != nil {
		t.Fatalf("answer C: %v", err)
	}
	f.now += int64(arbitration.DefaultTimeout)

	inflated := new(big.Int).Add(ether(1), new(big.Int).Lsh(big.NewInt(1), 256))
	_, err := arbitration.EntriesFromArrays([][32]byte{{}}, [][20]byte{c}, []*big.Int{inflated}, [][32]byte{arbitration.AnswerTrue})
	if !errors.Is(err, protoerrors.ErrInvalidHistory) {
		t.Fatalf("expected invalid history from arrays, got %v", err)
	}
	entry := arbitration.HistoryEntry{Answerer: c, Bond: inflated, Answer: arbitration.AnswerTrue}
	if err := f.oracle.ClaimWinnings(common.NewCall(c), id, []arbitration.HistoryEntry{entry}); !errors.Is(err, protoerrors.ErrInvalidHistory) {
		t.Fatalf("expected invalid history on claim, got %v", err)
	}
	entry.Bond = ether(1)
	if err := f.oracle.ClaimWinnings(common.NewCall(c), id, []arbitration.HistoryEntry{entry}); err != nil {
		t.Fatalf("claim with real bond: %v", err)
	}
}
