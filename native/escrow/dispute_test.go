package escrow_test

import (
	"errors"
	"math/big"
	"testing"

	protoerrors "crosstrade/core/errors"
	"crosstrade/native/arbitration"
	"crosstrade/native/common"
	"crosstrade/native/escrow"
)

func (f *fixture) dispute(t *testing.T, id [32]byte) [32]byte {
	t.Helper()
	qID, err := f.engine.RaiseDispute(common.NewCall(requester).WithValue(big.NewInt(1)), id, 0, escrow.DisputeParams{
		Content: "Was 1000 of token B paid to the recipient on chain 2?",
		TxRef:   "0xfeed",
	})
	if err != nil {
		t.Fatalf("raise dispute: %v", err)
	}
	return qID
}

func (f *fixture) answer(t *testing.T, qID [32]byte, who [20]byte, answer [32]byte, bond int64) {
	t.Helper()
	if err := f.oracle.SubmitAnswer(common.NewCall(who).WithValue(big.NewInt(bond)), qID, answer, nil); err != nil {
		t.Fatalf("submit answer: %v", err)
	}
}

type history struct {
	hashes    [][32]byte
	answerers [][20]byte
	bonds     []*big.Int
	answers   [][32]byte
}

// contestedHistory is C answering true with bond 1 and then D answering false
// with bond 2, listed newest first.
func contestedHistory() history {
	afterC := arbitration.HistoryHash([32]byte{}, arbitration.AnswerTrue, big.NewInt(1), answererC)
	return history{
		hashes:    [][32]byte{afterC, {}},
		answerers: [][20]byte{answererD, answererC},
		bonds:     []*big.Int{big.NewInt(2), big.NewInt(1)},
		answers:   [][32]byte{arbitration.AnswerFalse, arbitration.AnswerTrue},
	}
}

func (f *fixture) claimWithDispute(id, qID [32]byte, h history) error {
	return f.engine.ClaimWithDispute(common.NewCall(offerer), id, 0, qID, h.hashes, h.answerers, h.bonds, h.answers)
}

func TestDisputedClaimSucceedsWithReplayedHistory(t *testing.T) {
	f := newFixture(t)
	id := f.openAccepted(t)

	if _, err := f.engine.RaiseDispute(common.NewCall(offerer).WithValue(big.NewInt(1)), id, 0, escrow.DisputeParams{}); !errors.Is(err, protoerrors.ErrNotRequester) {
		t.Fatalf("expected not requester, got %v", err)
	}
	qID := f.dispute(t, id)
	if _, err := f.engine.RaiseDispute(common.NewCall(requester), id, 0, escrow.DisputeParams{}); !errors.Is(err, protoerrors.ErrAlreadyDisputed) {
		t.Fatalf("expected already disputed, got %v", err)
	}
	if err := f.engine.ClaimWithoutDispute(common.NewCall(offerer), id, 0); !errors.Is(err, protoerrors.ErrDisputed) {
		t.Fatalf("expected disputed, got %v", err)
	}
	if err := f.engine.RejectOffer(common.NewCall(requester), id, 0); !errors.Is(err, protoerrors.ErrDisputed) {
		t.Fatalf("expected open disputes to block rejection, got %v", err)
	}

	f.answer(t, qID, answererC, arbitration.AnswerTrue, 1)
	f.answer(t, qID, answererD, arbitration.AnswerFalse, 2)
	h := contestedHistory()

	if err := f.claimWithDispute(id, qID, h); !errors.Is(err, protoerrors.ErrNotFinalized) {
		t.Fatalf("expected not finalized, got %v", err)
	}
	f.now += int64(arbitration.DefaultTimeout)

	if err := f.claimWithDispute(id, [32]byte{0x42}, h); !errors.Is(err, protoerrors.ErrQuestionMismatch) {
		t.Fatalf("expected question mismatch, got %v", err)
	}
	reversed := history{
		hashes:    [][32]byte{h.hashes[1], h.hashes[0]},
		answerers: [][20]byte{h.answerers[1], h.answerers[0]},
		bonds:     []*big.Int{h.bonds[1], h.bonds[0]},
		answers:   [][32]byte{h.answers[1], h.answers[0]},
	}
	if err := f.claimWithDispute(id, qID, reversed); !errors.Is(err, protoerrors.ErrHistoryMismatch) {
		t.Fatalf("expected history mismatch, got %v", err)
	}
	short := h
	short.bonds = short.bonds[:1]
	if err := f.claimWithDispute(id, qID, short); !errors.Is(err, protoerrors.ErrInvalidHistory) {
		t.Fatalf("expected invalid history, got %v", err)
	}

	if err := f.claimWithDispute(id, qID, h); err != nil {
		t.Fatalf("claim with dispute: %v", err)
	}
	offer, err := f.engine.Offer(id, 0)
	if err != nil {
		t.Fatalf("offer: %v", err)
	}
	if !offer.IsPaid || offer.Path != escrow.ClaimPathCrossChainDisputed || offer.QuestionID != qID {
		t.Fatalf("unexpected offer after claim %+v", offer)
	}
	stake, _ := f.stakes.StakeOf(offerer, remoteChain)
	if stake.Int64() != 12 {
		t.Fatalf("expected reward credited, got %s", stake)
	}
	if err := f.claimWithDispute(id, qID, h); !errors.Is(err, protoerrors.ErrAlreadyPaid) {
		t.Fatalf("expected already paid, got %v", err)
	}
}

func TestDisputedClaimRejectedWhenOracleSaysTrue(t *testing.T) {
	f := newFixture(t)
	id := f.openAccepted(t)
	qID := f.dispute(t, id)
	f.answer(t, qID, answererC, arbitration.AnswerTrue, 1)
	f.now += int64(arbitration.DefaultTimeout)

	h := history{
		hashes:    [][32]byte{{}},
		answerers: [][20]byte{answererC},
		bonds:     []*big.Int{big.NewInt(1)},
		answers:   [][32]byte{arbitration.AnswerTrue},
	}
	if err := f.claimWithDispute(id, qID, h); !errors.Is(err, protoerrors.ErrClaimRejected) {
		t.Fatalf("expected claim rejected, got %v", err)
	}
	paid, _ := f.engine.IsPaid(id, 0)
	if paid {
		t.Fatalf("rejected claim must not pay")
	}
}

func TestRejectAfterLostDisputeFreesRequest(t *testing.T) {
	f := newFixture(t)
	id := f.openAccepted(t)
	qID := f.dispute(t, id)
	f.answer(t, qID, answererC, arbitration.AnswerTrue, 1)

	if err := f.engine.RejectOffer(common.NewCall(requester), id, 0); !errors.Is(err, protoerrors.ErrDisputed) {
		t.Fatalf("expected disputed before finalization, got %v", err)
	}
	f.now += int64(arbitration.DefaultTimeout)

	h := history{
		hashes:    [][32]byte{{}},
		answerers: [][20]byte{answererC},
		bonds:     []*big.Int{big.NewInt(1)},
		answers:   [][32]byte{arbitration.AnswerTrue},
	}
	if err := f.claimWithDispute(id, qID, h); !errors.Is(err, protoerrors.ErrClaimRejected) {
		t.Fatalf("expected claim rejected, got %v", err)
	}
	if err := f.engine.RejectOffer(common.NewCall(requester), id, 0); err != nil {
		t.Fatalf("reject after lost dispute: %v", err)
	}
	offer, err := f.engine.Offer(id, 0)
	if err != nil {
		t.Fatalf("offer: %v", err)
	}
	if offer.IsAccepted || offer.Path != escrow.ClaimPathNone || offer.QuestionID != ([32]byte{}) {
		t.Fatalf("unexpected offer after reject %+v", offer)
	}

	idx, err := f.engine.CreateOffer(common.NewCall(offerer), id, big.NewInt(900))
	if err != nil {
		t.Fatalf("create second offer: %v", err)
	}
	if err := f.engine.AcceptOffer(common.NewCall(requester), id, idx); err != nil {
		t.Fatalf("accept second offer: %v", err)
	}
	if err := f.engine.ClaimWithoutDispute(common.NewCall(offerer), id, idx); err != nil {
		t.Fatalf("claim second offer: %v", err)
	}
	if _, err := f.engine.WithdrawDeposit(common.NewCall(requester), id); err != nil {
		t.Fatalf("withdraw remaining deposit: %v", err)
	}
}

func TestRejectDisputedOfferWhenOracleAgrees(t *testing.T) {
	f := newFixture(t)
	id := f.openAccepted(t)
	qID := f.dispute(t, id)
	f.answer(t, qID, answererC, arbitration.AnswerFalse, 1)
	f.now += int64(arbitration.DefaultTimeout)
	if err := f.engine.RejectOffer(common.NewCall(requester), id, 0); !errors.Is(err, protoerrors.ErrDisputed) {
		t.Fatalf("a won dispute must stay claimable, got %v", err)
	}
}

func TestDisputedClaimRejectedWithoutAnswers(t *testing.T) {
	f := newFixture(t)
	id := f.openAccepted(t)
	qID := f.dispute(t, id)
	f.now += int64(arbitration.DefaultTimeout)
	if err := f.claimWithDispute(id, qID, history{}); !errors.Is(err, protoerrors.ErrClaimRejected) {
		t.Fatalf("expected unanswered question to reject the claim, got %v", err)
	}
}

func TestClaimWithDisputeRequiresDispute(t *testing.T) {
	f := newFixture(t)
	id := f.openAccepted(t)
	if err := f.claimWithDispute(id, [32]byte{}, history{}); !errors.Is(err, protoerrors.ErrNotDisputed) {
		t.Fatalf("expected not disputed, got %v", err)
	}
}

func TestCreateQuestionWithoutOffer(t *testing.T) {
	f := newFixture(t)
	qID, err := f.engine.CreateQuestion(common.NewCall(requester).WithValue(big.NewInt(1)), 0, "paid?", "0xabc",
		requester, recipient, tokenB, big.NewInt(1000), remoteChain)
	if err != nil {
		t.Fatalf("create question: %v", err)
	}
	q, err := f.oracle.Question(qID)
	if err != nil {
		t.Fatalf("question: %v", err)
	}
	if q.Context.Recipient != recipient || q.Context.TxRef != "0xabc" || q.Bounty.Int64() != 1 {
		t.Fatalf("unexpected question context %+v", q.Context)
	}
}
