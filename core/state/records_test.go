package state

import (
	"math/big"
	"testing"

	"crosstrade/native/arbitration"
	"crosstrade/native/escrow"
	"crosstrade/storage"
)

func TestEscrowRecordsAndNonceIndex(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	var requester [20]byte
	requester[0] = 0x01
	req := &escrow.Request{
		ID:               [32]byte{0x10},
		Nonce:            big.NewInt(7),
		Requester:        requester,
		DepositAmount:    big.NewInt(10),
		RequestedAmount:  big.NewInt(1000),
		RequestedChainID: 2,
		IsRequest:        true,
		Remaining:        big.NewInt(10),
		CreatedAt:        1_700_000_000,
	}
	if err := m.EscrowRequestPut(req); err != nil {
		t.Fatalf("put request: %v", err)
	}
	if err := m.EscrowMarkNonce(requester, req.Nonce, req.ID); err != nil {
		t.Fatalf("mark nonce: %v", err)
	}
	loaded, ok, err := m.EscrowRequestGet(req.ID)
	if err != nil || !ok {
		t.Fatalf("get request: ok=%v err=%v", ok, err)
	}
	if loaded.Remaining.Int64() != 10 || loaded.CreatedAt != req.CreatedAt || loaded.RequestedChainID != 2 {
		t.Fatalf("unexpected request %+v", loaded)
	}
	used, err := m.EscrowNonceUsed(requester, big.NewInt(7))
	if err != nil || !used {
		t.Fatalf("expected nonce used: %v %v", used, err)
	}
	if used, _ := m.EscrowNonceUsed(requester, big.NewInt(8)); used {
		t.Fatalf("unexpected nonce 8 used")
	}
	ids, err := m.EscrowRequestsOf(requester)
	if err != nil || len(ids) != 1 || ids[0] != req.ID {
		t.Fatalf("unexpected requester index %x err=%v", ids, err)
	}

	offer := &escrow.Offer{
		RequestID:  req.ID,
		Index:      0,
		Amount:     big.NewInt(1000),
		IsAccepted: true,
		Path:       escrow.ClaimPathCrossChainDisputed,
		QuestionID: [32]byte{0x20},
	}
	if err := m.EscrowOfferPut(offer); err != nil {
		t.Fatalf("put offer: %v", err)
	}
	gotOffer, ok, err := m.EscrowOfferGet(req.ID, 0)
	if err != nil || !ok {
		t.Fatalf("get offer: ok=%v err=%v", ok, err)
	}
	if !gotOffer.Disputed() || gotOffer.QuestionID != offer.QuestionID {
		t.Fatalf("unexpected offer %+v", gotOffer)
	}
	if _, ok, _ := m.EscrowOfferGet(req.ID, 1); ok {
		t.Fatalf("unexpected offer 1")
	}
}

func TestQuestionRecordAndNonce(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	for want := uint64(0); want < 3; want++ {
		got, err := m.QuestionNextNonce()
		if err != nil || got != want {
			t.Fatalf("nonce %d: got %d err=%v", want, got, err)
		}
	}
	q := &arbitration.Question{
		ID:          [32]byte{0x30},
		Content:     "paid?",
		Timeout:     arbitration.DefaultTimeout,
		OpeningTS:   100,
		Bounty:      big.NewInt(5),
		LastBond:    big.NewInt(2),
		BestAnswer:  arbitration.AnswerTrue,
		AnswerCount: 1,
		Context:     arbitration.DisputeContext{Amount: big.NewInt(1000), TxRef: "0xabc", OfferIndex: 3},
	}
	if err := m.QuestionPut(q); err != nil {
		t.Fatalf("put question: %v", err)
	}
	loaded, ok, err := m.QuestionGet(q.ID)
	if err != nil || !ok {
		t.Fatalf("get question: ok=%v err=%v", ok, err)
	}
	if loaded.Timeout != arbitration.DefaultTimeout || loaded.BestAnswer != arbitration.AnswerTrue ||
		loaded.Context.TxRef != "0xabc" || loaded.Context.Amount.Int64() != 1000 || loaded.MinBond == nil {
		t.Fatalf("unexpected question %+v", loaded)
	}
}
