package arbitration

import (
	"math/big"

	"crosstrade/crypto"
)

// DefaultTimeout is the finalization timeout applied when a question does not
// carry its own: 27 hours.
const DefaultTimeout uint32 = 97200

var (
	// AnswerFalse encodes boolean false.
	AnswerFalse [32]byte
	// AnswerTrue encodes boolean true.
	AnswerTrue = [32]byte{31: 0x01}
	// AnswerUnanswered is reported as the final answer of a question that
	// finalized without any answer. It doubles as the "invalid" answer.
	AnswerUnanswered = [32]byte{
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	}
)

// DisputeContext records what a question arbitrates.
type DisputeContext struct {
	Challenger         [20]byte
	Recipient          [20]byte
	Token              [20]byte
	Amount             *big.Int
	DestinationChainID uint64
	RequestID          [32]byte
	OfferIndex         uint64
	TxRef              string
}

// Question is the oracle's record of a single question and its answer ladder.
// Individual answers are not stored; HistoryHash commits to all of them.
type Question struct {
	ID           [32]byte
	TemplateID   uint64
	Content      string
	ContentHash  [32]byte
	Asker        [20]byte
	Timeout      uint32
	OpeningTS    int64
	Nonce        uint64
	Bounty       *big.Int
	MinBond      *big.Int
	BestAnswer   [32]byte
	LastBond     *big.Int
	HistoryHash  [32]byte
	LastAnswerTS int64
	AnswerCount  uint64
	Claimed      bool
	Context      DisputeContext
}

// Answered reports whether at least one answer was accepted.
func (q *Question) Answered() bool { return q != nil && q.AnswerCount > 0 }

// Clone returns a deep copy of the question.
func (q *Question) Clone() *Question {
	if q == nil {
		return nil
	}
	clone := *q
	clone.Bounty = cloneBigInt(q.Bounty)
	clone.MinBond = cloneBigInt(q.MinBond)
	clone.LastBond = cloneBigInt(q.LastBond)
	clone.Context.Amount = cloneBigInt(q.Context.Amount)
	return &clone
}

// QuestionParams carries the caller-supplied fields of AskQuestion. The bounty
// is the value attached to the call.
type QuestionParams struct {
	TemplateID uint64
	Content    string
	Timeout    uint32
	MinBond    *big.Int
	Context    DisputeContext
}

// HistoryEntry is one answer of a question as replayed by a claimant. Prev is
// the history hash that was current before the answer was accepted.
type HistoryEntry struct {
	Prev     [32]byte
	Answerer [20]byte
	Bond     *big.Int
	Answer   [32]byte
}

// HistoryHash links an answer onto the previous head:
// keccak256(prev, answer, bond, answerer, false).
func HistoryHash(prev, answer [32]byte, bond *big.Int, answerer [20]byte) [32]byte {
	return crypto.NewPacker().
		Hash(prev).
		Hash(answer).
		Big(bond).
		Address(answerer).
		Bool(false).
		Sum()
}

// QuestionID derives a question identifier:
// keccak256(templateID, contentHash, arbitrator, timeout, openingTS, asker, nonce).
func QuestionID(templateID uint64, contentHash [32]byte, arbitrator [20]byte, timeout uint32, openingTS int64, asker [20]byte, nonce uint64) [32]byte {
	return crypto.NewPacker().
		Uint64(templateID).
		Hash(contentHash).
		Address(arbitrator).
		Uint32(timeout).
		Uint32(uint32(openingTS)).
		Address(asker).
		Uint64(nonce).
		Sum()
}

// ContentHash hashes the question content together with its opening time and
// template.
func ContentHash(templateID uint64, openingTS int64, content string) [32]byte {
	return crypto.NewPacker().Uint64(templateID).Uint32(uint32(openingTS)).Bytes([]byte(content)).Sum()
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
