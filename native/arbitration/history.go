package arbitration

import (
	"fmt"
	"math/big"

	protoerrors "crosstrade/core/errors"
	"crosstrade/crypto"
)

// EntriesFromArrays zips the parallel arrays a claimant submits into history
// entries. historyHashes[i] is the head that preceded answer i.
func EntriesFromArrays(historyHashes [][32]byte, answerers [][20]byte, bonds []*big.Int, answers [][32]byte) ([]HistoryEntry, error) {
	n := len(historyHashes)
	if len(answerers) != n || len(bonds) != n || len(answers) != n {
		return nil, fmt.Errorf("%w: hashes=%d answerers=%d bonds=%d answers=%d",
			protoerrors.ErrInvalidHistory, n, len(answerers), len(bonds), len(answers))
	}
	entries := make([]HistoryEntry, n)
	for i := 0; i < n; i++ {
		if bonds[i] != nil && !crypto.FitsUint256(bonds[i]) {
			return nil, fmt.Errorf("%w: bond %d out of range", protoerrors.ErrInvalidHistory, i)
		}
		entries[i] = HistoryEntry{
			Prev:     historyHashes[i],
			Answerer: answerers[i],
			Bond:     cloneBigInt(bonds[i]),
			Answer:   answers[i],
		}
	}
	return entries, nil
}

// VerifyHistory replays entries, newest first, against head. Each entry must
// hash onto the current cursor, after which the cursor steps back to the
// entry's Prev; the replay has to end at the zero hash. It returns the answer
// of the first entry, which is the last one accepted, or AnswerUnanswered for
// an empty history.
func VerifyHistory(head [32]byte, entries []HistoryEntry) ([32]byte, error) {
	cursor := head
	for i, entry := range entries {
		if entry.Bond == nil || entry.Bond.Sign() <= 0 {
			return [32]byte{}, fmt.Errorf("%w: step %d has no bond", protoerrors.ErrHistoryMismatch, i)
		}
		if !crypto.FitsUint256(entry.Bond) {
			return [32]byte{}, fmt.Errorf("%w: step %d bond out of range", protoerrors.ErrInvalidHistory, i)
		}
		if HistoryHash(entry.Prev, entry.Answer, entry.Bond, entry.Answerer) != cursor {
			return [32]byte{}, fmt.Errorf("%w: step %d", protoerrors.ErrHistoryMismatch, i)
		}
		cursor = entry.Prev
	}
	if cursor != ([32]byte{}) {
		return [32]byte{}, fmt.Errorf("%w: replay ended before the first answer", protoerrors.ErrHistoryMismatch)
	}
	if len(entries) == 0 {
		return AnswerUnanswered, nil
	}
	return entries[0].Answer, nil
}
