package escrow

import (
	"fmt"
	"math/big"

	protoerrors "crosstrade/core/errors"
	"crosstrade/core/events"
	"crosstrade/native/arbitration"
	"crosstrade/native/common"
	"crosstrade/observability/metrics"
)

func (e *Engine) withOracle() (disputeOracle, error) {
	if e.oracle == nil {
		return nil, fmt.Errorf("%w: arbitration oracle", protoerrors.ErrNotConfigured)
	}
	return e.oracle, nil
}

// disputeLost reports whether the question finalized against the claimant.
func (e *Engine) disputeLost(questionID [32]byte) (bool, error) {
	oracle, err := e.withOracle()
	if err != nil {
		return false, err
	}
	finalized, err := oracle.IsFinalized(questionID)
	if err != nil || !finalized {
		return false, err
	}
	final, err := oracle.FinalAnswer(questionID)
	if err != nil {
		return false, err
	}
	return final != e.params.ClaimAcceptedAnswer, nil
}

// CreateQuestion asks the oracle to arbitrate whether a cross-chain payment
// happened. The attached value funds the question. The question is not linked
// to any offer; RaiseDispute does both in one call.
func (e *Engine) CreateQuestion(call common.Call, templateID uint64, content, txRef string, challenger, recipient, token [20]byte, amount *big.Int, destinationChainID uint64) ([32]byte, error) {
	if err := e.begin(call, true); err != nil {
		return [32]byte{}, err
	}
	oracle, err := e.withOracle()
	if err != nil {
		return [32]byte{}, err
	}
	return oracle.AskQuestion(call, arbitration.QuestionParams{
		TemplateID: templateID,
		Content:    content,
		Context: arbitration.DisputeContext{
			Challenger:         challenger,
			Recipient:          recipient,
			Token:              token,
			Amount:             cloneBigInt(amount),
			DestinationChainID: destinationChainID,
			TxRef:              txRef,
		},
	})
}

// RaiseDispute lets the requester challenge an accepted cross-chain offer
// before it is claimed. It asks an oracle question, funded by the attached
// value, and attaches it to the offer; from then on the offer can only be
// settled through ClaimWithDispute.
func (e *Engine) RaiseDispute(call common.Call, requestID [32]byte, index uint64, params DisputeParams) ([32]byte, error) {
	if err := e.begin(call, true); err != nil {
		return [32]byte{}, err
	}
	oracle, err := e.withOracle()
	if err != nil {
		return [32]byte{}, err
	}
	req, offer, err := e.loadOffer(requestID, index)
	if err != nil {
		return [32]byte{}, err
	}
	if req.Requester != call.Caller {
		return [32]byte{}, protoerrors.ErrNotRequester
	}
	if err := checkPayable(offer); err != nil {
		return [32]byte{}, err
	}
	if req.RequestedChainID == e.params.ChainID {
		return [32]byte{}, fmt.Errorf("%w: on-chain offers cannot be disputed", protoerrors.ErrWrongChain)
	}
	if offer.Disputed() {
		return [32]byte{}, protoerrors.ErrAlreadyDisputed
	}
	questionID, err := oracle.AskQuestion(call, arbitration.QuestionParams{
		TemplateID: params.TemplateID,
		Content:    params.Content,
		Context: arbitration.DisputeContext{
			Challenger:         call.Caller,
			Recipient:          req.Recipient,
			Token:              req.RequestedToken,
			Amount:             cloneBigInt(offer.Amount),
			DestinationChainID: req.RequestedChainID,
			RequestID:          requestID,
			OfferIndex:         index,
			TxRef:              params.TxRef,
		},
	})
	if err != nil {
		return [32]byte{}, err
	}
	offer.Path = ClaimPathCrossChainDisputed
	offer.QuestionID = questionID
	if err := e.state.EscrowOfferPut(offer); err != nil {
		return [32]byte{}, err
	}
	e.emit(NewOfferDisputedEvent(offer))
	return questionID, nil
}

// ClaimWithDispute settles a disputed offer once its question is finalized.
// The caller replays the answer history newest first; historyHashes[i] is the
// head that preceded answer i. The claim succeeds only if the replay matches
// the stored head and the final answer is the configured accepted answer.
func (e *Engine) ClaimWithDispute(call common.Call, requestID [32]byte, index uint64, questionID [32]byte, historyHashes [][32]byte, answerers [][20]byte, bonds []*big.Int, answers [][32]byte) error {
	if err := e.begin(call, false); err != nil {
		return err
	}
	oracle, err := e.withOracle()
	if err != nil {
		return err
	}
	req, offer, err := e.loadOffer(requestID, index)
	if err != nil {
		return err
	}
	if err := checkPayable(offer); err != nil {
		return err
	}
	if offer.Creator != call.Caller {
		return protoerrors.ErrNotOfferer
	}
	if !offer.Disputed() {
		return protoerrors.ErrNotDisputed
	}
	if offer.QuestionID != questionID {
		return protoerrors.ErrQuestionMismatch
	}
	finalized, err := oracle.IsFinalized(questionID)
	if err != nil {
		return err
	}
	if !finalized {
		return protoerrors.ErrNotFinalized
	}
	entries, err := arbitration.EntriesFromArrays(historyHashes, answerers, bonds, answers)
	if err != nil {
		return err
	}
	head, err := oracle.HistoryHash(questionID)
	if err != nil {
		return err
	}
	final, err := arbitration.VerifyHistory(head, entries)
	if err != nil {
		if protoerrors.Is(err, protoerrors.ErrHistoryMismatch) {
			e.logger.Warn("escrow: dispute claim history mismatch",
				"requestId", events.FormatHash(requestID),
				"offerIndex", index,
				"questionId", events.FormatHash(questionID),
				"claimant", events.FormatAddress(call.Caller),
				"entries", len(entries),
				"error", err)
			metrics.Escrow().RecordHistoryMismatch()
		}
		return err
	}
	if final != e.params.ClaimAcceptedAnswer {
		metrics.Escrow().RecordClaimRejected()
		return fmt.Errorf("%w: final answer %s", protoerrors.ErrClaimRejected, events.FormatHash(final))
	}
	reward, err := e.settle(req, offer, ClaimPathCrossChainDisputed)
	if err != nil {
		return err
	}
	e.emit(NewOfferPaidCrossChainEvent(req, offer, reward))
	return nil
}
