package escrow

import (
	"fmt"
	"math/big"

	protoerrors "crosstrade/core/errors"
	"crosstrade/native/bank"
	"crosstrade/native/common"
	"crosstrade/observability/metrics"
)

const bpsDenominator = 10_000

// Reward computes the settlement reward of an offer: amount × rate / 10000,
// truncated and capped by what is left of the deposit.
func Reward(offerAmount *big.Int, rateBps uint32, remaining *big.Int) *big.Int {
	reward := new(big.Int).Mul(cloneBigInt(offerAmount), new(big.Int).SetUint64(uint64(rateBps)))
	reward.Quo(reward, big.NewInt(bpsDenominator))
	if remaining != nil && reward.Cmp(remaining) > 0 {
		reward.Set(remaining)
	}
	if reward.Sign() < 0 {
		reward.SetInt64(0)
	}
	return reward
}

// PayOnChain settles an accepted offer whose requested asset lives on the
// local chain: the offerer pays the recipient within the call.
func (e *Engine) PayOnChain(call common.Call, requestID [32]byte, index uint64) error {
	if err := e.begin(call, true); err != nil {
		return err
	}
	req, offer, err := e.loadOffer(requestID, index)
	if err != nil {
		return err
	}
	if err := checkPayable(offer); err != nil {
		return err
	}
	if req.RequestedChainID != e.params.ChainID {
		return fmt.Errorf("%w: requested chain %d, local chain %d", protoerrors.ErrWrongChain, req.RequestedChainID, e.params.ChainID)
	}
	if offer.Creator != call.Caller {
		return protoerrors.ErrNotOfferer
	}
	asset := req.RequestedAsset()
	switch asset.Kind {
	case bank.AssetNative:
		if value := call.AttachedValue(); value.Cmp(offer.Amount) != 0 {
			return fmt.Errorf("%w: attached %s, offer %s", protoerrors.ErrAmountMismatch, value, offer.Amount)
		}
		if err := e.tokens.Transfer(bank.NativeToken, call.Caller, req.Recipient, offer.Amount); err != nil {
			return fmt.Errorf("escrow: pay: %w", err)
		}
	default:
		if err := common.RequireNoValue(call); err != nil {
			return err
		}
		if err := e.tokens.TransferFrom(asset.Token, e.vault, call.Caller, req.Recipient, offer.Amount); err != nil {
			return fmt.Errorf("escrow: pay: %w", err)
		}
	}
	reward, err := e.settle(req, offer, ClaimPathOnChain)
	if err != nil {
		return err
	}
	e.emit(NewOfferPaidOnChainEvent(req, offer, reward))
	return nil
}

// ClaimWithoutDispute settles a cross-chain offer on the offerer's own report
// that the recipient was paid on the requested chain.
func (e *Engine) ClaimWithoutDispute(call common.Call, requestID [32]byte, index uint64) error {
	if err := e.begin(call, false); err != nil {
		return err
	}
	req, offer, err := e.loadOffer(requestID, index)
	if err != nil {
		return err
	}
	if err := checkPayable(offer); err != nil {
		return err
	}
	if req.RequestedChainID == e.params.ChainID {
		return fmt.Errorf("%w: requested chain is local, use PayOnChain", protoerrors.ErrWrongChain)
	}
	if offer.Creator != call.Caller {
		return protoerrors.ErrNotOfferer
	}
	if offer.Disputed() {
		return protoerrors.ErrDisputed
	}
	reward, err := e.settle(req, offer, ClaimPathCrossChainTrusted)
	if err != nil {
		return err
	}
	e.emit(NewOfferPaidCrossChainEvent(req, offer, reward))
	return nil
}

// WithdrawDeposit returns what is left of the deposit to the requester once
// the request is settled.
func (e *Engine) WithdrawDeposit(call common.Call, requestID [32]byte) (*big.Int, error) {
	if err := e.begin(call, false); err != nil {
		return nil, err
	}
	req, err := e.loadRequest(requestID)
	if err != nil {
		return nil, err
	}
	if req.Requester != call.Caller {
		return nil, protoerrors.ErrNotRequester
	}
	if !req.Settled {
		return nil, protoerrors.ErrNotSettled
	}
	if req.Remaining.Sign() == 0 {
		return nil, protoerrors.ErrNothingToWithdraw
	}
	amount := new(big.Int).Set(req.Remaining)
	if err := bank.Pay(e.tokens, req.DepositAsset(), e.vault, req.Requester, amount); err != nil {
		return nil, fmt.Errorf("escrow: withdraw: %w", err)
	}
	req.Remaining.SetInt64(0)
	if err := e.state.EscrowRequestPut(req); err != nil {
		return nil, err
	}
	e.emit(NewDepositWithdrawnEvent(req, amount))
	return amount, nil
}

func checkPayable(offer *Offer) error {
	if !offer.IsAccepted {
		return protoerrors.ErrNotAccepted
	}
	if offer.IsPaid {
		return protoerrors.ErrAlreadyPaid
	}
	return nil
}

// settle issues the reward out of the escrowed deposit and marks the offer
// paid and the request settled.
func (e *Engine) settle(req *Request, offer *Offer, path ClaimPath) (*big.Int, error) {
	reward := Reward(offer.Amount, e.params.RewardRateBps, req.Remaining)
	if reward.Sign() > 0 {
		if e.stakes != nil && req.DepositToken == e.stakes.ReserveToken() {
			if err := e.stakes.Credit(e.vault, offer.Creator, req.RequestedChainID, reward); err != nil {
				return nil, fmt.Errorf("escrow: reward: %w", err)
			}
		} else if err := bank.Pay(e.tokens, req.DepositAsset(), e.vault, offer.Creator, reward); err != nil {
			return nil, fmt.Errorf("escrow: reward: %w", err)
		}
		req.Remaining.Sub(req.Remaining, reward)
	}
	offer.IsPaid = true
	offer.Path = path
	offer.PaidAt = e.now()
	req.Settled = true
	if err := e.state.EscrowOfferPut(offer); err != nil {
		return nil, err
	}
	if err := e.state.EscrowRequestPut(req); err != nil {
		return nil, err
	}
	metrics.Escrow().RecordSettlement(path.String())
	return reward, nil
}
