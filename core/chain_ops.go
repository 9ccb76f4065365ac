package core

import (
	"context"
	"math/big"

	"crosstrade/native/arbitration"
	"crosstrade/native/common"
	"crosstrade/native/escrow"
	"crosstrade/native/relay"
)

// Stake locks reserve tokens of the caller as collateral.
func (c *Chain) Stake(ctx context.Context, call common.Call, chainID uint64, amount *big.Int) error {
	return c.Exec(ctx, "stake", func() error {
		return c.stakes.Stake(call, chainID, amount)
	})
}

// Unstake releases collateral back to the caller.
func (c *Chain) Unstake(ctx context.Context, call common.Call, chainID uint64, amount *big.Int) error {
	return c.Exec(ctx, "unstake", func() error {
		return c.stakes.Unstake(call, chainID, amount)
	})
}

// DepositAndRequest escrows the caller's deposit and opens a request.
func (c *Chain) DepositAndRequest(ctx context.Context, call common.Call, params escrow.RequestParams) ([32]byte, error) {
	var id [32]byte
	err := c.Exec(ctx, "deposit_and_request", func() error {
		var err error
		id, err = c.escrow.DepositAndRequest(call, params)
		return err
	})
	return id, err
}

// CreateOffer opens an offer against a request.
func (c *Chain) CreateOffer(ctx context.Context, call common.Call, requestID [32]byte, amount *big.Int) (uint64, error) {
	var index uint64
	err := c.Exec(ctx, "create_offer", func() error {
		var err error
		index, err = c.escrow.CreateOffer(call, requestID, amount)
		return err
	})
	return index, err
}

// AcceptOffer marks an offer as the accepted one.
func (c *Chain) AcceptOffer(ctx context.Context, call common.Call, requestID [32]byte, index uint64) error {
	return c.Exec(ctx, "accept_offer", func() error {
		return c.escrow.AcceptOffer(call, requestID, index)
	})
}

// RejectOffer withdraws a previous acceptance.
func (c *Chain) RejectOffer(ctx context.Context, call common.Call, requestID [32]byte, index uint64) error {
	return c.Exec(ctx, "reject_offer", func() error {
		return c.escrow.RejectOffer(call, requestID, index)
	})
}

// PayOnChain settles a local offer atomically.
func (c *Chain) PayOnChain(ctx context.Context, call common.Call, requestID [32]byte, index uint64) error {
	return c.Exec(ctx, "pay_onchain", func() error {
		return c.escrow.PayOnChain(call, requestID, index)
	})
}

// ClaimWithoutDispute settles a cross-chain offer on its creator's word.
func (c *Chain) ClaimWithoutDispute(ctx context.Context, call common.Call, requestID [32]byte, index uint64) error {
	return c.Exec(ctx, "claim_without_dispute", func() error {
		return c.escrow.ClaimWithoutDispute(call, requestID, index)
	})
}

// RaiseDispute attaches an arbitration question to an accepted offer.
func (c *Chain) RaiseDispute(ctx context.Context, call common.Call, requestID [32]byte, index uint64, params escrow.DisputeParams) ([32]byte, error) {
	var questionID [32]byte
	err := c.Exec(ctx, "raise_dispute", func() error {
		var err error
		questionID, err = c.escrow.RaiseDispute(call, requestID, index, params)
		return err
	})
	return questionID, err
}

// ClaimWithDispute settles a disputed offer once its question finalized in
// the claimant's favour.
func (c *Chain) ClaimWithDispute(ctx context.Context, call common.Call, requestID [32]byte, index uint64, questionID [32]byte, historyHashes [][32]byte, answerers [][20]byte, bonds []*big.Int, answers [][32]byte) error {
	return c.Exec(ctx, "claim_with_dispute", func() error {
		return c.escrow.ClaimWithDispute(call, requestID, index, questionID, historyHashes, answerers, bonds, answers)
	})
}

// WithdrawDeposit returns what is left of a settled request's deposit.
func (c *Chain) WithdrawDeposit(ctx context.Context, call common.Call, requestID [32]byte) (*big.Int, error) {
	var amount *big.Int
	err := c.Exec(ctx, "withdraw_deposit", func() error {
		var err error
		amount, err = c.escrow.WithdrawDeposit(call, requestID)
		return err
	})
	return amount, err
}

// CreateQuestion asks a free-standing dispute question funded by the caller.
func (c *Chain) CreateQuestion(ctx context.Context, call common.Call, templateID uint64, content, txRef string, challenger, recipient, token [20]byte, amount *big.Int, destinationChainID uint64) ([32]byte, error) {
	var id [32]byte
	err := c.Exec(ctx, "create_question", func() error {
		var err error
		id, err = c.escrow.CreateQuestion(call, templateID, content, txRef, challenger, recipient, token, amount, destinationChainID)
		return err
	})
	return id, err
}

// RelayPay records a payment on the destination chain.
func (c *Chain) RelayPay(ctx context.Context, call common.Call, params relay.PaymentParams) ([32]byte, error) {
	var id [32]byte
	err := c.Exec(ctx, "relay_pay", func() error {
		var err error
		id, err = c.relay.Pay(call, params)
		return err
	})
	return id, err
}

// AskQuestion opens a question directly on the oracle.
func (c *Chain) AskQuestion(ctx context.Context, call common.Call, params arbitration.QuestionParams) ([32]byte, error) {
	var id [32]byte
	err := c.Exec(ctx, "ask_question", func() error {
		var err error
		id, err = c.oracle.AskQuestion(call, params)
		return err
	})
	return id, err
}

// SubmitAnswer posts a bonded answer to a question.
func (c *Chain) SubmitAnswer(ctx context.Context, call common.Call, questionID, answer [32]byte, maxPrevious *big.Int) error {
	return c.Exec(ctx, "submit_answer", func() error {
		return c.oracle.SubmitAnswer(call, questionID, answer, maxPrevious)
	})
}

// ClaimWinnings pays out bounty and bonds of a finalized question.
func (c *Chain) ClaimWinnings(ctx context.Context, call common.Call, questionID [32]byte, entries []arbitration.HistoryEntry) error {
	return c.Exec(ctx, "claim_winnings", func() error {
		return c.oracle.ClaimWinnings(call, questionID, entries)
	})
}

// Approve sets the caller's allowance for spender.
func (c *Chain) Approve(ctx context.Context, call common.Call, token, spender [20]byte, amount *big.Int) error {
	return c.Exec(ctx, "approve", func() error {
		if err := common.RequireNoValue(call); err != nil {
			return err
		}
		return c.tokens.Approve(token, call.Caller, spender, amount)
	})
}

// Transfer moves tokens, or native value when token is zero, from the caller.
func (c *Chain) Transfer(ctx context.Context, call common.Call, token, to [20]byte, amount *big.Int) error {
	return c.Exec(ctx, "transfer", func() error {
		if err := common.RequireNoValue(call); err != nil {
			return err
		}
		return c.tokens.Transfer(token, call.Caller, to, amount)
	})
}

// Balance reads a balance from committed state.
func (c *Chain) Balance(ctx context.Context, token, owner [20]byte) (*big.Int, error) {
	var balance *big.Int
	err := c.View(ctx, func() error {
		var err error
		balance, err = c.tokens.BalanceOf(token, owner)
		return err
	})
	return balance, err
}

// StakeOf reads the stake of addr in the scope of chainID.
func (c *Chain) StakeOf(ctx context.Context, addr [20]byte, chainID uint64) (*big.Int, error) {
	var stake *big.Int
	err := c.View(ctx, func() error {
		var err error
		stake, err = c.stakes.StakeOf(addr, chainID)
		return err
	})
	return stake, err
}

// TotalStaked reads the stake total in the scope of chainID.
func (c *Chain) TotalStaked(ctx context.Context, chainID uint64) (*big.Int, error) {
	var total *big.Int
	err := c.View(ctx, func() error {
		var err error
		total, err = c.stakes.TotalStaked(chainID)
		return err
	})
	return total, err
}

// Request returns a request with its offers.
func (c *Chain) Request(ctx context.Context, id [32]byte) (*escrow.Request, []*escrow.Offer, error) {
	var (
		req    *escrow.Request
		offers []*escrow.Offer
	)
	err := c.View(ctx, func() error {
		var err error
		if req, err = c.escrow.Request(id); err != nil {
			return err
		}
		offers, err = c.escrow.Offers(id)
		return err
	})
	return req, offers, err
}

// RequestsOf lists the requests opened by requester.
func (c *Chain) RequestsOf(ctx context.Context, requester [20]byte) ([][32]byte, error) {
	var ids [][32]byte
	err := c.View(ctx, func() error {
		var err error
		ids, err = c.escrow.RequestsOf(requester)
		return err
	})
	return ids, err
}

// Offer returns a single offer.
func (c *Chain) Offer(ctx context.Context, requestID [32]byte, index uint64) (*escrow.Offer, error) {
	var offer *escrow.Offer
	err := c.View(ctx, func() error {
		var err error
		offer, err = c.escrow.Offer(requestID, index)
		return err
	})
	return offer, err
}

// Payment returns a relay payment record.
func (c *Chain) Payment(ctx context.Context, id [32]byte) (*relay.Payment, error) {
	var payment *relay.Payment
	err := c.View(ctx, func() error {
		var err error
		payment, err = c.relay.Payment(id)
		return err
	})
	return payment, err
}

// QuestionView is a question together with its derived finalization state.
type QuestionView struct {
	Question     *arbitration.Question
	Finalized    bool
	RequiredBond *big.Int
}

// Question returns a question and whether it finalized.
func (c *Chain) Question(ctx context.Context, id [32]byte) (*QuestionView, error) {
	var view *QuestionView
	err := c.View(ctx, func() error {
		q, err := c.oracle.Question(id)
		if err != nil {
			return err
		}
		finalized, err := c.oracle.IsFinalized(id)
		if err != nil {
			return err
		}
		view = &QuestionView{Question: q, Finalized: finalized, RequiredBond: arbitration.RequiredBond(q)}
		return nil
	})
	return view, err
}
