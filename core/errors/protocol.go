package errors

var (
	ErrRequestNotFound  = New(KindNotFound, "RequestNotFound", "escrow: request not found")
	ErrOfferNotFound    = New(KindNotFound, "OfferNotFound", "escrow: offer not found")
	ErrQuestionNotFound = New(KindNotFound, "QuestionNotFound", "arbitration: question not found")
	ErrPaymentNotFound  = New(KindNotFound, "PaymentNotFound", "relay: payment not found")

	ErrDuplicateNonce               = New(KindAlreadyExists, "DuplicateNonce", "escrow: request nonce already used")
	ErrAlreadyAccepted              = New(KindAlreadyExists, "AlreadyAccepted", "escrow: offer already accepted")
	ErrOfferAlreadyExistsForRequest = New(KindAlreadyExists, "OfferAlreadyExistsForRequest", "escrow: another offer is accepted for this request")
	ErrPaymentExists                = New(KindAlreadyExists, "PaymentExists", "relay: payment already recorded")
	ErrAlreadyDisputed              = New(KindAlreadyExists, "AlreadyDisputed", "escrow: offer already disputed")

	ErrNotRequester = New(KindUnauthorized, "NotRequester", "escrow: caller is not the requester")
	ErrNotOfferer   = New(KindUnauthorized, "NotOfferer", "escrow: caller is not the offer creator")

	ErrNotAccepted              = New(KindInvalidState, "NotAccepted", "escrow: offer not accepted")
	ErrAlreadyPaid              = New(KindInvalidState, "AlreadyPaid", "escrow: offer already paid")
	ErrRequestSettled           = New(KindInvalidState, "RequestSettled", "escrow: request already settled")
	ErrNotSettled               = New(KindInvalidState, "NotSettled", "escrow: request not settled")
	ErrDisputed                 = New(KindInvalidState, "Disputed", "escrow: offer is under dispute")
	ErrNotDisputed              = New(KindInvalidState, "NotDisputed", "escrow: offer has no dispute question")
	ErrQuestionMismatch         = New(KindInvalidState, "QuestionMismatch", "escrow: question does not belong to offer")
	ErrClaimRejected            = New(KindInvalidState, "ClaimRejected", "escrow: claim rejected by arbitration")
	ErrNotFinalized             = New(KindInvalidState, "NotFinalized", "arbitration: question not finalized")
	ErrQuestionAlreadyFinalized = New(KindInvalidState, "QuestionAlreadyFinalized", "arbitration: question already finalized")
	ErrAlreadyClaimed           = New(KindInvalidState, "AlreadyClaimed", "arbitration: winnings already claimed")
	ErrNothingToWithdraw        = New(KindInvalidState, "NothingToWithdraw", "escrow: no deposit left to withdraw")

	ErrInsufficientStake     = New(KindInsufficientFunds, "InsufficientStake", "collateral: insufficient stake")
	ErrInsufficientAllowance = New(KindInsufficientFunds, "InsufficientAllowance", "bank: insufficient allowance")
	ErrInsufficientBalance   = New(KindInsufficientFunds, "InsufficientBalance", "bank: insufficient balance")
	ErrInsufficientValue     = New(KindInsufficientFunds, "InsufficientValue", "insufficient attached value")
	ErrBondTooLow            = New(KindInsufficientFunds, "BondTooLow", "arbitration: bond too low")
	ErrFundingTooLow         = New(KindInsufficientFunds, "FundingTooLow", "arbitration: question funding too low")

	ErrAmountMismatch = New(KindAmountMismatch, "AmountMismatch", "attached value does not match amount")

	ErrHistoryMismatch = New(KindHistoryMismatch, "HistoryMismatch", "arbitration: answer history does not match stored head")

	ErrWrongChain = New(KindWrongChain, "WrongChain", "escrow: destination chain mismatch")

	ErrInvalidAmount  = New(KindInvalid, "InvalidAmount", "amount must be positive")
	ErrInvalidHistory = New(KindInvalid, "InvalidHistory", "arbitration: history arrays have mismatched lengths")
	ErrBondChanged    = New(KindInvalid, "BondChanged", "arbitration: current bond exceeds caller's max previous")
	ErrZeroAddress    = New(KindInvalid, "ZeroAddress", "address must not be zero")
	ErrNotConfigured  = New(KindInvalid, "NotConfigured", "component not configured")
)
