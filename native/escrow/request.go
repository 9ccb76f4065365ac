package escrow

import (
	"fmt"
	"math/big"

	protoerrors "crosstrade/core/errors"
	"crosstrade/native/bank"
	"crosstrade/native/common"
	"crosstrade/observability/metrics"
)

// DepositAndRequest escrows the caller's deposit and records the request. A
// native deposit (zero DepositToken) is paid with the attached value, which
// must equal DepositAmount; token deposits are pulled with transferFrom
// against the allowance granted to the vault.
func (e *Engine) DepositAndRequest(call common.Call, params RequestParams) ([32]byte, error) {
	var id [32]byte
	if err := e.begin(call, true); err != nil {
		return id, err
	}
	p, err := SanitizeRequestParams(params)
	if err != nil {
		return id, err
	}
	id = RequestID(p.Nonce, call.Caller, p.DepositToken, p.DepositAmount, e.params.ChainID,
		p.RequestedToken, p.RequestedAmount, p.RequestedChainID, p.Recipient)
	if _, exists, err := e.state.EscrowRequestGet(id); err != nil {
		return [32]byte{}, err
	} else if exists {
		return [32]byte{}, protoerrors.ErrDuplicateNonce
	}
	used, err := e.state.EscrowNonceUsed(call.Caller, p.Nonce)
	if err != nil {
		return [32]byte{}, err
	}
	if used {
		return [32]byte{}, protoerrors.ErrDuplicateNonce
	}
	asset := bank.AssetOf(p.DepositToken)
	switch asset.Kind {
	case bank.AssetNative:
		if err := matchValue(call, p.DepositAmount); err != nil {
			return [32]byte{}, err
		}
		if err := bank.CollectValue(e.tokens, call, e.vault); err != nil {
			return [32]byte{}, fmt.Errorf("escrow: deposit: %w", err)
		}
	default:
		if err := common.RequireNoValue(call); err != nil {
			return [32]byte{}, err
		}
		if err := bank.Pull(e.tokens, asset.Token, call.Caller, e.vault, p.DepositAmount); err != nil {
			return [32]byte{}, fmt.Errorf("escrow: deposit: %w", err)
		}
	}
	req := &Request{
		ID:               id,
		Nonce:            p.Nonce,
		Requester:        call.Caller,
		DepositToken:     p.DepositToken,
		DepositAmount:    p.DepositAmount,
		DepositChainID:   e.params.ChainID,
		RequestedToken:   p.RequestedToken,
		RequestedAmount:  p.RequestedAmount,
		RequestedChainID: p.RequestedChainID,
		Recipient:        p.Recipient,
		IsRequest:        true,
		Remaining:        new(big.Int).Set(p.DepositAmount),
		CreatedAt:        e.now(),
	}
	if err := e.state.EscrowRequestPut(req); err != nil {
		return [32]byte{}, err
	}
	if err := e.state.EscrowMarkNonce(call.Caller, p.Nonce, id); err != nil {
		return [32]byte{}, err
	}
	e.emit(NewDepositCreatedEvent(req))
	e.emit(NewRequestCreatedEvent(req))
	metrics.Escrow().RecordRequest(asset.String())
	return id, nil
}

// Request returns a copy of the stored request.
func (e *Engine) Request(id [32]byte) (*Request, error) {
	req, err := e.loadRequest(id)
	if err != nil {
		return nil, err
	}
	return req.Clone(), nil
}

// RequestsOf lists the ids of requests created by requester, oldest first.
func (e *Engine) RequestsOf(requester [20]byte) ([][32]byte, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.state.EscrowRequestsOf(requester)
}

// Requester returns the address that created the request.
func (e *Engine) Requester(id [32]byte) ([20]byte, error) {
	req, err := e.loadRequest(id)
	if err != nil {
		return [20]byte{}, err
	}
	return req.Requester, nil
}

// Recipient returns the address receiving the requested asset.
func (e *Engine) Recipient(id [32]byte) ([20]byte, error) {
	req, err := e.loadRequest(id)
	if err != nil {
		return [20]byte{}, err
	}
	return req.Recipient, nil
}

// Deposit returns the deposit side of a request: token, amount and chain.
func (e *Engine) Deposit(id [32]byte) ([20]byte, *big.Int, uint64, error) {
	req, err := e.loadRequest(id)
	if err != nil {
		return [20]byte{}, nil, 0, err
	}
	return req.DepositToken, req.DepositAmount, req.DepositChainID, nil
}

// Requested returns the requested side of a request: token, amount and chain.
func (e *Engine) Requested(id [32]byte) ([20]byte, *big.Int, uint64, error) {
	req, err := e.loadRequest(id)
	if err != nil {
		return [20]byte{}, nil, 0, err
	}
	return req.RequestedToken, req.RequestedAmount, req.RequestedChainID, nil
}

// IsRequest reports whether id names a recorded request.
func (e *Engine) IsRequest(id [32]byte) (bool, error) {
	req, err := e.loadRequest(id)
	if err != nil {
		if protoerrors.Is(err, protoerrors.ErrRequestNotFound) {
			return false, nil
		}
		return false, err
	}
	return req.IsRequest, nil
}
