package rpc

import (
	"math/big"
	"net/http"

	"github.com/go-chi/chi/v5"

	"crosstrade/native/arbitration"
	"crosstrade/native/escrow"
)

type createRequestBody struct {
	Nonce            string `json:"nonce"`
	DepositToken     string `json:"depositToken"`
	DepositAmount    string `json:"depositAmount"`
	RequestedToken   string `json:"requestedToken"`
	RequestedAmount  string `json:"requestedAmount"`
	RequestedChainID uint64 `json:"requestedChainId"`
	Recipient        string `json:"recipient"`
	Value            string `json:"value"`
}

type valueBody struct {
	Value string `json:"value"`
}

type createOfferBody struct {
	Amount string `json:"amount"`
}

type disputeBody struct {
	TemplateID uint64 `json:"templateId"`
	Content    string `json:"content"`
	TxRef      string `json:"txRef"`
	Value      string `json:"value"`
}

type disputeQuestionBody struct {
	TemplateID         uint64 `json:"templateId"`
	Content            string `json:"content"`
	TxRef              string `json:"txRef"`
	Challenger         string `json:"challenger"`
	Recipient          string `json:"recipient"`
	Token              string `json:"token"`
	Amount             string `json:"amount"`
	DestinationChainID uint64 `json:"destinationChainId"`
	Value              string `json:"value"`
}

// historyEntryBody is one answer of a replayed history, newest first. Prev is
// the history hash that preceded the answer.
type historyEntryBody struct {
	Prev     string `json:"prev"`
	Answerer string `json:"answerer"`
	Bond     string `json:"bond"`
	Answer   string `json:"answer"`
}

type claimDisputeBody struct {
	QuestionID string             `json:"questionId"`
	History    []historyEntryBody `json:"history"`
}

func (s *Server) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	var body createRequestBody
	if apiErr := decodeBody(r, &body); apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	params, apiErr := body.params()
	if apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	call, apiErr := callFrom(r, body.Value)
	if apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	id, err := s.chain.DepositAndRequest(r.Context(), call, params)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"requestId": formatHash(id)})
}

func (b createRequestBody) params() (escrow.RequestParams, *APIError) {
	var (
		p      escrow.RequestParams
		apiErr *APIError
	)
	if p.Nonce, apiErr = parseAmount("nonce", b.Nonce); apiErr != nil {
		return p, apiErr
	}
	if p.DepositToken, apiErr = parseToken("depositToken", b.DepositToken); apiErr != nil {
		return p, apiErr
	}
	if p.DepositAmount, apiErr = parseAmount("depositAmount", b.DepositAmount); apiErr != nil {
		return p, apiErr
	}
	if p.RequestedToken, apiErr = parseToken("requestedToken", b.RequestedToken); apiErr != nil {
		return p, apiErr
	}
	if p.RequestedAmount, apiErr = parseAmount("requestedAmount", b.RequestedAmount); apiErr != nil {
		return p, apiErr
	}
	if p.Recipient, apiErr = parseAddress("recipient", b.Recipient); apiErr != nil {
		return p, apiErr
	}
	p.RequestedChainID = b.RequestedChainID
	return p, nil
}

func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	id, apiErr := parseHash("id", chi.URLParam(r, "id"))
	if apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	req, offers, err := s.chain.Request(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, requestResult(req, offers))
}

func (s *Server) handleRequestsOf(w http.ResponseWriter, r *http.Request) {
	requester, apiErr := parseAddress("address", chi.URLParam(r, "address"))
	if apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	ids, err := s.chain.RequestsOf(r.Context(), requester)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, formatHash(id))
	}
	writeJSON(w, http.StatusOK, map[string][]string{"requests": out})
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	id, apiErr := parseHash("id", chi.URLParam(r, "id"))
	if apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	call, apiErr := callFrom(r, "")
	if apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	amount, err := s.chain.WithdrawDeposit(r.Context(), call, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"withdrawn": formatAmount(amount)})
}

func (s *Server) handleCreateOffer(w http.ResponseWriter, r *http.Request) {
	id, apiErr := parseHash("id", chi.URLParam(r, "id"))
	if apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	var body createOfferBody
	if apiErr := decodeBody(r, &body); apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	amount, apiErr := parseAmount("amount", body.Amount)
	if apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	call, apiErr := callFrom(r, "")
	if apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	index, err := s.chain.CreateOffer(r.Context(), call, id, amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"requestId": formatHash(id), "index": index})
}

func offerTarget(r *http.Request) ([32]byte, uint64, *APIError) {
	id, apiErr := parseHash("id", chi.URLParam(r, "id"))
	if apiErr != nil {
		return id, 0, apiErr
	}
	index, apiErr := parseUint("index", chi.URLParam(r, "index"))
	if apiErr != nil {
		return id, 0, apiErr
	}
	return id, index, nil
}

func (s *Server) handleGetOffer(w http.ResponseWriter, r *http.Request) {
	id, index, apiErr := offerTarget(r)
	if apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	offer, err := s.chain.Offer(r.Context(), id, index)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, offerResult(offer))
}

// offerTransition runs one of the offer operations that take no body and
// answers with the offer's resulting state.
func (s *Server) offerTransition(w http.ResponseWriter, r *http.Request, run func(r *http.Request, id [32]byte, index uint64) error) {
	id, index, apiErr := offerTarget(r)
	if apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	if err := run(r, id, index); err != nil {
		s.writeError(w, r, err)
		return
	}
	offer, err := s.chain.Offer(r.Context(), id, index)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, offerResult(offer))
}

func (s *Server) handleAcceptOffer(w http.ResponseWriter, r *http.Request) {
	s.offerTransition(w, r, func(r *http.Request, id [32]byte, index uint64) error {
		call, apiErr := callFrom(r, "")
		if apiErr != nil {
			return apiErr
		}
		return s.chain.AcceptOffer(r.Context(), call, id, index)
	})
}

func (s *Server) handleRejectOffer(w http.ResponseWriter, r *http.Request) {
	s.offerTransition(w, r, func(r *http.Request, id [32]byte, index uint64) error {
		call, apiErr := callFrom(r, "")
		if apiErr != nil {
			return apiErr
		}
		return s.chain.RejectOffer(r.Context(), call, id, index)
	})
}

func (s *Server) handlePayOnChain(w http.ResponseWriter, r *http.Request) {
	var body valueBody
	if r.ContentLength != 0 {
		if apiErr := decodeBody(r, &body); apiErr != nil {
			s.writeError(w, r, apiErr)
			return
		}
	}
	s.offerTransition(w, r, func(r *http.Request, id [32]byte, index uint64) error {
		call, apiErr := callFrom(r, body.Value)
		if apiErr != nil {
			return apiErr
		}
		return s.chain.PayOnChain(r.Context(), call, id, index)
	})
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	s.offerTransition(w, r, func(r *http.Request, id [32]byte, index uint64) error {
		call, apiErr := callFrom(r, "")
		if apiErr != nil {
			return apiErr
		}
		return s.chain.ClaimWithoutDispute(r.Context(), call, id, index)
	})
}

func (s *Server) handleDispute(w http.ResponseWriter, r *http.Request) {
	id, index, apiErr := offerTarget(r)
	if apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	var body disputeBody
	if apiErr := decodeBody(r, &body); apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	call, apiErr := callFrom(r, body.Value)
	if apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	questionID, err := s.chain.RaiseDispute(r.Context(), call, id, index, escrow.DisputeParams{
		TemplateID: body.TemplateID,
		Content:    body.Content,
		TxRef:      body.TxRef,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"questionId": formatHash(questionID)})
}

func (s *Server) handleClaimDispute(w http.ResponseWriter, r *http.Request) {
	var body claimDisputeBody
	if apiErr := decodeBody(r, &body); apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	questionID, apiErr := parseHash("questionId", body.QuestionID)
	if apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	entries, apiErr := parseHistory(body.History)
	if apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	hashes := make([][32]byte, len(entries))
	answerers := make([][20]byte, len(entries))
	bonds := make([]*big.Int, len(entries))
	answers := make([][32]byte, len(entries))
	for i, entry := range entries {
		hashes[i], answerers[i], bonds[i], answers[i] = entry.Prev, entry.Answerer, entry.Bond, entry.Answer
	}
	s.offerTransition(w, r, func(r *http.Request, id [32]byte, index uint64) error {
		call, apiErr := callFrom(r, "")
		if apiErr != nil {
			return apiErr
		}
		return s.chain.ClaimWithDispute(r.Context(), call, id, index, questionID, hashes, answerers, bonds, answers)
	})
}

func (s *Server) handleCreateDisputeQuestion(w http.ResponseWriter, r *http.Request) {
	var body disputeQuestionBody
	if apiErr := decodeBody(r, &body); apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	challenger, apiErr := parseAddress("challenger", body.Challenger)
	if apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	recipient, apiErr := parseAddress("recipient", body.Recipient)
	if apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	token, apiErr := parseToken("token", body.Token)
	if apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	amount, apiErr := parseAmount("amount", body.Amount)
	if apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	call, apiErr := callFrom(r, body.Value)
	if apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	id, err := s.chain.CreateQuestion(r.Context(), call, body.TemplateID, body.Content, body.TxRef, challenger, recipient, token, amount, body.DestinationChainID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"questionId": formatHash(id)})
}

func parseHistory(raw []historyEntryBody) ([]arbitration.HistoryEntry, *APIError) {
	entries := make([]arbitration.HistoryEntry, 0, len(raw))
	for _, item := range raw {
		var (
			entry  arbitration.HistoryEntry
			apiErr *APIError
		)
		if entry.Prev, apiErr = parseHash("history.prev", item.Prev); apiErr != nil {
			return nil, apiErr
		}
		if entry.Answerer, apiErr = parseAddress("history.answerer", item.Answerer); apiErr != nil {
			return nil, apiErr
		}
		if entry.Bond, apiErr = parseAmount("history.bond", item.Bond); apiErr != nil {
			return nil, apiErr
		}
		if entry.Answer, apiErr = parseHash("history.answer", item.Answer); apiErr != nil {
			return nil, apiErr
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
