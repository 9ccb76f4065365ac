package rpc

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"crosstrade/native/relay"
)

type relayPayBody struct {
	RequestID      string `json:"requestId"`
	OfferIndex     uint64 `json:"offerIndex"`
	DepositChainID uint64 `json:"depositChainId"`
	Token          string `json:"token"`
	Recipient      string `json:"recipient"`
	Amount         string `json:"amount"`
	Value          string `json:"value"`
}

func (s *Server) handleRelayPay(w http.ResponseWriter, r *http.Request) {
	var body relayPayBody
	if apiErr := decodeBody(r, &body); apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	requestID, apiErr := parseHash("requestId", body.RequestID)
	if apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	token, apiErr := parseToken("token", body.Token)
	if apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	recipient, apiErr := parseAddress("recipient", body.Recipient)
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
	id, err := s.chain.RelayPay(r.Context(), call, relay.PaymentParams{
		RequestID:      requestID,
		OfferIndex:     body.OfferIndex,
		DepositChainID: body.DepositChainID,
		Token:          token,
		Recipient:      recipient,
		Amount:         amount,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"paymentId": formatHash(id)})
}

func (s *Server) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	id, apiErr := parseHash("id", chi.URLParam(r, "id"))
	if apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	payment, err := s.chain.Payment(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, paymentResult(payment))
}
