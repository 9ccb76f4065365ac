package rpc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"crosstrade/config"
	"crosstrade/core"
	"crosstrade/crypto"
	"crosstrade/gateway/middleware"
	"crosstrade/storage"
)

var (
	reserveToken = crypto.Address{19: 0xaa}
	wantedToken  = crypto.Address{19: 0xbb}
	requester    = crypto.Address{0: 0x01}
	offerer      = crypto.Address{0: 0x02}
	recipient    = crypto.Address{0: 0x03}
	answerer     = crypto.Address{0: 0x0d}
	zeroWord     = "0x" + strings.Repeat("00", 32)
)

type harness struct {
	chain  *core.Chain
	server *Server
	now    int64
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := config.Default()
	cfg.Chain.ReserveToken = reserveToken.Hex()
	cfg.Protocol.MinStake = "2"
	cfg.Genesis.Allocations = []config.Allocation{
		{Address: requester.Hex(), Token: reserveToken.Hex(), Amount: "10"},
		{Address: offerer.Hex(), Token: reserveToken.Hex(), Amount: "2"},
		{Address: requester.Hex(), Amount: "100"},
		{Address: answerer.Hex(), Amount: "100"},
	}
	h := &harness{now: 1_700_000_000}
	chain, err := core.NewChain(storage.NewMemDB(), cfg, core.Options{Now: func() int64 { return h.now }})
	require.NoError(t, err)
	h.chain = chain
	h.server, err = NewServer(chain, ServerConfig{Auth: middleware.AuthConfig{AllowInsecureDev: true}}, nil)
	require.NoError(t, err)
	return h
}

func (h *harness) do(t *testing.T, method, path string, caller *crypto.Address, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if caller != nil {
		req.Header.Set(middleware.CallerHeader, caller.Hex())
	}
	res := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(res, req)
	return res
}

func decode[T any](t *testing.T, res *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &out), res.Body.String())
	return out
}

// openAccepted drives a remote-chain request to an accepted offer over HTTP.
func (h *harness) openAccepted(t *testing.T) string {
	t.Helper()
	res := h.do(t, http.MethodPost, "/v1/bank/approve", &offerer, map[string]string{
		"token": reserveToken.Hex(), "spender": crypto.Address(h.chain.Collateral().Vault()).Hex(), "amount": "2",
	})
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	res = h.do(t, http.MethodPost, "/v1/stake", &offerer, map[string]interface{}{"chainId": 2, "amount": "2"})
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	res = h.do(t, http.MethodPost, "/v1/bank/approve", &requester, map[string]string{
		"token": reserveToken.Hex(), "spender": crypto.Address(h.chain.Escrow().Vault()).Hex(), "amount": "10",
	})
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	res = h.do(t, http.MethodPost, "/v1/requests", &requester, map[string]interface{}{
		"nonce":            "1",
		"depositToken":     reserveToken.Hex(),
		"depositAmount":    "10",
		"requestedToken":   wantedToken.Hex(),
		"requestedAmount":  "1000",
		"requestedChainId": 2,
		"recipient":        recipient.Hex(),
	})
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	id := decode[map[string]string](t, res)["requestId"]

	res = h.do(t, http.MethodPost, "/v1/requests/"+id+"/offers", &offerer, map[string]string{"amount": "1000"})
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	res = h.do(t, http.MethodPost, "/v1/requests/"+id+"/offers/0/accept", &requester, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	require.True(t, decode[OfferResult](t, res).IsAccepted)
	return id
}

func TestHealthz(t *testing.T) {
	h := newHarness(t)
	res := h.do(t, http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusOK, res.Code)
	require.NotEmpty(t, res.Header().Get(middleware.RequestIDHeader))
}

func TestUncontestedTradeOverHTTP(t *testing.T) {
	h := newHarness(t)
	id := h.openAccepted(t)

	res := h.do(t, http.MethodPost, "/v1/requests/"+id+"/offers/0/claim", &requester, nil)
	require.Equal(t, http.StatusForbidden, res.Code)
	require.Equal(t, "NotOfferer", decode[APIError](t, res).Code)

	res = h.do(t, http.MethodPost, "/v1/requests/"+id+"/offers/0/claim", &offerer, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	offer := decode[OfferResult](t, res)
	require.True(t, offer.IsPaid)
	require.Equal(t, "crosschain_trusted", offer.Path)

	res = h.do(t, http.MethodGet, "/v1/requests/"+id, nil, nil)
	require.Equal(t, http.StatusOK, res.Code)
	req := decode[RequestResult](t, res)
	require.True(t, req.Settled)
	require.Equal(t, "0", req.Remaining)
	require.Len(t, req.Offers, 1)

	res = h.do(t, http.MethodGet, "/v1/stakes/"+offerer.Hex()+"?chainId=2", nil, nil)
	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, "12", decode[stakeResult](t, res).Stake)

	res = h.do(t, http.MethodPost, "/v1/requests/"+id+"/withdraw", &requester, nil)
	require.Equal(t, http.StatusConflict, res.Code)
	require.Equal(t, "NothingToWithdraw", decode[APIError](t, res).Code)

	res = h.do(t, http.MethodGet, "/v1/requesters/"+requester.Hex()+"/requests", nil, nil)
	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, []string{id}, decode[map[string][]string](t, res)["requests"])
}

func TestDisputedTradeOverHTTP(t *testing.T) {
	h := newHarness(t)
	id := h.openAccepted(t)

	res := h.do(t, http.MethodPost, "/v1/requests/"+id+"/offers/0/dispute", &requester, map[string]interface{}{
		"templateId": 0, "content": "was the recipient paid?", "value": "5",
	})
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	questionID := decode[map[string]string](t, res)["questionId"]

	res = h.do(t, http.MethodPost, "/v1/requests/"+id+"/offers/0/claim", &offerer, nil)
	require.Equal(t, http.StatusConflict, res.Code)
	require.Equal(t, "Disputed", decode[APIError](t, res).Code)

	res = h.do(t, http.MethodPost, "/v1/questions/"+questionID+"/answers", &answerer, map[string]string{
		"answer": zeroWord, "value": "1",
	})
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	question := decode[QuestionResult](t, res)
	require.Equal(t, uint64(1), question.AnswerCount)
	require.Equal(t, "2", question.RequiredBond)
	require.False(t, question.Finalized)

	history := []map[string]string{{"prev": zeroWord, "answerer": answerer.Hex(), "bond": "1", "answer": zeroWord}}
	claim := map[string]interface{}{"questionId": questionID, "history": history}
	res = h.do(t, http.MethodPost, "/v1/requests/"+id+"/offers/0/claim-dispute", &offerer, claim)
	require.Equal(t, http.StatusConflict, res.Code)
	require.Equal(t, "NotFinalized", decode[APIError](t, res).Code)

	h.now += int64(config.DefaultFinalizationTimeout)

	bad := map[string]interface{}{"questionId": questionID, "history": []map[string]string{
		{"prev": zeroWord, "answerer": answerer.Hex(), "bond": "2", "answer": zeroWord},
	}}
	res = h.do(t, http.MethodPost, "/v1/requests/"+id+"/offers/0/claim-dispute", &offerer, bad)
	require.Equal(t, http.StatusUnprocessableEntity, res.Code)
	require.Equal(t, "HistoryMismatch", decode[APIError](t, res).Code)

	res = h.do(t, http.MethodPost, "/v1/requests/"+id+"/offers/0/claim-dispute", &offerer, claim)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	offer := decode[OfferResult](t, res)
	require.True(t, offer.IsPaid)
	require.Equal(t, "crosschain_disputed", offer.Path)
	require.NotNil(t, offer.QuestionID)

	res = h.do(t, http.MethodPost, "/v1/questions/"+questionID+"/claim", &answerer, map[string]interface{}{"history": history})
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	require.True(t, decode[QuestionResult](t, res).Claimed)

	res = h.do(t, http.MethodGet, "/v1/bank/balances/"+answerer.Hex(), nil, nil)
	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, "105", decode[balanceResult](t, res).Balance)
}

func TestRelayPaymentOverHTTP(t *testing.T) {
	h := newHarness(t)
	requestID := "0x" + strings.Repeat("ab", 32)
	body := map[string]interface{}{
		"requestId": requestID, "offerIndex": 0, "depositChainId": 2,
		"recipient": recipient.Hex(), "amount": "7", "value": "7",
	}
	res := h.do(t, http.MethodPost, "/v1/relay/payments", &requester, body)
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	paymentID := decode[map[string]string](t, res)["paymentId"]

	res = h.do(t, http.MethodPost, "/v1/relay/payments", &requester, body)
	require.Equal(t, http.StatusConflict, res.Code)
	require.Equal(t, "PaymentExists", decode[APIError](t, res).Code)

	res = h.do(t, http.MethodGet, "/v1/relay/payments/"+paymentID, nil, nil)
	require.Equal(t, http.StatusOK, res.Code)
	payment := decode[PaymentResult](t, res)
	require.Equal(t, "7", payment.Amount)
	require.Equal(t, recipient.Hex(), payment.Receiver)
	require.Equal(t, requestID, payment.RequestID)
}

func TestErrorResponses(t *testing.T) {
	h := newHarness(t)

	res := h.do(t, http.MethodPost, "/v1/stake", nil, map[string]interface{}{"chainId": 0, "amount": "1"})
	require.Equal(t, http.StatusUnauthorized, res.Code)

	res = h.do(t, http.MethodGet, "/v1/requests/"+zeroWord, nil, nil)
	require.Equal(t, http.StatusNotFound, res.Code)
	require.Equal(t, "RequestNotFound", decode[APIError](t, res).Code)

	res = h.do(t, http.MethodGet, "/v1/requests/0x1234", nil, nil)
	require.Equal(t, http.StatusBadRequest, res.Code)
	require.Equal(t, "InvalidParams", decode[APIError](t, res).Code)

	res = h.do(t, http.MethodPost, "/v1/stake", &offerer, map[string]interface{}{"chainId": 0, "amount": "1", "extra": true})
	require.Equal(t, http.StatusBadRequest, res.Code)

	res = h.do(t, http.MethodPost, "/v1/bank/transfer", &offerer, map[string]string{
		"token": reserveToken.Hex(), "to": requester.Hex(), "amount": "3",
	})
	require.Equal(t, http.StatusUnprocessableEntity, res.Code)
	require.Equal(t, "InsufficientBalance", decode[APIError](t, res).Code)
}
