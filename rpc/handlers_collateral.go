package rpc

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type stakeBody struct {
	ChainID uint64 `json:"chainId"`
	Amount  string `json:"amount"`
}

type stakeResult struct {
	Address string `json:"address"`
	ChainID uint64 `json:"chainId"`
	Stake   string `json:"stake"`
	Total   string `json:"totalStaked"`
}

func (s *Server) handleStake(w http.ResponseWriter, r *http.Request) {
	s.changeStake(w, r, true)
}

func (s *Server) handleUnstake(w http.ResponseWriter, r *http.Request) {
	s.changeStake(w, r, false)
}

func (s *Server) changeStake(w http.ResponseWriter, r *http.Request, stake bool) {
	var body stakeBody
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
	var err error
	if stake {
		err = s.chain.Stake(r.Context(), call, body.ChainID, amount)
	} else {
		err = s.chain.Unstake(r.Context(), call, body.ChainID, amount)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeStake(w, r, call.Caller, body.ChainID)
}

func (s *Server) handleGetStake(w http.ResponseWriter, r *http.Request) {
	addr, apiErr := parseAddress("address", chi.URLParam(r, "address"))
	if apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	var chainID uint64
	if raw := r.URL.Query().Get("chainId"); raw != "" {
		if chainID, apiErr = parseUint("chainId", raw); apiErr != nil {
			s.writeError(w, r, apiErr)
			return
		}
	}
	s.writeStake(w, r, addr, chainID)
}

func (s *Server) writeStake(w http.ResponseWriter, r *http.Request, addr [20]byte, chainID uint64) {
	stake, err := s.chain.StakeOf(r.Context(), addr, chainID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	total, err := s.chain.TotalStaked(r.Context(), chainID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stakeResult{
		Address: formatAddress(addr),
		ChainID: chainID,
		Stake:   formatAmount(stake),
		Total:   formatAmount(total),
	})
}

type approveBody struct {
	Token   string `json:"token"`
	Spender string `json:"spender"`
	Amount  string `json:"amount"`
}

type transferBody struct {
	Token  string `json:"token"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type balanceResult struct {
	Owner   string `json:"owner"`
	Token   string `json:"token"`
	Balance string `json:"balance"`
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	var body approveBody
	if apiErr := decodeBody(r, &body); apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	token, apiErr := parseAddress("token", body.Token)
	if apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	spender, apiErr := parseAddress("spender", body.Spender)
	if apiErr != nil {
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
	if err := s.chain.Approve(r.Context(), call, token, spender, amount); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var body transferBody
	if apiErr := decodeBody(r, &body); apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	token, apiErr := parseToken("token", body.Token)
	if apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	to, apiErr := parseAddress("to", body.To)
	if apiErr != nil {
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
	if err := s.chain.Transfer(r.Context(), call, token, to, amount); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	owner, apiErr := parseAddress("owner", chi.URLParam(r, "owner"))
	if apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	token, apiErr := parseToken("token", r.URL.Query().Get("token"))
	if apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	balance, err := s.chain.Balance(r.Context(), token, owner)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResult{
		Owner:   formatAddress(owner),
		Token:   formatAddress(token),
		Balance: formatAmount(balance),
	})
}
