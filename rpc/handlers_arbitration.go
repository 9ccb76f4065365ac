package rpc

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"crosstrade/native/arbitration"
)

type askQuestionBody struct {
	TemplateID uint64 `json:"templateId"`
	Content    string `json:"content"`
	Timeout    uint32 `json:"timeout"`
	MinBond    string `json:"minBond"`
	Value      string `json:"value"`
}

type answerBody struct {
	Answer      string `json:"answer"`
	MaxPrevious string `json:"maxPrevious"`
	Value       string `json:"value"`
}

type claimWinningsBody struct {
	History []historyEntryBody `json:"history"`
}

func (s *Server) handleAskQuestion(w http.ResponseWriter, r *http.Request) {
	var body askQuestionBody
	if apiErr := decodeBody(r, &body); apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	minBond, apiErr := parseAmount("minBond", body.MinBond)
	if apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	call, apiErr := callFrom(r, body.Value)
	if apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	id, err := s.chain.AskQuestion(r.Context(), call, arbitration.QuestionParams{
		TemplateID: body.TemplateID,
		Content:    body.Content,
		Timeout:    body.Timeout,
		MinBond:    minBond,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"questionId": formatHash(id)})
}

func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	id, apiErr := parseHash("id", chi.URLParam(r, "id"))
	if apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	var body answerBody
	if apiErr := decodeBody(r, &body); apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	answer, apiErr := parseHash("answer", body.Answer)
	if apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	maxPrevious, apiErr := parseOptionalAmount("maxPrevious", body.MaxPrevious)
	if apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	call, apiErr := callFrom(r, body.Value)
	if apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	if err := s.chain.SubmitAnswer(r.Context(), call, id, answer, maxPrevious); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeQuestion(w, r, id, http.StatusOK)
}

func (s *Server) handleClaimWinnings(w http.ResponseWriter, r *http.Request) {
	id, apiErr := parseHash("id", chi.URLParam(r, "id"))
	if apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	var body claimWinningsBody
	if apiErr := decodeBody(r, &body); apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	entries, apiErr := parseHistory(body.History)
	if apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	call, apiErr := callFrom(r, "")
	if apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	if err := s.chain.ClaimWinnings(r.Context(), call, id, entries); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeQuestion(w, r, id, http.StatusOK)
}

func (s *Server) handleGetQuestion(w http.ResponseWriter, r *http.Request) {
	id, apiErr := parseHash("id", chi.URLParam(r, "id"))
	if apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}
	s.writeQuestion(w, r, id, http.StatusOK)
}

func (s *Server) writeQuestion(w http.ResponseWriter, r *http.Request, id [32]byte, status int) {
	view, err := s.chain.Question(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, status, questionResult(view))
}
