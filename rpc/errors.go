package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	protoerrors "crosstrade/core/errors"
	"crosstrade/gateway/middleware"
	"crosstrade/native/common"
	"crosstrade/observability"
)

// APIError is the JSON error body returned by every endpoint.
type APIError struct {
	HTTPStatus int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func invalidParam(message string) *APIError {
	return &APIError{HTTPStatus: http.StatusBadRequest, Code: "InvalidParams", Message: message}
}

var kindStatus = map[protoerrors.Kind]int{
	protoerrors.KindNotFound:          http.StatusNotFound,
	protoerrors.KindAlreadyExists:     http.StatusConflict,
	protoerrors.KindUnauthorized:      http.StatusForbidden,
	protoerrors.KindInvalidState:      http.StatusConflict,
	protoerrors.KindInsufficientFunds: http.StatusUnprocessableEntity,
	protoerrors.KindAmountMismatch:    http.StatusBadRequest,
	protoerrors.KindHistoryMismatch:   http.StatusUnprocessableEntity,
	protoerrors.KindWrongChain:        http.StatusBadRequest,
	protoerrors.KindInvalid:           http.StatusBadRequest,
}

// toAPIError classifies err by its protocol kind. Errors outside the protocol
// taxonomy are reported as internal failures without their message.
func toAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	switch {
	case errors.Is(err, common.ErrModulePaused):
		return &APIError{HTTPStatus: http.StatusServiceUnavailable, Code: "ModulePaused", Message: err.Error()}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &APIError{HTTPStatus: http.StatusServiceUnavailable, Code: "Cancelled", Message: err.Error()}
	}
	status, ok := kindStatus[protoerrors.KindOf(err)]
	if !ok {
		return &APIError{HTTPStatus: http.StatusInternalServerError, Code: "Internal", Message: "internal error"}
	}
	return &APIError{HTTPStatus: status, Code: protoerrors.CodeOf(err), Message: err.Error()}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := toAPIError(err)
	observability.API().RecordRejection(middleware.GroupFrom(r.Context()), apiErr.Code)
	if apiErr.HTTPStatus >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"path", r.URL.Path,
			"request_id", r.Header.Get(middleware.RequestIDHeader),
			"error", err)
	}
	writeJSON(w, apiErr.HTTPStatus, apiErr)
}
