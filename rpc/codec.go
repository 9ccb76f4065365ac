package rpc

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"crosstrade/crypto"
	"crosstrade/gateway/middleware"
	"crosstrade/native/common"
)

const maxBodyBytes = 1 << 20

func decodeBody(r *http.Request, dst interface{}) *APIError {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return invalidParam(fmt.Sprintf("invalid request body: %v", err))
	}
	return nil
}

func parseHash(field, raw string) ([32]byte, *APIError) {
	var out [32]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	decoded, err := hex.DecodeString(trimmed)
	if err != nil || len(decoded) != 32 {
		return out, invalidParam(fmt.Sprintf("%s must be a 32-byte hex string", field))
	}
	copy(out[:], decoded)
	return out, nil
}

func parseAddress(field, raw string) ([20]byte, *APIError) {
	addr, err := crypto.ParseAddress(raw)
	if err != nil {
		return [20]byte{}, invalidParam(fmt.Sprintf("%s: %v", field, err))
	}
	return addr, nil
}

// parseToken accepts an empty string for the native asset.
func parseToken(field, raw string) ([20]byte, *APIError) {
	if strings.TrimSpace(raw) == "" {
		return [20]byte{}, nil
	}
	return parseAddress(field, raw)
}

func parseAmount(field, raw string) (*big.Int, *APIError) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	value, ok := new(big.Int).SetString(trimmed, 10)
	if !ok || value.Sign() < 0 {
		return nil, invalidParam(fmt.Sprintf("%s must be a non-negative decimal integer", field))
	}
	return value, nil
}

// parseOptionalAmount returns nil when raw is empty.
func parseOptionalAmount(field, raw string) (*big.Int, *APIError) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	return parseAmount(field, raw)
}

func parseUint(field, raw string) (uint64, *APIError) {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, invalidParam(fmt.Sprintf("%s must be an unsigned integer", field))
	}
	return value, nil
}

// callFrom builds the call of an authenticated request with the attached
// native value.
func callFrom(r *http.Request, value string) (common.Call, *APIError) {
	caller, ok := middleware.CallerFrom(r.Context())
	if !ok {
		return common.Call{}, &APIError{HTTPStatus: http.StatusUnauthorized, Code: "Unauthorized", Message: "caller required"}
	}
	amount, apiErr := parseAmount("value", value)
	if apiErr != nil {
		return common.Call{}, apiErr
	}
	return common.NewCall(caller).WithValue(amount), nil
}

func formatHash(h [32]byte) string { return "0x" + hex.EncodeToString(h[:]) }

func formatAddress(a [20]byte) string { return crypto.Address(a).Hex() }

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
