package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"crosstrade/crypto"
)

var testCaller = [20]byte{0: 0x11, 19: 0x22}

func signed(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func callerEcho(t *testing.T, got *[20]byte) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := CallerFrom(r.Context())
		if !ok {
			t.Fatalf("caller missing from context")
		}
		*got = caller
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticatorResolvesSubject(t *testing.T) {
	auth := NewAuthenticator(AuthConfig{HMACSecret: "secret", Issuer: "crosstrade"}, nil)
	var got [20]byte
	handler := auth.Middleware(callerEcho(t, &got))

	req := httptest.NewRequest(http.MethodPost, "/v1/stake", nil)
	req.Header.Set("Authorization", "Bearer "+signed(t, "secret", jwt.MapClaims{
		"sub": crypto.Address(testCaller).Hex(),
		"iss": "crosstrade",
		"exp": time.Now().Add(time.Hour).Unix(),
	}))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected success, got %d: %s", res.Code, res.Body.String())
	}
	if got != testCaller {
		t.Fatalf("unexpected caller %x", got)
	}
}

func TestAuthenticatorRejects(t *testing.T) {
	auth := NewAuthenticator(AuthConfig{HMACSecret: "secret", Issuer: "crosstrade"}, nil)
	handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler must not run")
	}))
	future := time.Now().Add(time.Hour).Unix()
	cases := map[string]string{
		"missing":     "",
		"wrong key":   "Bearer " + signed(t, "other", jwt.MapClaims{"sub": crypto.Address(testCaller).Hex(), "iss": "crosstrade", "exp": future}),
		"wrong iss":   "Bearer " + signed(t, "secret", jwt.MapClaims{"sub": crypto.Address(testCaller).Hex(), "iss": "other", "exp": future}),
		"no expiry":   "Bearer " + signed(t, "secret", jwt.MapClaims{"sub": crypto.Address(testCaller).Hex(), "iss": "crosstrade"}),
		"bad subject": "Bearer " + signed(t, "secret", jwt.MapClaims{"sub": "alice", "iss": "crosstrade", "exp": future}),
	}
	for name, header := range cases {
		req := httptest.NewRequest(http.MethodPost, "/v1/stake", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		if res.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, res.Code)
		}
	}
}

func TestAuthenticatorInsecureDevHeader(t *testing.T) {
	auth := NewAuthenticator(AuthConfig{AllowInsecureDev: true}, nil)
	var got [20]byte
	handler := auth.Middleware(callerEcho(t, &got))
	req := httptest.NewRequest(http.MethodPost, "/v1/stake", nil)
	req.Header.Set(CallerHeader, crypto.Address(testCaller).Hex())
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK || got != testCaller {
		t.Fatalf("expected dev caller, got %d %x", res.Code, got)
	}

	strict := NewAuthenticator(AuthConfig{}, nil)
	res = httptest.NewRecorder()
	strict.Middleware(okHandler()).ServeHTTP(res, req)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without secret, got %d", res.Code)
	}
}
