package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"crosstrade/crypto"
	"crosstrade/observability"
	"crosstrade/observability/logging"
)

// CallerHeader names the caller when authentication runs in insecure
// development mode.
const CallerHeader = "X-Crosstrade-Caller"

type AuthConfig struct {
	HMACSecret string
	Issuer     string
	ClockSkew  time.Duration
	// AllowInsecureDev trusts CallerHeader when no secret is configured.
	AllowInsecureDev bool
}

type contextKey string

const contextKeyCaller contextKey = "crosstrade.caller"

// WithCaller stores the authenticated caller address on ctx.
func WithCaller(ctx context.Context, caller [20]byte) context.Context {
	return context.WithValue(ctx, contextKeyCaller, caller)
}

// CallerFrom returns the authenticated caller stored on ctx.
func CallerFrom(ctx context.Context) ([20]byte, bool) {
	caller, ok := ctx.Value(contextKeyCaller).([20]byte)
	return caller, ok
}

// Authenticator resolves the caller of a request from an HMAC-signed bearer
// token whose subject is the caller address.
type Authenticator struct {
	cfg    AuthConfig
	logger *slog.Logger
	secret []byte
}

func NewAuthenticator(cfg AuthConfig, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ClockSkew <= 0 {
		cfg.ClockSkew = 2 * time.Minute
	}
	return &Authenticator{
		cfg:    cfg,
		logger: logger.With("component", "auth"),
		secret: []byte(strings.TrimSpace(cfg.HMACSecret)),
	}
}

// Middleware rejects requests without a resolvable caller.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, err := a.resolve(r)
		if err != nil {
			a.logger.Warn("authentication failed",
				"path", r.URL.Path,
				logging.MaskField("remote_addr", r.RemoteAddr),
				"error", err)
			observability.API().RecordRefusal(GroupFrom(r.Context()), observability.RefusalUnauthenticated)
			writeError(w, http.StatusUnauthorized, "Unauthorized", err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
	})
}

func (a *Authenticator) resolve(r *http.Request) ([20]byte, error) {
	if len(a.secret) == 0 {
		if !a.cfg.AllowInsecureDev {
			return [20]byte{}, errors.New("auth secret not configured")
		}
		raw := strings.TrimSpace(r.Header.Get(CallerHeader))
		if raw == "" {
			return [20]byte{}, errors.New("missing caller header")
		}
		return parseCaller(raw)
	}
	tokenString := extractBearer(r.Header.Get("Authorization"))
	if tokenString == "" {
		return [20]byte{}, errors.New("missing bearer token")
	}
	claims, err := a.parseToken(tokenString)
	if err != nil {
		return [20]byte{}, err
	}
	if a.cfg.Issuer != "" {
		issuer, err := claims.GetIssuer()
		if err != nil || issuer != a.cfg.Issuer {
			return [20]byte{}, errors.New("issuer mismatch")
		}
	}
	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return [20]byte{}, errors.New("token subject required")
	}
	return parseCaller(subject)
}

func parseCaller(raw string) ([20]byte, error) {
	addr, err := crypto.ParseAddress(raw)
	if err != nil {
		return [20]byte{}, err
	}
	if addr == (crypto.Address{}) {
		return [20]byte{}, errors.New("caller must not be the zero address")
	}
	return addr, nil
}

func (a *Authenticator) parseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwt.WithLeeway(a.cfg.ClockSkew), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token invalid")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("claims not map")
	}
	return claims, nil
}

func extractBearer(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
