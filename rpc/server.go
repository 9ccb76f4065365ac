package rpc

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"crosstrade/core"
	"crosstrade/gateway/middleware"
)

// Rate limit groups. Reads share one budget, each module's writes have their
// own.
const (
	limitQuery       = "query"
	limitCollateral  = "collateral"
	limitBank        = "bank"
	limitEscrow      = "escrow"
	limitRelay       = "relay"
	limitArbitration = "arbitration"
)

type ServerConfig struct {
	ListenAddress     string
	Auth              middleware.AuthConfig
	RateLimit         middleware.RateLimit
	CORS              middleware.CORSConfig
	ReadHeaderTimeout time.Duration
	LogRequests       bool
}

// Server exposes the chain over HTTP/JSON.
type Server struct {
	chain      *core.Chain
	cfg        ServerConfig
	logger     *slog.Logger
	handler    http.Handler
	httpServer *http.Server
	// closing is closed when shutdown starts; event streams watch it because
	// hijacked connections outlive http.Server.Shutdown.
	closing chan struct{}
}

func NewServer(chain *core.Chain, cfg ServerConfig, logger *slog.Logger) (*Server, error) {
	if chain == nil {
		return nil, errors.New("rpc: chain required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = 5 * time.Second
	}
	s := &Server{chain: chain, cfg: cfg, logger: logger.With("component", "rpc"), closing: make(chan struct{})}
	s.handler = otelhttp.NewHandler(s.routes(), "crosstrade.rpc")
	return s, nil
}

// Handler returns the instrumented router.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes() http.Handler {
	auth := middleware.NewAuthenticator(s.cfg.Auth, s.logger)
	obs := middleware.NewObservability(middleware.ObservabilityConfig{LogRequests: s.cfg.LogRequests}, s.logger)
	limits := make(map[string]middleware.RateLimit)
	if s.cfg.RateLimit.RatePerSecond > 0 {
		for _, key := range []string{limitQuery, limitCollateral, limitBank, limitEscrow, limitRelay, limitArbitration} {
			limits[key] = s.cfg.RateLimit
		}
	}
	limiter := middleware.NewRateLimiter(limits, s.logger)

	r := chi.NewRouter()
	r.Use(middleware.CORS(s.cfg.CORS))
	r.Use(middleware.RequestID)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "chainId": s.chain.ChainID()})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(v1 chi.Router) {
		v1.Group(func(q chi.Router) {
			q.Use(middleware.Group(limitQuery), limiter.Middleware(limitQuery))
			q.With(obs.Middleware("stake.get")).Get("/stakes/{address}", s.handleGetStake)
			q.With(obs.Middleware("bank.balance")).Get("/bank/balances/{owner}", s.handleGetBalance)
			q.With(obs.Middleware("request.get")).Get("/requests/{id}", s.handleGetRequest)
			q.With(obs.Middleware("offer.get")).Get("/requests/{id}/offers/{index}", s.handleGetOffer)
			q.With(obs.Middleware("requester.requests")).Get("/requesters/{address}/requests", s.handleRequestsOf)
			q.With(obs.Middleware("payment.get")).Get("/relay/payments/{id}", s.handleGetPayment)
			q.With(obs.Middleware("question.get")).Get("/questions/{id}", s.handleGetQuestion)
			q.With(obs.Middleware("events.stream")).Get("/events", s.handleEventStream)
		})

		// Writes authenticate before rate limiting so budgets are per caller.
		v1.Group(func(w chi.Router) {
			w.Group(func(g chi.Router) {
				g.Use(middleware.Group(limitCollateral), auth.Middleware, limiter.Middleware(limitCollateral))
				g.With(obs.Middleware("stake")).Post("/stake", s.handleStake)
				g.With(obs.Middleware("unstake")).Post("/unstake", s.handleUnstake)
			})
			w.Group(func(g chi.Router) {
				g.Use(middleware.Group(limitBank), auth.Middleware, limiter.Middleware(limitBank))
				g.With(obs.Middleware("bank.approve")).Post("/bank/approve", s.handleApprove)
				g.With(obs.Middleware("bank.transfer")).Post("/bank/transfer", s.handleTransfer)
			})
			w.Group(func(g chi.Router) {
				g.Use(middleware.Group(limitEscrow), auth.Middleware, limiter.Middleware(limitEscrow))
				g.With(obs.Middleware("request.create")).Post("/requests", s.handleCreateRequest)
				g.With(obs.Middleware("request.withdraw")).Post("/requests/{id}/withdraw", s.handleWithdraw)
				g.With(obs.Middleware("offer.create")).Post("/requests/{id}/offers", s.handleCreateOffer)
				g.With(obs.Middleware("offer.accept")).Post("/requests/{id}/offers/{index}/accept", s.handleAcceptOffer)
				g.With(obs.Middleware("offer.reject")).Post("/requests/{id}/offers/{index}/reject", s.handleRejectOffer)
				g.With(obs.Middleware("offer.pay")).Post("/requests/{id}/offers/{index}/pay", s.handlePayOnChain)
				g.With(obs.Middleware("offer.claim")).Post("/requests/{id}/offers/{index}/claim", s.handleClaim)
				g.With(obs.Middleware("offer.dispute")).Post("/requests/{id}/offers/{index}/dispute", s.handleDispute)
				g.With(obs.Middleware("offer.claim_dispute")).Post("/requests/{id}/offers/{index}/claim-dispute", s.handleClaimDispute)
				g.With(obs.Middleware("dispute.question")).Post("/disputes/questions", s.handleCreateDisputeQuestion)
			})
			w.Group(func(g chi.Router) {
				g.Use(middleware.Group(limitRelay), auth.Middleware, limiter.Middleware(limitRelay))
				g.With(obs.Middleware("relay.pay")).Post("/relay/payments", s.handleRelayPay)
			})
			w.Group(func(g chi.Router) {
				g.Use(middleware.Group(limitArbitration), auth.Middleware, limiter.Middleware(limitArbitration))
				g.With(obs.Middleware("question.ask")).Post("/questions", s.handleAskQuestion)
				g.With(obs.Middleware("question.answer")).Post("/questions/{id}/answers", s.handleSubmitAnswer)
				g.With(obs.Middleware("question.claim")).Post("/questions/{id}/claim", s.handleClaimWinnings)
			})
		})
	})
	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.ListenAddress,
		Handler:           s.handler,
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("rpc server listening", "addr", s.cfg.ListenAddress)
		errCh <- s.httpServer.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		close(s.closing)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		s.logger.Info("rpc server stopped")
		return nil
	}
}
