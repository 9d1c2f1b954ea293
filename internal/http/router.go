// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/kuberai/go-gold-backend/internal/config"
	"github.com/kuberai/go-gold-backend/internal/domain"
	"github.com/kuberai/go-gold-backend/internal/http/handlers"
	"github.com/kuberai/go-gold-backend/internal/http/middleware"
	"github.com/kuberai/go-gold-backend/internal/llm"
	"github.com/kuberai/go-gold-backend/internal/nlp"
	"github.com/kuberai/go-gold-backend/internal/pricing"
	"github.com/kuberai/go-gold-backend/internal/repo"
	"github.com/kuberai/go-gold-backend/internal/services"
	"github.com/kuberai/go-gold-backend/internal/session"
)

// userRepoShim adapts the repository free functions to the services.UserRepo
// interface expected by the AuthService. This keeps services decoupled from
// the concrete repo package while reusing existing functions.
type userRepoShim struct{}

// CreateUser proxies repo.CreateUser.
func (userRepoShim) CreateUser(ctx context.Context, db *gorm.DB, email, name, passwordHash string) (*domain.User, error) {
	return repo.CreateUser(ctx, db, email, name, passwordHash)
}

// GetUser proxies repo.GetUser.
func (userRepoShim) GetUser(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	return repo.GetUser(ctx, db, email)
}

// purchaseRepoShim adapts the repository free functions to the
// services.PurchaseRepo interface expected by the PurchaseService.
type purchaseRepoShim struct{}

// GetUser proxies repo.GetUser.
func (purchaseRepoShim) GetUser(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	return repo.GetUser(ctx, db, email)
}

// RecordPurchase proxies repo.RecordPurchase.
func (purchaseRepoShim) RecordPurchase(ctx context.Context, db *gorm.DB, email string, amount, pricePerGram, grams float64) (*domain.Investment, float64, error) {
	return repo.RecordPurchase(ctx, db, email, amount, pricePerGram, grams)
}

// CountInvestments proxies repo.CountInvestments (pagination support).
func (purchaseRepoShim) CountInvestments(ctx context.Context, db *gorm.DB, email string) (int64, error) {
	return repo.CountInvestments(ctx, db, email)
}

// ListInvestmentsPage proxies repo.ListInvestmentsPage (pagination support).
func (purchaseRepoShim) ListInvestmentsPage(ctx context.Context, db *gorm.DB, email string, offset, limit int) ([]domain.Investment, error) {
	return repo.ListInvestmentsPage(ctx, db, email, offset, limit)
}

// purchaseReplayStore adapts the idempotency repository functions to the
// handlers.PurchaseReplay interface.
type purchaseReplayStore struct {
	db  *gorm.DB
	ttl time.Duration
}

// Get proxies repo.GetIdempotency.
func (s purchaseReplayStore) Get(ctx context.Context, email, key string, now time.Time) (*domain.Idempotency, error) {
	return repo.GetIdempotency(ctx, s.db, email, key, now)
}

// Put proxies repo.CreateIdempotency.
func (s purchaseReplayStore) Put(ctx context.Context, email, key string, grams, pricePerGram, newBalance float64) error {
	_, err := repo.CreateIdempotency(ctx, s.db, email, key, grams, pricePerGram, newBalance, s.ttl)
	return err
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health and metrics endpoints, and then
// mounts the public API under the configured base path.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Idempotency validator (before rate limiter to allow bypass on replay)
//  8. Rate limiter (per user/IP, bypass on replay)
//  9. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, sessions *session.Store, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			middleware.HeaderUserEmail, // account identity is PII
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB) and response compression
	r.Use(limitBody(1 << 20))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, email, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, email, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 8) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderUserEmail, middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderUserEmail, middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: services ← repo/db/nlp/pricing
	completer := llm.NewClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Timeout)
	translator := nlp.NewGoogleTranslator(cfg.Translate.URL, cfg.Translate.Timeout)
	classifier := nlp.NewClassifier(completer, translator)
	responder := nlp.NewResponder(completer)
	oracle := pricing.New(cfg.Price.FeedURL, cfg.Price.Fallback, cfg.Price.Timeout)

	authSvc := services.NewAuthService(db, userRepoShim{})
	chatSvc := services.NewChatService(sessions, classifier, responder)
	chatSvc.MaxQueryRunes = cfg.MaxQueryRunes
	goldSvc := services.NewPurchaseService(db, purchaseRepoShim{}, oracle)

	h := handlers.New(authSvc, chatSvc, goldSvc, purchaseReplayStore{db: db, ttl: cfg.IdempotencyTTL})

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api"
	api := groupWithPrefix(r, apiBase)
	{
		// Accounts
		api.POST("/signup", h.Signup)
		api.POST("/login", h.Login)

		// Conversation
		api.POST("/query", h.PostQuery)

		// Gold
		api.POST("/purchase-gold", h.PurchaseGold)
		api.GET("/gold-price", h.GoldPrice)
		api.GET("/user", h.GetUser)
		api.GET("/investments", h.ListInvestments)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
