// Package http - Router configuration for the REST API.
//
// The router assembles all handlers and middleware into one entry
// point. Handlers receive only the use cases they need; middleware is
// applied per route group.
package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/paybridge/ledgercore/internal/adapters/http/common"
	"github.com/paybridge/ledgercore/internal/adapters/http/handlers"
	"github.com/paybridge/ledgercore/internal/adapters/http/middleware"
)

// ============================================
// Router Configuration
// ============================================

// RouterConfig configures the router.
type RouterConfig struct {
	// Logger for the middleware stack
	Logger *slog.Logger
	// Database pool for health checks
	Pool *pgxpool.Pool
	// Version of the application
	Version string
	// BuildTime of the binary
	BuildTime string
	// Environment (development, staging, production)
	Environment string
	// AllowedOrigins for CORS (production)
	AllowedOrigins []string
	// AuthTokenValidator validates bearer tokens
	AuthTokenValidator middleware.TokenValidator
	// ServiceName identifies this service in exported traces
	ServiceName string
	// ReadinessChecks adds extra readiness dependencies (redis,
	// nats); the database check is registered from Pool automatically.
	ReadinessChecks map[string]handlers.DependencyCheck
}

// DefaultRouterConfig is the default development configuration.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		Logger:             slog.Default(),
		Version:            "dev",
		BuildTime:          "unknown",
		Environment:        "development",
		AllowedOrigins:     []string{"*"},
		AuthTokenValidator: middleware.MockTokenValidator,
		ServiceName:        "ledgercore",
	}
}

// ============================================
// Use Case Providers
// ============================================

// UserUseCases groups the user use cases.
type UserUseCases struct {
	CreateUser handlers.CreateUserUseCase
	GetUser    handlers.GetUserUseCase
	ListUsers  handlers.ListUsersUseCase
}

// KYCUseCases groups the KYC use cases.
type KYCUseCases struct {
	Submit   handlers.SubmitKYCUseCase
	Approve  handlers.ApproveKYCUseCase
	Reject   handlers.RejectKYCUseCase
	Resubmit handlers.ResubmitKYCUseCase
}

// WalletUseCases groups the wallet use cases.
type WalletUseCases struct {
	GetWallet handlers.GetWalletUseCase
}

// TransactionUseCases groups the transaction use cases.
type TransactionUseCases struct {
	Transfer         handlers.TransferUseCase
	GetTransaction   handlers.GetTransactionUseCase
	ListTransactions handlers.ListTransactionsUseCase
}

// PaymentUseCases groups the payment intent use cases.
type PaymentUseCases struct {
	CreateIntent handlers.CreateIntentUseCase
}

// WebhookUseCases groups the webhook use cases.
type WebhookUseCases struct {
	Ingest handlers.IngestWebhookUseCase
}

// ============================================
// Router Builder
// ============================================

// RouterBuilder assembles the router step by step, so tests can wire
// only the use cases they exercise.
type RouterBuilder struct {
	config       *RouterConfig
	users        *UserUseCases
	kyc          *KYCUseCases
	wallets      *WalletUseCases
	transactions *TransactionUseCases
	payments     *PaymentUseCases
	webhooks     *WebhookUseCases
}

// NewRouterBuilder creates a new builder.
func NewRouterBuilder(config *RouterConfig) *RouterBuilder {
	if config == nil {
		config = DefaultRouterConfig()
	}
	return &RouterBuilder{
		config: config,
	}
}

// WithUserUseCases adds the user use cases.
func (b *RouterBuilder) WithUserUseCases(useCases *UserUseCases) *RouterBuilder {
	b.users = useCases
	return b
}

// WithKYCUseCases adds the KYC use cases.
func (b *RouterBuilder) WithKYCUseCases(useCases *KYCUseCases) *RouterBuilder {
	b.kyc = useCases
	return b
}

// WithWalletUseCases adds the wallet use cases.
func (b *RouterBuilder) WithWalletUseCases(useCases *WalletUseCases) *RouterBuilder {
	b.wallets = useCases
	return b
}

// WithTransactionUseCases adds the transaction use cases.
func (b *RouterBuilder) WithTransactionUseCases(useCases *TransactionUseCases) *RouterBuilder {
	b.transactions = useCases
	return b
}

// WithPaymentUseCases adds the payment intent use cases.
func (b *RouterBuilder) WithPaymentUseCases(useCases *PaymentUseCases) *RouterBuilder {
	b.payments = useCases
	return b
}

// WithWebhookUseCases adds the webhook use cases.
func (b *RouterBuilder) WithWebhookUseCases(useCases *WebhookUseCases) *RouterBuilder {
	b.webhooks = useCases
	return b
}

// Build produces the configured Gin engine.
func (b *RouterBuilder) Build() *gin.Engine {
	if b.config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// No default middleware; the stack below is explicit.
	router := gin.New()

	handlers.SetupValidator()

	// ============================================
	// Global Middleware
	// ============================================

	// 1. Recovery must come first
	router.Use(middleware.Recovery(&middleware.RecoveryConfig{
		Logger:           b.config.Logger,
		EnableStackTrace: b.config.Environment != "production",
	}))

	// 2. Request ID
	router.Use(middleware.RequestID())

	// 3. Tracing (OpenTelemetry)
	serviceName := b.config.ServiceName
	if serviceName == "" {
		serviceName = "ledgercore"
	}
	router.Use(otelgin.Middleware(serviceName))

	// 4. CORS
	if b.config.Environment == "production" {
		router.Use(middleware.CORS(middleware.ProductionCORSConfig(b.config.AllowedOrigins)))
	} else {
		router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	}

	// 5. Logging
	router.Use(middleware.Logging(&middleware.LoggingConfig{
		Logger:    b.config.Logger,
		SkipPaths: []string{"/health", "/live", "/ready", "/metrics"},
	}))

	// 6. Rate Limiting (global)
	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))

	// 7. Metrics (Prometheus)
	router.Use(middleware.Metrics())

	// ============================================
	// Metrics Endpoint (no auth)
	// ============================================

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ============================================
	// Health Check Routes (no auth)
	// ============================================

	healthHandler := handlers.NewHealthHandler(
		b.config.Pool,
		b.config.Version,
		b.config.BuildTime,
	)
	for name, check := range b.config.ReadinessChecks {
		healthHandler.AddCheck(name, check)
	}
	healthHandler.RegisterRoutes(router)

	// ============================================
	// API v1 Routes
	// ============================================

	v1 := router.Group("/api/v1")

	// Public routes (no auth required)
	publicGroup := v1.Group("")
	{
		// User registration opens a wallet in the same call.
		if b.users != nil {
			userHandler := handlers.NewUserHandler(b.users.CreateUser, b.users.GetUser, b.users.ListUsers)
			publicGroup.POST("/users", userHandler.CreateUser)
		}

		// The gateway authenticates itself via the HMAC signature
		// header, not a bearer token - this endpoint never sits behind
		// the JWT middleware.
		if b.webhooks != nil {
			webhookHandler := handlers.NewWebhookHandler(b.webhooks.Ingest)
			webhookHandler.RegisterRoutes(publicGroup)
		}
	}

	// Protected routes (auth required)
	protectedGroup := v1.Group("")
	protectedGroup.Use(middleware.Auth(&middleware.AuthConfig{
		TokenValidator: b.config.AuthTokenValidator,
		SkipPaths:      []string{},
	}))
	{
		// User routes (listing/lookup; registration is public above)
		if b.users != nil {
			userHandler := handlers.NewUserHandler(b.users.CreateUser, b.users.GetUser, b.users.ListUsers)
			userHandler.RegisterRoutes(protectedGroup)
		}

		// KYC self-service routes
		if b.kyc != nil {
			kycHandler := handlers.NewKYCHandler(b.kyc.Submit, b.kyc.Approve, b.kyc.Reject, b.kyc.Resubmit)
			kycHandler.RegisterRoutes(protectedGroup)
		}

		// Wallet routes
		if b.wallets != nil {
			walletHandler := handlers.NewWalletHandler(b.wallets.GetWallet)
			walletHandler.RegisterRoutes(protectedGroup)
		}

		// Transaction routes (transfer + own history), stricter rate
		// limiting on the financial write path.
		if b.transactions != nil {
			txHandler := handlers.NewTransactionHandler(
				b.transactions.Transfer,
				b.transactions.GetTransaction,
				b.transactions.ListTransactions,
			)
			transactions := protectedGroup.Group("/transactions")
			transactions.GET("", txHandler.ListTransactions)
			transactions.GET("/:id", txHandler.GetTransaction)

			financialOps := transactions.Group("")
			financialOps.Use(middleware.TransactionRateLimit())
			financialOps.POST("/transfer", txHandler.Transfer)
		}

		// Payment intent routes
		if b.payments != nil {
			paymentHandler := handlers.NewPaymentHandler(b.payments.CreateIntent)
			paymentHandler.RegisterRoutes(protectedGroup)
		}
	}

	// ============================================
	// Admin Routes (privilege flag required)
	// ============================================

	adminGroup := v1.Group("/admin")
	adminGroup.Use(middleware.Auth(&middleware.AuthConfig{
		TokenValidator: b.config.AuthTokenValidator,
	}))
	adminGroup.Use(middleware.RequireAdmin())
	{
		if b.kyc != nil {
			kycHandler := handlers.NewKYCHandler(b.kyc.Submit, b.kyc.Approve, b.kyc.Reject, b.kyc.Resubmit)
			kycHandler.RegisterAdminRoutes(adminGroup)
		}
	}

	// ============================================
	// 404 Handler
	// ============================================

	router.NoRoute(func(c *gin.Context) {
		common.Error(c, 404, &common.APIError{
			Code:    common.ErrCodeNotFound,
			Message: "Endpoint not found",
			Details: map[string]interface{}{
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			},
		})
	})

	return router
}

// ============================================
// Quick Setup Functions
// ============================================

// NewRouter builds a router with the given configuration.
func NewRouter(config *RouterConfig) *gin.Engine {
	return NewRouterBuilder(config).Build()
}

// NewDevelopmentRouter builds a router for the development environment.
func NewDevelopmentRouter() *gin.Engine {
	config := DefaultRouterConfig()
	config.Environment = "development"
	return NewRouter(config)
}

// NewProductionRouter builds a router for the production environment.
func NewProductionRouter(pool *pgxpool.Pool, version string, allowedOrigins []string) *gin.Engine {
	config := &RouterConfig{
		Logger:         slog.Default(),
		Pool:           pool,
		Version:        version,
		Environment:    "production",
		AllowedOrigins: allowedOrigins,
		ServiceName:    "ledgercore",
		// Production needs a real token validator.
		AuthTokenValidator: nil, // must be set by the caller
	}
	return NewRouter(config)
}
