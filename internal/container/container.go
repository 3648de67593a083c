// Package container - Dependency Injection container for the application.
//
// The container owns the lifecycle of every dependency: creation,
// access, and cleanup. All wiring happens in this one place.
package container

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/paybridge/ledgercore/internal/adapters/http"
	"github.com/paybridge/ledgercore/internal/adapters/http/handlers"
	"github.com/paybridge/ledgercore/internal/adapters/http/middleware"
	"github.com/paybridge/ledgercore/internal/application/ports"
	"github.com/paybridge/ledgercore/internal/application/usecases/kyc"
	"github.com/paybridge/ledgercore/internal/application/usecases/ledger"
	"github.com/paybridge/ledgercore/internal/application/usecases/maintenance"
	"github.com/paybridge/ledgercore/internal/application/usecases/payment"
	"github.com/paybridge/ledgercore/internal/application/usecases/transaction"
	"github.com/paybridge/ledgercore/internal/application/usecases/user"
	"github.com/paybridge/ledgercore/internal/application/usecases/wallet"
	"github.com/paybridge/ledgercore/internal/application/usecases/webhook"
	"github.com/paybridge/ledgercore/internal/config"
	"github.com/paybridge/ledgercore/internal/infrastructure/cache"
	"github.com/paybridge/ledgercore/internal/infrastructure/persistence/postgres"
	"github.com/paybridge/ledgercore/internal/infrastructure/queue"
	"github.com/paybridge/ledgercore/internal/infrastructure/scheduler"
	"github.com/paybridge/ledgercore/internal/pkg/logger"
	"github.com/paybridge/ledgercore/internal/pkg/tracing"
)

// ============================================
// Container
// ============================================

// Container is the application's dependency injection container.
type Container struct {
	config *config.Config
	logger *slog.Logger

	// Infrastructure
	pool        *pgxpool.Pool
	redisClient *redis.Client
	natsConn    *nats.Conn

	// Repositories
	userRepo          ports.UserRepository
	walletRepo        ports.WalletRepository
	transactionRepo   ports.TransactionRepository
	ledgerRepo        ports.LedgerRepository
	paymentIntentRepo ports.PaymentIntentRepository
	webhookEventRepo  ports.WebhookEventRepository
	outboxRepo        *postgres.OutboxRepository

	// Unit of Work
	uow ports.UnitOfWork

	// Event Publisher (backed by the outbox)
	eventPublisher ports.EventPublisher
	eventRelay     ports.EventRelay

	// Idempotency cache / webhook queue
	idempotencyCache ports.IdempotencyCache
	webhookQueue     ports.WebhookQueue

	// Use Cases
	createUserUC         *user.CreateUserUseCase
	getUserUC            *user.GetUserUseCase
	listUsersUC          *user.ListUsersUseCase
	submitKYCUC          *kyc.SubmitUseCase
	approveKYCUC         *kyc.ApproveUseCase
	rejectKYCUC          *kyc.RejectUseCase
	resubmitKYCUC        *kyc.ResubmitUseCase
	expireKYCUC          *kyc.ExpireUseCase
	getWalletUC          *wallet.GetWalletUseCase
	transferUC           *ledger.TransferUseCase
	depositUC            *ledger.DepositUseCase
	getTransactionUC     *transaction.GetTransactionUseCase
	listTransactionsUC   *transaction.ListTransactionsUseCase
	createIntentUC       *payment.CreateIntentUseCase
	ingestor             *webhook.Ingestor
	processor            *webhook.Processor
	purgeWebhookEventsUC *maintenance.PurgeWebhookEventsUseCase
	relayOutboxEventsUC  *maintenance.RelayOutboxEventsUseCase
	retryFailedOutboxUC  *maintenance.RetryFailedOutboxEventsUseCase
	cleanupOutboxUC      *maintenance.CleanupOutboxUseCase

	// Background workers
	scheduler     *scheduler.Scheduler
	workerCancel  context.CancelFunc
	workerStopped chan struct{}

	// Tracing
	tracingShutdown tracing.Shutdown

	// HTTP
	httpServer *http.Server
}

// New creates a container with the given configuration.
func New(cfg *config.Config) *Container {
	return &Container{
		config: cfg,
	}
}

// ============================================
// Initialization
// ============================================

// Initialize builds every dependency.
func (c *Container) Initialize(ctx context.Context) error {
	c.logger = c.initLogger()
	c.logger.Info("Initializing application container...")

	if err := c.initTracing(ctx); err != nil {
		// Tracing is diagnostic, never load-bearing.
		c.logger.Warn("Tracing setup failed, continuing without span export", "error", err)
	}

	if err := c.initDatabase(ctx); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database connected")

	if err := c.initRedis(ctx); err != nil {
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	c.logger.Info("Redis connected")

	if err := c.initNATS(); err != nil {
		return fmt.Errorf("failed to initialize nats: %w", err)
	}
	c.logger.Info("NATS connected")

	c.initRepositories()
	c.logger.Info("Repositories initialized")

	c.initUseCases()
	c.logger.Info("Use cases initialized")

	c.initHTTPServer()
	c.logger.Info("HTTP server initialized")

	if err := c.startBackgroundWorkers(); err != nil {
		return fmt.Errorf("failed to start background workers: %w", err)
	}
	c.logger.Info("Background workers started")

	c.logger.Info("Container initialization complete")
	return nil
}

// initLogger builds the logger. The ContextHandler wrapper pulls
// correlation/request/user/trace IDs out of the context on every
// record.
func (c *Container) initLogger() *slog.Logger {
	log := logger.New(&logger.Config{
		Level:     c.config.Log.Level,
		Format:    c.config.Log.Format,
		Output:    os.Stdout,
		AddSource: c.config.App.Debug,
	})

	slog.SetDefault(log)
	return log
}

// initTracing installs the global tracer provider.
func (c *Container) initTracing(ctx context.Context) error {
	shutdown, err := tracing.Setup(ctx, tracing.Config{
		ServiceName:    c.config.App.Name,
		ServiceVersion: c.config.App.Version,
		Environment:    c.config.App.Environment,
		OTLPEndpoint:   c.config.Tracing.OTLPEndpoint,
	})
	c.tracingShutdown = shutdown
	return err
}

// initDatabase connects to the database. The statement timeout is
// set at the pool level so a lock contention storm cannot hold
// workers past the limit.
func (c *Container) initDatabase(ctx context.Context) error {
	pool, err := postgres.NewPool(ctx, postgres.PoolConfig{
		DSN:              c.config.Database.DSN(),
		MaxConns:         c.config.Database.MaxConnections,
		MinConns:         c.config.Database.MinConnections,
		MaxConnLifetime:  c.config.Database.MaxConnLifetime,
		MaxConnIdleTime:  c.config.Database.MaxConnIdleTime,
		StatementTimeout: c.config.Database.StatementTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	c.pool = pool
	return nil
}

// initRedis builds the Redis client for the idempotency cache.
func (c *Container) initRedis(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:     c.config.Redis.Addr,
		Password: c.config.Redis.Password,
		DB:       c.config.Redis.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	c.redisClient = client
	return nil
}

// initNATS connects to NATS for the webhook event queue.
func (c *Container) initNATS() error {
	conn, err := nats.Connect(c.config.NATS.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to nats: %w", err)
	}

	c.natsConn = conn
	return nil
}

// initRepositories builds the repositories.
func (c *Container) initRepositories() {
	c.userRepo = postgres.NewUserRepository(c.pool)
	c.walletRepo = postgres.NewWalletRepository(c.pool)
	c.transactionRepo = postgres.NewTransactionRepository(c.pool)
	c.ledgerRepo = postgres.NewLedgerRepository(c.pool)
	c.paymentIntentRepo = postgres.NewPaymentIntentRepository(c.pool)
	c.webhookEventRepo = postgres.NewWebhookEventRepository(c.pool)
	c.outboxRepo = postgres.NewOutboxRepository(c.pool)

	// Unit of Work
	c.uow = postgres.NewUnitOfWork(c.pool)

	// Event publisher (OutboxRepository implements the interface)
	c.eventPublisher = c.outboxRepo

	// Event Relay - consumer side of the outbox, drains it onto NATS
	c.eventRelay = queue.NewNATSEventRelay(c.natsConn, c.config.NATS.EventsSubject, c.logger)

	// Fast-tier idempotency cache and webhook delivery queue
	c.idempotencyCache = cache.NewRedisIdempotencyCache(c.redisClient, c.logger)
	c.webhookQueue = queue.NewNATSWebhookQueue(c.natsConn, c.config.NATS.Subject, c.logger)
}

// initUseCases builds the use cases.
func (c *Container) initUseCases() {
	// User use cases
	c.createUserUC = user.NewCreateUserUseCase(c.userRepo, c.walletRepo, c.eventPublisher, c.uow)
	c.getUserUC = user.NewGetUserUseCase(c.userRepo)
	c.listUsersUC = user.NewListUsersUseCase(c.userRepo)

	// KYC use cases
	c.submitKYCUC = kyc.NewSubmitUseCase(c.userRepo, c.eventPublisher, c.uow)
	c.approveKYCUC = kyc.NewApproveUseCase(c.userRepo, c.eventPublisher, c.uow)
	c.rejectKYCUC = kyc.NewRejectUseCase(c.userRepo, c.eventPublisher, c.uow)
	c.resubmitKYCUC = kyc.NewResubmitUseCase(c.userRepo, c.eventPublisher, c.uow)
	c.expireKYCUC = kyc.NewExpireUseCase(c.userRepo, c.eventPublisher, c.uow)

	// Wallet use cases
	c.getWalletUC = wallet.NewGetWalletUseCase(c.walletRepo)

	// Ledger use cases - the transfer engine
	minAmount, err := decimal.NewFromString(c.config.Transaction.MinAmount)
	if err != nil {
		minAmount = decimal.NewFromInt(1)
	}
	maxAmount, err := decimal.NewFromString(c.config.Transaction.MaxAmount)
	if err != nil {
		maxAmount = decimal.NewFromInt(1000000)
	}

	c.transferUC = ledger.NewTransferUseCase(
		c.userRepo,
		c.walletRepo,
		c.transactionRepo,
		c.ledgerRepo,
		c.idempotencyCache,
		c.eventPublisher,
		c.uow,
		minAmount,
		maxAmount,
		c.config.Transaction.IdempotencyTimeout,
	)
	c.depositUC = ledger.NewDepositUseCase(
		c.walletRepo,
		c.transactionRepo,
		c.ledgerRepo,
		c.eventPublisher,
		c.uow,
	)

	// Transaction query use cases
	c.getTransactionUC = transaction.NewGetTransactionUseCase(c.transactionRepo)
	c.listTransactionsUC = transaction.NewListTransactionsUseCase(c.transactionRepo)

	// Payment intent use case
	c.createIntentUC = payment.NewCreateIntentUseCase(c.paymentIntentRepo, c.eventPublisher)

	// Webhook pipeline
	c.ingestor = webhook.NewIngestor(
		c.webhookEventRepo,
		c.webhookQueue,
		c.eventPublisher,
		[]byte(c.config.Webhook.GatewaySecret),
	)
	c.processor = webhook.NewProcessor(
		c.webhookEventRepo,
		c.paymentIntentRepo,
		c.depositUC,
		c.webhookQueue,
		c.config.Webhook.MaxRetries,
		time.Duration(c.config.Webhook.RetryBaseSeconds)*time.Second,
	)

	// Maintenance
	c.purgeWebhookEventsUC = maintenance.NewPurgeWebhookEventsUseCase(
		c.webhookEventRepo,
		time.Duration(c.config.Webhook.RetentionDays)*24*time.Hour,
	)
	c.relayOutboxEventsUC = maintenance.NewRelayOutboxEventsUseCase(c.outboxRepo, c.eventRelay, 100)
	c.retryFailedOutboxUC = maintenance.NewRetryFailedOutboxEventsUseCase(c.outboxRepo, 200)
	c.cleanupOutboxUC = maintenance.NewCleanupOutboxUseCase(
		c.outboxRepo,
		time.Duration(c.config.Cron.OutboxRetentionDays)*24*time.Hour,
	)

	c.scheduler = scheduler.NewScheduler(
		c.purgeWebhookEventsUC,
		c.expireKYCUC,
		c.relayOutboxEventsUC,
		c.retryFailedOutboxUC,
		c.cleanupOutboxUC,
		c.userRepo,
		c.webhookEventRepo,
		c.webhookQueue,
		c.logger,
	)
}

// initHTTPServer builds the HTTP server.
func (c *Container) initHTTPServer() {
	tokenValidator := middleware.MockTokenValidator
	if !c.config.Auth.EnableMockAuth {
		tokenValidator = middleware.NewJWTTokenValidator(c.config.Auth.JWTSecret, c.config.Auth.JWTIssuer)
	}

	routerConfig := &http.RouterConfig{
		Logger:             c.logger,
		Pool:               c.pool,
		Version:            c.config.App.Version,
		BuildTime:          c.config.App.BuildTime,
		Environment:        c.config.App.Environment,
		AllowedOrigins:     c.config.CORS.AllowedOrigins,
		AuthTokenValidator: tokenValidator,
		ServiceName:        c.config.App.Name,
		ReadinessChecks: map[string]handlers.DependencyCheck{
			"redis": func(ctx context.Context) error {
				return c.redisClient.Ping(ctx).Err()
			},
			"nats": func(ctx context.Context) error {
				if !c.natsConn.IsConnected() {
					return errors.New("nats connection lost")
				}
				return nil
			},
		},
	}

	router := http.NewRouterBuilder(routerConfig).
		WithUserUseCases(&http.UserUseCases{
			CreateUser: c.createUserUC,
			GetUser:    c.getUserUC,
			ListUsers:  c.listUsersUC,
		}).
		WithKYCUseCases(&http.KYCUseCases{
			Submit:   c.submitKYCUC,
			Approve:  c.approveKYCUC,
			Reject:   c.rejectKYCUC,
			Resubmit: c.resubmitKYCUC,
		}).
		WithWalletUseCases(&http.WalletUseCases{
			GetWallet: c.getWalletUC,
		}).
		WithTransactionUseCases(&http.TransactionUseCases{
			Transfer:         c.transferUC,
			GetTransaction:   c.getTransactionUC,
			ListTransactions: c.listTransactionsUC,
		}).
		WithPaymentUseCases(&http.PaymentUseCases{
			CreateIntent: c.createIntentUC,
		}).
		WithWebhookUseCases(&http.WebhookUseCases{
			Ingest: c.ingestor,
		}).
		Build()

	serverConfig := &http.ServerConfig{
		Host:            c.config.Server.Host,
		Port:            fmt.Sprintf("%d", c.config.Server.Port),
		ReadTimeout:     c.config.Server.ReadTimeout,
		WriteTimeout:    c.config.Server.WriteTimeout,
		IdleTimeout:     c.config.Server.IdleTimeout,
		ShutdownTimeout: c.config.Server.ShutdownTimeout,
		Logger:          c.logger,
	}

	c.httpServer = http.NewServer(serverConfig, router)
}

// startBackgroundWorkers starts the webhook delivery subscription and
// the maintenance cron scheduler. Both run for the lifetime of the
// process and are stopped from Shutdown.
func (c *Container) startBackgroundWorkers() error {
	workerCtx, cancel := context.WithCancel(context.Background())
	c.workerCancel = cancel
	c.workerStopped = make(chan struct{})

	go func() {
		defer close(c.workerStopped)
		err := c.webhookQueue.Subscribe(workerCtx, c.processor.Process)
		if err != nil && workerCtx.Err() == nil {
			c.logger.Error("webhook queue subscription ended unexpectedly", "error", err)
		}
	}()

	if err := c.scheduler.Start(c.config.Cron.PurgeSchedule, c.config.Cron.OutboxRelaySchedule); err != nil {
		cancel()
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	return nil
}

// ============================================
// Getters
// ============================================

// Config returns the configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the logger.
func (c *Container) Logger() *slog.Logger {
	return c.logger
}

// Pool returns the database connection pool.
func (c *Container) Pool() *pgxpool.Pool {
	return c.pool
}

// HTTPServer returns the HTTP server.
func (c *Container) HTTPServer() *http.Server {
	return c.httpServer
}

// ============================================
// Repository Getters
// ============================================

// UserRepository returns the user repository.
func (c *Container) UserRepository() ports.UserRepository {
	return c.userRepo
}

// WalletRepository returns the wallet repository.
func (c *Container) WalletRepository() ports.WalletRepository {
	return c.walletRepo
}

// TransactionRepository returns the transaction repository.
func (c *Container) TransactionRepository() ports.TransactionRepository {
	return c.transactionRepo
}

// UnitOfWork returns the unit of work.
func (c *Container) UnitOfWork() ports.UnitOfWork {
	return c.uow
}

// ============================================
// Use Case Getters
// ============================================

// TransferUseCase returns the transfer use case.
func (c *Container) TransferUseCase() *ledger.TransferUseCase {
	return c.transferUC
}

// DepositUseCase returns the deposit use case.
func (c *Container) DepositUseCase() *ledger.DepositUseCase {
	return c.depositUC
}

// ============================================
// Shutdown
// ============================================

// Shutdown gracefully stops every component.
func (c *Container) Shutdown(ctx context.Context) error {
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger.Info("Shutting down container...")

	var errs []error

	if c.scheduler != nil {
		c.scheduler.Stop()
	}

	if c.workerCancel != nil {
		c.workerCancel()
		select {
		case <-c.workerStopped:
		case <-ctx.Done():
			c.logger.Warn("webhook worker shutdown timeout")
		}
	}

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("HTTP server shutdown: %w", err))
		}
	}

	if c.natsConn != nil {
		c.natsConn.Close()
	}

	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}

	if c.tracingShutdown != nil {
		if err := c.tracingShutdown(ctx); err != nil {
			c.logger.Warn("tracing shutdown failed", "error", err)
		}
	}

	if c.pool != nil {
		done := make(chan struct{})
		go func() {
			c.pool.Close()
			close(done)
		}()

		select {
		case <-done:
			c.logger.Info("Database connection closed")
		case <-ctx.Done():
			c.logger.Warn("Database close timeout")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	c.logger.Info("Container shutdown complete")
	return nil
}

// ============================================
// Run
// ============================================

// Run starts the application and waits for a shutdown signal.
func (c *Container) Run() error {
	c.logger.Info("Starting PayBridge API Server",
		slog.String("version", c.config.App.Version),
		slog.String("environment", c.config.App.Environment),
		slog.String("address", c.config.Server.Address()),
	)

	return c.httpServer.Run()
}

// ============================================
// Health Check
// ============================================

// HealthStatus is the application health snapshot.
type HealthStatus struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Uptime  time.Duration     `json:"uptime"`
	Checks  map[string]string `json:"checks"`
}

// Health reports the application health.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Status:  "healthy",
		Version: c.config.App.Version,
		Checks:  make(map[string]string),
	}

	if err := c.pool.Ping(ctx); err != nil {
		status.Status = "unhealthy"
		status.Checks["database"] = "error: " + err.Error()
	} else {
		status.Checks["database"] = "ok"
	}

	if err := c.redisClient.Ping(ctx).Err(); err != nil {
		status.Status = "unhealthy"
		status.Checks["redis"] = "error: " + err.Error()
	} else {
		status.Checks["redis"] = "ok"
	}

	if !c.natsConn.IsConnected() {
		status.Status = "unhealthy"
		status.Checks["nats"] = "disconnected"
	} else {
		status.Checks["nats"] = "ok"
	}

	return status
}
