package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/daotrust/daotrust/internal/ledger"
	"github.com/daotrust/daotrust/internal/scoring"
	"github.com/daotrust/daotrust/internal/server/handler"
	"github.com/daotrust/daotrust/internal/voting"
	"github.com/daotrust/daotrust/internal/wallet"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	if err := run(logger); err != nil {
		logger.Fatal("daotrustd exited with error", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	// ── Configuration ────────────────────────────────────────────────────────
	viper.SetConfigName("daotrust")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("configs")
	viper.AddConfigPath(".")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.cors_origins", []string{"http://localhost:3000"})
	viper.SetDefault("server.rate_limit_rps", 20)
	viper.SetDefault("server.admin_secret", "")
	viper.SetDefault("server.timeline_window", 10)
	viper.SetDefault("ledger.file_path", "data/ledger.jsonl")
	viper.SetDefault("database.url", "")
	viper.SetDefault("vote.quorum", 60)
	viper.SetDefault("wallet.mode", "mock")

	if err := viper.ReadInConfig(); err != nil {
		var cfgNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgNotFound) {
			return fmt.Errorf("read config: %w", err)
		}
		logger.Warn("no config file found, using defaults and env vars")
	}

	// ── Durable sink ─────────────────────────────────────────────────────────
	var sink ledger.Sink
	backend := "file"
	if dbURL := viper.GetString("database.url"); dbURL != "" {
		db, err := pgxpool.New(context.Background(), dbURL)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer db.Close()

		if err := db.Ping(context.Background()); err != nil {
			return fmt.Errorf("ping postgres: %w", err)
		}
		logger.Info("connected to postgres")

		pgSink := ledger.NewPostgresSink(db, logger)
		if err := pgSink.EnsureSchema(context.Background()); err != nil {
			return fmt.Errorf("ensure ledger schema: %w", err)
		}
		sink = pgSink
		backend = "postgres"
	} else {
		sink = ledger.NewFileSink(viper.GetString("ledger.file_path"), logger)
	}

	// ── Ledger core ──────────────────────────────────────────────────────────
	core := ledger.NewCore(sink, logger)
	core.Recover(context.Background())
	if h := core.Height(); h > 0 {
		logger.Info("continuing existing chain",
			zap.Uint64("height", h),
			zap.String("tip", core.TipHash()),
		)
	} else {
		logger.Info("no durable chain state, next append is genesis")
	}

	// ── Collaborator mocks ───────────────────────────────────────────────────
	scorer := scoring.NewHeuristicScorer()
	votes := voting.NewQuorumSimulator(viper.GetInt("vote.quorum"))

	var connector wallet.Connector
	switch viper.GetString("wallet.mode") {
	case "noop":
		connector = wallet.NewNoopConnector(logger)
		logger.Info("wallet connector: noop (entries may have no address)")
	default:
		connector = wallet.NewMockConnector(logger)
		logger.Info("wallet connector: mock")
	}

	// ── Handlers ─────────────────────────────────────────────────────────────
	window := viper.GetInt("server.timeline_window")
	ledgerHandler := handler.NewLedgerHandler(core, scorer, votes, window, logger)
	ledgerHandler.SetWalletConnector(connector)
	ledgerHandler.SetBackendLabel(backend)

	if secret := viper.GetString("server.admin_secret"); secret != "" {
		ledgerHandler.SetAdminTokens(handler.NewAdminTokens(secret, time.Hour))
	} else {
		logger.Warn("no admin secret configured, reset endpoint disabled")
	}

	// ── HTTP Router ──────────────────────────────────────────────────────────
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	corsOrigins := viper.GetStringSlice("server.cors_origins")
	router.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: !containsWildcard(corsOrigins),
		MaxAge:           12 * time.Hour,
	}))

	// Security headers
	router.Use(func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	})

	// Request body size limit (1 MB)
	router.Use(func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 1<<20)
		c.Next()
	})

	if rps := viper.GetInt("server.rate_limit_rps"); rps > 0 {
		router.Use(handler.RateLimiter(rps, rps*2))
	}

	router.Use(requestLogger(logger))
	router.Use(handler.PrometheusMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", handler.MetricsHandler())

	v1 := router.Group("/api/v1")
	ledgerHandler.Register(v1)

	// ── Serve ────────────────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	httpPort := viper.GetInt("server.port")
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", httpPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("daotrustd listening", zap.Int("port", httpPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP listen error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down daotrustd...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("HTTP shutdown error", zap.Error(err))
	}

	logger.Info("daotrustd stopped")
	return nil
}

// containsWildcard returns true if origins includes "*".
func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if strings.TrimSpace(o) == "*" {
			return true
		}
	}
	return false
}

// requestLogger returns a Gin middleware that logs each request with zap.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
