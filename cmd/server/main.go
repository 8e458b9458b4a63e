package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	grpcadapter "github.com/simaogato/portfolio-metrics/internal/adapter/grpc"
	httpadapter "github.com/simaogato/portfolio-metrics/internal/adapter/http"
	"github.com/simaogato/portfolio-metrics/internal/adapter/repository/memory"
	"github.com/simaogato/portfolio-metrics/internal/adapter/repository/postgres"
	"github.com/simaogato/portfolio-metrics/internal/config"
	"github.com/simaogato/portfolio-metrics/internal/domain"
	"github.com/simaogato/portfolio-metrics/internal/logger"
	"github.com/simaogato/portfolio-metrics/internal/usecase/bootstrap"
	"github.com/simaogato/portfolio-metrics/internal/usecase/seeder"
	"github.com/simaogato/portfolio-metrics/internal/usecase/trade"
	"github.com/simaogato/portfolio-metrics/internal/usecase/valuation"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// 1. Configuration and logging
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel)

	if cfg.UsesDefaultToken() {
		logger.L.Warn("API_TOKEN is not set, using the development token")
	}

	// 2. Setup store
	store, closeStore, err := openStore(cfg)
	if err != nil {
		logger.L.Error("Failed to open store", "store", cfg.Store, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	// 3. Initialize Services (Use Cases)
	valuationService := valuation.NewValuationService(store, cfg.AssetNameCacheTTL)
	bootstrapService := bootstrap.NewBootstrapService(store)
	tradeService := trade.NewTradeService(store)

	ctx := context.Background()
	if cfg.Seed.Enabled() {
		if err := seed(ctx, store, cfg); err != nil {
			logger.L.Error("Failed to load seed data", "error", err)
			os.Exit(1)
		}
	}

	// 4. Start HTTP server
	handler := httpadapter.NewPortfolioHandler(valuationService, bootstrapService, tradeService)
	httpServer := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: httpadapter.NewRouter(handler, httpadapter.RouterConfig{
			APIToken:       cfg.APIToken,
			RateLimitRPS:   cfg.RateLimitRPS,
			RateLimitBurst: cfg.RateLimitBurst,
			SignatureMsg:   cfg.SignatureMsg,
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.L.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L.Error("Failed to serve HTTP", "error", err)
			os.Exit(1)
		}
	}()

	// 5. Start gRPC Server
	grpcServer := grpclib.NewServer(
		grpclib.ChainUnaryInterceptor(
			grpcadapter.LoggingInterceptor(),
			grpcadapter.AuthInterceptor(cfg.APIToken, grpcadapter.GetMetricsMethod),
		),
	)

	grpcAdapter := grpcadapter.NewServer(valuationService, bootstrapService, tradeService)
	grpcadapter.RegisterPortfolioServiceServer(grpcServer, grpcAdapter)

	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		logger.L.Error("Failed to listen", "port", cfg.GRPCPort, "error", err)
		os.Exit(1)
	}

	go func() {
		logger.L.Info("gRPC server listening", "addr", lis.Addr().String())
		if err := grpcServer.Serve(lis); err != nil {
			logger.L.Error("Failed to serve gRPC", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	waitForShutdown(grpcServer, httpServer)
}

func openStore(cfg *config.Config) (domain.LedgerStore, func(), error) {
	if cfg.Store == config.StoreMemory {
		logger.L.Info("Using in-memory store")
		return memory.NewStore(), func() {}, nil
	}

	db, err := postgres.NewDB(cfg.DBConnStr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.RunMigrations {
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.L.Info("Database migrations applied")
	}

	closeFn := func() {
		if err := db.Close(); err != nil {
			logger.L.Warn("Failed to close database", "error", err)
		}
	}
	return postgres.NewStore(db), closeFn, nil
}

// seed loads the configured CSV files and bootstraps the portfolio when it holds nothing yet
func seed(ctx context.Context, store domain.LedgerStore, cfg *config.Config) error {
	t0, err := domain.ParseDate(cfg.Seed.InceptionDate)
	if err != nil {
		return fmt.Errorf("SEED_T0: %w", err)
	}
	v0, err := decimal.NewFromString(cfg.Seed.InitialValueUSD)
	if err != nil {
		return fmt.Errorf("SEED_V0: %w", err)
	}

	result, err := seeder.NewPortfolioSeeder(store, cfg.StrictWeights).Seed(ctx, seeder.Source{
		PricesPath:      cfg.Seed.PricesCSV,
		WeightsPath:     cfg.Seed.WeightsCSV,
		PortfolioName:   cfg.Seed.PortfolioName,
		InceptionDate:   t0,
		InitialValueUSD: v0,
	})
	if err != nil {
		return err
	}

	logger.L.Info("Seed data loaded",
		"portfolio_id", result.Load.Portfolio.ID,
		"portfolio", result.Load.Portfolio.Name,
		"bootstrapped", result.Bootstrapped,
		"lots", len(result.Lots),
	)
	return nil
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down both servers
func waitForShutdown(grpcServer *grpclib.Server, httpServer *http.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	logger.L.Info("Shutting down gracefully", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.L.Warn("HTTP server shutdown", "error", err)
	}
	logger.L.Info("HTTP server stopped")

	grpcServer.GracefulStop()
	logger.L.Info("gRPC server stopped")
}
