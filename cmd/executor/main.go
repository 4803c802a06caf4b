package main

import (
	"context"
	"log"
	"math/big"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/rebased/rebased-api/internal/chain"
	"github.com/rebased/rebased-api/internal/client/aggregator"
	"github.com/rebased/rebased-api/internal/client/pyth"
	"github.com/rebased/rebased-api/internal/client/relay"
	"github.com/rebased/rebased-api/internal/db"
	"github.com/rebased/rebased-api/internal/engine"
	"github.com/rebased/rebased-api/internal/executor"
	"github.com/rebased/rebased-api/internal/logger"
	"github.com/rebased/rebased-api/internal/notifications"
	"github.com/rebased/rebased-api/internal/oracle"
	"github.com/rebased/rebased-api/internal/portfolio"
)

const defaultPythEndpoint = "https://hermes.pyth.network"

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	logger.InitLogger()
	defer logger.Sync()

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL environment variable is required")
	}
	relayURL := os.Getenv("RELAY_URL")
	if relayURL == "" {
		logger.Fatal("RELAY_URL environment variable is required")
	}
	aggregatorURL := os.Getenv("AGGREGATOR_URL")
	if aggregatorURL == "" {
		logger.Fatal("AGGREGATOR_URL environment variable is required")
	}

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		logger.Fatal("Unable to create connection pool", zap.Error(err))
	}
	defer pool.Close()
	queries := db.New(pool)

	chainClient, err := chain.NewClient(ctx)
	if err != nil {
		logger.Fatal("Unable to connect to chain RPCs", zap.Error(err))
	}
	defer chainClient.Close()

	pythEndpoint := os.Getenv("PYTH_ENDPOINT")
	if pythEndpoint == "" {
		pythEndpoint = defaultPythEndpoint
	}
	priceOracle := oracle.New(pyth.NewClient(pythEndpoint), chainClient)

	analyzer := portfolio.NewAnalyzer(chainClient, priceOracle)
	evaluator := engine.NewConditionEvaluator()
	planner := engine.NewPlanner()

	queue := buildQueue(ctx)
	sink := buildSink()

	aggregatorClient := aggregator.NewClient(aggregatorURL, os.Getenv("AGGREGATOR_API_KEY"))
	relayClient := relay.NewClient(relayURL, os.Getenv("RELAY_API_KEY"))

	scanner := executor.NewScanner(queries, analyzer, evaluator, planner, queue, envDuration("SCAN_INTERVAL_SECONDS"))
	coordinator := executor.NewCoordinator(
		queries, analyzer, evaluator, planner,
		aggregatorClient, relayClient, chainClient,
		queue, sink,
		executor.CoordinatorConfig{
			Workers:         envInt("EXECUTOR_WORKERS", 2),
			MaxGasPriceWei:  envBigInt("MAX_GAS_PRICE_WEI"),
			UsePrivateRelay: os.Getenv("USE_PRIVATE_RELAY") == "true",
			ExecutorLabel:   os.Getenv("EXECUTOR_LABEL"),
		},
	)

	scanner.Start()
	coordinator.Start()
	logger.Info("Executor running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down executor")
	scanner.Stop()
	coordinator.Stop()
}

// buildQueue selects the SQS backend when a queue URL is configured and the
// in-process queue otherwise.
func buildQueue(ctx context.Context) executor.JobQueue {
	if queueURL := os.Getenv("SQS_QUEUE_URL"); queueURL != "" {
		queue, err := executor.NewSQSQueue(ctx, queueURL)
		if err != nil {
			logger.Fatal("Unable to create SQS queue", zap.Error(err))
		}
		return queue
	}
	return executor.NewMemoryQueue(100)
}

func buildSink() notifications.Sink {
	if webhookURL := os.Getenv("NOTIFICATION_WEBHOOK_URL"); webhookURL != "" {
		return notifications.NewWebhookSink(webhookURL)
	}
	return notifications.NoopSink{}
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		logger.Fatal("Invalid integer environment variable", zap.String("key", key), zap.String("value", raw))
	}
	return value
}

func envDuration(key string) time.Duration {
	seconds := envInt(key, 0)
	return time.Duration(seconds) * time.Second
}

func envBigInt(key string) *big.Int {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	value, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		logger.Fatal("Invalid big integer environment variable", zap.String("key", key), zap.String("value", raw))
	}
	return value
}
