package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/trogers1052/congress-trades-service/internal/config"
	"github.com/trogers1052/congress-trades-service/internal/database"
	"github.com/trogers1052/congress-trades-service/internal/disclosures"
	"github.com/trogers1052/congress-trades-service/internal/ingest"
	"github.com/trogers1052/congress-trades-service/internal/kafka"
	"github.com/trogers1052/congress-trades-service/internal/logger"
	"github.com/trogers1052/congress-trades-service/internal/prices"
)

// update runs one incremental cycle, typically from a scheduler: ingest the
// current year's new filings, then fill follow-up prices for records that
// matured today.
func main() {
	_ = godotenv.Load()
	log := logger.New()
	cfg := config.Load()

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatal().Err(err).Msg("database unreachable")
	}
	defer db.Close()

	if err := db.Migrate("db/migrations"); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	market := prices.NewClient(cfg.Market.BaseURL, cfg.Market.APIKey,
		cfg.Market.RequestsPerSecond, cfg.Market.Timeout)
	resolver := prices.NewResolver(market, market,
		prices.NewQuoteCache(rdb, cfg.Redis.QuoteTTL), log)

	clerk := disclosures.NewClient(cfg.Disclosures.BaseURL,
		cfg.Disclosures.RequestsPerSecond, cfg.Disclosures.Timeout,
		disclosures.NewPdftotextExtractor())

	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TradesTopic, cfg.Kafka.FilingsTopic)
	defer producer.Close()

	engine := ingest.NewEngine(clerk, clerk, resolver, db, producer, ingest.Options{
		DocumentBatch:   cfg.Ingest.DocumentBatch,
		BatchPause:      cfg.Ingest.BatchPause,
		InsertBatch:     cfg.Ingest.InsertBatch,
		EligibilityDays: cfg.Ingest.EligibilityDays,
	}, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := engine.IngestNewFilings(ctx, time.Now().Year()); err != nil {
		log.Error().Err(err).Msg("new filings pass failed")
	}
	if err := engine.UpdateMaturedPrices(ctx); err != nil {
		log.Error().Err(err).Msg("price maturity pass failed")
	}
	log.Info().Msg("incremental update complete")
}
