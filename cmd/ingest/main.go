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

// ingest runs the initial load: every year from the configured start year to
// the current one, skipping filings that are already stored.
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

	currentYear := time.Now().Year()
	for year := cfg.Ingest.StartYear; year <= currentYear; year++ {
		log.Info().Int("year", year).Msg("processing year")
		if err := engine.InitialLoad(ctx, year); err != nil {
			if ctx.Err() != nil {
				log.Warn().Msg("interrupted, stopping")
				return
			}
			log.Error().Err(err).Int("year", year).Msg("year load failed, continuing")
		}
	}
	log.Info().Msg("initial load complete")
}
