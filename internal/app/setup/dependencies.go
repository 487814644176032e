package setup

import (
	"context"
	"fmt"
	"strings"

	"github.com/LavaJover/shvark-settlement-service/internal/config"
	"github.com/LavaJover/shvark-settlement-service/internal/domain"
	"github.com/LavaJover/shvark-settlement-service/internal/infrastructure/ai"
	publisher "github.com/LavaJover/shvark-settlement-service/internal/infrastructure/kafka"
	"github.com/LavaJover/shvark-settlement-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-settlement-service/internal/infrastructure/migrate"
	"github.com/LavaJover/shvark-settlement-service/internal/infrastructure/postgres"
	"github.com/LavaJover/shvark-settlement-service/internal/infrastructure/postgres/repository"
	redislease "github.com/LavaJover/shvark-settlement-service/internal/infrastructure/redis"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Dependencies struct {
	Config         *config.SettlementConfig
	DB             *gorm.DB
	Logger         *zap.Logger
	Metrics        *metrics.NegotiationMetrics
	KafkaPublisher *publisher.KafkaPublisher
	EventPublisher domain.EventPublisher
	Subscriber     domain.SubscriberPort
	Redis          *goredis.Client
	Lease          domain.GenerationLease
	Generator      domain.ProposalGenerator
	Repositories   *Repositories
}

type Repositories struct {
	DisputeRepo domain.DisputeRepository
}

func InitializeDependencies(ctx context.Context, cfg *config.SettlementConfig, logger *zap.Logger) (*Dependencies, error) {
	// The leases, the reaper and the usecase must agree on one threshold.
	cfg.Generation = cfg.Generation.Normalize()

	db := postgres.MustInitDB(cfg)
	if err := migrate.RunMigrations(db, cfg.SettlementDB.MigrationsPath, logger); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	kafkaConfig := publisher.KafkaConfig{
		Brokers:    cfg.Kafka.Brokers,
		Username:   cfg.Kafka.Username,
		Password:   cfg.Kafka.Password,
		Mechanism:  cfg.Kafka.Mechanism,
		TLSEnabled: cfg.Kafka.TLSEnabled,
	}
	kafkaPublisher, err := publisher.NewKafkaPublisher(kafkaConfig)
	if err != nil {
		return nil, fmt.Errorf("kafka publisher: %w", err)
	}
	eventPublisher := publisher.NewEventPublisher(kafkaPublisher, publisher.Topics{
		Negotiation: cfg.Kafka.NegotiationTopic,
		Invitation:  cfg.Kafka.InvitationTopic,
	})

	generator, err := ai.NewOpenAIGenerator(ai.OpenAIConfig{
		ResponsesURL: cfg.AI.ResponsesURL,
		APIKey:       cfg.AI.APIKey,
		Model:        cfg.AI.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("proposal generator: %w", err)
	}

	deps := &Dependencies{
		Config:         cfg,
		DB:             db,
		Logger:         logger,
		Metrics:        metrics.NewNegotiationMetrics(prometheus.DefaultRegisterer),
		KafkaPublisher: kafkaPublisher,
		EventPublisher: eventPublisher,
		Subscriber:     publisher.NewDefaultKafkaSubscriber(kafkaConfig, logger),
		Generator:      generator,
		Repositories: &Repositories{
			DisputeRepo: repository.NewDefaultDisputeRepository(db),
		},
	}

	if err := initGenerationLease(ctx, deps); err != nil {
		_ = kafkaPublisher.Close()
		return nil, fmt.Errorf("generation lease: %w", err)
	}
	return deps, nil
}

func initGenerationLease(ctx context.Context, deps *Dependencies) error {
	cfg := deps.Config
	if strings.EqualFold(cfg.Generation.LockBackend, "redis") {
		rdb, err := redislease.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		deps.Redis = rdb
	}
	lease, err := newGenerationLease(cfg.Generation, deps.DB, deps.Redis)
	if err != nil {
		return err
	}
	deps.Lease = lease
	deps.Logger.Info("generation lease configured",
		zap.String("backend", cfg.Generation.LockBackend),
		zap.Duration("stale_after", cfg.Generation.StaleAfter),
	)
	return nil
}

func newGenerationLease(generation config.Generation, db *gorm.DB, rdb *goredis.Client) (domain.GenerationLease, error) {
	generation = generation.Normalize()
	switch strings.ToLower(generation.LockBackend) {
	case "", "postgres":
		return repository.NewGenerationLease(db, generation.StaleAfter), nil
	case "redis":
		return redislease.NewGenerationLease(rdb, "", generation.StaleAfter), nil
	default:
		return nil, fmt.Errorf("unknown lock backend %q", generation.LockBackend)
	}
}

// Close releases external connections. The usecases must be shut down
// first so no generation publishes into a closed writer.
func (d *Dependencies) Close() {
	if err := d.KafkaPublisher.Close(); err != nil {
		d.Logger.Error("failed to close kafka writer", zap.Error(err))
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error("failed to close redis client", zap.Error(err))
		}
	}
	if sqlDB, err := d.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			d.Logger.Error("failed to close database", zap.Error(err))
		}
	}
}

// PingDB reports whether the database answers.
func (d *Dependencies) PingDB(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
