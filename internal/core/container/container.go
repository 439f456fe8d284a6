package container

import (
	"context"
	"errors"
	"fmt"

	auditLogRepo "semprejoias/internal/auditlog"
	"semprejoias/internal/catalog"
	"semprejoias/internal/core/config"
	"semprejoias/internal/database"
	"semprejoias/internal/inventory/conflicts"
	"semprejoias/internal/inventory/ledger"
	"semprejoias/internal/inventory/reservations"
	"semprejoias/internal/production/aging"
	"semprejoias/internal/production/archive"
	"semprejoias/internal/production/conversion"
	"semprejoias/internal/production/orders"
	"semprejoias/internal/rate_limiter"
	"semprejoias/internal/store"
	"semprejoias/internal/store/memory"
	"semprejoias/internal/store/postgres"
	"semprejoias/pkg/auditlog"

	"go.uber.org/zap"
)

type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	Store       store.Store
	AuditLog    *auditlog.Auditlog
	RateLimiter *rate_limiter.RateLimiter

	LedgerHandler      *ledger.LedgerHandler
	ReservationHandler *reservations.ReservationHandler
	ConflictHandler    *conflicts.ConflictHandler
	ConversionHandler  *conversion.ConversionHandler
	OrderHandler       *orders.OrderHandler
	ArchiveHandler     *archive.ArchiveHandler
	AgingHandler       *aging.AgingHandler
	// AuditLogHandler is nil unless audit entries are persisted in postgres.
	AuditLogHandler *auditLogRepo.Handler

	closers []func() error
}

func NewAppContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger}

	if err := c.openStore(ctx); err != nil {
		return nil, err
	}
	c.openAuditLog()

	catalogProvider := catalog.NewStaticProvider()
	ledgerService := ledger.NewLedgerService(c.Store, catalogProvider, c.AuditLog, logger)
	reservationService := reservations.NewReservationService(c.Store, c.AuditLog, logger)
	conflictService := conflicts.NewConflictService(c.Store, ledgerService, c.AuditLog, logger)
	conversionService := conversion.NewConversionService(c.Store, c.AuditLog, logger)
	orderService := orders.NewOrderService(c.Store, orders.PermissivePolicy{}, c.AuditLog, logger)
	archiveService := archive.NewArchiveService(c.Store, cfg.Archive.PageSize, c.AuditLog, logger)
	agingService := aging.NewAgingService(c.Store, cfg.Location(), logger)

	c.LedgerHandler = ledger.NewLedgerHandler(ledgerService, logger)
	c.ReservationHandler = reservations.NewReservationHandler(reservationService, logger)
	c.ConflictHandler = conflicts.NewConflictHandler(conflictService, logger)
	c.ConversionHandler = conversion.NewConversionHandler(conversionService, logger)
	c.OrderHandler = orders.NewOrderHandler(orderService, logger)
	c.ArchiveHandler = archive.NewArchiveHandler(archiveService, logger)
	c.AgingHandler = aging.NewAgingHandler(agingService, logger)

	c.RateLimiter = rate_limiter.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateWindow)
	c.closers = append(c.closers, func() error {
		c.RateLimiter.Stop()
		return nil
	})

	return c, nil
}

func (c *Container) openStore(ctx context.Context) error {
	switch c.Config.Store.Driver {
	case config.StoreDriverMemory:
		c.Logger.Warn("Using the in-memory store, data is lost on shutdown")
		c.Store = memory.NewStore(c.Logger)
	case config.StoreDriverPostgres:
		if c.Config.Postgres.URL == "" {
			return errors.New("DATABASE_URL environment variable is not set")
		}
		pg, err := postgres.Open(ctx, postgres.Config{
			DatabaseURL:   c.Config.Postgres.URL,
			NotifyChannel: c.Config.Store.NotifyChannel,
			Pool: database.PoolConfig{
				MaxOpenConns:    c.Config.Postgres.MaxOpenConns,
				MaxIdleConns:    c.Config.Postgres.MaxIdleConns,
				ConnMaxLifetime: c.Config.Postgres.ConnMaxLifetime,
			},
		}, c.Logger)
		if err != nil {
			return fmt.Errorf("open postgres store: %w", err)
		}
		c.Store = pg
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Config.Store.Driver)
	}

	c.closers = append(c.closers, c.Store.Close)
	c.Logger.Info("Store opened", zap.String("driver", c.Config.Store.Driver))
	return nil
}

func (c *Container) openAuditLog() {
	sinkName := c.Config.Audit.Sink

	var sink auditlog.Sink
	switch sinkName {
	case config.AuditSinkKafka:
		kafkaSink := auditlog.NewKafkaSink(auditlog.NewKafkaWriter(c.Config.Kafka.Brokers, c.Config.Kafka.AuditTopic))
		c.closers = append(c.closers, kafkaSink.Close)
		sink = kafkaSink
	case config.AuditSinkPostgres:
		if pg, ok := c.Store.(*postgres.Store); ok {
			repo := auditLogRepo.NewRepository(pg.Repository())
			c.AuditLogHandler = auditLogRepo.NewHandler(repo, c.Logger)
			sink = repo
			break
		}
		c.Logger.Warn("Postgres audit sink needs the postgres store, logging audit entries instead")
		sinkName = config.AuditSinkLog
		sink = auditlog.NewLogSink(c.Logger)
	default:
		sinkName = config.AuditSinkLog
		sink = auditlog.NewLogSink(c.Logger)
	}

	c.AuditLog = auditlog.NewAuditLog(sink, c.Logger)
	c.Logger.Info("Audit log ready", zap.String("sink", sinkName))
}

// Close releases resources in reverse order of acquisition.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
