package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Freeeeeet/room_booking/internal/config"
	"github.com/Freeeeeet/room_booking/internal/distance"
	"github.com/Freeeeeet/room_booking/internal/metrics"
	"github.com/Freeeeeet/room_booking/internal/notify"
	"github.com/Freeeeeet/room_booking/internal/repository"
	"github.com/Freeeeeet/room_booking/internal/service"
	"github.com/Freeeeeet/room_booking/internal/store"
	"github.com/Freeeeeet/room_booking/internal/store/memstore"
)

// Services is what the booking engine exposes to an API layer.
type Services struct {
	Bookings  *service.BookingService
	Buildings *service.BuildingService
	Rooms     *service.RoomService
}

// App owns every long-lived dependency of the process.
type App struct {
	Services Services

	cfg       *config.Config
	logger    *zap.Logger
	registry  *prometheus.Registry
	store     store.Store
	distances distance.Provider
	pool      *pgxpool.Pool
	redis     *redis.Client
	scheduler *Scheduler
}

// New connects to storage, applies migrations and builds the services.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(a.registry)

	if err := a.openStore(ctx); err != nil {
		a.Close()
		return nil, err
	}

	var source distance.Source = a.store
	if cfg.Redis.Addr != "" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		source = distance.NewRedisCache(a.redis, a.store, cfg.Distance.CacheTTL, logger)
		logger.Info("Shared distance cache enabled", zap.String("addr", cfg.Redis.Addr))
	}
	a.distances = distance.NewLocalCache(source, cfg.Distance.CacheSize, cfg.Distance.CacheTTL)

	var notifier notify.Notifier = notify.Nop{}
	if cfg.Telegram.Token != "" {
		tg, err := notify.NewTelegramBot(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			a.Close()
			return nil, err
		}
		notifier = tg
		logger.Info("Telegram notifications enabled", zap.Int64("chat_id", cfg.Telegram.ChatID))
	}

	opts := []service.Option{service.WithMaxAttempts(cfg.Booking.MaxAttempts)}
	a.Services = Services{
		Bookings:  service.NewBookingService(a.store, a.distances, notifier, m, logger, opts...),
		Buildings: service.NewBuildingService(a.store, a.distances, m, logger, opts...),
		Rooms:     service.NewRoomService(a.store, notifier, m, logger, opts...),
	}
	a.scheduler = NewScheduler(a.store, a.distances, cfg.Distance.RefreshInterval, logger)
	return a, nil
}

func (a *App) openStore(ctx context.Context) error {
	if a.cfg.Storage == config.StorageMemory {
		a.logger.Warn("Using in-memory storage, data is lost on exit")
		a.store = memstore.New()
		return nil
	}

	pool, err := repository.NewPool(ctx, repository.PoolConfig{
		DSN:             a.cfg.DBDSN,
		MaxConns:        a.cfg.DBMaxConns,
		ApplicationName: "room_booking",
	})
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	a.pool = pool

	migrator, err := NewMigrator(pool, a.cfg.MigrationsDir, a.logger)
	if err != nil {
		return err
	}
	defer migrator.Close()
	if err := migrator.Run(ctx); err != nil {
		return err
	}

	a.store = repository.NewStore(pool)
	return nil
}

// Ready checks the database and redis connections.
func (a *App) Ready(ctx context.Context) error {
	var errs []error
	if a.pool != nil {
		if err := a.pool.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Ping(ctx).Err(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Run starts the background jobs and the ops server and blocks until ctx is
// done or the server fails.
func (a *App) Run(ctx context.Context) error {
	a.scheduler.Start(ctx)
	defer a.scheduler.Stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ServeOps(ctx, a.cfg.OpsAddr, NewOpsRouter(a.registry, a.Ready), a.logger)
	})
	return g.Wait()
}

// Close releases connections. It is safe to call on a partly built App.
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("Failed to close redis client", zap.Error(err))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
