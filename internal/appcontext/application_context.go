package appcontext

import (
	"context"
	"errors"
	"fmt"

	"github.com/hango1705/bongland-backend/internal/api/handler"
	"github.com/hango1705/bongland-backend/internal/config"
	"github.com/hango1705/bongland-backend/internal/constants"
	"github.com/hango1705/bongland-backend/internal/infra/address"
	"github.com/hango1705/bongland-backend/internal/infra/auth/token"
	"github.com/hango1705/bongland-backend/internal/infra/kafka_client"
	"github.com/hango1705/bongland-backend/internal/infra/mail"
	"github.com/hango1705/bongland-backend/internal/infra/producer"
	"github.com/hango1705/bongland-backend/internal/infra/ratelimit"
	"github.com/hango1705/bongland-backend/internal/infra/redis_client"
	"github.com/hango1705/bongland-backend/internal/infra/repository/db"
	"github.com/hango1705/bongland-backend/internal/infra/repository/redis_repo"
	"github.com/hango1705/bongland-backend/internal/platform/logger"
	"github.com/hango1705/bongland-backend/internal/platform/observability"
	"github.com/hango1705/bongland-backend/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type ApplicationContext struct {
	Cf     *config.Config
	Logger *zerolog.Logger

	DbConn          *gorm.DB
	DbDao           db.UnifiedDB
	RedisClient     *redis.Client
	OrderProducer   kafka_client.Producer
	LogWriter       *logger.KafkaLogWriter
	TokenMaker      token.Maker
	Limiter         ratelimit.ILimiter
	IdempotencyRepo redis_repo.IIdempotencyRepo
	AddressClient   address.IAddressClient

	InventoryService  service.IInventoryService
	MailService       service.IMailService
	Dispatcher        *service.NotificationDispatcher
	OrderService      service.IOrderService
	OrderQueryService service.IOrderQueryService
	AddressService    service.IAddressService

	tracingShutdown func(context.Context) error
}

func NewApplicationContext(cf *config.Config) (*ApplicationContext, error) {
	if cf == nil {
		return nil, errors.New("config is nil")
	}
	app := ApplicationContext{
		Cf: cf,
	}

	if err := app.Init(); err != nil {
		// 已建立的連線要收掉
		_ = app.Shutdown(context.Background())
		return nil, err
	}

	return &app, nil
}

func (app *ApplicationContext) Init() error {
	steps := []func() error{
		app.setUpLogger,
		app.setUpTracing,
		app.setUpDbConn,
		app.setUpDbMigration,
		app.setUpRedis,
		app.setUpKafka,
		app.setUpLogShipping,
		app.setUpTokenMaker,
		app.setUpLimiter,
		app.setUpInventoryService,
		app.setUpMailService,
		app.setUpOrderService,
		app.setUpOrderQueryService,
		app.setUpAddressService,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func (app *ApplicationContext) setUpLogger() error {
	app.Logger = logger.SetupLogger(app.Cf.Env, app.Cf.LogLevel)
	log.Info().Str("env", app.Cf.Env).Str("level", app.Cf.LogLevel).Msg("logger ready")
	return nil
}

func (app *ApplicationContext) setUpTracing() error {
	log.Info().Msg("Start setup tracing")
	shutdown, err := observability.SetupTracingSDK(context.Background(), observability.TracingConfig{
		Endpoint: app.Cf.OtelEndpoint,
		Insecure: true,
	})
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	app.tracingShutdown = shutdown
	log.Info().Bool("enabled", app.Cf.OtelEndpoint != "").Msg("Finish setup tracing")
	return nil
}

func (app *ApplicationContext) setUpDbConn() error {
	log.Info().Msg("Start setup database connection")
	conn, err := db.GetDbConn(app.Cf.DbName, app.Cf.DbHost, app.Cf.DbPort, app.Cf.DbUser, app.Cf.DbPas)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	app.DbConn = conn
	app.DbDao = db.NewUnifiedDB(conn)
	log.Info().Msg("Finish setup database connection")
	return nil
}

func (app *ApplicationContext) setUpDbMigration() error {
	log.Info().Str("source", app.Cf.MigrationURL).Msg("Start db migration")
	return db.MigrateUp(
		app.Cf.MigrationURL,
		db.MigrationDSN(app.Cf.DbName, app.Cf.DbHost, app.Cf.DbPort, app.Cf.DbUser, app.Cf.DbPas),
	)
}

// redis 為選配，沒有設定時冪等與分散式限流停用
func (app *ApplicationContext) setUpRedis() error {
	if app.Cf.RedisAddr == "" {
		log.Warn().Msg("REDIS_ADDR is empty, idempotency disabled and rate limit falls back to in-process bucket")
		return nil
	}

	log.Info().Str("addr", app.Cf.RedisAddr).Msg("Start setup redis")
	client, err := redis_client.GetRedisClient(app.Cf.RedisAddr,
		redis_client.WithPassword(app.Cf.RedisPassword),
		redis_client.WithDB(app.Cf.RedisDB),
	)
	if err != nil {
		return fmt.Errorf("create redis client: %w", err)
	}
	if err := redis_client.Ping(context.Background(), client); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	app.RedisClient = client
	app.IdempotencyRepo = redis_repo.NewIdempotencyRedisRepo(client, redis_repo.DefaultIdempotencyTTL)
	log.Info().Msg("Finish setup redis")
	return nil
}

func (app *ApplicationContext) setUpKafka() error {
	brokers := app.Cf.KafkaBrokerList()
	if len(brokers) == 0 {
		log.Warn().Msg("KAFKA_BROKERS is empty, order events disabled")
		return nil
	}

	log.Info().Strs("brokers", brokers).Str("topic", app.Cf.KafkaOrderTopic).Msg("Start setup kafka producer")
	p, err := kafka_client.NewProducer(kafka_client.DefaultConfig(brokers, app.Cf.KafkaOrderTopic))
	if err != nil {
		return fmt.Errorf("create order producer: %w", err)
	}
	app.OrderProducer = p
	log.Info().Msg("Finish setup kafka producer")
	return nil
}

func (app *ApplicationContext) setUpLogShipping() error {
	brokers := app.Cf.KafkaBrokerList()
	if app.Cf.LogKafkaTopic == "" || len(brokers) == 0 {
		return nil
	}

	cfg := kafka_client.DefaultConfig(brokers, app.Cf.LogKafkaTopic)
	cfg.RequiredAcks = 1
	cfg.RetryAttempts = 1
	p, err := kafka_client.NewProducer(cfg)
	if err != nil {
		return fmt.Errorf("create log producer: %w", err)
	}
	app.LogWriter = logger.NewKafkaLogWriter(p)
	app.Logger = logger.SetupLogger(app.Cf.Env, app.Cf.LogLevel, app.LogWriter)
	log.Info().Str("topic", app.Cf.LogKafkaTopic).Msg("log shipping enabled")
	return nil
}

func (app *ApplicationContext) setUpTokenMaker() error {
	maker, err := token.NewJWTMaker(app.Cf.AccessToken)
	if err != nil {
		return fmt.Errorf("create token maker: %w", err)
	}
	app.TokenMaker = maker
	return nil
}

func (app *ApplicationContext) setUpLimiter() error {
	cfg := &ratelimit.LimiterConfig{
		Capacity: app.Cf.RateLimitCapacity,
		RatePS:   app.Cf.RateLimitRatePS,
	}
	if app.RedisClient != nil {
		app.Limiter = ratelimit.NewRsBucketToken(app.RedisClient, cfg)
		return nil
	}
	app.Limiter = ratelimit.NewTokenBucket(cfg)
	return nil
}

func (app *ApplicationContext) setUpInventoryService() error {
	app.InventoryService = service.NewInventoryService(app.DbDao)
	return nil
}

// 沒有寄件帳號時不啟動 dispatcher
func (app *ApplicationContext) setUpMailService() error {
	if !app.Cf.MailEnabled() {
		log.Warn().Msg("EMAIL_ACCOUNT or SMTP_AUTH_KEY is empty, order confirmation mail disabled")
		return nil
	}

	log.Info().Msg("Start setup mail service")
	sender := mail.NewSMTPSender(app.Cf.ShopName, app.Cf.EmailAccount, app.Cf.SmtpAuthKey, app.Cf.SmtpHost, app.Cf.SmtpPort)
	app.MailService = service.NewMailService(sender, app.Cf.ShopName)
	app.Dispatcher = service.NewNotificationDispatcher(app.MailService, app.Cf.NotificationQueueSize)
	app.Dispatcher.Start()
	log.Info().Msg("Finish setup mail service")
	return nil
}

func (app *ApplicationContext) orderEventPublisher() producer.IOrderEventPublisher {
	if app.OrderProducer == nil {
		return producer.NoopPublisher{}
	}
	return producer.NewOrderProducer(app.OrderProducer)
}

func (app *ApplicationContext) setUpOrderService() error {
	opts := []service.OrderServiceOption{
		service.WithEventPublisher(app.orderEventPublisher()),
		service.WithTracer(observability.GetTracer("order-service")),
	}
	if app.Dispatcher != nil {
		opts = append(opts, service.WithNotificationDispatcher(app.Dispatcher))
	}
	if app.IdempotencyRepo != nil {
		opts = append(opts, service.WithIdempotencyRepo(app.IdempotencyRepo))
	}
	app.OrderService = service.NewOrderService(app.DbDao, app.InventoryService, opts...)
	return nil
}

func (app *ApplicationContext) setUpOrderQueryService() error {
	app.OrderQueryService = service.NewOrderQueryService(app.DbDao, app.orderEventPublisher())
	return nil
}

func (app *ApplicationContext) setUpAddressService() error {
	app.AddressClient = address.NewClient(app.Cf.AddressAPIURL)
	app.AddressService = service.NewAddressService(app.AddressClient)
	return nil
}

// HealthChecks 給 /api/health 使用
func (app *ApplicationContext) HealthChecks() map[string]handler.HealthCheck {
	checks := map[string]handler.HealthCheck{}
	if app.DbConn != nil {
		checks["postgres"] = func(ctx context.Context) error {
			sqlDB, err := app.DbConn.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}
	if app.RedisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redis_client.Ping(ctx, app.RedisClient)
		}
	}
	return checks
}

func (app *ApplicationContext) Shutdown(ctx context.Context) error {
	log.Info().Msg("Start application shutdown")

	done := make(chan error, 1)
	go func() {
		var errs []error

		// 先等確認信寄完
		if app.Dispatcher != nil {
			log.Info().Msg("Draining notification dispatcher...")
			if err := app.Dispatcher.Close(constants.NotificationDrainTime); err != nil {
				errs = append(errs, fmt.Errorf("dispatcher: %w", err))
			}
		}

		if app.OrderProducer != nil {
			log.Info().Msg("Closing order producer...")
			if err := app.OrderProducer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("order producer: %w", err))
			}
		}

		if app.RedisClient != nil {
			log.Info().Msg("Closing redis client...")
			if err := redis_client.Release(app.Cf.RedisAddr); err != nil {
				errs = append(errs, fmt.Errorf("redis: %w", err))
			}
		}

		if app.DbConn != nil {
			log.Info().Msg("Closing database connection...")
			if sqlDB, err := app.DbConn.DB(); err == nil {
				if err := sqlDB.Close(); err != nil {
					errs = append(errs, fmt.Errorf("database: %w", err))
				}
			}
		}

		if app.tracingShutdown != nil {
			if err := app.tracingShutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("tracing: %w", err))
			}
		}

		// logger 最後關，前面的 log 才送得出去
		if app.LogWriter != nil {
			app.Logger = logger.SetupLogger(app.Cf.Env, app.Cf.LogLevel)
			if err := app.LogWriter.Close(); err != nil {
				errs = append(errs, fmt.Errorf("log writer: %w", err))
			}
		}

		log.Info().Msg("Application shutdown complete")
		done <- errors.Join(errs...)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout: %w", ctx.Err())
	}
}
