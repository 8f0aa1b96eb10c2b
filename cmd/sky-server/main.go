// cmd/sky-server/main.go
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"sky-takeout/internal/pkg/bootstrap"
	"sky-takeout/internal/pkg/config"
	"sky-takeout/internal/pkg/database"
	"sky-takeout/internal/pkg/lock"
	"sky-takeout/internal/pkg/metrics"
	"sky-takeout/internal/pkg/mq"
	"sky-takeout/internal/pkg/push"
	"sky-takeout/internal/pkg/schedule"
	cartapp "sky-takeout/internal/service/cart/application"
	cartdomain "sky-takeout/internal/service/cart/domain"
	cartinfra "sky-takeout/internal/service/cart/infrastructure"
	cartapi "sky-takeout/internal/service/cart/interfaces"
	orderapp "sky-takeout/internal/service/order/application"
	orderdomain "sky-takeout/internal/service/order/domain"
	orderinfra "sky-takeout/internal/service/order/infrastructure"
	orderapi "sky-takeout/internal/service/order/interfaces"
	reportapp "sky-takeout/internal/service/report/application"
	reportinfra "sky-takeout/internal/service/report/infrastructure"
	reportapi "sky-takeout/internal/service/report/interfaces"
)

const (
	catalogCacheTTL = 30 * time.Minute
	pingTimeout     = 3 * time.Second
)

// main 是组装根：加载配置，创建依赖并交给 bootstrap 启动
func main() {
	configPath := flag.String("config", getEnv("SKY_CONFIG", "configs/config.yaml"), "path to config yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	err = bootstrap.StartService(bootstrap.AppInfo{
		ServiceName:      cfg.App.Name,
		Config:           cfg,
		RegisterHandlers: registerHandlers,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("service exited with error")
	}
}

func registerHandlers(app bootstrap.AppCtx) error {
	cfg := app.Config

	db, err := database.OpenMySQL(database.Options{
		DSN:             cfg.MySQLDSN(),
		MaxOpenConns:    cfg.MySQL.MaxOpenConns,
		MaxIdleConns:    cfg.MySQL.MaxIdleConns,
		ConnMaxLifetime: cfg.MySQL.ConnMaxLifetime.Std(),
	})
	if err != nil {
		return err
	}
	app.OnShutdown("mysql", func(context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	app.OnShutdown("redis", func(context.Context) error { return rdb.Close() })
	redisUp := pingRedis(app.Ctx, rdb)

	// 管理端 WebSocket 推送
	hub := push.NewHub()
	go hub.Run(app.Ctx)
	app.Mux.HandleFunc("GET /ws/{sid}", func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWs(w, r, r.PathValue("sid"))
	})

	notifier, err := buildNotifier(app, hub)
	if err != nil {
		return err
	}

	// 订单巡检
	clock := time.Now
	unpaid, delivery, err := orderapi.BuildRules(cfg.Scheduler, clock)
	if err != nil {
		return err
	}
	reconciler := orderapp.NewReconciler(
		orderinfra.NewGormOrderRepository(db),
		orderapp.WithClock(clock),
		orderapp.WithNotifier(notifier),
		orderapp.WithMetrics(metrics.NewReconcile(app.Registry)),
		orderapp.WithConcurrency(cfg.Scheduler.Concurrency),
		orderapp.WithUnpaidRule(unpaid),
		orderapp.WithDeliveryRule(delivery),
	)

	locker, err := buildLocker(app, rdb, redisUp)
	if err != nil {
		return err
	}
	scheduler := schedule.New(
		schedule.WithLocker(locker, cfg.Scheduler.LockTTL.Std()),
		schedule.WithMetrics(metrics.NewJobs(app.Registry)),
	)
	if err := orderapi.RegisterJobs(scheduler, reconciler, cfg.Scheduler); err != nil {
		return err
	}
	orderapi.NewJobHandler(scheduler).RegisterRoutes(app.Mux)
	scheduler.Start(app.Ctx)
	app.OnShutdown("scheduler", func(context.Context) error {
		scheduler.Stop()
		return nil
	})

	// 购物车
	var catalog cartdomain.Catalog = cartinfra.NewGormCatalog(db)
	if redisUp {
		catalog = cartinfra.NewCachedCatalog(catalog, rdb, catalogCacheTTL)
	}
	cartapi.NewCartHandler(cartapp.NewCartService(cartinfra.NewGormCartRepository(db), catalog)).RegisterRoutes(app.Mux)

	// 数据统计
	reportapi.NewReportHandler(reportapp.NewReportService(reportinfra.NewGormStore(db))).RegisterRoutes(app.Mux)

	return nil
}

// buildNotifier 启用 Kafka 时经由主题广播，每个实例再各自推送给本机连接；
// 未启用时直接推送给本机连接
func buildNotifier(app bootstrap.AppCtx, hub *push.Hub) (orderdomain.Notifier, error) {
	cfg := app.Config
	var notifiers orderinfra.MultiNotifier
	if !cfg.Kafka.Enabled {
		return append(notifiers, orderinfra.NewPushNotifier(hub)), nil
	}
	if len(cfg.Kafka.Brokers) == 0 || cfg.Kafka.StatusTopic == "" {
		return nil, errors.New("kafka enabled but brokers or status_topic missing")
	}

	producer := orderinfra.NewStatusEventProducer(mq.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.StatusTopic))
	app.OnShutdown("kafka producer", func(context.Context) error { return producer.Close() })

	// 独立的消费者组，保证每个实例都能收到全部事件
	groupID := cfg.App.Name + "-push-" + uuid.NewString()
	consumer := orderapi.NewStatusEventConsumer(mq.NewKafkaReader(cfg.Kafka.Brokers, cfg.Kafka.StatusTopic, groupID), hub)
	consumer.Start(app.Ctx)
	app.OnShutdown("status event consumer", func(context.Context) error {
		consumer.Stop()
		return nil
	})
	return append(notifiers, producer), nil
}

func buildLocker(app bootstrap.AppCtx, rdb *redis.Client, redisUp bool) (lock.Locker, error) {
	cfg := app.Config
	switch cfg.Scheduler.LockBackend {
	case "redis":
		if !redisUp {
			return nil, errors.Errorf("redis lock backend selected but %s is unreachable", cfg.Redis.Addr)
		}
		return lock.NewRedisLocker(rdb), nil
	case "zookeeper":
		conn, err := lock.ConnectZookeeper(cfg.Zookeeper.Servers, cfg.Zookeeper.SessionTimeout.Std())
		if err != nil {
			return nil, err
		}
		app.OnShutdown("zookeeper", func(context.Context) error {
			conn.Close()
			return nil
		})
		return lock.NewZookeeperLocker(conn), nil
	default:
		log.Warn().Msg("scheduler lock backend is none, run a single replica to avoid overlapping sweeps")
		return lock.Noop{}, nil
	}
}

func pingRedis(ctx context.Context, rdb *redis.Client) bool {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis unreachable, catalog cache disabled")
		return false
	}
	log.Info().Msg("✅ Redis connected")
	return true
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
