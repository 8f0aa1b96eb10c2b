// internal/pkg/bootstrap/app.go
package bootstrap

import (
	"context"
	"net/http"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"go.uber.org/multierr"

	"sky-takeout/internal/pkg/config"
	"sky-takeout/internal/pkg/logger"
	"sky-takeout/internal/pkg/metrics"
	"sky-takeout/internal/pkg/middleware"
	"sky-takeout/internal/pkg/nacos"
	"sky-takeout/internal/pkg/session"
	"sky-takeout/internal/pkg/tracing"
)

const shutdownTimeout = 10 * time.Second

// AppCtx 是注册路由和后台组件时可用的公共依赖
type AppCtx struct {
	// Ctx 在收到退出信号时取消，后台 goroutine 应以它为根
	Ctx      context.Context
	Config   *config.Config
	Mux      *http.ServeMux
	Registry *prometheus.Registry
	hooks    *shutdownHooks
}

// OnShutdown 注册关停时执行的清理函数，按注册的逆序执行
func (a AppCtx) OnShutdown(name string, fn func(ctx context.Context) error) {
	a.hooks.add(name, fn)
}

// AppInfo 包含了启动服务所需的全部信息
type AppInfo struct {
	ServiceName string
	Config      *config.Config
	// RegisterHandlers 注册服务自己的路由并启动后台组件
	RegisterHandlers func(appCtx AppCtx) error
}

// StartService 封装了通用的启动和优雅关停逻辑，阻塞直到收到 SIGINT/SIGTERM
func StartService(info AppInfo) error {
	cfg := info.Config
	logger.Init(info.ServiceName, cfg.Log.Level, cfg.Log.Pretty)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hooks := &shutdownHooks{}

	endpoint := ""
	if cfg.Jaeger.Enabled {
		endpoint = cfg.Jaeger.Endpoint
	}
	tp, err := tracing.InitTracerProvider(info.ServiceName, endpoint)
	if err != nil {
		return errors.Wrap(err, "failed to initialize tracer provider")
	}
	hooks.add("tracer provider", tp.Shutdown)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	mux := http.NewServeMux()
	appCtx := AppCtx{Ctx: ctx, Config: cfg, Mux: mux, Registry: reg, hooks: hooks}
	if info.RegisterHandlers != nil {
		if err := info.RegisterHandlers(appCtx); err != nil {
			hooks.run(context.Background())
			return errors.Wrap(err, "failed to register handlers")
		}
	}

	server := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.App.Port),
		Handler:           NewHandler(mux, reg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.App.Port).Msgf("%s listening", info.ServiceName)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	if cfg.Nacos.Enabled {
		deregister, err := registerNacos(info.ServiceName, cfg)
		if err != nil {
			log.Error().Err(err).Msg("Nacos registration failed, continuing without service discovery")
		} else {
			hooks.add("nacos", deregister)
		}
	}

	select {
	case <-ctx.Done():
		log.Info().Msgf("Shutting down service %s...", info.ServiceName)
	case err := <-serveErr:
		if err != nil {
			log.Error().Err(err).Msg("HTTP server stopped unexpectedly")
		}
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// 先停止接收请求，再按逆序释放后台组件
	errs := server.Shutdown(shutdownCtx)
	errs = multierr.Append(errs, hooks.run(shutdownCtx))
	if errs != nil {
		log.Error().Err(errs).Msg("Errors during shutdown")
		return errs
	}
	log.Info().Msgf("Service %s gracefully shut down.", info.ServiceName)
	return nil
}

// NewHandler 挂载健康检查和指标接口，并包装公共中间件
func NewHandler(mux *http.ServeMux, gatherer prometheus.Gatherer) http.Handler {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", metrics.Handler(gatherer))
	return middleware.Chain(mux, middleware.Tracing, middleware.AccessLog, session.Middleware)
}

func registerNacos(serviceName string, cfg *config.Config) (func(context.Context) error, error) {
	client, err := nacos.NewNacosClient(cfg.Nacos.Addrs, cfg.Nacos.Namespace, cfg.Nacos.Group)
	if err != nil {
		return nil, err
	}
	ip, err := nacos.OutboundIP()
	if err != nil {
		return nil, err
	}
	if err := client.RegisterServiceInstance(serviceName, ip, cfg.App.Port); err != nil {
		return nil, err
	}
	return func(context.Context) error {
		return client.DeregisterServiceInstance(serviceName, ip, cfg.App.Port)
	}, nil
}

type hook struct {
	name string
	fn   func(ctx context.Context) error
}

type shutdownHooks struct {
	mu    sync.Mutex
	hooks []hook
}

func (s *shutdownHooks) add(name string, fn func(ctx context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, hook{name: name, fn: fn})
}

// run 后进先出执行，单个失败不影响其余
func (s *shutdownHooks) run(ctx context.Context) error {
	s.mu.Lock()
	hooks := s.hooks
	s.hooks = nil
	s.mu.Unlock()

	var errs error
	for i := len(hooks) - 1; i >= 0; i-- {
		h := hooks[i]
		if err := h.fn(ctx); err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "shutdown %s", h.name))
			continue
		}
		log.Info().Str("component", h.name).Msg("Component shut down")
	}
	return errs
}
