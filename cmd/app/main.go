package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	inhttp "github.com/serenityspa/medsoft-availability-generator/internal/adapters/in/http"
	"github.com/serenityspa/medsoft-availability-generator/internal/adapters/in/rabbitmq"
	"github.com/serenityspa/medsoft-availability-generator/internal/adapters/out/cache"
	"github.com/serenityspa/medsoft-availability-generator/internal/adapters/out/logger"
	"github.com/serenityspa/medsoft-availability-generator/internal/adapters/out/medsoft"
	"github.com/serenityspa/medsoft-availability-generator/internal/config"
	"github.com/serenityspa/medsoft-availability-generator/internal/core/ports/out"
	"github.com/serenityspa/medsoft-availability-generator/internal/core/services/availability_service"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Локально - цветная консоль, в остальных окружениях - JSON для агрегатора
	var rootLogger out.LoggerPort
	if cfg.IsLocal() {
		consoleLogger, err := logger.NewConsoleLogger(cfg.App.Timezone)
		if err != nil {
			fmt.Printf("Failed to initialize logger: %v\n", err)
			os.Exit(1)
		}
		rootLogger = consoleLogger
	} else {
		rootLogger = logger.NewZerologLogger(cfg.App.Version)
	}
	mainLogger := rootLogger.WithModule("Main")

	mainLogger.Info("app.starting", out.LogFields{
		"version":         cfg.App.Version,
		"env":             cfg.App.Env,
		"timezone":        cfg.App.Timezone,
		"cacheOnly":       cfg.Cache.CacheOnly,
		"cacheBackend":    cfg.Cache.Backend,
		"rabbitmqEnabled": cfg.RabbitMQ.Enabled,
	})

	// Настройка Gin в зависимости от окружения
	if cfg.IsNotLocal() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Инициализация адаптеров
	medsoftAdapter := medsoft.NewMedsoftAdapter(cfg, rootLogger.WithModule("MedsoftAdapter"))

	var cacheAdapter out.CachePort
	switch cfg.Cache.Backend {
	case config.CacheBackendRedis:
		cacheAdapter, err = cache.NewRedisCacheAdapter(cfg, rootLogger)
	case config.CacheBackendMemory:
		cacheAdapter, err = cache.NewLRUCacheAdapter(cfg, rootLogger)
	default:
		err = fmt.Errorf("unknown cache backend: %s", cfg.Cache.Backend)
	}
	if err != nil {
		mainLogger.Error("app.cache.init_failed", out.LogFields{
			"error":   err.Error(),
			"backend": cfg.Cache.Backend,
		})
		os.Exit(1)
	}

	// Инициализация сервиса
	availabilityService := availability_service.NewAvailabilityService(
		cfg,
		medsoftAdapter,
		medsoftAdapter,
		cacheAdapter,
		rootLogger.WithModule("AvailabilityService"),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Настройка HTTP сервера
	router := gin.Default()
	controller := inhttp.NewAvailabilityController(availabilityService, availabilityService, cfg)
	controller.RegisterRoutes(router)

	// Настройка RabbitMQ слушателя только если он включен
	if cfg.RabbitMQ.Enabled {
		listener, err := rabbitmq.NewEventListener(
			availabilityService,
			cfg,
			rootLogger,
		)
		if err != nil {
			mainLogger.Error("app.rabbitmq.init_failed", out.LogFields{
				"error": err.Error(),
			})
			os.Exit(1)
		}

		if err := listener.Start(ctx); err != nil {
			mainLogger.Error("app.rabbitmq.start_failed", out.LogFields{
				"error": err.Error(),
			})
			os.Exit(1)
		}

		defer func() {
			if err := listener.Stop(); err != nil {
				mainLogger.Error("app.rabbitmq.stop_failed", out.LogFields{
					"error": err.Error(),
				})
			}
		}()
	}

	// Периодический прекомпьют, если настроен интервал
	if cfg.Precompute.Interval > 0 {
		go runPrecomputeLoop(ctx, availabilityService, cfg.Precompute.Interval, mainLogger)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		mainLogger.Info("app.http.starting", out.LogFields{
			"host": cfg.HTTP.Host,
			"port": cfg.HTTP.Port,
		})

		if err := router.Run(cfg.HTTP.Host + ":" + cfg.HTTP.Port); err != nil {
			mainLogger.Error("app.http.failed", out.LogFields{
				"error": err.Error(),
			})
			sigChan <- syscall.SIGTERM
		}
	}()

	sig := <-sigChan
	mainLogger.Info("app.shutdown.initiated", out.LogFields{
		"signal": sig.String(),
	})
}

// runPrecomputeLoop запускает батч-проход сразу при старте и дальше
// по тикеру. Совпавший с внешним триггером запуск просто пропускается.
func runPrecomputeLoop(ctx context.Context, svc *availability_service.AvailabilityService, interval time.Duration, logger out.LoggerPort) {
	run := func() {
		report, err := svc.Precompute(ctx)
		if err != nil {
			if errors.Is(err, availability_service.ErrPrecomputeRunning) {
				return
			}
			logger.Error("precompute.loop.failed", out.LogFields{
				"error": err.Error(),
			})
			return
		}

		logger.Info("precompute.loop.finished", out.LogFields{
			"runId":    report.RunID.String(),
			"computed": report.Computed,
			"skipped":  report.Skipped,
			"failed":   report.Failed,
			"elapsed":  report.Elapsed,
		})
	}

	run()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}
