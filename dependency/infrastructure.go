package dependency

import (
	"fmt"

	"github.com/getsentry/sentry-go"
	"github.com/hilthontt/townhall/infrastructure/auth"
	"github.com/hilthontt/townhall/infrastructure/cache"
	"github.com/hilthontt/townhall/infrastructure/events"
	"github.com/hilthontt/townhall/infrastructure/metrics"
	"github.com/hilthontt/townhall/infrastructure/metrics/exporters"
	"go.uber.org/zap"
)

func (c *Container) initInfrastructure() error {
	if c.Config.Tracing.Enabled {
		tracerProvider, err := exporters.InitTracer(c.ctx, c.Config)
		if err != nil {
			c.Logger.Error("failed to initialize OTLP trace exporter", zap.Error(err))
			c.Logger.Warn("Using noop tracer provider as fallback")
		} else {
			c.TracerProvider = tracerProvider
			c.Logger.Info("Trace exporter initialized successfully",
				zap.String("endpoint", c.Config.Tracing.Endpoint),
				zap.String("service", c.Config.Tracing.ServiceName),
			)
		}
	}

	meter, meterProvider, err := exporters.Prometheus(c.Config.Tracing.ServiceName, c.Config.Tracing.ServiceVersion)
	if err != nil {
		return fmt.Errorf("failed to initialize Prometheus exporter: %w", err)
	}
	c.MeterProvider = meterProvider
	c.MetricsManager = metrics.NewMetricsManager(meter, c.Logger)

	c.MetricsManager.NewGauge("app_go_routines", "Number of goroutines")
	c.MetricsManager.NewGauge("app_sys_memory_alloc", "Bytes allocated and in use")
	c.MetricsManager.NewGauge("app_sys_total_alloc", "Total bytes allocated")
	c.MetricsManager.NewGauge("app_go_numGC", "Number of completed GC cycles")
	c.MetricsManager.NewGauge("app_go_sys", "Total bytes of memory obtained from OS")
	c.MetricsManager.NewGauge("active_websocket_connections", "Number of open websocket connections")
	c.MetricsManager.NewGauge("joined_connections", "Number of connections that joined a room")
	c.MetricsManager.NewGauge("occupied_rooms", "Number of rooms with at least one member")

	c.Logger.Info("Metrics initialized successfully")

	if c.Config.Sentry.Dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              c.Config.Sentry.Dsn,
			Debug:            c.Config.Sentry.Debug,
			SendDefaultPII:   c.Config.Sentry.SendDefaultPII,
			Environment:      c.Config.Server.RunMode,
			Release:          c.Config.Tracing.ServiceVersion,
			AttachStacktrace: true,
		}); err != nil {
			c.Logger.Error("failed to initialize sentry", zap.Error(err))
		} else {
			c.SentryEnabled = true
			c.Logger.Info("Sentry initialized successfully")
		}
	}

	if c.Config.Redis.Enabled {
		if err := cache.InitRedis(c.Config); err != nil {
			return fmt.Errorf("error initializing cache: %w", err)
		}
		c.Logger.Info("Redis connected", zap.String("address", c.Config.GetRedisAddress()))
	}

	c.EventPublisher = events.NewNoopPublisher()
	if c.Config.RabbitMQ.Enabled {
		rabbitmq, err := events.NewRabbitMQ(c.Config.RabbitMQ.URI, c.Config.RabbitMQ.Exchange)
		if err != nil {
			return fmt.Errorf("error initializing event bus: %w", err)
		}
		c.RabbitMQ = rabbitmq
		c.EventPublisher = rabbitmq
		if c.Config.RabbitMQ.Queue != "" {
			c.EventConsumer = events.NewEventConsumer(rabbitmq, c.Config.RabbitMQ.Queue, c.Logger)
		}
		c.Logger.Info("RabbitMQ connected", zap.String("exchange", c.Config.RabbitMQ.Exchange))
	}

	c.Authenticator = auth.NewAuthenticator(c.Config.Auth.JwtSecret, c.Config.Auth.Issuer)

	return nil
}
