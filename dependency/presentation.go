package dependency

import (
	"context"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/hilthontt/townhall/infrastructure/cache"
	"github.com/hilthontt/townhall/infrastructure/metrics"
	"github.com/hilthontt/townhall/infrastructure/persistence/database"
	"github.com/hilthontt/townhall/infrastructure/persistence/mongodb"
	"github.com/hilthontt/townhall/infrastructure/websocket"
	"github.com/hilthontt/townhall/presentation/controllers/identity"
	"github.com/hilthontt/townhall/presentation/controllers/location"
	"github.com/hilthontt/townhall/presentation/controllers/room"
	wsCtrl "github.com/hilthontt/townhall/presentation/controllers/websocket"
	"github.com/hilthontt/townhall/presentation/middlewares"
	"github.com/hilthontt/townhall/presentation/routes"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

func (c *Container) initMiddleware() {
	c.ETagStore = middlewares.NewLocalETagStore(c.Config.Cache.ETagItems)

	c.Logger.Info("Middleware components initialized successfully")
}

func (c *Container) initControllers() {
	c.LocationController = location.NewLocationController(c.LocationUC, c.Logger)
	c.RoomController = room.NewRoomController(c.RoomUC, c.MessageUC, c.Registry, c.Logger, c.Config.Chat.HistoryLimit)
	c.IdentityController = identity.NewIdentityController()
	c.WebsocketController = wsCtrl.NewWebSocketController(c.ctx, c.ChatUC, c.WSCore, websocket.ClientOptions{
		SendBuffer:        c.Config.Chat.SendBuffer,
		MessagesPerSecond: c.Config.Chat.MessagesPerSecond,
		MessageBurst:      c.Config.Chat.MessageBurst,
	}, c.Logger)

	c.Logger.Info("Controllers initialized successfully")
}

func (c *Container) SetupRouter() *gin.Engine {
	switch c.Config.Server.RunMode {
	case "release", "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	binding.Validator = new(middlewares.DefaultValidator)

	router := gin.New()
	router.Use(gin.Recovery())

	if c.SentryEnabled {
		router.Use(sentrygin.New(sentrygin.Options{
			Repanic:         true,
			WaitForDelivery: false,
			Timeout:         5 * time.Second,
		}))
	}

	if c.Config.Server.ForceHttps {
		router.Use(middlewares.ForceHttps(c.Config))
	}

	router.Use(middlewares.GinLogger(c.Logger))
	router.Use(middlewares.CorsMiddleware(c.Config))
	router.Use(middlewares.MetricsMiddleware(c.MetricsManager))

	router.GET("/health", c.healthCheckHandler)

	c.registerObservabilityRoutes(router)

	routes.WebsocketRoutes(router, c.WebsocketController)

	c.registerAPIRoutes(router)

	c.Logger.Info("Router configured successfully")

	return router
}

// Handler is the router wrapped for tracing; it is what the server serves.
func (c *Container) Handler() http.Handler {
	return otelhttp.NewHandler(c.SetupRouter(), c.Config.Tracing.ServiceName,
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health" && r.URL.Path != "/ws"
		}),
	)
}

func (c *Container) registerAPIRoutes(router *gin.Engine) {
	redisClient := cache.GetRedis()

	v1 := router.Group("/api/v1")
	{
		v1.Use(middlewares.Authenticate(c.Authenticator, c.Logger))
		v1.Use(middlewares.RateLimiterMiddleware(redisClient, c.Logger, middlewares.LenientRateLimiterConfig()))

		if c.SentryEnabled {
			v1.Use(func(ctx *gin.Context) {
				if hub := sentrygin.GetHubFromContext(ctx); hub != nil {
					if identity, ok := middlewares.GetIdentityFromContext(ctx); ok {
						hub.Scope().SetUser(sentry.User{
							Username:  identity.Name,
							IPAddress: ctx.ClientIP(),
						})
						hub.Scope().SetTag("role", string(identity.Role))
					} else {
						hub.Scope().SetTag("role", "anonymous")
					}
				}
				ctx.Next()
			})
		}

		routes.LocationRoutes(v1, c.LocationController, c.ETagStore,
			middlewares.RateLimiterMiddleware(redisClient, c.Logger, middlewares.ModerateRateLimiterConfig()))
		routes.RoomRoutes(v1, c.RoomController,
			middlewares.RateLimiterMiddleware(redisClient, c.Logger, middlewares.StrictRateLimiterConfig()))
		routes.IdentityRoutes(v1, c.IdentityController)
	}
}

func (c *Container) healthCheckHandler(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"time":        time.Now().Format(time.RFC3339),
		"driver":      c.Config.Database.Driver,
		"connections": c.WSCore.ClientCount(),
		"joined":      c.Registry.Count(),
		"rooms":       c.Registry.RoomCount(),
	})
}

func (c *Container) registerObservabilityRoutes(router *gin.Engine) {
	metricsGroup := router.Group("/observability")
	{
		metrics.GetHandler(metricsGroup, c.MetricsManager,
			metrics.GaugeSource{Name: "active_websocket_connections", Value: func() float64 { return float64(c.WSCore.ClientCount()) }},
			metrics.GaugeSource{Name: "joined_connections", Value: func() float64 { return float64(c.Registry.Count()) }},
			metrics.GaugeSource{Name: "occupied_rooms", Value: func() float64 { return float64(c.Registry.RoomCount()) }},
		)
	}
}

func (c *Container) Shutdown() error {
	c.Logger.Info("Shutting down dependencies...")

	if c.cancel != nil {
		c.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if c.TracerProvider != nil {
		if err := c.TracerProvider.Shutdown(ctx); err != nil {
			c.Logger.Error("failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if c.MeterProvider != nil {
		if err := c.MeterProvider.Shutdown(ctx); err != nil {
			c.Logger.Error("failed to shutdown meter provider", zap.Error(err))
		}
	}

	if c.SentryEnabled {
		sentry.Flush(2 * time.Second)
	}

	if c.RabbitMQ != nil {
		c.RabbitMQ.Close()
	}

	cache.CloseRedis()
	database.CloseDb()

	if c.MongoClient != nil {
		if err := mongodb.DisconnectMongo(ctx, c.MongoClient); err != nil {
			c.Logger.Error("failed to disconnect mongo", zap.Error(err))
		}
	}

	c.Logger.Info("Dependencies shut down successfully")

	if err := c.Logger.Log.Sync(); err != nil {
		c.Logger.Error("failed to sync logger", zap.Error(err))
	}

	return nil
}
