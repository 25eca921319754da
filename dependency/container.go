package dependency

import (
	"context"
	"fmt"

	chatUseCase "github.com/hilthontt/townhall/application/usecases/chat"
	locationUseCase "github.com/hilthontt/townhall/application/usecases/location"
	messageUseCase "github.com/hilthontt/townhall/application/usecases/message"
	presenceUseCase "github.com/hilthontt/townhall/application/usecases/presence"
	roomUseCase "github.com/hilthontt/townhall/application/usecases/room"
	"github.com/hilthontt/townhall/domain/repository"
	"github.com/hilthontt/townhall/infrastructure/auth"
	"github.com/hilthontt/townhall/infrastructure/config"
	"github.com/hilthontt/townhall/infrastructure/events"
	"github.com/hilthontt/townhall/infrastructure/logger"
	"github.com/hilthontt/townhall/infrastructure/metrics"
	"github.com/hilthontt/townhall/infrastructure/registry"
	"github.com/hilthontt/townhall/infrastructure/websocket"
	"github.com/hilthontt/townhall/presentation/controllers/identity"
	"github.com/hilthontt/townhall/presentation/controllers/location"
	"github.com/hilthontt/townhall/presentation/controllers/room"
	wsCtrl "github.com/hilthontt/townhall/presentation/controllers/websocket"
	"github.com/hilthontt/townhall/presentation/middlewares"
	"go.mongodb.org/mongo-driver/mongo"
	metricSdk "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/trace"
)

type Container struct {
	Config *config.Config
	Logger *logger.Logger

	TracerProvider *trace.TracerProvider
	MeterProvider  *metricSdk.MeterProvider
	MetricsManager metrics.Manager
	SentryEnabled  bool

	MongoClient    *mongo.Client
	RabbitMQ       *events.RabbitMQ
	EventPublisher events.Publisher
	EventConsumer  *events.EventConsumer

	LocationRepo repository.LocationRepository
	RoomRepo     repository.RoomRepository
	MessageRepo  repository.MessageRepository

	Registry *registry.Registry
	WSCore   *websocket.Core

	LocationUC locationUseCase.LocationUseCase
	RoomUC     roomUseCase.RoomUseCase
	MessageUC  messageUseCase.MessageUseCase
	PresenceUC presenceUseCase.PresenceUseCase
	ChatUC     chatUseCase.ChatUseCase

	Authenticator *auth.Authenticator
	ETagStore     middlewares.ETagStore

	LocationController  location.LocationController
	RoomController      room.RoomController
	IdentityController  identity.IdentityController
	WebsocketController wsCtrl.WebSocketController

	ctx    context.Context
	cancel context.CancelFunc
}

// NewContainer wires every dependency from cfg. Background loops (the
// websocket hub and the event consumer) are started by the caller.
func NewContainer(cfg *config.Config) (*Container, error) {
	c := &Container{Config: cfg}

	loggerInstance, err := logger.NewLogger(logger.Options{
		FilePath: cfg.Logger.FilePath,
		Encoding: cfg.Logger.Encoding,
		Level:    cfg.Logger.Level,
	})
	if err != nil {
		return nil, fmt.Errorf("error initializing logger: %w", err)
	}
	c.Logger = loggerInstance

	c.Logger.Info("Initializing townhall dependencies")

	c.ctx, c.cancel = context.WithCancel(context.Background())

	if err := c.initInfrastructure(); err != nil {
		return nil, fmt.Errorf("error initializing infrastructure: %w", err)
	}

	if err := c.initRepositories(); err != nil {
		return nil, fmt.Errorf("error initializing repositories: %w", err)
	}

	c.initWebSocket()

	c.initUseCases()

	c.initMiddleware()

	c.initControllers()

	c.Logger.Info("All dependencies initialized successfully")

	return c, nil
}

// Context is cancelled by Shutdown. Long lived per-connection work hangs
// off it.
func (c *Container) Context() context.Context {
	return c.ctx
}
