package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Postgres PostgresConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Cors     CorsConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Tracing  TracingConfig
	Sentry   SentryConfig
	Chat     ChatConfig
	Cache    CacheConfig
}

type ServerConfig struct {
	InternalPort string
	ExternalPort string
	RunMode      string
	Domain       string
	ForceHttps   bool
}

type DatabaseConfig struct {
	Driver string
}

type LoggerConfig struct {
	FilePath string
	Encoding string
	Level    string
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DbName          string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type MongoConfig struct {
	URI               string
	Database          string
	ConnectionTimeout time.Duration
}

type RedisConfig struct {
	Enabled      bool
	Host         string
	Port         string
	Password     string
	Db           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	PoolTimeout  time.Duration
	HistorySize  int
}

type RabbitMQConfig struct {
	Enabled  bool
	URI      string
	Exchange string
	Queue    string
}

type CorsConfig struct {
	AllowOrigins string
}

type AuthConfig struct {
	JwtSecret string
	Issuer    string
}

type TracingConfig struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	Endpoint       string
}

type SentryConfig struct {
	Dsn            string
	Debug          bool
	SendDefaultPII bool
}

type ChatConfig struct {
	HistoryLimit      int
	MessagesPerSecond float64
	MessageBurst      int
	SendBuffer        int
}

type CacheConfig struct {
	RoomItems int
	RoomTTL   time.Duration
	ETagItems int
}

func GetConfig() *Config {
	cfgPath := getConfigPath(os.Getenv("APP_ENV"))
	v, err := LoadConfig(cfgPath, "yml")
	if err != nil {
		log.Fatalf("Error in load config %v", err)
	}

	cfg, err := ParseConfig(v)
	if err != nil {
		log.Fatalf("Error in parse config %v", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	return cfg
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Printf("Unable to parse config: %v", err)
		return nil, err
	}
	cfg.setDefaults()
	return &cfg, nil
}

func LoadConfig(filename string, fileType string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType(fileType)
	v.SetConfigName(filename)

	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")
	v.AddConfigPath("../../config")

	if wd, err := os.Getwd(); err == nil {
		v.AddConfigPath(filepath.Join(wd, "config"))
	}

	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		log.Printf("Unable to read config: %v", err)
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return nil, errors.New("config file not found")
		}
		return nil, err
	}

	log.Printf("Using config file: %s", v.ConfigFileUsed())
	return v, nil
}

func getConfigPath(env string) string {
	switch env {
	case "docker":
		return "config-docker"
	case "production":
		return "config-production"
	default:
		return "config-development"
	}
}

func (c *Config) applyEnvOverrides() {
	if envPort := os.Getenv("PORT"); envPort != "" {
		c.Server.ExternalPort = envPort
		log.Printf("Set external port from environment -> %s", c.Server.ExternalPort)
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		c.Auth.JwtSecret = secret
	}
	if driver := os.Getenv("DATABASE_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if uri := os.Getenv("MONGODB_URI"); uri != "" {
		c.Mongo.URI = uri
	}
	if uri := os.Getenv("RABBITMQ_URI"); uri != "" {
		c.RabbitMQ.URI = uri
	}
}

func (c *Config) setDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = DriverPostgres
	}
	if c.Mongo.ConnectionTimeout == 0 {
		c.Mongo.ConnectionTimeout = 20 * time.Second
	}
	if c.Redis.HistorySize == 0 {
		c.Redis.HistorySize = 200
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "townhall.events"
	}
	if c.Chat.HistoryLimit == 0 {
		c.Chat.HistoryLimit = 50
	}
	if c.Chat.MessagesPerSecond == 0 {
		c.Chat.MessagesPerSecond = 5
	}
	if c.Chat.MessageBurst == 0 {
		c.Chat.MessageBurst = 10
	}
	if c.Chat.SendBuffer == 0 {
		c.Chat.SendBuffer = 64
	}
	if c.Cache.RoomItems == 0 {
		c.Cache.RoomItems = 10000
	}
	if c.Cache.RoomTTL == 0 {
		c.Cache.RoomTTL = 10 * time.Minute
	}
	if c.Cache.ETagItems == 0 {
		c.Cache.ETagItems = 10000
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.InternalPort == "" {
		return errors.New("server.internalPort is required")
	}
	if c.Server.ExternalPort == "" {
		return errors.New("server.externalPort is required")
	}

	switch c.Database.Driver {
	case DriverPostgres:
		if c.Postgres.Host == "" {
			return errors.New("postgres.host is required")
		}
		if c.Postgres.Port == "" {
			return errors.New("postgres.port is required")
		}
		if c.Postgres.DbName == "" {
			return errors.New("postgres.dbName is required")
		}
	case DriverMongo:
		if c.Mongo.URI == "" {
			return errors.New("mongo.uri is required")
		}
		if c.Mongo.Database == "" {
			return errors.New("mongo.database is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("database.driver %q is not supported", c.Database.Driver)
	}

	if c.Redis.Enabled {
		if c.Redis.Host == "" {
			return errors.New("redis.host is required")
		}
		if c.Redis.Port == "" {
			return errors.New("redis.port is required")
		}
	}

	if c.RabbitMQ.Enabled && c.RabbitMQ.URI == "" {
		return errors.New("rabbitmq.uri is required")
	}

	if c.Auth.JwtSecret == "" {
		return errors.New("auth.jwtSecret is required")
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Server.RunMode == "debug" || c.Server.RunMode == "development"
}

func (c *Config) IsProduction() bool {
	return c.Server.RunMode == "release" || c.Server.RunMode == "production"
}

func (c *Config) GetPostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Postgres.Host,
		c.Postgres.Port,
		c.Postgres.User,
		c.Postgres.Password,
		c.Postgres.DbName,
		c.Postgres.SSLMode,
	)
}

func (c *Config) GetRedisAddress() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

func (c *Config) GetServerAddress() string {
	return fmt.Sprintf(":%s", c.Server.ExternalPort)
}
