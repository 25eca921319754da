package database

import (
	"fmt"

	"github.com/hilthontt/townhall/infrastructure/config"
	"github.com/hilthontt/townhall/infrastructure/logger"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var dbClient *gorm.DB

func InitDb(cfg *config.Config, zapLogger *zap.Logger) error {
	db, err := gorm.Open(postgres.Open(cfg.GetPostgresConnectionString()), &gorm.Config{
		Logger:         logger.NewGormLogger(zapLogger),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to open postgres: %w", err)
	}

	sqlDb, err := db.DB()
	if err != nil {
		return err
	}
	if err := sqlDb.Ping(); err != nil {
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	sqlDb.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	sqlDb.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	sqlDb.SetConnMaxLifetime(cfg.Postgres.ConnMaxLifetime)

	dbClient = db
	zapLogger.Info("postgres connection established", zap.String("host", cfg.Postgres.Host), zap.String("db", cfg.Postgres.DbName))
	return nil
}

func GetDb() *gorm.DB {
	return dbClient
}

func CloseDb() {
	if dbClient == nil {
		return
	}
	if sqlDb, err := dbClient.DB(); err == nil {
		_ = sqlDb.Close()
	}
	dbClient = nil
}
