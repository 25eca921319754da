package migration

import (
	"github.com/hilthontt/townhall/domain/model"
	"github.com/hilthontt/townhall/infrastructure/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Up1 creates the locations, rooms and messages tables with their indexes.
func Up1(database *gorm.DB, log *logger.Logger) error {
	tables := []any{}

	tables = addNewTable(database, &model.Location{}, tables)
	tables = addNewTable(database, &model.Room{}, tables)
	tables = addNewTable(database, &model.Message{}, tables)

	if len(tables) == 0 {
		log.Info("schema up to date")
		return nil
	}

	if err := database.Migrator().CreateTable(tables...); err != nil {
		log.Error("error migrating", zap.Error(err))
		return err
	}
	log.Info("tables created", zap.Int("count", len(tables)))
	return nil
}

func addNewTable(database *gorm.DB, model any, tables []any) []any {
	if !database.Migrator().HasTable(model) {
		tables = append(tables, model)
	}
	return tables
}
