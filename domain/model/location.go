package model

import "time"

const (
	LevelCity = iota + 1
	LevelDistrict
	LevelWard
	LevelNeighborhood
	LevelBuilding

	MinLevel = LevelCity
	MaxLevel = LevelBuilding
)

var levelNames = map[int]string{
	LevelCity:         "city",
	LevelDistrict:     "district",
	LevelWard:         "ward",
	LevelNeighborhood: "neighborhood",
	LevelBuilding:     "building",
}

type Location struct {
	ID        string    `json:"id" gorm:"type:VARCHAR(36);primaryKey" bson:"_id"`
	Name      string    `json:"name" gorm:"type:VARCHAR(255);not null;uniqueIndex:idx_locations_name_level" bson:"name"`
	Level     int       `json:"level" gorm:"not null;uniqueIndex:idx_locations_name_level;index:idx_locations_level_parent" bson:"level"`
	ParentID  *string   `json:"parentId,omitempty" gorm:"type:VARCHAR(36);null;index:idx_locations_level_parent" bson:"parent_id"`
	CreatedAt time.Time `json:"createdAt" gorm:"type:TIMESTAMP with time zone;not null" bson:"created_at"`
}

func (Location) TableName() string {
	return "locations"
}

func (l Location) HasParent() bool {
	return l.ParentID != nil && *l.ParentID != ""
}

func ValidLevel(level int) bool {
	return level >= MinLevel && level <= MaxLevel
}

// LevelName returns the label of a tree level, or "" when level is outside
// the hierarchy.
func LevelName(level int) string {
	return levelNames[level]
}
