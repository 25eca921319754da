package location

import (
	"time"

	"github.com/hilthontt/townhall/domain/model"
	"github.com/samber/lo"
)

type ListLocationsQuery struct {
	Level    *int    `form:"level" binding:"omitempty,gte=1,lte=5"`
	ParentID *string `form:"parentId"`
}

type CreateLocationRequest struct {
	Name     string  `json:"name"`
	Level    int     `json:"level" binding:"required"`
	ParentID *string `json:"parentId"`
}

type RenameLocationRequest struct {
	Name string `json:"name"`
}

type LocationResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Level     int       `json:"level"`
	LevelName string    `json:"levelName"`
	ParentID  *string   `json:"parentId"`
	CreatedAt time.Time `json:"createdAt"`
}

type LocationsResponse struct {
	Locations []LocationResponse `json:"locations"`
	Count     int                `json:"count"`
}

func toLocationResponse(l *model.Location) LocationResponse {
	return LocationResponse{
		ID:        l.ID,
		Name:      l.Name,
		Level:     l.Level,
		LevelName: model.LevelName(l.Level),
		ParentID:  l.ParentID,
		CreatedAt: l.CreatedAt,
	}
}

func toLocationsResponse(locations []*model.Location) LocationsResponse {
	return LocationsResponse{
		Locations: lo.Map(locations, func(l *model.Location, _ int) LocationResponse {
			return toLocationResponse(l)
		}),
		Count: len(locations),
	}
}
