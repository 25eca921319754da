package location

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	locationUseCase "github.com/hilthontt/townhall/application/usecases/location"
	"github.com/hilthontt/townhall/domain/model"
	"github.com/hilthontt/townhall/infrastructure/events"
	"github.com/hilthontt/townhall/infrastructure/logger"
	"github.com/hilthontt/townhall/infrastructure/persistence/memory"
	"github.com/hilthontt/townhall/presentation/controllers"
	"github.com/hilthontt/townhall/presentation/middlewares"
	"github.com/stretchr/testify/require"
)

type staticVerifier map[string]*model.Identity

func (v staticVerifier) Verify(token string) (*model.Identity, error) {
	if identity, ok := v[token]; ok {
		return identity, nil
	}
	return nil, errors.New("invalid token")
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	binding.Validator = new(middlewares.DefaultValidator)

	log := logger.NewNop()
	uc := locationUseCase.NewLocationUseCase(memory.NewLocationRepository(), events.NewNoopPublisher(), log)
	controller := NewLocationController(uc, log)

	router := gin.New()
	router.Use(middlewares.Authenticate(staticVerifier{
		"manager": {Name: "mai", Role: model.RoleManager},
		"viewer":  {Name: "vu", Role: model.RoleViewer},
	}, log))

	locations := router.Group("/locations", middlewares.RequireRole())
	editors := middlewares.RequireRole(model.RoleAdmin, model.RoleManager)
	locations.GET("", controller.ListLocations)
	locations.GET("/:id", controller.GetLocation)
	locations.POST("", editors, controller.CreateLocation)
	locations.PATCH("/:id", editors, controller.RenameLocation)
	locations.DELETE("/:id", editors, controller.DeleteLocation)
	return router
}

func do(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func create(t *testing.T, router http.Handler, name string, level int, parentID *string) LocationResponse {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/locations", "manager", CreateLocationRequest{Name: name, Level: level, ParentID: parentID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[LocationResponse](t, rec)
}

func TestCreateLocation(t *testing.T) {
	router := newTestRouter()

	hanoi := create(t, router, "Hanoi", model.LevelCity, nil)
	require.Equal(t, "city", hanoi.LevelName)
	require.Nil(t, hanoi.ParentID)

	cauGiay := create(t, router, "CauGiay", model.LevelDistrict, &hanoi.ID)
	require.Equal(t, "district", cauGiay.LevelName)
	require.Equal(t, hanoi.ID, *cauGiay.ParentID)

	hcm := create(t, router, "HoChiMinh", model.LevelCity, nil)

	tests := []struct {
		name   string
		token  string
		body   CreateLocationRequest
		status int
		code   string
	}{
		{"anonymous", "", CreateLocationRequest{Name: "Hue", Level: 1}, http.StatusUnauthorized, "unauthorized"},
		{"viewer", "viewer", CreateLocationRequest{Name: "Hue", Level: 1}, http.StatusForbidden, "forbidden"},
		{"duplicate under another parent", "manager", CreateLocationRequest{Name: "CauGiay", Level: 2, ParentID: &hcm.ID}, http.StatusConflict, "duplicate_name"},
		{"blank name", "manager", CreateLocationRequest{Name: "  ", Level: 1}, http.StatusBadRequest, "empty_name"},
		{"level out of range", "manager", CreateLocationRequest{Name: "Hue", Level: 9}, http.StatusBadRequest, "invalid_level"},
		{"missing level", "manager", CreateLocationRequest{Name: "Hue"}, http.StatusBadRequest, "invalid_request"},
		{"missing parent", "manager", CreateLocationRequest{Name: "DichVong", Level: 3}, http.StatusBadRequest, "missing_parent"},
		{"unknown parent", "manager", CreateLocationRequest{Name: "DichVong", Level: 3, ParentID: &[]string{"nope"}[0]}, http.StatusUnprocessableEntity, "parent_not_found"},
		{"parent same level", "manager", CreateLocationRequest{Name: "BaDinh", Level: 2, ParentID: &cauGiay.ID}, http.StatusUnprocessableEntity, "parent_level_violation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/locations", tt.token, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			require.Equal(t, tt.code, decode[controllers.ErrorResponse](t, rec).Error)
		})
	}
}

func TestListAndGetLocations(t *testing.T) {
	req := require.New(t)
	router := newTestRouter()

	hanoi := create(t, router, "Hanoi", model.LevelCity, nil)
	create(t, router, "CauGiay", model.LevelDistrict, &hanoi.ID)
	create(t, router, "BaDinh", model.LevelDistrict, &hanoi.ID)

	rec := do(t, router, http.MethodGet, "/locations?level=2&parentId="+hanoi.ID, "viewer", nil)
	req.Equal(http.StatusOK, rec.Code)
	list := decode[LocationsResponse](t, rec)
	req.Equal(2, list.Count)
	req.Equal("BaDinh", list.Locations[0].Name)
	req.Equal("CauGiay", list.Locations[1].Name)

	rec = do(t, router, http.MethodGet, "/locations?level=7", "viewer", nil)
	req.Equal(http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodGet, "/locations", "", nil)
	req.Equal(http.StatusUnauthorized, rec.Code)

	rec = do(t, router, http.MethodGet, "/locations/"+hanoi.ID, "viewer", nil)
	req.Equal(http.StatusOK, rec.Code)
	req.Equal("Hanoi", decode[LocationResponse](t, rec).Name)

	rec = do(t, router, http.MethodGet, "/locations/missing", "viewer", nil)
	req.Equal(http.StatusNotFound, rec.Code)
}

func TestRenameAndDeleteLocation(t *testing.T) {
	req := require.New(t)
	router := newTestRouter()

	hanoi := create(t, router, "Hanoi", model.LevelCity, nil)
	cauGiay := create(t, router, "CauGiay", model.LevelDistrict, &hanoi.ID)
	create(t, router, "BaDinh", model.LevelDistrict, &hanoi.ID)

	rec := do(t, router, http.MethodPatch, "/locations/"+cauGiay.ID, "manager", RenameLocationRequest{Name: "Cau Giay"})
	req.Equal(http.StatusOK, rec.Code)
	req.Equal("Cau Giay", decode[LocationResponse](t, rec).Name)

	rec = do(t, router, http.MethodPatch, "/locations/"+cauGiay.ID, "manager", RenameLocationRequest{Name: "BaDinh"})
	req.Equal(http.StatusConflict, rec.Code)

	rec = do(t, router, http.MethodPatch, "/locations/"+cauGiay.ID, "viewer", RenameLocationRequest{Name: "X"})
	req.Equal(http.StatusForbidden, rec.Code)

	rec = do(t, router, http.MethodDelete, "/locations/"+hanoi.ID, "manager", nil)
	req.Equal(http.StatusConflict, rec.Code)
	req.Equal("has_children", decode[controllers.ErrorResponse](t, rec).Error)

	rec = do(t, router, http.MethodDelete, "/locations/"+cauGiay.ID, "manager", nil)
	req.Equal(http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodGet, "/locations/"+cauGiay.ID, "viewer", nil)
	req.Equal(http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodDelete, "/locations/"+cauGiay.ID, "manager", nil)
	req.Equal(http.StatusNotFound, rec.Code)
}
