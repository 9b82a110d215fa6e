package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/campushub-api/internal/middleware"
	"github.com/campushub/campushub-api/internal/models"
	"github.com/campushub/campushub-api/internal/service"
	appErrors "github.com/campushub/campushub-api/pkg/errors"
	"github.com/campushub/campushub-api/pkg/response"
)

type roomServiceMock struct {
	scope   service.Scope
	query   models.ListQuery
	created *models.Room
	rooms   map[string]models.Room
	err     error
}

func (m *roomServiceMock) Name() string { return "room" }

func (m *roomServiceMock) Create(_ context.Context, scope service.Scope, item *models.Room) (*models.Room, error) {
	m.scope = scope
	m.created = item
	if m.err != nil {
		return nil, m.err
	}
	item.ID = "room-new"
	return item, nil
}

func (m *roomServiceMock) Get(_ context.Context, scope service.Scope, id string) (*models.Room, error) {
	m.scope = scope
	room, ok := m.rooms[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
	}
	return &room, nil
}

func (m *roomServiceMock) List(_ context.Context, scope service.Scope, query models.ListQuery) ([]models.Room, *models.Pagination, error) {
	m.scope = scope
	m.query = query
	if m.err != nil {
		return nil, nil, m.err
	}
	var out []models.Room
	for _, room := range m.rooms {
		out = append(out, room)
	}
	return out, &models.Pagination{Page: query.Page, PageSize: query.PageSize, TotalCount: len(out)}, nil
}

func (m *roomServiceMock) Update(_ context.Context, scope service.Scope, id string, item *models.Room) (*models.Room, error) {
	m.scope = scope
	if _, ok := m.rooms[id]; !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
	}
	item.ID = id
	return item, nil
}

func (m *roomServiceMock) Delete(_ context.Context, scope service.Scope, id string) error {
	m.scope = scope
	if m.err != nil {
		return m.err
	}
	delete(m.rooms, id)
	return nil
}

// withClaims stands in for the JWT middleware.
func withClaims(claims *models.JWTClaims) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims != nil {
			c.Set(middleware.ContextUserKey, claims)
		}
		c.Next()
	}
}

var (
	adminClaims   = &models.JWTClaims{UserID: "u-admin", Role: models.RoleAdmin, SchoolID: "school-1", Email: "admin@north.test", FullName: "Ada Admin"}
	studentClaims = &models.JWTClaims{UserID: "u-student", Role: models.RoleStudent, SchoolID: "school-1"}
	rootClaims    = &models.JWTClaims{UserID: "u-root", Role: models.RoleSuperAdmin}
)

func newRoomRouter(svc *roomServiceMock, claims *models.JWTClaims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.WithResponseMeta())
	group := r.Group("/rooms", withClaims(claims))
	NewResourceHandler[models.Room](svc).Register(group, staff, admins)
	return r
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder, data interface{}) response.Envelope {
	t.Helper()
	var env response.Envelope
	if data != nil {
		env.Data = data
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestResourceHandlerCreateAppliesDefaults(t *testing.T) {
	svc := &roomServiceMock{}
	r := newRoomRouter(svc, adminClaims)

	w := doJSON(r, http.MethodPost, "/rooms", `{"school_id":"school-1","name":"Lab 1","capacity":30}`)

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, svc.created)
	assert.Equal(t, "CLASSROOM", svc.created.RoomType)
	assert.True(t, svc.created.IsActive)
	assert.Equal(t, service.Scope{SchoolID: "school-1"}, svc.scope)

	var room models.Room
	env := decodeEnvelope(t, w, &room)
	assert.True(t, env.Success)
	assert.Equal(t, "room-new", room.ID)
}

func TestResourceHandlerCreateExplicitFieldsOverrideDefaults(t *testing.T) {
	svc := &roomServiceMock{}
	r := newRoomRouter(svc, adminClaims)

	w := doJSON(r, http.MethodPost, "/rooms", `{"school_id":"school-1","name":"Hall","room_type":"HALL","is_active":false}`)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "HALL", svc.created.RoomType)
	assert.False(t, svc.created.IsActive)
}

func TestResourceHandlerCreateRejectsMalformedBody(t *testing.T) {
	svc := &roomServiceMock{}
	r := newRoomRouter(svc, adminClaims)

	w := doJSON(r, http.MethodPost, "/rooms", `{"name":`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, svc.created)
	env := decodeEnvelope(t, w, nil)
	assert.Equal(t, "invalid room payload", env.Message)
}

func TestResourceHandlerCreatePropagatesServiceError(t *testing.T) {
	svc := &roomServiceMock{err: appErrors.Clone(appErrors.ErrInvalidReference, "school does not exist")}
	r := newRoomRouter(svc, adminClaims)

	w := doJSON(r, http.MethodPost, "/rooms", `{"school_id":"ghost","name":"Lab"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w, nil)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrInvalidReference.Code, env.Error.Code)
}

func TestResourceHandlerWriteRequiresRole(t *testing.T) {
	svc := &roomServiceMock{}
	r := newRoomRouter(svc, studentClaims)

	assert.Equal(t, http.StatusForbidden, doJSON(r, http.MethodPost, "/rooms", `{"name":"Lab"}`).Code)
	assert.Equal(t, http.StatusForbidden, doJSON(r, http.MethodGet, "/rooms", "").Code)
	assert.Nil(t, svc.created)
}

func TestResourceHandlerListParsesQuery(t *testing.T) {
	svc := &roomServiceMock{rooms: map[string]models.Room{"r1": {Base: models.Base{ID: "r1"}, SchoolID: "school-1", Name: "A"}}}
	r := newRoomRouter(svc, adminClaims)

	w := doJSON(r, http.MethodGet, "/rooms?page=2&page_size=5&sort_by=name&sort_order=desc&room_type=LAB", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, svc.query.Page)
	assert.Equal(t, 5, svc.query.PageSize)
	assert.Equal(t, "name", svc.query.SortBy)
	assert.Equal(t, "desc", svc.query.SortOrder)
	assert.Equal(t, map[string]string{"room_type": "LAB"}, svc.query.Filters)

	var rooms []models.Room
	env := decodeEnvelope(t, w, &rooms)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 1, env.Pagination.TotalCount)
	assert.Len(t, rooms, 1)
	assert.Contains(t, env.Meta, "processing_time_ms")
}

func TestResourceHandlerListDefaultsAndEmptyArray(t *testing.T) {
	svc := &roomServiceMock{}
	r := newRoomRouter(svc, adminClaims)

	w := doJSON(r, http.MethodGet, "/rooms?page=abc", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, svc.query.Page)
	assert.Equal(t, 20, svc.query.PageSize)
	assert.Contains(t, w.Body.String(), `"data":[]`)

	w = doJSON(r, http.MethodGet, "/rooms?page=0&page_size=x", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, svc.query.Page)
	assert.Equal(t, 20, svc.query.PageSize)
}

func TestResourceHandlerListBySchool(t *testing.T) {
	svc := &roomServiceMock{}
	r := newRoomRouter(svc, rootClaims)

	w := doJSON(r, http.MethodGet, "/rooms/school/school-9", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "school-9", svc.query.SchoolID)
	assert.Equal(t, service.Scope{}, svc.scope)
}

func TestResourceHandlerGetUpdateDelete(t *testing.T) {
	svc := &roomServiceMock{rooms: map[string]models.Room{"r1": {Base: models.Base{ID: "r1"}, SchoolID: "school-1", Name: "A"}}}
	r := newRoomRouter(svc, adminClaims)

	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, "/rooms/r1", "").Code)
	assert.Equal(t, http.StatusNotFound, doJSON(r, http.MethodGet, "/rooms/missing", "").Code)

	w := doJSON(r, http.MethodPut, "/rooms/r1", `{"school_id":"school-1","name":"B"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var room models.Room
	decodeEnvelope(t, w, &room)
	assert.Equal(t, "r1", room.ID)
	assert.Equal(t, "B", room.Name)

	assert.Equal(t, http.StatusNotFound, doJSON(r, http.MethodPut, "/rooms/missing", `{"name":"B"}`).Code)

	w = doJSON(r, http.MethodDelete, "/rooms/r1", "")
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w, nil)
	assert.Equal(t, "room deleted", env.Message)
	assert.NotContains(t, svc.rooms, "r1")
}

func TestResourceHandlerDeleteConflict(t *testing.T) {
	svc := &roomServiceMock{err: appErrors.Clone(appErrors.ErrConflict, "room is still referenced")}
	r := newRoomRouter(svc, adminClaims)

	w := doJSON(r, http.MethodDelete, "/rooms/r1", "")

	assert.Equal(t, http.StatusConflict, w.Code)
}
