package service

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/campushub-api/internal/models"
	appErrors "github.com/campushub/campushub-api/pkg/errors"
)

type memoryRoomRepo struct {
	items     map[string]models.Room
	createErr error
	deleteErr error
	lastQuery models.ListQuery
}

func newMemoryRoomRepo(rooms ...models.Room) *memoryRoomRepo {
	repo := &memoryRoomRepo{items: make(map[string]models.Room)}
	for _, room := range rooms {
		repo.items[room.ID] = room
	}
	return repo
}

func (m *memoryRoomRepo) Create(_ context.Context, item *models.Room) error {
	if m.createErr != nil {
		return m.createErr
	}
	if item.ID == "" {
		item.ID = "room-new"
	}
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt
	m.items[item.ID] = *item
	return nil
}

func (m *memoryRoomRepo) FindByID(_ context.Context, id string) (*models.Room, error) {
	room, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &room, nil
}

func (m *memoryRoomRepo) List(_ context.Context, query models.ListQuery) ([]models.Room, int, error) {
	m.lastQuery = query
	var out []models.Room
	for _, room := range m.items {
		if query.SchoolID == "" || room.SchoolID == query.SchoolID {
			out = append(out, room)
		}
	}
	return out, len(out), nil
}

func (m *memoryRoomRepo) Update(_ context.Context, item *models.Room) error {
	if _, ok := m.items[item.ID]; !ok {
		return sql.ErrNoRows
	}
	m.items[item.ID] = *item
	return nil
}

func (m *memoryRoomRepo) Delete(_ context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.items, id)
	return nil
}

type stubReferences struct {
	missing map[string]bool
	calls   []string
}

func (s *stubReferences) Exists(_ context.Context, table, id, _ string) (bool, error) {
	s.calls = append(s.calls, table+":"+id)
	return !s.missing[table+":"+id], nil
}

func newRoomService(repo *memoryRoomRepo, refs *stubReferences) *ResourceService[models.Room, *models.Room] {
	rules := NewEntityRules(refs)
	return NewResourceService[models.Room]("room", repo, ResourceHooks[models.Room]{Check: rules.Room}, nil, nil)
}

func assertStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr), "expected typed error, got %v", err)
	assert.Equal(t, status, appErr.Status)
}

func TestResourceServiceCreate(t *testing.T) {
	repo := newMemoryRoomRepo()
	svc := newRoomService(repo, &stubReferences{})

	room := &models.Room{SchoolID: "school-1", Name: "Lab A", RoomType: "LAB", Capacity: 30, IsActive: true}
	created, err := svc.Create(context.Background(), Scope{SchoolID: "school-1"}, room)
	require.NoError(t, err)
	assert.Equal(t, "room-new", created.ID)
	assert.Contains(t, repo.items, "room-new")
}

func TestResourceServiceCreateValidation(t *testing.T) {
	svc := newRoomService(newMemoryRoomRepo(), &stubReferences{})

	_, err := svc.Create(context.Background(), Scope{}, &models.Room{SchoolID: "school-1"})
	assertStatus(t, err, http.StatusBadRequest)

	_, err = svc.Create(context.Background(), Scope{}, &models.Room{SchoolID: "school-1", Name: "X", RoomType: "GARAGE"})
	assertStatus(t, err, http.StatusBadRequest)
}

func TestResourceServiceCreateMissingSchool(t *testing.T) {
	refs := &stubReferences{missing: map[string]bool{"schools:ghost": true}}
	svc := newRoomService(newMemoryRoomRepo(), refs)

	_, err := svc.Create(context.Background(), Scope{}, &models.Room{SchoolID: "ghost", Name: "Hall"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInvalidReference)
}

func TestResourceServiceScopeMismatch(t *testing.T) {
	repo := newMemoryRoomRepo(models.Room{Base: models.Base{ID: "room-1"}, SchoolID: "school-2", Name: "R1"})
	svc := newRoomService(repo, &stubReferences{})
	scope := Scope{SchoolID: "school-1"}

	_, err := svc.Create(context.Background(), scope, &models.Room{SchoolID: "school-2", Name: "Other"})
	assertStatus(t, err, http.StatusForbidden)

	_, err = svc.Get(context.Background(), scope, "room-1")
	assertStatus(t, err, http.StatusNotFound)

	err = svc.Delete(context.Background(), scope, "room-1")
	assertStatus(t, err, http.StatusNotFound)
	assert.Contains(t, repo.items, "room-1")

	_, _, err = svc.List(context.Background(), scope, models.ListQuery{SchoolID: "school-2"})
	assertStatus(t, err, http.StatusForbidden)
}

func TestResourceServiceListForcesTenant(t *testing.T) {
	repo := newMemoryRoomRepo(
		models.Room{Base: models.Base{ID: "a"}, SchoolID: "school-1", Name: "A"},
		models.Room{Base: models.Base{ID: "b"}, SchoolID: "school-2", Name: "B"},
	)
	svc := newRoomService(repo, &stubReferences{})

	items, page, err := svc.List(context.Background(), Scope{SchoolID: "school-1"}, models.ListQuery{PageSize: 500})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "school-1", repo.lastQuery.SchoolID)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PageSize)
	assert.Equal(t, 1, page.TotalCount)
}

func TestResourceServiceUpdateKeepsIdentity(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := newMemoryRoomRepo(models.Room{Base: models.Base{ID: "room-1", CreatedAt: created}, SchoolID: "school-1", Name: "Old"})
	svc := newRoomService(repo, &stubReferences{})

	updated, err := svc.Update(context.Background(), Scope{}, "room-1", &models.Room{Base: models.Base{ID: "spoofed"}, SchoolID: "school-1", Name: "New"})
	require.NoError(t, err)
	assert.Equal(t, "room-1", updated.ID)
	assert.Equal(t, created, updated.CreatedAt)
	assert.Equal(t, "New", repo.items["room-1"].Name)

	_, err = svc.Update(context.Background(), Scope{}, "missing", &models.Room{SchoolID: "school-1", Name: "X"})
	assertStatus(t, err, http.StatusNotFound)
}

func TestResourceServiceTranslatesDatabaseErrors(t *testing.T) {
	repo := newMemoryRoomRepo()
	svc := newRoomService(repo, &stubReferences{})
	room := func() *models.Room { return &models.Room{SchoolID: "school-1", Name: "Dup"} }

	repo.createErr = &pq.Error{Code: "23505", Constraint: "rooms_school_name_uq"}
	_, err := svc.Create(context.Background(), Scope{}, room())
	assertStatus(t, err, http.StatusConflict)
	assert.Contains(t, err.Error(), "already exists")

	repo.createErr = &pq.Error{Code: "23505", Constraint: "class_schedules_room_slot_uq"}
	_, err = svc.Create(context.Background(), Scope{}, room())
	assertStatus(t, err, http.StatusConflict)
	assert.Contains(t, err.Error(), "existing booking")

	repo.createErr = &pq.Error{Code: "22P02"}
	_, err = svc.Create(context.Background(), Scope{}, room())
	assertStatus(t, err, http.StatusBadRequest)

	repo.createErr = errors.New("connection reset")
	_, err = svc.Create(context.Background(), Scope{}, room())
	assertStatus(t, err, http.StatusInternalServerError)
}

func TestResourceServiceDeleteStillReferenced(t *testing.T) {
	repo := newMemoryRoomRepo(models.Room{Base: models.Base{ID: "room-1"}, SchoolID: "school-1", Name: "R"})
	repo.deleteErr = &pq.Error{Code: "23503"}
	svc := newRoomService(repo, &stubReferences{})

	err := svc.Delete(context.Background(), Scope{SchoolID: "school-1"}, "room-1")
	assertStatus(t, err, http.StatusConflict)
}

func TestResourceServiceDecoratesSemesters(t *testing.T) {
	repo := &memorySemesterRepo{item: models.Semester{
		Base:      models.Base{ID: "sem-1"},
		SchoolID:  "school-1",
		StartDate: models.NewDate(time.Now().AddDate(0, 0, -10)),
		EndDate:   models.NewDate(time.Now().AddDate(0, 0, 10)),
	}}
	svc := NewResourceService[models.Semester]("semester", repo, ResourceHooks[models.Semester]{
		Decorate: func(s *models.Semester) { s.DeriveStatus(time.Now()) },
	}, nil, nil)

	got, err := svc.Get(context.Background(), Scope{}, "sem-1")
	require.NoError(t, err)
	assert.Equal(t, models.SemesterInProgress, got.Status)
}

type memorySemesterRepo struct {
	item models.Semester
}

func (m *memorySemesterRepo) Create(context.Context, *models.Semester) error { return nil }

func (m *memorySemesterRepo) FindByID(_ context.Context, id string) (*models.Semester, error) {
	if id != m.item.ID {
		return nil, sql.ErrNoRows
	}
	cp := m.item
	return &cp, nil
}

func (m *memorySemesterRepo) List(context.Context, models.ListQuery) ([]models.Semester, int, error) {
	return []models.Semester{m.item}, 1, nil
}

func (m *memorySemesterRepo) Update(context.Context, *models.Semester) error { return nil }

func (m *memorySemesterRepo) Delete(context.Context, string) error { return nil }
