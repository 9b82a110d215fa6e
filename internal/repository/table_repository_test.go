package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/campushub-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTableRepositoryListDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTableRepository[models.School](db, Schools)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "email", "phone", "address", "plan", "is_active", "created_at", "updated_at"}).
		AddRow("s1", "North Campus", "", "", "", "FREE", true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, email, phone, address, plan, is_active, created_at, updated_at FROM schools WHERE 1=1 ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM schools WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), models.ListQuery{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "North Campus", list[0].Name)
	assert.Equal(t, "s1", list[0].ID)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTableRepositoryListScopedAndFiltered(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTableRepository[models.Room](db, Rooms)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, school_id, name, room_type, capacity, is_active, created_at, updated_at FROM rooms WHERE 1=1 AND school_id = $1 AND room_type = $2 ORDER BY name ASC LIMIT 10 OFFSET 10")).
		WithArgs("school-1", "LAB").
		WillReturnRows(sqlmock.NewRows([]string{"id", "school_id", "name", "room_type", "capacity", "is_active", "created_at", "updated_at"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM rooms WHERE 1=1 AND school_id = $1 AND room_type = $2")).
		WithArgs("school-1", "LAB").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	list, total, err := repo.List(context.Background(), models.ListQuery{
		SchoolID:  "school-1",
		Filters:   map[string]string{"room_type": "LAB", "drop table": "x", "capacity": ""},
		Page:      2,
		PageSize:  10,
		SortBy:    "name",
		SortOrder: "asc",
	})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, 0, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTableRepositoryCreateAssignsIdentity(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTableRepository[models.Room](db, Rooms)

	mock.ExpectExec("INSERT INTO rooms").
		WithArgs(sqlmock.AnyArg(), "school-1", "Lab 1", "LAB", 30, true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	room := &models.Room{SchoolID: "school-1", Name: "Lab 1", RoomType: "LAB", Capacity: 30, IsActive: true}
	require.NoError(t, repo.Create(context.Background(), room))
	assert.NotEmpty(t, room.ID)
	assert.False(t, room.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTableRepositoryCreateKeepsDriverError(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTableRepository[models.Course](db, Courses)

	mock.ExpectExec("INSERT INTO courses").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "courses_school_id_code_key"})

	err := repo.Create(context.Background(), &models.Course{SchoolID: "s", Name: "CS", Code: "CS"})
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.Equal(t, "courses_school_id_code_key", ConstraintName(err))
}

func TestTableRepositoryFindByIDScansDates(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTableRepository[models.Semester](db, Semesters)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "school_id", "intake_course_id", "course_id", "name", "semester_number", "start_date", "end_date", "created_at", "updated_at"}).
		AddRow("sem-1", "s1", "ic-1", "c-1", "Semester 1", 1, start, end, start, start)
	mock.ExpectQuery(regexp.QuoteMeta("FROM semesters WHERE id = $1")).
		WithArgs("sem-1").
		WillReturnRows(rows)

	semester, err := repo.FindByID(context.Background(), "sem-1")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", semester.StartDate.String())
	assert.Equal(t, "2024-06-30", semester.EndDate.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTableRepositoryFindByIDMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTableRepository[models.SemesterModule](db, SemesterModules)

	mock.ExpectQuery(regexp.QuoteMeta("FROM semester_modules WHERE id = $1 AND is_active")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestTableRepositoryUpdateMissingRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTableRepository[models.Module](db, Modules)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE modules SET school_id = ?, code = ?, name = ?, credit_hours = ?, is_active = ?, updated_at = ? WHERE id = ?")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Module{Base: models.Base{ID: "m1"}, SchoolID: "s", Code: "M1", Name: "Maths"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestTableRepositoryDeleteHardAndSoft(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	rooms := NewTableRepository[models.Room](db, Rooms)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM rooms WHERE id = $1")).
		WithArgs("r1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, rooms.Delete(context.Background(), "r1"))

	modules := NewTableRepository[models.SemesterModule](db, SemesterModules)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE semester_modules SET is_active = FALSE, updated_at = $2 WHERE id = $1 AND is_active")).
		WithArgs("sm1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, modules.Delete(context.Background(), "sm1"))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE semester_modules SET is_active = FALSE")).
		WithArgs("sm1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, modules.Delete(context.Background(), "sm1"), sql.ErrNoRows)

	assert.NoError(t, mock.ExpectationsWereMet())
}
