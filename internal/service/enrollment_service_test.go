package service

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/campushub-api/internal/models"
)

type stubEnroller struct {
	result *models.IntakeCourse
	err    error
	calls  int
}

func (s *stubEnroller) Enroll(context.Context, string) (*models.IntakeCourse, error) {
	s.calls++
	return s.result, s.err
}

func intakeCourses(courses ...models.IntakeCourse) stubIntakeCourses {
	out := stubIntakeCourses{}
	for _, c := range courses {
		out[c.ID] = c
	}
	return out
}

func TestEnrollmentServiceEnrollClosesAtCapacity(t *testing.T) {
	course := models.IntakeCourse{Base: models.Base{ID: "ic-1"}, SchoolID: "school-1", MaxStudents: 2, CurrentStudents: 1, Status: models.IntakeCourseOpen}
	closed := course
	closed.CurrentStudents = 2
	closed.Status = models.IntakeCourseClosed
	repo := &stubEnroller{result: &closed}
	svc := NewEnrollmentService(intakeCourses(course), repo, nil)

	updated, err := svc.Enroll(context.Background(), Scope{SchoolID: "school-1"}, "ic-1")
	require.NoError(t, err)
	assert.Equal(t, 2, updated.CurrentStudents)
	assert.Equal(t, models.IntakeCourseClosed, updated.Status)
}

func TestEnrollmentServiceRejectsClosedOrFull(t *testing.T) {
	repo := &stubEnroller{}
	svc := NewEnrollmentService(intakeCourses(
		models.IntakeCourse{Base: models.Base{ID: "closed"}, SchoolID: "school-1", MaxStudents: 5, Status: models.IntakeCourseClosed},
		models.IntakeCourse{Base: models.Base{ID: "full"}, SchoolID: "school-1", MaxStudents: 5, CurrentStudents: 5, Status: models.IntakeCourseOpen},
	), repo, nil)

	_, err := svc.Enroll(context.Background(), Scope{}, "closed")
	assertStatus(t, err, http.StatusConflict)
	_, err = svc.Enroll(context.Background(), Scope{}, "full")
	assertStatus(t, err, http.StatusConflict)
	assert.Zero(t, repo.calls)

	_, err = svc.Enroll(context.Background(), Scope{SchoolID: "school-2"}, "full")
	assertStatus(t, err, http.StatusNotFound)
}

func TestEnrollmentServiceLostRace(t *testing.T) {
	course := models.IntakeCourse{Base: models.Base{ID: "ic-1"}, SchoolID: "school-1", MaxStudents: 5, CurrentStudents: 4, Status: models.IntakeCourseOpen}

	svc := NewEnrollmentService(intakeCourses(course), &stubEnroller{err: sql.ErrNoRows}, nil)
	_, err := svc.Enroll(context.Background(), Scope{}, "ic-1")
	assertStatus(t, err, http.StatusConflict)

	svc = NewEnrollmentService(intakeCourses(course), &stubEnroller{err: errors.New("boom")}, nil)
	_, err = svc.Enroll(context.Background(), Scope{}, "ic-1")
	assertStatus(t, err, http.StatusInternalServerError)
}
