package course

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/devcamper-api/internal/types"
)

func setupService(t *testing.T) (*CourseServiceImpl, *MockCourseRepo, *MockBootcampFinder) {
	t.Helper()
	repo, bootcamps := new(MockCourseRepo), new(MockBootcampFinder)
	t.Cleanup(func() {
		repo.AssertExpectations(t)
		bootcamps.AssertExpectations(t)
	})
	return NewCourseService(repo, bootcamps, discardLogger()), repo, bootcamps
}

func TestCourseService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("bootcamp owner adds a course and the average is refreshed", func(t *testing.T) {
		svc, repo, bootcamps := setupService(t)
		actor := publisher()
		bootcamp := &types.Bootcamp{ID: uuid.New(), UserID: actor.ID}
		req := newCourseRequest()
		created := frontEndCourse(bootcamp.ID, actor.ID)

		bootcamps.On("GetByID", mock.Anything, bootcamp.ID).Return(bootcamp, nil).Once()
		repo.On("Create", mock.Anything, bootcamp.ID, actor.ID, req).Return(created, nil).Once()
		repo.On("RecalculateAverageCost", mock.Anything, bootcamp.ID).Return(nil).Once()

		c, err := svc.Create(ctx, actor, bootcamp.ID, req)
		require.NoError(t, err)
		assert.Equal(t, created, c)
	})

	t.Run("publisher cannot add to a bootcamp they do not own", func(t *testing.T) {
		svc, repo, bootcamps := setupService(t)
		actor := publisher()
		bootcamp := &types.Bootcamp{ID: uuid.New(), UserID: uuid.New()}

		bootcamps.On("GetByID", mock.Anything, bootcamp.ID).Return(bootcamp, nil).Once()

		_, err := svc.Create(ctx, actor, bootcamp.ID, newCourseRequest())
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrForbidden))
		assert.Equal(t, fmt.Sprintf("User %s is not authorized to add to bootcamp %s", actor.ID, bootcamp.ID), err.Error())
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("admin may add to any bootcamp", func(t *testing.T) {
		svc, repo, bootcamps := setupService(t)
		actor := &types.User{ID: uuid.New(), Role: types.RoleAdmin}
		bootcamp := &types.Bootcamp{ID: uuid.New(), UserID: uuid.New()}
		req := newCourseRequest()

		bootcamps.On("GetByID", mock.Anything, bootcamp.ID).Return(bootcamp, nil).Once()
		repo.On("Create", mock.Anything, bootcamp.ID, actor.ID, req).Return(frontEndCourse(bootcamp.ID, actor.ID), nil).Once()
		repo.On("RecalculateAverageCost", mock.Anything, bootcamp.ID).Return(nil).Once()

		_, err := svc.Create(ctx, actor, bootcamp.ID, req)
		require.NoError(t, err)
	})

	t.Run("missing bootcamp", func(t *testing.T) {
		svc, _, bootcamps := setupService(t)
		id := uuid.New()
		bootcamps.On("GetByID", mock.Anything, id).
			Return(nil, types.NewError(types.ErrNotFound, "No bootcamp with the id of %s", id)).Once()

		_, err := svc.Create(ctx, publisher(), id, newCourseRequest())
		assert.True(t, errors.Is(err, types.ErrNotFound))
	})

	t.Run("invalid skill level", func(t *testing.T) {
		svc, _, bootcamps := setupService(t)
		actor := publisher()
		bootcamp := &types.Bootcamp{ID: uuid.New(), UserID: actor.ID}
		bootcamps.On("GetByID", mock.Anything, bootcamp.ID).Return(bootcamp, nil).Once()

		req := newCourseRequest()
		req.MinimumSkill = "expert"
		_, err := svc.Create(ctx, actor, bootcamp.ID, req)
		assert.True(t, errors.Is(err, types.ErrValidation))
	})

	t.Run("recalculation failure does not fail the request", func(t *testing.T) {
		svc, repo, bootcamps := setupService(t)
		actor := publisher()
		bootcamp := &types.Bootcamp{ID: uuid.New(), UserID: actor.ID}
		req := newCourseRequest()

		bootcamps.On("GetByID", mock.Anything, bootcamp.ID).Return(bootcamp, nil).Once()
		repo.On("Create", mock.Anything, bootcamp.ID, actor.ID, req).Return(frontEndCourse(bootcamp.ID, actor.ID), nil).Once()
		repo.On("RecalculateAverageCost", mock.Anything, bootcamp.ID).Return(errors.New("connection reset")).Once()

		_, err := svc.Create(ctx, actor, bootcamp.ID, req)
		assert.NoError(t, err)
	})
}

func TestCourseService_Update(t *testing.T) {
	ctx := context.Background()
	tuition := 9000

	t.Run("owner update refreshes the average", func(t *testing.T) {
		svc, repo, _ := setupService(t)
		actor := publisher()
		existing := frontEndCourse(uuid.New(), actor.ID)
		updated := *existing
		updated.Tuition = tuition
		req := types.UpdateCourseRequest{Tuition: &tuition}

		repo.On("GetByID", mock.Anything, existing.ID).Return(existing, nil).Once()
		repo.On("Update", mock.Anything, existing.ID, req).Return(&updated, nil).Once()
		repo.On("RecalculateAverageCost", mock.Anything, existing.BootcampID).Return(nil).Once()

		c, err := svc.Update(ctx, actor, existing.ID, req)
		require.NoError(t, err)
		assert.Equal(t, tuition, c.Tuition)
	})

	t.Run("non owner is forbidden", func(t *testing.T) {
		svc, repo, _ := setupService(t)
		actor := publisher()
		existing := frontEndCourse(uuid.New(), uuid.New())

		repo.On("GetByID", mock.Anything, existing.ID).Return(existing, nil).Once()

		_, err := svc.Update(ctx, actor, existing.ID, types.UpdateCourseRequest{Tuition: &tuition})
		require.Error(t, err)
		assert.Equal(t, fmt.Sprintf("User %s is not authorized to update course %s", actor.ID, existing.ID), err.Error())
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
		repo.AssertNotCalled(t, "RecalculateAverageCost", mock.Anything, mock.Anything)
	})
}

func TestCourseService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("owner deletes and the average is refreshed", func(t *testing.T) {
		svc, repo, _ := setupService(t)
		actor := publisher()
		existing := frontEndCourse(uuid.New(), actor.ID)

		repo.On("GetByID", mock.Anything, existing.ID).Return(existing, nil).Once()
		repo.On("Delete", mock.Anything, existing.ID).Return(nil).Once()
		repo.On("RecalculateAverageCost", mock.Anything, existing.BootcampID).Return(nil).Once()

		require.NoError(t, svc.Delete(ctx, actor, existing.ID))
	})

	t.Run("non owner is forbidden", func(t *testing.T) {
		svc, repo, _ := setupService(t)
		existing := frontEndCourse(uuid.New(), uuid.New())
		repo.On("GetByID", mock.Anything, existing.ID).Return(existing, nil).Once()

		err := svc.Delete(ctx, publisher(), existing.ID)
		assert.True(t, errors.Is(err, types.ErrForbidden))
		repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}
