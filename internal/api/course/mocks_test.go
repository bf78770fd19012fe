package course

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/FACorreiaa/devcamper-api/internal/types"
)

type MockCourseRepo struct {
	mock.Mock
}

var _ CourseRepo = (*MockCourseRepo)(nil)

func (m *MockCourseRepo) GetByID(ctx context.Context, id uuid.UUID) (*types.Course, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Course), args.Error(1)
}

func (m *MockCourseRepo) ListByBootcamp(ctx context.Context, bootcampID uuid.UUID) ([]types.Course, error) {
	args := m.Called(ctx, bootcampID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Course), args.Error(1)
}

func (m *MockCourseRepo) Create(ctx context.Context, bootcampID, userID uuid.UUID, req types.CreateCourseRequest) (*types.Course, error) {
	args := m.Called(ctx, bootcampID, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Course), args.Error(1)
}

func (m *MockCourseRepo) Update(ctx context.Context, id uuid.UUID, req types.UpdateCourseRequest) (*types.Course, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Course), args.Error(1)
}

func (m *MockCourseRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCourseRepo) RecalculateAverageCost(ctx context.Context, bootcampID uuid.UUID) error {
	args := m.Called(ctx, bootcampID)
	return args.Error(0)
}

type MockBootcampFinder struct {
	mock.Mock
}

func (m *MockBootcampFinder) GetByID(ctx context.Context, id uuid.UUID) (*types.Bootcamp, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Bootcamp), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func publisher() *types.User {
	return &types.User{ID: uuid.New(), Name: "John Doe", Role: types.RolePublisher}
}

func frontEndCourse(bootcampID, owner uuid.UUID) *types.Course {
	return &types.Course{
		ID:           uuid.New(),
		Title:        "Front End Web Development",
		Description:  "HTML, CSS and JavaScript",
		Weeks:        8,
		Tuition:      8000,
		MinimumSkill: types.SkillBeginner,
		BootcampID:   bootcampID,
		UserID:       owner,
	}
}

func newCourseRequest() types.CreateCourseRequest {
	return types.CreateCourseRequest{
		Title:        "Front End Web Development",
		Description:  "HTML, CSS and JavaScript",
		Weeks:        8,
		Tuition:      8000,
		MinimumSkill: types.SkillBeginner,
	}
}
