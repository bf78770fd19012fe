package course

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/devcamper-api/internal/api/policy"
	"github.com/FACorreiaa/devcamper-api/internal/types"
	"github.com/FACorreiaa/devcamper-api/internal/validation"
)

var _ CourseService = (*CourseServiceImpl)(nil)

// BootcampFinder loads the bootcamp a course is attached to.
type BootcampFinder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*types.Bootcamp, error)
}

type CourseService interface {
	Get(ctx context.Context, id uuid.UUID) (*types.Course, error)
	ListByBootcamp(ctx context.Context, bootcampID uuid.UUID) ([]types.Course, error)
	Create(ctx context.Context, actor *types.User, bootcampID uuid.UUID, req types.CreateCourseRequest) (*types.Course, error)
	Update(ctx context.Context, actor *types.User, id uuid.UUID, req types.UpdateCourseRequest) (*types.Course, error)
	Delete(ctx context.Context, actor *types.User, id uuid.UUID) error
}

type CourseServiceImpl struct {
	logger    *slog.Logger
	repo      CourseRepo
	bootcamps BootcampFinder
}

func NewCourseService(repo CourseRepo, bootcamps BootcampFinder, logger *slog.Logger) *CourseServiceImpl {
	return &CourseServiceImpl{
		logger:    logger,
		repo:      repo,
		bootcamps: bootcamps,
	}
}

func (s *CourseServiceImpl) Get(ctx context.Context, id uuid.UUID) (*types.Course, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *CourseServiceImpl) ListByBootcamp(ctx context.Context, bootcampID uuid.UUID) ([]types.Course, error) {
	return s.repo.ListByBootcamp(ctx, bootcampID)
}

// recalculate refreshes the bootcamp's average cost. The mutation has
// already been committed, so a failure is logged rather than returned.
func (s *CourseServiceImpl) recalculate(ctx context.Context, bootcampID uuid.UUID) {
	if err := s.repo.RecalculateAverageCost(ctx, bootcampID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to recalculate average cost",
			slog.String("bootcampID", bootcampID.String()), slog.Any("error", err))
	}
}

func (s *CourseServiceImpl) Create(ctx context.Context, actor *types.User, bootcampID uuid.UUID, req types.CreateCourseRequest) (*types.Course, error) {
	ctx, span := otel.Tracer("CourseService").Start(ctx, "Create", trace.WithAttributes(
		attribute.String("bootcamp.id", bootcampID.String()),
		attribute.String("actor.id", actor.ID.String()),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "Create"), slog.String("bootcampID", bootcampID.String()))

	bootcamp, err := s.bootcamps.GetByID(ctx, bootcampID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err = policy.Authorize(actor, bootcamp, policy.OpCreate); err != nil {
		l.WarnContext(ctx, "Actor does not own the bootcamp", slog.String("actorID", actor.ID.String()))
		span.SetStatus(codes.Error, "forbidden")
		return nil, err
	}
	if err = validation.ValidateStruct(req); err != nil {
		return nil, err
	}

	c, err := s.repo.Create(ctx, bootcampID, actor.ID, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		return nil, err
	}
	s.recalculate(ctx, bootcampID)
	return c, nil
}

func (s *CourseServiceImpl) loadOwned(ctx context.Context, actor *types.User, id uuid.UUID, op policy.Operation) (*types.Course, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err = policy.Authorize(actor, c, op); err != nil {
		s.logger.WarnContext(ctx, "Ownership check failed",
			slog.String("courseID", id.String()), slog.String("actorID", actor.ID.String()), slog.String("op", string(op)))
		return nil, err
	}
	return c, nil
}

func (s *CourseServiceImpl) Update(ctx context.Context, actor *types.User, id uuid.UUID, req types.UpdateCourseRequest) (*types.Course, error) {
	ctx, span := otel.Tracer("CourseService").Start(ctx, "Update", trace.WithAttributes(
		attribute.String("course.id", id.String()),
	))
	defer span.End()

	existing, err := s.loadOwned(ctx, actor, id, policy.OpUpdate)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err = validation.ValidateStruct(req); err != nil {
		return nil, err
	}

	c, err := s.repo.Update(ctx, id, req)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error updating course: %w", err)
	}
	s.recalculate(ctx, existing.BootcampID)
	return c, nil
}

func (s *CourseServiceImpl) Delete(ctx context.Context, actor *types.User, id uuid.UUID) error {
	ctx, span := otel.Tracer("CourseService").Start(ctx, "Delete", trace.WithAttributes(
		attribute.String("course.id", id.String()),
	))
	defer span.End()

	existing, err := s.loadOwned(ctx, actor, id, policy.OpDelete)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if err = s.repo.Delete(ctx, id); err != nil {
		span.RecordError(err)
		return err
	}
	s.recalculate(ctx, existing.BootcampID)
	return nil
}
