package review

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/devcamper-api/internal/api/policy"
	"github.com/FACorreiaa/devcamper-api/internal/types"
	"github.com/FACorreiaa/devcamper-api/internal/validation"
)

var _ ReviewService = (*ReviewServiceImpl)(nil)

type BootcampFinder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*types.Bootcamp, error)
}

type ReviewService interface {
	Get(ctx context.Context, id uuid.UUID) (*types.Review, error)
	ListByBootcamp(ctx context.Context, bootcampID uuid.UUID) ([]types.Review, error)
	Create(ctx context.Context, actor *types.User, bootcampID uuid.UUID, req types.CreateReviewRequest) (*types.Review, error)
	Update(ctx context.Context, actor *types.User, id uuid.UUID, req types.UpdateReviewRequest) (*types.Review, error)
	Delete(ctx context.Context, actor *types.User, id uuid.UUID) error
}

type ReviewServiceImpl struct {
	logger    *slog.Logger
	repo      ReviewRepo
	bootcamps BootcampFinder
}

func NewReviewService(repo ReviewRepo, bootcamps BootcampFinder, logger *slog.Logger) *ReviewServiceImpl {
	return &ReviewServiceImpl{
		logger:    logger,
		repo:      repo,
		bootcamps: bootcamps,
	}
}

func (s *ReviewServiceImpl) Get(ctx context.Context, id uuid.UUID) (*types.Review, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ReviewServiceImpl) ListByBootcamp(ctx context.Context, bootcampID uuid.UUID) ([]types.Review, error) {
	return s.repo.ListByBootcamp(ctx, bootcampID)
}

func (s *ReviewServiceImpl) recalculate(ctx context.Context, bootcampID uuid.UUID) {
	if err := s.repo.RecalculateAverageRating(ctx, bootcampID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to recalculate average rating",
			slog.String("bootcampID", bootcampID.String()), slog.Any("error", err))
	}
}

// Create attaches a review by actor to an existing bootcamp. Any reviewer
// may review any bootcamp, once.
func (s *ReviewServiceImpl) Create(ctx context.Context, actor *types.User, bootcampID uuid.UUID, req types.CreateReviewRequest) (*types.Review, error) {
	ctx, span := otel.Tracer("ReviewService").Start(ctx, "Create", trace.WithAttributes(
		attribute.String("bootcamp.id", bootcampID.String()),
		attribute.String("actor.id", actor.ID.String()),
	))
	defer span.End()

	if _, err := s.bootcamps.GetByID(ctx, bootcampID); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := validation.ValidateStruct(req); err != nil {
		return nil, err
	}
	rv, err := s.repo.Create(ctx, bootcampID, actor.ID, req)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.recalculate(ctx, bootcampID)
	return rv, nil
}

func (s *ReviewServiceImpl) loadOwned(ctx context.Context, actor *types.User, id uuid.UUID, op policy.Operation) (*types.Review, error) {
	rv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err = policy.Authorize(actor, rv, op); err != nil {
		s.logger.WarnContext(ctx, "Ownership check failed",
			slog.String("reviewID", id.String()), slog.String("actorID", actor.ID.String()), slog.String("op", string(op)))
		return nil, err
	}
	return rv, nil
}

func (s *ReviewServiceImpl) Update(ctx context.Context, actor *types.User, id uuid.UUID, req types.UpdateReviewRequest) (*types.Review, error) {
	ctx, span := otel.Tracer("ReviewService").Start(ctx, "Update", trace.WithAttributes(
		attribute.String("review.id", id.String()),
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
	rv, err := s.repo.Update(ctx, id, req)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error updating review: %w", err)
	}
	s.recalculate(ctx, existing.BootcampID)
	return rv, nil
}

func (s *ReviewServiceImpl) Delete(ctx context.Context, actor *types.User, id uuid.UUID) error {
	ctx, span := otel.Tracer("ReviewService").Start(ctx, "Delete", trace.WithAttributes(
		attribute.String("review.id", id.String()),
	))
	defer span.End()

	existing, err := s.loadOwned(ctx, actor, id, policy.OpDelete)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if err = s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.recalculate(ctx, existing.BootcampID)
	return nil
}
