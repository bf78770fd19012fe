package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/devcamper-api/internal/api/auth"
	"github.com/FACorreiaa/devcamper-api/internal/types"
	"github.com/FACorreiaa/devcamper-api/internal/validation"
)

var _ UserService = (*UserServiceImpl)(nil)

// UserService is the admin surface over principals.
type UserService interface {
	Get(ctx context.Context, id uuid.UUID) (*types.User, error)
	Create(ctx context.Context, req types.CreateUserRequest) (*types.User, error)
	Update(ctx context.Context, id uuid.UUID, req types.UpdateUserRequest) (*types.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type UserServiceImpl struct {
	logger *slog.Logger
	repo   UserRepo
	hasher auth.PasswordHasher
}

func NewUserService(repo UserRepo, hasher auth.PasswordHasher, logger *slog.Logger) *UserServiceImpl {
	return &UserServiceImpl{
		logger: logger,
		repo:   repo,
		hasher: hasher,
	}
}

func (s *UserServiceImpl) Get(ctx context.Context, id uuid.UUID) (*types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserServiceImpl) Create(ctx context.Context, req types.CreateUserRequest) (*types.User, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "Create")
	defer span.End()
	l := s.logger.With(slog.String("method", "Create"))

	if err := validation.ValidateStruct(req); err != nil {
		return nil, err
	}
	role := req.Role
	if role == "" {
		role = types.RoleUser
	}
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	u, err := s.repo.Create(ctx, types.CreateUserParams{Name: req.Name, Email: req.Email, Role: role, PasswordHash: hash})
	if err != nil {
		l.WarnContext(ctx, "Failed to create user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		return nil, err
	}
	l.InfoContext(ctx, "User created by admin", slog.String("userID", u.ID.String()))
	return u, nil
}

func (s *UserServiceImpl) Update(ctx context.Context, id uuid.UUID, req types.UpdateUserRequest) (*types.User, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "Update", trace.WithAttributes(
		attribute.String("user.id", id.String()),
	))
	defer span.End()

	if err := validation.ValidateStruct(req); err != nil {
		return nil, err
	}
	u, err := s.repo.Update(ctx, id, types.UpdateUserParams{Name: req.Name, Email: req.Email, Role: req.Role})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error updating user: %w", err)
	}
	return u, nil
}

func (s *UserServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
