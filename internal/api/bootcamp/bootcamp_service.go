package bootcamp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/devcamper-api/app/geocoder"
	"github.com/FACorreiaa/devcamper-api/app/storage"
	"github.com/FACorreiaa/devcamper-api/internal/api/auth"
	"github.com/FACorreiaa/devcamper-api/internal/api/policy"
	"github.com/FACorreiaa/devcamper-api/internal/types"
	"github.com/FACorreiaa/devcamper-api/internal/validation"
)

var _ BootcampService = (*BootcampServiceImpl)(nil)

// Photo is an uploaded image as received from the client.
type Photo struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type BootcampService interface {
	Get(ctx context.Context, id uuid.UUID) (*types.Bootcamp, error)
	Create(ctx context.Context, actor *types.User, req types.CreateBootcampRequest) (*types.Bootcamp, error)
	Update(ctx context.Context, actor *types.User, id uuid.UUID, req types.UpdateBootcampRequest) (*types.Bootcamp, error)
	Delete(ctx context.Context, actor *types.User, id uuid.UUID) error
	WithinRadius(ctx context.Context, zipcode string, miles float64) ([]types.Bootcamp, error)
	UploadPhoto(ctx context.Context, actor *types.User, id uuid.UUID, photo Photo) (string, error)
}

type BootcampServiceImpl struct {
	logger   *slog.Logger
	repo     BootcampRepo
	users    auth.PrincipalFinder
	geocoder geocoder.Geocoder
	store    storage.Store
	maxBytes int64
}

func NewBootcampService(repo BootcampRepo, users auth.PrincipalFinder, geo geocoder.Geocoder,
	store storage.Store, maxUploadBytes int64, logger *slog.Logger) *BootcampServiceImpl {
	return &BootcampServiceImpl{
		logger:   logger,
		repo:     repo,
		users:    users,
		geocoder: geo,
		store:    store,
		maxBytes: maxUploadBytes,
	}
}

func (s *BootcampServiceImpl) Get(ctx context.Context, id uuid.UUID) (*types.Bootcamp, error) {
	return s.repo.GetByID(ctx, id)
}

// owner resolves who the new bootcamp belongs to. Only admins may name
// somebody else, and that principal must exist.
func (s *BootcampServiceImpl) owner(ctx context.Context, actor *types.User, requested *uuid.UUID) (*types.User, error) {
	if requested == nil || !actor.IsAdmin() || *requested == actor.ID {
		return actor, nil
	}
	u, err := s.users.GetByID(ctx, *requested)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *BootcampServiceImpl) geocode(ctx context.Context, address string) (types.Location, error) {
	loc, err := s.geocoder.Geocode(ctx, address)
	if errors.Is(err, geocoder.ErrNoMatch) {
		return types.Location{}, types.NewValidationError("Please add a valid address")
	}
	return loc, err
}

func (s *BootcampServiceImpl) Create(ctx context.Context, actor *types.User, req types.CreateBootcampRequest) (*types.Bootcamp, error) {
	ctx, span := otel.Tracer("BootcampService").Start(ctx, "Create", trace.WithAttributes(
		attribute.String("actor.id", actor.ID.String()),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "Create"), slog.String("actorID", actor.ID.String()))

	if err := validation.ValidateStruct(req); err != nil {
		return nil, err
	}

	owner, err := s.owner(ctx, actor, req.UserID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	// Check-then-act: concurrent creates by the same owner can both pass.
	owned, err := s.repo.CountByOwner(ctx, owner.ID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err = policy.EnforceSingleOwnership(owner, "bootcamp", owned); err != nil {
		l.WarnContext(ctx, "Owner already publishes a bootcamp", slog.String("ownerID", owner.ID.String()))
		span.SetStatus(codes.Error, "one bootcamp per owner")
		return nil, err
	}

	loc, err := s.geocode(ctx, req.Address)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	b, err := s.repo.Create(ctx, types.BootcampFields{
		UserID:        owner.ID,
		Name:          req.Name,
		Slug:          Slugify(req.Name),
		Description:   req.Description,
		Website:       req.Website,
		Phone:         req.Phone,
		Email:         req.Email,
		Address:       req.Address,
		Location:      loc,
		Careers:       req.Careers,
		Housing:       req.Housing,
		JobAssistance: req.JobAssistance,
		JobGuarantee:  req.JobGuarantee,
		AcceptGI:      req.AcceptGI,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		return nil, err
	}
	span.SetStatus(codes.Ok, "created")
	return b, nil
}

// loadOwned fetches the bootcamp and runs the ownership check for op.
func (s *BootcampServiceImpl) loadOwned(ctx context.Context, actor *types.User, id uuid.UUID, op policy.Operation) (*types.Bootcamp, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err = policy.Authorize(actor, b, op); err != nil {
		s.logger.WarnContext(ctx, "Ownership check failed",
			slog.String("bootcampID", id.String()), slog.String("actorID", actor.ID.String()), slog.String("op", string(op)))
		return nil, err
	}
	return b, nil
}

func (s *BootcampServiceImpl) Update(ctx context.Context, actor *types.User, id uuid.UUID, req types.UpdateBootcampRequest) (*types.Bootcamp, error) {
	ctx, span := otel.Tracer("BootcampService").Start(ctx, "Update", trace.WithAttributes(
		attribute.String("bootcamp.id", id.String()),
	))
	defer span.End()

	if _, err := s.loadOwned(ctx, actor, id, policy.OpUpdate); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := validation.ValidateStruct(req); err != nil {
		return nil, err
	}

	changes := types.BootcampChanges{
		Name:          req.Name,
		Description:   req.Description,
		Website:       req.Website,
		Phone:         req.Phone,
		Email:         req.Email,
		Address:       req.Address,
		Careers:       req.Careers,
		Housing:       req.Housing,
		JobAssistance: req.JobAssistance,
		JobGuarantee:  req.JobGuarantee,
		AcceptGI:      req.AcceptGI,
	}
	if req.Name != nil {
		slug := Slugify(*req.Name)
		changes.Slug = &slug
	}
	if req.Address != nil {
		loc, err := s.geocode(ctx, *req.Address)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		changes.Location = &loc
	}

	b, err := s.repo.Update(ctx, id, changes)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error updating bootcamp: %w", err)
	}
	return b, nil
}

func (s *BootcampServiceImpl) Delete(ctx context.Context, actor *types.User, id uuid.UUID) error {
	ctx, span := otel.Tracer("BootcampService").Start(ctx, "Delete", trace.WithAttributes(
		attribute.String("bootcamp.id", id.String()),
	))
	defer span.End()

	if _, err := s.loadOwned(ctx, actor, id, policy.OpDelete); err != nil {
		span.RecordError(err)
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *BootcampServiceImpl) WithinRadius(ctx context.Context, zipcode string, miles float64) ([]types.Bootcamp, error) {
	ctx, span := otel.Tracer("BootcampService").Start(ctx, "WithinRadius", trace.WithAttributes(
		attribute.String("geo.zipcode", zipcode),
		attribute.Float64("geo.miles", miles),
	))
	defer span.End()

	loc, err := s.geocoder.Geocode(ctx, zipcode)
	if errors.Is(err, geocoder.ErrNoMatch) {
		return nil, types.NewError(types.ErrNotFound, "Could not locate zipcode %s", zipcode)
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return s.repo.WithinRadius(ctx, loc.Latitude, loc.Longitude, miles)
}

// UploadPhoto stores the image as photo_<id><ext> and records it on the bootcamp.
func (s *BootcampServiceImpl) UploadPhoto(ctx context.Context, actor *types.User, id uuid.UUID, photo Photo) (string, error) {
	ctx, span := otel.Tracer("BootcampService").Start(ctx, "UploadPhoto", trace.WithAttributes(
		attribute.String("bootcamp.id", id.String()),
		attribute.Int64("upload.size", photo.Size),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "UploadPhoto"), slog.String("bootcampID", id.String()))

	if _, err := s.loadOwned(ctx, actor, id, policy.OpUpdate); err != nil {
		span.RecordError(err)
		return "", err
	}
	if !strings.HasPrefix(photo.ContentType, "image/") {
		return "", types.NewError(types.ErrBadRequest, "Please upload an image file")
	}
	if photo.Size > s.maxBytes {
		return "", types.NewError(types.ErrBadRequest, "Please upload an image less than %d bytes", s.maxBytes)
	}

	name := fmt.Sprintf("photo_%s%s", id, filepath.Ext(photo.Filename))
	if err := s.store.Save(ctx, name, photo.ContentType, photo.Body); err != nil {
		l.ErrorContext(ctx, "Failed to store photo", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage failed")
		return "", fmt.Errorf("%w: storing %s: %v", types.ErrUpstream, name, err)
	}
	if err := s.repo.UpdatePhoto(ctx, id, name); err != nil {
		span.RecordError(err)
		return "", err
	}
	l.InfoContext(ctx, "Photo uploaded", slog.String("file", name))
	return name, nil
}
