package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/devcamper-api/app/mailer"
	"github.com/FACorreiaa/devcamper-api/internal/types"
	"github.com/FACorreiaa/devcamper-api/internal/validation"
)

// UserStore is the persistence the session flows need.
type UserStore interface {
	PrincipalFinder
	GetByEmail(ctx context.Context, email string) (*types.User, error)
	Create(ctx context.Context, params types.CreateUserParams) (*types.User, error)
	Update(ctx context.Context, id uuid.UUID, params types.UpdateUserParams) (*types.User, error)
	// SetPassword stores a new hash and clears any pending reset token.
	SetPassword(ctx context.Context, id uuid.UUID, hash string) error
	SetResetToken(ctx context.Context, id uuid.UUID, digest *string, expires *time.Time) error
	// GetByResetToken finds the principal holding digest with an expiry after now.
	GetByResetToken(ctx context.Context, digest string, now time.Time) (*types.User, error)
}

var _ AuthService = (*AuthServiceImpl)(nil)

type AuthService interface {
	Register(ctx context.Context, req types.RegisterRequest) (*types.User, string, error)
	Login(ctx context.Context, req types.LoginRequest) (*types.User, string, error)
	UpdateDetails(ctx context.Context, actor *types.User, req types.UpdateDetailsRequest) (*types.User, error)
	UpdatePassword(ctx context.Context, actor *types.User, req types.UpdatePasswordRequest) (*types.User, string, error)
	ForgotPassword(ctx context.Context, req types.ForgotPasswordRequest, resetURL func(token string) string) error
	ResetPassword(ctx context.Context, rawToken string, req types.ResetPasswordRequest) (*types.User, string, error)
}

type AuthServiceImpl struct {
	users    UserStore
	tokens   *TokenManager
	hasher   PasswordHasher
	mail     mailer.Mailer
	resetTTL time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

func NewAuthService(users UserStore, tokens *TokenManager, hasher PasswordHasher, mail mailer.Mailer, resetTTL time.Duration, logger *slog.Logger) *AuthServiceImpl {
	if resetTTL <= 0 {
		resetTTL = 10 * time.Minute
	}
	return &AuthServiceImpl{
		users:    users,
		tokens:   tokens,
		hasher:   hasher,
		mail:     mail,
		resetTTL: resetTTL,
		now:      time.Now,
		logger:   logger,
	}
}

var errInvalidCredentials = types.NewError(types.ErrUnauthenticated, "Invalid credentials")

func (s *AuthServiceImpl) issue(user *types.User) (*types.User, string, error) {
	token, err := s.tokens.Sign(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *AuthServiceImpl) Register(ctx context.Context, req types.RegisterRequest) (*types.User, string, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Register")
	defer span.End()
	l := s.logger.With(slog.String("method", "Register"), slog.String("email", req.Email))

	if err := validation.ValidateStruct(req); err != nil {
		return nil, "", err
	}
	role := req.Role
	if role == "" {
		role = types.RoleUser
	}
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		span.RecordError(err)
		return nil, "", err
	}

	user, err := s.users.Create(ctx, types.CreateUserParams{
		Name:         req.Name,
		Email:        req.Email,
		Role:         role,
		PasswordHash: hash,
	})
	if err != nil {
		l.WarnContext(ctx, "Registration failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		return nil, "", err
	}

	l.InfoContext(ctx, "User registered", slog.String("userID", user.ID.String()), slog.String("role", string(user.Role)))
	span.SetAttributes(attribute.String("user.id", user.ID.String()))
	return s.issue(user)
}

func (s *AuthServiceImpl) Login(ctx context.Context, req types.LoginRequest) (*types.User, string, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Login")
	defer span.End()
	l := s.logger.With(slog.String("method", "Login"))

	if req.Email == "" || req.Password == "" {
		return nil, "", types.NewError(types.ErrBadRequest, "Please provide an email and password")
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			l.WarnContext(ctx, "Login for unknown email")
			return nil, "", errInvalidCredentials
		}
		span.RecordError(err)
		return nil, "", err
	}
	if !s.hasher.Compare(user.PasswordHash, req.Password) {
		l.WarnContext(ctx, "Password mismatch", slog.String("userID", user.ID.String()))
		return nil, "", errInvalidCredentials
	}

	l.InfoContext(ctx, "User logged in", slog.String("userID", user.ID.String()))
	return s.issue(user)
}

func (s *AuthServiceImpl) UpdateDetails(ctx context.Context, actor *types.User, req types.UpdateDetailsRequest) (*types.User, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "UpdateDetails", trace.WithAttributes(
		attribute.String("user.id", actor.ID.String()),
	))
	defer span.End()

	if err := validation.ValidateStruct(req); err != nil {
		return nil, err
	}
	user, err := s.users.Update(ctx, actor.ID, types.UpdateUserParams{Name: req.Name, Email: req.Email})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error updating details: %w", err)
	}
	return user, nil
}

func (s *AuthServiceImpl) UpdatePassword(ctx context.Context, actor *types.User, req types.UpdatePasswordRequest) (*types.User, string, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "UpdatePassword", trace.WithAttributes(
		attribute.String("user.id", actor.ID.String()),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "UpdatePassword"), slog.String("userID", actor.ID.String()))

	if err := validation.ValidateStruct(req); err != nil {
		return nil, "", err
	}
	if !s.hasher.Compare(actor.PasswordHash, req.CurrentPassword) {
		l.WarnContext(ctx, "Current password mismatch")
		return nil, "", types.NewError(types.ErrUnauthenticated, "Password is incorrect")
	}
	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return nil, "", err
	}
	if err = s.users.SetPassword(ctx, actor.ID, hash); err != nil {
		span.RecordError(err)
		return nil, "", fmt.Errorf("error updating password: %w", err)
	}

	l.InfoContext(ctx, "Password updated")
	updated := *actor
	updated.PasswordHash = hash
	return s.issue(&updated)
}

func (s *AuthServiceImpl) ForgotPassword(ctx context.Context, req types.ForgotPasswordRequest, resetURL func(token string) string) error {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "ForgotPassword")
	defer span.End()
	l := s.logger.With(slog.String("method", "ForgotPassword"))

	if err := validation.ValidateStruct(req); err != nil {
		return err
	}
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return types.NewError(types.ErrNotFound, "There is no user with that email")
		}
		return err
	}

	reset, err := NewResetToken(s.now(), s.resetTTL)
	if err != nil {
		return err
	}
	if err = s.users.SetResetToken(ctx, user.ID, &reset.Digest, &reset.Expires); err != nil {
		span.RecordError(err)
		return fmt.Errorf("error storing reset token: %w", err)
	}

	msg := mailer.Message{
		To:      user.Email,
		Subject: "Password reset token",
		Text: "You are receiving this email because you (or someone else) has requested the reset of a password. " +
			"Please make a PUT request to: \n\n" + resetURL(reset.Raw),
	}
	if err = s.mail.Send(ctx, msg); err != nil {
		l.ErrorContext(ctx, "Reset email failed, clearing token", slog.String("userID", user.ID.String()), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "mail failed")
		if clearErr := s.users.SetResetToken(ctx, user.ID, nil, nil); clearErr != nil {
			l.ErrorContext(ctx, "Failed to clear reset token", slog.Any("error", clearErr))
		}
		return &types.Error{Kind: types.ErrUpstream, Message: "Email could not be sent"}
	}

	l.InfoContext(ctx, "Reset email sent", slog.String("userID", user.ID.String()))
	return nil
}

func (s *AuthServiceImpl) ResetPassword(ctx context.Context, rawToken string, req types.ResetPasswordRequest) (*types.User, string, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "ResetPassword")
	defer span.End()
	l := s.logger.With(slog.String("method", "ResetPassword"))

	if err := validation.ValidateStruct(req); err != nil {
		return nil, "", err
	}
	user, err := s.users.GetByResetToken(ctx, HashResetToken(rawToken), s.now())
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			l.WarnContext(ctx, "Unknown or expired reset token")
			return nil, "", types.NewError(types.ErrBadRequest, "Invalid token")
		}
		return nil, "", err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, "", err
	}
	if err = s.users.SetPassword(ctx, user.ID, hash); err != nil {
		span.RecordError(err)
		return nil, "", fmt.Errorf("error resetting password: %w", err)
	}
	user.PasswordHash = hash
	user.ResetPasswordToken = nil
	user.ResetPasswordExpire = nil

	l.InfoContext(ctx, "Password reset", slog.String("userID", user.ID.String()))
	return s.issue(user)
}
