package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/devcamper-api/app/db"
	"github.com/FACorreiaa/devcamper-api/internal/api/auth"
	"github.com/FACorreiaa/devcamper-api/internal/types"
)

var _ UserRepo = (*PostgresUserRepo)(nil)

// UserRepo persists principals. It backs both the session flows and the
// admin endpoints.
type UserRepo interface {
	auth.UserStore
	Delete(ctx context.Context, id uuid.UUID) error
}

const userColumns = `id, name, email, role, password_hash, reset_password_token, reset_password_expire, created_at`

type PostgresUserRepo struct {
	logger *slog.Logger
	db     database.DB
}

func NewPostgresUserRepo(db database.DB, logger *slog.Logger) *PostgresUserRepo {
	return &PostgresUserRepo{
		logger: logger,
		db:     db,
	}
}

func scanUser(row interface{ Scan(dest ...any) error }) (*types.User, error) {
	var u types.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.PasswordHash,
		&u.ResetPasswordToken, &u.ResetPasswordExpire, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func startSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, semconv.DBSystemPostgreSQL, attribute.String("db.sql.table", "users"))
	return otel.Tracer("UserRepo").Start(ctx, op, trace.WithAttributes(attrs...))
}

func (r *PostgresUserRepo) one(ctx context.Context, span trace.Span, notFound, query string, args ...any) (*types.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		mapped := database.MapError(err, notFound)
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, mapped
	}
	return u, nil
}

func (r *PostgresUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*types.User, error) {
	ctx, span := startSpan(ctx, "GetByID", attribute.String("user.id", id.String()))
	defer span.End()

	return r.one(ctx, span, fmt.Sprintf("No user with the id of %s", id),
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *PostgresUserRepo) GetByEmail(ctx context.Context, email string) (*types.User, error) {
	ctx, span := startSpan(ctx, "GetByEmail")
	defer span.End()

	return r.one(ctx, span, "No user with that email",
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
}

func (r *PostgresUserRepo) GetByResetToken(ctx context.Context, digest string, now time.Time) (*types.User, error) {
	ctx, span := startSpan(ctx, "GetByResetToken")
	defer span.End()

	return r.one(ctx, span, "Invalid token",
		`SELECT `+userColumns+` FROM users WHERE reset_password_token = $1 AND reset_password_expire > $2`, digest, now)
}

func (r *PostgresUserRepo) Create(ctx context.Context, params types.CreateUserParams) (*types.User, error) {
	ctx, span := startSpan(ctx, "Create", attribute.String("user.role", string(params.Role)))
	defer span.End()
	l := r.logger.With(slog.String("method", "Create"))

	u, err := r.one(ctx, span, "User could not be created",
		`INSERT INTO users (name, email, role, password_hash) VALUES ($1, $2, $3, $4) RETURNING `+userColumns,
		params.Name, strings.ToLower(params.Email), params.Role, params.PasswordHash)
	if err != nil {
		l.WarnContext(ctx, "Insert failed", slog.Any("error", err))
		return nil, err
	}
	l.InfoContext(ctx, "User created", slog.String("userID", u.ID.String()))
	return u, nil
}

func (r *PostgresUserRepo) Update(ctx context.Context, id uuid.UUID, params types.UpdateUserParams) (*types.User, error) {
	ctx, span := startSpan(ctx, "Update", attribute.String("user.id", id.String()))
	defer span.End()

	var setClauses []string
	var args []any
	argID := 1

	if params.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", argID))
		args = append(args, *params.Name)
		argID++
	}
	if params.Email != nil {
		setClauses = append(setClauses, fmt.Sprintf("email = $%d", argID))
		args = append(args, strings.ToLower(*params.Email))
		argID++
	}
	if params.Role != nil {
		setClauses = append(setClauses, fmt.Sprintf("role = $%d", argID))
		args = append(args, *params.Role)
		argID++
	}

	if len(setClauses) == 0 {
		span.SetStatus(codes.Ok, "No update fields provided")
		return r.GetByID(ctx, id)
	}

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(setClauses, ", "), argID, userColumns)
	args = append(args, id)
	return r.one(ctx, span, fmt.Sprintf("No user with the id of %s", id), query, args...)
}

func (r *PostgresUserRepo) exec(ctx context.Context, span trace.Span, id uuid.UUID, query string, args ...any) error {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "exec failed")
		return database.MapError(err, fmt.Sprintf("No user with the id of %s", id))
	}
	if tag.RowsAffected() == 0 {
		return types.NewError(types.ErrNotFound, "No user with the id of %s", id)
	}
	return nil
}

func (r *PostgresUserRepo) SetPassword(ctx context.Context, id uuid.UUID, hash string) error {
	ctx, span := startSpan(ctx, "SetPassword", attribute.String("user.id", id.String()))
	defer span.End()

	return r.exec(ctx, span, id,
		`UPDATE users SET password_hash = $1, reset_password_token = NULL, reset_password_expire = NULL WHERE id = $2`,
		hash, id)
}

func (r *PostgresUserRepo) SetResetToken(ctx context.Context, id uuid.UUID, digest *string, expires *time.Time) error {
	ctx, span := startSpan(ctx, "SetResetToken", attribute.String("user.id", id.String()))
	defer span.End()

	return r.exec(ctx, span, id,
		`UPDATE users SET reset_password_token = $1, reset_password_expire = $2 WHERE id = $3`,
		digest, expires, id)
}

func (r *PostgresUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := startSpan(ctx, "Delete", attribute.String("user.id", id.String()))
	defer span.End()

	if err := r.exec(ctx, span, id, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return err
	}
	r.logger.InfoContext(ctx, "User deleted", slog.String("userID", id.String()))
	return nil
}
