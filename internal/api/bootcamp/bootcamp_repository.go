package bootcamp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/devcamper-api/app/db"
	"github.com/FACorreiaa/devcamper-api/internal/types"
)

var _ BootcampRepo = (*PostgresBootcampRepo)(nil)

// EarthRadiusMiles converts great-circle angles into miles.
const EarthRadiusMiles = 3963.0

type BootcampRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*types.Bootcamp, error)
	CountByOwner(ctx context.Context, userID uuid.UUID) (int, error)
	Create(ctx context.Context, fields types.BootcampFields) (*types.Bootcamp, error)
	Update(ctx context.Context, id uuid.UUID, changes types.BootcampChanges) (*types.Bootcamp, error)
	UpdatePhoto(ctx context.Context, id uuid.UUID, photo string) error
	Delete(ctx context.Context, id uuid.UUID) error
	WithinRadius(ctx context.Context, lat, lng, miles float64) ([]types.Bootcamp, error)
}

const bootcampColumns = `id, user_id, name, slug, description, website, phone, email, address,
	latitude, longitude, formatted_address, street, city, state, zipcode, country,
	careers, average_rating, average_cost, photo, housing, job_assistance, job_guarantee, accept_gi, created_at`

type PostgresBootcampRepo struct {
	logger *slog.Logger
	db     database.DB
}

func NewPostgresBootcampRepo(db database.DB, logger *slog.Logger) *PostgresBootcampRepo {
	return &PostgresBootcampRepo{
		logger: logger,
		db:     db,
	}
}

func scanBootcamp(row pgx.Row) (*types.Bootcamp, error) {
	var b types.Bootcamp
	err := row.Scan(&b.ID, &b.UserID, &b.Name, &b.Slug, &b.Description, &b.Website, &b.Phone, &b.Email, &b.Address,
		&b.Latitude, &b.Longitude, &b.FormattedAddress, &b.Street, &b.City, &b.State, &b.Zipcode, &b.Country,
		&b.Careers, &b.AverageRating, &b.AverageCost, &b.Photo, &b.Housing, &b.JobAssistance, &b.JobGuarantee,
		&b.AcceptGI, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func startSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, semconv.DBSystemPostgreSQL, attribute.String("db.sql.table", "bootcamps"))
	return otel.Tracer("BootcampRepo").Start(ctx, op, trace.WithAttributes(attrs...))
}

func notFound(id uuid.UUID) string {
	return fmt.Sprintf("No bootcamp with the id of %s", id)
}

func (r *PostgresBootcampRepo) one(ctx context.Context, span trace.Span, missing, query string, args ...any) (*types.Bootcamp, error) {
	b, err := scanBootcamp(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, database.MapError(err, missing)
	}
	return b, nil
}

func (r *PostgresBootcampRepo) GetByID(ctx context.Context, id uuid.UUID) (*types.Bootcamp, error) {
	ctx, span := startSpan(ctx, "GetByID", attribute.String("bootcamp.id", id.String()))
	defer span.End()

	return r.one(ctx, span, notFound(id), `SELECT `+bootcampColumns+` FROM bootcamps WHERE id = $1`, id)
}

func (r *PostgresBootcampRepo) CountByOwner(ctx context.Context, userID uuid.UUID) (int, error) {
	ctx, span := startSpan(ctx, "CountByOwner", attribute.String("user.id", userID.String()))
	defer span.End()

	var n int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM bootcamps WHERE user_id = $1`, userID).Scan(&n); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count failed")
		return 0, fmt.Errorf("counting bootcamps of %s: %w", userID, err)
	}
	return n, nil
}

func (r *PostgresBootcampRepo) Create(ctx context.Context, f types.BootcampFields) (*types.Bootcamp, error) {
	ctx, span := startSpan(ctx, "Create", attribute.String("user.id", f.UserID.String()))
	defer span.End()
	l := r.logger.With(slog.String("method", "Create"))

	loc := f.Location
	b, err := r.one(ctx, span, fmt.Sprintf("No user with the id of %s", f.UserID),
		`INSERT INTO bootcamps (user_id, name, slug, description, website, phone, email, address,
			latitude, longitude, formatted_address, street, city, state, zipcode, country,
			careers, housing, job_assistance, job_guarantee, accept_gi)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		RETURNING `+bootcampColumns,
		f.UserID, f.Name, f.Slug, f.Description, f.Website, f.Phone, f.Email, f.Address,
		loc.Latitude, loc.Longitude, loc.FormattedAddress, loc.Street, loc.City, loc.State, loc.Zipcode, loc.Country,
		f.Careers, f.Housing, f.JobAssistance, f.JobGuarantee, f.AcceptGI)
	if err != nil {
		l.WarnContext(ctx, "Insert failed", slog.Any("error", err))
		return nil, err
	}
	l.InfoContext(ctx, "Bootcamp created", slog.String("bootcampID", b.ID.String()), slog.String("userID", f.UserID.String()))
	return b, nil
}

func (r *PostgresBootcampRepo) Update(ctx context.Context, id uuid.UUID, c types.BootcampChanges) (*types.Bootcamp, error) {
	ctx, span := startSpan(ctx, "Update", attribute.String("bootcamp.id", id.String()))
	defer span.End()

	var setClauses []string
	var args []any
	argID := 1
	set := func(col string, v any) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, argID))
		args = append(args, v)
		argID++
	}

	if c.Name != nil {
		set("name", *c.Name)
	}
	if c.Slug != nil {
		set("slug", *c.Slug)
	}
	if c.Description != nil {
		set("description", *c.Description)
	}
	if c.Website != nil {
		set("website", *c.Website)
	}
	if c.Phone != nil {
		set("phone", *c.Phone)
	}
	if c.Email != nil {
		set("email", *c.Email)
	}
	if c.Address != nil {
		set("address", *c.Address)
	}
	if loc := c.Location; loc != nil {
		set("latitude", loc.Latitude)
		set("longitude", loc.Longitude)
		set("formatted_address", loc.FormattedAddress)
		set("street", loc.Street)
		set("city", loc.City)
		set("state", loc.State)
		set("zipcode", loc.Zipcode)
		set("country", loc.Country)
	}
	if c.Careers != nil {
		set("careers", c.Careers)
	}
	if c.Housing != nil {
		set("housing", *c.Housing)
	}
	if c.JobAssistance != nil {
		set("job_assistance", *c.JobAssistance)
	}
	if c.JobGuarantee != nil {
		set("job_guarantee", *c.JobGuarantee)
	}
	if c.AcceptGI != nil {
		set("accept_gi", *c.AcceptGI)
	}

	if len(setClauses) == 0 {
		span.SetStatus(codes.Ok, "No update fields provided")
		return r.GetByID(ctx, id)
	}

	query := fmt.Sprintf(`UPDATE bootcamps SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(setClauses, ", "), argID, bootcampColumns)
	args = append(args, id)
	return r.one(ctx, span, notFound(id), query, args...)
}

func (r *PostgresBootcampRepo) exec(ctx context.Context, span trace.Span, id uuid.UUID, query string, args ...any) error {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "exec failed")
		return database.MapError(err, notFound(id))
	}
	if tag.RowsAffected() == 0 {
		return types.NewError(types.ErrNotFound, "%s", notFound(id))
	}
	return nil
}

func (r *PostgresBootcampRepo) UpdatePhoto(ctx context.Context, id uuid.UUID, photo string) error {
	ctx, span := startSpan(ctx, "UpdatePhoto", attribute.String("bootcamp.id", id.String()))
	defer span.End()

	return r.exec(ctx, span, id, `UPDATE bootcamps SET photo = $1 WHERE id = $2`, photo, id)
}

// Delete removes the bootcamp. Its courses and reviews go with it through
// the foreign key cascade.
func (r *PostgresBootcampRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := startSpan(ctx, "Delete", attribute.String("bootcamp.id", id.String()))
	defer span.End()

	if err := r.exec(ctx, span, id, `DELETE FROM bootcamps WHERE id = $1`, id); err != nil {
		return err
	}
	r.logger.InfoContext(ctx, "Bootcamp deleted", slog.String("bootcampID", id.String()))
	return nil
}

// WithinRadius returns the bootcamps whose haversine distance from the given
// point is at most miles.
func (r *PostgresBootcampRepo) WithinRadius(ctx context.Context, lat, lng, miles float64) ([]types.Bootcamp, error) {
	ctx, span := startSpan(ctx, "WithinRadius",
		attribute.Float64("geo.lat", lat), attribute.Float64("geo.lng", lng), attribute.Float64("geo.miles", miles))
	defer span.End()

	query := `SELECT ` + bootcampColumns + ` FROM bootcamps
		WHERE 2 * $3 * asin(LEAST(1, sqrt(
			power(sin(radians(latitude - $1) / 2), 2) +
			cos(radians($1)) * cos(radians(latitude)) * power(sin(radians(longitude - $2) / 2), 2)
		))) <= $4
		ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, lat, lng, EarthRadiusMiles, miles)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("database error in radius search: %w", err)
	}
	defer rows.Close()

	bootcamps := []types.Bootcamp{}
	for rows.Next() {
		b, err := scanBootcamp(rows)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("scanning bootcamp: %w", err)
		}
		bootcamps = append(bootcamps, *b)
	}
	if err = rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("iterating bootcamps: %w", err)
	}
	span.SetAttributes(attribute.Int("result.count", len(bootcamps)))
	return bootcamps, nil
}
