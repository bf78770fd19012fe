package course

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

var _ CourseRepo = (*PostgresCourseRepo)(nil)

type CourseRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*types.Course, error)
	ListByBootcamp(ctx context.Context, bootcampID uuid.UUID) ([]types.Course, error)
	Create(ctx context.Context, bootcampID, userID uuid.UUID, req types.CreateCourseRequest) (*types.Course, error)
	Update(ctx context.Context, id uuid.UUID, req types.UpdateCourseRequest) (*types.Course, error)
	Delete(ctx context.Context, id uuid.UUID) error
	RecalculateAverageCost(ctx context.Context, bootcampID uuid.UUID) error
}

const courseColumns = `id, title, description, weeks, tuition, minimum_skill, scholarship_available, bootcamp_id, user_id, created_at`

type PostgresCourseRepo struct {
	logger *slog.Logger
	db     database.DB
}

func NewPostgresCourseRepo(db database.DB, logger *slog.Logger) *PostgresCourseRepo {
	return &PostgresCourseRepo{
		logger: logger,
		db:     db,
	}
}

func scanCourse(row pgx.Row) (*types.Course, error) {
	var c types.Course
	if err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Weeks, &c.Tuition, &c.MinimumSkill,
		&c.ScholarshipAvailable, &c.BootcampID, &c.UserID, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func startSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, semconv.DBSystemPostgreSQL, attribute.String("db.sql.table", "courses"))
	return otel.Tracer("CourseRepo").Start(ctx, op, trace.WithAttributes(attrs...))
}

func notFound(id uuid.UUID) string {
	return fmt.Sprintf("No course with the id of %s", id)
}

func (r *PostgresCourseRepo) one(ctx context.Context, span trace.Span, missing, query string, args ...any) (*types.Course, error) {
	c, err := scanCourse(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, database.MapError(err, missing)
	}
	return c, nil
}

// GetByID returns the course with its bootcamp's name and description inline.
func (r *PostgresCourseRepo) GetByID(ctx context.Context, id uuid.UUID) (*types.Course, error) {
	ctx, span := startSpan(ctx, "GetByID", attribute.String("course.id", id.String()))
	defer span.End()

	var c types.Course
	var b types.BootcampSummary
	err := r.db.QueryRow(ctx, `
		SELECT c.id, c.title, c.description, c.weeks, c.tuition, c.minimum_skill, c.scholarship_available,
			c.bootcamp_id, c.user_id, c.created_at, b.id, b.name, b.description
		FROM courses c
		JOIN bootcamps b ON b.id = c.bootcamp_id
		WHERE c.id = $1`, id).
		Scan(&c.ID, &c.Title, &c.Description, &c.Weeks, &c.Tuition, &c.MinimumSkill, &c.ScholarshipAvailable,
			&c.BootcampID, &c.UserID, &c.CreatedAt, &b.ID, &b.Name, &b.Description)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, database.MapError(err, notFound(id))
	}
	c.Bootcamp = &b
	return &c, nil
}

func (r *PostgresCourseRepo) ListByBootcamp(ctx context.Context, bootcampID uuid.UUID) ([]types.Course, error) {
	ctx, span := startSpan(ctx, "ListByBootcamp", attribute.String("bootcamp.id", bootcampID.String()))
	defer span.End()

	rows, err := r.db.Query(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE bootcamp_id = $1 ORDER BY created_at DESC`, bootcampID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("database error listing courses: %w", err)
	}
	defer rows.Close()

	courses := []types.Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("scanning course: %w", err)
		}
		courses = append(courses, *c)
	}
	if err = rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("iterating courses: %w", err)
	}
	return courses, nil
}

func (r *PostgresCourseRepo) Create(ctx context.Context, bootcampID, userID uuid.UUID, req types.CreateCourseRequest) (*types.Course, error) {
	ctx, span := startSpan(ctx, "Create", attribute.String("bootcamp.id", bootcampID.String()))
	defer span.End()
	l := r.logger.With(slog.String("method", "Create"))

	c, err := r.one(ctx, span, fmt.Sprintf("No bootcamp with the id of %s", bootcampID),
		`INSERT INTO courses (title, description, weeks, tuition, minimum_skill, scholarship_available, bootcamp_id, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING `+courseColumns,
		req.Title, req.Description, req.Weeks, req.Tuition, req.MinimumSkill, req.ScholarshipAvailable, bootcampID, userID)
	if err != nil {
		l.WarnContext(ctx, "Insert failed", slog.Any("error", err))
		return nil, err
	}
	l.InfoContext(ctx, "Course created", slog.String("courseID", c.ID.String()), slog.String("bootcampID", bootcampID.String()))
	return c, nil
}

func (r *PostgresCourseRepo) Update(ctx context.Context, id uuid.UUID, req types.UpdateCourseRequest) (*types.Course, error) {
	ctx, span := startSpan(ctx, "Update", attribute.String("course.id", id.String()))
	defer span.End()

	var setClauses []string
	var args []any
	argID := 1

	if req.Title != nil {
		setClauses = append(setClauses, fmt.Sprintf("title = $%d", argID))
		args = append(args, *req.Title)
		argID++
	}
	if req.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", argID))
		args = append(args, *req.Description)
		argID++
	}
	if req.Weeks != nil {
		setClauses = append(setClauses, fmt.Sprintf("weeks = $%d", argID))
		args = append(args, *req.Weeks)
		argID++
	}
	if req.Tuition != nil {
		setClauses = append(setClauses, fmt.Sprintf("tuition = $%d", argID))
		args = append(args, *req.Tuition)
		argID++
	}
	if req.MinimumSkill != nil {
		setClauses = append(setClauses, fmt.Sprintf("minimum_skill = $%d", argID))
		args = append(args, *req.MinimumSkill)
		argID++
	}
	if req.ScholarshipAvailable != nil {
		setClauses = append(setClauses, fmt.Sprintf("scholarship_available = $%d", argID))
		args = append(args, *req.ScholarshipAvailable)
		argID++
	}

	if len(setClauses) == 0 {
		span.SetStatus(codes.Ok, "No update fields provided")
		return r.GetByID(ctx, id)
	}

	query := fmt.Sprintf(`UPDATE courses SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(setClauses, ", "), argID, courseColumns)
	args = append(args, id)
	return r.one(ctx, span, notFound(id), query, args...)
}

func (r *PostgresCourseRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := startSpan(ctx, "Delete", attribute.String("course.id", id.String()))
	defer span.End()

	tag, err := r.db.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return database.MapError(err, notFound(id))
	}
	if tag.RowsAffected() == 0 {
		return types.NewError(types.ErrNotFound, "%s", notFound(id))
	}
	r.logger.InfoContext(ctx, "Course deleted", slog.String("courseID", id.String()))
	return nil
}

// RecalculateAverageCost stores the mean tuition of the bootcamp's courses,
// rounded up to the next multiple of ten. No courses clears it.
func (r *PostgresCourseRepo) RecalculateAverageCost(ctx context.Context, bootcampID uuid.UUID) error {
	ctx, span := startSpan(ctx, "RecalculateAverageCost", attribute.String("bootcamp.id", bootcampID.String()))
	defer span.End()

	_, err := r.db.Exec(ctx, `
		UPDATE bootcamps
		SET average_cost = (SELECT (ceil(avg(tuition) / 10) * 10)::int FROM courses WHERE bootcamp_id = $1)
		WHERE id = $1`, bootcampID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "recalculation failed")
		return fmt.Errorf("recalculating average cost of %s: %w", bootcampID, err)
	}
	return nil
}
