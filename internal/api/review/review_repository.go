package review

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

var _ ReviewRepo = (*PostgresReviewRepo)(nil)

type ReviewRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*types.Review, error)
	ListByBootcamp(ctx context.Context, bootcampID uuid.UUID) ([]types.Review, error)
	Create(ctx context.Context, bootcampID, userID uuid.UUID, req types.CreateReviewRequest) (*types.Review, error)
	Update(ctx context.Context, id uuid.UUID, req types.UpdateReviewRequest) (*types.Review, error)
	Delete(ctx context.Context, id uuid.UUID) error
	RecalculateAverageRating(ctx context.Context, bootcampID uuid.UUID) error
}

const reviewColumns = `id, title, text, rating, bootcamp_id, user_id, created_at`

type PostgresReviewRepo struct {
	logger *slog.Logger
	db     database.DB
}

func NewPostgresReviewRepo(db database.DB, logger *slog.Logger) *PostgresReviewRepo {
	return &PostgresReviewRepo{
		logger: logger,
		db:     db,
	}
}

func scanReview(row pgx.Row) (*types.Review, error) {
	var rv types.Review
	if err := row.Scan(&rv.ID, &rv.Title, &rv.Text, &rv.Rating, &rv.BootcampID, &rv.UserID, &rv.CreatedAt); err != nil {
		return nil, err
	}
	return &rv, nil
}

func startSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, semconv.DBSystemPostgreSQL, attribute.String("db.sql.table", "reviews"))
	return otel.Tracer("ReviewRepo").Start(ctx, op, trace.WithAttributes(attrs...))
}

func notFound(id uuid.UUID) string {
	return fmt.Sprintf("No review with the id of %s", id)
}

// GetByID returns the review with its bootcamp's name and description inline.
func (r *PostgresReviewRepo) GetByID(ctx context.Context, id uuid.UUID) (*types.Review, error) {
	ctx, span := startSpan(ctx, "GetByID", attribute.String("review.id", id.String()))
	defer span.End()

	var rv types.Review
	var b types.BootcampSummary
	err := r.db.QueryRow(ctx, `
		SELECT r.id, r.title, r.text, r.rating, r.bootcamp_id, r.user_id, r.created_at, b.id, b.name, b.description
		FROM reviews r
		JOIN bootcamps b ON b.id = r.bootcamp_id
		WHERE r.id = $1`, id).
		Scan(&rv.ID, &rv.Title, &rv.Text, &rv.Rating, &rv.BootcampID, &rv.UserID, &rv.CreatedAt, &b.ID, &b.Name, &b.Description)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, database.MapError(err, notFound(id))
	}
	rv.Bootcamp = &b
	return &rv, nil
}

func (r *PostgresReviewRepo) ListByBootcamp(ctx context.Context, bootcampID uuid.UUID) ([]types.Review, error) {
	ctx, span := startSpan(ctx, "ListByBootcamp", attribute.String("bootcamp.id", bootcampID.String()))
	defer span.End()

	rows, err := r.db.Query(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE bootcamp_id = $1 ORDER BY created_at DESC`, bootcampID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("database error listing reviews: %w", err)
	}
	defer rows.Close()

	reviews := []types.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("scanning review: %w", err)
		}
		reviews = append(reviews, *rv)
	}
	if err = rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("iterating reviews: %w", err)
	}
	return reviews, nil
}

// Create inserts the review. A second review by the same user for the same
// bootcamp violates reviews_one_per_user and surfaces as a conflict.
func (r *PostgresReviewRepo) Create(ctx context.Context, bootcampID, userID uuid.UUID, req types.CreateReviewRequest) (*types.Review, error) {
	ctx, span := startSpan(ctx, "Create", attribute.String("bootcamp.id", bootcampID.String()))
	defer span.End()
	l := r.logger.With(slog.String("method", "Create"))

	rv, err := scanReview(r.db.QueryRow(ctx,
		`INSERT INTO reviews (title, text, rating, bootcamp_id, user_id) VALUES ($1, $2, $3, $4, $5) RETURNING `+reviewColumns,
		req.Title, req.Text, req.Rating, bootcampID, userID))
	if err != nil {
		l.WarnContext(ctx, "Insert failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return nil, database.MapError(err, fmt.Sprintf("No bootcamp with the id of %s", bootcampID))
	}
	l.InfoContext(ctx, "Review created", slog.String("reviewID", rv.ID.String()))
	return rv, nil
}

func (r *PostgresReviewRepo) Update(ctx context.Context, id uuid.UUID, req types.UpdateReviewRequest) (*types.Review, error) {
	ctx, span := startSpan(ctx, "Update", attribute.String("review.id", id.String()))
	defer span.End()

	var setClauses []string
	var args []any
	argID := 1

	if req.Title != nil {
		setClauses = append(setClauses, fmt.Sprintf("title = $%d", argID))
		args = append(args, *req.Title)
		argID++
	}
	if req.Text != nil {
		setClauses = append(setClauses, fmt.Sprintf("text = $%d", argID))
		args = append(args, *req.Text)
		argID++
	}
	if req.Rating != nil {
		setClauses = append(setClauses, fmt.Sprintf("rating = $%d", argID))
		args = append(args, *req.Rating)
		argID++
	}

	if len(setClauses) == 0 {
		span.SetStatus(codes.Ok, "No update fields provided")
		return r.GetByID(ctx, id)
	}

	query := fmt.Sprintf(`UPDATE reviews SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(setClauses, ", "), argID, reviewColumns)
	args = append(args, id)
	rv, err := scanReview(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return nil, database.MapError(err, notFound(id))
	}
	return rv, nil
}

func (r *PostgresReviewRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := startSpan(ctx, "Delete", attribute.String("review.id", id.String()))
	defer span.End()

	tag, err := r.db.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		span.RecordError(err)
		return database.MapError(err, notFound(id))
	}
	if tag.RowsAffected() == 0 {
		return types.NewError(types.ErrNotFound, "%s", notFound(id))
	}
	return nil
}

// RecalculateAverageRating stores the mean rating of the bootcamp's reviews.
// No reviews clears it.
func (r *PostgresReviewRepo) RecalculateAverageRating(ctx context.Context, bootcampID uuid.UUID) error {
	ctx, span := startSpan(ctx, "RecalculateAverageRating", attribute.String("bootcamp.id", bootcampID.String()))
	defer span.End()

	_, err := r.db.Exec(ctx, `
		UPDATE bootcamps
		SET average_rating = (SELECT avg(rating)::float8 FROM reviews WHERE bootcamp_id = $1)
		WHERE id = $1`, bootcampID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "recalculation failed")
		return fmt.Errorf("recalculating average rating of %s: %w", bootcampID, err)
	}
	return nil
}
