package query

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/devcamper-api/internal/types"
)

func setupBuilderTest(t *testing.T) (*Builder, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherEqual))
	require.NoError(t, err)
	// find and count run concurrently
	mock.MatchExpectationsInOrder(false)
	t.Cleanup(mock.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewBuilder(mock, logger), mock
}

func TestBuilder_List_PaginatesAndLinksNeighbours(t *testing.T) {
	b, mock := setupBuilderTest(t)
	ctx := context.Background()
	now := time.Now()
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	mock.ExpectQuery(`SELECT "id", "name", "age", "created_at" FROM "people" WHERE "age" >= $1 AND "age" < $2 ORDER BY "name" DESC, "id" ASC LIMIT $3 OFFSET $4`).
		WithArgs(int64(5), int64(10), 3, 3).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "age", "created_at"}).
			AddRow(ids[0], "Zed", int64(9), now).
			AddRow(ids[1], "Yan", int64(7), now).
			AddRow(ids[2], "Xia", int64(5), now))
	mock.ExpectQuery(`SELECT count(*) FROM "people" WHERE "age" >= $1 AND "age" < $2`).
		WithArgs(int64(5), int64(10)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(8))

	env, err := b.List(ctx, people, mustQuery(t, "age[gte]=5&age[lt]=10&sort=-name&page=2&limit=3"))
	require.NoError(t, err)

	assert.True(t, env.Success)
	assert.Equal(t, 3, env.Count)
	require.Len(t, env.Data, 3)
	assert.Equal(t, "Zed", env.Data[0]["name"])
	require.NotNil(t, env.Pagination)
	assert.Equal(t, &types.PageRef{Page: 1, Limit: 3}, env.Pagination.Previous)
	assert.Equal(t, &types.PageRef{Page: 3, Limit: 3}, env.Pagination.Next)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuilder_List_EmptyCollection(t *testing.T) {
	b, mock := setupBuilderTest(t)

	mock.ExpectQuery(`SELECT "id", "name", "age", "created_at" FROM "people" ORDER BY "created_at" DESC, "id" ASC LIMIT $1 OFFSET $2`).
		WithArgs(25, 0).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "age", "created_at"}))
	mock.ExpectQuery(`SELECT count(*) FROM "people"`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))

	env, err := b.List(context.Background(), people, mustQuery(t, ""))
	require.NoError(t, err)

	assert.Equal(t, 0, env.Count)
	assert.NotNil(t, env.Data)
	assert.Empty(t, env.Data)
	assert.Nil(t, env.Pagination)

	raw, err := json.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"count":0,"data":[]}`, string(raw))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuilder_List_LastPageHasNoNext(t *testing.T) {
	b, mock := setupBuilderTest(t)

	mock.ExpectQuery(`SELECT "id", "name" FROM "people" ORDER BY "created_at" DESC, "id" ASC LIMIT $1 OFFSET $2`).
		WithArgs(2, 2).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name"}).AddRow(uuid.New(), "Ana"))
	mock.ExpectQuery(`SELECT count(*) FROM "people"`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	env, err := b.List(context.Background(), people, mustQuery(t, "select=name&page=2&limit=2"))
	require.NoError(t, err)
	require.NotNil(t, env.Pagination)
	assert.Nil(t, env.Pagination.Next)
	assert.Equal(t, &types.PageRef{Page: 1, Limit: 2}, env.Pagination.Previous)
}

func TestBuilder_List_PopulatesHasMany(t *testing.T) {
	b, mock := setupBuilderTest(t)
	now := time.Now()
	owner := uuid.New()
	withCourse, withoutCourse := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT "id", "name" FROM "bootcamps" ORDER BY "created_at" DESC, "id" ASC LIMIT $1 OFFSET $2`).
		WithArgs(25, 0).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name"}).
			AddRow(withCourse, "Devworks Bootcamp").
			AddRow(withoutCourse, "ModernTech Bootcamp"))
	mock.ExpectQuery(`SELECT count(*) FROM "bootcamps"`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`SELECT "id", "title", "description", "weeks", "tuition", "minimum_skill", "scholarship_available", "bootcamp_id", "user_id", "created_at" FROM "courses" WHERE "bootcamp_id" = ANY($1) ORDER BY "created_at" DESC`).
		WithArgs([]uuid.UUID{withCourse, withoutCourse}).
		WillReturnRows(pgxmock.NewRows([]string{"id", "title", "description", "weeks", "tuition", "minimum_skill", "scholarship_available", "bootcamp_id", "user_id", "created_at"}).
			AddRow(uuid.New(), "Front End Web Development", "HTML, CSS and JavaScript", int64(8), int64(8000), "beginner", true, withCourse, owner, now))

	env, err := b.List(context.Background(), Bootcamps, mustQuery(t, "select=name"), Populate{Relation: "courses"})
	require.NoError(t, err)
	require.Len(t, env.Data, 2)

	courses, ok := env.Data[0]["courses"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, courses, 1)
	assert.Equal(t, "Front End Web Development", courses[0]["title"])

	empty, ok := env.Data[1]["courses"].([]map[string]any)
	require.True(t, ok)
	assert.Empty(t, empty)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuilder_List_PopulatesBelongsTo(t *testing.T) {
	b, mock := setupBuilderTest(t)
	bootcampID := uuid.New()

	mock.ExpectQuery(`SELECT "id", "title", "bootcamp_id" FROM "courses" ORDER BY "created_at" DESC, "id" ASC LIMIT $1 OFFSET $2`).
		WithArgs(25, 0).
		WillReturnRows(pgxmock.NewRows([]string{"id", "title", "bootcamp_id"}).
			AddRow(uuid.New(), "UI/UX", bootcampID).
			AddRow(uuid.New(), "Full Stack", bootcampID))
	mock.ExpectQuery(`SELECT count(*) FROM "courses"`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`SELECT "id", "name", "description" FROM "bootcamps" WHERE "id" = ANY($1) ORDER BY "created_at" DESC`).
		WithArgs([]uuid.UUID{bootcampID}).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "description"}).
			AddRow(bootcampID, "Devworks Bootcamp", "Full stack web development"))

	env, err := b.List(context.Background(), Courses, mustQuery(t, "select=title"),
		Populate{Relation: "bootcamp", Fields: []string{"name", "description"}})
	require.NoError(t, err)

	for _, row := range env.Data {
		bootcamp, ok := row["bootcamp"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "Devworks Bootcamp", bootcamp["name"])
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuilder_List_DatabaseError(t *testing.T) {
	b, mock := setupBuilderTest(t)
	dbErr := errors.New("connection refused")

	mock.ExpectQuery(`SELECT "id", "name", "age", "created_at" FROM "people" ORDER BY "created_at" DESC, "id" ASC LIMIT $1 OFFSET $2`).
		WithArgs(25, 0).
		WillReturnError(dbErr)
	mock.ExpectQuery(`SELECT count(*) FROM "people"`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))

	_, err := b.List(context.Background(), people, mustQuery(t, ""))
	require.Error(t, err)
	assert.True(t, errors.Is(err, dbErr))
}

func TestMiddleware(t *testing.T) {
	t.Run("stores the envelope for the handler", func(t *testing.T) {
		b, mock := setupBuilderTest(t)
		mock.ExpectQuery(`SELECT "id", "name" FROM "users" ORDER BY "created_at" DESC, "id" ASC LIMIT $1 OFFSET $2`).
			WithArgs(25, 0).
			WillReturnRows(pgxmock.NewRows([]string{"id", "name"}).AddRow(uuid.New(), "Admin Account"))
		mock.ExpectQuery(`SELECT count(*) FROM "users"`).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))

		h := b.Middleware(Users)(http.HandlerFunc(WriteResults))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users?select=name", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var body types.ListEnvelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, 1, body.Count)
		assert.Equal(t, "Admin Account", body.Data[0]["name"])
	})

	t.Run("invalid parameters never reach the handler", func(t *testing.T) {
		b, _ := setupBuilderTest(t)
		reached := false
		h := b.Middleware(Users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reached = true
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users?limit=zero", nil))

		assert.False(t, reached)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "limit must be a positive integer")
	})
}
