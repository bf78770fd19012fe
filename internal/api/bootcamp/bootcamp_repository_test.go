package bootcamp

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/devcamper-api/internal/types"
)

var bootcampColumnNames = []string{
	"id", "user_id", "name", "slug", "description", "website", "phone", "email", "address",
	"latitude", "longitude", "formatted_address", "street", "city", "state", "zipcode", "country",
	"careers", "average_rating", "average_cost", "photo", "housing", "job_assistance", "job_guarantee", "accept_gi", "created_at",
}

func setupRepo(t *testing.T) (*PostgresBootcampRepo, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresBootcampRepo(mock, discardLogger()), mock
}

func bootcampRows(id, owner uuid.UUID, name string) *pgxmock.Rows {
	return pgxmock.NewRows(bootcampColumnNames).AddRow(
		id, owner, name, Slugify(name), "Full stack web development", "https://devworks.com", "(111) 111-1111",
		"enroll@devworks.com", "233 Bay State Rd Boston MA 02215",
		boston.Latitude, boston.Longitude, boston.FormattedAddress, boston.Street, boston.City, boston.State,
		boston.Zipcode, boston.Country,
		[]string{"Web Development", "UI/UX"}, (*float64)(nil), (*int)(nil), types.DefaultPhoto,
		true, true, false, true, time.Now())
}

func TestPostgresBootcampRepo_GetByID(t *testing.T) {
	repo, mock := setupRepo(t)
	ctx := context.Background()
	id, owner := uuid.New(), uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM bootcamps WHERE id = $1`)).
		WithArgs(id).
		WillReturnRows(bootcampRows(id, owner, "Devworks Bootcamp"))

	b, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, owner, b.OwnerID())
	assert.Equal(t, "devworks-bootcamp", b.Slug)
	assert.Equal(t, "Boston", b.City)
	assert.Nil(t, b.AverageCost)

	missing := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM bootcamps WHERE id = $1`)).
		WithArgs(missing).
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.GetByID(ctx, missing)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrNotFound))
	assert.Equal(t, "No bootcamp with the id of "+missing.String(), err.Error())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBootcampRepo_CountByOwner(t *testing.T) {
	repo, mock := setupRepo(t)
	owner := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM bootcamps WHERE user_id = $1`)).
		WithArgs(owner).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))

	n, err := repo.CountByOwner(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPostgresBootcampRepo_CreateDuplicateName(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO bootcamps`)).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

	_, err := repo.Create(context.Background(), types.BootcampFields{
		UserID:  uuid.New(),
		Name:    "Devworks Bootcamp",
		Slug:    "devworks-bootcamp",
		Careers: []string{"Business"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrConflict))
}

func TestPostgresBootcampRepo_UpdateBuildsSetClause(t *testing.T) {
	repo, mock := setupRepo(t)
	id := uuid.New()
	name, slug := "Devcentral Bootcamp", "devcentral-bootcamp"
	housing := false

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE bootcamps SET name = $1, slug = $2, housing = $3 WHERE id = $4 RETURNING`)).
		WithArgs(name, slug, housing, id).
		WillReturnRows(bootcampRows(id, uuid.New(), name))

	b, err := repo.Update(context.Background(), id, types.BootcampChanges{Name: &name, Slug: &slug, Housing: &housing})
	require.NoError(t, err)
	assert.Equal(t, slug, b.Slug)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBootcampRepo_UpdateWithoutChangesReads(t *testing.T) {
	repo, mock := setupRepo(t)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM bootcamps WHERE id = $1`)).
		WithArgs(id).
		WillReturnRows(bootcampRows(id, uuid.New(), "Devworks Bootcamp"))

	_, err := repo.Update(context.Background(), id, types.BootcampChanges{})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBootcampRepo_Delete(t *testing.T) {
	repo, mock := setupRepo(t)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM bootcamps WHERE id = $1`)).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, repo.Delete(context.Background(), id))

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM bootcamps WHERE id = $1`)).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	err := repo.Delete(context.Background(), id)
	assert.True(t, errors.Is(err, types.ErrNotFound))
}

func TestPostgresBootcampRepo_WithinRadius(t *testing.T) {
	repo, mock := setupRepo(t)
	id := uuid.New()

	mock.ExpectQuery(`asin\(LEAST\(1, sqrt`).
		WithArgs(boston.Latitude, boston.Longitude, EarthRadiusMiles, 10.0).
		WillReturnRows(bootcampRows(id, uuid.New(), "Devworks Bootcamp"))

	got, err := repo.WithinRadius(context.Background(), boston.Latitude, boston.Longitude, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)

	mock.ExpectQuery(`asin\(LEAST\(1, sqrt`).
		WithArgs(boston.Latitude, boston.Longitude, EarthRadiusMiles, 1.0).
		WillReturnRows(pgxmock.NewRows(bootcampColumnNames))

	got, err = repo.WithinRadius(context.Background(), boston.Latitude, boston.Longitude, 1)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
