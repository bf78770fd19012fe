package bootcamp

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/devcamper-api/internal/api"
	"github.com/FACorreiaa/devcamper-api/internal/api/auth"
	"github.com/FACorreiaa/devcamper-api/internal/api/query"
	"github.com/FACorreiaa/devcamper-api/internal/types"
)

type MockBootcampService struct {
	mock.Mock
}

var _ BootcampService = (*MockBootcampService)(nil)

func (m *MockBootcampService) Get(ctx context.Context, id uuid.UUID) (*types.Bootcamp, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Bootcamp), args.Error(1)
}

func (m *MockBootcampService) Create(ctx context.Context, actor *types.User, req types.CreateBootcampRequest) (*types.Bootcamp, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Bootcamp), args.Error(1)
}

func (m *MockBootcampService) Update(ctx context.Context, actor *types.User, id uuid.UUID, req types.UpdateBootcampRequest) (*types.Bootcamp, error) {
	args := m.Called(ctx, actor, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Bootcamp), args.Error(1)
}

func (m *MockBootcampService) Delete(ctx context.Context, actor *types.User, id uuid.UUID) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

func (m *MockBootcampService) WithinRadius(ctx context.Context, zipcode string, miles float64) ([]types.Bootcamp, error) {
	args := m.Called(ctx, zipcode, miles)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Bootcamp), args.Error(1)
}

func (m *MockBootcampService) UploadPhoto(ctx context.Context, actor *types.User, id uuid.UUID, photo Photo) (string, error) {
	args := m.Called(ctx, actor, id, photo)
	return args.String(0), args.Error(1)
}

// roleGuard stands in for the token guard: the X-Role header selects the
// principal and its absence is an unauthenticated request.
func roleGuard(actor *types.User) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := r.Header.Get("X-Role")
			if role == "" {
				api.HandleError(w, r, types.ErrUnauthenticated)
				return
			}
			u := *actor
			u.Role = types.Role(role)
			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), &u)))
		})
	}
}

const testUploadLimit = 1000

func setupHandler(t *testing.T, actor *types.User) (http.Handler, *MockBootcampService) {
	t.Helper()
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	logger := discardLogger()
	svc := new(MockBootcampService)
	t.Cleanup(func() { svc.AssertExpectations(t) })

	nested := func(kind string) http.Handler {
		r := chi.NewRouter()
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, r, http.StatusOK, kind+":"+chi.URLParam(r, "bootcampId"))
		})
		return r
	}
	h := NewHandlerImpl(svc, testUploadLimit, logger)
	return h.Routes(query.NewBuilder(pool, logger), roleGuard(actor), nested("courses"), nested("reviews")), svc
}

func TestHandler_GetBootcamp(t *testing.T) {
	router, svc := setupHandler(t, publisher())
	b := ownedBy(uuid.New())
	svc.On("Get", mock.Anything, b.ID).Return(b, nil).Once()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/"+b.ID.String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool           `json:"success"`
		Data    types.Bootcamp `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, b.ID, body.Data.ID)
	assert.Equal(t, "Boston", body.Data.City)
}

func TestHandler_CreateBootcamp(t *testing.T) {
	actor := publisher()
	req := devworksRequest()
	payload, err := json.Marshal(req)
	require.NoError(t, err)

	t.Run("publisher gets 201", func(t *testing.T) {
		router, svc := setupHandler(t, actor)
		svc.On("Create", mock.Anything, mock.MatchedBy(func(u *types.User) bool { return u.ID == actor.ID }), req).
			Return(ownedBy(actor.ID), nil).Once()

		r := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(payload))
		r.Header.Set("X-Role", string(types.RolePublisher))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, r)
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("user role is forbidden before the service", func(t *testing.T) {
		router, svc := setupHandler(t, actor)

		r := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(payload))
		r.Header.Set("X-Role", string(types.RoleUser))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, r)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "User role user is not authorized to access this route")
		svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing credentials are unauthenticated", func(t *testing.T) {
		router, svc := setupHandler(t, actor)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(payload)))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("conflict maps to 409", func(t *testing.T) {
		router, svc := setupHandler(t, actor)
		svc.On("Create", mock.Anything, mock.Anything, req).
			Return(nil, types.NewError(types.ErrConflict, "The user with ID %s has already published a bootcamp", actor.ID)).Once()

		r := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(payload))
		r.Header.Set("X-Role", string(types.RolePublisher))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, r)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "has already published a bootcamp")
	})
}

func TestHandler_DeleteBootcampForbidden(t *testing.T) {
	actor := publisher()
	router, svc := setupHandler(t, actor)
	id := uuid.New()
	svc.On("Delete", mock.Anything, mock.Anything, id).
		Return(types.NewError(types.ErrForbidden, "User %s is not authorized to delete bootcamp %s", actor.ID, id)).Once()

	r := httptest.NewRequest(http.MethodDelete, "/"+id.String(), nil)
	r.Header.Set("X-Role", string(types.RolePublisher))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}

func TestHandler_GetBootcampsInRadius(t *testing.T) {
	t.Run("count envelope", func(t *testing.T) {
		router, svc := setupHandler(t, publisher())
		found := []types.Bootcamp{*ownedBy(uuid.New()), *ownedBy(uuid.New())}
		svc.On("WithinRadius", mock.Anything, "02215", 25.0).Return(found, nil).Once()

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/radius/02215/25", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var body types.CountResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.True(t, body.Success)
		assert.Equal(t, 2, body.Count)
	})

	t.Run("bad distance", func(t *testing.T) {
		router, _ := setupHandler(t, publisher())

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/radius/02215/far", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid distance far")
	})

	for _, raw := range []string{"NaN", "Inf", "-Inf", "-5"} {
		t.Run("rejects distance "+raw, func(t *testing.T) {
			router, svc := setupHandler(t, publisher())

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/radius/02215/"+raw, nil))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "Invalid distance "+raw)
			svc.AssertNotCalled(t, "WithinRadius", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestHandler_NestedRoutersReceiveBootcampID(t *testing.T) {
	router, _ := setupHandler(t, publisher())
	id := uuid.New()

	for _, kind := range []string{"courses", "reviews"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/"+id.String()+"/"+kind, nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), kind+":"+id.String())
	}
}

func multipartPhoto(t *testing.T, field, filename, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHandler_UploadPhoto(t *testing.T) {
	actor := publisher()
	id := uuid.New()

	t.Run("passes the file to the service", func(t *testing.T) {
		router, svc := setupHandler(t, actor)
		want := "photo_" + id.String() + ".jpg"
		svc.On("UploadPhoto", mock.Anything, mock.Anything, id, mock.MatchedBy(func(p Photo) bool {
			return p.Filename == "campus.jpg" && p.ContentType == "image/jpeg" && p.Size == 4
		})).Return(want, nil).Once()

		body, ct := multipartPhoto(t, "file", "campus.jpg", "image/jpeg", []byte("jpeg"))
		r := httptest.NewRequest(http.MethodPut, "/"+id.String()+"/photo", body)
		r.Header.Set("Content-Type", ct)
		r.Header.Set("X-Role", string(types.RolePublisher))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, r)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"success":true,"data":"`+want+`"}`, rec.Body.String())
	})

	t.Run("oversized body is cut off before the service", func(t *testing.T) {
		router, svc := setupHandler(t, actor)

		body, ct := multipartPhoto(t, "file", "campus.jpg", "image/jpeg", bytes.Repeat([]byte("a"), 80_000))
		r := httptest.NewRequest(http.MethodPut, "/"+id.String()+"/photo", body)
		r.Header.Set("Content-Type", ct)
		r.Header.Set("X-Role", string(types.RolePublisher))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, r)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "UploadPhoto", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing file", func(t *testing.T) {
		router, _ := setupHandler(t, actor)

		r := httptest.NewRequest(http.MethodPut, "/"+id.String()+"/photo", strings.NewReader(""))
		r.Header.Set("X-Role", string(types.RolePublisher))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, r)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Please upload a file")
	})
}

func TestHandler_UpdateBootcampRepeatedIsStable(t *testing.T) {
	actor := publisher()
	router, svc := setupHandler(t, actor)
	b := ownedBy(actor.ID)
	svc.On("Update", mock.Anything, mock.Anything, b.ID, mock.Anything).Return(b, nil).Twice()

	send := func() *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPut, "/"+b.ID.String(), strings.NewReader(`{"housing":true,"phone":"(111) 111-1111"}`))
		r.Header.Set("X-Role", string(types.RolePublisher))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, r)
		return rec
	}

	first, second := send(), send()
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, first.Code, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	svc.AssertNumberOfCalls(t, "Update", 2)
}
