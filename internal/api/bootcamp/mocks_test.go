package bootcamp

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/FACorreiaa/devcamper-api/internal/types"
)

type MockBootcampRepo struct {
	mock.Mock
}

var _ BootcampRepo = (*MockBootcampRepo)(nil)

func (m *MockBootcampRepo) GetByID(ctx context.Context, id uuid.UUID) (*types.Bootcamp, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Bootcamp), args.Error(1)
}

func (m *MockBootcampRepo) CountByOwner(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockBootcampRepo) Create(ctx context.Context, fields types.BootcampFields) (*types.Bootcamp, error) {
	args := m.Called(ctx, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Bootcamp), args.Error(1)
}

func (m *MockBootcampRepo) Update(ctx context.Context, id uuid.UUID, changes types.BootcampChanges) (*types.Bootcamp, error) {
	args := m.Called(ctx, id, changes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Bootcamp), args.Error(1)
}

func (m *MockBootcampRepo) UpdatePhoto(ctx context.Context, id uuid.UUID, photo string) error {
	args := m.Called(ctx, id, photo)
	return args.Error(0)
}

func (m *MockBootcampRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBootcampRepo) WithinRadius(ctx context.Context, lat, lng, miles float64) ([]types.Bootcamp, error) {
	args := m.Called(ctx, lat, lng, miles)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Bootcamp), args.Error(1)
}

type MockPrincipalFinder struct {
	mock.Mock
}

func (m *MockPrincipalFinder) GetByID(ctx context.Context, id uuid.UUID) (*types.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

type fakeGeocoder struct {
	loc types.Location
	err error
}

func (g fakeGeocoder) Geocode(_ context.Context, _ string) (types.Location, error) {
	return g.loc, g.err
}

type memStore struct {
	mu    sync.Mutex
	files map[string][]byte
	err   error
}

func newMemStore() *memStore {
	return &memStore{files: make(map[string][]byte)}
}

func (s *memStore) Save(_ context.Context, name, _ string, r io.Reader) error {
	if s.err != nil {
		return s.err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = buf.Bytes()
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var boston = types.Location{
	Latitude:         42.3601,
	Longitude:        -71.0589,
	FormattedAddress: "233 Bay State Rd, Boston, MA 02215, US",
	Street:           "233 Bay State Rd",
	City:             "Boston",
	State:            "MA",
	Zipcode:          "02215",
	Country:          "US",
}

func publisher() *types.User {
	return &types.User{ID: uuid.New(), Name: "John Doe", Email: "john@gmail.com", Role: types.RolePublisher}
}

func admin() *types.User {
	return &types.User{ID: uuid.New(), Name: "Admin Account", Email: "admin@gmail.com", Role: types.RoleAdmin}
}
