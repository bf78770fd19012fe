package geocoder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/devcamper-api/config"
	"github.com/FACorreiaa/devcamper-api/internal/types"
)

func newTestGeocoder(t *testing.T, h http.HandlerFunc) *MapQuest {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewMapQuest(config.GeocoderConfig{BaseURL: srv.URL, APIKey: "test-key"},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestMapQuest_Geocode(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "233 Bay State Rd Boston MA 02215", r.URL.Query().Get("location"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"info": {"statuscode": 0, "messages": []},
			"results": [{"locations": [{
				"street": "233 Bay State Rd",
				"adminArea5": "Boston",
				"adminArea3": "MA",
				"adminArea1": "US",
				"postalCode": "02215",
				"latLng": {"lat": 42.350846, "lng": -71.103118}
			}]}]
		}`)
	})

	loc, err := g.Geocode(context.Background(), "233 Bay State Rd Boston MA 02215")
	require.NoError(t, err)
	assert.Equal(t, types.Location{
		Latitude:         42.350846,
		Longitude:        -71.103118,
		FormattedAddress: "233 Bay State Rd, Boston, MA 02215, US",
		Street:           "233 Bay State Rd",
		City:             "Boston",
		State:            "MA",
		Zipcode:          "02215",
		Country:          "US",
	}, loc)
}

func TestMapQuest_NoMatch(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"info": {"statuscode": 0}, "results": [{"locations": []}]}`)
	})

	_, err := g.Geocode(context.Background(), "nowhere")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoMatch))
	assert.False(t, errors.Is(err, types.ErrUpstream))
}

func TestMapQuest_ProviderFailure(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	_, err := g.Geocode(context.Background(), "02118")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrUpstream))
}

func TestFormatAddress(t *testing.T) {
	assert.Equal(t, "Boston, MA, US", formatAddress("", "Boston", "MA", "", "US"))
	assert.Equal(t, "02118", formatAddress("", "", "", "02118", ""))
}
