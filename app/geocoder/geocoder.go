package geocoder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/devcamper-api/config"
	"github.com/FACorreiaa/devcamper-api/internal/types"
)

// ErrNoMatch is returned when the provider cannot place an address or zipcode.
var ErrNoMatch = errors.New("geocoder: no match")

// Geocoder resolves free-form addresses to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (types.Location, error)
}

// MapQuest talks to the MapQuest geocoding v1 API.
type MapQuest struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
	breaker *gobreaker.CircuitBreaker[types.Location]
}

var _ Geocoder = (*MapQuest)(nil)

func NewMapQuest(cfg config.GeocoderConfig, logger *slog.Logger) *MapQuest {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &MapQuest{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
		breaker: gobreaker.NewCircuitBreaker[types.Location](gobreaker.Settings{
			Name:        "geocoder",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			// an unknown address is an answer, not an outage
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, ErrNoMatch)
			},
		}),
	}
}

type mapQuestResponse struct {
	Info struct {
		StatusCode int      `json:"statuscode"`
		Messages   []string `json:"messages"`
	} `json:"info"`
	Results []struct {
		Locations []struct {
			Street     string `json:"street"`
			City       string `json:"adminArea5"`
			State      string `json:"adminArea3"`
			Country    string `json:"adminArea1"`
			PostalCode string `json:"postalCode"`
			LatLng     struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"latLng"`
		} `json:"locations"`
	} `json:"results"`
}

func (g *MapQuest) Geocode(ctx context.Context, address string) (types.Location, error) {
	ctx, span := otel.Tracer("Geocoder").Start(ctx, "Geocode", trace.WithAttributes(
		attribute.String("geocoder.provider", "mapquest"),
	))
	defer span.End()

	l := g.logger.With(slog.String("method", "Geocode"))

	loc, err := g.breaker.Execute(func() (types.Location, error) {
		return g.lookup(ctx, address)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "geocoding failed")
		if errors.Is(err, ErrNoMatch) {
			l.InfoContext(ctx, "Address could not be geocoded", slog.String("address", address))
			return types.Location{}, err
		}
		l.ErrorContext(ctx, "Geocoder request failed", slog.Any("error", err))
		return types.Location{}, fmt.Errorf("%w: geocoding %q: %v", types.ErrUpstream, address, err)
	}
	return loc, nil
}

func (g *MapQuest) lookup(ctx context.Context, address string) (types.Location, error) {
	q := url.Values{}
	q.Set("key", g.apiKey)
	q.Set("location", address)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return types.Location{}, err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return types.Location{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.Location{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body mapQuestResponse
	if err = json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return types.Location{}, fmt.Errorf("decoding response: %w", err)
	}
	if body.Info.StatusCode != 0 {
		return types.Location{}, fmt.Errorf("provider status %d: %s", body.Info.StatusCode, strings.Join(body.Info.Messages, "; "))
	}
	if len(body.Results) == 0 || len(body.Results[0].Locations) == 0 {
		return types.Location{}, ErrNoMatch
	}

	m := body.Results[0].Locations[0]
	return types.Location{
		Latitude:         m.LatLng.Lat,
		Longitude:        m.LatLng.Lng,
		FormattedAddress: formatAddress(m.Street, m.City, m.State, m.PostalCode, m.Country),
		Street:           m.Street,
		City:             m.City,
		State:            m.State,
		Zipcode:          m.PostalCode,
		Country:          m.Country,
	}, nil
}

// formatAddress renders "street, city, state zipcode, country" skipping blanks.
func formatAddress(street, city, state, zipcode, country string) string {
	region := strings.TrimSpace(state + " " + zipcode)
	parts := make([]string, 0, 4)
	for _, p := range []string{street, city, region, country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
