package location

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/go-querystring/query"
	"go.uber.org/zap"

	"github.com/lcrostarosa/nirbhaya/internal/logging"
)

// reverseGeocodeQuery is the BigDataCloud client endpoint query
type reverseGeocodeQuery struct {
	Latitude         float64 `url:"latitude"`
	Longitude        float64 `url:"longitude"`
	LocalityLanguage string  `url:"localityLanguage"`
}

type reverseGeocodeResponse struct {
	Locality             string `json:"locality"`
	City                 string `json:"city"`
	PrincipalSubdivision string `json:"principalSubdivision"`
	CountryName          string `json:"countryName"`
}

// Geocoder reverse-geocodes through the BigDataCloud client API
type Geocoder struct {
	client *resty.Client
	logger *zap.Logger
}

// NewGeocoder creates a geocoder against baseURL
// (https://api.bigdatacloud.net/data by default)
func NewGeocoder(baseURL string, logger *zap.Logger) *Geocoder {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(5 * time.Second).
		SetRetryCount(1).
		SetRetryWaitTime(200 * time.Millisecond).
		SetHeader("Accept", "application/json")

	return &Geocoder{client: client, logger: logging.OrNop(logger)}
}

// Reverse returns "locality, principalSubdivision, countryName"
func (g *Geocoder) Reverse(ctx context.Context, lat, lng float64) (string, error) {
	params, err := query.Values(reverseGeocodeQuery{
		Latitude:         lat,
		Longitude:        lng,
		LocalityLanguage: "en",
	})
	if err != nil {
		return "", err
	}

	var out reverseGeocodeResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParamsFromValues(params).
		SetResult(&out).
		Get("/reverse-geocode-client")
	if err != nil {
		return "", fmt.Errorf("reverse geocode: %w", err)
	}
	if resp.IsError() {
		g.logger.Debug("Reverse geocode rejected", zap.Int("status", resp.StatusCode()))
		return "", fmt.Errorf("reverse geocode: status %d", resp.StatusCode())
	}

	locality := out.Locality
	if locality == "" {
		locality = out.City
	}
	if locality == "" && out.PrincipalSubdivision == "" && out.CountryName == "" {
		return "", errors.New("reverse geocode: empty result")
	}
	return fmt.Sprintf("%s, %s, %s", locality, out.PrincipalSubdivision, out.CountryName), nil
}
