package location

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/go-querystring/query"
	"go.uber.org/zap"

	apperrors "github.com/lcrostarosa/nirbhaya/internal/errors"
	"github.com/lcrostarosa/nirbhaya/internal/logging"
)

type ipLocateQuery struct {
	Fields string `url:"fields"`
}

type ipLocateResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// ipAccuracy is a rough radius for IP-derived fixes, in meters
const ipAccuracy = 5000

// IPLocator approximates the position from the public IP via an
// ip-api.com compatible endpoint. It is the fallback for hosts without a
// positioning device.
type IPLocator struct {
	client *resty.Client
	logger *zap.Logger
}

// NewIPLocator creates a locator against baseURL
func NewIPLocator(baseURL string, logger *zap.Logger) *IPLocator {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(5 * time.Second).
		SetHeader("Accept", "application/json")
	return &IPLocator{client: client, logger: logging.OrNop(logger)}
}

func (l *IPLocator) Locate(ctx context.Context) (Coordinates, error) {
	params, err := query.Values(ipLocateQuery{Fields: "status,message,lat,lon"})
	if err != nil {
		return Coordinates{}, err
	}

	var out ipLocateResponse
	resp, err := l.client.R().
		SetContext(ctx).
		SetQueryParamsFromValues(params).
		SetResult(&out).
		Get("/json/")
	if err != nil {
		return Coordinates{}, fmt.Errorf("%w: %v", apperrors.ErrLocationUnavailable, err)
	}
	if resp.IsError() || out.Status != "success" {
		l.logger.Debug("IP location rejected",
			zap.Int("status", resp.StatusCode()),
			zap.String("message", out.Message))
		return Coordinates{}, fmt.Errorf("%w: ip lookup returned %q", apperrors.ErrLocationUnavailable, out.Status)
	}

	return Coordinates{Latitude: out.Lat, Longitude: out.Lon, Accuracy: ipAccuracy}, nil
}
