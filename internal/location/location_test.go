package location

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/lcrostarosa/nirbhaya/internal/errors"
)

func fptr(v float64) *float64 { return &v }

type resolverFunc func(ctx context.Context, lat, lng float64) (string, error)

func (f resolverFunc) Reverse(ctx context.Context, lat, lng float64) (string, error) {
	return f(ctx, lat, lng)
}

func TestMapsLink(t *testing.T) {
	assert.Equal(t, "https://www.google.com/maps?q=12.9,77.6", MapsLink(12.9, 77.6))
	assert.Equal(t, "https://www.google.com/maps?q=-33.8688,151.2093", MapsLink(-33.8688, 151.2093))
}

func TestCoordinatesText(t *testing.T) {
	assert.Equal(t, "12.900000, 77.600000", CoordinatesText(12.9, 77.6))
}

func TestStaticLocator(t *testing.T) {
	ctx := context.Background()

	c, err := NewStaticLocator(fptr(12.9), fptr(77.6), 15).Locate(ctx)
	require.NoError(t, err)
	assert.Equal(t, Coordinates{Latitude: 12.9, Longitude: 77.6, Accuracy: 15}, c)

	_, err = NewStaticLocator(nil, fptr(1), 0).Locate(ctx)
	assert.ErrorIs(t, err, apperrors.ErrLocationUnavailable)
}

func TestServiceResolvesAddress(t *testing.T) {
	resolver := resolverFunc(func(ctx context.Context, lat, lng float64) (string, error) {
		return "Bengaluru, Karnataka, India", nil
	})
	svc := NewService(NewStaticLocator(fptr(12.9), fptr(77.6), 0), resolver, time.Second, nil)

	s, err := svc.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bengaluru, Karnataka, India", s.Address)
	assert.Equal(t, "https://www.google.com/maps?q=12.9,77.6", s.MapsLink())
	assert.False(t, s.TakenAt.IsZero())
}

func TestServiceFallsBackToCoordinates(t *testing.T) {
	resolver := resolverFunc(func(ctx context.Context, lat, lng float64) (string, error) {
		return "", errors.New("offline")
	})
	svc := NewService(NewStaticLocator(fptr(12.9), fptr(77.6), 0), resolver, time.Second, nil)

	s, err := svc.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "12.900000, 77.600000", s.Address)
	assert.Equal(t, 12.9, s.Latitude)
}

func TestServiceTimesOut(t *testing.T) {
	slow := LocatorFunc(func(ctx context.Context) (Coordinates, error) {
		<-ctx.Done()
		return Coordinates{}, ctx.Err()
	})
	svc := NewService(slow, nil, 20*time.Millisecond, nil)

	start := time.Now()
	_, err := svc.Current(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrLocationUnavailable)
	assert.Less(t, time.Since(start), time.Second)
}

func TestGeocoderReverse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse-geocode-client", r.URL.Path)
		assert.Equal(t, "12.9", r.URL.Query().Get("latitude"))
		assert.Equal(t, "77.6", r.URL.Query().Get("longitude"))
		assert.Equal(t, "en", r.URL.Query().Get("localityLanguage"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"locality":"Bengaluru","principalSubdivision":"Karnataka","countryName":"India"}`))
	}))
	defer srv.Close()

	addr, err := NewGeocoder(srv.URL, nil).Reverse(context.Background(), 12.9, 77.6)
	require.NoError(t, err)
	assert.Equal(t, "Bengaluru, Karnataka, India", addr)
}

func TestGeocoderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewGeocoder(srv.URL, nil).Reverse(context.Background(), 1, 2)
	assert.Error(t, err)
}

func TestIPLocator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/json/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","lat":28.61,"lon":77.2}`))
	}))
	defer srv.Close()

	c, err := NewIPLocator(srv.URL, nil).Locate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 28.61, c.Latitude)
	assert.Equal(t, 77.2, c.Longitude)
}

func TestIPLocatorFailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"fail","message":"private range"}`))
	}))
	defer srv.Close()

	_, err := NewIPLocator(srv.URL, nil).Locate(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrLocationUnavailable)
}
