package services

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/harborpoint/homewatch-api/config"
)

// Coordinates is a geocoded latitude/longitude pair.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// GeocoderInterface defines the interface for address geocoding
type GeocoderInterface interface {
	Geocode(address string) (*Coordinates, error)
}

// GeocodingService resolves street addresses to coordinates via an external
// Nominatim-compatible search endpoint.
type GeocodingService struct {
	baseURL    string
	httpClient *http.Client
}

var geocoderInstance GeocoderInterface

// InitGeocodingService initializes the geocoding service
func InitGeocodingService(cfg *config.Config) GeocoderInterface {
	geocoderInstance = &GeocodingService{
		baseURL: cfg.GeocoderURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	return geocoderInstance
}

// GetGeocoder returns the initialized geocoding service instance
func GetGeocoder() GeocoderInterface {
	return geocoderInstance
}

// SetGeocoder sets the geocoding service instance (primarily for testing)
func SetGeocoder(g GeocoderInterface) {
	geocoderInstance = g
}

// geocodeResult is one entry of a Nominatim-style search response.
type geocodeResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode resolves a full address string to coordinates. Returns an error
// when the service is unconfigured, unreachable, or finds no match; callers
// treat geocoding failures as non-fatal and save the record without
// coordinates.
func (s *GeocodingService) Geocode(address string) (*Coordinates, error) {
	if s.baseURL == "" {
		return nil, fmt.Errorf("geocoder not configured")
	}

	reqURL := fmt.Sprintf("%s/search?q=%s&format=json&limit=1", s.baseURL, url.QueryEscape(address))
	req, err := http.NewRequest("GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create geocode request: %w", err)
	}
	req.Header.Set("User-Agent", "homewatch-api/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call geocoder: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			_ = closeErr
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("geocoder returned status %d: %s", resp.StatusCode, string(body))
	}

	var results []geocodeResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode geocoder response: %w", err)
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("no geocoding result for address %q", address)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude in geocoder response: %w", err)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude in geocoder response: %w", err)
	}

	return &Coordinates{Latitude: lat, Longitude: lng}, nil
}
