package services

import (
	"fmt"
	"sync"
)

// MockGeocoder is a mock implementation of GeocoderInterface for testing
type MockGeocoder struct {
	results map[string]*Coordinates
	calls   []string
	failAll bool
	mu      sync.Mutex
}

// NewMockGeocoder creates a new mock geocoder
func NewMockGeocoder() *MockGeocoder {
	return &MockGeocoder{
		results: make(map[string]*Coordinates),
	}
}

// SetAsMockForTesting sets this mock as the global geocoder instance for testing
func (m *MockGeocoder) SetAsMockForTesting() {
	SetGeocoder(m)
}

// AddResult registers coordinates returned for an address
func (m *MockGeocoder) AddResult(address string, lat, lng float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[address] = &Coordinates{Latitude: lat, Longitude: lng}
}

// FailAll makes every Geocode call return an error
func (m *MockGeocoder) FailAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAll = true
}

// Geocode returns the registered coordinates for an address
func (m *MockGeocoder) Geocode(address string) (*Coordinates, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, address)
	if m.failAll {
		return nil, fmt.Errorf("mock geocoder: forced failure")
	}
	if coords, ok := m.results[address]; ok {
		return coords, nil
	}
	return nil, fmt.Errorf("mock geocoder: no result for %q", address)
}

// Calls returns the addresses geocoded so far (for testing assertions)
func (m *MockGeocoder) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]string, len(m.calls))
	copy(calls, m.calls)
	return calls
}
