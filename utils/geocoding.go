package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// GeocodingResult represents the result of a geocoding operation
type GeocodingResult struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	DisplayName string  `json:"display_name"`
}

// NominatimGeocoder resolves shop addresses with OpenStreetMap Nominatim.
type NominatimGeocoder struct {
	BaseURL     string
	CountryCode string
	Client      *http.Client
}

func NewNominatimGeocoder(countryCode string) *NominatimGeocoder {
	return &NominatimGeocoder{
		BaseURL:     "https://nominatim.openstreetmap.org",
		CountryCode: countryCode,
		Client:      &http.Client{Timeout: 5 * time.Second},
	}
}

// Geocode returns the best match for address, or nil when nothing matched.
func (g *NominatimGeocoder) Geocode(ctx context.Context, address string) (*GeocodingResult, error) {
	cleanAddress := strings.TrimSpace(address)
	if cleanAddress == "" {
		return nil, fmt.Errorf("address cannot be empty")
	}

	params := url.Values{}
	params.Set("q", cleanAddress)
	params.Set("format", "json")
	params.Set("limit", "1")
	if g.CountryCode != "" {
		params.Set("countrycodes", g.CountryCode)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "repairhub-server")

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make geocoding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoding service returned status: %d", resp.StatusCode)
	}

	var results []struct {
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode geocoding response: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude in response: %w", err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude in response: %w", err)
	}

	return &GeocodingResult{Latitude: lat, Longitude: lon, DisplayName: results[0].DisplayName}, nil
}
