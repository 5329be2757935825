package utils

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDistanceKm(t *testing.T) {
	kolkata := Location{Latitude: 22.5726, Longitude: 88.3639}
	howrah := Location{Latitude: 22.5958, Longitude: 88.2636}

	d := DistanceKm(kolkata, howrah)
	if d < 9 || d > 12 {
		t.Fatalf("distance = %.2f km, want roughly 10.6", d)
	}
	if DistanceKm(kolkata, kolkata) != 0 {
		t.Fatal("distance to self must be zero")
	}
}

func TestSortByDistance(t *testing.T) {
	origin := Location{Latitude: 22.57, Longitude: 88.36}
	items := []Location{
		{Latitude: 23.57, Longitude: 88.36},
		{Latitude: 22.58, Longitude: 88.36},
		{Latitude: 22.77, Longitude: 88.36},
	}
	dist := SortByDistance(items, origin, func(l Location) Location { return l })

	if items[0].Latitude != 22.58 || items[2].Latitude != 23.57 {
		t.Fatalf("unexpected order: %+v", items)
	}
	for i := 1; i < len(dist); i++ {
		if dist[i] < dist[i-1] {
			t.Fatalf("distances not ascending: %v", dist)
		}
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatal(err)
	}
	if !CheckPasswordHash("s3cret-pass", hash) {
		t.Fatal("expected hash to match")
	}
	if CheckPasswordHash("wrong", hash) {
		t.Fatal("wrong password matched")
	}
}

func TestGenerateTempCredential(t *testing.T) {
	a, err := GenerateTempCredential(12)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := GenerateTempCredential(12)
	if len(a) != 12 || a == b {
		t.Fatalf("credentials %q %q", a, b)
	}
	for _, r := range a {
		if !strings.ContainsRune(credentialAlphabet, r) {
			t.Fatalf("unexpected character %q", r)
		}
	}
}

func TestNominatimGeocoder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "nowhere" {
			w.Write([]byte(`[]`))
			return
		}
		if r.URL.Query().Get("countrycodes") != "in" {
			t.Errorf("countrycodes = %q", r.URL.Query().Get("countrycodes"))
		}
		w.Write([]byte(`[{"lat":"22.5726","lon":"88.3639","display_name":"Kolkata, West Bengal"}]`))
	}))
	defer srv.Close()

	g := NewNominatimGeocoder("in")
	g.BaseURL = srv.URL

	res, err := g.Geocode(context.Background(), "12 Park Street, Kolkata")
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(res.Latitude-22.5726) > 1e-9 || math.Abs(res.Longitude-88.3639) > 1e-9 {
		t.Fatalf("result = %+v", res)
	}

	res, err = g.Geocode(context.Background(), "nowhere")
	if err != nil || res != nil {
		t.Fatalf("no match should give nil, nil; got %+v, %v", res, err)
	}

	if _, err := g.Geocode(context.Background(), "  "); err == nil {
		t.Fatal("empty address should fail")
	}
}
