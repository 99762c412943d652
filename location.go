/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"time"
)

// area is a named rectangular region that round locations are drawn from.
// Restricting draws to these boxes keeps most candidates over land with
// decent panorama coverage.
type area struct {
	name  string
	north float64
	south float64
	east  float64
	west  float64
}

var areas = []area{
	{name: "Western Europe", north: 60, south: 35, east: 25, west: -10},
	{name: "USA", north: 48, south: 25, east: -65, west: -125},
	{name: "Japan", north: 45, south: 31, east: 146, west: 129},
	{name: "New Zealand", north: -34, south: -47, east: 179, west: 166},
	{name: "South Africa", north: -22, south: -35, east: 33, west: 16},
}

// randomLocation picks one of the areas uniformly at random, then draws a
// uniform coordinate within its bounding box.
func randomLocation() Coordinate {
	a := areas[rand.Intn(len(areas))]

	return Coordinate{
		Lat: rand.Float64()*(a.north-a.south) + a.south,
		Lng: rand.Float64()*(a.east-a.west) + a.west,
	}
}

// panoramaFinder checks whether usable imagery exists near a candidate
// coordinate, returning the coordinate of the nearest panorama when found.
type panoramaFinder interface {
	Find(ctx context.Context, c Coordinate, radiusMeters int) (Coordinate, bool, error)
}

// streetviewClient queries the Street View metadata endpoint, which reports
// whether a panorama exists near a location without billing an image fetch.
type streetviewClient struct {
	key    string
	client *http.Client
}

func newStreetviewClient(key string) *streetviewClient {
	return &streetviewClient{
		key: key,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

const streetviewMetadataURL = "https://maps.googleapis.com/maps/api/streetview/metadata"

type streetviewMetadata struct {
	Status   string `json:"status"`
	Location struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"location"`
}

func (s *streetviewClient) Find(ctx context.Context, c Coordinate, radiusMeters int) (Coordinate, bool, error) {
	query := url.Values{}
	query.Set("location", fmt.Sprintf("%f,%f", c.Lat, c.Lng))
	query.Set("radius", fmt.Sprintf("%d", radiusMeters))
	query.Set("source", "outdoor")
	query.Set("key", s.key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streetviewMetadataURL+"?"+query.Encode(), nil)
	if err != nil {
		return Coordinate{}, false, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return Coordinate{}, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Coordinate{}, false, fmt.Errorf("streetview metadata: unexpected status %d", resp.StatusCode)
	}

	var meta streetviewMetadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return Coordinate{}, false, err
	}

	if meta.Status != "OK" {
		return Coordinate{}, false, nil
	}

	return Coordinate{Lat: meta.Location.Lat, Lng: meta.Location.Lng}, true, nil
}

// pickLocation draws candidate coordinates until the finder confirms one has
// nearby imagery, giving up after retries attempts. A nil finder accepts the
// first draw unvalidated, which is how the server runs without an API key.
func pickLocation(ctx context.Context, finder panoramaFinder, radiusMeters, retries int) (Coordinate, error) {
	for i := 0; i < retries; i++ {
		candidate := randomLocation()

		if finder == nil {
			return candidate, nil
		}

		found, ok, err := finder.Find(ctx, candidate, radiusMeters)
		if err != nil {
			return Coordinate{}, err
		}
		if ok {
			return found, nil
		}
	}

	return Coordinate{}, errNoLocationFound
}
