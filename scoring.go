/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"math"
)

const (
	earthRadiusKm = 6371.0
	kmPerMile     = 0.621371
	maxScoreMiles = 1000.0
)

// Coordinate is a latitude/longitude pair in degrees, matching the
// {lat, lng} shape the client sends and renders.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// haversineMiles returns the great-circle distance between two coordinates
// in miles, on a sphere of radius 6371 km.
func haversineMiles(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c * kmPerMile
}

// calculateScore maps the distance between the actual and guessed
// coordinates onto [0, scale] with a logarithmic falloff:
//
//	score = round(scale * (1 - ln(miles+1) / ln(1001)))
//
// A perfect guess scores the full scale; anything beyond 1000 miles
// scores zero.
func calculateScore(actual, guess Coordinate, scale int) int {
	miles := haversineMiles(actual, guess)

	if miles > maxScoreMiles {
		return 0
	}

	points := int(math.Round(float64(scale) * (1 - math.Log(miles+1)/math.Log(maxScoreMiles+1))))
	if points < 0 {
		return 0
	}

	return points
}
