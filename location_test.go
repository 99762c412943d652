package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// finderFunc adapts a function to the panoramaFinder interface.
type finderFunc func(ctx context.Context, c Coordinate, radiusMeters int) (Coordinate, bool, error)

func (f finderFunc) Find(ctx context.Context, c Coordinate, radiusMeters int) (Coordinate, bool, error) {
	return f(ctx, c, radiusMeters)
}

func insideAreas(c Coordinate) bool {
	for _, a := range areas {
		if c.Lat <= a.north && c.Lat >= a.south && c.Lng <= a.east && c.Lng >= a.west {
			return true
		}
	}
	return false
}

func TestRandomLocationWithinAreas(t *testing.T) {
	for i := 0; i < 200; i++ {
		c := randomLocation()
		assert.True(t, insideAreas(c), "draw %+v landed outside every area", c)
	}
}

func TestPickLocationWithoutFinder(t *testing.T) {
	c, err := pickLocation(context.Background(), nil, 50000, 50)

	require.NoError(t, err)
	assert.True(t, insideAreas(c))
}

func TestPickLocationSnapsToPanorama(t *testing.T) {
	snapped := Coordinate{Lat: 48.8584, Lng: 2.2945}
	finder := finderFunc(func(_ context.Context, _ Coordinate, _ int) (Coordinate, bool, error) {
		return snapped, true, nil
	})

	c, err := pickLocation(context.Background(), finder, 50000, 50)

	require.NoError(t, err)
	assert.Equal(t, snapped, c)
}

func TestPickLocationExhaustsRetries(t *testing.T) {
	attempts := 0
	finder := finderFunc(func(_ context.Context, _ Coordinate, _ int) (Coordinate, bool, error) {
		attempts++
		return Coordinate{}, false, nil
	})

	_, err := pickLocation(context.Background(), finder, 50000, 7)

	assert.ErrorIs(t, err, errNoLocationFound)
	assert.Equal(t, 7, attempts)
}

func TestPickLocationPropagatesFinderError(t *testing.T) {
	boom := errors.New("metadata lookup failed")
	finder := finderFunc(func(_ context.Context, _ Coordinate, _ int) (Coordinate, bool, error) {
		return Coordinate{}, false, boom
	})

	_, err := pickLocation(context.Background(), finder, 50000, 50)

	assert.ErrorIs(t, err, boom)
}
