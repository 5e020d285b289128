package app

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"skin-bot/internal/domain/entity"
)

func TestPlaceInZone_HighValuePicksPrimaryZone(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	marker, ok := PlaceInZone("acne", 75, rng)
	require.True(t, ok)
	require.Equal(t, "t_zone", marker.Zone)
	require.Equal(t, entity.ShapePolygon, marker.Shape)
	require.InDelta(t, 50, marker.X, 5)
	require.InDelta(t, 40, marker.Y, 5)
	require.Equal(t, 30.0, marker.Width)
	require.Equal(t, 30.0, marker.Height)
}

func TestPlaceInZone_LowValuePicksLastZone(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	marker, ok := PlaceInZone("wrinkles", 30, rng)
	require.True(t, ok)
	require.Equal(t, "u_zone", marker.Zone)
}

func TestPlaceInZone_UnknownCategory(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	_, ok := PlaceInZone("shine", 80, rng)
	require.False(t, ok)
}

func TestPlaceInZone_JitterStaysWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		marker, ok := PlaceInZone("pores", 90, rng)
		require.True(t, ok)
		require.GreaterOrEqual(t, marker.X, 45.0)
		require.LessOrEqual(t, marker.X, 55.0)
		require.GreaterOrEqual(t, marker.Y, 35.0)
		require.LessOrEqual(t, marker.Y, 45.0)
	}
}
