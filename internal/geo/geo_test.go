package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKmZeroForSamePoint(t *testing.T) {
	assert.Zero(t, DistanceKm(12.9716, 77.5946, 12.9716, 77.5946))
}

func TestDistanceKmSymmetric(t *testing.T) {
	d1 := DistanceKm(52.2297, 21.0122, 52.4064, 16.9252)
	d2 := DistanceKm(52.4064, 16.9252, 52.2297, 21.0122)
	assert.Equal(t, d1, d2)
}

func TestDistanceKmKnownSeparation(t *testing.T) {
	// 0.1 degrees of latitude is about 11.1 km on the WGS84 sphere.
	d := DistanceKm(12.9, 77.6, 13.0, 77.6)
	assert.InDelta(t, 11.12, d, 0.05)
}

func TestDistanceKmLongHaul(t *testing.T) {
	// Warsaw to Berlin, roughly 517 km.
	d := DistanceKm(52.2297, 21.0122, 52.5200, 13.4050)
	assert.InDelta(t, 517, d, 5)
}

func TestBearingDegreesCardinal(t *testing.T) {
	assert.InDelta(t, 0, BearingDegrees(10, 20, 11, 20), 0.01)
	assert.InDelta(t, 180, BearingDegrees(11, 20, 10, 20), 0.01)
	assert.InDelta(t, 90, BearingDegrees(0, 20, 0, 21), 0.01)
	assert.InDelta(t, 270, BearingDegrees(0, 21, 0, 20), 0.01)
}
