package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDifficultyFor(t *testing.T) {
	cases := []struct {
		distance  float64
		elevation float64
		want      Difficulty
	}{
		{0, 0, DifficultyEasy},
		{4, 0, DifficultyEasy},
		{3, 101, DifficultyModerate},
		{8, 0, DifficultyModerate},
		{6, 250, DifficultyHard},
		{0, 900, DifficultyHard},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, DifficultyFor(c.distance, c.elevation), "distance=%v elevation=%v", c.distance, c.elevation)
	}
}

func TestElevationRangeFor(t *testing.T) {
	assert.Equal(t, ElevationFlat, ElevationRangeFor(99.9))
	assert.Equal(t, ElevationLow, ElevationRangeFor(100))
	assert.Equal(t, ElevationMedium, ElevationRangeFor(500))
	assert.Equal(t, ElevationHigh, ElevationRangeFor(1500))
}

func TestTravelModeProfiles(t *testing.T) {
	assert.Equal(t, "foot-walking", ModeWalk.Profile())
	assert.Equal(t, "driving-car", ModeDrive.Profile())
	assert.Equal(t, "foot-walking", ModeUnset.Profile())

	m, err := ParseTravelMode(" Drive ")
	assert.NoError(t, err)
	assert.Equal(t, ModeDrive, m)

	_, err = ParseTravelMode("bike")
	assert.Error(t, err)
	assert.False(t, ModeUnset.IsValid())
}

func TestMapLayerToggle(t *testing.T) {
	assert.Equal(t, LayerSatellite, LayerStandard.Toggle())
	assert.Equal(t, LayerStandard, LayerSatellite.Toggle())
	assert.Equal(t, LayerSatellite, MapLayer("").Toggle())
}

func TestParseFilters(t *testing.T) {
	d, err := ParseDifficulty(" hard ")
	assert.NoError(t, err)
	assert.Equal(t, DifficultyHard, d)

	_, err = ParseDifficulty("extreme")
	assert.Error(t, err)

	r, err := ParseElevationRange("medium")
	assert.NoError(t, err)
	assert.Equal(t, ElevationMedium, r)

	_, err = ParseElevationRange("steep")
	assert.Error(t, err)
}
