package postgres

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeOutline_Polygon(t *testing.T) {
	poly := orb.Polygon{
		{{-2.9351, 43.2629}, {-2.9349, 43.2629}, {-2.9349, 43.2631}, {-2.9351, 43.2629}},
		{{-2.93505, 43.26295}, {-2.93502, 43.26295}, {-2.93502, 43.26298}, {-2.93505, 43.26295}},
	}
	raw, err := wkb.Marshal(poly)
	require.NoError(t, err)

	fp, err := decodeOutline(raw)
	require.NoError(t, err)
	require.Len(t, fp, 4)
	assert.Equal(t, 43.2629, fp[0].Lat)
	assert.Equal(t, -2.9351, fp[0].Lon)
	assert.Equal(t, 43.2631, fp[2].Lat)
}

func TestDecodeOutline_MultiPolygon(t *testing.T) {
	mp := orb.MultiPolygon{
		{{{1, 2}, {3, 2}, {3, 4}, {1, 2}}},
		{{{10, 20}, {30, 20}, {30, 40}, {10, 20}}},
	}
	raw, err := wkb.Marshal(mp)
	require.NoError(t, err)

	fp, err := decodeOutline(raw)
	require.NoError(t, err)
	require.Len(t, fp, 4)
	assert.Equal(t, 2.0, fp[0].Lat)
	assert.Equal(t, 1.0, fp[0].Lon)
}

func TestDecodeOutline_Rejects(t *testing.T) {
	raw, err := wkb.Marshal(orb.Point{1, 2})
	require.NoError(t, err)
	_, err = decodeOutline(raw)
	assert.Error(t, err)

	_, err = decodeOutline([]byte{0x01, 0x02})
	assert.Error(t, err)
}

func TestNewFootprintRepo_DefaultRadius(t *testing.T) {
	r := NewFootprintRepo(nil, 0)
	assert.Equal(t, DefaultSearchRadius, r.radius)
	assert.Equal(t, "postgis", r.Name())
}
