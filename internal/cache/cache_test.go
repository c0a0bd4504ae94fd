package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mukutarmanekka/smart-evacuation-router/internal/lib/geo"
)

func TestCache_SetGet(t *testing.T) {
	c := New()

	c.Set("k", "snapshot", time.Minute)
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "snapshot", v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestCache_Expiry(t *testing.T) {
	c := New()

	c.Set("k", 1, -time.Second) // already expired
	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.True(t, c.IsStale("k"))
	assert.True(t, c.IsStale("missing"))

	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 1, c.CleanupStale())
	assert.Zero(t, c.Len())
}

func TestCache_PointerIdentity(t *testing.T) {
	c := New()

	snapshot := &struct{ n int }{n: 42}
	c.Set("k", snapshot, time.Minute)

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Same(t, snapshot, v, "cached snapshots are shared by reference")
}

func TestZoneKey(t *testing.T) {
	a := geo.Zone{Center: geo.Point{Latitude: 28.6139, Longitude: 77.2090}, RadiusMeters: 1000}
	b := geo.Zone{Center: geo.Point{Latitude: 28.6139, Longitude: 77.2090}, RadiusMeters: 2000}
	c := geo.Zone{Center: geo.Point{Latitude: 28.6140, Longitude: 77.2090}, RadiusMeters: 1000}

	assert.Equal(t, ZoneKey(a), ZoneKey(a))
	assert.NotEqual(t, ZoneKey(a), ZoneKey(b), "resized zone gets a new key")
	assert.NotEqual(t, ZoneKey(a), ZoneKey(c), "moved zone gets a new key")
}
