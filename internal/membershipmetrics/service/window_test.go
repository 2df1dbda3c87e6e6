package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewWindowSpansTwelveMonthsAcrossYearBoundary(t *testing.T) {
	w := newWindow(time.Date(2024, 2, 29, 18, 0, 0, 0, time.UTC), time.UTC)

	assert.Len(t, w.buckets, windowMonths)
	assert.Equal(t, "2023-03", w.buckets[0].key)
	assert.Equal(t, "2024-02", w.buckets[11].key)
	assert.Equal(t, "Feb 2024", w.buckets[11].label)
	assert.Equal(t, time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC), w.start())
	assert.Equal(t, time.Date(2024, 2, 29, 23, 59, 59, 999_000_000, time.UTC), w.end())
}

func TestWindowLookup(t *testing.T) {
	w := newWindow(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), time.UTC)

	idx, ok := w.lookup(time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC))
	assert.True(t, ok)
	assert.Equal(t, "2024-05", w.buckets[idx].key)

	_, ok = w.lookup(time.Date(2023, 6, 30, 23, 59, 0, 0, time.UTC))
	assert.False(t, ok)
	_, ok = w.lookup(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))
	assert.False(t, ok)
}

func TestWindowUsesLocationForBoundaries(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	w := newWindow(time.Date(2024, 7, 1, 2, 0, 0, 0, time.UTC), loc)

	assert.Equal(t, "2024-06", w.buckets[11].key, "still June in UTC-5")
	assert.Equal(t, "2024-06", w.key(time.Date(2024, 7, 1, 3, 0, 0, 0, time.UTC)))
}
