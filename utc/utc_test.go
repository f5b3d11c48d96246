package utc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNow(t *testing.T) {
	now := Now()

	assert.Equal(t, time.UTC, now.Location())
	assert.WithinDuration(t, time.Now(), now, time.Second)
}

func TestDate(t *testing.T) {
	ts := Date(2021, time.January, 1)

	assert.Equal(t, time.UTC, ts.Location())
	assert.True(t, ts.Equal(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestDateTime(t *testing.T) {
	ts := DateTime(2021, time.January, 1, 12, 34, 56, 0)

	assert.Equal(t, time.UTC, ts.Location())
	assert.Equal(t, time.Date(2021, 1, 1, 12, 34, 56, 0, time.UTC), ts)
}

func TestIn(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	local := time.Date(2021, 1, 1, 9, 0, 0, 0, tokyo)

	got := In(local)
	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, Date(2021, time.January, 1), got)

	assert.True(t, In(time.Time{}).IsZero())
}
