package zipkit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMsDosTimeRoundTrip(t *testing.T) {
	t.Parallel()

	stamp := time.Date(2023, time.November, 7, 14, 25, 36, 0, time.UTC)
	date, dosTime := timeToMsDos(stamp)
	assert.Equal(t, stamp, msDosToTime(date, dosTime))
}

func TestMsDosTimeTruncatesOddSeconds(t *testing.T) {
	t.Parallel()

	stamp := time.Date(2023, time.November, 7, 14, 25, 37, 0, time.UTC)
	date, dosTime := timeToMsDos(stamp)
	assert.Equal(t, stamp.Add(-time.Second), msDosToTime(date, dosTime))
}

func TestMsDosTimeClampsPre1980(t *testing.T) {
	t.Parallel()

	date, dosTime := timeToMsDos(time.Date(1975, time.June, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 1980, msDosToTime(date, dosTime).Year())
}
