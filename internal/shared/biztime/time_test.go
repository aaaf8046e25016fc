package biztime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTimestamp_UsesBusinessTimezone(t *testing.T) {
	require.NoError(t, Init("Asia/Tokyo"))
	t.Cleanup(func() { _ = Init("") })

	ts := time.Date(2025, 3, 1, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, "2025-03-02T00:30:00+09:00", FormatTimestamp(ts))
}

func TestInit_InvalidTimezone(t *testing.T) {
	assert.Error(t, Init("Mars/Olympus"))
}

func TestFormatDate_TruncatesToDay(t *testing.T) {
	ts := time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, "2025-12-31", FormatDate(ts))
	assert.Equal(t, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), TruncateToDay(ts))
}
