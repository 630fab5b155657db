package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocalKeepsWallClock(t *testing.T) {
	zones := []string{"UTC", "America/Los_Angeles", "Asia/Tokyo", "Pacific/Kiritimati", "Pacific/Pago_Pago"}
	for _, name := range zones {
		loc, err := time.LoadLocation(name)
		if err != nil {
			t.Skipf("zone %s unavailable: %v", name, err)
		}

		got, err := ParseLocalIn("2024-03-15T09:30", loc)
		require.NoError(t, err, name)

		y, m, d := got.Date()
		assert.Equal(t, 2024, y, name)
		assert.Equal(t, time.March, m, name)
		assert.Equal(t, 15, d, name)
		assert.Equal(t, 9, got.Hour(), name)
		assert.Equal(t, 30, got.Minute(), name)
		assert.Equal(t, loc, got.Location(), name)
	}
}

func TestParseLocalUsesTimeLocal(t *testing.T) {
	got, err := ParseLocal("2024-03-15T09:30")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15T09:30", FormatLocal(got))
	assert.Equal(t, time.Local, got.Location())
}

func TestParseLocalDefaultsTimeToMidnight(t *testing.T) {
	got, err := ParseLocalIn("2024-12-01", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestParseLocalToleratesSeconds(t *testing.T) {
	got, err := ParseLocalIn("2024-01-02T03:04:59", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC), got)
}

func TestParseLocalRejectsMalformed(t *testing.T) {
	for _, in := range []string{
		"",
		"2024/03/15",
		"2024-03",
		"2024-13-01T10:00",
		"2024-02-30T10:00",
		"2023-02-29",
		"2024-03-15T24:00",
		"2024-03-15T10:60",
		"2024-03-15T10",
		"abcd-03-15T10:00",
		"2024-12-01T",
		"2024-03-15T09:30:00Z",
		"2024-03-15T09:30:00+02:00",
		"2024-03-15T09:30:garbage",
		"2024-03-15T09:30:60",
		"2024-03-15T09:30:",
		"2024-+3-15T09:30",
		"2024-03-15T-9:30",
		"2024-03-15T09: 30",
	} {
		_, err := ParseLocalIn(in, time.UTC)
		assert.Error(t, err, in)
	}
}

func TestParseLocalLeapDay(t *testing.T) {
	_, err := ParseLocalIn("2024-02-29T12:00", time.UTC)
	assert.NoError(t, err)
}

func TestNormalizeLocal(t *testing.T) {
	got, err := NormalizeLocal(" 2024-3-5T9:05 ")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05T09:05", got)
}
