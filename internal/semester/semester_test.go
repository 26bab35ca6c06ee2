package semester

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
}

func TestParse(t *testing.T) {
	sem, err := Parse("Fall 2024")
	require.NoError(t, err)
	assert.Equal(t, "Fall", sem.Season)
	assert.Equal(t, 2024, sem.Year)
	assert.Equal(t, time.December, sem.EndMonth())

	_, err = Parse("Autumn 2024")
	require.Error(t, err)
	_, err = Parse("Fall")
	require.Error(t, err)
	_, err = Parse("Fall twenty24")
	require.Error(t, err)
	_, err = Parse("")
	require.Error(t, err)
}

func TestEditable(t *testing.T) {
	cases := []struct {
		name     string
		semester string
		now      time.Time
		want     bool
	}{
		{"year passed", "Fall 2024", date(2025, time.March, 1), false},
		{"same year before end month", "Fall 2025", date(2025, time.October, 15), true},
		{"next year", "Fall 2025", date(2026, time.January, 5), false},
		{"same year after end month", "Spring 2025", date(2025, time.June, 1), false},
		{"spring during end month", "Spring 2025", date(2025, time.May, 31), true},
		{"winter after february", "Winter 2025", date(2025, time.March, 1), false},
		{"winter during window", "Winter 2025", date(2025, time.February, 10), true},
		{"summer boundary", "Summer 2025", date(2025, time.August, 31), true},
		{"future year", "Fall 2026", date(2025, time.October, 1), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Editable(tc.semester, tc.now))
		})
	}
}

func TestEditableMalformedIsLocked(t *testing.T) {
	now := date(2025, time.January, 1)
	for _, label := range []string{"", "garbage", "Fall", "Fall 20x5", "Autumn 2025", "Fall 2025 extra"} {
		assert.False(t, Editable(label, now), "label %q should be locked", label)
	}
}
