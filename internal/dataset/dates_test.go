package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
		ok    bool
	}{
		{"day-month-year", "15-03-2024", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{"iso", "2024-03-15", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{"month/day before day/month", "03/04/2024", time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), true},
		{"day/month when month/day fails", "25/12/2024", time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC), true},
		{"timestamp truncated", "2024-03-15 13:45:00", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{"rfc3339", "2024-03-15T23:00:00Z", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{"surrounding whitespace", "  2024-03-15 ", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{"unpadded month/day", "5/1/2024", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), true},
		{"unpadded day", "12/3/2024", time.Date(2024, 12, 3, 0, 0, 0, 0, time.UTC), true},
		{"unpadded iso", "2024-1-5", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), true},
		{"unpadded day-month-year", "5-1-2024", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), true},
		{"unpadded day/month when month/day fails", "25/1/2024", time.Date(2024, 1, 25, 0, 0, 0, 0, time.UTC), true},
		{"empty", "", time.Time{}, false},
		{"garbage", "not a date", time.Time{}, false},
		{"impossible day", "2024-02-30", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.input, nil)
			assert.Equal(t, tt.ok, ok)
			assert.True(t, tt.want.Equal(got), "got %s want %s", got, tt.want)
		})
	}
}

func TestParseDateCustomLayouts(t *testing.T) {
	_, ok := ParseDate("2024-03-15", []string{"02/01/2006"})
	assert.False(t, ok)

	got, ok := ParseDate("15/03/2024", []string{"02/01/2006"})
	assert.True(t, ok)
	assert.Equal(t, time.March, got.Month())
}
