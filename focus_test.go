package dailytasks_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/nicolagi/dailytasks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeeklyFocusMarshal(t *testing.T) {
	focus := dailytasks.DefaultWeeklyFocus()
	focus[time.Wednesday] = `"Admin" & email`
	b, err := json.Marshal(focus)
	require.Nil(t, err)
	assert.JSONEq(t, `{
		"0": "Sunday",
		"1": "Monday",
		"2": "Tuesday",
		"3": "\"Admin\" & email",
		"4": "Thursday",
		"5": "Friday",
		"6": "Saturday"
	}`, string(b))
}

func TestWeeklyFocusUnmarshalFillsMissingDays(t *testing.T) {
	testCases := []struct {
		in       string
		expected func() dailytasks.WeeklyFocus
	}{
		{
			in:       `{}`,
			expected: dailytasks.DefaultWeeklyFocus,
		},
		{
			in: `{"1":"Gym","9":"ignored","x":"ignored","-1":"ignored"}`,
			expected: func() dailytasks.WeeklyFocus {
				f := dailytasks.DefaultWeeklyFocus()
				f[time.Monday] = "Gym"
				return f
			},
		},
		{
			in: `{"0":"","2":"  ","3":"Writing"}`,
			expected: func() dailytasks.WeeklyFocus {
				f := dailytasks.DefaultWeeklyFocus()
				f[time.Wednesday] = "Writing"
				return f
			},
		},
		{
			in: `{"0":"Rest","1":"a","2":"b","3":"c","4":"d","5":"e","6":"Chores"}`,
			expected: func() dailytasks.WeeklyFocus {
				return dailytasks.WeeklyFocus{"Rest", "a", "b", "c", "d", "e", "Chores"}
			},
		},
	}
	for _, tc := range testCases {
		t.Run("", func(t *testing.T) {
			var actual dailytasks.WeeklyFocus
			require.Nil(t, json.Unmarshal([]byte(tc.in), &actual))
			assert.Equal(t, tc.expected(), actual)
		})
	}
}

func TestWeeklyFocusUnmarshalRejectsNonObjects(t *testing.T) {
	var focus dailytasks.WeeklyFocus
	assert.NotNil(t, json.Unmarshal([]byte(`["Sunday"]`), &focus))
	assert.NotNil(t, json.Unmarshal([]byte(`{"1":2}`), &focus))
}

func TestWeeklyFocusToday(t *testing.T) {
	focus := dailytasks.DefaultWeeklyFocus()
	focus[time.Saturday] = "Hike"
	saturday := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "Hike", focus.Today(saturday))
	assert.Equal(t, "Sunday", focus.Today(saturday.AddDate(0, 0, 1)))
}
