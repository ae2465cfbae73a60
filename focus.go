package dailytasks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DaysPerWeek is the number of entries in a WeeklyFocus.
const DaysPerWeek = 7

// WeeklyFocus holds a free-form label for each day of the week, indexed by time.Weekday (0 is Sunday). In JSON
// it is an object keyed by the day index as a string, e.g., {"0":"Sunday","1":"Deep work",...}.
type WeeklyFocus [DaysPerWeek]string

// DefaultWeeklyFocus labels every day with its name.
func DefaultWeeklyFocus() WeeklyFocus {
	var f WeeklyFocus
	for day := range f {
		f[day] = time.Weekday(day).String()
	}
	return f
}

// Today returns the label for the weekday of t.
func (f WeeklyFocus) Today(t time.Time) string {
	return f[t.Weekday()]
}

// MarshalJSON implements json.Marshaler.
func (f WeeklyFocus) MarshalJSON() ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	buf.WriteRune('{')
	for day, label := range f {
		b, err := json.Marshal(label)
		if err != nil {
			return nil, err
		}
		if day > 0 {
			buf.WriteRune(',')
		}
		_, _ = fmt.Fprintf(buf, `"%d":`, day)
		buf.Write(b)
	}
	buf.WriteRune('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler. Days missing from the object, blank labels, and keys that are not
// a day index leave the weekday name in place, so the result is always fully populated.
func (f *WeeklyFocus) UnmarshalJSON(b []byte) error {
	var m map[string]string
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*f = DefaultWeeklyFocus()
	for k, label := range m {
		day, err := strconv.Atoi(k)
		if err != nil || day < 0 || day >= DaysPerWeek || strings.TrimSpace(label) == "" {
			continue
		}
		f[day] = label
	}
	return nil
}
