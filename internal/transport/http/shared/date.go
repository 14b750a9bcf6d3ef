package shared

import "time"

const dateLayout = "2006-01-02"

// ParseDate reads an optional calendar date. An empty value yields the zero
// time; RFC3339 timestamps are reduced to their UTC date.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		y, m, d := parsed.UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse(dateLayout, value)
}
