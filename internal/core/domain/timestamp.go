package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Timestamp is an epoch timestamp in milliseconds.
// The content API sends either numbers or ISO-8601 strings; both decode here.
type Timestamp int64

// isoLayouts are tried in order when a timestamp arrives as a string.
var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05", // Directus omits the zone
	"2006-01-02",
}

// ParseTimestamp parses a numeric or ISO-8601 string.
// The empty string parses to zero.
func ParseTimestamp(s string) (Timestamp, error) {
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Timestamp(n), nil
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return TimestampFromTime(t), nil
		}
	}
	return 0, fmt.Errorf("%w: unrecognised timestamp %q", ErrInvalidInput, s)
}

// TimestampFromTime converts a time.Time to a Timestamp.
func TimestampFromTime(t time.Time) Timestamp {
	return Timestamp(t.UnixMilli())
}

// Time returns the timestamp as a UTC time.Time.
func (t Timestamp) Time() time.Time {
	return time.UnixMilli(int64(t)).UTC()
}

// IsZero reports whether the timestamp is unset.
func (t Timestamp) IsZero() bool {
	return t == 0
}

// String renders the raw epoch value, which is also its query-string form.
func (t Timestamp) String() string {
	return strconv.FormatInt(int64(t), 10)
}

// MarshalJSON encodes the timestamp as a JSON number.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalJSON accepts null, numbers, numeric strings and ISO-8601 strings.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = 0
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseTimestamp(s)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: timestamp: %v", ErrInvalidInput, err)
	}
	if i, err := n.Int64(); err == nil {
		*t = Timestamp(i)
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("%w: timestamp: %v", ErrInvalidInput, err)
	}
	*t = Timestamp(int64(f))
	return nil
}

// MaxTimestamp returns the largest of the given timestamps.
func MaxTimestamp(ts ...Timestamp) Timestamp {
	var max Timestamp
	for _, t := range ts {
		if t > max {
			max = t
		}
	}
	return max
}
