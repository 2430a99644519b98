package types

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Timestamp is seconds since the Unix epoch as carried on the wire.
//
// Producers write fractional seconds. The signed payloads embed the textual
// form, so String must render the same digits on every implementation: the
// shortest round-trip decimal with a ".0" suffix for whole values, or a bare
// integer when the wire value itself had no fractional part.
type Timestamp struct {
	Seconds  float64
	Integral bool
}

// TimestampFromTime converts t to a fractional wire timestamp.
func TimestampFromTime(t time.Time) Timestamp {
	return Timestamp{Seconds: float64(t.UnixNano()) / 1e9}
}

// IsZero reports whether the timestamp is unset.
func (t Timestamp) IsZero() bool { return t.Seconds == 0 }

// Time returns the timestamp as a time.Time.
func (t Timestamp) Time() time.Time {
	sec, frac := math.Modf(t.Seconds)
	return time.Unix(int64(sec), int64(frac*1e9))
}

// Age returns how long before now the timestamp was produced.
func (t Timestamp) Age(now time.Time) time.Duration {
	return now.Sub(t.Time())
}

// String renders the timestamp in its signed-payload form.
func (t Timestamp) String() string {
	if t.Integral {
		return strconv.FormatFloat(math.Trunc(t.Seconds), 'f', 0, 64)
	}
	s := strconv.FormatFloat(t.Seconds, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// MarshalJSON writes the payload form as a JSON number.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalJSON accepts any finite JSON number.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*t = Timestamp{}
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("timestamp: non-finite value %q", s)
	}
	*t = Timestamp{Seconds: f, Integral: !strings.ContainsAny(s, ".eE")}
	return nil
}
