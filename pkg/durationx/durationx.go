// Package durationx parses the compact TTL strings used in configuration,
// e.g. "15m" or "7d". The grammar is <integer><unit> with unit one of
// s, m, h or d. Anything else is rejected.
package durationx

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

var ErrInvalidFormat = errors.New("durationx: invalid duration format")

var units = map[byte]time.Duration{
	's': time.Second,
	'm': time.Minute,
	'h': time.Hour,
	'd': 24 * time.Hour,
}

// Parse converts s into a time.Duration.
func Parse(s string) (time.Duration, error) {
	if len(s) < 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}

	unit, ok := units[s[len(s)-1]]
	if !ok {
		return 0, fmt.Errorf("%w: %q: unknown unit", ErrInvalidFormat, s)
	}

	digits := s[:len(s)-1]
	for i := range len(digits) {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
		}
	}

	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	if n > math.MaxInt64/int64(unit) {
		return 0, fmt.Errorf("%w: %q: out of range", ErrInvalidFormat, s)
	}

	return time.Duration(n) * unit, nil
}

// Duration is a time.Duration that decodes from the compact TTL grammar. It
// plugs into cleanenv through SetValue and into YAML/JSON through
// UnmarshalText. It is not a struct so cleanenv does not descend into it.
type Duration time.Duration

// SetValue implements cleanenv.Setter.
func (d *Duration) SetValue(s string) error {
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	return d.SetValue(string(text))
}

// MarshalText writes the largest whole unit, so 168h becomes "7d".
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d Duration) String() string {
	v := time.Duration(d)
	for _, u := range []struct {
		suffix string
		size   time.Duration
	}{{"d", 24 * time.Hour}, {"h", time.Hour}, {"m", time.Minute}} {
		if v != 0 && v%u.size == 0 {
			return strconv.FormatInt(int64(v/u.size), 10) + u.suffix
		}
	}
	if v%time.Second == 0 {
		return strconv.FormatInt(int64(v/time.Second), 10) + "s"
	}
	return v.String()
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Of wraps a plain duration, mostly for tests and defaults.
func Of(v time.Duration) Duration { return Duration(v) }
