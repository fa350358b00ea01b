// Package timex provides a time.Duration wrapper that can be decoded from
// configuration files either as a Go duration string ("30m", "8h") or as an
// integer number of nanoseconds.
package timex

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration wraps time.Duration for JSON and TOML decoding.
type Duration struct {
	time.Duration
}

var _ toml.Unmarshaler = (*Duration)(nil)

var errInvalidDuration = errors.New("invalid duration")

// UnmarshalJSON accepts "1m30s" style strings and integer nanoseconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: %v", errInvalidDuration, err)
		}
		d.Duration = parsed
		return nil
	default:
		return errInvalidDuration
	}
}

// MarshalJSON renders the duration as a string such as "30m0s".
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalTOML is preferred over UnmarshalText by BurntSushi/toml, so integer
// nanoseconds decode as they do from JSON.
func (d *Duration) UnmarshalTOML(v any) error {
	switch value := v.(type) {
	case int64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		return d.UnmarshalText([]byte(value))
	default:
		return fmt.Errorf("%w: unsupported TOML value %T", errInvalidDuration, v)
	}
}

// UnmarshalText parses Go duration strings such as "30m".
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: %v", errInvalidDuration, err)
	}
	d.Duration = parsed
	return nil
}
