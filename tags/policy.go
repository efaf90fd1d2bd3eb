package tags

import (
	"strings"

	"github.com/kbukum/datumkit/errors"
)

// Policy resolves key collisions when two maps are merged.
type Policy uint8

const (
	// Override lets the right-hand map win.
	Override Policy = iota
	// Keep lets the left-hand map win.
	Keep
	// Error fails the merge with TAG_CONFLICT.
	Error
)

func (p Policy) String() string {
	switch p {
	case Override:
		return "override"
	case Keep:
		return "keep"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// ParsePolicy parses "override", "keep" or "error". The empty string is Override.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "override":
		return Override, nil
	case "keep":
		return Keep, nil
	case "error":
		return Error, nil
	default:
		return Override, errors.InvalidInput("policy", "must be one of override, keep, error (got "+s+")")
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Policy) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Policy) UnmarshalText(b []byte) error {
	v, err := ParsePolicy(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
