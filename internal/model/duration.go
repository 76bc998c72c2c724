package model

import (
	"errors"
	"fmt"
	"strings"
)

// DurationClass selects how long a message stays on screen.
// It is a closed set; see core.DurationFor for the lifetimes.
type DurationClass int

const (
	DurationShort DurationClass = iota
	DurationNormal
	DurationLong
	DurationExtraLong
)

// ErrInvalidDurationClass is returned for values outside the DurationClass set.
var ErrInvalidDurationClass = errors.New("invalid duration class")

// DurationClassNames maps duration classes to their configuration names.
var DurationClassNames = map[DurationClass]string{
	DurationShort:     "short",
	DurationNormal:    "normal",
	DurationLong:      "long",
	DurationExtraLong: "extra_long",
}

// DurationClasses returns every valid duration class, shortest first.
func DurationClasses() []DurationClass {
	return []DurationClass{DurationShort, DurationNormal, DurationLong, DurationExtraLong}
}

// Valid reports whether c is a member of the DurationClass set.
func (c DurationClass) Valid() bool {
	return c >= DurationShort && c <= DurationExtraLong
}

// String returns the configuration name of the class.
func (c DurationClass) String() string {
	if name, ok := DurationClassNames[c]; ok {
		return name
	}
	return fmt.Sprintf("DurationClass(%d)", int(c))
}

// ParseDurationClass parses a class name. Matching is case-insensitive and
// accepts "-" in place of "_" (so "extra-long" works on the command line).
func ParseDurationClass(s string) (DurationClass, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	if name == "extralong" {
		name = "extra_long"
	}
	for class, n := range DurationClassNames {
		if n == name {
			return class, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDurationClass, s)
}

// MarshalText implements encoding.TextMarshaler.
func (c DurationClass) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDurationClass, int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML and YAML parsing.
func (c *DurationClass) UnmarshalText(text []byte) error {
	parsed, err := ParseDurationClass(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
