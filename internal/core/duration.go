// Package core provides the fade, lifetime and merge rules for on-screen messages.
// Everything here is pure: no state, no logging.
package core

import (
	"fmt"

	"github.com/jmylchreest/onscreen/internal/model"
)

// Lifetimes in seconds for each duration class.
const (
	ShortSeconds     = 2.0
	NormalSeconds    = 4.0
	LongSeconds      = 12.0
	ExtraLongSeconds = 25.0
)

// DurationFor returns the fade lifetime in seconds for class.
// Values outside the DurationClass set return model.ErrInvalidDurationClass.
func DurationFor(class model.DurationClass) (float64, error) {
	switch class {
	case model.DurationShort:
		return ShortSeconds, nil
	case model.DurationNormal:
		return NormalSeconds, nil
	case model.DurationLong:
		return LongSeconds, nil
	case model.DurationExtraLong:
		return ExtraLongSeconds, nil
	default:
		return 0, fmt.Errorf("%w: %d", model.ErrInvalidDurationClass, int(class))
	}
}
