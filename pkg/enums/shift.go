package enums

import (
	"fmt"
	"strings"
)

// Shift is the half-day delivery slot an order belongs to. Persisted as a
// boolean where true means AM.
type Shift string

const (
	ShiftAM Shift = "AM"
	ShiftPM Shift = "PM"
)

var validShifts = []Shift{ShiftAM, ShiftPM}

// String implements fmt.Stringer.
func (s Shift) String() string {
	return string(s)
}

// IsValid reports whether the value is a known Shift.
func (s Shift) IsValid() bool {
	for _, candidate := range validShifts {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsAM returns the persisted boolean form.
func (s Shift) IsAM() bool {
	return s == ShiftAM
}

// ShiftFromBool converts the persisted form back into a Shift.
func ShiftFromBool(isAM bool) Shift {
	if isAM {
		return ShiftAM
	}
	return ShiftPM
}

// ParseShift converts raw input into a Shift. Matching is case-insensitive.
func ParseShift(value string) (Shift, error) {
	normalized := Shift(strings.ToUpper(strings.TrimSpace(value)))
	if normalized.IsValid() {
		return normalized, nil
	}
	return "", fmt.Errorf("invalid shift %q", value)
}
