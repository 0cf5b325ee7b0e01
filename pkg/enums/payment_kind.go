package enums

import "fmt"

// PaymentKind distinguishes cash received from credit drawn out of the
// retailer's advance.
type PaymentKind string

const (
	PaymentKindCash        PaymentKind = "cash"
	PaymentKindAdvanceDraw PaymentKind = "advance_draw"
)

var validPaymentKinds = []PaymentKind{PaymentKindCash, PaymentKindAdvanceDraw}

// String implements fmt.Stringer.
func (k PaymentKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known PaymentKind.
func (k PaymentKind) IsValid() bool {
	for _, candidate := range validPaymentKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParsePaymentKind converts raw input into a PaymentKind.
func ParsePaymentKind(value string) (PaymentKind, error) {
	for _, candidate := range validPaymentKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment kind %q", value)
}
