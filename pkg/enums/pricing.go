package enums

import "fmt"

// ModifierKind distinguishes discounts from surcharges.
type ModifierKind string

const (
	ModifierKindDiscount ModifierKind = "discount"
	ModifierKindFee      ModifierKind = "fee"
)

// IsValid reports whether the value is a known ModifierKind.
func (k ModifierKind) IsValid() bool {
	return k == ModifierKindDiscount || k == ModifierKindFee
}

// ParseModifierKind converts raw input into a ModifierKind.
func ParseModifierKind(value string) (ModifierKind, error) {
	k := ModifierKind(value)
	if !k.IsValid() {
		return "", fmt.Errorf("invalid modifier kind %q", value)
	}
	return k, nil
}

// ModifierTarget names the amount a pricing modifier is applied to.
type ModifierTarget string

const (
	ModifierTargetSubtotal ModifierTarget = "subtotal"
	ModifierTargetDeposit  ModifierTarget = "deposit"
)

// IsValid reports whether the value is a known ModifierTarget.
func (t ModifierTarget) IsValid() bool {
	return t == ModifierTargetSubtotal || t == ModifierTargetDeposit
}

// ParseModifierTarget converts raw input into a ModifierTarget.
func ParseModifierTarget(value string) (ModifierTarget, error) {
	t := ModifierTarget(value)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid modifier target %q", value)
	}
	return t, nil
}
