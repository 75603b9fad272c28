package pricing

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rentwise/rentwise-backend/pkg/db/models"
	"github.com/rentwise/rentwise-backend/pkg/enums"
	"github.com/rentwise/rentwise-backend/pkg/types"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// AccessoryLine is one accessory selection on a quote.
type AccessoryLine struct {
	AccessoryID    uuid.UUID
	Quantity       int
	UnitPriceCents int64
}

// Input is everything needed to price a rental.
type Input struct {
	StartDate        time.Time
	EndDate          time.Time
	BasePriceCents   int64
	RentalPeriodDays int
	DepositCents     int64
	Accessories      []AccessoryLine
	Modifiers        []models.PricingModifier
}

// Breakdown is the priced result. TotalCents excludes the refundable deposit.
type Breakdown struct {
	RentalDays       int      `json:"rental_days"`
	Periods          int      `json:"periods"`
	BasePriceCents   int64    `json:"base_price_cents"`
	AccessoriesCents int64    `json:"accessories_cents"`
	SubtotalCents    int64    `json:"subtotal_cents"`
	DiscountCents    int64    `json:"discount_cents"`
	FeeCents         int64    `json:"fee_cents"`
	DepositCents     int64    `json:"deposit_cents"`
	TotalCents       int64    `json:"total_cents"`
	AppliedModifiers []string `json:"applied_modifiers"`
}

// AppliedModifiersString joins the applied codes for storage on the rental row.
func (b Breakdown) AppliedModifiersString() *string {
	if len(b.AppliedModifiers) == 0 {
		return nil
	}
	s := strings.Join(b.AppliedModifiers, ",")
	return &s
}

// Calculate prices a rental.
//
// Billable days are max(1, end-start) and are charged in whole rental periods. Percentages of
// the same kind and target are summed before a single rounding step, so the total never
// decreases as the rental gets longer and discounts never exceed the subtotal.
func Calculate(in Input) (Breakdown, error) {
	if in.EndDate.Before(in.StartDate) {
		return Breakdown{}, fmt.Errorf("end date must not be before start date")
	}
	if in.BasePriceCents < 0 || in.DepositCents < 0 {
		return Breakdown{}, fmt.Errorf("prices must not be negative")
	}
	period := in.RentalPeriodDays
	if period < 1 {
		period = 1
	}

	days := types.DaysBetween(in.StartDate, in.EndDate)
	if days < 1 {
		days = 1
	}
	periods := (days + period - 1) / period

	var accessories int64
	for _, line := range in.Accessories {
		if line.Quantity < 1 {
			return Breakdown{}, fmt.Errorf("accessory quantity must be at least 1")
		}
		if line.UnitPriceCents < 0 {
			return Breakdown{}, fmt.Errorf("accessory price must not be negative")
		}
		accessories += line.UnitPriceCents * int64(line.Quantity)
	}

	base := in.BasePriceCents * int64(periods)
	subtotal := base + accessories

	pct := sumPercentages(in.Modifiers)

	discountPct := capPercent(pct.subtotalDiscount)
	subtotalDec := decimal.NewFromInt(subtotal)
	discount := roundCents(subtotalDec.Mul(discountPct).Div(hundred))
	fee := roundCents(subtotalDec.Mul(pct.subtotalFee).Div(hundred))
	total := subtotal - discount + fee

	depositFactor := hundred.Sub(capPercent(pct.depositDiscount)).Add(pct.depositFee)
	deposit := roundCents(decimal.NewFromInt(in.DepositCents).Mul(depositFactor).Div(hundred))

	return Breakdown{
		RentalDays:       days,
		Periods:          periods,
		BasePriceCents:   base,
		AccessoriesCents: accessories,
		SubtotalCents:    subtotal,
		DiscountCents:    discount,
		FeeCents:         fee,
		DepositCents:     deposit,
		TotalCents:       total,
		AppliedModifiers: pct.codes,
	}, nil
}

type percentages struct {
	subtotalDiscount decimal.Decimal
	subtotalFee      decimal.Decimal
	depositDiscount  decimal.Decimal
	depositFee       decimal.Decimal
	codes            []string
}

func sumPercentages(mods []models.PricingModifier) percentages {
	p := percentages{
		subtotalDiscount: decimal.Zero,
		subtotalFee:      decimal.Zero,
		depositDiscount:  decimal.Zero,
		depositFee:       decimal.Zero,
	}
	seen := map[string]bool{}
	for _, m := range mods {
		if seen[m.Code] {
			continue
		}
		seen[m.Code] = true
		p.codes = append(p.codes, m.Code)

		switch {
		case m.AppliesTo == enums.ModifierTargetDeposit && m.Kind == enums.ModifierKindDiscount:
			p.depositDiscount = p.depositDiscount.Add(m.Percentage)
		case m.AppliesTo == enums.ModifierTargetDeposit:
			p.depositFee = p.depositFee.Add(m.Percentage)
		case m.Kind == enums.ModifierKindDiscount:
			p.subtotalDiscount = p.subtotalDiscount.Add(m.Percentage)
		default:
			p.subtotalFee = p.subtotalFee.Add(m.Percentage)
		}
	}
	sort.Strings(p.codes)
	return p
}

func capPercent(d decimal.Decimal) decimal.Decimal {
	if d.GreaterThan(hundred) {
		return hundred
	}
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// roundCents rounds half away from zero.
func roundCents(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}
