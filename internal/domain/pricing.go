package domain

import "math"

const (
	MinEuros = 1
	MaxEuros = 999

	// MinChargeCents is the smallest amount a checkout may charge.
	MinChargeCents = 100

	// MaxPackageRedbucks keeps rb*100 under the provider's 99,999,999 cent
	// ceiling for a single charge.
	MaxPackageRedbucks = 999_999
)

// ClampEuros floors v and clamps it to [MinEuros, MaxEuros].
func ClampEuros(v float64) int64 {
	if math.IsNaN(v) {
		return MinEuros
	}
	f := math.Floor(v)
	if f < MinEuros {
		return MinEuros
	}
	if f > MaxEuros {
		return MaxEuros
	}
	return int64(f)
}

// BonusPct is the extra redbucks share granted on custom amounts.
func BonusPct(euros int64) float64 {
	switch {
	case euros >= 200:
		return 0.25
	case euros >= 100:
		return 0.20
	case euros >= 50:
		return 0.15
	case euros >= 20:
		return 0.10
	case euros >= 10:
		return 0.05
	}
	return 0
}

// CustomRedbucks converts an amount actually paid into redbucks including the bonus.
// The paid amount is clamped so provider rounding cannot push it out of range.
func CustomRedbucks(amountPaidMinor int64) int64 {
	base := int64(MinEuros)
	if amountPaidMinor > 0 {
		base = ClampEuros(float64(amountPaidMinor / 100))
	}
	return base + int64(math.Round(float64(base)*BonusPct(base)))
}

var sanctionPrices = map[SanctionAction]int64{
	ActionUnban:        25,
	ActionTimedUnban:   15,
	ActionUnwarn:       10,
	ActionDiscordUnban: 10,
}

var sanctionLabels = map[SanctionAction]string{
	ActionUnban:        "Permanent unban",
	ActionTimedUnban:   "30-day unban",
	ActionUnwarn:       "Warning removal",
	ActionDiscordUnban: "Discord unban",
}

// SanctionPriceEuros returns the price of an action. Unknown actions cost the unwarn tier.
func SanctionPriceEuros(a SanctionAction) int64 {
	if p, ok := sanctionPrices[a]; ok {
		return p
	}
	return sanctionPrices[ActionUnwarn]
}

func SanctionLabel(a SanctionAction) string {
	if l, ok := sanctionLabels[a]; ok {
		return l
	}
	return "Sanction removal"
}
