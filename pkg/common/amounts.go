package common

import (
	"github.com/shopspring/decimal"
)

// RoundMoney rounds an amount to 2 decimal places using decimal arithmetic
// to avoid float drift on repeated sums.
func RoundMoney(amount float64) float64 {
	v, _ := decimal.NewFromFloat(amount).Round(2).Float64()
	return v
}

// DeriveInvestmentAmount resolves the investment amount for an earning.
// Legacy rows carry only a commission figure; when the investment amount is
// absent but both the commission and its own rate are present, the investment
// is derived as commission * 100 / rate. Returns 0 when underivable.
func DeriveInvestmentAmount(investmentAmount, commissionEarned, commissionRate float64) float64 {
	if investmentAmount > 0 {
		return investmentAmount
	}
	if commissionEarned <= 0 || commissionRate <= 0 {
		return 0
	}
	derived := decimal.NewFromFloat(commissionEarned).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromFloat(commissionRate))
	v, _ := derived.Round(2).Float64()
	return v
}

// CommissionFor applies a relationship's commission rate (percent) to a
// summed investment amount.
func CommissionFor(investmentAmount, ratePercent float64) float64 {
	v, _ := decimal.NewFromFloat(investmentAmount).
		Mul(decimal.NewFromFloat(ratePercent)).
		Div(decimal.NewFromInt(100)).
		Round(2).Float64()
	return v
}

// ClampNonNegative floors an amount at zero. Balance subtractions are clamped
// at every step so a stale ledger can never surface a negative figure.
func ClampNonNegative(amount float64) float64 {
	if amount < 0 {
		return 0
	}
	return amount
}
