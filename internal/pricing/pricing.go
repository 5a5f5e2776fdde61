// Package pricing computes booking prices and platform service fees.
// All arithmetic is decimal; binary floats never touch money.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/slotwise/slotwise/internal/fault"
	"github.com/slotwise/slotwise/internal/model"
)

// Card-processing pass-through added on top of every base rate:
// total = base + base*2.6% + 0.20.
var (
	processingRate = decimal.RequireFromString("0.026")
	processingFlat = decimal.RequireFromString("0.20")
)

// premiumBuckets are the sub-hour durations a premium user may sell.
var premiumBuckets = map[int]bool{5: true, 15: true, 30: true, 60: true}

// ValidateDuration enforces the duration policy for the scheduled user's
// tier. Non-premium users sell whole hours only; premium users additionally
// sell 5/15/30-minute slots. Multi-hour bookings are allowed for both.
func ValidateDuration(minutes int, isPremium bool) error {
	if minutes > 60 && minutes%60 == 0 {
		return nil
	}
	if isPremium {
		if premiumBuckets[minutes] {
			return nil
		}
		return fault.Newf(fault.KindPolicy, fault.CodeInvalidDuration,
			"premium users accept durations of 5, 15, 30 or 60 minutes, got %d", minutes)
	}
	if minutes == 60 {
		return nil
	}
	return fault.Newf(fault.KindPolicy, fault.CodeInvalidDuration,
		"this user accepts 60-minute bookings only, got %d", minutes)
}

// TotalPrice returns the charge for a booking of the given length against
// the scheduled user's rate table, processing surcharge included.
//
// Durations that are a multiple of 60 bill at the flat sixty-minute rate
// regardless of the multiplier. Long-standing billing behavior; changing it
// needs product sign-off, not a code fix.
func TotalPrice(minutes int, scheduled model.User) (decimal.Decimal, error) {
	if err := ValidateDuration(minutes, scheduled.IsPremium); err != nil {
		return decimal.Zero, err
	}

	rate, err := baseRate(minutes, scheduled)
	if err != nil {
		return decimal.Zero, err
	}
	return rate.Add(rate.Mul(processingRate)).Add(processingFlat).Round(2), nil
}

func baseRate(minutes int, scheduled model.User) (decimal.Decimal, error) {
	var rate *decimal.Decimal
	var bucket string
	switch {
	case minutes == 5 && scheduled.IsPremium:
		rate, bucket = scheduled.FiveMinPrice, "5-minute"
	case minutes == 15 && scheduled.IsPremium:
		rate, bucket = scheduled.FifteenMinPrice, "15-minute"
	case minutes == 30 && scheduled.IsPremium:
		rate, bucket = scheduled.ThirtyMinPrice, "30-minute"
	default:
		rate, bucket = scheduled.SixtyMinPrice, "60-minute"
	}
	if rate == nil {
		return decimal.Zero, fault.New(fault.KindPolicy, fault.CodeMissingPriceConfig,
			fmt.Sprintf("user %s has no %s rate configured", scheduled.PublicID, bucket))
	}
	return *rate, nil
}

// ServiceFee is the platform's cut: totalPrice × the submerchant's
// configured percentage. A missing submerchant is an error; the fee
// controls the money split and must never default.
func ServiceFee(totalPrice decimal.Decimal, sub *model.Submerchant) (decimal.Decimal, error) {
	if sub == nil {
		return decimal.Zero, fault.New(fault.KindPolicy, fault.CodeInvalidSubmerchant,
			"no submerchant on record for the scheduled user")
	}
	return totalPrice.Mul(sub.ServiceFeePercent).Round(2), nil
}
