// Package payment orchestrates the money side of a booking: it owns the
// single transaction in which a booking is staged, charged through the
// gateway and committed, and it guarantees no committed booking exists
// without a settled charge.
package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// BillingAddress travels to the gateway verbatim for fraud screening.
type BillingAddress struct {
	Street     string `json:"street_address"`
	Locality   string `json:"locality"`
	Region     string `json:"region"`
	PostalCode string `json:"postal_code"`
}

// ChargeRequest is one attempt to move money. Amount is the full price the
// scheduling user pays; ServiceFee is the platform's cut, withheld from the
// submerchant payout.
type ChargeRequest struct {
	Amount                decimal.Decimal
	ServiceFee            decimal.Decimal
	PaymentToken          string
	SubmerchantAccountRef string
	Billing               BillingAddress
}

// ChargeResult reports a settled charge.
type ChargeResult struct {
	TransactionRef string
}

// Gateway executes charges against the external payment processor. A nil
// error means the money moved; any error means it did not.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
}
