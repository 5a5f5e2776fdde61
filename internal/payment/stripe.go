package payment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/paymentintent"
)

// StripeGateway charges through Stripe Connect. The service fee is withheld
// as an application fee and the remainder transfers to the submerchant's
// connected account.
type StripeGateway struct {
	logger *slog.Logger
}

func NewStripeGateway(secretKey string, logger *slog.Logger) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{logger: logger}
}

var centsPerUnit = decimal.NewFromInt(100)

func cents(d decimal.Decimal) int64 {
	return d.Mul(centsPerUnit).Round(0).IntPart()
}

func (g *StripeGateway) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	params := &stripe.PaymentIntentParams{
		Params:               stripe.Params{Context: ctx},
		Amount:               stripe.Int64(cents(req.Amount)),
		Currency:             stripe.String(string(stripe.CurrencyUSD)),
		PaymentMethod:        stripe.String(req.PaymentToken),
		Confirm:              stripe.Bool(true),
		ApplicationFeeAmount: stripe.Int64(cents(req.ServiceFee)),
		TransferData: &stripe.PaymentIntentTransferDataParams{
			Destination: stripe.String(req.SubmerchantAccountRef),
		},
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	params.AddMetadata("billing_street", req.Billing.Street)
	params.AddMetadata("billing_locality", req.Billing.Locality)
	params.AddMetadata("billing_region", req.Billing.Region)
	params.AddMetadata("billing_postal_code", req.Billing.PostalCode)

	pi, err := paymentintent.New(params)
	if err != nil {
		g.logger.Warn("stripe charge failed", "err", err)
		return ChargeResult{}, err
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		g.logger.Warn("stripe charge did not settle", "intent_id", pi.ID, "status", pi.Status)
		return ChargeResult{}, fmt.Errorf("payment intent %s not settled: status %s", pi.ID, pi.Status)
	}
	return ChargeResult{TransactionRef: pi.ID}, nil
}
