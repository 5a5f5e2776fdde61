package merchant

import "github.com/slotwise/slotwise/internal/fault"

// Decision is the tagged variant for a gateway submerchant status event.
// Dispatch on it, never on raw webhook strings.
type Decision int

const (
	DecisionApproved Decision = iota + 1
	DecisionDeclined
)

// Notification is a parsed gateway webhook about a submerchant account.
type Notification struct {
	GatewayAccountRef string
	Decision          Decision
}

// ParseDecision maps a gateway webhook kind string to a Decision at the
// boundary. Unknown kinds are a validation error.
func ParseDecision(kind string) (Decision, error) {
	switch kind {
	case "sub_merchant_account_approved":
		return DecisionApproved, nil
	case "sub_merchant_account_declined":
		return DecisionDeclined, nil
	default:
		return 0, fault.Newf(fault.KindValidation, fault.CodeInvalidRange,
			"unknown webhook notification kind %q", kind)
	}
}
