package merchant

import (
	"testing"

	"github.com/slotwise/slotwise/internal/fault"
)

func TestParseDecision(t *testing.T) {
	d, err := ParseDecision("sub_merchant_account_approved")
	if err != nil || d != DecisionApproved {
		t.Fatalf("got (%v, %v), want (DecisionApproved, nil)", d, err)
	}

	d, err = ParseDecision("sub_merchant_account_declined")
	if err != nil || d != DecisionDeclined {
		t.Fatalf("got (%v, %v), want (DecisionDeclined, nil)", d, err)
	}

	if _, err := ParseDecision("sub_merchant_account_suspended"); fault.KindOf(err) != fault.KindValidation {
		t.Fatalf("unknown kind should be a validation error, got %v", err)
	}
}
