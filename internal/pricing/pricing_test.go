package pricing

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/slotwise/slotwise/internal/fault"
	"github.com/slotwise/slotwise/internal/model"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestValidateDuration(t *testing.T) {
	cases := []struct {
		name    string
		minutes int
		premium bool
		wantErr bool
	}{
		{"standard 60", 60, false, false},
		{"standard multi-hour", 120, false, false},
		{"standard 45 rejected", 45, false, true},
		{"standard 30 rejected", 30, false, true},
		{"standard 90 rejected", 90, false, true},
		{"premium 5", 5, true, false},
		{"premium 15", 15, true, false},
		{"premium 30", 30, true, false},
		{"premium 60", 60, true, false},
		{"premium 180", 180, true, false},
		{"premium 45 rejected", 45, true, true},
		{"premium 10 rejected", 10, true, true},
		{"zero rejected", 0, true, true},
		{"negative rejected", -60, false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateDuration(tc.minutes, tc.premium)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if fault.KindOf(err) != fault.KindPolicy {
					t.Fatalf("kind = %s, want policy", fault.KindOf(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestTotalPrice_StandardUser(t *testing.T) {
	u := model.User{PublicID: "u1", SixtyMinPrice: dec("15.00")}

	got, err := TotalPrice(60, u)
	if err != nil {
		t.Fatal(err)
	}
	// 15.00 + 15.00*0.026 + 0.20 = 15.59
	if want := decimal.RequireFromString("15.59"); !got.Equal(want) {
		t.Fatalf("got %s, want %s", got, want)
	}

	// Multiples of 60 reuse the flat hourly rate.
	got2, err := TotalPrice(120, u)
	if err != nil {
		t.Fatal(err)
	}
	if !got2.Equal(got) {
		t.Fatalf("120-minute price %s should equal 60-minute price %s", got2, got)
	}
}

func TestTotalPrice_PremiumBuckets(t *testing.T) {
	u := model.User{
		PublicID:        "u2",
		IsPremium:       true,
		FiveMinPrice:    dec("2.00"),
		FifteenMinPrice: dec("5.00"),
		ThirtyMinPrice:  dec("9.00"),
		SixtyMinPrice:   dec("16.00"),
	}
	cases := []struct {
		minutes int
		want    string
	}{
		{5, "2.25"},   // 2.00 + 0.052 + 0.20 = 2.252 -> 2.25
		{15, "5.33"},  // 5.00 + 0.13 + 0.20
		{30, "9.43"},  // 9.00 + 0.234 + 0.20 = 9.434 -> 9.43
		{60, "16.62"}, // 16.00 + 0.416 + 0.20
	}
	for _, tc := range cases {
		got, err := TotalPrice(tc.minutes, u)
		if err != nil {
			t.Fatalf("minutes=%d: %v", tc.minutes, err)
		}
		if want := decimal.RequireFromString(tc.want); !got.Equal(want) {
			t.Fatalf("minutes=%d: got %s, want %s", tc.minutes, got, want)
		}
	}
}

func TestTotalPrice_MissingRate(t *testing.T) {
	_, err := TotalPrice(60, model.User{PublicID: "u3"})
	if err == nil {
		t.Fatal("expected error for unset sixty-minute rate")
	}
	if fault.CodeOf(err) != fault.CodeMissingPriceConfig {
		t.Fatalf("code = %s, want %s", fault.CodeOf(err), fault.CodeMissingPriceConfig)
	}

	premium := model.User{PublicID: "u4", IsPremium: true, SixtyMinPrice: dec("16.00")}
	if _, err := TotalPrice(15, premium); fault.CodeOf(err) != fault.CodeMissingPriceConfig {
		t.Fatalf("premium bucket without rate: code = %s, want %s",
			fault.CodeOf(err), fault.CodeMissingPriceConfig)
	}
}

func TestServiceFee(t *testing.T) {
	total := decimal.RequireFromString("15.59")
	sub := &model.Submerchant{ServiceFeePercent: decimal.RequireFromString("0.025")}

	got, err := ServiceFee(total, sub)
	if err != nil {
		t.Fatal(err)
	}
	// 15.59 * 0.025 = 0.38975 -> 0.39
	if want := decimal.RequireFromString("0.39"); !got.Equal(want) {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestServiceFee_MissingSubmerchant(t *testing.T) {
	_, err := ServiceFee(decimal.RequireFromString("20.00"), nil)
	if err == nil {
		t.Fatal("a missing submerchant must never default the fee")
	}
	if fault.CodeOf(err) != fault.CodeInvalidSubmerchant {
		t.Fatalf("code = %s, want %s", fault.CodeOf(err), fault.CodeInvalidSubmerchant)
	}
}
