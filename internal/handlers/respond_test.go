package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/slotwise/slotwise/internal/fault"
)

func TestStatusForKind(t *testing.T) {
	cases := map[fault.Kind]int{
		fault.KindValidation:    http.StatusBadRequest,
		fault.KindPolicy:        http.StatusUnprocessableEntity,
		fault.KindConflict:      http.StatusConflict,
		fault.KindNotFound:      http.StatusNotFound,
		fault.KindPaymentFailed: http.StatusPaymentRequired,
		fault.KindInternal:      http.StatusInternalServerError,
		fault.KindUnknown:       http.StatusInternalServerError,
	}
	for kind, want := range cases {
		if got := statusForKind(kind); got != want {
			t.Errorf("statusForKind(%v) = %d, want %d", kind, got, want)
		}
	}
}

func TestMonthOffset(t *testing.T) {
	req := func(q string) *http.Request {
		return httptest.NewRequest(http.MethodGet, "/api/v1/schedules"+q, nil)
	}

	if n, ok := monthOffset(req("")); !ok || n != 0 {
		t.Fatalf("default should be (0, true), got (%d, %v)", n, ok)
	}
	if n, ok := monthOffset(req("?month_offset=2")); !ok || n != 2 {
		t.Fatalf("got (%d, %v), want (2, true)", n, ok)
	}
	if n, ok := monthOffset(req("?month_offset=-1")); !ok || n != -1 {
		t.Fatalf("got (%d, %v), want (-1, true)", n, ok)
	}
	if _, ok := monthOffset(req("?month_offset=next")); ok {
		t.Fatal("non-numeric offset should be rejected")
	}
}
