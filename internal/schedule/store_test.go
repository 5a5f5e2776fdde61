package schedule

import (
	"testing"
	"time"

	"github.com/slotwise/slotwise/internal/fault"
)

func TestValidateRange(t *testing.T) {
	day := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)

	if err := validateRange(day.Add(9*time.Hour), day.Add(10*time.Hour)); err != nil {
		t.Fatalf("valid range rejected: %v", err)
	}

	err := validateRange(day.Add(10*time.Hour), day.Add(10*time.Hour))
	if fault.CodeOf(err) != fault.CodeInvalidRange {
		t.Fatalf("empty range: code = %s, want %s", fault.CodeOf(err), fault.CodeInvalidRange)
	}

	err = validateRange(day.Add(11*time.Hour), day.Add(10*time.Hour))
	if fault.CodeOf(err) != fault.CodeInvalidRange {
		t.Fatalf("inverted range: code = %s, want %s", fault.CodeOf(err), fault.CodeInvalidRange)
	}

	err = validateRange(day.Add(23*time.Hour), day.Add(25*time.Hour))
	if fault.CodeOf(err) != fault.CodeCrossDayRange {
		t.Fatalf("midnight-spanning range: code = %s, want %s", fault.CodeOf(err), fault.CodeCrossDayRange)
	}
}
