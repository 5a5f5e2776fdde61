package timerange

import (
	"testing"
	"time"
)

func at(h, m int) time.Time {
	return time.Date(2026, 9, 14, h, m, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd time.Time
		want                       bool
	}{
		{"disjoint", at(9, 0), at(10, 0), at(11, 0), at(12, 0), false},
		{"touching endpoints do not overlap", at(9, 0), at(10, 0), at(10, 0), at(11, 0), false},
		{"partial", at(9, 0), at(10, 0), at(9, 30), at(10, 30), true},
		{"contained", at(9, 0), at(12, 0), at(10, 0), at(11, 0), true},
		{"identical", at(9, 0), at(10, 0), at(9, 0), at(10, 0), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Overlaps(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd); got != tc.want {
				t.Fatalf("Overlaps = %v, want %v", got, tc.want)
			}
			// Overlap is symmetric.
			if got := Overlaps(tc.bStart, tc.bEnd, tc.aStart, tc.aEnd); got != tc.want {
				t.Fatalf("Overlaps (swapped) = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestContains(t *testing.T) {
	if !Contains(at(9, 0), at(12, 0), at(9, 0), at(12, 0)) {
		t.Fatal("range should contain itself")
	}
	if !Contains(at(9, 0), at(12, 0), at(10, 15), at(10, 45)) {
		t.Fatal("inner range should be contained")
	}
	if Contains(at(9, 0), at(12, 0), at(8, 59), at(10, 0)) {
		t.Fatal("range starting before outer should not be contained")
	}
	if Contains(at(9, 0), at(12, 0), at(11, 0), at(12, 1)) {
		t.Fatal("range ending after outer should not be contained")
	}
}

func TestDurationMinutes(t *testing.T) {
	if got := DurationMinutes(at(9, 0), at(10, 0)); got != 60 {
		t.Fatalf("got %d, want 60", got)
	}
	// 90 seconds rounds up to 2 minutes.
	if got := DurationMinutes(at(9, 0), at(9, 0).Add(90*time.Second)); got != 2 {
		t.Fatalf("got %d, want 2", got)
	}
}

func TestParseInZone(t *testing.T) {
	got, err := ParseInZone("2026-09-14T10:00:00", "America/Chicago")
	if err != nil {
		t.Fatal(err)
	}
	// Chicago is UTC-5 in September (CDT).
	want := time.Date(2026, 9, 14, 15, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %s, want %s", got, want)
	}

	if _, err := ParseInZone("2026-09-14T10:00:00", "Mars/Olympus"); err == nil {
		t.Fatal("expected error for unknown zone")
	}
	if _, err := ParseInZone("not-a-time", "UTC"); err == nil {
		t.Fatal("expected error for malformed timestamp")
	}
}

func TestMonthBucket(t *testing.T) {
	now := time.Date(2026, 11, 20, 0, 0, 0, 0, time.UTC)
	if got := MonthBucket(now, 0); got != 11 {
		t.Fatalf("got %d, want 11", got)
	}
	if got := MonthBucket(now, 2); got != 1 {
		t.Fatalf("offset across year boundary: got %d, want 1", got)
	}
	if got := MonthBucket(now, -1); got != 10 {
		t.Fatalf("got %d, want 10", got)
	}
}
