// Package clock provides the process-wide time source. Everything that
// compares against "now" takes a Clock so tests can pin the instant.
package clock

import "time"

type Clock interface {
	Now() time.Time
}

// System reads the wall clock in UTC.
type System struct{}

func (System) Now() time.Time { return time.Now().UTC() }

// Fixed always returns the same instant. Test helper.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time { return f.T }
