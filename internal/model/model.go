// Package model holds the persisted domain entities. Rows are keyed by an
// internal bigserial id plus a public opaque UUID; only the public id ever
// leaves the service.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// NotesMaxLen caps the free-text notes on a booking.
const NotesMaxLen = 512

// User is the projection of the users table the booking core needs: tier,
// rate table and home timezone. Account mechanics live elsewhere.
type User struct {
	PublicID  string
	Username  string
	IsPremium bool
	LocalTZ   string

	// Per-duration rates. Nil means the user has not configured that bucket.
	FiveMinPrice    *decimal.Decimal
	FifteenMinPrice *decimal.Decimal
	ThirtyMinPrice  *decimal.Decimal
	SixtyMinPrice   *decimal.Decimal
}

// AvailabilityWindow is an open time slot during which its owner is
// bookable. UTCStart/UTCEnd form a half-open range; DayNumber and
// MonthNumber are denormalized from UTCStart on every write and exist only
// for coarse bucket queries.
type AvailabilityWindow struct {
	PublicID    string
	OwnerUserID string
	UTCStart    time.Time
	UTCEnd      time.Time
	LocalTZ     string
	DayNumber   int
	MonthNumber int
	CreatedAt   time.Time
}

type BookingStatus string

const (
	// BookingPending exists only inside an open transaction while the
	// gateway charge is in flight. It must never be readable.
	BookingPending BookingStatus = "pending"
	// BookingCommitted is the terminal success state.
	BookingCommitted BookingStatus = "committed"
)

// Booking is a paid appointment between two users. Price and fee are fixed
// at creation; only Notes may change afterwards.
type Booking struct {
	PublicID         string
	SchedulingUserID string
	ScheduledUserID  string
	UTCStart         time.Time
	UTCEnd           time.Time
	DurationMinutes  int
	TotalPrice       decimal.Decimal
	ServiceFee       decimal.Decimal
	Notes            string
	Status           BookingStatus
	TransactionRef   string
	DayNumber        int
	MonthNumber      int
	CreatedAt        time.Time
}

// BookingUpdate is the typed partial update for a booking. Notes is the
// only mutable field; nil means "leave unchanged".
type BookingUpdate struct {
	Notes *string
}

// Payment records a settled gateway charge. Immutable; exactly one per
// committed booking.
type Payment struct {
	PublicID       string
	BaseAmount     decimal.Decimal // submerchant's share: total minus service fee
	ServiceFee     decimal.Decimal
	TotalPrice     decimal.Decimal
	SubmerchantRef string
	BookingID      string
	GatewayRef     string
	CreatedAt      time.Time
}

// Submerchant is the gateway sub-account money is routed through for a
// bookable user. Approval state is owned by gateway webhooks.
type Submerchant struct {
	PublicID          string
	OwnerUserID       string
	GatewayAccountRef string
	ServiceFeePercent decimal.Decimal
	IsApproved        bool
	IsRejected        bool
}

// Chargeable reports whether money may be routed through this submerchant.
func (s Submerchant) Chargeable() bool {
	return s.IsApproved && !s.IsRejected
}
