// Package booking stages and stores bookings. The engine validates a
// proposed booking against the scheduled user's open availability and the
// duration/pricing policy, then writes a PENDING row inside the caller's
// transaction. A PENDING booking is invisible to every reader; it becomes
// real only when the payment orchestrator commits the transaction.
package booking

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/slotwise/slotwise/internal/clock"
	"github.com/slotwise/slotwise/internal/fault"
	"github.com/slotwise/slotwise/internal/model"
	"github.com/slotwise/slotwise/internal/pricing"
	"github.com/slotwise/slotwise/internal/timerange"
)

// WindowFinder locates an open availability window covering a range,
// taking a row lock that serializes concurrent booking attempts.
type WindowFinder interface {
	FindOpenWindowForUpdate(ctx context.Context, tx pgx.Tx, ownerID string, start, end time.Time) (model.AvailabilityWindow, error)
}

// UserDirectory resolves the scheduled user's tier and rate table.
type UserDirectory interface {
	Get(ctx context.Context, publicID string) (model.User, error)
}

// Writer persists a staged booking inside the caller's transaction.
type Writer interface {
	Insert(ctx context.Context, tx pgx.Tx, b *model.Booking) error
}

type Engine struct {
	windows  WindowFinder
	users    UserDirectory
	bookings Writer
	clock    clock.Clock
	logger   *slog.Logger
}

func NewEngine(windows WindowFinder, users UserDirectory, bookings Writer, clk clock.Clock, logger *slog.Logger) *Engine {
	return &Engine{
		windows:  windows,
		users:    users,
		bookings: bookings,
		clock:    clk,
		logger:   logger,
	}
}

// Request is a proposed booking in the scheduling user's local time.
type Request struct {
	SchedulingUserID string
	ScheduledUserID  string
	LocalStart       string
	LocalEnd         string
	LocalTZ          string
	Notes            string
}

// Stage validates req and writes a PENDING booking row in tx. All
// validation and policy errors surface before the insert. Nothing here
// commits; the caller owns the transaction boundary.
func (e *Engine) Stage(ctx context.Context, tx pgx.Tx, req Request, sub model.Submerchant) (*model.Booking, error) {
	start, err := timerange.ParseInZone(req.LocalStart, req.LocalTZ)
	if err != nil {
		return nil, err
	}
	end, err := timerange.ParseInZone(req.LocalEnd, req.LocalTZ)
	if err != nil {
		return nil, err
	}

	if !start.Before(end) {
		return nil, fault.New(fault.KindValidation, fault.CodeInvalidRange,
			"start must be before end")
	}
	if !timerange.SameDay(start, end) {
		return nil, fault.New(fault.KindValidation, fault.CodeCrossDayRange,
			"a booking must start and end on the same day")
	}
	if start.Before(e.clock.Now()) {
		return nil, fault.New(fault.KindValidation, fault.CodeInThePast,
			"cannot book time in the past")
	}
	if len(req.Notes) > model.NotesMaxLen {
		return nil, fault.Newf(fault.KindValidation, fault.CodeInvalidRange,
			"notes exceed %d characters", model.NotesMaxLen)
	}

	if _, err := e.windows.FindOpenWindowForUpdate(ctx, tx, req.ScheduledUserID, start, end); err != nil {
		return nil, err
	}

	scheduled, err := e.users.Get(ctx, req.ScheduledUserID)
	if err != nil {
		return nil, err
	}

	minutes := timerange.DurationMinutes(start, end)
	total, err := pricing.TotalPrice(minutes, scheduled)
	if err != nil {
		return nil, err
	}
	fee, err := pricing.ServiceFee(total, &sub)
	if err != nil {
		return nil, err
	}

	b := &model.Booking{
		PublicID:         uuid.NewString(),
		SchedulingUserID: req.SchedulingUserID,
		ScheduledUserID:  req.ScheduledUserID,
		UTCStart:         start,
		UTCEnd:           end,
		DurationMinutes:  minutes,
		TotalPrice:       total,
		ServiceFee:       fee,
		Notes:            req.Notes,
		Status:           model.BookingPending,
		DayNumber:        start.Day(),
		MonthNumber:      int(start.Month()),
	}
	if err := e.bookings.Insert(ctx, tx, b); err != nil {
		return nil, err
	}

	e.logger.Info("booking staged",
		"booking_id", b.PublicID,
		"scheduled_user_id", b.ScheduledUserID,
		"duration_minutes", b.DurationMinutes,
	)
	return b, nil
}
