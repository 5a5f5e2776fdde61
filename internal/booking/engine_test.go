package booking

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slotwise/slotwise/internal/clock"
	"github.com/slotwise/slotwise/internal/fault"
	"github.com/slotwise/slotwise/internal/model"
)

// fakeTx satisfies pgx.Tx through embedding; the engine only threads the
// transaction through to its ports, so no method is ever called on it.
type fakeTx struct{ pgx.Tx }

type fakeWindows struct {
	window model.AvailabilityWindow
	err    error

	gotOwner string
	gotStart time.Time
	gotEnd   time.Time
	calls    int
}

func (f *fakeWindows) FindOpenWindowForUpdate(_ context.Context, _ pgx.Tx, ownerID string, start, end time.Time) (model.AvailabilityWindow, error) {
	f.calls++
	f.gotOwner = ownerID
	f.gotStart = start
	f.gotEnd = end
	return f.window, f.err
}

type fakeUsers struct {
	user model.User
	err  error
}

func (f *fakeUsers) Get(context.Context, string) (model.User, error) {
	return f.user, f.err
}

type fakeWriter struct {
	err   error
	got   *model.Booking
	calls int
}

func (f *fakeWriter) Insert(_ context.Context, _ pgx.Tx, b *model.Booking) error {
	f.calls++
	f.got = b
	return f.err
}

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func testEngine(windows *fakeWindows, users *fakeUsers, writer *fakeWriter, now time.Time) *Engine {
	return NewEngine(windows, users, writer, clock.Fixed{T: now}, slog.New(slog.DiscardHandler))
}

func chargeableSub() model.Submerchant {
	return model.Submerchant{
		PublicID:          "sub-1",
		GatewayAccountRef: "acct_123",
		ServiceFeePercent: decimal.RequireFromString("0.025"),
		IsApproved:        true,
	}
}

func TestStageHappyPath(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	windows := &fakeWindows{}
	users := &fakeUsers{user: model.User{PublicID: "bob", SixtyMinPrice: price("15.00")}}
	writer := &fakeWriter{}
	eng := testEngine(windows, users, writer, now)

	b, err := eng.Stage(context.Background(), fakeTx{}, Request{
		SchedulingUserID: "alice",
		ScheduledUserID:  "bob",
		LocalStart:       "2026-03-14T09:00:00",
		LocalEnd:         "2026-03-14T10:00:00",
		LocalTZ:          "UTC",
		Notes:            "quarterly review",
	}, chargeableSub())
	require.NoError(t, err)

	assert.Equal(t, model.BookingPending, b.Status)
	assert.Equal(t, 60, b.DurationMinutes)
	assert.Equal(t, "15.59", b.TotalPrice.StringFixed(2))
	assert.Equal(t, "0.39", b.ServiceFee.StringFixed(2))
	assert.Equal(t, 14, b.DayNumber)
	assert.Equal(t, 3, b.MonthNumber)
	assert.NotEmpty(t, b.PublicID)

	assert.Equal(t, "bob", windows.gotOwner)
	assert.Equal(t, time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC), windows.gotStart)
	assert.Equal(t, 1, writer.calls)
	assert.Same(t, b, writer.got)
}

func TestStageConvertsLocalTimeToUTC(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	windows := &fakeWindows{}
	users := &fakeUsers{user: model.User{SixtyMinPrice: price("15.00")}}
	eng := testEngine(windows, users, &fakeWriter{}, now)

	// 09:00 Chicago in March is CDT, UTC-5.
	_, err := eng.Stage(context.Background(), fakeTx{}, Request{
		ScheduledUserID: "bob",
		LocalStart:      "2026-03-14T09:00:00",
		LocalEnd:        "2026-03-14T10:00:00",
		LocalTZ:         "America/Chicago",
	}, chargeableSub())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 14, 14, 0, 0, 0, time.UTC), windows.gotStart)
}

func TestStageRejectsPastStart(t *testing.T) {
	now := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	windows := &fakeWindows{}
	eng := testEngine(windows, &fakeUsers{}, &fakeWriter{}, now)

	_, err := eng.Stage(context.Background(), fakeTx{}, Request{
		ScheduledUserID: "bob",
		LocalStart:      "2026-03-14T09:00:00",
		LocalEnd:        "2026-03-14T10:00:00",
		LocalTZ:         "UTC",
	}, chargeableSub())
	assert.Equal(t, fault.CodeInThePast, fault.CodeOf(err))
	assert.Zero(t, windows.calls)
}

func TestStageRejectsInvalidRanges(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	eng := testEngine(&fakeWindows{}, &fakeUsers{}, &fakeWriter{}, now)

	tests := []struct {
		name     string
		start    string
		end      string
		wantCode string
	}{
		{"inverted", "2026-03-14T10:00:00", "2026-03-14T09:00:00", fault.CodeInvalidRange},
		{"empty", "2026-03-14T09:00:00", "2026-03-14T09:00:00", fault.CodeInvalidRange},
		{"crosses midnight", "2026-03-14T23:00:00", "2026-03-15T01:00:00", fault.CodeCrossDayRange},
		{"malformed end", "2026-03-14T09:00:00", "garbage", fault.CodeInvalidRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eng.Stage(context.Background(), fakeTx{}, Request{
				ScheduledUserID: "bob",
				LocalStart:      tt.start,
				LocalEnd:        tt.end,
				LocalTZ:         "UTC",
			}, chargeableSub())
			assert.Equal(t, tt.wantCode, fault.CodeOf(err))
		})
	}
}

func TestStageNoOpenWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	windows := &fakeWindows{err: fault.New(fault.KindNotFound, fault.CodeNoOpenAvailability,
		"no open availability covers the requested time")}
	writer := &fakeWriter{}
	eng := testEngine(windows, &fakeUsers{}, writer, now)

	_, err := eng.Stage(context.Background(), fakeTx{}, Request{
		ScheduledUserID: "bob",
		LocalStart:      "2026-03-14T09:00:00",
		LocalEnd:        "2026-03-14T10:00:00",
		LocalTZ:         "UTC",
	}, chargeableSub())
	assert.Equal(t, fault.CodeNoOpenAvailability, fault.CodeOf(err))
	assert.Zero(t, writer.calls)
}

func TestStageRejectsDisallowedDuration(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	users := &fakeUsers{user: model.User{IsPremium: false, SixtyMinPrice: price("15.00")}}
	writer := &fakeWriter{}
	eng := testEngine(&fakeWindows{}, users, writer, now)

	_, err := eng.Stage(context.Background(), fakeTx{}, Request{
		ScheduledUserID: "bob",
		LocalStart:      "2026-03-14T09:00:00",
		LocalEnd:        "2026-03-14T09:45:00",
		LocalTZ:         "UTC",
	}, chargeableSub())
	assert.Equal(t, fault.KindPolicy, fault.KindOf(err))
	assert.Equal(t, fault.CodeInvalidDuration, fault.CodeOf(err))
	assert.Zero(t, writer.calls)
}

func TestStageRejectsOverlongNotes(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	windows := &fakeWindows{}
	eng := testEngine(windows, &fakeUsers{}, &fakeWriter{}, now)

	_, err := eng.Stage(context.Background(), fakeTx{}, Request{
		ScheduledUserID: "bob",
		LocalStart:      "2026-03-14T09:00:00",
		LocalEnd:        "2026-03-14T10:00:00",
		LocalTZ:         "UTC",
		Notes:           strings.Repeat("x", model.NotesMaxLen+1),
	}, chargeableSub())
	assert.Equal(t, fault.KindValidation, fault.KindOf(err))
	assert.Zero(t, windows.calls)
}

func TestStagePropagatesInsertConflict(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	users := &fakeUsers{user: model.User{SixtyMinPrice: price("15.00")}}
	writer := &fakeWriter{err: fault.New(fault.KindConflict, fault.CodeOverlap,
		"the requested time was just booked")}
	eng := testEngine(&fakeWindows{}, users, writer, now)

	_, err := eng.Stage(context.Background(), fakeTx{}, Request{
		ScheduledUserID: "bob",
		LocalStart:      "2026-03-14T09:00:00",
		LocalEnd:        "2026-03-14T10:00:00",
		LocalTZ:         "UTC",
	}, chargeableSub())
	assert.Equal(t, fault.KindConflict, fault.KindOf(err))
}
