package booking

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/slotwise/slotwise/internal/clock"
	"github.com/slotwise/slotwise/internal/fault"
	"github.com/slotwise/slotwise/internal/model"
	"github.com/slotwise/slotwise/internal/timerange"
	"github.com/slotwise/slotwise/libs/db"
)

const bookingColumns = `
	public_id, scheduling_user_id, scheduled_user_id, utc_start, utc_end,
	duration_minutes, total_price, service_fee, notes, status,
	transaction_ref, day_number, month_number, created_at`

type Repository struct {
	pool  *db.Pool
	clock clock.Clock
}

func NewRepository(pool *db.Pool, clk clock.Clock) *Repository {
	return &Repository{pool: pool, clock: clk}
}

// Insert writes b as a PENDING row inside tx. A 23P01 from the exclusion
// constraint on (scheduled_user_id, range) means another transaction won
// the same slot first.
func (r *Repository) Insert(ctx context.Context, tx pgx.Tx, b *model.Booking) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO bookings (
			public_id, scheduling_user_id, scheduled_user_id, utc_start, utc_end,
			duration_minutes, total_price, service_fee, notes, status,
			day_number, month_number
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at
	`,
		b.PublicID, b.SchedulingUserID, b.ScheduledUserID, b.UTCStart, b.UTCEnd,
		b.DurationMinutes, b.TotalPrice, b.ServiceFee, b.Notes, b.Status,
		b.DayNumber, b.MonthNumber,
	).Scan(&b.CreatedAt)
	if err != nil {
		if db.IsExclusionConflict(err) {
			return fault.Wrap(err, fault.KindConflict, fault.CodeOverlap,
				"the requested time was just booked")
		}
		return fault.Wrap(err, fault.KindInternal, fault.CodeInternal, "failed to stage booking")
	}
	return nil
}

// MarkCommitted flips a staged booking to COMMITTED and records the gateway
// transaction reference, inside the same tx that staged it.
func (r *Repository) MarkCommitted(ctx context.Context, tx pgx.Tx, publicID, gatewayRef string) error {
	tag, err := tx.Exec(ctx, `
		UPDATE bookings
		SET status = $2,
			transaction_ref = $3
		WHERE public_id = $1 AND status = $4
	`, publicID, model.BookingCommitted, gatewayRef, model.BookingPending)
	if err != nil {
		return fault.Wrap(err, fault.KindInternal, fault.CodeInternal, "failed to commit booking")
	}
	if tag.RowsAffected() == 0 {
		return fault.New(fault.KindInternal, fault.CodeInternal, "staged booking vanished before commit")
	}
	return nil
}

// GetByID returns a committed booking visible to userID, who must be one of
// the two parties.
func (r *Repository) GetByID(ctx context.Context, userID, bookingID string) (model.Booking, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT`+bookingColumns+`
		FROM bookings
		WHERE public_id = $1
			AND status = $2
			AND (scheduling_user_id = $3 OR scheduled_user_id = $3)
	`, bookingID, model.BookingCommitted, userID)
	return scanBooking(row)
}

// ListForSchedulingUser returns the bookings userID made, in the month
// bucket offset months from now.
func (r *Repository) ListForSchedulingUser(ctx context.Context, userID string, offsetMonths int) ([]model.Booking, error) {
	return r.list(ctx, "scheduling_user_id", userID, offsetMonths)
}

// ListForScheduledUser returns the bookings made against userID's
// availability, in the month bucket offset months from now.
func (r *Repository) ListForScheduledUser(ctx context.Context, userID string, offsetMonths int) ([]model.Booking, error) {
	return r.list(ctx, "scheduled_user_id", userID, offsetMonths)
}

func (r *Repository) list(ctx context.Context, partyColumn, userID string, offsetMonths int) ([]model.Booking, error) {
	month := timerange.MonthBucket(r.clock.Now(), offsetMonths)
	rows, err := r.pool.Query(ctx, `
		SELECT`+bookingColumns+`
		FROM bookings
		WHERE `+partyColumn+` = $1
			AND status = $2
			AND month_number = $3
		ORDER BY utc_start
	`, userID, model.BookingCommitted, month)
	if err != nil {
		return nil, fault.Wrap(err, fault.KindInternal, fault.CodeInternal, "failed to list bookings")
	}
	defer rows.Close()

	var out []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fault.Wrap(err, fault.KindInternal, fault.CodeInternal, "failed to list bookings")
	}
	return out, nil
}

// UpdateNotes applies the typed partial update to a booking visible to
// userID. Fields left nil are untouched.
func (r *Repository) UpdateNotes(ctx context.Context, userID, bookingID string, upd model.BookingUpdate) (model.Booking, error) {
	if upd.Notes == nil {
		return r.GetByID(ctx, userID, bookingID)
	}
	if len(*upd.Notes) > model.NotesMaxLen {
		return model.Booking{}, fault.Newf(fault.KindValidation, fault.CodeInvalidRange,
			"notes exceed %d characters", model.NotesMaxLen)
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE bookings
		SET notes = $4
		WHERE public_id = $1
			AND status = $2
			AND (scheduling_user_id = $3 OR scheduled_user_id = $3)
		RETURNING`+bookingColumns+`
	`, bookingID, model.BookingCommitted, userID, *upd.Notes)
	return scanBooking(row)
}

func scanBooking(row pgx.Row) (model.Booking, error) {
	var b model.Booking
	var txRef *string
	var start, end time.Time
	err := row.Scan(
		&b.PublicID,
		&b.SchedulingUserID,
		&b.ScheduledUserID,
		&start,
		&end,
		&b.DurationMinutes,
		&b.TotalPrice,
		&b.ServiceFee,
		&b.Notes,
		&b.Status,
		&txRef,
		&b.DayNumber,
		&b.MonthNumber,
		&b.CreatedAt,
	)
	if err != nil {
		if db.IsNoRows(err) {
			return model.Booking{}, fault.New(fault.KindNotFound, fault.CodeNotFound, "booking not found")
		}
		return model.Booking{}, fault.Wrap(err, fault.KindInternal, fault.CodeInternal, "failed to read booking")
	}
	b.UTCStart = start.UTC()
	b.UTCEnd = end.UTC()
	if txRef != nil {
		b.TransactionRef = *txRef
	}
	return b, nil
}
