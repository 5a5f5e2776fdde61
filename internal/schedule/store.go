// Package schedule owns availability windows: the per-user time slots other
// users may book against. The store enforces the no-overlap invariant in
// two layers: a validation query for friendly errors and a Postgres
// exclusion constraint as the backstop under concurrency.
package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/slotwise/slotwise/internal/clock"
	"github.com/slotwise/slotwise/internal/fault"
	"github.com/slotwise/slotwise/internal/model"
	"github.com/slotwise/slotwise/internal/timerange"
	"github.com/slotwise/slotwise/libs/db"
)

type Store struct {
	pool  *db.Pool
	clock clock.Clock
}

func NewStore(pool *db.Pool, clk clock.Clock) *Store {
	return &Store{pool: pool, clock: clk}
}

const windowColumns = `public_id, owner_user_id, utc_start, utc_end, local_tz, day_number, month_number, created_at`

// CreateWindow opens a new availability window for ownerID. start/end must
// already be UTC instants; localTZ records the zone the owner created the
// window in.
func (s *Store) CreateWindow(ctx context.Context, ownerID string, start, end time.Time, localTZ string) (model.AvailabilityWindow, error) {
	start, end = start.UTC(), end.UTC()
	if err := validateRange(start, end); err != nil {
		return model.AvailabilityWindow{}, err
	}
	if start.Before(s.clock.Now()) {
		return model.AvailabilityWindow{}, fault.New(fault.KindValidation, fault.CodeInThePast,
			"cannot create availability in the past")
	}
	if err := s.assertNoOverlap(ctx, ownerID, start, end, ""); err != nil {
		return model.AvailabilityWindow{}, err
	}

	w := model.AvailabilityWindow{
		PublicID:    uuid.NewString(),
		OwnerUserID: ownerID,
		UTCStart:    start,
		UTCEnd:      end,
		LocalTZ:     localTZ,
		DayNumber:   start.Day(),
		MonthNumber: int(start.Month()),
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO availability_windows
			(public_id, owner_user_id, utc_start, utc_end, local_tz, day_number, month_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, w.PublicID, w.OwnerUserID, w.UTCStart, w.UTCEnd, w.LocalTZ, w.DayNumber, w.MonthNumber).Scan(&w.CreatedAt)
	if err != nil {
		if db.IsExclusionConflict(err) {
			return model.AvailabilityWindow{}, fault.Wrap(err, fault.KindConflict, fault.CodeOverlap,
				"this overlaps with an existing availability window")
		}
		return model.AvailabilityWindow{}, fault.Wrap(err, fault.KindInternal, fault.CodeInternal,
			"failed to create availability window")
	}
	return w, nil
}

// UpdateWindow reschedules a window. The overlap check reruns only when the
// new range is not fully inside the stored one: shrinking can never create
// an overlap, any widening or shift can.
func (s *Store) UpdateWindow(ctx context.Context, windowID, ownerID string, start, end time.Time) (model.AvailabilityWindow, error) {
	start, end = start.UTC(), end.UTC()
	if err := validateRange(start, end); err != nil {
		return model.AvailabilityWindow{}, err
	}

	existing, err := s.getWindow(ctx, windowID, ownerID)
	if err != nil {
		return model.AvailabilityWindow{}, err
	}

	if !timerange.Contains(existing.UTCStart, existing.UTCEnd, start, end) {
		if err := s.assertNoOverlap(ctx, ownerID, start, end, windowID); err != nil {
			return model.AvailabilityWindow{}, err
		}
	}

	// day_number/month_number are derived from utc_start; recompute on
	// every write so the buckets never drift from the range.
	tag, err := s.pool.Exec(ctx, `
		UPDATE availability_windows
		SET utc_start = $3,
			utc_end = $4,
			day_number = $5,
			month_number = $6
		WHERE public_id = $1 AND owner_user_id = $2
	`, windowID, ownerID, start, end, start.Day(), int(start.Month()))
	if err != nil {
		if db.IsExclusionConflict(err) {
			return model.AvailabilityWindow{}, fault.Wrap(err, fault.KindConflict, fault.CodeOverlap,
				"this overlaps with an existing availability window")
		}
		return model.AvailabilityWindow{}, fault.Wrap(err, fault.KindInternal, fault.CodeInternal,
			"failed to update availability window")
	}
	if tag.RowsAffected() == 0 {
		return model.AvailabilityWindow{}, fault.New(fault.KindNotFound, fault.CodeNotFound,
			"availability window not found")
	}
	return s.getWindow(ctx, windowID, ownerID)
}

// DeleteWindow hard-deletes a window owned by ownerID.
func (s *Store) DeleteWindow(ctx context.Context, windowID, ownerID string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM availability_windows
		WHERE public_id = $1 AND owner_user_id = $2
	`, windowID, ownerID)
	if err != nil {
		return fault.Wrap(err, fault.KindInternal, fault.CodeInternal,
			"failed to delete availability window")
	}
	if tag.RowsAffected() == 0 {
		return fault.New(fault.KindNotFound, fault.CodeNotFound, "availability window not found")
	}
	return nil
}

// ListForPeriod returns the owner's windows whose month bucket matches
// today shifted by offsetMonths. The filter compares month numbers only, so
// windows from another year sharing the month are included; callers are
// expected to know this (documented behavior, not a bug to fix here).
func (s *Store) ListForPeriod(ctx context.Context, ownerID string, offsetMonths int) ([]model.AvailabilityWindow, error) {
	month := timerange.MonthBucket(s.clock.Now(), offsetMonths)
	rows, err := s.pool.Query(ctx, `
		SELECT `+windowColumns+`
		FROM availability_windows
		WHERE owner_user_id = $1 AND month_number = $2
		ORDER BY utc_start ASC
	`, ownerID, month)
	if err != nil {
		return nil, fault.Wrap(err, fault.KindInternal, fault.CodeInternal,
			"failed to list availability windows")
	}
	defer rows.Close()

	var windows []model.AvailabilityWindow
	for rows.Next() {
		w, err := scanWindow(rows)
		if err != nil {
			return nil, fault.Wrap(err, fault.KindInternal, fault.CodeInternal,
				"failed to scan availability window")
		}
		windows = append(windows, w)
	}
	if rows.Err() != nil {
		return nil, fault.Wrap(rows.Err(), fault.KindInternal, fault.CodeInternal,
			"failed to list availability windows")
	}
	return windows, nil
}

// FindOpenWindow returns a window owned by ownerID whose range fully
// contains [start,end), restricted to windows bucketed on start's
// day-of-month.
func (s *Store) FindOpenWindow(ctx context.Context, ownerID string, start, end time.Time) (model.AvailabilityWindow, error) {
	return s.findOpen(ctx, s.pool, ownerID, start, end, false)
}

// FindOpenWindowForUpdate is the booking-path variant: it takes a row-level
// lock on the matched window so two concurrent bookings against the same
// slot serialize. The lock lives until tx commits or rolls back.
func (s *Store) FindOpenWindowForUpdate(ctx context.Context, tx pgx.Tx, ownerID string, start, end time.Time) (model.AvailabilityWindow, error) {
	return s.findOpen(ctx, tx, ownerID, start, end, true)
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *Store) findOpen(ctx context.Context, q querier, ownerID string, start, end time.Time, forUpdate bool) (model.AvailabilityWindow, error) {
	start, end = start.UTC(), end.UTC()
	query := `
		SELECT ` + windowColumns + `
		FROM availability_windows
		WHERE owner_user_id = $1
			AND day_number = $2
			AND utc_start <= $3
			AND utc_end >= $4
		LIMIT 1`
	if forUpdate {
		query += `
		FOR UPDATE`
	}
	w, err := scanWindow(q.QueryRow(ctx, query, ownerID, start.Day(), start, end))
	if err != nil {
		if db.IsNoRows(err) {
			return model.AvailabilityWindow{}, fault.New(fault.KindNotFound, fault.CodeNoOpenAvailability,
				"no open availability window covers the requested time")
		}
		return model.AvailabilityWindow{}, fault.Wrap(err, fault.KindInternal, fault.CodeInternal,
			"failed to look up availability window")
	}
	return w, nil
}

func (s *Store) getWindow(ctx context.Context, windowID, ownerID string) (model.AvailabilityWindow, error) {
	w, err := scanWindow(s.pool.QueryRow(ctx, `
		SELECT `+windowColumns+`
		FROM availability_windows
		WHERE public_id = $1 AND owner_user_id = $2
	`, windowID, ownerID))
	if err != nil {
		if db.IsNoRows(err) {
			return model.AvailabilityWindow{}, fault.New(fault.KindNotFound, fault.CodeNotFound,
				"availability window not found")
		}
		return model.AvailabilityWindow{}, fault.Wrap(err, fault.KindInternal, fault.CodeInternal,
			"failed to load availability window")
	}
	return w, nil
}

// assertNoOverlap rejects a range overlapping any existing window for the
// owner. The check is bucketed to windows on end's day-of-month; since a
// window never crosses midnight (validateRange) the bucket cannot miss.
func (s *Store) assertNoOverlap(ctx context.Context, ownerID string, start, end time.Time, excludeID string) error {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM availability_windows
		WHERE owner_user_id = $1
			AND day_number = $2
			AND utc_start < $3
			AND utc_end > $4
			AND ($5 = '' OR public_id <> $5::uuid)
	`, ownerID, end.Day(), end, start, excludeID).Scan(&count)
	if err != nil {
		return fault.Wrap(err, fault.KindInternal, fault.CodeInternal,
			"failed to check window overlap")
	}
	if count > 0 {
		return fault.New(fault.KindConflict, fault.CodeOverlap,
			"this overlaps with an existing availability window")
	}
	return nil
}

func validateRange(start, end time.Time) error {
	if !start.Before(end) {
		return fault.New(fault.KindValidation, fault.CodeInvalidRange,
			"start must be before end")
	}
	if !timerange.SameDay(start, end) {
		return fault.New(fault.KindValidation, fault.CodeCrossDayRange,
			"a window must start and end on the same day")
	}
	return nil
}

func scanWindow(row pgx.Row) (model.AvailabilityWindow, error) {
	var w model.AvailabilityWindow
	err := row.Scan(
		&w.PublicID,
		&w.OwnerUserID,
		&w.UTCStart,
		&w.UTCEnd,
		&w.LocalTZ,
		&w.DayNumber,
		&w.MonthNumber,
		&w.CreatedAt,
	)
	if err != nil {
		return model.AvailabilityWindow{}, err
	}
	return w, nil
}
