package payment

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/slotwise/slotwise/internal/fault"
	"github.com/slotwise/slotwise/internal/model"
	"github.com/slotwise/slotwise/libs/db"
)

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert records a settled charge inside the booking transaction. Payments
// are append-only; there is no update path.
func (r *Repository) Insert(ctx context.Context, tx pgx.Tx, p *model.Payment) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO payments (
			public_id, base_amount, service_fee, total_price,
			submerchant_ref, booking_id, gateway_ref
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`,
		p.PublicID, p.BaseAmount, p.ServiceFee, p.TotalPrice,
		p.SubmerchantRef, p.BookingID, p.GatewayRef,
	).Scan(&p.CreatedAt)
	if err != nil {
		return fault.Wrap(err, fault.KindInternal, fault.CodeInternal, "failed to record payment")
	}
	return nil
}

// GetForBooking returns the payment behind a committed booking.
func (r *Repository) GetForBooking(ctx context.Context, bookingID string) (model.Payment, error) {
	var p model.Payment
	err := r.pool.QueryRow(ctx, `
		SELECT public_id, base_amount, service_fee, total_price,
			submerchant_ref, booking_id, gateway_ref, created_at
		FROM payments
		WHERE booking_id = $1
	`, bookingID).Scan(
		&p.PublicID,
		&p.BaseAmount,
		&p.ServiceFee,
		&p.TotalPrice,
		&p.SubmerchantRef,
		&p.BookingID,
		&p.GatewayRef,
		&p.CreatedAt,
	)
	if err != nil {
		if db.IsNoRows(err) {
			return model.Payment{}, fault.New(fault.KindNotFound, fault.CodeNotFound, "payment not found")
		}
		return model.Payment{}, fault.Wrap(err, fault.KindInternal, fault.CodeInternal, "failed to load payment")
	}
	return p, nil
}
