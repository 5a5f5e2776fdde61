package payment

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/slotwise/slotwise/internal/booking"
	"github.com/slotwise/slotwise/internal/fault"
	"github.com/slotwise/slotwise/internal/model"
	"github.com/slotwise/slotwise/internal/outbox"
)

// MinimumChargeAmount is the smallest total the gateway will settle.
// Checked before any network call so undersized bookings fail fast.
var MinimumChargeAmount = decimal.NewFromInt(15)

// CommittedEventType names the outbox event emitted when a booking commits.
const CommittedEventType = "booking.committed.v1"

// CommittedEvent is the outbox payload for a committed booking.
type CommittedEvent struct {
	BookingID        string    `json:"booking_id"`
	SchedulingUserID string    `json:"scheduling_user_id"`
	ScheduledUserID  string    `json:"scheduled_user_id"`
	UTCStart         time.Time `json:"utc_start"`
	UTCEnd           time.Time `json:"utc_end"`
	TotalPrice       string    `json:"total_price"`
	ServiceFee       string    `json:"service_fee"`
	TransactionRef   string    `json:"transaction_ref"`
}

// TxBeginner opens the transaction the whole booking flow lives in.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Stager validates and writes the PENDING booking row.
type Stager interface {
	Stage(ctx context.Context, tx pgx.Tx, req booking.Request, sub model.Submerchant) (*model.Booking, error)
}

// SubmerchantSource resolves where a bookable user's money routes.
type SubmerchantSource interface {
	GetByOwner(ctx context.Context, ownerUserID string) (model.Submerchant, error)
}

// PaymentWriter records a settled charge inside the booking transaction.
type PaymentWriter interface {
	Insert(ctx context.Context, tx pgx.Tx, p *model.Payment) error
}

// BookingCommitter flips a staged booking to COMMITTED.
type BookingCommitter interface {
	MarkCommitted(ctx context.Context, tx pgx.Tx, publicID, gatewayRef string) error
}

// EventRecorder appends to the transactional outbox.
type EventRecorder interface {
	Insert(ctx context.Context, tx pgx.Tx, evt outbox.Event) error
}

type Orchestrator struct {
	beginner  TxBeginner
	engine    Stager
	merchants SubmerchantSource
	payments  PaymentWriter
	bookings  BookingCommitter
	events    EventRecorder
	gateway   Gateway
	logger    *slog.Logger
	tracer    trace.Tracer
}

func NewOrchestrator(
	beginner TxBeginner,
	engine Stager,
	merchants SubmerchantSource,
	payments PaymentWriter,
	bookings BookingCommitter,
	events EventRecorder,
	gateway Gateway,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		beginner:  beginner,
		engine:    engine,
		merchants: merchants,
		payments:  payments,
		bookings:  bookings,
		events:    events,
		gateway:   gateway,
		logger:    logger,
		tracer:    otel.Tracer("payment"),
	}
}

// BookRequest is a booking plus the means to pay for it.
type BookRequest struct {
	Booking      booking.Request
	PaymentToken string
	Billing      BillingAddress
}

// Book runs the whole paid-booking flow in one database transaction:
// resolve the submerchant, stage the PENDING booking (locking the covering
// availability window), charge the gateway, record the payment, mark the
// booking COMMITTED and enqueue the outbox event, then commit. Any failure
// before the commit rolls the entire staging back, so no booking row ever
// outlives a failed charge.
func (o *Orchestrator) Book(ctx context.Context, req BookRequest) (*model.Booking, error) {
	sub, err := o.merchants.GetByOwner(ctx, req.Booking.ScheduledUserID)
	if err != nil {
		return nil, err
	}
	if !sub.Chargeable() {
		return nil, fault.New(fault.KindPolicy, fault.CodeInvalidSubmerchant,
			"this user cannot accept payments yet")
	}

	tx, err := o.beginner.Begin(ctx)
	if err != nil {
		return nil, fault.Wrap(err, fault.KindInternal, fault.CodeInternal, "failed to open transaction")
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			o.logger.Error("booking rollback failed",
				"error", rbErr,
				"scheduling_user_id", req.Booking.SchedulingUserID,
				"scheduled_user_id", req.Booking.ScheduledUserID,
				"local_start", req.Booking.LocalStart,
				"local_end", req.Booking.LocalEnd,
				"local_tz", req.Booking.LocalTZ,
			)
		}
	}()

	b, err := o.engine.Stage(ctx, tx, req.Booking, sub)
	if err != nil {
		return nil, err
	}

	if b.TotalPrice.LessThan(MinimumChargeAmount) {
		return nil, fault.Newf(fault.KindPolicy, fault.CodeAmountTooSmall,
			"booking total %s is below the %s minimum",
			b.TotalPrice.StringFixed(2), MinimumChargeAmount.StringFixed(2))
	}

	chargeCtx, span := o.tracer.Start(ctx, "gateway.charge",
		trace.WithAttributes(attribute.String("booking.id", b.PublicID)))
	result, err := o.gateway.Charge(chargeCtx, ChargeRequest{
		Amount:                b.TotalPrice,
		ServiceFee:            b.ServiceFee,
		PaymentToken:          req.PaymentToken,
		SubmerchantAccountRef: sub.GatewayAccountRef,
		Billing:               req.Billing,
	})
	if err != nil {
		span.SetStatus(codes.Error, "charge failed")
		span.End()
		return nil, fault.Wrap(err, fault.KindPaymentFailed, fault.CodePaymentFailed,
			"the payment could not be processed")
	}
	span.End()

	p := &model.Payment{
		PublicID:       uuid.NewString(),
		BaseAmount:     b.TotalPrice.Sub(b.ServiceFee),
		ServiceFee:     b.ServiceFee,
		TotalPrice:     b.TotalPrice,
		SubmerchantRef: sub.GatewayAccountRef,
		BookingID:      b.PublicID,
		GatewayRef:     result.TransactionRef,
	}
	if err := o.payments.Insert(ctx, tx, p); err != nil {
		return nil, err
	}
	if err := o.bookings.MarkCommitted(ctx, tx, b.PublicID, result.TransactionRef); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(CommittedEvent{
		BookingID:        b.PublicID,
		SchedulingUserID: b.SchedulingUserID,
		ScheduledUserID:  b.ScheduledUserID,
		UTCStart:         b.UTCStart,
		UTCEnd:           b.UTCEnd,
		TotalPrice:       b.TotalPrice.StringFixed(2),
		ServiceFee:       b.ServiceFee.StringFixed(2),
		TransactionRef:   result.TransactionRef,
	})
	if err != nil {
		return nil, fault.Wrap(err, fault.KindInternal, fault.CodeInternal, "failed to encode booking event")
	}
	if err := o.events.Insert(ctx, tx, outbox.Event{
		AggregateType: "booking",
		AggregateID:   b.PublicID,
		EventType:     CommittedEventType,
		Payload:       payload,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		// Money moved but the booking did not stick. This needs a human.
		o.logger.Error("booking commit failed after successful charge",
			"error", err,
			"booking_id", b.PublicID,
			"transaction_ref", result.TransactionRef,
		)
		return nil, fault.Wrap(err, fault.KindInternal, fault.CodeInternal,
			"the booking could not be finalized")
	}
	committed = true

	b.Status = model.BookingCommitted
	b.TransactionRef = result.TransactionRef
	o.logger.Info("booking committed",
		"booking_id", b.PublicID,
		"total_price", b.TotalPrice.StringFixed(2),
		"transaction_ref", result.TransactionRef,
	)
	return b, nil
}
