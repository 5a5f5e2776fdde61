// Package merchant tracks gateway submerchant accounts: which user they
// route money to, their fee percentage and the approval state owned by
// asynchronous gateway webhooks.
package merchant

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/slotwise/slotwise/internal/fault"
	"github.com/slotwise/slotwise/internal/model"
	"github.com/slotwise/slotwise/libs/db"
)

type Directory struct {
	pool *db.Pool
}

func NewDirectory(pool *db.Pool) *Directory {
	return &Directory{pool: pool}
}

// GetByOwner returns the single non-deleted submerchant for a user.
// Approval is NOT checked here: the flag can flip between reads, so the
// payment path re-reads it right before money moves.
func (d *Directory) GetByOwner(ctx context.Context, ownerUserID string) (model.Submerchant, error) {
	var s model.Submerchant
	err := d.pool.QueryRow(ctx, `
		SELECT public_id, owner_user_id, gateway_account_ref, service_fee_percent, is_approved, is_rejected
		FROM submerchants
		WHERE owner_user_id = $1 AND NOT is_deleted
	`, ownerUserID).Scan(
		&s.PublicID,
		&s.OwnerUserID,
		&s.GatewayAccountRef,
		&s.ServiceFeePercent,
		&s.IsApproved,
		&s.IsRejected,
	)
	if err != nil {
		if db.IsNoRows(err) {
			return model.Submerchant{}, fault.New(fault.KindNotFound, fault.CodeSubmerchantNotFound,
				"no submerchant on record for this user")
		}
		return model.Submerchant{}, fault.Wrap(err, fault.KindInternal, fault.CodeInternal,
			"failed to load submerchant")
	}
	return s, nil
}

// ApplyNotification flips the approval flags for the submerchant named by a
// gateway webhook. Approved and rejected are mutually exclusive; both are
// written so a later approval clears an earlier rejection and vice versa.
func (d *Directory) ApplyNotification(ctx context.Context, n Notification) error {
	approved := n.Decision == DecisionApproved
	return d.pool.InTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE submerchants
			SET is_approved = $2,
				is_rejected = $3
			WHERE gateway_account_ref = $1 AND NOT is_deleted
		`, n.GatewayAccountRef, approved, !approved)
		if err != nil {
			return fault.Wrap(err, fault.KindInternal, fault.CodeInternal,
				"failed to apply submerchant notification")
		}
		if tag.RowsAffected() == 0 {
			return fault.New(fault.KindNotFound, fault.CodeSubmerchantNotFound,
				"no submerchant for the notified gateway account")
		}
		return nil
	})
}
