// Package user exposes the narrow read the booking core needs from the
// users table: tier, rate table and home timezone. Account management is
// owned elsewhere.
package user

import (
	"context"

	"github.com/shopspring/decimal"

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

func (r *Repository) Get(ctx context.Context, publicID string) (model.User, error) {
	var u model.User
	var five, fifteen, thirty, sixty *decimal.Decimal
	err := r.pool.QueryRow(ctx, `
		SELECT public_id, username, is_premium, local_tz,
			five_min_price, fifteen_min_price, thirty_min_price, sixty_min_price
		FROM users
		WHERE public_id = $1 AND NOT is_deleted
	`, publicID).Scan(
		&u.PublicID,
		&u.Username,
		&u.IsPremium,
		&u.LocalTZ,
		&five,
		&fifteen,
		&thirty,
		&sixty,
	)
	if err != nil {
		if db.IsNoRows(err) {
			return model.User{}, fault.New(fault.KindNotFound, fault.CodeNotFound, "user not found")
		}
		return model.User{}, fault.Wrap(err, fault.KindInternal, fault.CodeInternal, "failed to load user")
	}
	u.FiveMinPrice = five
	u.FifteenMinPrice = fifteen
	u.ThirtyMinPrice = thirty
	u.SixtyMinPrice = sixty
	return u, nil
}
