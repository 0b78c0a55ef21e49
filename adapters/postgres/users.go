package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/ports"
)

var _ ports.UserDirectory = (*UserRepo)(nil)

const (
	userColumns = `address, display_name, internal_id::text, created_at, updated_at`

	insertUserSQL = `INSERT INTO users (address, display_name) VALUES ($1, $2)
ON CONFLICT (address) DO NOTHING
RETURNING ` + userColumns

	selectUserSQL = `SELECT ` + userColumns + ` FROM users WHERE address = $1`
)

// UserRepo stores users in Postgres
type UserRepo struct {
	db DB
}

func NewUserRepo(db DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) FindByAddress(ctx context.Context, address string) (*core.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, selectUserSQL, address))
	if err != nil {
		return nil, storeError("find user", err)
	}
	return user, nil
}

// CreateIfAbsent inserts the user unless the address exists, then reads the row
// that won.
func (r *UserRepo) CreateIfAbsent(ctx context.Context, address, displayName string) (*core.User, error) {
	var user *core.User
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		created, err := scanUser(tx.QueryRow(ctx, insertUserSQL, address, displayName))
		if err == nil {
			user = created
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return storeError("insert user", err)
		}

		existing, err := scanUser(tx.QueryRow(ctx, selectUserSQL, address))
		if err != nil {
			return storeError("find user", err)
		}
		user = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func scanUser(row pgx.Row) (*core.User, error) {
	var user core.User
	if err := row.Scan(&user.Address, &user.DisplayName, &user.InternalID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return nil, err
	}
	return &user, nil
}
