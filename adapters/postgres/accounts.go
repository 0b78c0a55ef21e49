package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/ports"
)

var _ ports.AccountLinkStore = (*AccountRepo)(nil)

const (
	accountColumns = `id::text, user_id::text, github_id, access_token, COALESCE(refresh_token, ''), created_at, updated_at`

	selectOwnerSQL = `SELECT user_id::text FROM github_accounts WHERE github_id = $1`

	upsertAccountSQL = `INSERT INTO github_accounts (user_id, github_id, access_token, refresh_token)
VALUES ($1, $2, $3, NULLIF($4, ''))
ON CONFLICT (user_id) DO UPDATE SET
    github_id = EXCLUDED.github_id,
    access_token = EXCLUDED.access_token,
    refresh_token = EXCLUDED.refresh_token,
    updated_at = now()
RETURNING ` + accountColumns

	selectAccountSQL = `SELECT ` + accountColumns + ` FROM github_accounts WHERE user_id = $1`

	deleteAccountSQL = `DELETE FROM github_accounts WHERE user_id = $1`
)

// AccountRepo stores linked GitHub accounts in Postgres
type AccountRepo struct {
	db DB
}

func NewAccountRepo(db DB) *AccountRepo {
	return &AccountRepo{db: db}
}

func (r *AccountRepo) Upsert(ctx context.Context, account *core.LinkedAccount) (*core.LinkedAccount, error) {
	var saved *core.LinkedAccount
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		var owner string
		err := tx.QueryRow(ctx, selectOwnerSQL, account.ProviderID).Scan(&owner)
		switch {
		case err == nil && owner != account.UserID:
			return fmt.Errorf("github account %s is linked to another user: %w", account.ProviderID, core.ErrConflict)
		case err != nil && !errors.Is(err, pgx.ErrNoRows):
			return storeError("find account owner", err)
		}

		saved, err = scanAccount(tx.QueryRow(ctx, upsertAccountSQL,
			account.UserID, account.ProviderID, account.AccessToken, account.RefreshToken))
		if err != nil {
			return storeError("upsert account", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (r *AccountRepo) FindByUserID(ctx context.Context, userID string) (*core.LinkedAccount, error) {
	account, err := scanAccount(r.db.QueryRow(ctx, selectAccountSQL, userID))
	if err != nil {
		return nil, storeError("find account", err)
	}
	return account, nil
}

func (r *AccountRepo) DeleteByUserID(ctx context.Context, userID string) error {
	if _, err := r.db.Exec(ctx, deleteAccountSQL, userID); err != nil {
		return storeError("delete account", err)
	}
	return nil
}

func scanAccount(row pgx.Row) (*core.LinkedAccount, error) {
	var a core.LinkedAccount
	if err := row.Scan(&a.ID, &a.UserID, &a.ProviderID, &a.AccessToken, &a.RefreshToken, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}
