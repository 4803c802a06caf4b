package db

import (
	"context"
	"strings"
)

const getUserByAddress = `
SELECT id, wallet_address, created_at, updated_at
FROM users
WHERE lower(wallet_address) = lower($1)
`

// GetUserByAddress fetches a user by wallet address (case-insensitive).
func (q *Queries) GetUserByAddress(ctx context.Context, walletAddress string) (User, error) {
	row := q.db.QueryRow(ctx, getUserByAddress, walletAddress)
	var u User
	err := row.Scan(&u.ID, &u.WalletAddress, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

const upsertUserByAddress = `
INSERT INTO users (id, wallet_address, created_at, updated_at)
VALUES (gen_random_uuid(), $1, now(), now())
ON CONFLICT (wallet_address) DO UPDATE SET updated_at = now()
RETURNING id, wallet_address, created_at, updated_at
`

// UpsertUserByAddress creates the user record for an address if absent.
func (q *Queries) UpsertUserByAddress(ctx context.Context, walletAddress string) (User, error) {
	row := q.db.QueryRow(ctx, upsertUserByAddress, strings.ToLower(walletAddress))
	var u User
	err := row.Scan(&u.ID, &u.WalletAddress, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}
