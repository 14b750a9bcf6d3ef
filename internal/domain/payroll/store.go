package payroll

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	cryptoutil "paycalc/internal/platform/crypto"
)

type Store struct {
	DB     *pgxpool.Pool
	Crypto *cryptoutil.Service
}

func NewStore(db *pgxpool.Pool, crypto *cryptoutil.Service) *Store {
	return &Store{DB: db, Crypto: crypto}
}

var _ StoreAPI = (*Store)(nil)

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func encryptSnapshot(crypto *cryptoutil.Service, value string) (string, []byte) {
	if crypto == nil || !crypto.Configured() || value == "" {
		return value, nil
	}
	enc, err := crypto.EncryptString(value)
	if err != nil {
		return value, nil
	}
	return "", enc
}

func decryptStringFallback(crypto *cryptoutil.Service, encrypted []byte, plain string) string {
	if crypto == nil || !crypto.Configured() || len(encrypted) == 0 {
		return plain
	}
	decrypted, err := crypto.DecryptString(encrypted)
	if err != nil {
		return plain
	}
	return decrypted
}
