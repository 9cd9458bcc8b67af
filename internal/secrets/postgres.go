package secrets

import (
	"context"
	"fmt"

	"resale/monitor/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresStore struct {
	db    *pgxpool.Pool
	table string
	key   []byte
}

// NewPostgresStore returns a Store backed by a two-column parameter table.
// The encryption key is derived from the configured passphrase.
func NewPostgresStore(db *pgxpool.Pool, cfg config.SecretsConfig) Store {
	return &postgresStore{
		db:    db,
		table: cfg.Table,
		key:   DeriveKey(cfg.EncryptionKey),
	}
}

func (s *postgresStore) GetParameter(ctx context.Context, name string) (string, error) {
	query := fmt.Sprintf(`SELECT value FROM %s WHERE name = $1`, s.table)

	var encrypted string
	if err := s.db.QueryRow(ctx, query, name).Scan(&encrypted); err != nil {
		return "", fmt.Errorf("failed to read parameter %s: %w", name, err)
	}

	plaintext, err := Decrypt(encrypted, s.key)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt parameter %s: %w", name, err)
	}

	return string(plaintext), nil
}

func (s *postgresStore) PutParameter(ctx context.Context, name, value string) error {
	encrypted, err := Encrypt([]byte(value), s.key)
	if err != nil {
		return fmt.Errorf("failed to encrypt parameter %s: %w", name, err)
	}

	query := fmt.Sprintf(`
	INSERT INTO %s (name, value)
	VALUES ($1, $2)
	ON CONFLICT (name)
	DO UPDATE SET value = $2`, s.table)

	if _, err := s.db.Exec(ctx, query, name, encrypted); err != nil {
		return fmt.Errorf("failed to write parameter %s: %w", name, err)
	}

	return nil
}
