package store

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"

	"sessiond/internal/vault"
)

// Store persists vault entries in sqlite. It implements vault.Medium; the
// rows it holds are hashed keys and ciphertext only.
type Store struct {
	db *sql.DB
	qb sq.StatementBuilderType
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db: db,
		qb: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	query, args, err := s.qb.
		Select("ciphertext").
		From("vault_entries").
		Where(sq.Eq{"entry_key": key}).
		ToSql()
	if err != nil {
		return "", err
	}

	var ciphertext string
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&ciphertext); err != nil {
		if err == sql.ErrNoRows {
			return "", vault.ErrNotFound
		}
		return "", err
	}
	return ciphertext, nil
}

func (s *Store) Put(ctx context.Context, key, value string) error {
	query, args, err := s.qb.
		Insert("vault_entries").
		Columns("entry_key", "ciphertext").
		Values(key, value).
		Suffix("ON CONFLICT(entry_key) DO UPDATE SET ciphertext = excluded.ciphertext, updated_at = CURRENT_TIMESTAMP").
		ToSql()
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

func (s *Store) Delete(ctx context.Context, key string) error {
	query, args, err := s.qb.
		Delete("vault_entries").
		Where(sq.Eq{"entry_key": key}).
		ToSql()
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}
