package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS armazenamento_local (
	chave TEXT PRIMARY KEY,
	valor TEXT NOT NULL
)`

// SQLite persiste o armazenamento local do terminal num arquivo.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite abre (ou cria) o arquivo e garante o esquema.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: abrir sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: criar esquema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Get(ctx context.Context, key string) (string, error) {
	var val string
	err := s.db.QueryRowContext(ctx, `SELECT valor FROM armazenamento_local WHERE chave = ?`, key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("storage: ler %s: %w", key, err)
	}
	return val, nil
}

func (s *SQLite) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO armazenamento_local (chave, valor) VALUES (?, ?)
		 ON CONFLICT(chave) DO UPDATE SET valor = excluded.valor`, key, value)
	if err != nil {
		return fmt.Errorf("storage: gravar %s: %w", key, err)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM armazenamento_local WHERE chave = ?`, key); err != nil {
		return fmt.Errorf("storage: remover %s: %w", key, err)
	}
	return nil
}

func (s *SQLite) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM armazenamento_local`); err != nil {
		return fmt.Errorf("storage: limpar: %w", err)
	}
	return nil
}
