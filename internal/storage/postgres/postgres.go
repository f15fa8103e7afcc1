package postgres

import (
	"database/sql"
	"fmt"

	"github.com/ageniuscoder/gigchat/internal/storage"
	_ "github.com/lib/pq"
)

func New(dsn string) (*storage.Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	db.SetMaxOpenConns(20)
	return storage.New(db, storage.Postgres), nil
}
