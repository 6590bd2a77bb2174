// Package db открывает подключение к PostgreSQL и накатывает миграции.
package db

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	migration "github.com/Popolzen/shortly/migrations"
)

// DataBase представляет подключение к базе данных
type DataBase struct {
	*sql.DB
	dsn string
}

// NewDataBase открывает подключение по строке DSN
func NewDataBase(dsn string) (*DataBase, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть подключение: %w", err)
	}
	return &DataBase{
		DB:  db,
		dsn: dsn,
	}, nil
}

// Migrate накатывает миграции схемы
func (d *DataBase) Migrate() error {
	return migration.MigrateUp(d.DB)
}
