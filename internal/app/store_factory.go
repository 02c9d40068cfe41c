package app

import (
	"fmt"

	"github.com/shrimpsizemoose/gradebook/internal/store"
	"github.com/shrimpsizemoose/gradebook/internal/store/postgres"
	"github.com/shrimpsizemoose/gradebook/internal/store/sqlite"
)

func NewStore(dsn string) (store.RelationalStore, error) {
	config := &store.DBConfig{DSN: dsn, Type: store.DetectType(dsn)}

	switch config.Type {
	case store.DBTypePostgres:
		return postgres.NewPostgresStore(config)
	case store.DBTypeSQLite:
		return sqlite.NewSQLiteStore(config)
	default:
		return nil, fmt.Errorf("unable to determine database type from DSN: %s", dsn)
	}
}
