package store

import "strings"

type DatabaseType string

const (
	DBTypePostgres DatabaseType = "postgres"
	DBTypeSQLite   DatabaseType = "sqlite"
)

type DBConfig struct {
	DSN  string
	Type DatabaseType
}

// DetectType picks the dialect from the DSN scheme. Anything that is not a
// postgres URL is treated as a SQLite file path.
func DetectType(dsn string) DatabaseType {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return DBTypePostgres
	}
	return DBTypeSQLite
}
