package storage

import (
	"errors"
	"strings"

	"github.com/glebarez/sqlite"
	config "github.com/plugfox/addonhub/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var errorUnsupportedDriver = errors.New("unsupported database driver")

// createDialector creates the appropriate GORM dialector based on the config.
func createDialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch strings.ToLower(cfg.Driver) {
	case "sqlite3", "sqlite":
		return sqliteDialector(cfg.Connection), nil
	case "postgres", "postgresql":
		return postgresDialector(cfg.Connection), nil
	case "mysql", "mariadb", "tidb":
		return mysqlDialector(cfg.Connection), nil
	default:
		return nil, errorUnsupportedDriver
	}
}

// sqliteDialector accepts a file path, ":memory:" or "memory:<name>".
// Named in-memory databases are isolated from each other, which is what tests want.
// Foreign keys are switched on so the ban history follows the user on delete.
func sqliteDialector(connection string) gorm.Dialector {
	const pragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	switch {
	case connection == ":memory:":
		return sqlite.Open("file::memory:?cache=shared&" + pragmas)
	case strings.HasPrefix(connection, "memory:"):
		name := strings.TrimPrefix(connection, "memory:")
		return sqlite.Open("file:" + name + "?mode=memory&cache=shared&" + pragmas)
	case strings.Contains(connection, "?"):
		return sqlite.Open(connection + "&" + pragmas)
	default:
		return sqlite.Open(connection + "?" + pragmas)
	}
}

func postgresDialector(connection string) gorm.Dialector {
	return postgres.New(
		postgres.Config{
			DSN:                  connection,
			PreferSimpleProtocol: true, // disables implicit prepared statement usage
		},
	)
}

func mysqlDialector(connection string) gorm.Dialector {
	const defaultStringSize = 256

	return mysql.New(
		mysql.Config{
			// e.g. addonhub:secret@tcp(127.0.0.1:3306)/addonhub?charset=utf8mb4&parseTime=True&loc=UTC
			DSN:                       connection,
			DefaultStringSize:         defaultStringSize,
			DisableDatetimePrecision:  false, // ban expiry is compared with sub-second precision
			DontSupportRenameIndex:    true,  // drop & create when rename index, rename index not supported before MySQL 5.7, MariaDB
			DontSupportRenameColumn:   true,  // `change` when rename column, rename column not supported before MySQL 8, MariaDB
			SkipInitializeWithVersion: false, // auto configure based on currently MySQL version
		},
	)
}
