package preference

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"

	"grocery-engine/internal/pkg/common"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// runMigrations 套用所有尚未執行的 up 遷移
// 不呼叫 m.Close()，它會連同 db 一起關閉
func runMigrations(db *sql.DB) error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	defer src.Close()

	driver, err := sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	if version, dirty, err := m.Version(); err == nil {
		common.LogDebug("Preference schema ready", zap.Uint("version", version), zap.Bool("dirty", dirty))
	}
	return nil
}
