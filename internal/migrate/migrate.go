package migrate

import (
	"errors"
	"fmt"

	gomigrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/cinegraph/backend/internal/util"
	"github.com/cinegraph/backend/pkg/logger"
)

// Up applies all pending migrations for the relational source schema.
// A database already at the latest version is not an error.
func Up(databaseURL string) error {
	dir := util.GetEnvString("MIGRATIONS_DIR", "migrations")

	m, err := gomigrate.New("file://"+dir, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, gomigrate.ErrNoChange) {
			logger.Debug("[Migrate] Source schema up to date")
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	logger.Info("[Migrate] Source schema migrated")
	return nil
}
