package postgres

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// MigrationStatus is the schema state after Migrate.
type MigrationStatus struct {
	Version uint
	Dirty   bool
	// Changed is false when the schema was already at the requested version.
	Changed bool
}

// Migrate applies the SQL migrations in dir to the database at dsn.
//
// Precondition: direction is "up" or "down"; steps >= 0 where 0 means all.
// Postcondition: Returns the resulting schema version. migrate.ErrNoChange
// is not an error.
func Migrate(dsn, dir, direction string, steps int) (MigrationStatus, error) {
	if steps < 0 {
		return MigrationStatus{}, fmt.Errorf("steps must be >= 0, got %d", steps)
	}
	m, err := migrate.New("file://"+dir, dsn)
	if err != nil {
		return MigrationStatus{}, fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	switch direction {
	case "up":
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case "down":
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	default:
		return MigrationStatus{}, fmt.Errorf("invalid direction %q: must be 'up' or 'down'", direction)
	}

	changed := true
	if errors.Is(err, migrate.ErrNoChange) {
		changed = false
		err = nil
	}
	if err != nil {
		return MigrationStatus{}, fmt.Errorf("migrating %s: %w", direction, err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return MigrationStatus{}, fmt.Errorf("reading schema version: %w", err)
	}
	return MigrationStatus{Version: version, Dirty: dirty, Changed: changed}, nil
}
