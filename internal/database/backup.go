package database

import (
	"fmt"
	"os"

	"github.com/SmartTank/extension/internal/model"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MigratedSuffix is appended to a backup file once its rows are in the destination.
const MigratedSuffix = ".migrated"

// MigrateBackups copies every journal row from the SQLite files at paths into dst, one
// transaction per file, and renames each migrated file. Sessions keep their IDs and
// are skipped when dst already has them; change rows get fresh IDs.
// It returns the paths that were migrated.
func MigrateBackups(dst *gorm.DB, paths []string, log zerolog.Logger) ([]string, error) {
	if err := Migrate(dst); err != nil {
		return nil, err
	}

	var done []string
	for _, path := range paths {
		src, err := OpenSqlite(path)
		if err != nil {
			return done, fmt.Errorf("error opening backup %s: %w", path, err)
		}

		err = dst.Transaction(func(tx *gorm.DB) error {
			return migrateBackup(src, tx, log)
		})

		if sqlDB, dbErr := src.DB(); dbErr == nil {
			if cerr := sqlDB.Close(); cerr != nil {
				log.Error().Err(cerr).Str("path", path).Msg("Error closing sqlite connection")
			}
		}
		if err != nil {
			return done, fmt.Errorf("error migrating backup %s: %w", path, err)
		}

		if err := os.Rename(path, path+MigratedSuffix); err != nil {
			log.Error().Err(err).Str("path", path).Msg("Error renaming sqlite file")
		}
		done = append(done, path)
	}

	log.Info().
		Int("count", len(done)).
		Strs("paths", done).
		Msg("Successfully migrated backups")
	return done, nil
}

func migrateBackup(src, dst *gorm.DB, log zerolog.Logger) error {
	if err := migrateTable(src, dst, log, "sessions", func(*model.Session) {}); err != nil {
		return err
	}
	if err := migrateTable(src, dst, log, "shape_changes", func(r *model.ShapeChange) { r.ID = 0 }); err != nil {
		return err
	}
	if err := migrateTable(src, dst, log, "fuel_changes", func(r *model.FuelChange) { r.ID = 0 }); err != nil {
		return err
	}
	if err := migrateTable(src, dst, log, "length_changes", func(r *model.LengthChange) { r.ID = 0 }); err != nil {
		return err
	}
	return migrateTable(src, dst, log, "journal_performances", func(r *model.JournalPerformance) { r.ID = 0 })
}

// migrateTable copies all rows of one model. A table missing from src is skipped.
func migrateTable[M any](src, dst *gorm.DB, log zerolog.Logger, tableName string, prepare func(*M)) error {
	if !src.Migrator().HasTable(tableName) {
		return nil
	}

	var rows []M
	if err := src.Find(&rows).Error; err != nil {
		return fmt.Errorf("error reading %s: %w", tableName, err)
	}
	log.Info().Int("count", len(rows)).Str("table", tableName).Msg("Found records")
	if len(rows) == 0 {
		return nil
	}

	for i := range rows {
		prepare(&rows[i])
	}
	err := dst.Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&rows, 1000).Error
	if err != nil {
		return fmt.Errorf("error inserting %s: %w", tableName, err)
	}
	return nil
}
