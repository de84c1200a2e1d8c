package infra

import (
	"fmt"

	"tradenet/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate
// for all tables, then applies idempotent SQL patches for constraints that
// GORM cannot express through struct tags.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := db.AutoMigrate(
		&model.Node{},
		&model.Product{},
		&model.User{},
	); err != nil {
		return nil, fmt.Errorf("AutoMigrate: %w", err)
	}

	if err := applySchemaPatches(db); err != nil {
		return nil, fmt.Errorf("schema patches: %w", err)
	}

	return db, nil
}

// applySchemaPatches adds the check constraint backing the debt invariant.
// The service layer is the primary enforcement point; this is the last line
// of defense at the store. Each statement is guarded by an existence check so
// re-running on an already-patched schema is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint
		                 WHERE conrelid = to_regclass('network_nodes')
		                   AND conname = 'chk_network_nodes_debt_non_negative') THEN
		    ALTER TABLE network_nodes
		      ADD CONSTRAINT chk_network_nodes_debt_non_negative CHECK (debt >= 0);
		  END IF;
		END $$`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return err
		}
	}
	return nil
}
