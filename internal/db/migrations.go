package db

import (
	"fmt"

	"devmgmt/internal/models"

	"gorm.io/gorm"
)

const serialIndex = "ux_devices_serial_number"

// Migrate приводит схему devices к актуальной.
func Migrate(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	if err := MigrateLegacyColumns(db); err != nil {
		return err
	}
	if err := db.AutoMigrate(&models.Device{}); err != nil {
		return fmt.Errorf("automigrate devices: %w", err)
	}
	return MigrateSerialUniqueIndex(db)
}

// MigrateSerialUniqueIndex гарантирует unique-индекс на serial_number.
// В старых таблицах был обычный индекс, и параллельные create проходили оба.
func MigrateSerialUniqueIndex(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	if db.Migrator().HasIndex(&models.Device{}, serialIndex) {
		return nil
	}
	dialect := db.Dialector.Name()

	switch dialect {
	case "mysql":
		_ = db.Exec("DROP INDEX `idx_devices_serial_number` ON `devices`").Error
		return db.Exec("CREATE UNIQUE INDEX `" + serialIndex + "` ON `devices` (`serial_number`)").Error

	case "postgres":
		_ = db.Exec(`DROP INDEX IF EXISTS idx_devices_serial_number`).Error
		return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS ` + serialIndex + ` ON "devices" ("serial_number")`).Error

	case "sqlite":
		_ = db.Exec(`DROP INDEX IF EXISTS idx_devices_serial_number`).Error
		return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS ` + serialIndex + ` ON devices (serial_number)`).Error

	default:
		return fmt.Errorf("unsupported dialect: %s", dialect)
	}
}
