package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"devmgmt/internal/models"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

// ErrConstraintViolation is returned when a write collides with the serial
// number of another device.
var ErrConstraintViolation = errors.New("constraint violation")

type DeviceStore struct {
	db *gorm.DB
}

func NewDeviceStore(db *gorm.DB) *DeviceStore {
	return &DeviceStore{db: db}
}

// Save вставляет d, если у него ещё нет ID (выдаётся новый UUID), иначе
// обновляет строку с тем же ID; created_at при обновлении не трогается.
// Уникальность серийника держит только unique-индекс, без предварительной
// проверки, иначе два параллельных insert'а могут пройти оба.
func (s *DeviceStore) Save(ctx context.Context, d *models.Device) error {
	if d == nil {
		return errors.New("save: nil device")
	}
	tx := s.db.WithContext(ctx)

	var err error
	if strings.TrimSpace(d.ID) == "" {
		d.ID = uuid.NewString()
		if err = tx.Create(d).Error; err != nil {
			// запись не сохранена
			d.ID = ""
		}
	} else {
		err = s.update(tx, d)
	}
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: serial number %q: %w", ErrConstraintViolation, d.SerialNumber, err)
		}
		return fmt.Errorf("save device: %w", err)
	}
	return nil
}

// update пишет только изменяемые поля; если строки с таким ID нет, создаёт её.
func (s *DeviceStore) update(tx *gorm.DB, d *models.Device) error {
	var cur models.Device
	if err := tx.Where("id = ?", d.ID).First(&cur).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(d).Error
		}
		return err
	}
	if err := tx.Model(&cur).
		Select("serial_number", "life_cycle_state").
		Updates(&models.Device{SerialNumber: d.SerialNumber, LifeCycleState: d.LifeCycleState}).Error; err != nil {
		return err
	}
	// вернуть вызывающему актуальные created_at/updated_at
	d.CreatedAt = cur.CreatedAt
	d.UpdatedAt = cur.UpdatedAt
	return nil
}

// FindByID returns ok=false without an error when nothing is stored under id.
func (s *DeviceStore) FindByID(ctx context.Context, id string) (*models.Device, bool, error) {
	var m models.Device
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("find device %s: %w", id, err)
	}
	return &m, true, nil
}

// isUniqueViolation recognises duplicate key errors. gorm translates them when
// TranslateError is on; the driver checks cover connections opened without it.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062 // ER_DUP_ENTRY
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
