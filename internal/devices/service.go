package devices

import (
	"context"
	"errors"
	"fmt"

	"devmgmt/internal/logs"
	"devmgmt/internal/models"
	"devmgmt/internal/repo"

	"github.com/sirupsen/logrus"
)

// Store is the persistence the service needs. *repo.DeviceStore implements it.
type Store interface {
	// Save inserts (empty ID, ID gets assigned) or updates by ID.
	// Serial number collisions return repo.ErrConstraintViolation.
	Save(ctx context.Context, d *models.Device) error
	// FindByID reports absence with ok=false, not with an error.
	FindByID(ctx context.Context, id string) (*models.Device, bool, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service { return &Service{store: store} }

// CreateDevice registers a new device and returns it with its generated id.
func (s *Service) CreateDevice(ctx context.Context, in DeviceInput) (*models.Device, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	d := &models.Device{
		SerialNumber:   in.SerialNumber,
		LifeCycleState: in.LifeCycleState,
	}
	log := logs.FromContext(ctx).WithField("serial_number", d.SerialNumber)

	if err := s.store.Save(ctx, d); err != nil {
		if errors.Is(err, repo.ErrConstraintViolation) {
			log.Info("device create rejected: serial number taken")
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSerialNumber, d.SerialNumber)
		}
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"device_id":        d.ID,
		"life_cycle_state": d.LifeCycleState,
	}).Info("device created")
	return d, nil
}

func (s *Service) GetDevice(ctx context.Context, id string) (*models.Device, error) {
	d, ok, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		logs.FromContext(ctx).WithField("device_id", id).Debug("device not found")
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}
	return d, nil
}
