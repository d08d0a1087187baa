package models

import "time"

// LifeCycleState is where a device sits in its operational lifespan.
type LifeCycleState string

const (
	PendingInstall LifeCycleState = "PENDING_INSTALL"
	Installed      LifeCycleState = "INSTALLED"
	Active         LifeCycleState = "ACTIVE"
	Retired        LifeCycleState = "RETIRED"
)

var lifeCycleStates = []LifeCycleState{PendingInstall, Installed, Active, Retired}

// LifeCycleStates returns the closed set of states in declaration order.
func LifeCycleStates() []LifeCycleState {
	out := make([]LifeCycleState, len(lifeCycleStates))
	copy(out, lifeCycleStates)
	return out
}

func (s LifeCycleState) Valid() bool {
	for _, v := range lifeCycleStates {
		if s == v {
			return true
		}
	}
	return false
}

// ParseLifeCycleState accepts the wire value exactly as enumerated:
// upper case, no surrounding whitespace.
func ParseLifeCycleState(v string) (LifeCycleState, bool) {
	s := LifeCycleState(v)
	return s, s.Valid()
}

// Device is a registered physical device. ID is assigned by the store on insert,
// SerialNumber is the natural key and is unique across the table.
type Device struct {
	ID             string         `gorm:"column:id;type:varchar(36);primaryKey"`
	SerialNumber   string         `gorm:"column:serial_number;type:varchar(64);not null;uniqueIndex:ux_devices_serial_number"`
	LifeCycleState LifeCycleState `gorm:"column:life_cycle_state;type:varchar(32);not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (Device) TableName() string { return "devices" }

// Equal compares identity only. A device without an ID is not persisted yet
// and is never equal to another record.
func (d *Device) Equal(other *Device) bool {
	if d == nil || other == nil {
		return false
	}
	if d == other {
		return true
	}
	return d.ID != "" && d.ID == other.ID
}
