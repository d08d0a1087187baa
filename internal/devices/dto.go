package devices

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"devmgmt/internal/models"
)

const maxSerialLen = 64

// DeviceDTO is the wire shape of a device.
type DeviceDTO struct {
	ID             string                `json:"id,omitempty"`
	SerialNumber   string                `json:"serialNumber"`
	LifeCycleState models.LifeCycleState `json:"lifeCycleState"`
}

// DeviceInput is what a client may set on create.
type DeviceInput struct {
	SerialNumber   string
	LifeCycleState models.LifeCycleState
}

// FromDTO drops the id: ids are always assigned by the store.
func FromDTO(in DeviceDTO) (DeviceInput, error) {
	out := DeviceInput{
		SerialNumber:   strings.TrimSpace(in.SerialNumber),
		LifeCycleState: in.LifeCycleState,
	}
	return out, out.Validate()
}

func (in DeviceInput) Validate() error {
	if in.SerialNumber == "" {
		return fmt.Errorf("%w: serialNumber is required", ErrMalformedInput)
	}
	if !utf8.ValidString(in.SerialNumber) {
		return fmt.Errorf("%w: serialNumber is not valid UTF-8", ErrMalformedInput)
	}
	if utf8.RuneCountInString(in.SerialNumber) > maxSerialLen {
		return fmt.Errorf("%w: serialNumber longer than %d characters", ErrMalformedInput, maxSerialLen)
	}
	if in.LifeCycleState == "" {
		return fmt.Errorf("%w: lifeCycleState is required", ErrMalformedInput)
	}
	if _, ok := models.ParseLifeCycleState(string(in.LifeCycleState)); !ok {
		return fmt.Errorf("%w: unknown lifeCycleState %q, want one of %s",
			ErrMalformedInput, in.LifeCycleState, stateList())
	}
	return nil
}

func stateList() string {
	states := models.LifeCycleStates()
	names := make([]string, len(states))
	for i, s := range states {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

func ToDTO(d *models.Device) DeviceDTO {
	return DeviceDTO{
		ID:             d.ID,
		SerialNumber:   d.SerialNumber,
		LifeCycleState: d.LifeCycleState,
	}
}
