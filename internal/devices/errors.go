package devices

import (
	"errors"
	"net/http"
)

var (
	// ErrDuplicateSerialNumber: another device already owns the serial number.
	ErrDuplicateSerialNumber = errors.New("duplicate serial number")
	// ErrDeviceNotFound: no device is stored under the requested id.
	ErrDeviceNotFound = errors.New("device not found")
	// ErrMalformedInput: required fields missing or lifecycle state unknown.
	ErrMalformedInput = errors.New("malformed input")
)

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrMalformedInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrDeviceNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicateSerialNumber):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
