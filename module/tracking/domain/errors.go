package domain

import "errors"

var (
	// ErrPermissionDenied means location permission was never granted or the
	// last request was denied. Callers should re-prompt or degrade.
	ErrPermissionDenied = errors.New("location permission denied")

	// ErrPlatformUnavailable means the location provider did not respond.
	// Transient; callers may retry, this module does not.
	ErrPlatformUnavailable = errors.New("location provider unavailable")

	// ErrInvalidReading means a raw sample was missing mandatory fields or
	// carried out-of-range coordinates.
	ErrInvalidReading = errors.New("invalid position reading")

	ErrGeofenceNotFound = errors.New("geofence not found")
)
