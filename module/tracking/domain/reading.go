package domain

import "time"

// RawPosition is a sample as delivered by the platform provider. Optional
// fields are pointers so missing values stay distinguishable from zero.
type RawPosition struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Accuracy  *float64 `json:"accuracy"`
	Altitude  *float64 `json:"altitude"`
	Heading   *float64 `json:"heading"`
	Speed     *float64 `json:"speed"`
	Timestamp int64    `json:"timestamp"`
}

// PositionReading is a normalized, immutable location sample. Timestamp is
// milliseconds since epoch.
type PositionReading struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
	Timestamp int64   `json:"timestamp"`
}

// Normalize converts a raw provider sample into a PositionReading. Samples
// missing latitude or longitude, or with out-of-range coordinates, yield
// ErrInvalidReading. Optional fields the reading does not carry (altitude,
// heading, speed) are dropped; a missing accuracy is treated as unknown (0).
func Normalize(raw RawPosition) (PositionReading, error) {
	if raw.Latitude == nil || raw.Longitude == nil {
		return PositionReading{}, ErrInvalidReading
	}
	lat, lon := *raw.Latitude, *raw.Longitude
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return PositionReading{}, ErrInvalidReading
	}

	var acc float64
	if raw.Accuracy != nil && *raw.Accuracy > 0 {
		acc = *raw.Accuracy
	}

	return PositionReading{
		Latitude:  lat,
		Longitude: lon,
		Accuracy:  acc,
		Timestamp: raw.Timestamp,
	}, nil
}

// PermissionStatus is the outcome of a permission request.
type PermissionStatus struct {
	Granted     bool `json:"granted"`
	CanAskAgain bool `json:"can_ask_again"`
}

type HistoryQuery struct {
	Start time.Time
	End   time.Time
}
