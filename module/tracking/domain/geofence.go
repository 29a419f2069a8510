package domain

// Geofence is a named circular region of interest. CreatedAt is milliseconds
// since epoch. Inactive fences are excluded from evaluation.
type Geofence struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Radius    float64 `json:"radius"`
	Active    bool    `json:"active"`
	CreatedAt int64   `json:"created_at"`
}

type GeofenceEventType string

const (
	GeofenceEnter GeofenceEventType = "enter"
	GeofenceExit  GeofenceEventType = "exit"
)

// GeofenceEvent is an enter/exit transition for a single fence. Fire-and-forget:
// delivered to subscribers and published, never persisted.
type GeofenceEvent struct {
	GeofenceID   string            `json:"geofence_id"`
	GeofenceName string            `json:"geofence_name"`
	Type         GeofenceEventType `json:"event"`
	Location     PositionReading   `json:"location"`
	Timestamp    int64             `json:"timestamp"`
}
