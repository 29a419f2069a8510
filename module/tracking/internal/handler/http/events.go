package http

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/nandanugg/geotrack/module/tracking/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(_ *http.Request) bool { return true },
}

// EventStreamHandler pushes geofence events to websocket clients as they
// happen. Slow consumers have events dropped rather than blocking the
// evaluator.
type EventStreamHandler struct {
	subscribe func(func(domain.GeofenceEvent)) func()
}

func NewEventStreamHandler(subscribe func(func(domain.GeofenceEvent)) func()) *EventStreamHandler {
	return &EventStreamHandler{subscribe: subscribe}
}

func (h *EventStreamHandler) Register(r *gin.RouterGroup) {
	r.GET("/events/stream", h.Stream)
}

func (h *EventStreamHandler) Stream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade: %v", err)
		return
	}
	defer func() { _ = conn.Close() }()

	events := make(chan domain.GeofenceEvent, 16)
	unsubscribe := h.subscribe(func(ev domain.GeofenceEvent) {
		select {
		case events <- ev:
		default:
		}
	})
	defer unsubscribe()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev := <-events:
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}
