package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nandanugg/geotrack/module/tracking/domain"
)

type trackingService interface {
	RequestPermissions(ctx context.Context) (domain.PermissionStatus, error)
	Start(ctx context.Context) error
	Stop()
	Status() bool
	Current(ctx context.Context) (domain.PositionReading, error)
	LastKnown(ctx context.Context) (*domain.PositionReading, error)
	History(ctx context.Context, query *domain.HistoryQuery) ([]domain.PositionReading, error)
}

type geofenceService interface {
	Add(ctx context.Context, fence domain.Geofence) error
	SetActive(ctx context.Context, id string, active bool) error
	Remove(ctx context.Context, id string) error
	Fences() []domain.Geofence
}

type TrackingHandler struct {
	trackingSvc trackingService
	geofenceSvc geofenceService
}

func NewTrackingHandler(trackingSvc trackingService, geofenceSvc geofenceService) *TrackingHandler {
	return &TrackingHandler{
		trackingSvc: trackingSvc,
		geofenceSvc: geofenceSvc,
	}
}

func (h *TrackingHandler) Register(r *gin.RouterGroup) {
	r.POST("/permissions", h.RequestPermissions)
	r.POST("/tracking/start", h.StartTracking)
	r.POST("/tracking/stop", h.StopTracking)
	r.GET("/tracking/status", h.TrackingStatus)
	r.GET("/location", h.LastKnownLocation)
	r.GET("/location/current", h.CurrentLocation)
	r.GET("/location/history", h.LocationHistory)
	r.POST("/geofences", h.CreateGeofence)
	r.GET("/geofences", h.ListGeofences)
	r.PATCH("/geofences/:id", h.UpdateGeofence)
	r.DELETE("/geofences/:id", h.DeleteGeofence)
}

func (h *TrackingHandler) RequestPermissions(c *gin.Context) {
	status, err := h.trackingSvc.RequestPermissions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "permission request failed, try again later"})
		return
	}

	c.JSON(http.StatusOK, status)
}

func (h *TrackingHandler) StartTracking(c *gin.Context) {
	if err := h.trackingSvc.Start(c.Request.Context()); err != nil {
		if errors.Is(err, domain.ErrPermissionDenied) {
			c.JSON(http.StatusForbidden, gin.H{"error": "location permission not granted, request permissions first"})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to start tracking"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tracking": true})
}

func (h *TrackingHandler) StopTracking(c *gin.Context) {
	h.trackingSvc.Stop()
	c.JSON(http.StatusOK, gin.H{"tracking": false})
}

func (h *TrackingHandler) TrackingStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tracking": h.trackingSvc.Status()})
}

func (h *TrackingHandler) LastKnownLocation(c *gin.Context) {
	reading, err := h.trackingSvc.LastKnown(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no known position"})
		return
	}

	c.JSON(http.StatusOK, reading)
}

func (h *TrackingHandler) CurrentLocation(c *gin.Context) {
	reading, err := h.trackingSvc.Current(c.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPermissionDenied):
			c.JSON(http.StatusForbidden, gin.H{"error": "location permission not granted, request permissions first"})
		case errors.Is(err, domain.ErrPlatformUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "position provider did not respond, try again"})
		case errors.Is(err, domain.ErrInvalidReading):
			c.JSON(http.StatusBadGateway, gin.H{"error": "position provider returned a bad sample"})
		default:
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to fetch position"})
		}
		return
	}

	c.JSON(http.StatusOK, reading)
}

func (h *TrackingHandler) LocationHistory(c *gin.Context) {
	start, err := strconv.ParseInt(c.Query("start"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start parameter"})
		return
	}

	end, err := strconv.ParseInt(c.Query("end"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end parameter"})
		return
	}

	query := &domain.HistoryQuery{
		Start: time.Unix(start, 0),
		End:   time.Unix(end, 0),
	}

	readings, err := h.trackingSvc.History(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch history"})
		return
	}

	c.JSON(http.StatusOK, readings)
}

type createGeofenceRequest struct {
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Radius    *float64 `json:"radius"`
	Active    *bool    `json:"active"`
}

func (h *TrackingHandler) CreateGeofence(c *gin.Context) {
	var req createGeofenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := validateGeofenceRequest(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	fence := domain.Geofence{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		Radius:    *req.Radius,
		Active:    active,
		CreatedAt: time.Now().UnixMilli(),
	}

	if err := h.geofenceSvc.Add(c.Request.Context(), fence); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create geofence"})
		return
	}

	c.JSON(http.StatusCreated, fence)
}

func (h *TrackingHandler) ListGeofences(c *gin.Context) {
	c.JSON(http.StatusOK, h.geofenceSvc.Fences())
}

type updateGeofenceRequest struct {
	Active *bool `json:"active"`
}

func (h *TrackingHandler) UpdateGeofence(c *gin.Context) {
	var req updateGeofenceRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Active == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "active: required"})
		return
	}

	err := h.geofenceSvc.SetActive(c.Request.Context(), c.Param("id"), *req.Active)
	if err != nil {
		if errors.Is(err, domain.ErrGeofenceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "geofence not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update geofence"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "active": *req.Active})
}

func (h *TrackingHandler) DeleteGeofence(c *gin.Context) {
	err := h.geofenceSvc.Remove(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrGeofenceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "geofence not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete geofence"})
		return
	}

	c.Status(http.StatusNoContent)
}

func validateGeofenceRequest(req *createGeofenceRequest) error {
	if req.Name == "" {
		return errors.New("name: required")
	}
	if req.Latitude == nil || *req.Latitude < -90 || *req.Latitude > 90 {
		return errors.New("latitude: must be between -90 and 90")
	}
	if req.Longitude == nil || *req.Longitude < -180 || *req.Longitude > 180 {
		return errors.New("longitude: must be between -180 and 180")
	}
	if req.Radius == nil || *req.Radius <= 0 {
		return errors.New("radius: must be positive")
	}
	return nil
}
