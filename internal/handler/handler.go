package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"netdash/internal/domain"
	"netdash/internal/logger"
	"netdash/internal/service"
)

// Discoverer runs a discovery pass
type Discoverer interface {
	Discover(ctx context.Context) ([]domain.Device, error)
}

// DeviceService is the device API the handlers depend on
type DeviceService interface {
	List(ctx context.Context) ([]domain.Device, error)
	Get(ctx context.Context, id string) (*domain.Device, error)
	Create(ctx context.Context, device *domain.Device) (*domain.Device, error)
	Update(ctx context.Context, id string, changes *domain.Device) (*domain.Device, error)
	Delete(ctx context.Context, id string) error
	Status(ctx context.Context, id string) (*domain.Device, error)
	History(ctx context.Context, id string) ([]domain.MetricSample, error)
	PushConfig(ctx context.Context, id string, push service.ConfigPush) (*domain.Device, error)
	Refresh(ctx context.Context, id string) (*domain.Device, bool, error)
}

// ErrorResponse is the JSON body of every error reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// RefreshResponse reports the outcome of an on-demand metrics refresh
type RefreshResponse struct {
	Device    *domain.Device `json:"device"`
	Refreshed bool           `json:"refreshed"`
}

// DeviceHandler handles device API requests
type DeviceHandler struct {
	devices   DeviceService
	discovery Discoverer
	log       logger.Logger
}

// NewDeviceHandler creates a new device handler
func NewDeviceHandler(devices DeviceService, discovery Discoverer, log logger.Logger) *DeviceHandler {
	return &DeviceHandler{
		devices:   devices,
		discovery: discovery,
		log:       log.WithComponent("http"),
	}
}

// ListDevices returns all devices
func (h *DeviceHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.devices.List(r.Context())
	if err != nil {
		h.fail(w, "Failed to list devices", err)
		return
	}
	writeJSON(w, devices, http.StatusOK)
}

// GetDevice returns a single device
func (h *DeviceHandler) GetDevice(w http.ResponseWriter, r *http.Request) {
	device, err := h.devices.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, "Failed to get device", err)
		return
	}
	writeJSON(w, device, http.StatusOK)
}

// CreateDevice creates a user-defined device
func (h *DeviceHandler) CreateDevice(w http.ResponseWriter, r *http.Request) {
	var device domain.Device
	if err := json.NewDecoder(r.Body).Decode(&device); err != nil {
		writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.devices.Create(r.Context(), &device)
	if err != nil {
		h.fail(w, "Failed to create device", err)
		return
	}
	writeJSON(w, created, http.StatusCreated)
}

// UpdateDevice replaces the editable fields of a device
func (h *DeviceHandler) UpdateDevice(w http.ResponseWriter, r *http.Request) {
	var changes domain.Device
	if err := json.NewDecoder(r.Body).Decode(&changes); err != nil {
		writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := h.devices.Update(r.Context(), r.PathValue("id"), &changes)
	if err != nil {
		h.fail(w, "Failed to update device", err)
		return
	}
	writeJSON(w, updated, http.StatusOK)
}

// DeleteDevice deletes a device
func (h *DeviceHandler) DeleteDevice(w http.ResponseWriter, r *http.Request) {
	if err := h.devices.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, "Failed to delete device", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Discover runs a discovery pass and returns the devices it touched. A pass
// that could only partially complete still answers 200 with what it found.
func (h *DeviceHandler) Discover(w http.ResponseWriter, r *http.Request) {
	devices, err := h.discovery.Discover(r.Context())
	if err != nil {
		h.log.Warn().Err(err).Int("devices", len(devices)).Msg("discovery returned a partial result")
		w.Header().Set("X-Discovery-Partial", "true")
	}
	if devices == nil {
		devices = []domain.Device{}
	}
	writeJSON(w, devices, http.StatusOK)
}

// GetStatus returns live simulated metrics for a device
func (h *DeviceHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	device, err := h.devices.Status(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, "Failed to get device status", err)
		return
	}
	writeJSON(w, device, http.StatusOK)
}

// GetHistory returns the rolling metrics window of a device
func (h *DeviceHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	samples, err := h.devices.History(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, "Failed to get device history", err)
		return
	}
	writeJSON(w, samples, http.StatusOK)
}

// PushConfig applies hostname and interfaceIp keys to a device
func (h *DeviceHandler) PushConfig(w http.ResponseWriter, r *http.Request) {
	var push service.ConfigPush
	if err := json.NewDecoder(r.Body).Decode(&push); err != nil {
		writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	device, err := h.devices.PushConfig(r.Context(), r.PathValue("id"), push)
	if err != nil {
		h.fail(w, "Failed to push configuration", err)
		return
	}
	writeJSON(w, device, http.StatusOK)
}

// RefreshDevice runs a metrics refresh for one device
func (h *DeviceHandler) RefreshDevice(w http.ResponseWriter, r *http.Request) {
	device, refreshed, err := h.devices.Refresh(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, "Failed to refresh device", err)
		return
	}
	writeJSON(w, RefreshResponse{Device: device, Refreshed: refreshed}, http.StatusOK)
}

// Healthz reports liveness
func Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// NewRouter registers the API, the event stream and the metrics endpoint
func NewRouter(h *DeviceHandler, events http.Handler, metrics http.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/devices", h.ListDevices)
	mux.HandleFunc("POST /api/devices", h.CreateDevice)
	mux.HandleFunc("GET /api/devices/discover", h.Discover)
	mux.HandleFunc("GET /api/devices/{id}", h.GetDevice)
	mux.HandleFunc("PUT /api/devices/{id}", h.UpdateDevice)
	mux.HandleFunc("DELETE /api/devices/{id}", h.DeleteDevice)
	mux.HandleFunc("GET /api/devices/{id}/status", h.GetStatus)
	mux.HandleFunc("GET /api/devices/{id}/history", h.GetHistory)
	mux.HandleFunc("POST /api/devices/{id}/config", h.PushConfig)
	mux.HandleFunc("POST /api/devices/{id}/refresh", h.RefreshDevice)

	if events != nil {
		mux.Handle("GET /events", events)
	}
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
	mux.HandleFunc("GET /healthz", Healthz)

	return mux
}

// fail maps domain errors to status codes
func (h *DeviceHandler) fail(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, domain.ErrDeviceNotFound):
		writeError(w, "Not found", err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidDevice):
		writeError(w, message, err.Error(), http.StatusBadRequest)
	default:
		h.log.Error().Err(err).Msg(message)
		writeError(w, message, err.Error(), http.StatusInternalServerError)
	}
}

// Helper functions

func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, error, details string, statusCode int) {
	writeJSON(w, ErrorResponse{Error: error, Details: details}, statusCode)
}
