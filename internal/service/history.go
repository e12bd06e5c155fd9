package service

import (
	"sync"

	"netdash/internal/domain"
)

// History keeps the last N metric samples per device in memory only
type History struct {
	mu      sync.RWMutex
	size    int
	samples map[string][]domain.MetricSample
}

// NewHistory creates a rolling window holding size samples per device
func NewHistory(size int) *History {
	if size < 1 {
		size = 1
	}
	return &History{
		size:    size,
		samples: make(map[string][]domain.MetricSample),
	}
}

// Record appends a sample, evicting the oldest when the window is full
func (h *History) Record(deviceID string, sample domain.MetricSample) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	window := append(h.samples[deviceID], sample)
	if len(window) > h.size {
		window = window[len(window)-h.size:]
	}
	h.samples[deviceID] = window
}

// Samples returns a copy of the window, oldest first
func (h *History) Samples(deviceID string) []domain.MetricSample {
	if h == nil {
		return []domain.MetricSample{}
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	window := h.samples[deviceID]
	out := make([]domain.MetricSample, len(window))
	copy(out, window)
	return out
}

// Forget drops the window of a deleted device
func (h *History) Forget(deviceID string) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.samples, deviceID)
}
