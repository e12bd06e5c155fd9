package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netdash/internal/domain"
	"netdash/internal/logger"
	"netdash/internal/repository/sqlite"
	"netdash/internal/service"
)

type fakeDiscoverer struct {
	devices []domain.Device
	err     error
}

func (f fakeDiscoverer) Discover(context.Context) ([]domain.Device, error) {
	return f.devices, f.err
}

func newTestServer(t *testing.T, discovery Discoverer) http.Handler {
	t.Helper()
	repo, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	log := logger.NewTestLogger()
	bus := service.NewEventBus()
	sim := service.NewSimulator(11)
	history := service.NewHistory(10)
	metricsSvc := service.NewMetricsService(repo, nil, sim, history, bus, log)
	devices := service.NewDeviceService(repo, metricsSvc, sim, history, bus, log)

	h := NewDeviceHandler(devices, discovery, log)
	return Chain(NewRouter(h, nil, nil), Recover(log), CORS, Logger(log))
}

func do(t *testing.T, srv http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestDeviceCRUD(t *testing.T) {
	srv := newTestServer(t, fakeDiscoverer{})

	rec := do(t, srv, http.MethodPost, "/api/devices", `{"name":"Lab Switch","ip_address":"10.1.1.2"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[domain.Device](t, rec)
	require.NotEmpty(t, created.ID)

	rec = do(t, srv, http.MethodGet, "/api/devices/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Lab Switch", decode[domain.Device](t, rec).Name)

	rec = do(t, srv, http.MethodPut, "/api/devices/"+created.ID, `{"name":"Core","ip_address":"10.1.1.3","protocol":"SNMP"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Core", decode[domain.Device](t, rec).Name)

	rec = do(t, srv, http.MethodGet, "/api/devices", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.Device](t, rec), 1)

	rec = do(t, srv, http.MethodDelete, "/api/devices/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/devices/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not found", decode[ErrorResponse](t, rec).Error)
}

func TestCreateDeviceValidation(t *testing.T) {
	srv := newTestServer(t, fakeDiscoverer{})

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"name":`},
		{"missing name", `{"ip_address":"10.0.0.1"}`},
		{"missing address", `{"name":"x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/api/devices", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decode[ErrorResponse](t, rec).Details)
		})
	}
}

func TestDiscoverEndpoint(t *testing.T) {
	gateway := *domain.NewDevice(domain.GatewayID, domain.GatewayName, "192.168.1.1", domain.DeviceTypeRouter, domain.StatusOnline)

	t.Run("complete pass", func(t *testing.T) {
		srv := newTestServer(t, fakeDiscoverer{devices: []domain.Device{gateway}})
		rec := do(t, srv, http.MethodGet, "/api/devices/discover", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-Discovery-Partial"))
		assert.Len(t, decode[[]domain.Device](t, rec), 1)
	})

	t.Run("partial pass", func(t *testing.T) {
		srv := newTestServer(t, fakeDiscoverer{devices: []domain.Device{gateway}, err: errors.New("disk full")})
		rec := do(t, srv, http.MethodGet, "/api/devices/discover", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "true", rec.Header().Get("X-Discovery-Partial"))
	})

	t.Run("nothing found", func(t *testing.T) {
		srv := newTestServer(t, fakeDiscoverer{})
		rec := do(t, srv, http.MethodGet, "/api/devices/discover", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "[]\n", rec.Body.String())
	})
}

func TestStatusHistoryAndConfig(t *testing.T) {
	srv := newTestServer(t, fakeDiscoverer{})
	created := decode[domain.Device](t, do(t, srv, http.MethodPost, "/api/devices", `{"name":"r1","ip_address":"10.0.0.9"}`))

	rec := do(t, srv, http.MethodGet, "/api/devices/"+created.ID+"/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[domain.Device](t, rec)
	assert.GreaterOrEqual(t, status.CPUUsage, 0.0)
	assert.Less(t, status.CPUUsage, 100.0)

	rec = do(t, srv, http.MethodGet, "/api/devices/"+created.ID+"/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.MetricSample](t, rec), 1)

	rec = do(t, srv, http.MethodPost, "/api/devices/"+created.ID+"/config", `{"hostname":"edge-7","interfaceIp":"10.0.0.7","ignored":"x"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	configured := decode[domain.Device](t, rec)
	assert.Equal(t, "edge-7", configured.Name)
	assert.Equal(t, "10.0.0.7", configured.IPAddress)
	assert.Equal(t, domain.ProtocolNETCONF, configured.Protocol)
	assert.Equal(t, domain.StatusConfigured, configured.Status)

	rec = do(t, srv, http.MethodPost, "/api/devices/"+created.ID+"/refresh", "")
	require.Equal(t, http.StatusOK, rec.Code)
	refreshed := decode[RefreshResponse](t, rec)
	assert.True(t, refreshed.Refreshed)
	assert.GreaterOrEqual(t, refreshed.Device.CPUUsage, 50.0)

	rec = do(t, srv, http.MethodPost, "/api/devices/missing/config", `{"hostname":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMiddleware(t *testing.T) {
	log := logger.NewTestLogger()

	t.Run("recover returns 500", func(t *testing.T) {
		panicking := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })
		rec := httptest.NewRecorder()
		Chain(panicking, Recover(log), Logger(log)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("cors preflight", func(t *testing.T) {
		srv := newTestServer(t, fakeDiscoverer{})
		rec := do(t, srv, http.MethodOptions, "/api/devices", "")
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("healthz", func(t *testing.T) {
		srv := newTestServer(t, fakeDiscoverer{})
		rec := do(t, srv, http.MethodGet, "/healthz", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("chain order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}
		h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}), mark("a"), mark("b"))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, []string{"a", "b"}, order)
	})
}
