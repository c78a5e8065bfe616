//go:build !integration && !e2e

package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/model-router-go/internal/service"
	"github.com/user/model-router-go/internal/testutil"
)

func newTestMonitor(t *testing.T) *service.HealthMonitor {
	t.Helper()
	monitor := service.NewHealthMonitor(5000, testutil.NewTestLogger())
	provider := testutil.SampleProvider("alpha")
	monitor.RegisterProvider(&provider)
	return monitor
}

func TestHealthEndpointStatus(t *testing.T) {
	monitor := newTestMonitor(t)
	h := NewHealthHandler(monitor)

	c, w := testutil.NewTestContext()
	h.Health(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, body["version"])

	t.Run("degrades with a slow provider", func(t *testing.T) {
		_, err := monitor.PerformHealthCheck("alpha", 9000, true, "")
		require.NoError(t, err)

		c, w := testutil.NewTestContext()
		h.Health(c)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "degraded", body["status"])
	})
}

func TestPerformCheckEndpoint(t *testing.T) {
	h := NewHealthHandler(newTestMonitor(t))

	c, w := testutil.NewTestContextWithRequest("POST", "/api/providers/alpha/health-check", gin.H{
		"response_time_ms": 150.0,
		"is_available":     true,
	})
	c.Params = gin.Params{{Key: "id", Value: "alpha"}}
	h.PerformCheck(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["health_state"])

	t.Run("unknown provider", func(t *testing.T) {
		c, w := testutil.NewTestContextWithRequest("POST", "/api/providers/ghost/health-check", gin.H{
			"response_time_ms": 150.0,
			"is_available":     true,
		})
		c.Params = gin.Params{{Key: "id", Value: "ghost"}}
		h.PerformCheck(c)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestRateLimitEndpoints(t *testing.T) {
	monitor := newTestMonitor(t)
	h := NewHealthHandler(monitor)

	require.NoError(t, monitor.RecordRequest("alpha", true, 250))

	c, w := testutil.NewTestContext()
	c.Params = gin.Params{{Key: "id", Value: "alpha"}}
	h.RateLimits(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(1), body["rpm_current"])
	assert.Equal(t, float64(250), body["tpm_current"])

	t.Run("reset counters", func(t *testing.T) {
		c, w := testutil.NewTestContext()
		c.Params = gin.Params{{Key: "id", Value: "alpha"}}
		h.ResetRateCounters(c)
		assert.Equal(t, http.StatusOK, w.Code)

		status, err := monitor.GetRateLimitStatus("alpha")
		require.NoError(t, err)
		assert.Equal(t, 0, status.RPMCurrent)
	})
}

func TestUptimeAndIncidentEndpoints(t *testing.T) {
	monitor := newTestMonitor(t)
	h := NewHealthHandler(monitor)

	_, err := monitor.PerformHealthCheck("alpha", 100, true, "")
	require.NoError(t, err)
	_, err = monitor.PerformHealthCheck("alpha", 0, false, "connection refused")
	require.NoError(t, err)

	c, w := testutil.NewTestContext()
	c.Params = gin.Params{{Key: "id", Value: "alpha"}}
	h.Uptime(c)
	assert.Equal(t, http.StatusOK, w.Code)
	var uptime map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &uptime))
	assert.InDelta(t, 50.0, uptime["uptime_percent"], 0.01)

	c, w = testutil.NewTestContext()
	c.Params = gin.Params{{Key: "id", Value: "alpha"}}
	h.Incidents(c)
	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body["incidents"], 1)
}
