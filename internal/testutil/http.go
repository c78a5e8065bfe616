package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewTestLogger creates a no-op logger for testing.
func NewTestLogger() *zap.Logger {
	return zap.NewNop()
}

// NewTestContext creates a Gin context for testing.
func NewTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	return c, w
}

// NewTestContextWithRequest creates a Gin context with a JSON request body.
func NewTestContextWithRequest(method, path string, body any) (*gin.Context, *httptest.ResponseRecorder) {
	c, w := NewTestContext()

	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	c.Request = req

	return c, w
}
