package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newLimitedRouter(cfg Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Middleware(cfg))
	router.POST("/broadcast", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func doRequest(router *gin.Engine, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/broadcast", nil)
	req.RemoteAddr = ip + ":12345"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestMiddlewareLimitsAfterBurst(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RPS = 1
	cfg.Burst = 2
	router := newLimitedRouter(cfg)

	assert.Equal(t, http.StatusOK, doRequest(router, "10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, doRequest(router, "10.0.0.1").Code)

	w := doRequest(router, "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "RATE_LIMIT_EXCEEDED")
}

func TestMiddlewareIsolatesClients(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RPS = 1
	cfg.Burst = 1
	router := newLimitedRouter(cfg)

	assert.Equal(t, http.StatusOK, doRequest(router, "10.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(router, "10.0.0.1").Code)

	assert.Equal(t, http.StatusOK, doRequest(router, "10.0.0.2").Code, "second client has its own bucket")
}

func TestMiddlewareRefillsOverTime(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RPS = 50
	cfg.Burst = 1
	router := newLimitedRouter(cfg)

	assert.Equal(t, http.StatusOK, doRequest(router, "10.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(router, "10.0.0.1").Code)

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, http.StatusOK, doRequest(router, "10.0.0.1").Code)
}
