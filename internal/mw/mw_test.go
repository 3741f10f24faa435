package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestClientIP(t *testing.T) {
	testCases := []struct {
		name     string
		header   string
		headers  map[string]string
		expected string
	}{
		{name: "remote address", expected: "192.0.2.1"},
		{name: "configured header", header: "X-Real-Client", headers: map[string]string{"X-Real-Client": "::ffff:10.0.0.5, 172.16.0.1"}, expected: "10.0.0.5"},
		{name: "configured header missing", header: "X-Real-Client", expected: "192.0.2.1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(ClientIP(tc.header))
			r.GET("/ip", func(c *gin.Context) { c.String(http.StatusOK, GetClientIP(c)) })

			w := perform(r, http.MethodGet, "/ip", tc.headers)
			assert.Equal(t, tc.expected, w.Body.String())
		})
	}
}

func TestRateLimiter(t *testing.T) {
	r := gin.New()
	r.Use(ClientIP(""), RateLimiter(1, 2))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/", nil).Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/", nil).Code)
	w := perform(r, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "rate_limited")
}

func TestIPRateLimiter_SameLimiterPerIP(t *testing.T) {
	l := NewIPRateLimiter(1, 1)
	assert.Same(t, l.GetLimiter("10.0.0.1"), l.GetLimiter("10.0.0.1"))
	assert.NotSame(t, l.GetLimiter("10.0.0.1"), l.GetLimiter("10.0.0.2"))
}

func TestCacheAndFlushOnWrite(t *testing.T) {
	store := cache.New(time.Minute, time.Minute)
	calls := 0

	r := gin.New()
	r.Use(FlushOnWrite(store))
	r.GET("/stats", Cache(store, time.Minute), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"calls": calls})
	})
	r.POST("/write", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/fail", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	first := perform(r, http.MethodGet, "/stats", nil)
	second := perform(r, http.MethodGet, "/stats", nil)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, 1, calls)

	perform(r, http.MethodPost, "/fail", nil)
	perform(r, http.MethodGet, "/stats", nil)
	assert.Equal(t, 1, calls, "failed writes keep the cache")

	perform(r, http.MethodPost, "/write", nil)
	perform(r, http.MethodGet, "/stats", nil)
	assert.Equal(t, 2, calls)
}

func TestRequestIDAndAccessLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	r := gin.New()
	r.Use(RequestID(), ClientIP(""), AccessLog(zap.New(core)), Recovery(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := perform(r, http.MethodGet, "/ok", map[string]string{"X-Request-ID": "abc"})
	assert.Equal(t, "abc", w.Header().Get("X-Request-ID"))

	w = perform(r, http.MethodGet, "/ok", nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = perform(r, http.MethodGet, "/panic", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 3)
	assert.Equal(t, "abc", entries[0].ContextMap()["request_id"])
	assert.Equal(t, "192.0.2.1", entries[0].ContextMap()["client_ip"])
	assert.EqualValues(t, http.StatusInternalServerError, entries[2].ContextMap()["status"])
	assert.Equal(t, 1, logs.FilterMessage("panic while handling request").Len())
}
