package mw

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimiter(t *testing.T) {
	limiter := NewClientRateLimiter(1, 2, time.Minute)

	r := gin.New()
	r.Use(RateLimiter(limiter))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code, "other clients have their own bucket")
}

func TestClientRateLimiter_ReusesBucket(t *testing.T) {
	limiter := NewClientRateLimiter(1, 1, time.Minute)
	assert.Same(t, limiter.Limiter("a"), limiter.Limiter("a"))
	assert.NotSame(t, limiter.Limiter("a"), limiter.Limiter("b"))
}

func TestCache(t *testing.T) {
	calls := 0
	r := gin.New()
	r.Use(Cache(cache.New(time.Minute, time.Minute), time.Minute))
	r.GET("/salons", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"calls": calls})
	})
	r.GET("/missing", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusNotFound, gin.H{"error": "nope"})
	})

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	first := get("/salons")
	second := get("/salons")
	assert.Equal(t, 1, calls)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Contains(t, second.Header().Get("Content-Type"), "application/json")

	get("/missing")
	get("/missing")
	assert.Equal(t, 3, calls, "error responses are not cached")
}

func TestCache_HitKeepsPerRequestHeaders(t *testing.T) {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Header(RequestIDHeader, c.GetHeader(RequestIDHeader))
		c.Header("Vary", "Origin")
	})
	r.Use(Cache(cache.New(time.Minute, time.Minute), time.Minute))
	r.GET("/salons", func(c *gin.Context) {
		c.Header("X-Handler", "salons")
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	get := func(id string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/salons", nil)
		req.Header.Set(RequestIDHeader, id)
		r.ServeHTTP(w, req)
		return w
	}

	get("req-1")
	hit := get("req-2")
	assert.Equal(t, "HIT", hit.Header().Get("X-Cache"))
	assert.Equal(t, []string{"req-2"}, hit.Header().Values(RequestIDHeader))
	assert.Equal(t, []string{"Origin"}, hit.Header().Values("Vary"))
	assert.Empty(t, hit.Header().Get("X-Handler"), "only content headers are replayed")
	assert.Contains(t, hit.Header().Get("Content-Type"), "application/json")
}

func TestRequestLogger(t *testing.T) {
	log, hook := test.NewNullLogger()

	r := gin.New()
	r.Use(RequestLogger(log))
	r.GET("/ok", func(c *gin.Context) {
		Logger(c, logrus.New()).Info("inside")
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ok", bytes.NewReader(nil))
	req.Header.Set(RequestIDHeader, "req-1")
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-1", w.Header().Get(RequestIDHeader))
	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, "req-1", e.Data["request_id"])
	}
	assert.Equal(t, "request handled", entries[1].Message)
	assert.Equal(t, http.StatusOK, entries[1].Data["status"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader), "an id is generated when none is sent")
}
