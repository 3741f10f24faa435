package mw

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// snapshot is a cached response. Only the content type is replayed so per-request
// headers such as X-Request-ID stay fresh.
type snapshot struct {
	status      int
	contentType string
	body        []byte
}

// teeWriter copies the body into buf while writing it through.
type teeWriter struct {
	gin.ResponseWriter
	buf *bytes.Buffer
}

func (w teeWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w teeWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// cacheKey ignores query parameter order.
func cacheKey(r *http.Request) string {
	q := r.URL.Query().Encode()
	if q == "" {
		return r.URL.Path
	}
	return r.URL.Path + "?" + q
}

// Cache serves repeated GET requests from store for ttl. Hits carry X-Cache: HIT.
func Cache(store *cache.Cache, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := cacheKey(c.Request)
		if v, ok := store.Get(key); ok {
			snap := v.(snapshot)
			c.Header("X-Cache", "HIT")
			c.Data(snap.status, snap.contentType, snap.body)
			c.Abort()
			return
		}

		tee := teeWriter{ResponseWriter: c.Writer, buf: &bytes.Buffer{}}
		c.Writer = tee
		c.Next()

		if status := tee.Status(); status >= http.StatusOK && status < http.StatusMultipleChoices {
			store.Set(key, snapshot{
				status:      status,
				contentType: tee.Header().Get("Content-Type"),
				body:        tee.buf.Bytes(),
			}, ttl)
		}
	}
}

// FlushOnWrite empties store after every successful non-GET request.
func FlushOnWrite(store *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			return
		}
		if s := c.Writer.Status(); s >= http.StatusOK && s < http.StatusMultipleChoices {
			store.Flush()
		}
	}
}
