package middlewares

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hilthontt/townhall/infrastructure/cache"
)

var concurrencyCheckMethods = []string{http.MethodPatch, http.MethodDelete}

type ETagStore interface {
	GetETag(resourceURI string) string
	SetETag(resourceURI, etag string)
	DeleteETag(resourceURI string)
}

type localETagStore struct {
	entries *cache.Local[string]
}

// NewLocalETagStore remembers the last representation served per resource
// path, bounded to maxItems paths.
func NewLocalETagStore(maxItems int) ETagStore {
	return &localETagStore{
		entries: cache.NewLocal[string](cache.LocalOptions{MaxItems: maxItems}),
	}
}

func (s *localETagStore) GetETag(resourceURI string) string {
	etag, _ := s.entries.Get(resourceURI)
	return etag
}

func (s *localETagStore) SetETag(resourceURI, etag string) {
	s.entries.Set(resourceURI, etag)
}

func (s *localETagStore) DeleteETag(resourceURI string) {
	s.entries.Delete(resourceURI)
}

// ETagMiddleware answers conditional GETs with 304 and rejects a PATCH or
// DELETE whose If-Match no longer names the stored representation with 412.
// GET and PATCH responses are buffered so the tag can be computed before
// anything is sent.
func ETagMiddleware(store ETagStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodPost {
			c.Next()
			return
		}

		resourceURI := c.Request.URL.Path
		ifNoneMatch := strings.Trim(c.GetHeader("If-None-Match"), "\"")
		ifMatch := strings.Trim(c.GetHeader("If-Match"), "\"")

		if containsMethod(concurrencyCheckMethods, c.Request.Method) && ifMatch != "" {
			currentETag := store.GetETag(resourceURI)
			if currentETag != "" && ifMatch != currentETag {
				c.AbortWithStatusJSON(http.StatusPreconditionFailed, gin.H{
					"error":   "precondition_failed",
					"message": "the resource changed since it was last read",
				})
				return
			}
		}

		if c.Request.Method == http.MethodDelete {
			c.Next()
			if c.Writer.Status() < http.StatusMultipleChoices {
				store.DeleteETag(resourceURI)
			}
			return
		}

		original := c.Writer
		writer := &bufferedWriter{ResponseWriter: original, body: &bytes.Buffer{}}
		c.Writer = writer

		c.Next()

		c.Writer = original

		if isETaggableResponse(writer) {
			etag := generateETag(writer.body.Bytes())
			store.SetETag(resourceURI, etag)
			original.Header().Set("ETag", "\""+etag+"\"")

			if c.Request.Method == http.MethodGet && ifNoneMatch == etag {
				original.Header().Del("Content-Type")
				original.Header().Del("Content-Length")
				original.WriteHeader(http.StatusNotModified)
				original.WriteHeaderNow()
				return
			}
		}

		if writer.body.Len() == 0 {
			original.WriteHeaderNow()
			return
		}
		_, _ = original.Write(writer.body.Bytes())
	}
}

type bufferedWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bufferedWriter) Write(b []byte) (int, error) {
	return w.body.Write(b)
}

func (w *bufferedWriter) WriteString(s string) (int, error) {
	return w.body.WriteString(s)
}

func (w *bufferedWriter) Written() bool {
	return w.body.Len() > 0
}

func (w *bufferedWriter) Size() int {
	return w.body.Len()
}

// WriteHeaderNow is deferred until the buffered body is released.
func (w *bufferedWriter) WriteHeaderNow() {}

func isETaggableResponse(w *bufferedWriter) bool {
	contentType := w.Header().Get("Content-Type")
	return w.Status() == http.StatusOK &&
		strings.Contains(strings.ToLower(contentType), "json")
}

func generateETag(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

func containsMethod(methods []string, method string) bool {
	for _, m := range methods {
		if m == method {
			return true
		}
	}
	return false
}
