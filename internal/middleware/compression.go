package middleware

import (
	"compress/gzip"
	"io"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

// CompressionConfig holds response compression settings.
type CompressionConfig struct {
	MinSize          int      // responses below this many bytes pass through
	CompressionLevel int      // gzip level 1-9
	ContentTypes     []string // content types worth compressing
}

// DefaultCompressionConfig compresses JSON payloads of a kilobyte or
// more at a balanced level. Structured scoring results for active orgs
// run several kilobytes.
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize:          1024,
		CompressionLevel: 6,
		ContentTypes: []string{
			"application/json",
			"text/plain",
		},
	}
}

// CompressionMiddleware gzips responses for clients that accept it.
type CompressionMiddleware struct {
	config CompressionConfig
	stats  *CompressionStats
	pool   sync.Pool
}

// NewCompressionMiddleware creates a compression middleware with pooled
// gzip writers.
func NewCompressionMiddleware(config CompressionConfig) *CompressionMiddleware {
	if config.CompressionLevel < gzip.BestSpeed || config.CompressionLevel > gzip.BestCompression {
		config.CompressionLevel = 6
	}

	cm := &CompressionMiddleware{
		config: config,
		stats:  NewCompressionStats(),
	}
	cm.pool = sync.Pool{
		New: func() interface{} {
			gz, _ := gzip.NewWriterLevel(io.Discard, cm.config.CompressionLevel)
			return gz
		},
	}
	return cm
}

// Handler returns the gin middleware.
func (cm *CompressionMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.Contains(c.GetHeader("Accept-Encoding"), "gzip") {
			c.Next()
			return
		}

		gw := &gzipResponseWriter{ResponseWriter: c.Writer, cm: cm}
		c.Writer = gw
		c.Next()

		compressed := gw.gz != nil
		if compressed {
			cm.returnGzipWriter(gw.gz)
		}
		cm.stats.RecordRequest(gw.originalSize, int64(gw.ResponseWriter.Size()), compressed)
	}
}

func (cm *CompressionMiddleware) shouldCompress(contentType string) bool {
	for _, ct := range cm.config.ContentTypes {
		if strings.Contains(contentType, ct) {
			return true
		}
	}
	return false
}

func (cm *CompressionMiddleware) getGzipWriter(w io.Writer) *gzip.Writer {
	gz := cm.pool.Get().(*gzip.Writer)
	gz.Reset(w)
	return gz
}

func (cm *CompressionMiddleware) returnGzipWriter(gz *gzip.Writer) {
	gz.Close()
	cm.pool.Put(gz)
}

// GetStats returns compression counters.
func (cm *CompressionMiddleware) GetStats() map[string]interface{} {
	return cm.stats.GetStats()
}

// gzipResponseWriter decides on the first write whether this response is
// worth compressing and routes every write the same way after that, so
// the encoding never changes mid-response.
type gzipResponseWriter struct {
	gin.ResponseWriter
	cm           *CompressionMiddleware
	gz           *gzip.Writer
	bypass       bool
	originalSize int64
}

func (gw *gzipResponseWriter) Write(data []byte) (int, error) {
	gw.originalSize += int64(len(data))

	if gw.gz == nil && !gw.bypass {
		if len(data) < gw.cm.config.MinSize || !gw.cm.shouldCompress(gw.Header().Get("Content-Type")) {
			gw.bypass = true
		} else {
			gw.Header().Set("Content-Encoding", "gzip")
			gw.Header().Set("Vary", "Accept-Encoding")
			gw.Header().Del("Content-Length")
			gw.gz = gw.cm.getGzipWriter(gw.ResponseWriter)
		}
	}

	if gw.bypass {
		return gw.ResponseWriter.Write(data)
	}
	return gw.gz.Write(data)
}

func (gw *gzipResponseWriter) WriteString(s string) (int, error) {
	return gw.Write([]byte(s))
}

func (gw *gzipResponseWriter) Flush() {
	if gw.gz != nil {
		gw.gz.Flush()
	}
	gw.ResponseWriter.Flush()
}

// CompressionStats tracks how much compression is saving.
type CompressionStats struct {
	TotalRequests      int64
	CompressedRequests int64
	TotalBytes         int64
	CompressedBytes    int64
	mutex              sync.RWMutex
}

// NewCompressionStats creates empty counters.
func NewCompressionStats() *CompressionStats {
	return &CompressionStats{}
}

// RecordRequest records one response's sizes.
func (cs *CompressionStats) RecordRequest(originalSize, wireSize int64, compressed bool) {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	cs.TotalRequests++
	cs.TotalBytes += originalSize

	if compressed {
		cs.CompressedRequests++
		cs.CompressedBytes += wireSize
	}
}

// GetStats returns current compression statistics.
func (cs *CompressionStats) GetStats() map[string]interface{} {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	compressionRatio := float64(0)
	if cs.TotalBytes > 0 {
		compressionRatio = float64(cs.CompressedBytes) / float64(cs.TotalBytes)
	}

	return map[string]interface{}{
		"total_requests":      cs.TotalRequests,
		"compressed_requests": cs.CompressedRequests,
		"total_bytes":         cs.TotalBytes,
		"compressed_bytes":    cs.CompressedBytes,
		"compression_ratio":   compressionRatio,
	}
}
