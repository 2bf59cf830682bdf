package security

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/localeintel/pulse/internal/errors"
)

// GitHub caps logins at 39 characters.
const maxOrgLoginLength = 39

var orgLoginPattern = regexp.MustCompile(`^[a-zA-Z0-9](?:[a-zA-Z0-9-]*[a-zA-Z0-9])?$`)

// SecurityConfig holds the settings applied to the HTTP surface.
type SecurityConfig struct {
	MaxBodyBytes   int64         `json:"max_body_bytes"`
	TrustedProxies []string      `json:"trusted_proxies"`
	RequestTimeout time.Duration `json:"request_timeout"`
}

// DefaultSecurityConfig returns defaults sized for scan context payloads.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		// Scan contexts for large orgs stay well under a megabyte.
		MaxBodyBytes:   1 << 20,
		TrustedProxies: []string{"127.0.0.1", "::1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"},
		RequestTimeout: 30 * time.Second,
	}
}

// SecurityMiddleware provides request guards for the scoring endpoints.
type SecurityMiddleware struct {
	config SecurityConfig
}

// NewSecurityMiddleware creates a new security middleware instance.
func NewSecurityMiddleware(config SecurityConfig) *SecurityMiddleware {
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = DefaultSecurityConfig().MaxBodyBytes
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = DefaultSecurityConfig().RequestTimeout
	}
	return &SecurityMiddleware{config: config}
}

// RequestTimeout bounds each request with a deadline so a stuck scoring
// call cannot pin a connection forever.
func (sm *SecurityMiddleware) RequestTimeout() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), sm.config.RequestTimeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Timeout", sm.config.RequestTimeout.String())
		c.Next()
	}
}

// ValidateContentType rejects bodied requests that are not JSON. The
// scoring API accepts nothing else.
func (sm *SecurityMiddleware) ValidateContentType() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			c.Next()
			return
		}

		contentType := c.GetHeader("Content-Type")
		if contentType == "" && c.Request.ContentLength == 0 {
			c.Next()
			return
		}

		if !strings.HasPrefix(contentType, "application/json") {
			c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{
				"error":   "unsupported content type",
				"message": "scan payloads must be application/json",
			})
			return
		}

		c.Next()
	}
}

// BodySizeLimit rejects oversized payloads before they are read. Chunked
// uploads carry no Content-Length, so the body is also wrapped with
// MaxBytesReader to stop those mid-read.
func (sm *SecurityMiddleware) BodySizeLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > sm.config.MaxBodyBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"error":     "request body too large",
				"max_bytes": sm.config.MaxBodyBytes,
			})
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, sm.config.MaxBodyBytes)
		c.Next()
	}
}

// ValidateOrgLogin checks that an org login looks like a real GitHub login
// before it reaches the scoring pipeline. Scan contexts normally arrive from
// the scanner, but the endpoint is also hit by internal tooling that may
// pass arbitrary identifiers. An empty login is allowed; it marks a scan of
// a personal account rather than an organization.
func ValidateOrgLogin(login string) error {
	if login == "" {
		return nil
	}
	if len(login) > maxOrgLoginLength {
		return errors.NewValidationError(fmt.Sprintf("org_login exceeds %d characters", maxOrgLoginLength))
	}
	if !utf8.ValidString(login) || strings.ContainsRune(login, 0) {
		return errors.NewValidationError("org_login contains invalid characters")
	}
	if strings.Contains(login, "--") || !orgLoginPattern.MatchString(login) {
		return errors.NewValidationError("org_login is not a valid GitHub org login")
	}
	return nil
}
