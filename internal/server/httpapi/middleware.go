package httpapi

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/moi/internal/common"
	"github.com/dmitrijs2005/moi/internal/server/services"
	"github.com/gin-gonic/gin"
)

const currentUserKey = "currentUser"

// requestLogger logs HTTP request/response metadata.
func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		h.logger.Info(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"client_ip", c.ClientIP(),
			"latency", time.Since(start).String(),
		)
	}
}

// cors allows credentialed requests from the configured origins.
func (h *Handler) cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (slices.Contains(h.allowedOrigins, origin) || slices.Contains(h.allowedOrigins, "*")) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
			c.Header("Vary", "Origin")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// tokenFromRequest takes the access token from the Authorization bearer
// header, falling back to the access token cookie.
func tokenFromRequest(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	token, _ := c.Cookie(common.AccessTokenCookieName)
	return token
}

// authenticate resolves the current verified user and stores it in the
// context.
func (h *Handler) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := h.identities.ResolveVerified(c.Request.Context(), tokenFromRequest(c))
		if err != nil {
			h.abortWithError(c, err)
			return
		}
		c.Set(currentUserKey, u)
		c.Next()
	}
}

func (h *Handler) requireSuperuser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !currentUser(c).IsSuperuser {
			h.abortWithError(c, common.ErrForbidden)
			return
		}
		c.Next()
	}
}

// currentUser returns the user set by authenticate.
func currentUser(c *gin.Context) *services.CurrentUser {
	return c.MustGet(currentUserKey).(*services.CurrentUser)
}
