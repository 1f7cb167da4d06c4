// Package httpapi exposes the services over HTTP with gin.
package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/moi/internal/logging"
	"github.com/dmitrijs2005/moi/internal/server/models"
	"github.com/dmitrijs2005/moi/internal/server/services"
	"github.com/gin-gonic/gin"
)

// Sessions is the account and session API the handlers depend on.
type Sessions interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*services.Session, error)
	Logout(ctx context.Context, refreshToken string)
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, email string) error
}

// Identities resolves access tokens to verified users.
type Identities interface {
	ResolveVerified(ctx context.Context, token string) (*services.CurrentUser, error)
}

// Files is the upload tracking API.
type Files interface {
	CreateUpload(ctx context.Context, userID int64, contentType string) (*services.Upload, error)
	List(ctx context.Context, userID int64) ([]*models.File, error)
	Complete(ctx context.Context, userID int64, id string) error
	DownloadURL(ctx context.Context, userID int64, id string) (string, error)
}

// Users is the administrative user API.
type Users interface {
	ListUsers(ctx context.Context) ([]*models.User, error)
}

// Options bundles the handler dependencies.
type Options struct {
	Sessions       Sessions
	Identities     Identities
	Files          Files
	Users          Users
	Cookies        CookieOptions
	AllowedOrigins []string
	Logger         logging.Logger
}

// Handler serves the HTTP API.
type Handler struct {
	sessions       Sessions
	identities     Identities
	files          Files
	users          Users
	cookies        CookieOptions
	allowedOrigins []string
	logger         logging.Logger
}

func NewHandler(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	return &Handler{
		sessions:       opts.Sessions,
		identities:     opts.Identities,
		files:          opts.Files,
		users:          opts.Users,
		cookies:        opts.Cookies,
		allowedOrigins: opts.AllowedOrigins,
		logger:         logger.With("module", "httpapi"),
	}
}

// Router builds the gin engine with all routes registered.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.requestLogger(), h.cors())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	a := r.Group("/auth")
	a.POST("/register", h.register)
	a.POST("/login", h.login)
	a.POST("/refresh", h.refresh)
	a.POST("/logout", h.logout)
	a.GET("/verify", h.verifyEmail)
	a.POST("/verify/resend", h.resendVerification)

	verified := r.Group("/", h.authenticate())
	verified.GET("/users/profile/me", h.me)

	verified.POST("/files", h.createFile)
	verified.GET("/files", h.listFiles)
	verified.POST("/files/:id/complete", h.completeFile)
	verified.GET("/files/:id/download", h.downloadFile)

	admin := verified.Group("/admin", h.requireSuperuser())
	admin.GET("/users", h.listUsers)

	return r
}
