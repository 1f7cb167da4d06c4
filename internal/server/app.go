// Package server wires configuration, storage, mail, object storage and the
// HTTP API together and runs them until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/moi/internal/dbx"
	"github.com/dmitrijs2005/moi/internal/logging"
	"github.com/dmitrijs2005/moi/internal/server/auth"
	"github.com/dmitrijs2005/moi/internal/server/config"
	"github.com/dmitrijs2005/moi/internal/server/httpapi"
	"github.com/dmitrijs2005/moi/internal/server/mailer"
	"github.com/dmitrijs2005/moi/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/moi/internal/server/services"
	"github.com/dmitrijs2005/moi/internal/server/storage"
	"github.com/gin-gonic/gin"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	mail   *mailer.Dispatcher
	server *httpapi.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	db, err := dbx.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	codec, err := auth.NewCodec(auth.Options{
		Secret:          []byte(c.SecretKey),
		Algorithm:       c.Algorithm,
		AccessTTL:       c.AccessTokenValidityDuration,
		RefreshTTL:      c.RefreshTokenValidityDuration,
		VerificationTTL: c.EmailVerificationValidityDuration,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("token codec error: %w", err)
	}

	presigner, err := storage.NewS3Presigner(ctx, storage.S3Config{
		AccessKey:    c.S3RootUser,
		SecretKey:    c.S3RootPassword,
		Bucket:       c.S3Bucket,
		Region:       c.S3Region,
		BaseEndpoint: c.S3BaseEndpoint,
		Expires:      c.S3PresignValidityDuration,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("s3 init error: %w", err)
	}

	sender := mailer.NewSMTPSender(mailer.SMTPConfig{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		Username: c.SMTPUsername,
		Password: c.SMTPPassword,
		From:     c.EmailFrom,
		SSL:      c.SMTPSSLTLS,
	})
	mail := mailer.NewDispatcher(sender, c.MailWorkers, c.MailQueueSize, logger)

	hasher := auth.NewPasswordHasher(c.BcryptCost, c.HashWorkers)

	if c.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	h := httpapi.NewHandler(httpapi.Options{
		Sessions:       services.NewSessionService(db, rm, codec, hasher, mail, c, logger),
		Identities:     services.NewIdentityResolver(db, rm, codec),
		Files:          services.NewFileService(db, rm, presigner),
		Users:          services.NewUserService(db, rm, hasher),
		Cookies:        httpapi.CookieOptionsFor(c.IsProduction(), c.AccessTokenValidityDuration, c.RefreshTokenValidityDuration),
		AllowedOrigins: c.AllowedOrigins,
		Logger:         logger,
	})

	return &App{
		config: c,
		logger: logger,
		db:     db,
		mail:   mail,
		server: httpapi.NewServer(c.EndpointAddrHTTP, h.Router(), logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until a signal arrives or the server fails, then drains the
// mail queue and closes the database.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "env", app.config.Environment)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.mail.Close()
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing db", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
