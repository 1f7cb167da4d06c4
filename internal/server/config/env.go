package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// envConfig mirrors the environment variable names used by the deployment.
// Pointer fields stay nil when the variable is unset, so only present
// variables override earlier layers.
type envConfig struct {
	Environment    *string `env:"ENV"`
	ProjectName    *string `env:"PROJECT_NAME"`
	LogLevel       *string `env:"LOG_LEVEL"`
	HTTPAddr       *string `env:"HTTP_ADDR"`
	AllowedOrigins *string `env:"CORS_ORIGINS"`

	DB    dbEnv    `envPrefix:"DB_"`
	Auth  authEnv  `envPrefix:"AUTH_"`
	Email emailEnv `envPrefix:"EMAIL_"`
	S3    s3Env    `envPrefix:"S3_"`
}

type dbEnv struct {
	DSN      *string `env:"DSN"`
	Host     *string `env:"HOST"`
	Port     *string `env:"PORT"`
	User     *string `env:"USER"`
	Name     *string `env:"NAME"`
	Password *string `env:"PASSWORD"`
}

type authEnv struct {
	SecretKey                  *string `env:"JWT_SECRET_KEY"`
	Algorithm                  *string `env:"ALGORITHM"`
	AccessTokenExpireMinutes   *int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES"`
	RefreshTokenExpireDays     *int    `env:"REFRESH_TOKEN_EXPIRE_DAYS"`
	EmailVerificationExpireHrs *int    `env:"EMAIL_VERIFICATION_EXPIRATION_HOURS"`
	VerificationURL            *string `env:"VERIFICATION_URL"`
	BcryptCost                 *int    `env:"BCRYPT_COST"`
	HashWorkers                *int    `env:"HASH_WORKERS"`
}

type emailEnv struct {
	SMTPHost     *string `env:"SMTP_HOST"`
	SMTPPort     *int    `env:"SMTP_PORT"`
	SMTPUsername *string `env:"SMTP_USERNAME"`
	SMTPPassword *string `env:"SMTP_PASSWORD"`
	From         *string `env:"EMAIL_FROM"`
	StartTLS     *bool   `env:"SMTP_STARTTLS"`
	SSLTLS       *bool   `env:"SMTP_SSL_TLS"`
	Workers      *int    `env:"WORKERS"`
	QueueSize    *int    `env:"QUEUE_SIZE"`
}

type s3Env struct {
	AccessKey            *string `env:"ACCESS_KEY"`
	SecretKey            *string `env:"SECRET_KEY"`
	BucketName           *string `env:"BUCKET_NAME"`
	Region               *string `env:"REGION"`
	EndpointURL          *string `env:"ENDPOINT_URL"`
	URLExpirationSeconds *int    `env:"URL_EXPIRATION_SECONDS"`
}

// parseEnv overlays environment variables onto config.
func parseEnv(config *Config) error {
	var e envConfig
	if err := env.Parse(&e); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}

	setIf(&config.Environment, e.Environment)
	setIf(&config.ProjectName, e.ProjectName)
	setIf(&config.LogLevel, e.LogLevel)
	setIf(&config.EndpointAddrHTTP, e.HTTPAddr)
	if e.AllowedOrigins != nil {
		config.AllowedOrigins = splitList(*e.AllowedOrigins)
	}

	if e.DB.Host != nil {
		config.DatabaseDSN = buildDSN(e.DB)
	}
	setIf(&config.DatabaseDSN, e.DB.DSN)

	setIf(&config.SecretKey, e.Auth.SecretKey)
	setIf(&config.Algorithm, e.Auth.Algorithm)
	if e.Auth.AccessTokenExpireMinutes != nil {
		config.AccessTokenValidityDuration = time.Duration(*e.Auth.AccessTokenExpireMinutes) * time.Minute
	}
	if e.Auth.RefreshTokenExpireDays != nil {
		config.RefreshTokenValidityDuration = time.Duration(*e.Auth.RefreshTokenExpireDays) * 24 * time.Hour
	}
	if e.Auth.EmailVerificationExpireHrs != nil {
		config.EmailVerificationValidityDuration = time.Duration(*e.Auth.EmailVerificationExpireHrs) * time.Hour
	}
	setIf(&config.VerificationURL, e.Auth.VerificationURL)
	setIf(&config.BcryptCost, e.Auth.BcryptCost)
	setIf(&config.HashWorkers, e.Auth.HashWorkers)

	setIf(&config.SMTPHost, e.Email.SMTPHost)
	setIf(&config.SMTPPort, e.Email.SMTPPort)
	setIf(&config.SMTPUsername, e.Email.SMTPUsername)
	setIf(&config.SMTPPassword, e.Email.SMTPPassword)
	setIf(&config.EmailFrom, e.Email.From)
	setIf(&config.SMTPStartTLS, e.Email.StartTLS)
	setIf(&config.SMTPSSLTLS, e.Email.SSLTLS)
	setIf(&config.MailWorkers, e.Email.Workers)
	setIf(&config.MailQueueSize, e.Email.QueueSize)

	setIf(&config.S3RootUser, e.S3.AccessKey)
	setIf(&config.S3RootPassword, e.S3.SecretKey)
	setIf(&config.S3Bucket, e.S3.BucketName)
	setIf(&config.S3Region, e.S3.Region)
	setIf(&config.S3BaseEndpoint, e.S3.EndpointURL)
	if e.S3.URLExpirationSeconds != nil {
		config.S3PresignValidityDuration = time.Duration(*e.S3.URLExpirationSeconds) * time.Second
	}

	return nil
}

func buildDSN(db dbEnv) string {
	deref := func(p *string, def string) string {
		if p == nil || *p == "" {
			return def
		}
		return *p
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(deref(db.User, "postgres"), deref(db.Password, "")),
		Host:     net.JoinHostPort(deref(db.Host, "localhost"), deref(db.Port, "5432")),
		Path:     "/" + deref(db.Name, "moi"),
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
