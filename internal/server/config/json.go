package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/moi/internal/flagx"
	"github.com/dmitrijs2005/moi/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Every field is
// optional; absent fields keep the value already in Config. Durations accept
// "15m"-style strings or integer nanoseconds.
type JsonConfig struct {
	EndpointAddrHTTP                  *string         `json:"endpoint_addr_http"`
	Environment                       *string         `json:"environment"`
	ProjectName                       *string         `json:"project_name"`
	LogLevel                          *string         `json:"log_level"`
	AllowedOrigins                    []string        `json:"allowed_origins"`
	DatabaseDSN                       *string         `json:"database_dsn"`
	SecretKey                         *string         `json:"secret_key"`
	Algorithm                         *string         `json:"algorithm"`
	AccessTokenValidityDuration       *timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration      *timex.Duration `json:"refresh_token_validity_duration"`
	EmailVerificationValidityDuration *timex.Duration `json:"email_verification_validity_duration"`
	VerificationURL                   *string         `json:"verification_url"`
	BcryptCost                        *int            `json:"bcrypt_cost"`
	HashWorkers                       *int            `json:"hash_workers"`
	SMTPHost                          *string         `json:"smtp_host"`
	SMTPPort                          *int            `json:"smtp_port"`
	SMTPUsername                      *string         `json:"smtp_username"`
	SMTPPassword                      *string         `json:"smtp_password"`
	EmailFrom                         *string         `json:"email_from"`
	SMTPStartTLS                      *bool           `json:"smtp_starttls"`
	SMTPSSLTLS                        *bool           `json:"smtp_ssl_tls"`
	MailWorkers                       *int            `json:"mail_workers"`
	MailQueueSize                     *int            `json:"mail_queue_size"`
	S3RootUser                        *string         `json:"s3_root_user"`
	S3RootPassword                    *string         `json:"s3_root_password"`
	S3Bucket                          *string         `json:"s3_bucket"`
	S3Region                          *string         `json:"s3_region"`
	S3BaseEndpoint                    *string         `json:"s3_base_endpoint"`
	S3PresignValidityDuration         *timex.Duration `json:"s3_presign_validity_duration"`
}

// parseJson overlays the JSON file named by -c/-config (or $CONFIG) onto
// config. No file means no changes.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigFilePath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	setIf(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setIf(&config.Environment, c.Environment)
	setIf(&config.ProjectName, c.ProjectName)
	setIf(&config.LogLevel, c.LogLevel)
	if c.AllowedOrigins != nil {
		config.AllowedOrigins = c.AllowedOrigins
	}
	setIf(&config.DatabaseDSN, c.DatabaseDSN)
	setIf(&config.SecretKey, c.SecretKey)
	setIf(&config.Algorithm, c.Algorithm)
	setDurationIf(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	setDurationIf(&config.RefreshTokenValidityDuration, c.RefreshTokenValidityDuration)
	setDurationIf(&config.EmailVerificationValidityDuration, c.EmailVerificationValidityDuration)
	setIf(&config.VerificationURL, c.VerificationURL)
	setIf(&config.BcryptCost, c.BcryptCost)
	setIf(&config.HashWorkers, c.HashWorkers)
	setIf(&config.SMTPHost, c.SMTPHost)
	setIf(&config.SMTPPort, c.SMTPPort)
	setIf(&config.SMTPUsername, c.SMTPUsername)
	setIf(&config.SMTPPassword, c.SMTPPassword)
	setIf(&config.EmailFrom, c.EmailFrom)
	setIf(&config.SMTPStartTLS, c.SMTPStartTLS)
	setIf(&config.SMTPSSLTLS, c.SMTPSSLTLS)
	setIf(&config.MailWorkers, c.MailWorkers)
	setIf(&config.MailQueueSize, c.MailQueueSize)
	setIf(&config.S3RootUser, c.S3RootUser)
	setIf(&config.S3RootPassword, c.S3RootPassword)
	setIf(&config.S3Bucket, c.S3Bucket)
	setIf(&config.S3Region, c.S3Region)
	setIf(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setDurationIf(&config.S3PresignValidityDuration, c.S3PresignValidityDuration)

	return nil
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setDurationIf(dst *time.Duration, src *timex.Duration) {
	if src != nil {
		*dst = src.Duration
	}
}
