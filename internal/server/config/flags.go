package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/moi/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8000")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-r int      refresh token validity, minutes
//	-v int      email verification token validity, minutes
//	-b string   S3 bucket name
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-l string   log level
//
// Only the flags above are picked out of args, so flags meant for other
// flag sets (-c) do not collide.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-s", "-t", "-r", "-v", "-b", "-e", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessMinutes := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	refreshMinutes := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh token validity (in minutes)")
	verifyMinutes := fs.Int("v", int(config.EmailVerificationValidityDuration.Minutes()), "email verification token validity (in minutes)")

	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	config.AccessTokenValidityDuration = time.Duration(*accessMinutes) * time.Minute
	config.RefreshTokenValidityDuration = time.Duration(*refreshMinutes) * time.Minute
	config.EmailVerificationValidityDuration = time.Duration(*verifyMinutes) * time.Minute
	return nil
}
