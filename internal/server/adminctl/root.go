// Package adminctl implements the operator command line: schema migrations
// and superuser creation.
package adminctl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/moi/internal/server/models"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Backend is what the commands operate on.
type Backend interface {
	Migrate(ctx context.Context) error
	CreateSuperuser(ctx context.Context, email, password string) (*models.User, error)
	Close() error
}

// Opener connects a Backend. Commands open it only when they run.
type Opener func(ctx context.Context) (Backend, error)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// NewRootCmd creates the root command.
func NewRootCmd(open Opener) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "admin",
		Short:         "Operator commands for the moi server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newMigrateCmd(open),
		newCreateSuperuserCmd(open),
	)

	return rootCmd
}

func newMigrateCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Args:  cobra.NoArgs,
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd.Context(), open, func(b Backend) error {
				if err := b.Migrate(cmd.Context()); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
				return nil
			})
		},
	}
}

func newCreateSuperuserCmd(open Opener) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "createsuperuser",
		Args:  cobra.NoArgs,
		Short: "Create a verified superuser",
		Long:  `Create a verified superuser. The password is read from the terminal without echo.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			email = strings.TrimSpace(email)
			if email == "" {
				return errors.New("email must not be empty")
			}

			password, err := promptPassword(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			return withBackend(cmd.Context(), open, func(b Backend) error {
				u, err := b.CreateSuperuser(cmd.Context(), email, password)
				if err != nil {
					return fmt.Errorf("create superuser: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Superuser %s created (id %d)\n", u.Email, u.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "superuser email")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func withBackend(ctx context.Context, open Opener, fn func(Backend) error) error {
	b, err := open(ctx)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer b.Close()
	return fn(b)
}

// promptPassword asks for the password twice and requires both to match.
func promptPassword(w io.Writer) (string, error) {
	first, err := readLine(w, "Password: ")
	if err != nil {
		return "", err
	}
	if first == "" {
		return "", errors.New("password must not be empty")
	}
	second, err := readLine(w, "Repeat password: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errors.New("passwords do not match")
	}
	return first, nil
}

func readLine(w io.Writer, prompt string) (string, error) {
	fmt.Fprint(w, prompt)
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}
