// Package ctl implements nominactl, the operator tool for password hashes
// and one-off password migrations.
package ctl

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/nomina/internal/common"
	"github.com/dmitrijs2005/nomina/internal/logging"
	"github.com/dmitrijs2005/nomina/internal/server"
	"github.com/dmitrijs2005/nomina/internal/server/config"
	"github.com/dmitrijs2005/nomina/internal/server/security/password"
	"github.com/dmitrijs2005/nomina/internal/server/services"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

const usage = `usage: nominactl <command> [flags]

commands:
  hash    [-k cost]           read a password without echo and print its bcrypt hash
  verify  <hash>              read a password without echo and check it against hash
  migrate [-c file] [-d dsn]  hash every stored plaintext password once
`

// Exit codes.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitUsage    = 2
	ExitMismatch = 3
)

var errMismatch = errors.New("password does not match")

type App struct {
	stdout io.Writer
	stderr io.Writer
}

func NewApp(stdout, stderr io.Writer) *App {
	return &App{stdout: stdout, stderr: stderr}
}

// Run dispatches args[0] and returns the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		fmt.Fprint(a.stderr, usage)
		return ExitUsage
	}

	cmd, rest := args[0], args[1:]

	var err error
	switch cmd {
	case "hash":
		err = a.hash(rest)
	case "verify":
		err = a.verify(rest)
	case "migrate":
		err = a.migrate(ctx, rest)
	case "help", "-h", "--help":
		fmt.Fprint(a.stdout, usage)
		return ExitOK
	default:
		fmt.Fprintf(a.stderr, "unknown command %q\n\n%s", cmd, usage)
		return ExitUsage
	}

	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, errMismatch):
		fmt.Fprintln(a.stdout, "no match")
		return ExitMismatch
	case errors.Is(err, flag.ErrHelp):
		return ExitUsage
	default:
		fmt.Fprintf(a.stderr, "%s: %v\n", cmd, err)
		return ExitFailure
	}
}

func (a *App) getPassword() ([]byte, error) {
	if _, err := fmt.Fprint(a.stderr, "Enter password: "); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(a.stderr)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

func (a *App) hash(args []string) error {
	fs := flag.NewFlagSet("hash", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	cost := fs.Int("k", password.DefaultCost, "bcrypt cost")
	if err := fs.Parse(args); err != nil {
		return err
	}

	h, err := password.NewHasher(*cost)
	if err != nil {
		return err
	}

	pw, err := a.getPassword()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	hash, err := h.Hash(string(pw))
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, hash)
	return nil
}

func (a *App) verify(args []string) error {
	if len(args) != 1 {
		fmt.Fprint(a.stderr, usage)
		return flag.ErrHelp
	}
	stored := args[0]

	pw, err := a.getPassword()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	// Verify ignores the hasher's own cost.
	h, err := password.NewHasher(password.DefaultCost)
	if err != nil {
		return err
	}
	if !h.Verify(string(pw), stored) {
		return errMismatch
	}
	fmt.Fprintln(a.stdout, "match")
	return nil
}

func (a *App) migrate(ctx context.Context, args []string) error {
	cfg := config.Load(args)
	logger := logging.NewJSONLogger(a.stderr, slog.LevelInfo)

	h, err := password.NewHasher(cfg.BcryptCost)
	if err != nil {
		return err
	}

	store, err := server.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	report, err := services.NewPasswordMigrationService(store, h, logger).Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "scanned=%d migrated=%d strong=%d blank=%d failed=%d\n",
		report.Scanned, report.Migrated, report.Strong, report.Blank, report.Failed)
	if report.Failed > 0 {
		return fmt.Errorf("%d accounts could not be migrated", report.Failed)
	}
	return nil
}
