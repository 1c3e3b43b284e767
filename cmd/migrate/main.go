// Command migrate applies the embedded schema migrations.
//
//	migrate [-dsn URL] up | down | steps N | version | force V
//
// Without -dsn the connection is built from the DOCAI_DB_* variables the
// server reads.
package main

import (
	"embed"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"

	"github.com/JaimeStill/docai/pkg/database"
)

//go:embed migrations/*.sql
var migrations embed.FS

var env = &database.Env{
	URL:      "DOCAI_DB_URL",
	Host:     "DOCAI_DB_HOST",
	Port:     "DOCAI_DB_PORT",
	Name:     "DOCAI_DB_NAME",
	User:     "DOCAI_DB_USER",
	Password: "DOCAI_DB_PASSWORD",
	SSLMode:  "DOCAI_DB_SSL_MODE",
}

// migrateLogger routes golang-migrate output through slog.
type migrateLogger struct {
	logger  *slog.Logger
	verbose bool
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l migrateLogger) Verbose() bool { return l.verbose }

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := run(logger, os.Args[1:]); err != nil {
		logger.Error("migrate failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	dsn := fs.String("dsn", "", "database connection URL (defaults to DOCAI_DB_* variables)")
	verbose := fs.Bool("v", false, "log each applied migration")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: migrate [-dsn URL] [-v] up | down | steps N | version | force V")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("missing command")
	}

	if *dsn == "" {
		cfg := database.Config{Name: "docai", User: "docai", Password: "docai"}
		if err := cfg.Finalize(env); err != nil {
			return fmt.Errorf("database configuration: %w", err)
		}
		*dsn = cfg.DSN()
	}

	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, *dsn)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()
	m.Log = migrateLogger{logger: logger, verbose: *verbose}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "up":
		return report(logger, "migrations applied", m.Up())
	case "down":
		return report(logger, "migrations reverted", m.Down())
	case "steps":
		n, err := intArg(rest)
		if err != nil {
			return err
		}
		return report(logger, "migration steps applied", m.Steps(n), "steps", n)
	case "force":
		v, err := intArg(rest)
		if err != nil {
			return err
		}
		return report(logger, "version forced", m.Force(v), "version", v)
	case "version":
		v, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			logger.Info("no migrations applied")
			return nil
		}
		if err != nil {
			return err
		}
		logger.Info("current version", "version", v, "dirty", dirty)
		return nil
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func report(logger *slog.Logger, msg string, err error, attrs ...any) error {
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("schema already current")
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info(msg, attrs...)
	return nil
}

func intArg(args []string) (int, error) {
	if len(args) != 1 {
		return 0, errors.New("expected one integer argument")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q: %w", args[0], err)
	}
	return n, nil
}
