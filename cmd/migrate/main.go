// Command migrate applies the SQL schema migrations from migrations/.
//
// Usage:
//
//	migrate [flags] <command> [arg]
//
// Commands: up [n], down [n], version, force <v>, drop.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	var (
		path string
		dsn  string
	)
	flag.StringVar(&path, "path", "./migrations", "path to migrations directory")
	flag.StringVar(&dsn, "database-url", "", "database URL (default: DATABASE_URL env or PAYBRIDGE_DATABASE_* vars)")
	flag.Parse()

	if dsn == "" {
		dsn = databaseURLFromEnv()
	}

	m, err := migrate.New("file://"+path, dsn)
	if err != nil {
		log.Fatalf("open migrator: %v", err)
	}
	defer m.Close()
	m.Log = verboseLogger{}

	command := "up"
	if args := flag.Args(); len(args) > 0 {
		command = args[0]
	}

	if err := run(m, command, flag.Args()); err != nil {
		log.Fatal(err)
	}
}

func run(m *migrate.Migrate, command string, args []string) error {
	switch command {
	case "up":
		if err := stepOrAll(m, args, 1); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		fmt.Println("migrations applied")

	case "down":
		if err := stepOrAll(m, args, -1); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
		fmt.Println("migrations rolled back")

	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Println("no migrations applied yet")
			return nil
		}
		if err != nil {
			return fmt.Errorf("read version: %w", err)
		}
		fmt.Printf("version %d (dirty: %v)\n", version, dirty)

	case "force":
		if len(args) < 2 {
			return errors.New("force requires a version argument")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[1], err)
		}
		if err := m.Force(version); err != nil {
			return fmt.Errorf("force: %w", err)
		}
		fmt.Printf("forced version to %d\n", version)

	case "drop":
		if err := m.Drop(); err != nil {
			return fmt.Errorf("drop: %w", err)
		}
		fmt.Println("schema dropped")

	default:
		return fmt.Errorf("unknown command %q (want up, down, version, force, drop)", command)
	}

	return nil
}

// stepOrAll runs n steps in the given direction, or all of them when
// no step count is given. ErrNoChange is not treated as an error.
func stepOrAll(m *migrate.Migrate, args []string, direction int) error {
	var err error
	if len(args) > 1 {
		n, convErr := strconv.Atoi(args[1])
		if convErr != nil {
			return fmt.Errorf("invalid steps %q: %w", args[1], convErr)
		}
		err = m.Steps(direction * n)
	} else if direction > 0 {
		err = m.Up()
	} else {
		err = m.Down()
	}

	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

// databaseURLFromEnv builds the DSN: DATABASE_URL wholesale if set,
// otherwise from the same PAYBRIDGE_DATABASE_* variables the main
// service reads.
func databaseURLFromEnv() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}

	get := func(key, def string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return def
	}

	u := url.URL{
		Scheme: "postgres",
		User: url.UserPassword(
			get("PAYBRIDGE_DATABASE_USER", "postgres"),
			get("PAYBRIDGE_DATABASE_PASSWORD", "postgres"),
		),
		Host:     get("PAYBRIDGE_DATABASE_HOST", "localhost") + ":" + get("PAYBRIDGE_DATABASE_PORT", "5432"),
		Path:     get("PAYBRIDGE_DATABASE_NAME", "paybridge"),
		RawQuery: "sslmode=" + get("PAYBRIDGE_DATABASE_SSLMODE", "disable"),
	}
	return u.String()
}

// verboseLogger implements migrate.Logger.
type verboseLogger struct{}

func (verboseLogger) Printf(format string, v ...interface{}) { log.Printf(format, v...) }
func (verboseLogger) Verbose() bool                          { return true }
