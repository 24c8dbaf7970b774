package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/wardflow/bedcast/internal/app"
	"github.com/wardflow/bedcast/internal/config"

	log "github.com/sirupsen/logrus"
)

// main runs the CLI entrypoint and exits on unrecoverable command errors.
func main() {
	if errRun := run(os.Args[1:]); errRun != nil {
		log.WithError(errRun).Error("command failed")
		os.Exit(1)
	}
}

// run parses flags, loads config, and dispatches to the serve, migrate, or
// ingest command.
func run(args []string) error {
	fs := flag.NewFlagSet("bedcast", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "config file path (or env CONFIG_PATH)")
	port := fs.Int("port", 0, "server port (overrides config)")
	migrate := fs.Bool("migrate", false, "run database migrations and exit")
	ingest := fs.String("ingest", "", "CSV file of occupancy records to load, then exit")
	if errParse := fs.Parse(args); errParse != nil {
		return errParse
	}

	if errValidate := validatePort(*port); errValidate != nil {
		return errValidate
	}

	cfg, errLoad := config.Load(config.ResolveConfigPath(*cfgPath))
	if errLoad != nil {
		return errLoad
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *migrate:
		return app.Migrate(cfg)
	case strings.TrimSpace(*ingest) != "":
		return app.Ingest(ctx, cfg, strings.TrimSpace(*ingest))
	default:
		return app.RunServer(ctx, cfg, *port)
	}
}

func validatePort(port int) error {
	if port < 0 || port > 65535 {
		return fmt.Errorf("invalid port: %d", port)
	}
	return nil
}
