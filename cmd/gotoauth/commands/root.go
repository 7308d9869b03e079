// Package commands implements the gotoauth CLI.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/connectkit/gotoauth"
	"github.com/connectkit/gotoauth/internal/observability"
)

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string) error {
	defer func() {
		if err := observability.Shutdown(context.Background()); err != nil {
			slog.Error("failed to flush logs", "error", err)
		}
	}()

	cmd := &cli.Command{
		Name:  "gotoauth",
		Usage: "GoTo Connect OAuth credential manager",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error)",
				Value: slog.LevelInfo.String(),
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (text|json)",
			},
			&cli.StringFlag{
				Name:  "auth--client-id",
				Usage: "OAuth client ID",
			},
			&cli.StringFlag{
				Name:  "auth--client-secret",
				Usage: "OAuth client secret",
			},
			&cli.StringFlag{
				Name:  "auth--redirect-uri",
				Usage: "OAuth redirect URI",
			},
			&cli.StringFlag{
				Name:  "auth--auth-url",
				Usage: "authorization endpoint override",
			},
			&cli.StringFlag{
				Name:  "auth--token-url",
				Usage: "token endpoint override",
			},
			&cli.StringFlag{
				Name:  "auth--storage",
				Usage: "token storage backend (keyring|file|memory)",
			},
			&cli.StringFlag{
				Name:  "auth--file",
				Usage: "token file path (file storage and keyring fallback)",
			},
		},
		Commands: []*cli.Command{
			loginCommand(),
			logoutCommand(),
			statusCommand(),
			tokenCommand(),
			urlCommand(),
			callCommand(),
		},
	}

	return cmd.Run(ctx, args)
}

// setup loads configuration, installs logging, and builds the session.
// Shared by every subcommand action.
func setup(cmd *cli.Command) (*gotoauth.Session, error) {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := observability.Instrument(cfg.LogLevel, string(cfg.LogFormat)); err != nil {
		return nil, fmt.Errorf("failed to set up observability layer: %w", err)
	}

	session, err := cfg.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}
