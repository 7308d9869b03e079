package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"
)

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "authenticate with GoTo Connect and store the token",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			session, err := setup(cmd)
			if err != nil {
				return err
			}

			if err := session.Authenticate(ctx); err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			record, err := session.Record(ctx)
			if err == nil && record != nil && record.ExpiresAt != 0 {
				fmt.Printf("Logged in. Access token valid until %s.\n",
					time.Unix(record.ExpiresAt, 0).Format(time.RFC1123))
				return nil
			}
			fmt.Println("Logged in.")
			return nil
		},
	}
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "clear stored credentials",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			session, err := setup(cmd)
			if err != nil {
				return err
			}

			if err := session.Logout(ctx); err != nil {
				return fmt.Errorf("logout failed: %w", err)
			}
			fmt.Println("Logged out.")
			return nil
		},
	}
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "show the current authentication state",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			session, err := setup(cmd)
			if err != nil {
				return err
			}

			record, err := session.Record(ctx)
			if err != nil {
				return fmt.Errorf("failed to read stored tokens: %w", err)
			}

			if record == nil || record.AccessToken == "" {
				fmt.Println("Not authenticated. Run `gotoauth login`.")
				return nil
			}

			fmt.Printf("State:         %s\n", session.State())
			fmt.Printf("Refresh token: %t\n", record.RefreshToken != "")
			if record.ExpiresAt != 0 {
				expiry := time.Unix(record.ExpiresAt, 0)
				fmt.Printf("Expires:       %s (%s)\n", expiry.Format(time.RFC1123), time.Until(expiry).Round(time.Second))
			} else {
				fmt.Println("Expires:       never")
			}
			return nil
		},
	}
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "print a valid access token, authenticating if necessary",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			session, err := setup(cmd)
			if err != nil {
				return err
			}

			token, err := session.AccessToken(ctx)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
}

func urlCommand() *cli.Command {
	return &cli.Command{
		Name:  "url",
		Usage: "print the authorization URL without opening a browser",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			session, err := setup(cmd)
			if err != nil {
				return err
			}

			fmt.Println(session.AuthorizationURL())
			return nil
		},
	}
}
