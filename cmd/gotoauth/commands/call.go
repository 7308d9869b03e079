package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/connectkit/gotoauth"
)

func callCommand() *cli.Command {
	return &cli.Command{
		Name:      "call",
		Usage:     "make an authenticated API request",
		ArgsUsage: "URL",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "method",
				Aliases: []string{"X"},
				Usage:   "HTTP method",
				Value:   http.MethodGet,
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "request body",
			},
			&cli.StringSliceFlag{
				Name:    "header",
				Aliases: []string{"H"},
				Usage:   "extra header in 'Name: value' form (repeatable)",
			},
		},
		Action: callAction,
	}
}

func callAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one URL argument")
	}
	url := cmd.Args().First()

	session, err := setup(cmd)
	if err != nil {
		return err
	}

	headers := http.Header{}
	for _, raw := range cmd.StringSlice("header") {
		name, value, ok := strings.Cut(raw, ":")
		if !ok {
			return fmt.Errorf("invalid header %q, expected 'Name: value'", raw)
		}
		headers.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	var body io.Reader
	if data := cmd.String("data"); data != "" {
		body = strings.NewReader(data)
	}

	client := gotoauth.NewClient(session)
	resp, err := client.Do(ctx, strings.ToUpper(cmd.String("method")), url, body, headers)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if _, err := io.Copy(os.Stdout, resp.Body); err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	return nil
}
