// Command chatbroker runs the chat broker server or a minimal terminal
// client, selected by subcommand (spec §6 Process CLI).
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	logging "gopkg.in/op/go-logging.v1"

	"github.com/coregx/chatbroker/internal/telemetry"
)

func main() {
	app := &cli.App{
		Name:  "chatbroker",
		Usage: "a TCP chat broker",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("verbose") {
				telemetry.SetLevel(logging.DEBUG)
			}
			return nil
		},
		Commands: []*cli.Command{
			serverCommand,
			clientCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
