package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/coregx/chatbroker/internal/broker"
	"github.com/coregx/chatbroker/internal/config"
)

var serverCommand = &cli.Command{
	Name:      "server",
	Usage:     "run the chat broker",
	ArgsUsage: "[address]",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Usage: "path to a TOML configuration file",
		},
	},
	Action: runServer,
}

func runServer(c *cli.Context) error {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if addr := c.Args().First(); addr != "" {
		cfg.ListenAddress = addr
	}

	b := broker.New(cfg)
	if err := b.Start(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return b.Run(ctx)
}
