package main

import (
	"fmt"

	"github.com/urfave/cli"

	"github.com/Nullvora/mabor-bench/internal/api"
	"github.com/Nullvora/mabor-bench/internal/store"
	"github.com/Nullvora/mabor-bench/internal/workload"
)

func serveCommand() cli.Command {
	return cli.Command{
		Name:  "serve",
		Usage: "serve stored reports over HTTP",
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:  "addr",
				Usage: "listen address (overrides config)",
			},
		},
		Action: serveAction,
	}
}

func serveAction(c *cli.Context) error {
	cfg, logger, err := loadConfig(c)
	if err != nil {
		return err
	}

	addr := cfg.ListenAddr
	if v := c.String("addr"); v != "" {
		addr = v
	}

	db, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	srv := api.NewServer(addr, db, workload.DefaultRegistry(), workload.DefaultBackends(), logger)
	return srv.Run()
}
