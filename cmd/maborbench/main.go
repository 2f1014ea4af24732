package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli"

	"github.com/Nullvora/mabor-bench/internal/config"
)

const clientVersion = "0.2.0"

func main() {
	app := buildApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "maborbench: %v\n", err)
		os.Exit(1)
	}
}

func buildApp() *cli.App {
	app := cli.NewApp()
	app.Name = "maborbench"
	app.Usage = "run and share mabor benchmarks across versions, backends and data types"
	app.Version = clientVersion
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config",
			Usage: "path to the config file",
		},
	}

	app.Commands = []cli.Command{
		runCommand(),
		authCommand(),
		reportCommand(),
		serveCommand(),
		listCommand(),
	}

	return app
}

// loadConfig reads configuration honoring the global --config flag and
// builds the process logger.
func loadConfig(c *cli.Context) (config.Config, *slog.Logger, error) {
	path := c.GlobalString("config")
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger := config.NewLogger(os.Stderr, cfg.LogLevel)
	return cfg, logger, nil
}
