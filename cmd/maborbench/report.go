package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli"

	"github.com/Nullvora/mabor-bench/internal/store"
)

func reportCommand() cli.Command {
	return cli.Command{
		Name:  "report",
		Usage: "inspect and share stored reports",
		Subcommands: []cli.Command{
			{
				Name:  "list",
				Usage: "list stored reports, newest first",
				Flags: []cli.Flag{
					cli.IntFlag{Name: "limit", Value: 20},
					cli.IntFlag{Name: "offset"},
				},
				Action: reportListAction,
			},
			{
				Name:      "show",
				Usage:     "print a stored report as JSON",
				ArgsUsage: "<report-id>",
				Action:    reportShowAction,
			},
			{
				Name:      "share",
				Usage:     "upload a stored report to the results service",
				ArgsUsage: "<report-id>",
				Action:    reportShareAction,
			},
		},
	}
}

func openStore(c *cli.Context) (store.Store, func(), error) {
	cfg, _, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	db, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, func() { db.Close() }, nil
}

func reportListAction(c *cli.Context) error {
	db, closeDB, err := openStore(c)
	if err != nil {
		return err
	}
	defer closeDB()

	metas, total, err := db.ListReports(context.Background(), c.Int("limit"), c.Int("offset"))
	if err != nil {
		return err
	}

	if total == 0 {
		fmt.Println("no reports")
		return nil
	}
	for _, m := range metas {
		shared := " "
		if m.Shared {
			shared = "*"
		}
		fmt.Printf("%s %s  %s  %3d units (%d ok, %d failed, %d skipped)\n",
			shared, m.ID, m.CreatedAt.Format("2006-01-02 15:04"),
			m.Units, m.Success, m.Failed, m.Skipped)
	}
	fmt.Printf("%d of %d reports (* = shared)\n", len(metas), total)
	return nil
}

func reportShowAction(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("report id is required")
	}

	db, closeDB, err := openStore(c)
	if err != nil {
		return err
	}
	defer closeDB()

	rep, err := db.GetReport(context.Background(), id)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

func reportShareAction(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("report id is required")
	}

	cfg, logger, err := loadConfig(c)
	if err != nil {
		return err
	}
	db, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	rep, err := db.GetReport(ctx, id)
	if err != nil {
		return err
	}
	if err := uploadReport(ctx, cfg, db, rep, logger); err != nil {
		return err
	}
	fmt.Println("report shared")
	return nil
}
