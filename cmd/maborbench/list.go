package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli"

	"github.com/Nullvora/mabor-bench/internal/workload"
)

func listCommand() cli.Command {
	return cli.Command{
		Name:  "list",
		Usage: "list available benches and backends",
		Subcommands: []cli.Command{
			{
				Name:  "benches",
				Usage: "list registered bench suites",
				Action: func(*cli.Context) error {
					for _, name := range workload.DefaultRegistry().List() {
						fmt.Println(name)
					}
					return nil
				},
			},
			{
				Name:  "backends",
				Usage: "list known backends and their data types",
				Action: func(*cli.Context) error {
					for _, b := range workload.DefaultBackends().List() {
						exclusive := ""
						if b.Exclusive {
							exclusive = "  [exclusive]"
						}
						fmt.Printf("%-14s %-4s %s%s\n", b.ID, b.Device, strings.Join(b.Dtypes, ","), exclusive)
					}
					return nil
				},
			},
		},
	}
}
