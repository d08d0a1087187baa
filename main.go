package main

import (
	"fmt"
	"os"

	"devmgmt/config"
	"devmgmt/server"

	"github.com/urfave/cli/v2"
)

var flags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Value:   "",
		Usage:   "path to config file (yaml, toml or json); DEVMGMT_* env vars override it",
		EnvVars: []string{"DEVMGMT_CONFIG"},
	},
	&cli.StringFlag{
		Name:  "log-level",
		Value: "",
		Usage: "override logging.level (debug, info, warn, error)",
	},
}

func main() {
	app := &cli.App{
		Name:  "devmgmt",
		Usage: "Serve the device registry API",
		Flags: flags,
		Action: func(cCtx *cli.Context) error {
			cfg, err := config.Load(cCtx.String("config"))
			if err != nil {
				return err
			}
			if lvl := cCtx.String("log-level"); lvl != "" {
				cfg.Logging.Level = lvl
			}

			var a server.App
			if err := a.Initialize(cfg); err != nil {
				return err
			}
			return a.Run()
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
