package main

import (
	"context"

	"github.com/urfave/cli/v2"
)

func (s *srv) loadApp() {
	s.ctx = context.Background()

	app := cli.NewApp()
	app.Action = cli.ShowAppHelp
	app.Name = "Tuklas"
	app.Usage = ""
	app.Commands = []*cli.Command{
		{
			Action:      server.startApi,
			Name:        "api",
			Usage:       "Start service api",
			Flags:       []cli.Flag{},
			Category:    "Api",
			Description: `Used for start service api, it main service included all apis.`,
		},
		{
			Action:      server.startMigrate,
			Name:        "migrate",
			Usage:       "Migrate database tables",
			Flags:       []cli.Flag{},
			Category:    "Database",
			Description: `Used to create or update all database tables.`,
		},
	}

	s.app = app
}
