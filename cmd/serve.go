package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/buildreview/internal/api"
)

// ServeCommand returns the CLI command for starting the API server
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the BuildReview API server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port for the API server",
			},
		},
		Action: func(c *cli.Context) error {
			components, err := bootstrap(c)
			if err != nil {
				return err
			}

			port := c.Int("port")
			if port == 0 {
				port = components.cfg.Server.Port
			}
			fmt.Printf("Starting BuildReview API server on port %d...\n", port)

			server := api.NewServer(port, components.registry, components.manager, components.invoker, components.engine)
			return server.Start()
		},
	}
}
