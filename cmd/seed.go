package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// SeedAgentsCommand returns the CLI command for bulk-loading the agent
// catalogue from a JSON file. The registry is reset first, so seeding is a
// full replacement, not a merge.
func SeedAgentsCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed-agents",
		Usage: "Load the agent catalogue from a JSON file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Path to the agent catalogue JSON",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			components, err := bootstrap(c)
			if err != nil {
				return err
			}

			components.registry.Reset()
			n, err := components.registry.LoadCatalogue(c.String("file"))
			if err != nil {
				return fmt.Errorf("failed to seed agents: %w", err)
			}
			fmt.Printf("Seeded %d agents from %s\n", n, c.String("file"))
			return nil
		},
	}
}
