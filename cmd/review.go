package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/buildreview/internal/agents"
	"github.com/buildreview/internal/invoker"
	"github.com/buildreview/internal/logging"
	"github.com/buildreview/internal/review"
)

// ReviewCommand returns the CLI command for reviewing a SoW document from a
// file and printing the analysis plus gate decision.
func ReviewCommand() *cli.Command {
	return &cli.Command{
		Name:  "review",
		Usage: "Run a quality review over a scope-of-work document",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "project-id",
				Usage:    "Project identifier the review is stored under",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Path to the SoW document JSON",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "project-type",
				Usage: "Project type (loft_conversion, kitchen_full, ...)",
				Value: string(agents.ProjectGeneral),
			},
		},
		Action: runReview,
	}
}

func runReview(c *cli.Context) error {
	components, err := bootstrap(c)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(c.String("file"))
	if err != nil {
		return fmt.Errorf("failed to read SoW document: %w", err)
	}
	var document review.SoWDocument
	if err := json.Unmarshal(raw, &document); err != nil {
		return fmt.Errorf("failed to parse SoW document: %w", err)
	}

	projectID := c.String("project-id")
	logger, err := logging.StartReviewLogging(projectID)
	if err != nil {
		return err
	}
	defer logger.Close()
	components.trace.attach(logger, projectID)

	logger.Log("Reviewing SoW for project %s (%s)", projectID, c.String("project-type"))
	analysis, err := components.engine.ReviewSoW(c.Context, projectID, document,
		agents.ProjectType(c.String("project-type")), invoker.PropertyDetails{})
	if err != nil {
		logger.LogError("review", err)
		return err
	}
	logger.LogOutcome(analysis.OverallScore, string(analysis.QualityIndicator), len(analysis.Issues))

	gate := components.engine.ValidateSoWForBuilderInvitation(c.Context, projectID)

	out, err := json.MarshalIndent(map[string]interface{}{
		"analysis": analysis,
		"gate":     gate,
	}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
