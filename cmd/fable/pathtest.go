package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/fable/pkg/analysis"
)

var pathtestCmd = &cobra.Command{
	Use:   "pathtest <flow-file>",
	Short: "Explore every path through a flow and report coverage",
	Long:  `Walks all traversable paths from the start node under the flow's initial state, applying actions and conditions, and reports node and outlet coverage.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		jsonMode, _ := cmd.Flags().GetBool("json")
		verbose, _ := cmd.Flags().GetBool("verbose")
		maxSteps, _ := cmd.Flags().GetInt("max-steps")
		maxPaths, _ := cmd.Flags().GetInt("max-paths")

		def, err := loadFlow(args)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		report := analysis.RunPathTests(def, analysis.PathTestOptions{
			MaxSteps: maxSteps,
			MaxPaths: maxPaths,
			Verbose:  verbose,
		})
		if jsonMode {
			if err := printJSON(report); err != nil {
				fmt.Printf("Error: %v\n", err)
				os.Exit(1)
			}
		} else {
			printReport(analysis.RenderPathReport(report))
		}

		if len(report.Errors) > 0 {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(pathtestCmd)
	pathtestCmd.Flags().Bool("json", false, "Emit the report as JSON")
	pathtestCmd.Flags().BoolP("verbose", "v", false, "List every explored path")
	pathtestCmd.Flags().Int("max-steps", 0, "Maximum steps per path (default 50)")
	pathtestCmd.Flags().Int("max-paths", 0, "Maximum explored paths (default 1000)")
}
