package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/fable/pkg/analysis"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <flow-file>",
	Short: "Score a flow's overall quality",
	Long:  `Combines validation, structural metrics and path exploration into a 0-100 quality score with suggestions.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		jsonMode, _ := cmd.Flags().GetBool("json")
		skipPaths, _ := cmd.Flags().GetBool("skip-paths")

		def, err := loadFlow(args)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		result := analysis.Analyze(def, analysis.AnalyzeOptions{SkipPaths: skipPaths})
		if jsonMode {
			if err := printJSON(result); err != nil {
				fmt.Printf("Error: %v\n", err)
				os.Exit(1)
			}
		} else {
			printReport(analysis.RenderAnalysis(result))
		}
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().Bool("json", false, "Emit the report as JSON")
	analyzeCmd.Flags().Bool("skip-paths", false, "Skip path exploration")
}
