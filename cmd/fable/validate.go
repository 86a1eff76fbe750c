package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/fable/pkg/analysis"
)

var validateCmd = &cobra.Command{
	Use:   "validate <flow-file>",
	Short: "Check a flow definition for structural problems",
	Long:  `Runs the static checks: start node, outlet targets, condition syntax, reachability, cycles and auto-advance shape.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		jsonMode, _ := cmd.Flags().GetBool("json")

		def, err := loadFlow(args)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		report := analysis.Validate(def)
		if jsonMode {
			if err := printJSON(report); err != nil {
				fmt.Printf("Error: %v\n", err)
				os.Exit(1)
			}
		} else {
			printReport(analysis.RenderValidation(report, def.ID))
		}

		if !report.Valid {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("json", false, "Emit the report as JSON")
}
