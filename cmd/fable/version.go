package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/fable"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the fable version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("fable version %s\n", fable.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
