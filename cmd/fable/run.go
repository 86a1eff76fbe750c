package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aretw0/fable"
	"github.com/aretw0/fable/internal/logging"
	"github.com/aretw0/fable/internal/presentation/tui"
	"github.com/aretw0/fable/pkg/domain"
)

var runCmd = &cobra.Command{
	Use:   "run <flow-file>",
	Short: "Run a flow interactively in the terminal",
	Long:  `Starts an interactive session: node content is printed, choices are listed, and input selects the next transition. "back", "exit" and "quit" are always available.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		headless, _ := cmd.Flags().GetBool("headless")
		showDisabled, _ := cmd.Flags().GetBool("show-disabled")
		level, _ := cmd.Flags().GetString("log-level")

		def, err := loadFlow(args)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		opts := []fable.Option{
			fable.WithLogger(logging.New(logging.ParseLevel(level))),
			fable.WithShowDisabledChoices(showDisabled),
			fable.WithLifecycleHooks(errorHooks()),
		}

		engine, err := fable.New(def, opts...)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		runner := &fable.Runner{
			Input:    os.Stdin,
			Output:   os.Stdout,
			Headless: headless,
		}
		interactive := term.IsTerminal(int(os.Stdout.Fd()))
		if interactive && !headless {
			tui.PrintBanner(fable.Version)
			runner.Renderer = tui.NewRenderer()
		}

		if err := runner.Run(engine); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

// errorHooks surfaces recoverable engine errors on stderr so authoring
// defects are visible during a run.
func errorHooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnError: func(ev *domain.ErrorEvent) {
			fmt.Fprintf(os.Stderr, "warning: %s\n", ev.Message)
		},
	}
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("headless", false, "Run in headless mode (no banner, prompts or choice lists)")
	runCmd.Flags().Bool("show-disabled", false, "List condition-failing choices as unavailable")
}
