package main

import (
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/aretw0/fable/internal/compiler"
	"github.com/aretw0/fable/internal/presentation/tui"
	"github.com/aretw0/fable/pkg/domain"
)

// loadFlow parses the flow file argument shared by the report commands.
func loadFlow(args []string) (*domain.FlowDefinition, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("a flow file (JSON or YAML) is required")
	}
	return compiler.NewParser().ParseFile(args[0])
}

// printReport writes a markdown report, glamour-rendered when stdout is a
// terminal, raw otherwise.
func printReport(markdown string) {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		render := tui.NewRenderer()
		if out, err := render(markdown); err == nil {
			fmt.Print(out)
			return
		}
	}
	fmt.Println(markdown)
}

// printJSON writes the payload as indented JSON to stdout.
func printJSON(payload any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
