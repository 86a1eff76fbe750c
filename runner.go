package fable

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aretw0/fable/internal/runtime"
	"github.com/aretw0/fable/pkg/domain"
)

// Runner executes an engine interactively over the provided IO. Keeping IO
// injectable makes the loop testable and frontend-agnostic (plain CLI, TUI).
type Runner struct {
	Input  io.Reader
	Output io.Writer
	// Headless suppresses banners and prompts, reading inputs until EOF.
	Headless bool
	// Renderer transforms node content before output (e.g. markdown to
	// ANSI). Nil prints content verbatim.
	Renderer ContentRenderer
}

// ContentRenderer transforms content before it is written.
type ContentRenderer func(string) (string, error)

// NewRunner creates a Runner. Callers must set Input and Output (usually
// os.Stdin and os.Stdout) before Run.
func NewRunner() *Runner {
	return &Runner{}
}

// Run executes the engine loop until the flow completes, the user quits, or
// input is exhausted. Besides choice selection (by number or id) it accepts
// "back" and "exit"/"quit".
func (r *Runner) Run(engine *Engine) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	reader := bufio.NewReader(r.Input)
	writer := r.Output

	res, err := engine.Start()
	if err != nil {
		return fmt.Errorf("start error: %w", err)
	}

	if !r.Headless {
		fmt.Fprintf(writer, "--- %s ---\n", engine.Definition().Title)
	}

	for {
		r.renderNode(writer, res.Node)

		if res.Completed {
			if !r.Headless {
				fmt.Fprintln(writer, "(The end)")
			}
			return nil
		}

		r.renderChoices(writer, res.Choices)

		if !r.Headless {
			fmt.Fprint(writer, "> ")
		}
		text, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}
		input := strings.TrimSpace(text)

		switch input {
		case "exit", "quit":
			if !r.Headless {
				fmt.Fprintln(writer, "Bye!")
			}
			return nil
		case "back":
			prev, err := engine.GoBack()
			if err != nil {
				fmt.Fprintf(writer, "cannot go back: %v\n", err)
				continue
			}
			res = prev
			continue
		}

		choiceID := resolveChoice(input, res.Choices)
		next, err := engine.Next(choiceID)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidChoice) || errors.Is(err, domain.ErrNoTransition) {
				fmt.Fprintf(writer, "invalid choice: %s\n", input)
				continue
			}
			return fmt.Errorf("navigation error: %w", err)
		}
		res = next
	}
}

func (r *Runner) renderNode(writer io.Writer, node *domain.Node) {
	if node == nil || node.Content == "" {
		return
	}
	output := node.Content
	if r.Renderer != nil {
		if rendered, err := r.Renderer(output); err == nil {
			output = rendered
		}
	}
	fmt.Fprintln(writer, strings.TrimSpace(output))
}

func (r *Runner) renderChoices(writer io.Writer, choices []runtime.Choice) {
	if r.Headless {
		return
	}
	for i, c := range choices {
		label := c.Label
		if label == "" {
			label = c.ID
		}
		if c.Disabled {
			fmt.Fprintf(writer, "  %d. %s (unavailable)\n", i+1, label)
			continue
		}
		fmt.Fprintf(writer, "  %d. %s\n", i+1, label)
	}
}

// resolveChoice maps a numeric selection onto the listed choices; anything
// else is treated as a raw choice id. Empty input asks the engine to
// auto-resolve.
func resolveChoice(input string, choices []runtime.Choice) string {
	if input == "" {
		return ""
	}
	if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(choices) {
		return choices[n-1].ID
	}
	return input
}
