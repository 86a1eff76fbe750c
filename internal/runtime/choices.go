package runtime

import (
	"fmt"

	"github.com/aretw0/fable/pkg/interpolate"
)

// Choice is one selectable transition presented to the host.
type Choice struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	To          string `json:"to"`
	Disabled    bool   `json:"disabled,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// GetAvailableChoices enumerates the current node's outlets. Condition-
// failing outlets are filtered out unless ShowDisabledChoices is set, in
// which case they are included with a disabled flag and reason. Labels are
// interpolated against live state. When exactly one enabled, unlabeled
// choice remains, a "Continue" label is synthesized so authors need not
// label purely linear transitions.
func (e *Engine) GetAvailableChoices() []Choice {
	if e.current == nil || len(e.current.Outlets) == 0 {
		return nil
	}

	st := e.state.GetState()
	var choices []Choice
	enabledCount := 0
	for i := range e.current.Outlets {
		outlet := &e.current.Outlets[i]
		enabled := e.state.EvaluateCondition(outlet.Condition)

		if !enabled && !e.opts.ShowDisabledChoices {
			continue
		}
		choice := Choice{
			ID:    outlet.ID,
			Label: outlet.Label,
			To:    outlet.To,
		}
		if interpolate.HasMarkers(choice.Label) {
			choice.Label = e.renderText(choice.Label, st)
		}
		if !enabled {
			choice.Disabled = true
			choice.Reason = fmt.Sprintf("condition not met: %s", outlet.Condition)
		} else {
			enabledCount++
		}
		choices = append(choices, choice)
	}

	if enabledCount == 1 {
		for i := range choices {
			if choices[i].Disabled || choices[i].Label != "" {
				continue
			}
			choices[i].Label = "Continue"
			if target := e.graph.Node(choices[i].To); target != nil && target.Title != "" {
				choices[i].Description = fmt.Sprintf("Continue to %s", target.Title)
			}
		}
	}

	return choices
}
