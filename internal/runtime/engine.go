// Package runtime is the core state machine: it walks a flow definition
// node by node, applying actions through the state manager, resolving
// auto-advance chains, and recording bounded history.
package runtime

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/fable/pkg/domain"
	"github.com/aretw0/fable/pkg/graph"
	"github.com/aretw0/fable/pkg/interpolate"
	"github.com/aretw0/fable/pkg/state"
)

// Options configure an engine instance.
type Options struct {
	// MaxHistorySize bounds the history ring. Zero means the default.
	MaxHistorySize int
	// HistoryEnabled defaults to true; disabling it also disables GoBack.
	HistoryEnabled bool
	// ShowDisabledChoices includes condition-failing choices, flagged
	// disabled, instead of filtering them.
	ShowDisabledChoices bool
	// AutoAdvanceMode overrides the flow's declared mode when non-empty.
	AutoAdvanceMode domain.AutoAdvanceMode
}

// Result is what a host renders after Start or Next: the (interpolated)
// current node, the available choices, and the completion flag.
type Result struct {
	Node      *domain.Node `json:"node"`
	Choices   []Choice     `json:"choices"`
	Completed bool         `json:"completed"`
}

// Engine drives one execution of a flow definition.
type Engine struct {
	def    *domain.FlowDefinition
	graph  *graph.Graph
	state  *state.Manager
	interp *interpolate.Interpolator
	hooks  domain.LifecycleHooks
	logger *slog.Logger
	opts   Options

	current *domain.Node
	history []domain.ExecutionStep
	started bool

	// pendingForce collects forceTransition rule targets raised by the
	// state manager during the current mutation; the transition loop drains
	// it after each step.
	pendingForce []string
}

// NewEngine wires an engine from its collaborators. The state manager's
// error hook must already be routed through HandleStateError (the facade
// does this) so forced transitions are intercepted.
func NewEngine(def *domain.FlowDefinition, g *graph.Graph, mgr *state.Manager, interp *interpolate.Interpolator, hooks domain.LifecycleHooks, logger *slog.Logger, opts Options) *Engine {
	if opts.MaxHistorySize <= 0 {
		opts.MaxHistorySize = domain.DefaultMaxHistorySize
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		def:    def,
		graph:  g,
		state:  mgr,
		interp: interp,
		hooks:  hooks,
		logger: logger,
		opts:   opts,
	}
}

// HandleStateError receives the state manager's error events. Forced
// transitions are queued for the transition loop; everything else is
// forwarded to the host's error hook.
func (e *Engine) HandleStateError(ev *domain.ErrorEvent) {
	if ev.Kind == domain.ErrKindForceTransition && ev.Rule != nil {
		e.pendingForce = append(e.pendingForce, ev.Rule.Target)
	}
	if e.hooks.OnError != nil {
		e.hooks.OnError(ev)
	}
}

// HandleStateChange forwards committed-state snapshots to the host.
func (e *Engine) HandleStateChange(snapshot map[string]any) {
	if e.hooks.OnStateChange != nil {
		e.hooks.OnStateChange(&domain.StateChangeEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventStateChange, FlowID: e.def.ID},
			State:     snapshot,
		})
	}
}

// HandleRuleEvent forwards triggerEvent rule firings to the host.
func (e *Engine) HandleRuleEvent(ev *domain.RuleEvent) {
	if e.hooks.OnRuleEvent != nil {
		e.hooks.OnRuleEvent(ev)
	}
}

// Start resolves the start node and transitions into it. It must be called
// exactly once before Next or GoBack; Reset rearms it.
func (e *Engine) Start() (*Result, error) {
	if e.started {
		return nil, domain.ErrAlreadyStarted
	}
	startNode := e.graph.Node(e.def.StartNodeID)
	if startNode == nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrMissingStartNode, e.def.StartNodeID)
	}
	e.started = true
	if err := e.transition(startNode, nil); err != nil {
		return nil, err
	}
	return e.result(), nil
}

// Next advances the flow. With a choice id it follows that outlet; without
// one it auto-resolves per the current node's shape: ordered first-match
// for branch nodes, the single outlet for linear nodes.
func (e *Engine) Next(choiceID string) (*Result, error) {
	if !e.started || e.current == nil {
		return nil, domain.ErrNotStarted
	}

	if choiceID != "" {
		outlet := e.current.FindOutlet(choiceID)
		if outlet == nil {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidChoice, choiceID)
		}
		target := e.graph.Node(outlet.To)
		if target == nil {
			return nil, fmt.Errorf("%w: outlet %q targets missing node %q", domain.ErrNoTransition, outlet.ID, outlet.To)
		}
		if err := e.transition(target, outlet); err != nil {
			return nil, err
		}
		return e.result(), nil
	}

	switch n := len(e.current.Outlets); {
	case n > 1:
		// Branch node: ordered if/elseif resolution. No match means no
		// transition; the caller gets the unchanged result back.
		outlet := e.firstSatisfiedOutlet(e.current)
		if outlet == nil {
			return e.result(), nil
		}
		target := e.graph.Node(outlet.To)
		if target == nil {
			return nil, fmt.Errorf("%w: outlet %q targets missing node %q", domain.ErrNoTransition, outlet.ID, outlet.To)
		}
		if err := e.transition(target, outlet); err != nil {
			return nil, err
		}
		return e.result(), nil
	case n == 1:
		outlet := &e.current.Outlets[0]
		target := e.graph.Node(outlet.To)
		if target == nil {
			return nil, fmt.Errorf("%w: outlet %q targets missing node %q", domain.ErrNoTransition, outlet.ID, outlet.To)
		}
		if err := e.transition(target, outlet); err != nil {
			return nil, err
		}
		return e.result(), nil
	default:
		return nil, domain.ErrNoTransition
	}
}

// firstSatisfiedOutlet returns the first outlet, in declaration order,
// whose condition holds (an empty condition always holds).
func (e *Engine) firstSatisfiedOutlet(node *domain.Node) *domain.Outlet {
	for i := range node.Outlets {
		if e.state.EvaluateCondition(node.Outlets[i].Condition) {
			return &node.Outlets[i]
		}
	}
	return nil
}

// transition performs the shared transition procedure iteratively:
// exit -> outlet actions -> enter -> node actions -> history -> hooks ->
// auto-advance. A visited-this-call set bounds auto-advance chains; a
// repeat is reported as a recoverable error rather than recursing forever.
func (e *Engine) transition(target *domain.Node, via *domain.Outlet) error {
	visited := map[string]bool{}

	for {
		if e.current != nil {
			e.emitNodeEvent(e.hooks.OnNodeExit, domain.EventNodeExit, e.current)
		}
		if via != nil && len(via.Actions) > 0 {
			if err := e.state.ExecuteActions(via.Actions); err != nil {
				return fmt.Errorf("outlet %q actions: %w", via.ID, err)
			}
		}

		e.current = target
		if len(target.Actions) > 0 {
			if err := e.state.ExecuteActions(target.Actions); err != nil {
				return fmt.Errorf("node %q actions: %w", target.ID, err)
			}
		}
		e.recordHistory(via)
		e.emitNodeEvent(e.hooks.OnNodeEnter, domain.EventNodeEnter, target)

		// A state rule may have requested a jump while actions ran. Forced
		// jumps share the visited set so a rule that re-fires on every
		// commit cannot loop the engine.
		if forced := e.drainForcedTransition(); forced != nil {
			visited[target.ID] = true
			if visited[forced.ID] {
				e.emitError(&domain.ErrorEvent{
					Kind:    domain.ErrKindForceTransition,
					Message: fmt.Sprintf("forced transition cycle detected at node %q", forced.ID),
					NodeID:  target.ID,
				})
				return nil
			}
			target = forced
			via = nil
			continue
		}

		if len(target.Outlets) == 0 {
			e.emitNodeEvent(e.hooks.OnComplete, domain.EventComplete, target)
			return nil
		}

		if !e.shouldAutoAdvance(target) {
			return nil
		}

		outlet := e.resolveAutoAdvance(target)
		if outlet == nil {
			e.emitError(&domain.ErrorEvent{
				Kind:    domain.ErrKindAutoAdvance,
				Message: fmt.Sprintf("no auto-advance outlet matched on node %q", target.ID),
				NodeID:  target.ID,
			})
			return nil
		}
		next := e.graph.Node(outlet.To)
		if next == nil {
			e.emitError(&domain.ErrorEvent{
				Kind:    domain.ErrKindAutoAdvance,
				Message: fmt.Sprintf("auto-advance outlet %q targets missing node %q", outlet.ID, outlet.To),
				NodeID:  target.ID,
			})
			return nil
		}

		visited[target.ID] = true
		if visited[next.ID] {
			e.emitError(&domain.ErrorEvent{
				Kind:    domain.ErrKindAutoAdvance,
				Message: fmt.Sprintf("auto-advance cycle detected at node %q", next.ID),
				NodeID:  target.ID,
			})
			return nil
		}

		if e.hooks.OnAutoAdvance != nil {
			e.hooks.OnAutoAdvance(&domain.AutoAdvanceEvent{
				EventBase:  domain.EventBase{Timestamp: time.Now(), Type: domain.EventAutoAdvance, FlowID: e.def.ID},
				FromNodeID: target.ID,
				ToNodeID:   next.ID,
				OutletID:   outlet.ID,
			})
		}

		via = outlet
		target = next
	}
}

// drainForcedTransition resolves at most one queued forced transition.
// A missing target is a recoverable authoring defect.
func (e *Engine) drainForcedTransition() *domain.Node {
	for len(e.pendingForce) > 0 {
		targetID := e.pendingForce[0]
		e.pendingForce = e.pendingForce[1:]
		node := e.graph.Node(targetID)
		if node == nil {
			e.emitError(&domain.ErrorEvent{
				Kind:    domain.ErrKindForceTransition,
				Message: fmt.Sprintf("forced transition targets missing node %q", targetID),
			})
			continue
		}
		e.pendingForce = nil
		return node
	}
	return nil
}

func (e *Engine) shouldAutoAdvance(node *domain.Node) bool {
	mode := e.opts.AutoAdvanceMode
	if mode == "" {
		mode = e.def.AutoAdvanceMode
	}
	switch mode {
	case domain.AutoAdvanceNever:
		return false
	case domain.AutoAdvanceAlways:
		return true
	default:
		return node.IsAutoAdvance
	}
}

// resolveAutoAdvance picks an outlet with if/elseif/else semantics:
// conditional outlets in declaration order, first match wins; otherwise
// the first outlet lacking a condition.
func (e *Engine) resolveAutoAdvance(node *domain.Node) *domain.Outlet {
	for i := range node.Outlets {
		outlet := &node.Outlets[i]
		if outlet.Condition == "" {
			continue
		}
		if e.state.EvaluateCondition(outlet.Condition) {
			return outlet
		}
	}
	for i := range node.Outlets {
		if node.Outlets[i].Condition == "" {
			return &node.Outlets[i]
		}
	}
	return nil
}

func (e *Engine) recordHistory(via *domain.Outlet) {
	if !e.opts.HistoryEnabled {
		return
	}
	step := domain.ExecutionStep{
		Node:      *e.current,
		Timestamp: time.Now(),
		State:     e.state.GetState(),
	}
	if via != nil {
		step.ChoiceID = via.ID
	}
	e.history = append(e.history, step)
	if len(e.history) > e.opts.MaxHistorySize {
		e.history = e.history[len(e.history)-e.opts.MaxHistorySize:]
	}
}

// GoBack pops the current step and restores the previous step's node and
// state snapshot wholesale.
func (e *Engine) GoBack() (*Result, error) {
	if !e.started {
		return nil, domain.ErrNotStarted
	}
	if !e.opts.HistoryEnabled || len(e.history) < 2 {
		return nil, domain.ErrHistoryUnavailable
	}

	e.history = e.history[:len(e.history)-1]
	prev := e.history[len(e.history)-1]
	if err := e.state.Reset(prev.State); err != nil {
		return nil, err
	}
	e.pendingForce = nil
	if node := e.graph.Node(prev.Node.ID); node != nil {
		e.current = node
	} else {
		restored := prev.Node
		e.current = &restored
	}
	return e.result(), nil
}

// Reset clears the current node and history and reinitializes state from
// the flow's declared initial state.
func (e *Engine) Reset() error {
	e.current = nil
	e.history = nil
	e.started = false
	e.pendingForce = nil
	return e.state.Reset(domain.DeepCopyState(e.def.InitialState))
}

// GetState returns a deep copy of the live state.
func (e *Engine) GetState() map[string]any {
	return e.state.GetState()
}

// GetHistory returns the recorded steps, oldest first.
func (e *Engine) GetHistory() []domain.ExecutionStep {
	out := make([]domain.ExecutionStep, len(e.history))
	copy(out, e.history)
	return out
}

// CanGoBack reports whether GoBack would succeed.
func (e *Engine) CanGoBack() bool {
	return e.opts.HistoryEnabled && len(e.history) > 1
}

// IsComplete reports whether the current node is terminal.
func (e *Engine) IsComplete() bool {
	return e.current != nil && len(e.current.Outlets) == 0
}

// GetCurrentNode returns the current node with title and content
// interpolated against live state. Marker-free nodes are returned as-is to
// avoid needless allocation.
func (e *Engine) GetCurrentNode() *domain.Node {
	if e.current == nil {
		return nil
	}
	if !interpolate.HasMarkers(e.current.Title) && !interpolate.HasMarkers(e.current.Content) {
		return e.current
	}

	rendered := *e.current
	st := e.state.GetState()
	rendered.Title = e.renderText(e.current.Title, st)
	rendered.Content = e.renderText(e.current.Content, st)
	return &rendered
}

func (e *Engine) renderText(text string, st map[string]any) string {
	res := e.interp.Interpolate(text, st)
	for _, ie := range res.Errors {
		e.logger.Warn("interpolation failed", "expression", ie.Expression, "err", ie.Message)
	}
	return res.Content
}

func (e *Engine) result() *Result {
	return &Result{
		Node:      e.GetCurrentNode(),
		Choices:   e.GetAvailableChoices(),
		Completed: e.IsComplete(),
	}
}

func (e *Engine) emitNodeEvent(hook func(*domain.NodeEvent), typ domain.EventType, node *domain.Node) {
	if hook == nil {
		return
	}
	hook(&domain.NodeEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: typ, FlowID: e.def.ID},
		NodeID:    node.ID,
		NodeType:  e.graph.NodeType(node.ID),
	})
}

func (e *Engine) emitError(ev *domain.ErrorEvent) {
	ev.Timestamp = time.Now()
	ev.Type = domain.EventError
	ev.FlowID = e.def.ID
	if e.hooks.OnError != nil {
		e.hooks.OnError(ev)
	}
}
