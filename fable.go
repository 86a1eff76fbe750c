package fable

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/fable/internal/runtime"
	"github.com/aretw0/fable/pkg/domain"
	"github.com/aretw0/fable/pkg/expr"
	"github.com/aretw0/fable/pkg/graph"
	"github.com/aretw0/fable/pkg/interpolate"
	"github.com/aretw0/fable/pkg/schema"
	"github.com/aretw0/fable/pkg/state"
)

// Version of the fable library.
const Version = "0.1.0"

// Engine is the high-level entry point for the fable library. It wraps the
// internal runtime and provides a simplified API for hosts.
type Engine struct {
	def     *domain.FlowDefinition
	runtime *runtime.Engine
	state   *state.Manager
	logger  *slog.Logger

	hooks       domain.LifecycleHooks
	evaluator   expr.Evaluator
	validation  bool
	runtimeOpts runtime.Options
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks. Multiple calls merge;
// later hooks run after earlier ones.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithEvaluator overrides the expression engine selected by the flow's
// expressionLanguage field.
func WithEvaluator(eval expr.Evaluator) Option {
	return func(e *Engine) {
		e.evaluator = eval
	}
}

// WithHistoryLimit bounds the history ring. Zero keeps the default (100);
// negative disables history and GoBack entirely.
func WithHistoryLimit(n int) Option {
	return func(e *Engine) {
		if n < 0 {
			e.runtimeOpts.HistoryEnabled = false
			return
		}
		e.runtimeOpts.MaxHistorySize = n
	}
}

// WithShowDisabledChoices includes condition-failing choices, flagged
// disabled, instead of filtering them out.
func WithShowDisabledChoices(show bool) Option {
	return func(e *Engine) {
		e.runtimeOpts.ShowDisabledChoices = show
	}
}

// WithAutoAdvanceMode overrides the flow's declared auto-advance mode.
func WithAutoAdvanceMode(mode domain.AutoAdvanceMode) Option {
	return func(e *Engine) {
		e.runtimeOpts.AutoAdvanceMode = mode
	}
}

// WithSchemaValidation toggles state schema validation (on by default when
// the flow declares a schema).
func WithSchemaValidation(enabled bool) Option {
	return func(e *Engine) {
		e.validation = enabled
	}
}

// New initializes an Engine for one execution of a flow definition. The
// definition is treated as immutable once execution starts.
func New(def *domain.FlowDefinition, opts ...Option) (*Engine, error) {
	if def == nil {
		return nil, fmt.Errorf("flow definition is required")
	}
	if def.StartNodeID == "" {
		return nil, fmt.Errorf("%w: flow %q declares no start node", domain.ErrMissingStartNode, def.ID)
	}

	eng := &Engine{
		def:         def,
		validation:  true,
		runtimeOpts: runtime.Options{HistoryEnabled: true},
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = slog.New(slog.DiscardHandler)
	}
	if def.ID != "" {
		eng.logger = eng.logger.With("flow", def.ID)
	}

	if eng.evaluator == nil {
		eval, err := expr.ForLanguage(def.ExpressionLanguage)
		if err != nil {
			return nil, fmt.Errorf("flow %q: %w", def.ID, err)
		}
		eng.evaluator = eval
	}

	mgrOpts := []state.Option{
		state.WithEvaluator(eng.evaluator),
		state.WithLogger(eng.logger),
		state.WithRules(def.StateRules),
		state.WithValidation(eng.validation),
		state.WithHooks(state.Hooks{
			OnChange: func(snapshot map[string]any) { eng.runtime.HandleStateChange(snapshot) },
			OnError:  func(ev *domain.ErrorEvent) { eng.runtime.HandleStateError(ev) },
			OnEvent:  func(ev *domain.RuleEvent) { eng.runtime.HandleRuleEvent(ev) },
		}),
	}
	if def.StateSchema != nil {
		mgrOpts = append(mgrOpts,
			state.WithSchema(def.StateSchema),
			state.WithValidator(schema.NewValidator()),
		)
	}
	eng.state = state.NewManager(def.InitialState, mgrOpts...)

	eng.runtime = runtime.NewEngine(
		def,
		graph.New(def),
		eng.state,
		interpolate.New(eng.evaluator),
		eng.hooks,
		eng.logger,
		eng.runtimeOpts,
	)
	return eng, nil
}

// Start resolves the start node and transitions into it.
func (e *Engine) Start() (*runtime.Result, error) {
	return e.runtime.Start()
}

// Next advances the flow, following the given choice id, or auto-resolving
// when empty.
func (e *Engine) Next(choiceID string) (*runtime.Result, error) {
	return e.runtime.Next(choiceID)
}

// GoBack restores the previous history step.
func (e *Engine) GoBack() (*runtime.Result, error) {
	return e.runtime.GoBack()
}

// Reset rearms the engine with the flow's initial state.
func (e *Engine) Reset() error {
	return e.runtime.Reset()
}

// GetCurrentNode returns the current node with content interpolated against
// live state.
func (e *Engine) GetCurrentNode() *domain.Node {
	return e.runtime.GetCurrentNode()
}

// GetAvailableChoices enumerates the current node's selectable outlets.
func (e *Engine) GetAvailableChoices() []runtime.Choice {
	return e.runtime.GetAvailableChoices()
}

// GetState returns a deep copy of the live state.
func (e *Engine) GetState() map[string]any {
	return e.runtime.GetState()
}

// SetState merges the given keys into the live state, subject to schema
// validation and state rules.
func (e *Engine) SetState(partial map[string]any) error {
	return e.state.SetState(partial)
}

// GetHistory returns the recorded execution steps, oldest first.
func (e *Engine) GetHistory() []domain.ExecutionStep {
	return e.runtime.GetHistory()
}

// CanGoBack reports whether GoBack would succeed.
func (e *Engine) CanGoBack() bool {
	return e.runtime.CanGoBack()
}

// IsComplete reports whether the current node is terminal.
func (e *Engine) IsComplete() bool {
	return e.runtime.IsComplete()
}

// Definition returns the flow definition the engine was built from.
func (e *Engine) Definition() *domain.FlowDefinition {
	return e.def
}
