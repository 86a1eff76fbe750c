// Package state owns the mutable state object of a running flow. All
// mutation goes through the manager: schema validation gates every commit,
// batches are all-or-nothing, and global state rules run after each
// successful mutation.
package state

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/fable/pkg/domain"
	"github.com/aretw0/fable/pkg/expr"
	"github.com/aretw0/fable/pkg/schema"
)

// Hooks are the manager's outbound callbacks. They fire synchronously, on
// the originating call stack, before the mutating call returns.
type Hooks struct {
	OnChange func(state map[string]any)
	OnError  func(ev *domain.ErrorEvent)
	OnEvent  func(ev *domain.RuleEvent)
}

// Manager is the sole mutator of the live state object.
type Manager struct {
	state     map[string]any
	schemaDoc map[string]any
	validator *schema.Validator
	validate  bool
	rules     []domain.StateRule
	eval      expr.Evaluator
	logger    *slog.Logger
	hooks     Hooks
}

// Option configures a Manager.
type Option func(*Manager)

// WithSchema sets the JSON-Schema document validated on every mutation.
func WithSchema(doc map[string]any) Option {
	return func(m *Manager) { m.schemaDoc = doc }
}

// WithValidator injects a shared schema validator (and its cache).
func WithValidator(v *schema.Validator) Option {
	return func(m *Manager) { m.validator = v }
}

// WithValidation toggles schema validation (on by default).
func WithValidation(enabled bool) Option {
	return func(m *Manager) { m.validate = enabled }
}

// WithRules sets the global state rules evaluated after every mutation.
func WithRules(rules []domain.StateRule) Option {
	return func(m *Manager) { m.rules = rules }
}

// WithEvaluator sets the expression engine for conditions and computed
// action values.
func WithEvaluator(e expr.Evaluator) Option {
	return func(m *Manager) { m.eval = e }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithHooks sets the outbound callbacks.
func WithHooks(h Hooks) Option {
	return func(m *Manager) { m.hooks = h }
}

// NewManager creates a manager seeded with a deep copy of initial.
func NewManager(initial map[string]any, opts ...Option) *Manager {
	m := &Manager{
		state:    domain.DeepCopyState(initial),
		validate: true,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.eval == nil {
		m.eval = expr.NewExprEvaluator()
	}
	if m.validator == nil && m.schemaDoc != nil {
		m.validator = schema.NewValidator()
	}
	return m
}

// GetState returns a deep, independent copy of the current state.
func (m *Manager) GetState() map[string]any {
	return domain.DeepCopyState(m.state)
}

// SetState shallow-merges the given keys over the current state. The result
// is validated before commit; on failure the state is left unchanged.
func (m *Manager) SetState(partial map[string]any) error {
	working := domain.DeepCopyState(m.state)
	for k, v := range partial {
		working[k] = domain.DeepCopyValue(v)
	}
	if err := m.checkSchema(working); err != nil {
		return err
	}
	m.commit(working)
	return nil
}

// ExecuteActions applies a list of set actions in order against a working
// copy and validates the final result once. The batch is all-or-nothing: on
// failure the live state is untouched.
func (m *Manager) ExecuteActions(actions []domain.StateAction) error {
	if len(actions) == 0 {
		return nil
	}
	working := domain.DeepCopyState(m.state)
	for _, action := range actions {
		if action.Type != domain.ActionSet {
			return fmt.Errorf("unsupported action type %q", action.Type)
		}
		if action.Target == "" {
			return fmt.Errorf("set action missing target")
		}
		value := domain.DeepCopyValue(action.Value)
		if action.Expression != "" {
			evaluated, err := m.eval.Evaluate(action.Expression, working)
			if err != nil {
				return fmt.Errorf("action %q: %w", action.Target, err)
			}
			value = evaluated
		}
		domain.SetPath(working, action.Target, value)
	}
	if err := m.checkSchema(working); err != nil {
		return err
	}
	m.commit(working)
	return nil
}

// EvaluateCondition evaluates a boolean condition against the current
// state. It never propagates an evaluation failure: errors and non-boolean
// results are logged and yield false. An empty condition is true.
func (m *Manager) EvaluateCondition(source string) bool {
	if source == "" {
		return true
	}
	ok, err := m.eval.EvaluateCondition(source, m.state)
	if err != nil {
		m.logger.Warn("condition evaluation failed", "condition", source, "err", err)
		m.emitError(&domain.ErrorEvent{
			Kind:    domain.ErrKindConditionEvaluation,
			Message: err.Error(),
		})
		return false
	}
	return ok
}

// Reset validates and replaces the state wholesale.
func (m *Manager) Reset(newState map[string]any) error {
	working := domain.DeepCopyState(newState)
	if err := m.checkSchema(working); err != nil {
		return err
	}
	m.commit(working)
	return nil
}

func (m *Manager) checkSchema(candidate map[string]any) error {
	if !m.validate || m.schemaDoc == nil || m.validator == nil {
		return nil
	}
	res, err := m.validator.Validate(candidate, m.schemaDoc)
	if err != nil {
		return err
	}
	if res.Valid {
		return nil
	}
	details := make([]string, len(res.Errors))
	for i, fe := range res.Errors {
		details[i] = fe.String()
	}
	m.emitError(&domain.ErrorEvent{
		Kind:    domain.ErrKindSchemaValidation,
		Message: "state failed schema validation",
		Details: details,
	})
	return &schema.ViolationError{Errors: res.Errors}
}

// commit installs the new state, notifies listeners, then runs rules.
func (m *Manager) commit(next map[string]any) {
	m.state = next
	m.emitChange()
	m.runRules()
}

// runRules evaluates every rule in declaration order against the committed
// state. Rule-applied sets do not retrigger rule evaluation, which keeps a
// self-satisfying rule from looping.
func (m *Manager) runRules() {
	for i := range m.rules {
		rule := &m.rules[i]
		if rule.Condition == "" {
			continue
		}
		ok, err := m.eval.EvaluateCondition(rule.Condition, m.state)
		if err != nil {
			m.logger.Warn("rule condition failed", "condition", rule.Condition, "err", err)
			continue
		}
		if !ok {
			continue
		}

		switch rule.Action {
		case domain.RuleSetState:
			domain.SetPath(m.state, rule.Target, domain.DeepCopyValue(rule.Value))
			m.emitChange()
		case domain.RuleForceTransition:
			// The manager has no notion of nodes; the engine intercepts this
			// event and performs the actual transition.
			m.emitError(&domain.ErrorEvent{
				Kind:    domain.ErrKindForceTransition,
				Message: fmt.Sprintf("rule requests transition to %q", rule.Target),
				Rule:    rule,
			})
		case domain.RuleTriggerEvent:
			if m.hooks.OnEvent != nil {
				m.hooks.OnEvent(&domain.RuleEvent{
					EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventStateChange},
					Name:      rule.Target,
					Value:     domain.DeepCopyValue(rule.Value),
				})
			}
		default:
			m.logger.Warn("unknown rule action", "action", string(rule.Action))
		}
	}
}

func (m *Manager) emitChange() {
	if m.hooks.OnChange != nil {
		m.hooks.OnChange(m.GetState())
	}
}

func (m *Manager) emitError(ev *domain.ErrorEvent) {
	ev.Timestamp = time.Now()
	ev.Type = domain.EventError
	if m.hooks.OnError != nil {
		m.hooks.OnError(ev)
	}
}
