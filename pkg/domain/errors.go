package domain

import "errors"

// ErrNotStarted is returned when Next or GoBack is called before Start.
var ErrNotStarted = errors.New("flow not started")

// ErrAlreadyStarted is returned when Start is called twice without a Reset.
var ErrAlreadyStarted = errors.New("flow already started")

// ErrMissingStartNode is returned when startNodeId does not resolve to a node.
var ErrMissingStartNode = errors.New("start node not found")

// ErrInvalidChoice is returned when a choice id does not name an outlet of
// the current node.
var ErrInvalidChoice = errors.New("invalid choice")

// ErrNoTransition is returned when Next cannot determine a transition.
var ErrNoTransition = errors.New("no valid transition found")

// ErrHistoryUnavailable is returned when GoBack has no earlier step to
// restore, or history is disabled.
var ErrHistoryUnavailable = errors.New("history unavailable")

// ErrFlowNotFound is returned when a flow id cannot be found in a store.
var ErrFlowNotFound = errors.New("flow not found")
