package pipeline

import "fmt"

// State is a workflow state.
type State string

// Workflow states.
const (
	StateStart     State = "start"
	StateValidate  State = "validate"
	StateCollect   State = "collect"
	StateStructure State = "structure"
	StateEnd       State = "end"
)

// StateDefinition describes a state and where it may go next.
type StateDefinition struct {
	Name     State
	Category string
	Next     []State
}

// Progress categories.
const (
	CategoryLifecycle = "lifecycle"
	CategorySource    = "source"
)

// StateRegistry holds the workflow graph. Validate may end early; collect
// always proceeds to structure.
var StateRegistry = map[State]StateDefinition{
	StateStart:     {Name: StateStart, Category: CategoryLifecycle, Next: []State{StateValidate}},
	StateValidate:  {Name: StateValidate, Category: CategoryLifecycle, Next: []State{StateCollect, StateEnd}},
	StateCollect:   {Name: StateCollect, Category: CategorySource, Next: []State{StateStructure}},
	StateStructure: {Name: StateStructure, Category: CategoryLifecycle, Next: []State{StateEnd}},
	StateEnd:       {Name: StateEnd, Category: CategoryLifecycle},
}

// TransitionError reports a move the graph does not allow.
type TransitionError struct {
	From, To State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid workflow transition %s -> %s", e.From, e.To)
}

// CheckTransition returns a *TransitionError unless from may move to to.
func CheckTransition(from, to State) error {
	def, ok := StateRegistry[from]
	if !ok {
		return &TransitionError{From: from, To: to}
	}
	for _, next := range def.Next {
		if next == to {
			return nil
		}
	}
	return &TransitionError{From: from, To: to}
}
