package session

import "github.com/aretw0/scribe/pkg/domain"

// Transition is one edge of the session state machine.
type Transition struct {
	From   domain.Phase
	On     string // Event that fires the edge
	To     domain.Phase
	Effect string // Visible side effect
}

// Transitions describes the edges the Controller implements, in dialogue order.
// It is used for introspection only; the Controller does not consult it.
func Transitions() []Transition {
	return []Transition{
		{domain.PhaseAwaitingTitleButton, "button " + domain.ControlSetTitle, domain.PhaseAwaitingTitleForm, "remove button, show title form"},
		{domain.PhaseAwaitingTitleForm, "form " + domain.FormTitle, domain.PhaseEditing, "set title, show Add Field and Done"},
		{domain.PhaseAwaitingTitleForm, "timeout", domain.PhaseTerminated, "reply " + domain.TextTimedOut},
		{domain.PhaseEditing, "button " + domain.ControlAddField, domain.PhaseEditing, "show field form"},
		{domain.PhaseEditing, "form " + domain.FormField, domain.PhaseEditing, "append field, re-render"},
		{domain.PhaseEditing, "button " + domain.ControlSetTitle, domain.PhaseEditing, "acknowledge repeated click, no change"},
		{domain.PhaseEditing, "button " + domain.ControlDone, domain.PhaseTerminated, "final render without controls"},
	}
}
