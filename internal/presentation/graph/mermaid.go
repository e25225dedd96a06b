package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/session"
)

// Overlay contains live data to visualize on the state machine.
type Overlay struct {
	// Sessions counts running sessions per phase.
	Sessions map[domain.Phase]int
}

// NewOverlay counts the phases of the given sessions.
func NewOverlay(active []domain.SessionInfo) *Overlay {
	o := &Overlay{Sessions: make(map[domain.Phase]int)}
	for _, s := range active {
		o.Sessions[s.Phase]++
	}
	return o
}

// GenerateMermaid produces a Mermaid state diagram from the session transitions.
// It applies semantic styling:
// - Initial phase: entered from [*]
// - Terminated: exits to [*]
// It highlights phases that hold running sessions if an overlay is provided.
func GenerateMermaid(transitions []session.Transition, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("stateDiagram-v2\n")

	if len(transitions) > 0 {
		sb.WriteString(fmt.Sprintf("    [*] --> %s\n", sanitizeMermaidID(string(transitions[0].From))))
	}

	seen := map[domain.Phase]bool{}
	var order []domain.Phase
	for _, t := range transitions {
		for _, p := range []domain.Phase{t.From, t.To} {
			if !seen[p] {
				seen[p] = true
				order = append(order, p)
			}
		}
		label := strings.ReplaceAll(t.On, "\"", "'")
		sb.WriteString(fmt.Sprintf("    %s --> %s : %s\n",
			sanitizeMermaidID(string(t.From)), sanitizeMermaidID(string(t.To)), label))
	}

	if seen[domain.PhaseTerminated] {
		sb.WriteString(fmt.Sprintf("    %s --> [*]\n", sanitizeMermaidID(string(domain.PhaseTerminated))))
	}

	if overlay != nil {
		sb.WriteString("    classDef active fill:#f472b6,stroke:#333,stroke-width:2px\n")
		for _, p := range order {
			if n := overlay.Sessions[p]; n > 0 {
				id := sanitizeMermaidID(string(p))
				sb.WriteString(fmt.Sprintf("    %s : %s (%d running)\n", id, p, n))
				sb.WriteString(fmt.Sprintf("    class %s active\n", id))
			}
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	r := strings.NewReplacer("-", "_", ".", "_", " ", "_", ":", "_")
	return r.Replace(id)
}
