package rule

// Trace lists every visited node in evaluation order: children before their
// parent, left before right.
type Trace struct {
	Steps  []TraceStep `json:"steps"`
	Result bool        `json:"result"`
	Error  string      `json:"error,omitempty"`
}

type TraceStep struct {
	Path  string `json:"path"`
	Type  Kind   `json:"type"`
	Value string `json:"value"`
	// Outcome is the resolved operand value or the operator's boolean result.
	Outcome any `json:"outcome"`
}

func (t *Trace) record(path nodePath, n *Node, outcome any) {
	if t == nil {
		return
	}
	t.Steps = append(t.Steps, TraceStep{Path: path.String(), Type: n.Kind, Value: n.Value, Outcome: outcome})
}
