package rule

import (
	"strconv"
	"strings"
)

// maxReportedSteps bounds how many trailing steps an error message spells out.
const maxReportedSteps = 8

// nodePath records the left/right steps from the root to a node. Callers
// append to it on the way down; it is only rendered for traces and errors.
type nodePath []bool

func (p nodePath) left() nodePath  { return append(p, false) }
func (p nodePath) right() nodePath { return append(p, true) }

// String spells out every step, e.g. "root.left.right".
func (p nodePath) String() string {
	return p.render(0)
}

// short is String for error details: deep paths keep only their last steps.
func (p nodePath) short() string {
	if len(p) <= maxReportedSteps {
		return p.String()
	}
	return p.render(len(p) - maxReportedSteps)
}

func (p nodePath) render(from int) string {
	var b strings.Builder
	b.Grow(4 + 6*(len(p)-from) + 8)
	b.WriteString("root")
	if from > 0 {
		b.WriteString(".(")
		b.WriteString(strconv.Itoa(from))
		b.WriteString(" steps)")
	}
	for _, r := range p[from:] {
		if r {
			b.WriteString(".right")
		} else {
			b.WriteString(".left")
		}
	}
	return b.String()
}
