package storage

import (
	"strconv"
	"strings"
)

// argList accumulates bind values and hands out the matching positional
// placeholder. Every dynamic fragment goes through Bind, so user input can
// never reach the SQL text itself.
type argList struct {
	args []any
}

// Bind registers a value and returns its $n placeholder.
func (a *argList) Bind(value any) string {
	a.args = append(a.args, value)
	return "$" + strconv.Itoa(len(a.args))
}

// Values returns the accumulated bind values in placeholder order.
func (a *argList) Values() []any {
	return a.args
}

// conditionSet collects WHERE fragments joined with AND.
type conditionSet struct {
	conds []string
}

func (c *conditionSet) Add(expr string) {
	c.conds = append(c.conds, expr)
}

// Clause renders " WHERE ..." or an empty string when no condition was added.
func (c *conditionSet) Clause() string {
	if len(c.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.conds, " AND ")
}

// assignmentSet collects SET fragments for a dynamic UPDATE.
type assignmentSet struct {
	assigns []string
}

func (s *assignmentSet) Add(expr string) {
	s.assigns = append(s.assigns, expr)
}

func (s *assignmentSet) Empty() bool {
	return len(s.assigns) == 0
}

// Clause renders the comma-joined SET list.
func (s *assignmentSet) Clause() string {
	return strings.Join(s.assigns, ", ")
}

// containsPattern wraps a substring filter for a LIKE comparison. The value is
// still bound as a parameter; only the wildcards are added here.
func containsPattern(value string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
	return "%" + escaped + "%"
}
