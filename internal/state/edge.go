package state

// Edge remembers the previous logical level of a button.
type Edge struct {
	prev bool
}

// Rising feeds the current logical level and reports an inactive->active transition.
func (e *Edge) Rising(active bool) bool {
	fired := active && !e.prev
	e.prev = active
	return fired
}

func (e *Edge) Level() bool { return e.prev }
