package trigger

// Predicate is a zero-argument boolean callback supplied by the host.
type Predicate func() bool

// Predicates is the enable/disable set gating automatic completion.
// The set is satisfied when every enable predicate returns true and no
// disable predicate returns true, evaluated with short-circuiting in
// list order.
type Predicates struct {
	Enable  []Predicate
	Disable []Predicate
}

// Satisfied evaluates the predicate set.
func (p Predicates) Satisfied() bool {
	for _, fn := range p.Enable {
		if fn == nil || !fn() {
			return false
		}
	}
	for _, fn := range p.Disable {
		if fn != nil && fn() {
			return false
		}
	}
	return true
}
