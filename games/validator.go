/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package games

type Verdict int

const (
	VerdictCorrect Verdict = iota
	VerdictComplete
	VerdictIncorrect
	// VerdictClosed is returned once the validator has seen a mistake or the
	// final correct click.
	VerdictClosed
)

func (v Verdict) String() string {
	switch v {
	case VerdictCorrect:
		return "correct"
	case VerdictComplete:
		return "complete"
	case VerdictIncorrect:
		return "incorrect"
	case VerdictClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Validator judges clicks against the labels in their creation order.
type Validator struct {
	order  []string
	next   int
	closed bool
}

// NewValidator snapshots the labels of markers, which must be in creation
// order.
func NewValidator(markers []*Marker) *Validator {
	order := make([]string, len(markers))
	for i, m := range markers {
		order[i] = m.Label
	}

	return &Validator{
		order:  order,
		closed: len(order) == 0,
	}
}

// Check judges a click on m. A correct click reveals m's label.
func (v *Validator) Check(m *Marker) Verdict {
	if v.closed {
		return VerdictClosed
	}

	if m.Label != v.order[v.next] {
		v.closed = true
		return VerdictIncorrect
	}

	m.Revealed = true
	v.next++

	if v.next == len(v.order) {
		v.closed = true
		return VerdictComplete
	}

	return VerdictCorrect
}

// Expected is the index of the next label to be clicked.
func (v *Validator) Expected() int {
	return v.next
}

func (v *Validator) Len() int {
	return len(v.order)
}
