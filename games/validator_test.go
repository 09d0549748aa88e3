package games

import "testing"

func TestValidatorAcceptsCreationOrder(t *testing.T) {
	markers := newTestMarkers(3)
	for _, m := range markers {
		m.Revealed = false
	}
	v := NewValidator(markers)

	// Positions are irrelevant; only labels count.
	markers[0].Position, markers[2].Position = markers[2].Position, markers[0].Position

	if got := v.Check(markers[0]); got != VerdictCorrect {
		t.Fatalf("expected correct, got %s", got)
	}
	if v.Expected() != 1 {
		t.Fatalf("expected cursor 1, got %d", v.Expected())
	}
	if !markers[0].Revealed {
		t.Fatalf("expected correct click to reveal the label")
	}
	if got := v.Check(markers[1]); got != VerdictCorrect {
		t.Fatalf("expected correct, got %s", got)
	}
	if got := v.Check(markers[2]); got != VerdictComplete {
		t.Fatalf("expected complete, got %s", got)
	}
	if got := v.Check(markers[0]); got != VerdictClosed {
		t.Fatalf("expected closed after completion, got %s", got)
	}
	if v.Expected() != v.Len() {
		t.Fatalf("expected cursor at end, got %d", v.Expected())
	}
}

func TestValidatorRejectsWrongLabel(t *testing.T) {
	markers := newTestMarkers(4)
	for _, m := range markers {
		m.Revealed = false
	}
	v := NewValidator(markers)

	if got := v.Check(markers[0]); got != VerdictCorrect {
		t.Fatalf("expected correct, got %s", got)
	}
	if got := v.Check(markers[2]); got != VerdictIncorrect {
		t.Fatalf("expected incorrect, got %s", got)
	}
	if markers[2].Revealed {
		t.Fatalf("incorrect click must not reveal through the validator")
	}
	if v.Expected() != 1 {
		t.Fatalf("expected cursor to stay at 1, got %d", v.Expected())
	}
	if got := v.Check(markers[1]); got != VerdictClosed {
		t.Fatalf("expected closed after a mistake, got %s", got)
	}
}

func TestValidatorRepeatClickIsWrong(t *testing.T) {
	markers := newTestMarkers(3)
	v := NewValidator(markers)

	v.Check(markers[0])
	if got := v.Check(markers[0]); got != VerdictIncorrect {
		t.Fatalf("expected clicking the same marker twice to be incorrect, got %s", got)
	}
}

func TestValidatorSnapshotsLabels(t *testing.T) {
	markers := newTestMarkers(3)
	v := NewValidator(markers)

	markers[0].Label = "changed"
	if got := v.Check(markers[0]); got != VerdictIncorrect {
		t.Fatalf("expected snapshot to keep the original labels, got %s", got)
	}
}
