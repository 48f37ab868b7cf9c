package showtime

import (
	"errors"
	"testing"
)

func TestRecordStartOutOfOrder(t *testing.T) {
	order := mustLoad(t)

	// Act B cannot start while Act A and the break are still pending.
	err := order.RecordStart("b", at(15))
	if !errors.Is(err, ErrOutOfOrder) {
		t.Fatalf("RecordStart() error = %v, want ErrOutOfOrder", err)
	}
	if order.Find("b").ActualStart != nil {
		t.Error("RecordStart() mutated ledger on failure")
	}

	// Same while A is in progress but not completed.
	if err := order.RecordStart("a", at(0)); err != nil {
		t.Fatalf("RecordStart() error = %v", err)
	}
	if err := order.RecordStart("brk", at(10)); !errors.Is(err, ErrOutOfOrder) {
		t.Errorf("RecordStart() error = %v, want ErrOutOfOrder", err)
	}
}

func TestRecordStartIdempotency(t *testing.T) {
	order := mustLoad(t)

	if err := order.RecordStart("a", at(0)); err != nil {
		t.Fatalf("RecordStart() error = %v", err)
	}

	// Identical retry is a no-op.
	if err := order.RecordStart("a", at(0)); err != nil {
		t.Errorf("RecordStart() retry error = %v, want nil", err)
	}

	// Divergent timestamp is rejected, as both the specific sentinel and the
	// general conflict.
	err := order.RecordStart("a", at(1))
	if !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("RecordStart() error = %v, want ErrAlreadyStarted", err)
	}
	if !errors.Is(err, ErrConflict) {
		t.Errorf("RecordStart() error = %v, want ErrConflict", err)
	}
	if !order.Find("a").ActualStart.Equal(at(0)) {
		t.Error("RecordStart() overwrote actual start")
	}
}

func TestRecordEnd(t *testing.T) {
	order := mustLoad(t)

	if err := order.RecordEnd("a", at(10)); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("RecordEnd() error = %v, want ErrNotStarted", err)
	}

	if err := order.RecordStart("a", at(0)); err != nil {
		t.Fatalf("RecordStart() error = %v", err)
	}

	if err := order.RecordEnd("a", at(0).Add(-minutes(1))); !errors.Is(err, ErrBeforeStart) {
		t.Fatalf("RecordEnd() error = %v, want ErrBeforeStart", err)
	}

	if err := order.RecordEnd("a", at(10)); err != nil {
		t.Fatalf("RecordEnd() error = %v", err)
	}
	if order.Find("a").State() != StateCompleted {
		t.Error("item not completed after RecordEnd")
	}

	// Identical retry is a no-op, divergent is a conflict.
	if err := order.RecordEnd("a", at(10)); err != nil {
		t.Errorf("RecordEnd() retry error = %v, want nil", err)
	}
	if err := order.RecordEnd("a", at(11)); !errors.Is(err, ErrConflict) {
		t.Errorf("RecordEnd() error = %v, want ErrConflict", err)
	}
	if !order.Find("a").ActualEnd.Equal(at(10)) {
		t.Error("RecordEnd() overwrote actual end")
	}
}

func TestRecordUnknownItem(t *testing.T) {
	order := mustLoad(t)

	if err := order.RecordStart("nope", at(0)); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("RecordStart() error = %v, want ErrItemNotFound", err)
	}
	if err := order.RecordEnd("nope", at(0)); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("RecordEnd() error = %v, want ErrItemNotFound", err)
	}
}

func TestClearActuals(t *testing.T) {
	order := mustLoad(t)

	if err := order.ClearActuals("a"); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("ClearActuals() error = %v, want ErrNotStarted", err)
	}

	if err := order.RecordStart("a", at(0)); err != nil {
		t.Fatalf("RecordStart() error = %v", err)
	}
	if err := order.RecordEnd("a", at(10)); err != nil {
		t.Fatalf("RecordEnd() error = %v", err)
	}
	if err := order.RecordStart("brk", at(10)); err != nil {
		t.Fatalf("RecordStart() error = %v", err)
	}

	// Clearing A would break the completed prefix while the break has times.
	if err := order.ClearActuals("a"); !errors.Is(err, ErrOutOfOrder) {
		t.Fatalf("ClearActuals() error = %v, want ErrOutOfOrder", err)
	}

	// The most recent non-pending item can be cleared.
	if err := order.ClearActuals("brk"); err != nil {
		t.Fatalf("ClearActuals() error = %v", err)
	}
	if order.Find("brk").State() != StatePending {
		t.Error("break not pending after ClearActuals")
	}

	// And now A is the most recent and can be cleared too.
	if err := order.ClearActuals("a"); err != nil {
		t.Fatalf("ClearActuals() error = %v", err)
	}
}

func TestPrefixInvariant(t *testing.T) {
	order := mustLoad(t)

	steps := []struct {
		op string
		id string
		at int
	}{
		{"start", "a", 0},
		{"end", "a", 10},
		{"start", "brk", 10},
		{"end", "brk", 15},
		{"start", "b", 15},
		{"end", "b", 30},
	}

	for _, step := range steps {
		var err error
		if step.op == "start" {
			err = order.RecordStart(step.id, at(step.at))
		} else {
			err = order.RecordEnd(step.id, at(step.at))
		}
		if err != nil {
			t.Fatalf("%s %s error = %v", step.op, step.id, err)
		}

		inProgress := 0
		sawPending := false
		for _, it := range order.Items {
			switch it.State() {
			case StateInProgress:
				inProgress++
				if sawPending {
					t.Fatal("in-progress item after a pending item")
				}
			case StatePending:
				sawPending = true
			case StateCompleted:
				if sawPending {
					t.Fatal("completed item after a pending item")
				}
			}
		}
		if inProgress > 1 {
			t.Fatalf("in-progress items = %d, want at most 1", inProgress)
		}
	}
}
