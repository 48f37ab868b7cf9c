package showtime

import (
	"testing"
	"time"
)

const floor = 2 * time.Minute

// Early finish: A ends at minute 6, slip -4. The break keeps its full five
// minutes; everything shifts four minutes earlier.
func TestProjectEarlyFinish(t *testing.T) {
	order := mustLoad(t)
	start(t, order, "a", 0)
	end(t, order, "a", 6)

	slip := ComputeSlip(order, at(6))
	if slip != -minutes(4) {
		t.Fatalf("slip = %v, want -4m", slip)
	}

	got := Project(order, slip, floor, nil)
	want := []struct {
		id         string
		start, end int
		compressed bool
	}{
		{"brk", 6, 11, false},
		{"b", 11, 26, false},
	}

	assertProjections(t, got, want)
}

// Late finish: A ends at minute 14, slip +4. The break compresses to its
// two-minute floor, absorbing three minutes; one minute passes through.
func TestProjectLateFinish(t *testing.T) {
	order := mustLoad(t)
	start(t, order, "a", 0)
	end(t, order, "a", 14)

	slip := ComputeSlip(order, at(14))
	if slip != minutes(4) {
		t.Fatalf("slip = %v, want +4m", slip)
	}

	got := Project(order, slip, floor, nil)
	want := []struct {
		id         string
		start, end int
		compressed bool
	}{
		{"brk", 14, 16, true},
		{"b", 16, 31, false},
	}

	assertProjections(t, got, want)
}

func TestProjectBreakFloorNeverViolated(t *testing.T) {
	order := mustLoad(t)
	start(t, order, "a", 0)
	end(t, order, "a", 55) // 45 minutes late, far more than the break can absorb

	slip := ComputeSlip(order, at(55))
	got := Project(order, slip, floor, nil)

	for _, p := range got {
		item := order.Find(p.ItemID)
		if item.Kind == KindBreak && p.Duration < floor {
			t.Errorf("break %s projected duration %v below floor %v", item.Name, p.Duration, floor)
		}
	}
}

// Projections chain gap-free: each start equals the previous end, and every
// pending item appears exactly once in running order.
func TestProjectCoverage(t *testing.T) {
	rows := []SeedRow{
		{ID: "a", Name: "A", Position: 1, Duration: minutes(10)},
		{ID: "brk1", Name: "Break 1", Position: 2, Duration: minutes(5), IsBreak: true},
		{ID: "b", Name: "B", Position: 3, Duration: minutes(15)},
		{ID: "brk2", Name: "Break 2", Position: 4, Duration: minutes(10), IsBreak: true},
		{ID: "c", Name: "C", Position: 5, Duration: minutes(20)},
	}
	order, err := LoadSchedule(showStart, rows)
	if err != nil {
		t.Fatalf("LoadSchedule() error = %v", err)
	}
	start(t, order, "a", 0)
	end(t, order, "a", 18) // +8: brk1 absorbs 3, brk2 absorbs 5

	slip := ComputeSlip(order, at(18))
	got := Project(order, slip, floor, nil)

	wantIDs := []string{"brk1", "b", "brk2", "c"}
	if len(got) != len(wantIDs) {
		t.Fatalf("Project() entries = %d, want %d", len(got), len(wantIDs))
	}
	for i, p := range got {
		if p.ItemID != wantIDs[i] {
			t.Errorf("entry %d = %s, want %s", i, p.ItemID, wantIDs[i])
		}
		if i > 0 && !p.Start.Equal(got[i-1].End) {
			t.Errorf("entry %s start %v != previous end %v", p.ItemID, p.Start, got[i-1].End)
		}
	}

	// Residual lateness after both breaks: 8 - 3 - 5 = 0, so C lands on plan.
	last := got[len(got)-1]
	if !last.End.Equal(at(60)) {
		t.Errorf("final projected end = %v, want %v", last.End, at(60))
	}
}

func TestProjectMultipleBreaksAbsorbInOrder(t *testing.T) {
	rows := []SeedRow{
		{ID: "a", Name: "A", Position: 1, Duration: minutes(10)},
		{ID: "brk1", Name: "Break 1", Position: 2, Duration: minutes(4), IsBreak: true},
		{ID: "b", Name: "B", Position: 3, Duration: minutes(10)},
		{ID: "brk2", Name: "Break 2", Position: 4, Duration: minutes(6), IsBreak: true},
		{ID: "c", Name: "C", Position: 5, Duration: minutes(10)},
	}
	order, err := LoadSchedule(showStart, rows)
	if err != nil {
		t.Fatalf("LoadSchedule() error = %v", err)
	}
	start(t, order, "a", 0)
	end(t, order, "a", 13) // +3: brk1 absorbs 2 (floor 2), brk2 absorbs the rest

	slip := ComputeSlip(order, at(13))
	got := Project(order, slip, floor, nil)

	if got[0].Duration != minutes(2) || !got[0].Compressed {
		t.Errorf("brk1 = %v compressed=%v, want 2m compressed", got[0].Duration, got[0].Compressed)
	}
	if got[2].Duration != minutes(5) || !got[2].Compressed {
		t.Errorf("brk2 = %v compressed=%v, want 5m compressed", got[2].Duration, got[2].Compressed)
	}
	// All lateness absorbed; C back on its original schedule.
	if !got[3].End.Equal(order.Find("c").ScheduledEnd) {
		t.Errorf("C projected end = %v, want scheduled %v", got[3].End, order.Find("c").ScheduledEnd)
	}
}

func TestProjectOverrides(t *testing.T) {
	order := mustLoad(t)
	start(t, order, "a", 0)
	end(t, order, "a", 6)

	slip := ComputeSlip(order, at(6))
	pinned := Window{Start: at(12), End: at(16)}
	got := Project(order, slip, floor, map[string]Window{"brk": pinned})

	if !got[0].Overridden {
		t.Fatal("pinned break not marked overridden")
	}
	if !got[0].Start.Equal(pinned.Start) || !got[0].End.Equal(pinned.End) {
		t.Errorf("pinned window = %v-%v, want %v-%v", got[0].Start, got[0].End, pinned.Start, pinned.End)
	}
	// Downstream items re-anchor on the pinned end.
	if !got[1].Start.Equal(pinned.End) {
		t.Errorf("Act B start = %v, want pinned end %v", got[1].Start, pinned.End)
	}
}

func TestProjectNothingPending(t *testing.T) {
	order := mustLoad(t)
	start(t, order, "a", 0)
	end(t, order, "a", 10)
	start(t, order, "brk", 10)
	end(t, order, "brk", 15)
	start(t, order, "b", 15)
	end(t, order, "b", 30)

	if got := Project(order, 0, floor, nil); len(got) != 0 {
		t.Errorf("Project() entries = %d, want 0", len(got))
	}
}

func assertProjections(t *testing.T, got []Projection, want []struct {
	id         string
	start, end int
	compressed bool
}) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("Project() entries = %d, want %d", len(got), len(want))
	}
	for i, w := range want {
		p := got[i]
		if p.ItemID != w.id {
			t.Errorf("entry %d id = %s, want %s", i, p.ItemID, w.id)
		}
		if !p.Start.Equal(at(w.start)) {
			t.Errorf("%s projected start = %v, want %v", w.id, p.Start, at(w.start))
		}
		if !p.End.Equal(at(w.end)) {
			t.Errorf("%s projected end = %v, want %v", w.id, p.End, at(w.end))
		}
		if p.Compressed != w.compressed {
			t.Errorf("%s compressed = %v, want %v", w.id, p.Compressed, w.compressed)
		}
	}
}
