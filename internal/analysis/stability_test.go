package analysis

import (
	"testing"
	"time"
)

func TestStabilityState_FirstMoveStartsClock(t *testing.T) {
	start := time.Unix(1000, 0)
	st := newStabilityState(start)

	firstPoll := start.Add(1 * time.Second)
	if !st.observe("e2e4", firstPoll) {
		t.Fatal("first observed move should count as a change")
	}

	// Stable exactly at firstPoll + threshold, not earlier.
	threshold := 10 * time.Second
	justBefore := firstPoll.Add(threshold - time.Millisecond)
	if st.stableFor(justBefore) >= threshold {
		t.Errorf("stable %.3fs after first poll, want < threshold", st.stableFor(justBefore).Seconds())
	}
	atThreshold := firstPoll.Add(threshold)
	if st.stableFor(atThreshold) < threshold {
		t.Errorf("not stable at firstPoll+threshold")
	}
}

func TestStabilityState_RefinementDoesNotReset(t *testing.T) {
	start := time.Unix(1000, 0)
	st := newStabilityState(start)

	st.observe("e2e4", start.Add(1*time.Second))
	// Same best move polled again later: no change, clock keeps running.
	if st.observe("e2e4", start.Add(5*time.Second)) {
		t.Error("repeated best move must not count as a change")
	}
	if got := st.stableFor(start.Add(11 * time.Second)); got != 10*time.Second {
		t.Errorf("stableFor = %v, want 10s", got)
	}
}

func TestStabilityState_ChangesResetClock(t *testing.T) {
	start := time.Unix(0, 0)
	st := newStabilityState(start)
	threshold := 10 * time.Second

	// Best-move changes at 2s, 5s, 9s: must not be stable before 19s.
	changes := []struct {
		move string
		at   time.Duration
	}{
		{"e2e4", 2 * time.Second},
		{"d2d4", 5 * time.Second},
		{"g1f3", 9 * time.Second},
	}
	for _, ch := range changes {
		if !st.observe(ch.move, start.Add(ch.at)) {
			t.Fatalf("move %s at %v should register as change", ch.move, ch.at)
		}
	}

	for sec := 10; sec < 19; sec++ {
		at := start.Add(time.Duration(sec) * time.Second)
		if st.stableFor(at) >= threshold {
			t.Fatalf("stable at t=%ds, must not stop before t=19s", sec)
		}
	}
	if st.stableFor(start.Add(19*time.Second)) < threshold {
		t.Error("expected stability at t=19s")
	}
}

func TestStabilityState_EmptyMoveIgnored(t *testing.T) {
	start := time.Unix(0, 0)
	st := newStabilityState(start)

	if st.observe("", start.Add(time.Second)) {
		t.Error("empty best move must not count as a change")
	}
	if st.sawMove {
		t.Error("empty best move must not mark a move as seen")
	}
}
