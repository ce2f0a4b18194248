package analysis

import (
	"math"
	"testing"

	"github.com/blunderscan/blunderscan/internal/game"
)

func score(plyIndex int, before, change float64) PlyScore {
	return PlyScore{
		Ply:        game.Ply{Index: plyIndex, MoveNumber: plyIndex/2 + 1},
		Before:     Result{Eval: before},
		EvalChange: change,
		Analyzed:   true,
	}
}

func TestEvalChange_Convention(t *testing.T) {
	// Before: +0.50 for the mover. After: +2.00 for the opponent, i.e. -2.00
	// for the mover. The move cost the mover 2.5 pawns.
	if got := EvalChange(0.5, 2.0); got != -2.5 {
		t.Errorf("EvalChange(0.5, 2.0) = %v, want -2.5", got)
	}
	// A move that improves the mover's position yields a positive change.
	if got := EvalChange(0.0, -1.0); got != 1.0 {
		t.Errorf("EvalChange(0.0, -1.0) = %v, want 1.0", got)
	}
}

func TestTrackerTopN_OrderAndBound(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TopN = 2
	tr := NewTracker(cfg)

	for i, change := range []float64{-0.5, -3.2, 1.0, -0.1} {
		tr.Record(score(i, 0, change))
	}

	top := tr.TopN()
	if len(top) != 2 {
		t.Fatalf("len(top) = %d, want 2", len(top))
	}
	if top[0].EvalChange != -3.2 || top[1].EvalChange != -0.5 {
		t.Errorf("top = [%v, %v], want [-3.2, -0.5]", top[0].EvalChange, top[1].EvalChange)
	}
}

func TestTrackerTopN_TieBreakByPly(t *testing.T) {
	cfg := DefaultConfig()
	tr := NewTracker(cfg)

	tr.Record(score(4, 0, -1.5))
	tr.Record(score(1, 0, -1.5))
	tr.Record(score(2, 0, -0.5))

	top := tr.TopN()
	if top[0].Ply.Index != 1 || top[1].Ply.Index != 4 {
		t.Errorf("tie order = [%d, %d], want earlier ply first [1, 4]",
			top[0].Ply.Index, top[1].Ply.Index)
	}
}

func TestTrackerTopN_FiltersDecidedPositions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GameOverEval = 10.0
	tr := NewTracker(cfg)

	tr.Record(score(0, 0.3, -2.0))
	tr.Record(score(1, 12.5, -50.0)) // Already winning by 12.5: excluded
	tr.Record(score(2, -11.0, -4.0)) // Already lost: excluded

	top := tr.TopN()
	if len(top) != 1 || top[0].Ply.Index != 0 {
		t.Errorf("top = %+v, want only ply 0", top)
	}
}

func TestTrackerTopN_SkipsUnanalyzed(t *testing.T) {
	tr := NewTracker(DefaultConfig())
	tr.Record(PlyScore{Ply: game.Ply{Index: 0}}) // Engine gap
	tr.Record(score(1, 0, -1.0))

	top := tr.TopN()
	if len(top) != 1 || top[0].Ply.Index != 1 {
		t.Errorf("top = %+v, want only analyzed ply 1", top)
	}
}

func TestTrackerTopN_EmptyBeforeRecords(t *testing.T) {
	tr := NewTracker(DefaultConfig())
	if top := tr.TopN(); len(top) != 0 {
		t.Errorf("TopN on empty tracker = %v, want empty", top)
	}
}

func TestTrackerAll_PreservesGameOrder(t *testing.T) {
	tr := NewTracker(DefaultConfig())
	for i := 0; i < 4; i++ {
		tr.Record(score(i, 0, float64(-i)))
	}
	all := tr.All()
	if len(all) != 4 {
		t.Fatalf("len(all) = %d, want 4", len(all))
	}
	for i, s := range all {
		if s.Ply.Index != i {
			t.Errorf("all[%d].Ply.Index = %d", i, s.Ply.Index)
		}
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
