package analysis

import (
	"sort"
	"time"

	"github.com/blunderscan/blunderscan/internal/game"
)

// PlyScore pairs one played move with the engine's assessment of the
// positions around it. EvalChange is in pawns from the mover's perspective:
// negative means the move left the mover worse off than the engine's
// evaluation before the move implied.
type PlyScore struct {
	Ply          game.Ply
	Before       Result // Analysis of the position the move was played from
	After        Result // Analysis of the resulting position
	EvalChange   float64
	AnalysisTime time.Duration // Engine time spent on both positions
	Analyzed     bool          // False when the engine failed before this ply
}

// EvalChange computes the swing of a move given the side-to-move evaluations
// of the positions before and after it. Both inputs are from the side to
// move's perspective, so the after value is negated to the mover's view:
//
//	change = (-after) - before
//
// Negative values mean the mover's position got worse.
func EvalChange(before, after float64) float64 {
	return -after - before
}

// Tracker accumulates per-ply scores and ranks the worst swings. It keeps
// every record and sorts on demand; games are small enough that a bounded
// structure buys nothing.
type Tracker struct {
	cfg    Config
	scores []PlyScore
}

// NewTracker returns an empty tracker.
func NewTracker(cfg Config) *Tracker {
	return &Tracker{cfg: cfg}
}

// Record ingests one analyzed ply. Records arrive in ply order.
func (t *Tracker) Record(s PlyScore) {
	t.scores = append(t.scores, s)
}

// All returns every recorded ply in game order, for the debug table.
func (t *Tracker) All() []PlyScore {
	return t.scores
}

// TopN returns up to TopN plies ordered by ascending EvalChange (most
// negative first), ties broken by ply index so earlier mistakes come first.
// Plies whose before-evaluation already exceeded the game-over threshold are
// excluded: swings in decided positions carry no insight. Unanalyzed plies
// are excluded. Empty input yields an empty slice.
func (t *Tracker) TopN() []PlyScore {
	ranked := make([]PlyScore, 0, len(t.scores))
	for _, s := range t.scores {
		if !s.Analyzed {
			continue
		}
		if s.Before.Eval > t.cfg.GameOverEval || s.Before.Eval < -t.cfg.GameOverEval {
			continue
		}
		ranked = append(ranked, s)
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].EvalChange != ranked[j].EvalChange {
			return ranked[i].EvalChange < ranked[j].EvalChange
		}
		return ranked[i].Ply.Index < ranked[j].Ply.Index
	})

	if t.cfg.TopN > 0 && len(ranked) > t.cfg.TopN {
		ranked = ranked[:t.cfg.TopN]
	}
	return ranked
}
