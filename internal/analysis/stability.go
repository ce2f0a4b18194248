package analysis

import "time"

// stabilityState tracks how long the engine's reported best move has gone
// unchanged. It is transitioned by each poll, so the stopping rule can be
// exercised with synthetic poll sequences.
type stabilityState struct {
	lastBestMove string
	lastChange   time.Time
	sawMove      bool
}

// newStabilityState starts the clock at search start: a best move that never
// changes after the first poll makes the search stable at
// firstPollTime + threshold.
func newStabilityState(start time.Time) *stabilityState {
	return &stabilityState{lastChange: start}
}

// observe records a polled best move. Returns true when the best move
// changed (including the first move seen), which resets the stability clock.
// An empty best move (no line reported yet) is ignored.
func (s *stabilityState) observe(bestMove string, at time.Time) bool {
	if bestMove == "" {
		return false
	}
	if s.sawMove && bestMove == s.lastBestMove {
		return false
	}
	s.lastBestMove = bestMove
	s.lastChange = at
	s.sawMove = true
	return true
}

// stableFor reports how long the best move has been unchanged as of now.
func (s *stabilityState) stableFor(now time.Time) time.Duration {
	return now.Sub(s.lastChange)
}
