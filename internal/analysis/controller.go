// Package analysis contains the core of the tool: the convergence controller
// that decides when to trust the engine's best line for a position, and the
// tracker that ranks the evaluation swings of the moves actually played.
package analysis

import (
	"fmt"
	"time"

	"github.com/notnil/chess"

	"github.com/blunderscan/blunderscan/internal/uciengine"
)

// mateEval is the saturated evaluation, in pawns, assigned to forced mates
// and checkmated positions. Mate distance is collapsed.
const mateEval = 99.0

// fixedOverhead bounds how long a fixed-time search may run past its budget
// before the controller stops waiting for the engine to finish on its own.
const fixedOverhead = 2 * time.Second

// Session is the engine handle the controller drives. *uciengine.Engine
// satisfies it; tests substitute a scripted fake.
type Session interface {
	StartSearch(fen string, limit uciengine.Limit) error
	Poll() (uciengine.Snapshot, bool, error)
	Stop() error
}

// Result is the controller's final verdict for one position. Eval is in
// pawns from the side to move's perspective.
type Result struct {
	BestMove string
	Eval     float64
	PV       []string
	Depth    int
	Elapsed  time.Duration
	Stable   bool
}

// ProgressEvent reports a best-move change during a running search.
type ProgressEvent struct {
	Elapsed  time.Duration
	Depth    int
	Eval     float64
	BestMove string
	PV       []string
	Initial  bool // First best line seen for this position
}

// ProgressFunc receives progress events. May be nil.
type ProgressFunc func(ProgressEvent)

// Controller runs one engine search per position and decides when to stop
// polling, according to the selected mode.
type Controller struct {
	cfg     Config
	session Session

	// Injected clock, replaced in tests.
	now   func() time.Time
	sleep func(time.Duration)
}

// NewController returns a controller bound to one engine session.
func NewController(cfg Config, session Session) *Controller {
	return &Controller{
		cfg:     cfg,
		session: session,
		now:     time.Now,
		sleep:   time.Sleep,
	}
}

// Evaluate analyzes the position in fen under the given mode.
func (c *Controller) Evaluate(fen string, mode Mode, progress ProgressFunc) (Result, error) {
	switch mode {
	case ModeQuick:
		return c.fixedTime(fen, c.cfg.QuickTime, nil)
	case ModeTime:
		return c.fixedTime(fen, c.cfg.TimeLimit, progress)
	case ModeStability:
		return c.stability(fen, progress)
	default:
		return Result{}, fmt.Errorf("unknown analysis mode %d", mode)
	}
}

// EvaluateFixed analyzes the position for a caller-supplied fixed duration,
// regardless of the configured mode. Used by single-move deep analysis.
func (c *Controller) EvaluateFixed(fen string, d time.Duration, progress ProgressFunc) (Result, error) {
	return c.fixedTime(fen, d, progress)
}

// fixedTime starts a movetime search and polls until the engine reports
// completion or the budget plus a small overhead elapses.
func (c *Controller) fixedTime(fen string, budget time.Duration, progress ProgressFunc) (Result, error) {
	start := c.now()
	if err := c.session.StartSearch(fen, uciengine.Limit{MoveTime: budget}); err != nil {
		return Result{}, fmt.Errorf("start search: %w", err)
	}
	deadline := start.Add(budget + fixedOverhead)

	st := newStabilityState(start)
	var cur Result
	for {
		snap, done, err := c.session.Poll()
		if err != nil {
			return Result{}, fmt.Errorf("poll engine: %w", err)
		}
		now := c.now()
		if len(snap.PV) > 0 {
			initial := !st.sawMove
			cur = c.resultFrom(snap, now.Sub(start))
			if st.observe(snap.BestMove, now) && progress != nil {
				progress(ProgressEvent{
					Elapsed:  now.Sub(start),
					Depth:    cur.Depth,
					Eval:     cur.Eval,
					BestMove: cur.BestMove,
					PV:       cur.PV,
					Initial:  initial,
				})
			}
		} else if snap.BestMove != "" {
			cur.BestMove = snap.BestMove
		}
		if done {
			cur.Elapsed = now.Sub(start)
			return cur, nil
		}
		if now.After(deadline) {
			if err := c.session.Stop(); err != nil {
				return Result{}, fmt.Errorf("stop engine: %w", err)
			}
			// The stop acknowledgment may carry a final line the last poll
			// missed.
			if snap, _, err := c.session.Poll(); err == nil && len(snap.PV) > 0 {
				cur = c.resultFrom(snap, 0)
			}
			cur.Elapsed = c.now().Sub(start)
			return cur, nil
		}
		c.sleep(c.cfg.PollInterval)
	}
}

// stability starts an unbounded search and stops once the best move has not
// changed for the configured threshold. There is no maximum-time cap.
func (c *Controller) stability(fen string, progress ProgressFunc) (Result, error) {
	start := c.now()
	if err := c.session.StartSearch(fen, uciengine.Limit{Infinite: true}); err != nil {
		return Result{}, fmt.Errorf("start search: %w", err)
	}

	st := newStabilityState(start)
	var cur Result
	for {
		c.sleep(c.cfg.PollInterval)

		snap, done, err := c.session.Poll()
		if err != nil {
			return Result{}, fmt.Errorf("poll engine: %w", err)
		}
		now := c.now()
		if len(snap.PV) > 0 {
			initial := !st.sawMove
			// Refinements of the same best move update the result but do
			// not reset the stability clock.
			cur = c.resultFrom(snap, now.Sub(start))
			if st.observe(snap.BestMove, now) && progress != nil {
				progress(ProgressEvent{
					Elapsed:  now.Sub(start),
					Depth:    cur.Depth,
					Eval:     cur.Eval,
					BestMove: cur.BestMove,
					PV:       cur.PV,
					Initial:  initial,
				})
			}
		}
		if done {
			// The engine ended the search on its own (terminal position or
			// proven line). Not a stability stop.
			cur.Elapsed = now.Sub(start)
			return cur, nil
		}
		if st.stableFor(now) >= c.cfg.StabilityThreshold {
			if err := c.session.Stop(); err != nil {
				return Result{}, fmt.Errorf("stop engine: %w", err)
			}
			// The stop acknowledgment may carry a final line the last poll
			// missed.
			if snap, _, err := c.session.Poll(); err == nil && len(snap.PV) > 0 {
				cur = c.resultFrom(snap, 0)
			}
			cur.Stable = true
			cur.Elapsed = c.now().Sub(start)
			return cur, nil
		}
	}
}

// resultFrom converts an engine snapshot into a Result, saturating mate
// scores and truncating the principal variation.
func (c *Controller) resultFrom(snap uciengine.Snapshot, elapsed time.Duration) Result {
	res := Result{
		BestMove: snap.BestMove,
		Depth:    snap.Depth,
		Elapsed:  elapsed,
	}
	if snap.Mate {
		if snap.Score > 0 {
			res.Eval = mateEval
		} else {
			res.Eval = -mateEval
		}
	} else {
		res.Eval = float64(snap.Score) / 100.0
	}
	pv := snap.PV
	if c.cfg.PVLen > 0 && len(pv) > c.cfg.PVLen {
		pv = pv[:c.cfg.PVLen]
	}
	res.PV = append([]string(nil), pv...)
	return res
}

// TerminalResult builds the sentinel result for a position with no legal
// moves. The engine is never consulted for these.
func TerminalResult(status chess.Method) Result {
	res := Result{PV: []string{}}
	if status == chess.Checkmate {
		// Side to move is mated.
		res.Eval = -mateEval
	}
	return res
}
