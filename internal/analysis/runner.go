package analysis

import (
	"fmt"
	"time"

	"github.com/notnil/chess"
	"github.com/rs/zerolog"

	"github.com/blunderscan/blunderscan/internal/game"
)

// PositionProgress receives streaming best-line changes together with the
// position under analysis, so the caller can render moves in algebraic
// notation.
type PositionProgress func(pos *chess.Position, ev ProgressEvent)

// Runner walks a game ply by ply, picks the analysis mode for each position,
// and drives the controller. One engine session serves the whole run.
type Runner struct {
	cfg  Config
	ctrl *Controller
	log  zerolog.Logger

	// OnProgress, when set, is called for best-move changes in non-quick
	// searches.
	OnProgress PositionProgress

	// OnAnalyzed, when set, is called with the final result of every
	// non-quick search, e.g. to print a convergence marker.
	OnAnalyzed func(pos *chess.Position, res Result)
}

// NewRunner builds a runner over one engine session.
func NewRunner(cfg Config, session Session, logger zerolog.Logger) *Runner {
	return &Runner{
		cfg:  cfg,
		ctrl: NewController(cfg, session),
		log:  logger,
	}
}

// Config returns the analysis configuration the runner was built with.
func (r *Runner) Config() Config {
	return r.cfg
}

// AnalyzeGame evaluates every ply of the game and returns the per-ply scores
// in game order. If the engine fails mid-run, the plies analyzed so far are
// returned alongside the error; the remaining plies are marked unanalyzed
// rather than given fabricated evaluations.
func (r *Runner) AnalyzeGame(g *game.Game) ([]PlyScore, error) {
	total := len(g.Plies)
	r.log.Info().
		Str("mode", r.cfg.Mode.String()).
		Int("plies", total).
		Msg("starting game analysis")

	// The first ply's before-evaluation comes from a quick probe of the
	// starting position.
	cur, err := r.evaluate(g.StartingPosition(), ModeQuick)
	if err != nil {
		return nil, fmt.Errorf("analyze starting position: %w", err)
	}

	scores := make([]PlyScore, 0, total)
	for _, ply := range g.Plies {
		r.log.Info().
			Int("move", ply.MoveNumber).
			Str("side", game.SideName(ply.Side)).
			Str("san", ply.SAN).
			Int("ply", ply.Index+1).
			Int("total", total).
			Msg("analyzing")

		before := cur
		mode := r.cfg.ModeForPly(ply.Index, before.Eval)

		var after Result
		if status := ply.After.Status(); status == chess.Checkmate || status == chess.Stalemate {
			after = TerminalResult(status)
		} else {
			after, err = r.evaluate(ply.After, mode)
			if err != nil {
				// Engine gone: mark this and all remaining plies as gaps.
				for _, rest := range g.Plies[ply.Index:] {
					scores = append(scores, PlyScore{Ply: rest})
				}
				return scores, fmt.Errorf("analyze ply %d (%s %s): %w",
					ply.Index+1, game.SideName(ply.Side), ply.SAN, err)
			}
		}

		scores = append(scores, PlyScore{
			Ply:          ply,
			Before:       before,
			After:        after,
			EvalChange:   EvalChange(before.Eval, after.Eval),
			AnalysisTime: before.Elapsed + after.Elapsed,
			Analyzed:     true,
		})
		cur = after
	}
	return scores, nil
}

// evaluate runs the controller on one position, routing progress events for
// non-quick searches.
func (r *Runner) evaluate(pos *chess.Position, mode Mode) (Result, error) {
	var progress ProgressFunc
	if r.OnProgress != nil && mode != ModeQuick {
		progress = func(ev ProgressEvent) { r.OnProgress(pos, ev) }
	}
	res, err := r.ctrl.Evaluate(pos.String(), mode, progress)
	if err == nil && r.OnAnalyzed != nil && mode != ModeQuick {
		r.OnAnalyzed(pos, res)
	}
	return res, err
}

// DeepAnalysis is the outcome of single-move deep analysis: the engine's
// verdict on the position plus a probe of the move actually played.
type DeepAnalysis struct {
	Ply    game.Ply
	Result Result

	// PlayedEval is the evaluation after the played move, negated to the
	// mover's perspective so it compares directly with Result.Eval.
	PlayedEval  float64
	PlayedKnown bool
}

// AnalyzeMove deeply analyzes the position before one selected move, in
// fixed-time mode with the caller-supplied duration regardless of the global
// mode. Returns game.ErrPlyNotFound (wrapped) when the move does not exist.
func (r *Runner) AnalyzeMove(g *game.Game, moveNumber int, side chess.Color, duration time.Duration) (*DeepAnalysis, error) {
	ply, err := g.FindPly(moveNumber, side)
	if err != nil {
		return nil, err
	}
	if duration <= 0 {
		duration = r.cfg.DeepDuration
	}

	da := &DeepAnalysis{Ply: ply}

	// Probe the played move first so the final report can show the PV's
	// advantage over it. A probe failure is logged, not fatal.
	if status := ply.After.Status(); status == chess.Checkmate || status == chess.Stalemate {
		da.PlayedEval = -TerminalResult(status).Eval
		da.PlayedKnown = true
	} else {
		probe, err := r.ctrl.EvaluateFixed(ply.After.String(), r.cfg.ProbeTime, nil)
		if err != nil {
			// The deep verdict is still useful without the comparison.
			r.log.Warn().Err(err).Str("san", ply.SAN).Msg("played-move probe failed")
		} else {
			da.PlayedEval = -probe.Eval
			da.PlayedKnown = true
		}
	}

	var progress ProgressFunc
	if r.OnProgress != nil {
		progress = func(ev ProgressEvent) { r.OnProgress(ply.Before, ev) }
	}
	res, err := r.ctrl.EvaluateFixed(ply.Before.String(), duration, progress)
	if err != nil {
		return nil, fmt.Errorf("deep analysis of move %d (%s): %w",
			moveNumber, game.SideName(side), err)
	}
	da.Result = res
	return da, nil
}
