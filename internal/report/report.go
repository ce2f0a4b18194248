// Package report renders analysis output as human-readable text: streaming
// best-line changes while the engine thinks, the ranked worst-moves report,
// the per-ply debug table, and the single-move deep-analysis views.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/notnil/chess"

	"github.com/blunderscan/blunderscan/internal/analysis"
	"github.com/blunderscan/blunderscan/internal/game"
)

// Printer writes report text to one destination, normally stdout.
type Printer struct {
	w   io.Writer
	cfg analysis.Config
}

// New returns a printer for the given config.
func New(w io.Writer, cfg analysis.Config) *Printer {
	return &Printer{w: w, cfg: cfg}
}

// ModeDescription summarizes the active analysis policy for headers.
func (p *Printer) ModeDescription() string {
	if p.cfg.Mode == analysis.ModeStability {
		return fmt.Sprintf("stability mode (stable for %.1fs)", p.cfg.StabilityThreshold.Seconds())
	}
	return fmt.Sprintf("time mode (first %d ply: %.1fs, rest: %.1fs per move)",
		p.cfg.QuickPly, p.cfg.QuickTime.Seconds(), p.cfg.TimeLimit.Seconds())
}

// GameHeader announces a full-game run.
func (p *Printer) GameHeader(g *game.Game) {
	fmt.Fprintf(p.w, "\n=== Game Analysis (%s) ===\n", p.ModeDescription())
	fmt.Fprintf(p.w, "White: %s\n", g.Tag("White"))
	fmt.Fprintf(p.w, "Black: %s\n", g.Tag("Black"))
	fmt.Fprintf(p.w, "Analyzing %d moves...\n\n", len(g.Plies))
}

// Progress prints one best-line change while a search runs. pos is the
// position under analysis, used to render the line in algebraic notation.
func (p *Printer) Progress(pos *chess.Position, ev analysis.ProgressEvent) {
	pvSAN := game.SANLine(pos, ev.PV)
	if ev.Initial {
		fmt.Fprintf(p.w, "    [%6.1fs] Best variation (depth %d): Eval %+.2f\n",
			ev.Elapsed.Seconds(), ev.Depth, ev.Eval)
	} else {
		fmt.Fprintf(p.w, "    [%6.1fs] Best move CHANGED to %s (depth %d): Eval %+.2f\n",
			ev.Elapsed.Seconds(), game.SANMove(pos, ev.BestMove), ev.Depth, ev.Eval)
	}
	fmt.Fprintf(p.w, "    PV: %s\n", pvSAN)
}

// Analyzed prints the stability marker when a search converged.
func (p *Printer) Analyzed(pos *chess.Position, res analysis.Result) {
	if !res.Stable {
		return
	}
	fmt.Fprintf(p.w, "    [%6.1fs] Stable for %.1fs - moving to next move\n",
		res.Elapsed.Seconds(), p.cfg.StabilityThreshold.Seconds())
}

// WorstMoves prints the ranked report of the largest evaluation drops.
func (p *Printer) WorstMoves(g *game.Game, worst []analysis.PlyScore) {
	fmt.Fprintln(p.w, "Chess Game Analysis: Worst Moves")
	fmt.Fprintln(p.w, strings.Repeat("=", 60))
	fmt.Fprintln(p.w)

	fmt.Fprintln(p.w, "Game Summary:")
	fmt.Fprintf(p.w, "White: %s\n", g.Tag("White"))
	fmt.Fprintf(p.w, "Black: %s\n", g.Tag("Black"))
	fmt.Fprintf(p.w, "Result: %s\n", g.Tag("Result"))
	fmt.Fprintln(p.w)

	fmt.Fprintln(p.w, "TOP MOVES WITH LARGEST EVALUATION DROPS:")
	fmt.Fprintln(p.w, strings.Repeat("-", 50))

	for i, s := range worst {
		fmt.Fprintf(p.w, "%d. Move %2d. %-5s played %s\n",
			i+1, s.Ply.MoveNumber, game.SideName(s.Ply.Side), s.Ply.SAN)
		fmt.Fprintf(p.w, "   Evaluation change: %+.2f pawns (Analysis time: %.1fs)\n",
			s.EvalChange, s.AnalysisTime.Seconds())

		if s.Before.BestMove != "" {
			fmt.Fprintf(p.w, "   Engine preferred: %s\n", game.SANMove(s.Ply.Before, s.Before.BestMove))
			if len(s.Before.PV) > 0 {
				fmt.Fprintf(p.w, "   Better continuation: %s\n", game.SANLine(s.Ply.Before, s.Before.PV))
			}
		}

		switch {
		case s.EvalChange < -90 || s.EvalChange > 90:
			fmt.Fprintln(p.w, "   NOTE: When the game is already won/lost, large score changes are expected")
		case s.EvalChange < -3.0:
			fmt.Fprintln(p.w, "   SERIOUS MISTAKE: Large evaluation drop indicates major error")
		case s.EvalChange < -1.0:
			fmt.Fprintln(p.w, "   MISTAKE: Position significantly worsened")
		}
		fmt.Fprintln(p.w)
	}

	fmt.Fprintln(p.w, "GAME ASSESSMENT:")
	fmt.Fprintln(p.w, strings.Repeat("-", 20))
	if len(worst) > 0 {
		top := worst[0]
		fmt.Fprintf(p.w, "Largest swing: Move %d. %s played %s\n",
			top.Ply.MoveNumber, game.SideName(top.Ply.Side), top.Ply.SAN)
		fmt.Fprintf(p.w, "   Evaluation dropped by %+.2f pawns\n", top.EvalChange)
	} else {
		fmt.Fprintln(p.w, "No decisive mistakes detected within the configured thresholds.")
	}
	fmt.Fprintln(p.w, "Note: Large evaluation changes in already won/lost positions carry less insight.")
	fmt.Fprintln(p.w, "   Focus on the earliest large drops to understand where the game turned.")
	fmt.Fprintln(p.w)

	var total time.Duration
	for _, s := range worst {
		total += s.AnalysisTime
	}
	fmt.Fprintf(p.w, "Total time spent on top critical moves analysis: %.1fs\n\n", total.Seconds())
}

// DebugTable prints per-ply evaluations for diagnosing the report.
func (p *Printer) DebugTable(scores []analysis.PlyScore) {
	fmt.Fprintln(p.w, "DEBUG: Per-move evaluation details")
	fmt.Fprintln(p.w, strings.Repeat("-", 60))
	fmt.Fprintf(p.w, "%4s %3s %5s %8s %12s %12s %8s\n",
		"Move", "Ply", "Side", "Move", "EvalBefore", "EvalAfter", "Change")
	for _, s := range scores {
		if !s.Analyzed {
			fmt.Fprintf(p.w, "%4d %3d %5s %8s %12s %12s %8s\n",
				s.Ply.MoveNumber, s.Ply.Index, game.SideName(s.Ply.Side), s.Ply.SAN,
				"-", "-", "-")
			continue
		}
		fmt.Fprintf(p.w, "%4d %3d %5s %8s %12s %12s %8s\n",
			s.Ply.MoveNumber, s.Ply.Index, game.SideName(s.Ply.Side), s.Ply.SAN,
			fmt.Sprintf("%+.2f", s.Before.Eval),
			fmt.Sprintf("%+.2f", s.After.Eval),
			fmt.Sprintf("%+.2f", s.EvalChange))
	}
	fmt.Fprintln(p.w, strings.Repeat("-", 60))
}

// DeepHeader announces a single-move deep analysis run.
func (p *Printer) DeepHeader(ply game.Ply, duration time.Duration) {
	fmt.Fprintf(p.w, "\n=== Deep Analysis (time mode (%.1fs)) ===\n", duration.Seconds())
	fmt.Fprintf(p.w, "Position FEN: %s\n", ply.Before.String())
	fmt.Fprintf(p.w, "Side to move: %s\n", game.SideName(ply.Side))
	fmt.Fprintf(p.w, "Move played in game: %s\n", ply.SAN)
	fmt.Fprintln(p.w, strings.Repeat("-", 60))
}

// DeepResult prints the final verdict of a single-move deep analysis.
func (p *Printer) DeepResult(da *analysis.DeepAnalysis) {
	fmt.Fprintln(p.w, strings.Repeat("-", 60))
	fmt.Fprintf(p.w, "Analysis complete after %.1fs\n", da.Result.Elapsed.Seconds())

	if len(da.Result.PV) > 0 {
		fmt.Fprintf(p.w, "Final best variation: %s (Eval: %+.2f)\n",
			game.SANLine(da.Ply.Before, da.Result.PV), da.Result.Eval)
	}
	if da.PlayedKnown {
		diff := da.Result.Eval - da.PlayedEval
		if diff == 0 {
			fmt.Fprintln(p.w, "PV advantage over move played: 0.00 pawns (equal)")
		} else {
			fmt.Fprintf(p.w, "PV advantage over move played: %+.2f pawns\n", diff)
		}
	}
}
