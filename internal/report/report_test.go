package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/blunderscan/blunderscan/internal/analysis"
	"github.com/blunderscan/blunderscan/internal/game"
)

const testPGN = `[Event "Test Match"]
[White "Alice"]
[Black "Bob"]
[Result "1-0"]

1. e4 e5 2. Nf3 Nc6 1-0
`

func testGame(t *testing.T) *game.Game {
	t.Helper()
	g, err := game.LoadReader(strings.NewReader(testPGN))
	if err != nil {
		t.Fatalf("load game: %v", err)
	}
	return g
}

func contains(t *testing.T, out, want string) {
	t.Helper()
	if !strings.Contains(out, want) {
		t.Errorf("output missing %q\n---\n%s", want, out)
	}
}

func TestWorstMoves_RanksAndAnnotates(t *testing.T) {
	g := testGame(t)
	var buf bytes.Buffer
	p := New(&buf, analysis.DefaultConfig())

	p.WorstMoves(g, []analysis.PlyScore{
		{
			Ply:          g.Plies[2], // 2. Nf3
			Before:       analysis.Result{Eval: 0.4, BestMove: "d2d4", PV: []string{"d2d4", "e5d4"}},
			After:        analysis.Result{Eval: 2.9},
			EvalChange:   -3.3,
			AnalysisTime: 21 * time.Second,
			Analyzed:     true,
		},
		{
			Ply:          g.Plies[1], // 1... e5
			Before:       analysis.Result{Eval: -0.2, BestMove: "c7c5"},
			After:        analysis.Result{Eval: 1.3},
			EvalChange:   -1.1,
			AnalysisTime: 12 * time.Second,
			Analyzed:     true,
		},
	})
	out := buf.String()

	contains(t, out, "White: Alice")
	contains(t, out, "Black: Bob")
	contains(t, out, "Result: 1-0")
	contains(t, out, "1. Move  2. White played Nf3")
	contains(t, out, "Evaluation change: -3.30 pawns (Analysis time: 21.0s)")
	contains(t, out, "Engine preferred: d4")
	contains(t, out, "Better continuation: d4 exd4")
	contains(t, out, "SERIOUS MISTAKE")
	contains(t, out, "2. Move  1. Black played e5")
	contains(t, out, "MISTAKE: Position significantly worsened")
	contains(t, out, "Largest swing: Move 2. White played Nf3")
	contains(t, out, "Total time spent on top critical moves analysis: 33.0s")
}

func TestWorstMoves_DecidedGameNote(t *testing.T) {
	g := testGame(t)
	var buf bytes.Buffer
	p := New(&buf, analysis.DefaultConfig())

	p.WorstMoves(g, []analysis.PlyScore{
		{
			Ply:        g.Plies[3],
			Before:     analysis.Result{Eval: 0.1, BestMove: "g8f6"},
			EvalChange: -99.1,
			Analyzed:   true,
		},
	})
	contains(t, buf.String(), "large score changes are expected")
}

func TestWorstMoves_EmptyList(t *testing.T) {
	g := testGame(t)
	var buf bytes.Buffer
	New(&buf, analysis.DefaultConfig()).WorstMoves(g, nil)
	contains(t, buf.String(), "No decisive mistakes detected")
}

func TestProgress_InitialAndChange(t *testing.T) {
	g := testGame(t)
	pos := g.StartingPosition()
	var buf bytes.Buffer
	p := New(&buf, analysis.DefaultConfig())

	p.Progress(pos, analysis.ProgressEvent{
		Elapsed: 300 * time.Millisecond,
		Depth:   12,
		Eval:    0.3,
		PV:      []string{"e2e4", "e7e5"},
		Initial: true,
	})
	p.Progress(pos, analysis.ProgressEvent{
		Elapsed:  12340 * time.Millisecond,
		Depth:    20,
		Eval:     0.45,
		BestMove: "d2d4",
		PV:       []string{"d2d4", "d7d5"},
	})
	out := buf.String()

	contains(t, out, "[   0.3s] Best variation (depth 12): Eval +0.30")
	contains(t, out, "[  12.3s] Best move CHANGED to d4 (depth 20): Eval +0.45")
	contains(t, out, "PV: e4 e5")
	contains(t, out, "PV: d4 d5")
}

func TestAnalyzed_StableMarkerOnly(t *testing.T) {
	g := testGame(t)
	var buf bytes.Buffer
	p := New(&buf, analysis.DefaultConfig())

	p.Analyzed(g.StartingPosition(), analysis.Result{Elapsed: 14 * time.Second, Stable: true})
	contains(t, buf.String(), "Stable for 10.0s")

	buf.Reset()
	p.Analyzed(g.StartingPosition(), analysis.Result{Elapsed: 14 * time.Second})
	if buf.Len() != 0 {
		t.Errorf("unstable result printed %q, want nothing", buf.String())
	}
}

func TestDebugTable_MarksGaps(t *testing.T) {
	g := testGame(t)
	var buf bytes.Buffer
	p := New(&buf, analysis.DefaultConfig())

	p.DebugTable([]analysis.PlyScore{
		{
			Ply:        g.Plies[0],
			Before:     analysis.Result{Eval: 0.2},
			After:      analysis.Result{Eval: -0.2},
			EvalChange: 0.0,
			Analyzed:   true,
		},
		{Ply: g.Plies[1]}, // engine gap
	})
	out := buf.String()

	contains(t, out, "+0.20")
	contains(t, out, "e5")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	gapLine := lines[len(lines)-2]
	if !strings.Contains(gapLine, "-") || strings.Contains(gapLine, "+") {
		t.Errorf("gap line = %q, want dashes and no evals", gapLine)
	}
}

func TestDeepHeaderAndResult(t *testing.T) {
	g := testGame(t)
	ply, err := g.FindPly(2, g.Plies[2].Side)
	if err != nil {
		t.Fatalf("FindPly: %v", err)
	}

	var buf bytes.Buffer
	p := New(&buf, analysis.DefaultConfig())

	p.DeepHeader(ply, 240*time.Second)
	p.DeepResult(&analysis.DeepAnalysis{
		Ply: ply,
		Result: analysis.Result{
			Eval:    0.45,
			PV:      []string{"d2d4", "e5d4"},
			Elapsed: 240100 * time.Millisecond,
		},
		PlayedEval:  0.30,
		PlayedKnown: true,
	})
	out := buf.String()

	contains(t, out, "Deep Analysis (time mode (240.0s))")
	contains(t, out, "Position FEN: "+ply.Before.String())
	contains(t, out, "Side to move: White")
	contains(t, out, "Move played in game: Nf3")
	contains(t, out, "Analysis complete after 240.1s")
	contains(t, out, "Final best variation: d4 exd4 (Eval: +0.45)")
	contains(t, out, "PV advantage over move played: +0.15 pawns")
}

func TestModeDescription(t *testing.T) {
	cfg := analysis.DefaultConfig()
	cfg.Mode = analysis.ModeStability
	contains(t, New(nil, cfg).ModeDescription(), "stability mode")

	cfg.Mode = analysis.ModeTime
	contains(t, New(nil, cfg).ModeDescription(), "time mode")
}
