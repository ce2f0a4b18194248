package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/notnil/chess"
	"github.com/rs/zerolog"

	"github.com/blunderscan/blunderscan/internal/analysis"
	"github.com/blunderscan/blunderscan/internal/game"
	"github.com/blunderscan/blunderscan/internal/logx"
	"github.com/blunderscan/blunderscan/internal/report"
	"github.com/blunderscan/blunderscan/internal/uciengine"
)

func main() {
	defaultStockfish := "stockfish"
	if envPath := os.Getenv("STOCKFISH_PATH"); envPath != "" {
		defaultStockfish = envPath
	}

	var (
		// Engine
		stockfishPath = flag.String("stockfish", defaultStockfish, "path to Stockfish executable")
		engineThreads = flag.Int("engine-threads", 4, "Stockfish threads")
		engineHash    = flag.Int("engine-hash", 512, "Stockfish hash MB")

		// Output
		debug = flag.Bool("debug", false, "print the per-move evaluation table")

		// Deep analysis of one move
		analyzeMove = flag.Int("analyze-move", 0, "deeply analyze one move number instead of the full game (0 = disabled)")
		color       = flag.String("color", "white", "side whose move to analyze (white|black)")
		duration    = flag.Int("duration", 240, "deep analysis time in seconds")
	)
	flag.Parse()

	if envPath := os.Getenv("STOCKFISH_PATH"); envPath != "" {
		*stockfishPath = envPath
	}

	logger := logx.NewLogger()

	// flag stops parsing at the first positional, so a flag placed after the
	// PGN path would otherwise be silently ignored.
	if flag.NArg() > 1 {
		logger.Fatal().Strs("args", flag.Args()[1:]).Msg("flags must come before the PGN path")
	}

	side := chess.White
	switch strings.ToLower(*color) {
	case "white":
	case "black":
		side = chess.Black
	default:
		logger.Fatal().Str("color", *color).Msg("color must be white or black")
	}

	// Load the game first: a malformed record means there is nothing to
	// analyze, so fail before paying for engine startup.
	var g *game.Game
	var err error
	if path := flag.Arg(0); path != "" {
		g, err = game.Load(path)
		if err != nil {
			logger.Fatal().Err(err).Str("path", path).Msg("load game")
		}
		logger.Info().Str("path", path).Int("plies", len(g.Plies)).Msg("loaded game")
	} else {
		g, err = game.LoadSample()
		if err != nil {
			logger.Fatal().Err(err).Msg("load sample game")
		}
		logger.Info().Int("plies", len(g.Plies)).Msg("no PGN path given, using bundled sample game")
	}

	engine, err := uciengine.New(uciengine.Config{
		Path:    *stockfishPath,
		HashMB:  *engineHash,
		Threads: *engineThreads,
		Logger:  logger.With().Str("component", "engine").Logger(),
	})
	if err != nil {
		logger.Fatal().Err(err).Str("path", *stockfishPath).Msg("start engine")
	}
	defer engine.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Closed on normal completion, before the deferred stop cancels the
	// context, so the watcher below stands down instead of killing the run.
	finished := make(chan struct{})
	defer close(finished)

	go func() {
		select {
		case <-finished:
			return
		case <-ctx.Done():
		}
		select {
		case <-finished:
			return
		default:
		}
		logger.Warn().Msg("interrupted, stopping engine")
		engine.Close()
		os.Exit(1)
	}()

	cfg := analysis.DefaultConfig()
	printer := report.New(os.Stdout, cfg)

	runner := analysis.NewRunner(cfg, engine, logger.With().Str("component", "analysis").Logger())
	runner.OnProgress = printer.Progress
	runner.OnAnalyzed = printer.Analyzed

	if *analyzeMove > 0 {
		if err := runDeep(runner, printer, g, *analyzeMove, side, time.Duration(*duration)*time.Second); err != nil {
			engine.Close()
			logger.Fatal().Err(err).Msg("deep analysis")
		}
		return
	}
	runGame(logger, runner, printer, g, *debug)
}

// runGame analyzes the whole game and prints the worst-moves report. A
// mid-run engine failure still reports the plies analyzed so far, with the
// rest marked as gaps, and exits zero.
func runGame(logger zerolog.Logger, runner *analysis.Runner, printer *report.Printer, g *game.Game, debug bool) {
	printer.GameHeader(g)

	scores, err := runner.AnalyzeGame(g)
	if err != nil {
		logger.Warn().Err(err).Msg("analysis incomplete, reporting partial results")
	}

	tracker := analysis.NewTracker(runner.Config())
	for _, s := range scores {
		tracker.Record(s)
	}

	if debug {
		printer.DebugTable(tracker.All())
	}
	printer.WorstMoves(g, tracker.TopN())
}

// runDeep analyzes the single selected move. An unknown move number is an
// error; there is nothing else to do.
func runDeep(runner *analysis.Runner, printer *report.Printer, g *game.Game, moveNumber int, side chess.Color, duration time.Duration) error {
	ply, err := g.FindPly(moveNumber, side)
	if err != nil {
		return err
	}
	printer.DeepHeader(ply, duration)

	da, err := runner.AnalyzeMove(g, moveNumber, side, duration)
	if err != nil {
		return err
	}
	printer.DeepResult(da)
	return nil
}
