package analysis

import "time"

// Mode selects how long the engine thinks about one position.
type Mode int

const (
	// ModeQuick is a fixed short probe used for early plies and positions
	// that are already decided.
	ModeQuick Mode = iota
	// ModeTime runs the engine for a fixed duration.
	ModeTime
	// ModeStability runs the engine until its best move has not changed for
	// a threshold duration. No hard time cap.
	ModeStability
)

func (m Mode) String() string {
	switch m {
	case ModeQuick:
		return "quick"
	case ModeTime:
		return "time"
	case ModeStability:
		return "stability"
	default:
		return "unknown"
	}
}

// Config holds the analysis tuning knobs. The zero value is not usable;
// start from DefaultConfig.
type Config struct {
	Mode               Mode          // Global mode for non-quick plies: ModeTime or ModeStability
	TimeLimit          time.Duration // Fixed search time per position in ModeTime
	QuickTime          time.Duration // Search time for quick probes
	QuickPly           int           // Plies from the start analyzed in quick mode
	StabilityThreshold time.Duration // Unchanged-best-move duration that stops a stability search
	TopN               int           // Worst moves to report
	GameOverEval       float64       // Eval magnitude (pawns) beyond which the game counts as decided
	PollInterval       time.Duration // Delay between engine polls
	PVLen              int           // Principal variation moves kept in results
	DeepDuration       time.Duration // Default search time for single-move deep analysis
	ProbeTime          time.Duration // Search time for the played-move probe in deep analysis
}

// DefaultConfig returns the standard tuning.
func DefaultConfig() Config {
	return Config{
		Mode:               ModeStability,
		TimeLimit:          11 * time.Second,
		QuickTime:          100 * time.Millisecond,
		QuickPly:           50,
		StabilityThreshold: 10 * time.Second,
		TopN:               20,
		GameOverEval:       10.0,
		PollInterval:       50 * time.Millisecond,
		PVLen:              7,
		DeepDuration:       240 * time.Second,
		ProbeTime:          10 * time.Second,
	}
}

// ModeForPly picks the analysis mode for one ply: quick for the opening
// plies and for positions already decisively won or lost (judged by the
// previous ply's evaluation), otherwise the configured global mode.
func (c Config) ModeForPly(plyIndex int, prevEval float64) Mode {
	if plyIndex < c.QuickPly {
		return ModeQuick
	}
	if prevEval > c.GameOverEval || prevEval < -c.GameOverEval {
		return ModeQuick
	}
	return c.Mode
}
