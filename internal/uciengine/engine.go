// Package uciengine manages a single external UCI engine process and exposes
// a streaming view of its search: start a search, poll the latest reported
// best line, stop, and tear the process down.
package uciengine

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config configures the engine process.
type Config struct {
	Path    string         // Path to the engine executable
	HashMB  int            // Hash table size in MB
	Threads int            // Search threads
	MultiPV int            // Number of principal variations
	Logger  zerolog.Logger // Logger

	// HandshakeTimeout bounds how long New waits for the UCI handshake.
	HandshakeTimeout time.Duration
}

// Limit bounds one search. Exactly one of MoveTime or Infinite applies.
type Limit struct {
	MoveTime time.Duration // Fixed search time; engine stops itself
	Infinite bool          // Search until told to stop
}

// Snapshot is the engine's most recent view of the search in progress.
// Score is in centipawns from the side to move, or a mate distance when
// Mate is set. PV moves are in UCI notation.
type Snapshot struct {
	BestMove string
	Score    int
	Mate     bool
	Depth    int
	PV       []string
}

// Engine is a handle to one running UCI engine process. It is not safe for
// concurrent searches; one search runs at a time.
type Engine struct {
	cfg   Config
	cmd   *exec.Cmd
	stdin *bufio.Writer
	log   zerolog.Logger

	mu       sync.Mutex
	snap     Snapshot
	hasInfo  bool
	bestMove string
	done     chan struct{} // closed when bestmove arrives for the current search
	readErr  error
	closed   bool
}

// handshakeTimeout is the default for Config.HandshakeTimeout.
const handshakeTimeout = 10 * time.Second

// New starts the engine process, performs the UCI handshake, and applies
// the configured options.
func New(cfg Config) (*Engine, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("engine path required")
	}
	if cfg.HashMB == 0 {
		cfg.HashMB = 512
	}
	if cfg.Threads == 0 {
		cfg.Threads = 4
	}
	if cfg.MultiPV == 0 {
		cfg.MultiPV = 1
	}
	if cfg.HandshakeTimeout == 0 {
		cfg.HandshakeTimeout = handshakeTimeout
	}

	cmd := exec.Command(cfg.Path)
	stdinPipe, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start engine %s: %w", cfg.Path, err)
	}

	e := &Engine{
		cfg:   cfg,
		cmd:   cmd,
		stdin: bufio.NewWriter(stdinPipe),
		log:   cfg.Logger,
	}

	scanner := bufio.NewScanner(stdoutPipe)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	// The handshake runs in a goroutine so the deadline holds even when the
	// process emits no output at all and scanner.Scan blocks.
	hsErr := make(chan error, 1)
	go func() { hsErr <- e.handshake(scanner) }()
	select {
	case err := <-hsErr:
		if err != nil {
			_ = cmd.Process.Kill()
			_ = cmd.Wait()
			return nil, err
		}
	case <-time.After(cfg.HandshakeTimeout):
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, fmt.Errorf("engine %s: no UCI handshake within %v", cfg.Path, cfg.HandshakeTimeout)
	}

	// Hand the scanner off to the reader goroutine for the rest of the
	// engine's lifetime.
	go e.readLoop(scanner)

	e.log.Info().
		Str("path", cfg.Path).
		Int("hash_mb", cfg.HashMB).
		Int("threads", cfg.Threads).
		Msg("engine started")

	return e, nil
}

// handshake drives uci/uciok, option setup, and isready/readyok synchronously
// before any search starts.
func (e *Engine) handshake(scanner *bufio.Scanner) error {
	if err := e.send("uci"); err != nil {
		return err
	}
	if err := waitFor(scanner, "uciok"); err != nil {
		return fmt.Errorf("uci handshake: %w", err)
	}

	if err := e.send(fmt.Sprintf("setoption name Hash value %d", e.cfg.HashMB)); err != nil {
		return err
	}
	if err := e.send(fmt.Sprintf("setoption name Threads value %d", e.cfg.Threads)); err != nil {
		return err
	}
	if err := e.send(fmt.Sprintf("setoption name MultiPV value %d", e.cfg.MultiPV)); err != nil {
		return err
	}

	if err := e.send("isready"); err != nil {
		return err
	}
	if err := waitFor(scanner, "readyok"); err != nil {
		return fmt.Errorf("uci handshake: %w", err)
	}
	return nil
}

// waitFor scans lines until one matches the expected token. The handshake
// deadline is enforced by the caller.
func waitFor(scanner *bufio.Scanner, expected string) error {
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == expected {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("waiting for %q: %w", expected, err)
	}
	return fmt.Errorf("engine closed stdout waiting for %q", expected)
}

func (e *Engine) send(cmd string) error {
	if _, err := e.stdin.WriteString(cmd + "\n"); err != nil {
		return fmt.Errorf("write %q: %w", cmd, err)
	}
	if err := e.stdin.Flush(); err != nil {
		return fmt.Errorf("flush %q: %w", cmd, err)
	}
	return nil
}

// readLoop consumes engine output for the lifetime of the process, keeping
// the latest info snapshot and signalling search completion on bestmove.
func (e *Engine) readLoop(scanner *bufio.Scanner) {
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "info "):
			info, ok := parseInfo(line)
			if !ok {
				continue
			}
			e.mu.Lock()
			e.snap = info
			e.hasInfo = true
			e.mu.Unlock()
		case strings.HasPrefix(line, "bestmove"):
			fields := strings.Fields(line)
			e.mu.Lock()
			if len(fields) > 1 && fields[1] != "(none)" {
				e.bestMove = fields[1]
				e.snap.BestMove = fields[1]
			}
			if e.done != nil {
				close(e.done)
				e.done = nil
			}
			e.mu.Unlock()
		}
	}

	err := scanner.Err()
	if err == nil {
		err = io.EOF
	}
	e.mu.Lock()
	if !e.closed {
		e.readErr = fmt.Errorf("engine process output ended: %w", err)
	}
	if e.done != nil {
		close(e.done)
		e.done = nil
	}
	e.mu.Unlock()
}

// StartSearch positions the engine on fen and begins searching under limit.
func (e *Engine) StartSearch(fen string, limit Limit) error {
	e.mu.Lock()
	if e.readErr != nil {
		err := e.readErr
		e.mu.Unlock()
		return err
	}
	e.snap = Snapshot{}
	e.hasInfo = false
	e.bestMove = ""
	e.done = make(chan struct{})
	e.mu.Unlock()

	if err := e.send("position fen " + fen); err != nil {
		return err
	}
	var goCmd string
	if limit.Infinite {
		goCmd = "go infinite"
	} else {
		goCmd = fmt.Sprintf("go movetime %d", limit.MoveTime.Milliseconds())
	}
	return e.send(goCmd)
}

// Poll returns the latest snapshot, whether the search has finished (the
// engine printed bestmove), and any fatal reader error. It never blocks on
// the engine.
func (e *Engine) Poll() (Snapshot, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.readErr != nil {
		return Snapshot{}, true, e.readErr
	}
	snap := e.snap
	snap.PV = append([]string(nil), e.snap.PV...)
	if !e.hasInfo {
		snap = Snapshot{BestMove: e.bestMove}
	}
	done := e.done == nil
	return snap, done, nil
}

// Stop halts the current search and waits for the engine to acknowledge with
// a bestmove line.
func (e *Engine) Stop() error {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()
	if done == nil {
		return nil // No search in flight
	}

	if err := e.send("stop"); err != nil {
		return err
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		return fmt.Errorf("engine did not acknowledge stop")
	}
	e.mu.Lock()
	err := e.readErr
	e.mu.Unlock()
	return err
}

// Close terminates the engine process. Safe to call more than once.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	_ = e.send("quit")

	waited := make(chan error, 1)
	go func() { waited <- e.cmd.Wait() }()
	select {
	case err := <-waited:
		e.log.Info().Msg("engine stopped")
		return err
	case <-time.After(5 * time.Second):
		_ = e.cmd.Process.Kill()
		<-waited
		e.log.Warn().Msg("engine killed after quit timeout")
		return nil
	}
}
