// Package game loads a recorded chess game and walks it ply by ply, exposing
// the position before and after every move for analysis.
package game

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/notnil/chess"
)

// ErrPlyNotFound is returned when a move number and side do not correspond
// to any ply in the loaded game.
var ErrPlyNotFound = errors.New("ply not found in game")

// Ply is one half-move of the game: the move actually played plus the
// positions immediately before and after it. Immutable once built.
type Ply struct {
	Index      int // 0-based ply index
	MoveNumber int // 1-based move number
	Side       chess.Color
	SAN        string // Move played, algebraic
	UCI        string // Move played, UCI
	Move       *chess.Move
	Before     *chess.Position
	After      *chess.Position
}

// Game is a fully parsed game record.
type Game struct {
	Plies []Ply
	src   *chess.Game
}

// Load reads one game from a PGN file. Files ending in .zst are
// decompressed transparently.
func Load(path string) (*Game, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if filepath.Ext(path) == ".zst" {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open zstd %s: %w", path, err)
		}
		defer dec.Close()
		r = dec
	}
	g, err := LoadReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return g, nil
}

// LoadReader reads the first game from PGN text.
func LoadReader(r io.Reader) (*Game, error) {
	scanner := chess.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read game: %w", err)
		}
		return nil, errors.New("no game found in input")
	}
	src := scanner.Next()
	if src == nil {
		return nil, errors.New("no game found in input")
	}
	return build(src)
}

// LoadSample parses the bundled sample game.
func LoadSample() (*Game, error) {
	return LoadReader(strings.NewReader(samplePGN))
}

func build(src *chess.Game) (*Game, error) {
	moves := src.Moves()
	positions := src.Positions()
	if len(moves) == 0 {
		return nil, errors.New("game has no moves")
	}
	if len(positions) != len(moves)+1 {
		return nil, fmt.Errorf("inconsistent game: %d moves, %d positions", len(moves), len(positions))
	}

	plies := make([]Ply, 0, len(moves))
	for i, mv := range moves {
		before := positions[i]
		plies = append(plies, Ply{
			Index:      i,
			MoveNumber: i/2 + 1,
			Side:       before.Turn(),
			SAN:        chess.AlgebraicNotation{}.Encode(before, mv),
			UCI:        chess.UCINotation{}.Encode(before, mv),
			Move:       mv,
			Before:     before,
			After:      positions[i+1],
		})
	}
	return &Game{Plies: plies, src: src}, nil
}

// Tag returns a PGN header value, or "Unknown" when absent.
func (g *Game) Tag(name string) string {
	if tp := g.src.GetTagPair(name); tp != nil && tp.Value != "" {
		return tp.Value
	}
	return "Unknown"
}

// StartingPosition returns the position before the first move.
func (g *Game) StartingPosition() *chess.Position {
	return g.Plies[0].Before
}

// FindPly locates the ply for a move number and side.
func (g *Game) FindPly(moveNumber int, side chess.Color) (Ply, error) {
	idx := (moveNumber - 1) * 2
	if side == chess.Black {
		idx++
	}
	if moveNumber < 1 || idx >= len(g.Plies) {
		return Ply{}, fmt.Errorf("move %d for %s: %w", moveNumber, SideName(side), ErrPlyNotFound)
	}
	return g.Plies[idx], nil
}

// SideName renders a color as "White" or "Black".
func SideName(c chess.Color) string {
	if c == chess.White {
		return "White"
	}
	return "Black"
}

// SANLine renders a UCI move sequence from pos in algebraic notation.
// Moves that fail to decode are kept as their UCI token so a truncated or
// illegal engine line still prints.
func SANLine(pos *chess.Position, ucis []string) string {
	parts := make([]string, 0, len(ucis))
	cur := pos
	for _, u := range ucis {
		mv, err := chess.UCINotation{}.Decode(cur, u)
		if err != nil {
			parts = append(parts, u)
			continue
		}
		parts = append(parts, chess.AlgebraicNotation{}.Encode(cur, mv))
		cur = cur.Update(mv)
	}
	return strings.Join(parts, " ")
}

// SANMove renders a single UCI move from pos in algebraic notation, falling
// back to the UCI token.
func SANMove(pos *chess.Position, uci string) string {
	mv, err := chess.UCINotation{}.Decode(pos, uci)
	if err != nil {
		return uci
	}
	return chess.AlgebraicNotation{}.Encode(pos, mv)
}
