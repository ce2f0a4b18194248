package uciengine

import (
	"strconv"
	"strings"
)

// parseInfo extracts the fields we track from a UCI info line. Lines without
// a principal variation, secondary MultiPV lines, and bound scores (the
// engine hedging mid-iteration) are skipped.
func parseInfo(line string) (Snapshot, bool) {
	fields := strings.Fields(line)

	var snap Snapshot
	havePV := false
	haveScore := false

	for i := 0; i < len(fields); i++ {
		switch fields[i] {
		case "depth":
			if i+1 < len(fields) {
				snap.Depth, _ = strconv.Atoi(fields[i+1])
				i++
			}
		case "multipv":
			if i+1 < len(fields) {
				if n, err := strconv.Atoi(fields[i+1]); err == nil && n > 1 {
					return Snapshot{}, false
				}
				i++
			}
		case "score":
			if i+2 >= len(fields) {
				return Snapshot{}, false
			}
			n, err := strconv.Atoi(fields[i+2])
			if err != nil {
				return Snapshot{}, false
			}
			switch fields[i+1] {
			case "cp":
				snap.Score = n
			case "mate":
				snap.Score = n
				snap.Mate = true
			default:
				return Snapshot{}, false
			}
			haveScore = true
			i += 2
		case "lowerbound", "upperbound":
			return Snapshot{}, false
		case "pv":
			if i+1 < len(fields) {
				snap.PV = append([]string(nil), fields[i+1:]...)
				snap.BestMove = snap.PV[0]
				havePV = true
			}
			i = len(fields)
		}
	}

	if !havePV || !haveScore {
		return Snapshot{}, false
	}
	return snap, true
}
