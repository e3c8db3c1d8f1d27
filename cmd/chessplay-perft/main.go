package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/engine"
	"github.com/pkg/profile"
)

func main() {
	var depth int
	var fen string
	var divide bool
	var cpuProfile bool
	flag.IntVar(&depth, "depth", 5, "perft depth")
	flag.StringVar(&fen, "fen", "", "FEN to start from (defaults to the standard starting position)")
	flag.BoolVar(&divide, "divide", false, "print per-root-move node counts (perft divide)")
	flag.BoolVar(&cpuProfile, "profile", false, "capture a CPU profile of the run")
	flag.Parse()

	if cpuProfile {
		defer profile.Start(profile.CPUProfile).Stop()
	}

	var pos *board.Position
	if fen != "" {
		p, err := board.ParseFEN(fen)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid FEN: %v\n", err)
			os.Exit(1)
		}
		pos = p
	} else {
		pos = board.NewPosition()
	}

	eng := engine.NewEngine(1)

	if divide {
		runDivide(eng, pos, depth)
		return
	}

	start := time.Now()
	nodes := eng.Perft(pos, depth)
	elapsed := time.Since(start)

	fmt.Printf("depth %d: %d nodes in %v", depth, nodes, elapsed)
	if elapsed > 0 {
		fmt.Printf(" (%.0f nps)", float64(nodes)/elapsed.Seconds())
	}
	fmt.Println()
}

// runDivide reports the perft(depth-1) node count under each legal root
// move, the standard way to localize a move generator bug to a specific
// branch of the tree.
func runDivide(eng *engine.Engine, pos *board.Position, depth int) {
	if depth < 1 {
		fmt.Println("divide requires depth >= 1")
		return
	}

	moves := pos.GenerateLegalMoves()
	start := time.Now()
	var total uint64

	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		undo := pos.MakeMove(m)
		nodes := eng.Perft(pos, depth-1)
		pos.UnmakeMove(m, undo)

		fmt.Printf("%s: %d\n", m.String(), nodes)
		total += nodes
	}

	elapsed := time.Since(start)
	fmt.Printf("total: %d nodes in %v\n", total, elapsed)
}
