// ChessPlay is a command-line chess engine exposing three subcommands:
// "perft" for move-generator verification, "uci" for the UCI protocol
// loop, and "httpd" for a small HTTP/WS analysis surface.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/engine"
	"github.com/hailam/chessplay/internal/httpd"
	"github.com/hailam/chessplay/internal/uci"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "perft":
		runPerft(os.Args[2:])
	case "uci":
		runUCI()
	case "httpd":
		runHTTPD(os.Args[2:])
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand %q\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: chessplay <perft|uci|httpd> [flags]")
}

func runPerft(args []string) {
	fs := flag.NewFlagSet("perft", flag.ExitOnError)
	depth := fs.Int("depth", 5, "perft depth")
	fen := fs.String("fen", "", "FEN to start from (defaults to the standard starting position)")
	fs.Parse(args)

	var pos *board.Position
	if *fen != "" {
		p, err := board.ParseFEN(*fen)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid FEN: %v\n", err)
			os.Exit(1)
		}
		pos = p
	} else {
		pos = board.NewPosition()
	}

	eng := engine.NewEngine(1)
	start := time.Now()
	nodes := eng.Perft(pos, *depth)
	elapsed := time.Since(start)

	fmt.Printf("depth %d: %d nodes in %v", *depth, nodes, elapsed)
	if elapsed > 0 {
		fmt.Printf(" (%.0f nps)", float64(nodes)/elapsed.Seconds())
	}
	fmt.Println()
}

func runUCI() {
	eng := engine.NewEngine(64)
	protocol := uci.New(eng)
	protocol.Run()
}

func runHTTPD(args []string) {
	fs := flag.NewFlagSet("httpd", flag.ExitOnError)
	port := fs.Uint("port", 8080, "port to listen on")
	fs.Parse(args)

	eng := engine.NewEngine(64)
	app := httpd.NewApplication(eng)

	addr := fmt.Sprintf(":%d", *port)
	fmt.Printf("chessplay-httpd listening on %s\n", addr)
	if err := http.ListenAndServe(addr, app); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}
