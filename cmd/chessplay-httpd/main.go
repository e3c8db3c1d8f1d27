package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/hailam/chessplay/internal/engine"
	"github.com/hailam/chessplay/internal/httpd"
)

const defaultPort = 8080

func main() {
	var port uint
	flag.UintVar(&port, "port", defaultPort, "port to listen on")
	flag.Parse()

	if port == 0 || port > 65535 {
		fmt.Println("invalid port number")
		os.Exit(1)
	}

	eng := engine.NewEngine(64)
	app := httpd.NewApplication(eng)

	addr := fmt.Sprintf(":%d", port)
	fmt.Printf("chessplay-httpd listening on %s\n", addr)
	if err := http.ListenAndServe(addr, app); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}
