// Package httpd exposes a small HTTP/WebSocket surface over the core
// board and engine packages, for remote perft/eval/search requests and
// for streaming iterative-deepening progress to connected clients. It
// is an ambient collaborator, not part of the board/engine core: every
// handler is a thin translation between JSON/WS messages and the core's
// public operations (ParseFEN, GenerateLegalMoves, Evaluate, SearchWithLimits).
package httpd

import (
	"encoding/json"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/engine"
)

// Application wires the HTTP router and engine together and tracks the
// set of WebSocket clients currently streaming a search. engineLock
// serializes every call into engine, since Searcher/TranspositionTable are
// single-threaded by design and net/http dispatches each request on its
// own goroutine.
type Application struct {
	router   *mux.Router
	engine   *engine.Engine
	upgrader websocket.Upgrader

	engineLock sync.Mutex

	clients     map[*client]struct{}
	clientsLock sync.RWMutex
}

type client struct {
	conn *websocket.Conn
}

// NewApplication builds the router and registers every route.
func NewApplication(eng *engine.Engine) *Application {
	app := &Application{
		router:  mux.NewRouter(),
		engine:  eng,
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}

	app.router.Use(func(next http.Handler) http.Handler {
		return handlers.LoggingHandler(os.Stdout, next)
	})

	app.router.HandleFunc("/eval", app.handleEval).Methods(http.MethodPost)
	app.router.HandleFunc("/perft", app.handlePerft).Methods(http.MethodPost)
	app.router.HandleFunc("/search", app.handleSearch).Methods(http.MethodPost)
	app.router.HandleFunc("/ws", app.handleWS)

	return app
}

// ServeHTTP lets Application be passed straight to http.ListenAndServe.
func (app *Application) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	app.router.ServeHTTP(w, r)
}

type positionRequest struct {
	FEN string `json:"fen"`
}

func parsePosition(r *http.Request) (*board.Position, error) {
	var req positionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, err
	}
	if req.FEN == "" {
		return board.NewPosition(), nil
	}
	return board.ParseFEN(req.FEN)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.WriteHeader(status)
	writeJSON(w, map[string]string{"error": err.Error()})
}

type evalResponse struct {
	FEN   string `json:"fen"`
	Score int    `json:"score"`
}

// handleEval returns the static evaluation of a position, from the side
// to move's perspective, matching engine.Evaluate's convention.
func (app *Application) handleEval(w http.ResponseWriter, r *http.Request) {
	pos, err := parsePosition(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	app.engineLock.Lock()
	score := app.engine.Evaluate(pos)
	app.engineLock.Unlock()

	writeJSON(w, evalResponse{
		FEN:   pos.ToFEN(),
		Score: score,
	})
}

type perftRequest struct {
	FEN   string `json:"fen"`
	Depth int    `json:"depth"`
}

type perftResponse struct {
	Depth int    `json:"depth"`
	Nodes uint64 `json:"nodes"`
	NPS   uint64 `json:"nps"`
}

// handlePerft runs a perft count over the core move generator.
func (app *Application) handlePerft(w http.ResponseWriter, r *http.Request) {
	var req perftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var pos *board.Position
	if req.FEN == "" {
		pos = board.NewPosition()
	} else {
		p, err := board.ParseFEN(req.FEN)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		pos = p
	}
	if req.Depth <= 0 {
		req.Depth = 4
	}

	app.engineLock.Lock()
	start := time.Now()
	nodes := app.engine.Perft(pos, req.Depth)
	elapsed := time.Since(start)
	app.engineLock.Unlock()

	resp := perftResponse{Depth: req.Depth, Nodes: nodes}
	if elapsed > 0 {
		resp.NPS = uint64(float64(nodes) / elapsed.Seconds())
	}
	writeJSON(w, resp)
}

type searchRequest struct {
	FEN      string `json:"fen"`
	Depth    int    `json:"depth"`
	MoveTime int    `json:"move_time_ms"`
}

type searchResponse struct {
	BestMove string `json:"best_move"`
	SAN      string `json:"san"`
	Score    int    `json:"score"`
}

// handleSearch runs a blocking search and returns the best move found,
// annotated with its SAN form for display.
func (app *Application) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var pos *board.Position
	if req.FEN == "" {
		pos = board.NewPosition()
	} else {
		p, err := board.ParseFEN(req.FEN)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		pos = p
	}

	limits := engine.SearchLimits{Depth: req.Depth}
	if req.MoveTime > 0 {
		limits.MoveTime = time.Duration(req.MoveTime) * time.Millisecond
	} else if limits.Depth == 0 {
		limits.MoveTime = 2 * time.Second
	}

	san := pos.Copy()

	app.engineLock.Lock()
	move := app.engine.SearchWithLimits(pos, limits)
	resp := searchResponse{BestMove: move.String()}
	if move != board.NoMove {
		resp.SAN = move.SAN(san)
		resp.Score = app.engine.Evaluate(pos)
	}
	app.engineLock.Unlock()

	writeJSON(w, resp)
}

// handleWS upgrades to a WebSocket and streams engine.SearchInfo
// iterative-deepening updates for a search requested over the socket.
func (app *Application) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := app.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{conn: conn}

	app.clientsLock.Lock()
	app.clients[c] = struct{}{}
	app.clientsLock.Unlock()

	defer func() {
		app.clientsLock.Lock()
		delete(app.clients, c)
		app.clientsLock.Unlock()
		conn.Close()
	}()

	for {
		var req searchRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}

		var pos *board.Position
		if req.FEN == "" {
			pos = board.NewPosition()
		} else {
			p, err := board.ParseFEN(req.FEN)
			if err != nil {
				conn.WriteJSON(map[string]string{"error": err.Error()})
				continue
			}
			pos = p
		}

		limits := engine.SearchLimits{Depth: req.Depth}
		if req.MoveTime > 0 {
			limits.MoveTime = time.Duration(req.MoveTime) * time.Millisecond
		} else if limits.Depth == 0 {
			limits.Depth = 6
		}

		app.engineLock.Lock()
		app.engine.OnInfo = func(info engine.SearchInfo) {
			conn.WriteJSON(map[string]interface{}{
				"depth": info.Depth,
				"score": info.Score,
				"nodes": info.Nodes,
				"time":  info.Time.Milliseconds(),
				"pv":    pvStrings(info.PV),
			})
		}
		move := app.engine.SearchWithLimits(pos, limits)
		app.engine.OnInfo = nil
		app.engineLock.Unlock()

		conn.WriteJSON(map[string]interface{}{
			"done":      true,
			"best_move": move.String(),
		})
	}
}

func pvStrings(pv []board.Move) []string {
	out := make([]string, len(pv))
	for i, m := range pv {
		out[i] = m.String()
	}
	return out
}
