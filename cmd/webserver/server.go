package main

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"math/rand"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/trytobebee/snake_io/pkg/config"
	"github.com/trytobebee/snake_io/pkg/game"
	"github.com/trytobebee/snake_io/pkg/proto"
	"github.com/trytobebee/snake_io/pkg/scores"
	"github.com/trytobebee/snake_io/pkg/session"
)

// Websocket subprotocols. Clients that ask for neither get JSON.
const (
	protoJSON   = "snake.v1.json"
	protoBinary = "snake.v1.proto"
)

const writeWait = 5 * time.Second

//go:embed static
var staticFiles embed.FS

var errClientGone = errors.New("client disconnected")

// GameConfig is sent once to JSON clients so they can size the canvas
type GameConfig struct {
	Width    int `json:"width"`
	Height   int `json:"height"`
	GridSize int `json:"gridSize"`
	TickMs   int `json:"tickMs"`
}

type ServerMessage struct {
	Type     string              `json:"type"`
	Config   *GameConfig         `json:"config,omitempty"`
	State    *game.GameState     `json:"state,omitempty"`
	GameOver *game.GameOverEvent `json:"gameOver,omitempty"`
}

type ClientMessage struct {
	Action string `json:"action"`
}

// Server hands every websocket connection its own game session. Finished
// games go to a store shared by all connections.
type Server struct {
	settings config.Settings
	store    *scores.Store
	upgrader websocket.Upgrader

	// onePerIP rejects a second connection from an address that already
	// has a game running
	onePerIP  bool
	activeIPs sync.Map

	newTicker session.TickerFunc
	logOut    io.Writer
}

func NewServer(settings config.Settings, store *scores.Store, logOut io.Writer) *Server {
	return &Server{
		settings: settings,
		store:    store,
		upgrader: websocket.Upgrader{
			Subprotocols: []string{protoJSON, protoBinary},
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for development
			},
		},
		logOut: logOut,
	}
}

// Handler routes the static client, the websocket and the scores API.
// /api/scores?session=<id> adds the results of that session.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	mux.Handle("/", http.FileServer(http.FS(static)))
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/api/scores", s.handleScores)
	return mux
}

type scoresResponse struct {
	Summary scores.Summary  `json:"summary"`
	Top     []scores.Result `json:"top"`
	Recent  []scores.Result `json:"recent"`
	Session []scores.Result `json:"session,omitempty"`
}

func (s *Server) handleScores(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var resp scoresResponse
	var err error
	if resp.Summary, err = s.store.Summary(ctx); err == nil {
		if resp.Top, err = s.store.Top(ctx, 10); err == nil {
			resp.Recent, err = s.store.Recent(ctx, 10)
		}
	}
	if id := r.URL.Query().Get("session"); id != "" && err == nil {
		resp.Session, err = s.store.BySession(ctx, id)
	}
	if err != nil {
		log.Println("scores:", err)
		http.Error(w, "scores unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Println("scores: write:", err)
	}
}

// client serialises writes to one websocket connection
type client struct {
	conn   *websocket.Conn
	binary bool
	logger *log.Logger
	cancel context.CancelFunc

	mu sync.Mutex
}

func (c *client) send(msg ServerMessage) {
	var (
		typ  = websocket.TextMessage
		data []byte
		err  error
	)
	if c.binary {
		if msg.Config != nil {
			return // width and height travel with every state
		}
		typ = websocket.BinaryMessage
		data, err = proto.MarshalServerMessage(proto.ServerMessage{State: msg.State, GameOver: msg.GameOver})
	} else {
		data, err = json.Marshal(msg)
	}
	if err != nil {
		c.logger.Println("encode:", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(typ, data); err != nil {
		c.logger.Println("write error:", err)
		c.cancel()
	}
}

// Render implements session.Renderer
func (c *client) Render(st game.GameState) {
	c.send(ServerMessage{Type: "state", State: &st})
}

func (c *client) decode(typ int, data []byte) (game.Intent, error) {
	if typ == websocket.BinaryMessage {
		return proto.UnmarshalIntent(data)
	}
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return game.Intent{}, err
	}
	in, ok := game.ParseAction(msg.Action)
	if !ok {
		return game.Intent{}, fmt.Errorf("unknown action %q", msg.Action)
	}
	return in, nil
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Upgrade error:", err)
		return
	}
	defer conn.Close()

	if s.onePerIP {
		ip := remoteIP(r)
		if _, loaded := s.activeIPs.LoadOrStore(ip, true); loaded {
			log.Printf("Connection rejected: IP %s is already connected\n", ip)
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "Already connected"))
			return
		}
		defer s.activeIPs.Delete(ip)
	}

	id := uuid.NewString()
	logger := log.New(s.logOut, fmt.Sprintf("[session %s] ", id[:8]), log.LstdFlags)
	logger.Printf("connected from %s, protocol %q", r.RemoteAddr, conn.Subprotocol())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := &client{
		conn:   conn,
		binary: conn.Subprotocol() == protoBinary,
		logger: logger,
		cancel: cancel,
	}

	seed := s.settings.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	g := game.NewGame(s.settings.Width, s.settings.Height, rand.New(rand.NewSource(seed)))
	g.AutoPlay = s.settings.AutoPlay

	sess := session.New(g, c, session.Options{
		ID:        id,
		Interval:  s.settings.TickInterval,
		NewTicker: s.newTicker,
		Logger:    logger,
	})
	sess.OnGameOver(func(ev game.GameOverEvent) {
		if _, err := s.store.Record(ctx, id, ev); err != nil {
			logger.Println("record result:", err)
		}
		c.send(ServerMessage{Type: "gameover", GameOver: &ev})
	})

	c.send(ServerMessage{Type: "config", Config: &GameConfig{
		Width:    s.settings.Width,
		Height:   s.settings.Height,
		GridSize: config.GridSize,
		TickMs:   int(s.settings.TickInterval / time.Millisecond),
	}})

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return sess.Run(ctx)
	})

	// Unblock the reader once the session is done
	eg.Go(func() error {
		<-ctx.Done()
		conn.Close()
		return nil
	})

	eg.Go(func() error {
		for {
			typ, data, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return errClientGone
				}
				return fmt.Errorf("read: %w", err)
			}
			in, err := c.decode(typ, data)
			if err != nil {
				logger.Println("ignoring message:", err)
				continue
			}
			if err := sess.Submit(ctx, in); err != nil {
				return err
			}
		}
	})

	err = eg.Wait()
	switch {
	case err == nil, errors.Is(err, errClientGone), errors.Is(err, context.Canceled):
		logger.Println("disconnected")
	default:
		logger.Println("closed:", err)
	}
}
