package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Server is the socket pairing relay: it holds at most one waiting
// client, pairs the next one with it and relays turn payloads between
// the two. No game state is kept server side.
type Server struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	waiting *client
}

type client struct {
	conn *websocket.Conn

	mu     sync.Mutex
	send   chan Message
	closed bool

	opponent *client // guarded by Server.mu
}

func New(logger *slog.Logger) *Server {
	return &Server{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},
	}
}

// Start - starts the relay server.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", that.serveWS)

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "serveWS")

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	peer := &client{
		conn: conn,
		send: make(chan Message, 8),
	}

	log.Info("client connected", "remote", conn.RemoteAddr().String())

	go peer.writePump()
	that.readLoop(peer)
}

func (that *Server) readLoop(peer *client) {
	defer that.disconnect(peer)

	for {
		var msg Message
		if err := peer.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Action {
		case ActionRequestMatch:
			that.matchOrWait(peer)
		case ActionTurnEnd:
			that.relayTurn(peer, msg.Payload)
		default:
			that.logger.Warn("unknown action", "action", msg.Action)
		}
	}
}

// matchOrWait - first caller parks in the waiting slot, second caller
// pairs with it and both sides get gameStart with their player number.
func (that *Server) matchOrWait(peer *client) {
	that.mu.Lock()

	if that.waiting == nil || that.waiting == peer {
		that.waiting = peer
		that.mu.Unlock()

		peer.enqueue(Message{Action: ActionWaiting})

		return
	}

	player1 := that.waiting
	that.waiting = nil
	player1.opponent = peer
	peer.opponent = player1
	that.mu.Unlock()

	player1.enqueue(gameStartMessage(1))
	peer.enqueue(gameStartMessage(2))

	that.logger.Info("clients paired")
}

// relayTurn - forwards the opaque turn payload to the opponent.
func (that *Server) relayTurn(peer *client, payload json.RawMessage) {
	that.mu.Lock()
	opponent := peer.opponent
	that.mu.Unlock()

	if opponent == nil {
		return
	}

	opponent.enqueue(Message{Action: ActionOpponentTurnEnd, Payload: payload})
}

func (that *Server) disconnect(peer *client) {
	that.mu.Lock()

	if that.waiting == peer {
		that.waiting = nil
	}

	opponent := peer.opponent
	if opponent != nil {
		opponent.opponent = nil
		peer.opponent = nil
	}
	that.mu.Unlock()

	if opponent != nil {
		opponent.enqueue(Message{Action: ActionOpponentDisconnected})
	}

	peer.close()

	that.logger.Info("client disconnected", "remote", peer.conn.RemoteAddr().String())
}

func gameStartMessage(playerNumber int) Message {
	payload, err := json.Marshal(GameStartPayload{PlayerNumber: playerNumber})
	if err != nil {
		panic(err)
	}

	return Message{Action: ActionGameStart, Payload: payload}
}

func (that *client) enqueue(msg Message) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return
	}

	select {
	case that.send <- msg:
	default:
		// slow client, drop the message
	}
}

func (that *client) close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return
	}

	that.closed = true
	close(that.send)
}

func (that *client) writePump() {
	defer that.conn.Close()

	for msg := range that.send {
		if err := that.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}
