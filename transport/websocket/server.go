package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
)

const (
	actionRoundNew    = "round:new"
	actionRoundTurn   = "round:turn"
	actionRoundReset  = "round:reset"
	actionRoundUpdate = "round:update"
	actionError       = "error"

	maxMessageSize = 4096
	writeWait      = 10 * time.Second
)

var errUnknownAction = errors.New("unknown action")

type roundUseCase interface {
	StartRound(ctx context.Context, mode string) (*entity.Round, error)
	PlayHuman(ctx context.Context, id string, row, col int) (*entity.Round, error)
	PlayAI(ctx context.Context, id string) (*entity.Round, error)
	ResetRound(ctx context.Context, id string) (*entity.Round, error)
}

type handlerFunc func(ctx context.Context, sess *session, msg *Message) error

// Server speaks the round protocol over websocket and paces AI turns with aiDelay.
type Server struct {
	logger *slog.Logger
	rounds roundUseCase

	aiDelay   time.Duration
	maxRounds int

	upgrader websocket.Upgrader
	handlers map[string]handlerFunc
}

// New - maxRounds bounds continuous ai-vs-ai play on one connection.
func New(logger *slog.Logger, rounds roundUseCase, aiDelay time.Duration, maxRounds int) *Server {
	server := &Server{
		logger:    logger.With("component", "websocket"),
		rounds:    rounds,
		aiDelay:   aiDelay,
		maxRounds: maxRounds,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}

	server.handlers = map[string]handlerFunc{
		actionRoundNew:   server.handleNewRound,
		actionRoundTurn:  server.handleRoundTurn,
		actionRoundReset: server.handleResetRound,
	}

	return server
}

// ServeHTTP - upgrades the connection and processes messages until the client leaves.
func (that *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "ServeHTTP", "remote", r.RemoteAddr)

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	sess := newSession(ctx, conn)

	defer func() {
		cancel()
		sess.wg.Wait()
		_ = conn.Close()
		log.Info("WebSocket connection closed")
	}()

	log.Info("WebSocket connection established")

	that.handleMessages(ctx, sess)
}

// handleMessages - processes messages from the client.
func (that *Server) handleMessages(ctx context.Context, sess *session) {
	log := that.logger.With("method", "handleMessages")

	sess.conn.SetReadLimit(maxMessageSize)

	for {
		var message Message
		if err := sess.conn.ReadJSON(&message); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error("error reading message", "error", err)
			}

			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				that.sendError(sess, actionError, "malformed message")
				continue
			}

			return
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			that.sendError(sess, message.Action, fmt.Sprintf("%v: %q", errUnknownAction, message.Action))
			continue
		}

		if err := handler(ctx, sess, &message); err != nil {
			log.Debug("error processing message", "action", message.Action, "error", err)
			that.sendError(sess, message.Action, err.Error())
		}
	}
}

func (that *Server) sendError(sess *session, action, errorMsg string) {
	if err := sess.send(action, Payload{Error: errorMsg}); err != nil {
		that.logger.Error("failed to send error response", "error", err)
	}
}

// session is one websocket connection and the AI turns scheduled on it.
type session struct {
	ctx  context.Context
	conn *websocket.Conn

	writeMu sync.Mutex
	wg      sync.WaitGroup

	autoplayMu sync.Mutex
	autoplay   map[string]bool
}

func newSession(ctx context.Context, conn *websocket.Conn) *session {
	return &session{
		ctx:      ctx,
		conn:     conn,
		autoplay: make(map[string]bool),
	}
}

func (that *session) send(action string, payload Payload) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err = that.conn.WriteJSON(Message{Action: action, Payload: raw}); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

// wait - sleeps for d unless the connection goes away first.
func (that *session) wait(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-that.ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// startAutoplay - reports false when the round is already being played on this connection.
func (that *session) startAutoplay(roundID string) bool {
	that.autoplayMu.Lock()
	defer that.autoplayMu.Unlock()

	if that.autoplay[roundID] {
		return false
	}

	that.autoplay[roundID] = true

	return true
}

func (that *session) stopAutoplay(roundID string) {
	that.autoplayMu.Lock()
	defer that.autoplayMu.Unlock()

	delete(that.autoplay, roundID)
}
