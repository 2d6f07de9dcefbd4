package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mindspark-app/mindspark/internal/chat"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// chatRequest is the incoming WebSocket message format.
type chatRequest struct {
	Type      string `json:"type"`       // "open", "message" or "cancel"
	SessionID string `json:"session_id"` // empty for new sessions
	Content   string `json:"content"`
}

// chatResponse is the outgoing WebSocket message format.
type chatResponse struct {
	Type       string       `json:"type"` // "session", "delta", "done" or "error"
	SessionID  string       `json:"session_id,omitempty"`
	Content    string       `json:"content,omitempty"`
	Transcript []chat.Entry `json:"transcript,omitempty"`
}

// wsConn serializes writes; gorilla allows one concurrent writer.
type wsConn struct {
	conn   *websocket.Conn
	logger *zap.Logger

	mu       sync.Mutex
	inflight map[string]*chat.Subscription
	sessions map[string]struct{}
}

func (c *wsConn) send(resp chatResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(resp); err != nil {
		c.logger.Debug("websocket write failed", zap.Error(err))
	}
}

func (c *wsConn) sendError(sessionID, message string) {
	c.send(chatResponse{Type: "error", SessionID: sessionID, Content: message})
}

func (c *wsConn) track(id string, sub *chat.Subscription) {
	c.mu.Lock()
	c.inflight[id] = sub
	c.mu.Unlock()
}

func (c *wsConn) untrack(id string, sub *chat.Subscription) {
	c.mu.Lock()
	if c.inflight[id] == sub {
		delete(c.inflight, id)
	}
	c.mu.Unlock()
}

func (c *wsConn) cancel(id string) bool {
	c.mu.Lock()
	sub, ok := c.inflight[id]
	c.mu.Unlock()
	if ok {
		sub.Cancel()
	}
	return ok
}

func (d *Dashboard) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		d.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	c := &wsConn{
		conn:     conn,
		logger:   d.logger,
		inflight: make(map[string]*chat.Subscription),
		sessions: make(map[string]struct{}),
	}
	defer d.release(c)

	// Replies in flight end with the connection.
	ctx, cancel := context.WithCancel(r.Context())
	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				d.logger.Debug("websocket read failed", zap.Error(err))
			}
			return
		}

		var req chatRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			c.sendError("", "invalid message format")
			continue
		}

		switch req.Type {
		case "open":
			d.handleOpen(ctx, c, req)
		case "message":
			d.handleChatMessage(ctx, c, req, &wg)
		case "cancel":
			if !c.cancel(req.SessionID) {
				c.sendError(req.SessionID, "no reply in progress")
			}
		default:
			c.sendError(req.SessionID, "unknown message type: "+req.Type)
		}
	}
}

// session resolves req's session. announce is true when the client does
// not yet know the session by that id.
func (d *Dashboard) session(ctx context.Context, c *wsConn, req chatRequest) (sess *chat.Session, announce bool, ok bool) {
	if d.chats == nil {
		c.sendError(req.SessionID, "LLM provider not configured")
		return nil, false, false
	}
	sess, err := d.chats.Open(ctx, req.SessionID)
	if err != nil {
		d.logger.Warn("opening chat session failed", zap.String("session_id", req.SessionID), zap.Error(err))
		c.sendError(req.SessionID, chat.ErrorMessage)
		return nil, false, false
	}
	d.acquire(c, sess.ID())
	return sess, sess.ID() != req.SessionID, true
}

// acquire records that c uses session id.
func (d *Dashboard) acquire(c *wsConn, id string) {
	c.mu.Lock()
	_, seen := c.sessions[id]
	c.sessions[id] = struct{}{}
	c.mu.Unlock()
	if seen {
		return
	}
	d.mu.Lock()
	d.refs[id]++
	d.mu.Unlock()
}

// release drops the sessions of a closed connection from memory once no
// other connection uses them. Stored transcripts are kept.
func (d *Dashboard) release(c *wsConn) {
	c.mu.Lock()
	ids := make([]string, 0, len(c.sessions))
	for id := range c.sessions {
		ids = append(ids, id)
	}
	c.mu.Unlock()

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, id := range ids {
		d.refs[id]--
		if d.refs[id] > 0 {
			continue
		}
		delete(d.refs, id)
		d.chats.Forget(id)
	}
}

func (c *wsConn) announce(sess *chat.Session) {
	c.send(chatResponse{Type: "session", SessionID: sess.ID(), Transcript: sess.Transcript()})
}

func (d *Dashboard) handleOpen(ctx context.Context, c *wsConn, req chatRequest) {
	if sess, _, ok := d.session(ctx, c, req); ok {
		c.announce(sess)
	}
}

func (d *Dashboard) handleChatMessage(ctx context.Context, c *wsConn, req chatRequest, wg *sync.WaitGroup) {
	if req.Content == "" {
		c.sendError(req.SessionID, "content is required")
		return
	}
	sess, announce, ok := d.session(ctx, c, req)
	if !ok {
		return
	}

	sub, err := sess.Send(ctx, req.Content)
	if announce {
		c.announce(sess)
	}
	switch {
	case errors.Is(err, chat.ErrBusy):
		c.sendError(sess.ID(), "a reply is already in progress")
		return
	case errors.Is(err, chat.ErrEmptyMessage):
		c.sendError(sess.ID(), "content is required")
		return
	case err != nil:
		c.sendError(sess.ID(), chat.ErrorMessage)
		return
	}

	c.track(sess.ID(), sub)
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer c.untrack(sess.ID(), sub)

		for delta := range sub.Deltas() {
			c.send(chatResponse{Type: "delta", SessionID: sess.ID(), Content: delta})
		}
		err := sub.Wait()
		if ctx.Err() != nil {
			return
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			c.sendError(sess.ID(), chat.ErrorMessage)
			return
		}
		c.send(chatResponse{Type: "done", SessionID: sess.ID(), Content: sub.Reply()})
	}()
}
