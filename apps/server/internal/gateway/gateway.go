package gateway

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"blackjack-lite/apps/server/internal/codec"
	"blackjack-lite/apps/server/internal/lobby"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	readLimit   = 65536
	pongWait    = 60 * time.Second
	pingPeriod  = 30 * time.Second
	writeWait   = 10 * time.Second
	sendBufSize = 64
)

type frame struct {
	kind int
	data []byte
}

// Connection is one websocket client and the session it owns.
type Connection struct {
	ID       string
	Conn     *websocket.Conn
	Send     chan frame
	Gateway  *Gateway
	Session  *lobby.Entry
	LastPing time.Time
}

// Gateway manages websocket connections. Each connection gets its own session
// for as long as it stays open.
type Gateway struct {
	mu          sync.RWMutex
	connections map[string]*Connection
	lobby       *lobby.Lobby
	upgrader    websocket.Upgrader
	log         logrus.FieldLogger
}

func New(lby *lobby.Lobby, checkOrigin func(*http.Request) bool, log logrus.FieldLogger) *Gateway {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Gateway{
		connections: make(map[string]*Connection),
		lobby:       lby,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
		log: log.WithField("component", "gateway"),
	}
}

// HandleWebSocket upgrades the request and starts the pumps.
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	entry, err := g.lobby.Create(nil)
	if err != nil {
		g.log.WithError(err).Warn("no session for new connection")
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.lobby.Remove(entry.ID)
		g.log.WithError(err).Warn("upgrade failed")
		return
	}

	c := &Connection{
		ID:       "conn_" + entry.ID,
		Conn:     conn,
		Send:     make(chan frame, sendBufSize),
		Gateway:  g,
		Session:  entry,
		LastPing: time.Now(),
	}

	g.mu.Lock()
	g.connections[c.ID] = c
	total := len(g.connections)
	g.mu.Unlock()

	g.log.WithFields(logrus.Fields{"conn": c.ID, "session_id": entry.ID, "total": total}).Info("client connected")

	// Greet with the fresh state so the client learns its session id.
	c.reply(websocket.TextMessage, c.handle(codec.Request{Type: codec.TypeState}))

	go c.readPump()
	go c.writePump()
}

// Count returns the number of open connections.
func (g *Gateway) Count() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.connections)
}

func (c *Connection) readPump() {
	defer func() {
		c.Gateway.removeConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(readLimit)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		c.LastPing = time.Now()
		return nil
	})

	for {
		messageType, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Gateway.log.WithError(err).WithField("conn", c.ID).Warn("read error")
			}
			break
		}
		c.handleMessage(messageType, message)
	}
}

func (c *Connection) handleMessage(messageType int, data []byte) {
	var (
		req codec.Request
		err error
	)
	switch messageType {
	case websocket.TextMessage:
		req, err = codec.DecodeJSON(data)
	case websocket.BinaryMessage:
		req, err = codec.DecodeProto(data)
	default:
		return
	}
	if err != nil {
		resp := codec.NewResponse(req)
		resp.Error = c.errorBody(err)
		c.reply(messageType, resp)
		return
	}
	c.reply(messageType, c.handle(req))
}

func (c *Connection) handle(req codec.Request) codec.Response {
	resp := codec.NewResponse(req)
	log := c.Gateway.log.WithFields(logrus.Fields{"conn": c.ID, "type": req.Type})

	switch req.Type {
	case codec.TypeState:
		view := c.Session.View()
		resp.View = &view
		return resp
	case codec.TypeRecommend:
		if req.Hand == nil {
			resp.Error = c.errorBody(fmt.Errorf("%w: recommend without hand", lobby.ErrBadRequest))
			return resp
		}
		rec, view, err := c.Session.Recommend(*req.Hand)
		if err != nil {
			resp.Error = c.errorBody(err)
			return resp
		}
		resp.Recommendation = &rec
		resp.View = &view
		return resp
	}

	ev, _, err := req.Event()
	if err != nil {
		resp.Error = c.errorBody(err)
		return resp
	}
	applied, view, err := c.Session.Apply(ev)
	if err != nil {
		resp.Error = c.errorBody(err)
		return resp
	}
	if !applied {
		log.Debug("event absorbed as no-op")
	}
	resp.Applied = &applied
	resp.View = &view
	return resp
}

func (c *Connection) errorBody(err error) *codec.ErrorBody {
	code := statusFor(lobby.Classify(err))
	if code >= http.StatusInternalServerError {
		c.Gateway.log.WithError(err).WithField("conn", c.ID).Error("request failed")
	}
	return &codec.ErrorBody{Code: code, Message: err.Error()}
}

func statusFor(k lobby.ErrorKind) int {
	switch k {
	case lobby.KindInvalid:
		return http.StatusBadRequest
	case lobby.KindNotFound:
		return http.StatusNotFound
	case lobby.KindLimit:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// reply answers in the frame type the request came in.
func (c *Connection) reply(messageType int, resp codec.Response) {
	var (
		data []byte
		err  error
	)
	if messageType == websocket.BinaryMessage {
		data, err = codec.EncodeProto(resp)
	} else {
		messageType = websocket.TextMessage
		data, err = codec.EncodeJSON(resp)
	}
	if err != nil {
		c.Gateway.log.WithError(err).WithField("conn", c.ID).Error("encode response")
		return
	}
	select {
	case c.Send <- frame{kind: messageType, data: data}:
	default:
		c.Gateway.log.WithField("conn", c.ID).Warn("send buffer full, dropping response")
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case f, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(f.kind, f.data); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (g *Gateway) removeConnection(c *Connection) {
	g.mu.Lock()
	if _, ok := g.connections[c.ID]; !ok {
		g.mu.Unlock()
		return
	}
	delete(g.connections, c.ID)
	total := len(g.connections)
	g.mu.Unlock()

	close(c.Send)
	g.lobby.Remove(c.Session.ID)
	g.log.WithFields(logrus.Fields{"conn": c.ID, "total": total}).Info("client disconnected")
}
