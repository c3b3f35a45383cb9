package net

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"DrawStudio/internal/logging"
	"DrawStudio/internal/state"
)

// Message types.
const (
	TypeDraw  = "draw"
	TypeClear = "clear"
)

// Path is the websocket endpoint on the host.
const Path = "/ws"

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 1024
	maxMessage = 4 << 20
)

// ErrClosed is returned when sending on a closed connection.
var ErrClosed = errors.New("connection closed")

// Message is one JSON frame exchanged between peers. Draw messages carry a
// stroke or background action, clear messages a reset action.
type Message struct {
	Type    string            `json:"type"`
	Action  *state.DrawAction `json:"action,omitempty"`
	OwnerID string            `json:"owner_id,omitempty"`
}

// NewMessage wraps a committed action for sending.
func NewMessage(a state.DrawAction) Message {
	t := TypeDraw
	if a.Mode == state.ActionReset {
		t = TypeClear
	}
	a = a.Clone()
	return Message{Type: t, Action: &a, OwnerID: a.Owner}
}

// Peer is one websocket connection. All writes go through its send queue so
// the connection has a single writer.
type Peer struct {
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
	log    *slog.Logger
	remote string
}

func newPeer(conn *websocket.Conn, l *slog.Logger) *Peer {
	p := &Peer{
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		remote: conn.RemoteAddr().String(),
	}
	p.log = l.With("peer", p.remote)
	conn.SetReadLimit(maxMessage)
	go p.writePump()
	return p
}

// RemoteAddr returns the address of the other end.
func (p *Peer) RemoteAddr() string { return p.remote }

// LocalAddr returns the address of this end.
func (p *Peer) LocalAddr() string { return p.conn.LocalAddr().String() }

// Send queues a message. It never blocks: when the queue is full the message
// is dropped and an error returned.
func (p *Peer) Send(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	return p.sendRaw(data)
}

func (p *Peer) sendRaw(data []byte) error {
	select {
	case <-p.done:
		return ErrClosed
	default:
	}
	select {
	case p.send <- data:
		return nil
	case <-p.done:
		return ErrClosed
	default:
		return fmt.Errorf("send to %s: queue full", p.remote)
	}
}

// Close closes the connection. It is safe to call more than once.
func (p *Peer) Close() {
	p.once.Do(func() {
		close(p.done)
		_ = p.conn.Close()
	})
}

// Done is closed once the connection is closed.
func (p *Peer) Done() <-chan struct{} { return p.done }

func (p *Peer) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer p.Close()

	for {
		select {
		case <-p.done:
			_ = p.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case data := <-p.send:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				p.log.Warn("write failed", "err", err)
				return
			}
		case <-ticker.C:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop decodes messages until the connection fails, passing each to fn.
func (p *Peer) readLoop(fn func(Message)) error {
	defer p.Close()
	_ = p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		var msg Message
		if err := p.conn.ReadJSON(&msg); err != nil {
			var (
				syntaxErr *json.SyntaxError
				typeErr   *json.UnmarshalTypeError
			)
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				p.log.Warn("dropping malformed message", "err", err)
				continue
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		fn(msg)
	}
}

// PeerManager is used by the host to track connected clients.
type PeerManager struct {
	peers map[*Peer]struct{}
	mu    sync.RWMutex
	log   *slog.Logger
}

// NewPeerManager creates a new manager.
func NewPeerManager(l *slog.Logger) *PeerManager {
	return &PeerManager{
		peers: make(map[*Peer]struct{}),
		log:   logging.Or(l, "net"),
	}
}

// Add registers a connected peer.
func (pm *PeerManager) Add(p *Peer) { pm.AddWith(p, nil) }

// AddWith registers p after calling before with it. Broadcasts wait until
// before returns, so whatever it queues on p reaches the peer first.
func (pm *PeerManager) AddWith(p *Peer, before func(*Peer)) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	if before != nil {
		before(p)
	}
	pm.peers[p] = struct{}{}
	pm.log.Info("client connected", "peer", p.RemoteAddr(), "peers", len(pm.peers))
}

// Remove forgets a peer.
func (pm *PeerManager) Remove(p *Peer) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	delete(pm.peers, p)
	pm.log.Info("client disconnected", "peer", p.RemoteAddr(), "peers", len(pm.peers))
}

// Len returns the number of connected peers.
func (pm *PeerManager) Len() int {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return len(pm.peers)
}

// Broadcast sends msg to every peer except exclude, which may be nil.
func (pm *PeerManager) Broadcast(msg Message, exclude *Peer) {
	data, err := json.Marshal(msg)
	if err != nil {
		pm.log.Error("encode broadcast", "err", err)
		return
	}
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	for p := range pm.peers {
		if p == exclude {
			continue
		}
		if err := p.sendRaw(data); err != nil {
			pm.log.Warn("broadcast failed", "peer", p.RemoteAddr(), "err", err)
		}
	}
}

// CloseAll closes every peer connection.
func (pm *PeerManager) CloseAll() {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	for p := range pm.peers {
		p.Close()
	}
}

// Host accepts websocket clients, hands every message it receives to
// OnMessage and relays it to the other clients.
type Host struct {
	peers    *PeerManager
	upgrader websocket.Upgrader
	// OnMessage is called for every message from a client, on that client's
	// read goroutine. A message it returns an error for is not relayed.
	// Set it before serving.
	OnMessage func(Message) error
	// OnJoin is called when a client connects, before it is registered for
	// broadcasts. Use it to send the drawing so far. It must not block.
	OnJoin func(*Peer)
	log    *slog.Logger
}

// NewHost returns a host with no clients.
func NewHost(l *slog.Logger) *Host {
	return &Host{
		peers: NewPeerManager(l),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Clients are desktop apps on the LAN, not browsers.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log: logging.Or(l, "net"),
	}
}

// Peers returns the client manager.
func (h *Host) Peers() *PeerManager { return h.peers }

// Broadcast sends a message produced on the host to every client.
func (h *Host) Broadcast(msg Message) { h.peers.Broadcast(msg, nil) }

// ServeHTTP upgrades the request and serves the client until it leaves.
func (h *Host) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	p := newPeer(conn, h.log)
	h.peers.AddWith(p, h.OnJoin)
	defer h.peers.Remove(p)

	err = p.readLoop(func(msg Message) {
		h.log.Debug("received", "type", msg.Type, "owner", msg.OwnerID, "peer", p.RemoteAddr())
		if h.OnMessage != nil {
			if err := h.OnMessage(msg); err != nil {
				h.log.Warn("message not relayed", "type", msg.Type, "peer", p.RemoteAddr(), "err", err)
				return
			}
		}
		h.peers.Broadcast(msg, p)
	})
	if err != nil {
		h.log.Info("client read ended", "peer", p.RemoteAddr(), "err", err)
	}
}

// Handler returns an HTTP handler serving the host at Path.
func (h *Host) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(Path, h)
	return mux
}

// ListenAndServe serves the host on port until ctx is done.
func (h *Host) ListenAndServe(ctx context.Context, port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", port, err)
	}
	srv := &http.Server{Handler: h.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		h.peers.CloseAll()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	h.log.Info("host listening", "port", port)
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Client is a connection from a client to the host.
type Client struct {
	*Peer
}

// Dial connects to the host behind a share link.
func Dial(ctx context.Context, link string, l *slog.Logger) (*Client, error) {
	addr, err := ParseLink(link)
	if err != nil {
		return nil, err
	}
	return DialURL(ctx, "ws://"+addr+Path, l)
}

// DialURL connects to a host websocket URL.
func DialURL(ctx context.Context, url string, l *slog.Logger) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", url, err)
	}
	return &Client{Peer: newPeer(conn, logging.Or(l, "net"))}, nil
}

// Run reads messages from the host until the connection ends.
func (c *Client) Run(onMessage func(Message)) error {
	return c.readLoop(onMessage)
}
