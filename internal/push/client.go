// Package push maintains the long-lived server-to-client event stream.
// Mutations made by other actors arrive here and are folded into the
// entity store by the sync package's reconciler; this package only moves
// frames and tracks connection state.
package push

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event names on the wire.
const (
	EventTaskUpdate   = "task_update"
	EventNotification = "notification"
)

var (
	// ErrNoToken marks a client built without a credential. Such a client
	// never dials; the condition is reported, not thrown.
	ErrNoToken = errors.New("push: missing auth token")

	// ErrNotConnected is returned by Publish while offline. Messages are
	// never queued or retried silently.
	ErrNotConnected = errors.New("push: not connected")
)

type State int

const (
	Disconnected State = iota
	Connected
)

func (s State) String() string {
	if s == Connected {
		return "connected"
	}
	return "disconnected"
}

// Handler receives the raw data payload of one event. Handlers run on the
// read pump goroutine and must not block.
type Handler func(data json.RawMessage)

// frame is the wire envelope for both directions.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type Option func(*Client)

// WithRetry bounds reconnection. Attempts are counted per disconnect, the
// delay is fixed; there is no backoff and no infinite retry.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		c.attempts = attempts
		c.delay = delay
	}
}

// WithOnState registers a connectivity callback for status indicators.
func WithOnState(fn func(State)) Option {
	return func(c *Client) { c.onState = fn }
}

// WithClientID sets the session correlation ID sent at handshake time.
func WithClientID(id string) Option {
	return func(c *Client) { c.clientID = id }
}

type Client struct {
	url      string
	token    string
	clientID string
	attempts int
	delay    time.Duration
	onState  func(State)

	mu     sync.Mutex
	conn   *websocket.Conn
	subs   map[string]map[int]Handler
	nextID int
	done   chan struct{}
	closed bool
}

func New(url, token string, opts ...Option) *Client {
	c := &Client{
		url:      url,
		token:    token,
		attempts: 5,
		delay:    2 * time.Second,
		subs:     map[string]map[int]Handler{},
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect dials the stream and starts the read pump. Without a token the
// client is inert: it logs, returns ErrNoToken and never attempts to dial.
func (c *Client) Connect(ctx context.Context) error {
	if c.token == "" {
		log.Println("push: no token, staying offline")
		return ErrNoToken
	}
	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}
	c.setConn(conn)
	c.setState(Connected)
	go c.readLoop(ctx, conn)
	return nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	hdr := http.Header{}
	hdr.Set("Authorization", "Bearer "+c.token)
	if c.clientID != "" {
		hdr.Set("X-Client-ID", c.clientID)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, hdr)
	return conn, err
}

// Subscribe registers a handler for one event name and returns its
// disposer. Calling the disposer more than once is harmless.
func (c *Client) Subscribe(event string, h Handler) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subs[event] == nil {
		c.subs[event] = map[int]Handler{}
	}
	id := c.nextID
	c.nextID++
	c.subs[event][id] = h
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs[event], id)
	}
}

// Publish sends an event to the server when connected. While disconnected
// it is a warned no-op; callers that care get ErrNotConnected back.
func (c *Client) Publish(event string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		log.Printf("push: dropped %q publish while disconnected", event)
		return ErrNotConnected
	}
	return c.conn.WriteJSON(frame{Event: event, Data: data})
}

// Close tears the connection down and stops reconnection for good.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	close(c.done)
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err == nil {
			c.dispatch(data)
			continue
		}
		c.setConn(nil)
		c.setState(Disconnected)
		if c.stopping(ctx) {
			return
		}
		conn = c.reconnect(ctx)
		if conn == nil {
			return
		}
	}
}

// reconnect retries a bounded number of times with a fixed delay. When the
// budget is exhausted the client stays disconnected until it is torn down
// and rebuilt by the session owner.
func (c *Client) reconnect(ctx context.Context) *websocket.Conn {
	for attempt := 1; attempt <= c.attempts; attempt++ {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return nil
		case <-c.done:
			return nil
		}
		conn, err := c.dial(ctx)
		if err != nil {
			log.Printf("push: reconnect %d/%d failed: %v", attempt, c.attempts, err)
			continue
		}
		c.setConn(conn)
		c.setState(Connected)
		return conn
	}
	log.Printf("push: gave up after %d reconnect attempts", c.attempts)
	return nil
}

func (c *Client) dispatch(data []byte) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		log.Printf("push: dropping malformed frame: %v", err)
		return
	}
	c.mu.Lock()
	handlers := make([]Handler, 0, len(c.subs[f.Event]))
	for _, h := range c.subs[f.Event] {
		handlers = append(handlers, h)
	}
	c.mu.Unlock()
	for _, h := range handlers {
		h(f.Data)
	}
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil && conn == nil {
		c.conn.Close()
	}
	c.conn = conn
}

func (c *Client) setState(s State) {
	if c.onState != nil {
		c.onState(s)
	}
}

func (c *Client) stopping(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Connected reports the current link state.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}
