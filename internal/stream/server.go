package stream

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/tesselslate/deskctl/internal/input"
	"github.com/tesselslate/deskctl/internal/log"
)

// Message operations
const (
	OpHello = "hello"
	OpEvent = "event"
	OpFrame = "frame"
	OpError = "error"
)

const (
	maxEventSize    = 64 * 1024
	writeTimeout    = 5 * time.Second
	shutdownTimeout = 2 * time.Second
)

// Message is a JSON message sent over the websocket. Only the fields relevant
// to Op are set.
type Message struct {
	Op string `json:"op"`

	// hello
	Session  string `json:"session,omitempty"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	Displays int    `json:"displays,omitempty"`

	// event
	Data json.RawMessage `json:"d,omitempty"`

	// frame, followed by a binary message containing the RGBA pixels
	ID        uint64 `json:"id,omitempty"`
	Timestamp int64  `json:"ts,omitempty"`
	W         int    `json:"w,omitempty"`
	H         int    `json:"h,omitempty"`

	// error
	Error string `json:"error,omitempty"`
}

// Server exposes a Controller over a websocket. Clients receive every frame
// the controller captures and may submit input events.
type Server struct {
	ctrl *Controller
	mux  *http.ServeMux

	mu      sync.Mutex
	clients map[uuid.UUID]*client
}

type client struct {
	id      uuid.UUID
	frames  chan Frame
	replies chan Message
	cancel  context.CancelFunc
	dropped int
}

// NewServer creates a Server and subscribes it to the controller's frames.
func NewServer(ctrl *Controller) *Server {
	s := &Server{
		ctrl:    ctrl,
		mux:     http.NewServeMux(),
		clients: make(map[uuid.UUID]*client),
	}
	s.mux.HandleFunc("/ws", s.handleWebsocket)
	s.mux.HandleFunc("/stats", s.handleStats)
	ctrl.Subscribe(s)
	return s
}

// Handler returns the HTTP handler serving /ws and /stats.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrap(err, "listen")
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled. Connected clients are
// disconnected on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.mux}
	errch := make(chan error, 1)
	go func() {
		errch <- srv.Serve(ln)
	}()
	log.Info("Listening on %s", ln.Addr())

	select {
	case err := <-errch:
		s.disconnectAll()
		return errors.Wrap(err, "serve")
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.disconnectAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}

// SendFrame implements Sink. Clients which have not finished sending the
// previous frame skip this one.
func (s *Server) SendFrame(f Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.clients {
		select {
		case c.frames <- f:
		default:
			c.dropped++
		}
	}
}

func (s *Server) disconnectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.clients {
		c.cancel()
	}
}

func (s *Server) add(c *client) {
	s.mu.Lock()
	s.clients[c.id] = c
	s.mu.Unlock()
	s.ctrl.stats.addClient(1)
}

func (s *Server) remove(c *client) {
	s.mu.Lock()
	delete(s.clients, c.id)
	dropped := c.dropped
	s.mu.Unlock()
	s.ctrl.stats.addClient(-1)
	log.Info("Client %s disconnected (%d frames skipped)", c.id, dropped)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.ctrl.stats.Snapshot()); err != nil {
		log.Warn("Failed to write stats: %s", err)
	}
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Warn("Failed to accept websocket: %s", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "")
	conn.SetReadLimit(maxEventSize)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	c := &client{
		id:      uuid.New(),
		frames:  make(chan Frame, 1),
		replies: make(chan Message, 8),
		cancel:  cancel,
	}

	width, height := s.ctrl.DisplaySize()
	hello := Message{
		Op:       OpHello,
		Session:  c.id.String(),
		Width:    width,
		Height:   height,
		Displays: s.ctrl.DisplayCount(),
	}
	if err := wsjson.Write(ctx, conn, &hello); err != nil {
		log.Warn("Failed to send hello: %s", err)
		return
	}
	log.Info("Client %s connected from %s", c.id, r.RemoteAddr)
	s.add(c)
	defer s.remove(c)

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cancel()
		if err := s.writeLoop(ctx, conn, c); err != nil && ctx.Err() == nil {
			log.Warn("Client %s: write failed: %s", c.id, err)
		}
	}()
	err = s.readLoop(ctx, conn, c)
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
	default:
		if ctx.Err() == nil {
			log.Warn("Client %s: read failed: %s", c.id, err)
		}
	}
	cancel()
	<-done
	conn.Close(websocket.StatusNormalClosure, "")
}

func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn, c *client) error {
	for {
		var msg Message
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			return err
		}
		if msg.Op != OpEvent {
			c.reply(Message{Op: OpError, Error: "unknown op " + msg.Op})
			continue
		}
		var evt input.Event
		if err := json.Unmarshal(msg.Data, &evt); err != nil {
			c.reply(Message{Op: OpError, Error: errors.Wrap(err, "decode event").Error()})
			continue
		}
		if err := evt.Validate(); err != nil {
			c.reply(Message{Op: OpError, Error: err.Error()})
			continue
		}
		if err := s.ctrl.Submit(evt); err != nil {
			c.reply(Message{Op: OpError, Error: err.Error()})
		}
	}
}

func (s *Server) writeLoop(ctx context.Context, conn *websocket.Conn, c *client) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-c.replies:
			if err := withTimeout(ctx, func(ctx context.Context) error {
				return wsjson.Write(ctx, conn, &msg)
			}); err != nil {
				return err
			}
		case f := <-c.frames:
			img := f.Image
			header := Message{
				Op:        OpFrame,
				ID:        f.ID,
				Timestamp: f.Timestamp,
				W:         img.Width,
				H:         img.Height,
			}
			err := withTimeout(ctx, func(ctx context.Context) error {
				if err := wsjson.Write(ctx, conn, &header); err != nil {
					return err
				}
				return conn.Write(ctx, websocket.MessageBinary, img.Pix)
			})
			if err != nil {
				return err
			}
			s.ctrl.stats.addBytes(len(img.Pix))
		}
	}
}

func withTimeout(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return fn(ctx)
}

// reply queues a message for the client, dropping it if the client is not
// keeping up.
func (c *client) reply(msg Message) {
	select {
	case c.replies <- msg:
	default:
	}
}
