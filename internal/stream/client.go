package stream

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/tesselslate/deskctl/internal/capture"
	"github.com/tesselslate/deskctl/internal/input"
)

// maxFrameSize bounds the binary messages a Client accepts (8K RGBA).
const maxFrameSize = 7680 * 4320 * 4

// ErrRemote wraps error messages sent by the server.
var ErrRemote = errors.New("server error")

// Client is a connection to a stream Server.
type Client struct {
	ws *websocket.Conn

	Session  uuid.UUID
	Width    int
	Height   int
	Displays int
}

// Dial connects to the websocket server at url, such as
// "ws://127.0.0.1:7878/ws", and waits for its hello message.
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "dial")
	}
	conn.SetReadLimit(maxFrameSize)

	hello := Message{}
	if err := wsjson.Read(ctx, conn, &hello); err != nil {
		conn.Close(websocket.StatusInternalError, "")
		return nil, errors.Wrap(err, "read hello")
	}
	if hello.Op != OpHello {
		conn.Close(websocket.StatusProtocolError, "")
		return nil, errors.Errorf("expected hello, got %q", hello.Op)
	}
	id, err := uuid.Parse(hello.Session)
	if err != nil {
		conn.Close(websocket.StatusProtocolError, "")
		return nil, errors.Wrap(err, "parse session id")
	}
	return &Client{
		ws:       conn,
		Session:  id,
		Width:    hello.Width,
		Height:   hello.Height,
		Displays: hello.Displays,
	}, nil
}

// Send submits an input event.
func (c *Client) Send(ctx context.Context, e input.Event) error {
	data, err := json.Marshal(&e)
	if err != nil {
		return errors.Wrap(err, "encode event")
	}
	return wsjson.Write(ctx, c.ws, &Message{Op: OpEvent, Data: data})
}

// Next waits for the next frame. Error messages from the server are returned
// as errors wrapping ErrRemote; the connection remains usable after them.
func (c *Client) Next(ctx context.Context) (Frame, error) {
	for {
		msg := Message{}
		if err := wsjson.Read(ctx, c.ws, &msg); err != nil {
			return Frame{}, err
		}
		switch msg.Op {
		case OpError:
			return Frame{}, errors.Wrap(ErrRemote, msg.Error)
		case OpFrame:
		default:
			continue
		}
		typ, pix, err := c.ws.Read(ctx)
		if err != nil {
			return Frame{}, err
		}
		if typ != websocket.MessageBinary {
			return Frame{}, errors.New("frame data was not binary")
		}
		img := &capture.Image{Width: msg.W, Height: msg.H, Pix: pix}
		if !img.Valid() {
			return Frame{}, errors.Errorf("frame %d: got %d bytes for %dx%d", msg.ID, len(pix), msg.W, msg.H)
		}
		return Frame{ID: msg.ID, Timestamp: msg.Timestamp, Image: img}, nil
	}
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.ws.Close(websocket.StatusNormalClosure, "")
}
