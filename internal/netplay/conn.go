package netplay

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	writeWait    = 2 * time.Second
	pingInterval = 2 * time.Second
	pongWait     = 3 * pingInterval
	maxFrameSize = 64 << 10
	recvBuffer   = 256
)

// Conn is a websocket carrying frames. Writes are serialized; reads happen on
// a pump goroutine and are handed over through Frames.
type Conn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
	logger  *zap.Logger

	recv   chan Frame
	cancel context.CancelFunc
	done   chan struct{}
	err    error // Set before done is closed
}

func newConn(ws *websocket.Conn, logger *zap.Logger) *Conn {
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	c := &Conn{
		ws:     ws,
		logger: logger,
		recv:   make(chan Frame, recvBuffer),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	ws.SetReadLimit(maxFrameSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	g.Go(func() error { return c.readPump(ctx) })
	g.Go(func() error { return c.pingPump(ctx) })
	g.Go(func() error {
		// Unblocks the read pump.
		<-ctx.Done()
		return ws.Close()
	})

	go func() {
		c.err = g.Wait()
		close(c.done)
	}()
	return c
}

func (c *Conn) readPump(ctx context.Context) error {
	for {
		kind, data, err := c.ws.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "read")
		}
		if kind != websocket.BinaryMessage {
			continue
		}

		f, err := ParseFrame(data)
		if err != nil {
			c.logger.Warn("dropping frame", zap.Error(err))
			continue
		}

		select {
		case c.recv <- f:
		case <-ctx.Done():
			return nil
		}
	}
}

func (c *Conn) pingPump(ctx context.Context) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.writeMu.Lock()
			err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			c.writeMu.Unlock()
			if err != nil {
				return errors.Wrap(err, "ping")
			}
		}
	}
}

// Send writes one frame.
func (c *Conn) Send(f Frame) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return errors.Wrap(err, "set write deadline")
	}
	if err := c.ws.WriteMessage(websocket.BinaryMessage, f.Marshal()); err != nil {
		return errors.Wrap(err, "write")
	}
	return nil
}

// Frames returns the received frames in arrival order.
func (c *Conn) Frames() <-chan Frame {
	return c.recv
}

// Done is closed once the connection is gone.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Err returns why the connection ended, or nil for a normal close.
// Only valid after Done is closed.
func (c *Conn) Err() error {
	if websocket.IsCloseError(errors.Cause(c.err), websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return nil
	}
	return c.err
}

// Close says goodbye to the peer and waits for the pumps to stop.
func (c *Conn) Close() error {
	select {
	case <-c.done:
		return nil
	default:
	}

	c.writeMu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	c.writeMu.Unlock()

	c.cancel()
	<-c.done
	return nil
}
