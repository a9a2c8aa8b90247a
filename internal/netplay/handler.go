package netplay

import (
	"context"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// Replicable is an entity whose state travels between peers.
type Replicable interface {
	TypeID() uint8
	Serialize() []byte
	Deserialize(data []byte) error
}

// Releasable is implemented by remote entities that need cleanup when their
// owner destroys them or disconnects.
type Releasable interface {
	Release()
}

// Factory creates the remote copy of an entity type.
type Factory func() Replicable

// Handler owns the peer connection and both sides' entities. Poll, AddLocal,
// RemoveLocal and Close must be called from the game loop goroutine; Listen,
// ServeHTTP and Dial may run anywhere.
type Handler struct {
	logger    *zap.Logger
	upgrader  websocket.Upgrader
	factories map[uint8]Factory

	locals  map[uuid.UUID]Replicable
	order   []uuid.UUID // Locals in registration order
	remotes map[uuid.UUID]Replicable

	conn     *Conn
	accepted chan *Conn
	busy     atomic.Bool

	onConnect    func()
	onDisconnect func(err error)
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// NewHandler creates a handler with no peer.
func NewHandler(opts ...Option) *Handler {
	h := &Handler{
		logger: zap.NewNop(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		factories: make(map[uint8]Factory),
		locals:    make(map[uuid.UUID]Replicable),
		remotes:   make(map[uuid.UUID]Replicable),
		accepted:  make(chan *Conn, 1),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register sets the factory for remote entities of a type.
func (h *Handler) Register(typeID uint8, f Factory) {
	h.factories[typeID] = f
}

// OnConnect sets the callback run by Poll when a peer connects.
func (h *Handler) OnConnect(fn func()) {
	h.onConnect = fn
}

// OnDisconnect sets the callback run by Poll after the peer is gone and its
// entities have been released. err is nil for a normal close.
func (h *Handler) OnDisconnect(fn func(err error)) {
	h.onDisconnect = fn
}

// Connected reports whether a peer is attached.
func (h *Handler) Connected() bool {
	return h.conn != nil
}

// RemoteCount returns the number of remote entities.
func (h *Handler) RemoteCount() int {
	return len(h.remotes)
}

// Remote returns a remote entity.
func (h *Handler) Remote(id uuid.UUID) (Replicable, bool) {
	r, ok := h.remotes[id]
	return r, ok
}

// AddLocal starts replicating r to the peer and returns its entity ID.
func (h *Handler) AddLocal(r Replicable) uuid.UUID {
	id := uuid.New()
	h.locals[id] = r
	h.order = append(h.order, id)
	h.send(Frame{Kind: Spawn, TypeID: r.TypeID(), ID: id, Payload: r.Serialize()})
	return id
}

// RemoveLocal stops replicating an entity and tells the peer it is gone.
func (h *Handler) RemoveLocal(id uuid.UUID) {
	r, ok := h.locals[id]
	if !ok {
		return
	}
	delete(h.locals, id)
	for i, o := range h.order {
		if o == id {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
	h.send(Frame{Kind: Destroy, TypeID: r.TypeID(), ID: id})
}

// Listen serves peers on addr until ctx is done. Only one peer is accepted
// at a time.
func (h *Handler) Listen(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", addr)
	}
	h.logger.Info("waiting for a peer", zap.Stringer("addr", l.Addr()))

	srv := &http.Server{Handler: h, ReadHeaderTimeout: shutdownTimeout}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(l); !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "serve")
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// ServeHTTP upgrades a peer's request to a frame connection.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.busy.CompareAndSwap(false, true) {
		http.Error(w, ErrBusy.Error(), http.StatusConflict)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.busy.Store(false)
		h.logger.Warn("upgrade failed", zap.Error(err), zap.String("remote", r.RemoteAddr))
		return
	}
	h.logger.Info("peer connected", zap.String("remote", r.RemoteAddr))
	h.accepted <- newConn(ws, h.logger)
}

// Dial connects to a listening peer.
func (h *Handler) Dial(ctx context.Context, url string) error {
	if !h.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		h.busy.Store(false)
		return errors.Wrapf(err, "dial %s", url)
	}
	h.logger.Info("connected to peer", zap.String("url", url))
	h.accepted <- newConn(ws, h.logger)
	return nil
}

// Poll attaches a newly connected peer, applies everything it sent and
// sends the state of every local entity.
func (h *Handler) Poll() {
	select {
	case c := <-h.accepted:
		h.attach(c)
	default:
	}
	if h.conn == nil {
		return
	}

	for drained := false; !drained; {
		select {
		case f := <-h.conn.Frames():
			h.apply(f)
		default:
			drained = true
		}
	}

	select {
	case <-h.conn.Done():
		h.detach(h.conn.Err())
		return
	default:
	}

	for _, id := range h.order {
		r := h.locals[id]
		h.send(Frame{Kind: Update, TypeID: r.TypeID(), ID: id, Payload: r.Serialize()})
	}
}

// Close drops the peer, if any.
func (h *Handler) Close() error {
	if h.conn == nil {
		return nil
	}
	err := h.conn.Close()
	h.detach(nil)
	return err
}

func (h *Handler) attach(c *Conn) {
	h.conn = c
	for _, id := range h.order {
		r := h.locals[id]
		h.send(Frame{Kind: Spawn, TypeID: r.TypeID(), ID: id, Payload: r.Serialize()})
	}
	if h.onConnect != nil {
		h.onConnect()
	}
}

func (h *Handler) detach(err error) {
	if err != nil {
		h.logger.Warn("peer lost", zap.Error(err))
	} else {
		h.logger.Info("peer disconnected")
	}

	for id, r := range h.remotes {
		if rel, ok := r.(Releasable); ok {
			rel.Release()
		}
		delete(h.remotes, id)
	}
	h.conn = nil
	h.busy.Store(false)

	if h.onDisconnect != nil {
		h.onDisconnect(err)
	}
}

func (h *Handler) apply(f Frame) {
	if f.Kind == Destroy {
		r, ok := h.remotes[f.ID]
		if !ok {
			return
		}
		delete(h.remotes, f.ID)
		if rel, ok := r.(Releasable); ok {
			rel.Release()
		}
		return
	}

	// An update for an unknown entity spawns it, so a missed spawn heals.
	r, ok := h.remotes[f.ID]
	if !ok {
		factory, known := h.factories[f.TypeID]
		if !known {
			h.logger.Warn("dropping frame",
				zap.Error(errors.Wrapf(ErrUnknownType, "type %d", f.TypeID)),
				zap.Stringer("kind", f.Kind),
			)
			return
		}
		r = factory()
		h.remotes[f.ID] = r
		h.logger.Debug("remote entity spawned", zap.Stringer("id", f.ID), zap.Uint8("type", f.TypeID))
	}

	if err := r.Deserialize(f.Payload); err != nil {
		h.logger.Warn("bad payload", zap.Error(err), zap.Stringer("id", f.ID), zap.Uint8("type", f.TypeID))
	}
}

func (h *Handler) send(f Frame) {
	if h.conn == nil {
		return
	}
	if err := h.conn.Send(f); err != nil {
		h.logger.Debug("send failed", zap.Error(err), zap.Stringer("kind", f.Kind))
	}
}
