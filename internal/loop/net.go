package loop

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tomz197/chaosjump/internal/game"
	"github.com/tomz197/chaosjump/internal/netplay"
	"github.com/tomz197/chaosjump/internal/object"
)

const dialTimeout = 5 * time.Second

// netSession wires a game mode to a replication handler. Everything but the
// listener and dialer goroutines runs on the frame loop.
type netSession struct {
	handler *netplay.Handler
	mode    *game.Mode
	logger  *zap.Logger
	hosting bool
	modeID  uuid.UUID
	status  string
	cancel  context.CancelFunc
	errs    chan error
}

func newNetSession(mode *game.Mode, logger *zap.Logger) *netSession {
	s := &netSession{
		handler: netplay.NewHandler(netplay.WithLogger(logger)),
		mode:    mode,
		logger:  logger,
		cancel:  func() {},
		errs:    make(chan error, 1),
	}

	s.handler.Register(object.PlayerTypeID, func() netplay.Replicable { return mode.NewRemotePlayer() })
	s.handler.Register(game.ModeTypeID, func() netplay.Replicable { return mode })
	s.handler.AddLocal(mode.LocalPlayer())

	s.handler.OnConnect(s.connected)
	s.handler.OnDisconnect(s.disconnected)
	return s
}

func (s *netSession) connected() {
	if s.hosting {
		s.mode.PeerJoined()
		s.modeID = s.handler.AddLocal(s.mode)
		s.status = "Second player joined"
		return
	}
	s.mode.SetRole(game.Client)
	s.status = "Connected to host"
}

func (s *netSession) disconnected(err error) {
	if s.hosting {
		s.handler.RemoveLocal(s.modeID)
		s.status = "Second player left, waiting"
	} else {
		s.status = "Disconnected from host"
	}
	if err != nil {
		s.status += ": " + err.Error()
	}
	s.mode.SetRole(game.Solo)
}

// Host starts listening for a second player. It is a no-op once a session
// is set up.
func (s *netSession) Host(addr string) {
	if s.hosting || s.handler.Connected() {
		return
	}
	s.hosting = true
	s.status = fmt.Sprintf("Hosting on %s, waiting for a second player", addr)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go func() {
		if err := s.handler.Listen(ctx, addr); err != nil {
			s.report(err)
		}
	}()
}

// Join connects to a host.
func (s *netSession) Join(url string) {
	s.status = "Joining " + url

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	go func() {
		defer cancel()
		if err := s.handler.Dial(ctx, url); err != nil {
			s.report(err)
		}
	}()
}

func (s *netSession) report(err error) {
	select {
	case s.errs <- err:
	default:
	}
}

// Poll exchanges replication frames and surfaces background errors.
func (s *netSession) Poll() {
	select {
	case err := <-s.errs:
		s.logger.Warn("network failure", zap.Error(err))
		s.status = "Network error: " + err.Error()
		s.hosting = false
	default:
	}
	s.handler.Poll()
}

// Status returns a one-line description of the session, empty when solo.
func (s *netSession) Status() string {
	return s.status
}

// Close drops the peer and stops listening.
func (s *netSession) Close() error {
	s.cancel()
	return s.handler.Close()
}
