package main

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/logging"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tomz197/chaosjump/internal/config"
	"github.com/tomz197/chaosjump/internal/draw"
	applog "github.com/tomz197/chaosjump/internal/logging"
	"github.com/tomz197/chaosjump/internal/loop"
)

const (
	defaultHost        = "::"
	defaultPort        = "2222"
	defaultHostKeyPath = "/app/keys/host_key"
	shutdownTimeout    = 15 * time.Second
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	logger := applog.Must(cfg.Log.Level, cfg.Log.Paths)
	defer logger.Sync()

	// Every session plays its own solo world. Hosting would make every
	// session compete for the same listen address.
	cfg.Net.HostAddr = ""
	cfg.Net.JoinURL = ""

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	host := config.GetEnv("SSH_HOST", defaultHost)
	port := config.GetEnv("SSH_PORT", defaultPort)
	hostKeyPath := config.GetEnv("SSH_HOST_KEY", defaultHostKeyPath)
	logger.Info("ssh config", zap.String("host", host), zap.String("port", port), zap.String("host_key", hostKeyPath))

	hub := loop.NewHub(logger)

	opts := []ssh.Option{
		wish.WithAddress(net.JoinHostPort(host, port)),
		wish.WithMiddleware(
			gameMiddleware(cfg, hub, logger),
			activeterm.Middleware(),
			logging.Middleware(),
		),
		// Set TCP_NODELAY to reduce latency for game input
		ssh.WrapConn(func(ctx ssh.Context, conn net.Conn) net.Conn {
			if tcpConn, ok := conn.(*net.TCPConn); ok {
				_ = tcpConn.SetNoDelay(true)
			}
			return conn
		}),
	}
	if hostKeyPath != "" {
		opts = append(opts, wish.WithHostKeyPath(hostKeyPath))
	}

	s, err := wish.NewServer(opts...)
	if err != nil {
		return errors.Wrap(err, "create server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting ssh server", zap.String("addr", s.Addr))
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			return errors.Wrap(err, "listen")
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down server")

		// Notify players and wait for them to disconnect
		hub.Shutdown(shutdownTimeout)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// gameMiddleware runs a game session for every SSH session with a PTY.
func gameMiddleware(cfg config.Config, hub *loop.Hub, logger *zap.Logger) wish.Middleware {
	return func(next ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			pty, winCh, ok := sess.Pty()
			if !ok {
				fmt.Fprintln(sess, "Error: PTY required. Please connect with: ssh -t user@host")
				return
			}

			logger.Info("new game session",
				zap.String("user", sess.User()),
				zap.String("terminal", pty.Term),
				zap.Int("width", pty.Window.Width),
				zap.Int("height", pty.Window.Height),
			)

			// Create a terminal size tracker that updates on window changes
			sizeTracker := newSizeTracker(pty.Window.Width, pty.Window.Height)
			go func() {
				for win := range winCh {
					sizeTracker.update(win.Width, win.Height)
				}
			}()

			err := loop.Run(bufio.NewReader(sess), sess, loop.Options{
				Config:       cfg,
				Logger:       logger,
				TermSizeFunc: sizeTracker.getSize,
				Hub:          hub,
				Username:     sess.User(),
			})
			if err != nil {
				logger.Warn("game error", zap.String("user", sess.User()), zap.Error(err))
			}

			logger.Info("session ended", zap.String("user", sess.User()))
			next(sess)
		}
	}
}

// sizeTracker tracks terminal size from SSH window change events.
type sizeTracker struct {
	mu     sync.RWMutex
	width  int
	height int
}

func newSizeTracker(width, height int) *sizeTracker {
	return &sizeTracker{width: width, height: height}
}

func (s *sizeTracker) update(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = width
	s.height = height
}

func (s *sizeTracker) getSize() (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height, nil
}

// Ensure sizeTracker.getSize satisfies draw.TermSizeFunc
var _ draw.TermSizeFunc = (*sizeTracker)(nil).getSize
