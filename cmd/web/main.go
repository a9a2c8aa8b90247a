package main

import (
	_ "embed"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tomz197/chaosjump/internal/config"
	"github.com/tomz197/chaosjump/internal/logging"
)

const (
	defaultHost = "0.0.0.0"
	defaultPort = "8080"
)

//go:embed index.html
var htmlPage string

func main() {
	host := config.GetEnv("WEB_HOST", defaultHost)
	port := config.GetEnv("WEB_PORT", defaultPort)
	sshHost := config.GetEnv("SSH_DISPLAY_HOST", "your-server.com")
	logger := logging.Must(config.GetEnv("CHAOSJUMP_LOG_LEVEL", "info"), []string{"stderr"})
	defer logger.Sync()

	page := strings.ReplaceAll(htmlPage, "{{.SSHHost}}", sshHost)

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	})

	srv := &http.Server{
		Addr:              net.JoinHostPort(host, port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info("starting web server", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
