// Command connect-in-the-dark starts the Connect in the Dark game server.
//
// It supports two modes:
//  1. "serve" (default) – runs the HTTP server exposing the game websocket, the lobby REST API, /metrics and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags (each with an environment variable fallback) control host/port, the
// static client directory, the board variant, logging, and optional ngrok
// tunneling for easy external access during development.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/connect-in-the-dark/api"
	"github.com/wricardo/connect-in-the-dark/game/config"
	"github.com/wricardo/connect-in-the-dark/game/service"
	"github.com/wricardo/connect-in-the-dark/game/session"
	"github.com/wricardo/connect-in-the-dark/logger"
	"github.com/wricardo/connect-in-the-dark/metrics"
	"github.com/wricardo/connect-in-the-dark/transport/mcp"
	"github.com/wricardo/connect-in-the-dark/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Connect in the Dark Server"
)

const shutdownTimeout = 10 * time.Second

// main loads .env, parses flags and runs the selected mode.
func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: error loading .env file: %v\n", err)
	}

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "connect-in-the-dark",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Value: "0.0.0.0", Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
			&cli.IntFlag{Name: "port", Value: 8000, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
			&cli.StringFlag{Name: "static-dir", Value: api.DefaultStaticDir, Usage: "Directory with the browser client", Sources: cli.EnvVars("STATIC_DIR")},
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "Directory containing board variants", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.StringFlag{Name: "variant", Value: config.DefaultName, Usage: "Board variant used for new games", Sources: cli.EnvVars("VARIANT")},
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "Log level (debug, info, warn, error)", Sources: cli.EnvVars("LOG_LEVEL")},
			&cli.StringFlag{Name: "log-format", Value: "console", Usage: "Log format (console, json)", Sources: cli.EnvVars("LOG_FORMAT")},
			&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging", Sources: cli.EnvVars("DEBUG")},
			&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (optional)", Sources: cli.EnvVars("NGROK_DOMAIN")},
		},
		Commands: []*cli.Command{
			{
				Name:    "serve",
				Aliases: []string{"server", "http"},
				Usage:   "Run the HTTP server with websocket, REST API, metrics and MCP endpoint (default)",
				Action:  runServe,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run an MCP stdio server, with an internal HTTP server if none is running",
				Action:  runStdioMCP,
			},
		},
		Action: runServe,
	}
}

// settings is the parsed command line
type settings struct {
	host        string
	port        int
	staticDir   string
	configDir   string
	variant     string
	logLevel    string
	logFormat   string
	ngrok       bool
	ngrokAuth   string
	ngrokDomain string
}

func settingsFrom(cmd *cli.Command) settings {
	s := settings{
		host:        cmd.String("host"),
		port:        int(cmd.Int("port")),
		staticDir:   cmd.String("static-dir"),
		configDir:   cmd.String("config-dir"),
		variant:     cmd.String("variant"),
		logLevel:    cmd.String("log-level"),
		logFormat:   cmd.String("log-format"),
		ngrok:       cmd.Bool("ngrok"),
		ngrokAuth:   cmd.String("ngrok-auth"),
		ngrokDomain: cmd.String("ngrok-domain"),
	}
	if cmd.Bool("debug") {
		s.logLevel = "debug"
	}
	return s
}

func (s settings) addr() string {
	return net.JoinHostPort(s.host, strconv.Itoa(s.port))
}

// localURL is where a process on this machine reaches the server
func (s settings) localURL() string {
	host := s.host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(s.port))
}

// app holds the wired server components
type app struct {
	logger  *zap.Logger
	metrics *metrics.Metrics
	configs *config.Manager
	service service.GameService
	hub     *websocket.Hub
}

// newServerApp wires registries, dispatcher, hub and metrics.
func newServerApp(s settings, log *zap.Logger) (*app, error) {
	configs, err := config.NewManager(s.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}
	if err := configs.SetDefault(s.variant); err != nil {
		return nil, fmt.Errorf("failed to load variant %q: %w", s.variant, err)
	}

	m := metrics.New()
	games := session.NewGameStore()
	sessions := session.NewManager(games)
	clients := session.NewClientRegistry()

	gameService := service.NewGameService(sessions, clients, configs,
		service.WithLogger(log),
		service.WithMetrics(m),
	)
	m.RegisterGauges(metrics.Gauges{
		Clients:  clients.Count,
		Sessions: sessions.Count,
		Games:    games.Count,
	})

	hub := websocket.NewHub(gameService,
		websocket.WithLogger(log),
		websocket.WithMetrics(m),
	)

	variant := configs.GetDefault()
	log.Info("board variant selected",
		zap.String("variant", variant.Name),
		zap.Int("width", variant.Width),
		zap.Int("height", variant.Height),
		zap.Int("run_length", variant.RunLength))

	return &app{
		logger:  log,
		metrics: m,
		configs: configs,
		service: gameService,
		hub:     hub,
	}, nil
}

// handler combines the API server and an /mcp endpoint proxying to baseURL
func (a *app) handler(staticDir, baseURL string) http.Handler {
	apiServer := api.NewServer(a.service, a.hub,
		api.WithStaticDir(staticDir),
		api.WithMetrics(a.metrics),
		api.WithLogger(a.logger),
	)
	mcpClient := mcp.NewClient(baseURL)

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})
	return mainRouter
}

func newLogger(s settings, out io.Writer) (*zap.Logger, error) {
	return logger.New(logger.Options{Level: s.logLevel, Format: s.logFormat, Output: out})
}

// runServe starts the HTTP server and, if enabled, an ngrok tunnel. It
// returns after SIGINT/SIGTERM once every connection has been closed.
func runServe(ctx context.Context, cmd *cli.Command) error {
	s := settingsFrom(cmd)
	log, err := newLogger(s, os.Stdout)
	if err != nil {
		return err
	}
	defer log.Sync()

	log.Info("starting", zap.String("app", AppName), zap.String("version", Version))

	a, err := newServerApp(s, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go a.hub.Run(ctx)

	handler := a.handler(s.staticDir, s.localURL())
	httpServer := &http.Server{
		Addr:              s.addr(),
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening",
			zap.String("addr", s.addr()),
			zap.String("websocket", "ws://"+s.addr()+"/api/ws/{client_id}"),
			zap.String("mcp", s.localURL()+"/mcp"))

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	var wg sync.WaitGroup
	if s.ngrok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, s, handler, log)
		}()
	}

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err = <-serveErr:
		log.Error("HTTP server failed", zap.Error(err))
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP server shutdown error", zap.Error(err))
	}
	select {
	case <-a.hub.Done():
	case <-shutdownCtx.Done():
		log.Warn("timed out closing websocket connections")
	}

	wg.Wait()
	log.Info("server stopped")
	if err != nil {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}

// runNgrok serves handler through an ngrok tunnel until ctx is cancelled
func runNgrok(ctx context.Context, s settings, handler http.Handler, log *zap.Logger) {
	log = log.Named("ngrok")
	if s.ngrokAuth == "" {
		log.Warn("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if s.ngrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(s.ngrokDomain))
		log.Info("using custom ngrok domain", zap.String("domain", s.ngrokDomain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(s.ngrokAuth))
	if err != nil {
		log.Error("failed to start ngrok tunnel", zap.Error(err))
		return
	}

	ngrokURL := tun.URL()
	log.Info("ngrok tunnel established",
		zap.String("url", ngrokURL),
		zap.String("websocket", ngrokURL+"/api/ws/{client_id}"))

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Warn("failed to close ngrok tunnel", zap.Error(err))
		}
	}()

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.Error("ngrok server error", zap.Error(err))
	}
	log.Info("ngrok tunnel closed")
}

// apiAvailable reports whether a Connect in the Dark server answers at baseURL
func apiAvailable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/api/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// runStdioMCP runs an MCP stdio server. It reuses a server already running
// at --host/--port; otherwise it starts an internal HTTP server on a random
// loopback port and targets that. Logs go to stderr; stdout carries MCP.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	s := settingsFrom(cmd)
	log, err := newLogger(s, os.Stderr)
	if err != nil {
		return err
	}
	defer log.Sync()

	baseURL := s.localURL()
	log.Info("checking for a running API server", zap.String("url", baseURL))

	if apiAvailable(baseURL) {
		log.Info("using external API server for MCP", zap.String("url", baseURL))
	} else {
		a, err := newServerApp(s, log)
		if err != nil {
			return err
		}

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		baseURL = "http://" + listener.Addr().String()

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		go a.hub.Run(ctx)

		httpServer := &http.Server{Handler: a.handler(s.staticDir, baseURL)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("internal HTTP server error", zap.Error(err))
			}
		}()
		defer httpServer.Close()

		log.Info("started internal HTTP server for MCP stdio", zap.String("url", baseURL))
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Info("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
