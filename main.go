package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/lumenkit/creative-toolkit/internal/cli"
	"github.com/lumenkit/creative-toolkit/internal/config"
	"github.com/lumenkit/creative-toolkit/internal/registry"
	"github.com/lumenkit/creative-toolkit/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
	ucli "github.com/urfave/cli/v3"
	"gopkg.in/natefinch/lumberjack.v2"

	// Import all tool packages to register them
	_ "github.com/lumenkit/creative-toolkit/internal/imports"
)

// Version information (set during build)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// Global resources that need cleanup. Atomic so signal handlers and cleanup don't race.
var (
	debugLogFile atomic.Pointer[lumberjack.Logger]
	isStdioMode  atomic.Bool
)

const (
	appName = "creative-toolkit"

	logMaxSizeMB  = 10
	logMaxBackups = 3
	logMaxAgeDays = 30

	shutdownTimeout          = 30 * time.Second
	defaultHeartbeatInterval = 30 * time.Second
)

// parseLogLevel parses the LOG_LEVEL environment variable, defaulting to WarnLevel
// if not set or invalid.
func parseLogLevel() logrus.Level {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))) {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.WarnLevel
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// .env has to be in the environment before the registry and log level read it
	dotenvErr := godotenv.Load()
	if errors.Is(dotenvErr, fs.ErrNotExist) {
		dotenvErr = nil
	}

	// Discard output until the transport is known
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(parseLogLevel())
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	registry.Init(logger)

	defer performCleanup(logger)

	app := &ucli.Command{
		Name:    appName,
		Usage:   "MCP server for code formatting and colour tools",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
		Flags: []ucli.Flag{
			&ucli.StringFlag{
				Name:    "transport",
				Aliases: []string{"t"},
				Value:   "stdio",
				Usage:   "Transport type (stdio, sse, or http)",
			},
			&ucli.StringFlag{
				Name:  "port",
				Value: "18080",
				Usage: "Port to use for HTTP transports (SSE and Streamable HTTP)",
			},
			&ucli.StringFlag{
				Name:  "base-url",
				Value: "http://localhost",
				Usage: "Base URL for HTTP transports",
			},
			&ucli.StringFlag{
				Name:    "auth-token",
				Usage:   "Bearer token required by the Streamable HTTP transport (optional)",
				Sources: ucli.EnvVars("CREATIVE_TOOLKIT_AUTH_TOKEN"),
			},
			&ucli.StringFlag{
				Name:  "endpoint-path",
				Value: "/http",
				Usage: "Endpoint path for Streamable HTTP transport",
			},
			&ucli.DurationFlag{
				Name:  "session-timeout",
				Value: 30 * time.Minute,
				Usage: "Session timeout for Streamable HTTP transport",
			},
			&ucli.StringFlag{
				Name:  "config",
				Usage: "Path to the defaults file (YAML or TOML, default: ~/.creative-toolkit/config.yaml)",
			},
		},
		Before: func(ctx context.Context, cmd *ucli.Command) (context.Context, error) {
			if path := cmd.String("config"); path != "" {
				if err := os.Setenv(config.ConfigPathEnvVar, path); err != nil {
					return ctx, fmt.Errorf("failed to set config path: %w", err)
				}
			}
			return ctx, nil
		},
		Commands: []*ucli.Command{
			{
				Name:  "version",
				Usage: "Print version information",
				Action: func(ctx context.Context, cmd *ucli.Command) error {
					fmt.Printf("%s version %s\n", appName, Version)
					fmt.Printf("Commit: %s\n", Commit)
					fmt.Printf("Built: %s\n", BuildDate)
					return nil
				},
			},
			{
				Name:  "config",
				Usage: "Print the effective configuration",
				Action: func(ctx context.Context, cmd *ucli.Command) error {
					return printConfig(cmd.Root().Writer)
				},
			},
			cliCommand(logger),
		},
		Action: func(cliCtx context.Context, cmd *ucli.Command) error {
			transport := cmd.String("transport")
			isStdioMode.Store(transport == "stdio")

			configureLogging(logger, isStdioMode.Load())
			if dotenvErr != nil {
				logger.WithError(dotenvErr).Warn("Failed to load .env file")
			}

			if err := tools.InitGlobalErrorLogger(logger); err != nil {
				logger.WithError(err).Debug("Failed to initialise tool error logger")
				if transport != "stdio" {
					logger.WithError(err).Warn("Failed to initialise tool error logger")
				}
			}

			watchConfig(cliCtx, logger)

			if transport != "stdio" {
				logger.Infof("Starting %s version %s (commit: %s, built: %s)", appName, Version, Commit, BuildDate)
			}

			mcpSrv := newMCPServer(logger, transport)

			logger.WithField("transport", transport).Debug("Starting server")
			switch transport {
			case "stdio":
				return mcpserver.ServeStdio(mcpSrv)
			case "sse":
				return startSSEServer(cliCtx, cmd, mcpSrv, logger)
			case "http":
				return startStreamableHTTPServer(cliCtx, cmd, mcpSrv, logger)
			default:
				return fmt.Errorf("unsupported transport: %s", transport)
			}
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		// In stdio mode nothing may reach stdout or stderr, even after ServeStdio returns
		if !isStdioMode.Load() {
			logger.SetOutput(os.Stderr)
			logger.Errorf("Error: %v", err)
		}
		performCleanup(logger)
		os.Exit(1)
	}
}

// configureLogging points the logger at the rotating ~/.creative-toolkit/logs/creative-toolkit.log.
// When the file cannot be opened quiet modes discard output and others use stderr.
func configureLogging(logger *logrus.Logger, quiet bool) {
	logLevel := parseLogLevel()

	file, err := openLogFile()
	switch {
	case err == nil:
		debugLogFile.Store(file)
		logger.SetOutput(file)
		logrus.SetOutput(file)
		// stdio uses warn level minimum
		if quiet && logLevel > logrus.WarnLevel {
			logLevel = logrus.WarnLevel
		}
	case quiet:
		logger.SetOutput(io.Discard)
		logrus.SetOutput(io.Discard)
	default:
		logger.SetOutput(os.Stderr)
		logrus.SetOutput(os.Stderr)
	}

	logger.SetLevel(logLevel)
	logrus.SetLevel(logLevel)
	logrus.SetFormatter(logger.Formatter)
	logger.WithField("level", logLevel.String()).Debug("Logging configured")
}

func openLogFile() (*lumberjack.Logger, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	logDir := filepath.Join(homeDir, ".creative-toolkit", "logs")
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	// lumberjack opens lazily; fail here rather than on the first write
	path := filepath.Join(logDir, appName+".log")
	probe, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	_ = probe.Close()

	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    logMaxSizeMB,
		MaxBackups: logMaxBackups,
		MaxAge:     logMaxAgeDays,
		Compress:   true,
	}, nil
}

// watchConfig reloads the defaults file on change when one exists
func watchConfig(ctx context.Context, logger *logrus.Logger) {
	path := config.Path()
	if _, err := os.Stat(path); err != nil {
		logger.WithField("path", path).Debug("No configuration file, using defaults")
		return
	}
	_ = config.Get()
	if err := config.Watch(ctx, path, logger); err != nil {
		logger.WithError(err).Warn("Configuration file will not be reloaded on change")
		return
	}
	logger.WithField("path", path).Debug("Watching configuration file")
}

func printConfig(w io.Writer) error {
	path := config.Path()
	data, err := config.Marshal(config.Get(), path)
	if err != nil {
		return fmt.Errorf("failed to render configuration: %w", err)
	}
	source := path
	if _, err := os.Stat(path); err != nil {
		source = "built-in defaults (" + path + " not found)"
	}
	_, err = fmt.Fprintf(w, "# %s\n%s", source, data)
	return err
}

// newMCPServer registers every enabled tool with a fresh MCP server
func newMCPServer(logger *logrus.Logger, transport string) *mcpserver.MCPServer {
	mcpSrv := mcpserver.NewMCPServer(appName, Version)

	enabledTools := registry.GetEnabledTools()
	logger.WithField("tool_count", len(enabledTools)).Debug("MCP server created, registering tools")

	for name, tool := range enabledTools {
		if transport != "stdio" {
			logger.Infof("Registering tool: %s", name)
		}
		mcpSrv.AddTool(tool.Definition(), toolHandler(name, logger, transport))
	}
	return mcpSrv
}

func toolHandler(name string, logger *logrus.Logger, transport string) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		// Look up again so a tool disabled after startup stops answering
		tool, ok := registry.GetTool(name)
		if !ok {
			return nil, fmt.Errorf("tool not found: %s", name)
		}

		args, ok := request.Params.Arguments.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("invalid arguments type: expected map[string]any, got %T", request.Params.Arguments)
		}

		result, err := tool.Execute(ctx, registry.GetLogger(), registry.GetCache(), args)
		if err != nil {
			if transport != "stdio" {
				logger.WithError(err).Errorf("Tool execution failed: %s", name)
			}
			if errorLogger := tools.GetGlobalErrorLogger(); errorLogger.IsEnabled() {
				errorLogger.LogToolError(name, args, err, transport)
			}
			return nil, fmt.Errorf("tool execution failed: %w", err)
		}
		return result, nil
	}
}

// cliCommand runs tools in-process without an MCP server
func cliCommand(logger *logrus.Logger) *ucli.Command {
	newRunner := func(cmd *ucli.Command) (*cli.Runner, error) {
		output := cli.OutputFormat(cmd.String("output"))
		if output != cli.OutputText && output != cli.OutputJSON {
			return nil, fmt.Errorf("unsupported output format %q (use text or json)", output)
		}
		configureLogging(logger, true)
		runner := cli.NewRunner(logger, registry.GetCache(), output)
		runner.SetOutput(cmd.Root().Writer)
		return runner, nil
	}

	return &ucli.Command{
		Name:  "cli",
		Usage: "Run tools directly from the command line",
		Flags: []ucli.Flag{
			&ucli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   string(cli.OutputText),
				Usage:   "Output format (text or json)",
			},
		},
		Commands: []*ucli.Command{
			{
				Name:  "list",
				Usage: "List enabled tools",
				Action: func(ctx context.Context, cmd *ucli.Command) error {
					runner, err := newRunner(cmd)
					if err != nil {
						return err
					}
					return runner.ListTools()
				},
			},
			{
				Name:      "help",
				Usage:     "Show a tool's parameters",
				ArgsUsage: "<tool>",
				Action: func(ctx context.Context, cmd *ucli.Command) error {
					if cmd.Args().Len() != 1 {
						return fmt.Errorf("usage: %s cli help <tool>", appName)
					}
					runner, err := newRunner(cmd)
					if err != nil {
						return err
					}
					return runner.HelpTool(cmd.Args().First())
				},
			},
			{
				Name:            "run",
				Usage:           "Run a tool with --flag=value arguments or a JSON object",
				ArgsUsage:       "<tool> [--param=value ...|--param-file=PATH|'{json}']",
				SkipFlagParsing: true,
				Action: func(ctx context.Context, cmd *ucli.Command) error {
					if cmd.Args().Len() < 1 {
						return fmt.Errorf("usage: %s cli run <tool> [args]", appName)
					}
					runner, err := newRunner(cmd)
					if err != nil {
						return err
					}
					args := cmd.Args().Slice()
					return runner.RunTool(ctx, args[0], args[1:])
				},
			},
		},
	}
}

// performCleanup releases the log files. Safe to call more than once.
func performCleanup(logger *logrus.Logger) {
	if file := debugLogFile.Swap(nil); file != nil {
		// can't safely log here: stdio allows no output and the logger may write to this file
		_ = file.Close()
	}

	if err := tools.GetGlobalErrorLogger().Close(); err != nil {
		logger.WithError(err).Warn("Failed to close tool error logger")
	}
}

// startSSEServer serves the SSE transport until ctx is cancelled
func startSSEServer(ctx context.Context, cmd *ucli.Command, mcpServer *mcpserver.MCPServer, logger *logrus.Logger) error {
	port := cmd.String("port")
	sseServer := mcpserver.NewSSEServer(mcpServer, mcpserver.WithBaseURL(cmd.String("base-url")+"/sse"))

	logger.WithField("port", port).Info("Starting SSE server")
	return serveUntilDone(ctx, logger, "SSE",
		func() error { return sseServer.Start(":" + port) },
		sseServer.Shutdown,
	)
}

// startStreamableHTTPServer configures the Streamable HTTP server behind its own
// http.Server so it can shut down gracefully
func startStreamableHTTPServer(ctx context.Context, cmd *ucli.Command, mcpServer *mcpserver.MCPServer, logger *logrus.Logger) error {
	port := cmd.String("port")
	authToken := cmd.String("auth-token")
	endpointPath := cmd.String("endpoint-path")
	sessionTimeout := cmd.Duration("session-timeout")

	logger.Infof("Starting Streamable HTTP server on port %s with endpoint %s", port, endpointPath)

	opts := []mcpserver.StreamableHTTPOption{
		mcpserver.WithEndpointPath(endpointPath),
		mcpserver.WithHTTPContextFunc(createRequestInspector(logger)),
		mcpserver.WithLogger(&logrusAdapter{logger: logger}),
	}

	heartbeatInterval := defaultHeartbeatInterval
	if sessionTimeout > 0 {
		opts = append(opts, mcpserver.WithSessionIdManager(NewTimeoutSessionManager(sessionTimeout, logger)))
		heartbeatInterval = sessionTimeout / 4
	}
	opts = append(opts, mcpserver.WithHeartbeatInterval(heartbeatInterval))
	logger.Infof("Heartbeat interval: %v", heartbeatInterval)

	var handler http.Handler = mcpserver.NewStreamableHTTPServer(mcpServer, opts...)
	if authToken != "" {
		handler = requireBearerToken(authToken, handler, logger)
		logger.Info("Bearer token authentication enabled")
	}

	mux := http.NewServeMux()
	mux.Handle(endpointPath, handler)

	server := &http.Server{
		Addr:           ":" + port,
		Handler:        mux,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	return serveUntilDone(ctx, logger, "HTTP", server.ListenAndServe, server.Shutdown)
}

// serveUntilDone runs serve in the background and shuts it down once ctx is cancelled
func serveUntilDone(ctx context.Context, logger *logrus.Logger, name string, serve func() error, shutdown func(context.Context) error) error {
	serverErr := make(chan error, 1)
	go func() {
		if err := serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("%s server failed: %w", name, err)
	case <-ctx.Done():
		logger.Infof("Shutdown signal received, stopping %s server", name)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Errorf("%s server shutdown failed", name)
		return err
	}

	logger.Infof("%s server stopped gracefully", name)
	return nil
}

// requireBearerToken rejects requests whose Authorization header does not carry token
func requireBearerToken(token string, next http.Handler, logger *logrus.Logger) http.Handler {
	const bearerPrefix = "Bearer "
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		authHeader := req.Header.Get("Authorization")
		switch {
		case authHeader == "":
			logger.Warn("Request missing Authorization header")
		case !strings.HasPrefix(authHeader, bearerPrefix):
			logger.Warn("Invalid authorization format, expected Bearer token")
		case subtle.ConstantTimeCompare([]byte(strings.TrimPrefix(authHeader, bearerPrefix)), []byte(token)) != 1:
			logger.Warn("Invalid authentication token")
		default:
			next.ServeHTTP(w, req)
			return
		}
		w.Header().Set("WWW-Authenticate", `Bearer realm="`+appName+`"`)
		http.Error(w, "unauthorised", http.StatusUnauthorized)
	})
}

// createRequestInspector logs protocol version and origin problems on incoming requests
func createRequestInspector(logger *logrus.Logger) mcpserver.HTTPContextFunc {
	return func(ctx context.Context, req *http.Request) context.Context {
		protocolVersion := req.Header.Get("MCP-Protocol-Version")
		switch {
		case protocolVersion == "":
			logger.Debug("No MCP-Protocol-Version header, assuming 2025-06-18")
		case !isValidProtocolVersion(protocolVersion):
			logger.Warnf("Unsupported MCP Protocol Version: %s", protocolVersion)
		default:
			logger.Debugf("MCP Protocol Version: %s", protocolVersion)
		}

		// DNS rebinding protection
		if origin := req.Header.Get("Origin"); origin != "" && !isValidOrigin(origin) {
			logger.Warnf("Invalid Origin header: %s", origin)
		}
		return ctx
	}
}

// isValidProtocolVersion checks if the MCP protocol version is supported
func isValidProtocolVersion(version string) bool {
	return slices.Contains([]string{"2025-06-18", "2025-03-26", "2024-11-05"}, version)
}

// isValidOrigin accepts localhost and loopback origins
func isValidOrigin(origin string) bool {
	for _, allowed := range []string{"http://localhost", "https://localhost", "http://127.0.0.1", "https://127.0.0.1"} {
		if origin == allowed || strings.HasPrefix(origin, allowed+":") || strings.HasPrefix(origin, allowed+"/") {
			return true
		}
	}
	return false
}

// TimeoutSessionManager issues UUID session IDs and expires sessions idle for
// longer than timeout
type TimeoutSessionManager struct {
	timeout time.Duration
	logger  *logrus.Logger
	now     func() time.Time

	mu       sync.Mutex
	lastSeen map[string]time.Time
}

func NewTimeoutSessionManager(timeout time.Duration, logger *logrus.Logger) *TimeoutSessionManager {
	return &TimeoutSessionManager{
		timeout:  timeout,
		logger:   logger,
		now:      time.Now,
		lastSeen: make(map[string]time.Time),
	}
}

func (t *TimeoutSessionManager) Generate() string {
	id := uuid.NewString()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.expireLocked()
	t.lastSeen[id] = t.now()
	return id
}

// Validate reports whether sessionID has been terminated or timed out
func (t *TimeoutSessionManager) Validate(sessionID string) (bool, error) {
	if sessionID == "" {
		return false, fmt.Errorf("empty session ID")
	}
	if err := uuid.Validate(sessionID); err != nil {
		return false, fmt.Errorf("invalid session ID: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	seen, ok := t.lastSeen[sessionID]
	if !ok {
		return true, nil
	}
	if t.now().Sub(seen) > t.timeout {
		delete(t.lastSeen, sessionID)
		t.logger.Debugf("Session expired: %s", sessionID)
		return true, nil
	}
	t.lastSeen[sessionID] = t.now()
	return false, nil
}

func (t *TimeoutSessionManager) Terminate(sessionID string) (bool, error) {
	t.mu.Lock()
	delete(t.lastSeen, sessionID)
	t.mu.Unlock()

	t.logger.Debugf("Session terminated: %s", sessionID)
	return false, nil
}

func (t *TimeoutSessionManager) expireLocked() {
	now := t.now()
	for id, seen := range t.lastSeen {
		if now.Sub(seen) > t.timeout {
			delete(t.lastSeen, id)
		}
	}
}

// logrusAdapter adapts logrus.Logger to the mcp-go util.Logger interface
type logrusAdapter struct {
	logger *logrus.Logger
}

func (l *logrusAdapter) Debugf(format string, args ...any) {
	l.logger.Debugf(format, args...)
}

func (l *logrusAdapter) Infof(format string, args ...any) {
	l.logger.Infof(format, args...)
}

func (l *logrusAdapter) Warnf(format string, args ...any) {
	l.logger.Warnf(format, args...)
}

func (l *logrusAdapter) Errorf(format string, args ...any) {
	l.logger.Errorf(format, args...)
}
