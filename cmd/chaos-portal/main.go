// ABOUTME: Entry point for the chaos-portal web server
// ABOUTME: Serves the session-gated demo portal and its helper commands

package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/mbeier1406/chaos-portal/internal/auth"
	"github.com/mbeier1406/chaos-portal/internal/config"
	"github.com/mbeier1406/chaos-portal/internal/policy"
	"github.com/mbeier1406/chaos-portal/internal/session"
	"github.com/mbeier1406/chaos-portal/internal/store"
	"github.com/mbeier1406/chaos-portal/internal/web"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
       _
   ___| |__   __ _  ___  ___       _ __   ___  _ __| |_ __ _| |
  / __| '_ \ / _' |/ _ \/ __|_____| '_ \ / _ \| '__| __/ _' | |
 | (__| | | | (_| | (_) \__ \_____| |_) | (_) | |  | || (_| | |
  \___|_| |_|\__,_|\___/|___/     | .__/ \___/|_|   \__\__,_|_|
                                  |_|
`

// sweepInterval is how often expired sessions are removed from the store.
const sweepInterval = time.Minute

// getConfigPath returns the path to the portal config file.
// Priority: CHAOS_CONFIG env var > XDG_CONFIG_HOME/chaos-portal/portal.yaml > ~/.config/chaos-portal/portal.yaml
func getConfigPath() string {
	if envPath := os.Getenv("CHAOS_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "portal.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "chaos-portal", "portal.yaml")
}

// getDataPath returns the path to the portal data directory.
// Priority: XDG_DATA_HOME/chaos-portal > ~/.local/share/chaos-portal
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "chaos-portal")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: chaos-portal <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve    Start the portal server")
		fmt.Println("  init     Create a new config file interactively")
		fmt.Println("  hash     Generate a bcrypt password hash for the config")
		fmt.Println("  health   Check portal health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "hash":
		err = runHash()
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	// Version info
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger. The packages log through slog.Default.
	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	// Startup info
	green := color.New(color.FgGreen)

	green.Print("    ▶ ")
	fmt.Printf("Config:   %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:     %s\n", cfg.Server.HTTPAddr)
	if cfg.Server.BasePath != "" {
		green.Print("    ▶ ")
		fmt.Printf("Base:     %s\n", cfg.Server.BasePath)
	}
	green.Print("    ▶ ")
	if cfg.Database.Ephemeral {
		fmt.Printf("Sessions: in-memory (ephemeral)\n")
	} else {
		fmt.Printf("Sessions: %s\n", cfg.Database.Path)
	}

	fmt.Println()

	logger.Info("starting chaos-portal",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"base_path", cfg.Server.BasePath,
	)

	// Open the session store
	var st store.SessionStore
	if cfg.Database.Ephemeral {
		st = store.NewMemoryStore()
	} else {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
		st, err = store.NewSQLiteStore(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("opening session store: %w", err)
		}
	}
	defer st.Close()

	sessions := session.NewManager(st, auth.Principal{
		Username:     cfg.Login.Username,
		PasswordHash: cfg.Login.PasswordHash,
	}, cfg.Session)

	pol := policy.New(cfg.Pages.ResourcePrefixes, cfg.Pages.Public, cfg.Pages.ProtectedOverrides)

	portal, err := web.New(cfg, sessions, pol)
	if err != nil {
		return fmt.Errorf("creating portal: %w", err)
	}

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: portal.Handler(),
	}

	// Sweep expired sessions in the background until shutdown.
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := sessions.Sweep(ctx)
				if err != nil {
					logger.Error("session sweep failed", "error", err)
					continue
				}
				if removed > 0 {
					logger.Debug("swept expired sessions", "removed", removed)
				}
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = &colorHandler{
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	// Format timestamp
	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	// Colorize level
	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	// Print message
	buf.WriteString(r.Message)

	// Print handler-level attrs first (from WithAttrs)
	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}

	// Print record attrs
	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}

// runHash generates a bcrypt hash for the login.password_hash config field.
// The plaintext never lands in the config file.
func runHash() error {
	reader := bufio.NewReader(os.Stdin)

	password := prompt(reader, "Password", "")
	if password == "" {
		return fmt.Errorf("password must not be empty")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	fmt.Println()
	fmt.Println("Add this to your config file:")
	fmt.Println()
	fmt.Println("login:")
	fmt.Printf("  password_hash: \"%s\"\n", hash)
	return nil
}

func runHealth(ctx context.Context) error {
	configPath := getConfigPath()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// The hello endpoint is public and carries no session semantics.
	url := fmt.Sprintf("http://%s%s/hello", cfg.Server.HTTPAddr, cfg.Server.BasePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("chaos-portal configuration setup")
	fmt.Println("================================")
	fmt.Println()

	// Default paths
	defaultConfigPath := getConfigPath()
	defaultDataPath := getDataPath()
	defaultDbPath := filepath.Join(defaultDataPath, "portal.db")

	// Output filename
	outputFile := prompt(reader, "Config file path", defaultConfigPath)

	// Check if file exists
	if _, err := os.Stat(outputFile); err == nil {
		overwrite := prompt(reader, "File exists. Overwrite?", "no")
		if strings.ToLower(overwrite) != "yes" && strings.ToLower(overwrite) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	// Server configuration
	fmt.Println("\n--- Server Configuration ---")
	httpAddr := prompt(reader, "HTTP address", "localhost:8080")
	basePath := prompt(reader, "Base path (empty for root)", "")

	// Login
	fmt.Println("\n--- Login Configuration ---")
	username := prompt(reader, "Username", "admin")
	password := prompt(reader, "Password", "")
	if password == "" {
		return fmt.Errorf("password must not be empty")
	}
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	// Sessions
	fmt.Println("\n--- Session Configuration ---")
	idleTimeout := prompt(reader, "Idle timeout", "30m")
	dbPath := prompt(reader, "SQLite session store path", defaultDbPath)

	// Logging
	fmt.Println("\n--- Logging Configuration ---")
	logLevel := prompt(reader, "Log level (debug/info/warn/error)", "info")
	logFormat := prompt(reader, "Log format (text/json)", "text")

	// Generate config
	var cfg strings.Builder
	cfg.WriteString("# chaos-portal configuration\n")
	cfg.WriteString("# Generated by chaos-portal init\n\n")

	cfg.WriteString("server:\n")
	cfg.WriteString(fmt.Sprintf("  http_addr: \"%s\"\n", httpAddr))
	if basePath != "" {
		cfg.WriteString(fmt.Sprintf("  base_path: \"%s\"\n", basePath))
	}
	cfg.WriteString("\n")

	cfg.WriteString("login:\n")
	cfg.WriteString(fmt.Sprintf("  username: \"%s\"\n", username))
	cfg.WriteString(fmt.Sprintf("  password_hash: \"%s\"\n", passwordHash))
	cfg.WriteString("\n")

	cfg.WriteString("session:\n")
	cfg.WriteString(fmt.Sprintf("  idle_timeout: \"%s\"\n", idleTimeout))
	cfg.WriteString("\n")

	cfg.WriteString("database:\n")
	cfg.WriteString(fmt.Sprintf("  path: \"%s\"\n", dbPath))
	cfg.WriteString("\n")

	cfg.WriteString("logging:\n")
	cfg.WriteString(fmt.Sprintf("  level: \"%s\"\n", logLevel))
	cfg.WriteString(fmt.Sprintf("  format: \"%s\"\n", logFormat))

	// Ensure config directory exists
	configDir := filepath.Dir(outputFile)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	// Write config file. It carries no plaintext secrets, but keep it private.
	if err := os.WriteFile(outputFile, []byte(cfg.String()), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	// Ensure data directory exists
	dataDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	fmt.Printf("\nConfig written to %s\n", outputFile)
	fmt.Printf("Data directory: %s\n", dataDir)
	fmt.Println("\nTo start the server:")
	fmt.Printf("  chaos-portal serve\n")

	return nil
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		// On EOF or error, return default
		fmt.Println()
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}
