// ABOUTME: Entry point for the driftmail account manager CLI
// ABOUTME: Manages the accounts directory, selection state and event streaming

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/2389/driftmail/internal/accounts"
	"github.com/2389/driftmail/internal/config"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
     _      _  __ _                   _ _
  __| |_ __(_)/ _| |_ _ __ ___   __ _(_) |
 / _' | '__| | |_| __| '_ ' _ \ / _' | | |
| (_| | |  | |  _| |_| | | | | | (_| | | |
 \__,_|_|  |_|_|  \__|_| |_| |_|\__,_|_|_|
`

// getConfigPath returns the path to the driftmail config file.
// Priority: DRIFTMAIL_CONFIG env var > XDG_CONFIG_HOME/driftmail/config.yaml > ~/.config/driftmail/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("DRIFTMAIL_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "driftmail.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "driftmail", "config.yaml")
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "init":
		err = runInit()
	case "list":
		err = runList(ctx)
	case "add":
		err = runAdd(ctx)
	case "remove":
		err = runRemove(ctx, os.Args[2:])
	case "select":
		err = runSelect(ctx, os.Args[2:])
	case "import":
		err = runImport(ctx, os.Args[2:])
	case "gc":
		err = runGC(ctx)
	case "events":
		err = runEvents(ctx)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)
	fmt.Println("Usage: driftmail <command> [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  init               Create a config file and an accounts directory with one account")
	fmt.Println("  list               List all accounts")
	fmt.Println("  add                Create a new account and select it")
	fmt.Println("  remove <id>        Delete an account and its data")
	fmt.Println("  select <id>        Make an account the selected one")
	fmt.Println("  import <file>      Create a new account from a backup database")
	fmt.Println("  gc                 Run housekeeping on every account")
	fmt.Println("  events             Stream events from all accounts until interrupted")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  DRIFTMAIL_CONFIG   Config file path (default: ~/.config/driftmail/config.yaml)")
	fmt.Println()
}

// loadConfig reads the config file, falling back to defaults when it does
// not exist yet.
func loadConfig() (*config.Config, error) {
	configPath := getConfigPath()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

// openAccounts loads the config, configures logging and opens the accounts
// directory.
func openAccounts(ctx context.Context) (*accounts.Accounts, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(setupLogger(cfg.Logging))

	mgr, err := accounts.New(ctx, cfg.Accounts.OSName, cfg.Accounts.Dir)
	if err != nil {
		return nil, fmt.Errorf("opening accounts: %w", err)
	}
	return mgr, nil
}

func runInit() error {
	configPath := getConfigPath()
	cfg := config.Default()

	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)

	if _, err := os.Stat(configPath); err == nil {
		cyan.Printf("  Using existing config: %s\n", configPath)
	} else {
		configDir := filepath.Dir(configPath)
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		configContent := fmt.Sprintf(`# driftmail configuration
# Generated by driftmail init

accounts:
  dir: "%s"
  os_name: "%s"

housekeeping:
  interval: "24h"

logging:
  level: "info"
  format: "text"
`, cfg.Accounts.Dir, cfg.Accounts.OSName)

		if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}
		green.Printf("  ✓ Created config: %s\n", configPath)
	}

	mgr, err := accounts.New(context.Background(), cfg.Accounts.OSName, cfg.Accounts.Dir)
	if err != nil {
		return fmt.Errorf("creating accounts directory: %w", err)
	}
	defer mgr.Shutdown()

	green.Printf("  ✓ Accounts directory: %s\n", cfg.Accounts.Dir)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  driftmail list     # show accounts")
	fmt.Println("  driftmail add      # create another account")

	return nil
}

func runList(ctx context.Context) error {
	mgr, err := openAccounts(ctx)
	if err != nil {
		return err
	}
	defer mgr.Shutdown()

	ids := mgr.All()
	if len(ids) == 0 {
		fmt.Println("No accounts. Create one with: driftmail add")
		return nil
	}

	selected, err := mgr.SelectedAccount()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATABASE\tSELECTED")
	for _, id := range ids {
		actx, err := mgr.Account(id)
		if err != nil {
			return err
		}
		mark := ""
		if actx == selected {
			mark = "*"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", id, actx.DBFile(), mark)
	}
	return w.Flush()
}

func runAdd(ctx context.Context) error {
	mgr, err := openAccounts(ctx)
	if err != nil {
		return err
	}
	defer mgr.Shutdown()

	id, err := mgr.AddAccount(ctx)
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	green.Printf("  ✓ Created account %d\n", id)
	return nil
}

func runRemove(ctx context.Context, args []string) error {
	id, err := parseAccountID(args)
	if err != nil {
		return err
	}

	mgr, err := openAccounts(ctx)
	if err != nil {
		return err
	}
	defer mgr.Shutdown()

	if err := mgr.RemoveAccount(id); err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	green.Printf("  ✓ Removed account %d\n", id)
	return nil
}

func runSelect(ctx context.Context, args []string) error {
	id, err := parseAccountID(args)
	if err != nil {
		return err
	}

	mgr, err := openAccounts(ctx)
	if err != nil {
		return err
	}
	defer mgr.Shutdown()

	if err := mgr.SelectAccount(id); err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	green.Printf("  ✓ Selected account %d\n", id)
	return nil
}

func runImport(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: driftmail import <file>")
	}
	file := args[0]

	mgr, err := openAccounts(ctx)
	if err != nil {
		return err
	}
	defer mgr.Shutdown()

	id, err := mgr.ImportAccount(ctx, file)
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	green.Printf("  ✓ Imported %s as account %d\n", file, id)
	return nil
}

func runGC(ctx context.Context) error {
	mgr, err := openAccounts(ctx)
	if err != nil {
		return err
	}
	defer mgr.Shutdown()

	for _, id := range mgr.All() {
		actx, err := mgr.Account(id)
		if err != nil {
			return err
		}
		if err := actx.Housekeeping(ctx); err != nil {
			return fmt.Errorf("housekeeping account %d: %w", id, err)
		}
		fmt.Printf("  ✓ Account %d cleaned\n", id)
	}
	return nil
}

func runEvents(ctx context.Context) error {
	mgr, err := openAccounts(ctx)
	if err != nil {
		return err
	}
	defer mgr.Shutdown()

	emitter := mgr.EventEmitter()
	defer emitter.Close()

	mgr.StartIO()
	defer mgr.StopIO()

	gray := color.New(color.FgHiBlack)
	gray.Println("Streaming events, press Ctrl-C to stop...")

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-emitter.C():
			if !ok {
				return nil
			}
			fmt.Printf("[account %d] %s", ev.AccountID, ev.Kind)
			if ev.Msg != "" {
				fmt.Printf(": %s", ev.Msg)
			}
			fmt.Println()
		}
	}
}

func parseAccountID(args []string) (uint64, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("account id required")
	}
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid account id %q", args[0])
	}
	return id, nil
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
