package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gopxl/beep"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ctoth/soundscape/internal/config"
	"github.com/ctoth/soundscape/internal/fs"
	"github.com/ctoth/soundscape/internal/output"
	"github.com/ctoth/soundscape/internal/tracking"
)

const Version = "0.1.0"

// CLI represents the command-line interface
type CLI struct {
	rootCmd          *cobra.Command
	fs               afero.Fs
	fsFactory        fs.Factory
	configManager    *config.ConfigManager
	newBackends      func(rate beep.SampleRate) output.BackendFactory
	terminalDetector TerminalDetector

	sessionID  string
	configPath string // file preferences are saved to
	historyDB  *sql.DB
	logFile    *lumberjack.Logger
}

type cliKey struct{}

// NewCLI creates a CLI working on the OS filesystem
func NewCLI() *CLI {
	factory := fs.NewDefaultFactory()
	return newCLIWithFilesystem(factory, factory.Production())
}

// newCLIWithFilesystem creates a CLI whose config and sounds live on filesystem
func newCLIWithFilesystem(factory fs.Factory, filesystem afero.Fs) *CLI {
	slog.Debug("creating new CLI instance")

	rootCmd := &cobra.Command{
		Use:   "soundscape",
		Short: "Ambient soundscape mixer",
		Long: `soundscape mixes a music channel with rain, forest, ocean and fire ambiences.

Each channel loops its source and has its own volume under a master volume.
Music changes can crossfade. Sources are soundpack ids, file paths or URLs.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handled, err := handleVersionFlag(cmd); handled || err != nil {
				return err
			}
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	rootCmd.PersistentFlags().String("backend", "", "Audio backend (auto, malgo, oto, null)")
	rootCmd.PersistentFlags().String("soundpack", "", "Soundpack name or path")
	rootCmd.PersistentFlags().String("master", "", "Master volume (0 to 100)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("no-history", false, "Do not record playback history")
	rootCmd.Flags().BoolP("version", "v", false, "Show version information")

	rootCmd.AddCommand(newSessionCommand())
	rootCmd.AddCommand(newPlayCommand())
	rootCmd.AddCommand(newHistoryCommand())
	rootCmd.AddCommand(newFormatsCommand())

	return &CLI{
		rootCmd:       rootCmd,
		fs:            filesystem,
		fsFactory:     factory,
		configManager: config.NewConfigManagerWithFilesystem(filesystem),
		newBackends: func(rate beep.SampleRate) output.BackendFactory {
			return output.NewBackendFactory(rate)
		},
		sessionID: uuid.NewString(),
	}
}

func contextWithCLI(ctx context.Context, cli *CLI) context.Context {
	return context.WithValue(ctx, cliKey{}, cli)
}

func cliFromContext(ctx context.Context) *CLI {
	if cli, ok := ctx.Value(cliKey{}).(*CLI); ok {
		return cli
	}
	return nil
}

// mustCLI extracts the CLI from a command's context
func mustCLI(cmd *cobra.Command) (*CLI, error) {
	cli := cliFromContext(cmd.Context())
	if cli == nil {
		slog.Error("CLI instance not found in context")
		return nil, fmt.Errorf("CLI instance not found in context")
	}
	return cli, nil
}

func versionString() string {
	return fmt.Sprintf("soundscape version %s\n", Version)
}

// handleVersionFlag prints the version when --version is set
func handleVersionFlag(cmd *cobra.Command) (bool, error) {
	if version, _ := cmd.Flags().GetBool("version"); version {
		cmd.Print(versionString())
		return true, nil
	}
	return false, nil
}

// Run executes the CLI with the given arguments and I/O streams
func (c *CLI) Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	return c.RunContext(context.Background(), args, stdin, stdout, stderr)
}

// RunContext is Run with a caller-supplied context
func (c *CLI) RunContext(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	slog.Debug("CLI run started", "args", args, "session_id", c.sessionID)

	// Answer --version without touching config or audio
	if len(args) > 1 && (args[1] == "--version" || args[1] == "-v") {
		fmt.Fprint(stdout, versionString())
		return 0
	}

	defer c.close()

	c.rootCmd.SetArgs(args[1:])
	c.rootCmd.SetIn(stdin)
	c.rootCmd.SetOut(stdout)
	c.rootCmd.SetErr(stderr)

	if err := c.rootCmd.ExecuteContext(contextWithCLI(ctx, c)); err != nil {
		slog.Error("command failed", "error", err)
		return 1
	}
	return 0
}

func (c *CLI) close() {
	if c.historyDB != nil {
		if err := c.historyDB.Close(); err != nil {
			slog.Error("error closing history database", "error", err)
		}
		c.historyDB = nil
	}
	if c.logFile != nil {
		if err := c.logFile.Close(); err != nil {
			slog.Error("error closing log file", "error", err)
		}
		c.logFile = nil
	}
}

// loadAndValidateConfig loads the config file, applies environment and flag
// overrides and validates the result
func (c *CLI) loadAndValidateConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	backend, _ := cmd.Flags().GetString("backend")
	soundpackFlag, _ := cmd.Flags().GetString("soundpack")
	masterStr, _ := cmd.Flags().GetString("master")
	logLevel, _ := cmd.Flags().GetString("log-level")
	noHistory, _ := cmd.Flags().GetBool("no-history")

	var master float64
	if masterStr != "" {
		vol, err := strconv.ParseFloat(strings.TrimSuffix(masterStr, "%"), 64)
		if err != nil {
			slog.Error("invalid master volume value", "value", masterStr, "error", err)
			return nil, fmt.Errorf("invalid master volume '%s': %w", masterStr, err)
		}
		if vol < 0 || vol > 100 {
			slog.Error("master volume out of range", "value", vol)
			return nil, fmt.Errorf("master volume must be between 0 and 100, got %g", vol)
		}
		master = vol
	}

	var cfg *config.Config
	var err error
	if configFile != "" {
		c.configPath = configFile
		cfg, err = c.configManager.LoadFromFile(configFile)
		if err != nil {
			exists, statErr := afero.Exists(c.fs, configFile)
			if statErr != nil || exists {
				return nil, fmt.Errorf("error loading config: %w", err)
			}
			slog.Warn("config file not found, using defaults", "file", configFile)
			cfg = c.configManager.GetDefaultConfig()
		}
	} else {
		c.configPath = c.configManager.UserConfigPath()
		cfg, err = c.configManager.LoadConfig()
		if err != nil {
			slog.Error("config load failed", "error", err)
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	}

	cfg = c.configManager.ApplyEnvironmentOverrides(cfg)

	if masterStr != "" {
		cfg.MasterVolume = master
		slog.Debug("master volume override applied", "value", master)
	}
	if backend != "" {
		cfg.AudioBackend = backend
		slog.Debug("backend override applied", "value", backend)
	}
	if soundpackFlag != "" {
		cfg.Soundpack = soundpackFlag
		slog.Debug("soundpack override applied", "value", soundpackFlag)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if noHistory && cfg.History != nil {
		history := *cfg.History
		history.Enabled = false
		cfg.History = &history
	}

	if err := c.configManager.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setup loads the configuration and configures logging. Every command that
// plays or reads history starts here.
func (c *CLI) setup(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := c.loadAndValidateConfig(cmd)
	if err != nil {
		return nil, err
	}
	c.setupLogging(cfg, cmd.ErrOrStderr())
	return cfg, nil
}

// setupLogging sends logs at the configured level to stderr and, when file
// logging is enabled, everything down to Debug to a rotating file
func (c *CLI) setupLogging(cfg *config.Config, stderr io.Writer) {
	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelWarn
	}

	handlers := []slog.Handler{
		slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}),
	}

	if fl := cfg.FileLogging; fl != nil && fl.Enabled {
		c.logFile = &lumberjack.Logger{
			Filename:   c.configManager.ResolveLogFilePath(fl.Filename),
			MaxSize:    fl.MaxSizeMB,
			MaxBackups: fl.MaxBackups,
			MaxAge:     fl.MaxAgeDays,
			Compress:   fl.Compress,
		}
		handlers = append(handlers, slog.NewTextHandler(c.logFile, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	slog.SetDefault(slog.New(newTeeHandler(handlers...)).With("session_id", c.sessionID))

	slog.Debug("logging setup completed",
		"level", level.String(),
		"file_enabled", c.logFile != nil)
}

// openHistory opens the playback history database. A database that cannot be
// opened disables history for this run instead of failing the command.
func (c *CLI) openHistory(cfg *config.Config) *sql.DB {
	if c.historyDB != nil {
		return c.historyDB
	}
	if cfg.History == nil || !cfg.History.Enabled {
		slog.Debug("playback history disabled")
		return nil
	}

	dbPath := c.configManager.ResolveHistoryPath(cfg.History)
	db, err := tracking.NewDatabase(dbPath)
	if err != nil {
		slog.Warn("failed to open history database, continuing without history", "path", dbPath, "error", err)
		return nil
	}

	c.historyDB = db
	slog.Info("history database opened", "path", dbPath)
	return db
}

// savePreferences writes volumes into the config file, keeping its other
// settings. Flag and environment overrides are never persisted.
func (c *CLI) savePreferences(master float64, channels map[string]float64) error {
	prefs := c.configManager.GetDefaultConfig()
	if exists, _ := afero.Exists(c.fs, c.configPath); exists {
		loaded, err := c.configManager.LoadFromFile(c.configPath)
		if err != nil {
			return fmt.Errorf("failed to reload config before saving: %w", err)
		}
		prefs = loaded
	}

	prefs.MasterVolume = master
	prefs.ChannelVolumes = channels
	return c.configManager.SaveToFile(prefs, c.configPath)
}
