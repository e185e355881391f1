package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/username/aviv-calendar/internal/astro"
	"github.com/username/aviv-calendar/internal/calendar"
	"github.com/username/aviv-calendar/internal/config"
	"github.com/username/aviv-calendar/internal/ledger"
)

var (
	configPath string
	logger     *zap.Logger
	out        io.Writer = os.Stdout
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "aviv",
		Short:         "Aviv lunisolar calendar",
		Long:          "Resolve civil dates to the sunset-based lunisolar calendar, with Sabbaths and feast days",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load config to get log file path
			cfg, err := config.Load(configPath)
			if err == nil && cfg.Log.File != "" {
				logger, err = initFileLogger(cfg.Log.File, cfg.Log.Level)
				if err != nil {
					initLogger(cfg.Log.Level) // Fallback to console
				}
			} else if err == nil {
				initLogger(cfg.Log.Level)
			} else {
				initLogger("info")
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (default: ./config.yaml if present)")

	rootCmd.AddCommand(dateCmd())
	rootCmd.AddCommand(refreshCmd())
	rootCmd.AddCommand(monthsCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, calendar.ErrInternal) {
			fmt.Fprintf(os.Stderr, "internal error: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// app holds the wired components shared by the subcommands
type app struct {
	cfg      *config.Config
	store    *ledger.Store
	engine   *calendar.Engine
	location astro.Location
}

func initializeApp() (*app, error) {
	// Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	location, err := configuredLocation(cfg.Location)
	if err != nil {
		return nil, err
	}

	baseline, err := ledger.Baseline()
	if err != nil {
		return nil, fmt.Errorf("failed to load baseline ledger: %w", err)
	}

	var feed ledger.Feed
	if cfg.Ledger.FeedURL != "" {
		feed = ledger.NewFeedClient(cfg.Ledger.FeedURL, cfg.Ledger.GetTimeout(), cfg.Ledger.Retries, logger)
	} else {
		logger.Warn("No ledger feed configured, only built-in month starts are available")
	}

	var cache ledger.SnapshotCache
	if cfg.Ledger.CacheFile != "" {
		cache = ledger.NewFileCache(cfg.Ledger.CacheFile, logger)
	}

	store, err := ledger.NewStore(baseline, feed, cache, logger, ledger.WithMaxAge(cfg.Ledger.GetMaxAge()))
	if err != nil {
		return nil, err
	}
	if err := store.Load(); err != nil {
		logger.Warn("Failed to load ledger cache, starting from baseline", zap.Error(err))
	}

	engine := calendar.NewEngine(store, astro.NewOracle(logger), logger)

	return &app{
		cfg:      cfg,
		store:    store,
		engine:   engine,
		location: location,
	}, nil
}

func configuredLocation(c config.LocationConfig) (astro.Location, error) {
	if c.HasCoordinates() {
		return astro.NewLocation(c.Name, "", c.Latitude, c.Longitude, c.Timezone)
	}
	return astro.Lookup(c.Name)
}

func initLogger(level string) {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err == nil {
		config.Level = zap.NewAtomicLevelAt(zapLevel)
	}

	var err error
	logger, err = config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
}

func initFileLogger(logFile string, level string) (*zap.Logger, error) {
	// Setup lumberjack for log rotation
	logWriter := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    100,  // MB
		MaxBackups: 3,    // Keep max 3 old log files
		MaxAge:     28,   // days
		Compress:   true, // Compress old logs with gzip
	}

	// Setup encoder
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	// Parse log level
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(logWriter),
		zapLevel,
	)

	return zap.New(core), nil
}

func outPrintf(format string, a ...interface{}) {
	fmt.Fprintf(out, format, a...)
}

func outPrintln(a ...interface{}) {
	fmt.Fprintln(out, a...)
}
