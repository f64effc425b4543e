// Package cli implements the welfare-desk CLI commands.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/welfare-desk/internal/config"
	"github.com/rcliao/welfare-desk/internal/logging"
	"github.com/rcliao/welfare-desk/internal/model"
	"github.com/rcliao/welfare-desk/internal/scheme"
	"github.com/rcliao/welfare-desk/internal/store"
)

var (
	configFile  string
	dbPath      string
	formatFlag  string
	langFlag    string
	sessionFlag string
	verbose     bool
	metricsFile string

	cfg    *config.Config
	logger = zap.NewNop()
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "welfare-desk",
	Short: "Track Tamil Nadu welfare scheme applications",
	Long: "A single-binary citizen desk for Tamil Nadu welfare schemes: application roadmaps, " +
		"document readiness, saved scheme reminders and AI-assisted scheme search. SQLite-backed.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		c, err := config.Load(configFile)
		if err != nil {
			exitErr("load config", err)
		}
		cfg = c

		level := cfg.Log.Level
		if verbose {
			level = "debug"
		}
		l, err := logging.New(level, cfg.Log.Format)
		if err != nil {
			exitErr("create logger", err)
		}
		logger = l
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: ./welfare-desk.yaml or ~/.welfare-desk/welfare-desk.yaml)")
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $WELFARE_DESK_DB or ~/.welfare-desk/welfare.db)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
	RootCmd.PersistentFlags().StringVarP(&langFlag, "lang", "l", "", "Answer language: en, ta or hi (default from config)")
	RootCmd.PersistentFlags().StringVarP(&sessionFlag, "session", "s", "", "Session (phone number); defaults to the logged-in session")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
	RootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "Write model call metrics to this textfile after the command")
}

func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	return cfg.DB
}

func openStore() (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(getDBPath(), logger)
}

func language() scheme.Language {
	if langFlag != "" {
		return scheme.Language(langFlag)
	}
	return scheme.Language(cfg.Language)
}

// resolveSession picks the --session flag or the stored current-session
// pointer. It exits when neither is set.
func resolveSession(ctx context.Context, s store.ProfileStore) string {
	session, err := pickSession(ctx, s, sessionFlag)
	if err != nil {
		exitErr("session", err)
	}
	return session
}

func pickSession(ctx context.Context, s store.ProfileStore, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	cur, err := s.CurrentSession(ctx)
	if err != nil {
		return "", err
	}
	if cur == "" {
		return "", fmt.Errorf("%w: pass --session or run `welfare-desk session login <phone>`", store.ErrNoSession)
	}
	return cur, nil
}

// loadProfile returns the session's profile, or nil when none is stored.
func loadProfile(ctx context.Context, s store.ProfileStore, session string) *model.Profile {
	p, err := s.Get(ctx, session)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		if warnStorage("read profile", err) {
			return nil
		}
		exitErr("read profile", err)
	}
	return p
}

// warnStorage reports a storage medium failure as a non-fatal warning.
// It returns false for any other error.
func warnStorage(msg string, err error) bool {
	var serr *store.StorageError
	if !errors.As(err, &serr) {
		return false
	}
	logger.Warn(msg, zap.Error(err))
	fmt.Fprintf(os.Stderr, "warning: %s: %v\n", msg, err)
	return true
}

// warnService reports a failed model call. The caller then shows an empty result.
func warnService(err error) {
	fmt.Fprintf(os.Stderr, "warning: %v\n", err)
}

// newService builds the Gemini-backed scheme service. The returned func
// flushes metrics and closes the cache.
func newService(ctx context.Context) (*scheme.Gemini, func()) {
	metrics := scheme.NewMetrics()
	opts := []scheme.Option{scheme.WithLogger(logger), scheme.WithMetrics(metrics)}

	var cache *scheme.RedisCache
	if cfg.Redis.URL != "" {
		c, err := scheme.NewRedisCache(ctx, cfg.Redis.URL, cfg.Redis.CacheTTL)
		if err != nil {
			logger.Warn("response cache disabled", zap.Error(err))
		} else {
			cache = c
			opts = append(opts, scheme.WithCache(cache))
		}
	}

	svc, err := scheme.NewGemini(ctx, scheme.Config{
		APIKey:     cfg.Gemini.APIKey,
		FlashModel: cfg.Gemini.FlashModel,
		ProModel:   cfg.Gemini.ProModel,
		Timeout:    cfg.Gemini.Timeout,
	}, opts...)
	if err != nil {
		exitErr("scheme service", err)
	}

	return svc, func() {
		if cache != nil {
			cache.Close()
		}
		if metricsFile != "" {
			if err := metrics.WriteTextfile(metricsFile); err != nil {
				logger.Warn("write metrics", zap.String("path", metricsFile), zap.Error(err))
			}
		}
	}
}

func textOutput() bool {
	return formatFlag == "text"
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	logger.Debug(msg, zap.Error(err))
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
