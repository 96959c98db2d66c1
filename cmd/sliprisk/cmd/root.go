package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/sliprisk/config"
	"github.com/rustyeddy/sliprisk/corr"
	"github.com/rustyeddy/sliprisk/engine"
	"github.com/rustyeddy/sliprisk/internal/logging"
	"github.com/rustyeddy/sliprisk/internal/metrics"
	"github.com/rustyeddy/sliprisk/journal"
	"github.com/rustyeddy/sliprisk/slipio"
)

var rootCmd = &cobra.Command{
	Use:   "sliprisk",
	Short: "Correlated multi-leg slip risk engine",
	Long: `Sliprisk prices and sizes multi-leg slips whose legs are correlated.

It provides tools for:
  - Joint probability of correlated legs (Gaussian copula Monte Carlo)
  - Capped fractional Kelly staking with risk tiers and unit templates
  - Portfolio stress: P&L distribution, VaR, ES and a spray throttle
  - Fitting leg correlations from historical hit data
  - Journaling runs to SQLite or CSV`,
	SilenceUsage: true,
}

var (
	configPath string
	logLevel   string
	jsonLogs   bool
	corrPath   string
	redisAddr  string
	redisKey   string
)

// Execute adds all child commands to the root command and sets flags appropriately.
// Interrupts cancel the running command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "engine config file (YAML or JSON); defaults when empty")
	pf.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	pf.BoolVar(&jsonLogs, "json-logs", false, "emit JSON logs")
	pf.StringVar(&corrPath, "corr", "", `correlation file mapping "a|b" to rho`)
	pf.StringVar(&redisAddr, "redis", "", "load correlations from this Redis server instead of --corr")
	pf.StringVar(&redisKey, "redis-key", corr.DefaultRedisKey, "Redis hash holding correlations")
}

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.LoadFromFile(configPath)
}

// session holds what every engine command needs.
type session struct {
	cfg     *config.Config
	log     *zap.Logger
	eng     *engine.Engine
	journal journal.Journal
	reg     *prometheus.Registry
}

func (s *session) Close() {
	if err := s.journal.Close(); err != nil {
		s.log.Error("close journal", zap.Error(err))
	}
	_ = s.log.Sync()
}

func newSession(ctx context.Context) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	log, err := logging.New(level, jsonLogs || cfg.Log.JSON)
	if err != nil {
		return nil, err
	}

	lookup, err := loadLookup(ctx, log)
	if err != nil {
		return nil, err
	}

	j, err := journal.Open(cfg.Journal)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	reg := prometheus.NewRegistry()
	eng, err := engine.New(cfg,
		engine.WithLogger(log),
		engine.WithLookup(lookup),
		engine.WithMetrics(metrics.New(reg)),
		engine.WithJournal(j),
	)
	if err != nil {
		j.Close()
		return nil, err
	}
	return &session{cfg: cfg, log: log, eng: eng, journal: j, reg: reg}, nil
}

// loadLookup returns the correlation table named by flags, or nil for
// independent legs.
func loadLookup(ctx context.Context, log *zap.Logger) (corr.Lookup, error) {
	var (
		tbl *corr.Table
		bad []string
		err error
	)
	switch {
	case redisAddr != "":
		client := redis.NewClient(&redis.Options{Addr: redisAddr})
		defer client.Close()
		tbl, bad, err = corr.NewRedisTable(client, redisKey).Load(ctx)
	case corrPath != "":
		tbl, bad, err = slipio.LoadCorr(corrPath)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load correlations: %w", err)
	}
	for _, k := range bad {
		log.Warn("ignoring correlation key", zap.String("key", k))
	}
	log.Debug("correlations loaded", zap.Int("pairs", tbl.Len()))
	return tbl, nil
}
