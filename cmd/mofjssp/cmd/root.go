package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/luishpmendes/mofjssp/internal/config"
	"github.com/luishpmendes/mofjssp/internal/metrics"
)

// viperKey is the flag annotation naming the configuration key a flag overrides.
const viperKey = "viper-key"

var (
	cfgFile string

	cfg       *config.Config
	logger    = slog.New(slog.DiscardHandler)
	collector *metrics.Collector

	stopMetrics context.CancelFunc
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "mofjssp",
	Short: "Многокритериальное гибкое расписание job-shop",
	Long: `mofjssp проверяет и генерирует экземпляры FJSP, декодирует ключи в расписания
и ищет фронт Парето генетическим алгоритмом, роем частиц или имитацией отжига.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

// Execute runs the root command until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "YAML-файл конфигурации (переменные окружения MOFJSSP_* имеют приоритет над ним)")
	pf.String("log-level", "info", "уровень журнала: debug | info | warn | error")
	pf.String("log-format", "text", "формат журнала: text | json")
	pf.String("metrics-addr", "", "адрес для /metrics Prometheus; пусто — не запускать")
	pf.Int("workers", config.DefaultWorkers(), "количество потоков декодирования")

	bindFlag(pf, "log-level", "log.level")
	bindFlag(pf, "log-format", "log.format")
	bindFlag(pf, "metrics-addr", "metrics_addr")
	bindFlag(pf, "workers", "workers")
}

// bindFlag marks a flag as an override of a configuration key.
func bindFlag(fs *pflag.FlagSet, name, key string) {
	if err := fs.SetAnnotation(name, viperKey, []string{key}); err != nil {
		panic(err)
	}
}

// setup loads the configuration with the annotated flags of cmd bound on top,
// then installs the logger and starts the metrics endpoint.
func setup(cmd *cobra.Command, args []string) error {
	v := config.New()
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		keys := f.Annotations[viperKey]
		if len(keys) == 0 || bindErr != nil {
			return
		}
		bindErr = v.BindPFlag(keys[0], f)
	})
	if bindErr != nil {
		return bindErr
	}

	c, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	cfg = c

	logger, err = newLogger(cmd.ErrOrStderr(), cfg.Log)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	collector = metrics.New()
	if cfg.Metrics != "" {
		ctx, cancel := context.WithCancel(cmd.Context())
		stopMetrics = cancel
		go func() {
			if err := collector.Serve(ctx, cfg.Metrics, logger); err != nil {
				logger.Error("metrics endpoint failed", "addr", cfg.Metrics, "error", err)
			}
		}()
	}
	return nil
}

func teardown(cmd *cobra.Command, args []string) error {
	if stopMetrics != nil {
		stopMetrics()
		stopMetrics = nil
	}
	return nil
}

func newLogger(w io.Writer, lc config.Log) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(lc.Level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", lc.Level, err)
	}
	opts := &slog.HandlerOptions{Level: level}
	if lc.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
