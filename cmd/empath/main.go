package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"empath/internal/app"
	"empath/internal/config"
	"empath/internal/domain/blocks"
	"empath/internal/domain/eventlog"
	"empath/pkg/logger"
	"empath/pkg/metrics"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func main() {
	// Missing .env is the normal case outside development.
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "empath",
		Short:         "Empathic-accuracy behavioral log processing",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newProcessCmd())
	root.AddCommand(newInspectCmd())
	return root
}

func newProcessCmd() *cobra.Command {
	var (
		dataDir   string
		assetsDir string
		outputDir string
		trialType string
		workers   int
	)

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Process every pending subject under the data directory",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := config.Load(ctx)
			if err != nil {
				return err
			}
			if dataDir != "" {
				cfg.DataDir = dataDir
			}
			if assetsDir != "" {
				cfg.AssetsDir = assetsDir
			}
			if outputDir != "" {
				cfg.OutputDir = outputDir
			}
			if trialType != "" {
				cfg.TrialType = trialType
			}
			if workers > 0 {
				cfg.WorkerCount = workers
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			log := logger.Get()
			if err := logger.SetLevelString(cfg.LogLevel); err != nil {
				log.Warn(ctx, "invalid log_level; falling back to info",
					logger.String("log_level", cfg.LogLevel), logger.Error(err))
				_ = logger.SetLevelString("info")
			}

			if cfg.MetricsAddr != "" {
				startMetricsServer(ctx, cfg.MetricsAddr, log)
			}

			svc, err := app.New(cfg, app.WithLogger(log))
			if err != nil {
				return err
			}
			return svc.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&dataDir, "data", "", "study data directory (overrides config)")
	cmd.Flags().StringVar(&assetsDir, "assets", "", "reference table directory (overrides config)")
	cmd.Flags().StringVar(&outputDir, "output", "", "output directory (overrides config)")
	cmd.Flags().StringVar(&trialType, "trial-type", "", "trial type to retain: vid|cvid (overrides config)")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel subject workers (overrides config)")
	return cmd
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <log>",
		Short: "Print the blocks and anchor of one behavioral log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := eventlog.Read(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "anchor=%d pictures=%d videos=%d responses=%d\n",
				parsed.AnchorTime, len(parsed.Pictures), len(parsed.Videos), len(parsed.Responses))
			for _, b := range blocks.Segment(parsed.Videos, parsed.AnchorTime) {
				_, _ = fmt.Fprintf(out, "%s\tonset=%.2fs\ttrial=%d\n", b.Name, b.StartTime, b.Index)
			}
			return nil
		},
	}
}

// startMetricsServer exposes the Prometheus registry on its own listener so
// scraping never interferes with the batch.
func startMetricsServer(ctx context.Context, addr string, log logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "serving metrics", logger.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "metrics server failed", logger.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
