package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ayusman/gesturebench/internal/app"
	"github.com/ayusman/gesturebench/internal/capture"
	"github.com/ayusman/gesturebench/internal/config"
	"github.com/ayusman/gesturebench/internal/detector"
	"github.com/ayusman/gesturebench/internal/gesture"
	"github.com/ayusman/gesturebench/internal/metrics"
	"github.com/ayusman/gesturebench/internal/plugin"
	"github.com/ayusman/gesturebench/internal/report"
	"github.com/ayusman/gesturebench/internal/server"
	"github.com/ayusman/gesturebench/internal/source"
	"github.com/ayusman/gesturebench/internal/store"
	"github.com/ayusman/gesturebench/internal/tray"
	"github.com/ayusman/gesturebench/internal/workflow"
)

var (
	runOrder     string
	runSeed      uint64
	runDryRun    bool
	runNoServer  bool
	runTray      bool
	runReplayDir string
	runRealtime  bool
	runRecordDir string
)

var runCmd = &cobra.Command{
	Use:   "run [workflow|family...]",
	Short: "Run the benchmark workflows",
	Long: `Run every configured workflow once, one after the other, under a single
batch. Arguments restrict the batch to the named workflows or families.

Poses come from the camera unless --replay-dir points at recordings made
with --record-dir, one <workflow>.jsonl file per workflow.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBenchmark(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runOrder, "order", "", "Run order: in-order, shuffled or families")
	runCmd.Flags().Uint64Var(&runSeed, "seed", 0, "Shuffle seed (0 picks one from the clock)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Do not run the bound actions")
	runCmd.Flags().BoolVar(&runNoServer, "no-server", false, "Do not start the status server")
	runCmd.Flags().BoolVar(&runTray, "tray", false, "Show progress in the system tray")
	runCmd.Flags().StringVar(&runReplayDir, "replay-dir", "", "Replay recorded poses instead of using the camera")
	runCmd.Flags().BoolVar(&runRealtime, "realtime", false, "Replay at the recorded pace")
	runCmd.Flags().StringVar(&runRecordDir, "record-dir", "", "Record the poses of every run to this directory")
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel, cmd.ErrOrStderr())

	wfs := cfg.WorkflowList(args...)
	if len(wfs) == 0 {
		return fmt.Errorf("no workflow matches %s", strings.Join(args, ", "))
	}

	if runOrder != "" {
		cfg.Order = runOrder
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = runSeed
	}
	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano())
		logger.Info("picked shuffle seed", "seed", cfg.Seed)
	}
	orderer, ok := app.ParseOrder(cfg.Order, cfg.Seed)
	if !ok {
		return fmt.Errorf("unknown run order %q", cfg.Order)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.New(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	m := metrics.New()
	hub := server.NewHub(logger)

	executor, err := newActionExecutor(cfg, m, logger)
	if err != nil {
		return err
	}

	open := cameraSources(cfg, logger)
	if runReplayDir != "" {
		open = app.ReplayDir(runReplayDir, runRealtime)
	}
	if runRecordDir != "" {
		open = app.Recorded(open, runRecordDir)
	}

	var tr *tray.Tray
	if runTray {
		tr = tray.New()
	}

	batch, err := app.NewBatch(wfs, open, app.BatchConfig{
		Session: app.SessionConfig{
			Cooldown:    cfg.Cooldown.Std(),
			TickTimeout: cfg.TickTimeout.Std(),
			Policy:      cfg.Policy(),
			Executor:    executor,
			Logger:      logger,
			Metrics:     m,
			OnTick: func(status app.Status) {
				hub.Publish(status)
				if tr != nil {
					tr.Update(status)
				}
			},
		},
		Orderer: orderer,
		Sink: report.Multi{
			report.NewErrorLog(cfg.ErrorLogPath()),
			report.NewSummarySheet(cfg.SummaryPath()),
			st.Sink(),
			report.NewConsole(cmd.OutOrStdout()),
		},
		Logger: logger,
		OnRunStart: func(i int, wf *workflow.Workflow) {
			fmt.Fprintf(cmd.OutOrStdout(), "Starting %s (%d/%d): show %s to begin\n", wf.Name, i+1, len(wfs), wf.Start)
		},
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var g errgroup.Group
	serverCtx, stopServer := context.WithCancel(ctx)
	defer stopServer()

	if !runNoServer {
		if ln, err := server.Listen(cfg.HTTPAddr); err != nil {
			logger.Warn("status server disabled", "error", err)
		} else {
			srv := server.New(server.Config{
				StaticDir: findWebDir(cfg.DataDir),
				Store:     st,
				Hub:       hub,
				Metrics:   m,
				Logger:    logger,
			})
			g.Go(func() error {
				if err := srv.Serve(serverCtx, ln); err != nil {
					logger.Warn("status server stopped", "error", err)
				}
				return nil
			})
		}
	}

	g.Go(func() error {
		defer stopServer()
		if tr != nil {
			defer tr.Close()
		}
		_, err := batch.Run(ctx)
		return err
	})

	if tr != nil {
		tr.OnQuit(stop)
		tr.OnOpen(func() { openBrowser("http://" + cfg.HTTPAddr) })
		tr.Run()
	}

	return g.Wait()
}

// newActionExecutor runs bound actions through the discovered plugins, or
// discards them on a dry run.
func newActionExecutor(cfg *config.Config, m *metrics.Metrics, logger hclog.Logger) (workflow.ActionExecutor, error) {
	if runDryRun {
		return workflow.NopExecutor, nil
	}

	bindings, err := cfg.ActionBindings()
	if err != nil {
		return nil, err
	}

	manager := plugin.NewManager(cfg.PluginDir, logger)
	if err := manager.Discover(); err != nil {
		return nil, fmt.Errorf("discover plugins: %w", err)
	}

	executor := plugin.NewActionExecutor(manager, plugin.NewExecutor(cfg.ActionTimeout.Std()), bindings, logger)
	executor.OnResult(func(label gesture.Label, err error) {
		m.RecordAction(label, err)
	})
	return executor, nil
}

// cameraSources opens the camera and a fresh detector for every run. The
// pose source owns both and releases them when the run ends.
func cameraSources(cfg *config.Config, logger hclog.Logger) app.SourceFactory {
	return func(ctx context.Context, wf *workflow.Workflow) (source.PoseSource, error) {
		det, err := detector.NewMediaPipeDetector(cfg.Detector, logger)
		if err != nil {
			return nil, fmt.Errorf("start detector: %w", err)
		}

		gate := capture.NewMotionGate(cfg.MotionThreshold)
		src, err := capture.OpenPoseSource(capture.NewCamera(cfg.Camera), det, capture.Options{
			Gate:   gate,
			Logger: logger,
		})
		if err != nil {
			gate.Close()
			det.Close()
			return nil, err
		}
		return src, nil
	}
}

// openBrowser opens the default browser to the given URL
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		fmt.Printf("Open %s in your browser\n", url)
		return
	}
	_ = cmd.Run()
}
