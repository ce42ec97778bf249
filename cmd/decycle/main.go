package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/spf13/pflag"

	"github.com/tandberg/decycle/pkg/analysis"
	"github.com/tandberg/decycle/pkg/config"
	"github.com/tandberg/decycle/pkg/logging"
	"github.com/tandberg/decycle/pkg/output"
	"github.com/tandberg/decycle/pkg/provider"
	"github.com/tandberg/decycle/pkg/watcher"
	"github.com/tandberg/decycle/pkg/web"
)

func main() {
	flags := pflag.NewFlagSet("decycle", pflag.ExitOnError)
	flags.String("snapshot", "components.json", "Path to the component-model snapshot JSON")
	flags.String("plan-out", "", "Write the resolution plan JSON to this path")
	flags.Bool("web", false, "Serve the report UI instead of printing to console")
	flags.Int("port", 8080, "Port for the web server (only used with --web)")
	flags.Bool("watch", false, "Re-run analysis when the snapshot changes")
	flags.Int("max-cycles", 0, "Per-SCC elementary cycle cap (0 = default)")
	flags.Int("workers", 0, "Cycle enumeration workers (0 = GOMAXPROCS)")
	flags.Int("budget-ms", 0, "Overall analysis time budget in milliseconds (0 = none)")
	flags.Bool("json-logs", false, "Emit JSON logs")
	flags.CountP("verbose", "v", "Increase log verbosity (-v, -vv)")
	if err := flags.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	setupLogging(cfg)

	if cfg.WebMode {
		runWeb(cfg)
		return
	}

	runner := analysis.NewRunner(provider.NewFileProvider(cfg.Snapshot), nil)
	res, err := runOnce(cfg, runner, "initial analysis")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	output.PrintReport(res)

	if cfg.Watch {
		watchLoop(cfg, runner, nil)
		return
	}
	if !res.Plan.Acyclic() {
		os.Exit(2)
	}
}

func setupLogging(cfg *config.Config) {
	level := slog.LevelInfo
	if cfg.Verbose >= 1 {
		level = slog.LevelDebug
	}
	if cfg.JSONLogs {
		logging.SetJSONOutput(level)
	} else {
		logging.SetLevel(level)
	}
}

// runOnce executes one analysis pass and writes the plan file if configured
func runOnce(cfg *config.Config, runner *analysis.Runner, reason string) (*analysis.Result, error) {
	res, err := runner.Run(context.Background(), analysis.Options{
		MaxCyclesPerSCC: cfg.MaxCycles,
		Workers:         cfg.Workers,
		Budget:          time.Duration(cfg.BudgetMs) * time.Millisecond,
		Reason:          reason,
	})
	if err != nil {
		return nil, err
	}

	if cfg.PlanOut != "" {
		if err := writePlan(cfg.PlanOut, res); err != nil {
			return nil, fmt.Errorf("writing plan: %w", err)
		}
		logging.Info("resolution plan written", "path", cfg.PlanOut)
	}
	return res, nil
}

// writePlan serializes the resolution plan for the external transformation applier
func writePlan(path string, res *analysis.Result) error {
	data, err := json.MarshalIndent(struct {
		RunID  string      `json:"runId"`
		Status string      `json:"status"`
		Plan   interface{} `json:"plan"`
	}{res.RunID, string(res.Status), res.Plan}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func runWeb(cfg *config.Config) {
	server := web.NewServer()
	runner := analysis.NewRunner(provider.NewFileProvider(cfg.Snapshot), server.Publisher())

	url := fmt.Sprintf("http://localhost:%d", cfg.Port)
	fmt.Printf("Starting web server on %s\n", url)

	go func() {
		if err := server.Start(cfg.Port); err != nil {
			logging.Fatal("failed to start server", "error", err)
		}
	}()

	// Wait a moment for the server to come up, then open the browser
	time.Sleep(500 * time.Millisecond)
	openBrowser(url)

	// Initial analysis in background so the UI can show progress
	go func() {
		res, err := runOnce(cfg, runner, "initial analysis")
		if err != nil {
			logging.Error("analysis failed", "error", err)
			return
		}
		server.SetResult(res)
	}()

	if cfg.Watch {
		watchLoop(cfg, runner, server)
		return
	}
	select {}
}

// watchLoop re-runs analysis whenever the snapshot file changes
func watchLoop(cfg *config.Config, runner *analysis.Runner, server *web.Server) {
	ctx := context.Background()

	sw, err := watcher.NewSnapshotWatcher(cfg.Snapshot)
	if err != nil {
		logging.Fatal("failed to create watcher", "error", err)
	}
	if err := sw.Start(ctx); err != nil {
		logging.Fatal("failed to start watcher", "error", err)
	}
	defer sw.Stop()

	debouncer := watcher.NewDebouncer(sw.Events(), 500*time.Millisecond, 5*time.Second)
	debouncer.Start(ctx)

	for range debouncer.Output() {
		res, err := runOnce(cfg, runner, "snapshot changed")
		if err != nil {
			logging.Error("analysis failed", "error", err)
			continue
		}
		if server != nil {
			server.SetResult(res)
		} else {
			output.PrintReport(res)
		}
	}
}

func openBrowser(url string) {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "linux":
		cmd = "xdg-open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		logging.Warn("cannot open browser on platform", "platform", runtime.GOOS)
		return
	}

	if err := exec.Command(cmd, args...).Start(); err != nil {
		logging.Warn("failed to open browser", "error", err)
	}
}
