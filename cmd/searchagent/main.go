package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"searchagent/internal/agent"
	"searchagent/internal/browser"
	"searchagent/internal/config"
	"searchagent/internal/humanize"
	"searchagent/internal/query"
	"searchagent/internal/runlog"
	"searchagent/internal/timing"
)

const version = "1.2.0"

var (
	// Global flags
	verbose    bool
	configPath string
	cycles     int
	minDelay   int
	maxDelay   int
	headless   bool
	logDir     string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "searchagent",
	Short: "AI-powered web search agent with human interaction simulation",
	Long: `searchagent runs automated web search cycles that are statistically
indistinguishable from a human browsing session.

Each cycle generates a search query with Gemini, types it keystroke by
keystroke into Bing, submits it, idles on the result page the way a person
would, and records the outcome to a CSV audit log. Cycles are paced with
randomized delays and browser crashes are recovered automatically.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logger
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runAgent,
}

// versionCmd prints the build version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the searchagent version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("searchagent %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "Config file path")
	rootCmd.Flags().IntVarP(&cycles, "cycles", "n", 0, "Number of search cycles (overrides config)")
	rootCmd.Flags().IntVar(&minDelay, "min-delay", 0, "Minimum delay between cycles in seconds (overrides config)")
	rootCmd.Flags().IntVar(&maxDelay, "max-delay", 0, "Maximum delay between cycles in seconds (overrides config)")
	rootCmd.Flags().BoolVar(&headless, "headless", true, "Run the browser headless")
	rootCmd.Flags().StringVar(&logDir, "log-dir", "", "Directory for the CSV run log (overrides config)")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runAgent wires the full pipeline and runs the search loop to completion.
func runAgent(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyFlagOverrides(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rng := timing.NewRand()
	sleeper := timing.NewSleeper()

	svc, err := query.NewGeminiService(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
	if err != nil {
		return err
	}
	gen := query.NewGenerator(svc, query.DefaultParameters(), rng, sleeper, logger)

	sim := humanize.NewSimulator(rng, sleeper, logger)
	session := browser.NewSession(
		browser.DefaultSessionConfig(),
		func() browser.Driver {
			return browser.NewRodDriver(browser.RodConfig{
				Bin:      cfg.Browser.Bin,
				Headless: cfg.Browser.Headless,
				Rand:     rng,
			})
		},
		sim, rng, sleeper, logger,
	)

	logger.Info("launching browser", zap.Bool("headless", cfg.Browser.Headless))
	if err := session.Launch(ctx); err != nil {
		return err
	}
	defer session.Close()

	start := time.Now()
	rec, err := runlog.Create(cfg.Run.LogDir, start)
	if err != nil {
		return err
	}

	fmt.Println("AI Search Agent")
	fmt.Println("===============")
	fmt.Printf("Cycles:    %d\n", cfg.Run.MaxCycles)
	fmt.Printf("Delay:     %d-%ds between searches\n", cfg.Run.MinDelaySeconds, cfg.Run.MaxDelaySeconds)
	fmt.Printf("Model:     %s\n", cfg.Gemini.Model)
	fmt.Printf("Run log:   %s\n", rec.Path())

	a := agent.New(
		agent.Config{MinDelay: cfg.MinDelay(), MaxDelay: cfg.MaxDelay()},
		gen, session, rec, rng, sleeper, os.Stdout, logger,
	)
	sum := a.Run(ctx, cfg.Run.MaxCycles)

	printSummary(sum, rec.Path())
	if sum.Fatal {
		return fmt.Errorf("run aborted: browser could not be recovered")
	}
	return nil
}

// applyFlagOverrides lets explicit command-line flags win over the config
// file and environment.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("cycles") {
		cfg.Run.MaxCycles = cycles
	}
	if cmd.Flags().Changed("min-delay") {
		cfg.Run.MinDelaySeconds = minDelay
	}
	if cmd.Flags().Changed("max-delay") {
		cfg.Run.MaxDelaySeconds = maxDelay
	}
	if cmd.Flags().Changed("headless") {
		cfg.Browser.Headless = headless
	}
	if cmd.Flags().Changed("log-dir") {
		cfg.Run.LogDir = logDir
	}
}

func printSummary(sum agent.Summary, logPath string) {
	fmt.Println()
	fmt.Println("[SUMMARY]")
	fmt.Println("=========")
	fmt.Printf("Completed:    %d/%d cycles\n", sum.Completed, sum.Planned)
	fmt.Printf("Successful:   %d\n", sum.Successes)
	fmt.Printf("Failed:       %d\n", sum.Failures)
	fmt.Printf("Success rate: %.1f%%\n", sum.SuccessRate())
	fmt.Printf("Duration:     %s\n", sum.Elapsed.Round(time.Second))
	fmt.Printf("Run log:      %s\n", logPath)
}
