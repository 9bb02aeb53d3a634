package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/rahuljishu/mpie/internal/analysis"
	"github.com/rahuljishu/mpie/internal/auth"
	"github.com/rahuljishu/mpie/internal/config"
	"github.com/rahuljishu/mpie/internal/dashboard"
	"github.com/rahuljishu/mpie/internal/modelhub"
	"github.com/rahuljishu/mpie/pkg/models"
)

// Version info set by goreleaser
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configPath   string
	analyzerPath string
	jsonOutput   bool
	saveReport   bool
	listenAddr   string
)

var rootCmd = &cobra.Command{
	Use:   "mpie <dataset>",
	Short: "Mathematical pattern discovery for tabular datasets",
	Long: `Runs the MPIE analysis agent on a CSV or TXT dataset and reports the
best explanatory column, the reward break-down, and the top discovered
pairwise relations.`,
	Args: cobra.ExactArgs(1),
	RunE: run,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web dashboard",
	RunE:  serve,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mpie %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default mpie.yaml)")
	rootCmd.PersistentFlags().StringVar(&analyzerPath, "analyzer", "", "Analyzer path, skipping the model download")
	rootCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output result as JSON")
	rootCmd.Flags().BoolVar(&saveReport, "save-report", false, "Write the raw report to a timestamped file")

	serveCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "Listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if rootCmd.Execute() != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	executable, err := resolveAnalyzer(ctx, cfg)
	if err != nil {
		return err
	}

	stop := startSpinner("Analyzing…")
	result, err := analysis.Run(ctx, analysis.Params{
		Executable:  executable,
		Interpreter: cfg.Interpreter,
		Emitter:     &analysis.TextEmitter{W: os.Stderr},
	}, args[0])
	stop()
	if err != nil {
		var procErr *analysis.ProcessError
		if errors.As(err, &procErr) {
			red := color.New(color.FgRed, color.Bold)
			_, _ = red.Fprintln(os.Stderr, "Agent crashed:")
			fmt.Fprintln(os.Stderr, procErr.Output)
			return fmt.Errorf("analysis process exited with code %d", procErr.ExitCode)
		}
		return err
	}

	if saveReport {
		name := models.ReportFilename(time.Now())
		if err := os.WriteFile(name, []byte(result.RawReport), 0o644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Raw report written to %s\n", name)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printResult(os.Stdout, result)
	return nil
}

// resolveAnalyzer returns the analyzer path, downloading the model snapshot
// when no explicit path is given. The resolver caches the snapshot, so
// repeat runs skip files already on disk.
func resolveAnalyzer(ctx context.Context, cfg config.Config) (string, error) {
	if analyzerPath != "" {
		if _, err := os.Stat(analyzerPath); err != nil {
			return "", fmt.Errorf("analyzer not found: %w", err)
		}
		return analyzerPath, nil
	}

	resolver := &modelhub.Resolver{
		Client:   modelhub.NewClient(""),
		RepoID:   cfg.ModelRepo,
		CacheDir: cfg.CacheDir,
	}

	stop := startSpinner("Downloading model…")
	path, err := resolver.Resolve(ctx, cfg.AnalyzerPath)
	stop()
	return path, err
}

// startSpinner shows a spinner on stderr while a phase runs. It is a no-op
// when stderr is not a terminal, so piped output stays clean.
func startSpinner(message string) (stop func()) {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		fmt.Fprintln(os.Stderr, message)
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + message
	s.Start()
	return s.Stop
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.Listen = listenAddr
	}

	var verifier *auth.Verifier
	if cfg.AuthDomain != "" {
		verifier, err = auth.NewVerifier(auth.Config{
			Domain:   cfg.AuthDomain,
			Audience: cfg.AuthAudience,
		})
		if err != nil {
			return err
		}
	}

	// The snapshot download happens on the first analyze request, once per
	// process; later requests reuse the resolved path.
	resolver := &modelhub.Resolver{
		Client:   modelhub.NewClient(""),
		RepoID:   cfg.ModelRepo,
		CacheDir: cfg.CacheDir,
	}

	pipeline := func(ctx context.Context, inputPath string, em analysis.ProgressEmitter) (*models.PresentationModel, error) {
		executable := analyzerPath
		if executable == "" {
			var err error
			executable, err = resolver.Resolve(ctx, cfg.AnalyzerPath)
			if err != nil {
				return nil, err
			}
		}
		return analysis.Run(ctx, analysis.Params{
			Executable:  executable,
			Interpreter: cfg.Interpreter,
			Emitter:     em,
		}, inputPath)
	}

	srv := &http.Server{
		Addr:         cfg.Listen,
		Handler:      dashboard.NewHandler(dashboard.Config{Pipeline: pipeline, Verifier: verifier}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute, // analyses stream for as long as the agent runs
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on interrupt (Ctrl+C)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)

	go func() {
		<-quit
		fmt.Fprintln(os.Stderr, "\nShutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Shutdown error: %v\n", err)
		}
	}()

	fmt.Fprintf(os.Stderr, "Dashboard: http://%s\n", cfg.Listen)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
