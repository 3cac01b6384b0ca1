package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sorryxx18/firefit-score-converter/internal/config"
	"github.com/sorryxx18/firefit-score-converter/internal/convert"
	"github.com/sorryxx18/firefit-score-converter/internal/logging"
	"github.com/sorryxx18/firefit-score-converter/internal/metrics"
	"github.com/sorryxx18/firefit-score-converter/internal/profile"
	"github.com/sorryxx18/firefit-score-converter/internal/render"
	"github.com/sorryxx18/firefit-score-converter/internal/sheet"
	"github.com/sorryxx18/firefit-score-converter/internal/standards"
)

// Exit codes.
const (
	exitFailure = 1
	exitUsage   = 2
	exitInput   = 3
	exitConfig  = 4
	exitWrite   = 5
)

type convertFlags struct {
	profileName    string
	profileFile    string
	sheet          string
	standardsSheet string
	workers        int
	logLevel       string
	report         string
	metricsOut     string
	checkStandards bool
}

func newRootCmd() *cobra.Command {
	f := &convertFlags{}
	defaults := config.New()

	cmd := &cobra.Command{
		Use:   "firefit <input> <standards> <output>",
		Short: "Convert raw fitness-test results into scores using a standards table",
		Long: `firefit reads a roster of raw fitness-test measurements and a scoring
standards table, and writes the roster back with one score column per test
item, a combined score for the hang item and a total.

Input and output may be .xlsx or .csv files; .xlsm workbooks are accepted
as input only. When both input and output are .xlsx, the output is a copy of
the input workbook with the score columns filled in.

Exit status:
  0  success
  2  wrong number of arguments
  3  input or standards file missing or unreadable
  4  profile or configuration error
  5  output, report or metrics file could not be written; no output is left
     behind and any report or metrics file from the run is removed`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 3 {
				return exitError(exitUsage, "expected 3 arguments, got %d\n\n%s", len(args), cmd.UsageString())
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.resolve(cmd)
			if err != nil {
				return exitError(exitConfig, "configuration error: %v", err)
			}
			return runConvert(cmd.Context(), args, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.profileName, "profile", defaults.Profile, "Builtin profile name")
	flags.StringVar(&f.profileFile, "profile-file", "", "Profile YAML file (overrides --profile)")
	flags.StringVar(&f.sheet, "sheet", "", "Roster worksheet name (default: first sheet)")
	flags.StringVar(&f.standardsSheet, "standards-sheet", "", "Standards worksheet name (default: first sheet)")
	flags.IntVar(&f.workers, "workers", defaults.Workers, "Rows scored concurrently")
	flags.StringVar(&f.logLevel, "log-level", defaults.LogLevel, "Log level: debug, info, warn or error")
	flags.StringVar(&f.report, "report", "", "Write a Markdown run report to this path")
	flags.StringVar(&f.metricsOut, "metrics-out", "", "Write Prometheus metrics to this textfile")
	flags.BoolVar(&f.checkStandards, "check-standards", false, "Report suspicious scoring curves in the standards table")

	cmd.AddCommand(newListProfilesCmd(), newShowProfileCmd())
	return cmd
}

// resolve layers explicitly set flags over the loaded configuration.
func (f *convertFlags) resolve(cmd *cobra.Command) (*config.Config, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("profile") {
		cfg.Profile = f.profileName
	}
	if changed("profile-file") {
		cfg.ProfileFile = f.profileFile
	}
	if changed("sheet") {
		cfg.Sheet = f.sheet
	}
	if changed("standards-sheet") {
		cfg.StandardsSheet = f.standardsSheet
	}
	if changed("workers") {
		cfg.Workers = f.workers
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if changed("report") {
		cfg.Report = f.report
	}
	if changed("metrics-out") {
		cfg.MetricsOut = f.metricsOut
	}
	if changed("check-standards") {
		cfg.CheckStandards = f.checkStandards
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runConvert(ctx context.Context, args []string, cfg *config.Config, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	inputPath, standardsPath, outputPath := args[0], args[1], args[2]

	logger, err := logging.New(stderr, cfg.LogLevel)
	if err != nil {
		return exitError(exitConfig, "configuration error: %v", err)
	}
	runID := uuid.NewString()
	logger = logger.With("run_id", runID)

	if _, err := sheet.Writable(outputPath); err != nil {
		return exitError(exitWrite, "cannot write %s: %v", outputPath, err)
	}

	// 1. Load profile
	prof, err := loadProfile(cfg)
	if err != nil {
		return exitError(exitConfig, "failed to load profile: %v", err)
	}
	logger.Debug("profile loaded", "profile", prof.Name, "version", prof.Version)

	// 2. Load roster
	roster, err := sheet.Load(inputPath, cfg.Sheet)
	if err != nil {
		return inputError("input", inputPath, err)
	}
	logger.Info("roster loaded", "path", inputPath, "hash", roster.Hash, "rows", len(roster.Rows))

	// 3. Load standards
	stdSheet, err := sheet.Load(standardsPath, cfg.StandardsSheet)
	if err != nil {
		return inputError("standards", standardsPath, err)
	}
	tbl, err := standards.Load(stdSheet, prof.Standards())
	if err != nil {
		return exitError(exitInput, "failed to read standards table %s: %v", standardsPath, err)
	}
	logger.Info("standards loaded", "path", standardsPath, "hash", stdSheet.Hash,
		"entries", tbl.Len(), "dropped", tbl.Dropped)

	// 4. Optional standards check
	var issues []standards.Issue
	if cfg.CheckStandards {
		issues = standards.Check(tbl, prof.Direction)
		for _, is := range issues {
			logger.Warn("standards issue", "kind", string(is.Kind), "sex", is.Key.Sex,
				"bracket", is.Key.Bracket, "item", is.Key.Item, "detail", is.Message)
		}
	}

	// 5. Score
	conv := convert.New(prof, tbl, convert.WithLogger(logger), convert.WithWorkers(cfg.Workers))
	out, summary, err := conv.Run(ctx, roster)
	if err != nil {
		return exitError(exitFailure, "conversion aborted: %v", err)
	}

	// 6. Side reports, written first so a failure never leaves an output behind
	var written []string
	if cfg.Report != "" {
		md := render.Markdown(&render.Run{
			ID:      runID,
			Version: version,
			Inputs: []render.Input{
				{Role: "roster", Path: inputPath, Hash: roster.Hash},
				{Role: "standards", Path: standardsPath, Hash: stdSheet.Hash},
			},
			Output:           outputPath,
			Profile:          prof,
			Summary:          summary,
			StandardsEntries: tbl.Len(),
			StandardsDropped: tbl.Dropped,
			Checked:          cfg.CheckStandards,
			Issues:           issues,
		})
		if err := os.WriteFile(cfg.Report, []byte(md), 0644); err != nil {
			return exitError(exitWrite, "failed to write report: %v", err)
		}
		written = append(written, cfg.Report)
	}
	if cfg.MetricsOut != "" {
		rec := metrics.New()
		rec.ObserveStandards(tbl, issues)
		rec.ObserveRun(summary)
		rec.ObserveDuration(time.Since(start), time.Now())
		if err := rec.WriteTextfile(cfg.MetricsOut); err != nil {
			removeAll(written)
			return exitError(exitWrite, "failed to write metrics: %v", err)
		}
		written = append(written, cfg.MetricsOut)
	}

	// 7. Output
	if err := sheet.Write(outputPath, out); err != nil {
		removeAll(written)
		return exitError(exitWrite, "failed to write output: %v", err)
	}
	logger.Info("output written", "path", outputPath, "rows", summary.Rows,
		"unresolved", summary.Unresolved, "unknown_sex", summary.UnknownSex)

	fmt.Fprintf(stdout, "Conversion complete: %s\n", outputPath)
	return nil
}

// removeAll drops side reports of a run that produced no output.
func removeAll(paths []string) {
	for _, p := range paths {
		os.Remove(p)
	}
}

func loadProfile(cfg *config.Config) (*profile.Profile, error) {
	if cfg.ProfileFile != "" {
		return profile.LoadFile(cfg.ProfileFile)
	}
	return profile.LoadBuiltin(cfg.Profile)
}

func inputError(role, path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return exitError(exitInput, "%s file not found: %s", role, path)
	}
	return exitError(exitInput, "failed to read %s file %s: %v", role, path, err)
}

type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

func exitError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}
