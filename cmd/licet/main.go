package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/dsablic/licet/internal/config"
	"github.com/dsablic/licet/internal/corpus"
	"github.com/dsablic/licet/internal/detect"
	"github.com/dsablic/licet/internal/model"
	"github.com/dsablic/licet/internal/output"
	"github.com/dsablic/licet/internal/scanner"
	"github.com/dsablic/licet/internal/ui"
)

func main() {
	root := &cobra.Command{
		Use:   "licet",
		Short: "Detect licenses and copyright statements in source trees",
	}

	root.AddCommand(newScanCmd())
	root.AddCommand(newLicensesCmd())
	root.AddCommand(newConfigCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <path>",
		Short: "Scan a directory or file for licenses and copyrights",
		Args:  cobra.ExactArgs(1),
		RunE:  runScan,
	}

	cmd.Flags().StringP("format", "f", string(output.FormatEvidence),
		fmt.Sprintf("output format (%s)", formatNames()))
	cmd.Flags().StringP("output", "o", "", "write output to file instead of stdout")
	cmd.Flags().String("config", "", "config file (default .licet.yaml)")
	cmd.Flags().Int("threads", 0, "worker goroutines (0 = number of CPUs)")
	cmd.Flags().Float64("similarity-threshold", 0, "similarity acceptance threshold (0-1)")
	cmd.Flags().BoolP("verbose", "v", false, "verbose logging")
	cmd.Flags().BoolP("debug", "d", false, "debug logging")
	cmd.Flags().Bool("no-progress", false, "disable the progress display")

	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	target := args[0]
	format, _ := cmd.Flags().GetString("format")
	outPath, _ := cmd.Flags().GetString("output")
	cfgPath, _ := cmd.Flags().GetString("config")
	threads, _ := cmd.Flags().GetInt("threads")
	simThreshold, _ := cmd.Flags().GetFloat64("similarity-threshold")
	verbose, _ := cmd.Flags().GetBool("verbose")
	debug, _ := cmd.Flags().GetBool("debug")
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	logger := newLogger(verbose, debug)
	ctx := cmd.Context()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if threads > 0 {
		cfg.Threads = threads
	}
	if simThreshold > 0 {
		cfg.SimilarityThreshold = simThreshold
	}

	c, err := corpus.Load()
	if err != nil {
		return fmt.Errorf("load license corpus: %w", err)
	}
	c.MergeAliases(cfg.CustomAliases)

	scan := scanner.New(scanner.Config{
		MaxFileSize:     cfg.MaxFileSize,
		MaxSourceFiles:  cfg.MaxSourceFiles,
		SourceHeadBytes: cfg.SourceHeadBytes,
		LicensePatterns: cfg.LicensePatterns,
	}, logger)

	units, scanErrs, err := scan.Scan(ctx, target)
	if err != nil {
		return fmt.Errorf("scan %s: %w", target, err)
	}
	logger.Info("collected evidence units", "count", len(units), "path", target)

	detector := detect.New(c, detect.Config{
		SimilarityThreshold: cfg.SimilarityThreshold,
		FuzzyThreshold:      cfg.FuzzyThreshold,
		ConfirmThreshold:    cfg.ConfirmThreshold,
		UnitTimeout:         cfg.UnitTimeout,
		Workers:             cfg.Threads,
	}, logger)

	licenses, copyrights, detectErrs := runDetection(ctx, detector, units, !noProgress && !debug, verbose)

	result := model.Result{
		Path:       target,
		Licenses:   licenses,
		Copyrights: copyrights,
		Errors:     append(scanErrs, detectErrs...),
	}
	report := model.NewReport(target, []model.Result{result}, len(units))

	w := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return output.Write(w, output.Format(format), report)
}

// runDetection runs the detector, driving either the TUI progress display or
// a plain-text fallback depending on the terminal.
func runDetection(ctx context.Context, d *detect.Detector, units []model.EvidenceUnit, showProgress, verbose bool) ([]model.DetectedLicense, []model.CopyrightStatement, []model.UnitError) {
	if showProgress && ui.IsTTY() && len(units) > 0 {
		prog := ui.RunTUI(len(units))

		type outcome struct {
			licenses   []model.DetectedLicense
			copyrights []model.CopyrightStatement
			errs       []model.UnitError
		}
		resCh := make(chan outcome, 1)
		go func() {
			licenses, copyrights, errs := d.Run(ctx, units, func(done, total int, path string) {
				prog.Send(ui.ProgressMsg{Completed: done, Total: total, Path: path})
			})
			resCh <- outcome{licenses, copyrights, errs}
			prog.Send(ui.DoneMsg{})
		}()

		if _, err := prog.Run(); err != nil {
			// terminal trouble: the detection goroutine still finishes
			fmt.Fprintln(os.Stderr, err)
		}
		res := <-resCh
		return res.licenses, res.copyrights, res.errs
	}

	var onProgress func(done, total int, path string)
	if showProgress && verbose {
		plain := ui.NewPlainProgress(func(msg string) { fmt.Fprintln(os.Stderr, msg) })
		onProgress = plain.Update
	}
	return d.Run(ctx, units, onProgress)
}

func newLicensesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "licenses",
		Short: "List the licenses in the bundled reference corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := corpus.Load()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tTEXT\tWIDELY USED")
			for _, rec := range c.Records() {
				text := "-"
				if rec.HasText() {
					text = "yes"
				}
				widely := "-"
				if rec.WidelyUsed {
					widely = "yes"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", rec.ID, rec.Name, text, widely)
			}
			return tw.Flush()
		},
	}
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write an annotated sample config to .licet.yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ".licet.yaml"
			if err := config.WriteSample(path); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Wrote %s\n", path)
			return nil
		},
	}

	cmd.AddCommand(initCmd)
	return cmd
}

func newLogger(verbose, debug bool) *log.Logger {
	level := log.WarnLevel
	if verbose {
		level = log.InfoLevel
	}
	if debug {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: debug,
	})
}

func formatNames() string {
	names := make([]string, 0, 4)
	for _, f := range output.Formats() {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}
