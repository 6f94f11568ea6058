package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/ledgerimport/internal/config"
	"github.com/JonMunkholm/ledgerimport/internal/core"
	"github.com/JonMunkholm/ledgerimport/internal/importer"
	"github.com/JonMunkholm/ledgerimport/internal/ledger"
)

type importOptions struct {
	loc         uuid.UUID
	dir         string
	batchSize   int
	ledgerURL   string
	dryRun      bool
	skipInvalid bool
	json        bool
}

// fileReport is the per-file line printed with --json.
type fileReport struct {
	File   string          `json:"file"`
	Loc    uuid.UUID       `json:"loc"`
	DryRun bool            `json:"dryRun"`
	Report importer.Report `json:"report"`
}

func newImportCmd(cfg *config.Config) *cobra.Command {
	var opts importOptions
	var loc string

	cmd := &cobra.Command{
		Use:   "import-csv <files...>",
		Short: "Import one or more CSV files into a collection",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, cfg, opts, args)
		},
	}

	cmd.Flags().StringVar(&loc, "loc", "", "Collection LOC id, decimal or UUID (default: LEDGER_COLLECTION)")
	cmd.Flags().StringVar(&opts.dir, "dir", "", "Directory used as input for files (default: IMPORT_FILES_DIR or the CSV's directory)")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", cfg.Import.BatchSize, "Number of items created per ledger call")
	cmd.Flags().StringVar(&opts.ledgerURL, "ledger-url", cfg.Ledger.URL, "Base URL of the ledger service")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Import into an in-memory ledger")
	cmd.Flags().BoolVar(&opts.skipInvalid, "skip-invalid", false, "Import the valid items of files with validation errors")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print one JSON report line per file")

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(loc) == "" {
			opts.loc = cfg.Ledger.Collection
		} else {
			id, ok := core.ParseLocID(loc)
			if !ok {
				return withCode(exitUsage, fmt.Errorf("invalid --loc: %q is neither a decimal nor a UUID LOC id", loc))
			}
			opts.loc = id
		}
		if opts.loc == uuid.Nil {
			return withCode(exitUsage, errors.New("--loc is required when LEDGER_COLLECTION is not set"))
		}
		if opts.batchSize <= 0 {
			return withCode(exitUsage, fmt.Errorf("invalid --batch-size: %d", opts.batchSize))
		}
		return nil
	}

	return cmd
}

func runImport(cmd *cobra.Command, cfg *config.Config, opts importOptions, files []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	target, err := openLedger(cfg, opts)
	if err != nil {
		return withCode(exitUsage, err)
	}
	slog.Info("import started", "loc", opts.loc, "files", len(files), "dry_run", opts.dryRun)

	skipped := 0
	for _, path := range files {
		result, err := validateFile(ctx, out, cmd.ErrOrStderr(), path)
		if err != nil || result == nil || (!result.FullyValidated && !opts.skipInvalid) {
			fmt.Fprintf(out, "%s skipped\n", path)
			skipped++
			continue
		}

		report, err := importItems(cmd, cfg, opts, target, path, result.Items)
		if err != nil {
			if errors.Is(err, importer.ErrLedgerIntegrity) {
				return withCode(exitIntegrity, fmt.Errorf("%s: %w", path, err))
			}
			return withCode(exitLedger, fmt.Errorf("%s: %w", path, err))
		}

		if opts.json {
			if err := writeJSONLine(out, fileReport{File: path, Loc: opts.loc, DryRun: opts.dryRun, Report: report}); err != nil {
				return err
			}
		} else {
			fmt.Fprintf(out, "%s imported\n", path)
			printReport(out, report)
		}
	}

	if skipped > 0 {
		return withCode(exitValidation, fmt.Errorf("%d file(s) skipped", skipped))
	}
	return nil
}

func openLedger(cfg *config.Config, opts importOptions) (ledger.Ledger, error) {
	if opts.dryRun {
		return ledger.NewMemory(), nil
	}
	return ledger.NewClient(opts.ledgerURL, opts.loc, cfg.Ledger.APIKey, cfg.Ledger.Timeout)
}

func importItems(cmd *cobra.Command, cfg *config.Config, opts importOptions, target ledger.Ledger, path string, items []core.Item) (importer.Report, error) {
	im := importer.New(target, importer.DirFiles(filesDir(cfg, opts, path)), importer.Options{
		BatchSize:           opts.batchSize,
		MaxConcurrentChecks: cfg.Import.MaxConcurrentChecks,
		AcceptsUpload:       cfg.Import.AcceptsUpload,
	})
	return im.Run(cmd.Context(), items)
}

func filesDir(cfg *config.Config, opts importOptions, csvPath string) string {
	switch {
	case opts.dir != "":
		return opts.dir
	case cfg.Import.FilesDir != "":
		return cfg.Import.FilesDir
	default:
		return filepath.Dir(csvPath)
	}
}

func printReport(w io.Writer, r importer.Report) {
	fmt.Fprintf(w, "  batches=%d created=%d skipped=%d uploaded=%d reconciled=%d pending=%d\n",
		r.Batches, r.Created, r.Skipped, r.Uploaded, r.Reconciled, r.Pending)
	if r.HashMismatches > 0 || r.MissingFiles > 0 || r.Invalid > 0 {
		fmt.Fprintf(w, "  warnings: hash_mismatches=%d missing_files=%d invalid=%d\n",
			r.HashMismatches, r.MissingFiles, r.Invalid)
	}
}
