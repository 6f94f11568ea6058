package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/ledgerimport/internal/core"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-csv <files...>",
		Short: "Validate one or more item CSV or XLSX files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				result, err := validateFile(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), path)
				if err != nil || (result != nil && !result.FullyValidated) {
					failed++
				}
			}
			if failed > 0 {
				return withCode(exitValidation, fmt.Errorf("%d file(s) failed validation", failed))
			}
			return nil
		},
	}
}

// validateFile reads and validates path, printing its outcome to out.
// It returns (nil, nil) when path is not a regular file and is skipped,
// and a non-nil error when the file could not be read or its schema is
// rejected. A returned result may still carry row-level errors.
func validateFile(ctx context.Context, out, errOut io.Writer, path string) (*core.StreamResult, error) {
	info, err := os.Lstat(path)
	if err != nil {
		fmt.Fprintln(errOut, err.Error())
		return nil, err
	}
	if !info.Mode().IsRegular() {
		fmt.Fprintf(out, "%s: skipped\n", path)
		return nil, nil
	}

	src, err := core.OpenRowSource(path)
	if err != nil {
		fmt.Fprintf(out, "%s: validation failure: %v\n", path, err)
		return nil, err
	}
	defer func() { _ = src.Close() }()

	result, err := core.ReadItems(ctx, src)
	if counted, ok := src.(interface{ BytesRead() int64 }); ok {
		slog.Debug("file read", "path", path, "bytes", counted.BytesRead())
	}
	if err != nil {
		var schemaErr *core.SchemaError
		if errors.As(err, &schemaErr) {
			fmt.Fprintf(out, "%s: validation failure: %s\n", path, schemaErr.Reason)
		} else {
			fmt.Fprintf(out, "%s: validation failure: %s\n", path, core.FormatUserError(err))
		}
		return nil, err
	}

	if result.FullyValidated {
		fmt.Fprintf(out, "%s: validated - detected type [%s]. %d row(s)\n", path, result.Variant, len(result.Items))
		return result, nil
	}

	fmt.Fprintf(out, "%s: validation failure - detected type [%s]. %d row(s)\n", path, result.Variant, len(result.Items))
	fmt.Fprintln(out, "Summary of errors:")
	for _, msg := range slices.Sorted(maps.Keys(result.ErrorSummary)) {
		fmt.Fprintf(out, "  %s: %d\n", msg, result.ErrorSummary[msg])
	}
	return result, nil
}
