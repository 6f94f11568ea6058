package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/ledgerimport/internal/core"
	"github.com/JonMunkholm/ledgerimport/internal/scaffold"
)

type createOptions struct {
	numOfRows  int
	withFiles  string
	restricted bool
	dir        string
	withTokens string
	contract   string
	nonce      string
	issuance   uint64
	tcType     string
	tcDetails  string
	output     string
}

func newCreateCmd() *cobra.Command {
	var opts createOptions

	cmd := &cobra.Command{
		Use:   "create-csv",
		Short: "Generate an item CSV with placeholder rows or one row per file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := opts.params()
			if err != nil {
				return withCode(exitUsage, err)
			}
			summary, err := scaffold.WriteFile(params, opts.output)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s generated with %d row(s) and %d columns\n", opts.output, summary.Rows, summary.Columns)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.numOfRows, "num-of-rows", 0, "The number of placeholder rows")
	cmd.Flags().StringVar(&opts.withFiles, "with-files", "", "Add files with the given MIME type, for instance application/pdf")
	cmd.Flags().BoolVar(&opts.restricted, "restricted", false, "Enable restricted delivery of files")
	cmd.Flags().StringVar(&opts.dir, "dir", "", "Directory whose files become rows")
	cmd.Flags().StringVar(&opts.withTokens, "with-tokens", "", "Add tokens of the given type")
	cmd.Flags().StringVar(&opts.contract, "contract", scaffold.DefaultContract, "Contract address, if the token type has one")
	cmd.Flags().StringVar(&opts.nonce, "nonce", "", "Nonce used at contract instantiation")
	cmd.Flags().Uint64Var(&opts.issuance, "issuance", 1, "Token issuance")
	cmd.Flags().StringVar(&opts.tcType, "tc-type", "", "Terms and conditions type: "+strings.Join(core.TermsTypes, ", "))
	cmd.Flags().StringVar(&opts.tcDetails, "tc-details", "", "Terms and conditions details")
	cmd.Flags().StringVar(&opts.output, "output", "items.csv", "Output file")

	cmd.MarkFlagsMutuallyExclusive("num-of-rows", "dir")
	cmd.MarkFlagsRequiredTogether("tc-type", "tc-details")

	return cmd
}

func (o createOptions) params() (scaffold.Params, error) {
	p := scaffold.Params{NumOfRows: o.numOfRows}

	if o.withFiles != "" {
		p.File = &scaffold.WithFile{
			Dir:         o.dir,
			ContentType: o.withFiles,
			Restricted:  o.restricted,
		}
	} else if o.dir != "" {
		return p, errors.New("--dir requires --with-files")
	}

	if o.withTokens != "" {
		p.Token = &scaffold.WithToken{
			Type:     o.withTokens,
			Contract: o.contract,
			Nonce:    o.nonce,
			Issuance: o.issuance,
		}
	}

	if o.tcType != "" {
		p.Terms = &scaffold.WithTerms{Type: o.tcType, Parameters: o.tcDetails}
	}

	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}
