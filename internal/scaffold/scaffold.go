// Package scaffold generates item CSV files, either placeholder rows or one
// row per file found in a directory.
package scaffold

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/JonMunkholm/ledgerimport/internal/core"
	"github.com/JonMunkholm/ledgerimport/internal/hash"
)

// DefaultContract fills TOKEN ID when no contract address is given.
const DefaultContract = "__CONTRACT__"

const (
	placeholderDescription = "description"
	placeholderFileSize    = 123456
)

// WithFile adds file columns.
type WithFile struct {
	// Dir, when set, lists real files; otherwise placeholder files are used.
	Dir         string
	ContentType string
	Restricted  bool
}

// WithToken adds token columns.
type WithToken struct {
	Type     string
	Contract string
	Nonce    string
	Issuance uint64
}

// WithTerms replaces the default "none" terms and conditions.
type WithTerms struct {
	Type       string
	Parameters string
}

// Params describes the CSV to generate.
type Params struct {
	NumOfRows int
	File      *WithFile
	Token     *WithToken
	Terms     *WithTerms
}

// Summary describes a generated CSV.
type Summary struct {
	Rows    int
	Columns int
	Variant core.RowVariant
}

// Validate checks the options before anything is written.
func (p Params) Validate() error {
	var errs []error
	if p.NumOfRows < 0 {
		errs = append(errs, fmt.Errorf("invalid --num-of-rows: %d", p.NumOfRows))
	}
	if p.File != nil {
		if !core.IsValidMIME(p.File.ContentType) {
			errs = append(errs, fmt.Errorf("invalid mime-type: %s", p.File.ContentType))
		}
		if p.File.Dir != "" && p.NumOfRows > 0 {
			errs = append(errs, errors.New("--num-of-rows and --dir are mutually exclusive"))
		}
	}
	if p.Token != nil && !core.IsTokenType(p.Token.Type) {
		errs = append(errs, fmt.Errorf("invalid token type: %s", p.Token.Type))
	}
	if p.Terms != nil {
		if err := core.ValidateTerms(p.Terms.Type, p.Terms.Parameters); err != nil {
			errs = append(errs, fmt.Errorf("invalid --tc-details: %s [%w]", p.Terms.Parameters, err))
		}
	}
	return errors.Join(errs...)
}

// Variant returns the row variant the generated CSV follows.
func (p Params) Variant() core.RowVariant {
	switch {
	case p.File != nil && p.Token != nil:
		return core.WithFileAndToken
	case p.File != nil:
		return core.WithFile
	case p.Token != nil:
		return core.WithToken
	default:
		return core.WithoutFile
	}
}

// FileInfo is the file part of a generated row.
type FileInfo struct {
	Name        string
	ContentType string
	Size        int64
	Hash        hash.Hash
}

// Generate writes the header and every row to w.
func Generate(p Params, w io.Writer) (Summary, error) {
	if err := p.Validate(); err != nil {
		return Summary{}, err
	}

	files, err := p.files()
	if err != nil {
		return Summary{}, err
	}

	rows := p.NumOfRows
	if rows < 1 {
		rows = 1
	}
	if files != nil {
		rows = len(files)
	}

	variant := p.Variant()
	header := variant.Columns()

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return Summary{}, fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < rows; i++ {
		var file *FileInfo
		if p.File != nil {
			if files != nil {
				file = &files[i]
			} else {
				file = p.placeholderFile(i)
			}
		}
		row := p.Row(file, i)
		record := make([]string, len(header))
		for j, col := range header {
			record[j] = row[col]
		}
		if err := cw.Write(record); err != nil {
			return Summary{}, fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return Summary{}, fmt.Errorf("flush csv: %w", err)
	}

	return Summary{Rows: rows, Columns: len(header), Variant: variant}, nil
}

// WriteFile generates the CSV into path.
func WriteFile(p Params, path string) (Summary, error) {
	f, err := os.Create(path)
	if err != nil {
		return Summary{}, err
	}
	summary, err := Generate(p, f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	return summary, err
}

// Row builds row i. file must be non-nil when p.File is set.
func (p Params) Row(file *FileInfo, i int) core.Row {
	row := core.Row{
		core.ColumnID:              p.itemID(i),
		core.ColumnDescription:     placeholderDescription,
		core.ColumnTermsType:       core.TermsNone,
		core.ColumnTermsParameters: core.TermsNone,
	}
	if p.Terms != nil {
		row[core.ColumnTermsType] = p.Terms.Type
		row[core.ColumnTermsParameters] = p.Terms.Parameters
	}
	if file != nil {
		row[core.ColumnFileName] = file.Name
		row[core.ColumnFileContentType] = file.ContentType
		row[core.ColumnFileSize] = strconv.FormatInt(file.Size, 10)
		row[core.ColumnFileHash] = file.Hash.Hex()
	}
	if p.File != nil && p.Token != nil {
		row[core.ColumnRestricted] = "N"
		if p.File.Restricted {
			row[core.ColumnRestricted] = "Y"
		}
	}
	if p.Token != nil {
		row[core.ColumnTokenType] = p.Token.Type
		row[core.ColumnTokenID] = p.tokenID(i)
		row[core.ColumnTokenIssuance] = strconv.FormatUint(p.Token.Issuance, 10)
	}
	return row
}

// itemID is the plain row index without a token, and a derived hash with one.
func (p Params) itemID(i int) string {
	n := strconv.Itoa(i)
	if p.Token == nil {
		return n
	}
	switch {
	case core.IsEthereumToken(p.Token.Type):
		return hash.Of(p.Token.Nonce + n).Hex()
	case core.IsPSP34Token(p.Token.Type):
		return hash.Of(p.Token.Nonce + "U64" + n).Hex()
	default:
		return hash.Of(n).Hex()
	}
}

func (p Params) tokenID(i int) string {
	contract := p.Token.Contract
	if contract == "" {
		contract = DefaultContract
	}
	switch {
	case core.IsEthereumToken(p.Token.Type):
		return fmt.Sprintf(`{"contract":"%s","id":"%d"}`, contract, i)
	case core.IsPSP34Token(p.Token.Type):
		return fmt.Sprintf(`{"contract":"%s","id":{"U64":%d}}`, contract, i)
	default:
		return strconv.Itoa(i)
	}
}

func (p Params) placeholderFile(i int) *FileInfo {
	ext := ""
	if exts := core.MIMEExtensions(p.File.ContentType); len(exts) > 0 {
		ext = exts[0]
	}
	return &FileInfo{
		Name:        fmt.Sprintf("file%d%s", i, ext),
		ContentType: p.File.ContentType,
		Size:        placeholderFileSize,
	}
}

// files lists and digests the directory's files whose extension matches
// the content type. It returns nil when no directory is configured.
func (p Params) files() ([]FileInfo, error) {
	if p.File == nil || p.File.Dir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(p.File.Dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", p.File.Dir, err)
	}
	exts := core.MIMEExtensions(p.File.ContentType)

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !slices.Contains(exts, ext) {
			slog.Warn("Skipping file: invalid extension", "file", e.Name(), "content_type", p.File.ContentType)
			continue
		}
		names = append(names, e.Name())
	}
	slices.Sort(names)

	out := make([]FileInfo, 0, len(names))
	for _, name := range names {
		content, err := os.ReadFile(filepath.Join(p.File.Dir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		out = append(out, FileInfo{
			Name:        name,
			ContentType: p.File.ContentType,
			Size:        int64(len(content)),
			Hash:        hash.Sum(content),
		})
	}
	return out, nil
}
