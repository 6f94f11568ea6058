package core

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// RowSource yields rows keyed by column name. Next returns io.EOF after the
// last row.
type RowSource interface {
	Next() (Row, error)
	Close() error
}

// CSVSource reads rows from comma-separated text whose first record is the
// header.
type CSVSource struct {
	r       *csv.Reader
	closer  io.Closer
	counter *CountingReader
	header  []string
}

// NewCSVSource parses r. The header is read lazily on the first Next call.
// If r is an io.Closer it is closed by Close.
func NewCSVSource(r io.Reader) *CSVSource {
	wrapped, counter := WrapForStreaming(r)
	cr := csv.NewReader(wrapped)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	src := &CSVSource{r: cr, counter: counter}
	if c, ok := r.(io.Closer); ok {
		src.closer = c
	}
	return src
}

// Next implements RowSource.
func (s *CSVSource) Next() (Row, error) {
	if s.header == nil {
		header, err := s.r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("invalid csv header: %w", err)
		}
		s.header = header
	}

	record, err := s.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("invalid csv: %w", err)
	}
	return zipRow(s.header, record), nil
}

// BytesRead returns how many input bytes have been consumed.
func (s *CSVSource) BytesRead() int64 {
	return s.counter.BytesRead()
}

// Close implements RowSource.
func (s *CSVSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// XLSXSource reads rows from the first sheet of a workbook; the first row
// is the header.
type XLSXSource struct {
	f      *excelize.File
	rows   *excelize.Rows
	header []string
}

// OpenXLSXSource opens a workbook from r.
func OpenXLSXSource(r io.Reader) (*XLSXSource, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		_ = f.Close()
		return nil, errors.New("failed to open xlsx: workbook has no sheets")
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to read rows from xlsx: %w", err)
	}
	return &XLSXSource{f: f, rows: rows}, nil
}

// Next implements RowSource.
func (s *XLSXSource) Next() (Row, error) {
	for s.rows.Next() {
		cols, err := s.rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("failed to read rows from xlsx: %w", err)
		}
		if s.header == nil {
			s.header = cols
			continue
		}
		return zipRow(s.header, cols), nil
	}
	if err := s.rows.Error(); err != nil {
		return nil, fmt.Errorf("failed to read rows from xlsx: %w", err)
	}
	return nil, io.EOF
}

// Close implements RowSource.
func (s *XLSXSource) Close() error {
	rowsErr := s.rows.Close()
	if err := s.f.Close(); err != nil {
		return err
	}
	return rowsErr
}

// OpenRowSource opens path as XLSX when its extension is .xlsx, as CSV otherwise.
func OpenRowSource(path string) (RowSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		src, err := OpenXLSXSource(f)
		// excelize reads the whole workbook up front
		_ = f.Close()
		if err != nil {
			return nil, err
		}
		return src, nil
	}
	return NewCSVSource(f), nil
}

// ReadItems validates every row of src in one forward pass.
// A *SchemaError is returned for fatal stream results; it is returned as
// soon as the first row fails detection, without reading further.
func ReadItems(ctx context.Context, src RowSource) (*StreamResult, error) {
	v := NewValidator()
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		if err := v.Validate(row); err != nil {
			return nil, err
		}
	}
	return v.Result()
}

// zipRow maps header names to record values. Missing trailing values are
// empty; values beyond the header are dropped.
func zipRow(header, record []string) Row {
	row := make(Row, len(header))
	for i, name := range header {
		if i < len(record) {
			row[name] = record[i]
		} else {
			row[name] = ""
		}
	}
	return row
}
