package core

// validation.go turns a stream of rows into validated items.
//
// Validation happens at two levels:
//  1. Schema: the first row's column names select the variant; no match is fatal
//  2. Row: each non-empty row becomes an Item whose problems are collected,
//     never raised
//
// The exact error strings below are part of the output contract: summaries
// are keyed by them and downstream tooling matches on them.

import (
	"strings"

	"github.com/JonMunkholm/ledgerimport/internal/hash"
)

// Fatal stream reasons.
const (
	ReasonUnexpectedSchema = "Unexpected schema, check number of column and/or headers"
	ReasonEmptyFile        = "Given file is empty"
)

// Row error messages.
const (
	MsgDuplicateID            = "Duplicate ID"
	MsgInvalidID              = "Invalid ID"
	MsgInvalidFileContentType = "Invalid file content type"
	MsgInvalidFileHash        = "Invalid file hash"
	MsgInvalidTokenType       = "Invalid token type"
)

const (
	errorSeparator   = "; "
	termsErrorPrefix = "Error: "
)

// SchemaError is the stream-level fatal result.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string {
	return e.Reason
}

// StreamResult is the outcome of a fully read stream.
type StreamResult struct {
	Items          []Item
	Variant        RowVariant
	FullyValidated bool

	// ErrorSummary counts items per exact ValidationError text.
	// Nil when FullyValidated.
	ErrorSummary map[string]int
}

// Validator holds the state of one input stream.
// It is not safe for concurrent use; rows must be fed in order.
type Validator struct {
	seen     map[string]struct{}
	variant  RowVariant
	detected bool
	fatal    *SchemaError
	errors   map[string]int
	items    []Item
}

// NewValidator creates an empty validator for one stream.
func NewValidator() *Validator {
	return &Validator{
		seen:   make(map[string]struct{}),
		errors: make(map[string]int),
	}
}

// Validate processes the next row.
//
// The first call detects the variant from the row's column names, even if
// all of the row's values are empty. If no variant matches, a *SchemaError
// is returned and every later call returns it again without doing anything.
// Row-level problems never produce an error.
func (v *Validator) Validate(row Row) error {
	if v.fatal != nil {
		return v.fatal
	}
	if !v.detected {
		variant, ok := DetectVariant(row.ColumnNames())
		if !ok {
			v.fatal = &SchemaError{Reason: ReasonUnexpectedSchema}
			return v.fatal
		}
		v.variant = variant
		v.detected = true
	}

	if row.IsEmpty() {
		return nil
	}

	item := v.validateRow(row)
	v.items = append(v.items, item)
	if item.ValidationError != "" {
		v.errors[item.ValidationError]++
	}
	v.seen[item.DisplayID] = struct{}{}
	return nil
}

func (v *Validator) validateRow(row Row) Item {
	var errs []string

	item := Item{
		DisplayID:       row[ColumnID],
		Description:     row[ColumnDescription],
		TermsType:       row[ColumnTermsType],
		TermsParameters: row[ColumnTermsParameters],
	}

	if _, dup := v.seen[item.DisplayID]; dup {
		errs = append(errs, MsgDuplicateID)
	}

	if id, ok := ToItemID(item.DisplayID); ok {
		item.ID = &id
	} else {
		errs = append(errs, MsgInvalidID)
	}

	if err := ValidateTerms(item.TermsType, item.TermsParameters); err != nil {
		errs = append(errs, termsErrorPrefix+err.Error())
	}

	if v.variant.HasFile() {
		file := &ItemFile{
			Name:        row[ColumnFileName],
			ContentType: row[ColumnFileContentType],
			Size:        row[ColumnFileSize],
		}
		if !IsValidMIME(file.ContentType) {
			errs = append(errs, MsgInvalidFileContentType)
		}
		if h, err := hash.FromHex(row[ColumnFileHash]); err == nil {
			file.Hash = &h
		} else {
			errs = append(errs, MsgInvalidFileHash)
		}
		item.File = file
	}

	if v.variant.HasToken() {
		token := &ItemToken{
			Type:     row[ColumnTokenType],
			ID:       row[ColumnTokenID],
			Issuance: row[ColumnTokenIssuance],
		}
		if !IsTokenType(token.Type) {
			errs = append(errs, MsgInvalidTokenType)
		}
		item.Token = token
	}

	if v.variant.HasRestriction() {
		item.RestrictedDelivery = isTrue(row[ColumnRestricted])
	}

	item.ValidationError = strings.Join(errs, errorSeparator)
	return item
}

// Variant returns the detected variant, if any.
func (v *Validator) Variant() (RowVariant, bool) {
	return v.variant, v.detected
}

// Result finalizes the stream.
// Returns a *SchemaError if detection failed or no row was ever seen.
func (v *Validator) Result() (*StreamResult, error) {
	if v.fatal != nil {
		return nil, v.fatal
	}
	if !v.detected {
		return nil, &SchemaError{Reason: ReasonEmptyFile}
	}

	result := &StreamResult{
		Items:          v.items,
		Variant:        v.variant,
		FullyValidated: len(v.errors) == 0,
	}
	if !result.FullyValidated {
		result.ErrorSummary = make(map[string]int, len(v.errors))
		for msg, n := range v.errors {
			result.ErrorSummary[msg] = n
		}
	}
	return result, nil
}
